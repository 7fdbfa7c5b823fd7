package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/okfngroup/audit-intake/internal/config"
)

// Outcome is the terminal state of one assistant exchange.
type Outcome int

const (
	OutcomeCompleted Outcome = iota
	OutcomeFailed
	OutcomeTimedOut
)

// Result is the tagged outcome of an assistant exchange. Text is only
// meaningful when Outcome is OutcomeCompleted.
type Result struct {
	Outcome Outcome
	Text    string
	Reason  string
}

// AssistantClient talks to an assistants-style chat completion API:
// create a thread, post a message, start a run, poll the run to a
// terminal state, then fetch the last assistant turn.
type AssistantClient struct {
	apiKey     string
	orgID      string
	baseURL    string
	httpClient *http.Client

	// PollInterval and PollBudget bound the busy-poll loop. There is no
	// cancellation path once a run starts; the budget is the only exit.
	PollInterval time.Duration
	PollBudget   time.Duration
}

// NewAssistantClient creates a client from OpenAI configuration.
func NewAssistantClient(cfg config.OpenAIConfig) *AssistantClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return &AssistantClient{
		apiKey:       cfg.APIKey,
		orgID:        cfg.OrgID,
		baseURL:      baseURL,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		PollInterval: 1500 * time.Millisecond,
		PollBudget:   120 * time.Second,
	}
}

func (c *AssistantClient) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("error marshaling request: %w", err)
		}
		reqBody = bytes.NewBuffer(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("OpenAI-Organization", c.orgID)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("OpenAI-Beta", "assistants=v2")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("error reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("assistant API error (%d): %s", resp.StatusCode, string(respBody))
	}
	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("error parsing response: %w", err)
		}
	}
	return nil
}

type threadResponse struct {
	ID string `json:"id"`
}

type runResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type messageListResponse struct {
	Data []struct {
		Role    string `json:"role"`
		Content []struct {
			Type string `json:"type"`
			Text struct {
				Value string `json:"value"`
			} `json:"text"`
		} `json:"content"`
	} `json:"data"`
}

// CreateThread starts a new conversation thread and returns its id.
func (c *AssistantClient) CreateThread(ctx context.Context) (string, error) {
	var thread threadResponse
	if err := c.do(ctx, http.MethodPost, "/threads", struct{}{}, &thread); err != nil {
		return "", fmt.Errorf("failed to create thread: %w", err)
	}
	return thread.ID, nil
}

func (c *AssistantClient) postMessage(ctx context.Context, threadID, content string) error {
	body := map[string]string{"role": "user", "content": content}
	if err := c.do(ctx, http.MethodPost, "/threads/"+threadID+"/messages", body, nil); err != nil {
		return fmt.Errorf("failed to post message: %w", err)
	}
	return nil
}

func (c *AssistantClient) createRun(ctx context.Context, threadID, assistantID string) (string, error) {
	body := map[string]string{"assistant_id": assistantID}
	var run runResponse
	if err := c.do(ctx, http.MethodPost, "/threads/"+threadID+"/runs", body, &run); err != nil {
		return "", fmt.Errorf("failed to start run: %w", err)
	}
	return run.ID, nil
}

func (c *AssistantClient) runStatus(ctx context.Context, threadID, runID string) (string, error) {
	var run runResponse
	if err := c.do(ctx, http.MethodGet, "/threads/"+threadID+"/runs/"+runID, nil, &run); err != nil {
		return "", fmt.Errorf("failed to check run: %w", err)
	}
	return run.Status, nil
}

// lastAssistantText fetches the newest assistant turn's text. The API
// returns messages newest first.
func (c *AssistantClient) lastAssistantText(ctx context.Context, threadID string) (string, error) {
	var msgs messageListResponse
	if err := c.do(ctx, http.MethodGet, "/threads/"+threadID+"/messages", nil, &msgs); err != nil {
		return "", fmt.Errorf("failed to fetch messages: %w", err)
	}
	for _, msg := range msgs.Data {
		if msg.Role != "assistant" {
			continue
		}
		for _, content := range msg.Content {
			if content.Type == "text" {
				return content.Text.Value, nil
			}
		}
	}
	return "", fmt.Errorf("no assistant message found")
}

// AskInThread posts a question into an existing thread and waits for the
// answer. It is a busy-poll with sleep: the run status is checked every
// PollInterval until a terminal state or until PollBudget wall clock has
// elapsed, which yields OutcomeTimedOut.
func (c *AssistantClient) AskInThread(ctx context.Context, assistantID, threadID, question string) Result {
	if err := c.postMessage(ctx, threadID, question); err != nil {
		return Result{Outcome: OutcomeFailed, Reason: err.Error()}
	}

	runID, err := c.createRun(ctx, threadID, assistantID)
	if err != nil {
		return Result{Outcome: OutcomeFailed, Reason: err.Error()}
	}

	deadline := time.Now().Add(c.PollBudget)
	for {
		status, err := c.runStatus(ctx, threadID, runID)
		if err != nil {
			return Result{Outcome: OutcomeFailed, Reason: err.Error()}
		}
		switch status {
		case "completed":
			text, err := c.lastAssistantText(ctx, threadID)
			if err != nil {
				return Result{Outcome: OutcomeFailed, Reason: err.Error()}
			}
			return Result{Outcome: OutcomeCompleted, Text: text}
		case "failed", "cancelled", "expired":
			return Result{Outcome: OutcomeFailed, Reason: "run ended with status " + status}
		}
		if time.Now().After(deadline) {
			return Result{Outcome: OutcomeTimedOut, Reason: "run did not finish within poll budget"}
		}
		select {
		case <-ctx.Done():
			return Result{Outcome: OutcomeFailed, Reason: ctx.Err().Error()}
		case <-time.After(c.PollInterval):
		}
	}
}

// Ask runs a question in a fresh thread.
func (c *AssistantClient) Ask(ctx context.Context, assistantID, question string) Result {
	threadID, err := c.CreateThread(ctx)
	if err != nil {
		return Result{Outcome: OutcomeFailed, Reason: err.Error()}
	}
	return c.AskInThread(ctx, assistantID, threadID, question)
}
