package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/okfngroup/audit-intake/internal/report"
	"github.com/okfngroup/audit-intake/internal/session"
)

// ChatAsker is the conversational assistant exchange the chat step uses.
type ChatAsker interface {
	CreateThread(ctx context.Context) (string, error)
	AskInThread(ctx context.Context, assistantID, threadID, question string) report.Result
}

// ChatHandler proxies the optional pre-intake Q&A to the audit assistant.
type ChatHandler struct {
	client      ChatAsker
	assistantID string
	manager     *session.Manager
}

// NewChatHandler creates a new chat handler
func NewChatHandler(client ChatAsker, assistantID string, manager *session.Manager) *ChatHandler {
	return &ChatHandler{client: client, assistantID: assistantID, manager: manager}
}

// ChatRequest is one user question.
type ChatRequest struct {
	Question string `json:"question" binding:"required"`
}

// Ask sends the question into the session's conversation thread, creating
// the thread on first use so follow-up questions keep their context.
func (h *ChatHandler) Ask(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s := currentSession(c)
	if s.ThreadID == "" {
		threadID, err := h.client.CreateThread(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "assistant unavailable"})
			return
		}
		s.ThreadID = threadID
		h.manager.Update(s)
	}

	result := h.client.AskInThread(c.Request.Context(), h.assistantID, s.ThreadID, req.Question)
	if result.Outcome != report.OutcomeCompleted {
		c.JSON(http.StatusBadGateway, gin.H{"error": "assistant response failed", "detail": result.Reason})
		return
	}

	c.JSON(http.StatusOK, gin.H{"answer": report.CleanAnswer(result.Text)})
}
