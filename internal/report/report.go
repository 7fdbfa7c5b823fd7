// Package report builds the AI-drafted audit narrative for a submission
// and renders it into a document file.
package report

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gorm.io/gorm"

	"github.com/okfngroup/audit-intake/internal/database"
)

// ErrGeneration is returned whenever a draft cannot be produced: HTTP
// failure, a non-completed run, a timeout, or an implausibly short
// answer. The caller never receives a partial document.
var ErrGeneration = errors.New("draft generation failed")

// minPlausibleLength rejects answers too short to be a real report.
const minPlausibleLength = 100

// Asker is the assistant exchange the generator depends on.
type Asker interface {
	Ask(ctx context.Context, assistantID, question string) Result
}

// Generator produces draft audit reports.
type Generator struct {
	client      Asker
	assistantID string
	reportDir   string
}

// NewGenerator creates a generator writing documents into reportDir.
func NewGenerator(client Asker, assistantID, reportDir string) *Generator {
	return &Generator{client: client, assistantID: assistantID, reportDir: reportDir}
}

var (
	citationMark  = regexp.MustCompile(`【[^】]*】`)
	boldColonMark = regexp.MustCompile(`\*\*(.*?):\*\*`)
)

// CleanAnswer strips citation-artifact markup and bold-colon patterns
// the assistant tends to emit.
func CleanAnswer(text string) string {
	text = citationMark.ReplaceAllString(text, "")
	return boldColonMark.ReplaceAllString(text, "$1")
}

// BuildPrompt assembles the generation prompt: identity fields, each
// uploaded document with its extracted text, and the missing categories
// with their stated reasons.
func BuildPrompt(db *gorm.DB, sub *database.Submission) (string, error) {
	files, err := database.ListUploadedFiles(db, sub.SubmissionID)
	if err != nil {
		return "", err
	}
	reasons, err := database.ListMissingReasons(db, sub.SubmissionID)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("다음 정보를 기반으로, 상세하고 전문적인 일상감사 보고서 초안을 작성해주세요.\n\n")
	b.WriteString("## 계약 기본 정보\n")
	fmt.Fprintf(&b, "- 접수 ID: %s\n", sub.SubmissionID)
	fmt.Fprintf(&b, "- 접수 부서: %s\n", sub.Department)
	fmt.Fprintf(&b, "- 담당자: %s (연락처: %s)\n", sub.Manager, sub.Phone)
	fmt.Fprintf(&b, "- 계약명: %s\n", sub.ContractName)
	fmt.Fprintf(&b, "- 계약 기간: %s\n", sub.ContractDate)
	fmt.Fprintf(&b, "- 계약금액: %s\n", sub.ContractAmount)
	fmt.Fprintf(&b, "- 계약방식: %s\n", sub.ContractMethod)
	fmt.Fprintf(&b, "- 예산과목: %s\n\n", sub.BudgetItem)

	if len(files) > 0 {
		b.WriteString("## 제출된 자료 및 실제 내용\n\n")
		for _, file := range files {
			fmt.Fprintf(&b, "### %s\n", file.FileName)
			if _, err := os.Stat(file.FilePath); err != nil {
				b.WriteString("파일 내용 읽기 실패\n\n")
				continue
			}
			fmt.Fprintf(&b, "```\n%s\n```\n\n", ExtractFileContent(file.FilePath))
		}
	} else {
		b.WriteString("제출된 자료: 없음\n\n")
	}

	if len(reasons) > 0 {
		b.WriteString("## 누락된 자료 및 사유\n\n")
		for _, reason := range reasons {
			fmt.Fprintf(&b, "- %s: %s\n", reason.FileName, reason.Reason)
		}
		b.WriteString("\n")
	} else {
		b.WriteString("누락된 자료: 없음\n\n")
	}

	b.WriteString("위의 실제 문서 내용을 분석하여 전문적인 일상감사 보고서 초안을 작성해주세요.\n")
	b.WriteString("특히 제출된 문서의 구체적인 내용을 인용하고 분석하여 실질적인 검토 의견을 제시해주세요.\n")
	return b.String(), nil
}

// Draft generates the report document for a submission and returns its
// path. Any generation failure returns ErrGeneration; no document is
// written in that case.
func (g *Generator) Draft(ctx context.Context, db *gorm.DB, sub *database.Submission) (string, error) {
	prompt, err := BuildPrompt(db, sub)
	if err != nil {
		return "", fmt.Errorf("failed to build prompt: %w", err)
	}

	result := g.client.Ask(ctx, g.assistantID, prompt)
	if result.Outcome != OutcomeCompleted {
		return "", fmt.Errorf("%w: %s", ErrGeneration, result.Reason)
	}
	if len([]rune(strings.TrimSpace(result.Text))) < minPlausibleLength {
		return "", fmt.Errorf("%w: answer too short", ErrGeneration)
	}

	document := RenderDocument(sub, CleanAnswer(result.Text))
	path := filepath.Join(g.reportDir, fmt.Sprintf("감사보고서초안_%s.txt", sub.SubmissionID))
	if err := os.WriteFile(path, []byte(document), 0644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return path, nil
}

// RenderDocument turns the cleaned narrative into the final document: a
// metadata header block followed by the body with Markdown headings
// promoted to section marks and bullet markers to list items. Blank
// lines are dropped.
func RenderDocument(sub *database.Submission, answer string) string {
	var b strings.Builder
	b.WriteString("일상감사 보고서 초안\n")
	b.WriteString(strings.Repeat("=", 80) + "\n\n")
	b.WriteString("접수 정보\n")
	b.WriteString(strings.Repeat("-", 40) + "\n")
	fmt.Fprintf(&b, "접수 ID: %s\n", sub.SubmissionID)
	fmt.Fprintf(&b, "접수 부서: %s\n", sub.Department)
	fmt.Fprintf(&b, "담당자: %s (%s)\n", sub.Manager, sub.Phone)
	fmt.Fprintf(&b, "계약명: %s\n", sub.ContractName)
	fmt.Fprintf(&b, "계약 기간: %s\n", sub.ContractDate)
	fmt.Fprintf(&b, "계약금액: %s\n", sub.ContractAmount)
	fmt.Fprintf(&b, "계약방식: %s\n", sub.ContractMethod)
	fmt.Fprintf(&b, "예산과목: %s\n\n", sub.BudgetItem)
	b.WriteString(strings.Repeat("=", 80) + "\n\n")
	b.WriteString("감사 의견\n")
	b.WriteString(strings.Repeat("-", 40) + "\n\n")

	for _, line := range strings.Split(strings.TrimSpace(answer), "\n") {
		line = strings.TrimSpace(line)
		switch {
		case line == "":
		case strings.HasPrefix(line, "### "):
			b.WriteString("○ " + strings.TrimPrefix(line, "### ") + "\n")
		case strings.HasPrefix(line, "## "):
			b.WriteString("□ " + strings.TrimPrefix(line, "## ") + "\n")
		case strings.HasPrefix(line, "# "):
			b.WriteString("■ " + strings.TrimPrefix(line, "# ") + "\n")
		case strings.HasPrefix(line, "- "), strings.HasPrefix(line, "* "):
			b.WriteString("  • " + line[2:] + "\n")
		default:
			b.WriteString(line + "\n")
		}
	}
	return b.String()
}
