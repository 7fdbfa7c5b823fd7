package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/okfngroup/audit-intake/internal/checklist"
	"github.com/okfngroup/audit-intake/internal/database"
	"github.com/okfngroup/audit-intake/internal/mail"
	"github.com/okfngroup/audit-intake/internal/packaging"
	"github.com/okfngroup/audit-intake/internal/storage"
)

// Drafter produces the AI draft report document for a submission.
type Drafter interface {
	Draft(ctx context.Context, db *gorm.DB, sub *database.Submission) (string, error)
}

// Sender delivers the notification mail.
type Sender interface {
	Send(subject, body, to string, attachments []string) error
}

// FinalizeHandler runs the finalization pipeline: completeness guard,
// packaging, draft generation, dispatch, status flip.
type FinalizeHandler struct {
	db             *gorm.DB
	store          *storage.Store
	drafter        Drafter
	mailer         Sender
	auditTeamEmail string
}

// NewFinalizeHandler creates a new finalize handler
func NewFinalizeHandler(db *gorm.DB, store *storage.Store, drafter Drafter, mailer Sender, auditTeamEmail string) *FinalizeHandler {
	return &FinalizeHandler{
		db:             db,
		store:          store,
		drafter:        drafter,
		mailer:         mailer,
		auditTeamEmail: auditTeamEmail,
	}
}

// FinalizeRequest carries the user-editable dispatch fields.
type FinalizeRequest struct {
	RecipientEmail       string `json:"recipient_email"`
	Subject              string `json:"subject"`
	ReportRecipientEmail string `json:"report_recipient_email"`
	AdditionalMessage    string `json:"additional_message"`
}

// Finalize packages the artifacts, drafts the report, sends the packet
// and marks the submission completed. Completeness is re-evaluated from
// the store first: an incomplete submission is rejected before any
// packaging, drafting or sending happens. A draft failure only omits
// that attachment; a dispatch failure leaves the status untouched so a
// retry re-runs the whole pipeline from current state.
func (h *FinalizeHandler) Finalize(c *gin.Context) {
	var req FinalizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s := currentSession(c)
	sub, err := database.GetSubmission(h.db, s.SubmissionID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "submission metadata has not been entered"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	completeness, err := checklist.Evaluate(h.db, sub.SubmissionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !completeness.Complete() {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":       "required documents outstanding",
			"outstanding": completeness.Outstanding,
		})
		return
	}

	files, err := database.ListUploadedFiles(h.db, sub.SubmissionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	reasons, err := database.ListMissingReasons(h.db, sub.SubmissionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var attachments []string
	zipAttached := false
	if len(files) > 0 {
		zipDir, err := h.store.ZipDir()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		zipPath, err := packaging.Package(h.db, zipDir, sub.SubmissionID)
		if err != nil {
			log.Printf("packaging failed for %s: %v", sub.SubmissionID, err)
			// Fall back to attaching the raw files.
			for _, file := range files {
				attachments = append(attachments, file.FilePath)
			}
		} else {
			attachments = append(attachments, zipPath)
			zipAttached = true
		}
	}

	reportAttached := false
	reportPath, err := h.drafter.Draft(c.Request.Context(), h.db, sub)
	if err != nil {
		log.Printf("draft generation failed for %s: %v", sub.SubmissionID, err)
	} else {
		attachments = append(attachments, reportPath)
		reportAttached = true
	}

	recipient := req.RecipientEmail
	if recipient == "" {
		recipient = h.auditTeamEmail
	}
	subject := req.Subject
	if subject == "" {
		subject = "일상감사 접수: " + sub.SubmissionID
	}

	body := mail.BuildBody(mail.BodyInput{
		Submission:      sub,
		Files:           files,
		Reasons:         reasons,
		ExtraMessage:    req.AdditionalMessage,
		ReportRecipient: req.ReportRecipientEmail,
		ZipAttached:     zipAttached,
		ReportAttached:  reportAttached,
	})

	if err := h.mailer.Send(subject, body, recipient, attachments); err != nil {
		status := http.StatusBadGateway
		kind := "delivery failed"
		switch {
		case errors.Is(err, mail.ErrAuth):
			kind = "mail authentication failed"
		case errors.Is(err, mail.ErrProtocol):
			kind = "mail protocol error"
		}
		c.JSON(status, gin.H{"error": kind, "detail": err.Error()})
		return
	}

	if err := database.UpdateSubmissionStatus(h.db, sub.SubmissionID, database.StatusCompleted, true); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":          "success",
		"submission_id":   sub.SubmissionID,
		"recipient":       recipient,
		"zip_attached":    zipAttached,
		"report_attached": reportAttached,
	})
}

// Receipt returns a plaintext intake confirmation for a completed
// submission.
func (h *FinalizeHandler) Receipt(c *gin.Context) {
	s := currentSession(c)
	sub, err := database.GetSubmission(h.db, s.SubmissionID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "submission not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	files, err := database.ListUploadedFiles(h.db, sub.SubmissionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	reasons, err := database.ListMissingReasons(h.db, sub.SubmissionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "접수확인서_"+sub.SubmissionID+".txt"))
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(buildReceipt(sub, files, reasons)))
}

func buildReceipt(sub *database.Submission, files []database.UploadedFile, reasons []database.MissingFileReason) string {
	rule := strings.Repeat("=", 40)
	var b strings.Builder
	b.WriteString("일상감사 접수 완료 확인서\n\n")
	b.WriteString(rule + "\n접수 정보\n" + rule + "\n")
	fmt.Fprintf(&b, "접수 ID: %s\n", sub.SubmissionID)
	fmt.Fprintf(&b, "접수일자: %s\n", sub.SubmissionDate)
	fmt.Fprintf(&b, "접수부서: %s\n", sub.Department)
	fmt.Fprintf(&b, "담당자: %s (%s)\n", sub.Manager, sub.Phone)
	fmt.Fprintf(&b, "계약명: %s\n", sub.ContractName)
	fmt.Fprintf(&b, "계약기간: %s\n", sub.ContractDate)
	fmt.Fprintf(&b, "계약금액: %s원\n", sub.ContractAmount)
	fmt.Fprintf(&b, "계약방식: %s\n", sub.ContractMethod)
	fmt.Fprintf(&b, "예산과목: %s\n", sub.BudgetItem)
	fmt.Fprintf(&b, "처리상태: %s\n", sub.Status)

	b.WriteString("\n" + rule + "\n업로드된 파일 목록\n" + rule + "\n")
	for i, file := range files {
		fmt.Fprintf(&b, "%d. %s\n", i+1, file.FileName)
	}
	if len(reasons) > 0 {
		b.WriteString("\n" + rule + "\n누락된 파일 및 사유\n" + rule + "\n")
		for i, reason := range reasons {
			fmt.Fprintf(&b, "%d. %s (사유: %s)\n", i+1, reason.FileName, reason.Reason)
		}
	}
	fmt.Fprintf(&b, "\n%s\n발급일시: %s\n%s\n", rule, time.Now().Format("2006-01-02 15:04:05"), rule)
	return b.String()
}
