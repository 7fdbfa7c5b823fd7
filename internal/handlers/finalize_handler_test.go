package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/okfngroup/audit-intake/internal/checklist"
	"github.com/okfngroup/audit-intake/internal/database"
	"github.com/okfngroup/audit-intake/internal/mail"
	"github.com/okfngroup/audit-intake/internal/session"
	"github.com/okfngroup/audit-intake/internal/storage"
)

const testSubmissionID = "AUDIT-20250101-ABC"

type stubDrafter struct {
	path   string
	err    error
	called bool
}

func (d *stubDrafter) Draft(ctx context.Context, db *gorm.DB, sub *database.Submission) (string, error) {
	d.called = true
	return d.path, d.err
}

type stubMailer struct {
	err         error
	called      bool
	subject     string
	body        string
	to          string
	attachments []string
}

func (m *stubMailer) Send(subject, body, to string, attachments []string) error {
	m.called = true
	m.subject = subject
	m.body = body
	m.to = to
	m.attachments = attachments
	return m.err
}

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

// fixedSession pins the session the middleware would otherwise resolve
// from the cookie.
func fixedSession(submissionID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(sessionKey, session.Session{SessionID: "a1b2c3d4", SubmissionID: submissionID})
		c.Next()
	}
}

func setupFinalizeRouter(t *testing.T, db *gorm.DB, drafter Drafter, mailer Sender) (*gin.Engine, *storage.Store) {
	gin.SetMode(gin.TestMode)
	store, err := storage.NewStore(t.TempDir())
	require.NoError(t, err)

	handler := NewFinalizeHandler(db, store, drafter, mailer, "audit-team@okfngroup.com")
	router := gin.New()
	router.Use(fixedSession(testSubmissionID))
	router.POST("/api/finalize", handler.Finalize)
	router.GET("/api/receipt", handler.Receipt)
	return router, store
}

func seedSubmission(t *testing.T, db *gorm.DB) {
	require.NoError(t, database.UpsertSubmission(db, &database.Submission{
		SubmissionDate: "20250101",
		SubmissionID:   testSubmissionID,
		Department:     "IT팀",
		Manager:        "홍길동",
		Phone:          "02-1234-5678",
		ContractName:   "회계시스템 구축",
		ContractDate:   "2025-01-01 ~ 2025-12-31",
		ContractAmount: "50,000,000",
		ContractMethod: "일반경쟁입찰",
		BudgetItem:     "전산개발비",
	}))
}

// seedCategories satisfies the first `uploads` categories with real files
// on disk and the next `reasons` categories with excuse rows.
func seedCategories(t *testing.T, db *gorm.DB, store *storage.Store, uploads, reasons int) {
	dir, err := store.SubmissionDir(testSubmissionID)
	require.NoError(t, err)

	for i := 0; i < uploads; i++ {
		category := checklist.RequiredCategories[i]
		path := filepath.Join(dir, fmt.Sprintf("doc_%d.pdf", i))
		require.NoError(t, os.WriteFile(path, []byte("artifact"), 0644))
		require.NoError(t, database.CreateUploadedFile(db, &database.UploadedFile{
			SubmissionID: testSubmissionID,
			FileName:     fmt.Sprintf("%s - doc_%d.pdf", category, i),
			FilePath:     path,
		}))
	}
	for i := uploads; i < uploads+reasons; i++ {
		require.NoError(t, database.CreateMissingReason(db, testSubmissionID, checklist.RequiredCategories[i], "해당없음"))
	}
}

func postFinalize(router *gin.Engine, payload string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/finalize", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestFinalizeCompleteSubmission(t *testing.T) {
	db := setupTestDB(t)
	seedSubmission(t, db)

	reportPath := filepath.Join(t.TempDir(), "감사보고서초안_"+testSubmissionID+".txt")
	require.NoError(t, os.WriteFile(reportPath, []byte("보고서"), 0644))
	drafter := &stubDrafter{path: reportPath}
	mailer := &stubMailer{}
	router, store := setupFinalizeRouter(t, db, drafter, mailer)
	seedCategories(t, db, store, 5, 4)

	w := postFinalize(router, `{}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	assert.True(t, drafter.called)
	require.True(t, mailer.called)
	assert.Equal(t, "audit-team@okfngroup.com", mailer.to)
	assert.Equal(t, "일상감사 접수: "+testSubmissionID, mailer.subject)

	// Zip first, then the report.
	require.Len(t, mailer.attachments, 2)
	assert.True(t, strings.HasSuffix(mailer.attachments[0], ".zip"))
	assert.Equal(t, reportPath, mailer.attachments[1])

	sub, err := database.GetSubmission(db, testSubmissionID)
	require.NoError(t, err)
	assert.Equal(t, database.StatusCompleted, sub.Status)
	assert.True(t, sub.EmailSent)

	// Completeness is still 9/9 after the flip.
	completeness, err := checklist.Evaluate(db, testSubmissionID)
	require.NoError(t, err)
	assert.True(t, completeness.Complete())
	assert.Len(t, completeness.Satisfied, 9)
}

func TestFinalizeRejectedWhileOutstanding(t *testing.T) {
	db := setupTestDB(t)
	seedSubmission(t, db)

	drafter := &stubDrafter{}
	mailer := &stubMailer{}
	router, store := setupFinalizeRouter(t, db, drafter, mailer)
	seedCategories(t, db, store, 4, 3) // 7 of 9

	w := postFinalize(router, `{}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp struct {
		Outstanding []string `json:"outstanding"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Outstanding, 2)

	// Rejected before packaging, drafting or sending.
	assert.False(t, drafter.called)
	assert.False(t, mailer.called)

	sub, err := database.GetSubmission(db, testSubmissionID)
	require.NoError(t, err)
	assert.Equal(t, database.StatusIntake, sub.Status)
}

func TestFinalizeDraftFailureOmitsReportOnly(t *testing.T) {
	db := setupTestDB(t)
	seedSubmission(t, db)

	drafter := &stubDrafter{err: fmt.Errorf("draft generation failed: run timed out")}
	mailer := &stubMailer{}
	router, store := setupFinalizeRouter(t, db, drafter, mailer)
	seedCategories(t, db, store, 5, 4)

	w := postFinalize(router, `{}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// The send still happens with the zip attachment only.
	require.True(t, mailer.called)
	require.Len(t, mailer.attachments, 1)
	assert.True(t, strings.HasSuffix(mailer.attachments[0], ".zip"))
	assert.Contains(t, mailer.body, "감사보고서 초안 생성에 실패")

	sub, err := database.GetSubmission(db, testSubmissionID)
	require.NoError(t, err)
	assert.Equal(t, database.StatusCompleted, sub.Status)
}

func TestFinalizeDeliveryFailureKeepsIntakeStatus(t *testing.T) {
	db := setupTestDB(t)
	seedSubmission(t, db)

	drafter := &stubDrafter{err: fmt.Errorf("draft generation failed")}
	mailer := &stubMailer{err: fmt.Errorf("%w: 535 bad credentials", mail.ErrAuth)}
	router, store := setupFinalizeRouter(t, db, drafter, mailer)
	seedCategories(t, db, store, 5, 4)

	w := postFinalize(router, `{}`)
	require.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "mail authentication failed")

	// Status untouched so a retry is safe and idempotent.
	sub, err := database.GetSubmission(db, testSubmissionID)
	require.NoError(t, err)
	assert.Equal(t, database.StatusIntake, sub.Status)
	assert.False(t, sub.EmailSent)
}

func TestFinalizeAllReasonsNoFiles(t *testing.T) {
	db := setupTestDB(t)
	seedSubmission(t, db)

	drafter := &stubDrafter{err: fmt.Errorf("draft generation failed")}
	mailer := &stubMailer{}
	router, store := setupFinalizeRouter(t, db, drafter, mailer)
	seedCategories(t, db, store, 0, 9)

	w := postFinalize(router, `{}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Nothing uploaded: no zip, no report, mail still goes out.
	require.True(t, mailer.called)
	assert.Empty(t, mailer.attachments)
}

func TestFinalizeCustomRecipientAndSubject(t *testing.T) {
	db := setupTestDB(t)
	seedSubmission(t, db)

	drafter := &stubDrafter{err: fmt.Errorf("draft generation failed")}
	mailer := &stubMailer{}
	router, store := setupFinalizeRouter(t, db, drafter, mailer)
	seedCategories(t, db, store, 0, 9)

	w := postFinalize(router, `{"recipient_email":"other@company.com","subject":"긴급 접수","additional_message":"빠른 검토 요청"}`)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, "other@company.com", mailer.to)
	assert.Equal(t, "긴급 접수", mailer.subject)
	assert.Contains(t, mailer.body, "빠른 검토 요청")
}

func TestFinalizeWithoutMetadata(t *testing.T) {
	db := setupTestDB(t)
	drafter := &stubDrafter{}
	mailer := &stubMailer{}
	router, _ := setupFinalizeRouter(t, db, drafter, mailer)

	w := postFinalize(router, `{}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "metadata")
}

func TestReceiptListsFilesAndReasons(t *testing.T) {
	db := setupTestDB(t)
	seedSubmission(t, db)

	drafter := &stubDrafter{err: fmt.Errorf("draft generation failed")}
	mailer := &stubMailer{}
	router, store := setupFinalizeRouter(t, db, drafter, mailer)
	seedCategories(t, db, store, 2, 7)

	req := httptest.NewRequest(http.MethodGet, "/api/receipt", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "접수 ID: "+testSubmissionID)
	assert.Contains(t, body, checklist.RequiredCategories[0])
	assert.Contains(t, body, "사유: 해당없음")
}

func TestFinalizeBadJSON(t *testing.T) {
	db := setupTestDB(t)
	router, _ := setupFinalizeRouter(t, db, &stubDrafter{}, &stubMailer{})

	req := httptest.NewRequest(http.MethodPost, "/api/finalize", bytes.NewReader(nil))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
