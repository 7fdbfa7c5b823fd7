package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	return db
}

func TestCreateMissingReasonDuplicateIsNoOp(t *testing.T) {
	db := setupTestDB(t)
	subID := "AUDIT-20250101-ABC"
	category := "계약서 파일"

	require.NoError(t, CreateMissingReason(db, subID, category, "원본 사유"))
	require.NoError(t, CreateMissingReason(db, subID, category, "나중 사유"))

	var reasons []MissingFileReason
	require.NoError(t, db.Where("submission_id = ? AND file_name = ?", subID, category).Find(&reasons).Error)
	require.Len(t, reasons, 1)
	assert.Equal(t, "원본 사유", reasons[0].Reason)
}

func TestCreateMissingReasonDistinctCategories(t *testing.T) {
	db := setupTestDB(t)
	subID := "AUDIT-20250101-ABC"

	require.NoError(t, CreateMissingReason(db, subID, "계약서 파일", "해당없음"))
	require.NoError(t, CreateMissingReason(db, subID, "입찰 평가표", "수의계약"))

	reasons, err := ListMissingReasons(db, subID)
	require.NoError(t, err)
	assert.Len(t, reasons, 2)
}

func TestDeleteMissingReason(t *testing.T) {
	db := setupTestDB(t)
	subID := "AUDIT-20250101-ABC"

	require.NoError(t, CreateMissingReason(db, subID, "계약서 파일", "해당없음"))
	require.NoError(t, DeleteMissingReason(db, subID, "계약서 파일"))

	n, err := CountMissingReasons(db, subID, "계약서 파일")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestUpsertSubmissionOverwritesMetadata(t *testing.T) {
	db := setupTestDB(t)

	first := &Submission{
		SubmissionDate: "20250101",
		SubmissionID:   "AUDIT-20250101-IT팀",
		Department:     "IT팀",
		Manager:        "홍길동",
		Status:         StatusIntake,
	}
	require.NoError(t, UpsertSubmission(db, first))

	second := &Submission{
		SubmissionDate: "20250101",
		SubmissionID:   "AUDIT-20250101-IT팀",
		Department:     "IT팀",
		Manager:        "김철수",
		Status:         StatusIntake,
	}
	require.NoError(t, UpsertSubmission(db, second))

	var count int64
	require.NoError(t, db.Model(&Submission{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	sub, err := GetSubmission(db, "AUDIT-20250101-IT팀")
	require.NoError(t, err)
	assert.Equal(t, "김철수", sub.Manager)
}

func TestUpsertSubmissionPreservesStatus(t *testing.T) {
	db := setupTestDB(t)
	subID := "AUDIT-20250101-IT팀"

	require.NoError(t, UpsertSubmission(db, &Submission{SubmissionID: subID, Department: "IT팀"}))
	require.NoError(t, UpdateSubmissionStatus(db, subID, StatusCompleted, true))

	// Re-submitting the metadata form must not undo completion.
	require.NoError(t, UpsertSubmission(db, &Submission{SubmissionID: subID, Department: "IT팀", Manager: "홍길동"}))

	sub, err := GetSubmission(db, subID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, sub.Status)
	assert.True(t, sub.EmailSent)
}
