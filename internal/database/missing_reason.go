package database

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// MissingFileReason is one excuse record for a required category that was
// not uploaded. FileName holds the exact category label.
type MissingFileReason struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	SubmissionID string    `gorm:"index" json:"submission_id"`
	FileName     string    `json:"file_name"`
	Reason       string    `json:"reason"`
	CreatedAt    time.Time `json:"created_at"`
}

// CreateMissingReason stores a reason unless one already exists for the
// (submission, category) pair. A duplicate is a no-op: the original
// reason text is preserved.
func CreateMissingReason(db *gorm.DB, submissionID, category, reason string) error {
	var existing MissingFileReason
	err := db.Where("submission_id = ? AND file_name = ?", submissionID, category).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	return db.Create(&MissingFileReason{
		SubmissionID: submissionID,
		FileName:     category,
		Reason:       reason,
	}).Error
}

// ListMissingReasons returns every reason for a submission in entry order.
func ListMissingReasons(db *gorm.DB, submissionID string) ([]MissingFileReason, error) {
	var reasons []MissingFileReason
	if err := db.Where("submission_id = ?", submissionID).Order("id").Find(&reasons).Error; err != nil {
		return nil, err
	}
	return reasons, nil
}

// CountMissingReasons counts reasons whose category label matches exactly.
func CountMissingReasons(db *gorm.DB, submissionID, category string) (int64, error) {
	var n int64
	err := db.Model(&MissingFileReason{}).
		Where("submission_id = ? AND file_name = ?", submissionID, category).
		Count(&n).Error
	return n, err
}

// DeleteMissingReason removes the reason for one (submission, category) pair.
func DeleteMissingReason(db *gorm.DB, submissionID, category string) error {
	return db.Where("submission_id = ? AND file_name = ?", submissionID, category).
		Delete(&MissingFileReason{}).Error
}
