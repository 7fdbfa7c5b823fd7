package database

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SubmissionStatus is the lifecycle state of an audit intake.
type SubmissionStatus string

const (
	StatusIntake    SubmissionStatus = "intake"
	StatusCompleted SubmissionStatus = "completed"
)

// Submission represents one audit intake case. The SubmissionID string is
// the working identity; the numeric ID is only the storage key.
type Submission struct {
	ID             uint             `gorm:"primaryKey" json:"id"`
	SubmissionDate string           `json:"submission_date"`
	SubmissionID   string           `gorm:"uniqueIndex" json:"submission_id"`
	Department     string           `json:"department"`
	Manager        string           `json:"manager"`
	Phone          string           `json:"phone"`
	ContractName   string           `json:"contract_name"`
	ContractDate   string           `json:"contract_date"`
	ContractAmount string           `json:"contract_amount"`
	ContractMethod string           `json:"contract_method"`
	BudgetItem     string           `json:"budget_item"`
	Status         SubmissionStatus `gorm:"default:intake" json:"status"`
	EmailSent      bool             `gorm:"default:false" json:"email_sent"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// UpsertSubmission creates or replaces the submission addressed by
// sub.SubmissionID. The metadata form re-submits the whole record, so a
// conflict overwrites every metadata column but leaves status alone.
func UpsertSubmission(db *gorm.DB, sub *Submission) error {
	return db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "submission_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"submission_date", "department", "manager", "phone",
			"contract_name", "contract_date", "contract_amount",
			"contract_method", "budget_item", "updated_at",
		}),
	}).Create(sub).Error
}

// GetSubmission finds a submission by its working identity string.
func GetSubmission(db *gorm.DB, submissionID string) (*Submission, error) {
	var sub Submission
	if err := db.Where("submission_id = ?", submissionID).First(&sub).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

// UpdateSubmissionStatus flips the lifecycle state and the email flag.
func UpdateSubmissionStatus(db *gorm.DB, submissionID string, status SubmissionStatus, emailSent bool) error {
	return db.Model(&Submission{}).Where("submission_id = ?", submissionID).Updates(map[string]interface{}{
		"status":     status,
		"email_sent": emailSent,
		"updated_at": time.Now(),
	}).Error
}
