package database

import (
	"time"

	"gorm.io/gorm"
)

// UploadedFile is one artifact tied to a submission. FileName carries the
// category-qualified display name ("{category} - {original name}"); the
// category linkage is by substring on that name, not a column.
type UploadedFile struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	SubmissionID string    `gorm:"index" json:"submission_id"`
	FileName     string    `json:"file_name"`
	FilePath     string    `json:"file_path"`
	FileType     string    `json:"file_type"`
	FileSize     int64     `json:"file_size"`
	UploadedAt   time.Time `gorm:"autoCreateTime" json:"uploaded_at"`
}

// CreateUploadedFile records a stored artifact.
func CreateUploadedFile(db *gorm.DB, file *UploadedFile) error {
	return db.Create(file).Error
}

// ListUploadedFiles returns every artifact for a submission in upload order.
func ListUploadedFiles(db *gorm.DB, submissionID string) ([]UploadedFile, error) {
	var files []UploadedFile
	if err := db.Where("submission_id = ?", submissionID).Order("id").Find(&files).Error; err != nil {
		return nil, err
	}
	return files, nil
}

// FindUploadedFileByCategory returns the first artifact whose display name
// contains the category label. Substring containment is the matching rule
// the checklist depends on.
func FindUploadedFileByCategory(db *gorm.DB, submissionID, category string) (*UploadedFile, error) {
	var file UploadedFile
	err := db.Where("submission_id = ? AND file_name LIKE ?", submissionID, "%"+category+"%").First(&file).Error
	if err != nil {
		return nil, err
	}
	return &file, nil
}

// CountUploadedFilesByCategory counts artifacts matching a category label
// by substring containment on the display name.
func CountUploadedFilesByCategory(db *gorm.DB, submissionID, category string) (int64, error) {
	var n int64
	err := db.Model(&UploadedFile{}).
		Where("submission_id = ? AND file_name LIKE ?", submissionID, "%"+category+"%").
		Count(&n).Error
	return n, err
}

// GetUploadedFile finds one artifact row by its storage key.
func GetUploadedFile(db *gorm.DB, id uint) (*UploadedFile, error) {
	var file UploadedFile
	if err := db.First(&file, id).Error; err != nil {
		return nil, err
	}
	return &file, nil
}

// DeleteUploadedFile removes an artifact row. The caller is responsible
// for removing the bytes on disk.
func DeleteUploadedFile(db *gorm.DB, id uint) error {
	return db.Delete(&UploadedFile{}, id).Error
}
