// Package storage owns the on-disk layout for uploaded artifacts and the
// intake rules for accepting them.
//
// Layout: {base}/{YYYYMMDD}/{submission_id}/ holds uploads,
// {base}/draft_reports/ holds generated documents, {base}/zips/ holds
// packaged archives.
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/okfngroup/audit-intake/internal/database"
)

// Upload is the capability an artifact source must provide. Any concrete
// transport (multipart HTTP, a local path) adapts to it.
type Upload interface {
	Name() string
	Size() int64
	Open() (io.ReadCloser, error)
}

// ErrNoFile is returned when the caller passes no upload at all. Presence
// is the only validation: size, type and content are all accepted.
var ErrNoFile = errors.New("no file provided")

const chunkSize = 1 << 20 // write in 1 MiB chunks so memory use is independent of file size

var unsafeChars = regexp.MustCompile(`[^\p{L}\p{N}_\s.-]`)
var spaces = regexp.MustCompile(`\s+`)

// Store resolves paths under a single base folder.
type Store struct {
	Base string
}

// NewStore creates the base folder if needed.
func NewStore(base string) (*Store, error) {
	if err := os.MkdirAll(base, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base folder: %w", err)
	}
	return &Store{Base: base}, nil
}

// SanitizeFilename strips characters outside letters, digits,
// underscore, whitespace, dot and hyphen, then collapses whitespace runs
// to single underscores.
func SanitizeFilename(name string) string {
	safe := unsafeChars.ReplaceAllString(name, "")
	return spaces.ReplaceAllString(safe, "_")
}

// SubmissionDir returns (and creates) the scratch directory for a
// submission under today's date folder.
func (s *Store) SubmissionDir(submissionID string) (string, error) {
	dir := filepath.Join(s.Base, time.Now().Format("20060102"), submissionID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create submission folder: %w", err)
	}
	return dir, nil
}

// ReportDir returns (and creates) the draft report output folder.
func (s *Store) ReportDir() (string, error) {
	dir := filepath.Join(s.Base, "draft_reports")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}

// ZipDir returns (and creates) the archive output folder.
func (s *Store) ZipDir() (string, error) {
	dir := filepath.Join(s.Base, "zips")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}

// resolvePath picks a destination inside dir that does not exist yet,
// appending _1, _2, ... before the extension on collision.
func resolvePath(dir, safeName string) string {
	path := filepath.Join(dir, safeName)
	ext := filepath.Ext(safeName)
	stem := strings.TrimSuffix(safeName, ext)
	for counter := 1; ; counter++ {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return path
		}
		path = filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, counter, ext))
	}
}

// saveUpload streams the upload to a fresh path in dir. A write failure
// removes the partial file so no half-written artifact survives.
func saveUpload(dir string, upload Upload) (string, error) {
	src, err := upload.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	path := resolvePath(dir, SanitizeFilename(upload.Name()))
	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}

	buf := make([]byte, chunkSize)
	if _, err := io.CopyBuffer(dst, src, buf); err != nil {
		dst.Close()
		os.Remove(path)
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	return path, nil
}

// Accept stores an uploaded artifact for a submission and records it
// against a required category. On I/O failure nothing is persisted. If
// the row insert fails after the bytes landed, the orphaned file is left
// behind: a re-upload simply resolves a new path.
func (s *Store) Accept(db *gorm.DB, submissionID, category string, upload Upload) (*database.UploadedFile, error) {
	if upload == nil {
		return nil, ErrNoFile
	}

	dir, err := s.SubmissionDir(submissionID)
	if err != nil {
		return nil, err
	}

	path, err := saveUpload(dir, upload)
	if err != nil {
		return nil, err
	}

	file := &database.UploadedFile{
		SubmissionID: submissionID,
		FileName:     fmt.Sprintf("%s - %s", category, upload.Name()),
		FilePath:     path,
		FileType:     filepath.Ext(upload.Name()),
		FileSize:     upload.Size(),
	}
	if err := database.CreateUploadedFile(db, file); err != nil {
		return nil, fmt.Errorf("failed to record upload: %w", err)
	}
	return file, nil
}

// RemoveScratch deletes a submission's upload directory. Called on
// session timeout.
func (s *Store) RemoveScratch(submissionID string) error {
	return os.RemoveAll(filepath.Join(s.Base, time.Now().Format("20060102"), submissionID))
}

// ResetAll wipes the whole base folder. Part of the administrative
// full reset, never of normal operation.
func (s *Store) ResetAll() error {
	if err := os.RemoveAll(s.Base); err != nil {
		return err
	}
	return os.MkdirAll(s.Base, 0755)
}
