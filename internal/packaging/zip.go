// Package packaging bundles a submission's uploaded artifacts into a
// single downloadable archive.
package packaging

import (
	"archive/zip"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"gorm.io/gorm"

	"github.com/okfngroup/audit-intake/internal/database"
)

// Package writes one deflate-compressed zip for a submission into
// zipDir and returns its path. Entries are named by their basename, not
// the category-qualified display name. Recorded files missing on disk
// are skipped; a submission with nothing left on disk still yields an
// empty archive. Re-running overwrites the previous archive.
func Package(db *gorm.DB, zipDir, submissionID string) (string, error) {
	files, err := database.ListUploadedFiles(db, submissionID)
	if err != nil {
		return "", fmt.Errorf("failed to list uploaded files: %w", err)
	}

	zipPath := filepath.Join(zipDir, fmt.Sprintf("일상감사_파일_%s.zip", submissionID))
	out, err := os.Create(zipPath)
	if err != nil {
		return "", fmt.Errorf("failed to create archive: %w", err)
	}
	defer out.Close()

	w := zip.NewWriter(out)
	for _, file := range files {
		if err := addEntry(w, file.FilePath); err != nil {
			w.Close()
			os.Remove(zipPath)
			return "", err
		}
	}
	if err := w.Close(); err != nil {
		os.Remove(zipPath)
		return "", fmt.Errorf("failed to finalize archive: %w", err)
	}
	return zipPath, nil
}

func addEntry(w *zip.Writer, path string) error {
	src, err := os.Open(path)
	if os.IsNotExist(err) {
		log.Printf("skipping missing file at package time: %s", path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer src.Close()

	entry, err := w.Create(filepath.Base(path))
	if err != nil {
		return fmt.Errorf("failed to add archive entry: %w", err)
	}
	if _, err := io.Copy(entry, src); err != nil {
		return fmt.Errorf("failed to write archive entry: %w", err)
	}
	return nil
}
