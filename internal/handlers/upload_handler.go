package handlers

import (
	"errors"
	"log"
	"net/http"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/okfngroup/audit-intake/internal/checklist"
	"github.com/okfngroup/audit-intake/internal/database"
	"github.com/okfngroup/audit-intake/internal/storage"
)

// UploadHandler handles document uploads and missing-file reasons.
type UploadHandler struct {
	db    *gorm.DB
	store *storage.Store
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(db *gorm.DB, store *storage.Store) *UploadHandler {
	return &UploadHandler{db: db, store: store}
}

func validCategory(category string) bool {
	for _, label := range checklist.RequiredCategories {
		if label == category {
			return true
		}
	}
	return false
}

// Upload accepts one artifact for one required category. Every file type
// and size is accepted; only presence is checked.
func (h *UploadHandler) Upload(c *gin.Context) {
	category := c.PostForm("category")
	if !validCategory(category) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown required document category"})
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file provided"})
		return
	}

	s := currentSession(c)
	file, err := h.store.Accept(h.db, s.SubmissionID, category, storage.FromMultipart(header))
	if errors.Is(err, storage.ErrNoFile) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file provided"})
		return
	}
	if err != nil {
		log.Printf("upload failed for %s: %v", s.SubmissionID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": "success", "file": file})
}

// DeleteUpload removes one uploaded artifact: the row and the bytes.
func (h *UploadHandler) DeleteUpload(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid file id"})
		return
	}

	s := currentSession(c)
	file, err := database.GetUploadedFile(h.db, uint(id))
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && file.SubmissionID != s.SubmissionID) {
		c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if err := database.DeleteUploadedFile(h.db, file.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if err := os.Remove(file.FilePath); err != nil && !os.IsNotExist(err) {
		log.Printf("failed to remove %s: %v", file.FilePath, err)
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// ReasonRequest supplies the excuse for an un-uploaded category.
type ReasonRequest struct {
	Category string `json:"category" binding:"required"`
	Reason   string `json:"reason" binding:"required"`
}

// SaveReason records a missing-file reason. A second reason for the same
// category is a no-op; the original text is preserved.
func (h *UploadHandler) SaveReason(c *gin.Context) {
	var req ReasonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !validCategory(req.Category) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown required document category"})
		return
	}

	s := currentSession(c)
	if err := database.CreateMissingReason(h.db, s.SubmissionID, req.Category, req.Reason); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// DeleteReason removes the reason for one category.
func (h *UploadHandler) DeleteReason(c *gin.Context) {
	category := c.Query("category")
	if !validCategory(category) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown required document category"})
		return
	}

	s := currentSession(c)
	if err := database.DeleteMissingReason(h.db, s.SubmissionID, category); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// ListUploads returns the submission's recorded artifacts and reasons.
func (h *UploadHandler) ListUploads(c *gin.Context) {
	s := currentSession(c)
	files, err := database.ListUploadedFiles(h.db, s.SubmissionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	reasons, err := database.ListMissingReasons(h.db, s.SubmissionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"files": files, "reasons": reasons})
}
