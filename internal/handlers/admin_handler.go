package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/okfngroup/audit-intake/internal/database"
	"github.com/okfngroup/audit-intake/internal/session"
	"github.com/okfngroup/audit-intake/internal/storage"
)

// AdminHandler exposes the explicit full reset, distinct from the
// session timeout: it drops the entire store and wipes the upload tree.
type AdminHandler struct {
	db      *gorm.DB
	store   *storage.Store
	manager *session.Manager
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(db *gorm.DB, store *storage.Store, manager *session.Manager) *AdminHandler {
	return &AdminHandler{db: db, store: store, manager: manager}
}

// Reset wipes all persisted submissions, every stored file, and all
// working sessions.
func (h *AdminHandler) Reset(c *gin.Context) {
	if err := database.Reset(h.db); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if err := h.store.ResetAll(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	h.manager.ResetAll()
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}
