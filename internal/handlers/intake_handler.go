package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/okfngroup/audit-intake/internal/checklist"
	"github.com/okfngroup/audit-intake/internal/database"
	"github.com/okfngroup/audit-intake/internal/session"
)

// IntakeHandler handles submission metadata and the completeness checklist.
type IntakeHandler struct {
	db      *gorm.DB
	manager *session.Manager
}

// NewIntakeHandler creates a new intake handler
func NewIntakeHandler(db *gorm.DB, manager *session.Manager) *IntakeHandler {
	return &IntakeHandler{db: db, manager: manager}
}

// IntakeRequest is the metadata form. Every field except budget item is
// required before the submission row is written.
type IntakeRequest struct {
	Department     string `json:"department" binding:"required"`
	Manager        string `json:"manager" binding:"required"`
	Phone          string `json:"phone" binding:"required"`
	ContractName   string `json:"contract_name" binding:"required"`
	ContractStart  string `json:"contract_start" binding:"required"`
	ContractEnd    string `json:"contract_end" binding:"required"`
	ContractAmount string `json:"contract_amount" binding:"required"`
	ContractMethod string `json:"contract_method" binding:"required"`
	BudgetItem     string `json:"budget_item"`
}

// SaveIntake upserts the submission metadata. Entering a department
// re-derives the working submission id to embed a department fragment;
// the session is updated so later requests address the same row.
func (h *IntakeHandler) SaveIntake(c *gin.Context) {
	var req IntakeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s := currentSession(c)
	now := time.Now()
	s.SubmissionID = session.DeriveFromDepartment(now, req.Department)
	h.manager.Update(s)

	sub := &database.Submission{
		SubmissionDate: now.Format("20060102"),
		SubmissionID:   s.SubmissionID,
		Department:     req.Department,
		Manager:        req.Manager,
		Phone:          req.Phone,
		ContractName:   req.ContractName,
		ContractDate:   req.ContractStart + " ~ " + req.ContractEnd,
		ContractAmount: req.ContractAmount,
		ContractMethod: req.ContractMethod,
		BudgetItem:     req.BudgetItem,
		Status:         database.StatusIntake,
	}
	if err := database.UpsertSubmission(h.db, sub); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":        "success",
		"submission_id": s.SubmissionID,
	})
}

// GetSubmission returns the current submission's metadata.
func (h *IntakeHandler) GetSubmission(c *gin.Context) {
	s := currentSession(c)
	sub, err := database.GetSubmission(h.db, s.SubmissionID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no submission metadata yet"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"submission": sub})
}

// GetChecklist reports which required categories are satisfied and which
// remain outstanding, in declaration order.
func (h *IntakeHandler) GetChecklist(c *gin.Context) {
	s := currentSession(c)
	completeness, err := checklist.Evaluate(h.db, s.SubmissionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"submission_id": s.SubmissionID,
		"satisfied":     completeness.Satisfied,
		"outstanding":   completeness.Outstanding,
		"complete":      completeness.Complete(),
		"total":         len(checklist.RequiredCategories),
	})
}
