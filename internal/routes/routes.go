package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/okfngroup/audit-intake/internal/config"
	"github.com/okfngroup/audit-intake/internal/handlers"
	"github.com/okfngroup/audit-intake/internal/mail"
	"github.com/okfngroup/audit-intake/internal/report"
	"github.com/okfngroup/audit-intake/internal/session"
	"github.com/okfngroup/audit-intake/internal/storage"
)

// RegisterRoutes wires every handler onto the router. The surface is the
// three sequential steps (Q&A, document intake, finalize) plus the
// administrative reset.
func RegisterRoutes(router *gin.Engine, cfg *config.Config, db *gorm.DB, store *storage.Store, manager *session.Manager) error {
	client := report.NewAssistantClient(cfg.OpenAI)
	reportDir, err := store.ReportDir()
	if err != nil {
		return err
	}
	drafter := report.NewGenerator(client, cfg.OpenAI.ReportAssistantID, reportDir)
	mailer := mail.NewMailer(cfg.SMTP)

	intakeHandler := handlers.NewIntakeHandler(db, manager)
	uploadHandler := handlers.NewUploadHandler(db, store)
	finalizeHandler := handlers.NewFinalizeHandler(db, store, drafter, mailer, cfg.SMTP.AuditTeamEmail)
	chatHandler := handlers.NewChatHandler(client, cfg.OpenAI.ChatAssistantID, manager)
	adminHandler := handlers.NewAdminHandler(db, store, manager)

	api := router.Group("/api")
	api.Use(handlers.SessionMiddleware(manager))
	{
		api.POST("/chat", chatHandler.Ask)

		api.POST("/intake", intakeHandler.SaveIntake)
		api.GET("/submission", intakeHandler.GetSubmission)
		api.GET("/checklist", intakeHandler.GetChecklist)

		api.POST("/uploads", uploadHandler.Upload)
		api.GET("/uploads", uploadHandler.ListUploads)
		api.DELETE("/uploads/:id", uploadHandler.DeleteUpload)
		api.POST("/reasons", uploadHandler.SaveReason)
		api.DELETE("/reasons", uploadHandler.DeleteReason)

		api.POST("/finalize", finalizeHandler.Finalize)
		api.GET("/receipt", finalizeHandler.Receipt)

		api.POST("/admin/reset", adminHandler.Reset)
	}
	return nil
}
