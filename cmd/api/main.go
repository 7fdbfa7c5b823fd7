package main

import (
	"log"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/okfngroup/audit-intake/internal/config"
	"github.com/okfngroup/audit-intake/internal/database"
	"github.com/okfngroup/audit-intake/internal/routes"
	"github.com/okfngroup/audit-intake/internal/session"
	"github.com/okfngroup/audit-intake/internal/storage"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	cfg := config.LoadConfig()

	db, err := database.InitDB(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}

	store, err := storage.NewStore(cfg.Storage.BaseFolder)
	if err != nil {
		log.Fatalf("Failed to prepare upload storage: %v", err)
	}

	manager := session.NewManager(cfg.Session.Timeout)
	manager.OnExpire = func(submissionID string) {
		if err := store.RemoveScratch(submissionID); err != nil {
			log.Printf("Failed to clean scratch folder for %s: %v", submissionID, err)
		}
	}
	manager.StartSweeper()
	defer manager.StopSweeper()

	router := gin.Default()
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.FrontendURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
	}))

	if err := routes.RegisterRoutes(router, cfg, db, store, manager); err != nil {
		log.Fatalf("Failed to register routes: %v", err)
	}

	log.Printf("Audit intake API running on port %s", cfg.Server.Port)
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
