package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Storage  StorageConfig
	OpenAI   OpenAIConfig
	SMTP     SMTPConfig
	Session  SessionConfig

	FrontendURL string
	Environment string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path string
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port string
}

// StorageConfig holds the upload storage layout root
type StorageConfig struct {
	BaseFolder string
}

// OpenAIConfig holds assistant API credentials and assistant ids
type OpenAIConfig struct {
	APIKey            string
	OrgID             string
	ReportAssistantID string
	ChatAssistantID   string
	BaseURL           string
}

// SMTPConfig holds outbound mail configuration
type SMTPConfig struct {
	Host      string
	Port      string
	Username  string
	Password  string
	FromEmail string
	// AuditTeamEmail is the fixed operational recipient for intake packets.
	AuditTeamEmail string
}

// SessionConfig holds session lifecycle settings
type SessionConfig struct {
	Timeout time.Duration
}

// LoadConfig creates a new Config instance with values from environment
// variables. It will try to load from a .env file first.
func LoadConfig() *Config {
	_ = godotenv.Load()

	return &Config{
		Database: DatabaseConfig{
			Path: getEnv("DATABASE_PATH", "audit_system.db"),
		},
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
		},
		Storage: StorageConfig{
			BaseFolder: getEnv("UPLOAD_BASE_FOLDER", os.TempDir()+"/uploaded_files"),
		},
		OpenAI: OpenAIConfig{
			APIKey:            getEnv("OPENAI_API_KEY", ""),
			OrgID:             getEnv("OPENAI_ORG_ID", ""),
			ReportAssistantID: getEnv("OPENAI_REPORT_ASSISTANT_ID", ""),
			ChatAssistantID:   getEnv("OPENAI_CHAT_ASSISTANT_ID", ""),
			BaseURL:           getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		},
		SMTP: SMTPConfig{
			Host:           getEnv("SMTP_HOST", "smtp.gmail.com"),
			Port:           getEnv("SMTP_PORT", "465"),
			Username:       getEnv("SMTP_USERNAME", ""),
			Password:       getEnv("SMTP_PASSWORD", ""),
			FromEmail:      getEnv("FROM_EMAIL", ""),
			AuditTeamEmail: getEnv("AUDIT_TEAM_EMAIL", ""),
		},
		Session: SessionConfig{
			Timeout: time.Duration(getEnvInt("SESSION_TIMEOUT_MINUTES", 20)) * time.Minute,
		},
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),
		Environment: getEnv("ENVIRONMENT", "development"),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt retrieves an environment variable as an integer or returns a default value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intValue
}
