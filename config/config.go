package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config enthält alle Konfigurationsparameter aus Umgebungsvariablen.
type Config struct {
	DBHost     string `envconfig:"DB_HOST" required:"true"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" required:"true"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" required:"true"`

	HTTPPort     string `envconfig:"HTTP_PORT" default:"4242"`
	APISecretKey string `envconfig:"API_SECRET_KEY"`

	// Extraction-Service (Firecrawl-kompatible API)
	ExtractionBaseURL    string `envconfig:"EXTRACTION_BASE_URL" default:"https://api.firecrawl.dev"`
	ExtractionTimeoutSec int    `envconfig:"EXTRACTION_TIMEOUT_SEC" default:"120"`

	// Aufräum-Job: Queries und Results älter als RETENTION_DAYS werden gelöscht.
	// 0 deaktiviert den Job.
	CleanupSchedule string `envconfig:"CLEANUP_SCHEDULE" default:"0 3 * * *"`
	RetentionDays   int    `envconfig:"RETENTION_DAYS" default:"0"`

	// Optionales Ergebnis-Archiv (S3-kompatibel). Leerer Bucket deaktiviert das Archiv.
	ArchiveS3Key    string `envconfig:"ARCHIVE_S3_KEY"`
	ArchiveS3Secret string `envconfig:"ARCHIVE_S3_SECRET"`
	ArchiveS3URL    string `envconfig:"ARCHIVE_S3_URL"`
	ArchiveS3Region string `envconfig:"ARCHIVE_S3_REGION"`
	ArchiveS3Bucket string `envconfig:"ARCHIVE_S3_BUCKET"`
}

// DSN gibt den Data Source Name für die PostgreSQL-Verbindung zurück.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort)
}

// ArchiveEnabled gibt an, ob das S3-Ergebnis-Archiv konfiguriert ist.
func (c *Config) ArchiveEnabled() bool {
	return c.ArchiveS3Bucket != ""
}

// Load lädt die Konfiguration aus den Umgebungsvariablen.
func Load() (*Config, error) {
	_ = godotenv.Load()
	var c Config
	err := envconfig.Process("", &c)
	return &c, err
}
