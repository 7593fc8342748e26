package services

import (
	"context"
	"time"

	"research-hand/extraction"
	"research-hand/models"
)

// CredentialStore ist der schmale Store-Zugriff für Credentials.
type CredentialStore interface {
	// FindByOwner liefert das zuletzt angelegte Credential des Owners.
	FindByOwner(ctx context.Context, ownerID string) (*models.Credential, error)
	Insert(ctx context.Context, cred *models.Credential) error
	Update(ctx context.Context, cred *models.Credential) error
	CountByOwner(ctx context.Context, ownerID string) (int64, error)
}

// QueryStore persistiert Forschungsanfragen. Insert setzt die generierte ID.
type QueryStore interface {
	Insert(ctx context.Context, query *models.Query) error
}

// ResultStore persistiert Ergebnis-Batches und räumt alte Läufe ab.
type ResultStore interface {
	InsertBatch(ctx context.Context, records []models.ResultRecord) error
	ListByQuery(ctx context.Context, queryID uint, ownerID string) ([]models.ResultRecord, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// ExtractionClient ist die Schnittstelle zum externen Extraction-Service.
type ExtractionClient interface {
	Extract(ctx context.Context, targets []string, req extraction.Request) (*extraction.Document, error)
}

// ClientFactory baut einen ExtractionClient aus einem API-Key. Der
// Orchestrator initialisiert den Client lazy und cached ihn danach.
type ClientFactory func(apiKey string) (ExtractionClient, error)

// ResultArchiver spiegelt ein fertiges Extraction-Dokument in ein Archiv.
// Archiv-Fehler sind best-effort und brechen den Suchlauf nie ab.
type ResultArchiver interface {
	ArchiveResult(ctx context.Context, ownerID string, queryID uint, doc *extraction.Document) (string, error)
}

// ProgressFunc meldet den simulierten Fortschritt an den Aufrufer.
type ProgressFunc func(state models.ProgressState)

// ActivityFunc erhält nach jeder Änderung eine Kopie des gesamten
// Aktivitätsprotokolls.
type ActivityFunc func(activities []models.ActivityItem)
