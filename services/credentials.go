package services

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"research-hand/auth"
	"research-hand/models"
)

// DefaultExtractionKey ist der Fallback-Schlüssel, wenn kein eigenes
// Credential vorliegt. Get() degradiert bewusst auf diesen Wert statt zu
// scheitern (DefaultFallbackPolicy).
const DefaultExtractionKey = "fc-4d8f2a7b9c3e4f6a8b1d2e3f4a5b6c7d"

// CredentialService verwaltet den Extraction-API-Key eines Nutzers und hält
// gelesene Werte pro Owner im Prozess-Cache. Der Cache wird nur durch ein
// erfolgreiches Save erneuert.
type CredentialService struct {
	store  CredentialStore
	owners auth.OwnerProvider
	logger *zap.Logger

	mu    sync.Mutex
	cache map[string]string // Owner-ID -> API-Key
}

// NewCredentialService erstellt einen CredentialService.
func NewCredentialService(store CredentialStore, owners auth.OwnerProvider, logger *zap.Logger) *CredentialService {
	return &CredentialService{
		store:  store,
		owners: owners,
		logger: logger,
		cache:  make(map[string]string),
	}
}

// Save legt den API-Key für den aktuellen Owner an bzw. aktualisiert den
// bestehenden Eintrag. Bei Store-Fehlern bleibt der Cache unangetastet.
func (s *CredentialService) Save(ctx context.Context, apiKey string) error {
	ownerID, err := s.owners.CurrentOwner(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAuthRequired, err)
	}

	existing, err := s.store.FindByOwner(ctx, ownerID)
	if err == nil && existing != nil {
		existing.APIKey = apiKey
		if err := s.store.Update(ctx, existing); err != nil {
			s.logger.Error("Credential-Update fehlgeschlagen", zap.Error(err))
			return fmt.Errorf("%w: %v", ErrPersistence, err)
		}
	} else {
		cred := &models.Credential{APIKey: apiKey, OwnerID: ownerID}
		if err := s.store.Insert(ctx, cred); err != nil {
			s.logger.Error("Credential-Insert fehlgeschlagen", zap.Error(err))
			return fmt.Errorf("%w: %v", ErrPersistence, err)
		}
	}

	s.mu.Lock()
	s.cache[ownerID] = apiKey
	s.mu.Unlock()

	s.logger.Info("Credential gespeichert", zap.String("owner_id", ownerID))
	return nil
}

// Get liefert den API-Key des aktuellen Owners: erst aus dem Cache, dann aus
// dem Store (zuletzt angelegter Eintrag). Jeder Fehlschlag liefert den
// Default-Key. Get scheitert nie.
func (s *CredentialService) Get(ctx context.Context) string {
	ownerID, err := s.owners.CurrentOwner(ctx)
	if err != nil {
		return DefaultExtractionKey
	}

	s.mu.Lock()
	if key, ok := s.cache[ownerID]; ok {
		s.mu.Unlock()
		return key
	}
	s.mu.Unlock()

	cred, err := s.store.FindByOwner(ctx, ownerID)
	if err != nil || cred == nil || cred.APIKey == "" {
		if err != nil {
			s.logger.Debug("Kein Credential gefunden, nutze Default-Key", zap.Error(err))
		}
		return DefaultExtractionKey
	}

	s.mu.Lock()
	s.cache[ownerID] = cred.APIKey
	s.mu.Unlock()
	return cred.APIKey
}

// Exists gibt an, ob der aktuelle Owner mindestens ein Credential hat.
// Jeder Fehlschlag zählt als "kein Credential".
func (s *CredentialService) Exists(ctx context.Context) bool {
	ownerID, err := s.owners.CurrentOwner(ctx)
	if err != nil {
		return false
	}
	count, err := s.store.CountByOwner(ctx, ownerID)
	if err != nil {
		return false
	}
	return count > 0
}
