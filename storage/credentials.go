package storage

import (
	"context"

	"gorm.io/gorm"

	"research-hand/models"
)

// CredentialStore ist die GORM-Implementierung des Credential-Zugriffs.
type CredentialStore struct {
	db *gorm.DB
}

// NewCredentialStore erstellt einen CredentialStore.
func NewCredentialStore(db *gorm.DB) *CredentialStore {
	return &CredentialStore{db: db}
}

// FindByOwner liefert das zuletzt angelegte Credential des Owners.
func (s *CredentialStore) FindByOwner(ctx context.Context, ownerID string) (*models.Credential, error) {
	var cred models.Credential
	err := s.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at desc").
		First(&cred).Error
	if err != nil {
		return nil, err
	}
	return &cred, nil
}

// Insert legt ein neues Credential an.
func (s *CredentialStore) Insert(ctx context.Context, cred *models.Credential) error {
	return s.db.WithContext(ctx).Create(cred).Error
}

// Update überschreibt den API-Key eines bestehenden Credentials.
func (s *CredentialStore) Update(ctx context.Context, cred *models.Credential) error {
	return s.db.WithContext(ctx).
		Model(&models.Credential{}).
		Where("id = ?", cred.ID).
		Update("api_key", cred.APIKey).Error
}

// CountByOwner zählt die Credentials eines Owners.
func (s *CredentialStore) CountByOwner(ctx context.Context, ownerID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Credential{}).
		Where("owner_id = ?", ownerID).
		Count(&count).Error
	return count, err
}
