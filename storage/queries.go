package storage

import (
	"context"

	"gorm.io/gorm"

	"research-hand/models"
)

// QueryStore ist die GORM-Implementierung für Forschungsanfragen.
type QueryStore struct {
	db *gorm.DB
}

// NewQueryStore erstellt einen QueryStore.
func NewQueryStore(db *gorm.DB) *QueryStore {
	return &QueryStore{db: db}
}

// Insert legt die Query an; die generierte ID steht danach am Objekt.
func (s *QueryStore) Insert(ctx context.Context, query *models.Query) error {
	return s.db.WithContext(ctx).Create(query).Error
}

// ListByOwner liefert die letzten Queries eines Owners, neueste zuerst.
func (s *QueryStore) ListByOwner(ctx context.Context, ownerID string, limit int) ([]models.Query, error) {
	var queries []models.Query
	q := s.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&queries).Error
	return queries, err
}
