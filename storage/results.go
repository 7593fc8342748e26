package storage

import (
	"context"
	"time"

	"gorm.io/gorm"

	"research-hand/models"
)

// ResultStore ist die GORM-Implementierung für extrahierte Paper.
type ResultStore struct {
	db *gorm.DB
}

// NewResultStore erstellt einen ResultStore.
func NewResultStore(db *gorm.DB) *ResultStore {
	return &ResultStore{db: db}
}

// InsertBatch schreibt einen Batch in einem einzelnen Statement. Batches
// werden bewusst nicht in eine gemeinsame Transaktion gespannt.
func (s *ResultStore) InsertBatch(ctx context.Context, records []models.ResultRecord) error {
	if len(records) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Create(&records).Error
}

// ListByQuery liefert die Records einer Query des Owners.
func (s *ResultStore) ListByQuery(ctx context.Context, queryID uint, ownerID string) ([]models.ResultRecord, error) {
	var records []models.ResultRecord
	err := s.db.WithContext(ctx).
		Where("query_id = ? AND owner_id = ?", queryID, ownerID).
		Order("created_at desc").
		Find(&records).Error
	return records, err
}

// DeleteOlderThan löscht Results und Queries, die vor cutoff angelegt wurden.
func (s *ResultStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&models.ResultRecord{})
	if res.Error != nil {
		return 0, res.Error
	}
	deleted := res.RowsAffected

	if err := s.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&models.Query{}).Error; err != nil {
		return deleted, err
	}
	return deleted, nil
}
