package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"research-hand/auth"
	"research-hand/extraction"
	"research-hand/models"
)

// persistBatchSize ist die feste Batch-Größe beim Schreiben von Results.
const persistBatchSize = 50

// unknownAuthor wird gesetzt, wenn die Extraction keinen Autor geliefert hat.
const unknownAuthor = "Unknown"

// ResultService schreibt extrahierte Paper unter ihrer Query in den Store.
type ResultService struct {
	store  ResultStore
	owners auth.OwnerProvider
	logger *zap.Logger
}

// NewResultService erstellt einen ResultService.
func NewResultService(store ResultStore, owners auth.OwnerProvider, logger *zap.Logger) *ResultService {
	return &ResultService{store: store, owners: owners, logger: logger}
}

// SaveBatch normalisiert die Paper und schreibt sie sequenziell in Batches
// zu je 50 Records. Der erste fehlgeschlagene Batch bricht die Operation ab;
// bereits geschriebene Batches werden nicht zurückgerollt.
func (s *ResultService) SaveBatch(ctx context.Context, papers []extraction.Paper, queryID uint) error {
	if len(papers) == 0 {
		return nil
	}

	ownerID, err := s.owners.CurrentOwner(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAuthRequired, err)
	}

	records := make([]models.ResultRecord, 0, len(papers))
	for _, p := range papers {
		records = append(records, normalizeRecord(p, queryID, ownerID))
	}

	for start := 0; start < len(records); start += persistBatchSize {
		end := start + persistBatchSize
		if end > len(records) {
			end = len(records)
		}
		if err := s.store.InsertBatch(ctx, records[start:end]); err != nil {
			s.logger.Error("Result-Batch konnte nicht geschrieben werden",
				zap.Uint("query_id", queryID),
				zap.Int("batch_start", start),
				zap.Error(err))
			return fmt.Errorf("%w: batch ab %d: %v", ErrPersistence, start, err)
		}
	}

	s.logger.Info("Results gespeichert",
		zap.Uint("query_id", queryID),
		zap.Int("count", len(records)))
	return nil
}

// ListByQuery liefert die gespeicherten Records einer Query des aktuellen Owners.
func (s *ResultService) ListByQuery(ctx context.Context, queryID uint) ([]models.ResultRecord, error) {
	ownerID, err := s.owners.CurrentOwner(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthRequired, err)
	}
	records, err := s.store.ListByQuery(ctx, queryID, ownerID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return records, nil
}

// CleanupOlderThan löscht Results (und deren Queries) älter als retention.
// Wird vom Cron-Job aufgerufen.
func (s *ResultService) CleanupOlderThan(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	deleted, err := s.store.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return deleted, nil
}

// normalizeRecord füllt Pflichtfelder auf und hängt Query- und Owner-Bezug an.
func normalizeRecord(p extraction.Paper, queryID uint, ownerID string) models.ResultRecord {
	author := p.Author
	if author == "" {
		author = unknownAuthor
	}

	rec := models.ResultRecord{
		Name:        p.Name,
		Author:      author,
		Year:        p.Year,
		Abstract:    p.Abstract,
		DOI:         p.DOI,
		Relevance:   p.Relevance,
		KeyInsights: p.KeyInsights,
		QueryID:     queryID,
		OwnerID:     ownerID,
	}
	if raw, err := json.Marshal(p); err == nil {
		rec.Raw = raw
	}
	return rec
}
