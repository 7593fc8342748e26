package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"research-hand/auth"
	"research-hand/extraction"
	"research-hand/models"
)

var errRecordNotFound = errors.New("record not found")

// ownerCtx liefert einen Context mit authentifiziertem Owner.
func ownerCtx(ownerID string) context.Context {
	return auth.WithOwner(context.Background(), ownerID)
}

type stubQueryStore struct {
	mu        sync.Mutex
	insertErr error
	inserted  []*models.Query
}

func (s *stubQueryStore) Insert(ctx context.Context, query *models.Query) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return s.insertErr
	}
	query.ID = uint(len(s.inserted) + 1)
	s.inserted = append(s.inserted, query)
	return nil
}

type stubResultStore struct {
	mu        sync.Mutex
	insertErr error
	failOn    int // Batch-Nummer (1-basiert), ab der InsertBatch fehlschlägt; 0 = immer (wenn insertErr gesetzt)
	calls     int
	batches   [][]models.ResultRecord
}

func (s *stubResultStore) InsertBatch(ctx context.Context, records []models.ResultRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.insertErr != nil && (s.failOn == 0 || s.calls >= s.failOn) {
		return s.insertErr
	}
	batch := make([]models.ResultRecord, len(records))
	copy(batch, records)
	s.batches = append(s.batches, batch)
	return nil
}

func (s *stubResultStore) ListByQuery(ctx context.Context, queryID uint, ownerID string) ([]models.ResultRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ResultRecord
	for _, batch := range s.batches {
		for _, rec := range batch {
			if rec.QueryID == queryID && rec.OwnerID == ownerID {
				out = append(out, rec)
			}
		}
	}
	return out, nil
}

func (s *stubResultStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

type stubCredStore struct {
	mu          sync.Mutex
	creds       map[string]*models.Credential
	findErr     error
	insertErr   error
	updateErr   error
	countErr    error
	findCalls   int
	insertCalls int
	updateCalls int
}

func newStubCredStore() *stubCredStore {
	return &stubCredStore{creds: make(map[string]*models.Credential)}
}

func (s *stubCredStore) FindByOwner(ctx context.Context, ownerID string) (*models.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.findCalls++
	if s.findErr != nil {
		return nil, s.findErr
	}
	cred, ok := s.creds[ownerID]
	if !ok {
		return nil, errRecordNotFound
	}
	copied := *cred
	return &copied, nil
}

func (s *stubCredStore) Insert(ctx context.Context, cred *models.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.insertCalls++
	if s.insertErr != nil {
		return s.insertErr
	}
	cred.ID = uint(len(s.creds) + 1)
	copied := *cred
	s.creds[cred.OwnerID] = &copied
	return nil
}

func (s *stubCredStore) Update(ctx context.Context, cred *models.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updateCalls++
	if s.updateErr != nil {
		return s.updateErr
	}
	copied := *cred
	s.creds[cred.OwnerID] = &copied
	return nil
}

func (s *stubCredStore) CountByOwner(ctx context.Context, ownerID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.countErr != nil {
		return 0, s.countErr
	}
	if _, ok := s.creds[ownerID]; ok {
		return 1, nil
	}
	return 0, nil
}

type stubExtractionClient struct {
	mu    sync.Mutex
	doc   *extraction.Document
	err   error
	block chan struct{} // wenn gesetzt, blockiert Extract bis zum Close
	calls int
}

func (c *stubExtractionClient) Extract(ctx context.Context, targets []string, req extraction.Request) (*extraction.Document, error) {
	c.mu.Lock()
	c.calls++
	block := c.block
	c.mu.Unlock()
	if block != nil {
		<-block
	}
	if c.err != nil {
		return nil, c.err
	}
	return c.doc, nil
}

func (c *stubExtractionClient) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// newTestService verdrahtet den Orchestrator mit Stubs und schnellem Tick.
func newTestService(client ExtractionClient, queries QueryStore, results ResultStore) *ResearchService {
	logger := zap.NewNop()
	owners := auth.ContextProvider{}
	creds := NewCredentialService(newStubCredStore(), owners, logger)
	resultService := NewResultService(results, owners, logger)
	factory := func(apiKey string) (ExtractionClient, error) {
		return client, nil
	}
	svc := NewResearchService(queries, resultService, creds, owners, factory, nil, logger)
	svc.progressTick = 2 * time.Millisecond
	return svc
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }
