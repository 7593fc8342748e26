package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"research-hand/extraction"
	"research-hand/models"
)

func countKind(activities []models.ActivityItem, kind models.ActivityKind) int {
	n := 0
	for _, a := range activities {
		if a.Kind == kind {
			n++
		}
	}
	return n
}

func TestProcessQueryReturnsResultOnSuccess(t *testing.T) {
	doc := &extraction.Document{
		Papers: []extraction.Paper{
			{Name: "Graphene anodes in Li-ion cells", Author: "Chen et al.", Year: intPtr(2023)},
			{Name: "Scalable graphene synthesis", Author: "", DOI: strPtr("10.1000/xyz")},
		},
		Summary: "Two relevant papers on graphene battery research.",
	}
	client := &stubExtractionClient{doc: doc}
	queries := &stubQueryStore{}
	store := &stubResultStore{}
	svc := newTestService(client, queries, store)

	var lastProgress models.ProgressState
	var mu sync.Mutex
	result := svc.ProcessQuery(ownerCtx("user-1"), "graphene batteries",
		func(state models.ProgressState) {
			mu.Lock()
			lastProgress = state
			mu.Unlock()
		}, nil)

	require.NotNil(t, result)
	assert.Equal(t, researchSources, result.Sources)
	require.NotNil(t, result.Data)
	assert.Len(t, result.Data.Papers, 2)
	assert.Equal(t, doc.Summary, result.Summary)
	assert.Equal(t, uint(1), result.SearchID)
	assert.NotEmpty(t, result.Activities)

	// Der Orchestrator setzt den finalen 100%-Zustand, nicht der Emitter.
	mu.Lock()
	assert.Equal(t, 100, lastProgress.Percentage)
	assert.Equal(t, "Research completed", lastProgress.Status)
	mu.Unlock()

	// Records hängen an Query und Owner.
	require.Len(t, store.batches, 1)
	for _, rec := range store.batches[0] {
		assert.Equal(t, uint(1), rec.QueryID)
		assert.Equal(t, "user-1", rec.OwnerID)
	}
	assert.Equal(t, "Unknown", store.batches[0][1].Author)
}

func TestProcessQueryNeverPanicsOrErrors(t *testing.T) {
	// Alles schlägt fehl, das Ergebnisobjekt kommt trotzdem zurück.
	client := &stubExtractionClient{err: errors.New("network down")}
	svc := newTestService(client, &stubQueryStore{}, &stubResultStore{})

	result := svc.ProcessQuery(ownerCtx("user-1"), "anything", nil, nil)

	require.NotNil(t, result)
	assert.NotEmpty(t, result.Activities)
	assert.Empty(t, result.Sources)
	assert.Nil(t, result.Data)
	last := result.Activities[len(result.Activities)-1]
	assert.Equal(t, models.ActivityError, last.Kind)
}

func TestProcessQueryUnauthenticatedFails(t *testing.T) {
	client := &stubExtractionClient{doc: &extraction.Document{}}
	queries := &stubQueryStore{}
	svc := newTestService(client, queries, &stubResultStore{})

	result := svc.ProcessQuery(context.Background(), "topic", nil, nil)

	require.NotNil(t, result)
	assert.Nil(t, result.Data)
	assert.Empty(t, queries.inserted)
	assert.Zero(t, client.callCount())
}

func TestQuerySaveFailureSkipsExtraction(t *testing.T) {
	client := &stubExtractionClient{doc: &extraction.Document{}}
	queries := &stubQueryStore{insertErr: errors.New("db down")}
	svc := newTestService(client, queries, &stubResultStore{})

	var lastProgress models.ProgressState
	result := svc.ProcessQuery(ownerCtx("user-1"), "topic",
		func(state models.ProgressState) { lastProgress = state }, nil)

	require.NotNil(t, result)
	assert.Zero(t, client.callCount(), "Extraction darf nach Save-Fehler nicht aufgerufen werden")
	assert.Equal(t, 1, countKind(result.Activities, models.ActivityError))
	assert.Empty(t, result.Sources)
	assert.Nil(t, result.Data)
	assert.Empty(t, result.Summary)
	assert.Equal(t, "Research failed", lastProgress.Status)
	assert.Equal(t, 100, lastProgress.Percentage)
}

func TestPersistenceFailureAfterExtractionIsHardFailure(t *testing.T) {
	doc := &extraction.Document{
		Papers: []extraction.Paper{
			{Name: "Paper A", Author: "A"},
			{Name: "Paper B", Author: "B"},
			{Name: "Paper C", Author: "C"},
		},
	}
	client := &stubExtractionClient{doc: doc}
	store := &stubResultStore{insertErr: errors.New("insert failed")}
	svc := newTestService(client, &stubQueryStore{}, store)

	result := svc.ProcessQuery(ownerCtx("user-1"), "graphene batteries", nil, nil)

	require.NotNil(t, result)
	// Fehlschlag-förmiges Ergebnis: keine Sources, keine Daten...
	assert.Empty(t, result.Sources)
	assert.Nil(t, result.Data)
	assert.Empty(t, result.Summary)
	// ...aber das Protokoll enthält den Extraction-Erfolg UND den Fehler.
	assert.GreaterOrEqual(t, countKind(result.Activities, models.ActivitySuccess), 1)
	last := result.Activities[len(result.Activities)-1]
	assert.Equal(t, models.ActivityError, last.Kind)
	assert.Equal(t, "Research failed", last.Message)
}

func TestActivityCallbackReceivesCopies(t *testing.T) {
	client := &stubExtractionClient{doc: &extraction.Document{}}
	svc := newTestService(client, &stubQueryStore{}, &stubResultStore{})

	var mu sync.Mutex
	var snapshots [][]models.ActivityItem
	result := svc.ProcessQuery(ownerCtx("user-1"), "topic", nil,
		func(activities []models.ActivityItem) {
			mu.Lock()
			snapshots = append(snapshots, activities)
			mu.Unlock()
		})

	require.NotNil(t, result)
	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, snapshots)
	// Jede Benachrichtigung ist genau einen Eintrag länger als die vorige.
	for i := 1; i < len(snapshots); i++ {
		assert.Equal(t, len(snapshots[i-1])+1, len(snapshots[i]))
	}
	// Frühe Snapshots wachsen nicht nachträglich mit.
	assert.Less(t, len(snapshots[0]), len(snapshots[len(snapshots)-1]))
}

func TestCancelCurrentSearchIsIdempotent(t *testing.T) {
	svc := newTestService(&stubExtractionClient{}, &stubQueryStore{}, &stubResultStore{})

	// Ohne aktiven Lauf ein No-op.
	svc.CancelCurrentSearch()
	svc.CancelCurrentSearch()

	// Mit aktivem Emitter: zweiter Aufruf ebenfalls No-op.
	var mu sync.Mutex
	count := 0
	svc.startEmitter(func(models.ProgressState) {
		mu.Lock()
		count++
		mu.Unlock()
	})
	time.Sleep(10 * time.Millisecond)
	svc.CancelCurrentSearch()
	svc.CancelCurrentSearch()

	mu.Lock()
	after := count
	mu.Unlock()
	time.Sleep(15 * time.Millisecond)
	mu.Lock()
	assert.Equal(t, after, count, "nach Cancel dürfen keine Ticks mehr ankommen")
	mu.Unlock()
}

func TestSecondSearchCancelsFirstEmitter(t *testing.T) {
	block := make(chan struct{})
	client := &stubExtractionClient{err: errors.New("released"), block: block}
	svc := newTestService(client, &stubQueryStore{}, &stubResultStore{})

	var mu sync.Mutex
	firstTicks := 0
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		svc.ProcessQuery(ownerCtx("user-1"), "first", func(models.ProgressState) {
			mu.Lock()
			firstTicks++
			mu.Unlock()
		}, nil)
	}()

	// Warten, bis der erste Emitter tickt.
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return firstTicks > 0
	}, time.Second, time.Millisecond)

	go func() {
		defer wg.Done()
		svc.ProcessQuery(ownerCtx("user-1"), "second", nil, nil)
	}()

	// Der zweite Lauf ersetzt den Emitter; kurz einschwingen lassen.
	time.Sleep(20 * time.Millisecond)
	mu.Lock()
	snapshot := firstTicks
	mu.Unlock()

	time.Sleep(20 * time.Millisecond)
	mu.Lock()
	assert.Equal(t, snapshot, firstTicks, "erster Lauf darf nach Start des zweiten keine Progress-Callbacks mehr erhalten")
	mu.Unlock()

	close(block)
	wg.Wait()
}
