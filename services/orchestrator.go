package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"research-hand/auth"
	"research-hand/extraction"
	"research-hand/models"
)

// Feste Ziel-Domains des Extraction-Aufrufs und deren Anzeige-Namen.
var (
	researchTargets = []string{"https://pubmed.ncbi.nlm.nih.gov/*", "https://arxiv.org/*"}
	researchSources = []string{"pubmed.ncbi.nlm.nih.gov", "arxiv.org"}
)

// ResearchService orchestriert einen Suchlauf: Query persistieren, Client
// lazy aufbauen, Extraction aufrufen, Ergebnisse speichern und Erfolg oder
// Fehlschlag über das Aktivitätsprotokoll melden. ProcessQuery gibt immer
// ein Ergebnisobjekt zurück, Fehler verlassen die Außengrenze nie.
type ResearchService struct {
	queries   QueryStore
	results   *ResultService
	creds     *CredentialService
	owners    auth.OwnerProvider
	newClient ClientFactory
	archive   ResultArchiver
	logger    *zap.Logger

	progressTick time.Duration

	mu      sync.Mutex
	emitter *progressEmitter
	client  ExtractionClient
}

// NewResearchService erstellt den Orchestrator. archive darf nil sein.
func NewResearchService(
	queries QueryStore,
	results *ResultService,
	creds *CredentialService,
	owners auth.OwnerProvider,
	newClient ClientFactory,
	archive ResultArchiver,
	logger *zap.Logger,
) *ResearchService {
	return &ResearchService{
		queries:      queries,
		results:      results,
		creds:        creds,
		owners:       owners,
		newClient:    newClient,
		archive:      archive,
		logger:       logger,
		progressTick: defaultProgressTick,
	}
}

// CancelCurrentSearch stoppt den aktiven Fortschritts-Timer, falls einer
// läuft. Mehrfacher Aufruf ist ein No-op. Ein laufender Extraction-Aufruf
// wird dadurch nicht abgebrochen.
func (s *ResearchService) CancelCurrentSearch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.emitter != nil {
		s.emitter.Stop()
		s.emitter = nil
	}
}

// ProcessQuery führt einen vollständigen Suchlauf für den Topic-Text aus.
// onProgress erhält den simulierten Fortschritt, onActivity nach jeder
// Änderung eine Kopie des Protokolls. Beide Callbacks dürfen nil sein.
func (s *ResearchService) ProcessQuery(ctx context.Context, text string, onProgress ProgressFunc, onActivity ActivityFunc) *models.ResearchResult {
	// Es läuft immer höchstens eine Suche gleichzeitig.
	s.CancelCurrentSearch()

	run := &searchRun{onProgress: onProgress, onActivity: onActivity}
	log := s.logger.With(zap.String("query", text))
	log.Info("Starte Suchlauf")

	run.addActivity(models.ActivityAnalyzing, "Analyzing research query...", "")

	// Init -> QuerySaved
	ownerID, err := s.owners.CurrentOwner(ctx)
	if err != nil {
		log.Warn("Suchlauf ohne authentifizierten Owner", zap.Error(err))
		return s.fail(run, fmt.Errorf("%w: %v", ErrAuthRequired, err))
	}
	query := &models.Query{Text: text, OwnerID: ownerID}
	if err := s.queries.Insert(ctx, query); err != nil {
		log.Error("Query konnte nicht gespeichert werden", zap.Error(err))
		return s.fail(run, fmt.Errorf("%w: %v", ErrPersistence, err))
	}
	run.addActivity(models.ActivityInfo, "Research query saved", "")

	// QuerySaved -> ClientReady
	client, err := s.extractionClient(ctx)
	if err != nil {
		log.Error("Extraction-Client konnte nicht gebaut werden", zap.Error(err))
		return s.fail(run, fmt.Errorf("%w: %v", ErrClientInit, err))
	}

	// ClientReady -> Extracting
	emitter := s.startEmitter(onProgress)
	run.addActivity(models.ActivityAnalyzing, "Searching sources...", strings.Join(researchSources, ", "))

	doc, err := client.Extract(ctx, researchTargets, extraction.Request{
		Prompt: buildPrompt(text),
		Schema: extraction.PaperSchema(),
	})
	s.stopEmitter(emitter)
	if err != nil {
		log.Error("Extraction fehlgeschlagen", zap.Error(err))
		run.addActivity(models.ActivityError, err.Error(), "")
		return s.fail(run, fmt.Errorf("%w: %v", ErrExtraction, err))
	}

	// Extracting -> Completed
	run.sources = append(run.sources, researchSources...)
	run.addActivity(models.ActivitySuccess,
		fmt.Sprintf("Extraction completed: %d papers found", len(doc.Papers)), "")

	if len(doc.Papers) > 0 {
		if err := s.results.SaveBatch(ctx, doc.Papers, query.ID); err != nil {
			// Daten erhalten, aber nicht speicherbar: harter Fehlschlag des
			// gesamten Suchlaufs, kein stilles Teilergebnis.
			log.Error("Results konnten nicht gespeichert werden", zap.Error(err))
			run.addActivity(models.ActivityError, err.Error(), "")
			return s.fail(run, err)
		}
		run.addActivity(models.ActivityInfo,
			fmt.Sprintf("%d results saved", len(doc.Papers)), "")
	}

	if s.archive != nil {
		if location, err := s.archive.ArchiveResult(ctx, ownerID, query.ID, doc); err != nil {
			log.Warn("Archivierung fehlgeschlagen", zap.Error(err))
		} else {
			run.addActivity(models.ActivityInfo, "Result archived", location)
		}
	}

	run.addActivity(models.ActivitySuccess, "Research completed", "")
	run.emitProgress(models.ProgressState{
		Status:     "Research completed",
		Completed:  progressTotal,
		Total:      progressTotal,
		Percentage: 100,
	})
	log.Info("Suchlauf abgeschlossen",
		zap.Uint("query_id", query.ID),
		zap.Int("papers", len(doc.Papers)))

	return &models.ResearchResult{
		Sources:    run.sources,
		Activities: run.snapshot(),
		Summary:    buildSummary(text, doc),
		Data:       doc,
		SearchID:   query.ID,
	}
}

// fail ist die Außengrenze des Suchlaufs: abschließender Fehler-Eintrag,
// Fortschritt auf "Research failed" bei 100 %, leeres Ergebnisobjekt mit dem
// angesammelten Protokoll.
func (s *ResearchService) fail(run *searchRun, err error) *models.ResearchResult {
	run.addActivity(models.ActivityError, "Research failed", err.Error())
	run.emitProgress(models.ProgressState{
		Status:     "Research failed",
		Completed:  progressTotal,
		Total:      progressTotal,
		Percentage: 100,
	})
	return &models.ResearchResult{
		Sources:    []string{},
		Activities: run.snapshot(),
	}
}

// extractionClient baut den Client beim ersten Bedarf aus dem aktuellen
// Credential und cached ihn danach.
func (s *ResearchService) extractionClient(ctx context.Context) (ExtractionClient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client != nil {
		return s.client, nil
	}
	client, err := s.newClient(s.creds.Get(ctx))
	if err != nil {
		return nil, err
	}
	s.client = client
	return client, nil
}

func (s *ResearchService) startEmitter(onProgress ProgressFunc) *progressEmitter {
	s.mu.Lock()
	defer s.mu.Unlock()
	emitter := startProgressEmitter(onProgress, s.progressTick)
	s.emitter = emitter
	return emitter
}

func (s *ResearchService) stopEmitter(emitter *progressEmitter) {
	emitter.Stop()
	s.mu.Lock()
	if s.emitter == emitter {
		s.emitter = nil
	}
	s.mu.Unlock()
}

// searchRun hält das wachsende Aktivitätsprotokoll eines einzelnen Laufs.
// Callbacks erhalten immer eine Kopie, nie den internen Slice.
type searchRun struct {
	mu         sync.Mutex
	activities []models.ActivityItem
	sources    []string
	onProgress ProgressFunc
	onActivity ActivityFunc
}

func (r *searchRun) addActivity(kind models.ActivityKind, message, details string) {
	r.mu.Lock()
	r.activities = append(r.activities, NewActivityEntry(kind, message, details))
	snap := make([]models.ActivityItem, len(r.activities))
	copy(snap, r.activities)
	r.mu.Unlock()
	if r.onActivity != nil {
		r.onActivity(snap)
	}
}

func (r *searchRun) snapshot() []models.ActivityItem {
	r.mu.Lock()
	defer r.mu.Unlock()
	snap := make([]models.ActivityItem, len(r.activities))
	copy(snap, r.activities)
	return snap
}

func (r *searchRun) emitProgress(state models.ProgressState) {
	if r.onProgress != nil {
		r.onProgress(state)
	}
}

// buildPrompt bettet den Topic-Text in den Extraction-Prompt ein.
func buildPrompt(text string) string {
	return fmt.Sprintf(
		"Find scientific papers about %q. For each paper return name, author and publication year; include abstract, DOI, relevance and key insights when available.",
		text)
}

// buildSummary bevorzugt die Zusammenfassung des Extraction-Service und
// fällt sonst auf einen generierten Einzeiler zurück.
func buildSummary(text string, doc *extraction.Document) string {
	if doc.Summary != "" {
		return doc.Summary
	}
	return fmt.Sprintf("Found %d papers for %q across %d sources.",
		len(doc.Papers), text, len(researchSources))
}
