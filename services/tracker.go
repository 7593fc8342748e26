package services

import (
	"sync"

	"research-hand/models"
)

// SearchTracker hält den letzten bekannten Zustand des laufenden Suchlaufs
// für den Status-Endpoint. Die Callbacks des Orchestrators schreiben hinein,
// der HTTP-Layer liest Snapshots.
type SearchTracker struct {
	mu         sync.RWMutex
	running    bool
	progress   models.ProgressState
	activities []models.ActivityItem
}

// NewSearchTracker erstellt einen leeren Tracker.
func NewSearchTracker() *SearchTracker {
	return &SearchTracker{}
}

// Begin setzt den Tracker für einen neuen Lauf zurück.
func (t *SearchTracker) Begin() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.running = true
	t.progress = models.ProgressState{}
	t.activities = nil
}

// Finish markiert den Lauf als beendet.
func (t *SearchTracker) Finish() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.running = false
}

// OnProgress ist als ProgressFunc an den Orchestrator anschließbar.
func (t *SearchTracker) OnProgress(state models.ProgressState) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.progress = state
}

// OnActivity ist als ActivityFunc an den Orchestrator anschließbar.
func (t *SearchTracker) OnActivity(activities []models.ActivityItem) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.activities = activities
}

// Snapshot liefert Laufstatus, Fortschritt und Protokoll-Kopie.
func (t *SearchTracker) Snapshot() (bool, models.ProgressState, []models.ActivityItem) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	snap := make([]models.ActivityItem, len(t.activities))
	copy(snap, t.activities)
	return t.running, t.progress, snap
}
