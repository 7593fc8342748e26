package models

import (
	"research-hand/extraction"
)

// ResearchResult ist das Endergebnis eines Suchlaufs. Der Orchestrator gibt
// immer ein ResearchResult zurück, auch im Fehlerfall: dann mit leeren
// Sources, ohne Data und mit einem abschließenden Fehler-Eintrag in Activities.
type ResearchResult struct {
	Sources    []string             `json:"sources"`
	Activities []ActivityItem       `json:"activities"`
	Summary    string               `json:"summary,omitempty"`
	Data       *extraction.Document `json:"data,omitempty"`
	SearchID   uint                 `json:"search_id,omitempty"`
}
