package models

import (
	"time"
)

// ActivityKind klassifiziert einen Eintrag im Aktivitätsprotokoll.
type ActivityKind string

const (
	ActivityAnalyzing ActivityKind = "analyzing"
	ActivitySuccess   ActivityKind = "success"
	ActivityInfo      ActivityKind = "info"
	ActivityError     ActivityKind = "error"
)

// ActivityItem ist ein Eintrag im Aktivitätsprotokoll eines Suchlaufs.
// Die Einträge sind unveränderlich und werden nicht persistiert; sie gehen
// nur an den Aufrufer zurück.
type ActivityItem struct {
	ID        string       `json:"id"`
	Kind      ActivityKind `json:"kind"`
	Message   string       `json:"message"`
	Timestamp time.Time    `json:"timestamp"`
	Details   string       `json:"details,omitempty"`
}

// ProgressState beschreibt den simulierten Fortschritt eines Suchlaufs.
// Der Zustand ist transient und wird nur über den Progress-Callback gemeldet.
type ProgressState struct {
	Status     string `json:"status"`
	Completed  int    `json:"completed"`
	Total      int    `json:"total"`
	Percentage int    `json:"percentage"`
}
