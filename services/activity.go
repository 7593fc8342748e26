package services

import (
	"time"

	"github.com/google/uuid"

	"research-hand/models"
)

// NewActivityEntry erstellt einen unveränderlichen Protokoll-Eintrag mit
// frischer ID und aktuellem Zeitstempel.
func NewActivityEntry(kind models.ActivityKind, message, details string) models.ActivityItem {
	return models.ActivityItem{
		ID:        uuid.NewString(),
		Kind:      kind,
		Message:   message,
		Timestamp: time.Now(),
		Details:   details,
	}
}
