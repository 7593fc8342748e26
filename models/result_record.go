package models

import (
	"time"

	"gorm.io/datatypes"
)

// ResultRecord ist ein einzelnes Paper aus einer Extraction-Antwort,
// gespeichert unter der Query, aus der es stammt. Records werden nur
// angelegt, nie aktualisiert oder gelöscht.
type ResultRecord struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	Name   string `json:"name" gorm:"not null"`
	Author string `json:"author" gorm:"not null"`

	Year     *int    `json:"year,omitempty"`
	Abstract *string `json:"abstract,omitempty" gorm:"type:text"`
	DOI      *string `json:"doi,omitempty" gorm:"index"`

	// Optionale Kommentar-Felder aus der strukturierten Analyse
	Relevance   *string `json:"relevance,omitempty" gorm:"type:text"`
	KeyInsights *string `json:"key_insights,omitempty" gorm:"type:text"`

	// Unveränderte Extraction-Antwort für dieses Item
	Raw datatypes.JSON `json:"raw,omitempty" gorm:"type:jsonb"`

	QueryID uint   `json:"query_id" gorm:"index;not null"`
	OwnerID string `json:"owner_id" gorm:"index;not null"`
}

// TableName gibt explizit den Tabellennamen an.
func (ResultRecord) TableName() string {
	return "results"
}
