package models

import (
	"time"
)

// Credential speichert den API-Schlüssel eines Nutzers für den Extraction-Service.
// Pro Owner wird immer nur der zuletzt angelegte Eintrag gelesen.
type Credential struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	APIKey  string `json:"api_key" gorm:"not null"`
	OwnerID string `json:"owner_id" gorm:"index;not null"`
}

// TableName gibt explizit den Tabellennamen an.
func (Credential) TableName() string {
	return "credentials"
}
