package models

import (
	"time"
)

// Query repräsentiert eine gespeicherte Forschungsanfrage eines Nutzers.
// Nach dem Insert wird eine Query nie wieder verändert.
type Query struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	Text    string `json:"text" gorm:"type:text;not null"`
	OwnerID string `json:"owner_id" gorm:"index;not null"`
}

// TableName gibt explizit den Tabellennamen an.
func (Query) TableName() string {
	return "queries"
}
