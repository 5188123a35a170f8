package store

import (
	"encoding/json"
	"time"
)

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"display_name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// JournalEntry is one journal record. Mood and productivity are integers in
// [1,10]; sentiment annotations are filled in by the analyzer at write time.
type JournalEntry struct {
	ID            string          `json:"id"`
	UserUID       string          `json:"user_uid"`
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	Mood          int             `json:"mood"`
	Productivity  int             `json:"productivity"`
	Sentiment     string          `json:"sentiment,omitempty"`
	PolarityScore float64         `json:"polarity_score"`
	Sarcasm       string          `json:"sarcasm,omitempty"`
	Analysis      json.RawMessage `json:"analysis,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}
