package models

import (
	"time"
)

// ImportMetadata is a singleton row (ID 1) describing the most recent
// completed card import.
type ImportMetadata struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	RecordCount int       `json:"record_count"`
	Description string    `json:"description"`
	CompletedAt time.Time `json:"completed_at"`
}

func (ImportMetadata) TableName() string {
	return "import_metadata"
}
