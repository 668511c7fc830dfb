package models

import (
	"time"
)

// CardSet is read-only reference data grouping cards by set code.
type CardSet struct {
	Code         string    `json:"code" gorm:"primaryKey"`
	Name         string    `json:"name" gorm:"not null;index"`
	ReleaseDate  string    `json:"release_date" gorm:"index"`
	SetType      string    `json:"set_type"`
	Block        string    `json:"block"`
	KeyruneCode  string    `json:"keyrune_code"`
	BaseSetSize  int       `json:"base_set_size"`
	TotalSetSize int       `json:"total_set_size"`
	CardCount    int       `json:"card_count"`
	IsOnlineOnly bool      `json:"is_online_only"`
	IsFoilOnly   bool      `json:"is_foil_only"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
