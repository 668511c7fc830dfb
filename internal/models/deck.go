package models

import (
	"time"

	"gorm.io/datatypes"
)

// SavedDeck stores a user's deck list as a JSON array of DeckCard entries.
type SavedDeck struct {
	ID          uint           `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID      uint           `json:"user_id" gorm:"not null;index"`
	Name        string         `json:"name" gorm:"not null"`
	Format      string         `json:"format"`
	Description string         `json:"description"`
	Cards       datatypes.JSON `json:"cards"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// DeckCard is one entry in a SavedDeck's card list. Board is "main",
// "side" or "commander".
type DeckCard struct {
	UUID     string `json:"uuid"`
	Quantity int    `json:"quantity"`
	Board    string `json:"board"`
}

type CreateDeckRequest struct {
	UserID      uint       `json:"user_id" binding:"required"`
	Name        string     `json:"name" binding:"required"`
	Format      string     `json:"format"`
	Description string     `json:"description"`
	Cards       []DeckCard `json:"cards"`
}

type UpdateDeckRequest struct {
	Name        *string     `json:"name"`
	Format      *string     `json:"format"`
	Description *string     `json:"description"`
	Cards       *[]DeckCard `json:"cards"`
}
