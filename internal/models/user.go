package models

import (
	"time"
)

// User owns saved decks and sessions. The password is stored only as a
// bcrypt hash; the hash never appears in JSON output.
type User struct {
	ID           uint        `json:"id" gorm:"primaryKey;autoIncrement"`
	Username     string      `json:"username" gorm:"uniqueIndex;not null"`
	Email        string      `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash string      `json:"-" gorm:"not null"`
	Decks        []SavedDeck `json:"decks,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Sessions     []Session   `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

type CreateUserRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}
