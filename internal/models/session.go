package models

import (
	"time"

	"github.com/google/uuid"
)

// Session is a plain data record tying a token to a user. There is no
// login flow or cookie handling in this backend; sessions exist so that
// user deletion has something real to cascade over.
type Session struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	Token     string    `json:"token" gorm:"uniqueIndex;not null"`
	UserID    uint      `json:"user_id" gorm:"not null;index"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// NewSession mints a session with a random token.
func NewSession(userID uint, ttl time.Duration) Session {
	return Session{
		Token:     uuid.NewString(),
		UserID:    userID,
		ExpiresAt: time.Now().Add(ttl),
	}
}

// Expired reports whether the session's deadline has passed.
func (s *Session) Expired() bool {
	return time.Now().After(s.ExpiresAt)
}
