package models

import (
	"testing"
	"time"
)

func TestNewSession(t *testing.T) {
	s := NewSession(7, time.Hour)

	if s.Token == "" {
		t.Error("expected a generated token")
	}
	if s.UserID != 7 {
		t.Errorf("expected user id 7, got %d", s.UserID)
	}
	if s.Expired() {
		t.Error("expected a fresh session not to be expired")
	}

	if other := NewSession(7, time.Hour); other.Token == s.Token {
		t.Error("expected distinct tokens per session")
	}
}

func TestSessionExpired(t *testing.T) {
	s := NewSession(1, -time.Minute)
	if !s.Expired() {
		t.Error("expected a past-deadline session to be expired")
	}
}
