package session

import (
	"context"
	"errors"
	"time"

	"receptionist/models"
)

var (
	// ErrSessionNotFound is returned for unknown or expired sessions.
	ErrSessionNotFound = errors.New("session not found")
	// ErrUpdateConflict is returned when an update keeps losing to concurrent writers.
	ErrUpdateConflict = errors.New("session update conflict")
)

const (
	DefaultTTL      = time.Hour
	DefaultEndedTTL = 24 * time.Hour
)

// Store keeps per-call sessions with expiry. Active sessions expire after the
// inactivity TTL; ended sessions are retained for the audit TTL.
type Store interface {
	Create(ctx context.Context, s *models.Session) error
	Get(ctx context.Context, id string) (*models.Session, error)
	// Update runs fn on the current value and writes the result atomically.
	// fn may run more than once and must not have side effects.
	Update(ctx context.Context, id string, fn func(*models.Session) error) (*models.Session, error)
	// End marks the session ended and switches it to the audit TTL.
	End(ctx context.Context, id string) (*models.Session, error)
}

func markEnded(s *models.Session, now time.Time) {
	if s.EndedAt == nil {
		s.EndedAt = &now
	}
	s.LastActivity = now
}
