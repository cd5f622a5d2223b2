package session

import (
	"context"
	"sync"
	"time"

	"receptionist/models"

	"go.uber.org/zap"
)

type memoryEntry struct {
	session   *models.Session
	expiresAt time.Time
}

// MemoryStore is the single-process fallback used when Redis is not configured.
type MemoryStore struct {
	mu       sync.Mutex
	entries  map[string]memoryEntry
	ttl      time.Duration
	endedTTL time.Duration
	now      func() time.Time
	logger   *zap.Logger
}

func NewMemoryStore(ttl, endedTTL time.Duration, logger *zap.Logger) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if endedTTL <= 0 {
		endedTTL = DefaultEndedTTL
	}
	return &MemoryStore{
		entries:  make(map[string]memoryEntry),
		ttl:      ttl,
		endedTTL: endedTTL,
		now:      time.Now,
		logger:   logger,
	}
}

func (m *MemoryStore) put(sess *models.Session) {
	ttl := m.ttl
	if sess.Ended() {
		ttl = m.endedTTL
	}
	m.entries[sess.ID] = memoryEntry{session: sess.Clone(), expiresAt: m.now().Add(ttl)}
}

// lookup must be called with mu held.
func (m *MemoryStore) lookup(id string) (*models.Session, bool) {
	e, ok := m.entries[id]
	if !ok {
		return nil, false
	}
	if !m.now().Before(e.expiresAt) {
		delete(m.entries, id)
		return nil, false
	}
	return e.session.Clone(), true
}

func (m *MemoryStore) Create(_ context.Context, sess *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.put(sess)
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.lookup(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

func (m *MemoryStore) Update(_ context.Context, id string, fn func(*models.Session) error) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.lookup(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	if err := fn(sess); err != nil {
		return nil, err
	}
	m.put(sess)
	return sess.Clone(), nil
}

func (m *MemoryStore) End(ctx context.Context, id string) (*models.Session, error) {
	now := m.now()
	return m.Update(ctx, id, func(sess *models.Session) error {
		markEnded(sess, now)
		return nil
	})
}

// Sweep drops expired sessions and returns how many were removed.
func (m *MemoryStore) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	removed := 0
	for id, e := range m.entries {
		if !now.Before(e.expiresAt) {
			delete(m.entries, id)
			removed++
		}
	}
	return removed
}

// StartSweeper runs Sweep every interval until ctx is cancelled.
func (m *MemoryStore) StartSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := m.Sweep(); n > 0 {
					m.logger.Info("swept expired sessions", zap.Int("count", n))
				}
			}
		}
	}()
}
