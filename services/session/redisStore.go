package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"receptionist/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	sessionKeyPrefix = "session:"
	maxUpdateRetries = 5
)

// RedisStore serializes read-modify-write per key with WATCH/MULTI.
type RedisStore struct {
	client   *redis.Client
	ttl      time.Duration
	endedTTL time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

func NewRedisStore(client *redis.Client, ttl, endedTTL time.Duration, logger *zap.Logger) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if endedTTL <= 0 {
		endedTTL = DefaultEndedTTL
	}
	return &RedisStore{client: client, ttl: ttl, endedTTL: endedTTL, logger: logger, now: time.Now}
}

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}

func (s *RedisStore) ttlFor(sess *models.Session) time.Duration {
	if sess.Ended() {
		return s.endedTTL
	}
	return s.ttl
}

func (s *RedisStore) Create(ctx context.Context, sess *models.Session) error {
	b, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.client.Set(ctx, sessionKey(sess.ID), b, s.ttlFor(sess)).Err(); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	s.logger.Debug("session created", zap.String("sessionID", sess.ID))
	return nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*models.Session, error) {
	data, err := s.client.Get(ctx, sessionKey(id)).Bytes()
	if err == redis.Nil {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	return decodeSession(data)
}

func decodeSession(data []byte) (*models.Session, error) {
	var sess models.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &sess, nil
}

func (s *RedisStore) Update(ctx context.Context, id string, fn func(*models.Session) error) (*models.Session, error) {
	key := sessionKey(id)
	var updated *models.Session

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err == redis.Nil {
			return ErrSessionNotFound
		}
		if err != nil {
			return fmt.Errorf("read session: %w", err)
		}
		sess, err := decodeSession(data)
		if err != nil {
			return err
		}
		if err := fn(sess); err != nil {
			return err
		}
		b, err := json.Marshal(sess)
		if err != nil {
			return fmt.Errorf("encode session: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, b, s.ttlFor(sess))
			return nil
		})
		if err == nil {
			updated = sess
		}
		return err
	}

	for attempt := 0; attempt < maxUpdateRetries; attempt++ {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			s.logger.Debug("session update raced, retrying", zap.String("sessionID", id), zap.Int("attempt", attempt+1))
			continue
		}
		if err != nil {
			return nil, err
		}
		return updated, nil
	}
	return nil, ErrUpdateConflict
}

func (s *RedisStore) End(ctx context.Context, id string) (*models.Session, error) {
	now := s.now()
	return s.Update(ctx, id, func(sess *models.Session) error {
		markEnded(sess, now)
		return nil
	})
}
