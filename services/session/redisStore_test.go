package session

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"receptionist/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, time.Hour, 24*time.Hour, zap.NewNop()), mr, client
}

func TestRedisStoreCreateGet(t *testing.T) {
	store, mr, _ := newRedisStore(t)
	ctx := context.Background()

	sess := models.NewSession("session_CA1", "CA1", "+15550100", time.Now())
	sess.Appointment.CustomerName = "Kevin"
	require.NoError(t, store.Create(ctx, sess))
	require.Equal(t, time.Hour, mr.TTL("session:session_CA1"))

	got, err := store.Get(ctx, "session_CA1")
	require.NoError(t, err)
	require.Equal(t, "Kevin", got.Appointment.CustomerName)
	require.Equal(t, models.StateGreeting, got.State)

	_, err = store.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRedisStoreExpiresAfterInactivity(t *testing.T) {
	store, mr, _ := newRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, models.NewSession("s1", "", "", time.Now())))
	mr.FastForward(61 * time.Minute)

	_, err := store.Get(ctx, "s1")
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRedisStoreUpdateRefreshesTTL(t *testing.T) {
	store, mr, _ := newRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, models.NewSession("s1", "", "", time.Now())))
	mr.FastForward(50 * time.Minute)

	updated, err := store.Update(ctx, "s1", func(s *models.Session) error {
		s.State = models.StateBookingAppointment
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, models.StateBookingAppointment, updated.State)
	require.Equal(t, time.Hour, mr.TTL("session:s1"))
}

func TestRedisStoreUpdateMissingSession(t *testing.T) {
	store, _, _ := newRedisStore(t)

	called := false
	_, err := store.Update(context.Background(), "ghost", func(*models.Session) error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, ErrSessionNotFound)
	require.False(t, called)
}

func TestRedisStoreUpdateRetriesOnConcurrentWrite(t *testing.T) {
	store, _, client := newRedisStore(t)
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, models.NewSession("s1", "", "", time.Now())))

	attempts := 0
	updated, err := store.Update(ctx, "s1", func(s *models.Session) error {
		attempts++
		if attempts == 1 {
			// Another worker writes the same session between our read and write.
			other := s.Clone()
			other.Appointment.Service = "haircut"
			b, err := json.Marshal(other)
			require.NoError(t, err)
			require.NoError(t, client.Set(ctx, "session:s1", b, time.Hour).Err())
		}
		s.Appointment.CustomerName = "Kevin"
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 2, attempts)

	// The retry saw the concurrent write, so neither update is lost.
	require.Equal(t, "haircut", updated.Appointment.Service)
	require.Equal(t, "Kevin", updated.Appointment.CustomerName)
}

func TestRedisStoreEndKeepsSessionForAudit(t *testing.T) {
	store, mr, _ := newRedisStore(t)
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, models.NewSession("s1", "", "", time.Now())))

	ended, err := store.End(ctx, "s1")
	require.NoError(t, err)
	require.True(t, ended.Ended())
	require.Equal(t, 24*time.Hour, mr.TTL("session:s1"))

	mr.FastForward(2 * time.Hour)
	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	require.True(t, got.Ended())
}
