package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	recordsRepo "receptionist/database/repository/records"
	"receptionist/models"
	"receptionist/services/session"
	"receptionist/services/tasks"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRecords struct {
	saved []models.CallRecord
	err   error
}

func (f *fakeRecords) Save(_ context.Context, rec models.CallRecord) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.saved = append(f.saved, rec)
	return "rec-1", nil
}

func (f *fakeRecords) GetBySessionID(context.Context, string) (*models.CallRecord, error) {
	return nil, recordsRepo.ErrRecordNotFound
}

func (f *fakeRecords) List(context.Context, int64) ([]models.CallRecord, error) {
	return f.saved, nil
}

func archiveTask(t *testing.T, id string) *asynq.Task {
	t.Helper()
	task, _, err := tasks.NewArchiveTask(id)
	require.NoError(t, err)
	return task
}

func TestHandleArchiveTaskSavesEndedSession(t *testing.T) {
	ctx := context.Background()
	store := session.NewMemoryStore(time.Hour, 24*time.Hour, zap.NewNop())
	now := time.Now()
	sess := models.NewSession("session_CA1", "CA1", "+96170123456", now)
	sess.AddTurn(models.RoleUser, "I'd like a haircut", now)
	sess.Appointment = models.AppointmentDetails{CustomerName: "Kevin", Service: "haircut"}
	sess.SetExtracted(models.ExtractedLanguage, "en")
	require.NoError(t, store.Create(ctx, sess))
	_, err := store.End(ctx, "session_CA1")
	require.NoError(t, err)

	records := &fakeRecords{}
	w := NewArchiveWorker(store, records, zap.NewNop())
	require.NoError(t, w.HandleArchiveTask(ctx, archiveTask(t, "session_CA1")))

	require.Len(t, records.saved, 1)
	rec := records.saved[0]
	require.Equal(t, "session_CA1", rec.SessionID)
	require.Equal(t, "CA1", rec.CallSID)
	require.Equal(t, "Kevin", rec.Appointment.CustomerName)
	require.Equal(t, "en", rec.Language)
	require.Len(t, rec.Transcript, 1)
	require.False(t, rec.EndedAt.IsZero())
}

func TestHandleArchiveTaskMissingSession(t *testing.T) {
	store := session.NewMemoryStore(time.Hour, 24*time.Hour, zap.NewNop())
	records := &fakeRecords{}
	w := NewArchiveWorker(store, records, zap.NewNop())

	require.NoError(t, w.HandleArchiveTask(context.Background(), archiveTask(t, "gone")))
	require.Empty(t, records.saved)
}

func TestHandleArchiveTaskBadPayloadSkipsRetry(t *testing.T) {
	w := NewArchiveWorker(session.NewMemoryStore(time.Hour, 24*time.Hour, zap.NewNop()), &fakeRecords{}, zap.NewNop())

	err := w.HandleArchiveTask(context.Background(), asynq.NewTask(tasks.TypeArchiveCall, []byte("{")))
	require.ErrorIs(t, err, asynq.SkipRetry)
}

func TestHandleArchiveTaskSaveFailureRetries(t *testing.T) {
	ctx := context.Background()
	store := session.NewMemoryStore(time.Hour, 24*time.Hour, zap.NewNop())
	require.NoError(t, store.Create(ctx, models.NewSession("s1", "", "", time.Now())))

	boom := errors.New("mongo down")
	w := NewArchiveWorker(store, &fakeRecords{err: boom}, zap.NewNop())
	err := w.HandleArchiveTask(ctx, archiveTask(t, "s1"))
	require.ErrorIs(t, err, boom)
	require.NotErrorIs(t, err, asynq.SkipRetry)
}
