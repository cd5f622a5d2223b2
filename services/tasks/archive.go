package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"receptionist/models"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const TypeArchiveCall = "call:archive"

// archiveDelay leaves room for the status callback to land after the
// conversation itself has ended.
const archiveDelay = 5 * time.Second

// NewArchiveTask builds the archival task for a session. The task ID is
// derived from the session so a call is only queued once.
func NewArchiveTask(sessionID string) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(models.ArchivePayload{SessionID: sessionID})
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeArchiveCall, b)
	opts := []asynq.Option{
		asynq.TaskID("archive:" + sessionID),
		asynq.MaxRetry(5),
		asynq.ProcessIn(archiveDelay),
	}
	return task, opts, nil
}

// ParseArchivePayload decodes a task built by NewArchiveTask.
func ParseArchivePayload(task *asynq.Task) (models.ArchivePayload, error) {
	var p models.ArchivePayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		return p, fmt.Errorf("decode archive payload: %w", err)
	}
	if p.SessionID == "" {
		return p, errors.New("archive payload has no session id")
	}
	return p, nil
}

type enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// ArchiveQueue hands ended calls to the archive worker.
type ArchiveQueue struct {
	client enqueuer
	logger *zap.Logger
}

func NewArchiveQueue(client *asynq.Client, logger *zap.Logger) *ArchiveQueue {
	return &ArchiveQueue{client: client, logger: logger}
}

// EnqueueArchive queues sessionID for archival. A call that is already queued
// is not an error.
func (q *ArchiveQueue) EnqueueArchive(ctx context.Context, sessionID string) error {
	task, opts, err := NewArchiveTask(sessionID)
	if err != nil {
		return err
	}
	info, err := q.client.EnqueueContext(ctx, task, opts...)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		q.logger.Debug("archive already queued", zap.String("sessionID", sessionID))
		return nil
	}
	if err != nil {
		return fmt.Errorf("enqueue archive for %s: %w", sessionID, err)
	}
	q.logger.Info("call archive queued", zap.String("sessionID", sessionID), zap.String("taskID", info.ID))
	return nil
}
