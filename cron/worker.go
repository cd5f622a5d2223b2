package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	recordsRepo "receptionist/database/repository/records"
	"receptionist/models"
	"receptionist/services/session"
	"receptionist/services/tasks"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// ArchiveWorker copies ended call sessions into the call archive.
type ArchiveWorker struct {
	sessions session.Store
	records  recordsRepo.CallRecordRepository
	logger   *zap.Logger
}

func NewArchiveWorker(sessions session.Store, records recordsRepo.CallRecordRepository, logger *zap.Logger) *ArchiveWorker {
	return &ArchiveWorker{sessions: sessions, records: records, logger: logger}
}

// HandleArchiveTask is the asynq handler for tasks.TypeArchiveCall.
func (w *ArchiveWorker) HandleArchiveTask(ctx context.Context, task *asynq.Task) error {
	p, err := tasks.ParseArchivePayload(task)
	if err != nil {
		w.logger.Error("[ArchiveWorker] invalid payload", zap.Error(err))
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	sess, err := w.sessions.Get(ctx, p.SessionID)
	if errors.Is(err, session.ErrSessionNotFound) {
		// Expired before the worker got to it; nothing left to archive.
		w.logger.Warn("[ArchiveWorker] session gone before archival", zap.String("sessionID", p.SessionID))
		return nil
	}
	if err != nil {
		return fmt.Errorf("load session %s: %w", p.SessionID, err)
	}

	id, err := w.records.Save(ctx, models.NewCallRecord(sess))
	if err != nil {
		w.logger.Error("[ArchiveWorker] failed to save call record", zap.String("sessionID", p.SessionID), zap.Error(err))
		return err
	}
	w.logger.Info("[ArchiveWorker] call archived",
		zap.String("sessionID", p.SessionID),
		zap.String("recordID", id),
		zap.Bool("booked", sess.BookingConfirmed))
	return nil
}

// StartArchiveWorker runs the archive worker in the background and returns
// the server so the caller can shut it down.
func StartArchiveWorker(ctx context.Context, redisOpts asynq.RedisClientOpt, w *ArchiveWorker, logger *zap.Logger) *asynq.Server {
	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: 5,
			Queues: map[string]int{
				"default": 1,
			},
			Logger: logger.Sugar(),
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeArchiveCall, w.HandleArchiveTask)

	go monitorRedisConnection(ctx, redisOpts, logger)

	go func() {
		logger.Info("[ArchiveWorker] starting async worker")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			err := srv.Start(mux)
			if err == nil {
				return
			}
			logger.Error("[ArchiveWorker] failed to start worker",
				zap.Int("attempt", attempts), zap.Int("maxAttempts", maxAttempts), zap.Error(err))
			if attempts == maxAttempts {
				logger.Error("[ArchiveWorker] giving up; calls will not be archived")
				return
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Duration(attempts*2) * time.Second):
			}
		}
	}()
	return srv
}

// monitorRedisConnection pings the queue Redis periodically to surface outages.
func monitorRedisConnection(ctx context.Context, opts asynq.RedisClientOpt, logger *zap.Logger) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	defer client.Close()

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := client.Ping(ctx).Err(); err != nil {
				logger.Warn("[ArchiveWorker] queue Redis connection lost", zap.Error(err))
			}
		}
	}
}
