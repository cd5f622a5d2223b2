package recordsRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"receptionist/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Save upserts the record for its session and returns the record ID.
// Archiving the same call twice leaves a single document.
func (r *mongoRecordRepo) Save(ctx context.Context, record models.CallRecord) (string, error) {
	if record.SessionID == "" {
		return "", errors.New("call record has no session id")
	}
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	record.CreatedAt = time.Now()

	_, err := r.coll.ReplaceOne(ctx,
		bson.M{"sessionId": record.SessionID},
		record,
		options.Replace().SetUpsert(true))
	if err != nil {
		return "", fmt.Errorf("save call record %s: %w", record.SessionID, err)
	}
	return record.ID, nil
}

// GetBySessionID returns the archived record of one call.
func (r *mongoRecordRepo) GetBySessionID(ctx context.Context, sessionID string) (*models.CallRecord, error) {
	var record models.CallRecord
	err := r.coll.FindOne(ctx, bson.M{"sessionId": sessionID}).Decode(&record)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// List returns the most recently ended calls first.
func (r *mongoRecordRepo) List(ctx context.Context, limit int64) ([]models.CallRecord, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	opts := options.Find().SetSort(bson.D{{Key: "endedAt", Value: -1}}).SetLimit(limit)
	cursor, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	records := []models.CallRecord{}
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}
