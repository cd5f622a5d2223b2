package recordsRepo

import (
	"context"
	"errors"

	"receptionist/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	collectionName = "call_records"

	DefaultListLimit = 50
	MaxListLimit     = 200
)

var ErrRecordNotFound = errors.New("call record not found")

// CallRecordRepository stores archived calls.
type CallRecordRepository interface {
	Save(ctx context.Context, record models.CallRecord) (string, error)
	GetBySessionID(ctx context.Context, sessionID string) (*models.CallRecord, error)
	List(ctx context.Context, limit int64) ([]models.CallRecord, error)
}

type mongoRecordRepo struct {
	coll *mongo.Collection
}

// NewMongoCallRecordRepo returns a CallRecordRepository backed by db.call_records.
func NewMongoCallRecordRepo(db *mongo.Database) CallRecordRepository {
	return &mongoRecordRepo{coll: db.Collection(collectionName)}
}

// EnsureIndexes makes archival idempotent per session and keeps listing by
// end time cheap.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(collectionName).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "sessionId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "endedAt", Value: -1}}},
	})
	return err
}
