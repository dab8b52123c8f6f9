// Package repo implements the persistence layer for form submissions. This
// file provides the MongoDB-backed Store: one collection of submission
// documents sorted by time on read.
package repo

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/tbourn/go-form-collector/internal/domain"
)

// MongoStore persists submissions as documents in a single collection.
//
// BSON datetimes hold milliseconds, so Append truncates each record's time and
// bumps it past the previous append from this store. Times written by one
// process are therefore strictly increasing and sort unambiguously.
type MongoStore struct {
	coll *mongo.Collection

	mu   sync.Mutex
	last time.Time
}

// NewMongoStore binds a Store to the named collection.
func NewMongoStore(db *mongo.Database, collection string) *MongoStore {
	return &MongoStore{coll: db.Collection(collection)}
}

// ConnectMongo dials uri and verifies the primary is reachable within timeout.
// The URI is never defaulted.
func ConnectMongo(ctx context.Context, uri string, timeout time.Duration) (*mongo.Client, error) {
	if uri == "" {
		return nil, ErrMissingDSN
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	opts := options.Client().
		ApplyURI(uri).
		SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1))
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return client, nil
}

// EnsureIndexes creates the descending time index used by List.
func (m *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := m.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "time", Value: -1}},
		Options: options.Index().SetName("idx_submissions_time"),
	})
	return err
}

// Append inserts one document. s.Time is rewritten to the stored value.
func (m *MongoStore) Append(ctx context.Context, s *domain.Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := s.Time.UTC().Truncate(time.Millisecond)
	if !t.After(m.last) {
		t = m.last.Add(time.Millisecond)
	}
	s.Time = t

	if _, err := m.coll.InsertOne(ctx, s); err != nil {
		return err
	}
	m.last = t
	return nil
}

// List returns every document sorted by time descending (newest first).
func (m *MongoStore) List(ctx context.Context) ([]domain.Submission, error) {
	opts := options.Find().SetSort(bson.D{{Key: "time", Value: -1}})
	cursor, err := m.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := make([]domain.Submission, 0)
	for cursor.Next(ctx) {
		var doc domain.Submission
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		doc.Time = doc.Time.UTC()
		out = append(out, doc)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Stats returns the document count and the newest time.
func (m *MongoStore) Stats(ctx context.Context) (int64, *time.Time, error) {
	count, err := m.coll.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	opts := options.FindOne().
		SetSort(bson.D{{Key: "time", Value: -1}}).
		SetProjection(bson.D{{Key: "time", Value: 1}})
	var doc struct {
		Time time.Time `bson:"time"`
	}
	err = m.coll.FindOne(ctx, bson.D{}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, nil, nil
	}
	if err != nil {
		return 0, nil, err
	}
	latest := doc.Time.UTC()
	return count, &latest, nil
}
