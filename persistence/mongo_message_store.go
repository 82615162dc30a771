package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

// MongoMessageStore is a document-store implementation of MessageStore.
// The cursor returned by ListBySession is the ID of the last message in
// the page; pagination is keyed on (created_at, _id).
type MongoMessageStore struct {
	client *mongo.Client
	coll   *mongo.Collection
	config StoreConfig
}

// NewMongoMessageStore creates a new Mongo-backed message store.
func NewMongoMessageStore(config StoreConfig) (*MongoMessageStore, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(config.Mongo.URI))
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	coll := client.Database(config.Mongo.Database).Collection(config.Mongo.MessageCollection)

	_, err = coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "session_id", Value: 1}, {Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}},
		{Keys: bson.D{{Key: "task_id", Value: 1}, {Key: "created_at", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: 1}}},
	})
	if err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("create message indexes: %w", err)
	}

	return &MongoMessageStore{
		client: client,
		coll:   coll,
		config: config,
	}, nil
}

// Close closes the store.
func (s *MongoMessageStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// Ping checks if the store is healthy.
func (s *MongoMessageStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// SaveMessage persists a single message. Transient write failures are
// retried per the store's retry config.
func (s *MongoMessageStore) SaveMessage(ctx context.Context, msg *MessageRecord) error {
	if msg == nil {
		return ErrInvalidInput
	}

	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}

	return s.config.Retry.WithRetry(ctx, func() error {
		_, err := s.coll.ReplaceOne(ctx,
			bson.M{"_id": msg.ID},
			msg,
			options.Replace().SetUpsert(true),
		)
		if err != nil {
			return fmt.Errorf("save message %s: %w", msg.ID, err)
		}
		return nil
	})
}

// SaveMessages persists multiple messages.
func (s *MongoMessageStore) SaveMessages(ctx context.Context, msgs []*MessageRecord) error {
	if len(msgs) == 0 {
		return nil
	}

	now := time.Now()
	docs := make([]interface{}, 0, len(msgs))
	for _, msg := range msgs {
		if msg == nil {
			return ErrInvalidInput
		}
		if msg.ID == "" {
			msg.ID = uuid.New().String()
		}
		if msg.CreatedAt.IsZero() {
			msg.CreatedAt = now
		}
		docs = append(docs, msg)
	}

	return s.config.Retry.WithRetry(ctx, func() error {
		_, err := s.coll.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
		if err != nil && !mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("save messages: %w", err)
		}
		return nil
	})
}

// GetMessage retrieves a message by ID.
func (s *MongoMessageStore) GetMessage(ctx context.Context, msgID string) (*MessageRecord, error) {
	var msg MessageRecord
	err := s.coll.FindOne(ctx, bson.M{"_id": msgID}).Decode(&msg)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get message %s: %w", msgID, err)
	}
	return &msg, nil
}

// ListBySession retrieves session messages in chronological order with
// cursor pagination.
func (s *MongoMessageStore) ListBySession(ctx context.Context, sessionID string, cursor string, limit int) ([]*MessageRecord, string, error) {
	query := bson.M{"session_id": sessionID}

	if cursor != "" {
		var last MessageRecord
		err := s.coll.FindOne(ctx, bson.M{"_id": cursor}).Decode(&last)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, "", ErrInvalidInput
		}
		if err != nil {
			return nil, "", fmt.Errorf("resolve cursor %s: %w", cursor, err)
		}
		query["$or"] = bson.A{
			bson.M{"created_at": bson.M{"$gt": last.CreatedAt}},
			bson.M{"created_at": last.CreatedAt, "_id": bson.M{"$gt": last.ID}},
		}
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	if limit > 0 {
		// Fetch one extra row to detect whether more pages remain.
		opts.SetLimit(int64(limit + 1))
	}

	cur, err := s.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, "", fmt.Errorf("list session messages: %w", err)
	}

	var result []*MessageRecord
	if err := cur.All(ctx, &result); err != nil {
		return nil, "", fmt.Errorf("decode session messages: %w", err)
	}

	next := ""
	if limit > 0 && len(result) > limit {
		result = result[:limit]
		next = result[limit-1].ID
	}
	if result == nil {
		result = []*MessageRecord{}
	}
	return result, next, nil
}

// ListRecentBySession retrieves the newest limit session messages in
// chronological order.
func (s *MongoMessageStore) ListRecentBySession(ctx context.Context, sessionID string, limit int) ([]*MessageRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cur, err := s.coll.Find(ctx, bson.M{"session_id": sessionID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list recent session messages: %w", err)
	}

	var result []*MessageRecord
	if err := cur.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("decode recent session messages: %w", err)
	}
	// Query order is newest first; flip back to chronological.
	for i, j := 0, len(result)-1; i < j; i, j = i+1, j-1 {
		result[i], result[j] = result[j], result[i]
	}
	if result == nil {
		result = []*MessageRecord{}
	}
	return result, nil
}

// ListByTask retrieves all messages attached to a task.
func (s *MongoMessageStore) ListByTask(ctx context.Context, taskID string) ([]*MessageRecord, error) {
	cur, err := s.coll.Find(ctx,
		bson.M{"task_id": taskID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("list task messages: %w", err)
	}

	var result []*MessageRecord
	if err := cur.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("decode task messages: %w", err)
	}
	if result == nil {
		result = []*MessageRecord{}
	}
	return result, nil
}

// Cleanup removes messages older than the specified duration.
func (s *MongoMessageStore) Cleanup(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := time.Now().Add(-olderThan)
	res, err := s.coll.DeleteMany(ctx, bson.M{"created_at": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, fmt.Errorf("cleanup messages: %w", err)
	}
	return int(res.DeletedCount), nil
}

// Stats returns statistics about the message store.
func (s *MongoMessageStore) Stats(ctx context.Context) (*MessageStoreStats, error) {
	stats := &MessageStoreStats{
		SessionCounts: make(map[string]int64),
		SenderCounts:  make(map[string]int64),
	}

	total, err := s.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("count messages: %w", err)
	}
	stats.TotalMessages = total

	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: bson.D{
				{Key: "session", Value: "$session_id"},
				{Key: "sender", Value: "$sender"},
			}},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}
	cur, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate message stats: %w", err)
	}

	var groups []struct {
		ID struct {
			Session string `bson:"session"`
			Sender  string `bson:"sender"`
		} `bson:"_id"`
		Count int64 `bson:"count"`
	}
	if err := cur.All(ctx, &groups); err != nil {
		return nil, fmt.Errorf("decode message stats: %w", err)
	}

	for _, g := range groups {
		stats.SessionCounts[g.ID.Session] += g.Count
		stats.SenderCounts[g.ID.Sender] += g.Count
	}
	return stats, nil
}
