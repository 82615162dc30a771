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

	"github.com/sekharnc/multi-agent-sk/task"
)

// MongoTaskStore is a document-store implementation of TaskStore.
// Each task is one document; steps are embedded, so a task update is a
// single replace and the one-active-agent invariant never spans
// documents.
type MongoTaskStore struct {
	client *mongo.Client
	coll   *mongo.Collection
	config StoreConfig
}

// NewMongoTaskStore creates a new Mongo-backed task store and ensures
// the indexes used by ListTasks and GetRecoverableTasks.
func NewMongoTaskStore(config StoreConfig) (*MongoTaskStore, error) {
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

	coll := client.Database(config.Mongo.Database).Collection(config.Mongo.TaskCollection)

	_, err = coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "session_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "updated_at", Value: 1}}},
	})
	if err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("create task indexes: %w", err)
	}

	return &MongoTaskStore{
		client: client,
		coll:   coll,
		config: config,
	}, nil
}

// Close closes the store.
func (s *MongoTaskStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// Ping checks if the store is healthy.
func (s *MongoTaskStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// SaveTask persists a task to the store. Transient write failures are
// retried per the store's retry config.
func (s *MongoTaskStore) SaveTask(ctx context.Context, t *task.Task) error {
	if t == nil {
		return ErrInvalidInput
	}

	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	now := time.Now()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now

	return s.config.Retry.WithRetry(ctx, func() error {
		_, err := s.coll.ReplaceOne(ctx,
			bson.M{"_id": t.ID},
			t,
			options.Replace().SetUpsert(true),
		)
		if err != nil {
			return fmt.Errorf("save task %s: %w", t.ID, err)
		}
		return nil
	})
}

// GetTask retrieves a task by ID.
func (s *MongoTaskStore) GetTask(ctx context.Context, taskID string) (*task.Task, error) {
	var t task.Task
	err := s.coll.FindOne(ctx, bson.M{"_id": taskID}).Decode(&t)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get task %s: %w", taskID, err)
	}
	return &t, nil
}

// ListTasks retrieves tasks matching the filter criteria, newest first.
func (s *MongoTaskStore) ListTasks(ctx context.Context, filter TaskFilter) ([]*task.Task, error) {
	query := bson.M{}
	if filter.SessionID != "" {
		query["session_id"] = filter.SessionID
	}
	if filter.UserID != "" {
		query["user_id"] = filter.UserID
	}
	if filter.Agent != "" {
		query["agent"] = filter.Agent
	}
	if len(filter.Status) > 0 {
		query["status"] = bson.M{"$in": filter.Status}
	}
	if filter.CreatedAfter != nil || filter.CreatedBefore != nil {
		created := bson.M{}
		if filter.CreatedAfter != nil {
			created["$gt"] = *filter.CreatedAfter
		}
		if filter.CreatedBefore != nil {
			created["$lt"] = *filter.CreatedBefore
		}
		query["created_at"] = created
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if filter.Offset > 0 {
		opts.SetSkip(int64(filter.Offset))
	}
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}

	cur, err := s.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	var result []*task.Task
	if err := cur.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("decode tasks: %w", err)
	}
	if result == nil {
		result = []*task.Task{}
	}
	return result, nil
}

// DeleteTask removes a task from the store.
func (s *MongoTaskStore) DeleteTask(ctx context.Context, taskID string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": taskID})
	if err != nil {
		return fmt.Errorf("delete task %s: %w", taskID, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// GetRecoverableTasks retrieves pending and in-progress tasks, oldest
// first so recovery preserves submission order.
func (s *MongoTaskStore) GetRecoverableTasks(ctx context.Context) ([]*task.Task, error) {
	query := bson.M{"status": bson.M{"$in": []task.Status{task.StatusPending, task.StatusInProgress}}}
	cur, err := s.coll.Find(ctx, query, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list recoverable tasks: %w", err)
	}

	var result []*task.Task
	if err := cur.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("decode recoverable tasks: %w", err)
	}
	return result, nil
}

// Cleanup removes terminal tasks older than the specified duration.
func (s *MongoTaskStore) Cleanup(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := time.Now().Add(-olderThan)
	res, err := s.coll.DeleteMany(ctx, bson.M{
		"status":     bson.M{"$in": []task.Status{task.StatusCompleted, task.StatusFailed, task.StatusCancelled}},
		"updated_at": bson.M{"$lt": cutoff},
	})
	if err != nil {
		return 0, fmt.Errorf("cleanup tasks: %w", err)
	}
	return int(res.DeletedCount), nil
}

// Stats returns statistics about the task store.
func (s *MongoTaskStore) Stats(ctx context.Context) (*TaskStoreStats, error) {
	stats := &TaskStoreStats{
		StatusCounts: make(map[task.Status]int64),
		AgentCounts:  make(map[string]int64),
	}

	total, err := s.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("count tasks: %w", err)
	}
	stats.TotalTasks = total

	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: bson.D{
				{Key: "status", Value: "$status"},
				{Key: "agent", Value: "$agent"},
			}},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}
	cur, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate task stats: %w", err)
	}

	var groups []struct {
		ID struct {
			Status string `bson:"status"`
			Agent  string `bson:"agent"`
		} `bson:"_id"`
		Count int64 `bson:"count"`
	}
	if err := cur.All(ctx, &groups); err != nil {
		return nil, fmt.Errorf("decode task stats: %w", err)
	}

	for _, g := range groups {
		stats.StatusCounts[task.Status(g.ID.Status)] += g.Count
		stats.AgentCounts[g.ID.Agent] += g.Count
	}
	return stats, nil
}
