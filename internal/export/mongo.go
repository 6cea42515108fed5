package export

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/IshaanNene/NewsGoat/internal/types"
)

// Mongo writes articles to a MongoDB collection keyed by article id.
type Mongo struct {
	client     *mongo.Client
	collection *mongo.Collection
	mu         sync.Mutex
	count      int
	logger     *slog.Logger
}

// NewMongo connects to MongoDB and ensures a unique index on url.
func NewMongo(ctx context.Context, uri, database, collection string, logger *slog.Logger) (*Mongo, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, &types.StorageError{Backend: "mongodb", Op: "connect", Err: err}
	}

	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, &types.StorageError{Backend: "mongodb", Op: "ping", Err: err}
	}

	coll := client.Database(database).Collection(collection)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "url", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		client.Disconnect(context.Background())
		return nil, &types.StorageError{Backend: "mongodb", Op: "create index", Err: err}
	}

	return &Mongo{
		client:     client,
		collection: coll,
		logger:     logger.With("component", "mongo_export"),
	}, nil
}

func (e *Mongo) Name() string { return "mongodb" }

// Export inserts articles unordered. Articles already present are skipped.
func (e *Mongo) Export(ctx context.Context, articles []*types.Article) error {
	if len(articles) == 0 {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	docs := make([]any, len(articles))
	for i, a := range articles {
		docs[i] = a
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	res, err := e.collection.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	inserted := 0
	if res != nil {
		inserted = len(res.InsertedIDs)
	}
	if err != nil && !mongo.IsDuplicateKeyError(err) {
		return &types.StorageError{Backend: "mongodb", Op: "insert", Err: fmt.Errorf("%d of %d inserted: %w", inserted, len(docs), err)}
	}

	e.count += inserted
	e.logger.Debug("articles exported", "count", inserted, "total", e.count)
	return nil
}

func (e *Mongo) Close() error {
	e.logger.Info("mongodb export closing", "total_articles", e.count)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return e.client.Disconnect(ctx)
}
