package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/IshaanNene/EcoCheck/internal/types"
)

// mongoEntry is the document shape: the key is the _id.
type mongoEntry struct {
	Key   string `bson:"_id"`
	Value string `bson:"value"`
}

// MongoKV stores each key as one document in a MongoDB collection.
type MongoKV struct {
	client     *mongo.Client
	collection *mongo.Collection
	logger     *slog.Logger
}

// NewMongoKV creates a new MongoDB backend.
func NewMongoKV(uri, database, collection string, logger *slog.Logger) (*MongoKV, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, &types.StorageError{Backend: "mongodb", Op: "connect", Err: fmt.Errorf("mongodb connect: %w", err)}
	}

	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, &types.StorageError{Backend: "mongodb", Op: "connect", Err: fmt.Errorf("mongodb ping: %w", err)}
	}

	return &MongoKV{
		client:     client,
		collection: client.Database(database).Collection(collection),
		logger:     logger.With("component", "mongo_storage"),
	}, nil
}

func (s *MongoKV) Name() string { return "mongodb" }

func (s *MongoKV) Get(ctx context.Context, key string) ([]byte, error) {
	var entry mongoEntry
	err := s.collection.FindOne(ctx, bson.M{"_id": key}).Decode(&entry)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, &types.StorageError{Backend: "mongodb", Op: "get", Err: err}
	}
	return []byte(entry.Value), nil
}

func (s *MongoKV) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.collection.ReplaceOne(ctx,
		bson.M{"_id": key},
		mongoEntry{Key: key, Value: string(value)},
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return &types.StorageError{Backend: "mongodb", Op: "set", Err: err}
	}
	return nil
}

func (s *MongoKV) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if _, err := s.collection.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": keys}}); err != nil {
		return &types.StorageError{Backend: "mongodb", Op: "delete", Err: err}
	}
	return nil
}

func (s *MongoKV) Keys(ctx context.Context) ([]string, error) {
	cur, err := s.collection.Find(ctx, bson.M{}, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, &types.StorageError{Backend: "mongodb", Op: "keys", Err: err}
	}
	defer cur.Close(ctx)

	var keys []string
	for cur.Next(ctx) {
		var entry mongoEntry
		if err := cur.Decode(&entry); err != nil {
			return nil, &types.StorageError{Backend: "mongodb", Op: "keys", Err: err}
		}
		keys = append(keys, entry.Key)
	}
	if err := cur.Err(); err != nil {
		return nil, &types.StorageError{Backend: "mongodb", Op: "keys", Err: err}
	}
	return keys, nil
}

func (s *MongoKV) Close() error {
	s.logger.Info("mongodb storage closing")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
