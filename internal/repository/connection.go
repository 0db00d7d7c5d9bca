package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func ConnectMongoDB(ctx context.Context, uri, database string) (*mongo.Database, error) {
	clientOpts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxPoolSize(100).
		SetMinPoolSize(10)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return client.Database(database), nil
}

// CreateIndexes prepares every collection the storefront uses.
func CreateIndexes(ctx context.Context, db *mongo.Database) error {
	if err := NewProductRepository(db).CreateIndexes(ctx); err != nil {
		return err
	}
	if err := NewOrderRepository(db).CreateIndexes(ctx); err != nil {
		return err
	}
	if err := NewSubscriberRepository(db).CreateIndexes(ctx); err != nil {
		return err
	}
	return NewOutboxRepository(db).CreateIndexes(ctx)
}
