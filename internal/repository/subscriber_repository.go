package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/retisha256/ecommerce/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoSubscriberRepository struct {
	collection *mongo.Collection
}

func NewSubscriberRepository(db *mongo.Database) *MongoSubscriberRepository {
	return &MongoSubscriberRepository{
		collection: db.Collection("subscribers"),
	}
}

func (m *MongoSubscriberRepository) Create(ctx context.Context, s *domain.Subscriber) error {
	s.Email = strings.ToLower(strings.TrimSpace(s.Email))
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}

	if _, err := m.collection.InsertOne(ctx, s); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateSubscriber
		}
		return fmt.Errorf("failed to create subscriber: %w", err)
	}
	return nil
}

func (m *MongoSubscriberRepository) CreateIndexes(ctx context.Context) error {
	_, err := m.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create subscriber indexes: %w", err)
	}
	return nil
}
