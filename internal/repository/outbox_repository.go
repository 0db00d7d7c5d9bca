package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/retisha256/ecommerce/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Payload is kept as a string so it stays readable in the collection.
type outboxDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	AggregateID string             `bson:"aggregateId"`
	EventType   domain.EventType   `bson:"eventType"`
	Payload     string             `bson:"payload"`
	Processed   bool               `bson:"processed"`
	CreatedAt   time.Time          `bson:"createdAt"`
	ProcessedAt *time.Time         `bson:"processedAt,omitempty"`
}

type MongoOutboxRepository struct {
	collection *mongo.Collection
}

func NewOutboxRepository(db *mongo.Database) *MongoOutboxRepository {
	return &MongoOutboxRepository{
		collection: db.Collection("outbox"),
	}
}

func (m *MongoOutboxRepository) Add(ctx context.Context, event *domain.OutboxEvent) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	doc := outboxDocument{
		AggregateID: event.AggregateID,
		EventType:   event.EventType,
		Payload:     string(event.Payload),
		CreatedAt:   event.CreatedAt,
	}

	res, err := m.collection.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("failed to add outbox event: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		event.ID = oid.Hex()
	}
	return nil
}

// GetUnprocessedEvents returns the oldest unpublished events first.
func (m *MongoOutboxRepository) GetUnprocessedEvents(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}).
		SetLimit(int64(limit))

	cursor, err := m.collection.Find(ctx, bson.M{"processed": false}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch outbox events: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []outboxDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode outbox events: %w", err)
	}

	events := make([]*domain.OutboxEvent, 0, len(docs))
	for _, doc := range docs {
		events = append(events, &domain.OutboxEvent{
			ID:          doc.ID.Hex(),
			AggregateID: doc.AggregateID,
			EventType:   doc.EventType,
			Payload:     []byte(doc.Payload),
			Processed:   doc.Processed,
			CreatedAt:   doc.CreatedAt,
		})
	}
	return events, nil
}

func (m *MongoOutboxRepository) MarkEventAsProcessed(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrEventNotFound
	}

	now := time.Now().UTC()
	result, err := m.collection.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{"processed": true, "processedAt": now}},
	)
	if err != nil {
		return fmt.Errorf("failed to mark event as processed: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrEventNotFound
	}
	return nil
}

func (m *MongoOutboxRepository) CreateIndexes(ctx context.Context) error {
	_, err := m.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "processed", Value: 1}, {Key: "createdAt", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create outbox indexes: %w", err)
	}
	return nil
}
