package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/retisha256/ecommerce/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type orderDocument struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	domain.Order `bson:",inline"`
}

func (d orderDocument) toDomain() *domain.Order {
	o := d.Order
	o.ID = d.ID.Hex()
	return &o
}

type MongoOrderRepository struct {
	collection *mongo.Collection
}

func NewOrderRepository(db *mongo.Database) *MongoOrderRepository {
	return &MongoOrderRepository{
		collection: db.Collection("orders"),
	}
}

func (m *MongoOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	now := time.Now().UTC()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = now
	order.Customer.Email = strings.ToLower(strings.TrimSpace(order.Customer.Email))

	res, err := m.collection.InsertOne(ctx, orderDocument{Order: *order})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateOrder
		}
		return fmt.Errorf("failed to create order: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		order.ID = oid.Hex()
	}
	return nil
}

// GetByOrderID looks the order up by its public reference, falling back to
// the database id.
func (m *MongoOrderRepository) GetByOrderID(ctx context.Context, orderID string) (*domain.Order, error) {
	filter := bson.M{"orderId": orderID}
	if oid, err := primitive.ObjectIDFromHex(orderID); err == nil {
		filter = bson.M{"$or": bson.A{bson.M{"orderId": orderID}, bson.M{"_id": oid}}}
	}

	var doc orderDocument
	if err := m.collection.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return doc.toDomain(), nil
}

func (m *MongoOrderRepository) UpdateStatus(ctx context.Context, current *domain.Order, change StatusChange) (*domain.Order, error) {
	filter := bson.M{
		"orderId":       current.OrderID,
		"orderStatus":   current.OrderStatus,
		"paymentStatus": current.PaymentStatus,
	}

	set := bson.M{
		"orderStatus":   change.OrderStatus,
		"paymentStatus": change.PaymentStatus,
		"updatedAt":     time.Now().UTC(),
	}
	if change.PaymentReference != "" {
		set["paymentReference"] = change.PaymentReference
	}
	if change.Notes != "" {
		set["notes"] = change.Notes
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc orderDocument
	err := m.collection.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrStatusConflict
		}
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}
	return doc.toDomain(), nil
}

func (m *MongoOrderRepository) ListByEmail(ctx context.Context, email string) ([]*domain.Order, error) {
	filter := bson.M{"customer.email": strings.ToLower(strings.TrimSpace(email))}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := m.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []orderDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode orders: %w", err)
	}

	orders := make([]*domain.Order, 0, len(docs))
	for _, doc := range docs {
		orders = append(orders, doc.toDomain())
	}
	return orders, nil
}

func (m *MongoOrderRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "orderId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "customer.email", Value: 1}, {Key: "createdAt", Value: -1}}},
	}

	_, err := m.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create order indexes: %w", err)
	}
	return nil
}
