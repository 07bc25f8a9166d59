package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anneth/shop/internal/domain"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoCartRepository struct {
	collection *mongo.Collection
}

func NewCartRepository(db *mongo.Database) *MongoCartRepository {
	return &MongoCartRepository{
		collection: db.Collection("carts"),
	}
}

func (m *MongoCartRepository) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	var cart domain.Cart

	filter := bson.M{"user_id": userID}
	err := m.collection.FindOne(ctx, filter).Decode(&cart)

	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	return &cart, nil
}

func (m *MongoCartRepository) ReplaceCart(ctx context.Context, cart *domain.Cart) error {
	now := time.Now().UTC()
	if cart.ID == "" {
		cart.ID = uuid.NewString()
	}

	filter := bson.M{"user_id": cart.UserID}
	update := bson.M{
		"$set": bson.M{
			"items":          cart.Items,
			"subtotal":       cart.Subtotal,
			"delivery_fee":   cart.DeliveryFee,
			"total_quantity": cart.TotalQuantity,
			"updated_at":     now,
		},
		"$setOnInsert": bson.M{
			"_id":        cart.ID,
			"created_at": now,
		},
		"$inc": bson.M{"version": 1},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var stored domain.Cart
	err := m.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&stored)
	if mongo.IsDuplicateKeyError(err) {
		// lost an upsert race on user_id; the document exists now, so update it
		err = m.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&stored)
	}
	if err != nil {
		return fmt.Errorf("failed to replace cart: %w", err)
	}

	*cart = stored
	return nil
}

func (m *MongoCartRepository) SaveCart(ctx context.Context, cart *domain.Cart) error {
	now := time.Now().UTC()

	if cart.Version == 0 {
		if cart.ID == "" {
			cart.ID = uuid.NewString()
		}
		cart.CreatedAt = now
		cart.UpdatedAt = now
		cart.Version = 1

		_, err := m.collection.InsertOne(ctx, cart)
		if err != nil {
			cart.Version = 0
			if mongo.IsDuplicateKeyError(err) {
				return domain.ErrCartConflict
			}
			return fmt.Errorf("failed to create cart: %w", err)
		}
		return nil
	}

	filter := bson.M{"user_id": cart.UserID, "version": cart.Version}
	update := bson.M{
		"$set": bson.M{
			"items":          cart.Items,
			"subtotal":       cart.Subtotal,
			"delivery_fee":   cart.DeliveryFee,
			"total_quantity": cart.TotalQuantity,
			"updated_at":     now,
			"version":        cart.Version + 1,
		},
	}

	result, err := m.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrCartConflict
	}

	cart.Version++
	cart.UpdatedAt = now
	return nil
}

func (m *MongoCartRepository) DeleteCart(ctx context.Context, userID string) error {
	filter := bson.M{"user_id": userID}

	result, err := m.collection.DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}

	if result.DeletedCount == 0 {
		return domain.ErrCartNotFound
	}

	return nil
}

func (m *MongoCartRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "updated_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(90 * 24 * 60 * 60), // 90 days TTL
		},
	}

	_, err := m.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create cart indexes: %w", err)
	}

	return nil
}
