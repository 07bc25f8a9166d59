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

type MongoAddressRepository struct {
	collection *mongo.Collection
}

func NewAddressRepository(db *mongo.Database) *MongoAddressRepository {
	return &MongoAddressRepository{
		collection: db.Collection("addresses"),
	}
}

func (m *MongoAddressRepository) CreateAddress(ctx context.Context, address *domain.Address) error {
	if address.ID == "" {
		address.ID = uuid.NewString()
	}
	if address.CreatedAt.IsZero() {
		address.CreatedAt = time.Now().UTC()
	}

	if _, err := m.collection.InsertOne(ctx, address); err != nil {
		return fmt.Errorf("failed to insert address: %w", err)
	}
	return nil
}

// LatestAddress returns the most recently created address of the user.
func (m *MongoAddressRepository) LatestAddress(ctx context.Context, userID string) (*domain.Address, error) {
	var address domain.Address

	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})
	err := m.collection.FindOne(ctx, bson.M{"user_id": userID}, opts).Decode(&address)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrAddressNotFound
		}
		return nil, fmt.Errorf("failed to get address: %w", err)
	}
	return &address, nil
}

func (m *MongoAddressRepository) ListAddresses(ctx context.Context, userID string) ([]domain.Address, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := m.collection.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list addresses: %w", err)
	}

	addresses := []domain.Address{}
	if err := cursor.All(ctx, &addresses); err != nil {
		return nil, fmt.Errorf("failed to decode addresses: %w", err)
	}
	return addresses, nil
}

func (m *MongoAddressRepository) DeleteAddress(ctx context.Context, userID, addressID string) error {
	result, err := m.collection.DeleteOne(ctx, bson.M{"_id": addressID, "user_id": userID})
	if err != nil {
		return fmt.Errorf("failed to delete address: %w", err)
	}
	if result.DeletedCount == 0 {
		return domain.ErrAddressNotFound
	}
	return nil
}

func (m *MongoAddressRepository) CreateIndexes(ctx context.Context) error {
	_, err := m.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create address indexes: %w", err)
	}
	return nil
}
