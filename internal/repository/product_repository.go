package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anneth/shop/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoProductRepository struct {
	collection *mongo.Collection
}

func NewProductRepository(db *mongo.Database) *MongoProductRepository {
	return &MongoProductRepository{
		collection: db.Collection("products"),
	}
}

func (m *MongoProductRepository) FindProduct(ctx context.Context, productID string) (*domain.Product, error) {
	var product domain.Product

	err := m.collection.FindOne(ctx, bson.M{"_id": productID}).Decode(&product)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	return &product, nil
}

// DecrementVariant moves quantity from available to sold in a single conditional
// update. The filter only matches while the variant still has enough stock, so
// concurrent callers can never drive quantity_available below zero.
func (m *MongoProductRepository) DecrementVariant(ctx context.Context, productID, variantID string, quantity int) error {
	filter := bson.M{
		"_id": productID,
		"variants": bson.M{"$elemMatch": bson.M{
			"variant_id":         variantID,
			"quantity_available": bson.M{"$gte": quantity},
		}},
	}
	update := bson.M{
		"$inc": bson.M{
			"variants.$.quantity_available": -quantity,
			"variants.$.quantity_sold":      quantity,
			"sold":                          quantity,
		},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	}

	result, err := m.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to decrement stock: %w", err)
	}
	if result.MatchedCount == 1 {
		return nil
	}

	return m.explainMiss(ctx, productID, variantID)
}

func (m *MongoProductRepository) RestoreVariant(ctx context.Context, productID, variantID string, quantity int) error {
	filter := bson.M{"_id": productID, "variants.variant_id": variantID}
	update := bson.M{
		"$inc": bson.M{
			"variants.$.quantity_available": quantity,
			"variants.$.quantity_sold":      -quantity,
			"sold":                          -quantity,
		},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	}

	result, err := m.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to restore stock: %w", err)
	}
	if result.MatchedCount == 0 {
		return m.explainMiss(ctx, productID, variantID)
	}
	return nil
}

// explainMiss tells apart the reasons a conditional stock update matched nothing.
func (m *MongoProductRepository) explainMiss(ctx context.Context, productID, variantID string) error {
	product, err := m.FindProduct(ctx, productID)
	if err != nil {
		return err
	}
	if _, ok := product.Variant(variantID); !ok {
		return domain.ErrVariantNotFound
	}
	return domain.ErrOutOfStock
}

func (m *MongoProductRepository) InsertProducts(ctx context.Context, products []domain.Product) error {
	if len(products) == 0 {
		return nil
	}

	now := time.Now().UTC()
	docs := make([]interface{}, len(products))
	for i := range products {
		if products[i].CreatedAt.IsZero() {
			products[i].CreatedAt = now
		}
		products[i].UpdatedAt = now
		docs[i] = products[i]
	}

	if _, err := m.collection.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to insert products: %w", err)
	}
	return nil
}

func (m *MongoProductRepository) DeleteAllProducts(ctx context.Context) (int64, error) {
	result, err := m.collection.DeleteMany(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to delete products: %w", err)
	}
	return result.DeletedCount, nil
}

func (m *MongoProductRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "variants.variant_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
	}

	if _, err := m.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create product indexes: %w", err)
	}
	return nil
}
