package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"agent_server/core/domain"
)

const defaultCatalogCollection = "products"

// CatalogAdapter implements out.CatalogRepository using MongoDB.
type CatalogAdapter struct {
	collection *mongo.Collection
}

// NewCatalogAdapter creates a catalog adapter over the given database. An
// empty collection name uses the default.
func NewCatalogAdapter(db *mongo.Database, collection string) *CatalogAdapter {
	if collection == "" {
		collection = defaultCatalogCollection
	}
	return &CatalogAdapter{collection: db.Collection(collection)}
}

// EnsureIndexes creates necessary indexes for the collection.
func (a *CatalogAdapter) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "product_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "name", Value: 1}},
		},
	}
	_, err := a.collection.Indexes().CreateMany(ctx, indexes)
	return err
}

// GetAll returns every catalog entry.
func (a *CatalogAdapter) GetAll(ctx context.Context) ([]domain.CatalogEntry, error) {
	cursor, err := a.collection.Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []domain.CatalogEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	return entries, nil
}

// GetStock returns the current stored stock for a product.
func (a *CatalogAdapter) GetStock(ctx context.Context, productID string) (int, error) {
	var doc struct {
		Stock int `bson:"stock"`
	}
	err := a.collection.FindOne(ctx,
		bson.D{{Key: "product_id", Value: productID}},
		options.FindOne().SetProjection(bson.D{{Key: "stock", Value: 1}}),
	).Decode(&doc)
	if err != nil {
		return 0, fmt.Errorf("get stock %s: %w", productID, err)
	}
	return doc.Stock, nil
}

// UpdateStock conditionally sets a product's stock. The filter matches on the
// expected stock value, so the write is lost (applied=false) if anything
// changed it since the caller's read.
func (a *CatalogAdapter) UpdateStock(ctx context.Context, productID string, expected, newStock int) (bool, error) {
	result, err := a.collection.UpdateOne(ctx,
		bson.D{
			{Key: "product_id", Value: productID},
			{Key: "stock", Value: expected},
		},
		bson.D{{Key: "$set", Value: bson.D{{Key: "stock", Value: newStock}}}},
	)
	if err != nil {
		return false, fmt.Errorf("update stock %s: %w", productID, err)
	}
	return result.ModifiedCount > 0, nil
}

// SaveEmbedding persists a computed embedding for a catalog entry.
func (a *CatalogAdapter) SaveEmbedding(ctx context.Context, productID string, embedding []float32) error {
	_, err := a.collection.UpdateOne(ctx,
		bson.D{{Key: "product_id", Value: productID}},
		bson.D{{Key: "$set", Value: bson.D{{Key: "embedding", Value: embedding}}}},
	)
	if err != nil {
		return fmt.Errorf("save embedding %s: %w", productID, err)
	}
	return nil
}
