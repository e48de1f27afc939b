package out

import (
	"context"

	"agent_server/core/domain"
)

// CatalogRepository is the persistent product catalog.
type CatalogRepository interface {
	// GetAll returns every catalog entry.
	GetAll(ctx context.Context) ([]domain.CatalogEntry, error)
	// GetStock returns the current stored stock for a product.
	GetStock(ctx context.Context, productID string) (int, error)
	// UpdateStock conditionally sets the stock of a product: the write only
	// happens if the stored stock still equals expected. Returns whether the
	// write was applied.
	UpdateStock(ctx context.Context, productID string, expected, newStock int) (bool, error)
	// SaveEmbedding persists a computed embedding for a catalog entry.
	SaveEmbedding(ctx context.Context, productID string, embedding []float32) error
}

// PromptRepository is the read-only prompt/template store.
type PromptRepository interface {
	Get(ctx context.Context, name string) (domain.PromptTemplate, error)
}
