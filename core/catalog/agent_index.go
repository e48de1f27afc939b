// Package catalog maintains the in-memory view of the product catalog shared
// by product resolution, inventory allocation and recommendations.
package catalog

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"agent_server/core/domain"
	"agent_server/core/port/out"
	"agent_server/pkg/logger"
)

// allocateRetries bounds how often an allocation re-derives its fill after
// losing the conditional stock write to a concurrent writer.
const allocateRetries = 3

// Index is a periodically refreshed snapshot of the catalog. Stock is the
// only shared mutable field; every mutation goes through Allocate, which
// serializes on the index mutex and writes through to the repository with a
// compare-and-set on the previously read stock value.
type Index struct {
	repo     out.CatalogRepository
	embedder out.EmbeddingPort

	mu      sync.RWMutex
	entries map[string]*domain.CatalogEntry
	order   []string
}

// NewIndex creates an empty index backed by repo. The embedder is used to
// backfill catalog entries that were stored without an embedding.
func NewIndex(repo out.CatalogRepository, embedder out.EmbeddingPort) *Index {
	return &Index{
		repo:     repo,
		embedder: embedder,
		entries:  make(map[string]*domain.CatalogEntry),
	}
}

// Load replaces the snapshot from the repository. Embeddings are unit
// normalized so search can use dot products directly; entries missing an
// embedding get one computed and written back.
func (x *Index) Load(ctx context.Context) error {
	records, err := x.repo.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	if len(records) == 0 {
		return fmt.Errorf("load catalog: no products found")
	}

	entries := make(map[string]*domain.CatalogEntry, len(records))
	order := make([]string, 0, len(records))
	for i := range records {
		e := records[i]
		if len(e.Embedding) == 0 && x.embedder != nil {
			vec, err := x.embedder.Embed(ctx, e.Name+" "+e.Description)
			if err != nil {
				logger.WithError(err).Warn("embedding backfill failed for %s", e.ProductID)
			} else {
				e.Embedding = vec
				if err := x.repo.SaveEmbedding(ctx, e.ProductID, vec); err != nil {
					logger.WithError(err).Warn("saving embedding failed for %s", e.ProductID)
				}
			}
		}
		e.Embedding = normalize(e.Embedding)
		entries[e.ProductID] = &e
		order = append(order, e.ProductID)
	}

	x.mu.Lock()
	x.entries = entries
	x.order = order
	x.mu.Unlock()

	logger.Info("catalog index loaded: %d products", len(order))
	return nil
}

// StartRefresher reloads the snapshot every interval until ctx is cancelled.
func (x *Index) StartRefresher(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := x.Load(ctx); err != nil {
					logger.WithError(err).Error("catalog refresh failed")
				}
			}
		}
	}()
}

// Get returns a copy of the entry for a product id.
func (x *Index) Get(productID string) (domain.CatalogEntry, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	e, ok := x.entries[productID]
	if !ok {
		return domain.CatalogEntry{}, false
	}
	return *e, true
}

// GetByName returns a copy of the entry whose name matches case-insensitively.
func (x *Index) GetByName(name string) (domain.CatalogEntry, bool) {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return domain.CatalogEntry{}, false
	}
	x.mu.RLock()
	defer x.mu.RUnlock()
	for _, id := range x.order {
		if strings.ToLower(x.entries[id].Name) == needle {
			return *x.entries[id], true
		}
	}
	return domain.CatalogEntry{}, false
}

// Len returns the number of indexed products.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.order)
}

// Allocate commits up to requested units of a product. It returns the filled
// quantity: min(requested, stock) at commit time. The decrement is a single
// read-modify-write: the repository write is conditional on the stock value
// the fill was derived from, and a lost race re-derives the fill from the
// store's current value. Stock never goes below zero.
func (x *Index) Allocate(ctx context.Context, productID string, requested int) (int, error) {
	if requested <= 0 {
		requested = 1
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	e, ok := x.entries[productID]
	if !ok {
		return 0, fmt.Errorf("allocate: unknown product %s", productID)
	}

	for attempt := 0; attempt < allocateRetries; attempt++ {
		filled := requested
		if e.Stock < filled {
			filled = e.Stock
		}
		if filled == 0 {
			return 0, nil
		}

		applied, err := x.repo.UpdateStock(ctx, productID, e.Stock, e.Stock-filled)
		if err != nil {
			return 0, fmt.Errorf("allocate %s: %w", productID, err)
		}
		if applied {
			e.Stock -= filled
			return filled, nil
		}

		// Another writer moved the stock; re-read and re-derive.
		stock, err := x.repo.GetStock(ctx, productID)
		if err != nil {
			return 0, fmt.Errorf("allocate %s: reread stock: %w", productID, err)
		}
		e.Stock = stock
	}

	return 0, fmt.Errorf("allocate %s: conditional update kept losing", productID)
}

func normalize(v []float32) []float32 {
	if len(v) == 0 {
		return nil
	}
	var sum float64
	for _, f := range v {
		sum += float64(f) * float64(f)
	}
	norm := math.Sqrt(sum)
	if norm == 0 {
		return nil
	}
	out := make([]float32, len(v))
	for i, f := range v {
		out[i] = float32(float64(f) / norm)
	}
	return out
}
