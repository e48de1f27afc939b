package order

import (
	"context"

	"agent_server/core/catalog"
	"agent_server/core/domain"
	"agent_server/core/port/out"
	"agent_server/pkg/logger"
)

// Recommendation defaults.
const (
	DefaultRecommendK           = 5
	DefaultRecommendMaxDistance = 0.5
)

// Recommender finds in-stock substitutes near each referenced product,
// excluding everything the message already mentions. Recommendations never
// touch stock.
type Recommender struct {
	index       *catalog.Index
	embedder    out.EmbeddingPort
	k           int
	maxDistance float64
	minStock    int
}

// RecommenderConfig tunes the search; zero values fall back to defaults.
type RecommenderConfig struct {
	K           int
	MaxDistance float64
	MinStock    int
}

func NewRecommender(index *catalog.Index, embedder out.EmbeddingPort, cfg RecommenderConfig) *Recommender {
	if cfg.K <= 0 {
		cfg.K = DefaultRecommendK
	}
	if cfg.MaxDistance <= 0 {
		cfg.MaxDistance = DefaultRecommendMaxDistance
	}
	return &Recommender{
		index:       index,
		embedder:    embedder,
		k:           cfg.K,
		maxDistance: cfg.MaxDistance,
		minStock:    cfg.MinStock,
	}
}

// Recommend appends up to k substitutes per purchase or inquiry reference.
// Resolved references reuse their catalog embedding; unresolved ones get a
// fresh embedding of their description (or name).
func (r *Recommender) Recommend(ctx context.Context, msg *domain.CustomerMessage) (*domain.CustomerMessage, error) {
	updated := msg.Clone()

	exclude := make(map[string]bool)
	for _, p := range updated.ProductsPurchase {
		if p.Resolved() {
			exclude[p.ProductID] = true
		}
	}
	for _, p := range updated.ProductsInquiry {
		if p.Resolved() {
			exclude[p.ProductID] = true
		}
	}
	for _, p := range updated.ProductsRecommendations {
		if p.Resolved() {
			exclude[p.ProductID] = true
		}
	}

	references := make([]domain.Product, 0, len(updated.ProductsPurchase)+len(updated.ProductsInquiry))
	references = append(references, updated.ProductsPurchase...)
	references = append(references, updated.ProductsInquiry...)

	for _, ref := range references {
		vector := r.vectorFor(ctx, ref)
		if vector == nil {
			continue
		}
		for _, match := range r.index.Search(vector, r.k, exclude, r.minStock) {
			if match.Distance > r.maxDistance {
				break // matches are sorted by distance
			}
			entry, ok := r.index.Get(match.ProductID)
			if !ok {
				continue
			}
			exclude[entry.ProductID] = true
			updated.ProductsRecommendations = append(updated.ProductsRecommendations, domain.Product{
				ProductID:   entry.ProductID,
				Name:        entry.Name,
				Description: entry.Description,
				Quantity:    1,
				Price:       entry.Price,
				OrderStatus: domain.OrderStatusNone,
			})
		}
	}

	return updated, nil
}

func (r *Recommender) vectorFor(ctx context.Context, ref domain.Product) []float32 {
	if ref.Resolved() {
		if entry, ok := r.index.Get(ref.ProductID); ok && len(entry.Embedding) > 0 {
			return entry.Embedding
		}
	}
	text := ref.Description
	if text == "" {
		text = ref.Name
	}
	if text == "" {
		return nil
	}
	vector, err := r.embedder.Embed(ctx, text)
	if err != nil {
		logger.WithStage("recommend").WithError(err).Error("embedding failed for reference %q", text)
		return nil
	}
	return vector
}
