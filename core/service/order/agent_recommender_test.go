package order

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agent_server/core/domain"
)

func TestRecommendExcludesMentionedProducts(t *testing.T) {
	idx := testIndex(t,
		catalogEntry("AAA0001", "Scarf", 5, 15, 1, 0, 0),
		catalogEntry("BBB0002", "Shawl", 5, 18, 0.95, 0.05, 0),
		catalogEntry("CCC0003", "Wrap", 5, 20, 0.9, 0.1, 0),
	)
	rec := NewRecommender(idx, &fakeEmbedder{}, RecommenderConfig{K: 5, MaxDistance: 0.5})

	msg := domain.NewCustomerMessage("e-1", "s", "b")
	msg.ProductsPurchase = []domain.Product{
		{ProductID: "AAA0001", Name: "Scarf", OrderStatus: domain.OrderStatusFilled},
	}

	out, err := rec.Recommend(context.Background(), msg)
	require.NoError(t, err)

	ids := make([]string, 0, len(out.ProductsRecommendations))
	for _, p := range out.ProductsRecommendations {
		ids = append(ids, p.ProductID)
	}
	assert.NotContains(t, ids, "AAA0001", "a purchased product is never recommended back")
	assert.Contains(t, ids, "BBB0002")
	assert.Contains(t, ids, "CCC0003")
}

func TestRecommendRespectsDistanceCutoff(t *testing.T) {
	idx := testIndex(t,
		catalogEntry("AAA0001", "Scarf", 5, 15, 1, 0, 0),
		catalogEntry("BBB0002", "Near", 5, 18, 0.95, 0.05, 0),
		catalogEntry("CCC0003", "Unrelated", 5, 20, 0, 0, 1),
	)
	rec := NewRecommender(idx, &fakeEmbedder{}, RecommenderConfig{K: 5, MaxDistance: 0.5})

	msg := domain.NewCustomerMessage("e-1", "s", "b")
	msg.ProductsPurchase = []domain.Product{
		{ProductID: "AAA0001", Name: "Scarf"},
	}

	out, err := rec.Recommend(context.Background(), msg)
	require.NoError(t, err)

	require.Len(t, out.ProductsRecommendations, 1)
	assert.Equal(t, "BBB0002", out.ProductsRecommendations[0].ProductID)
}

func TestRecommendUnresolvedReferenceUsesFreshEmbedding(t *testing.T) {
	idx := testIndex(t,
		catalogEntry("AAA0001", "Scarf", 5, 15, 1, 0, 0),
	)
	embedder := &fakeEmbedder{vectors: map[string][]float32{
		"soft neck warmer": {1, 0, 0},
	}}
	rec := NewRecommender(idx, embedder, RecommenderConfig{K: 5, MaxDistance: 0.5})

	msg := domain.NewCustomerMessage("e-1", "s", "b")
	msg.ProductsInquiry = []domain.Product{
		{Description: "soft neck warmer"}, // unresolved
	}

	out, err := rec.Recommend(context.Background(), msg)
	require.NoError(t, err)

	require.Len(t, out.ProductsRecommendations, 1)
	p := out.ProductsRecommendations[0]
	assert.Equal(t, "AAA0001", p.ProductID)
	assert.Equal(t, 1, p.Quantity)
	assert.Equal(t, domain.OrderStatusNone, p.OrderStatus)
	assert.Equal(t, 15, p.Price)
	assert.Equal(t, 1, embedder.calls, "one fresh embedding for the unresolved reference")
}

func TestRecommendSkipsOutOfStockSubstitutes(t *testing.T) {
	idx := testIndex(t,
		catalogEntry("AAA0001", "Scarf", 5, 15, 1, 0, 0),
		catalogEntry("BBB0002", "Shawl", 0, 18, 0.95, 0.05, 0),
	)
	rec := NewRecommender(idx, &fakeEmbedder{}, RecommenderConfig{K: 5, MaxDistance: 0.5})

	msg := domain.NewCustomerMessage("e-1", "s", "b")
	msg.ProductsPurchase = []domain.Product{
		{ProductID: "AAA0001", Name: "Scarf"},
	}

	out, err := rec.Recommend(context.Background(), msg)
	require.NoError(t, err)
	assert.Empty(t, out.ProductsRecommendations, "out-of-stock products are never recommended")
}

func TestRecommendNoDuplicateAcrossReferences(t *testing.T) {
	idx := testIndex(t,
		catalogEntry("AAA0001", "Scarf", 5, 15, 1, 0, 0),
		catalogEntry("BBB0002", "Shawl", 5, 18, 0.99, 0.01, 0),
		catalogEntry("CCC0003", "Wrap", 5, 20, 0.98, 0.02, 0),
	)
	rec := NewRecommender(idx, &fakeEmbedder{}, RecommenderConfig{K: 5, MaxDistance: 0.5})

	msg := domain.NewCustomerMessage("e-1", "s", "b")
	msg.ProductsPurchase = []domain.Product{{ProductID: "AAA0001", Name: "Scarf"}}
	msg.ProductsInquiry = []domain.Product{{ProductID: "BBB0002", Name: "Shawl"}}

	out, err := rec.Recommend(context.Background(), msg)
	require.NoError(t, err)

	seen := make(map[string]int)
	for _, p := range out.ProductsRecommendations {
		seen[p.ProductID]++
	}
	for id, n := range seen {
		assert.Equal(t, 1, n, "product %s recommended more than once", id)
	}
	assert.NotContains(t, seen, "AAA0001")
	assert.NotContains(t, seen, "BBB0002")
}

func TestRecommenderConfigDefaults(t *testing.T) {
	idx := testIndex(t, catalogEntry("AAA0001", "Scarf", 5, 15, 1, 0, 0))
	rec := NewRecommender(idx, &fakeEmbedder{}, RecommenderConfig{})

	assert.Equal(t, DefaultRecommendK, rec.k)
	assert.Equal(t, DefaultRecommendMaxDistance, rec.maxDistance)
	assert.Equal(t, 0, rec.minStock)
}
