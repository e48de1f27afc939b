package order

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agent_server/core/catalog"
	"agent_server/core/domain"
)

// fakeCatalogRepo is an in-memory CatalogRepository with conditional stock
// writes, shared by the resolver, allocator and recommender tests.
type fakeCatalogRepo struct {
	mu      sync.Mutex
	entries []domain.CatalogEntry
	stock   map[string]int
}

func newFakeCatalogRepo(entries ...domain.CatalogEntry) *fakeCatalogRepo {
	r := &fakeCatalogRepo{stock: make(map[string]int)}
	r.entries = entries
	for _, e := range entries {
		r.stock[e.ProductID] = e.Stock
	}
	return r
}

func (r *fakeCatalogRepo) GetAll(ctx context.Context) ([]domain.CatalogEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.CatalogEntry, len(r.entries))
	copy(out, r.entries)
	for i := range out {
		out[i].Stock = r.stock[out[i].ProductID]
	}
	return out, nil
}

func (r *fakeCatalogRepo) GetStock(ctx context.Context, productID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.stock[productID]
	if !ok {
		return 0, fmt.Errorf("unknown product %s", productID)
	}
	return s, nil
}

func (r *fakeCatalogRepo) UpdateStock(ctx context.Context, productID string, expected, newStock int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stock[productID] != expected {
		return false, nil
	}
	r.stock[productID] = newStock
	return true, nil
}

func (r *fakeCatalogRepo) SaveEmbedding(ctx context.Context, productID string, embedding []float32) error {
	return nil
}

// fakeEmbedder maps texts to fixed vectors; unknown text gets a vector far
// from every catalog entry.
type fakeEmbedder struct {
	vectors map[string][]float32
	err     error
	calls   int
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if v, ok := f.vectors[text]; ok {
		return v, nil
	}
	return []float32{0, 0, 1}, nil
}

func catalogEntry(id, name string, stock, price int, embedding ...float32) domain.CatalogEntry {
	return domain.CatalogEntry{
		ProductID:   id,
		Name:        name,
		Description: "catalog " + name,
		Stock:       stock,
		Price:       price,
		Embedding:   embedding,
	}
}

func testIndex(t *testing.T, entries ...domain.CatalogEntry) *catalog.Index {
	t.Helper()
	idx := catalog.NewIndex(newFakeCatalogRepo(entries...), &fakeEmbedder{})
	require.NoError(t, idx.Load(context.Background()))
	return idx
}

func TestResolveBindsCarriedID(t *testing.T) {
	idx := testIndex(t, catalogEntry("VSC7263", "Vase", 5, 25, 1, 0, 0))
	resolver := NewResolver(idx, &fakeEmbedder{})

	msg := domain.NewCustomerMessage("e-1", "s", "b")
	msg.Category = domain.CategoryOrder
	msg.ProductsPurchase = []domain.Product{
		{ProductID: "VSC7263", Name: "a vase maybe", Quantity: 2},
	}

	out, err := resolver.Resolve(context.Background(), msg)
	require.NoError(t, err)
	require.Len(t, out.ProductsPurchase, 1)

	p := out.ProductsPurchase[0]
	assert.Equal(t, "VSC7263", p.ProductID)
	assert.Equal(t, "Vase", p.Name, "catalog data wins over extracted text")
	assert.Equal(t, 25, p.Price)
	assert.Equal(t, 2, p.Quantity)
}

func TestResolveMalformedIDFallsBackToName(t *testing.T) {
	idx := testIndex(t, catalogEntry("VSC7263", "Copper Lamp", 5, 40, 1, 0, 0))
	resolver := NewResolver(idx, &fakeEmbedder{})

	msg := domain.NewCustomerMessage("e-1", "s", "b")
	msg.ProductsPurchase = []domain.Product{
		{ProductID: "BAD", Name: "copper lamp"},
	}

	out, err := resolver.Resolve(context.Background(), msg)
	require.NoError(t, err)

	p := out.ProductsPurchase[0]
	assert.Equal(t, "VSC7263", p.ProductID, "exact name match, case-insensitive")
	assert.Equal(t, 1, p.Quantity, "missing quantity defaults to 1")
}

func TestResolveSimilaritySearchFallback(t *testing.T) {
	idx := testIndex(t,
		catalogEntry("AAA0001", "Scarf", 5, 15, 1, 0, 0),
		catalogEntry("BBB0002", "Hat", 5, 12, 0, 1, 0),
	)
	embedder := &fakeEmbedder{vectors: map[string][]float32{
		"something warm for the neck": {0.95, 0.05, 0},
	}}
	resolver := NewResolver(idx, embedder)

	msg := domain.NewCustomerMessage("e-1", "s", "b")
	msg.ProductsPurchase = []domain.Product{
		{Description: "something warm for the neck"},
	}

	out, err := resolver.Resolve(context.Background(), msg)
	require.NoError(t, err)
	assert.Equal(t, "AAA0001", out.ProductsPurchase[0].ProductID)
}

func TestResolveUnmatchedReferenceKept(t *testing.T) {
	idx := testIndex(t, catalogEntry("AAA0001", "Scarf", 5, 15, 1, 0, 0))
	embedder := &fakeEmbedder{err: fmt.Errorf("embedding down")}
	resolver := NewResolver(idx, embedder)

	msg := domain.NewCustomerMessage("e-1", "s", "b")
	msg.ProductsPurchase = []domain.Product{
		{Name: "mystery item", Description: "no such thing"},
	}

	out, err := resolver.Resolve(context.Background(), msg)
	require.NoError(t, err)
	require.Len(t, out.ProductsPurchase, 1, "unmatched reference is kept, not dropped")

	p := out.ProductsPurchase[0]
	assert.Empty(t, p.ProductID)
	assert.Equal(t, "mystery item", p.Name)
}

func TestResolveDeduplicatesAcrossLists(t *testing.T) {
	idx := testIndex(t,
		catalogEntry("AAA0001", "Scarf", 5, 15, 1, 0, 0),
		catalogEntry("BBB0002", "Hat", 5, 12, 0, 1, 0),
	)
	resolver := NewResolver(idx, &fakeEmbedder{})

	msg := domain.NewCustomerMessage("e-1", "s", "b")
	msg.ProductsPurchase = []domain.Product{
		{ProductID: "AAA0001", Quantity: 2},
		{ProductID: "AAA0001", Quantity: 3}, // duplicate within the list
	}
	msg.ProductsInquiry = []domain.Product{
		{ProductID: "AAA0001"}, // duplicate across lists
		{ProductID: "BBB0002"},
	}

	out, err := resolver.Resolve(context.Background(), msg)
	require.NoError(t, err)

	require.Len(t, out.ProductsPurchase, 1, "first-seen purchase reference wins")
	assert.Equal(t, 2, out.ProductsPurchase[0].Quantity)
	require.Len(t, out.ProductsInquiry, 1)
	assert.Equal(t, "BBB0002", out.ProductsInquiry[0].ProductID)
}

func TestResolveTwoReferencesNeverShareAProduct(t *testing.T) {
	idx := testIndex(t,
		catalogEntry("AAA0001", "Scarf", 5, 15, 1, 0, 0),
		catalogEntry("BBB0002", "Shawl", 5, 18, 0.9, 0.1, 0),
	)
	embedder := &fakeEmbedder{vectors: map[string][]float32{
		"warm scarf":    {1, 0, 0},
		"another scarf": {1, 0, 0},
	}}
	resolver := NewResolver(idx, embedder)

	msg := domain.NewCustomerMessage("e-1", "s", "b")
	msg.ProductsPurchase = []domain.Product{
		{Description: "warm scarf"},
		{Description: "another scarf"},
	}

	out, err := resolver.Resolve(context.Background(), msg)
	require.NoError(t, err)

	first, second := out.ProductsPurchase[0], out.ProductsPurchase[1]
	assert.Equal(t, "AAA0001", first.ProductID)
	assert.Equal(t, "BBB0002", second.ProductID, "nearest unclaimed product")
}
