package order

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agent_server/core/catalog"
	"agent_server/core/domain"
)

func TestAllocatePartialFill(t *testing.T) {
	repo := newFakeCatalogRepo(catalogEntry("AAA0001", "Vase", 2, 25, 1, 0, 0))
	idx := catalog.NewIndex(repo, &fakeEmbedder{})
	require.NoError(t, idx.Load(context.Background()))
	allocator := NewAllocator(idx)

	msg := domain.NewCustomerMessage("e-1", "s", "b")
	msg.ProductsPurchase = []domain.Product{
		{ProductID: "AAA0001", Name: "Vase", Quantity: 3},
	}

	out, err := allocator.Allocate(context.Background(), msg)
	require.NoError(t, err)

	p := out.ProductsPurchase[0]
	assert.Equal(t, 3, p.Quantity)
	assert.Equal(t, 2, p.Filled)
	assert.Equal(t, 1, p.Unfilled)
	assert.Equal(t, domain.OrderStatusPartial, p.OrderStatus)

	stock, err := repo.GetStock(context.Background(), "AAA0001")
	require.NoError(t, err)
	assert.Equal(t, 0, stock, "partial fill drains remaining stock")
}

func TestAllocateFullFill(t *testing.T) {
	idx := testIndex(t, catalogEntry("AAA0001", "Vase", 5, 25, 1, 0, 0))
	allocator := NewAllocator(idx)

	msg := domain.NewCustomerMessage("e-1", "s", "b")
	msg.ProductsPurchase = []domain.Product{
		{ProductID: "AAA0001", Quantity: 5},
	}

	out, err := allocator.Allocate(context.Background(), msg)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusFilled, out.ProductsPurchase[0].OrderStatus)
	assert.Equal(t, 0, out.ProductsPurchase[0].Unfilled)
}

func TestAllocateOutOfStock(t *testing.T) {
	idx := testIndex(t, catalogEntry("AAA0001", "Vase", 0, 25, 1, 0, 0))
	allocator := NewAllocator(idx)

	msg := domain.NewCustomerMessage("e-1", "s", "b")
	msg.ProductsPurchase = []domain.Product{
		{ProductID: "AAA0001", Quantity: 2},
	}

	out, err := allocator.Allocate(context.Background(), msg)
	require.NoError(t, err)

	p := out.ProductsPurchase[0]
	assert.Equal(t, domain.OrderStatusNone, p.OrderStatus)
	assert.Equal(t, 0, p.Filled)
	assert.Equal(t, 2, p.Unfilled)
}

func TestAllocateSkipsUnresolvedReferences(t *testing.T) {
	idx := testIndex(t, catalogEntry("AAA0001", "Vase", 5, 25, 1, 0, 0))
	allocator := NewAllocator(idx)

	msg := domain.NewCustomerMessage("e-1", "s", "b")
	msg.ProductsPurchase = []domain.Product{
		{Name: "mystery item", Quantity: 4}, // unresolved, no id
	}

	out, err := allocator.Allocate(context.Background(), msg)
	require.NoError(t, err)

	p := out.ProductsPurchase[0]
	assert.Equal(t, domain.OrderStatusNone, p.OrderStatus)
	assert.Equal(t, 4, p.Quantity, "unresolved reference passes through untouched")
	assert.Equal(t, 0, p.Filled)
}

func TestInquiryCheckDoesNotDecrementStock(t *testing.T) {
	repo := newFakeCatalogRepo(catalogEntry("AAA0001", "Vase", 3, 25, 1, 0, 0))
	idx := catalog.NewIndex(repo, &fakeEmbedder{})
	require.NoError(t, idx.Load(context.Background()))
	allocator := NewAllocator(idx)

	msg := domain.NewCustomerMessage("e-1", "s", "b")
	msg.ProductsInquiry = []domain.Product{
		{ProductID: "AAA0001", Quantity: 2},
	}

	out, err := allocator.Allocate(context.Background(), msg)
	require.NoError(t, err)

	p := out.ProductsInquiry[0]
	assert.Equal(t, 2, p.Filled)
	assert.Equal(t, domain.OrderStatusFilled, p.OrderStatus)

	stock, err := repo.GetStock(context.Background(), "AAA0001")
	require.NoError(t, err)
	assert.Equal(t, 3, stock, "inquiries never touch stock")
}

func TestInquiryOutOfStock(t *testing.T) {
	idx := testIndex(t, catalogEntry("AAA0001", "Vase", 0, 25, 1, 0, 0))
	allocator := NewAllocator(idx)

	msg := domain.NewCustomerMessage("e-1", "s", "b")
	msg.ProductsInquiry = []domain.Product{
		{ProductID: "AAA0001"}, // no quantity given
	}

	out, err := allocator.Allocate(context.Background(), msg)
	require.NoError(t, err)

	p := out.ProductsInquiry[0]
	assert.Equal(t, 1, p.Quantity, "missing quantity normalized to 1")
	assert.Equal(t, 0, p.Filled)
	assert.Equal(t, domain.OrderStatusNone, p.OrderStatus)
}

func TestAllocateSequentialPurchasesShareStock(t *testing.T) {
	idx := testIndex(t, catalogEntry("AAA0001", "Vase", 3, 25, 1, 0, 0))
	allocator := NewAllocator(idx)

	msg := domain.NewCustomerMessage("e-1", "s", "b")
	msg.ProductsPurchase = []domain.Product{
		{ProductID: "AAA0001", Quantity: 2},
	}
	first, err := allocator.Allocate(context.Background(), msg)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusFilled, first.ProductsPurchase[0].OrderStatus)

	// A second message arrives for the same product.
	second, err := allocator.Allocate(context.Background(), msg.Clone())
	require.NoError(t, err)

	p := second.ProductsPurchase[0]
	assert.Equal(t, 1, p.Filled, "only the remaining unit is left")
	assert.Equal(t, domain.OrderStatusPartial, p.OrderStatus)
}
