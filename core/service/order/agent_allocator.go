package order

import (
	"context"

	"agent_server/core/catalog"
	"agent_server/core/domain"
	"agent_server/pkg/logger"
)

// Allocator commits purchase quantities against catalog stock and checks
// availability for inquiries. Only purchase references ever decrement stock.
type Allocator struct {
	index *catalog.Index
}

func NewAllocator(index *catalog.Index) *Allocator {
	return &Allocator{index: index}
}

// Allocate processes both product lists of msg. Unresolved references are
// skipped entirely: status NONE, quantities untouched. Inventory committed
// here is intentionally never rolled back by later stages.
func (a *Allocator) Allocate(ctx context.Context, msg *domain.CustomerMessage) (*domain.CustomerMessage, error) {
	updated := msg.Clone()

	for i, p := range updated.ProductsPurchase {
		if !p.Resolved() {
			continue
		}
		updated.ProductsPurchase[i] = a.allocatePurchase(ctx, p)
	}
	for i, p := range updated.ProductsInquiry {
		if !p.Resolved() {
			continue
		}
		updated.ProductsInquiry[i] = a.checkInquiry(p)
	}

	return updated, nil
}

func (a *Allocator) allocatePurchase(ctx context.Context, p domain.Product) domain.Product {
	requested := p.Quantity
	if requested <= 0 {
		requested = 1
	}

	filled, err := a.index.Allocate(ctx, p.ProductID, requested)
	if err != nil {
		logger.WithStage("allocate").WithError(err).Error("allocation failed for %s", p.ProductID)
		p.OrderStatus = domain.OrderStatusNone
		return p
	}

	p.Quantity = requested
	p.Filled = filled
	p.Unfilled = requested - filled
	p.OrderStatus = statusFor(filled, p.Unfilled)
	return p
}

// checkInquiry reports how much of the asked-about quantity is available
// without committing anything.
func (a *Allocator) checkInquiry(p domain.Product) domain.Product {
	requested := p.Quantity
	if requested <= 0 {
		requested = 1
	}

	available := 0
	if entry, ok := a.index.Get(p.ProductID); ok {
		available = entry.Stock
	}
	filled := requested
	if available < filled {
		filled = available
	}

	p.Quantity = requested
	p.Filled = filled
	p.Unfilled = requested - filled
	p.OrderStatus = statusFor(filled, p.Unfilled)
	return p
}

func statusFor(filled, unfilled int) domain.OrderStatus {
	switch {
	case filled > 0 && unfilled == 0:
		return domain.OrderStatusFilled
	case filled > 0 && unfilled > 0:
		return domain.OrderStatusPartial
	default:
		return domain.OrderStatusNone
	}
}
