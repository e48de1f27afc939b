// Package order implements product resolution, inventory allocation and
// substitute recommendation against the catalog index.
package order

import (
	"context"

	"agent_server/core/catalog"
	"agent_server/core/domain"
	"agent_server/core/port/out"
	"agent_server/pkg/logger"
)

// Resolver binds loosely specified product references to catalog ids.
type Resolver struct {
	index    *catalog.Index
	embedder out.EmbeddingPort
	minStock int // stock floor for similarity-based binding
}

func NewResolver(index *catalog.Index, embedder out.EmbeddingPort) *Resolver {
	return &Resolver{index: index, embedder: embedder}
}

// Resolve deduplicates the purchase and inquiry references as one set, then
// resolves each list. The exclusion set accumulates every bound id so two
// references can never claim the same product, across lists included.
func (r *Resolver) Resolve(ctx context.Context, msg *domain.CustomerMessage) (*domain.CustomerMessage, error) {
	updated := msg.Clone()

	updated.ProductsPurchase, updated.ProductsInquiry = dedupe(updated.ProductsPurchase, updated.ProductsInquiry)

	exclude := make(map[string]bool)
	for _, p := range updated.ProductsPurchase {
		if r.wellFormed(p.ProductID) {
			exclude[p.ProductID] = true
		}
	}
	for _, p := range updated.ProductsInquiry {
		if r.wellFormed(p.ProductID) {
			exclude[p.ProductID] = true
		}
	}

	for i := range updated.ProductsPurchase {
		updated.ProductsPurchase[i] = r.resolveOne(ctx, updated.ProductsPurchase[i], exclude)
	}
	for i := range updated.ProductsInquiry {
		updated.ProductsInquiry[i] = r.resolveOne(ctx, updated.ProductsInquiry[i], exclude)
	}

	return updated, nil
}

// dedupe collapses duplicates across the union of both lists, preserving
// first-seen order. A purchase reference wins over a later inquiry duplicate
// and vice versa.
func dedupe(purchase, inquiry []domain.Product) ([]domain.Product, []domain.Product) {
	seen := make(map[string]bool, len(purchase)+len(inquiry))

	keep := func(in []domain.Product) []domain.Product {
		if len(in) == 0 {
			return in
		}
		out := in[:0]
		for _, p := range in {
			key := p.DedupKey()
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, p)
		}
		return out
	}

	return keep(purchase), keep(inquiry)
}

// wellFormed reports whether id has the catalog's fixed length and names a
// known product.
func (r *Resolver) wellFormed(id string) bool {
	if len(id) != domain.ProductIDLength {
		return false
	}
	_, ok := r.index.Get(id)
	return ok
}

// resolveOne binds a single reference: carried id first, then exact name,
// then nearest neighbor on the embedded description. An unmatched reference
// is returned as-is with its id left empty, never dropped.
func (r *Resolver) resolveOne(ctx context.Context, p domain.Product, exclude map[string]bool) domain.Product {
	if r.wellFormed(p.ProductID) {
		exclude[p.ProductID] = true
		return r.bind(p, p.ProductID)
	}
	p.ProductID = ""

	if p.Name != "" {
		if entry, ok := r.index.GetByName(p.Name); ok && !exclude[entry.ProductID] {
			exclude[entry.ProductID] = true
			return r.bind(p, entry.ProductID)
		}
	}

	text := p.Description
	if text == "" {
		text = p.Name
	}
	if text == "" {
		return p
	}

	vector, err := r.embedder.Embed(ctx, text)
	if err != nil {
		logger.WithStage("resolve").WithError(err).Error("embedding failed for reference %q", text)
		return p
	}
	matches := r.index.Search(vector, 1, exclude, r.minStock)
	if len(matches) == 0 {
		return p
	}
	exclude[matches[0].ProductID] = true
	return r.bind(p, matches[0].ProductID)
}

// bind enriches a reference from its catalog entry. Catalog data always wins
// over extracted text; quantity keeps the extracted value when positive and
// defaults to 1 otherwise.
func (r *Resolver) bind(p domain.Product, productID string) domain.Product {
	entry, ok := r.index.Get(productID)
	if !ok {
		return p
	}
	p.ProductID = entry.ProductID
	p.Name = entry.Name
	p.Description = entry.Description
	p.Price = entry.Price
	if p.Quantity <= 0 {
		p.Quantity = 1
	}
	return p
}
