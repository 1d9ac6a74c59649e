package ingest

import (
	"context"
	"errors"
	"strings"

	"github.com/edibridge/backend/internal/domain/catalog"
	"github.com/edibridge/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// LookupCache memoizes product lookups for the duration of one ingestion.
// Documents routinely repeat the same SKU across dozens of lines; without
// the cache every line would hit the database. Misses are cached too, so a
// document full of one unknown SKU costs a single query.
//
// The cache is request-scoped and not safe for concurrent use.
type LookupCache struct {
	products catalog.Repository
	tenantID uuid.UUID
	bySku    map[string]*catalog.Product
}

// NewLookupCache creates a cache bound to one tenant. A nil repository
// yields a cache that resolves nothing.
func NewLookupCache(products catalog.Repository, tenantID uuid.UUID) *LookupCache {
	return &LookupCache{
		products: products,
		tenantID: tenantID,
		bySku:    make(map[string]*catalog.Product),
	}
}

// Product resolves a SKU to its catalog product, or nil when unknown
func (c *LookupCache) Product(ctx context.Context, sku string) (*catalog.Product, error) {
	sku = strings.TrimSpace(sku)
	if sku == "" || c.products == nil {
		return nil, nil
	}
	if p, ok := c.bySku[sku]; ok {
		return p, nil
	}

	p, err := c.products.FindBySku(ctx, c.tenantID, sku)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			c.bySku[sku] = nil
			return nil, nil
		}
		return nil, err
	}
	c.bySku[sku] = p
	return p, nil
}

// ProductID resolves a SKU to its product ID, or nil when unknown
func (c *LookupCache) ProductID(ctx context.Context, sku string) (*uuid.UUID, error) {
	p, err := c.Product(ctx, sku)
	if err != nil || p == nil {
		return nil, err
	}
	id := p.GetID()
	return &id, nil
}
