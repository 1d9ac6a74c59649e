// Package catalog holds read-mostly product reference data that incoming
// document lines resolve against. Products are owned by the catalog side of
// the system; the ingest path only links to them.
package catalog

import (
	"context"
	"strings"

	"github.com/edibridge/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Product is the resolved reference a child line points at
type Product struct {
	shared.TenantAggregateRoot
	Sku  string `gorm:"type:varchar(100);not null;uniqueIndex:idx_product_tenant_sku,priority:2"`
	Name string `gorm:"type:varchar(200);not null"`
	Unit string `gorm:"type:varchar(20)"`
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// NewProduct creates a new product
func NewProduct(tenantID uuid.UUID, sku, name string) (*Product, error) {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return nil, shared.NewDomainError("INVALID_SKU", "Product SKU cannot be empty")
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	return &Product{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Sku:                 sku,
		Name:                strings.TrimSpace(name),
	}, nil
}

// Repository provides lookup access to products. The ingest path never
// creates products; unknown SKUs surface as business-rule violations on the
// document.
type Repository interface {
	FindBySku(ctx context.Context, tenantID uuid.UUID, sku string) (*Product, error)
}
