package persistence

import (
	"context"
	"errors"

	"github.com/edibridge/backend/internal/domain/catalog"
	"github.com/edibridge/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormProductRepository implements catalog.Repository using GORM
type GormProductRepository struct {
	db *Database
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *Database) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindBySku finds a product by its SKU within a tenant
func (r *GormProductRepository) FindBySku(ctx context.Context, tenantID uuid.UUID, sku string) (*catalog.Product, error) {
	var product catalog.Product
	if err := r.db.WithTenant(tenantID.String()).WithContext(ctx).
		Where("sku = ?", sku).
		First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &product, nil
}

var _ catalog.Repository = (*GormProductRepository)(nil)
