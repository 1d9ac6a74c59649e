package persistence

import (
	"context"
	"errors"

	"github.com/edibridge/backend/internal/domain/audit"
	"github.com/edibridge/backend/internal/domain/document"
	"github.com/edibridge/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormOrderRepository implements document.OrderRepository using GORM.
// Reads go through WithTenant so no query can cross a tenant boundary.
type GormOrderRepository struct {
	db *Database
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *Database) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// FindByBusinessKey loads an order with its lines
func (r *GormOrderRepository) FindByBusinessKey(ctx context.Context, tenantID uuid.UUID, businessKey string) (*document.Order, error) {
	var order document.Order
	if err := r.db.WithTenant(tenantID.String()).WithContext(ctx).
		Preload("Lines").
		Where("business_key = ?", businessKey).
		First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

// FindOpenByOrderNumber finds the open order carrying a trading-partner
// order number
func (r *GormOrderRepository) FindOpenByOrderNumber(ctx context.Context, tenantID uuid.UUID, orderNumber string) (*document.Order, error) {
	var order document.Order
	if err := r.db.WithTenant(tenantID.String()).WithContext(ctx).
		Preload("Lines").
		Where("order_number = ? AND status = ?", orderNumber, document.OrderStatusOpen).
		First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

// Create inserts a new order and commits immediately
func (r *GormOrderRepository) Create(ctx context.Context, order *document.Order) error {
	return r.db.DB.WithContext(ctx).Create(order).Error
}

// SaveWithAudit persists the order, synchronizes its line rows against the
// in-memory collection, and appends the audit record in one transaction
func (r *GormOrderRepository) SaveWithAudit(ctx context.Context, order *document.Order, rec *audit.Record) error {
	return r.db.Transaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Omit("Lines").Save(order).Error; err != nil {
			return err
		}

		currentLineIDs := make([]uuid.UUID, len(order.Lines))
		for i, line := range order.Lines {
			currentLineIDs[i] = line.ID
		}

		if len(currentLineIDs) > 0 {
			if err := tx.Where("order_id = ? AND id NOT IN ?", order.ID, currentLineIDs).
				Delete(&document.OrderLine{}).Error; err != nil {
				return err
			}
		} else {
			if err := tx.Where("order_id = ?", order.ID).
				Delete(&document.OrderLine{}).Error; err != nil {
				return err
			}
		}

		for i := range order.Lines {
			order.Lines[i].OrderID = order.ID
			if err := tx.Save(&order.Lines[i]).Error; err != nil {
				return err
			}
		}

		if rec != nil {
			if err := tx.Create(rec).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

var _ document.OrderRepository = (*GormOrderRepository)(nil)
