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

// GormShipmentRepository implements document.ShipmentRepository using GORM
type GormShipmentRepository struct {
	db *Database
}

// NewGormShipmentRepository creates a new GormShipmentRepository
func NewGormShipmentRepository(db *Database) *GormShipmentRepository {
	return &GormShipmentRepository{db: db}
}

// FindByBusinessKey loads a shipment with its packed lines
func (r *GormShipmentRepository) FindByBusinessKey(ctx context.Context, tenantID uuid.UUID, businessKey string) (*document.Shipment, error) {
	var shipment document.Shipment
	if err := r.db.WithTenant(tenantID.String()).WithContext(ctx).
		Preload("Lines").
		Where("business_key = ?", businessKey).
		First(&shipment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &shipment, nil
}

// Create inserts a new shipment and commits immediately
func (r *GormShipmentRepository) Create(ctx context.Context, shipment *document.Shipment) error {
	return r.db.DB.WithContext(ctx).Create(shipment).Error
}

// SaveWithAudit persists the shipment, synchronizes its line rows, and
// appends the audit record in one transaction
func (r *GormShipmentRepository) SaveWithAudit(ctx context.Context, shipment *document.Shipment, rec *audit.Record) error {
	return r.db.Transaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Omit("Lines").Save(shipment).Error; err != nil {
			return err
		}

		currentLineIDs := make([]uuid.UUID, len(shipment.Lines))
		for i, line := range shipment.Lines {
			currentLineIDs[i] = line.ID
		}

		if len(currentLineIDs) > 0 {
			if err := tx.Where("shipment_id = ? AND id NOT IN ?", shipment.ID, currentLineIDs).
				Delete(&document.ShipmentLine{}).Error; err != nil {
				return err
			}
		} else {
			if err := tx.Where("shipment_id = ?", shipment.ID).
				Delete(&document.ShipmentLine{}).Error; err != nil {
				return err
			}
		}

		for i := range shipment.Lines {
			shipment.Lines[i].ShipmentID = shipment.ID
			if err := tx.Save(&shipment.Lines[i]).Error; err != nil {
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

var _ document.ShipmentRepository = (*GormShipmentRepository)(nil)
