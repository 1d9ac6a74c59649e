package persistence

import (
	"context"
	"errors"

	"github.com/edibridge/backend/internal/domain/audit"
	"github.com/edibridge/backend/internal/domain/party"
	"github.com/edibridge/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormPartyRepository implements party.Repository using GORM
type GormPartyRepository struct {
	db *Database
}

// NewGormPartyRepository creates a new GormPartyRepository
func NewGormPartyRepository(db *Database) *GormPartyRepository {
	return &GormPartyRepository{db: db}
}

// FindByNamespaceAndCode loads a party with its addresses
func (r *GormPartyRepository) FindByNamespaceAndCode(ctx context.Context, tenantID uuid.UUID, namespace, code string) (*party.Party, error) {
	var p party.Party
	if err := r.db.WithTenant(tenantID.String()).WithContext(ctx).
		Preload("Addresses").
		Where("namespace = ? AND code = ?", namespace, code).
		First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// FindByID loads a party by its ID
func (r *GormPartyRepository) FindByID(ctx context.Context, id uuid.UUID) (*party.Party, error) {
	var p party.Party
	if err := r.db.DB.WithContext(ctx).
		Preload("Addresses").
		First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Create inserts a new party and commits immediately. The unique index on
// (tenant_id, namespace, code) backstops the keyed lock.
func (r *GormPartyRepository) Create(ctx context.Context, p *party.Party) error {
	return r.db.DB.WithContext(ctx).Create(p).Error
}

// SaveWithAudit persists name and address mutations together with the
// party's audit record in one transaction
func (r *GormPartyRepository) SaveWithAudit(ctx context.Context, p *party.Party, rec *audit.Record) error {
	return r.db.Transaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Omit("Addresses").Save(p).Error; err != nil {
			return err
		}
		for i := range p.Addresses {
			p.Addresses[i].PartyID = p.ID
			if err := tx.Save(&p.Addresses[i]).Error; err != nil {
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

var _ party.Repository = (*GormPartyRepository)(nil)
