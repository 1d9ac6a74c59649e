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

// GormInvoiceRepository implements document.InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *Database
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *Database) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// FindByBusinessKey loads an invoice with its lines in display order
func (r *GormInvoiceRepository) FindByBusinessKey(ctx context.Context, tenantID uuid.UUID, businessKey string) (*document.Invoice, error) {
	var invoice document.Invoice
	if err := r.db.WithTenant(tenantID.String()).WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB {
			return db.Order("invoice_lines.ordinal ASC")
		}).
		Where("business_key = ?", businessKey).
		First(&invoice).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &invoice, nil
}

// Create inserts a new invoice and commits immediately
func (r *GormInvoiceRepository) Create(ctx context.Context, invoice *document.Invoice) error {
	return r.db.DB.WithContext(ctx).Create(invoice).Error
}

// SaveWithAudit persists the invoice, synchronizes its line rows, and
// appends the audit record in one transaction
func (r *GormInvoiceRepository) SaveWithAudit(ctx context.Context, invoice *document.Invoice, rec *audit.Record) error {
	return r.db.Transaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Omit("Lines").Save(invoice).Error; err != nil {
			return err
		}

		currentLineIDs := make([]uuid.UUID, len(invoice.Lines))
		for i, line := range invoice.Lines {
			currentLineIDs[i] = line.ID
		}

		if len(currentLineIDs) > 0 {
			if err := tx.Where("invoice_id = ? AND id NOT IN ?", invoice.ID, currentLineIDs).
				Delete(&document.InvoiceLine{}).Error; err != nil {
				return err
			}
		} else {
			if err := tx.Where("invoice_id = ?", invoice.ID).
				Delete(&document.InvoiceLine{}).Error; err != nil {
				return err
			}
		}

		for i := range invoice.Lines {
			invoice.Lines[i].InvoiceID = invoice.ID
			if err := tx.Save(&invoice.Lines[i]).Error; err != nil {
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

var _ document.InvoiceRepository = (*GormInvoiceRepository)(nil)
