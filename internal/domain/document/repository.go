package document

import (
	"context"

	"github.com/edibridge/backend/internal/domain/audit"
	"github.com/google/uuid"
)

// Repository is the persistence contract the ingest pipeline needs for any
// root entity type. Implementations must translate "no row" into
// shared.ErrNotFound.
type Repository[R Root] interface {
	// FindByBusinessKey loads the entity with its full child line
	// collection. Returns shared.ErrNotFound when absent.
	FindByBusinessKey(ctx context.Context, tenantID uuid.UUID, businessKey string) (R, error)

	// Create inserts a freshly materialized entity and commits
	// immediately, so a concurrent worker that blocked on the same keyed
	// lock observes the row as soon as the lock is released.
	Create(ctx context.Context, entity R) error

	// SaveWithAudit persists the mutated entity, synchronizes its child
	// line rows against the in-memory collection, and appends the audit
	// record, all in one transaction.
	SaveWithAudit(ctx context.Context, entity R, rec *audit.Record) error
}

// OrderRepository persists orders
type OrderRepository interface {
	Repository[*Order]
	// FindOpenByOrderNumber supports shipment/invoice documents that
	// reference orders by their trading-partner number rather than by
	// business key.
	FindOpenByOrderNumber(ctx context.Context, tenantID uuid.UUID, orderNumber string) (*Order, error)
}

// ShipmentRepository persists shipments
type ShipmentRepository interface {
	Repository[*Shipment]
}

// InvoiceRepository persists invoices
type InvoiceRepository interface {
	Repository[*Invoice]
}
