package party

import (
	"context"

	"github.com/edibridge/backend/internal/domain/audit"
	"github.com/google/uuid"
)

// Repository persists parties with their addresses. Implementations must
// translate "no row" into shared.ErrNotFound, and must enforce the
// (tenant, namespace, code) unique constraint so concurrent creation
// attempts cannot produce duplicates even if a caller bypasses the keyed
// lock.
type Repository interface {
	FindByNamespaceAndCode(ctx context.Context, tenantID uuid.UUID, namespace, code string) (*Party, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Party, error)
	// Create inserts a new party and commits immediately.
	Create(ctx context.Context, p *Party) error
	// SaveWithAudit persists name/address mutations together with the
	// party's audit record in one transaction.
	SaveWithAudit(ctx context.Context, p *Party, rec *audit.Record) error
}
