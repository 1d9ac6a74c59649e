package audit

import (
	"context"

	"github.com/edibridge/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Repository provides read access to the audit trail. Writes happen inside
// the owning entity's save transaction, not through this interface.
type Repository interface {
	FindByEntity(ctx context.Context, tenantID uuid.UUID, entityKind string, entityID uuid.UUID, filter shared.Filter) ([]Record, error)
	FindByBusinessKey(ctx context.Context, tenantID uuid.UUID, businessKey string, filter shared.Filter) ([]Record, error)
	CountByEntity(ctx context.Context, tenantID uuid.UUID, entityKind string, entityID uuid.UUID) (int64, error)
}

// Sink receives committed audit records for external mirroring, e.g. object
// storage snapshots consumed by downstream reporting. Emission is
// best-effort and happens after the owning transaction commits; the durable
// copy is the audit_records row.
type Sink interface {
	Emit(ctx context.Context, rec *Record) error
}

// NopSink discards records; used when no external mirror is configured
type NopSink struct{}

// Emit implements Sink
func (NopSink) Emit(ctx context.Context, rec *Record) error {
	return nil
}
