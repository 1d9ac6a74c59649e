package storage

import (
	"context"
	"fmt"

	"github.com/edibridge/backend/internal/domain/audit"
)

// SnapshotSink mirrors committed audit records into object storage so
// downstream reporting can read point-in-time document state without
// touching the database. The durable copy remains the audit_records row;
// the pipeline treats sink failures as non-fatal.
type SnapshotSink struct {
	store DocumentStore
}

// NewSnapshotSink creates a sink writing into the given store
func NewSnapshotSink(store DocumentStore) *SnapshotSink {
	return &SnapshotSink{store: store}
}

// SnapshotKey builds the deterministic object key for an audit record.
// One revision of one entity maps to exactly one object, so re-emission
// after a retry overwrites the identical content.
func SnapshotKey(rec *audit.Record) string {
	return fmt.Sprintf("audit/%s/%s/%s/%d.json",
		rec.TenantID, rec.EntityKind, rec.BusinessKey, rec.Revision)
}

// Emit implements audit.Sink
func (s *SnapshotSink) Emit(ctx context.Context, rec *audit.Record) error {
	if rec == nil {
		return nil
	}
	return s.store.Put(ctx, SnapshotKey(rec), rec.Snapshot, "application/json")
}

var _ audit.Sink = (*SnapshotSink)(nil)
