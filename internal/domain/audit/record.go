// Package audit holds the append-only snapshot trail written whenever a
// document actually changes a reconciled entity. Records are never updated
// or deleted.
package audit

import (
	"encoding/json"
	"time"

	"github.com/edibridge/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Record is an immutable snapshot of a root entity's state after a mutation
// pass that produced a real change, together with who applied it and which
// source document drove it.
type Record struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key"`
	TenantID    uuid.UUID `gorm:"type:uuid;not null;index"`
	EntityKind  string    `gorm:"type:varchar(20);not null;index:idx_audit_entity,priority:1"`
	EntityID    uuid.UUID `gorm:"type:uuid;not null;index:idx_audit_entity,priority:2"`
	BusinessKey string    `gorm:"type:varchar(100);not null;index"`
	Revision    int64     `gorm:"not null"`
	Actor       string    `gorm:"type:varchar(100);not null"`
	SourceRef   string    `gorm:"type:varchar(500)"`
	Snapshot    []byte    `gorm:"type:jsonb"`
	CreatedAt   time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (Record) TableName() string {
	return "audit_records"
}

// NewRecord builds an audit record snapshotting the given entity state.
// The entity is serialized as JSON; a serialization failure is a caller bug
// surfaced as an error rather than a silent empty snapshot.
func NewRecord(tenantID uuid.UUID, entityKind string, entityID uuid.UUID, businessKey string, revision int64, actor, sourceRef string, entity interface{}) (*Record, error) {
	if actor == "" {
		return nil, shared.NewDomainError("INVALID_ACTOR", "Audit actor cannot be empty")
	}
	snapshot, err := json.Marshal(entity)
	if err != nil {
		return nil, shared.NewDomainError("SNAPSHOT_FAILED", "Failed to serialize entity snapshot: "+err.Error())
	}
	return &Record{
		ID:          uuid.New(),
		TenantID:    tenantID,
		EntityKind:  entityKind,
		EntityID:    entityID,
		BusinessKey: businessKey,
		Revision:    revision,
		Actor:       actor,
		SourceRef:   sourceRef,
		Snapshot:    snapshot,
		CreatedAt:   time.Now(),
	}, nil
}
