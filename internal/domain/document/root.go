package document

import (
	"github.com/edibridge/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Kind identifies a root entity type. It prefixes keyed-lock keys and tags
// audit records.
type Kind string

const (
	KindOrder    Kind = "Order"
	KindShipment Kind = "Shipment"
	KindInvoice  Kind = "Invoice"
)

// String returns the string representation of the kind
func (k Kind) String() string {
	return string(k)
}

// Root is the capability set shared by all reconcilable root entities.
// The ingest pipeline works exclusively against this interface; everything
// document-type-specific comes in through the mapper plugin.
type Root interface {
	shared.AggregateRoot
	Kind() Kind
	GetTenantID() uuid.UUID
	GetBusinessKey() string
	GetRevision() Revision
	GetSourceRef() string
	// ApplyRevision records that a document at rev, located at sourceRef,
	// has been applied to this entity. Callers must have verified
	// GetRevision().Accepts(rev) first.
	ApplyRevision(rev Revision, sourceRef string)
}

// Base carries the reconciliation bookkeeping common to every root entity:
// the immutable business key, the last applied revision and the locator of
// the document that produced the current state.
type Base struct {
	shared.TenantAggregateRoot
	BusinessKey string   `gorm:"type:varchar(100);not null;uniqueIndex:idx_doc_tenant_key,priority:2"`
	Revision    Revision `gorm:"not null;default:0"`
	SourceRef   string   `gorm:"type:varchar(500)"`
}

// NewBase creates reconciliation bookkeeping for a new root entity
func NewBase(tenantID uuid.UUID, businessKey string) Base {
	return Base{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		BusinessKey:         businessKey,
	}
}

// GetTenantID returns the owning tenant
func (b *Base) GetTenantID() uuid.UUID {
	return b.TenantID
}

// GetBusinessKey returns the normalized business key
func (b *Base) GetBusinessKey() string {
	return b.BusinessKey
}

// GetRevision returns the last applied revision
func (b *Base) GetRevision() Revision {
	return b.Revision
}

// GetSourceRef returns the locator of the last applied document
func (b *Base) GetSourceRef() string {
	return b.SourceRef
}

// ApplyRevision advances the revision marker and source locator
func (b *Base) ApplyRevision(rev Revision, sourceRef string) {
	b.Revision = rev
	b.SourceRef = sourceRef
	b.Touch()
	b.IncrementVersion()
}
