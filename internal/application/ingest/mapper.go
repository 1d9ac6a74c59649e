// Package ingest implements the document reconciliation engine. Raw
// trading-partner documents (orders, shipments, invoices) arrive as opaque
// payloads; a DocumentMapper translates each payload into mutations on the
// matching root entity, and the pipeline applies those mutations
// idempotently under a cross-process keyed lock.
package ingest

import (
	"context"

	"github.com/edibridge/backend/internal/domain/document"
	"github.com/edibridge/backend/internal/domain/party"
	"github.com/google/uuid"
)

// RawDocument is an inbound payload before parsing. SourceRef identifies
// where the payload came from (message id, S3 key) and is carried onto the
// entity and its audit records.
type RawDocument struct {
	TenantID   uuid.UUID
	SystemCode string
	SourceRef  string
	Body       []byte
	Meta       map[string]string
}

// DocumentView is the parsed, navigable form of a document body. Paths are
// slash-separated element paths relative to the view's node.
type DocumentView interface {
	// Text returns the trimmed text of the first element at path, or ""
	Text(path string) string
	// All returns a sub-view for every element at path, in document order
	All(path string) []DocumentView
	// Exists reports whether at least one element is present at path
	Exists(path string) bool
}

// Parser turns a raw body into a DocumentView. Parse failures mean the
// payload is malformed and must not be retried.
type Parser interface {
	Parse(raw RawDocument) (DocumentView, error)
}

// References carries the lookups a mapper may resolve against while
// mutating an entity. Parties maps binding roles to resolved party IDs;
// roles whose descriptors were blank are absent.
type References struct {
	Parties  map[string]uuid.UUID
	Products *LookupCache
	// FindOrder resolves a trading-partner order number to the open
	// order, for documents that cross-reference orders. Returns
	// shared.ErrNotFound when no open order matches. Nil when the
	// pipeline has no order repository wired.
	FindOrder func(ctx context.Context, orderNumber string) (*document.Order, error)
}

// PartyDescriptor is a mapper's extraction of one party from a document.
// A descriptor with blank Code and Name is skipped entirely.
type PartyDescriptor struct {
	// Role names the binding on the root entity, e.g. "Vendor"
	Role string
	// SystemCode namespaces the party code, so the same code from two
	// trading systems never collides
	SystemCode string
	Code       string
	Name       string
	Address    party.AddressDescriptor
}

// PartyBinding wires a resolved party onto the root entity. Attach must be
// idempotent and report whether the entity changed.
type PartyBinding[R document.Root] struct {
	Role   string
	Attach func(entity R, partyID *uuid.UUID) bool
}

// DocumentMapper adapts one (trading system, document kind) pair to the
// pipeline. R is the root entity, L its child line type, D the mapper's
// per-line extraction from the document.
//
// All mutation methods report whether they changed anything, so the
// pipeline can skip the save entirely when a re-delivered document is
// byte-for-byte equivalent to current state.
type DocumentMapper[R document.Root, L any, D any] interface {
	Kind() document.Kind

	// BusinessKey derives the cross-system identity of the document.
	// An underivable key makes the document malformed.
	BusinessKey(doc DocumentView) (string, error)

	// Revision extracts the document's monotonic revision
	Revision(doc DocumentView) (document.Revision, error)

	// IsCancellation reports whether the document voids the entity
	// rather than upserting it
	IsCancellation(doc DocumentView) bool

	// New materializes a fresh entity for a business key never seen
	// before
	New(tenantID uuid.UUID, businessKey string, doc DocumentView) (R, error)

	// MutateFields applies header-level fields onto the entity
	MutateFields(ctx context.Context, entity R, doc DocumentView, refs *References) (bool, error)

	// ChildDescriptors extracts the document's line items in document
	// order
	ChildDescriptors(doc DocumentView) ([]D, error)

	// DescriptorKey returns the natural key of a line descriptor
	DescriptorKey(d D) string

	// LineKey returns the natural key of an existing line
	LineKey(line *L) string

	// Lines and SetLines expose the entity's child collection
	Lines(entity R) []L
	SetLines(entity R, lines []L)

	// Protected reports whether downstream state forbids removing the
	// line when the document stops mentioning it. Matched lines are
	// mutated in place regardless.
	Protected(line *L) bool

	// NewLine materializes a line for a descriptor with no existing
	// counterpart
	NewLine(entity R, d D) (*L, error)

	// MutateLine applies a descriptor onto a line
	MutateLine(ctx context.Context, line *L, d D, refs *References) (bool, error)

	// MarkSkipped flags a protected line the document no longer
	// mentions, so it surfaces for manual review
	MarkSkipped(line *L) bool

	// PartyDescriptors extracts the document's parties
	PartyDescriptors(doc DocumentView) []PartyDescriptor

	// PartyBindings declares which roles this mapper may emit and how
	// each attaches to the entity. The pipeline rejects the mapper at
	// construction if roles are duplicated.
	PartyBindings() []PartyBinding[R]
}

// LineOrderer is an optional mapper extension for kinds whose lines carry a
// display position. After reconciliation the pipeline stable-sorts the
// collection with Less and writes positions back through SetOrdinal, so
// ties keep their insertion order.
type LineOrderer[L any] interface {
	Less(a, b *L) bool
	SetOrdinal(line *L, ordinal int) bool
}

// Canceler is an optional mapper extension for kinds that honor
// cancellation documents. Cancel must be idempotent.
type Canceler[R document.Root] interface {
	Cancel(entity R) bool
}
