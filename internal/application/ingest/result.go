package ingest

import (
	"github.com/edibridge/backend/internal/domain/document"
)

// Outcome classifies how the pipeline disposed of a document
type Outcome string

const (
	// OutcomeApplied means the entity was created or mutated and saved
	OutcomeApplied Outcome = "APPLIED"
	// OutcomeUnchanged means the document matched current state exactly,
	// so nothing was written
	OutcomeUnchanged Outcome = "UNCHANGED"
	// OutcomeStale means the document's revision did not beat the stored
	// one; the document was silently discarded
	OutcomeStale Outcome = "STALE"
	// OutcomeCancelApplied means a cancellation document voided the
	// entity
	OutcomeCancelApplied Outcome = "CANCEL_APPLIED"
	// OutcomeCancelIgnored means a cancellation arrived for an entity
	// that does not exist or whose kind does not honor cancellation
	OutcomeCancelIgnored Outcome = "CANCEL_IGNORED"
)

// Result reports what one ingestion did
type Result struct {
	Outcome     Outcome
	Kind        document.Kind
	BusinessKey string
	Revision    document.Revision
	Created     bool
	// LinesCreated and LinesUpdated count child mutations actually
	// applied
	LinesCreated int
	LinesUpdated int
	// SkippedLineKeys lists protected lines whose incoming data was
	// discarded and flagged for review
	SkippedLineKeys []string
}

// Changed reports whether the ingestion wrote anything
func (r *Result) Changed() bool {
	return r.Outcome == OutcomeApplied || r.Outcome == OutcomeCancelApplied
}
