package shared

// ChangeTracker records whether any field of an entity changed during a
// mutation pass. Persistence and audit emission are gated on it: a document
// that mutates nothing produces no new row version and no audit record.
//
// It is not safe for concurrent use; one tracker belongs to one document
// processing pass, which runs under the entity's keyed lock.
type ChangeTracker struct {
	changed bool
}

// NewChangeTracker returns a tracker with no changes recorded
func NewChangeTracker() *ChangeTracker {
	return &ChangeTracker{}
}

// Mark records that a change happened
func (t *ChangeTracker) Mark() {
	t.changed = true
}

// MarkIf records a change when cond is true and returns cond, so mutation
// helpers can be chained: tracker.MarkIf(setField(...))
func (t *ChangeTracker) MarkIf(cond bool) bool {
	if cond {
		t.changed = true
	}
	return cond
}

// Changed reports whether any change was recorded
func (t *ChangeTracker) Changed() bool {
	return t.changed
}

// Reset clears the tracker for reuse
func (t *ChangeTracker) Reset() {
	t.changed = false
}
