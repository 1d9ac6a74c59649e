package document

import (
	"strconv"
	"strings"
	"time"

	"github.com/edibridge/backend/internal/domain/shared"
)

// Revision is a monotonically comparable marker used to discard stale or
// out-of-order documents. Upstream platforms supply either a sequence number
// or a last-modified timestamp; timestamps are folded into the same number
// space as Unix nanoseconds so one comparison rule covers both.
//
// Zero means "no revision applied yet": any incoming revision is accepted.
type Revision int64

// RevisionFromTime converts a document timestamp into a revision marker
func RevisionFromTime(t time.Time) Revision {
	if t.IsZero() {
		return 0
	}
	return Revision(t.UnixNano())
}

// ParseRevision parses a numeric revision string as sent by upstream systems
func ParseRevision(s string) (Revision, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, shared.NewDomainError("INVALID_REVISION", "Revision value is empty")
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, shared.NewDomainError("INVALID_REVISION", "Revision value is not numeric: "+s)
	}
	if n < 0 {
		return 0, shared.NewDomainError("INVALID_REVISION", "Revision value is negative: "+s)
	}
	return Revision(n), nil
}

// IsZero reports whether no revision has been applied
func (r Revision) IsZero() bool {
	return r == 0
}

// Accepts reports whether a document carrying incoming may be applied on top
// of the current revision. Equal revisions are rejected: re-delivery of the
// same document must be a no-op.
func (r Revision) Accepts(incoming Revision) bool {
	return r == 0 || incoming > r
}

// String returns the decimal representation
func (r Revision) String() string {
	return strconv.FormatInt(int64(r), 10)
}
