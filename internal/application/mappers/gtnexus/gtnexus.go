// Package gtnexus maps GT Nexus XML documents onto the reconciliation
// pipeline. One mapper exists per document kind; all three share the same
// revision, date and party conventions.
package gtnexus

import (
	"strings"
	"time"

	"github.com/edibridge/backend/internal/application/ingest"
	"github.com/edibridge/backend/internal/domain/document"
	"github.com/edibridge/backend/internal/domain/party"
	"github.com/edibridge/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// SystemCode identifies the GT Nexus feed in business keys and party
// namespaces
const SystemCode = "GTN"

// revision accepts either a numeric revision or an RFC 3339 modification
// timestamp, which the feed switched to in later document versions
func revision(doc ingest.DocumentView, path string) (document.Revision, error) {
	raw := doc.Text(path)
	if raw == "" {
		return 0, shared.NewDomainError("MISSING_REVISION", "document has no "+path)
	}
	if rev, err := document.ParseRevision(raw); err == nil {
		return rev, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return 0, shared.NewDomainError("INVALID_REVISION", "unreadable "+path+" value "+raw)
	}
	return document.RevisionFromTime(t), nil
}

// businessKey derives the cross-system key from a document number element
func businessKey(doc ingest.DocumentView, path string) (string, error) {
	return document.NewBusinessKey(SystemCode, doc.Text(path))
}

// isCancellation matches the feed's status values that void a document
func isCancellation(doc ingest.DocumentView) bool {
	status := doc.Text("Status")
	return strings.EqualFold(status, "cancelled") || strings.EqualFold(status, "canceled")
}

// parseOptionalDecimal reads an already-extracted decimal value. Empty
// strings return ok=false.
func parseOptionalDecimal(raw string) (decimal.Decimal, bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, false, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false, shared.NewDomainError("INVALID_NUMBER", "unreadable number "+raw)
	}
	return d, true, nil
}

// parseDate reads an optional date element in the feed's YYYY-MM-DD form
func parseDate(doc ingest.DocumentView, path string) (*time.Time, error) {
	raw := doc.Text(path)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_DATE", "unreadable date "+raw+" at "+path)
	}
	return &t, nil
}

// partyDescriptors extracts every Parties/Party element. Unknown roles are
// passed through; the pipeline rejects roles the mapper did not declare.
func partyDescriptors(doc ingest.DocumentView) []ingest.PartyDescriptor {
	var out []ingest.PartyDescriptor
	for _, p := range doc.All("Parties/Party") {
		out = append(out, ingest.PartyDescriptor{
			Role:       p.Text("Role"),
			SystemCode: SystemCode,
			Code:       p.Text("Code"),
			Name:       p.Text("Name"),
			Address: party.AddressDescriptor{
				SystemCode: SystemCode,
				Role:       party.AddressRoleMain,
				Name:       p.Text("Address/Name"),
				Street1:    p.Text("Address/Street1"),
				Street2:    p.Text("Address/Street2"),
				City:       p.Text("Address/City"),
				State:      p.Text("Address/State"),
				PostalCode: p.Text("Address/PostalCode"),
				Country:    p.Text("Address/Country"),
			},
		})
	}
	return out
}
