// Package document holds the canonical representation of trading-partner
// business documents: orders, shipments and invoices, each keyed by an
// externally meaningful business key and versioned by a monotonic revision
// marker. Incoming EDI documents are reconciled into these aggregates by the
// ingest pipeline; the aggregates themselves know nothing about XML or
// customer-specific field layouts.
package document
