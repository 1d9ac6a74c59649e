package ingest_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/edibridge/backend/internal/application/ingest"
	"github.com/edibridge/backend/internal/application/mappers/gtnexus"
	"github.com/edibridge/backend/internal/domain/document"
	"github.com/edibridge/backend/internal/infrastructure/docview"
	"github.com/edibridge/backend/internal/infrastructure/lock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type invoiceLineXML struct {
	key    string
	po     string
	poLine int
	qty    string
	price  string
}

func invoiceXML(invoiceNumber string, revision int64, lines ...invoiceLineXML) []byte {
	var b strings.Builder
	b.WriteString("<Invoice>")
	fmt.Fprintf(&b, "<InvoiceNumber>%s</InvoiceNumber>", invoiceNumber)
	fmt.Fprintf(&b, "<LastModified>%d</LastModified>", revision)
	b.WriteString("<Currency>USD</Currency>")
	b.WriteString("<Lines>")
	for _, l := range lines {
		b.WriteString("<Line>")
		fmt.Fprintf(&b, "<Key>%s</Key>", l.key)
		fmt.Fprintf(&b, "<PONumber>%s</PONumber>", l.po)
		fmt.Fprintf(&b, "<POLineNumber>%d</POLineNumber>", l.poLine)
		if l.qty != "" {
			fmt.Fprintf(&b, "<Quantity>%s</Quantity>", l.qty)
		}
		if l.price != "" {
			fmt.Fprintf(&b, "<UnitPrice>%s</UnitPrice>", l.price)
		}
		b.WriteString("</Line>")
	}
	b.WriteString("</Lines></Invoice>")
	return []byte(b.String())
}

func newInvoicePipeline(t *testing.T) (*ingest.Pipeline[*document.Invoice, document.InvoiceLine, gtnexus.InvoiceLineDescriptor], *fakeRepo[*document.Invoice]) {
	t.Helper()
	repo := newFakeRepo(func() *document.Invoice { return &document.Invoice{} })
	p, err := ingest.NewPipeline[*document.Invoice, document.InvoiceLine, gtnexus.InvoiceLineDescriptor](
		gtnexus.NewInvoiceMapper(),
		repo,
		docview.XMLParser{},
		lock.NewMemory(5*time.Second),
	)
	require.NoError(t, err)
	return p, repo
}

func TestInvoicePipeline_LineOrdering(t *testing.T) {
	p, repo := newInvoicePipeline(t)
	tenantID := uuid.New()

	// Lines arrive shuffled relative to their purchase order references.
	result, err := p.Ingest(context.Background(), ingest.RawDocument{
		TenantID:   tenantID,
		SystemCode: gtnexus.SystemCode,
		SourceRef:  "inv-msg-1",
		Body: invoiceXML("INV-1", 100,
			invoiceLineXML{key: "c", po: "PO-2", poLine: 1, qty: "1", price: "3.00"},
			invoiceLineXML{key: "a", po: "PO-1", poLine: 2, qty: "2", price: "1.50"},
			invoiceLineXML{key: "b", po: "PO-1", poLine: 1, qty: "4", price: "0.25"},
		),
	})

	require.NoError(t, err)
	assert.Equal(t, ingest.OutcomeApplied, result.Outcome)

	inv, err := repo.FindByBusinessKey(context.Background(), tenantID, "GTN-INV-1")
	require.NoError(t, err)
	require.Len(t, inv.Lines, 3)

	ordinals := map[string]int{}
	for _, l := range inv.Lines {
		ordinals[l.LineKey] = l.Ordinal
	}
	assert.Equal(t, 1, ordinals["b"], "(PO-1,1) displays first")
	assert.Equal(t, 2, ordinals["a"], "(PO-1,2) displays second")
	assert.Equal(t, 3, ordinals["c"], "(PO-2,1) displays last")
}

func TestInvoicePipeline_TotalAndAmounts(t *testing.T) {
	p, repo := newInvoicePipeline(t)
	tenantID := uuid.New()

	_, err := p.Ingest(context.Background(), ingest.RawDocument{
		TenantID:   tenantID,
		SystemCode: gtnexus.SystemCode,
		SourceRef:  "inv-msg-2",
		Body: invoiceXML("INV-2", 100,
			invoiceLineXML{key: "a", po: "PO-1", poLine: 1, qty: "3", price: "2.50"},
			invoiceLineXML{key: "b", po: "PO-1", poLine: 2, qty: "10", price: "0.10"},
		),
	})
	require.NoError(t, err)

	inv, err := repo.FindByBusinessKey(context.Background(), tenantID, "GTN-INV-2")
	require.NoError(t, err)
	assert.True(t, inv.TotalAmount.Equal(decimal.RequireFromString("8.50")),
		"total is the sum of line amounts")
}

func TestInvoicePipeline_CancellationIgnored(t *testing.T) {
	p, repo := newInvoicePipeline(t)
	tenantID := uuid.New()

	_, err := p.Ingest(context.Background(), ingest.RawDocument{
		TenantID:   tenantID,
		SystemCode: gtnexus.SystemCode,
		SourceRef:  "inv-msg-3",
		Body:       invoiceXML("INV-3", 100, invoiceLineXML{key: "a", po: "PO-1", poLine: 1, qty: "1", price: "1.00"}),
	})
	require.NoError(t, err)

	result, err := p.Ingest(context.Background(), ingest.RawDocument{
		TenantID:   tenantID,
		SystemCode: gtnexus.SystemCode,
		SourceRef:  "inv-msg-4",
		Body:       []byte(`<Invoice><InvoiceNumber>INV-3</InvoiceNumber><LastModified>101</LastModified><Status>Cancelled</Status></Invoice>`),
	})

	require.NoError(t, err)
	assert.Equal(t, ingest.OutcomeCancelIgnored, result.Outcome, "invoices do not honor cancellation")

	inv, err := repo.FindByBusinessKey(context.Background(), tenantID, "GTN-INV-3")
	require.NoError(t, err)
	assert.Len(t, inv.Lines, 1, "the invoice is untouched")
}
