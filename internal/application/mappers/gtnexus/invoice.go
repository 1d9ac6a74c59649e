package gtnexus

import (
	"context"
	"strconv"

	"github.com/edibridge/backend/internal/application/ingest"
	"github.com/edibridge/backend/internal/domain/document"
	"github.com/google/uuid"
)

// InvoiceLineDescriptor is one Line element of a GT Nexus invoice document
type InvoiceLineDescriptor struct {
	LineKey      string
	PONumber     string
	POLineNumber int
	Sku          string
	Quantity     string
	UnitPrice    string
}

// InvoiceMapper maps GT Nexus invoice documents onto invoices. Invoices do
// not honor cancellation documents; a cancellation for an invoice is
// acknowledged and dropped.
type InvoiceMapper struct{}

// NewInvoiceMapper creates an invoice mapper
func NewInvoiceMapper() *InvoiceMapper {
	return &InvoiceMapper{}
}

// Kind implements ingest.DocumentMapper
func (m *InvoiceMapper) Kind() document.Kind {
	return document.KindInvoice
}

// BusinessKey implements ingest.DocumentMapper
func (m *InvoiceMapper) BusinessKey(doc ingest.DocumentView) (string, error) {
	return businessKey(doc, "InvoiceNumber")
}

// Revision implements ingest.DocumentMapper
func (m *InvoiceMapper) Revision(doc ingest.DocumentView) (document.Revision, error) {
	return revision(doc, "LastModified")
}

// IsCancellation implements ingest.DocumentMapper
func (m *InvoiceMapper) IsCancellation(doc ingest.DocumentView) bool {
	return isCancellation(doc)
}

// New implements ingest.DocumentMapper
func (m *InvoiceMapper) New(tenantID uuid.UUID, key string, doc ingest.DocumentView) (*document.Invoice, error) {
	return document.NewInvoice(tenantID, key, doc.Text("InvoiceNumber"))
}

// MutateFields implements ingest.DocumentMapper
func (m *InvoiceMapper) MutateFields(ctx context.Context, inv *document.Invoice, doc ingest.DocumentView, refs *ingest.References) (bool, error) {
	invoiceDate, err := parseDate(doc, "InvoiceDate")
	if err != nil {
		return false, err
	}
	changed := inv.UpdateInvoiceDate(invoiceDate)
	changed = inv.UpdateCurrency(doc.Text("Currency")) || changed
	return changed, nil
}

// ChildDescriptors implements ingest.DocumentMapper
func (m *InvoiceMapper) ChildDescriptors(doc ingest.DocumentView) ([]InvoiceLineDescriptor, error) {
	lines := doc.All("Lines/Line")
	out := make([]InvoiceLineDescriptor, 0, len(lines))
	for _, l := range lines {
		poLine, _ := strconv.Atoi(l.Text("POLineNumber"))
		out = append(out, InvoiceLineDescriptor{
			LineKey:      l.Text("Key"),
			PONumber:     l.Text("PONumber"),
			POLineNumber: poLine,
			Sku:          l.Text("Sku"),
			Quantity:     l.Text("Quantity"),
			UnitPrice:    l.Text("UnitPrice"),
		})
	}
	return out, nil
}

// DescriptorKey implements ingest.DocumentMapper
func (m *InvoiceMapper) DescriptorKey(d InvoiceLineDescriptor) string {
	return d.LineKey
}

// LineKey implements ingest.DocumentMapper
func (m *InvoiceMapper) LineKey(line *document.InvoiceLine) string {
	return line.Key()
}

// Lines implements ingest.DocumentMapper
func (m *InvoiceMapper) Lines(inv *document.Invoice) []document.InvoiceLine {
	return inv.Lines
}

// SetLines implements ingest.DocumentMapper
func (m *InvoiceMapper) SetLines(inv *document.Invoice, lines []document.InvoiceLine) {
	inv.ReplaceLines(lines)
}

// Protected implements ingest.DocumentMapper
func (m *InvoiceMapper) Protected(line *document.InvoiceLine) bool {
	return false
}

// NewLine implements ingest.DocumentMapper
func (m *InvoiceMapper) NewLine(inv *document.Invoice, d InvoiceLineDescriptor) (*document.InvoiceLine, error) {
	return document.NewInvoiceLine(inv.GetID(), d.LineKey)
}

// MutateLine implements ingest.DocumentMapper
func (m *InvoiceMapper) MutateLine(ctx context.Context, line *document.InvoiceLine, d InvoiceLineDescriptor, refs *ingest.References) (bool, error) {
	changed := line.UpdatePORef(d.PONumber, d.POLineNumber)
	changed = line.UpdateSku(d.Sku) || changed

	productID, err := refs.Products.ProductID(ctx, d.Sku)
	if err != nil {
		return changed, err
	}
	changed = line.UpdateProduct(productID) || changed

	qty, qok, err := parseOptionalDecimal(d.Quantity)
	if err != nil {
		return changed, err
	}
	price, pok, err := parseOptionalDecimal(d.UnitPrice)
	if err != nil {
		return changed, err
	}
	if qok && pok {
		c, err := line.UpdateBilling(qty, price)
		if err != nil {
			return changed, err
		}
		changed = c || changed
	}
	return changed, nil
}

// MarkSkipped implements ingest.DocumentMapper
func (m *InvoiceMapper) MarkSkipped(line *document.InvoiceLine) bool {
	return false
}

// PartyDescriptors implements ingest.DocumentMapper
func (m *InvoiceMapper) PartyDescriptors(doc ingest.DocumentView) []ingest.PartyDescriptor {
	return partyDescriptors(doc)
}

// PartyBindings implements ingest.DocumentMapper
func (m *InvoiceMapper) PartyBindings() []ingest.PartyBinding[*document.Invoice] {
	return []ingest.PartyBinding[*document.Invoice]{
		{Role: "Seller", Attach: func(inv *document.Invoice, id *uuid.UUID) bool { return inv.SetSeller(id) }},
		{Role: "Buyer", Attach: func(inv *document.Invoice, id *uuid.UUID) bool { return inv.SetBuyer(id) }},
	}
}

// Less implements ingest.LineOrderer: invoice lines display in purchase
// order, then line number order
func (m *InvoiceMapper) Less(a, b *document.InvoiceLine) bool {
	if a.PONumber != b.PONumber {
		return a.PONumber < b.PONumber
	}
	return a.POLineNumber < b.POLineNumber
}

// SetOrdinal implements ingest.LineOrderer
func (m *InvoiceMapper) SetOrdinal(line *document.InvoiceLine, ordinal int) bool {
	return line.SetOrdinal(ordinal)
}

var _ ingest.DocumentMapper[*document.Invoice, document.InvoiceLine, InvoiceLineDescriptor] = (*InvoiceMapper)(nil)
var _ ingest.LineOrderer[document.InvoiceLine] = (*InvoiceMapper)(nil)
