package gtnexus

import (
	"context"
	"strconv"

	"github.com/edibridge/backend/internal/application/ingest"
	"github.com/edibridge/backend/internal/domain/document"
	"github.com/google/uuid"
)

// OrderLineDescriptor is one Line element of a GT Nexus order document.
// Numeric fields stay raw until mutation, so a bad value surfaces as a
// violation on its own line instead of poisoning the whole document.
type OrderLineDescriptor struct {
	Number      int
	Sku         string
	Description string
	Quantity    string
	UnitPrice   string
	UOM         string
	HTSCode     string
}

// OrderMapper maps GT Nexus order documents onto purchase orders
type OrderMapper struct{}

// NewOrderMapper creates an order mapper
func NewOrderMapper() *OrderMapper {
	return &OrderMapper{}
}

// Kind implements ingest.DocumentMapper
func (m *OrderMapper) Kind() document.Kind {
	return document.KindOrder
}

// BusinessKey implements ingest.DocumentMapper
func (m *OrderMapper) BusinessKey(doc ingest.DocumentView) (string, error) {
	return businessKey(doc, "OrderNumber")
}

// Revision implements ingest.DocumentMapper
func (m *OrderMapper) Revision(doc ingest.DocumentView) (document.Revision, error) {
	return revision(doc, "LastModified")
}

// IsCancellation implements ingest.DocumentMapper
func (m *OrderMapper) IsCancellation(doc ingest.DocumentView) bool {
	return isCancellation(doc)
}

// New implements ingest.DocumentMapper
func (m *OrderMapper) New(tenantID uuid.UUID, key string, doc ingest.DocumentView) (*document.Order, error) {
	return document.NewOrder(tenantID, key, doc.Text("OrderNumber"))
}

// MutateFields implements ingest.DocumentMapper
func (m *OrderMapper) MutateFields(ctx context.Context, o *document.Order, doc ingest.DocumentView, refs *ingest.References) (bool, error) {
	changed := false

	orderDate, err := parseDate(doc, "OrderDate")
	if err != nil {
		return changed, err
	}
	changed = o.UpdateOrderDate(orderDate) || changed

	start, err := parseDate(doc, "ShipWindow/Start")
	if err != nil {
		return changed, err
	}
	end, err := parseDate(doc, "ShipWindow/End")
	if err != nil {
		return changed, err
	}
	changed = o.UpdateShipWindow(start, end) || changed

	changed = o.UpdateCurrency(doc.Text("Currency")) || changed
	changed = o.UpdateIncoTerms(doc.Text("IncoTerms")) || changed
	changed = o.UpdateSeason(doc.Text("Season")) || changed
	changed = o.UpdateDivision(doc.Text("Division")) || changed

	// The feed reopens orders by re-sending them without the closed
	// status.
	if o.Status == document.OrderStatusClosed && !doc.Exists("Closed") {
		changed = o.Reopen() || changed
	}
	return changed, nil
}

// ChildDescriptors implements ingest.DocumentMapper
func (m *OrderMapper) ChildDescriptors(doc ingest.DocumentView) ([]OrderLineDescriptor, error) {
	lines := doc.All("Lines/Line")
	out := make([]OrderLineDescriptor, 0, len(lines))
	for _, l := range lines {
		number, _ := strconv.Atoi(l.Text("Number"))
		out = append(out, OrderLineDescriptor{
			Number:      number,
			Sku:         l.Text("Sku"),
			Description: l.Text("Description"),
			Quantity:    l.Text("Quantity"),
			UnitPrice:   l.Text("UnitPrice"),
			UOM:         l.Text("UOM"),
			HTSCode:     l.Text("HTSCode"),
		})
	}
	return out, nil
}

// DescriptorKey implements ingest.DocumentMapper
func (m *OrderMapper) DescriptorKey(d OrderLineDescriptor) string {
	if d.Number <= 0 {
		return ""
	}
	return strconv.Itoa(d.Number)
}

// LineKey implements ingest.DocumentMapper
func (m *OrderMapper) LineKey(line *document.OrderLine) string {
	return line.Key()
}

// Lines implements ingest.DocumentMapper
func (m *OrderMapper) Lines(o *document.Order) []document.OrderLine {
	return o.Lines
}

// SetLines implements ingest.DocumentMapper
func (m *OrderMapper) SetLines(o *document.Order, lines []document.OrderLine) {
	o.ReplaceLines(lines)
}

// Protected implements ingest.DocumentMapper
func (m *OrderMapper) Protected(line *document.OrderLine) bool {
	return line.IsProtected()
}

// NewLine implements ingest.DocumentMapper
func (m *OrderMapper) NewLine(o *document.Order, d OrderLineDescriptor) (*document.OrderLine, error) {
	return document.NewOrderLine(o.GetID(), d.Number)
}

// MutateLine implements ingest.DocumentMapper
func (m *OrderMapper) MutateLine(ctx context.Context, line *document.OrderLine, d OrderLineDescriptor, refs *ingest.References) (bool, error) {
	changed := line.UpdateSku(d.Sku)
	changed = line.UpdateDescription(d.Description) || changed
	changed = line.UpdateUnitOfMeasure(d.UOM) || changed
	changed = line.UpdateHTSCode(d.HTSCode) || changed

	productID, err := refs.Products.ProductID(ctx, d.Sku)
	if err != nil {
		return changed, err
	}
	changed = line.UpdateProduct(productID) || changed

	if qty, ok, err := parseOptionalDecimal(d.Quantity); err != nil {
		return changed, err
	} else if ok {
		c, err := line.UpdateQuantity(qty)
		if err != nil {
			return changed, err
		}
		changed = c || changed
	}

	if price, ok, err := parseOptionalDecimal(d.UnitPrice); err != nil {
		return changed, err
	} else if ok {
		c, err := line.UpdateUnitPrice(price)
		if err != nil {
			return changed, err
		}
		changed = c || changed
	}
	return changed, nil
}

// MarkSkipped implements ingest.DocumentMapper
func (m *OrderMapper) MarkSkipped(line *document.OrderLine) bool {
	return line.FlagForReview()
}

// PartyDescriptors implements ingest.DocumentMapper
func (m *OrderMapper) PartyDescriptors(doc ingest.DocumentView) []ingest.PartyDescriptor {
	return partyDescriptors(doc)
}

// PartyBindings implements ingest.DocumentMapper
func (m *OrderMapper) PartyBindings() []ingest.PartyBinding[*document.Order] {
	return []ingest.PartyBinding[*document.Order]{
		{Role: "Vendor", Attach: func(o *document.Order, id *uuid.UUID) bool { return o.SetVendor(id) }},
		{Role: "Factory", Attach: func(o *document.Order, id *uuid.UUID) bool { return o.SetFactory(id) }},
		{Role: "Agent", Attach: func(o *document.Order, id *uuid.UUID) bool { return o.SetAgent(id) }},
	}
}

// Cancel implements ingest.Canceler
func (m *OrderMapper) Cancel(o *document.Order) bool {
	return o.Cancel()
}

var _ ingest.DocumentMapper[*document.Order, document.OrderLine, OrderLineDescriptor] = (*OrderMapper)(nil)
var _ ingest.Canceler[*document.Order] = (*OrderMapper)(nil)
