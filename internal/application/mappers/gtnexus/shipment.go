package gtnexus

import (
	"context"
	"errors"
	"strconv"

	"github.com/edibridge/backend/internal/application/ingest"
	"github.com/edibridge/backend/internal/domain/document"
	"github.com/edibridge/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ShipmentLineDescriptor is one Container/Item element of a GT Nexus
// shipment document
type ShipmentLineDescriptor struct {
	ContainerNumber string
	Sequence        int
	OrderNumber     string
	OrderLineNumber int
	Sku             string
	Quantity        string
	CartonCount     string
	GrossWeightKG   string
}

// ShipmentMapper maps GT Nexus shipment documents onto shipments
type ShipmentMapper struct{}

// NewShipmentMapper creates a shipment mapper
func NewShipmentMapper() *ShipmentMapper {
	return &ShipmentMapper{}
}

// Kind implements ingest.DocumentMapper
func (m *ShipmentMapper) Kind() document.Kind {
	return document.KindShipment
}

// BusinessKey implements ingest.DocumentMapper
func (m *ShipmentMapper) BusinessKey(doc ingest.DocumentView) (string, error) {
	return businessKey(doc, "ShipmentNumber")
}

// Revision implements ingest.DocumentMapper
func (m *ShipmentMapper) Revision(doc ingest.DocumentView) (document.Revision, error) {
	return revision(doc, "LastModified")
}

// IsCancellation implements ingest.DocumentMapper
func (m *ShipmentMapper) IsCancellation(doc ingest.DocumentView) bool {
	return isCancellation(doc)
}

// New implements ingest.DocumentMapper
func (m *ShipmentMapper) New(tenantID uuid.UUID, key string, doc ingest.DocumentView) (*document.Shipment, error) {
	return document.NewShipment(tenantID, key, doc.Text("ShipmentNumber"))
}

// MutateFields implements ingest.DocumentMapper
func (m *ShipmentMapper) MutateFields(ctx context.Context, s *document.Shipment, doc ingest.DocumentView, refs *ingest.References) (bool, error) {
	changed := s.UpdateVessel(doc.Text("Vessel/Name"), doc.Text("Vessel/Voyage"))
	changed = s.UpdateModeOfTransport(doc.Text("ModeOfTransport")) || changed
	changed = s.UpdatePorts(doc.Text("PortOfLading"), doc.Text("PortOfDischarge")) || changed

	etd, err := parseDate(doc, "ETD")
	if err != nil {
		return changed, err
	}
	eta, err := parseDate(doc, "ETA")
	if err != nil {
		return changed, err
	}
	changed = s.UpdateSchedule(etd, eta) || changed
	return changed, nil
}

// ChildDescriptors flattens Containers/Container/Items/Item into line
// descriptors, numbering items within each container in document order
func (m *ShipmentMapper) ChildDescriptors(doc ingest.DocumentView) ([]ShipmentLineDescriptor, error) {
	var out []ShipmentLineDescriptor
	for _, c := range doc.All("Containers/Container") {
		container := c.Text("Number")
		for seq, item := range c.All("Items/Item") {
			orderLine, _ := strconv.Atoi(item.Text("OrderLineNumber"))
			out = append(out, ShipmentLineDescriptor{
				ContainerNumber: container,
				Sequence:        seq + 1,
				OrderNumber:     item.Text("OrderNumber"),
				OrderLineNumber: orderLine,
				Sku:             item.Text("Sku"),
				Quantity:        item.Text("Quantity"),
				CartonCount:     item.Text("CartonCount"),
				GrossWeightKG:   item.Text("GrossWeightKG"),
			})
		}
	}
	return out, nil
}

// DescriptorKey implements ingest.DocumentMapper
func (m *ShipmentMapper) DescriptorKey(d ShipmentLineDescriptor) string {
	if d.ContainerNumber == "" {
		return ""
	}
	return document.ShipmentLineKey(d.ContainerNumber, d.Sequence)
}

// LineKey implements ingest.DocumentMapper
func (m *ShipmentMapper) LineKey(line *document.ShipmentLine) string {
	return line.Key()
}

// Lines implements ingest.DocumentMapper
func (m *ShipmentMapper) Lines(s *document.Shipment) []document.ShipmentLine {
	return s.Lines
}

// SetLines implements ingest.DocumentMapper
func (m *ShipmentMapper) SetLines(s *document.Shipment, lines []document.ShipmentLine) {
	s.ReplaceLines(lines)
}

// Protected implements ingest.DocumentMapper. Shipment lines have no
// downstream state of their own; the feed is authoritative for them.
func (m *ShipmentMapper) Protected(line *document.ShipmentLine) bool {
	return false
}

// NewLine implements ingest.DocumentMapper
func (m *ShipmentMapper) NewLine(s *document.Shipment, d ShipmentLineDescriptor) (*document.ShipmentLine, error) {
	return document.NewShipmentLine(s.GetID(), d.ContainerNumber, d.Sequence)
}

// MutateLine implements ingest.DocumentMapper. Lines referencing an order
// must name one this tenant actually has open; the shipped flag on the
// matching order line is maintained by a separate propagation job, not here.
func (m *ShipmentMapper) MutateLine(ctx context.Context, line *document.ShipmentLine, d ShipmentLineDescriptor, refs *ingest.References) (bool, error) {
	if d.OrderNumber != "" && refs.FindOrder != nil {
		if _, err := refs.FindOrder(ctx, d.OrderNumber); err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return false, shared.NewDomainError("UNKNOWN_ORDER",
					"shipment references unknown open order "+d.OrderNumber)
			}
			return false, err
		}
	}

	changed := line.UpdateOrderRef(d.OrderNumber, d.OrderLineNumber)
	changed = line.UpdateSku(d.Sku) || changed

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

	if d.CartonCount != "" {
		cartons, err := strconv.Atoi(d.CartonCount)
		if err != nil {
			return changed, shared.NewDomainError("INVALID_NUMBER", "unreadable carton count "+d.CartonCount)
		}
		c, err := line.UpdateCartonCount(cartons)
		if err != nil {
			return changed, err
		}
		changed = c || changed
	}

	if weight, ok, err := parseOptionalDecimal(d.GrossWeightKG); err != nil {
		return changed, err
	} else if ok {
		c, err := line.UpdateGrossWeight(weight)
		if err != nil {
			return changed, err
		}
		changed = c || changed
	}
	return changed, nil
}

// MarkSkipped implements ingest.DocumentMapper; unreachable while Protected
// always reports false
func (m *ShipmentMapper) MarkSkipped(line *document.ShipmentLine) bool {
	return false
}

// PartyDescriptors implements ingest.DocumentMapper
func (m *ShipmentMapper) PartyDescriptors(doc ingest.DocumentView) []ingest.PartyDescriptor {
	return partyDescriptors(doc)
}

// PartyBindings implements ingest.DocumentMapper
func (m *ShipmentMapper) PartyBindings() []ingest.PartyBinding[*document.Shipment] {
	return []ingest.PartyBinding[*document.Shipment]{
		{Role: "Carrier", Attach: func(s *document.Shipment, id *uuid.UUID) bool { return s.SetCarrier(id) }},
		{Role: "Consignee", Attach: func(s *document.Shipment, id *uuid.UUID) bool { return s.SetConsignee(id) }},
	}
}

// Cancel implements ingest.Canceler
func (m *ShipmentMapper) Cancel(s *document.Shipment) bool {
	return s.Cancel()
}

var _ ingest.DocumentMapper[*document.Shipment, document.ShipmentLine, ShipmentLineDescriptor] = (*ShipmentMapper)(nil)
var _ ingest.Canceler[*document.Shipment] = (*ShipmentMapper)(nil)
