package document

import (
	"fmt"
	"time"

	"github.com/edibridge/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ShipmentStatus represents the lifecycle status of a shipment
type ShipmentStatus string

const (
	ShipmentStatusOpen     ShipmentStatus = "OPEN"
	ShipmentStatusCanceled ShipmentStatus = "CANCELED"
)

// IsValid checks if the status is a valid ShipmentStatus
func (s ShipmentStatus) IsValid() bool {
	return s == ShipmentStatusOpen || s == ShipmentStatusCanceled
}

// String returns the string representation of ShipmentStatus
func (s ShipmentStatus) String() string {
	return string(s)
}

// ShipmentLine is a packed line on an advance ship notice, keyed by
// (container, sequence). Upstream sends complete snapshots per document, so
// shipment lines are rebuilt on every accepted revision and carry no
// protection.
type ShipmentLine struct {
	ID              uuid.UUID       `gorm:"type:uuid;primary_key"`
	ShipmentID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	ContainerNumber string          `gorm:"type:varchar(20);not null"`
	Sequence        int             `gorm:"not null"`
	OrderNumber     string          `gorm:"type:varchar(50)"`
	OrderLineNumber int             `gorm:"not null;default:0"`
	Sku             string          `gorm:"type:varchar(100)"`
	ProductID       *uuid.UUID      `gorm:"type:uuid;index"`
	Quantity        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	CartonCount     int             `gorm:"not null;default:0"`
	GrossWeightKG   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	CreatedAt       time.Time       `gorm:"not null"`
	UpdatedAt       time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ShipmentLine) TableName() string {
	return "shipment_lines"
}

// NewShipmentLine creates a bare packed line for the given container and
// sequence
func NewShipmentLine(shipmentID uuid.UUID, containerNumber string, sequence int) (*ShipmentLine, error) {
	if containerNumber == "" {
		return nil, shared.NewDomainError("INVALID_CONTAINER", "Container number cannot be empty")
	}
	if sequence <= 0 {
		return nil, shared.NewDomainError("INVALID_SEQUENCE", "Line sequence must be positive")
	}
	now := time.Now()
	return &ShipmentLine{
		ID:              uuid.New(),
		ShipmentID:      shipmentID,
		ContainerNumber: containerNumber,
		Sequence:        sequence,
		Quantity:        decimal.Zero,
		GrossWeightKG:   decimal.Zero,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// Key returns the natural key of the packed line within its parent
func (l *ShipmentLine) Key() string {
	return fmt.Sprintf("%s-%d", l.ContainerNumber, l.Sequence)
}

// ShipmentLineKey builds the natural key from its parts, matching Key
func ShipmentLineKey(containerNumber string, sequence int) string {
	return fmt.Sprintf("%s-%d", containerNumber, sequence)
}

// UpdateOrderRef sets the order reference the packed line fulfils
func (l *ShipmentLine) UpdateOrderRef(orderNumber string, orderLineNumber int) bool {
	if l.OrderNumber == orderNumber && l.OrderLineNumber == orderLineNumber {
		return false
	}
	l.OrderNumber = orderNumber
	l.OrderLineNumber = orderLineNumber
	l.UpdatedAt = time.Now()
	return true
}

// UpdateSku sets the vendor SKU
func (l *ShipmentLine) UpdateSku(sku string) bool {
	if l.Sku == sku {
		return false
	}
	l.Sku = sku
	l.UpdatedAt = time.Now()
	return true
}

// UpdateProduct links the line to resolved product reference data
func (l *ShipmentLine) UpdateProduct(productID *uuid.UUID) bool {
	if equalUUIDPtr(l.ProductID, productID) {
		return false
	}
	l.ProductID = productID
	l.UpdatedAt = time.Now()
	return true
}

// UpdateQuantity sets the shipped quantity
func (l *ShipmentLine) UpdateQuantity(qty decimal.Decimal) (bool, error) {
	if qty.IsNegative() {
		return false, shared.NewDomainError("INVALID_QUANTITY", "Quantity cannot be negative")
	}
	if l.Quantity.Equal(qty) {
		return false, nil
	}
	l.Quantity = qty
	l.UpdatedAt = time.Now()
	return true, nil
}

// UpdateCartonCount sets the carton count
func (l *ShipmentLine) UpdateCartonCount(cartons int) (bool, error) {
	if cartons < 0 {
		return false, shared.NewDomainError("INVALID_CARTON_COUNT", "Carton count cannot be negative")
	}
	if l.CartonCount == cartons {
		return false, nil
	}
	l.CartonCount = cartons
	l.UpdatedAt = time.Now()
	return true, nil
}

// UpdateGrossWeight sets the gross weight in kilograms
func (l *ShipmentLine) UpdateGrossWeight(kg decimal.Decimal) (bool, error) {
	if kg.IsNegative() {
		return false, shared.NewDomainError("INVALID_WEIGHT", "Gross weight cannot be negative")
	}
	if l.GrossWeightKG.Equal(kg) {
		return false, nil
	}
	l.GrossWeightKG = kg
	l.UpdatedAt = time.Now()
	return true, nil
}

// Shipment is the canonical representation of an advance ship notice
type Shipment struct {
	Base
	ShipmentNumber string         `gorm:"type:varchar(50);not null;index"`
	Status         ShipmentStatus `gorm:"type:varchar(20);not null;default:'OPEN'"`
	VesselName     string         `gorm:"type:varchar(100)"`
	VoyageNumber   string         `gorm:"type:varchar(50)"`
	ModeOfTransport string        `gorm:"type:varchar(20)"`
	PortOfLading   string         `gorm:"type:varchar(100)"`
	PortOfDischarge string        `gorm:"type:varchar(100)"`
	ETD            *time.Time
	ETA            *time.Time
	CarrierID      *uuid.UUID     `gorm:"type:uuid;index"`
	ConsigneeID    *uuid.UUID     `gorm:"type:uuid"`
	Lines          []ShipmentLine `gorm:"foreignKey:ShipmentID;references:ID"`
}

// TableName returns the table name for GORM
func (Shipment) TableName() string {
	return "shipments"
}

// NewShipment creates a new open shipment for a business key
func NewShipment(tenantID uuid.UUID, businessKey, shipmentNumber string) (*Shipment, error) {
	if businessKey == "" {
		return nil, shared.NewDomainError("INVALID_BUSINESS_KEY", "Business key cannot be empty")
	}
	if shipmentNumber == "" {
		return nil, shared.NewDomainError("INVALID_SHIPMENT_NUMBER", "Shipment number cannot be empty")
	}
	shipment := &Shipment{
		Base:           NewBase(tenantID, businessKey),
		ShipmentNumber: shipmentNumber,
		Status:         ShipmentStatusOpen,
		Lines:          make([]ShipmentLine, 0),
	}
	shipment.AddDomainEvent(NewShipmentCreatedEvent(shipment))
	return shipment, nil
}

// Kind returns the root entity kind
func (s *Shipment) Kind() Kind {
	return KindShipment
}

// Cancel transitions the shipment to canceled, idempotently
func (s *Shipment) Cancel() bool {
	if s.Status == ShipmentStatusCanceled {
		return false
	}
	s.Status = ShipmentStatusCanceled
	s.Touch()
	s.IncrementVersion()
	s.AddDomainEvent(NewShipmentCanceledEvent(s))
	return true
}

// IsCanceled reports whether the shipment is canceled
func (s *Shipment) IsCanceled() bool {
	return s.Status == ShipmentStatusCanceled
}

// UpdateVessel sets the vessel and voyage
func (s *Shipment) UpdateVessel(vessel, voyage string) bool {
	if s.VesselName == vessel && s.VoyageNumber == voyage {
		return false
	}
	s.VesselName = vessel
	s.VoyageNumber = voyage
	s.Touch()
	return true
}

// UpdateModeOfTransport sets the transport mode
func (s *Shipment) UpdateModeOfTransport(mode string) bool {
	if s.ModeOfTransport == mode {
		return false
	}
	s.ModeOfTransport = mode
	s.Touch()
	return true
}

// UpdatePorts sets the ports of lading and discharge
func (s *Shipment) UpdatePorts(lading, discharge string) bool {
	if s.PortOfLading == lading && s.PortOfDischarge == discharge {
		return false
	}
	s.PortOfLading = lading
	s.PortOfDischarge = discharge
	s.Touch()
	return true
}

// UpdateSchedule sets departure and arrival estimates
func (s *Shipment) UpdateSchedule(etd, eta *time.Time) bool {
	if equalTimePtr(s.ETD, etd) && equalTimePtr(s.ETA, eta) {
		return false
	}
	s.ETD = etd
	s.ETA = eta
	s.Touch()
	return true
}

// SetCarrier links the deduplicated carrier party
func (s *Shipment) SetCarrier(partyID *uuid.UUID) bool {
	if equalUUIDPtr(s.CarrierID, partyID) {
		return false
	}
	s.CarrierID = partyID
	s.Touch()
	return true
}

// SetConsignee links the deduplicated consignee party
func (s *Shipment) SetConsignee(partyID *uuid.UUID) bool {
	if equalUUIDPtr(s.ConsigneeID, partyID) {
		return false
	}
	s.ConsigneeID = partyID
	s.Touch()
	return true
}

// FindLine returns the packed line with the given container and sequence,
// or nil
func (s *Shipment) FindLine(containerNumber string, sequence int) *ShipmentLine {
	for idx := range s.Lines {
		if s.Lines[idx].ContainerNumber == containerNumber && s.Lines[idx].Sequence == sequence {
			return &s.Lines[idx]
		}
	}
	return nil
}

// ReplaceLines swaps the full line collection after reconciliation
func (s *Shipment) ReplaceLines(lines []ShipmentLine) {
	s.Lines = lines
	s.Touch()
}

// LineCount returns the number of packed lines on the shipment
func (s *Shipment) LineCount() int {
	return len(s.Lines)
}

// TotalQuantity returns the summed shipped quantity across lines
func (s *Shipment) TotalQuantity() decimal.Decimal {
	total := decimal.Zero
	for _, line := range s.Lines {
		total = total.Add(line.Quantity)
	}
	return total
}
