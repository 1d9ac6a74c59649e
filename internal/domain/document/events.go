package document

import (
	"github.com/edibridge/backend/internal/domain/shared"
)

// Event types for document aggregates
const (
	EventOrderCreated     = "document.order.created"
	EventOrderCanceled    = "document.order.canceled"
	EventShipmentCreated  = "document.shipment.created"
	EventShipmentCanceled = "document.shipment.canceled"
	EventInvoiceCreated   = "document.invoice.created"
)

// OrderCreatedEvent is raised when an order is first materialized from a
// document
type OrderCreatedEvent struct {
	shared.BaseDomainEvent
	BusinessKey string `json:"business_key"`
	OrderNumber string `json:"order_number"`
}

// NewOrderCreatedEvent creates a new OrderCreatedEvent
func NewOrderCreatedEvent(o *Order) *OrderCreatedEvent {
	return &OrderCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventOrderCreated, KindOrder.String(), o.ID, o.TenantID),
		BusinessKey:     o.BusinessKey,
		OrderNumber:     o.OrderNumber,
	}
}

// OrderCanceledEvent is raised when a cancel document closes out an order
type OrderCanceledEvent struct {
	shared.BaseDomainEvent
	BusinessKey string `json:"business_key"`
}

// NewOrderCanceledEvent creates a new OrderCanceledEvent
func NewOrderCanceledEvent(o *Order) *OrderCanceledEvent {
	return &OrderCanceledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventOrderCanceled, KindOrder.String(), o.ID, o.TenantID),
		BusinessKey:     o.BusinessKey,
	}
}

// ShipmentCreatedEvent is raised when a shipment is first materialized
type ShipmentCreatedEvent struct {
	shared.BaseDomainEvent
	BusinessKey    string `json:"business_key"`
	ShipmentNumber string `json:"shipment_number"`
}

// NewShipmentCreatedEvent creates a new ShipmentCreatedEvent
func NewShipmentCreatedEvent(s *Shipment) *ShipmentCreatedEvent {
	return &ShipmentCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventShipmentCreated, KindShipment.String(), s.ID, s.TenantID),
		BusinessKey:     s.BusinessKey,
		ShipmentNumber:  s.ShipmentNumber,
	}
}

// ShipmentCanceledEvent is raised when a cancel document voids a shipment
type ShipmentCanceledEvent struct {
	shared.BaseDomainEvent
	BusinessKey string `json:"business_key"`
}

// NewShipmentCanceledEvent creates a new ShipmentCanceledEvent
func NewShipmentCanceledEvent(s *Shipment) *ShipmentCanceledEvent {
	return &ShipmentCanceledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventShipmentCanceled, KindShipment.String(), s.ID, s.TenantID),
		BusinessKey:     s.BusinessKey,
	}
}

// InvoiceCreatedEvent is raised when an invoice is first materialized
type InvoiceCreatedEvent struct {
	shared.BaseDomainEvent
	BusinessKey   string `json:"business_key"`
	InvoiceNumber string `json:"invoice_number"`
}

// NewInvoiceCreatedEvent creates a new InvoiceCreatedEvent
func NewInvoiceCreatedEvent(i *Invoice) *InvoiceCreatedEvent {
	return &InvoiceCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventInvoiceCreated, KindInvoice.String(), i.ID, i.TenantID),
		BusinessKey:     i.BusinessKey,
		InvoiceNumber:   i.InvoiceNumber,
	}
}
