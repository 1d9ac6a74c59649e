package document

import (
	"strconv"
	"time"

	"github.com/edibridge/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus represents the lifecycle status of a purchase order
type OrderStatus string

const (
	OrderStatusOpen     OrderStatus = "OPEN"
	OrderStatusClosed   OrderStatus = "CLOSED"
	OrderStatusCanceled OrderStatus = "CANCELED"
)

// IsValid checks if the status is a valid OrderStatus
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusOpen, OrderStatusClosed, OrderStatusCanceled:
		return true
	}
	return false
}

// String returns the string representation of OrderStatus
func (s OrderStatus) String() string {
	return string(s)
}

// OrderLine is a line item owned by an Order, keyed by the trading-partner
// line number. Lines with downstream booking or shipping activity are
// protected: a later document that drops them leaves them in place.
type OrderLine struct {
	ID            uuid.UUID       `gorm:"type:uuid;primary_key"`
	OrderID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	LineNumber    int             `gorm:"not null;uniqueIndex:idx_order_line_number,priority:2"`
	Sku           string          `gorm:"type:varchar(100)"`
	ProductID     *uuid.UUID      `gorm:"type:uuid;index"`
	Description   string          `gorm:"type:varchar(500)"`
	Quantity      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPrice     decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitOfMeasure string          `gorm:"type:varchar(20)"`
	HTSCode       string          `gorm:"type:varchar(20)"`
	Booked        bool            `gorm:"not null;default:false"`
	Shipped       bool            `gorm:"not null;default:false"`
	NeedsReview   bool            `gorm:"not null;default:false"`
	CreatedAt     time.Time       `gorm:"not null"`
	UpdatedAt     time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (OrderLine) TableName() string {
	return "order_lines"
}

// NewOrderLine creates a bare line for the given natural key. Payload fields
// are populated afterwards by the document mapper.
func NewOrderLine(orderID uuid.UUID, lineNumber int) (*OrderLine, error) {
	if lineNumber <= 0 {
		return nil, shared.NewDomainError("INVALID_LINE_NUMBER", "Line number must be positive")
	}
	now := time.Now()
	return &OrderLine{
		ID:         uuid.New(),
		OrderID:    orderID,
		LineNumber: lineNumber,
		Quantity:   decimal.Zero,
		UnitPrice:  decimal.Zero,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// Key returns the natural key of the line within its parent
func (l *OrderLine) Key() string {
	return strconv.Itoa(l.LineNumber)
}

// IsProtected reports whether the line must survive reconciliation even when
// absent from the latest document
func (l *OrderLine) IsProtected() bool {
	return l.Booked || l.Shipped
}

// UpdateSku sets the vendor SKU, reporting whether the value changed
func (l *OrderLine) UpdateSku(sku string) bool {
	if l.Sku == sku {
		return false
	}
	l.Sku = sku
	l.UpdatedAt = time.Now()
	return true
}

// UpdateProduct links the line to resolved product reference data
func (l *OrderLine) UpdateProduct(productID *uuid.UUID) bool {
	if equalUUIDPtr(l.ProductID, productID) {
		return false
	}
	l.ProductID = productID
	l.UpdatedAt = time.Now()
	return true
}

// UpdateDescription sets the line description
func (l *OrderLine) UpdateDescription(desc string) bool {
	if l.Description == desc {
		return false
	}
	l.Description = desc
	l.UpdatedAt = time.Now()
	return true
}

// UpdateQuantity sets the ordered quantity
func (l *OrderLine) UpdateQuantity(qty decimal.Decimal) (bool, error) {
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

// UpdateUnitPrice sets the unit price
func (l *OrderLine) UpdateUnitPrice(price decimal.Decimal) (bool, error) {
	if price.IsNegative() {
		return false, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}
	if l.UnitPrice.Equal(price) {
		return false, nil
	}
	l.UnitPrice = price
	l.UpdatedAt = time.Now()
	return true, nil
}

// UpdateUnitOfMeasure sets the unit of measure
func (l *OrderLine) UpdateUnitOfMeasure(uom string) bool {
	if l.UnitOfMeasure == uom {
		return false
	}
	l.UnitOfMeasure = uom
	l.UpdatedAt = time.Now()
	return true
}

// UpdateHTSCode sets the harmonized tariff code
func (l *OrderLine) UpdateHTSCode(code string) bool {
	if l.HTSCode == code {
		return false
	}
	l.HTSCode = code
	l.UpdatedAt = time.Now()
	return true
}

// MarkBooked flags downstream booking activity on the line
func (l *OrderLine) MarkBooked() bool {
	if l.Booked {
		return false
	}
	l.Booked = true
	l.UpdatedAt = time.Now()
	return true
}

// MarkShipped flags downstream shipping activity on the line
func (l *OrderLine) MarkShipped() bool {
	if l.Shipped {
		return false
	}
	l.Shipped = true
	l.UpdatedAt = time.Now()
	return true
}

// FlagForReview marks a protected line that a newer document tried to drop,
// so operators can reconcile it manually
func (l *OrderLine) FlagForReview() bool {
	if l.NeedsReview {
		return false
	}
	l.NeedsReview = true
	l.UpdatedAt = time.Now()
	return true
}

// Order is the canonical representation of a trading-partner purchase order
type Order struct {
	Base
	OrderNumber     string      `gorm:"type:varchar(50);not null;index"`
	Status          OrderStatus `gorm:"type:varchar(20);not null;default:'OPEN'"`
	OrderDate       *time.Time
	ShipWindowStart *time.Time
	ShipWindowEnd   *time.Time
	Currency        string     `gorm:"type:varchar(3)"`
	IncoTerms       string     `gorm:"type:varchar(20)"`
	Season          string     `gorm:"type:varchar(50)"`
	Division        string     `gorm:"type:varchar(50)"`
	VendorID        *uuid.UUID `gorm:"type:uuid;index"`
	FactoryID       *uuid.UUID `gorm:"type:uuid;index"`
	AgentID         *uuid.UUID `gorm:"type:uuid"`
	Lines           []OrderLine `gorm:"foreignKey:OrderID;references:ID"`
}

// TableName returns the table name for GORM
func (Order) TableName() string {
	return "orders"
}

// NewOrder creates a new open order for a business key
func NewOrder(tenantID uuid.UUID, businessKey, orderNumber string) (*Order, error) {
	if businessKey == "" {
		return nil, shared.NewDomainError("INVALID_BUSINESS_KEY", "Business key cannot be empty")
	}
	if orderNumber == "" {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot be empty")
	}
	order := &Order{
		Base:        NewBase(tenantID, businessKey),
		OrderNumber: orderNumber,
		Status:      OrderStatusOpen,
		Lines:       make([]OrderLine, 0),
	}
	order.AddDomainEvent(NewOrderCreatedEvent(order))
	return order, nil
}

// Kind returns the root entity kind
func (o *Order) Kind() Kind {
	return KindOrder
}

// Cancel transitions the order to canceled. Canceling an already terminal
// order is a no-op: cancel documents are re-delivered like any other.
func (o *Order) Cancel() bool {
	if o.Status == OrderStatusCanceled {
		return false
	}
	o.Status = OrderStatusCanceled
	o.Touch()
	o.IncrementVersion()
	o.AddDomainEvent(NewOrderCanceledEvent(o))
	return true
}

// Close transitions the order to closed
func (o *Order) Close() bool {
	if o.Status == OrderStatusClosed {
		return false
	}
	o.Status = OrderStatusClosed
	o.Touch()
	o.IncrementVersion()
	return true
}

// Reopen returns a closed or canceled order to open, used when a newer
// revision of the document arrives for a previously terminal order
func (o *Order) Reopen() bool {
	if o.Status == OrderStatusOpen {
		return false
	}
	o.Status = OrderStatusOpen
	o.Touch()
	o.IncrementVersion()
	return true
}

// IsCanceled reports whether the order is canceled
func (o *Order) IsCanceled() bool {
	return o.Status == OrderStatusCanceled
}

// UpdateOrderDate sets the customer order date
func (o *Order) UpdateOrderDate(t *time.Time) bool {
	if equalTimePtr(o.OrderDate, t) {
		return false
	}
	o.OrderDate = t
	o.Touch()
	return true
}

// UpdateShipWindow sets the agreed ship window
func (o *Order) UpdateShipWindow(start, end *time.Time) bool {
	if equalTimePtr(o.ShipWindowStart, start) && equalTimePtr(o.ShipWindowEnd, end) {
		return false
	}
	o.ShipWindowStart = start
	o.ShipWindowEnd = end
	o.Touch()
	return true
}

// UpdateCurrency sets the order currency code
func (o *Order) UpdateCurrency(currency string) bool {
	if o.Currency == currency {
		return false
	}
	o.Currency = currency
	o.Touch()
	return true
}

// UpdateIncoTerms sets the delivery terms
func (o *Order) UpdateIncoTerms(terms string) bool {
	if o.IncoTerms == terms {
		return false
	}
	o.IncoTerms = terms
	o.Touch()
	return true
}

// UpdateSeason sets the merchandising season
func (o *Order) UpdateSeason(season string) bool {
	if o.Season == season {
		return false
	}
	o.Season = season
	o.Touch()
	return true
}

// UpdateDivision sets the buying division
func (o *Order) UpdateDivision(division string) bool {
	if o.Division == division {
		return false
	}
	o.Division = division
	o.Touch()
	return true
}

// SetVendor links the deduplicated vendor party
func (o *Order) SetVendor(partyID *uuid.UUID) bool {
	if equalUUIDPtr(o.VendorID, partyID) {
		return false
	}
	o.VendorID = partyID
	o.Touch()
	return true
}

// SetFactory links the deduplicated factory party
func (o *Order) SetFactory(partyID *uuid.UUID) bool {
	if equalUUIDPtr(o.FactoryID, partyID) {
		return false
	}
	o.FactoryID = partyID
	o.Touch()
	return true
}

// SetAgent links the deduplicated agent party
func (o *Order) SetAgent(partyID *uuid.UUID) bool {
	if equalUUIDPtr(o.AgentID, partyID) {
		return false
	}
	o.AgentID = partyID
	o.Touch()
	return true
}

// FindLine returns the line with the given line number, or nil
func (o *Order) FindLine(lineNumber int) *OrderLine {
	for idx := range o.Lines {
		if o.Lines[idx].LineNumber == lineNumber {
			return &o.Lines[idx]
		}
	}
	return nil
}

// ReplaceLines swaps the full line collection after reconciliation
func (o *Order) ReplaceLines(lines []OrderLine) {
	o.Lines = lines
	o.Touch()
}

// LineCount returns the number of lines on the order
func (o *Order) LineCount() int {
	return len(o.Lines)
}

func equalUUIDPtr(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalTimePtr(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
