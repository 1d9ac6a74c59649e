package document

import (
	"time"

	"github.com/edibridge/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceLine is a billed line on a commercial invoice. The upstream feed
// has no reliable natural ordering, so lines are renumbered deterministically
// by (poNumber, poLineNumber) after every reconciliation; Ordinal holds the
// assigned display position. Like shipment lines, invoice lines are rebuilt
// per accepted document.
type InvoiceLine struct {
	ID           uuid.UUID       `gorm:"type:uuid;primary_key"`
	InvoiceID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	LineKey      string          `gorm:"type:varchar(100);not null"`
	PONumber     string          `gorm:"type:varchar(50)"`
	POLineNumber int             `gorm:"not null;default:0"`
	Sku          string          `gorm:"type:varchar(100)"`
	ProductID    *uuid.UUID      `gorm:"type:uuid;index"`
	Quantity     decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPrice    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Amount       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Ordinal      int             `gorm:"not null;default:0"`
	CreatedAt    time.Time       `gorm:"not null"`
	UpdatedAt    time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (InvoiceLine) TableName() string {
	return "invoice_lines"
}

// NewInvoiceLine creates a bare billed line for the given natural key
func NewInvoiceLine(invoiceID uuid.UUID, lineKey string) (*InvoiceLine, error) {
	if lineKey == "" {
		return nil, shared.NewDomainError("INVALID_LINE_KEY", "Invoice line key cannot be empty")
	}
	now := time.Now()
	return &InvoiceLine{
		ID:        uuid.New(),
		InvoiceID: invoiceID,
		LineKey:   lineKey,
		Quantity:  decimal.Zero,
		UnitPrice: decimal.Zero,
		Amount:    decimal.Zero,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Key returns the natural key of the line within its parent
func (l *InvoiceLine) Key() string {
	return l.LineKey
}

// UpdatePORef sets the purchase order reference being billed
func (l *InvoiceLine) UpdatePORef(poNumber string, poLineNumber int) bool {
	if l.PONumber == poNumber && l.POLineNumber == poLineNumber {
		return false
	}
	l.PONumber = poNumber
	l.POLineNumber = poLineNumber
	l.UpdatedAt = time.Now()
	return true
}

// UpdateSku sets the vendor SKU
func (l *InvoiceLine) UpdateSku(sku string) bool {
	if l.Sku == sku {
		return false
	}
	l.Sku = sku
	l.UpdatedAt = time.Now()
	return true
}

// UpdateProduct links the line to resolved product reference data
func (l *InvoiceLine) UpdateProduct(productID *uuid.UUID) bool {
	if equalUUIDPtr(l.ProductID, productID) {
		return false
	}
	l.ProductID = productID
	l.UpdatedAt = time.Now()
	return true
}

// UpdateBilling sets quantity and unit price, recalculating the line amount
func (l *InvoiceLine) UpdateBilling(qty, unitPrice decimal.Decimal) (bool, error) {
	if qty.IsNegative() {
		return false, shared.NewDomainError("INVALID_QUANTITY", "Quantity cannot be negative")
	}
	if unitPrice.IsNegative() {
		return false, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}
	if l.Quantity.Equal(qty) && l.UnitPrice.Equal(unitPrice) {
		return false, nil
	}
	l.Quantity = qty
	l.UnitPrice = unitPrice
	l.Amount = qty.Mul(unitPrice).Round(4)
	l.UpdatedAt = time.Now()
	return true, nil
}

// SetOrdinal assigns the deterministic display position
func (l *InvoiceLine) SetOrdinal(ordinal int) bool {
	if l.Ordinal == ordinal {
		return false
	}
	l.Ordinal = ordinal
	l.UpdatedAt = time.Now()
	return true
}

// Invoice is the canonical representation of a commercial invoice. Invoices
// have no lifecycle status of their own; a cancel document for an invoice is
// ignored upstream.
type Invoice struct {
	Base
	InvoiceNumber string `gorm:"type:varchar(50);not null;index"`
	InvoiceDate   *time.Time
	Currency      string          `gorm:"type:varchar(3)"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	SellerID      *uuid.UUID      `gorm:"type:uuid;index"`
	BuyerID       *uuid.UUID      `gorm:"type:uuid"`
	Lines         []InvoiceLine   `gorm:"foreignKey:InvoiceID;references:ID"`
}

// TableName returns the table name for GORM
func (Invoice) TableName() string {
	return "invoices"
}

// NewInvoice creates a new invoice for a business key
func NewInvoice(tenantID uuid.UUID, businessKey, invoiceNumber string) (*Invoice, error) {
	if businessKey == "" {
		return nil, shared.NewDomainError("INVALID_BUSINESS_KEY", "Business key cannot be empty")
	}
	if invoiceNumber == "" {
		return nil, shared.NewDomainError("INVALID_INVOICE_NUMBER", "Invoice number cannot be empty")
	}
	invoice := &Invoice{
		Base:          NewBase(tenantID, businessKey),
		InvoiceNumber: invoiceNumber,
		TotalAmount:   decimal.Zero,
		Lines:         make([]InvoiceLine, 0),
	}
	invoice.AddDomainEvent(NewInvoiceCreatedEvent(invoice))
	return invoice, nil
}

// Kind returns the root entity kind
func (i *Invoice) Kind() Kind {
	return KindInvoice
}

// UpdateInvoiceDate sets the invoice date
func (i *Invoice) UpdateInvoiceDate(t *time.Time) bool {
	if equalTimePtr(i.InvoiceDate, t) {
		return false
	}
	i.InvoiceDate = t
	i.Touch()
	return true
}

// UpdateCurrency sets the invoice currency code
func (i *Invoice) UpdateCurrency(currency string) bool {
	if i.Currency == currency {
		return false
	}
	i.Currency = currency
	i.Touch()
	return true
}

// SetSeller links the deduplicated seller party
func (i *Invoice) SetSeller(partyID *uuid.UUID) bool {
	if equalUUIDPtr(i.SellerID, partyID) {
		return false
	}
	i.SellerID = partyID
	i.Touch()
	return true
}

// SetBuyer links the deduplicated buyer party
func (i *Invoice) SetBuyer(partyID *uuid.UUID) bool {
	if equalUUIDPtr(i.BuyerID, partyID) {
		return false
	}
	i.BuyerID = partyID
	i.Touch()
	return true
}

// FindLine returns the line with the given key, or nil
func (i *Invoice) FindLine(lineKey string) *InvoiceLine {
	for idx := range i.Lines {
		if i.Lines[idx].LineKey == lineKey {
			return &i.Lines[idx]
		}
	}
	return nil
}

// ReplaceLines swaps the full line collection after reconciliation and
// recalculates the invoice total
func (i *Invoice) ReplaceLines(lines []InvoiceLine) {
	i.Lines = lines
	i.RecalculateTotal()
	i.Touch()
}

// RecalculateTotal recomputes the invoice total from its lines, reporting
// whether the total changed
func (i *Invoice) RecalculateTotal() bool {
	total := decimal.Zero
	for _, line := range i.Lines {
		total = total.Add(line.Amount)
	}
	if i.TotalAmount.Equal(total) {
		return false
	}
	i.TotalAmount = total
	return true
}

// LineCount returns the number of lines on the invoice
func (i *Invoice) LineCount() int {
	return len(i.Lines)
}
