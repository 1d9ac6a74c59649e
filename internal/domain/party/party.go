// Package party holds deduplicated trading-partner companies and their
// addresses. A party is created at most once per (namespace, code) pair and
// may be referenced by any number of orders, shipments and invoices.
package party

import (
	"strings"
	"time"

	"github.com/edibridge/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// AddressRole classifies what an address is used for within a party
type AddressRole string

const (
	AddressRoleMain     AddressRole = "MAIN"
	AddressRoleShipFrom AddressRole = "SHIP_FROM"
	AddressRoleShipTo   AddressRole = "SHIP_TO"
	AddressRoleRemitTo  AddressRole = "REMIT_TO"
)

// Namespace builds the dedup namespace from the upstream system and the
// party role it plays there, e.g. "GTN Vendor". The code scoped by this
// namespace is the trading-partner-supplied identifier.
func Namespace(systemCode, role string) string {
	return strings.TrimSpace(systemCode) + " " + strings.TrimSpace(role)
}

// Address is scoped to exactly one party and keyed by the upstream system
// code within it. Addresses mutate in place and have no independent
// lifecycle: they disappear only with their owning party.
type Address struct {
	ID         uuid.UUID   `gorm:"type:uuid;primary_key"`
	PartyID    uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex:idx_party_address_system,priority:1"`
	SystemCode string      `gorm:"type:varchar(100);not null;uniqueIndex:idx_party_address_system,priority:2"`
	Role       AddressRole `gorm:"type:varchar(20);not null;default:'MAIN'"`
	Name       string      `gorm:"type:varchar(200)"`
	Line1      string      `gorm:"type:varchar(200)"`
	Line2      string      `gorm:"type:varchar(200)"`
	Line3      string      `gorm:"type:varchar(200)"`
	City       string      `gorm:"type:varchar(100)"`
	State      string      `gorm:"type:varchar(100)"`
	PostalCode string      `gorm:"type:varchar(20)"`
	Country    string      `gorm:"type:varchar(2)"`
	CreatedAt  time.Time   `gorm:"not null"`
	UpdatedAt  time.Time   `gorm:"not null"`
}

// TableName returns the table name for GORM
func (Address) TableName() string {
	return "party_addresses"
}

// NewAddress creates a bare address scoped to a party and system code
func NewAddress(partyID uuid.UUID, systemCode string, role AddressRole) (*Address, error) {
	if systemCode == "" {
		return nil, shared.NewDomainError("INVALID_SYSTEM_CODE", "Address system code cannot be empty")
	}
	if role == "" {
		role = AddressRoleMain
	}
	now := time.Now()
	return &Address{
		ID:         uuid.New(),
		PartyID:    partyID,
		SystemCode: systemCode,
		Role:       role,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

func (a *Address) touch() {
	a.UpdatedAt = time.Now()
}

// Party is a deduplicated external company, keyed by (namespace, code)
// within a tenant
type Party struct {
	shared.TenantAggregateRoot
	Namespace string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_party_ns_code,priority:2"`
	Code      string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_party_ns_code,priority:3"`
	Name      string    `gorm:"type:varchar(200)"`
	Addresses []Address `gorm:"foreignKey:PartyID;references:ID"`
}

// TableName returns the table name for GORM
func (Party) TableName() string {
	return "parties"
}

// NewParty creates a new party for a (namespace, code) pair
func NewParty(tenantID uuid.UUID, namespace, code, name string) (*Party, error) {
	if strings.TrimSpace(namespace) == "" {
		return nil, shared.NewDomainError("INVALID_NAMESPACE", "Party namespace cannot be empty")
	}
	if strings.TrimSpace(code) == "" {
		return nil, shared.NewDomainError("INVALID_CODE", "Party code cannot be empty")
	}
	p := &Party{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Namespace:           strings.TrimSpace(namespace),
		Code:                strings.TrimSpace(code),
		Name:                strings.TrimSpace(name),
		Addresses:           make([]Address, 0),
	}
	p.AddDomainEvent(NewPartyCreatedEvent(p))
	return p, nil
}

// UpdateName sets the display name when a non-blank value is supplied,
// reporting whether it changed. Documents that omit the name leave the
// existing one alone.
func (p *Party) UpdateName(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" || p.Name == name {
		return false
	}
	p.Name = name
	p.Touch()
	p.IncrementVersion()
	return true
}

// FindAddress returns the address for the given system code, or nil
func (p *Party) FindAddress(systemCode string) *Address {
	for idx := range p.Addresses {
		if p.Addresses[idx].SystemCode == systemCode {
			return &p.Addresses[idx]
		}
	}
	return nil
}

// AttachAddress adds a newly created address to the party
func (p *Party) AttachAddress(addr *Address) {
	p.Addresses = append(p.Addresses, *addr)
	p.Touch()
	p.IncrementVersion()
}
