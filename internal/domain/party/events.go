package party

import (
	"github.com/edibridge/backend/internal/domain/shared"
)

// Event types for party aggregates
const (
	EventPartyCreated = "party.created"
	EventPartyUpdated = "party.updated"
)

// PartyCreatedEvent is raised when a (namespace, code) pair is first seen
type PartyCreatedEvent struct {
	shared.BaseDomainEvent
	Namespace string `json:"namespace"`
	Code      string `json:"code"`
}

// NewPartyCreatedEvent creates a new PartyCreatedEvent
func NewPartyCreatedEvent(p *Party) *PartyCreatedEvent {
	return &PartyCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventPartyCreated, "Party", p.ID, p.TenantID),
		Namespace:       p.Namespace,
		Code:            p.Code,
	}
}

// PartyUpdatedEvent is raised when a document changes a party's name or
// address content
type PartyUpdatedEvent struct {
	shared.BaseDomainEvent
	Namespace string `json:"namespace"`
	Code      string `json:"code"`
}

// NewPartyUpdatedEvent creates a new PartyUpdatedEvent
func NewPartyUpdatedEvent(p *Party) *PartyUpdatedEvent {
	return &PartyUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventPartyUpdated, "Party", p.ID, p.TenantID),
		Namespace:       p.Namespace,
		Code:            p.Code,
	}
}
