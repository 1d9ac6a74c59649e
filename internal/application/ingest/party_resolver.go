package ingest

import (
	"context"
	"errors"
	"fmt"

	"github.com/edibridge/backend/internal/domain/audit"
	"github.com/edibridge/backend/internal/domain/party"
	"github.com/edibridge/backend/internal/domain/shared"
	"github.com/edibridge/backend/internal/infrastructure/lock"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UpdatePolicy decides whether an existing party may be refreshed from an
// incoming document. Some deployments treat the party master as curated and
// never let documents overwrite it.
type UpdatePolicy func(p *party.Party) bool

// UpdateAlways refreshes every resolved party from the document
func UpdateAlways(*party.Party) bool { return true }

// UpdateNever leaves existing parties untouched
func UpdateNever(*party.Party) bool { return false }

// PartyResolver finds or creates the party a document references. Parties
// are deduplicated on (tenant, namespace, code); lookup, refresh, and
// creation all run under a keyed lock on the party's own key, so two
// unrelated documents naming the same vendor serialize instead of
// interleaving read-modify-write.
type PartyResolver struct {
	repo          party.Repository
	locks         lock.Keyed
	addressMapper party.AddressMapper
	shouldUpdate  UpdatePolicy
	actor         string
	logger        *zap.Logger
}

// PartyResolverOption is a functional option for configuring the resolver
type PartyResolverOption func(*PartyResolver)

// WithAddressMapper sets the strategy used to lay party addresses out
func WithAddressMapper(m party.AddressMapper) PartyResolverOption {
	return func(r *PartyResolver) {
		r.addressMapper = m
	}
}

// WithUpdatePolicy sets when existing parties are refreshed
func WithUpdatePolicy(p UpdatePolicy) PartyResolverOption {
	return func(r *PartyResolver) {
		r.shouldUpdate = p
	}
}

// WithResolverLogger sets the logger
func WithResolverLogger(logger *zap.Logger) PartyResolverOption {
	return func(r *PartyResolver) {
		r.logger = logger
	}
}

// NewPartyResolver creates a party resolver
func NewPartyResolver(repo party.Repository, locks lock.Keyed, actor string, opts ...PartyResolverOption) *PartyResolver {
	r := &PartyResolver{
		repo:          repo,
		locks:         locks,
		addressMapper: party.SimpleAddressMapper{},
		shouldUpdate:  UpdateAlways,
		actor:         actor,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the party ID for a descriptor, creating the party if
// needed. Descriptors missing the code or the name resolve to (nil, false)
// without error; upstream documents omit optional roles either way, and a
// half-specified party means the role is simply absent.
func (r *PartyResolver) Resolve(ctx context.Context, tenantID uuid.UUID, d PartyDescriptor) (*uuid.UUID, bool, error) {
	if d.Code == "" || d.Name == "" {
		return nil, false, nil
	}

	namespace := party.Namespace(d.SystemCode, d.Role)
	key := fmt.Sprintf("Company-%s-%s", namespace, d.Code)

	// The party row is shared across every document that names it, so the
	// whole lookup-refresh-save sequence holds the party's own lock. The
	// loser of a create race re-reads inside the lock and adopts the
	// winner's row.
	var resolved *party.Party
	err := r.locks.WithLock(ctx, key, func(ctx context.Context) error {
		p, err := r.repo.FindByNamespaceAndCode(ctx, tenantID, namespace, d.Code)
		if err != nil {
			if !errors.Is(err, shared.ErrNotFound) {
				return fmt.Errorf("failed to look up party %s/%s: %w", namespace, d.Code, err)
			}
			p, err = r.create(ctx, tenantID, namespace, d)
			if err != nil {
				return err
			}
			resolved = p
			return nil
		}

		if r.shouldUpdate(p) {
			if err := r.refresh(ctx, p, d); err != nil {
				return err
			}
		}
		resolved = p
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	id := resolved.GetID()
	return &id, true, nil
}

// create builds and persists a new party row. Callers hold the party's
// keyed lock.
func (r *PartyResolver) create(ctx context.Context, tenantID uuid.UUID, namespace string, d PartyDescriptor) (*party.Party, error) {
	p, err := party.NewParty(tenantID, namespace, d.Code, d.Name)
	if err != nil {
		return nil, err
	}
	if !d.Address.IsEmpty() {
		addr, err := party.NewAddress(p.GetID(), d.SystemCode, party.AddressRoleMain)
		if err != nil {
			return nil, err
		}
		r.addressMapper.Apply(addr, d.Address)
		p.AttachAddress(addr)
	}

	if err := r.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create party %s/%s: %w", namespace, d.Code, err)
	}
	r.logger.Info("created party",
		zap.String("namespace", namespace),
		zap.String("code", d.Code),
	)
	return p, nil
}

// refresh applies the descriptor's name and address onto an existing party
// and saves only when something actually changed. Callers hold the party's
// keyed lock.
func (r *PartyResolver) refresh(ctx context.Context, p *party.Party, d PartyDescriptor) error {
	tracker := shared.NewChangeTracker()
	tracker.MarkIf(p.UpdateName(d.Name))

	if !d.Address.IsEmpty() {
		addr := p.FindAddress(d.SystemCode)
		if addr == nil {
			created, err := party.NewAddress(p.GetID(), d.SystemCode, party.AddressRoleMain)
			if err != nil {
				return err
			}
			r.addressMapper.Apply(created, d.Address)
			p.AttachAddress(created)
			tracker.Mark()
		} else {
			tracker.MarkIf(r.addressMapper.Apply(addr, d.Address))
		}
	}

	if !tracker.Changed() {
		return nil
	}

	p.AddDomainEvent(party.NewPartyUpdatedEvent(p))
	rec, err := audit.NewRecord(p.TenantID, "party", p.GetID(), p.Namespace+"/"+p.Code, int64(p.GetVersion()), r.actor, "", p)
	if err != nil {
		return err
	}
	if err := r.repo.SaveWithAudit(ctx, p, rec); err != nil {
		return fmt.Errorf("failed to save party %s/%s: %w", p.Namespace, p.Code, err)
	}
	return nil
}
