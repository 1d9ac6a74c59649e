package ingest_test

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/edibridge/backend/internal/domain/audit"
	"github.com/edibridge/backend/internal/domain/catalog"
	"github.com/edibridge/backend/internal/domain/document"
	"github.com/edibridge/backend/internal/domain/party"
	"github.com/edibridge/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// fakeRepo is an in-memory document repository. Reads hand out deep copies,
// so a caller mutating an entity without saving does not leak into the
// store, same as a real database.
type fakeRepo[R document.Root] struct {
	mu      sync.Mutex
	byKey   map[string]R
	audits  []*audit.Record
	creates int
	newR    func() R
}

func newFakeRepo[R document.Root](newR func() R) *fakeRepo[R] {
	return &fakeRepo[R]{byKey: make(map[string]R), newR: newR}
}

func (f *fakeRepo[R]) clone(entity R) R {
	b, err := json.Marshal(entity)
	if err != nil {
		panic(err)
	}
	out := f.newR()
	if err := json.Unmarshal(b, out); err != nil {
		panic(err)
	}
	return out
}

func (f *fakeRepo[R]) key(tenantID uuid.UUID, businessKey string) string {
	return tenantID.String() + "/" + businessKey
}

func (f *fakeRepo[R]) FindByBusinessKey(ctx context.Context, tenantID uuid.UUID, businessKey string) (R, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	entity, ok := f.byKey[f.key(tenantID, businessKey)]
	if !ok {
		var zero R
		return zero, shared.ErrNotFound
	}
	return f.clone(entity), nil
}

func (f *fakeRepo[R]) Create(ctx context.Context, entity R) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := f.key(entity.GetTenantID(), entity.GetBusinessKey())
	if _, exists := f.byKey[k]; exists {
		return shared.ErrAlreadyExists
	}
	f.byKey[k] = f.clone(entity)
	f.creates++
	return nil
}

func (f *fakeRepo[R]) SaveWithAudit(ctx context.Context, entity R, rec *audit.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byKey[f.key(entity.GetTenantID(), entity.GetBusinessKey())] = f.clone(entity)
	if rec != nil {
		f.audits = append(f.audits, rec)
	}
	return nil
}

func (f *fakeRepo[R]) auditCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.audits)
}

func (f *fakeRepo[R]) createCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.creates
}

// fakeOrderRepo adds the open-order lookup used by cross-referencing
// documents
type fakeOrderRepo struct {
	*fakeRepo[*document.Order]
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{newFakeRepo(func() *document.Order { return &document.Order{} })}
}

func (f *fakeOrderRepo) FindOpenByOrderNumber(ctx context.Context, tenantID uuid.UUID, orderNumber string) (*document.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.byKey {
		if o.TenantID == tenantID && o.OrderNumber == orderNumber && o.Status == document.OrderStatusOpen {
			return f.clone(o), nil
		}
	}
	return nil, shared.ErrNotFound
}

// fakePartyRepo is an in-memory party repository with the same unique
// constraint a real one enforces
type fakePartyRepo struct {
	mu      sync.Mutex
	byKey   map[string]*party.Party
	creates int
	saves   int
}

func newFakePartyRepo() *fakePartyRepo {
	return &fakePartyRepo{byKey: make(map[string]*party.Party)}
}

func (f *fakePartyRepo) key(tenantID uuid.UUID, namespace, code string) string {
	return fmt.Sprintf("%s/%s/%s", tenantID, namespace, code)
}

func (f *fakePartyRepo) clone(p *party.Party) *party.Party {
	b, err := json.Marshal(p)
	if err != nil {
		panic(err)
	}
	out := &party.Party{}
	if err := json.Unmarshal(b, out); err != nil {
		panic(err)
	}
	return out
}

func (f *fakePartyRepo) FindByNamespaceAndCode(ctx context.Context, tenantID uuid.UUID, namespace, code string) (*party.Party, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byKey[f.key(tenantID, namespace, code)]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return f.clone(p), nil
}

func (f *fakePartyRepo) FindByID(ctx context.Context, id uuid.UUID) (*party.Party, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.byKey {
		if p.ID == id {
			return f.clone(p), nil
		}
	}
	return nil, shared.ErrNotFound
}

func (f *fakePartyRepo) Create(ctx context.Context, p *party.Party) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := f.key(p.TenantID, p.Namespace, p.Code)
	if _, exists := f.byKey[k]; exists {
		return shared.ErrAlreadyExists
	}
	f.byKey[k] = f.clone(p)
	f.creates++
	return nil
}

func (f *fakePartyRepo) SaveWithAudit(ctx context.Context, p *party.Party, rec *audit.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byKey[f.key(p.TenantID, p.Namespace, p.Code)] = f.clone(p)
	f.saves++
	return nil
}

func (f *fakePartyRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byKey)
}

// fakeProductRepo resolves SKUs from a fixed set
type fakeProductRepo struct {
	mu      sync.Mutex
	bySku   map[string]*catalog.Product
	lookups int
}

func newFakeProductRepo(products ...*catalog.Product) *fakeProductRepo {
	f := &fakeProductRepo{bySku: make(map[string]*catalog.Product)}
	for _, p := range products {
		f.bySku[p.Sku] = p
	}
	return f
}

func (f *fakeProductRepo) FindBySku(ctx context.Context, tenantID uuid.UUID, sku string) (*catalog.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups++
	p, ok := f.bySku[sku]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return p, nil
}

func (f *fakeProductRepo) lookupCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lookups
}

// captureSink records every audit record emitted after commit
type captureSink struct {
	mu   sync.Mutex
	recs []*audit.Record
}

func (s *captureSink) Emit(ctx context.Context, rec *audit.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs = append(s.recs, rec)
	return nil
}

func (s *captureSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.recs)
}
