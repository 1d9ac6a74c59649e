package ingest

import (
	"context"
	"errors"
	"fmt"

	"github.com/edibridge/backend/internal/domain/audit"
	"github.com/edibridge/backend/internal/domain/catalog"
	"github.com/edibridge/backend/internal/domain/document"
	"github.com/edibridge/backend/internal/domain/shared"
	"github.com/edibridge/backend/internal/infrastructure/lock"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Pipeline ingests documents of one kind. It owns the full reconciliation
// protocol: parse, revision gate, find-or-create under lock, party
// resolution, header and line mutation, and the single transactional save.
//
// Re-delivering any document is always safe: a replay either loses the
// revision gate or mutates nothing and skips the save.
type Pipeline[R document.Root, L, D any] struct {
	mapper   DocumentMapper[R, L, D]
	repo     document.Repository[R]
	parser   Parser
	locks    lock.Keyed
	resolver *PartyResolver
	products catalog.Repository
	orders   document.OrderRepository
	sink     audit.Sink
	actor    string
	logger   *zap.Logger
	bindings map[string]PartyBinding[R]
}

// pipelineSettings carries the collaborators shared by every pipeline
// instantiation, so options stay free of type parameters
type pipelineSettings struct {
	resolver *PartyResolver
	products catalog.Repository
	orders   document.OrderRepository
	sink     audit.Sink
	actor    string
	logger   *zap.Logger
}

// PipelineOption is a functional option for configuring a pipeline
type PipelineOption func(*pipelineSettings)

// WithPartyResolver wires party resolution. Without it, party descriptors
// in documents are ignored.
func WithPartyResolver(r *PartyResolver) PipelineOption {
	return func(s *pipelineSettings) {
		s.resolver = r
	}
}

// WithProductCatalog wires SKU resolution for line items
func WithProductCatalog(c catalog.Repository) PipelineOption {
	return func(s *pipelineSettings) {
		s.products = c
	}
}

// WithOrderLookup wires cross-document order references
func WithOrderLookup(o document.OrderRepository) PipelineOption {
	return func(s *pipelineSettings) {
		s.orders = o
	}
}

// WithAuditSink mirrors committed audit records to an external store
func WithAuditSink(sink audit.Sink) PipelineOption {
	return func(s *pipelineSettings) {
		s.sink = sink
	}
}

// WithActor sets the actor recorded on audit records
func WithActor(actor string) PipelineOption {
	return func(s *pipelineSettings) {
		s.actor = actor
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) PipelineOption {
	return func(s *pipelineSettings) {
		s.logger = logger
	}
}

// NewPipeline creates a pipeline for one document kind. It fails fast when
// the mapper's party bindings are malformed, so a bad mapper never reaches
// a worker.
func NewPipeline[R document.Root, L, D any](
	mapper DocumentMapper[R, L, D],
	repo document.Repository[R],
	parser Parser,
	locks lock.Keyed,
	opts ...PipelineOption,
) (*Pipeline[R, L, D], error) {
	settings := pipelineSettings{
		sink:   audit.NopSink{},
		actor:  "system",
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&settings)
	}

	p := &Pipeline[R, L, D]{
		mapper:   mapper,
		repo:     repo,
		parser:   parser,
		locks:    locks,
		resolver: settings.resolver,
		products: settings.products,
		orders:   settings.orders,
		sink:     settings.sink,
		actor:    settings.actor,
		logger:   settings.logger,
		bindings: make(map[string]PartyBinding[R]),
	}

	for _, b := range mapper.PartyBindings() {
		if b.Role == "" || b.Attach == nil {
			return nil, shared.NewDomainError("INVALID_PARTY_BINDING",
				fmt.Sprintf("mapper for %s declares an incomplete party binding", mapper.Kind()))
		}
		if _, dup := p.bindings[b.Role]; dup {
			return nil, shared.NewDomainError("DUPLICATE_PARTY_BINDING",
				fmt.Sprintf("mapper for %s declares role %q twice", mapper.Kind(), b.Role))
		}
		p.bindings[b.Role] = b
	}
	return p, nil
}

// Ingest applies one raw document. The error is non-nil only for
// infrastructure failures, lock timeouts (retryable) and rejected
// documents; stale and unchanged deliveries are successful no-ops.
func (p *Pipeline[R, L, D]) Ingest(ctx context.Context, raw RawDocument) (*Result, error) {
	if raw.TenantID == uuid.Nil {
		return nil, &MalformedDocumentError{SourceRef: raw.SourceRef, Reason: "missing tenant"}
	}

	view, err := p.parser.Parse(raw)
	if err != nil {
		if IsMalformed(err) {
			return nil, err
		}
		return nil, &MalformedDocumentError{SourceRef: raw.SourceRef, Reason: "unparseable body", Err: err}
	}

	key, err := p.mapper.BusinessKey(view)
	if err != nil {
		return nil, &MalformedDocumentError{SourceRef: raw.SourceRef, Reason: "no business key", Err: err}
	}
	rev, err := p.mapper.Revision(view)
	if err != nil {
		return nil, &MalformedDocumentError{SourceRef: raw.SourceRef, Reason: "no revision", Err: err}
	}

	kind := p.mapper.Kind()
	result := &Result{Kind: kind, BusinessKey: key, Revision: rev}
	lockKey := fmt.Sprintf("%s-%s", kind, key)

	// Cheap gate before taking any lock. The authoritative check repeats
	// inside the critical section; this one only sheds obviously stale
	// replays without serializing them.
	if existing, err := p.repo.FindByBusinessKey(ctx, raw.TenantID, key); err == nil {
		if !existing.GetRevision().Accepts(rev) {
			p.logStale(key, rev, existing.GetRevision())
			result.Outcome = OutcomeStale
			return result, nil
		}
	} else if !errors.Is(err, shared.ErrNotFound) {
		return nil, &RetryableError{SourceRef: raw.SourceRef,
			Err: fmt.Errorf("failed to load %s %s: %w", kind, key, err)}
	}

	if p.mapper.IsCancellation(view) {
		return p.cancel(ctx, raw, lockKey, key, rev, result)
	}

	created, err := p.findOrCreate(ctx, raw, lockKey, key, view)
	if err != nil {
		return nil, err
	}
	result.Created = created

	var committed *audit.Record
	err = p.locks.WithLock(ctx, lockKey, func(ctx context.Context) error {
		entity, err := p.repo.FindByBusinessKey(ctx, raw.TenantID, key)
		if err != nil {
			return &RetryableError{SourceRef: raw.SourceRef,
				Err: fmt.Errorf("failed to reload %s %s: %w", kind, key, err)}
		}

		if !entity.GetRevision().Accepts(rev) {
			p.logStale(key, rev, entity.GetRevision())
			result.Outcome = OutcomeStale
			return nil
		}

		tracker := shared.NewChangeTracker()
		// A freshly created entity must persist its revision even when
		// the document carries nothing beyond the key.
		tracker.MarkIf(created)

		violations := &ViolationList{SourceRef: raw.SourceRef}
		refs := p.references(ctx, raw)

		if err := p.resolveParties(ctx, raw, view, entity, refs, tracker, violations); err != nil {
			return err
		}

		changed, err := p.mapper.MutateFields(ctx, entity, view, refs)
		if err != nil {
			violations.AddError("header", err)
		}
		tracker.MarkIf(changed)

		descs, err := p.mapper.ChildDescriptors(view)
		if err != nil {
			return &MalformedDocumentError{SourceRef: raw.SourceRef, Reason: "unreadable line items", Err: err}
		}
		stats := reconcileLines(ctx, p.mapper, entity, descs, refs, tracker, violations)
		orderLines(p.mapper, entity, tracker)

		if !violations.Empty() {
			return violations
		}

		result.LinesCreated = stats.created
		result.LinesUpdated = stats.updated
		result.SkippedLineKeys = stats.skipped

		if !tracker.Changed() {
			result.Outcome = OutcomeUnchanged
			return nil
		}

		entity.ApplyRevision(rev, raw.SourceRef)
		rec, err := audit.NewRecord(raw.TenantID, kind.String(), entity.GetID(), key, int64(rev), p.actor, raw.SourceRef, entity)
		if err != nil {
			return err
		}
		if err := p.repo.SaveWithAudit(ctx, entity, rec); err != nil {
			return &RetryableError{SourceRef: raw.SourceRef,
				Err: fmt.Errorf("failed to save %s %s: %w", kind, key, err)}
		}
		committed = rec
		p.drainEvents(entity)
		result.Outcome = OutcomeApplied
		return nil
	})
	if err != nil {
		return nil, err
	}

	p.emit(ctx, committed)
	return result, nil
}

// findOrCreate makes sure a row exists for the business key. Creation
// serializes on the entity's lock key and commits immediately, so of N
// concurrent workers racing on a brand-new key exactly one inserts and the
// rest adopt its row.
func (p *Pipeline[R, L, D]) findOrCreate(ctx context.Context, raw RawDocument, lockKey, key string, view DocumentView) (bool, error) {
	_, err := p.repo.FindByBusinessKey(ctx, raw.TenantID, key)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return false, &RetryableError{SourceRef: raw.SourceRef,
			Err: fmt.Errorf("failed to load %s %s: %w", p.mapper.Kind(), key, err)}
	}

	created := false
	err = p.locks.WithLock(ctx, lockKey, func(ctx context.Context) error {
		if _, err := p.repo.FindByBusinessKey(ctx, raw.TenantID, key); err == nil {
			return nil
		} else if !errors.Is(err, shared.ErrNotFound) {
			return &RetryableError{SourceRef: raw.SourceRef,
				Err: fmt.Errorf("failed to load %s %s: %w", p.mapper.Kind(), key, err)}
		}

		entity, err := p.mapper.New(raw.TenantID, key, view)
		if err != nil {
			return &MalformedDocumentError{SourceRef: raw.SourceRef, Reason: "cannot materialize entity", Err: err}
		}
		if err := p.repo.Create(ctx, entity); err != nil {
			return &RetryableError{SourceRef: raw.SourceRef,
				Err: fmt.Errorf("failed to create %s %s: %w", p.mapper.Kind(), key, err)}
		}
		created = true
		p.logger.Info("created document entity",
			zap.String("kind", p.mapper.Kind().String()),
			zap.String("business_key", key),
		)
		return nil
	})
	return created, err
}

// cancel voids an existing entity. Cancellations for unknown keys and for
// kinds that do not honor cancellation are acknowledged and dropped.
func (p *Pipeline[R, L, D]) cancel(ctx context.Context, raw RawDocument, lockKey, key string, rev document.Revision, result *Result) (*Result, error) {
	canceler, ok := any(p.mapper).(Canceler[R])
	if !ok {
		result.Outcome = OutcomeCancelIgnored
		return result, nil
	}

	var committed *audit.Record
	err := p.locks.WithLock(ctx, lockKey, func(ctx context.Context) error {
		entity, err := p.repo.FindByBusinessKey(ctx, raw.TenantID, key)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				result.Outcome = OutcomeCancelIgnored
				return nil
			}
			return &RetryableError{SourceRef: raw.SourceRef,
				Err: fmt.Errorf("failed to load %s %s: %w", p.mapper.Kind(), key, err)}
		}

		if !entity.GetRevision().Accepts(rev) {
			p.logStale(key, rev, entity.GetRevision())
			result.Outcome = OutcomeStale
			return nil
		}

		if !canceler.Cancel(entity) {
			result.Outcome = OutcomeUnchanged
			return nil
		}

		entity.ApplyRevision(rev, raw.SourceRef)
		rec, err := audit.NewRecord(raw.TenantID, p.mapper.Kind().String(), entity.GetID(), key, int64(rev), p.actor, raw.SourceRef, entity)
		if err != nil {
			return err
		}
		if err := p.repo.SaveWithAudit(ctx, entity, rec); err != nil {
			return &RetryableError{SourceRef: raw.SourceRef,
				Err: fmt.Errorf("failed to save %s %s: %w", p.mapper.Kind(), key, err)}
		}
		committed = rec
		p.drainEvents(entity)
		result.Outcome = OutcomeCancelApplied
		return nil
	})
	if err != nil {
		return nil, err
	}

	p.emit(ctx, committed)
	return result, nil
}

// references assembles the per-ingestion lookup set
func (p *Pipeline[R, L, D]) references(ctx context.Context, raw RawDocument) *References {
	refs := &References{
		Parties:  make(map[string]uuid.UUID),
		Products: NewLookupCache(p.products, raw.TenantID),
	}
	if p.orders != nil {
		tenantID := raw.TenantID
		refs.FindOrder = func(ctx context.Context, orderNumber string) (*document.Order, error) {
			return p.orders.FindOpenByOrderNumber(ctx, tenantID, orderNumber)
		}
	}
	return refs
}

// resolveParties resolves every party the document names and attaches the
// results through the mapper's bindings
func (p *Pipeline[R, L, D]) resolveParties(
	ctx context.Context,
	raw RawDocument,
	view DocumentView,
	entity R,
	refs *References,
	tracker *shared.ChangeTracker,
	violations *ViolationList,
) error {
	if p.resolver == nil {
		return nil
	}

	for _, d := range p.mapper.PartyDescriptors(view) {
		binding, ok := p.bindings[d.Role]
		if !ok {
			violations.Add("parties", "UNKNOWN_PARTY_ROLE",
				fmt.Sprintf("mapper emitted undeclared role %q", d.Role))
			continue
		}
		if d.SystemCode == "" {
			d.SystemCode = raw.SystemCode
		}

		id, found, err := p.resolver.Resolve(ctx, raw.TenantID, d)
		if err != nil {
			var de *shared.DomainError
			if errors.As(err, &de) {
				violations.Add("parties", de.Code, de.Message)
				continue
			}
			// Party lookups and saves only fail when the store or the
			// lock backend does, so the document is worth another pass.
			return &RetryableError{SourceRef: raw.SourceRef, Err: err}
		}
		if !found {
			continue
		}
		refs.Parties[d.Role] = *id
		tracker.MarkIf(binding.Attach(entity, id))
	}
	return nil
}

// drainEvents logs and clears the entity's domain events after commit
func (p *Pipeline[R, L, D]) drainEvents(entity R) {
	for _, ev := range entity.GetDomainEvents() {
		p.logger.Info("domain event",
			zap.String("event_type", ev.EventType()),
			zap.String("aggregate_id", ev.AggregateID().String()),
		)
	}
	entity.ClearDomainEvents()
}

// emit mirrors a committed audit record to the configured sink. The commit
// already happened; sink failures are logged and swallowed.
func (p *Pipeline[R, L, D]) emit(ctx context.Context, rec *audit.Record) {
	if rec == nil {
		return
	}
	if err := p.sink.Emit(ctx, rec); err != nil {
		p.logger.Warn("audit sink emit failed",
			zap.String("business_key", rec.BusinessKey),
			zap.Error(err),
		)
	}
}

func (p *Pipeline[R, L, D]) logStale(key string, incoming, current document.Revision) {
	p.logger.Debug("discarded stale document",
		zap.String("kind", p.mapper.Kind().String()),
		zap.String("business_key", key),
		zap.String("incoming_revision", incoming.String()),
		zap.String("current_revision", current.String()),
	)
}
