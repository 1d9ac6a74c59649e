package ingest

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/edibridge/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// Ingester is the kind-erased face of a Pipeline, so one worker pool can
// serve orders, shipments and invoices together.
type Ingester interface {
	Ingest(ctx context.Context, raw RawDocument) (*Result, error)
}

// MetaDocumentType is the RawDocument.Meta key the router dispatches on
const MetaDocumentType = "documentType"

// Router dispatches raw documents to the pipeline registered for their
// (system, document type) pair.
type Router struct {
	mu   sync.RWMutex
	byID map[string]Ingester
}

// NewRouter creates an empty router
func NewRouter() *Router {
	return &Router{byID: make(map[string]Ingester)}
}

// Register binds a pipeline to a (system, document type) pair
func (r *Router) Register(systemCode, documentType string, ing Ingester) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[systemCode+"/"+documentType] = ing
}

// Route returns the pipeline for a raw document
func (r *Router) Route(raw RawDocument) (Ingester, error) {
	docType := raw.Meta[MetaDocumentType]
	r.mu.RLock()
	defer r.mu.RUnlock()
	ing, ok := r.byID[raw.SystemCode+"/"+docType]
	if !ok {
		return nil, shared.NewDomainError("UNROUTABLE_DOCUMENT",
			fmt.Sprintf("no pipeline registered for %s/%s", raw.SystemCode, docType))
	}
	return ing, nil
}

// DeadLetterFunc receives documents that can never succeed: unroutable,
// malformed, rule-violating, or out of retries
type DeadLetterFunc func(ctx context.Context, raw RawDocument, err error)

// job tracks retry state alongside the document
type job struct {
	raw      RawDocument
	attempts int
}

// Pool runs a fixed set of workers over a shared document queue. Lock
// timeouts and backend outages requeue the document with a delay; terminal
// failures go to the dead-letter hook.
type Pool struct {
	router     *Router
	queue      chan job
	workers    int
	maxRetries int
	retryDelay time.Duration
	deadLetter DeadLetterFunc
	logger     *zap.Logger
	wg         sync.WaitGroup
	stopOnce   sync.Once
	stopped    atomic.Bool
}

// PoolOption is a functional option for configuring the pool
type PoolOption func(*Pool)

// WithWorkers sets the number of concurrent workers
func WithWorkers(n int) PoolOption {
	return func(p *Pool) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithQueueDepth sets the submit buffer size
func WithQueueDepth(n int) PoolOption {
	return func(p *Pool) {
		if n > 0 {
			p.queue = make(chan job, n)
		}
	}
}

// WithMaxRetries caps how often a transiently failing document is requeued
func WithMaxRetries(n int) PoolOption {
	return func(p *Pool) {
		p.maxRetries = n
	}
}

// WithRetryDelay sets the pause before a requeued document is retried
func WithRetryDelay(d time.Duration) PoolOption {
	return func(p *Pool) {
		p.retryDelay = d
	}
}

// WithDeadLetter sets the hook for documents that can never succeed
func WithDeadLetter(fn DeadLetterFunc) PoolOption {
	return func(p *Pool) {
		p.deadLetter = fn
	}
}

// WithPoolLogger sets the logger
func WithPoolLogger(logger *zap.Logger) PoolOption {
	return func(p *Pool) {
		p.logger = logger
	}
}

// NewPool creates a worker pool over the given router
func NewPool(router *Router, opts ...PoolOption) *Pool {
	p := &Pool{
		router:     router,
		queue:      make(chan job, 256),
		workers:    4,
		maxRetries: 5,
		retryDelay: 200 * time.Millisecond,
		deadLetter: func(context.Context, RawDocument, error) {},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start launches the workers. They drain until Stop is called and the
// queue is empty, or the context is canceled.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.run(ctx)
	}
}

// Submit enqueues a document, blocking while the queue is full
func (p *Pool) Submit(ctx context.Context, raw RawDocument) error {
	if p.stopped.Load() {
		return shared.NewDomainError("POOL_STOPPED", "worker pool is shutting down")
	}
	select {
	case p.queue <- job{raw: raw}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop closes the queue and waits for in-flight documents to finish
func (p *Pool) Stop() {
	p.stopOnce.Do(func() {
		p.stopped.Store(true)
		close(p.queue)
	})
	p.wg.Wait()
}

func (p *Pool) run(ctx context.Context) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case j, ok := <-p.queue:
			if !ok {
				return
			}
			p.process(ctx, j)
		}
	}
}

func (p *Pool) process(ctx context.Context, j job) {
	ing, err := p.router.Route(j.raw)
	if err != nil {
		p.logger.Error("unroutable document",
			zap.String("source_ref", j.raw.SourceRef),
			zap.Error(err),
		)
		p.deadLetter(ctx, j.raw, err)
		return
	}

	result, err := ing.Ingest(ctx, j.raw)
	if err == nil {
		p.logger.Info("document ingested",
			zap.String("source_ref", j.raw.SourceRef),
			zap.String("business_key", result.BusinessKey),
			zap.String("outcome", string(result.Outcome)),
			zap.Int("lines_created", result.LinesCreated),
			zap.Int("lines_updated", result.LinesUpdated),
			zap.Int("lines_skipped", len(result.SkippedLineKeys)),
		)
		return
	}

	if IsRetryable(err) {
		p.retry(ctx, j, err)
		return
	}

	p.logger.Error("document rejected",
		zap.String("source_ref", j.raw.SourceRef),
		zap.Error(err),
	)
	p.deadLetter(ctx, j.raw, err)
}

// retry re-runs a document that hit a transient failure on the same worker
// after a delay, until its attempts are used up
func (p *Pool) retry(ctx context.Context, j job, cause error) {
	if j.attempts >= p.maxRetries {
		p.logger.Error("document exhausted retries",
			zap.String("source_ref", j.raw.SourceRef),
			zap.Int("attempts", j.attempts),
		)
		p.deadLetter(ctx, j.raw, cause)
		return
	}

	j.attempts++
	p.logger.Warn("transient failure, retrying document",
		zap.String("source_ref", j.raw.SourceRef),
		zap.Int("attempt", j.attempts),
		zap.Error(cause),
	)

	select {
	case <-ctx.Done():
	case <-time.After(p.retryDelay):
		p.process(ctx, j)
	}
}
