// Package intake feeds documents from a local inbox directory into the
// ingestion pool. It exists for deployments where the trading partner drops
// files over SFTP onto a shared volume; queue-based transports submit to
// the pool directly.
package intake

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/edibridge/backend/internal/application/ingest"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	processedDir = "processed"
	failedDir    = "failed"
)

// Submitter accepts raw documents for asynchronous processing
type Submitter interface {
	Submit(ctx context.Context, raw ingest.RawDocument) error
}

// Poller sweeps an inbox directory on a fixed interval. File names carry
// the routing metadata: <systemCode>_<documentType>_<anything>.xml, e.g.
// GTN_order_20260812T0930_001.xml. Swept files move to processed/ once
// accepted into the queue and failed/ when the name is unroutable; a
// refused submission stays in place for the next sweep. The worker drains
// its queue before stopping, so accepted documents are not dropped on a
// clean shutdown.
type Poller struct {
	dir      string
	interval time.Duration
	tenantID uuid.UUID
	sink     Submitter
	logger   *zap.Logger
}

// NewPoller creates a poller over the given inbox directory
func NewPoller(dir string, interval time.Duration, tenantID uuid.UUID, sink Submitter, logger *zap.Logger) *Poller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Poller{
		dir:      dir,
		interval: interval,
		tenantID: tenantID,
		sink:     sink,
		logger:   logger,
	}
}

// Run sweeps until the context is cancelled. The inbox and its processed/
// and failed/ subdirectories are created if missing.
func (p *Poller) Run(ctx context.Context) error {
	for _, sub := range []string{"", processedDir, failedDir} {
		if err := os.MkdirAll(filepath.Join(p.dir, sub), 0o755); err != nil {
			return fmt.Errorf("failed to prepare inbox directory: %w", err)
		}
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.sweep(ctx)
		}
	}
}

func (p *Poller) sweep(ctx context.Context) {
	entries, err := os.ReadDir(p.dir)
	if err != nil {
		p.logger.Error("Inbox sweep failed", zap.String("dir", p.dir), zap.Error(err))
		return
	}

	for _, entry := range entries {
		if ctx.Err() != nil {
			return
		}
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".xml") {
			continue
		}
		p.pickUp(ctx, entry.Name())
	}
}

func (p *Poller) pickUp(ctx context.Context, name string) {
	path := filepath.Join(p.dir, name)

	systemCode, docType, err := parseFileName(name)
	if err != nil {
		p.logger.Warn("Unroutable inbox file",
			zap.String("file", name),
			zap.Error(err),
		)
		p.move(name, failedDir)
		return
	}

	body, err := os.ReadFile(path)
	if err != nil {
		p.logger.Error("Failed to read inbox file", zap.String("file", name), zap.Error(err))
		return
	}

	raw := ingest.RawDocument{
		TenantID:   p.tenantID,
		SystemCode: systemCode,
		SourceRef:  name,
		Body:       body,
		Meta:       map[string]string{ingest.MetaDocumentType: docType},
	}

	if err := p.sink.Submit(ctx, raw); err != nil {
		// Leave the file in place so the next sweep retries it
		p.logger.Warn("Submission refused, leaving file for next sweep",
			zap.String("file", name),
			zap.Error(err),
		)
		return
	}

	p.logger.Info("Inbox file submitted",
		zap.String("file", name),
		zap.String("system_code", systemCode),
		zap.String("document_type", docType),
	)
	p.move(name, processedDir)
}

func (p *Poller) move(name, sub string) {
	src := filepath.Join(p.dir, name)
	dst := filepath.Join(p.dir, sub, name)
	if err := os.Rename(src, dst); err != nil {
		p.logger.Error("Failed to move inbox file",
			zap.String("file", name),
			zap.String("to", sub),
			zap.Error(err),
		)
	}
}

// parseFileName extracts the routing pair from an inbox file name of the
// form <systemCode>_<documentType>_<anything>.xml
func parseFileName(name string) (systemCode, docType string, err error) {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	parts := strings.SplitN(base, "_", 3)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("file name %q does not match <system>_<type>_<ref>.xml", name)
	}
	return parts[0], strings.ToLower(parts[1]), nil
}
