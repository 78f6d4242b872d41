// Package job holds the background workers: the audit outbox relay and the periodic bank sync.
package job

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Fattieportal/boekhouding-saas/internal/core/domain"
	"github.com/Fattieportal/boekhouding-saas/internal/core/ports"
	portsrepo "github.com/Fattieportal/boekhouding-saas/internal/core/ports/repositories"
	"github.com/Fattieportal/boekhouding-saas/internal/middleware"
)

const defaultRelayBatch = 100

// AuditRelay moves Pending audit records from the outbox to the publisher. A record that
// keeps failing is marked Failed after maxRetries attempts.
type AuditRelay struct {
	outbox     portsrepo.AuditOutbox
	publisher  ports.AuditPublisher
	interval   time.Duration
	batchSize  int
	maxRetries int
	stopCh     chan struct{}
	stopOnce   sync.Once
}

// NewAuditRelay creates a relay polling every interval.
func NewAuditRelay(outbox portsrepo.AuditOutbox, publisher ports.AuditPublisher, interval time.Duration, maxRetries int) *AuditRelay {
	if interval <= 0 {
		interval = time.Second
	}
	if maxRetries <= 0 {
		maxRetries = 5
	}
	return &AuditRelay{
		outbox:     outbox,
		publisher:  publisher,
		interval:   interval,
		batchSize:  defaultRelayBatch,
		maxRetries: maxRetries,
		stopCh:     make(chan struct{}),
	}
}

// Start blocks until ctx is done or Stop is called.
func (r *AuditRelay) Start(ctx context.Context) {
	logger := middleware.GetLoggerFromCtx(ctx).With(slog.String("job", "audit_relay"))
	ctx = middleware.WithLogger(ctx, logger)
	logger.Info("Audit relay started", slog.Duration("interval", r.interval))

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Audit relay stopping", slog.String("reason", ctx.Err().Error()))
			return
		case <-r.stopCh:
			logger.Info("Audit relay stopped")
			return
		case <-ticker.C:
			r.RelayOnce(ctx)
		}
	}
}

// Stop ends Start. It is safe to call more than once.
func (r *AuditRelay) Stop() {
	r.stopOnce.Do(func() { close(r.stopCh) })
}

// RelayOnce publishes one batch and returns how many records were sent.
func (r *AuditRelay) RelayOnce(ctx context.Context) int {
	logger := middleware.GetLoggerFromCtx(ctx)
	records, err := r.outbox.ListPendingAuditRecords(ctx, r.batchSize)
	if err != nil {
		logger.Error("Failed to list pending audit records", slog.String("error", err.Error()))
		return 0
	}

	sent := 0
	for _, rec := range records {
		if r.relay(ctx, rec) {
			sent++
		}
	}
	if len(records) > 0 {
		logger.Debug("Audit batch relayed", slog.Int("pending", len(records)), slog.Int("sent", sent))
	}
	return sent
}

func (r *AuditRelay) relay(ctx context.Context, rec domain.AuditRecord) bool {
	logger := middleware.GetLoggerFromCtx(ctx).With(slog.String("record_id", rec.RecordID))

	err := r.publisher.PublishAudit(ctx, rec)
	if err == nil {
		if err := r.outbox.MarkAuditRecordSent(ctx, rec.RecordID); err != nil {
			logger.Error("Failed to mark audit record sent", slog.String("error", err.Error()))
		}
		return true
	}
	logger.Warn("Failed to publish audit record", slog.Int("retry_count", rec.RetryCount), slog.String("error", err.Error()))

	if err := r.outbox.IncrementAuditRetry(ctx, rec.RecordID); err != nil {
		logger.Error("Failed to increment audit retry count", slog.String("error", err.Error()))
	}
	if rec.RetryCount+1 >= r.maxRetries {
		if err := r.outbox.MarkAuditRecordFailed(ctx, rec.RecordID); err != nil {
			logger.Error("Failed to mark audit record failed", slog.String("error", err.Error()))
		} else {
			logger.Error("Audit record exceeded max retries", slog.Int("max_retries", r.maxRetries))
		}
	}
	return false
}
