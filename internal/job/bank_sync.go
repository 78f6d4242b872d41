package job

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Fattieportal/boekhouding-saas/internal/core/domain"
	portssvc "github.com/Fattieportal/boekhouding-saas/internal/core/ports/services"
	"github.com/Fattieportal/boekhouding-saas/internal/middleware"
	"golang.org/x/sync/errgroup"
)

// SystemActor is recorded as the actor of background operations.
const SystemActor = "system:bank-sync"

// BankSync periodically imports statements of every syncable connection and auto-matches
// the new rows.
type BankSync struct {
	bank        portssvc.BankSvcFacade
	interval    time.Duration
	lookback    time.Duration
	concurrency int
	clock       func() time.Time
	stopCh      chan struct{}
	stopOnce    sync.Once
}

// NewBankSync creates the job. lookbackDays is how far back each run re-fetches.
func NewBankSync(bank portssvc.BankSvcFacade, interval time.Duration, lookbackDays, concurrency int) *BankSync {
	if interval <= 0 {
		interval = time.Hour
	}
	if lookbackDays <= 0 {
		lookbackDays = 7
	}
	if concurrency <= 0 {
		concurrency = 1
	}
	return &BankSync{
		bank:        bank,
		interval:    interval,
		lookback:    time.Duration(lookbackDays) * 24 * time.Hour,
		concurrency: concurrency,
		clock:       time.Now,
		stopCh:      make(chan struct{}),
	}
}

// Start runs one pass immediately, then every interval, until ctx is done or Stop is called.
func (j *BankSync) Start(ctx context.Context) {
	logger := middleware.GetLoggerFromCtx(ctx).With(slog.String("job", "bank_sync"))
	ctx = middleware.WithLogger(ctx, logger)
	logger.Info("Bank sync started", slog.Duration("interval", j.interval), slog.Int("concurrency", j.concurrency))

	j.RunOnce(ctx)
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Info("Bank sync stopping", slog.String("reason", ctx.Err().Error()))
			return
		case <-j.stopCh:
			logger.Info("Bank sync stopped")
			return
		case <-ticker.C:
			j.RunOnce(ctx)
		}
	}
}

// Stop ends Start. It is safe to call more than once.
func (j *BankSync) Stop() {
	j.stopOnce.Do(func() { close(j.stopCh) })
}

// RunOnce syncs all connections with bounded concurrency. One failing connection does not
// stop the others. It returns the number of connections synced successfully.
func (j *BankSync) RunOnce(ctx context.Context) int {
	logger := middleware.GetLoggerFromCtx(ctx)
	conns, err := j.bank.ListSyncableConnections(ctx)
	if err != nil {
		logger.Error("Failed to list syncable connections", slog.String("error", err.Error()))
		return 0
	}

	now := j.clock().UTC()
	to := domain.DateOnly(now)
	from := domain.DateOnly(now.Add(-j.lookback))

	var mu sync.Mutex
	succeeded := 0
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(j.concurrency)
	for _, conn := range conns {
		g.Go(func() error {
			if j.syncConnection(gctx, conn, from, to) {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	logger.Info("Bank sync pass finished", slog.Int("connections", len(conns)), slog.Int("succeeded", succeeded))
	return succeeded
}

func (j *BankSync) syncConnection(ctx context.Context, conn domain.BankConnection, from, to time.Time) bool {
	logger := middleware.GetLoggerFromCtx(ctx).With(
		slog.String("tenant_id", conn.TenantID),
		slog.String("connection_id", conn.ConnectionID))
	ctx = middleware.WithLogger(ctx, logger)

	res, err := j.bank.Sync(ctx, conn.TenantID, conn.ConnectionID, from, to, SystemActor)
	if err != nil {
		logger.Warn("Bank sync failed", slog.String("error", err.Error()))
		return false
	}
	results, err := j.bank.AutoMatchUnmatched(ctx, conn.TenantID, conn.ConnectionID, SystemActor)
	if err != nil {
		logger.Warn("Auto-match after sync failed", slog.String("error", err.Error()))
		return true
	}
	matched := 0
	for _, r := range results {
		if r.Outcome == domain.OutcomeMatched {
			matched++
		}
	}
	logger.Info("Bank connection synced",
		slog.Int("imported", res.Imported),
		slog.Int("updated", res.Updated),
		slog.Int("matched", matched))
	return true
}
