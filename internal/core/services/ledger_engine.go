package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"

	"github.com/Fattieportal/boekhouding-saas/internal/apperrors"
	"github.com/Fattieportal/boekhouding-saas/internal/core/domain"
	"github.com/Fattieportal/boekhouding-saas/internal/core/ports"
	portsrepo "github.com/Fattieportal/boekhouding-saas/internal/core/ports/repositories"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// LedgerEngine holds what every ledger-writing service shares: the repositories,
// the period locker, the clock and the audit trail.
type LedgerEngine struct {
	BaseService
	repos  portsrepo.RepositoryProvider
	locker ports.PeriodLocker
	newID  func() string
}

// EngineOption is a functional option for configuring the ledger engine
type EngineOption func(*LedgerEngine)

// WithClock pins the time source.
func WithClock(clock ports.Clock) EngineOption {
	return func(e *LedgerEngine) {
		e.clock = clock
	}
}

// WithIDGenerator replaces uuid generation for entity identifiers.
func WithIDGenerator(fn func() string) EngineOption {
	return func(e *LedgerEngine) {
		e.newID = fn
	}
}

// NewLedgerEngine creates the engine shared by the journal, period, year-end, VAT and bank services.
func NewLedgerEngine(repos portsrepo.RepositoryProvider, locker ports.PeriodLocker, options ...EngineOption) *LedgerEngine {
	e := &LedgerEngine{
		repos:  repos,
		locker: locker,
		newID:  uuid.NewString,
	}
	for _, option := range options {
		option(e)
	}
	return e
}

// PeriodLockKey is the locker key guarding one tenant period.
func PeriodLockKey(tenantID string, p domain.Period) string {
	return fmt.Sprintf("ledger:lock:%s:%s", tenantID, p.String())
}

// withPeriodLocks acquires the locks of all given periods in ascending order, then runs fn
// in one transaction. A held lock fails fast with apperrors.ErrConflict.
func (e *LedgerEngine) withPeriodLocks(ctx context.Context, tenantID string, periods []domain.Period, fn func(ctx context.Context) error) error {
	seen := make(map[string]struct{}, len(periods))
	keys := make([]string, 0, len(periods))
	for _, p := range periods {
		key := PeriodLockKey(tenantID, p)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		unlock, err := e.locker.TryLock(ctx, key)
		if err != nil {
			if errors.Is(err, ports.ErrLockHeld) {
				return fmt.Errorf("%w: %s is locked by another operation", apperrors.ErrConflict, key)
			}
			return apperrors.NewAppError(http.StatusInternalServerError, "failed to acquire period lock", err)
		}
		defer unlock()
	}
	return e.repos.TxManager.WithinTx(ctx, fn)
}

// isYearPermanent reports whether a permanent year-end closure exists for year.
func (e *LedgerEngine) isYearPermanent(ctx context.Context, tenantID string, year int) (bool, error) {
	closure, err := e.repos.PeriodRepo.FindYearEndClosure(ctx, tenantID, year)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return closure.Permanent, nil
}

func (e *LedgerEngine) periodStatus(ctx context.Context, tenantID string, p domain.Period) (domain.PeriodStatus, error) {
	events, err := e.repos.PeriodRepo.ListPeriodEvents(ctx, tenantID, p)
	if err != nil {
		return domain.PeriodStatus{}, err
	}
	return domain.NewPeriodStatus(p, events), nil
}

// postOptions relaxes checks for system-generated entries.
type postOptions struct {
	// skipPeriodLock ignores an ordinary month closure. Permanent years are always enforced.
	skipPeriodLock bool
	// allowInactive accepts deactivated accounts, so balances on them can still be moved.
	allowInactive bool
}

// ensureWritable rejects dates in a permanently closed year, then in a closed month.
func (e *LedgerEngine) ensureWritable(ctx context.Context, tenantID string, p domain.Period, opts postOptions) error {
	permanent, err := e.isYearPermanent(ctx, tenantID, p.Year)
	if err != nil {
		return err
	}
	if permanent {
		return fmt.Errorf("%w: %d", apperrors.ErrYearClosed, p.Year)
	}
	if opts.skipPeriodLock {
		return nil
	}
	st, err := e.periodStatus(ctx, tenantID, p)
	if err != nil {
		return err
	}
	if !st.IsOpen {
		return fmt.Errorf("%w: %s", apperrors.ErrPeriodClosed, p)
	}
	return nil
}

// validateAccounts checks that every line references an account of the tenant.
func (e *LedgerEngine) validateAccounts(ctx context.Context, tenantID string, lines []domain.JournalLine, opts postOptions) error {
	entry := domain.JournalEntry{Lines: lines}
	ids := entry.AccountIDs()
	if len(ids) == 0 {
		return nil
	}
	accounts, err := e.repos.AccountRepo.FindAccountsByIDs(ctx, tenantID, ids)
	if err != nil {
		return err
	}
	for _, id := range ids {
		acc, ok := accounts[id]
		if !ok {
			return fmt.Errorf("%w: account %s does not exist", apperrors.ErrValidation, id)
		}
		if !acc.IsActive && !opts.allowInactive {
			return fmt.Errorf("%w: account %s is inactive", apperrors.ErrValidation, acc.Code)
		}
	}
	return nil
}

// postDraft runs the posting checks in order and records the transition. It must run inside a transaction
// holding the lock of the entry's period.
func (e *LedgerEngine) postDraft(ctx context.Context, entry *domain.JournalEntry, actor string, opts postOptions) error {
	if err := entry.EnsureDraft(); err != nil {
		return err
	}
	if err := entry.ValidateLines(); err != nil {
		return err
	}
	if err := e.validateAccounts(ctx, entry.TenantID, entry.Lines, opts); err != nil {
		return err
	}
	if err := entry.CheckBalance(); err != nil {
		return err
	}
	if err := e.ensureWritable(ctx, entry.TenantID, entry.Period(), opts); err != nil {
		return err
	}
	if err := entry.Post(actor, e.now()); err != nil {
		return err
	}
	if err := e.repos.JournalRepo.MarkPosted(ctx, *entry); err != nil {
		return err
	}
	debit, _ := entry.Totals()
	return e.audit(ctx, entry.TenantID, actor, domain.ActionEntryPosted, domain.EntityJournalEntry, entry.EntryID, map[string]any{
		"status":    map[string]any{"from": domain.Draft, "to": domain.Posted},
		"kind":      entry.Kind,
		"reference": entry.Reference,
		"entryDate": entry.EntryDate.Format("2006-01-02"),
		"total":     debit.String(),
	})
}

// insertAndPost stores a system-generated entry as a draft and posts it in the same transaction.
func (e *LedgerEngine) insertAndPost(ctx context.Context, entry *domain.JournalEntry, actor string, opts postOptions) error {
	entry.Status = domain.Draft
	if err := e.repos.JournalRepo.SaveEntry(ctx, *entry); err != nil {
		return err
	}
	return e.postDraft(ctx, entry, actor, opts)
}

// audit appends a record to the outbox in the caller's transaction.
func (e *LedgerEngine) audit(ctx context.Context, tenantID, actor string, action domain.AuditAction, entityType, entityID string, diff map[string]any) error {
	record := domain.AuditRecord{
		RecordID:    ulid.Make().String(),
		TenantID:    tenantID,
		Actor:       actor,
		Action:      action,
		EntityType:  entityType,
		EntityID:    entityID,
		Diff:        diff,
		OccurredAt:  e.now(),
		RelayStatus: domain.RelayPending,
	}
	if err := e.repos.AuditRepo.AppendAuditRecord(ctx, record); err != nil {
		return fmt.Errorf("failed to append audit record: %w", err)
	}
	return nil
}

// logFailure logs unexpected errors at error level and business rejections at info level.
func (e *LedgerEngine) logFailure(ctx context.Context, err error, msg string, keyvals ...any) {
	if apperrors.HTTPStatus(err) >= http.StatusInternalServerError {
		e.LogError(ctx, err, msg, keyvals...)
		return
	}
	e.LogInfo(ctx, msg, append([]any{slog.String("reason", err.Error())}, keyvals...)...)
}
