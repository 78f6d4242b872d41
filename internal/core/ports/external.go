package ports

import (
	"context"
	"errors"
	"time"

	"github.com/Fattieportal/boekhouding-saas/internal/core/domain"
	"github.com/shopspring/decimal"
)

// ErrLockHeld is returned by a PeriodLocker when another holder owns the key.
var ErrLockHeld = errors.New("lock is held by another operation")

// PeriodLocker grants exclusive, non-blocking locks on tenant periods.
type PeriodLocker interface {
	// TryLock acquires key or fails immediately with ErrLockHeld. The returned func releases it.
	TryLock(ctx context.Context, key string) (unlock func(), err error)
}

// BankProvider is the external bank data aggregator.
type BankProvider interface {
	// FetchTransactions returns statement lines booked within [from, to].
	FetchTransactions(ctx context.Context, conn domain.BankConnection, from, to time.Time) ([]domain.ProviderTransaction, error)

	// FetchClosingBalance returns the provider-reported balance at the end of day.
	FetchClosingBalance(ctx context.Context, conn domain.BankConnection, day time.Time) (decimal.Decimal, error)

	// InitiateConsent returns the URL the user must visit to grant account access.
	InitiateConsent(ctx context.Context, conn domain.BankConnection) (string, error)
}

// AuditPublisher delivers audit records to downstream consumers.
type AuditPublisher interface {
	PublishAudit(ctx context.Context, record domain.AuditRecord) error
}

// Clock supplies the current time. Tests pin it.
type Clock func() time.Time
