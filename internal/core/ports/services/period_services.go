package services

import (
	"context"
	"time"

	"github.com/Fattieportal/boekhouding-saas/internal/core/domain"
)

// PeriodSvcFacade manages monthly period locks
type PeriodSvcFacade interface {
	// IsPeriodOpen is false when the month of date is closed or its year is permanently closed.
	IsPeriodOpen(ctx context.Context, tenantID string, date time.Time) (bool, error)
	GetPeriodStatus(ctx context.Context, tenantID string, year, month int) (*domain.PeriodStatus, error)
	ClosePeriod(ctx context.Context, tenantID string, year, month int, actor string) (*domain.PeriodClosure, error)
	ReopenPeriod(ctx context.Context, tenantID string, year, month int, actor string, reason string) (*domain.PeriodReopen, error)
}

// YearEndSvcFacade closes fiscal years and carries balances forward
type YearEndSvcFacade interface {
	CloseYear(ctx context.Context, tenantID string, year int, actor string) (*domain.YearEndClosure, error)
	GenerateOpeningBalances(ctx context.Context, tenantID string, year int, actor string) (*domain.JournalEntry, error)
	GetYearEndClosure(ctx context.Context, tenantID string, year int) (*domain.YearEndClosure, error)
	IncomeSummary(ctx context.Context, tenantID string, year int) (*domain.IncomeSummary, error)
}
