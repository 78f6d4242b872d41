package repositories

import (
	"context"

	"github.com/Fattieportal/boekhouding-saas/internal/core/domain"
)

// PeriodRepositoryFacade persists the append-only period log and year-end closures.
type PeriodRepositoryFacade interface {
	// AppendPeriodEvent adds a closure or reopening to the log and assigns its sequence.
	AppendPeriodEvent(ctx context.Context, event domain.PeriodEvent) (*domain.PeriodEvent, error)

	// ListPeriodEvents returns the log of one month in sequence order.
	ListPeriodEvents(ctx context.Context, tenantID string, period domain.Period) ([]domain.PeriodEvent, error)

	// ListYearPeriodEvents returns the log of every month of a year in sequence order.
	ListYearPeriodEvents(ctx context.Context, tenantID string, year int) ([]domain.PeriodEvent, error)

	// FindYearEndClosure returns apperrors.ErrNotFound when the year was never closed.
	FindYearEndClosure(ctx context.Context, tenantID string, year int) (*domain.YearEndClosure, error)

	// SaveYearEndClosure inserts a closure; a second closure of the same year yields apperrors.ErrDuplicate.
	SaveYearEndClosure(ctx context.Context, closure domain.YearEndClosure) error
}
