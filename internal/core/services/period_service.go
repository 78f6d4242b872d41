package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Fattieportal/boekhouding-saas/internal/apperrors"
	"github.com/Fattieportal/boekhouding-saas/internal/core/domain"
	portssvc "github.com/Fattieportal/boekhouding-saas/internal/core/ports/services"
)

type periodService struct {
	*LedgerEngine
}

// NewPeriodService creates the monthly period lock manager.
func NewPeriodService(engine *LedgerEngine) portssvc.PeriodSvcFacade {
	return &periodService{LedgerEngine: engine}
}

var _ portssvc.PeriodSvcFacade = (*periodService)(nil)

func (s *periodService) IsPeriodOpen(ctx context.Context, tenantID string, date time.Time) (bool, error) {
	p := domain.PeriodOf(date)
	permanent, err := s.isYearPermanent(ctx, tenantID, p.Year)
	if err != nil {
		return false, err
	}
	if permanent {
		return false, nil
	}
	st, err := s.periodStatus(ctx, tenantID, p)
	if err != nil {
		return false, err
	}
	return st.IsOpen, nil
}

func (s *periodService) GetPeriodStatus(ctx context.Context, tenantID string, year, month int) (*domain.PeriodStatus, error) {
	p := domain.Period{Year: year, Month: time.Month(month)}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	st, err := s.periodStatus(ctx, tenantID, p)
	if err != nil {
		s.LogError(ctx, err, "Failed to load period status", slog.String("period", p.String()))
		return nil, err
	}
	permanent, err := s.isYearPermanent(ctx, tenantID, year)
	if err != nil {
		return nil, err
	}
	if permanent {
		st.IsOpen = false
	}
	return &st, nil
}

// ClosePeriod freezes a month. Drafts dated in the month must be posted or deleted first.
func (s *periodService) ClosePeriod(ctx context.Context, tenantID string, year, month int, actor string) (*domain.PeriodClosure, error) {
	p := domain.Period{Year: year, Month: time.Month(month)}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	var closure domain.PeriodClosure
	err := s.withPeriodLocks(ctx, tenantID, []domain.Period{p}, func(ctx context.Context) error {
		permanent, err := s.isYearPermanent(ctx, tenantID, year)
		if err != nil {
			return err
		}
		if permanent {
			return fmt.Errorf("%w: %d", apperrors.ErrYearClosed, year)
		}
		st, err := s.periodStatus(ctx, tenantID, p)
		if err != nil {
			return err
		}
		if !st.IsOpen {
			return fmt.Errorf("%w: %s", apperrors.ErrAlreadyClosed, p)
		}
		drafts, err := s.repos.JournalRepo.CountDrafts(ctx, tenantID, p.Start(), p.End())
		if err != nil {
			return err
		}
		if drafts > 0 {
			return fmt.Errorf("%w: %d draft entries dated in %s", apperrors.ErrOpenDraftsExist, drafts, p)
		}

		ev, err := s.repos.PeriodRepo.AppendPeriodEvent(ctx, domain.PeriodEvent{
			TenantID:   tenantID,
			Year:       year,
			Month:      month,
			Kind:       domain.PeriodClosed,
			Actor:      actor,
			OccurredAt: s.now(),
		})
		if err != nil {
			return err
		}
		closure = ev.Closure()
		return s.audit(ctx, tenantID, actor, domain.ActionPeriodClosed, domain.EntityPeriod, p.String(), map[string]any{
			"isOpen": map[string]any{"from": true, "to": false},
		})
	})
	if err != nil {
		s.logFailure(ctx, err, "Failed to close period", slog.String("period", p.String()))
		return nil, err
	}

	s.LogInfo(ctx, "Period closed", slog.String("period", p.String()), slog.String("actor", actor))
	return &closure, nil
}

// ReopenPeriod records a reopening. The original closure stays in the log.
func (s *periodService) ReopenPeriod(ctx context.Context, tenantID string, year, month int, actor string, reason string) (*domain.PeriodReopen, error) {
	p := domain.Period{Year: year, Month: time.Month(month)}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, fmt.Errorf("%w: a reason is required to reopen a period", apperrors.ErrValidation)
	}

	var reopen domain.PeriodReopen
	err := s.withPeriodLocks(ctx, tenantID, []domain.Period{p}, func(ctx context.Context) error {
		permanent, err := s.isYearPermanent(ctx, tenantID, year)
		if err != nil {
			return err
		}
		if permanent {
			return fmt.Errorf("%w: %d", apperrors.ErrYearClosed, year)
		}
		st, err := s.periodStatus(ctx, tenantID, p)
		if err != nil {
			return err
		}
		if st.IsOpen {
			return fmt.Errorf("%w: %s", apperrors.ErrNotClosed, p)
		}

		ev, err := s.repos.PeriodRepo.AppendPeriodEvent(ctx, domain.PeriodEvent{
			TenantID:   tenantID,
			Year:       year,
			Month:      month,
			Kind:       domain.PeriodReopened,
			Actor:      actor,
			Reason:     reason,
			OccurredAt: s.now(),
		})
		if err != nil {
			return err
		}
		reopen = ev.Reopen()
		return s.audit(ctx, tenantID, actor, domain.ActionPeriodReopened, domain.EntityPeriod, p.String(), map[string]any{
			"isOpen": map[string]any{"from": false, "to": true},
			"reason": reason,
		})
	})
	if err != nil {
		s.logFailure(ctx, err, "Failed to reopen period", slog.String("period", p.String()))
		return nil, err
	}

	s.LogInfo(ctx, "Period reopened", slog.String("period", p.String()), slog.String("actor", actor))
	return &reopen, nil
}
