package memory

import (
	"context"
	"fmt"

	"github.com/Fattieportal/boekhouding-saas/internal/apperrors"
	"github.com/Fattieportal/boekhouding-saas/internal/core/domain"
)

func (s *Store) AppendPeriodEvent(ctx context.Context, event domain.PeriodEvent) (*domain.PeriodEvent, error) {
	err := s.with(ctx, func(st *state) error {
		st.periodSeq++
		event.Sequence = st.periodSeq
		st.periodEvents = append(st.periodEvents, event)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (s *Store) ListPeriodEvents(ctx context.Context, tenantID string, period domain.Period) ([]domain.PeriodEvent, error) {
	var out []domain.PeriodEvent
	err := s.with(ctx, func(st *state) error {
		for _, ev := range st.periodEvents {
			if ev.TenantID == tenantID && ev.Year == period.Year && ev.Month == int(period.Month) {
				out = append(out, ev)
			}
		}
		return nil
	})
	return out, err
}

func (s *Store) ListYearPeriodEvents(ctx context.Context, tenantID string, year int) ([]domain.PeriodEvent, error) {
	var out []domain.PeriodEvent
	err := s.with(ctx, func(st *state) error {
		for _, ev := range st.periodEvents {
			if ev.TenantID == tenantID && ev.Year == year {
				out = append(out, ev)
			}
		}
		return nil
	})
	return out, err
}

func (s *Store) FindYearEndClosure(ctx context.Context, tenantID string, year int) (*domain.YearEndClosure, error) {
	var out *domain.YearEndClosure
	err := s.with(ctx, func(st *state) error {
		c, ok := st.yearEnds[tenantYearKey(tenantID, year)]
		if !ok {
			return apperrors.ErrNotFound
		}
		out = &c
		return nil
	})
	return out, err
}

func (s *Store) SaveYearEndClosure(ctx context.Context, closure domain.YearEndClosure) error {
	return s.with(ctx, func(st *state) error {
		key := tenantYearKey(closure.TenantID, closure.Year)
		if _, ok := st.yearEnds[key]; ok {
			return fmt.Errorf("%w: year-end closure %d", apperrors.ErrDuplicate, closure.Year)
		}
		st.yearEnds[key] = closure
		return nil
	})
}
