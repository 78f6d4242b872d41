package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/Fattieportal/boekhouding-saas/internal/apperrors"
	"github.com/Fattieportal/boekhouding-saas/internal/core/domain"
)

func (s *Store) FindCalculationByID(ctx context.Context, tenantID, calculationID string) (*domain.VATCalculation, error) {
	var out *domain.VATCalculation
	err := s.with(ctx, func(st *state) error {
		c, ok := st.vat[calculationID]
		if !ok || c.TenantID != tenantID {
			return apperrors.ErrNotFound
		}
		out = &c
		return nil
	})
	return out, err
}

func findQuarter(st *state, tenantID string, year, quarter int) (domain.VATCalculation, bool) {
	for _, c := range st.vat {
		if c.TenantID == tenantID && c.Year == year && c.Quarter == quarter {
			return c, true
		}
	}
	return domain.VATCalculation{}, false
}

func (s *Store) FindCalculationByQuarter(ctx context.Context, tenantID string, year, quarter int) (*domain.VATCalculation, error) {
	var out *domain.VATCalculation
	err := s.with(ctx, func(st *state) error {
		c, ok := findQuarter(st, tenantID, year, quarter)
		if !ok {
			return apperrors.ErrNotFound
		}
		out = &c
		return nil
	})
	return out, err
}

func (s *Store) ListCalculations(ctx context.Context, tenantID string, year int) ([]domain.VATCalculation, error) {
	var out []domain.VATCalculation
	err := s.with(ctx, func(st *state) error {
		for _, c := range st.vat {
			if c.TenantID == tenantID && c.Year == year {
				out = append(out, c)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Quarter < out[j].Quarter })
	return out, err
}

func (s *Store) SaveCalculation(ctx context.Context, calc domain.VATCalculation) error {
	return s.with(ctx, func(st *state) error {
		if existing, ok := findQuarter(st, calc.TenantID, calc.Year, calc.Quarter); ok {
			if existing.Status == domain.VATSubmitted {
				return fmt.Errorf("%w: %d Q%d", apperrors.ErrAlreadySubmitted, calc.Year, calc.Quarter)
			}
			delete(st.vat, existing.CalculationID)
		}
		calc.Lines = append([]domain.VATRateLine(nil), calc.Lines...)
		st.vat[calc.CalculationID] = calc
		return nil
	})
}

func (s *Store) MarkSubmitted(ctx context.Context, calc domain.VATCalculation) error {
	return s.with(ctx, func(st *state) error {
		current, ok := st.vat[calc.CalculationID]
		if !ok || current.TenantID != calc.TenantID {
			return apperrors.ErrNotFound
		}
		if current.Status != domain.VATCalculated {
			return fmt.Errorf("%w: %d Q%d", apperrors.ErrAlreadySubmitted, current.Year, current.Quarter)
		}
		current.Status = domain.VATSubmitted
		current.SubmittedAt = calc.SubmittedAt
		current.SubmittedBy = calc.SubmittedBy
		st.vat[calc.CalculationID] = current
		return nil
	})
}
