package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/Fattieportal/boekhouding-saas/internal/apperrors"
	"github.com/Fattieportal/boekhouding-saas/internal/core/domain"
	portssvc "github.com/Fattieportal/boekhouding-saas/internal/core/ports/services"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

type vatService struct {
	*LedgerEngine
}

// NewVATService creates the quarterly VAT aggregator.
func NewVATService(engine *LedgerEngine) portssvc.VATSvcFacade {
	return &vatService{LedgerEngine: engine}
}

var _ portssvc.VATSvcFacade = (*vatService)(nil)

type vatKey struct {
	kind domain.VATKind
	rate string
}

// AggregateVAT groups ledger lines that carry a VAT rate by side and rate.
// Sales VAT comes from revenue lines (credit - debit), purchase VAT from expense lines (debit - credit).
// VAT per group is base * rate / 100 rounded to cents.
func AggregateVAT(lines []domain.LedgerLine) (sales, purchase decimal.Decimal, rateLines []domain.VATRateLine) {
	groups := make(map[vatKey]*domain.VATRateLine)
	for _, l := range lines {
		if l.VATRate == nil {
			continue
		}
		var kind domain.VATKind
		var base decimal.Decimal
		switch l.AccountType {
		case domain.Revenue:
			kind, base = domain.SalesVAT, l.Credit.Sub(l.Debit)
		case domain.Expense:
			kind, base = domain.PurchaseVAT, l.Debit.Sub(l.Credit)
		default:
			continue
		}
		key := vatKey{kind: kind, rate: l.VATRate.StringFixed(2)}
		g, ok := groups[key]
		if !ok {
			g = &domain.VATRateLine{Kind: kind, Rate: *l.VATRate, Base: decimal.Zero, VAT: decimal.Zero}
			groups[key] = g
		}
		g.Base = g.Base.Add(base)
	}

	sales, purchase = decimal.Zero, decimal.Zero
	rateLines = make([]domain.VATRateLine, 0, len(groups))
	for _, g := range groups {
		g.VAT = g.Base.Mul(g.Rate).Div(hundred).Round(2)
		if g.Kind == domain.SalesVAT {
			sales = sales.Add(g.VAT)
		} else {
			purchase = purchase.Add(g.VAT)
		}
		rateLines = append(rateLines, *g)
	}
	sort.Slice(rateLines, func(i, j int) bool {
		if rateLines[i].Kind != rateLines[j].Kind {
			return rateLines[i].Kind == domain.SalesVAT
		}
		return rateLines[i].Rate.LessThan(rateLines[j].Rate)
	})
	return sales, purchase, rateLines
}

// Calculate aggregates the quarter and stores the result. It posts nothing.
// Recalculating replaces an earlier Calculated result of the same quarter.
func (s *vatService) Calculate(ctx context.Context, tenantID string, year, quarter int, actor string) (*domain.VATCalculation, error) {
	start, end, err := domain.QuarterBounds(year, quarter)
	if err != nil {
		return nil, err
	}

	var calc domain.VATCalculation
	err = s.repos.TxManager.WithinTx(ctx, func(ctx context.Context) error {
		calculationID := s.newID()
		existing, err := s.repos.VATRepo.FindCalculationByQuarter(ctx, tenantID, year, quarter)
		switch {
		case err == nil:
			if existing.Status == domain.VATSubmitted {
				return fmt.Errorf("%w: %d Q%d", apperrors.ErrAlreadySubmitted, year, quarter)
			}
			calculationID = existing.CalculationID
		case !errors.Is(err, apperrors.ErrNotFound):
			return err
		}

		lines, err := s.repos.JournalRepo.LedgerLines(ctx, tenantID, start, end)
		if err != nil {
			return err
		}
		sales, purchase, rateLines := AggregateVAT(lines)

		calc = domain.VATCalculation{
			CalculationID: calculationID,
			TenantID:      tenantID,
			Year:          year,
			Quarter:       quarter,
			PeriodStart:   start,
			PeriodEnd:     end,
			SalesVAT:      sales,
			PurchaseVAT:   purchase,
			NetVAT:        sales.Sub(purchase),
			Status:        domain.VATCalculated,
			Lines:         rateLines,
			CalculatedAt:  s.now(),
			CalculatedBy:  actor,
		}
		return s.repos.VATRepo.SaveCalculation(ctx, calc)
	})
	if err != nil {
		s.logFailure(ctx, err, "Failed to calculate VAT", slog.Int("year", year), slog.Int("quarter", quarter))
		return nil, err
	}

	s.LogInfo(ctx, "VAT calculated",
		slog.Int("year", year),
		slog.Int("quarter", quarter),
		slog.String("net_vat", calc.NetVAT.String()))
	return &calc, nil
}

func (s *vatService) Submit(ctx context.Context, tenantID string, calculationID string, actor string) (*domain.VATCalculation, error) {
	var calc *domain.VATCalculation
	err := s.repos.TxManager.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		calc, err = s.repos.VATRepo.FindCalculationByID(ctx, tenantID, calculationID)
		if err != nil {
			return err
		}
		if err := calc.Submit(actor, s.now()); err != nil {
			return err
		}
		if err := s.repos.VATRepo.MarkSubmitted(ctx, *calc); err != nil {
			return err
		}
		return s.audit(ctx, tenantID, actor, domain.ActionVATSubmitted, domain.EntityVATCalculation, calculationID, map[string]any{
			"status":  map[string]any{"from": domain.VATCalculated, "to": domain.VATSubmitted},
			"quarter": fmt.Sprintf("%d-Q%d", calc.Year, calc.Quarter),
			"netVAT":  calc.NetVAT.String(),
		})
	})
	if err != nil {
		s.logFailure(ctx, err, "Failed to submit VAT calculation", slog.String("calculation_id", calculationID))
		return nil, err
	}
	return calc, nil
}

func (s *vatService) GetCalculation(ctx context.Context, tenantID string, calculationID string) (*domain.VATCalculation, error) {
	return s.repos.VATRepo.FindCalculationByID(ctx, tenantID, calculationID)
}

func (s *vatService) ListCalculations(ctx context.Context, tenantID string, year int) ([]domain.VATCalculation, error) {
	calcs, err := s.repos.VATRepo.ListCalculations(ctx, tenantID, year)
	if err != nil {
		s.LogError(ctx, err, "Failed to list VAT calculations", slog.Int("year", year))
		return nil, err
	}
	if calcs == nil {
		return []domain.VATCalculation{}, nil
	}
	return calcs, nil
}
