package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Fattieportal/boekhouding-saas/internal/apperrors"
	"github.com/Fattieportal/boekhouding-saas/internal/core/domain"
	portssvc "github.com/Fattieportal/boekhouding-saas/internal/core/ports/services"
	"github.com/Fattieportal/boekhouding-saas/internal/utils/accounting"
)

// DefaultRetainedEarningsCode is the account code result transfers are booked against.
const DefaultRetainedEarningsCode = "0500"

type yearEndService struct {
	*LedgerEngine
	retainedEarningsCode string
}

// NewYearEndService creates the year-end closer. An empty code falls back to DefaultRetainedEarningsCode.
func NewYearEndService(engine *LedgerEngine, retainedEarningsCode string) portssvc.YearEndSvcFacade {
	if retainedEarningsCode == "" {
		retainedEarningsCode = DefaultRetainedEarningsCode
	}
	return &yearEndService{LedgerEngine: engine, retainedEarningsCode: retainedEarningsCode}
}

var _ portssvc.YearEndSvcFacade = (*yearEndService)(nil)

func (s *yearEndService) GetYearEndClosure(ctx context.Context, tenantID string, year int) (*domain.YearEndClosure, error) {
	return s.repos.PeriodRepo.FindYearEndClosure(ctx, tenantID, year)
}

func (s *yearEndService) IncomeSummary(ctx context.Context, tenantID string, year int) (*domain.IncomeSummary, error) {
	rows, err := s.repos.JournalRepo.TrialBalance(ctx, tenantID, domain.YearStart(year), domain.YearEnd(year))
	if err != nil {
		s.LogError(ctx, err, "Failed to load trial balance", slog.Int("year", year))
		return nil, err
	}
	summary := accounting.Income(year, rows)
	return &summary, nil
}

// retainedEarnings resolves the configured equity account of the tenant.
func (s *yearEndService) retainedEarnings(ctx context.Context, tenantID string) (*domain.Account, error) {
	acc, err := s.repos.AccountRepo.FindAccountByCode(ctx, tenantID, s.retainedEarningsCode)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: retained earnings account %s does not exist", apperrors.ErrValidation, s.retainedEarningsCode)
		}
		return nil, err
	}
	if acc.AccountType != domain.Equity {
		return nil, fmt.Errorf("%w: retained earnings account %s must be of type %s", apperrors.ErrValidation, acc.Code, domain.Equity)
	}
	return acc, nil
}

func (s *yearEndService) generalJournal(ctx context.Context, tenantID string) (*domain.Journal, error) {
	journal, err := s.repos.JournalRepo.FindJournalByType(ctx, tenantID, domain.GeneralJournal)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: no active %s journal", apperrors.ErrValidation, domain.GeneralJournal)
		}
		return nil, err
	}
	return journal, nil
}

// CloseYear transfers the result of the year to retained earnings and makes the year permanent.
// It holds the locks of all twelve months for the whole operation.
func (s *yearEndService) CloseYear(ctx context.Context, tenantID string, year int, actor string) (*domain.YearEndClosure, error) {
	if err := (domain.Period{Year: year, Month: 12}).Validate(); err != nil {
		return nil, err
	}

	var closure domain.YearEndClosure
	err := s.withPeriodLocks(ctx, tenantID, domain.YearPeriods(year), func(ctx context.Context) error {
		permanent, err := s.isYearPermanent(ctx, tenantID, year)
		if err != nil {
			return err
		}
		if permanent {
			return fmt.Errorf("%w: %d", apperrors.ErrYearAlreadyClosed, year)
		}

		from, to := domain.YearStart(year), domain.YearEnd(year)
		drafts, err := s.repos.JournalRepo.CountDrafts(ctx, tenantID, from, to)
		if err != nil {
			return err
		}
		if drafts > 0 {
			return fmt.Errorf("%w: %d draft entries dated in %d", apperrors.ErrOpenDraftsExist, drafts, year)
		}

		re, err := s.retainedEarnings(ctx, tenantID)
		if err != nil {
			return err
		}
		rows, err := s.repos.JournalRepo.TrialBalance(ctx, tenantID, from, to)
		if err != nil {
			return err
		}
		summary := accounting.Income(year, rows)
		now := s.now()

		closure = domain.YearEndClosure{
			ClosureID:   s.newID(),
			TenantID:    tenantID,
			Year:        year,
			ClosureDate: to,
			NetIncome:   summary.NetIncome,
			ClosedAt:    now,
			ClosedBy:    actor,
		}

		if lines := accounting.ClosingLines(rows, re.AccountID); len(lines) > 0 {
			journal, err := s.generalJournal(ctx, tenantID)
			if err != nil {
				return err
			}
			for i := range lines {
				lines[i].LineID = s.newID()
			}
			entry := domain.JournalEntry{
				EntryID:     s.newID(),
				TenantID:    tenantID,
				JournalID:   journal.JournalID,
				EntryDate:   to,
				Reference:   fmt.Sprintf("CLOSE-%d", year),
				Description: fmt.Sprintf("Year-end closing %d", year),
				Kind:        domain.YearEndClosingEntry,
				Lines:       lines,
				AuditFields: domain.NewAuditFields(actor, now),
			}
			// December may already be closed; the closing entry is the one posting allowed into it.
			if err := s.insertAndPost(ctx, &entry, actor, postOptions{skipPeriodLock: true, allowInactive: true}); err != nil {
				return err
			}
			closure.ClosingEntryID = &entry.EntryID
		}

		december := domain.Period{Year: year, Month: 12}
		st, err := s.periodStatus(ctx, tenantID, december)
		if err != nil {
			return err
		}
		if st.IsOpen {
			if _, err := s.repos.PeriodRepo.AppendPeriodEvent(ctx, domain.PeriodEvent{
				TenantID:   tenantID,
				Year:       year,
				Month:      12,
				Kind:       domain.PeriodClosed,
				Actor:      actor,
				Implicit:   true,
				OccurredAt: now,
			}); err != nil {
				return err
			}
		}

		closure.Permanent = true
		if err := s.repos.PeriodRepo.SaveYearEndClosure(ctx, closure); err != nil {
			if errors.Is(err, apperrors.ErrDuplicate) {
				return fmt.Errorf("%w: %d", apperrors.ErrYearAlreadyClosed, year)
			}
			return err
		}
		diff := map[string]any{
			"permanent": map[string]any{"from": false, "to": true},
			"netIncome": summary.NetIncome.String(),
		}
		if closure.ClosingEntryID != nil {
			diff["closingEntryID"] = *closure.ClosingEntryID
		}
		return s.audit(ctx, tenantID, actor, domain.ActionYearClosed, domain.EntityFiscalYear, fmt.Sprintf("%d", year), diff)
	})
	if err != nil {
		s.logFailure(ctx, err, "Failed to close year", slog.Int("year", year))
		return nil, err
	}

	s.LogInfo(ctx, "Fiscal year closed",
		slog.Int("year", year),
		slog.String("net_income", closure.NetIncome.String()))
	return &closure, nil
}

// GenerateOpeningBalances carries balance-sheet balances of year-1 into year with one entry dated January 1.
func (s *yearEndService) GenerateOpeningBalances(ctx context.Context, tenantID string, year int, actor string) (*domain.JournalEntry, error) {
	january := domain.Period{Year: year, Month: 1}
	if err := january.Validate(); err != nil {
		return nil, err
	}

	var entry domain.JournalEntry
	err := s.withPeriodLocks(ctx, tenantID, []domain.Period{january}, func(ctx context.Context) error {
		prior, err := s.isYearPermanent(ctx, tenantID, year-1)
		if err != nil {
			return err
		}
		if !prior {
			return fmt.Errorf("%w: %d", apperrors.ErrPriorYearNotClosed, year-1)
		}

		existing, err := s.repos.JournalRepo.FindEntriesByKind(ctx, tenantID, domain.OpeningEntry, domain.YearStart(year), domain.YearEnd(year))
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return fmt.Errorf("%w: opening balances for %d already exist as entry %s", apperrors.ErrDuplicate, year, existing[0].EntryID)
		}

		rows, err := s.repos.JournalRepo.TrialBalance(ctx, tenantID, domain.YearStart(year-1), domain.YearEnd(year-1))
		if err != nil {
			return err
		}
		lines := accounting.OpeningLines(rows)
		if len(lines) == 0 {
			return fmt.Errorf("%w: no balance-sheet balances to carry forward from %d", apperrors.ErrEmptyEntry, year-1)
		}
		for i := range lines {
			lines[i].LineID = s.newID()
		}
		journal, err := s.generalJournal(ctx, tenantID)
		if err != nil {
			return err
		}

		entry = domain.JournalEntry{
			EntryID:     s.newID(),
			TenantID:    tenantID,
			JournalID:   journal.JournalID,
			EntryDate:   domain.YearStart(year),
			Reference:   fmt.Sprintf("OPEN-%d", year),
			Description: fmt.Sprintf("Opening balances %d", year),
			Kind:        domain.OpeningEntry,
			Lines:       lines,
			AuditFields: domain.NewAuditFields(actor, s.now()),
		}
		if err := s.insertAndPost(ctx, &entry, actor, postOptions{allowInactive: true}); err != nil {
			return err
		}
		return s.audit(ctx, tenantID, actor, domain.ActionOpeningGenerated, domain.EntityFiscalYear, fmt.Sprintf("%d", year), map[string]any{
			"openingEntryID": entry.EntryID,
			"lines":          len(lines),
		})
	})
	if err != nil {
		s.logFailure(ctx, err, "Failed to generate opening balances", slog.Int("year", year))
		return nil, err
	}

	s.LogInfo(ctx, "Opening balances generated", slog.Int("year", year), slog.String("entry_id", entry.EntryID))
	return &entry, nil
}
