package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Fattieportal/boekhouding-saas/internal/apperrors"
	"github.com/Fattieportal/boekhouding-saas/internal/core/domain"
	portsrepo "github.com/Fattieportal/boekhouding-saas/internal/core/ports/repositories"
	portssvc "github.com/Fattieportal/boekhouding-saas/internal/core/ports/services"
	"github.com/Fattieportal/boekhouding-saas/internal/dto"
	"github.com/Fattieportal/boekhouding-saas/internal/utils/accounting"
	"github.com/shopspring/decimal"
)

// journalService drives journal entries through Draft -> Posted -> Reversed.
type journalService struct {
	*LedgerEngine
}

// NewJournalService creates a new journal service backed by the ledger engine.
func NewJournalService(engine *LedgerEngine) portssvc.JournalSvcFacade {
	return &journalService{LedgerEngine: engine}
}

var _ portssvc.JournalSvcFacade = (*journalService)(nil)

func (s *journalService) CreateJournal(ctx context.Context, tenantID string, req dto.CreateJournalRequest, actor string) (*domain.Journal, error) {
	if !req.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown journal type %q", apperrors.ErrValidation, req.Type)
	}
	journal := domain.Journal{
		JournalID:   s.newID(),
		TenantID:    tenantID,
		Code:        strings.TrimSpace(req.Code),
		Name:        req.Name,
		Type:        req.Type,
		IsActive:    true,
		AuditFields: domain.NewAuditFields(actor, s.now()),
	}
	if err := s.repos.JournalRepo.SaveJournal(ctx, journal); err != nil {
		s.logFailure(ctx, err, "Failed to save journal", slog.String("code", journal.Code))
		return nil, err
	}
	s.LogInfo(ctx, "Journal created successfully",
		slog.String("journal_id", journal.JournalID),
		slog.String("type", string(journal.Type)))
	return &journal, nil
}

func (s *journalService) ListJournals(ctx context.Context, tenantID string) ([]domain.Journal, error) {
	journals, err := s.repos.JournalRepo.ListJournals(ctx, tenantID)
	if err != nil {
		s.LogError(ctx, err, "Failed to list journals")
		return nil, err
	}
	if journals == nil {
		return []domain.Journal{}, nil
	}
	return journals, nil
}

func (s *journalService) DeactivateJournal(ctx context.Context, tenantID string, journalID string, actor string) error {
	journal, err := s.repos.JournalRepo.FindJournalByID(ctx, tenantID, journalID)
	if err != nil {
		return err
	}
	if !journal.IsActive {
		return fmt.Errorf("%w: journal %s is already inactive", apperrors.ErrValidation, journal.Code)
	}
	journal.IsActive = false
	journal.Touch(actor, s.now())
	return s.repos.JournalRepo.UpdateJournal(ctx, *journal)
}

func (s *journalService) GetEntry(ctx context.Context, tenantID string, entryID string) (*domain.JournalEntry, error) {
	entry, err := s.repos.JournalRepo.FindEntryByID(ctx, tenantID, entryID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find entry", slog.String("entry_id", entryID))
		}
		return nil, err
	}
	if entry.Status == domain.Reversed {
		reversal, err := s.repos.JournalRepo.FindReversalOf(ctx, tenantID, entryID)
		switch {
		case err == nil:
			entry.ReversedByID = &reversal.EntryID
		case !errors.Is(err, apperrors.ErrNotFound):
			s.LogError(ctx, err, "Failed to find reversal", slog.String("entry_id", entryID))
			return nil, err
		}
	}
	return entry, nil
}

func (s *journalService) ListEntries(ctx context.Context, tenantID string, params dto.ListEntriesParams) (*dto.ListEntriesResponse, error) {
	filter := portsrepo.EntryFilter{
		Status:    params.Status,
		JournalID: params.JournalID,
		From:      params.From,
		To:        params.To,
	}
	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}
	entries, next, err := s.repos.JournalRepo.ListEntries(ctx, tenantID, filter, limit, params.NextToken)
	if err != nil {
		s.logFailure(ctx, err, "Failed to list entries")
		return nil, err
	}
	if entries == nil {
		entries = []domain.JournalEntry{}
	}
	return &dto.ListEntriesResponse{Entries: entries, NextToken: next}, nil
}

func (s *journalService) AccountBalance(ctx context.Context, tenantID string, accountID string, from, to time.Time) (decimal.Decimal, error) {
	account, err := s.repos.AccountRepo.FindAccountByID(ctx, tenantID, accountID)
	if err != nil {
		return decimal.Zero, err
	}
	rows, err := s.repos.JournalRepo.TrialBalance(ctx, tenantID, domain.DateOnly(from), domain.DateOnly(to))
	if err != nil {
		s.LogError(ctx, err, "Failed to load trial balance", slog.String("account_id", accountID))
		return decimal.Zero, err
	}
	for _, row := range rows {
		if row.AccountID == accountID {
			return accounting.NetBalance(row.Debit, row.Credit, account.AccountType)
		}
	}
	return decimal.Zero, nil
}

// validateDraftInput checks the parts of a draft that do not depend on posting state.
func (s *journalService) validateDraftInput(ctx context.Context, tenantID string, lines []domain.JournalLine) error {
	for _, l := range lines {
		if err := l.Validate(); err != nil {
			return err
		}
	}
	return s.validateAccounts(ctx, tenantID, lines, postOptions{})
}

func (s *journalService) CreateDraft(ctx context.Context, tenantID string, req dto.CreateDraftRequest, actor string) (*domain.JournalEntry, error) {
	journal, err := s.repos.JournalRepo.FindJournalByID(ctx, tenantID, req.JournalID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: journal %s does not exist", apperrors.ErrValidation, req.JournalID)
		}
		return nil, err
	}
	if !journal.IsActive {
		return nil, fmt.Errorf("%w: journal %s is inactive", apperrors.ErrValidation, journal.Code)
	}

	now := s.now()
	entry := domain.JournalEntry{
		EntryID:     s.newID(),
		TenantID:    tenantID,
		JournalID:   journal.JournalID,
		EntryDate:   domain.DateOnly(req.EntryDate),
		Reference:   req.Reference,
		Description: req.Description,
		Status:      domain.Draft,
		Kind:        domain.StandardEntry,
		Lines:       dto.ToJournalLines(req.Lines, s.newID),
		AuditFields: domain.NewAuditFields(actor, now),
	}

	err = s.withPeriodLocks(ctx, tenantID, []domain.Period{entry.Period()}, func(ctx context.Context) error {
		if err := s.validateDraftInput(ctx, tenantID, entry.Lines); err != nil {
			return err
		}
		if err := s.ensureWritable(ctx, tenantID, entry.Period(), postOptions{}); err != nil {
			return err
		}
		return s.repos.JournalRepo.SaveEntry(ctx, entry)
	})
	if err != nil {
		s.logFailure(ctx, err, "Failed to create draft entry", slog.String("reference", req.Reference))
		return nil, err
	}

	s.LogInfo(ctx, "Draft entry created",
		slog.String("entry_id", entry.EntryID),
		slog.Int("lines", len(entry.Lines)))
	return &entry, nil
}

func (s *journalService) UpdateDraft(ctx context.Context, tenantID string, entryID string, req dto.UpdateDraftRequest, actor string) (*domain.JournalEntry, error) {
	current, err := s.repos.JournalRepo.FindEntryByID(ctx, tenantID, entryID)
	if err != nil {
		return nil, err
	}
	newDate := domain.DateOnly(req.EntryDate)
	periods := []domain.Period{current.Period(), domain.PeriodOf(newDate)}

	var updated domain.JournalEntry
	err = s.withPeriodLocks(ctx, tenantID, periods, func(ctx context.Context) error {
		fresh, err := s.repos.JournalRepo.FindEntryByID(ctx, tenantID, entryID)
		if err != nil {
			return err
		}
		if fresh.Period() != current.Period() {
			return fmt.Errorf("%w: entry %s changed while updating", apperrors.ErrConflict, entryID)
		}
		if err := fresh.EnsureDraft(); err != nil {
			return err
		}
		fresh.EntryDate = newDate
		fresh.Reference = req.Reference
		fresh.Description = req.Description
		fresh.Lines = dto.ToJournalLines(req.Lines, s.newID)
		fresh.Touch(actor, s.now())

		if err := s.validateDraftInput(ctx, tenantID, fresh.Lines); err != nil {
			return err
		}
		if err := s.ensureWritable(ctx, tenantID, fresh.Period(), postOptions{}); err != nil {
			return err
		}
		if err := s.repos.JournalRepo.ReplaceDraft(ctx, *fresh); err != nil {
			return err
		}
		updated = *fresh
		return nil
	})
	if err != nil {
		s.logFailure(ctx, err, "Failed to update draft entry", slog.String("entry_id", entryID))
		return nil, err
	}
	return &updated, nil
}

func (s *journalService) DeleteDraft(ctx context.Context, tenantID string, entryID string, actor string) error {
	current, err := s.repos.JournalRepo.FindEntryByID(ctx, tenantID, entryID)
	if err != nil {
		return err
	}
	err = s.withPeriodLocks(ctx, tenantID, []domain.Period{current.Period()}, func(ctx context.Context) error {
		fresh, err := s.repos.JournalRepo.FindEntryByID(ctx, tenantID, entryID)
		if err != nil {
			return err
		}
		if err := fresh.EnsureDraft(); err != nil {
			return err
		}
		if err := s.repos.JournalRepo.DeleteDraft(ctx, tenantID, entryID); err != nil {
			return err
		}
		return s.audit(ctx, tenantID, actor, domain.ActionEntryDeleted, domain.EntityJournalEntry, entryID, map[string]any{
			"reference": fresh.Reference,
		})
	})
	if err != nil {
		s.logFailure(ctx, err, "Failed to delete draft entry", slog.String("entry_id", entryID))
		return err
	}
	return nil
}

// Post validates and posts a draft. At most one concurrent Post of the same entry succeeds.
func (s *journalService) Post(ctx context.Context, tenantID string, entryID string, actor string) (*domain.JournalEntry, error) {
	current, err := s.repos.JournalRepo.FindEntryByID(ctx, tenantID, entryID)
	if err != nil {
		return nil, err
	}

	var posted domain.JournalEntry
	err = s.withPeriodLocks(ctx, tenantID, []domain.Period{current.Period()}, func(ctx context.Context) error {
		fresh, err := s.repos.JournalRepo.FindEntryByID(ctx, tenantID, entryID)
		if err != nil {
			return err
		}
		if fresh.Period() != current.Period() {
			return fmt.Errorf("%w: entry %s was redated while posting", apperrors.ErrConflict, entryID)
		}
		if err := s.postDraft(ctx, fresh, actor, postOptions{}); err != nil {
			return err
		}
		posted = *fresh
		return nil
	})
	if err != nil {
		s.logFailure(ctx, err, "Failed to post entry", slog.String("entry_id", entryID))
		return nil, err
	}

	s.LogInfo(ctx, "Entry posted",
		slog.String("entry_id", entryID),
		slog.String("period", posted.Period().String()))
	return &posted, nil
}

// Reverse posts a compensating entry with debits and credits swapped and marks the source Reversed.
func (s *journalService) Reverse(ctx context.Context, tenantID string, entryID string, actor string, reversalDate time.Time) (*domain.JournalEntry, error) {
	source, err := s.repos.JournalRepo.FindEntryByID(ctx, tenantID, entryID)
	if err != nil {
		return nil, err
	}
	if reversalDate.IsZero() {
		reversalDate = source.EntryDate
	}
	reversalDate = domain.DateOnly(reversalDate)

	var reversal domain.JournalEntry
	periods := []domain.Period{source.Period(), domain.PeriodOf(reversalDate)}
	err = s.withPeriodLocks(ctx, tenantID, periods, func(ctx context.Context) error {
		fresh, err := s.repos.JournalRepo.FindEntryByID(ctx, tenantID, entryID)
		if err != nil {
			return err
		}
		if _, err := s.repos.JournalRepo.FindReversalOf(ctx, tenantID, entryID); err == nil {
			return fmt.Errorf("%w: entry %s", apperrors.ErrAlreadyReversed, entryID)
		} else if !errors.Is(err, apperrors.ErrNotFound) {
			return err
		}
		switch fresh.Kind {
		case domain.ReversalEntry:
			return fmt.Errorf("%w: entry %s is itself a reversal", apperrors.ErrInvalidState, entryID)
		case domain.YearEndClosingEntry, domain.OpeningEntry:
			return fmt.Errorf("%w: %s entry %s cannot be reversed", apperrors.ErrInvalidState, fresh.Kind, entryID)
		}
		// A reversal flips the source to Reversed, which would rewrite a frozen year.
		permanent, err := s.isYearPermanent(ctx, tenantID, fresh.Period().Year)
		if err != nil {
			return err
		}
		if permanent {
			return fmt.Errorf("%w: entry %s is dated in closed year %d", apperrors.ErrYearClosed, entryID, fresh.Period().Year)
		}

		now := s.now()
		if err := fresh.MarkReversed(actor, now); err != nil {
			return err
		}
		reversal = fresh.NewReversal(s.newID, reversalDate, actor, now)
		if err := s.insertAndPost(ctx, &reversal, actor, postOptions{allowInactive: true}); err != nil {
			return err
		}
		if err := s.repos.JournalRepo.MarkReversed(ctx, *fresh); err != nil {
			return err
		}
		return s.audit(ctx, tenantID, actor, domain.ActionEntryReversed, domain.EntityJournalEntry, entryID, map[string]any{
			"status":          map[string]any{"from": domain.Posted, "to": domain.Reversed},
			"reversalEntryID": reversal.EntryID,
			"reversalDate":    reversalDate.Format("2006-01-02"),
		})
	})
	if err != nil {
		s.logFailure(ctx, err, "Failed to reverse entry", slog.String("entry_id", entryID))
		return nil, err
	}

	s.LogInfo(ctx, "Entry reversed",
		slog.String("entry_id", entryID),
		slog.String("reversal_id", reversal.EntryID))
	return &reversal, nil
}
