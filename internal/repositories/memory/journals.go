package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Fattieportal/boekhouding-saas/internal/apperrors"
	"github.com/Fattieportal/boekhouding-saas/internal/core/domain"
	portsrepo "github.com/Fattieportal/boekhouding-saas/internal/core/ports/repositories"
	"github.com/Fattieportal/boekhouding-saas/internal/utils/pagination"
	"github.com/shopspring/decimal"
)

func (s *Store) FindJournalByID(ctx context.Context, tenantID, journalID string) (*domain.Journal, error) {
	var out *domain.Journal
	err := s.with(ctx, func(st *state) error {
		j, ok := st.journals[journalID]
		if !ok || j.TenantID != tenantID {
			return apperrors.ErrNotFound
		}
		out = &j
		return nil
	})
	return out, err
}

func (s *Store) FindJournalByType(ctx context.Context, tenantID string, journalType domain.JournalType) (*domain.Journal, error) {
	journals, err := s.ListJournals(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	for _, j := range journals {
		if j.Type == journalType && j.IsActive {
			return &j, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (s *Store) ListJournals(ctx context.Context, tenantID string) ([]domain.Journal, error) {
	var out []domain.Journal
	err := s.with(ctx, func(st *state) error {
		for _, j := range st.journals {
			if j.TenantID == tenantID {
				out = append(out, j)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, err
}

func (s *Store) SaveJournal(ctx context.Context, journal domain.Journal) error {
	return s.with(ctx, func(st *state) error {
		for _, j := range st.journals {
			if j.JournalID == journal.JournalID || (j.TenantID == journal.TenantID && j.Code == journal.Code) {
				return fmt.Errorf("%w: journal %s", apperrors.ErrDuplicate, journal.Code)
			}
		}
		st.journals[journal.JournalID] = journal
		return nil
	})
}

func (s *Store) UpdateJournal(ctx context.Context, journal domain.Journal) error {
	return s.with(ctx, func(st *state) error {
		current, ok := st.journals[journal.JournalID]
		if !ok || current.TenantID != journal.TenantID {
			return apperrors.ErrNotFound
		}
		st.journals[journal.JournalID] = journal
		return nil
	})
}

func (s *Store) FindEntryByID(ctx context.Context, tenantID, entryID string) (*domain.JournalEntry, error) {
	var out *domain.JournalEntry
	err := s.with(ctx, func(st *state) error {
		e, ok := st.entries[entryID]
		if !ok || e.TenantID != tenantID {
			return apperrors.ErrNotFound
		}
		c := cloneEntry(e)
		out = &c
		return nil
	})
	return out, err
}

func (s *Store) FindReversalOf(ctx context.Context, tenantID, entryID string) (*domain.JournalEntry, error) {
	var out *domain.JournalEntry
	err := s.with(ctx, func(st *state) error {
		for _, e := range st.entries {
			if e.TenantID == tenantID && e.ReversalOf != nil && *e.ReversalOf == entryID {
				c := cloneEntry(e)
				out = &c
				return nil
			}
		}
		return apperrors.ErrNotFound
	})
	return out, err
}

func inRange(d time.Time, from, to *time.Time) bool {
	if from != nil && d.Before(*from) {
		return false
	}
	if to != nil && d.After(*to) {
		return false
	}
	return true
}

func (s *Store) ListEntries(ctx context.Context, tenantID string, filter portsrepo.EntryFilter, limit int, nextToken *string) ([]domain.JournalEntry, *string, error) {
	var cursor *pagination.EntryCursor
	if nextToken != nil && *nextToken != "" {
		c, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, err
		}
		cursor = &c
	}

	var all []domain.JournalEntry
	err := s.with(ctx, func(st *state) error {
		for _, e := range st.entries {
			if e.TenantID != tenantID {
				continue
			}
			if filter.Status != nil && e.Status != *filter.Status {
				continue
			}
			if filter.JournalID != nil && e.JournalID != *filter.JournalID {
				continue
			}
			if !inRange(e.EntryDate, filter.From, filter.To) {
				continue
			}
			if cursor != nil && !cursor.After(e.EntryDate, e.CreatedAt, e.EntryID) {
				continue
			}
			all = append(all, cloneEntry(e))
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	sort.Slice(all, func(i, j int) bool {
		a, b := all[i], all[j]
		if !a.EntryDate.Equal(b.EntryDate) {
			return a.EntryDate.After(b.EntryDate)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.EntryID > b.EntryID
	})
	if len(all) <= limit {
		return all, nil, nil
	}
	pageItems := all[:limit]
	last := pageItems[len(pageItems)-1]
	token := pagination.EncodeToken(pagination.EntryCursor{EntryDate: last.EntryDate, CreatedAt: last.CreatedAt, EntryID: last.EntryID})
	return pageItems, &token, nil
}

func (s *Store) CountDrafts(ctx context.Context, tenantID string, from, to time.Time) (int, error) {
	n := 0
	err := s.with(ctx, func(st *state) error {
		for _, e := range st.entries {
			if e.TenantID == tenantID && e.Status == domain.Draft && inRange(e.EntryDate, &from, &to) {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (s *Store) FindEntriesByKind(ctx context.Context, tenantID string, kind domain.EntryKind, from, to time.Time) ([]domain.JournalEntry, error) {
	var out []domain.JournalEntry
	err := s.with(ctx, func(st *state) error {
		for _, e := range st.entries {
			if e.TenantID == tenantID && e.Kind == kind && inRange(e.EntryDate, &from, &to) {
				out = append(out, cloneEntry(e))
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].EntryDate.Before(out[j].EntryDate) })
	return out, err
}

func (s *Store) SaveEntry(ctx context.Context, entry domain.JournalEntry) error {
	return s.with(ctx, func(st *state) error {
		if _, ok := st.entries[entry.EntryID]; ok {
			return fmt.Errorf("%w: entry %s", apperrors.ErrDuplicate, entry.EntryID)
		}
		st.entries[entry.EntryID] = cloneEntry(entry)
		return nil
	})
}

// transition replaces a stored entry when its current status is want.
func (s *Store) transition(ctx context.Context, entry domain.JournalEntry, want domain.EntryStatus) error {
	return s.with(ctx, func(st *state) error {
		current, ok := st.entries[entry.EntryID]
		if !ok || current.TenantID != entry.TenantID {
			return apperrors.ErrNotFound
		}
		if current.Status != want {
			return fmt.Errorf("%w: entry %s is %s", apperrors.ErrConflict, entry.EntryID, current.Status)
		}
		st.entries[entry.EntryID] = cloneEntry(entry)
		return nil
	})
}

func (s *Store) ReplaceDraft(ctx context.Context, entry domain.JournalEntry) error {
	return s.transition(ctx, entry, domain.Draft)
}

func (s *Store) MarkPosted(ctx context.Context, entry domain.JournalEntry) error {
	return s.transition(ctx, entry, domain.Draft)
}

func (s *Store) MarkReversed(ctx context.Context, entry domain.JournalEntry) error {
	return s.transition(ctx, entry, domain.Posted)
}

func (s *Store) DeleteDraft(ctx context.Context, tenantID, entryID string) error {
	return s.with(ctx, func(st *state) error {
		current, ok := st.entries[entryID]
		if !ok || current.TenantID != tenantID {
			return apperrors.ErrNotFound
		}
		if current.Status != domain.Draft {
			return fmt.Errorf("%w: entry %s is %s", apperrors.ErrConflict, entryID, current.Status)
		}
		delete(st.entries, entryID)
		return nil
	})
}

func inLedger(e domain.JournalEntry, tenantID string, from, to time.Time) bool {
	return e.TenantID == tenantID &&
		(e.Status == domain.Posted || e.Status == domain.Reversed) &&
		inRange(e.EntryDate, &from, &to)
}

func (s *Store) TrialBalance(ctx context.Context, tenantID string, from, to time.Time) ([]domain.TrialBalanceRow, error) {
	rows := map[string]*domain.TrialBalanceRow{}
	err := s.with(ctx, func(st *state) error {
		for _, e := range st.entries {
			if !inLedger(e, tenantID, from, to) {
				continue
			}
			for _, l := range e.Lines {
				row, ok := rows[l.AccountID]
				if !ok {
					acc := st.accounts[l.AccountID]
					row = &domain.TrialBalanceRow{
						AccountID:   l.AccountID,
						AccountCode: acc.Code,
						AccountName: acc.Name,
						AccountType: acc.AccountType,
						Debit:       decimal.Zero,
						Credit:      decimal.Zero,
					}
					rows[l.AccountID] = row
				}
				row.Debit = row.Debit.Add(l.Debit)
				row.Credit = row.Credit.Add(l.Credit)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := make([]domain.TrialBalanceRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AccountCode < out[j].AccountCode })
	return out, nil
}

func (s *Store) LedgerLines(ctx context.Context, tenantID string, from, to time.Time) ([]domain.LedgerLine, error) {
	var out []domain.LedgerLine
	err := s.with(ctx, func(st *state) error {
		for _, e := range st.entries {
			if !inLedger(e, tenantID, from, to) {
				continue
			}
			for _, l := range e.Lines {
				out = append(out, domain.LedgerLine{
					EntryID:     e.EntryID,
					EntryDate:   e.EntryDate,
					EntryKind:   e.Kind,
					AccountID:   l.AccountID,
					AccountType: st.accounts[l.AccountID].AccountType,
					Debit:       l.Debit,
					Credit:      l.Credit,
					VATRate:     l.VATRate,
				})
			}
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].EntryDate.Before(out[j].EntryDate) })
	return out, err
}
