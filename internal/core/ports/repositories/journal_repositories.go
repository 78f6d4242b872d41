package repositories

import (
	"context"
	"time"

	"github.com/Fattieportal/boekhouding-saas/internal/core/domain"
)

// JournalReader defines read operations for journals (books)
type JournalReader interface {
	// FindJournalByID retrieves a journal of a tenant.
	FindJournalByID(ctx context.Context, tenantID, journalID string) (*domain.Journal, error)

	// FindJournalByType retrieves the first active journal of the given type.
	FindJournalByType(ctx context.Context, tenantID string, journalType domain.JournalType) (*domain.Journal, error)

	// ListJournals retrieves all journals of a tenant ordered by code.
	ListJournals(ctx context.Context, tenantID string) ([]domain.Journal, error)
}

// JournalWriter defines write operations for journals
type JournalWriter interface {
	SaveJournal(ctx context.Context, journal domain.Journal) error
	UpdateJournal(ctx context.Context, journal domain.Journal) error
}

// EntryFilter narrows ListEntries.
type EntryFilter struct {
	Status    *domain.EntryStatus
	JournalID *string
	From      *time.Time
	To        *time.Time
}

// EntryReader defines read operations for journal entries and their lines
type EntryReader interface {
	// FindEntryByID retrieves an entry with its lines in position order.
	FindEntryByID(ctx context.Context, tenantID, entryID string) (*domain.JournalEntry, error)

	// FindReversalOf retrieves the entry whose reversal-of points at entryID, or apperrors.ErrNotFound.
	FindReversalOf(ctx context.Context, tenantID, entryID string) (*domain.JournalEntry, error)

	// ListEntries retrieves a page of entries, newest entry date first, using token-based pagination.
	ListEntries(ctx context.Context, tenantID string, filter EntryFilter, limit int, nextToken *string) ([]domain.JournalEntry, *string, error)

	// CountDrafts counts Draft entries dated within [from, to].
	CountDrafts(ctx context.Context, tenantID string, from, to time.Time) (int, error)

	// FindEntriesByKind lists entries of a kind dated within [from, to], any status.
	FindEntriesByKind(ctx context.Context, tenantID string, kind domain.EntryKind, from, to time.Time) ([]domain.JournalEntry, error)
}

// EntryWriter defines write operations for journal entries
type EntryWriter interface {
	// SaveEntry inserts an entry and its lines.
	SaveEntry(ctx context.Context, entry domain.JournalEntry) error

	// ReplaceDraft overwrites header and lines of an entry that is still Draft.
	// Returns apperrors.ErrConflict when the entry is no longer Draft.
	ReplaceDraft(ctx context.Context, entry domain.JournalEntry) error

	// MarkPosted records the Draft to Posted transition.
	// Returns apperrors.ErrConflict when the entry is no longer Draft.
	MarkPosted(ctx context.Context, entry domain.JournalEntry) error

	// MarkReversed records the Posted to Reversed transition.
	// Returns apperrors.ErrConflict when the entry is no longer Posted.
	MarkReversed(ctx context.Context, entry domain.JournalEntry) error

	// DeleteDraft removes a Draft entry and its lines.
	DeleteDraft(ctx context.Context, tenantID, entryID string) error
}

// LedgerReader aggregates Posted and Reversed entries. A reversed entry and its reversal
// both remain part of the ledger and cancel each other out.
type LedgerReader interface {
	// TrialBalance sums debit and credit per account over entries dated within [from, to].
	TrialBalance(ctx context.Context, tenantID string, from, to time.Time) ([]domain.TrialBalanceRow, error)

	// LedgerLines lists lines of entries dated within [from, to] joined with their account type.
	LedgerLines(ctx context.Context, tenantID string, from, to time.Time) ([]domain.LedgerLine, error)
}

// JournalRepositoryFacade combines all journal-related repository interfaces
type JournalRepositoryFacade interface {
	JournalReader
	JournalWriter
	EntryReader
	EntryWriter
	LedgerReader
}
