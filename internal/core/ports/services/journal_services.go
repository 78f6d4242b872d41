package services

import (
	"context"
	"time"

	"github.com/Fattieportal/boekhouding-saas/internal/core/domain"
	"github.com/Fattieportal/boekhouding-saas/internal/dto"
	"github.com/shopspring/decimal"
)

// JournalBookSvc manages journals (books)
type JournalBookSvc interface {
	CreateJournal(ctx context.Context, tenantID string, req dto.CreateJournalRequest, actor string) (*domain.Journal, error)
	ListJournals(ctx context.Context, tenantID string) ([]domain.Journal, error)
	DeactivateJournal(ctx context.Context, tenantID string, journalID string, actor string) error
}

// EntryReaderSvc defines read operations for journal entries
type EntryReaderSvc interface {
	GetEntry(ctx context.Context, tenantID string, entryID string) (*domain.JournalEntry, error)
	ListEntries(ctx context.Context, tenantID string, params dto.ListEntriesParams) (*dto.ListEntriesResponse, error)

	// AccountBalance returns the normal-side balance of an account over entries dated within [from, to].
	AccountBalance(ctx context.Context, tenantID string, accountID string, from, to time.Time) (decimal.Decimal, error)
}

// EntryWriterSvc drives the Draft -> Posted -> Reversed state machine
type EntryWriterSvc interface {
	CreateDraft(ctx context.Context, tenantID string, req dto.CreateDraftRequest, actor string) (*domain.JournalEntry, error)
	UpdateDraft(ctx context.Context, tenantID string, entryID string, req dto.UpdateDraftRequest, actor string) (*domain.JournalEntry, error)
	DeleteDraft(ctx context.Context, tenantID string, entryID string, actor string) error
	Post(ctx context.Context, tenantID string, entryID string, actor string) (*domain.JournalEntry, error)

	// Reverse posts a compensating entry. A zero reversalDate reuses the source entry date.
	Reverse(ctx context.Context, tenantID string, entryID string, actor string, reversalDate time.Time) (*domain.JournalEntry, error)
}

// JournalSvcFacade combines all journal-related service interfaces
type JournalSvcFacade interface {
	JournalBookSvc
	EntryReaderSvc
	EntryWriterSvc
}
