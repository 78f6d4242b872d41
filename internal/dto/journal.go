package dto

import (
	"time"

	"github.com/Fattieportal/boekhouding-saas/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateJournalRequest defines the data needed to create a journal (book).
type CreateJournalRequest struct {
	Code string             `json:"code" binding:"required,max=20"`
	Name string             `json:"name" binding:"required,max=200"`
	Type domain.JournalType `json:"type" binding:"required,oneof=SALES PURCHASE BANK GENERAL"`
}

// JournalLineRequest is one line of a draft entry. Exactly one of debit and credit must be non-zero.
type JournalLineRequest struct {
	AccountID   string           `json:"accountID" binding:"required"`
	Description string           `json:"description"`
	Debit       decimal.Decimal  `json:"debit" binding:"decimal_gte0,decimal_scale"`
	Credit      decimal.Decimal  `json:"credit" binding:"decimal_gte0,decimal_scale"`
	VATRate     *decimal.Decimal `json:"vatRate"` // Optional, percent
}

// CreateDraftRequest defines the data needed to create a draft journal entry.
type CreateDraftRequest struct {
	JournalID   string               `json:"journalID" binding:"required"`
	EntryDate   time.Time            `json:"entryDate" binding:"required"`
	Reference   string               `json:"reference" binding:"required,max=100"`
	Description string               `json:"description" binding:"max=500"`
	Lines       []JournalLineRequest `json:"lines" binding:"dive"`
}

// UpdateDraftRequest replaces header and lines of a draft entry.
type UpdateDraftRequest struct {
	EntryDate   time.Time            `json:"entryDate" binding:"required"`
	Reference   string               `json:"reference" binding:"required,max=100"`
	Description string               `json:"description" binding:"max=500"`
	Lines       []JournalLineRequest `json:"lines" binding:"dive"`
}

// ReverseEntryRequest optionally dates the reversal. The source entry date is used when omitted.
type ReverseEntryRequest struct {
	ReversalDate *time.Time `json:"reversalDate"`
}

// ListEntriesParams defines query parameters for listing entries.
type ListEntriesParams struct {
	Status    *domain.EntryStatus `form:"status" binding:"omitempty,oneof=DRAFT POSTED REVERSED"`
	JournalID *string             `form:"journalID"`
	From      *time.Time          `form:"from" time_format:"2006-01-02" time_utc:"1"`
	To        *time.Time          `form:"to" time_format:"2006-01-02" time_utc:"1"`
	Limit     int                 `form:"limit,default=20" binding:"min=1,max=100"`
	NextToken *string             `form:"nextToken"`
}

// ListEntriesResponse wraps a page of entries.
type ListEntriesResponse struct {
	Entries   []domain.JournalEntry `json:"entries"`
	NextToken *string               `json:"nextToken,omitempty"`
}

// AccountBalanceParams bounds an account balance query. Defaults to the current calendar year.
type AccountBalanceParams struct {
	From *time.Time `form:"from" time_format:"2006-01-02" time_utc:"1"`
	To   *time.Time `form:"to" time_format:"2006-01-02" time_utc:"1"`
}

// ToJournalLines converts request lines into domain lines with positions assigned.
func ToJournalLines(reqs []JournalLineRequest, newID func() string) []domain.JournalLine {
	lines := make([]domain.JournalLine, len(reqs))
	for i, r := range reqs {
		lines[i] = domain.JournalLine{
			LineID:      newID(),
			AccountID:   r.AccountID,
			Description: r.Description,
			Debit:       r.Debit,
			Credit:      r.Credit,
			VATRate:     r.VATRate,
			Position:    i + 1,
		}
	}
	return lines
}
