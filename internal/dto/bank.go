package dto

import (
	"time"

	"github.com/Fattieportal/boekhouding-saas/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateBankConnectionRequest links a provider account to a ledger asset account.
type CreateBankConnectionRequest struct {
	Provider        string          `json:"provider" binding:"required"`
	ExternalRef     string          `json:"externalRef" binding:"required"`
	IBAN            string          `json:"iban" binding:"required,min=15,max=34"`
	Currency        string          `json:"currency" binding:"required,len=3"`
	LedgerAccountID string          `json:"ledgerAccountID" binding:"required"`
	OpeningBalance  decimal.Decimal `json:"openingBalance" binding:"decimal_scale"`
}

// ConsentResponse carries the URL the user visits to grant account access.
type ConsentResponse struct {
	ConnectionID string `json:"connectionID"`
	ConsentURL   string `json:"consentURL"`
}

// SyncRequest bounds the booking dates to import. Defaults to the configured lookback window.
type SyncRequest struct {
	From *time.Time `json:"from"`
	To   *time.Time `json:"to"`
}

// ManualMatchRequest names exactly one of an invoice or an existing posted entry.
type ManualMatchRequest struct {
	InvoiceID *string `json:"invoiceID"`
	EntryID   *string `json:"entryID"`
}

// ReconcileParams bounds a reconciliation.
type ReconcileParams struct {
	From time.Time `form:"from" time_format:"2006-01-02" time_utc:"1" binding:"required"`
	To   time.Time `form:"to" time_format:"2006-01-02" time_utc:"1" binding:"required"`
}

// ListBankTransactionsParams defines query parameters for listing bank transactions.
type ListBankTransactionsParams struct {
	ConnectionID string              `form:"connectionID"`
	Status       *domain.MatchStatus `form:"status" binding:"omitempty,oneof=UNMATCHED MATCHED_TO_INVOICE MANUALLY_BOOKED IGNORED"`
	From         *time.Time          `form:"from" time_format:"2006-01-02" time_utc:"1"`
	To           *time.Time          `form:"to" time_format:"2006-01-02" time_utc:"1"`
}

// SuggestMatchesParams limits the number of suggestions.
type SuggestMatchesParams struct {
	Limit int `form:"limit,default=5" binding:"min=1,max=50"`
}
