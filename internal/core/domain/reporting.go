package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TrialBalanceRow is the debit and credit turnover of one account over a date range.
type TrialBalanceRow struct {
	AccountID   string          `json:"accountID"`
	AccountCode string          `json:"accountCode"`
	AccountName string          `json:"accountName"`
	AccountType AccountType     `json:"accountType"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
}

// LedgerLine is a journal line joined with its entry and account, as read by aggregations.
type LedgerLine struct {
	EntryID     string           `json:"entryID"`
	EntryDate   time.Time        `json:"entryDate"`
	EntryKind   EntryKind        `json:"entryKind"`
	AccountID   string           `json:"accountID"`
	AccountType AccountType      `json:"accountType"`
	Debit       decimal.Decimal  `json:"debit"`
	Credit      decimal.Decimal  `json:"credit"`
	VATRate     *decimal.Decimal `json:"vatRate,omitempty"`
}

// AccountAmount is an account with its net amount on its normal side.
type AccountAmount struct {
	AccountID string          `json:"accountID"`
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	NetAmount decimal.Decimal `json:"netAmount"`
}

// IncomeSummary is the profit and loss of one fiscal year.
type IncomeSummary struct {
	Year      int             `json:"year"`
	Revenue   []AccountAmount `json:"revenue"`
	Expenses  []AccountAmount `json:"expenses"`
	NetIncome decimal.Decimal `json:"netIncome"`
}
