package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/Fattieportal/boekhouding-saas/internal/apperrors"
	"github.com/shopspring/decimal"
)

// BankConnectionStatus tracks the consent lifecycle of a linked bank account.
type BankConnectionStatus string

const (
	ConnectionPending BankConnectionStatus = "PENDING"
	ConnectionActive  BankConnectionStatus = "ACTIVE"
	ConnectionExpired BankConnectionStatus = "EXPIRED"
	ConnectionRevoked BankConnectionStatus = "REVOKED"
	ConnectionError   BankConnectionStatus = "ERROR"
)

// BankConnection links a provider account to the ledger account that mirrors it.
type BankConnection struct {
	ConnectionID    string               `json:"connectionID"`
	TenantID        string               `json:"tenantID"`
	Provider        string               `json:"provider"`
	ExternalRef     string               `json:"externalRef"`
	Status          BankConnectionStatus `json:"status"`
	MaskedIBAN      string               `json:"maskedIBAN"`
	Currency        string               `json:"currency"`
	LedgerAccountID string               `json:"ledgerAccountID"`
	OpeningBalance  decimal.Decimal      `json:"openingBalance"`
	LastSyncAt      *time.Time           `json:"lastSyncAt,omitempty"`
	AuditFields
}

// CanSync reports whether transactions may be fetched for the connection.
// Error connections may retry.
func (c *BankConnection) CanSync() bool {
	return c.Status == ConnectionActive || c.Status == ConnectionError
}

// MaskIBAN keeps the country code, check digits and last four characters.
func MaskIBAN(iban string) string {
	compact := strings.ToUpper(strings.ReplaceAll(iban, " ", ""))
	if len(compact) <= 8 {
		return compact
	}
	return compact[:4] + strings.Repeat("*", len(compact)-8) + compact[len(compact)-4:]
}

// MatchStatus is the reconciliation state of an imported bank transaction.
type MatchStatus string

const (
	Unmatched        MatchStatus = "UNMATCHED"
	MatchedToInvoice MatchStatus = "MATCHED_TO_INVOICE"
	ManuallyBooked   MatchStatus = "MANUALLY_BOOKED"
	Ignored          MatchStatus = "IGNORED"
)

// BankTransaction is an imported statement line. Only the match fields change after import,
// except amount and description which a later sync may correct.
type BankTransaction struct {
	TransactionID    string          `json:"transactionID"`
	TenantID         string          `json:"tenantID"`
	ConnectionID     string          `json:"connectionID"`
	ExternalID       string          `json:"externalID"`
	BookingDate      time.Time       `json:"bookingDate"`
	Amount           decimal.Decimal `json:"amount"` // signed, positive is incoming
	Currency         string          `json:"currency"`
	Description      string          `json:"description"`
	CounterpartyName string          `json:"counterpartyName"`
	CounterpartyIBAN string          `json:"counterpartyIBAN"`
	MatchStatus      MatchStatus     `json:"matchStatus"`
	MatchedInvoiceID *string         `json:"matchedInvoiceID,omitempty"`
	MatchedEntryID   *string         `json:"matchedEntryID,omitempty"`
	MatchedAt        *time.Time      `json:"matchedAt,omitempty"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

// MatchToInvoice records an invoice match and the payment entry created for it.
func (t *BankTransaction) MatchToInvoice(invoiceID, entryID string, now time.Time) error {
	if err := t.ensureUnmatched(); err != nil {
		return err
	}
	t.MatchStatus = MatchedToInvoice
	t.MatchedInvoiceID = &invoiceID
	t.MatchedEntryID = &entryID
	t.MatchedAt = &now
	t.UpdatedAt = now
	return nil
}

// BookManually links the transaction to an existing posted entry.
func (t *BankTransaction) BookManually(entryID string, now time.Time) error {
	if err := t.ensureUnmatched(); err != nil {
		return err
	}
	t.MatchStatus = ManuallyBooked
	t.MatchedEntryID = &entryID
	t.MatchedAt = &now
	t.UpdatedAt = now
	return nil
}

// Ignore excludes the transaction from matching.
func (t *BankTransaction) Ignore(now time.Time) error {
	if err := t.ensureUnmatched(); err != nil {
		return err
	}
	t.MatchStatus = Ignored
	t.MatchedAt = &now
	t.UpdatedAt = now
	return nil
}

func (t *BankTransaction) ensureUnmatched() error {
	if t.MatchStatus != Unmatched {
		return fmt.Errorf("%w: bank transaction %s is %s", apperrors.ErrInvalidState, t.TransactionID, t.MatchStatus)
	}
	return nil
}

// ProviderTransaction is a statement line as returned by the bank provider.
type ProviderTransaction struct {
	ExternalID       string          `json:"externalId"`
	BookingDate      time.Time       `json:"bookingDate"`
	Amount           decimal.Decimal `json:"amount"`
	Currency         string          `json:"currency"`
	Description      string          `json:"description"`
	CounterpartyName string          `json:"counterpartyName"`
	CounterpartyIBAN string          `json:"counterpartyIban"`
}

// SyncStatus is the outcome of one sync run.
type SyncStatus string

const (
	SyncSucceeded SyncStatus = "SUCCEEDED"
	SyncFailed    SyncStatus = "FAILED"
)

// SyncResult counts what a sync did.
type SyncResult struct {
	ConnectionID string     `json:"connectionID"`
	Imported     int        `json:"imported"`
	Updated      int        `json:"updated"`
	Unchanged    int        `json:"unchanged"`
	Status       SyncStatus `json:"status"`
	Error        string     `json:"error,omitempty"`
}

// MatchOutcome is the result category of an automatic match attempt.
type MatchOutcome string

const (
	OutcomeMatched     MatchOutcome = "MATCHED"
	OutcomeNoCandidate MatchOutcome = "NO_CANDIDATE"
	OutcomeAmbiguous   MatchOutcome = "AMBIGUOUS"
	OutcomeSkipped     MatchOutcome = "SKIPPED"
)

// AutoMatchResult reports what AutoMatch decided. Ambiguous results list the candidates for manual resolution.
type AutoMatchResult struct {
	TransactionID string       `json:"transactionID"`
	Outcome       MatchOutcome `json:"outcome"`
	InvoiceID     *string      `json:"invoiceID,omitempty"`
	EntryID       *string      `json:"entryID,omitempty"`
	CandidateIDs  []string     `json:"candidateIDs,omitempty"`
}

// MatchSuggestion ranks an open invoice against a bank transaction for manual matching.
type MatchSuggestion struct {
	InvoiceID        string          `json:"invoiceID"`
	InvoiceNumber    string          `json:"invoiceNumber"`
	CounterpartyName string          `json:"counterpartyName"`
	Total            decimal.Decimal `json:"total"`
	DueDate          time.Time       `json:"dueDate"`
	AmountMatches    bool            `json:"amountMatches"`
	NameDistance     int             `json:"nameDistance"`
}

// BankReconciliation compares the calculated balance with the provider's closing balance.
type BankReconciliation struct {
	ConnectionID           string          `json:"connectionID"`
	PeriodStart            time.Time       `json:"periodStart"`
	PeriodEnd              time.Time       `json:"periodEnd"`
	OpeningBalance         decimal.Decimal `json:"openingBalance"`
	TransactionsTotal      decimal.Decimal `json:"transactionsTotal"`
	CalculatedBalance      decimal.Decimal `json:"calculatedBalance"`
	ProviderClosingBalance decimal.Decimal `json:"providerClosingBalance"`
	Difference             decimal.Decimal `json:"difference"`
	IsBalanced             bool            `json:"isBalanced"`
	TransactionCount       int             `json:"transactionCount"`
	UnmatchedCount         int             `json:"unmatchedCount"`
}
