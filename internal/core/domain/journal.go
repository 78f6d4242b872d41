package domain

import (
	"fmt"
	"time"

	"github.com/Fattieportal/boekhouding-saas/internal/apperrors"
	"github.com/shopspring/decimal"
)

// JournalType classifies entries for reporting. It does not affect posting rules.
type JournalType string

const (
	SalesJournal    JournalType = "SALES"
	PurchaseJournal JournalType = "PURCHASE"
	BankJournal     JournalType = "BANK"
	GeneralJournal  JournalType = "GENERAL"
)

// Valid reports whether t is a known journal type.
func (t JournalType) Valid() bool {
	switch t {
	case SalesJournal, PurchaseJournal, BankJournal, GeneralJournal:
		return true
	}
	return false
}

// Journal is a book that groups journal entries.
type Journal struct {
	JournalID string      `json:"journalID"`
	TenantID  string      `json:"tenantID"`
	Code      string      `json:"code"`
	Name      string      `json:"name"`
	Type      JournalType `json:"type"`
	IsActive  bool        `json:"isActive"`
	AuditFields
}

// EntryStatus indicates the state of a journal entry.
type EntryStatus string

const (
	Draft    EntryStatus = "DRAFT"
	Posted   EntryStatus = "POSTED"
	Reversed EntryStatus = "REVERSED"
)

// EntryKind records which process produced an entry.
type EntryKind string

const (
	StandardEntry       EntryKind = "STANDARD"
	ReversalEntry       EntryKind = "REVERSAL"
	YearEndClosingEntry EntryKind = "YEAR_END_CLOSING"
	OpeningEntry        EntryKind = "OPENING"
	BankPaymentEntry    EntryKind = "BANK_PAYMENT"
)

// ReversalReferencePrefix is prepended to the source reference of a reversal entry.
const ReversalReferencePrefix = "REV-"

// JournalLine is a value record owned by a JournalEntry. Exactly one of Debit and Credit is non-zero.
type JournalLine struct {
	LineID      string           `json:"lineID"`
	AccountID   string           `json:"accountID"`
	Description string           `json:"description"`
	Debit       decimal.Decimal  `json:"debit"`
	Credit      decimal.Decimal  `json:"credit"`
	VATRate     *decimal.Decimal `json:"vatRate,omitempty"` // percent, e.g. 21
	Position    int              `json:"position"`
}

// Validate checks the one-sided, non-negative amount rule.
func (l JournalLine) Validate() error {
	if l.Debit.IsNegative() || l.Credit.IsNegative() {
		return fmt.Errorf("%w: line %d has a negative amount", apperrors.ErrInvalidLine, l.Position)
	}
	if !FitsAmountScale(l.Debit) || !FitsAmountScale(l.Credit) {
		return fmt.Errorf("%w: line %d has more than %d decimal places", apperrors.ErrInvalidLine, l.Position, AmountScale)
	}
	if l.Debit.IsZero() == l.Credit.IsZero() {
		return fmt.Errorf("%w: line %d must have either a debit or a credit", apperrors.ErrInvalidLine, l.Position)
	}
	if l.VATRate != nil && (l.VATRate.IsNegative() || !FitsAmountScale(*l.VATRate)) {
		return fmt.Errorf("%w: line %d has an invalid VAT rate %s", apperrors.ErrInvalidLine, l.Position, l.VATRate.String())
	}
	return nil
}

// Swapped returns the line with debit and credit exchanged.
func (l JournalLine) Swapped() JournalLine {
	l.Debit, l.Credit = l.Credit, l.Debit
	return l
}

// JournalEntry is a dated set of lines posted to a journal.
// Status changes only through Post and MarkReversed.
type JournalEntry struct {
	EntryID      string        `json:"entryID"`
	TenantID     string        `json:"tenantID"`
	JournalID    string        `json:"journalID"`
	EntryDate    time.Time     `json:"entryDate"`
	Reference    string        `json:"reference"`
	Description  string        `json:"description"`
	Status       EntryStatus   `json:"status"`
	Kind         EntryKind     `json:"kind"`
	PostedAt     *time.Time    `json:"postedAt,omitempty"`
	PostedBy     string        `json:"postedBy,omitempty"`
	ReversalOf   *string       `json:"reversalOf,omitempty"`
	ReversedByID *string       `json:"reversedByID,omitempty"` // resolved on read, not stored
	Lines        []JournalLine `json:"lines"`
	AuditFields
}

// Totals returns the sums of debit and credit amounts.
func (e *JournalEntry) Totals() (debit, credit decimal.Decimal) {
	debit, credit = decimal.Zero, decimal.Zero
	for _, l := range e.Lines {
		debit = debit.Add(l.Debit)
		credit = credit.Add(l.Credit)
	}
	return debit, credit
}

// IsBalanced reports whether debits equal credits exactly.
func (e *JournalEntry) IsBalanced() bool {
	debit, credit := e.Totals()
	return debit.Equal(credit)
}

// ValidateLines checks line count and the per-line amount rules.
func (e *JournalEntry) ValidateLines() error {
	if len(e.Lines) < 2 {
		return fmt.Errorf("%w: entry has %d lines", apperrors.ErrEmptyEntry, len(e.Lines))
	}
	for _, l := range e.Lines {
		if err := l.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// CheckBalance returns ErrUnbalanced when debits and credits differ.
func (e *JournalEntry) CheckBalance() error {
	debit, credit := e.Totals()
	if !debit.Equal(credit) {
		return fmt.Errorf("%w: debits sum is %s and credits sum is %s",
			apperrors.ErrUnbalanced, debit.String(), credit.String())
	}
	return nil
}

// EnsureDraft returns ErrInvalidState unless the entry is still editable.
func (e *JournalEntry) EnsureDraft() error {
	if e.Status != Draft {
		return fmt.Errorf("%w: entry %s is %s", apperrors.ErrInvalidState, e.EntryID, e.Status)
	}
	return nil
}

// Post transitions Draft to Posted.
func (e *JournalEntry) Post(actor string, now time.Time) error {
	if err := e.EnsureDraft(); err != nil {
		return err
	}
	if err := e.ValidateLines(); err != nil {
		return err
	}
	if err := e.CheckBalance(); err != nil {
		return err
	}
	e.Status = Posted
	e.PostedAt = &now
	e.PostedBy = actor
	e.Touch(actor, now)
	return nil
}

// MarkReversed transitions Posted to Reversed.
func (e *JournalEntry) MarkReversed(actor string, now time.Time) error {
	if e.Status == Reversed {
		return fmt.Errorf("%w: entry %s", apperrors.ErrAlreadyReversed, e.EntryID)
	}
	if e.Status != Posted {
		return fmt.Errorf("%w: entry %s is %s, expected %s", apperrors.ErrInvalidState, e.EntryID, e.Status, Posted)
	}
	e.Status = Reversed
	e.Touch(actor, now)
	return nil
}

// NewReversal builds the draft of the compensating entry. newID supplies fresh identifiers.
func (e *JournalEntry) NewReversal(newID func() string, reversalDate time.Time, actor string, now time.Time) JournalEntry {
	sourceID := e.EntryID
	lines := make([]JournalLine, len(e.Lines))
	for i, l := range e.Lines {
		swapped := l.Swapped()
		swapped.LineID = newID()
		lines[i] = swapped
	}
	return JournalEntry{
		EntryID:     newID(),
		TenantID:    e.TenantID,
		JournalID:   e.JournalID,
		EntryDate:   reversalDate,
		Reference:   ReversalReferencePrefix + e.Reference,
		Description: fmt.Sprintf("Reversal of %s", e.Description),
		Status:      Draft,
		Kind:        ReversalEntry,
		ReversalOf:  &sourceID,
		Lines:       lines,
		AuditFields: NewAuditFields(actor, now),
	}
}

// Period returns the accounting month the entry falls in.
func (e *JournalEntry) Period() Period {
	return PeriodOf(e.EntryDate)
}

// AccountIDs returns the distinct accounts referenced by the lines, in line order.
func (e *JournalEntry) AccountIDs() []string {
	seen := make(map[string]struct{}, len(e.Lines))
	ids := make([]string, 0, len(e.Lines))
	for _, l := range e.Lines {
		if _, ok := seen[l.AccountID]; ok {
			continue
		}
		seen[l.AccountID] = struct{}{}
		ids = append(ids, l.AccountID)
	}
	return ids
}
