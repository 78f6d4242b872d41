package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// Journal represents a row of the journals table (a book such as sales or bank).
type Journal struct {
	JournalID   string `db:"journal_id"`
	TenantID    string `db:"tenant_id"`
	Code        string `db:"code"`
	Name        string `db:"name"`
	JournalType string `db:"journal_type"`
	IsActive    bool   `db:"is_active"`
	AuditFields
}

// JournalEntry represents a row of the journal_entries table.
// Nullable columns use sql.Null types.
type JournalEntry struct {
	EntryID     string         `db:"entry_id"`
	TenantID    string         `db:"tenant_id"`
	JournalID   string         `db:"journal_id"`
	EntryDate   time.Time      `db:"entry_date"`
	Reference   string         `db:"reference"`
	Description string         `db:"description"`
	Status      string         `db:"status"`
	Kind        string         `db:"kind"`
	PostedAt    sql.NullTime   `db:"posted_at"`
	PostedBy    sql.NullString `db:"posted_by"`
	ReversalOf  sql.NullString `db:"reversal_of"`
	AuditFields
}

// JournalLine represents a row of the journal_lines table.
type JournalLine struct {
	LineID      string              `db:"line_id"`
	EntryID     string              `db:"entry_id"`
	AccountID   string              `db:"account_id"`
	Description string              `db:"description"`
	Debit       decimal.Decimal     `db:"debit"`
	Credit      decimal.Decimal     `db:"credit"`
	VATRate     decimal.NullDecimal `db:"vat_rate"`
	Position    int                 `db:"position"`
}
