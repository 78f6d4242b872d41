package domain

import "time"

// AuditAction names a state-changing ledger operation.
type AuditAction string

const (
	ActionEntryPosted      AuditAction = "ENTRY_POSTED"
	ActionEntryReversed    AuditAction = "ENTRY_REVERSED"
	ActionEntryDeleted     AuditAction = "ENTRY_DELETED"
	ActionPeriodClosed     AuditAction = "PERIOD_CLOSED"
	ActionPeriodReopened   AuditAction = "PERIOD_REOPENED"
	ActionYearClosed       AuditAction = "YEAR_CLOSED"
	ActionOpeningGenerated AuditAction = "OPENING_BALANCES_GENERATED"
	ActionVATSubmitted     AuditAction = "VAT_SUBMITTED"
	ActionManualMatch      AuditAction = "BANK_MANUAL_MATCH"
	ActionAutoMatch        AuditAction = "BANK_AUTO_MATCH"
	ActionBankSynced       AuditAction = "BANK_SYNCED"
)

// Audited entity types.
const (
	EntityJournalEntry    = "journal_entry"
	EntityPeriod          = "period"
	EntityFiscalYear      = "fiscal_year"
	EntityVATCalculation  = "vat_calculation"
	EntityBankTransaction = "bank_transaction"
	EntityBankConnection  = "bank_connection"
)

// RelayStatus tracks delivery of an audit record to the message bus.
type RelayStatus string

const (
	RelayPending RelayStatus = "PENDING"
	RelaySent    RelayStatus = "SENT"
	RelayFailed  RelayStatus = "FAILED"
)

// AuditRecord is written in the same transaction as the change it describes.
type AuditRecord struct {
	RecordID    string         `json:"recordID"` // ULID, sortable by time
	TenantID    string         `json:"tenantID"`
	Actor       string         `json:"actor"`
	Action      AuditAction    `json:"action"`
	EntityType  string         `json:"entityType"`
	EntityID    string         `json:"entityID"`
	Diff        map[string]any `json:"diff"`
	OccurredAt  time.Time      `json:"occurredAt"`
	RelayStatus RelayStatus    `json:"relayStatus"`
	RetryCount  int            `json:"retryCount"`
}
