package mapping

import (
	"database/sql"

	"github.com/Fattieportal/boekhouding-saas/internal/core/domain"
	"github.com/Fattieportal/boekhouding-saas/internal/models"
	"github.com/shopspring/decimal"
)

// ToModelJournal converts a domain Journal to a model Journal
func ToModelJournal(d domain.Journal) models.Journal {
	return models.Journal{
		JournalID:   d.JournalID,
		TenantID:    d.TenantID,
		Code:        d.Code,
		Name:        d.Name,
		JournalType: string(d.Type),
		IsActive:    d.IsActive,
		AuditFields: ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainJournal converts a model Journal to a domain Journal
func ToDomainJournal(m models.Journal) domain.Journal {
	return domain.Journal{
		JournalID:   m.JournalID,
		TenantID:    m.TenantID,
		Code:        m.Code,
		Name:        m.Name,
		Type:        domain.JournalType(m.JournalType),
		IsActive:    m.IsActive,
		AuditFields: ToDomainAuditFields(m.AuditFields),
	}
}

// ToModelJournalEntry converts the header of a domain JournalEntry. Lines map separately.
func ToModelJournalEntry(d domain.JournalEntry) models.JournalEntry {
	m := models.JournalEntry{
		EntryID:     d.EntryID,
		TenantID:    d.TenantID,
		JournalID:   d.JournalID,
		EntryDate:   d.EntryDate,
		Reference:   d.Reference,
		Description: d.Description,
		Status:      string(d.Status),
		Kind:        string(d.Kind),
		AuditFields: ToModelAuditFields(d.AuditFields),
	}
	if d.PostedAt != nil {
		m.PostedAt = sql.NullTime{Time: *d.PostedAt, Valid: true}
	}
	if d.PostedBy != "" {
		m.PostedBy = sql.NullString{String: d.PostedBy, Valid: true}
	}
	if d.ReversalOf != nil {
		m.ReversalOf = sql.NullString{String: *d.ReversalOf, Valid: true}
	}
	return m
}

// ToDomainJournalEntry converts a model JournalEntry and its lines to a domain JournalEntry
func ToDomainJournalEntry(m models.JournalEntry, lines []models.JournalLine) domain.JournalEntry {
	d := domain.JournalEntry{
		EntryID:     m.EntryID,
		TenantID:    m.TenantID,
		JournalID:   m.JournalID,
		EntryDate:   domain.DateOnly(m.EntryDate),
		Reference:   m.Reference,
		Description: m.Description,
		Status:      domain.EntryStatus(m.Status),
		Kind:        domain.EntryKind(m.Kind),
		PostedBy:    m.PostedBy.String,
		Lines:       make([]domain.JournalLine, len(lines)),
		AuditFields: ToDomainAuditFields(m.AuditFields),
	}
	if m.PostedAt.Valid {
		t := m.PostedAt.Time
		d.PostedAt = &t
	}
	if m.ReversalOf.Valid {
		id := m.ReversalOf.String
		d.ReversalOf = &id
	}
	for i, l := range lines {
		d.Lines[i] = ToDomainJournalLine(l)
	}
	return d
}

// ToModelJournalLine converts a domain JournalLine of the given entry to a model JournalLine
func ToModelJournalLine(entryID string, d domain.JournalLine) models.JournalLine {
	m := models.JournalLine{
		LineID:      d.LineID,
		EntryID:     entryID,
		AccountID:   d.AccountID,
		Description: d.Description,
		Debit:       d.Debit,
		Credit:      d.Credit,
		Position:    d.Position,
	}
	if d.VATRate != nil {
		m.VATRate = decimal.NewNullDecimal(*d.VATRate)
	}
	return m
}

// ToDomainJournalLine converts a model JournalLine to a domain JournalLine
func ToDomainJournalLine(m models.JournalLine) domain.JournalLine {
	d := domain.JournalLine{
		LineID:      m.LineID,
		AccountID:   m.AccountID,
		Description: m.Description,
		Debit:       m.Debit,
		Credit:      m.Credit,
		Position:    m.Position,
	}
	if m.VATRate.Valid {
		rate := m.VATRate.Decimal
		d.VATRate = &rate
	}
	return d
}
