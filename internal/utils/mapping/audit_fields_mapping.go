package mapping

import (
	"github.com/Fattieportal/boekhouding-saas/internal/core/domain"
	"github.com/Fattieportal/boekhouding-saas/internal/models"
)

// Audit timestamps are kept in UTC on both sides. pgx hands timestamptz back in the
// local zone, which would otherwise leak into API responses and equality checks.

// ToModelAuditFields copies the created/updated stamps onto a row.
func ToModelAuditFields(d domain.AuditFields) models.AuditFields {
	m := models.AuditFields{CreatedBy: d.CreatedBy, LastUpdatedBy: d.LastUpdatedBy}
	m.CreatedAt, m.LastUpdatedAt = d.CreatedAt.UTC(), d.LastUpdatedAt.UTC()
	return m
}

// ToDomainAuditFields reads the created/updated stamps from a row.
func ToDomainAuditFields(m models.AuditFields) domain.AuditFields {
	d := domain.AuditFields{CreatedBy: m.CreatedBy, LastUpdatedBy: m.LastUpdatedBy}
	d.CreatedAt, d.LastUpdatedAt = m.CreatedAt.UTC(), m.LastUpdatedAt.UTC()
	return d
}
