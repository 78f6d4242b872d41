package repositories

import (
	"context"

	"github.com/Fattieportal/boekhouding-saas/internal/core/domain"
)

// AuditWriter appends audit records in the caller's transaction.
type AuditWriter interface {
	AppendAuditRecord(ctx context.Context, record domain.AuditRecord) error
}

// AuditOutbox is the relay side of the audit log.
type AuditOutbox interface {
	// ListPendingAuditRecords returns the oldest Pending records first.
	ListPendingAuditRecords(ctx context.Context, limit int) ([]domain.AuditRecord, error)
	MarkAuditRecordSent(ctx context.Context, recordID string) error
	IncrementAuditRetry(ctx context.Context, recordID string) error
	MarkAuditRecordFailed(ctx context.Context, recordID string) error
}

// AuditReader lists the trail of one entity.
type AuditReader interface {
	ListAuditRecords(ctx context.Context, tenantID, entityType, entityID string) ([]domain.AuditRecord, error)
}

// AuditRepositoryFacade combines all audit repository interfaces
type AuditRepositoryFacade interface {
	AuditWriter
	AuditOutbox
	AuditReader
}
