package pgsql

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Fattieportal/boekhouding-saas/internal/apperrors"
	"github.com/Fattieportal/boekhouding-saas/internal/core/domain"
	portsrepo "github.com/Fattieportal/boekhouding-saas/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxAuditRepository stores the audit log, which doubles as the outbox of the relay.
type PgxAuditRepository struct {
	BaseRepository
}

func newPgxAuditRepository(pool *pgxpool.Pool) *PgxAuditRepository {
	return &PgxAuditRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.AuditRepositoryFacade = (*PgxAuditRepository)(nil)

const auditColumns = `record_id, tenant_id, actor, action, entity_type, entity_id, diff, occurred_at, relay_status, retry_count`

func scanAuditRecord(row scanner) (domain.AuditRecord, error) {
	var (
		rec            domain.AuditRecord
		action, status string
		diff           []byte
	)
	err := row.Scan(&rec.RecordID, &rec.TenantID, &rec.Actor, &action, &rec.EntityType, &rec.EntityID, &diff, &rec.OccurredAt, &status, &rec.RetryCount)
	if err != nil {
		return rec, err
	}
	rec.Action = domain.AuditAction(action)
	rec.RelayStatus = domain.RelayStatus(status)
	if err := json.Unmarshal(diff, &rec.Diff); err != nil {
		return rec, fmt.Errorf("decode audit diff of %s: %w", rec.RecordID, err)
	}
	return rec, nil
}

func (r *PgxAuditRepository) AppendAuditRecord(ctx context.Context, record domain.AuditRecord) error {
	diff, err := json.Marshal(record.Diff)
	if err != nil {
		return fmt.Errorf("encode audit diff: %w", err)
	}
	query := `INSERT INTO audit_records (` + auditColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);`
	_, err = r.db(ctx).Exec(ctx, query, record.RecordID, record.TenantID, record.Actor, string(record.Action), record.EntityType,
		record.EntityID, diff, record.OccurredAt, string(record.RelayStatus), record.RetryCount)
	if err != nil {
		return mapPgError(err, "append audit record")
	}
	return nil
}

func (r *PgxAuditRepository) list(ctx context.Context, query string, args ...any) ([]domain.AuditRecord, error) {
	rows, err := r.db(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, mapPgError(err, "list audit records")
	}
	defer rows.Close()

	var out []domain.AuditRecord
	for rows.Next() {
		rec, err := scanAuditRecord(rows)
		if err != nil {
			return nil, mapPgError(err, "scan audit record")
		}
		out = append(out, rec)
	}
	return out, mapPgError(rows.Err(), "iterate audit records")
}

// ListPendingAuditRecords returns pending records in ULID order, which is write order.
func (r *PgxAuditRepository) ListPendingAuditRecords(ctx context.Context, limit int) ([]domain.AuditRecord, error) {
	return r.list(ctx, `SELECT `+auditColumns+` FROM audit_records WHERE relay_status = 'PENDING' ORDER BY record_id LIMIT $1;`, limit)
}

func (r *PgxAuditRepository) ListAuditRecords(ctx context.Context, tenantID, entityType, entityID string) ([]domain.AuditRecord, error) {
	query := `SELECT ` + auditColumns + ` FROM audit_records WHERE tenant_id = $1 AND entity_type = $2 AND entity_id = $3 ORDER BY record_id;`
	return r.list(ctx, query, tenantID, entityType, entityID)
}

func (r *PgxAuditRepository) update(ctx context.Context, recordID, set string) error {
	tag, err := r.db(ctx).Exec(ctx, `UPDATE audit_records SET `+set+` WHERE record_id = $1;`, recordID)
	if err != nil {
		return mapPgError(err, "update audit record")
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: audit record %s", apperrors.ErrNotFound, recordID)
	}
	return nil
}

func (r *PgxAuditRepository) MarkAuditRecordSent(ctx context.Context, recordID string) error {
	return r.update(ctx, recordID, `relay_status = 'SENT'`)
}

func (r *PgxAuditRepository) IncrementAuditRetry(ctx context.Context, recordID string) error {
	return r.update(ctx, recordID, `retry_count = retry_count + 1`)
}

func (r *PgxAuditRepository) MarkAuditRecordFailed(ctx context.Context, recordID string) error {
	return r.update(ctx, recordID, `relay_status = 'FAILED'`)
}
