package memory

import (
	"context"
	"sort"

	"github.com/Fattieportal/boekhouding-saas/internal/apperrors"
	"github.com/Fattieportal/boekhouding-saas/internal/core/domain"
)

func (s *Store) AppendAuditRecord(ctx context.Context, record domain.AuditRecord) error {
	return s.with(ctx, func(st *state) error {
		st.audit = append(st.audit, record)
		return nil
	})
}

func (s *Store) ListPendingAuditRecords(ctx context.Context, limit int) ([]domain.AuditRecord, error) {
	var out []domain.AuditRecord
	err := s.with(ctx, func(st *state) error {
		for _, r := range st.audit {
			if r.RelayStatus == domain.RelayPending {
				out = append(out, r)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].RecordID < out[j].RecordID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, err
}

// updateAudit replaces the audit slice entry in place. The slice is copied by clone, so a
// rolled back transaction still sees the old record.
func (s *Store) updateAudit(ctx context.Context, recordID string, fn func(r *domain.AuditRecord)) error {
	return s.with(ctx, func(st *state) error {
		for i := range st.audit {
			if st.audit[i].RecordID == recordID {
				fn(&st.audit[i])
				return nil
			}
		}
		return apperrors.ErrNotFound
	})
}

func (s *Store) MarkAuditRecordSent(ctx context.Context, recordID string) error {
	return s.updateAudit(ctx, recordID, func(r *domain.AuditRecord) { r.RelayStatus = domain.RelaySent })
}

func (s *Store) IncrementAuditRetry(ctx context.Context, recordID string) error {
	return s.updateAudit(ctx, recordID, func(r *domain.AuditRecord) { r.RetryCount++ })
}

func (s *Store) MarkAuditRecordFailed(ctx context.Context, recordID string) error {
	return s.updateAudit(ctx, recordID, func(r *domain.AuditRecord) { r.RelayStatus = domain.RelayFailed })
}

func (s *Store) ListAuditRecords(ctx context.Context, tenantID, entityType, entityID string) ([]domain.AuditRecord, error) {
	var out []domain.AuditRecord
	err := s.with(ctx, func(st *state) error {
		for _, r := range st.audit {
			if r.TenantID == tenantID && r.EntityType == entityType && r.EntityID == entityID {
				out = append(out, r)
			}
		}
		return nil
	})
	return out, err
}
