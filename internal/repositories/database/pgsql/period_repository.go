package pgsql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Fattieportal/boekhouding-saas/internal/core/domain"
	portsrepo "github.com/Fattieportal/boekhouding-saas/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxPeriodRepository struct {
	BaseRepository
}

func newPgxPeriodRepository(pool *pgxpool.Pool) *PgxPeriodRepository {
	return &PgxPeriodRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.PeriodRepositoryFacade = (*PgxPeriodRepository)(nil)

const periodEventColumns = `sequence, tenant_id, year, month, kind, actor, reason, implicit, occurred_at`

// AppendPeriodEvent inserts an event; the BIGSERIAL column orders the log.
func (r *PgxPeriodRepository) AppendPeriodEvent(ctx context.Context, event domain.PeriodEvent) (*domain.PeriodEvent, error) {
	query := `
		INSERT INTO period_events (tenant_id, year, month, kind, actor, reason, implicit, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING sequence;
	`
	err := r.db(ctx).QueryRow(ctx, query, event.TenantID, event.Year, event.Month, string(event.Kind),
		event.Actor, event.Reason, event.Implicit, event.OccurredAt).Scan(&event.Sequence)
	if err != nil {
		return nil, mapPgError(err, "append period event")
	}
	return &event, nil
}

func (r *PgxPeriodRepository) listEvents(ctx context.Context, query string, args ...any) ([]domain.PeriodEvent, error) {
	rows, err := r.db(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, mapPgError(err, "list period events")
	}
	defer rows.Close()

	var events []domain.PeriodEvent
	for rows.Next() {
		var ev domain.PeriodEvent
		var kind string
		if err := rows.Scan(&ev.Sequence, &ev.TenantID, &ev.Year, &ev.Month, &kind, &ev.Actor, &ev.Reason, &ev.Implicit, &ev.OccurredAt); err != nil {
			return nil, mapPgError(err, "scan period event")
		}
		ev.Kind = domain.PeriodEventKind(kind)
		events = append(events, ev)
	}
	return events, mapPgError(rows.Err(), "iterate period events")
}

func (r *PgxPeriodRepository) ListPeriodEvents(ctx context.Context, tenantID string, period domain.Period) ([]domain.PeriodEvent, error) {
	query := `SELECT ` + periodEventColumns + ` FROM period_events WHERE tenant_id = $1 AND year = $2 AND month = $3 ORDER BY sequence;`
	return r.listEvents(ctx, query, tenantID, period.Year, int(period.Month))
}

func (r *PgxPeriodRepository) ListYearPeriodEvents(ctx context.Context, tenantID string, year int) ([]domain.PeriodEvent, error) {
	query := `SELECT ` + periodEventColumns + ` FROM period_events WHERE tenant_id = $1 AND year = $2 ORDER BY sequence;`
	return r.listEvents(ctx, query, tenantID, year)
}

func (r *PgxPeriodRepository) FindYearEndClosure(ctx context.Context, tenantID string, year int) (*domain.YearEndClosure, error) {
	query := `
		SELECT closure_id, tenant_id, year, closure_date, net_income, closing_entry_id, permanent, closed_at, closed_by
		FROM year_end_closures WHERE tenant_id = $1 AND year = $2;
	`
	var c domain.YearEndClosure
	var closingEntryID sql.NullString
	err := r.db(ctx).QueryRow(ctx, query, tenantID, year).Scan(
		&c.ClosureID, &c.TenantID, &c.Year, &c.ClosureDate, &c.NetIncome, &closingEntryID, &c.Permanent, &c.ClosedAt, &c.ClosedBy)
	if err != nil {
		return nil, mapPgError(err, fmt.Sprintf("year-end closure %d", year))
	}
	if closingEntryID.Valid {
		c.ClosingEntryID = &closingEntryID.String
	}
	c.ClosureDate = domain.DateOnly(c.ClosureDate)
	return &c, nil
}

// SaveYearEndClosure relies on the (tenant_id, year) constraint to reject a second closure.
func (r *PgxPeriodRepository) SaveYearEndClosure(ctx context.Context, closure domain.YearEndClosure) error {
	query := `
		INSERT INTO year_end_closures (closure_id, tenant_id, year, closure_date, net_income, closing_entry_id, permanent, closed_at, closed_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
	`
	_, err := r.db(ctx).Exec(ctx, query, closure.ClosureID, closure.TenantID, closure.Year, closure.ClosureDate,
		closure.NetIncome, closure.ClosingEntryID, closure.Permanent, closure.ClosedAt, closure.ClosedBy)
	if err != nil {
		return mapPgError(err, fmt.Sprintf("save year-end closure %d", closure.Year))
	}
	return nil
}
