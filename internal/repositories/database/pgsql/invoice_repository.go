package pgsql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/Fattieportal/boekhouding-saas/internal/apperrors"
	"github.com/Fattieportal/boekhouding-saas/internal/core/domain"
	portsrepo "github.com/Fattieportal/boekhouding-saas/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxInvoiceRepository struct {
	BaseRepository
}

func newPgxInvoiceRepository(pool *pgxpool.Pool) *PgxInvoiceRepository {
	return &PgxInvoiceRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.InvoiceRepositoryFacade = (*PgxInvoiceRepository)(nil)

const invoiceColumns = `invoice_id, tenant_id, number, kind, status, counterparty_name, total, due_date, counter_account_id,
	paid_at, payment_entry_id, created_at, created_by, last_updated_at, last_updated_by`

func scanInvoice(row scanner) (domain.Invoice, error) {
	var (
		inv            domain.Invoice
		kind, status   string
		paidAt         sql.NullTime
		paymentEntryID sql.NullString
	)
	err := row.Scan(&inv.InvoiceID, &inv.TenantID, &inv.Number, &kind, &status, &inv.CounterpartyName, &inv.Total, &inv.DueDate,
		&inv.CounterAccountID, &paidAt, &paymentEntryID, &inv.CreatedAt, &inv.CreatedBy, &inv.LastUpdatedAt, &inv.LastUpdatedBy)
	if err != nil {
		return inv, err
	}
	inv.Kind = domain.InvoiceKind(kind)
	inv.Status = domain.InvoiceStatus(status)
	inv.DueDate = domain.DateOnly(inv.DueDate)
	if paidAt.Valid {
		inv.PaidAt = &paidAt.Time
	}
	if paymentEntryID.Valid {
		inv.PaymentEntryID = &paymentEntryID.String
	}
	return inv, nil
}

func (r *PgxInvoiceRepository) SaveInvoice(ctx context.Context, invoice domain.Invoice) error {
	query := `INSERT INTO invoices (` + invoiceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15);`
	_, err := r.db(ctx).Exec(ctx, query, invoice.InvoiceID, invoice.TenantID, invoice.Number, string(invoice.Kind), string(invoice.Status),
		invoice.CounterpartyName, invoice.Total, invoice.DueDate, invoice.CounterAccountID, invoice.PaidAt, invoice.PaymentEntryID,
		invoice.CreatedAt, invoice.CreatedBy, invoice.LastUpdatedAt, invoice.LastUpdatedBy)
	if err != nil {
		return mapPgError(err, "save invoice "+invoice.Number)
	}
	return nil
}

func (r *PgxInvoiceRepository) FindInvoiceByID(ctx context.Context, tenantID, invoiceID string) (*domain.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE tenant_id = $1 AND invoice_id = $2;`
	inv, err := scanInvoice(r.db(ctx).QueryRow(ctx, query, tenantID, invoiceID))
	if err != nil {
		return nil, mapPgError(err, "invoice "+invoiceID)
	}
	return &inv, nil
}

func (r *PgxInvoiceRepository) ListInvoices(ctx context.Context, tenantID string, filter portsrepo.InvoiceFilter) ([]domain.Invoice, error) {
	conds := []string{"tenant_id = $1"}
	args := []any{tenantID}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if filter.Kind != nil {
		conds = append(conds, "kind = "+arg(string(*filter.Kind)))
	}
	if filter.OpenOnly {
		conds = append(conds, "status IN ('SENT', 'POSTED')")
	}
	if filter.DueFrom != nil {
		conds = append(conds, "due_date >= "+arg(*filter.DueFrom)+"::date")
	}
	if filter.DueTo != nil {
		conds = append(conds, "due_date <= "+arg(*filter.DueTo)+"::date")
	}
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE ` + strings.Join(conds, " AND ") + ` ORDER BY due_date, number;`

	rows, err := r.db(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, mapPgError(err, "list invoices")
	}
	defer rows.Close()

	var out []domain.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, mapPgError(err, "scan invoice")
		}
		out = append(out, inv)
	}
	return out, mapPgError(rows.Err(), "iterate invoices")
}

// MarkInvoicePaid only touches invoices that are still open.
func (r *PgxInvoiceRepository) MarkInvoicePaid(ctx context.Context, invoice domain.Invoice) error {
	query := `
		UPDATE invoices SET status = 'PAID', paid_at = $3, payment_entry_id = $4, last_updated_at = $5, last_updated_by = $6
		WHERE tenant_id = $1 AND invoice_id = $2 AND status IN ('SENT', 'POSTED');
	`
	tag, err := r.db(ctx).Exec(ctx, query, invoice.TenantID, invoice.InvoiceID, invoice.PaidAt, invoice.PaymentEntryID,
		invoice.LastUpdatedAt, invoice.LastUpdatedBy)
	if err != nil {
		return mapPgError(err, "mark invoice paid")
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.FindInvoiceByID(ctx, invoice.TenantID, invoice.InvoiceID); err != nil {
			return err
		}
		return fmt.Errorf("%w: invoice %s is no longer open", apperrors.ErrConflict, invoice.Number)
	}
	return nil
}
