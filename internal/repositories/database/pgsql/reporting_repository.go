package pgsql

import (
	"context"
	"time"

	"github.com/Fattieportal/boekhouding-saas/internal/core/domain"
	portsrepo "github.com/Fattieportal/boekhouding-saas/internal/core/ports/repositories"
	"github.com/shopspring/decimal"
)

// ledgerReader aggregates over posted and reversed entries.
type ledgerReader struct {
	BaseRepository
}

var _ portsrepo.LedgerReader = (*ledgerReader)(nil)

func (r *ledgerReader) TrialBalance(ctx context.Context, tenantID string, from, to time.Time) ([]domain.TrialBalanceRow, error) {
	query := `
		SELECT a.account_id, a.code, a.name, a.account_type, COALESCE(SUM(l.debit), 0), COALESCE(SUM(l.credit), 0)
		FROM journal_lines l
		JOIN journal_entries e ON e.entry_id = l.entry_id
		JOIN accounts a ON a.account_id = l.account_id
		WHERE e.tenant_id = $1
		  AND e.status IN ('POSTED', 'REVERSED')
		  AND e.entry_date BETWEEN $2::date AND $3::date
		GROUP BY a.account_id, a.code, a.name, a.account_type
		ORDER BY a.code;
	`
	rows, err := r.db(ctx).Query(ctx, query, tenantID, from, to)
	if err != nil {
		return nil, mapPgError(err, "trial balance")
	}
	defer rows.Close()

	var out []domain.TrialBalanceRow
	for rows.Next() {
		var row domain.TrialBalanceRow
		var accountType string
		if err := rows.Scan(&row.AccountID, &row.AccountCode, &row.AccountName, &accountType, &row.Debit, &row.Credit); err != nil {
			return nil, mapPgError(err, "scan trial balance row")
		}
		row.AccountType = domain.AccountType(accountType)
		out = append(out, row)
	}
	return out, mapPgError(rows.Err(), "iterate trial balance")
}

func (r *ledgerReader) LedgerLines(ctx context.Context, tenantID string, from, to time.Time) ([]domain.LedgerLine, error) {
	query := `
		SELECT e.entry_id, e.entry_date, e.kind, l.account_id, a.account_type, l.debit, l.credit, l.vat_rate
		FROM journal_lines l
		JOIN journal_entries e ON e.entry_id = l.entry_id
		JOIN accounts a ON a.account_id = l.account_id
		WHERE e.tenant_id = $1
		  AND e.status IN ('POSTED', 'REVERSED')
		  AND e.entry_date BETWEEN $2::date AND $3::date
		ORDER BY e.entry_date, e.entry_id, l.position;
	`
	rows, err := r.db(ctx).Query(ctx, query, tenantID, from, to)
	if err != nil {
		return nil, mapPgError(err, "ledger lines")
	}
	defer rows.Close()

	var out []domain.LedgerLine
	for rows.Next() {
		var (
			line        domain.LedgerLine
			kind        string
			accountType string
			rate        decimal.NullDecimal
		)
		if err := rows.Scan(&line.EntryID, &line.EntryDate, &kind, &line.AccountID, &accountType, &line.Debit, &line.Credit, &rate); err != nil {
			return nil, mapPgError(err, "scan ledger line")
		}
		line.EntryKind = domain.EntryKind(kind)
		line.AccountType = domain.AccountType(accountType)
		if rate.Valid {
			v := rate.Decimal
			line.VATRate = &v
		}
		out = append(out, line)
	}
	return out, mapPgError(rows.Err(), "iterate ledger lines")
}
