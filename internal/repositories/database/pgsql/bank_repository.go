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

type PgxBankRepository struct {
	BaseRepository
}

func newPgxBankRepository(pool *pgxpool.Pool) *PgxBankRepository {
	return &PgxBankRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.BankRepositoryFacade = (*PgxBankRepository)(nil)

// --- Connections ---

const connectionColumns = `connection_id, tenant_id, provider, external_ref, status, masked_iban, currency, ledger_account_id,
	opening_balance, last_sync_at, created_at, created_by, last_updated_at, last_updated_by`

func scanConnection(row scanner) (domain.BankConnection, error) {
	var (
		c          domain.BankConnection
		status     string
		lastSyncAt sql.NullTime
	)
	err := row.Scan(&c.ConnectionID, &c.TenantID, &c.Provider, &c.ExternalRef, &status, &c.MaskedIBAN, &c.Currency, &c.LedgerAccountID,
		&c.OpeningBalance, &lastSyncAt, &c.CreatedAt, &c.CreatedBy, &c.LastUpdatedAt, &c.LastUpdatedBy)
	c.Status = domain.BankConnectionStatus(status)
	if lastSyncAt.Valid {
		c.LastSyncAt = &lastSyncAt.Time
	}
	return c, err
}

func (r *PgxBankRepository) SaveConnection(ctx context.Context, conn domain.BankConnection) error {
	query := `INSERT INTO bank_connections (` + connectionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14);`
	_, err := r.db(ctx).Exec(ctx, query, conn.ConnectionID, conn.TenantID, conn.Provider, conn.ExternalRef, string(conn.Status),
		conn.MaskedIBAN, conn.Currency, conn.LedgerAccountID, conn.OpeningBalance, conn.LastSyncAt,
		conn.CreatedAt, conn.CreatedBy, conn.LastUpdatedAt, conn.LastUpdatedBy)
	if err != nil {
		return mapPgError(err, "save bank connection")
	}
	return nil
}

func (r *PgxBankRepository) UpdateConnection(ctx context.Context, conn domain.BankConnection) error {
	query := `
		UPDATE bank_connections SET status = $3, last_sync_at = $4, last_updated_at = $5, last_updated_by = $6
		WHERE tenant_id = $1 AND connection_id = $2;
	`
	tag, err := r.db(ctx).Exec(ctx, query, conn.TenantID, conn.ConnectionID, string(conn.Status), conn.LastSyncAt, conn.LastUpdatedAt, conn.LastUpdatedBy)
	if err != nil {
		return mapPgError(err, "update bank connection")
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: bank connection %s", apperrors.ErrNotFound, conn.ConnectionID)
	}
	return nil
}

func (r *PgxBankRepository) FindConnectionByID(ctx context.Context, tenantID, connectionID string) (*domain.BankConnection, error) {
	query := `SELECT ` + connectionColumns + ` FROM bank_connections WHERE tenant_id = $1 AND connection_id = $2;`
	c, err := scanConnection(r.db(ctx).QueryRow(ctx, query, tenantID, connectionID))
	if err != nil {
		return nil, mapPgError(err, "bank connection "+connectionID)
	}
	return &c, nil
}

func (r *PgxBankRepository) listConnections(ctx context.Context, query string, args ...any) ([]domain.BankConnection, error) {
	rows, err := r.db(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, mapPgError(err, "list bank connections")
	}
	defer rows.Close()

	var out []domain.BankConnection
	for rows.Next() {
		c, err := scanConnection(rows)
		if err != nil {
			return nil, mapPgError(err, "scan bank connection")
		}
		out = append(out, c)
	}
	return out, mapPgError(rows.Err(), "iterate bank connections")
}

func (r *PgxBankRepository) ListConnections(ctx context.Context, tenantID string) ([]domain.BankConnection, error) {
	return r.listConnections(ctx, `SELECT `+connectionColumns+` FROM bank_connections WHERE tenant_id = $1 ORDER BY created_at, connection_id;`, tenantID)
}

func (r *PgxBankRepository) ListSyncableConnections(ctx context.Context) ([]domain.BankConnection, error) {
	return r.listConnections(ctx, `SELECT `+connectionColumns+` FROM bank_connections WHERE status IN ('ACTIVE', 'ERROR') ORDER BY tenant_id, connection_id;`)
}

// --- Transactions ---

const bankTxnColumns = `transaction_id, tenant_id, connection_id, external_id, booking_date, amount, currency, description,
	counterparty_name, counterparty_iban, match_status, matched_invoice_id, matched_entry_id, matched_at, created_at, updated_at`

func scanBankTransaction(row scanner) (domain.BankTransaction, error) {
	var (
		t              domain.BankTransaction
		status         string
		matchedInvoice sql.NullString
		matchedEntry   sql.NullString
		matchedAt      sql.NullTime
	)
	err := row.Scan(&t.TransactionID, &t.TenantID, &t.ConnectionID, &t.ExternalID, &t.BookingDate, &t.Amount, &t.Currency, &t.Description,
		&t.CounterpartyName, &t.CounterpartyIBAN, &status, &matchedInvoice, &matchedEntry, &matchedAt, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return t, err
	}
	t.BookingDate = domain.DateOnly(t.BookingDate)
	t.MatchStatus = domain.MatchStatus(status)
	if matchedInvoice.Valid {
		t.MatchedInvoiceID = &matchedInvoice.String
	}
	if matchedEntry.Valid {
		t.MatchedEntryID = &matchedEntry.String
	}
	if matchedAt.Valid {
		t.MatchedAt = &matchedAt.Time
	}
	return t, nil
}

func (r *PgxBankRepository) FindBankTransactionByID(ctx context.Context, tenantID, transactionID string) (*domain.BankTransaction, error) {
	query := `SELECT ` + bankTxnColumns + ` FROM bank_transactions WHERE tenant_id = $1 AND transaction_id = $2;`
	t, err := scanBankTransaction(r.db(ctx).QueryRow(ctx, query, tenantID, transactionID))
	if err != nil {
		return nil, mapPgError(err, "bank transaction "+transactionID)
	}
	return &t, nil
}

func (r *PgxBankRepository) FindBankTransactionByExternalID(ctx context.Context, connectionID, externalID string) (*domain.BankTransaction, error) {
	query := `SELECT ` + bankTxnColumns + ` FROM bank_transactions WHERE connection_id = $1 AND external_id = $2;`
	t, err := scanBankTransaction(r.db(ctx).QueryRow(ctx, query, connectionID, externalID))
	if err != nil {
		return nil, mapPgError(err, "bank transaction "+externalID)
	}
	return &t, nil
}

// SaveBankTransaction relies on the (connection_id, external_id) constraint for deduplication.
func (r *PgxBankRepository) SaveBankTransaction(ctx context.Context, txn domain.BankTransaction) error {
	query := `INSERT INTO bank_transactions (` + bankTxnColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16);`
	_, err := r.db(ctx).Exec(ctx, query, txn.TransactionID, txn.TenantID, txn.ConnectionID, txn.ExternalID, txn.BookingDate, txn.Amount,
		txn.Currency, txn.Description, txn.CounterpartyName, txn.CounterpartyIBAN, string(txn.MatchStatus),
		txn.MatchedInvoiceID, txn.MatchedEntryID, txn.MatchedAt, txn.CreatedAt, txn.UpdatedAt)
	if err != nil {
		return mapPgError(err, "save bank transaction "+txn.ExternalID)
	}
	return nil
}

func (r *PgxBankRepository) UpdateBankTransactionDetails(ctx context.Context, txn domain.BankTransaction) error {
	query := `
		UPDATE bank_transactions SET amount = $3, description = $4, updated_at = $5
		WHERE tenant_id = $1 AND transaction_id = $2;
	`
	tag, err := r.db(ctx).Exec(ctx, query, txn.TenantID, txn.TransactionID, txn.Amount, txn.Description, txn.UpdatedAt)
	if err != nil {
		return mapPgError(err, "update bank transaction")
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: bank transaction %s", apperrors.ErrNotFound, txn.TransactionID)
	}
	return nil
}

// UpdateBankTransactionMatch only touches rows that are still unmatched.
func (r *PgxBankRepository) UpdateBankTransactionMatch(ctx context.Context, txn domain.BankTransaction) error {
	query := `
		UPDATE bank_transactions
		SET match_status = $3, matched_invoice_id = $4, matched_entry_id = $5, matched_at = $6, updated_at = $7
		WHERE tenant_id = $1 AND transaction_id = $2 AND match_status = 'UNMATCHED';
	`
	tag, err := r.db(ctx).Exec(ctx, query, txn.TenantID, txn.TransactionID, string(txn.MatchStatus),
		txn.MatchedInvoiceID, txn.MatchedEntryID, txn.MatchedAt, txn.UpdatedAt)
	if err != nil {
		return mapPgError(err, "match bank transaction")
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.FindBankTransactionByID(ctx, txn.TenantID, txn.TransactionID); err != nil {
			return err
		}
		return fmt.Errorf("%w: bank transaction %s is no longer unmatched", apperrors.ErrConflict, txn.TransactionID)
	}
	return nil
}

func (r *PgxBankRepository) ListBankTransactions(ctx context.Context, tenantID string, filter portsrepo.BankTransactionFilter) ([]domain.BankTransaction, error) {
	conds := []string{"tenant_id = $1"}
	args := []any{tenantID}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if filter.ConnectionID != "" {
		conds = append(conds, "connection_id = "+arg(filter.ConnectionID))
	}
	if filter.Status != nil {
		conds = append(conds, "match_status = "+arg(string(*filter.Status)))
	}
	if filter.From != nil {
		conds = append(conds, "booking_date >= "+arg(*filter.From)+"::date")
	}
	if filter.To != nil {
		conds = append(conds, "booking_date <= "+arg(*filter.To)+"::date")
	}
	query := `SELECT ` + bankTxnColumns + ` FROM bank_transactions WHERE ` + strings.Join(conds, " AND ") +
		` ORDER BY booking_date, external_id;`

	rows, err := r.db(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, mapPgError(err, "list bank transactions")
	}
	defer rows.Close()

	var out []domain.BankTransaction
	for rows.Next() {
		t, err := scanBankTransaction(rows)
		if err != nil {
			return nil, mapPgError(err, "scan bank transaction")
		}
		out = append(out, t)
	}
	return out, mapPgError(rows.Err(), "iterate bank transactions")
}
