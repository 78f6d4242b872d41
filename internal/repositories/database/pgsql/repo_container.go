package pgsql

import (
	portsrepo "github.com/Fattieportal/boekhouding-saas/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewRepositoryProvider wires every repository to one pool.
func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		TxManager:   newPgxTxManager(dbPool),
		AccountRepo: newPgxAccountRepository(dbPool),
		JournalRepo: newPgxJournalRepository(dbPool),
		PeriodRepo:  newPgxPeriodRepository(dbPool),
		VATRepo:     newPgxVATRepository(dbPool),
		BankRepo:    newPgxBankRepository(dbPool),
		InvoiceRepo: newPgxInvoiceRepository(dbPool),
		AuditRepo:   newPgxAuditRepository(dbPool),
	}
}
