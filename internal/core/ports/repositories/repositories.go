package repositories

// RepositoryProvider holds all repository interfaces needed by services.
// This makes passing dependencies to the service container constructor cleaner.
type RepositoryProvider struct {
	TxManager   TransactionManager
	AccountRepo AccountRepositoryFacade
	JournalRepo JournalRepositoryFacade
	PeriodRepo  PeriodRepositoryFacade
	VATRepo     VATRepositoryFacade
	BankRepo    BankRepositoryFacade
	InvoiceRepo InvoiceRepositoryFacade
	AuditRepo   AuditRepositoryFacade
}
