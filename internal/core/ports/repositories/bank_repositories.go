package repositories

import (
	"context"
	"time"

	"github.com/Fattieportal/boekhouding-saas/internal/core/domain"
)

// BankConnectionRepository persists bank connections.
type BankConnectionRepository interface {
	SaveConnection(ctx context.Context, conn domain.BankConnection) error
	UpdateConnection(ctx context.Context, conn domain.BankConnection) error
	FindConnectionByID(ctx context.Context, tenantID, connectionID string) (*domain.BankConnection, error)
	ListConnections(ctx context.Context, tenantID string) ([]domain.BankConnection, error)

	// ListSyncableConnections lists Active and Error connections of every tenant, for background sync.
	ListSyncableConnections(ctx context.Context) ([]domain.BankConnection, error)
}

// BankTransactionFilter narrows ListBankTransactions. Bounds are inclusive booking dates.
type BankTransactionFilter struct {
	ConnectionID string
	Status       *domain.MatchStatus
	From         *time.Time
	To           *time.Time
}

// BankTransactionRepository persists imported bank transactions.
type BankTransactionRepository interface {
	FindBankTransactionByID(ctx context.Context, tenantID, transactionID string) (*domain.BankTransaction, error)

	// FindBankTransactionByExternalID looks a row up by its dedup key.
	FindBankTransactionByExternalID(ctx context.Context, connectionID, externalID string) (*domain.BankTransaction, error)

	// SaveBankTransaction inserts a row; a second row with the same dedup key yields apperrors.ErrDuplicate.
	SaveBankTransaction(ctx context.Context, txn domain.BankTransaction) error

	// UpdateBankTransactionDetails changes amount and description only.
	UpdateBankTransactionDetails(ctx context.Context, txn domain.BankTransaction) error

	// UpdateBankTransactionMatch records a match decision on a row that is still Unmatched.
	// Returns apperrors.ErrConflict when another writer matched it first.
	UpdateBankTransactionMatch(ctx context.Context, txn domain.BankTransaction) error

	ListBankTransactions(ctx context.Context, tenantID string, filter BankTransactionFilter) ([]domain.BankTransaction, error)
}

// BankRepositoryFacade combines the bank repositories
type BankRepositoryFacade interface {
	BankConnectionRepository
	BankTransactionRepository
}
