package services

import (
	"context"

	"github.com/Fattieportal/boekhouding-saas/internal/core/domain"
	"github.com/Fattieportal/boekhouding-saas/internal/dto"
)

// AccountReaderSvc defines read operations for the chart of accounts
type AccountReaderSvc interface {
	GetAccountByID(ctx context.Context, tenantID string, accountID string) (*domain.Account, error)
	GetAccountByIDs(ctx context.Context, tenantID string, accountIDs []string) (map[string]domain.Account, error)
	ListAccounts(ctx context.Context, tenantID string, limit int, offset int) ([]domain.Account, error)
}

// AccountWriterSvc defines write operations for the chart of accounts
type AccountWriterSvc interface {
	CreateAccount(ctx context.Context, tenantID string, req dto.CreateAccountRequest, actor string) (*domain.Account, error)

	// UpdateAccount changes name and description. The account type is immutable.
	UpdateAccount(ctx context.Context, tenantID string, accountID string, req dto.UpdateAccountRequest, actor string) (*domain.Account, error)

	// DeactivateAccount soft-deletes an account; it stays referenced by history.
	DeactivateAccount(ctx context.Context, tenantID string, accountID string, actor string) error
}

// AccountSvcFacade combines all account-related service interfaces
type AccountSvcFacade interface {
	AccountReaderSvc
	AccountWriterSvc
}
