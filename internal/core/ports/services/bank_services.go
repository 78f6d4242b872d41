package services

import (
	"context"
	"time"

	"github.com/Fattieportal/boekhouding-saas/internal/core/domain"
	"github.com/Fattieportal/boekhouding-saas/internal/dto"
)

// BankConnectionSvc manages linked bank accounts
type BankConnectionSvc interface {
	CreateConnection(ctx context.Context, tenantID string, req dto.CreateBankConnectionRequest, actor string) (*domain.BankConnection, error)
	GetConnection(ctx context.Context, tenantID string, connectionID string) (*domain.BankConnection, error)
	ListConnections(ctx context.Context, tenantID string) ([]domain.BankConnection, error)
	InitiateConsent(ctx context.Context, tenantID string, connectionID string) (string, error)
	ActivateConnection(ctx context.Context, tenantID string, connectionID string, actor string) (*domain.BankConnection, error)

	// ListSyncableConnections spans all tenants; used by the background sync job.
	ListSyncableConnections(ctx context.Context) ([]domain.BankConnection, error)
}

// BankMatcherSvc imports and reconciles bank transactions
type BankMatcherSvc interface {
	Sync(ctx context.Context, tenantID string, connectionID string, from, to time.Time, actor string) (*domain.SyncResult, error)
	ListTransactions(ctx context.Context, tenantID string, params dto.ListBankTransactionsParams) ([]domain.BankTransaction, error)
	AutoMatch(ctx context.Context, tenantID string, transactionID string, actor string) (*domain.AutoMatchResult, error)
	AutoMatchUnmatched(ctx context.Context, tenantID string, connectionID string, actor string) ([]domain.AutoMatchResult, error)
	ManualMatch(ctx context.Context, tenantID string, transactionID string, req dto.ManualMatchRequest, actor string) (*domain.BankTransaction, error)
	IgnoreTransaction(ctx context.Context, tenantID string, transactionID string, actor string) (*domain.BankTransaction, error)
	SuggestMatches(ctx context.Context, tenantID string, transactionID string, limit int) ([]domain.MatchSuggestion, error)
	Reconcile(ctx context.Context, tenantID string, connectionID string, periodStart, periodEnd time.Time) (*domain.BankReconciliation, error)
}

// BankSvcFacade combines all bank-related service interfaces
type BankSvcFacade interface {
	BankConnectionSvc
	BankMatcherSvc
}
