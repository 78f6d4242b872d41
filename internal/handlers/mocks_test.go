package handlers_test

import (
	"context"
	"time"

	"github.com/Fattieportal/boekhouding-saas/internal/core/domain"
	portssvc "github.com/Fattieportal/boekhouding-saas/internal/core/ports/services"
	"github.com/Fattieportal/boekhouding-saas/internal/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// --- Mock AccountService ---
type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) CreateAccount(ctx context.Context, tenantID string, req dto.CreateAccountRequest, actor string) (*domain.Account, error) {
	args := m.Called(ctx, tenantID, req, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}
func (m *MockAccountService) GetAccountByID(ctx context.Context, tenantID string, accountID string) (*domain.Account, error) {
	args := m.Called(ctx, tenantID, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}
func (m *MockAccountService) GetAccountByIDs(ctx context.Context, tenantID string, accountIDs []string) (map[string]domain.Account, error) {
	args := m.Called(ctx, tenantID, accountIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.Account), args.Error(1)
}
func (m *MockAccountService) ListAccounts(ctx context.Context, tenantID string, limit int, offset int) ([]domain.Account, error) {
	args := m.Called(ctx, tenantID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Account), args.Error(1)
}
func (m *MockAccountService) UpdateAccount(ctx context.Context, tenantID string, accountID string, req dto.UpdateAccountRequest, actor string) (*domain.Account, error) {
	args := m.Called(ctx, tenantID, accountID, req, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}
func (m *MockAccountService) DeactivateAccount(ctx context.Context, tenantID string, accountID string, actor string) error {
	args := m.Called(ctx, tenantID, accountID, actor)
	return args.Error(0)
}

// Ensure mock implements the interface
var _ portssvc.AccountSvcFacade = (*MockAccountService)(nil)

// --- Mock JournalService ---
type MockJournalService struct {
	mock.Mock
}

func (m *MockJournalService) CreateJournal(ctx context.Context, tenantID string, req dto.CreateJournalRequest, actor string) (*domain.Journal, error) {
	args := m.Called(ctx, tenantID, req, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Journal), args.Error(1)
}
func (m *MockJournalService) ListJournals(ctx context.Context, tenantID string) ([]domain.Journal, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Journal), args.Error(1)
}
func (m *MockJournalService) DeactivateJournal(ctx context.Context, tenantID string, journalID string, actor string) error {
	return m.Called(ctx, tenantID, journalID, actor).Error(0)
}
func (m *MockJournalService) GetEntry(ctx context.Context, tenantID string, entryID string) (*domain.JournalEntry, error) {
	args := m.Called(ctx, tenantID, entryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}
func (m *MockJournalService) ListEntries(ctx context.Context, tenantID string, params dto.ListEntriesParams) (*dto.ListEntriesResponse, error) {
	args := m.Called(ctx, tenantID, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ListEntriesResponse), args.Error(1)
}
func (m *MockJournalService) AccountBalance(ctx context.Context, tenantID string, accountID string, from, to time.Time) (decimal.Decimal, error) {
	args := m.Called(ctx, tenantID, accountID, from, to)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}
func (m *MockJournalService) CreateDraft(ctx context.Context, tenantID string, req dto.CreateDraftRequest, actor string) (*domain.JournalEntry, error) {
	args := m.Called(ctx, tenantID, req, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}
func (m *MockJournalService) UpdateDraft(ctx context.Context, tenantID string, entryID string, req dto.UpdateDraftRequest, actor string) (*domain.JournalEntry, error) {
	args := m.Called(ctx, tenantID, entryID, req, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}
func (m *MockJournalService) DeleteDraft(ctx context.Context, tenantID string, entryID string, actor string) error {
	return m.Called(ctx, tenantID, entryID, actor).Error(0)
}
func (m *MockJournalService) Post(ctx context.Context, tenantID string, entryID string, actor string) (*domain.JournalEntry, error) {
	args := m.Called(ctx, tenantID, entryID, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}
func (m *MockJournalService) Reverse(ctx context.Context, tenantID string, entryID string, actor string, reversalDate time.Time) (*domain.JournalEntry, error) {
	args := m.Called(ctx, tenantID, entryID, actor, reversalDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}

var _ portssvc.JournalSvcFacade = (*MockJournalService)(nil)

// --- Mock PeriodService ---
type MockPeriodService struct {
	mock.Mock
}

func (m *MockPeriodService) IsPeriodOpen(ctx context.Context, tenantID string, date time.Time) (bool, error) {
	args := m.Called(ctx, tenantID, date)
	return args.Bool(0), args.Error(1)
}
func (m *MockPeriodService) GetPeriodStatus(ctx context.Context, tenantID string, year, month int) (*domain.PeriodStatus, error) {
	args := m.Called(ctx, tenantID, year, month)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PeriodStatus), args.Error(1)
}
func (m *MockPeriodService) ClosePeriod(ctx context.Context, tenantID string, year, month int, actor string) (*domain.PeriodClosure, error) {
	args := m.Called(ctx, tenantID, year, month, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PeriodClosure), args.Error(1)
}
func (m *MockPeriodService) ReopenPeriod(ctx context.Context, tenantID string, year, month int, actor string, reason string) (*domain.PeriodReopen, error) {
	args := m.Called(ctx, tenantID, year, month, actor, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PeriodReopen), args.Error(1)
}

var _ portssvc.PeriodSvcFacade = (*MockPeriodService)(nil)

// --- Mock YearEndService ---
type MockYearEndService struct {
	mock.Mock
}

func (m *MockYearEndService) CloseYear(ctx context.Context, tenantID string, year int, actor string) (*domain.YearEndClosure, error) {
	args := m.Called(ctx, tenantID, year, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.YearEndClosure), args.Error(1)
}
func (m *MockYearEndService) GenerateOpeningBalances(ctx context.Context, tenantID string, year int, actor string) (*domain.JournalEntry, error) {
	args := m.Called(ctx, tenantID, year, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}
func (m *MockYearEndService) GetYearEndClosure(ctx context.Context, tenantID string, year int) (*domain.YearEndClosure, error) {
	args := m.Called(ctx, tenantID, year)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.YearEndClosure), args.Error(1)
}
func (m *MockYearEndService) IncomeSummary(ctx context.Context, tenantID string, year int) (*domain.IncomeSummary, error) {
	args := m.Called(ctx, tenantID, year)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.IncomeSummary), args.Error(1)
}

var _ portssvc.YearEndSvcFacade = (*MockYearEndService)(nil)

// --- Mock VATService ---
type MockVATService struct {
	mock.Mock
}

func (m *MockVATService) Calculate(ctx context.Context, tenantID string, year, quarter int, actor string) (*domain.VATCalculation, error) {
	args := m.Called(ctx, tenantID, year, quarter, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.VATCalculation), args.Error(1)
}
func (m *MockVATService) Submit(ctx context.Context, tenantID string, calculationID string, actor string) (*domain.VATCalculation, error) {
	args := m.Called(ctx, tenantID, calculationID, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.VATCalculation), args.Error(1)
}
func (m *MockVATService) GetCalculation(ctx context.Context, tenantID string, calculationID string) (*domain.VATCalculation, error) {
	args := m.Called(ctx, tenantID, calculationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.VATCalculation), args.Error(1)
}
func (m *MockVATService) ListCalculations(ctx context.Context, tenantID string, year int) ([]domain.VATCalculation, error) {
	args := m.Called(ctx, tenantID, year)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.VATCalculation), args.Error(1)
}

var _ portssvc.VATSvcFacade = (*MockVATService)(nil)

// --- Mock InvoiceService ---
type MockInvoiceService struct {
	mock.Mock
}

func (m *MockInvoiceService) RegisterInvoice(ctx context.Context, tenantID string, req dto.RegisterInvoiceRequest, actor string) (*domain.Invoice, error) {
	args := m.Called(ctx, tenantID, req, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Invoice), args.Error(1)
}
func (m *MockInvoiceService) GetInvoice(ctx context.Context, tenantID string, invoiceID string) (*domain.Invoice, error) {
	args := m.Called(ctx, tenantID, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Invoice), args.Error(1)
}
func (m *MockInvoiceService) ListInvoices(ctx context.Context, tenantID string, params dto.ListInvoicesParams) ([]domain.Invoice, error) {
	args := m.Called(ctx, tenantID, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Invoice), args.Error(1)
}

var _ portssvc.InvoiceSvcFacade = (*MockInvoiceService)(nil)

// --- Mock BankService ---
type MockBankService struct {
	mock.Mock
}

func (m *MockBankService) CreateConnection(ctx context.Context, tenantID string, req dto.CreateBankConnectionRequest, actor string) (*domain.BankConnection, error) {
	args := m.Called(ctx, tenantID, req, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BankConnection), args.Error(1)
}
func (m *MockBankService) GetConnection(ctx context.Context, tenantID string, connectionID string) (*domain.BankConnection, error) {
	args := m.Called(ctx, tenantID, connectionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BankConnection), args.Error(1)
}
func (m *MockBankService) ListConnections(ctx context.Context, tenantID string) ([]domain.BankConnection, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.BankConnection), args.Error(1)
}
func (m *MockBankService) InitiateConsent(ctx context.Context, tenantID string, connectionID string) (string, error) {
	args := m.Called(ctx, tenantID, connectionID)
	return args.String(0), args.Error(1)
}
func (m *MockBankService) ActivateConnection(ctx context.Context, tenantID string, connectionID string, actor string) (*domain.BankConnection, error) {
	args := m.Called(ctx, tenantID, connectionID, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BankConnection), args.Error(1)
}
func (m *MockBankService) ListSyncableConnections(ctx context.Context) ([]domain.BankConnection, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.BankConnection), args.Error(1)
}
func (m *MockBankService) Sync(ctx context.Context, tenantID string, connectionID string, from, to time.Time, actor string) (*domain.SyncResult, error) {
	args := m.Called(ctx, tenantID, connectionID, from, to, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SyncResult), args.Error(1)
}
func (m *MockBankService) ListTransactions(ctx context.Context, tenantID string, params dto.ListBankTransactionsParams) ([]domain.BankTransaction, error) {
	args := m.Called(ctx, tenantID, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.BankTransaction), args.Error(1)
}
func (m *MockBankService) AutoMatch(ctx context.Context, tenantID string, transactionID string, actor string) (*domain.AutoMatchResult, error) {
	args := m.Called(ctx, tenantID, transactionID, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AutoMatchResult), args.Error(1)
}
func (m *MockBankService) AutoMatchUnmatched(ctx context.Context, tenantID string, connectionID string, actor string) ([]domain.AutoMatchResult, error) {
	args := m.Called(ctx, tenantID, connectionID, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AutoMatchResult), args.Error(1)
}
func (m *MockBankService) ManualMatch(ctx context.Context, tenantID string, transactionID string, req dto.ManualMatchRequest, actor string) (*domain.BankTransaction, error) {
	args := m.Called(ctx, tenantID, transactionID, req, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BankTransaction), args.Error(1)
}
func (m *MockBankService) IgnoreTransaction(ctx context.Context, tenantID string, transactionID string, actor string) (*domain.BankTransaction, error) {
	args := m.Called(ctx, tenantID, transactionID, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BankTransaction), args.Error(1)
}
func (m *MockBankService) SuggestMatches(ctx context.Context, tenantID string, transactionID string, limit int) ([]domain.MatchSuggestion, error) {
	args := m.Called(ctx, tenantID, transactionID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.MatchSuggestion), args.Error(1)
}
func (m *MockBankService) Reconcile(ctx context.Context, tenantID string, connectionID string, periodStart, periodEnd time.Time) (*domain.BankReconciliation, error) {
	args := m.Called(ctx, tenantID, connectionID, periodStart, periodEnd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BankReconciliation), args.Error(1)
}

var _ portssvc.BankSvcFacade = (*MockBankService)(nil)
