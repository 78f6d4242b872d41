package services_test

import (
	"context"
	"time"

	"github.com/Fattieportal/boekhouding-saas/internal/core/domain"
	portsrepo "github.com/Fattieportal/boekhouding-saas/internal/core/ports/repositories"
	portssvc "github.com/Fattieportal/boekhouding-saas/internal/core/ports/services"
	"github.com/Fattieportal/boekhouding-saas/internal/core/services"
	"github.com/Fattieportal/boekhouding-saas/internal/dto"
	"github.com/Fattieportal/boekhouding-saas/internal/platform/config"
	"github.com/Fattieportal/boekhouding-saas/internal/platform/lock"
	"github.com/Fattieportal/boekhouding-saas/internal/repositories/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

const (
	tenantID = "tenant-1"
	actor    = "user-1"
)

// --- Mock BankProvider ---
type MockBankProvider struct {
	mock.Mock
}

func (m *MockBankProvider) FetchTransactions(ctx context.Context, conn domain.BankConnection, from, to time.Time) ([]domain.ProviderTransaction, error) {
	args := m.Called(ctx, conn.ConnectionID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ProviderTransaction), args.Error(1)
}

func (m *MockBankProvider) FetchClosingBalance(ctx context.Context, conn domain.BankConnection, day time.Time) (decimal.Decimal, error) {
	args := m.Called(ctx, conn.ConnectionID, day)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockBankProvider) InitiateConsent(ctx context.Context, conn domain.BankConnection) (string, error) {
	args := m.Called(ctx, conn.ConnectionID)
	return args.String(0), args.Error(1)
}

// ledgerSuite wires every service to one memory store, an in-process locker and a pinned clock.
// Each test starts with a fresh chart of accounts and one journal per type.
type ledgerSuite struct {
	suite.Suite
	ctx      context.Context
	now      time.Time
	store    *memory.Store
	repos    portsrepo.RepositoryProvider
	locker   *lock.MemoryLocker
	provider *MockBankProvider
	svc      *portssvc.ServiceContainer
	accounts map[string]string // code -> id
	journals map[domain.JournalType]string
}

func (s *ledgerSuite) SetupTest() {
	s.ctx = context.Background()
	s.now = time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)
	s.store = memory.NewStore()
	s.repos = memory.NewRepositoryProvider(s.store)
	s.locker = lock.NewMemoryLocker()
	s.provider = new(MockBankProvider)
	cfg := &config.Config{
		RetainedEarningsCode: services.DefaultRetainedEarningsCode,
		AutoMatchWindowDays:  services.DefaultMatchWindowDays,
		BankProviderTimeout:  time.Second,
	}
	s.svc = services.NewServiceContainer(cfg, s.repos, s.locker, s.provider, services.WithClock(func() time.Time { return s.now }))

	s.accounts = map[string]string{}
	for _, a := range []struct {
		code string
		name string
		typ  domain.AccountType
	}{
		{"0500", "Retained earnings", domain.Equity},
		{"1000", "Bank", domain.Asset},
		{"1300", "Receivables", domain.Asset},
		{"1600", "Payables", domain.Liability},
		{"4000", "General expenses", domain.Expense},
		{"8000", "Revenue", domain.Revenue},
	} {
		acc, err := s.svc.Account.CreateAccount(s.ctx, tenantID, dto.CreateAccountRequest{Code: a.code, Name: a.name, AccountType: a.typ}, actor)
		s.Require().NoError(err)
		s.accounts[a.code] = acc.AccountID
	}

	s.journals = map[domain.JournalType]string{}
	for _, j := range []struct {
		code string
		typ  domain.JournalType
	}{
		{"MEM", domain.GeneralJournal},
		{"BNK", domain.BankJournal},
		{"VRK", domain.SalesJournal},
	} {
		journal, err := s.svc.Journal.CreateJournal(s.ctx, tenantID, dto.CreateJournalRequest{Code: j.code, Name: j.code, Type: j.typ}, actor)
		s.Require().NoError(err)
		s.journals[j.typ] = journal.JournalID
	}
}

func dec(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func date(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

func (s *ledgerSuite) dr(code, amount string) dto.JournalLineRequest {
	return dto.JournalLineRequest{AccountID: s.accounts[code], Debit: dec(amount), Credit: decimal.Zero}
}

func (s *ledgerSuite) cr(code, amount string) dto.JournalLineRequest {
	return dto.JournalLineRequest{AccountID: s.accounts[code], Debit: decimal.Zero, Credit: dec(amount)}
}

func withVAT(l dto.JournalLineRequest, rate string) dto.JournalLineRequest {
	r := dec(rate)
	l.VATRate = &r
	return l
}

func (s *ledgerSuite) draft(on time.Time, ref string, lines ...dto.JournalLineRequest) *domain.JournalEntry {
	entry, err := s.svc.Journal.CreateDraft(s.ctx, tenantID, dto.CreateDraftRequest{
		JournalID: s.journals[domain.GeneralJournal],
		EntryDate: on,
		Reference: ref,
		Lines:     lines,
	}, actor)
	s.Require().NoError(err)
	return entry
}

func (s *ledgerSuite) post(on time.Time, ref string, lines ...dto.JournalLineRequest) *domain.JournalEntry {
	entry := s.draft(on, ref, lines...)
	posted, err := s.svc.Journal.Post(s.ctx, tenantID, entry.EntryID, actor)
	s.Require().NoError(err)
	return posted
}

func (s *ledgerSuite) balance(code string, from, to time.Time) decimal.Decimal {
	bal, err := s.svc.Journal.AccountBalance(s.ctx, tenantID, s.accounts[code], from, to)
	s.Require().NoError(err)
	return bal
}

func (s *ledgerSuite) auditActions(entityType, entityID string) []domain.AuditAction {
	records, err := s.store.ListAuditRecords(s.ctx, tenantID, entityType, entityID)
	s.Require().NoError(err)
	actions := make([]domain.AuditAction, 0, len(records))
	for _, r := range records {
		actions = append(actions, r.Action)
	}
	return actions
}

// assertDecimal compares by value, so 121 equals 121.00.
func (s *ledgerSuite) assertDecimal(expected string, actual decimal.Decimal) {
	s.Truef(dec(expected).Equal(actual), "expected %s, got %s", expected, actual.String())
}
