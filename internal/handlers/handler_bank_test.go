package handlers_test

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/Fattieportal/boekhouding-saas/internal/apperrors"
	"github.com/Fattieportal/boekhouding-saas/internal/core/domain"
	"github.com/Fattieportal/boekhouding-saas/internal/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type BankHandlerTestSuite struct {
	handlerSuite
}

func TestBankHandler(t *testing.T) {
	suite.Run(t, new(BankHandlerTestSuite))
}

func onDay(want string) any {
	return mock.MatchedBy(func(t time.Time) bool { return t.Format(time.DateOnly) == want })
}

func (s *BankHandlerTestSuite) TestSync_ExplicitRange() {
	result := &domain.SyncResult{ConnectionID: "c-1", Imported: 3, Status: domain.SyncSucceeded}
	s.bank.On("Sync", mock.Anything, testTenantID, "c-1", onDay("2024-01-01"), onDay("2024-01-31"), testUserID).
		Return(result, nil).Once()

	w := s.do(http.MethodPost, "/bank/connections/c-1/sync", `{"from":"2024-01-01T00:00:00Z","to":"2024-01-31T00:00:00Z"}`)

	s.Equal(http.StatusOK, w.Code)
	var got domain.SyncResult
	s.decode(w, &got)
	s.Equal(3, got.Imported)
}

func (s *BankHandlerTestSuite) TestSync_DefaultsToLookbackWindow() {
	s.bank.On("Sync", mock.Anything, testTenantID, "c-1", mock.Anything, mock.Anything, testUserID).
		Run(func(args mock.Arguments) {
			from, to := args.Get(3).(time.Time), args.Get(4).(time.Time)
			s.Equal(14*24*time.Hour, to.Sub(from))
		}).
		Return(&domain.SyncResult{Status: domain.SyncSucceeded}, nil).Once()

	w := s.do(http.MethodPost, "/bank/connections/c-1/sync", nil)
	s.Equal(http.StatusOK, w.Code)
}

func (s *BankHandlerTestSuite) TestSync_ProviderFailureReturnsResult() {
	failed := &domain.SyncResult{ConnectionID: "c-1", Status: domain.SyncFailed, Error: "timeout"}
	s.bank.On("Sync", mock.Anything, testTenantID, "c-1", mock.Anything, mock.Anything, testUserID).
		Return(failed, fmt.Errorf("%w: timeout", apperrors.ErrExternalProvider)).Once()

	w := s.do(http.MethodPost, "/bank/connections/c-1/sync", nil)

	s.Equal(http.StatusBadGateway, w.Code)
	var got domain.SyncResult
	s.decode(w, &got)
	s.Equal(domain.SyncFailed, got.Status)
}

func (s *BankHandlerTestSuite) TestSync_PendingConnection() {
	s.bank.On("Sync", mock.Anything, testTenantID, "c-1", mock.Anything, mock.Anything, testUserID).
		Return(nil, apperrors.ErrInvalidState).Once()

	w := s.do(http.MethodPost, "/bank/connections/c-1/sync", nil)
	s.Equal(http.StatusConflict, w.Code)
}

func (s *BankHandlerTestSuite) TestAutoMatch_Ambiguous() {
	result := &domain.AutoMatchResult{TransactionID: "t-1", Outcome: domain.OutcomeAmbiguous, CandidateIDs: []string{"i-1", "i-2"}}
	s.bank.On("AutoMatch", mock.Anything, testTenantID, "t-1", testUserID).Return(result, nil).Once()

	w := s.do(http.MethodPost, "/bank/transactions/t-1/automatch", nil)

	s.Equal(http.StatusOK, w.Code)
	var got domain.AutoMatchResult
	s.decode(w, &got)
	s.Equal(domain.OutcomeAmbiguous, got.Outcome)
	s.Len(got.CandidateIDs, 2)
}

func (s *BankHandlerTestSuite) TestManualMatch() {
	invoiceID := "i-1"
	req := dto.ManualMatchRequest{InvoiceID: &invoiceID}
	matched := &domain.BankTransaction{TransactionID: "t-1", MatchStatus: domain.MatchedToInvoice, MatchedInvoiceID: &invoiceID}
	s.bank.On("ManualMatch", mock.Anything, testTenantID, "t-1", req, testUserID).Return(matched, nil).Once()

	w := s.do(http.MethodPost, "/bank/transactions/t-1/match", req)

	s.Equal(http.StatusOK, w.Code)
	var got domain.BankTransaction
	s.decode(w, &got)
	s.Equal(domain.MatchedToInvoice, got.MatchStatus)
}

func (s *BankHandlerTestSuite) TestIgnore_AlreadyMatched() {
	s.bank.On("IgnoreTransaction", mock.Anything, testTenantID, "t-1", testUserID).Return(nil, apperrors.ErrInvalidState).Once()

	w := s.do(http.MethodPost, "/bank/transactions/t-1/ignore", nil)
	s.Equal(http.StatusConflict, w.Code)
}

func (s *BankHandlerTestSuite) TestReconcile() {
	rec := &domain.BankReconciliation{
		ConnectionID:           "c-1",
		CalculatedBalance:      decimal.NewFromInt(1200),
		ProviderClosingBalance: decimal.NewFromInt(1200),
		Difference:             decimal.Zero,
		IsBalanced:             true,
	}
	s.bank.On("Reconcile", mock.Anything, testTenantID, "c-1", onDay("2024-01-01"), onDay("2024-01-31")).Return(rec, nil).Once()

	w := s.do(http.MethodGet, "/bank/connections/c-1/reconciliation?from=2024-01-01&to=2024-01-31", nil)

	s.Equal(http.StatusOK, w.Code)
	var got domain.BankReconciliation
	s.decode(w, &got)
	s.True(got.IsBalanced)
}

func (s *BankHandlerTestSuite) TestReconcile_MissingRange() {
	w := s.do(http.MethodGet, "/bank/connections/c-1/reconciliation?from=2024-01-01", nil)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *BankHandlerTestSuite) TestSuggestMatches_DefaultLimit() {
	s.bank.On("SuggestMatches", mock.Anything, testTenantID, "t-1", 5).Return([]domain.MatchSuggestion{}, nil).Once()

	w := s.do(http.MethodGet, "/bank/transactions/t-1/suggestions", nil)
	s.Equal(http.StatusOK, w.Code)
}

func (s *BankHandlerTestSuite) TestInitiateConsent() {
	s.bank.On("InitiateConsent", mock.Anything, testTenantID, "c-1").Return("https://bank.example/authorize?state=c-1", nil).Once()

	w := s.do(http.MethodPost, "/bank/connections/c-1/consent", nil)

	s.Equal(http.StatusOK, w.Code)
	var got dto.ConsentResponse
	s.decode(w, &got)
	s.Equal("c-1", got.ConnectionID)
	s.Contains(got.ConsentURL, "state=c-1")
}

func (s *BankHandlerTestSuite) TestCreateConnection_InvalidIBAN() {
	w := s.do(http.MethodPost, "/bank/connections", `{"provider":"p","externalRef":"x","iban":"NL91","currency":"EUR","ledgerAccountID":"a"}`)
	s.Equal(http.StatusBadRequest, w.Code)
}
