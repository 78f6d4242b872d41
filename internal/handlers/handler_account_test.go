package handlers_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Fattieportal/boekhouding-saas/internal/apperrors"
	"github.com/Fattieportal/boekhouding-saas/internal/core/domain"
	"github.com/Fattieportal/boekhouding-saas/internal/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type AccountHandlerTestSuite struct {
	handlerSuite
}

func TestAccountHandler(t *testing.T) {
	suite.Run(t, new(AccountHandlerTestSuite))
}

func (s *AccountHandlerTestSuite) TestHealthIsPublic() {
	req, _ := http.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	s.Equal(http.StatusOK, w.Code)
}

func (s *AccountHandlerTestSuite) TestMissingToken() {
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/accounts", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *AccountHandlerTestSuite) TestTokenWithoutTenant() {
	w := s.doAs("", http.MethodGet, "/accounts", nil)
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *AccountHandlerTestSuite) TestCreateAccount_Success() {
	req := dto.CreateAccountRequest{Code: "1000", Name: "Bank", AccountType: domain.Asset}
	created := &domain.Account{AccountID: "acc-1", TenantID: testTenantID, Code: "1000", Name: "Bank", AccountType: domain.Asset, IsActive: true}
	s.accounts.On("CreateAccount", mock.Anything, testTenantID, req, testUserID).Return(created, nil).Once()

	w := s.do(http.MethodPost, "/accounts", req)

	s.Equal(http.StatusCreated, w.Code)
	var resp dto.AccountResponse
	s.decode(w, &resp)
	s.Equal("acc-1", resp.AccountID)
	s.Equal(domain.Asset, resp.AccountType)
}

func (s *AccountHandlerTestSuite) TestCreateAccount_BindingErrors() {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"code":`},
		{"missing code", `{"name":"Bank","accountType":"ASSET"}`},
		{"unknown type", `{"code":"1000","name":"Bank","accountType":"CASH"}`},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			w := s.do(http.MethodPost, "/accounts", tt.body)
			s.Equal(http.StatusBadRequest, w.Code)
		})
	}
	s.accounts.AssertNotCalled(s.T(), "CreateAccount", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (s *AccountHandlerTestSuite) TestCreateAccount_DuplicateCode() {
	req := dto.CreateAccountRequest{Code: "1000", Name: "Bank", AccountType: domain.Asset}
	s.accounts.On("CreateAccount", mock.Anything, testTenantID, req, testUserID).
		Return(nil, fmt.Errorf("%w: account code 1000", apperrors.ErrDuplicate)).Once()

	w := s.do(http.MethodPost, "/accounts", req)
	s.Equal(http.StatusConflict, w.Code)
	s.Contains(w.Body.String(), "1000")
}

func (s *AccountHandlerTestSuite) TestGetAccount_UsesTokenTenant() {
	s.accounts.On("GetAccountByID", mock.Anything, "tenant-2", "acc-1").
		Return(nil, apperrors.ErrNotFound).Once()

	w := s.doAs("tenant-2", http.MethodGet, "/accounts/acc-1", nil)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *AccountHandlerTestSuite) TestListAccounts() {
	accounts := []domain.Account{
		{AccountID: "a", Code: "1000", AccountType: domain.Asset},
		{AccountID: "b", Code: "4000", AccountType: domain.Revenue},
	}
	s.accounts.On("ListAccounts", mock.Anything, testTenantID, 10, 0).Return(accounts, nil).Once()

	w := s.do(http.MethodGet, "/accounts?limit=10", nil)

	s.Equal(http.StatusOK, w.Code)
	var resp dto.ListAccountsResponse
	s.decode(w, &resp)
	s.Len(resp.Accounts, 2)
	s.Equal("4000", resp.Accounts[1].Code)
}

func (s *AccountHandlerTestSuite) TestListAccounts_InvalidLimit() {
	w := s.do(http.MethodGet, "/accounts?limit=0", nil)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *AccountHandlerTestSuite) TestUpdateAccount_TypeChangeRejected() {
	s.accounts.On("UpdateAccount", mock.Anything, testTenantID, "acc-1", mock.AnythingOfType("dto.UpdateAccountRequest"), testUserID).
		Return(nil, fmt.Errorf("%w: account type is immutable", apperrors.ErrValidation)).Once()

	w := s.do(http.MethodPut, "/accounts/acc-1", `{"accountType":"EXPENSE"}`)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *AccountHandlerTestSuite) TestDeactivateAccount() {
	s.accounts.On("DeactivateAccount", mock.Anything, testTenantID, "acc-1", testUserID).Return(nil).Once()

	w := s.do(http.MethodDelete, "/accounts/acc-1", nil)
	s.Equal(http.StatusNoContent, w.Code)
}

func (s *AccountHandlerTestSuite) TestDeactivateAccount_InternalErrorHidden() {
	s.accounts.On("DeactivateAccount", mock.Anything, testTenantID, "acc-1", testUserID).
		Return(apperrors.NewAppError(http.StatusInternalServerError, "update account", fmt.Errorf("connection refused"))).Once()

	w := s.do(http.MethodDelete, "/accounts/acc-1", nil)
	s.Equal(http.StatusInternalServerError, w.Code)
	s.NotContains(w.Body.String(), "connection refused")
}

func (s *AccountHandlerTestSuite) TestAccountBalance() {
	sameDay := func(want string) any {
		return mock.MatchedBy(func(t time.Time) bool { return t.Format(time.DateOnly) == want })
	}
	s.journals.On("AccountBalance", mock.Anything, testTenantID, "acc-1", sameDay("2024-01-01"), sameDay("2024-03-31")).
		Return(decimal.RequireFromString("1250.50"), nil).Once()

	w := s.do(http.MethodGet, "/accounts/acc-1/balance?from=2024-01-01&to=2024-03-31", nil)

	s.Equal(http.StatusOK, w.Code)
	var resp dto.AccountBalanceResponse
	s.decode(w, &resp)
	s.True(decimal.RequireFromString("1250.50").Equal(resp.Balance))
}

func (s *AccountHandlerTestSuite) TestAccountBalance_InvertedRange() {
	w := s.do(http.MethodGet, "/accounts/acc-1/balance?from=2024-03-31&to=2024-01-01", nil)
	s.Equal(http.StatusBadRequest, w.Code)
}
