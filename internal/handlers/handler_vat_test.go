package handlers_test

import (
	"net/http"
	"testing"

	"github.com/Fattieportal/boekhouding-saas/internal/apperrors"
	"github.com/Fattieportal/boekhouding-saas/internal/core/domain"
	"github.com/Fattieportal/boekhouding-saas/internal/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type VATInvoiceHandlerTestSuite struct {
	handlerSuite
}

func TestVATInvoiceHandler(t *testing.T) {
	suite.Run(t, new(VATInvoiceHandlerTestSuite))
}

func (s *VATInvoiceHandlerTestSuite) TestCalculate() {
	calc := &domain.VATCalculation{CalculationID: "v-1", Year: 2024, Quarter: 1, NetVAT: decimal.NewFromInt(165), Status: domain.VATCalculated}
	s.vat.On("Calculate", mock.Anything, testTenantID, 2024, 1, testUserID).Return(calc, nil).Once()

	w := s.do(http.MethodPost, "/vat/calculations", dto.CalculateVATRequest{Year: 2024, Quarter: 1})

	s.Equal(http.StatusOK, w.Code)
	var got domain.VATCalculation
	s.decode(w, &got)
	s.True(decimal.NewFromInt(165).Equal(got.NetVAT))
}

func (s *VATInvoiceHandlerTestSuite) TestCalculate_InvalidQuarter() {
	w := s.do(http.MethodPost, "/vat/calculations", `{"year":2024,"quarter":5}`)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *VATInvoiceHandlerTestSuite) TestSubmit_AlreadySubmitted() {
	s.vat.On("Submit", mock.Anything, testTenantID, "v-1", testUserID).Return(nil, apperrors.ErrAlreadySubmitted).Once()

	w := s.do(http.MethodPost, "/vat/calculations/v-1/submit", nil)
	s.Equal(http.StatusConflict, w.Code)
}

func (s *VATInvoiceHandlerTestSuite) TestListCalculations_RequiresYear() {
	w := s.do(http.MethodGet, "/vat/calculations", nil)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *VATInvoiceHandlerTestSuite) TestRegisterInvoice_NonPositiveTotal() {
	body := `{"number":"F-1","kind":"SALES","status":"SENT","counterpartyName":"Acme","total":"0","dueDate":"2024-02-01T00:00:00Z","counterAccountID":"1300"}`
	w := s.do(http.MethodPost, "/invoices", body)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *VATInvoiceHandlerTestSuite) TestRegisterInvoice() {
	body := `{"number":"F-1","kind":"SALES","status":"SENT","counterpartyName":"Acme","total":"1210.00","dueDate":"2024-02-01T00:00:00Z","counterAccountID":"1300"}`
	inv := &domain.Invoice{InvoiceID: "i-1", Number: "F-1", Kind: domain.SalesInvoice}
	s.invoices.On("RegisterInvoice", mock.Anything, testTenantID, mock.MatchedBy(func(r dto.RegisterInvoiceRequest) bool {
		return r.Number == "F-1" && r.Total.Equal(decimal.NewFromInt(1210))
	}), testUserID).Return(inv, nil).Once()

	w := s.do(http.MethodPost, "/invoices", body)
	s.Equal(http.StatusCreated, w.Code)
}

func (s *VATInvoiceHandlerTestSuite) TestListInvoices_OpenOnly() {
	s.invoices.On("ListInvoices", mock.Anything, testTenantID, mock.MatchedBy(func(p dto.ListInvoicesParams) bool {
		return p.OpenOnly && p.Kind != nil && *p.Kind == domain.PurchaseInvoice
	})).Return([]domain.Invoice{}, nil).Once()

	w := s.do(http.MethodGet, "/invoices?kind=PURCHASE&openOnly=true", nil)
	s.Equal(http.StatusOK, w.Code)
}
