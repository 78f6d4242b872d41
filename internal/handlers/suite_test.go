package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"time"

	portssvc "github.com/Fattieportal/boekhouding-saas/internal/core/ports/services"
	"github.com/Fattieportal/boekhouding-saas/internal/handlers"
	"github.com/Fattieportal/boekhouding-saas/internal/middleware"
	"github.com/Fattieportal/boekhouding-saas/internal/platform/config"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/suite"
)

const (
	testTenantID = "tenant-1"
	testUserID   = "user-1"
)

// handlerSuite routes requests through the real router and auth middleware onto mocked services.
type handlerSuite struct {
	suite.Suite
	router    *gin.Engine
	jwtSecret string

	accounts *MockAccountService
	journals *MockJournalService
	periods  *MockPeriodService
	yearEnd  *MockYearEndService
	vat      *MockVATService
	invoices *MockInvoiceService
	bank     *MockBankService
}

func (s *handlerSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.jwtSecret = "test-secret-key-that-is-long-enough"

	s.accounts = new(MockAccountService)
	s.journals = new(MockJournalService)
	s.periods = new(MockPeriodService)
	s.yearEnd = new(MockYearEndService)
	s.vat = new(MockVATService)
	s.invoices = new(MockInvoiceService)
	s.bank = new(MockBankService)

	cfg := &config.Config{JWTSecret: s.jwtSecret, IsProduction: true, BankSyncLookbackDays: 14}
	services := &portssvc.ServiceContainer{
		Account: s.accounts,
		Journal: s.journals,
		Period:  s.periods,
		YearEnd: s.yearEnd,
		VAT:     s.vat,
		Invoice: s.invoices,
		Bank:    s.bank,
	}

	s.router = gin.New()
	handlers.RegisterRoutes(s.router, cfg, services)
}

func (s *handlerSuite) TearDownTest() {
	s.accounts.AssertExpectations(s.T())
	s.journals.AssertExpectations(s.T())
	s.periods.AssertExpectations(s.T())
	s.yearEnd.AssertExpectations(s.T())
	s.vat.AssertExpectations(s.T())
	s.invoices.AssertExpectations(s.T())
	s.bank.AssertExpectations(s.T())
}

// token signs claims for testUserID acting for tenantID.
func (s *handlerSuite) token(tenantID string) string {
	claims := middleware.TenantClaims{
		TenantID: tenantID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "boekhouding-test",
			Subject:   testUserID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.jwtSecret))
	if err != nil {
		s.FailNow("Failed to sign test token", err.Error())
	}
	return signed
}

// do sends an authenticated request. body may be nil, a string or any JSON-encodable value.
func (s *handlerSuite) do(method, path string, body any) *httptest.ResponseRecorder {
	return s.doAs(testTenantID, method, path, body)
}

func (s *handlerSuite) doAs(tenantID, method, path string, body any) *httptest.ResponseRecorder {
	var buf *bytes.Buffer
	switch b := body.(type) {
	case nil:
		buf = &bytes.Buffer{}
	case string:
		buf = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		s.Require().NoError(err)
		buf = bytes.NewBuffer(raw)
	}

	req, _ := http.NewRequest(method, "/api/v1"+path, buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token(tenantID))
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *handlerSuite) decode(w *httptest.ResponseRecorder, into any) {
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), into), w.Body.String())
}
