package bankprovider_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/Fattieportal/boekhouding-saas/internal/adapters/bankprovider"
	"github.com/Fattieportal/boekhouding-saas/internal/core/domain"
	"github.com/Fattieportal/boekhouding-saas/internal/platform/config"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var conn = domain.BankConnection{ConnectionID: "conn-1", ExternalRef: "acc 42", Currency: "EUR"}

func newClient(t *testing.T, handler http.HandlerFunc, timeout time.Duration) *bankprovider.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return bankprovider.NewClient(&config.Config{
		BankProviderBaseURL:  srv.URL + "/",
		BankProviderTimeout:  timeout,
		BankOAuthClientID:    "client",
		BankOAuthAuthURL:     "https://bank.example/authorize",
		BankOAuthRedirectURL: "https://app.example/bank/callback",
	})
}

func TestFetchTransactions(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/accounts/acc%2042/transactions", r.URL.EscapedPath())
		assert.Equal(t, "2024-03-01", r.URL.Query().Get("from"))
		assert.Equal(t, "2024-03-31", r.URL.Query().Get("to"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"transactions":[
			{"id":"t-1","bookingDate":"2024-03-05","amount":"121.00","description":"INV-1","counterpartyName":"Acme"},
			{"id":"t-2","bookingDate":"2024-03-06","amount":-50.25,"currency":"USD"}
		]}`))
	}, time.Second)

	txns, err := client.FetchTransactions(context.Background(), conn,
		time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, txns, 2)
	assert.Equal(t, "t-1", txns[0].ExternalID)
	assert.True(t, txns[0].Amount.Equal(decimal.RequireFromString("121")))
	assert.Equal(t, "EUR", txns[0].Currency)
	assert.Equal(t, 5, txns[0].BookingDate.Day())
	assert.True(t, txns[1].Amount.Equal(decimal.RequireFromString("-50.25")))
	assert.Equal(t, "USD", txns[1].Currency)
}

func TestFetchTransactions_Non200(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}, time.Second)

	_, err := client.FetchTransactions(context.Background(), conn, time.Now(), time.Now())
	assert.ErrorContains(t, err, "502")
}

func TestFetchClosingBalance_Timeout(t *testing.T) {
	release := make(chan struct{})
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}, 50*time.Millisecond)
	defer close(release)

	_, err := client.FetchClosingBalance(context.Background(), conn, time.Now())
	assert.Error(t, err)
}

func TestFetchClosingBalance(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2024-03-31", r.URL.Query().Get("date"))
		_, _ = w.Write([]byte(`{"date":"2024-03-31","closingBalance":"1070.75"}`))
	}, time.Second)

	bal, err := client.FetchClosingBalance(context.Background(), conn, time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, bal.Equal(decimal.RequireFromString("1070.75")))
}

func TestInitiateConsent(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {}, time.Second)

	raw, err := client.InitiateConsent(context.Background(), conn)
	require.NoError(t, err)
	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "bank.example", u.Host)
	assert.Equal(t, "conn-1", u.Query().Get("state"))
	assert.Equal(t, "client", u.Query().Get("client_id"))
	assert.Equal(t, "acc 42", u.Query().Get("account"))
}
