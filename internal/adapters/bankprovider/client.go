// Package bankprovider talks to the bank data aggregator over HTTP.
package bankprovider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Fattieportal/boekhouding-saas/internal/core/domain"
	"github.com/Fattieportal/boekhouding-saas/internal/core/ports"
	"github.com/Fattieportal/boekhouding-saas/internal/platform/config"
	"github.com/shopspring/decimal"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const dateLayout = "2006-01-02"

// Client implements ports.BankProvider.
type Client struct {
	baseURL    string
	httpClient *http.Client
	consent    *oauth2.Config
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the transport used for data calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a provider client from configuration. Data calls authenticate with
// client credentials when a token URL is configured.
func NewClient(cfg *config.Config, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(cfg.BankProviderBaseURL, "/"),
		consent: &oauth2.Config{
			ClientID:     cfg.BankOAuthClientID,
			ClientSecret: cfg.BankOAuthClientSecret,
			RedirectURL:  cfg.BankOAuthRedirectURL,
			Scopes:       []string{"accounts", "transactions", "balances"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.BankOAuthAuthURL,
				TokenURL: cfg.BankOAuthTokenURL,
			},
		},
	}

	if cfg.BankOAuthTokenURL != "" && cfg.BankOAuthClientID != "" {
		cc := clientcredentials.Config{
			ClientID:     cfg.BankOAuthClientID,
			ClientSecret: cfg.BankOAuthClientSecret,
			TokenURL:     cfg.BankOAuthTokenURL,
			Scopes:       []string{"transactions", "balances"},
		}
		c.httpClient = cc.Client(context.Background())
	} else {
		c.httpClient = &http.Client{}
	}
	c.httpClient.Timeout = cfg.BankProviderTimeout

	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ ports.BankProvider = (*Client)(nil)

type transactionDTO struct {
	ExternalID       string          `json:"id"`
	BookingDate      string          `json:"bookingDate"`
	Amount           decimal.Decimal `json:"amount"`
	Currency         string          `json:"currency"`
	Description      string          `json:"description"`
	CounterpartyName string          `json:"counterpartyName"`
	CounterpartyIBAN string          `json:"counterpartyIban"`
}

type transactionsResponse struct {
	Transactions []transactionDTO `json:"transactions"`
}

type balanceResponse struct {
	Date           string          `json:"date"`
	ClosingBalance decimal.Decimal `json:"closingBalance"`
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build provider request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("provider request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("provider returned non-200 status for %s: %s", path, resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode provider response %s: %w", path, err)
	}
	return nil
}

func (c *Client) FetchTransactions(ctx context.Context, conn domain.BankConnection, from, to time.Time) ([]domain.ProviderTransaction, error) {
	var body transactionsResponse
	path := "/accounts/" + url.PathEscape(conn.ExternalRef) + "/transactions"
	query := url.Values{"from": {from.Format(dateLayout)}, "to": {to.Format(dateLayout)}}
	if err := c.getJSON(ctx, path, query, &body); err != nil {
		return nil, err
	}

	out := make([]domain.ProviderTransaction, 0, len(body.Transactions))
	for _, t := range body.Transactions {
		booked, err := time.Parse(dateLayout, t.BookingDate)
		if err != nil {
			return nil, fmt.Errorf("provider transaction %s: invalid booking date %q", t.ExternalID, t.BookingDate)
		}
		currency := t.Currency
		if currency == "" {
			currency = conn.Currency
		}
		out = append(out, domain.ProviderTransaction{
			ExternalID:       t.ExternalID,
			BookingDate:      booked,
			Amount:           t.Amount,
			Currency:         currency,
			Description:      t.Description,
			CounterpartyName: t.CounterpartyName,
			CounterpartyIBAN: t.CounterpartyIBAN,
		})
	}
	return out, nil
}

func (c *Client) FetchClosingBalance(ctx context.Context, conn domain.BankConnection, day time.Time) (decimal.Decimal, error) {
	var body balanceResponse
	path := "/accounts/" + url.PathEscape(conn.ExternalRef) + "/balances"
	if err := c.getJSON(ctx, path, url.Values{"date": {day.Format(dateLayout)}}, &body); err != nil {
		return decimal.Zero, err
	}
	return body.ClosingBalance, nil
}

// InitiateConsent builds the authorization URL. The connection id travels as OAuth state
// so the callback can activate the right connection.
func (c *Client) InitiateConsent(_ context.Context, conn domain.BankConnection) (string, error) {
	if c.consent.Endpoint.AuthURL == "" {
		return "", fmt.Errorf("bank consent is not configured")
	}
	return c.consent.AuthCodeURL(conn.ConnectionID,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("account", conn.ExternalRef)), nil
}
