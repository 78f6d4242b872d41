package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/Fattieportal/boekhouding-saas/internal/apperrors"
	"github.com/Fattieportal/boekhouding-saas/internal/core/domain"
	"github.com/Fattieportal/boekhouding-saas/internal/core/ports"
	portsrepo "github.com/Fattieportal/boekhouding-saas/internal/core/ports/repositories"
	portssvc "github.com/Fattieportal/boekhouding-saas/internal/core/ports/services"
	"github.com/Fattieportal/boekhouding-saas/internal/dto"
	"github.com/agnivade/levenshtein"
	"github.com/shopspring/decimal"
)

const (
	// DefaultMatchWindowDays is how far the due date of a candidate invoice may lie from the booking date.
	DefaultMatchWindowDays = 30
	// DefaultProviderTimeout bounds every call to the bank provider.
	DefaultProviderTimeout = 30 * time.Second
)

type bankService struct {
	*LedgerEngine
	provider        ports.BankProvider
	matchWindow     int
	providerTimeout time.Duration
}

// BankServiceOption is a functional option for configuring the bank service
type BankServiceOption func(*bankService)

// WithMatchWindowDays sets the due date window used by AutoMatch.
func WithMatchWindowDays(days int) BankServiceOption {
	return func(s *bankService) {
		if days >= 0 {
			s.matchWindow = days
		}
	}
}

// WithProviderTimeout sets the timeout of bank provider calls.
func WithProviderTimeout(d time.Duration) BankServiceOption {
	return func(s *bankService) {
		if d > 0 {
			s.providerTimeout = d
		}
	}
}

// NewBankService creates the bank reconciliation matcher.
func NewBankService(engine *LedgerEngine, provider ports.BankProvider, options ...BankServiceOption) portssvc.BankSvcFacade {
	svc := &bankService{
		LedgerEngine:    engine,
		provider:        provider,
		matchWindow:     DefaultMatchWindowDays,
		providerTimeout: DefaultProviderTimeout,
	}
	for _, option := range options {
		option(svc)
	}
	return svc
}

var _ portssvc.BankSvcFacade = (*bankService)(nil)

func (s *bankService) CreateConnection(ctx context.Context, tenantID string, req dto.CreateBankConnectionRequest, actor string) (*domain.BankConnection, error) {
	if !domain.FitsAmountScale(req.OpeningBalance) {
		return nil, fmt.Errorf("%w: opening balance has more than %d decimal places", apperrors.ErrValidation, domain.AmountScale)
	}
	acc, err := s.repos.AccountRepo.FindAccountByID(ctx, tenantID, req.LedgerAccountID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: ledger account %s does not exist", apperrors.ErrValidation, req.LedgerAccountID)
		}
		return nil, err
	}
	if acc.AccountType != domain.Asset {
		return nil, fmt.Errorf("%w: ledger account %s must be of type %s", apperrors.ErrValidation, acc.Code, domain.Asset)
	}

	conn := domain.BankConnection{
		ConnectionID:    s.newID(),
		TenantID:        tenantID,
		Provider:        req.Provider,
		ExternalRef:     req.ExternalRef,
		Status:          domain.ConnectionPending,
		MaskedIBAN:      domain.MaskIBAN(req.IBAN),
		Currency:        strings.ToUpper(req.Currency),
		LedgerAccountID: acc.AccountID,
		OpeningBalance:  req.OpeningBalance,
		AuditFields:     domain.NewAuditFields(actor, s.now()),
	}
	if err := s.repos.BankRepo.SaveConnection(ctx, conn); err != nil {
		s.logFailure(ctx, err, "Failed to save bank connection")
		return nil, err
	}
	s.LogInfo(ctx, "Bank connection created", slog.String("connection_id", conn.ConnectionID))
	return &conn, nil
}

func (s *bankService) GetConnection(ctx context.Context, tenantID string, connectionID string) (*domain.BankConnection, error) {
	return s.repos.BankRepo.FindConnectionByID(ctx, tenantID, connectionID)
}

func (s *bankService) ListConnections(ctx context.Context, tenantID string) ([]domain.BankConnection, error) {
	conns, err := s.repos.BankRepo.ListConnections(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if conns == nil {
		return []domain.BankConnection{}, nil
	}
	return conns, nil
}

func (s *bankService) ListSyncableConnections(ctx context.Context) ([]domain.BankConnection, error) {
	return s.repos.BankRepo.ListSyncableConnections(ctx)
}

func (s *bankService) InitiateConsent(ctx context.Context, tenantID string, connectionID string) (string, error) {
	conn, err := s.repos.BankRepo.FindConnectionByID(ctx, tenantID, connectionID)
	if err != nil {
		return "", err
	}
	if conn.Status == domain.ConnectionRevoked {
		return "", fmt.Errorf("%w: connection %s is revoked", apperrors.ErrInvalidState, connectionID)
	}
	if s.provider == nil {
		return "", fmt.Errorf("%w: no bank provider configured", apperrors.ErrExternalProvider)
	}
	url, err := s.provider.InitiateConsent(ctx, *conn)
	if err != nil {
		s.LogError(ctx, err, "Failed to initiate bank consent", slog.String("connection_id", connectionID))
		return "", fmt.Errorf("%w: %v", apperrors.ErrExternalProvider, err)
	}
	return url, nil
}

// ActivateConnection records granted consent.
func (s *bankService) ActivateConnection(ctx context.Context, tenantID string, connectionID string, actor string) (*domain.BankConnection, error) {
	conn, err := s.repos.BankRepo.FindConnectionByID(ctx, tenantID, connectionID)
	if err != nil {
		return nil, err
	}
	switch conn.Status {
	case domain.ConnectionPending, domain.ConnectionExpired, domain.ConnectionError:
	default:
		return nil, fmt.Errorf("%w: connection %s is %s", apperrors.ErrInvalidState, connectionID, conn.Status)
	}
	conn.Status = domain.ConnectionActive
	conn.Touch(actor, s.now())
	if err := s.repos.BankRepo.UpdateConnection(ctx, *conn); err != nil {
		return nil, err
	}
	return conn, nil
}

// Sync imports provider transactions within [from, to]. Each row is committed on its own, so an
// interrupted sync can simply be run again; the (connection, external id) key prevents duplicates.
func (s *bankService) Sync(ctx context.Context, tenantID string, connectionID string, from, to time.Time, actor string) (*domain.SyncResult, error) {
	from, to = domain.DateOnly(from), domain.DateOnly(to)
	if to.Before(from) {
		return nil, fmt.Errorf("%w: sync range ends before it starts", apperrors.ErrValidation)
	}
	conn, err := s.repos.BankRepo.FindConnectionByID(ctx, tenantID, connectionID)
	if err != nil {
		return nil, err
	}
	if !conn.CanSync() {
		return nil, fmt.Errorf("%w: connection %s is %s", apperrors.ErrInvalidState, connectionID, conn.Status)
	}
	result := &domain.SyncResult{ConnectionID: connectionID}

	txns, err := s.fetchTransactions(ctx, *conn, from, to)
	if err != nil {
		result.Status = domain.SyncFailed
		result.Error = err.Error()
		conn.Status = domain.ConnectionError
		conn.Touch(actor, s.now())
		if uerr := s.repos.BankRepo.UpdateConnection(ctx, *conn); uerr != nil {
			s.LogError(ctx, uerr, "Failed to flag bank connection", slog.String("connection_id", connectionID))
		}
		s.LogError(ctx, err, "Bank provider fetch failed", slog.String("connection_id", connectionID))
		return result, fmt.Errorf("%w: %v", apperrors.ErrExternalProvider, err)
	}

	for _, ptx := range txns {
		if err := ctx.Err(); err != nil {
			result.Status = domain.SyncFailed
			result.Error = err.Error()
			return result, err
		}
		if err := s.importTransaction(ctx, *conn, ptx, result); err != nil {
			result.Status = domain.SyncFailed
			result.Error = err.Error()
			s.LogError(ctx, err, "Failed to import bank transaction",
				slog.String("connection_id", connectionID),
				slog.String("external_id", ptx.ExternalID))
			return result, err
		}
	}

	now := s.now()
	conn.Status = domain.ConnectionActive
	conn.LastSyncAt = &now
	conn.Touch(actor, now)
	err = s.repos.TxManager.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repos.BankRepo.UpdateConnection(ctx, *conn); err != nil {
			return err
		}
		return s.audit(ctx, tenantID, actor, domain.ActionBankSynced, domain.EntityBankConnection, connectionID, map[string]any{
			"imported":  result.Imported,
			"updated":   result.Updated,
			"unchanged": result.Unchanged,
		})
	})
	if err != nil {
		return nil, err
	}

	result.Status = domain.SyncSucceeded
	s.LogInfo(ctx, "Bank connection synced",
		slog.String("connection_id", connectionID),
		slog.Int("imported", result.Imported),
		slog.Int("updated", result.Updated))
	return result, nil
}

func (s *bankService) fetchTransactions(ctx context.Context, conn domain.BankConnection, from, to time.Time) ([]domain.ProviderTransaction, error) {
	if s.provider == nil {
		return nil, errors.New("no bank provider configured")
	}
	ctx, cancel := context.WithTimeout(ctx, s.providerTimeout)
	defer cancel()
	return s.provider.FetchTransactions(ctx, conn, from, to)
}

func (s *bankService) importTransaction(ctx context.Context, conn domain.BankConnection, ptx domain.ProviderTransaction, result *domain.SyncResult) error {
	if !domain.FitsAmountScale(ptx.Amount) {
		return fmt.Errorf("%w: transaction %s amount %s has more than %d decimal places",
			apperrors.ErrValidation, ptx.ExternalID, ptx.Amount.String(), domain.AmountScale)
	}
	return s.repos.TxManager.WithinTx(ctx, func(ctx context.Context) error {
		now := s.now()
		existing, err := s.repos.BankRepo.FindBankTransactionByExternalID(ctx, conn.ConnectionID, ptx.ExternalID)
		if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			return err
		}
		if err == nil {
			if existing.Amount.Equal(ptx.Amount) && existing.Description == ptx.Description {
				result.Unchanged++
				return nil
			}
			existing.Amount = ptx.Amount
			existing.Description = ptx.Description
			existing.UpdatedAt = now
			if err := s.repos.BankRepo.UpdateBankTransactionDetails(ctx, *existing); err != nil {
				return err
			}
			result.Updated++
			return nil
		}

		currency := ptx.Currency
		if currency == "" {
			currency = conn.Currency
		}
		txn := domain.BankTransaction{
			TransactionID:    s.newID(),
			TenantID:         conn.TenantID,
			ConnectionID:     conn.ConnectionID,
			ExternalID:       ptx.ExternalID,
			BookingDate:      domain.DateOnly(ptx.BookingDate),
			Amount:           ptx.Amount,
			Currency:         currency,
			Description:      ptx.Description,
			CounterpartyName: ptx.CounterpartyName,
			CounterpartyIBAN: ptx.CounterpartyIBAN,
			MatchStatus:      domain.Unmatched,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		if err := s.repos.BankRepo.SaveBankTransaction(ctx, txn); err != nil {
			return err
		}
		result.Imported++
		return nil
	})
}

func (s *bankService) ListTransactions(ctx context.Context, tenantID string, params dto.ListBankTransactionsParams) ([]domain.BankTransaction, error) {
	txns, err := s.repos.BankRepo.ListBankTransactions(ctx, tenantID, portsrepo.BankTransactionFilter{
		ConnectionID: params.ConnectionID,
		Status:       params.Status,
		From:         params.From,
		To:           params.To,
	})
	if err != nil {
		return nil, err
	}
	if txns == nil {
		return []domain.BankTransaction{}, nil
	}
	return txns, nil
}

// invoiceKindFor maps the direction of money to the invoice kind it could settle.
func invoiceKindFor(amount decimal.Decimal) domain.InvoiceKind {
	if amount.IsNegative() {
		return domain.PurchaseInvoice
	}
	return domain.SalesInvoice
}

// candidates lists open invoices whose total equals the transaction amount and whose due date lies
// within the match window of the booking date.
func (s *bankService) candidates(ctx context.Context, txn domain.BankTransaction) ([]domain.Invoice, error) {
	kind := invoiceKindFor(txn.Amount)
	from := txn.BookingDate.AddDate(0, 0, -s.matchWindow)
	to := txn.BookingDate.AddDate(0, 0, s.matchWindow)
	invoices, err := s.repos.InvoiceRepo.ListInvoices(ctx, txn.TenantID, portsrepo.InvoiceFilter{
		Kind:     &kind,
		OpenOnly: true,
		DueFrom:  &from,
		DueTo:    &to,
	})
	if err != nil {
		return nil, err
	}
	matches := make([]domain.Invoice, 0, 1)
	for _, inv := range invoices {
		if inv.IsOpen() && inv.SignedAmount().Equal(txn.Amount) {
			matches = append(matches, inv)
		}
	}
	return matches, nil
}

// AutoMatch settles an invoice only when exactly one candidate exists. It never picks among several.
func (s *bankService) AutoMatch(ctx context.Context, tenantID string, transactionID string, actor string) (*domain.AutoMatchResult, error) {
	txn, err := s.repos.BankRepo.FindBankTransactionByID(ctx, tenantID, transactionID)
	if err != nil {
		return nil, err
	}
	result := &domain.AutoMatchResult{TransactionID: transactionID}
	if txn.MatchStatus != domain.Unmatched || txn.Amount.IsZero() {
		result.Outcome = domain.OutcomeSkipped
		return result, nil
	}

	cands, err := s.candidates(ctx, *txn)
	if err != nil {
		s.LogError(ctx, err, "Failed to load match candidates", slog.String("transaction_id", transactionID))
		return nil, err
	}
	switch len(cands) {
	case 0:
		result.Outcome = domain.OutcomeNoCandidate
		return result, nil
	case 1:
	default:
		result.Outcome = domain.OutcomeAmbiguous
		for _, c := range cands {
			result.CandidateIDs = append(result.CandidateIDs, c.InvoiceID)
		}
		s.LogInfo(ctx, "Ambiguous bank match left for manual resolution",
			slog.String("transaction_id", transactionID),
			slog.Int("candidates", len(cands)))
		return result, nil
	}

	invoiceID := cands[0].InvoiceID
	_, entryID, err := s.settleInvoice(ctx, tenantID, transactionID, invoiceID, actor, domain.ActionAutoMatch)
	if err != nil {
		s.logFailure(ctx, err, "Failed to settle matched invoice", slog.String("transaction_id", transactionID))
		return nil, err
	}
	result.Outcome = domain.OutcomeMatched
	result.InvoiceID = &invoiceID
	result.EntryID = &entryID
	return result, nil
}

// AutoMatchUnmatched runs AutoMatch over every unmatched transaction of a connection.
func (s *bankService) AutoMatchUnmatched(ctx context.Context, tenantID string, connectionID string, actor string) ([]domain.AutoMatchResult, error) {
	status := domain.Unmatched
	txns, err := s.repos.BankRepo.ListBankTransactions(ctx, tenantID, portsrepo.BankTransactionFilter{
		ConnectionID: connectionID,
		Status:       &status,
	})
	if err != nil {
		return nil, err
	}
	results := make([]domain.AutoMatchResult, 0, len(txns))
	for _, txn := range txns {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res, err := s.AutoMatch(ctx, tenantID, txn.TransactionID, actor)
		if err != nil {
			// A closed period or a lost race leaves the row unmatched for the next run.
			if apperrors.HTTPStatus(err) >= 500 {
				return results, err
			}
			continue
		}
		results = append(results, *res)
	}
	return results, nil
}

// ManualMatch links a transaction to an invoice (creating the payment entry) or to an existing posted entry.
func (s *bankService) ManualMatch(ctx context.Context, tenantID string, transactionID string, req dto.ManualMatchRequest, actor string) (*domain.BankTransaction, error) {
	if (req.InvoiceID == nil) == (req.EntryID == nil) {
		return nil, fmt.Errorf("%w: exactly one of invoiceID and entryID is required", apperrors.ErrValidation)
	}
	if req.InvoiceID != nil {
		txn, _, err := s.settleInvoice(ctx, tenantID, transactionID, *req.InvoiceID, actor, domain.ActionManualMatch)
		if err != nil {
			s.logFailure(ctx, err, "Failed to match transaction to invoice", slog.String("transaction_id", transactionID))
			return nil, err
		}
		return txn, nil
	}

	var txn *domain.BankTransaction
	err := s.repos.TxManager.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		txn, err = s.repos.BankRepo.FindBankTransactionByID(ctx, tenantID, transactionID)
		if err != nil {
			return err
		}
		entry, err := s.repos.JournalRepo.FindEntryByID(ctx, tenantID, *req.EntryID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return fmt.Errorf("%w: entry %s does not exist", apperrors.ErrValidation, *req.EntryID)
			}
			return err
		}
		if entry.Status != domain.Posted {
			return fmt.Errorf("%w: entry %s is %s, expected %s", apperrors.ErrInvalidState, entry.EntryID, entry.Status, domain.Posted)
		}
		if err := txn.BookManually(entry.EntryID, s.now()); err != nil {
			return err
		}
		if err := s.repos.BankRepo.UpdateBankTransactionMatch(ctx, *txn); err != nil {
			return err
		}
		return s.audit(ctx, tenantID, actor, domain.ActionManualMatch, domain.EntityBankTransaction, transactionID, map[string]any{
			"matchStatus": map[string]any{"from": domain.Unmatched, "to": domain.ManuallyBooked},
			"entryID":     entry.EntryID,
		})
	})
	if err != nil {
		s.logFailure(ctx, err, "Failed to book transaction manually", slog.String("transaction_id", transactionID))
		return nil, err
	}
	return txn, nil
}

func (s *bankService) IgnoreTransaction(ctx context.Context, tenantID string, transactionID string, actor string) (*domain.BankTransaction, error) {
	var txn *domain.BankTransaction
	err := s.repos.TxManager.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		txn, err = s.repos.BankRepo.FindBankTransactionByID(ctx, tenantID, transactionID)
		if err != nil {
			return err
		}
		if err := txn.Ignore(s.now()); err != nil {
			return err
		}
		if err := s.repos.BankRepo.UpdateBankTransactionMatch(ctx, *txn); err != nil {
			return err
		}
		return s.audit(ctx, tenantID, actor, domain.ActionManualMatch, domain.EntityBankTransaction, transactionID, map[string]any{
			"matchStatus": map[string]any{"from": domain.Unmatched, "to": domain.Ignored},
		})
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// settleInvoice posts the payment entry, marks the transaction matched and the invoice paid, atomically.
func (s *bankService) settleInvoice(ctx context.Context, tenantID, transactionID, invoiceID, actor string, action domain.AuditAction) (*domain.BankTransaction, string, error) {
	txn, err := s.repos.BankRepo.FindBankTransactionByID(ctx, tenantID, transactionID)
	if err != nil {
		return nil, "", err
	}

	var entry domain.JournalEntry
	err = s.withPeriodLocks(ctx, tenantID, []domain.Period{domain.PeriodOf(txn.BookingDate)}, func(ctx context.Context) error {
		fresh, err := s.repos.BankRepo.FindBankTransactionByID(ctx, tenantID, transactionID)
		if err != nil {
			return err
		}
		if fresh.MatchStatus != domain.Unmatched {
			return fmt.Errorf("%w: bank transaction %s is %s", apperrors.ErrInvalidState, transactionID, fresh.MatchStatus)
		}
		inv, err := s.repos.InvoiceRepo.FindInvoiceByID(ctx, tenantID, invoiceID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return fmt.Errorf("%w: invoice %s does not exist", apperrors.ErrValidation, invoiceID)
			}
			return err
		}
		if !inv.IsOpen() {
			return fmt.Errorf("%w: invoice %s is %s", apperrors.ErrInvalidState, inv.Number, inv.Status)
		}
		if !inv.SignedAmount().Equal(fresh.Amount) {
			return fmt.Errorf("%w: transaction amount %s does not settle invoice %s of %s",
				apperrors.ErrValidation, fresh.Amount, inv.Number, inv.SignedAmount())
		}
		conn, err := s.repos.BankRepo.FindConnectionByID(ctx, tenantID, fresh.ConnectionID)
		if err != nil {
			return err
		}
		journal, err := s.repos.JournalRepo.FindJournalByType(ctx, tenantID, domain.BankJournal)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return fmt.Errorf("%w: no active %s journal", apperrors.ErrValidation, domain.BankJournal)
			}
			return err
		}

		now := s.now()
		entry = s.paymentEntry(journal.JournalID, *conn, *inv, *fresh, actor, now)
		if err := s.insertAndPost(ctx, &entry, actor, postOptions{}); err != nil {
			return err
		}
		if err := fresh.MatchToInvoice(inv.InvoiceID, entry.EntryID, now); err != nil {
			return err
		}
		if err := s.repos.BankRepo.UpdateBankTransactionMatch(ctx, *fresh); err != nil {
			return err
		}
		if err := inv.MarkPaid(entry.EntryID, actor, now); err != nil {
			return err
		}
		if err := s.repos.InvoiceRepo.MarkInvoicePaid(ctx, *inv); err != nil {
			return err
		}
		txn = fresh
		return s.audit(ctx, tenantID, actor, action, domain.EntityBankTransaction, transactionID, map[string]any{
			"matchStatus": map[string]any{"from": domain.Unmatched, "to": domain.MatchedToInvoice},
			"invoiceID":   inv.InvoiceID,
			"entryID":     entry.EntryID,
		})
	})
	if err != nil {
		return nil, "", err
	}
	return txn, entry.EntryID, nil
}

// paymentEntry books a receipt against the receivable or a payment against the payable.
func (s *bankService) paymentEntry(journalID string, conn domain.BankConnection, inv domain.Invoice, txn domain.BankTransaction, actor string, now time.Time) domain.JournalEntry {
	amount := txn.Amount.Abs()
	bankLine := domain.JournalLine{LineID: s.newID(), AccountID: conn.LedgerAccountID, Description: txn.Description, Debit: decimal.Zero, Credit: decimal.Zero, Position: 1}
	counterLine := domain.JournalLine{LineID: s.newID(), AccountID: inv.CounterAccountID, Description: inv.CounterpartyName, Debit: decimal.Zero, Credit: decimal.Zero, Position: 2}
	if inv.Kind == domain.SalesInvoice {
		bankLine.Debit = amount
		counterLine.Credit = amount
	} else {
		counterLine.Debit = amount
		bankLine.Credit = amount
	}
	return domain.JournalEntry{
		EntryID:     s.newID(),
		TenantID:    inv.TenantID,
		JournalID:   journalID,
		EntryDate:   domain.DateOnly(txn.BookingDate),
		Reference:   "PAY-" + inv.Number,
		Description: fmt.Sprintf("Payment %s %s", inv.Number, inv.CounterpartyName),
		Kind:        domain.BankPaymentEntry,
		Lines:       []domain.JournalLine{bankLine, counterLine},
		AuditFields: domain.NewAuditFields(actor, now),
	}
}

// SuggestMatches ranks open invoices for manual matching: exact amount first, then counterparty name
// similarity, then due date proximity. It changes nothing.
func (s *bankService) SuggestMatches(ctx context.Context, tenantID string, transactionID string, limit int) ([]domain.MatchSuggestion, error) {
	txn, err := s.repos.BankRepo.FindBankTransactionByID(ctx, tenantID, transactionID)
	if err != nil {
		return nil, err
	}
	kind := invoiceKindFor(txn.Amount)
	invoices, err := s.repos.InvoiceRepo.ListInvoices(ctx, tenantID, portsrepo.InvoiceFilter{Kind: &kind, OpenOnly: true})
	if err != nil {
		return nil, err
	}

	name := strings.ToLower(strings.TrimSpace(txn.CounterpartyName))
	suggestions := make([]domain.MatchSuggestion, 0, len(invoices))
	for _, inv := range invoices {
		suggestions = append(suggestions, domain.MatchSuggestion{
			InvoiceID:        inv.InvoiceID,
			InvoiceNumber:    inv.Number,
			CounterpartyName: inv.CounterpartyName,
			Total:            inv.Total,
			DueDate:          inv.DueDate,
			AmountMatches:    inv.SignedAmount().Equal(txn.Amount),
			NameDistance:     levenshtein.ComputeDistance(name, strings.ToLower(strings.TrimSpace(inv.CounterpartyName))),
		})
	}
	sort.SliceStable(suggestions, func(i, j int) bool {
		a, b := suggestions[i], suggestions[j]
		if a.AmountMatches != b.AmountMatches {
			return a.AmountMatches
		}
		if a.NameDistance != b.NameDistance {
			return a.NameDistance < b.NameDistance
		}
		return absDays(a.DueDate.Sub(txn.BookingDate)) < absDays(b.DueDate.Sub(txn.BookingDate))
	})
	if limit > 0 && len(suggestions) > limit {
		suggestions = suggestions[:limit]
	}
	return suggestions, nil
}

func absDays(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

// Reconcile compares opening balance plus matched and unmatched transactions with the provider's
// closing balance. Ignored transactions are left out.
func (s *bankService) Reconcile(ctx context.Context, tenantID string, connectionID string, periodStart, periodEnd time.Time) (*domain.BankReconciliation, error) {
	periodStart, periodEnd = domain.DateOnly(periodStart), domain.DateOnly(periodEnd)
	if periodEnd.Before(periodStart) {
		return nil, fmt.Errorf("%w: period ends before it starts", apperrors.ErrValidation)
	}
	conn, err := s.repos.BankRepo.FindConnectionByID(ctx, tenantID, connectionID)
	if err != nil {
		return nil, err
	}
	txns, err := s.repos.BankRepo.ListBankTransactions(ctx, tenantID, portsrepo.BankTransactionFilter{
		ConnectionID: connectionID,
		To:           &periodEnd,
	})
	if err != nil {
		return nil, err
	}

	rec := &domain.BankReconciliation{
		ConnectionID:      connectionID,
		PeriodStart:       periodStart,
		PeriodEnd:         periodEnd,
		OpeningBalance:    conn.OpeningBalance,
		TransactionsTotal: decimal.Zero,
	}
	for _, t := range txns {
		if t.MatchStatus == domain.Ignored {
			continue
		}
		if t.BookingDate.Before(periodStart) {
			rec.OpeningBalance = rec.OpeningBalance.Add(t.Amount)
			continue
		}
		rec.TransactionsTotal = rec.TransactionsTotal.Add(t.Amount)
		rec.TransactionCount++
		if t.MatchStatus == domain.Unmatched {
			rec.UnmatchedCount++
		}
	}
	rec.CalculatedBalance = rec.OpeningBalance.Add(rec.TransactionsTotal)

	if s.provider == nil {
		return nil, fmt.Errorf("%w: no bank provider configured", apperrors.ErrExternalProvider)
	}
	pctx, cancel := context.WithTimeout(ctx, s.providerTimeout)
	defer cancel()
	closing, err := s.provider.FetchClosingBalance(pctx, *conn, periodEnd)
	if err != nil {
		s.LogError(ctx, err, "Failed to fetch closing balance", slog.String("connection_id", connectionID))
		return nil, fmt.Errorf("%w: %v", apperrors.ErrExternalProvider, err)
	}
	rec.ProviderClosingBalance = closing
	rec.Difference = closing.Sub(rec.CalculatedBalance)
	rec.IsBalanced = rec.Difference.IsZero()
	return rec, nil
}
