// Package memory is an in-process implementation of every repository port. It backs
// local development without PostgreSQL and the service tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/Fattieportal/boekhouding-saas/internal/core/domain"
	portsrepo "github.com/Fattieportal/boekhouding-saas/internal/core/ports/repositories"
)

type txKey struct{}

type state struct {
	accounts     map[string]domain.Account
	journals     map[string]domain.Journal
	entries      map[string]domain.JournalEntry
	periodEvents []domain.PeriodEvent
	periodSeq    int64
	yearEnds     map[string]domain.YearEndClosure
	vat          map[string]domain.VATCalculation
	connections  map[string]domain.BankConnection
	bankTxns     map[string]domain.BankTransaction
	invoices     map[string]domain.Invoice
	audit        []domain.AuditRecord
}

func newState() *state {
	return &state{
		accounts:    map[string]domain.Account{},
		journals:    map[string]domain.Journal{},
		entries:     map[string]domain.JournalEntry{},
		yearEnds:    map[string]domain.YearEndClosure{},
		vat:         map[string]domain.VATCalculation{},
		connections: map[string]domain.BankConnection{},
		bankTxns:    map[string]domain.BankTransaction{},
		invoices:    map[string]domain.Invoice{},
	}
}

// clone copies the maps and slices. Stored values are never mutated in place, so a shallow
// copy of each value is enough.
func (st *state) clone() *state {
	c := &state{
		accounts:     make(map[string]domain.Account, len(st.accounts)),
		journals:     make(map[string]domain.Journal, len(st.journals)),
		entries:      make(map[string]domain.JournalEntry, len(st.entries)),
		periodEvents: append([]domain.PeriodEvent(nil), st.periodEvents...),
		periodSeq:    st.periodSeq,
		yearEnds:     make(map[string]domain.YearEndClosure, len(st.yearEnds)),
		vat:          make(map[string]domain.VATCalculation, len(st.vat)),
		connections:  make(map[string]domain.BankConnection, len(st.connections)),
		bankTxns:     make(map[string]domain.BankTransaction, len(st.bankTxns)),
		invoices:     make(map[string]domain.Invoice, len(st.invoices)),
		audit:        append([]domain.AuditRecord(nil), st.audit...),
	}
	for k, v := range st.accounts {
		c.accounts[k] = v
	}
	for k, v := range st.journals {
		c.journals[k] = v
	}
	for k, v := range st.entries {
		c.entries[k] = v
	}
	for k, v := range st.yearEnds {
		c.yearEnds[k] = v
	}
	for k, v := range st.vat {
		c.vat[k] = v
	}
	for k, v := range st.connections {
		c.connections[k] = v
	}
	for k, v := range st.bankTxns {
		c.bankTxns[k] = v
	}
	for k, v := range st.invoices {
		c.invoices[k] = v
	}
	return c
}

// Store holds all data behind one mutex. A transaction holds the mutex for its whole
// duration, which makes transactions serializable, and restores a snapshot on error.
// Every tenant shares that mutex, so the store is meant for tests and local runs only;
// config refuses it when IS_PRODUCTION is set.
type Store struct {
	mu sync.Mutex
	st *state
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{st: newState()}
}

// NewRepositoryProvider wires one store into every repository slot.
func NewRepositoryProvider(store *Store) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		TxManager:   store,
		AccountRepo: store,
		JournalRepo: store,
		PeriodRepo:  store,
		VATRepo:     store,
		BankRepo:    store,
		InvoiceRepo: store,
		AuditRepo:   store,
	}
}

var (
	_ portsrepo.TransactionManager      = (*Store)(nil)
	_ portsrepo.AccountRepositoryFacade = (*Store)(nil)
	_ portsrepo.JournalRepositoryFacade = (*Store)(nil)
	_ portsrepo.PeriodRepositoryFacade  = (*Store)(nil)
	_ portsrepo.VATRepositoryFacade     = (*Store)(nil)
	_ portsrepo.BankRepositoryFacade    = (*Store)(nil)
	_ portsrepo.InvoiceRepositoryFacade = (*Store)(nil)
	_ portsrepo.AuditRepositoryFacade   = (*Store)(nil)
)

func (s *Store) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

// WithinTx runs fn with exclusive access to the store. Nested calls join the outer transaction.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.inTx(ctx) {
		return fn(ctx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	committed := false
	defer func() {
		if !committed {
			s.st = snapshot
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		return err
	}
	committed = true
	return nil
}

// with runs fn against the current state, taking the mutex unless ctx already holds it.
func (s *Store) with(ctx context.Context, fn func(st *state) error) error {
	if !s.inTx(ctx) {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	return fn(s.st)
}

func tenantYearKey(tenantID string, year int) string {
	return fmt.Sprintf("%s|%d", tenantID, year)
}

func cloneEntry(e domain.JournalEntry) domain.JournalEntry {
	e.Lines = append([]domain.JournalLine(nil), e.Lines...)
	return e
}
