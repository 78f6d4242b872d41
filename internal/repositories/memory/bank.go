package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/Fattieportal/boekhouding-saas/internal/apperrors"
	"github.com/Fattieportal/boekhouding-saas/internal/core/domain"
	portsrepo "github.com/Fattieportal/boekhouding-saas/internal/core/ports/repositories"
)

func (s *Store) SaveConnection(ctx context.Context, conn domain.BankConnection) error {
	return s.with(ctx, func(st *state) error {
		if _, ok := st.connections[conn.ConnectionID]; ok {
			return fmt.Errorf("%w: bank connection %s", apperrors.ErrDuplicate, conn.ConnectionID)
		}
		st.connections[conn.ConnectionID] = conn
		return nil
	})
}

func (s *Store) UpdateConnection(ctx context.Context, conn domain.BankConnection) error {
	return s.with(ctx, func(st *state) error {
		current, ok := st.connections[conn.ConnectionID]
		if !ok || current.TenantID != conn.TenantID {
			return apperrors.ErrNotFound
		}
		st.connections[conn.ConnectionID] = conn
		return nil
	})
}

func (s *Store) FindConnectionByID(ctx context.Context, tenantID, connectionID string) (*domain.BankConnection, error) {
	var out *domain.BankConnection
	err := s.with(ctx, func(st *state) error {
		c, ok := st.connections[connectionID]
		if !ok || c.TenantID != tenantID {
			return apperrors.ErrNotFound
		}
		out = &c
		return nil
	})
	return out, err
}

func (s *Store) listConnections(ctx context.Context, keep func(domain.BankConnection) bool) ([]domain.BankConnection, error) {
	var out []domain.BankConnection
	err := s.with(ctx, func(st *state) error {
		for _, c := range st.connections {
			if keep(c) {
				out = append(out, c)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, err
}

func (s *Store) ListConnections(ctx context.Context, tenantID string) ([]domain.BankConnection, error) {
	return s.listConnections(ctx, func(c domain.BankConnection) bool { return c.TenantID == tenantID })
}

func (s *Store) ListSyncableConnections(ctx context.Context) ([]domain.BankConnection, error) {
	return s.listConnections(ctx, func(c domain.BankConnection) bool { return c.CanSync() })
}

func (s *Store) FindBankTransactionByID(ctx context.Context, tenantID, transactionID string) (*domain.BankTransaction, error) {
	var out *domain.BankTransaction
	err := s.with(ctx, func(st *state) error {
		t, ok := st.bankTxns[transactionID]
		if !ok || t.TenantID != tenantID {
			return apperrors.ErrNotFound
		}
		out = &t
		return nil
	})
	return out, err
}

func findByExternalID(st *state, connectionID, externalID string) (domain.BankTransaction, bool) {
	for _, t := range st.bankTxns {
		if t.ConnectionID == connectionID && t.ExternalID == externalID {
			return t, true
		}
	}
	return domain.BankTransaction{}, false
}

func (s *Store) FindBankTransactionByExternalID(ctx context.Context, connectionID, externalID string) (*domain.BankTransaction, error) {
	var out *domain.BankTransaction
	err := s.with(ctx, func(st *state) error {
		t, ok := findByExternalID(st, connectionID, externalID)
		if !ok {
			return apperrors.ErrNotFound
		}
		out = &t
		return nil
	})
	return out, err
}

func (s *Store) SaveBankTransaction(ctx context.Context, txn domain.BankTransaction) error {
	return s.with(ctx, func(st *state) error {
		if _, ok := findByExternalID(st, txn.ConnectionID, txn.ExternalID); ok {
			return fmt.Errorf("%w: bank transaction %s", apperrors.ErrDuplicate, txn.ExternalID)
		}
		st.bankTxns[txn.TransactionID] = txn
		return nil
	})
}

func (s *Store) UpdateBankTransactionDetails(ctx context.Context, txn domain.BankTransaction) error {
	return s.with(ctx, func(st *state) error {
		current, ok := st.bankTxns[txn.TransactionID]
		if !ok || current.TenantID != txn.TenantID {
			return apperrors.ErrNotFound
		}
		current.Amount = txn.Amount
		current.Description = txn.Description
		current.UpdatedAt = txn.UpdatedAt
		st.bankTxns[txn.TransactionID] = current
		return nil
	})
}

func (s *Store) UpdateBankTransactionMatch(ctx context.Context, txn domain.BankTransaction) error {
	return s.with(ctx, func(st *state) error {
		current, ok := st.bankTxns[txn.TransactionID]
		if !ok || current.TenantID != txn.TenantID {
			return apperrors.ErrNotFound
		}
		if current.MatchStatus != domain.Unmatched {
			return fmt.Errorf("%w: bank transaction %s is %s", apperrors.ErrConflict, txn.TransactionID, current.MatchStatus)
		}
		current.MatchStatus = txn.MatchStatus
		current.MatchedInvoiceID = txn.MatchedInvoiceID
		current.MatchedEntryID = txn.MatchedEntryID
		current.MatchedAt = txn.MatchedAt
		current.UpdatedAt = txn.UpdatedAt
		st.bankTxns[txn.TransactionID] = current
		return nil
	})
}

func (s *Store) ListBankTransactions(ctx context.Context, tenantID string, filter portsrepo.BankTransactionFilter) ([]domain.BankTransaction, error) {
	var out []domain.BankTransaction
	err := s.with(ctx, func(st *state) error {
		for _, t := range st.bankTxns {
			if t.TenantID != tenantID {
				continue
			}
			if filter.ConnectionID != "" && t.ConnectionID != filter.ConnectionID {
				continue
			}
			if filter.Status != nil && t.MatchStatus != *filter.Status {
				continue
			}
			if !inRange(t.BookingDate, filter.From, filter.To) {
				continue
			}
			out = append(out, t)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].BookingDate.Equal(out[j].BookingDate) {
			return out[i].BookingDate.Before(out[j].BookingDate)
		}
		return out[i].ExternalID < out[j].ExternalID
	})
	return out, err
}
