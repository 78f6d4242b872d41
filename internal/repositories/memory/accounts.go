package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/Fattieportal/boekhouding-saas/internal/apperrors"
	"github.com/Fattieportal/boekhouding-saas/internal/core/domain"
)

func (s *Store) FindAccountByID(ctx context.Context, tenantID, accountID string) (*domain.Account, error) {
	var out *domain.Account
	err := s.with(ctx, func(st *state) error {
		acc, ok := st.accounts[accountID]
		if !ok || acc.TenantID != tenantID {
			return apperrors.ErrNotFound
		}
		out = &acc
		return nil
	})
	return out, err
}

func (s *Store) FindAccountByCode(ctx context.Context, tenantID, code string) (*domain.Account, error) {
	var out *domain.Account
	err := s.with(ctx, func(st *state) error {
		for _, acc := range st.accounts {
			if acc.TenantID == tenantID && acc.Code == code {
				found := acc
				out = &found
				return nil
			}
		}
		return apperrors.ErrNotFound
	})
	return out, err
}

func (s *Store) FindAccountsByIDs(ctx context.Context, tenantID string, accountIDs []string) (map[string]domain.Account, error) {
	out := make(map[string]domain.Account, len(accountIDs))
	err := s.with(ctx, func(st *state) error {
		for _, id := range accountIDs {
			if acc, ok := st.accounts[id]; ok && acc.TenantID == tenantID {
				out[id] = acc
			}
		}
		return nil
	})
	return out, err
}

func (s *Store) ListAccounts(ctx context.Context, tenantID string, limit int, offset int) ([]domain.Account, error) {
	var out []domain.Account
	err := s.with(ctx, func(st *state) error {
		for _, acc := range st.accounts {
			if acc.TenantID == tenantID {
				out = append(out, acc)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return page(out, limit, offset), nil
}

func (s *Store) SaveAccount(ctx context.Context, account domain.Account) error {
	return s.with(ctx, func(st *state) error {
		if _, ok := st.accounts[account.AccountID]; ok {
			return fmt.Errorf("%w: account %s", apperrors.ErrDuplicate, account.AccountID)
		}
		for _, acc := range st.accounts {
			if acc.TenantID == account.TenantID && acc.Code == account.Code {
				return fmt.Errorf("%w: account code %s", apperrors.ErrDuplicate, account.Code)
			}
		}
		st.accounts[account.AccountID] = account
		return nil
	})
}

func (s *Store) UpdateAccount(ctx context.Context, account domain.Account) error {
	return s.with(ctx, func(st *state) error {
		current, ok := st.accounts[account.AccountID]
		if !ok || current.TenantID != account.TenantID {
			return apperrors.ErrNotFound
		}
		current.Name = account.Name
		current.Description = account.Description
		current.IsActive = account.IsActive
		current.LastUpdatedAt = account.LastUpdatedAt
		current.LastUpdatedBy = account.LastUpdatedBy
		st.accounts[account.AccountID] = current
		return nil
	})
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}
