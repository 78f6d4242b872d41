package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/Fattieportal/boekhouding-saas/internal/apperrors"
	"github.com/Fattieportal/boekhouding-saas/internal/core/domain"
	portsrepo "github.com/Fattieportal/boekhouding-saas/internal/core/ports/repositories"
)

func (s *Store) SaveInvoice(ctx context.Context, invoice domain.Invoice) error {
	return s.with(ctx, func(st *state) error {
		for _, i := range st.invoices {
			if i.InvoiceID == invoice.InvoiceID || (i.TenantID == invoice.TenantID && i.Kind == invoice.Kind && i.Number == invoice.Number) {
				return fmt.Errorf("%w: invoice %s", apperrors.ErrDuplicate, invoice.Number)
			}
		}
		st.invoices[invoice.InvoiceID] = invoice
		return nil
	})
}

func (s *Store) FindInvoiceByID(ctx context.Context, tenantID, invoiceID string) (*domain.Invoice, error) {
	var out *domain.Invoice
	err := s.with(ctx, func(st *state) error {
		i, ok := st.invoices[invoiceID]
		if !ok || i.TenantID != tenantID {
			return apperrors.ErrNotFound
		}
		out = &i
		return nil
	})
	return out, err
}

func (s *Store) ListInvoices(ctx context.Context, tenantID string, filter portsrepo.InvoiceFilter) ([]domain.Invoice, error) {
	var out []domain.Invoice
	err := s.with(ctx, func(st *state) error {
		for _, i := range st.invoices {
			if i.TenantID != tenantID {
				continue
			}
			if filter.Kind != nil && i.Kind != *filter.Kind {
				continue
			}
			if filter.OpenOnly && !i.IsOpen() {
				continue
			}
			if !inRange(i.DueDate, filter.DueFrom, filter.DueTo) {
				continue
			}
			out = append(out, i)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DueDate.Equal(out[j].DueDate) {
			return out[i].DueDate.Before(out[j].DueDate)
		}
		return out[i].Number < out[j].Number
	})
	return out, err
}

func (s *Store) MarkInvoicePaid(ctx context.Context, invoice domain.Invoice) error {
	return s.with(ctx, func(st *state) error {
		current, ok := st.invoices[invoice.InvoiceID]
		if !ok || current.TenantID != invoice.TenantID {
			return apperrors.ErrNotFound
		}
		if !current.IsOpen() {
			return fmt.Errorf("%w: invoice %s is %s", apperrors.ErrConflict, current.Number, current.Status)
		}
		st.invoices[invoice.InvoiceID] = invoice
		return nil
	})
}
