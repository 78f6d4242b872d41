package repositories

import (
	"context"
	"time"

	"github.com/Fattieportal/boekhouding-saas/internal/core/domain"
)

// InvoiceFilter narrows ListInvoices. Due bounds are inclusive.
type InvoiceFilter struct {
	Kind     *domain.InvoiceKind
	OpenOnly bool
	DueFrom  *time.Time
	DueTo    *time.Time
}

// InvoiceRepositoryFacade persists the invoice read model.
type InvoiceRepositoryFacade interface {
	SaveInvoice(ctx context.Context, invoice domain.Invoice) error
	FindInvoiceByID(ctx context.Context, tenantID, invoiceID string) (*domain.Invoice, error)
	ListInvoices(ctx context.Context, tenantID string, filter InvoiceFilter) ([]domain.Invoice, error)

	// MarkInvoicePaid records payment of an open invoice.
	// Returns apperrors.ErrConflict when it is no longer open.
	MarkInvoicePaid(ctx context.Context, invoice domain.Invoice) error
}
