package services

import (
	"context"

	"github.com/Fattieportal/boekhouding-saas/internal/core/domain"
	"github.com/Fattieportal/boekhouding-saas/internal/dto"
)

// InvoiceSvcFacade maintains the invoice read model used for bank matching
type InvoiceSvcFacade interface {
	RegisterInvoice(ctx context.Context, tenantID string, req dto.RegisterInvoiceRequest, actor string) (*domain.Invoice, error)
	GetInvoice(ctx context.Context, tenantID string, invoiceID string) (*domain.Invoice, error)
	ListInvoices(ctx context.Context, tenantID string, params dto.ListInvoicesParams) ([]domain.Invoice, error)
}
