package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Fattieportal/boekhouding-saas/internal/apperrors"
	"github.com/Fattieportal/boekhouding-saas/internal/core/domain"
	portsrepo "github.com/Fattieportal/boekhouding-saas/internal/core/ports/repositories"
	portssvc "github.com/Fattieportal/boekhouding-saas/internal/core/ports/services"
	"github.com/Fattieportal/boekhouding-saas/internal/dto"
)

type invoiceService struct {
	*LedgerEngine
}

// NewInvoiceService creates the service feeding the invoice read model.
func NewInvoiceService(engine *LedgerEngine) portssvc.InvoiceSvcFacade {
	return &invoiceService{LedgerEngine: engine}
}

var _ portssvc.InvoiceSvcFacade = (*invoiceService)(nil)

func (s *invoiceService) RegisterInvoice(ctx context.Context, tenantID string, req dto.RegisterInvoiceRequest, actor string) (*domain.Invoice, error) {
	if !req.Total.IsPositive() {
		return nil, fmt.Errorf("%w: invoice total must be positive", apperrors.ErrValidation)
	}
	if !domain.FitsAmountScale(req.Total) {
		return nil, fmt.Errorf("%w: invoice total has more than %d decimal places", apperrors.ErrValidation, domain.AmountScale)
	}
	if _, err := s.repos.AccountRepo.FindAccountByID(ctx, tenantID, req.CounterAccountID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: counter account %s does not exist", apperrors.ErrValidation, req.CounterAccountID)
		}
		return nil, err
	}

	invoice := domain.Invoice{
		InvoiceID:        s.newID(),
		TenantID:         tenantID,
		Number:           req.Number,
		Kind:             req.Kind,
		Status:           req.Status,
		CounterpartyName: req.CounterpartyName,
		Total:            req.Total,
		DueDate:          domain.DateOnly(req.DueDate),
		CounterAccountID: req.CounterAccountID,
		AuditFields:      domain.NewAuditFields(actor, s.now()),
	}
	if err := s.repos.InvoiceRepo.SaveInvoice(ctx, invoice); err != nil {
		s.logFailure(ctx, err, "Failed to save invoice", slog.String("number", req.Number))
		return nil, err
	}
	return &invoice, nil
}

func (s *invoiceService) GetInvoice(ctx context.Context, tenantID string, invoiceID string) (*domain.Invoice, error) {
	return s.repos.InvoiceRepo.FindInvoiceByID(ctx, tenantID, invoiceID)
}

func (s *invoiceService) ListInvoices(ctx context.Context, tenantID string, params dto.ListInvoicesParams) ([]domain.Invoice, error) {
	invoices, err := s.repos.InvoiceRepo.ListInvoices(ctx, tenantID, portsrepo.InvoiceFilter{
		Kind:     params.Kind,
		OpenOnly: params.OpenOnly,
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to list invoices")
		return nil, err
	}
	if invoices == nil {
		return []domain.Invoice{}, nil
	}
	return invoices, nil
}
