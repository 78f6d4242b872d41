package services

import (
	"context"

	"github.com/Fattieportal/boekhouding-saas/internal/core/domain"
)

// VATSvcFacade aggregates quarterly VAT
type VATSvcFacade interface {
	Calculate(ctx context.Context, tenantID string, year, quarter int, actor string) (*domain.VATCalculation, error)
	Submit(ctx context.Context, tenantID string, calculationID string, actor string) (*domain.VATCalculation, error)
	GetCalculation(ctx context.Context, tenantID string, calculationID string) (*domain.VATCalculation, error)
	ListCalculations(ctx context.Context, tenantID string, year int) ([]domain.VATCalculation, error)
}
