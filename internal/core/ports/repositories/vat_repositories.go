package repositories

import (
	"context"

	"github.com/Fattieportal/boekhouding-saas/internal/core/domain"
)

// VATRepositoryFacade persists quarterly VAT calculations.
type VATRepositoryFacade interface {
	FindCalculationByID(ctx context.Context, tenantID, calculationID string) (*domain.VATCalculation, error)

	// FindCalculationByQuarter returns apperrors.ErrNotFound when the quarter was never calculated.
	FindCalculationByQuarter(ctx context.Context, tenantID string, year, quarter int) (*domain.VATCalculation, error)

	ListCalculations(ctx context.Context, tenantID string, year int) ([]domain.VATCalculation, error)

	// SaveCalculation inserts a new calculation or replaces a Calculated one for the same quarter.
	// Returns apperrors.ErrAlreadySubmitted if the quarter has been submitted.
	SaveCalculation(ctx context.Context, calc domain.VATCalculation) error

	// MarkSubmitted records the Calculated to Submitted transition.
	// Returns apperrors.ErrAlreadySubmitted when the row is no longer Calculated.
	MarkSubmitted(ctx context.Context, calc domain.VATCalculation) error
}
