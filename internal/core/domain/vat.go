package domain

import (
	"fmt"
	"time"

	"github.com/Fattieportal/boekhouding-saas/internal/apperrors"
	"github.com/shopspring/decimal"
)

// VATStatus is the lifecycle of a quarterly VAT calculation.
type VATStatus string

const (
	VATCalculated VATStatus = "CALCULATED"
	VATSubmitted  VATStatus = "SUBMITTED"
)

// VATKind separates output (sales) from input (purchase) VAT.
type VATKind string

const (
	SalesVAT    VATKind = "SALES"
	PurchaseVAT VATKind = "PURCHASE"
)

// VATRateLine is the aggregate for one rate on one side.
type VATRateLine struct {
	Kind VATKind         `json:"kind"`
	Rate decimal.Decimal `json:"rate"`
	Base decimal.Decimal `json:"base"`
	VAT  decimal.Decimal `json:"vat"`
}

// VATCalculation is a read-side aggregation over posted lines of one quarter.
type VATCalculation struct {
	CalculationID string          `json:"calculationID"`
	TenantID      string          `json:"tenantID"`
	Year          int             `json:"year"`
	Quarter       int             `json:"quarter"`
	PeriodStart   time.Time       `json:"periodStart"`
	PeriodEnd     time.Time       `json:"periodEnd"`
	SalesVAT      decimal.Decimal `json:"salesVAT"`
	PurchaseVAT   decimal.Decimal `json:"purchaseVAT"`
	NetVAT        decimal.Decimal `json:"netVAT"`
	Status        VATStatus       `json:"status"`
	Lines         []VATRateLine   `json:"lines"`
	CalculatedAt  time.Time       `json:"calculatedAt"`
	CalculatedBy  string          `json:"calculatedBy"`
	SubmittedAt   *time.Time      `json:"submittedAt,omitempty"`
	SubmittedBy   string          `json:"submittedBy,omitempty"`
}

// QuarterBounds returns the first and last day of a calendar quarter.
func QuarterBounds(year, quarter int) (time.Time, time.Time, error) {
	if quarter < 1 || quarter > 4 {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: quarter %d out of range", apperrors.ErrValidation, quarter)
	}
	start := time.Date(year, time.Month((quarter-1)*3+1), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 3, -1)
	return start, end, nil
}

// Submit transitions Calculated to Submitted.
func (c *VATCalculation) Submit(actor string, now time.Time) error {
	if c.Status == VATSubmitted {
		return fmt.Errorf("%w: %d Q%d", apperrors.ErrAlreadySubmitted, c.Year, c.Quarter)
	}
	c.Status = VATSubmitted
	c.SubmittedAt = &now
	c.SubmittedBy = actor
	return nil
}
