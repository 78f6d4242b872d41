package dto

import (
	"time"

	"github.com/Fattieportal/boekhouding-saas/internal/core/domain"
	"github.com/shopspring/decimal"
)

// RegisterInvoiceRequest adds an invoice to the read model used by bank matching.
type RegisterInvoiceRequest struct {
	Number           string               `json:"number" binding:"required,max=50"`
	Kind             domain.InvoiceKind   `json:"kind" binding:"required,oneof=SALES PURCHASE"`
	Status           domain.InvoiceStatus `json:"status" binding:"required,oneof=DRAFT SENT POSTED PAID CANCELLED"`
	CounterpartyName string               `json:"counterpartyName" binding:"required"`
	Total            decimal.Decimal      `json:"total" binding:"decimal_gt0,decimal_scale"`
	DueDate          time.Time            `json:"dueDate" binding:"required"`
	CounterAccountID string               `json:"counterAccountID" binding:"required"`
}

// ListInvoicesParams defines query parameters for listing invoices.
type ListInvoicesParams struct {
	Kind     *domain.InvoiceKind `form:"kind" binding:"omitempty,oneof=SALES PURCHASE"`
	OpenOnly bool                `form:"openOnly"`
}
