package domain

import (
	"fmt"
	"time"

	"github.com/Fattieportal/boekhouding-saas/internal/apperrors"
	"github.com/shopspring/decimal"
)

// InvoiceKind distinguishes receivables from payables.
type InvoiceKind string

const (
	SalesInvoice    InvoiceKind = "SALES"
	PurchaseInvoice InvoiceKind = "PURCHASE"
)

// InvoiceStatus is the lifecycle of an invoice as seen by the matcher.
type InvoiceStatus string

const (
	InvoiceDraft     InvoiceStatus = "DRAFT"
	InvoiceSent      InvoiceStatus = "SENT"
	InvoicePosted    InvoiceStatus = "POSTED"
	InvoicePaid      InvoiceStatus = "PAID"
	InvoiceCancelled InvoiceStatus = "CANCELLED"
)

// Invoice is the read model the bank matcher consumes. Total is the gross amount and always positive.
type Invoice struct {
	InvoiceID        string          `json:"invoiceID"`
	TenantID         string          `json:"tenantID"`
	Number           string          `json:"number"`
	Kind             InvoiceKind     `json:"kind"`
	Status           InvoiceStatus   `json:"status"`
	CounterpartyName string          `json:"counterpartyName"`
	Total            decimal.Decimal `json:"total"`
	DueDate          time.Time       `json:"dueDate"`
	CounterAccountID string          `json:"counterAccountID"` // receivable or payable account
	PaidAt           *time.Time      `json:"paidAt,omitempty"`
	PaymentEntryID   *string         `json:"paymentEntryID,omitempty"`
	AuditFields
}

// IsOpen reports whether the invoice awaits payment.
func (i *Invoice) IsOpen() bool {
	return i.Status == InvoiceSent || i.Status == InvoicePosted
}

// SignedAmount is the bank amount that would settle this invoice.
func (i *Invoice) SignedAmount() decimal.Decimal {
	if i.Kind == PurchaseInvoice {
		return i.Total.Neg()
	}
	return i.Total
}

// MarkPaid records the settling payment entry.
func (i *Invoice) MarkPaid(entryID, actor string, now time.Time) error {
	if !i.IsOpen() {
		return fmt.Errorf("%w: invoice %s is %s", apperrors.ErrInvalidState, i.Number, i.Status)
	}
	i.Status = InvoicePaid
	i.PaidAt = &now
	i.PaymentEntryID = &entryID
	i.Touch(actor, now)
	return nil
}
