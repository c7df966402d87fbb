package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus is the gateway status collapsed to what reconciliation acts on.
type InvoiceStatus string

const (
	InvoiceStatusPending  InvoiceStatus = "pending"
	InvoiceStatusPaid     InvoiceStatus = "paid"
	InvoiceStatusExpired  InvoiceStatus = "expired"
	InvoiceStatusFailed   InvoiceStatus = "failed"
	InvoiceStatusCanceled InvoiceStatus = "canceled"
)

// NormalizeStatus maps a raw gateway status case-insensitively.
// Anything unrecognised, SETTLED included, counts as pending.
func NormalizeStatus(raw string) InvoiceStatus {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "paid":
		return InvoiceStatusPaid
	case "expired":
		return InvoiceStatusExpired
	case "failed":
		return InvoiceStatusFailed
	case "canceled", "cancelled":
		return InvoiceStatusCanceled
	default:
		return InvoiceStatusPending
	}
}

// IsTerminalFailure is true for statuses that end the payment without money.
func (s InvoiceStatus) IsTerminalFailure() bool {
	return s == InvoiceStatusExpired || s == InvoiceStatusFailed || s == InvoiceStatusCanceled
}

// Invoice is the gateway's view of one payment request.
type Invoice struct {
	ID            string          `json:"id"`
	ExternalID    string          `json:"external_id"`
	Status        InvoiceStatus   `json:"status"`
	RawStatus     string          `json:"raw_status"`
	Amount        decimal.Decimal `json:"amount"`
	PaidAmount    decimal.Decimal `json:"paid_amount"`
	PaymentMethod string          `json:"payment_method,omitempty"`
	InvoiceURL    string          `json:"invoice_url,omitempty"`
	PaidAt        *time.Time      `json:"paid_at,omitempty"`
	ExpiresAt     *time.Time      `json:"expires_at,omitempty"`
}
