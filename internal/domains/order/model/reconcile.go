package model

import (
	"time"

	paymentModel "nutrifarm-backend/internal/domains/payment/model"
)

const (
	DefaultLookbackDays = 2
	DefaultBatchSize    = 200
	MaxBatchSize        = 1000
)

// ReconcileOptions bounds a single reconciliation run.
type ReconcileOptions struct {
	LookbackDays int
	BatchSize    int
	Trigger      string
}

// Normalize floors the lookback at one day and bounds the batch size.
func (o ReconcileOptions) Normalize() ReconcileOptions {
	if o.LookbackDays < 1 {
		o.LookbackDays = 1
	}
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.BatchSize > MaxBatchSize {
		o.BatchSize = MaxBatchSize
	}
	return o
}

// Since returns the lower created_at bound for candidates.
func (o ReconcileOptions) Since(now time.Time) time.Time {
	return now.AddDate(0, 0, -o.LookbackDays)
}

type ReconcileResult struct {
	Trigger    string    `json:"trigger"`
	Skipped    bool      `json:"skipped"`
	Candidates int       `json:"candidates"`
	Paid       int       `json:"paid"`
	Expired    int       `json:"expired"`
	Failed     int       `json:"failed"`
	Unchanged  int       `json:"unchanged"`
	NotFound   int       `json:"not_found"`
	Errors     int       `json:"errors"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// PaymentTransition is the write reconciliation performs for one order.
type PaymentTransition struct {
	PaymentStatus PaymentStatus
	// OrderStatus is nil when the fulfilment status stays as is.
	OrderStatus   *OrderStatus
	GatewayStatus string
	Note          string
}

// ResolveTransition decides what a gateway invoice status means for an order
// whose local payment status is current. ok is false when nothing changes.
// A paid order is never downgraded.
func ResolveTransition(current PaymentStatus, invoice *paymentModel.Invoice) (t PaymentTransition, ok bool) {
	if invoice == nil {
		return t, false
	}

	switch {
	case invoice.Status == paymentModel.InvoiceStatusPaid:
		if current == PaymentPaid {
			return t, false
		}
		completed := StatusCompleted
		return PaymentTransition{
			PaymentStatus: PaymentPaid,
			OrderStatus:   &completed,
			GatewayStatus: invoice.RawStatus,
			Note:          "payment confirmed by reconciliation",
		}, true

	case invoice.Status.IsTerminalFailure():
		if current != PaymentPending {
			return t, false
		}
		if invoice.Status == paymentModel.InvoiceStatusExpired {
			expired := StatusExpired
			return PaymentTransition{
				PaymentStatus: PaymentExpired,
				OrderStatus:   &expired,
				GatewayStatus: invoice.RawStatus,
				Note:          "invoice expired at gateway",
			}, true
		}
		return PaymentTransition{
			PaymentStatus: PaymentFailed,
			GatewayStatus: invoice.RawStatus,
			Note:          "payment " + string(invoice.Status) + " at gateway",
		}, true
	}

	return t, false
}

// History builds the audit record written together with the transition.
func (t PaymentTransition) History(order *Order, invoiceID string) *OrderHistory {
	return &OrderHistory{
		OrderID: order.ID,
		Status:  string(t.PaymentStatus),
		Note:    t.Note,
		Metadata: map[string]interface{}{
			"source":         "reconciliation",
			"gateway_status": t.GatewayStatus,
			"invoice_id":     invoiceID,
		},
	}
}
