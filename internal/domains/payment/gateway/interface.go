package gateway

import (
	"context"

	"nutrifarm-backend/internal/domains/payment/model"
)

// InvoiceGateway looks up invoices at the payment provider.
type InvoiceGateway interface {
	// GetInvoice returns (nil, nil) when the provider has no such invoice.
	GetInvoice(ctx context.Context, invoiceID string) (*model.Invoice, error)
}
