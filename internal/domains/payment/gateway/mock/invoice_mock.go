package mock

import (
	"context"
	"sync"

	"nutrifarm-backend/internal/domains/payment/gateway"
	"nutrifarm-backend/internal/domains/payment/model"
)

// InvoiceGateway is an in-memory gateway for local development and tests.
// Unknown ids behave like a provider 404.
type InvoiceGateway struct {
	mu       sync.RWMutex
	invoices map[string]*model.Invoice
	errors   map[string]error
	calls    map[string]int
}

func NewInvoiceGateway() *InvoiceGateway {
	return &InvoiceGateway{
		invoices: map[string]*model.Invoice{},
		errors:   map[string]error{},
		calls:    map[string]int{},
	}
}

var _ gateway.InvoiceGateway = (*InvoiceGateway)(nil)

// SetStatus registers an invoice with the given raw provider status.
func (g *InvoiceGateway) SetStatus(invoiceID, rawStatus string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.invoices[invoiceID] = &model.Invoice{
		ID:        invoiceID,
		Status:    model.NormalizeStatus(rawStatus),
		RawStatus: rawStatus,
	}
	delete(g.errors, invoiceID)
}

// FailWith makes lookups of invoiceID return err.
func (g *InvoiceGateway) FailWith(invoiceID string, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.errors[invoiceID] = err
}

func (g *InvoiceGateway) Calls(invoiceID string) int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.calls[invoiceID]
}

func (g *InvoiceGateway) GetInvoice(ctx context.Context, invoiceID string) (*model.Invoice, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls[invoiceID]++

	if err, ok := g.errors[invoiceID]; ok {
		return nil, err
	}
	inv, ok := g.invoices[invoiceID]
	if !ok {
		return nil, nil
	}
	cp := *inv
	return &cp, nil
}
