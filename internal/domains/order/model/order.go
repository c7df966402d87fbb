package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =====================================================
// STATUS CONSTANTS
// =====================================================
type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusProcessing OrderStatus = "processing"
	StatusCompleted  OrderStatus = "completed"
	StatusCancelled  OrderStatus = "cancelled"
	StatusExpired    OrderStatus = "expired"
)

// IsTerminal reports whether the order can no longer change state.
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusExpired:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
	PaymentExpired PaymentStatus = "expired"
)

// =====================================================
// ENTITIES
// =====================================================
type Order struct {
	ID                uuid.UUID       `json:"id"`
	InvoiceNo         string          `json:"invoice_no"`
	UserID            uuid.UUID       `json:"user_id"`
	Status            OrderStatus     `json:"status"`
	PaymentStatus     PaymentStatus   `json:"payment_status"`
	ExternalID        string          `json:"external_id"`
	GatewayInvoiceID  *string         `json:"gateway_invoice_id,omitempty"`
	GatewayInvoiceURL *string         `json:"gateway_invoice_url,omitempty"`
	PaidAt            *time.Time      `json:"paid_at,omitempty"`
	Subtotal          decimal.Decimal `json:"subtotal"`
	DiscountTotal     decimal.Decimal `json:"discount_total"`
	ShippingCost      decimal.Decimal `json:"shipping_cost"`
	Total             decimal.Decimal `json:"total"`
	Items             []OrderProduct  `json:"items,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// HasGatewayInvoice reports whether the order was handed to the payment gateway.
func (o *Order) HasGatewayInvoice() bool {
	return o.GatewayInvoiceID != nil && *o.GatewayInvoiceID != ""
}

// OrderProduct is a line item. Total is what was charged for the line; Price
// is the unit price derived from it and may be rounded.
type OrderProduct struct {
	ID          uuid.UUID       `json:"id"`
	OrderID     uuid.UUID       `json:"order_id"`
	ProductID   uuid.UUID       `json:"product_id"`
	VariantID   uuid.UUID       `json:"variant_id"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Total       decimal.Decimal `json:"total"`
	FlashSaleID *uuid.UUID      `json:"flash_sale_id,omitempty"`
}

// NewOrderLine prices quantity units at a line total.
func NewOrderLine(productID, variantID uuid.UUID, quantity int, total decimal.Decimal) OrderProduct {
	line := OrderProduct{
		ProductID: productID,
		VariantID: variantID,
		Quantity:  quantity,
		Total:     total.Round(2),
	}
	if quantity > 0 {
		line.Price = line.Total.Div(decimal.NewFromInt(int64(quantity))).Round(2)
	}
	return line
}

// OrderHistory is an append-only audit record of a state transition.
type OrderHistory struct {
	ID        uuid.UUID              `json:"id"`
	OrderID   uuid.UUID              `json:"order_id"`
	Status    string                 `json:"status"`
	Note      string                 `json:"note"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

// =====================================================
// INVOICE NUMBERS
// =====================================================
const invoicePrefix = "NUT-"

// FormatInvoiceNumber renders a sequence value as NUT-000042.
func FormatInvoiceNumber(seq int64) string {
	return fmt.Sprintf("%s%06d", invoicePrefix, seq)
}

// ParseInvoiceNumber is the inverse of FormatInvoiceNumber.
func ParseInvoiceNumber(invoiceNo string) (int64, error) {
	if !strings.HasPrefix(invoiceNo, invoicePrefix) {
		return 0, ErrInvalidInvoiceNumber
	}
	seq, err := strconv.ParseInt(strings.TrimPrefix(invoiceNo, invoicePrefix), 10, 64)
	if err != nil || seq <= 0 {
		return 0, ErrInvalidInvoiceNumber
	}
	return seq, nil
}
