package model

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	promoModel "nutrifarm-backend/internal/domains/promotion/model"
)

// =====================================================
// CHECKOUT
// =====================================================
type CreateOrderItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

func (i CreateOrderItem) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.ProductID, validation.Required, is.UUID),
		validation.Field(&i.Quantity,
			validation.Required.Error("quantity is required"),
			validation.Min(1).Error("quantity must be at least 1"),
			validation.Max(10000).Error("quantity must be at most 10000"),
		),
	)
}

type CreateOrderRequest struct {
	Items        []CreateOrderItem `json:"items"`
	ShippingCost decimal.Decimal   `json:"shipping_cost"`
}

func (r CreateOrderRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Items, validation.Required.Error("at least one item is required"), validation.Length(1, 50)),
		validation.Field(&r.ShippingCost, validation.By(func(value interface{}) error {
			if value.(decimal.Decimal).IsNegative() {
				return validation.NewError("validation_shipping_negative", "shipping cost must not be negative")
			}
			return nil
		})),
	)
}

type CreateOrderResponse struct {
	Order  *Order                    `json:"order"`
	Claims []*promoModel.ClaimResult `json:"flash_sale_claims,omitempty"`
}

// =====================================================
// ADMIN RECONCILIATION
// =====================================================
type ReconcileRequest struct {
	Days      *int `json:"days"`
	BatchSize int  `json:"batch_size"`
	// Wait runs the batch inside the request instead of enqueueing it.
	Wait bool `json:"wait"`
}

func (r ReconcileRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Days, validation.NilOrNotEmpty, validation.Min(1), validation.Max(90)),
		validation.Field(&r.BatchSize, validation.Min(0), validation.Max(MaxBatchSize)),
	)
}

// LookbackDays returns the requested window or the default.
func (r ReconcileRequest) LookbackDays() int {
	if r.Days == nil {
		return DefaultLookbackDays
	}
	return *r.Days
}

type ReconcileEnqueued struct {
	TaskID string `json:"task_id"`
	Queue  string `json:"queue"`
	Days   int    `json:"days"`
}

type OrderHistoryResponse struct {
	OrderID   uuid.UUID      `json:"order_id"`
	InvoiceNo string         `json:"invoice_no"`
	History   []OrderHistory `json:"history"`
}
