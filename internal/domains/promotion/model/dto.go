package model

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PriceSource says which rule family produced the winning discount.
type PriceSource string

const (
	PriceSourceNone      PriceSource = "none"
	PriceSourceDiscount  PriceSource = "discount"
	PriceSourceFlashSale PriceSource = "flash_sale"
)

// AppliedDiscount is one line of the quote breakdown.
type AppliedDiscount struct {
	DiscountID uuid.UUID       `json:"discount_id"`
	Name       string          `json:"name"`
	Type       DiscountType    `json:"type"`
	Amount     decimal.Decimal `json:"amount"`
}

type PriceQuote struct {
	ProductID         uuid.UUID         `json:"product_id"`
	VariantID         uuid.UUID         `json:"variant_id"`
	Quantity          int               `json:"quantity"`
	BasePrice         decimal.Decimal   `json:"base_price"`
	DiscountSum       decimal.Decimal   `json:"discount_sum"`
	FlashSaleDiscount decimal.Decimal   `json:"flash_sale_discount"`
	TotalDiscount     decimal.Decimal   `json:"total_discount"`
	FinalPrice        decimal.Decimal   `json:"final_price"`
	Source            PriceSource       `json:"source"`
	FlashSaleID       *uuid.UUID        `json:"flash_sale_id,omitempty"`
	Discounts         []AppliedDiscount `json:"discounts"`
}

// LineTotal is what Quantity units cost under the quote. Flash-sale discounts
// are per unit; ordinary discounts are already summed over the whole line.
func (q *PriceQuote) LineTotal() decimal.Decimal {
	qty := decimal.NewFromInt(int64(q.Quantity))
	var total decimal.Decimal

	switch q.Source {
	case PriceSourceFlashSale:
		total = q.FinalPrice.Mul(qty)
	case PriceSourceDiscount:
		total = q.BasePrice.Mul(qty).Sub(q.DiscountSum)
	default:
		total = q.BasePrice.Mul(qty)
	}

	if total.IsNegative() {
		return decimal.Zero
	}
	return total.Round(2)
}

type PriceQuoteRequest struct {
	Quantity int `form:"quantity"`
}

func (r PriceQuoteRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Quantity,
			validation.Required.Error("quantity is required"),
			validation.Min(1).Error("quantity must be at least 1"),
			validation.Max(10000).Error("quantity must be at most 10000"),
		),
	)
}

type ClaimFlashSaleRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

func (r ClaimFlashSaleRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ProductID, validation.Required, is.UUID),
		validation.Field(&r.Quantity,
			validation.Required.Error("quantity is required"),
			validation.Min(1).Error("quantity must be at least 1"),
		),
	)
}

// ClaimResult tells checkout how many units got the flash price.
type ClaimResult struct {
	FlashSaleID     uuid.UUID `json:"flash_sale_id"`
	ProductID       uuid.UUID `json:"product_id"`
	Requested       int       `json:"requested"`
	Applied         int       `json:"applied"`
	RegularQuantity int       `json:"regular_quantity"`
	Partial         bool      `json:"partial"`
	Message         string    `json:"message,omitempty"`
}

func NewClaimResult(flashSaleID, productID uuid.UUID, requested, applied int) *ClaimResult {
	res := &ClaimResult{
		FlashSaleID:     flashSaleID,
		ProductID:       productID,
		Requested:       requested,
		Applied:         applied,
		RegularQuantity: requested - applied,
	}

	switch {
	case applied == 0 && requested > 0:
		res.Partial = true
		res.Message = fmt.Sprintf("flash sale price is no longer available, all %d units at regular price", requested)
	case applied < requested:
		res.Partial = true
		res.Message = fmt.Sprintf("only %d units at flash price, remaining %d at regular price", applied, requested-applied)
	}

	return res
}
