package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FlashSale is a time-boxed percentage markdown with an optional unit cap
// shared across all of its products.
type FlashSale struct {
	ID                 uuid.UUID        `json:"id"`
	Name               string           `json:"name"`
	DiscountPercentage decimal.Decimal  `json:"discount_percentage"`
	MaxDiscountAmount  *decimal.Decimal `json:"max_discount_amount,omitempty"`
	MaxQuantity        *int             `json:"max_quantity,omitempty"`
	SoldQuantity       int              `json:"sold_quantity"`
	IsActive           bool             `json:"is_active"`
	StartsAt           time.Time        `json:"starts_at"`
	EndsAt             time.Time        `json:"ends_at"`
	CreatedAt          time.Time        `json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
}

// FlashSaleProduct is the pivot row carrying the per-product sold count.
type FlashSaleProduct struct {
	FlashSaleID  uuid.UUID `json:"flash_sale_id"`
	ProductID    uuid.UUID `json:"product_id"`
	SaleQuantity int       `json:"sale_quantity"`
}

func (f *FlashSale) IsActiveAt(now time.Time) bool {
	if f == nil || !f.IsActive {
		return false
	}
	if now.Before(f.StartsAt) || now.After(f.EndsAt) {
		return false
	}
	return !f.SoldOut()
}

func (f *FlashSale) SoldOut() bool {
	return f.MaxQuantity != nil && f.SoldQuantity >= *f.MaxQuantity
}

// Remaining returns the units left under the cap; bounded is false for uncapped sales.
func (f *FlashSale) Remaining() (remaining int, bounded bool) {
	if f.MaxQuantity == nil {
		return 0, false
	}
	remaining = *f.MaxQuantity - f.SoldQuantity
	if remaining < 0 {
		remaining = 0
	}
	return remaining, true
}

// Allocate is how many of the requested units the sale can still take.
func (f *FlashSale) Allocate(requested int) int {
	if requested <= 0 {
		return 0
	}
	remaining, bounded := f.Remaining()
	if bounded && remaining < requested {
		return remaining
	}
	return requested
}
