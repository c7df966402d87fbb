package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	DiscountTypePercentage  DiscountType = "percentage"
	DiscountTypeFixedAmount DiscountType = "fixed_amount"
	DiscountTypeBuyXGetY    DiscountType = "buy_x_get_y"
)

// ParseDiscountType accepts the stored type string, case-insensitively.
func ParseDiscountType(raw string) (DiscountType, error) {
	switch t := DiscountType(strings.ToLower(strings.TrimSpace(raw))); t {
	case DiscountTypePercentage, DiscountTypeFixedAmount, DiscountTypeBuyXGetY:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidDiscountType, raw)
	}
}

// Discount is an ordinary, stackable product discount.
type Discount struct {
	ID                uuid.UUID        `json:"id"`
	Name              string           `json:"name"`
	Type              DiscountType     `json:"type"`
	Value             decimal.Decimal  `json:"value"`
	MinQuantity       int              `json:"min_quantity"`
	GetQuantity       int              `json:"get_quantity"`
	MinPurchaseAmount *decimal.Decimal `json:"min_purchase_amount,omitempty"`
	MaxDiscountAmount *decimal.Decimal `json:"max_discount_amount,omitempty"`
	UsageLimit        *int             `json:"usage_limit,omitempty"`
	UsedCount         int              `json:"used_count"`
	IsActive          bool             `json:"is_active"`
	StartsAt          *time.Time       `json:"starts_at,omitempty"`
	EndsAt            *time.Time       `json:"ends_at,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

// IsActiveAt reports whether the discount applies at now.
// Both window bounds are optional and inclusive.
func (d *Discount) IsActiveAt(now time.Time) bool {
	if d == nil || !d.IsActive {
		return false
	}
	if d.StartsAt != nil && now.Before(*d.StartsAt) {
		return false
	}
	if d.EndsAt != nil && now.After(*d.EndsAt) {
		return false
	}
	return !d.UsageExhausted()
}

func (d *Discount) UsageExhausted() bool {
	return d.UsageLimit != nil && d.UsedCount >= *d.UsageLimit
}

// Rule returns the evaluation rule for the discount's type.
func (d *Discount) Rule() (Rule, error) {
	switch d.Type {
	case DiscountTypePercentage:
		return PercentageRule{Percent: d.Value}, nil
	case DiscountTypeFixedAmount:
		return FixedAmountRule{Value: d.Value}, nil
	case DiscountTypeBuyXGetY:
		return BuyXGetYRule{Buy: d.MinQuantity, Get: d.GetQuantity}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidDiscountType, d.Type)
	}
}

// MeetsMinPurchase reports whether price*quantity reaches min_purchase_amount.
func (d *Discount) MeetsMinPurchase(price decimal.Decimal, quantity int) bool {
	if d.MinPurchaseAmount == nil {
		return true
	}
	return price.Mul(decimal.NewFromInt(int64(quantity))).GreaterThanOrEqual(*d.MinPurchaseAmount)
}
