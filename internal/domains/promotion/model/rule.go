package model

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Rule is the closed set of discount evaluators, one per DiscountType.
// Amount returns the raw discount before capping and rounding.
type Rule interface {
	Amount(price decimal.Decimal, quantity int) decimal.Decimal
	discountType() DiscountType
}

// PercentageRule takes Percent of the line total.
type PercentageRule struct {
	Percent decimal.Decimal
}

func (r PercentageRule) Amount(price decimal.Decimal, quantity int) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(quantity))).Mul(r.Percent).Div(hundred)
}

func (PercentageRule) discountType() DiscountType { return DiscountTypePercentage }

// FixedAmountRule is a flat amount per order, independent of quantity.
type FixedAmountRule struct {
	Value decimal.Decimal
}

func (r FixedAmountRule) Amount(decimal.Decimal, int) decimal.Decimal {
	return r.Value
}

func (FixedAmountRule) discountType() DiscountType { return DiscountTypeFixedAmount }

// BuyXGetYRule gives Get free units for every Buy units purchased.
type BuyXGetYRule struct {
	Buy int
	Get int
}

func (r BuyXGetYRule) FreeUnits(quantity int) int {
	if r.Buy <= 0 || r.Get <= 0 || quantity < r.Buy {
		return 0
	}
	free := (quantity / r.Buy) * r.Get
	if free > quantity {
		free = quantity
	}
	return free
}

func (r BuyXGetYRule) Amount(price decimal.Decimal, quantity int) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(r.FreeUnits(quantity))))
}

func (BuyXGetYRule) discountType() DiscountType { return DiscountTypeBuyXGetY }
