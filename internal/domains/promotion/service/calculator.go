package service

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"nutrifarm-backend/internal/domains/promotion/model"
	"nutrifarm-backend/internal/shared/utils"
	"nutrifarm-backend/pkg/clock"
)

const moneyPlaces = 2

// DiscountCalculator evaluates discounts and flash sales against a unit price.
//
// Ordinary discounts stack. Flash sales do not stack with each other; the best one
// is compared against the stacked sum and the larger of the two is applied.
type DiscountCalculator struct {
	clock              clock.Clock
	enforceMinPurchase bool
}

func NewDiscountCalculator(clk clock.Clock, enforceMinPurchase bool) *DiscountCalculator {
	if clk == nil {
		clk = clock.New()
	}
	return &DiscountCalculator{clock: clk, enforceMinPurchase: enforceMinPurchase}
}

// CalculateDiscount returns the discount amount for quantity units at price.
// Inactive discounts yield zero. The result is capped by max_discount_amount and
// rounded to 2 decimals.
func (c *DiscountCalculator) CalculateDiscount(d *model.Discount, price decimal.Decimal, quantity int) decimal.Decimal {
	if !d.IsActiveAt(c.clock.Now()) {
		return decimal.Zero
	}
	if c.enforceMinPurchase && !d.MeetsMinPurchase(price, quantity) {
		return decimal.Zero
	}

	rule, err := d.Rule()
	if err != nil {
		return decimal.Zero
	}

	return capAndRound(rule.Amount(price, quantity), d.MaxDiscountAmount)
}

// CalculateFlashSaleDiscount returns price * discount_percentage / 100, capped and rounded.
func (c *DiscountCalculator) CalculateFlashSaleDiscount(fs *model.FlashSale, price decimal.Decimal) decimal.Decimal {
	if !fs.IsActiveAt(c.clock.Now()) {
		return decimal.Zero
	}

	amount := price.Mul(fs.DiscountPercentage).Div(decimal.NewFromInt(100))
	return capAndRound(amount, fs.MaxDiscountAmount)
}

// Evaluate aggregates every candidate rule into a quote for basePrice and quantity.
func (c *DiscountCalculator) Evaluate(basePrice decimal.Decimal, quantity int, discounts []*model.Discount, sales []*model.FlashSale) *model.PriceQuote {
	basePrice = basePrice.Round(moneyPlaces)

	quote := &model.PriceQuote{
		Quantity:          quantity,
		BasePrice:         basePrice,
		DiscountSum:       decimal.Zero,
		FlashSaleDiscount: decimal.Zero,
		Source:            model.PriceSourceNone,
		Discounts:         []model.AppliedDiscount{},
	}

	for _, d := range discounts {
		amount := c.CalculateDiscount(d, basePrice, quantity)
		if amount.IsZero() {
			continue
		}
		quote.DiscountSum = quote.DiscountSum.Add(amount)
		quote.Discounts = append(quote.Discounts, model.AppliedDiscount{
			DiscountID: d.ID,
			Name:       d.Name,
			Type:       d.Type,
			Amount:     amount,
		})
	}

	var bestSale uuid.UUID
	for _, fs := range sales {
		amount := c.CalculateFlashSaleDiscount(fs, basePrice)
		if amount.GreaterThan(quote.FlashSaleDiscount) {
			quote.FlashSaleDiscount = amount
			bestSale = fs.ID
		}
	}

	switch {
	case quote.FlashSaleDiscount.GreaterThan(quote.DiscountSum):
		quote.TotalDiscount = quote.FlashSaleDiscount
		quote.Source = model.PriceSourceFlashSale
		quote.FlashSaleID = &bestSale
	case quote.DiscountSum.IsPositive():
		quote.TotalDiscount = quote.DiscountSum
		quote.Source = model.PriceSourceDiscount
	default:
		quote.TotalDiscount = decimal.Zero
	}

	quote.FinalPrice = utils.MaxDecimal(basePrice.Sub(quote.TotalDiscount), decimal.Zero).Round(moneyPlaces)

	return quote
}

func capAndRound(amount decimal.Decimal, maxAmount *decimal.Decimal) decimal.Decimal {
	if maxAmount != nil {
		amount = utils.MinDecimal(amount, *maxAmount)
	}
	return amount.Round(moneyPlaces)
}
