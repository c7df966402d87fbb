package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nutrifarm-backend/internal/domains/promotion/model"
	"nutrifarm-backend/pkg/clock"
)

var testNow = time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func intPtr(i int) *int { return &i }

func percentDiscount(value string) *model.Discount {
	return &model.Discount{ID: uuid.New(), Name: value + "% off", Type: model.DiscountTypePercentage, Value: dec(value), IsActive: true}
}

func flashSale(percent string) *model.FlashSale {
	return &model.FlashSale{
		ID:                 uuid.New(),
		DiscountPercentage: dec(percent),
		IsActive:           true,
		StartsAt:           testNow.Add(-time.Hour),
		EndsAt:             testNow.Add(time.Hour),
	}
}

func newCalculator(enforceMin bool) *DiscountCalculator {
	return NewDiscountCalculator(clock.NewFakeClock(testNow), enforceMin)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Truef(t, dec(want).Equal(got), "want %s, got %s", want, got)
}

func TestCalculateDiscount_Percentage(t *testing.T) {
	calc := newCalculator(false)

	assertDecimal(t, "3000", calc.CalculateDiscount(percentDiscount("10"), dec("10000"), 3))
	// 3 * 333.33 * 12.5% = 124.99875 -> 125.00
	assertDecimal(t, "125", calc.CalculateDiscount(percentDiscount("12.5"), dec("333.33"), 3))

	capped := percentDiscount("50")
	capped.MaxDiscountAmount = decPtr("2000")
	assertDecimal(t, "2000", calc.CalculateDiscount(capped, dec("10000"), 1))
}

func TestCalculateDiscount_FixedAmountIsPerOrder(t *testing.T) {
	calc := newCalculator(false)
	d := &model.Discount{Type: model.DiscountTypeFixedAmount, Value: dec("1500"), IsActive: true}

	assertDecimal(t, "1500", calc.CalculateDiscount(d, dec("10000"), 1))
	assertDecimal(t, "1500", calc.CalculateDiscount(d, dec("10000"), 10))
}

func TestCalculateDiscount_BuyXGetY(t *testing.T) {
	calc := newCalculator(false)
	d := &model.Discount{Type: model.DiscountTypeBuyXGetY, MinQuantity: 2, GetQuantity: 1, IsActive: true}

	assertDecimal(t, "20000", calc.CalculateDiscount(d, dec("10000"), 5))
	assertDecimal(t, "0", calc.CalculateDiscount(d, dec("10000"), 1))

	d.MaxDiscountAmount = decPtr("15000")
	assertDecimal(t, "15000", calc.CalculateDiscount(d, dec("10000"), 5))
}

func TestCalculateDiscount_InactiveIsZero(t *testing.T) {
	calc := newCalculator(false)

	off := percentDiscount("10")
	off.IsActive = false

	expired := percentDiscount("10")
	ended := testNow.Add(-time.Minute)
	expired.EndsAt = &ended

	exhausted := percentDiscount("10")
	exhausted.UsageLimit = intPtr(5)
	exhausted.UsedCount = 5

	for _, d := range []*model.Discount{off, expired, exhausted} {
		assertDecimal(t, "0", calc.CalculateDiscount(d, dec("10000"), 1))
	}
}

func TestCalculateDiscount_MinPurchasePolicy(t *testing.T) {
	d := percentDiscount("10")
	d.MinPurchaseAmount = decPtr("50000")

	assertDecimal(t, "1000", newCalculator(false).CalculateDiscount(d, dec("10000"), 1))
	assertDecimal(t, "0", newCalculator(true).CalculateDiscount(d, dec("10000"), 1))
	assertDecimal(t, "5000", newCalculator(true).CalculateDiscount(d, dec("10000"), 5))
}

func TestCalculateFlashSaleDiscount(t *testing.T) {
	calc := newCalculator(false)

	assertDecimal(t, "5000", calc.CalculateFlashSaleDiscount(flashSale("50"), dec("10000")))

	capped := flashSale("50")
	capped.MaxDiscountAmount = decPtr("3000")
	assertDecimal(t, "3000", calc.CalculateFlashSaleDiscount(capped, dec("10000")))

	soldOut := flashSale("50")
	soldOut.MaxQuantity = intPtr(10)
	soldOut.SoldQuantity = 10
	assertDecimal(t, "0", calc.CalculateFlashSaleDiscount(soldOut, dec("10000")))

	future := flashSale("50")
	future.StartsAt = testNow.Add(time.Minute)
	assertDecimal(t, "0", calc.CalculateFlashSaleDiscount(future, dec("10000")))
}

func TestEvaluate_FlashSaleWinsWhenLarger(t *testing.T) {
	calc := newCalculator(false)
	sale := flashSale("50")

	quote := calc.Evaluate(dec("10000"), 1, []*model.Discount{percentDiscount("10")}, []*model.FlashSale{sale})

	assertDecimal(t, "1000", quote.DiscountSum)
	assertDecimal(t, "5000", quote.FlashSaleDiscount)
	assertDecimal(t, "5000", quote.TotalDiscount)
	assertDecimal(t, "5000", quote.FinalPrice)
	assert.Equal(t, model.PriceSourceFlashSale, quote.Source)
	require.NotNil(t, quote.FlashSaleID)
	assert.Equal(t, sale.ID, *quote.FlashSaleID)
}

func TestEvaluate_StackedDiscountsBeatFlashSale(t *testing.T) {
	calc := newCalculator(false)

	quote := calc.Evaluate(dec("10000"), 1,
		[]*model.Discount{percentDiscount("20"), percentDiscount("15")},
		[]*model.FlashSale{flashSale("30")},
	)

	assertDecimal(t, "3500", quote.DiscountSum)
	assertDecimal(t, "6500", quote.FinalPrice)
	assert.Equal(t, model.PriceSourceDiscount, quote.Source)
	assert.Nil(t, quote.FlashSaleID)
	assert.Len(t, quote.Discounts, 2)
}

func TestEvaluate_FlashSalesDoNotStack(t *testing.T) {
	calc := newCalculator(false)
	best := flashSale("40")

	quote := calc.Evaluate(dec("10000"), 1, nil, []*model.FlashSale{flashSale("10"), best, flashSale("25")})

	assertDecimal(t, "4000", quote.TotalDiscount)
	assert.Equal(t, best.ID, *quote.FlashSaleID)
}

func TestEvaluate_TieKeepsRegularDiscounts(t *testing.T) {
	calc := newCalculator(false)

	quote := calc.Evaluate(dec("10000"), 1, []*model.Discount{percentDiscount("30")}, []*model.FlashSale{flashSale("30")})

	assert.Equal(t, model.PriceSourceDiscount, quote.Source)
	assertDecimal(t, "7000", quote.FinalPrice)
}

func TestEvaluate_FinalPriceClampedAtZero(t *testing.T) {
	calc := newCalculator(false)
	fixed := &model.Discount{Type: model.DiscountTypeFixedAmount, Value: dec("25000"), IsActive: true}

	quote := calc.Evaluate(dec("10000"), 1, []*model.Discount{fixed}, nil)

	assertDecimal(t, "0", quote.FinalPrice)
	assertDecimal(t, "25000", quote.TotalDiscount)
}

func TestEvaluate_NoRules(t *testing.T) {
	quote := newCalculator(false).Evaluate(dec("1234.567"), 2, nil, nil)

	assert.Equal(t, model.PriceSourceNone, quote.Source)
	assertDecimal(t, "1234.57", quote.FinalPrice)
	assertDecimal(t, "0", quote.TotalDiscount)
	assert.Empty(t, quote.Discounts)
}
