package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Product struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	IsActive  bool      `json:"is_active"`
	Variants  []Variant `json:"variants,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Variant is a purchasable SKU (size, flavour) with its own price and stock.
type Variant struct {
	ID             uuid.UUID       `json:"id"`
	ProductID      uuid.UUID       `json:"product_id"`
	Name           string          `json:"name"`
	SKU            string          `json:"sku"`
	BasePrice      decimal.Decimal `json:"base_price"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	StockQuantity  int             `json:"stock_quantity"`
	IsPrimary      bool            `json:"is_primary"`
}

// EffectivePrice is base_price minus the variant's own markdown, never negative.
func (v Variant) EffectivePrice() decimal.Decimal {
	price := v.BasePrice.Sub(v.DiscountAmount)
	if price.IsNegative() {
		return decimal.Zero
	}
	return price.Round(2)
}

// PricingVariant picks the variant that defines the product's price:
// the primary one, otherwise the cheapest by effective price.
func (p *Product) PricingVariant() (*Variant, error) {
	if len(p.Variants) == 0 {
		return nil, ErrProductHasNoVariant
	}

	var cheapest *Variant
	for i := range p.Variants {
		v := &p.Variants[i]
		if v.IsPrimary {
			return v, nil
		}
		if cheapest == nil || v.EffectivePrice().LessThan(cheapest.EffectivePrice()) {
			cheapest = v
		}
	}

	return cheapest, nil
}

// BasePrice is the unit price every discount is evaluated against.
func (p *Product) BasePrice() (decimal.Decimal, error) {
	v, err := p.PricingVariant()
	if err != nil {
		return decimal.Zero, err
	}
	return v.EffectivePrice(), nil
}

// Variant looks up one of the product's variants by id.
func (p *Product) Variant(id uuid.UUID) (*Variant, bool) {
	for i := range p.Variants {
		if p.Variants[i].ID == id {
			return &p.Variants[i], true
		}
	}
	return nil, false
}
