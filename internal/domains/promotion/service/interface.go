package service

import (
	"context"

	"github.com/google/uuid"

	"nutrifarm-backend/internal/domains/promotion/model"
)

type PricingService interface {
	// GetFinalPrice quotes the unit price of a product for the given quantity.
	GetFinalPrice(ctx context.Context, productID uuid.UUID, quantity int) (*model.PriceQuote, error)
	// GetRegularPrice quotes with ordinary discounts only, for units that miss the flash sale.
	GetRegularPrice(ctx context.Context, productID uuid.UUID, quantity int) (*model.PriceQuote, error)
}

type LedgerService interface {
	// RecordSale reserves up to quantity units of the flash sale for productID and
	// returns how many were applied. Zero means the flash price is unavailable.
	RecordSale(ctx context.Context, flashSaleID, productID uuid.UUID, quantity int) (int, error)
	// ReleaseSale gives back units taken by RecordSale when the order behind them was not stored.
	ReleaseSale(ctx context.Context, flashSaleID, productID uuid.UUID, quantity int) error
	ClaimFlashSale(ctx context.Context, flashSaleID uuid.UUID, req model.ClaimFlashSaleRequest) (*model.ClaimResult, error)
	// RecordDiscountUsage bumps used_count unless the usage limit is already reached.
	RecordDiscountUsage(ctx context.Context, discountID uuid.UUID) (bool, error)
}
