package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"nutrifarm-backend/internal/domains/promotion/model"
)

// PromotionRepository reads the discounts and flash sales attached to a product.
type PromotionRepository interface {
	ListDiscountsForProduct(ctx context.Context, productID uuid.UUID) ([]*model.Discount, error)
	// ListFlashSalesForProduct returns enabled sales whose window has not ended at now.
	ListFlashSalesForProduct(ctx context.Context, productID uuid.UUID, now time.Time) ([]*model.FlashSale, error)
}

// LedgerRepository runs counter updates inside one locked transaction.
type LedgerRepository interface {
	RunInTx(ctx context.Context, fn func(tx LedgerTx) error) error
}

// LedgerTx is the set of row-locking operations available inside RunInTx.
type LedgerTx interface {
	// GetFlashSaleForUpdate reads the sale holding an exclusive row lock until commit.
	GetFlashSaleForUpdate(ctx context.Context, id uuid.UUID) (*model.FlashSale, error)
	IncrementProductSaleQuantity(ctx context.Context, flashSaleID, productID uuid.UUID, quantity int) error
	IncrementSoldQuantity(ctx context.Context, flashSaleID uuid.UUID, quantity int) error
	// The decrements never take a counter below zero.
	DecrementProductSaleQuantity(ctx context.Context, flashSaleID, productID uuid.UUID, quantity int) error
	DecrementSoldQuantity(ctx context.Context, flashSaleID uuid.UUID, quantity int) error

	GetDiscountForUpdate(ctx context.Context, id uuid.UUID) (*model.Discount, error)
	IncrementDiscountUsage(ctx context.Context, id uuid.UUID) error
}
