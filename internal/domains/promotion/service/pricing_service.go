package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	productModel "nutrifarm-backend/internal/domains/product/model"
	productRepo "nutrifarm-backend/internal/domains/product/repository"
	"nutrifarm-backend/internal/domains/promotion/model"
	"nutrifarm-backend/internal/domains/promotion/repository"
	"nutrifarm-backend/pkg/clock"
	"nutrifarm-backend/pkg/metrics"
)

type pricingService struct {
	products   productRepo.ProductRepository
	promotions repository.PromotionRepository
	calculator *DiscountCalculator
	clock      clock.Clock
	metrics    *metrics.Metrics
}

func NewPricingService(
	products productRepo.ProductRepository,
	promotions repository.PromotionRepository,
	calculator *DiscountCalculator,
	clk clock.Clock,
	m *metrics.Metrics,
) PricingService {
	if clk == nil {
		clk = clock.New()
	}
	return &pricingService{
		products:   products,
		promotions: promotions,
		calculator: calculator,
		clock:      clk,
		metrics:    m,
	}
}

func (s *pricingService) GetFinalPrice(ctx context.Context, productID uuid.UUID, quantity int) (*model.PriceQuote, error) {
	return s.quote(ctx, productID, quantity, true)
}

func (s *pricingService) GetRegularPrice(ctx context.Context, productID uuid.UUID, quantity int) (*model.PriceQuote, error) {
	return s.quote(ctx, productID, quantity, false)
}

func (s *pricingService) quote(ctx context.Context, productID uuid.UUID, quantity int, withFlashSales bool) (*model.PriceQuote, error) {
	if quantity < 1 {
		quantity = 1
	}

	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, productModel.ErrProductNotFound) {
			return nil, model.ErrNotFound(model.ErrCodeProductNotFound, "product not found", err)
		}
		return nil, fmt.Errorf("load product: %w", err)
	}

	variant, err := product.PricingVariant()
	if err != nil {
		return nil, model.NewAppError(model.ErrCodeProductNotPriceable, "product has no purchasable variant", http.StatusUnprocessableEntity, err)
	}

	discounts, err := s.promotions.ListDiscountsForProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("load discounts: %w", err)
	}

	var sales []*model.FlashSale
	if withFlashSales {
		sales, err = s.promotions.ListFlashSalesForProduct(ctx, productID, s.clock.Now())
		if err != nil {
			return nil, fmt.Errorf("load flash sales: %w", err)
		}
	}

	quote := s.calculator.Evaluate(variant.EffectivePrice(), quantity, discounts, sales)
	quote.ProductID = product.ID
	quote.VariantID = variant.ID

	s.metrics.ObservePriceQuote(string(quote.Source))

	return quote, nil
}
