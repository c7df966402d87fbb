package service

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"nutrifarm-backend/internal/domains/order/model"
	"nutrifarm-backend/internal/domains/order/repository"
	promoModel "nutrifarm-backend/internal/domains/promotion/model"
	promo "nutrifarm-backend/internal/domains/promotion/service"
	"nutrifarm-backend/internal/shared/utils"
	"nutrifarm-backend/pkg/logger"
)

const releaseTimeout = 10 * time.Second

type orderService struct {
	orders  repository.OrderRepository
	pricing promo.PricingService
	ledger  promo.LedgerService
}

func NewOrderService(
	orders repository.OrderRepository,
	pricing promo.PricingService,
	ledger promo.LedgerService,
) OrderService {
	return &orderService{
		orders:  orders,
		pricing: pricing,
		ledger:  ledger,
	}
}

// =====================================================
// PLACE ORDER
// =====================================================

// claimedUnits are flash-sale units taken from the ledger for an order that
// is not stored yet.
type claimedUnits struct {
	flashSaleID uuid.UUID
	productID   uuid.UUID
	quantity    int
}

func (s *orderService) PlaceOrder(ctx context.Context, userID uuid.UUID, req model.CreateOrderRequest) (resp *model.CreateOrderResponse, err error) {
	if err := req.Validate(); err != nil {
		return nil, model.NewOrderError(model.ErrCodeInvalidOrder, err.Error(), http.StatusBadRequest, err)
	}

	order := &model.Order{
		UserID:        userID,
		Status:        model.StatusPending,
		PaymentStatus: model.PaymentPending,
		Subtotal:      decimal.Zero,
		DiscountTotal: decimal.Zero,
		ShippingCost:  req.ShippingCost.Round(2),
	}
	resp = &model.CreateOrderResponse{Order: order}

	var claimed []claimedUnits
	defer func() {
		if err != nil {
			s.releaseClaims(claimed)
		}
	}()

	var discountsUsed []uuid.UUID
	for _, item := range req.Items {
		productID := uuid.MustParse(item.ProductID)

		quote, err := s.pricing.GetFinalPrice(ctx, productID, item.Quantity)
		if err != nil {
			return nil, err
		}

		priced, err := s.priceLines(ctx, quote)
		if priced != nil && priced.claimed.quantity > 0 {
			claimed = append(claimed, priced.claimed)
		}
		if err != nil {
			return nil, err
		}
		if priced.claim != nil {
			resp.Claims = append(resp.Claims, priced.claim)
		}
		discountsUsed = append(discountsUsed, priced.discounts...)

		order.Subtotal = order.Subtotal.Add(quote.BasePrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
		order.Items = append(order.Items, priced.lines...)
	}

	charged := decimal.Zero
	for _, line := range order.Items {
		charged = charged.Add(line.Total)
	}
	order.Subtotal = order.Subtotal.Round(2)
	order.DiscountTotal = utils.MaxDecimal(order.Subtotal.Sub(charged), decimal.Zero).Round(2)
	order.Total = charged.Add(order.ShippingCost).Round(2)

	if err := s.orders.CreateOrder(ctx, order); err != nil {
		logger.ErrorWithFields("failed to create order", err, map[string]interface{}{
			"user_id": userID.String(),
			"items":   len(order.Items),
		})
		if errors.Is(err, model.ErrEmptyOrder) {
			return nil, model.NewOrderError(model.ErrCodeInvalidOrder, "order has no items", http.StatusBadRequest, err)
		}
		return nil, err
	}

	for _, id := range discountsUsed {
		recorded, err := s.ledger.RecordDiscountUsage(ctx, id)
		if err != nil {
			logger.ErrorWithFields("failed to record discount usage", err, map[string]interface{}{
				"order_id":    order.ID.String(),
				"discount_id": id.String(),
			})
			continue
		}
		if !recorded {
			logger.Warn("discount usage limit reached after pricing", map[string]interface{}{
				"order_id":    order.ID.String(),
				"discount_id": id.String(),
			})
		}
	}

	logger.Info("order created", map[string]interface{}{
		"order_id":   order.ID.String(),
		"invoice_no": order.InvoiceNo,
		"total":      order.Total.String(),
	})

	return resp, nil
}

type pricedItem struct {
	lines     []model.OrderProduct
	claim     *promoModel.ClaimResult
	claimed   claimedUnits
	discounts []uuid.UUID
}

// priceLines turns a quote into order lines. When the flash sale wins, its
// units are claimed first and any shortfall is re-quoted without flash sales.
// The returned item carries claimed units even when err is set.
func (s *orderService) priceLines(ctx context.Context, quote *promoModel.PriceQuote) (*pricedItem, error) {
	if quote.Source != promoModel.PriceSourceFlashSale || quote.FlashSaleID == nil {
		return &pricedItem{
			lines:     []model.OrderProduct{model.NewOrderLine(quote.ProductID, quote.VariantID, quote.Quantity, quote.LineTotal())},
			discounts: appliedDiscounts(quote),
		}, nil
	}

	flashSaleID := *quote.FlashSaleID
	applied, err := s.ledger.RecordSale(ctx, flashSaleID, quote.ProductID, quote.Quantity)
	if err != nil {
		return nil, err
	}

	item := &pricedItem{
		claim:   promoModel.NewClaimResult(flashSaleID, quote.ProductID, quote.Quantity, applied),
		claimed: claimedUnits{flashSaleID: flashSaleID, productID: quote.ProductID, quantity: applied},
	}

	if applied > 0 {
		flashTotal := quote.FinalPrice.Mul(decimal.NewFromInt(int64(applied)))
		flash := model.NewOrderLine(quote.ProductID, quote.VariantID, applied, flashTotal)
		flash.FlashSaleID = &flashSaleID
		item.lines = append(item.lines, flash)
	}

	if rest := quote.Quantity - applied; rest > 0 {
		regular, err := s.pricing.GetRegularPrice(ctx, quote.ProductID, rest)
		if err != nil {
			return item, err
		}
		item.lines = append(item.lines, model.NewOrderLine(quote.ProductID, quote.VariantID, rest, regular.LineTotal()))
		item.discounts = appliedDiscounts(regular)
	}

	return item, nil
}

func appliedDiscounts(quote *promoModel.PriceQuote) []uuid.UUID {
	if quote.Source != promoModel.PriceSourceDiscount {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(quote.Discounts))
	for _, d := range quote.Discounts {
		ids = append(ids, d.DiscountID)
	}
	return ids
}

// releaseClaims runs on a detached context: the request may already be gone.
func (s *orderService) releaseClaims(claimed []claimedUnits) {
	ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
	defer cancel()

	for _, c := range claimed {
		if err := s.ledger.ReleaseSale(ctx, c.flashSaleID, c.productID, c.quantity); err != nil {
			logger.ErrorWithFields("failed to release flash sale units", err, map[string]interface{}{
				"flash_sale_id": c.flashSaleID.String(),
				"product_id":    c.productID.String(),
				"quantity":      c.quantity,
			})
		}
	}
}

// =====================================================
// HISTORY
// =====================================================
func (s *orderService) GetOrderHistory(ctx context.Context, orderID uuid.UUID) (*model.OrderHistoryResponse, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, model.ErrOrderNotFound) {
			return nil, model.NewOrderError(model.ErrCodeOrderNotFound, "order not found", http.StatusNotFound, err)
		}
		return nil, err
	}

	history, err := s.orders.ListHistory(ctx, orderID)
	if err != nil {
		return nil, err
	}

	return &model.OrderHistoryResponse{
		OrderID:   order.ID,
		InvoiceNo: order.InvoiceNo,
		History:   history,
	}, nil
}
