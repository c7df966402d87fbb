package service

import (
	"context"

	"github.com/google/uuid"

	"nutrifarm-backend/internal/domains/order/model"
)

// =====================================================
// ORDER SERVICE INTERFACES
// =====================================================
type OrderService interface {
	// PlaceOrder prices every item, claims flash-sale stock and stores the order
	// with a freshly assigned invoice number.
	PlaceOrder(ctx context.Context, userID uuid.UUID, req model.CreateOrderRequest) (*model.CreateOrderResponse, error)

	// GetOrderHistory returns the audit trail of an order (admin).
	GetOrderHistory(ctx context.Context, orderID uuid.UUID) (*model.OrderHistoryResponse, error)
}

type ReconcileService interface {
	ReconcilePendingOrders(ctx context.Context, opts model.ReconcileOptions) (*model.ReconcileResult, error)
}
