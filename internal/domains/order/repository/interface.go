package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"nutrifarm-backend/internal/domains/order/model"
)

// =====================================================
// ORDER REPOSITORY INTERFACE
// =====================================================
type OrderRepository interface {
	// CreateOrder inserts the order, its items and the initial history record in
	// one transaction. The next invoice number is assigned inside that transaction
	// and written back to order together with ID and timestamps.
	CreateOrder(ctx context.Context, order *model.Order) error

	FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
	ListHistory(ctx context.Context, orderID uuid.UUID) ([]model.OrderHistory, error)

	// FindReconcileCandidates returns pending orders with a gateway invoice created
	// at or after since, at most limit rows. Orders never checked come first, then
	// the least recently checked, oldest first within each.
	FindReconcileCandidates(ctx context.Context, since time.Time, limit int) ([]*model.Order, error)

	// MarkReconcileChecked stamps orders as checked so the next run rotates to others.
	MarkReconcileChecked(ctx context.Context, orderIDs []uuid.UUID, at time.Time) error

	// ApplyPaymentTransition writes the transition and its history record in one
	// transaction. It returns false when the guard matched no row, in which case
	// no history is written.
	ApplyPaymentTransition(ctx context.Context, orderID uuid.UUID, t model.PaymentTransition, at time.Time, history *model.OrderHistory) (bool, error)
}
