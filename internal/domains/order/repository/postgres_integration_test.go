//go:build integration

package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nutrifarm-backend/internal/domains/order/model"
	"nutrifarm-backend/internal/domains/order/repository"
	"nutrifarm-backend/internal/testutil/pgtest"
)

func newOrder(productID, variantID uuid.UUID, invoiceID string) *model.Order {
	items := []model.OrderProduct{
		model.NewOrderLine(productID, variantID, 3, decimal.RequireFromString("100")),
		model.NewOrderLine(productID, variantID, 2, decimal.RequireFromString("37.50")),
	}
	o := &model.Order{
		UserID:        uuid.New(),
		Subtotal:      decimal.RequireFromString("150"),
		DiscountTotal: decimal.RequireFromString("12.50"),
		ShippingCost:  decimal.Zero,
		Total:         decimal.RequireFromString("137.50"),
		Items:         items,
	}
	if invoiceID != "" {
		o.GatewayInvoiceID = &invoiceID
	}
	return o
}

func historyCount(t *testing.T, pool *pgxpool.Pool, orderID uuid.UUID) int {
	t.Helper()
	var n int
	require.NoError(t, pool.QueryRow(context.Background(),
		`SELECT COUNT(*) FROM order_histories WHERE order_id = $1`, orderID).Scan(&n))
	return n
}

func TestCreateOrder_AssignsSequentialInvoiceNumbers(t *testing.T) {
	pool := pgtest.NewPool(t)
	ctx := context.Background()
	productID, variantID := pgtest.SeedProduct(t, pool, "50")
	repo := repository.NewPostgresRepository(pool)

	first := newOrder(productID, variantID, "")
	second := newOrder(productID, variantID, "")
	require.NoError(t, repo.CreateOrder(ctx, first))
	require.NoError(t, repo.CreateOrder(ctx, second))

	assert.Equal(t, model.FormatInvoiceNumber(1), first.InvoiceNo)
	assert.Equal(t, model.FormatInvoiceNumber(2), second.InvoiceNo)
	assert.Equal(t, first.InvoiceNo, first.ExternalID)

	got, err := repo.FindByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, got.Status)
	assert.Equal(t, model.PaymentPending, got.PaymentStatus)
	assert.True(t, decimal.RequireFromString("137.50").Equal(got.Total))
	require.Len(t, got.Items, 2)

	totals := map[int]decimal.Decimal{}
	prices := map[int]decimal.Decimal{}
	for _, item := range got.Items {
		totals[item.Quantity] = item.Total
		prices[item.Quantity] = item.Price
	}
	assert.True(t, decimal.RequireFromString("100").Equal(totals[3]), "line total survives rounding of the unit price")
	assert.True(t, decimal.RequireFromString("33.33").Equal(prices[3]))
	assert.True(t, decimal.RequireFromString("37.50").Equal(totals[2]))

	history, err := repo.ListHistory(ctx, first.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "checkout", history[0].Metadata["source"])
}

func TestCreateOrder_RollsBackOnBadItem(t *testing.T) {
	pool := pgtest.NewPool(t)
	ctx := context.Background()
	productID, variantID := pgtest.SeedProduct(t, pool, "50")
	repo := repository.NewPostgresRepository(pool)

	bad := newOrder(productID, uuid.New(), "")
	require.Error(t, repo.CreateOrder(ctx, bad))

	_, err := repo.FindByID(ctx, bad.ID)
	assert.ErrorIs(t, err, model.ErrOrderNotFound)

	good := newOrder(productID, variantID, "")
	require.NoError(t, repo.CreateOrder(ctx, good))
	assert.Equal(t, model.FormatInvoiceNumber(1), good.InvoiceNo, "a rolled back checkout does not consume a number")
}

func TestApplyPaymentTransition_Guards(t *testing.T) {
	pool := pgtest.NewPool(t)
	ctx := context.Background()
	productID, variantID := pgtest.SeedProduct(t, pool, "50")
	repo := repository.NewPostgresRepository(pool)

	order := newOrder(productID, variantID, "inv-paid")
	require.NoError(t, repo.CreateOrder(ctx, order))

	completed := model.StatusCompleted
	paid := model.PaymentTransition{PaymentStatus: model.PaymentPaid, OrderStatus: &completed, GatewayStatus: "PAID", Note: "paid"}
	failed := model.PaymentTransition{PaymentStatus: model.PaymentFailed, GatewayStatus: "FAILED", Note: "failed"}
	paidAt := time.Now().UTC().Truncate(time.Microsecond)

	applied, err := repo.ApplyPaymentTransition(ctx, order.ID, paid, paidAt, paid.History(order, "inv-paid"))
	require.NoError(t, err)
	assert.True(t, applied)

	applied, err = repo.ApplyPaymentTransition(ctx, order.ID, paid, paidAt.Add(time.Minute), paid.History(order, "inv-paid"))
	require.NoError(t, err)
	assert.False(t, applied, "paying twice matches no row")

	applied, err = repo.ApplyPaymentTransition(ctx, order.ID, failed, paidAt, failed.History(order, "inv-paid"))
	require.NoError(t, err)
	assert.False(t, applied, "a paid order is never downgraded")

	got, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentPaid, got.PaymentStatus)
	assert.Equal(t, model.StatusCompleted, got.Status)
	require.NotNil(t, got.PaidAt)
	assert.True(t, paidAt.Equal(*got.PaidAt))
	assert.Equal(t, 2, historyCount(t, pool, order.ID), "checkout plus one transition")
}

func TestApplyPaymentTransition_FailureKeepsOrderStatus(t *testing.T) {
	pool := pgtest.NewPool(t)
	ctx := context.Background()
	productID, variantID := pgtest.SeedProduct(t, pool, "50")
	repo := repository.NewPostgresRepository(pool)

	order := newOrder(productID, variantID, "inv-failed")
	require.NoError(t, repo.CreateOrder(ctx, order))

	failed := model.PaymentTransition{PaymentStatus: model.PaymentFailed, GatewayStatus: "FAILED", Note: "failed"}
	applied, err := repo.ApplyPaymentTransition(ctx, order.ID, failed, time.Now(), failed.History(order, "inv-failed"))
	require.NoError(t, err)
	assert.True(t, applied)

	applied, err = repo.ApplyPaymentTransition(ctx, order.ID, failed, time.Now(), failed.History(order, "inv-failed"))
	require.NoError(t, err)
	assert.False(t, applied, "only pending orders can fail")

	got, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentFailed, got.PaymentStatus)
	assert.Equal(t, model.StatusPending, got.Status)
	assert.Nil(t, got.PaidAt)
	assert.Equal(t, 2, historyCount(t, pool, order.ID))
}

func TestReconcileCandidates_RotateByLastCheck(t *testing.T) {
	pool := pgtest.NewPool(t)
	ctx := context.Background()
	productID, variantID := pgtest.SeedProduct(t, pool, "50")
	repo := repository.NewPostgresRepository(pool)

	now := time.Now()
	ids := make([]uuid.UUID, 3)
	for i := range ids {
		o := newOrder(productID, variantID, "inv-"+uuid.NewString())
		require.NoError(t, repo.CreateOrder(ctx, o))
		ids[i] = o.ID
		_, err := pool.Exec(ctx, `UPDATE orders SET created_at = $2 WHERE id = $1`,
			o.ID, now.Add(time.Duration(i-3)*time.Hour))
		require.NoError(t, err)
	}

	// out of the lookback window
	old := newOrder(productID, variantID, "inv-old")
	require.NoError(t, repo.CreateOrder(ctx, old))
	_, err := pool.Exec(ctx, `UPDATE orders SET created_at = $2 WHERE id = $1`, old.ID, now.Add(-72*time.Hour))
	require.NoError(t, err)

	// never sent to the gateway
	require.NoError(t, repo.CreateOrder(ctx, newOrder(productID, variantID, "")))

	since := now.Add(-48 * time.Hour)
	candidateIDs := func(limit int) []uuid.UUID {
		orders, err := repo.FindReconcileCandidates(ctx, since, limit)
		require.NoError(t, err)
		out := make([]uuid.UUID, len(orders))
		for i, o := range orders {
			out[i] = o.ID
		}
		return out
	}

	assert.Equal(t, []uuid.UUID{ids[0], ids[1], ids[2]}, candidateIDs(10))
	assert.Equal(t, []uuid.UUID{ids[0], ids[1]}, candidateIDs(2))

	require.NoError(t, repo.MarkReconcileChecked(ctx, []uuid.UUID{ids[0], ids[1]}, now))
	assert.Equal(t, []uuid.UUID{ids[2], ids[0]}, candidateIDs(2), "unchecked orders come before checked ones")

	require.NoError(t, repo.MarkReconcileChecked(ctx, []uuid.UUID{ids[2], ids[0]}, now.Add(time.Minute)))
	assert.Equal(t, []uuid.UUID{ids[1], ids[0]}, candidateIDs(2), "least recently checked first")

	require.NoError(t, repo.MarkReconcileChecked(ctx, nil, now))
}
