package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"nutrifarm-backend/internal/domains/order/model"
	"nutrifarm-backend/pkg/database"
)

const orderColumns = `
	o.id, o.invoice_no, o.user_id, o.status, o.payment_status, o.external_id,
	o.gateway_invoice_id, o.gateway_invoice_url, o.paid_at,
	o.subtotal, o.discount_total, o.shipping_cost, o.total,
	o.created_at, o.updated_at`

const invoiceSequenceName = "orders"

type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) OrderRepository {
	return &postgresRepository{pool: pool}
}

// =====================================================
// CREATE
// =====================================================
func (r *postgresRepository) CreateOrder(ctx context.Context, order *model.Order) error {
	if len(order.Items) == 0 {
		return model.ErrEmptyOrder
	}

	return database.WithTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		seq, err := nextInvoiceSequence(ctx, tx)
		if err != nil {
			return err
		}

		if order.ID == uuid.Nil {
			order.ID = uuid.New()
		}
		order.InvoiceNo = model.FormatInvoiceNumber(seq)
		if order.ExternalID == "" {
			order.ExternalID = order.InvoiceNo
		}
		if order.Status == "" {
			order.Status = model.StatusPending
		}
		if order.PaymentStatus == "" {
			order.PaymentStatus = model.PaymentPending
		}

		err = tx.QueryRow(ctx, `
			INSERT INTO orders (
				id, invoice_no, user_id, status, payment_status, external_id,
				gateway_invoice_id, gateway_invoice_url,
				subtotal, discount_total, shipping_cost, total
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			RETURNING created_at, updated_at
		`,
			order.ID, order.InvoiceNo, order.UserID, order.Status, order.PaymentStatus, order.ExternalID,
			order.GatewayInvoiceID, order.GatewayInvoiceURL,
			order.Subtotal, order.DiscountTotal, order.ShippingCost, order.Total,
		).Scan(&order.CreatedAt, &order.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}

		batch := &pgx.Batch{}
		for i := range order.Items {
			item := &order.Items[i]
			if item.ID == uuid.Nil {
				item.ID = uuid.New()
			}
			item.OrderID = order.ID
			batch.Queue(`
				INSERT INTO order_products (id, order_id, product_id, variant_id, quantity, price, total, flash_sale_id)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			`, item.ID, item.OrderID, item.ProductID, item.VariantID, item.Quantity, item.Price, item.Total, item.FlashSaleID)
		}

		results := tx.SendBatch(ctx, batch)
		for range order.Items {
			if _, err := results.Exec(); err != nil {
				_ = results.Close()
				return fmt.Errorf("insert order products: %w", err)
			}
		}
		if err := results.Close(); err != nil {
			return fmt.Errorf("insert order products: %w", err)
		}

		return insertHistory(ctx, tx, &model.OrderHistory{
			OrderID: order.ID,
			Status:  string(model.StatusPending),
			Note:    "order created",
			Metadata: map[string]interface{}{
				"source":     "checkout",
				"invoice_no": order.InvoiceNo,
			},
		})
	})
}

// nextInvoiceSequence bumps the counter row; the row lock serialises concurrent checkouts.
func nextInvoiceSequence(ctx context.Context, tx pgx.Tx) (int64, error) {
	var seq int64
	err := tx.QueryRow(ctx, `
		UPDATE invoice_sequences
		SET last_value = last_value + 1, updated_at = NOW()
		WHERE name = $1
		RETURNING last_value
	`, invoiceSequenceName).Scan(&seq)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, model.ErrSequenceMissing
	}
	if err != nil {
		return 0, fmt.Errorf("next invoice sequence: %w", err)
	}
	return seq, nil
}

// =====================================================
// READ
// =====================================================
func (r *postgresRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	order, err := scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders o WHERE o.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find order: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, order_id, product_id, variant_id, quantity, price, total, flash_sale_id
		FROM order_products
		WHERE order_id = $1
		ORDER BY id
	`, id)
	if err != nil {
		return nil, fmt.Errorf("list order products: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item model.OrderProduct
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.VariantID,
			&item.Quantity, &item.Price, &item.Total, &item.FlashSaleID); err != nil {
			return nil, fmt.Errorf("scan order product: %w", err)
		}
		order.Items = append(order.Items, item)
	}

	return order, rows.Err()
}

func (r *postgresRepository) ListHistory(ctx context.Context, orderID uuid.UUID) ([]model.OrderHistory, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, order_id, status, note, metadata, created_at
		FROM order_histories
		WHERE order_id = $1
		ORDER BY created_at, id
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("list order history: %w", err)
	}
	defer rows.Close()

	history := []model.OrderHistory{}
	for rows.Next() {
		var (
			h    model.OrderHistory
			meta []byte
		)
		if err := rows.Scan(&h.ID, &h.OrderID, &h.Status, &h.Note, &meta, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order history: %w", err)
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &h.Metadata); err != nil {
				return nil, fmt.Errorf("decode history metadata: %w", err)
			}
		}
		history = append(history, h)
	}

	return history, rows.Err()
}

func (r *postgresRepository) FindReconcileCandidates(ctx context.Context, since time.Time, limit int) ([]*model.Order, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+orderColumns+`
		FROM orders o
		WHERE o.payment_status = $1
		  AND o.gateway_invoice_id IS NOT NULL
		  AND o.created_at >= $2
		ORDER BY o.reconcile_checked_at NULLS FIRST, o.created_at
		LIMIT $3
	`, model.PaymentPending, since, limit)
	if err != nil {
		return nil, fmt.Errorf("find reconcile candidates: %w", err)
	}
	defer rows.Close()

	var orders []*model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reconcile candidate: %w", err)
		}
		orders = append(orders, o)
	}

	return orders, rows.Err()
}

// =====================================================
// PAYMENT TRANSITIONS
// =====================================================
func (r *postgresRepository) MarkReconcileChecked(ctx context.Context, orderIDs []uuid.UUID, at time.Time) error {
	if len(orderIDs) == 0 {
		return nil
	}

	ids := make([]string, len(orderIDs))
	for i, id := range orderIDs {
		ids[i] = id.String()
	}

	_, err := r.pool.Exec(ctx, `
		UPDATE orders
		SET reconcile_checked_at = $2
		WHERE id = ANY($1::uuid[])
	`, ids, at)
	if err != nil {
		return fmt.Errorf("mark reconcile checked: %w", err)
	}
	return nil
}

func (r *postgresRepository) ApplyPaymentTransition(
	ctx context.Context,
	orderID uuid.UUID,
	t model.PaymentTransition,
	at time.Time,
	history *model.OrderHistory,
) (bool, error) {
	return database.WithTransactionResult(ctx, r.pool, func(tx pgx.Tx) (bool, error) {
		var (
			query string
			args  []interface{}
		)

		if t.PaymentStatus == model.PaymentPaid {
			query = `
				UPDATE orders
				SET payment_status = $2,
				    status = COALESCE($3, status),
				    paid_at = $4,
				    updated_at = NOW()
				WHERE id = $1 AND payment_status <> $2`
			args = []interface{}{orderID, t.PaymentStatus, t.OrderStatus, at}
		} else {
			query = `
				UPDATE orders
				SET payment_status = $2,
				    status = COALESCE($3, status),
				    updated_at = NOW()
				WHERE id = $1 AND payment_status = $4`
			args = []interface{}{orderID, t.PaymentStatus, t.OrderStatus, model.PaymentPending}
		}

		tag, err := tx.Exec(ctx, query, args...)
		if err != nil {
			return false, fmt.Errorf("update payment status: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return false, nil
		}

		if history != nil {
			history.OrderID = orderID
			if err := insertHistory(ctx, tx, history); err != nil {
				return false, err
			}
		}
		return true, nil
	})
}

func insertHistory(ctx context.Context, tx pgx.Tx, h *model.OrderHistory) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}

	meta, err := json.Marshal(h.Metadata)
	if err != nil {
		return fmt.Errorf("encode history metadata: %w", err)
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO order_histories (id, order_id, status, note, metadata)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`, h.ID, h.OrderID, h.Status, h.Note, meta).Scan(&h.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert order history: %w", err)
	}
	return nil
}

func scanOrder(row pgx.Row) (*model.Order, error) {
	var o model.Order
	err := row.Scan(
		&o.ID, &o.InvoiceNo, &o.UserID, &o.Status, &o.PaymentStatus, &o.ExternalID,
		&o.GatewayInvoiceID, &o.GatewayInvoiceURL, &o.PaidAt,
		&o.Subtotal, &o.DiscountTotal, &o.ShippingCost, &o.Total,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}
