package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"nutrifarm-backend/internal/domains/promotion/model"
	"nutrifarm-backend/pkg/database"
)

type postgresLedger struct {
	db *pgxpool.Pool
}

func NewPostgresLedger(db *pgxpool.Pool) LedgerRepository {
	return &postgresLedger{db: db}
}

func (l *postgresLedger) RunInTx(ctx context.Context, fn func(tx LedgerTx) error) error {
	return database.WithTransaction(ctx, l.db, func(tx pgx.Tx) error {
		return fn(&ledgerTx{tx: tx})
	})
}

type ledgerTx struct {
	tx pgx.Tx
}

func (t *ledgerTx) GetFlashSaleForUpdate(ctx context.Context, id uuid.UUID) (*model.FlashSale, error) {
	query := `SELECT ` + flashSaleColumns + ` FROM flash_sales fs WHERE fs.id = $1 FOR UPDATE`
	return scanFlashSale(t.tx.QueryRow(ctx, query, id))
}

func (t *ledgerTx) IncrementProductSaleQuantity(ctx context.Context, flashSaleID, productID uuid.UUID, quantity int) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE flash_sale_products
		SET sale_quantity = sale_quantity + $3
		WHERE flash_sale_id = $1 AND product_id = $2
	`, flashSaleID, productID, quantity)
	if err != nil {
		return fmt.Errorf("increment product sale quantity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrProductNotInFlashSale
	}
	return nil
}

func (t *ledgerTx) IncrementSoldQuantity(ctx context.Context, flashSaleID uuid.UUID, quantity int) error {
	_, err := t.tx.Exec(ctx, `
		UPDATE flash_sales
		SET sold_quantity = sold_quantity + $2, updated_at = NOW()
		WHERE id = $1
	`, flashSaleID, quantity)
	if err != nil {
		return fmt.Errorf("increment sold quantity: %w", err)
	}
	return nil
}

func (t *ledgerTx) DecrementProductSaleQuantity(ctx context.Context, flashSaleID, productID uuid.UUID, quantity int) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE flash_sale_products
		SET sale_quantity = GREATEST(sale_quantity - $3, 0)
		WHERE flash_sale_id = $1 AND product_id = $2
	`, flashSaleID, productID, quantity)
	if err != nil {
		return fmt.Errorf("decrement product sale quantity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrProductNotInFlashSale
	}
	return nil
}

func (t *ledgerTx) DecrementSoldQuantity(ctx context.Context, flashSaleID uuid.UUID, quantity int) error {
	_, err := t.tx.Exec(ctx, `
		UPDATE flash_sales
		SET sold_quantity = GREATEST(sold_quantity - $2, 0), updated_at = NOW()
		WHERE id = $1
	`, flashSaleID, quantity)
	if err != nil {
		return fmt.Errorf("decrement sold quantity: %w", err)
	}
	return nil
}

func (t *ledgerTx) GetDiscountForUpdate(ctx context.Context, id uuid.UUID) (*model.Discount, error) {
	query := `SELECT ` + discountColumns + ` FROM discounts d WHERE d.id = $1 FOR UPDATE`
	return scanDiscount(t.tx.QueryRow(ctx, query, id))
}

func (t *ledgerTx) IncrementDiscountUsage(ctx context.Context, id uuid.UUID) error {
	_, err := t.tx.Exec(ctx, `
		UPDATE discounts
		SET used_count = used_count + 1, updated_at = NOW()
		WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("increment discount usage: %w", err)
	}
	return nil
}
