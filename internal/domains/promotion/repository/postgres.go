package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"nutrifarm-backend/internal/domains/promotion/model"
	"nutrifarm-backend/pkg/logger"
)

const discountColumns = `
	d.id, d.name, d.type, d.value, d.min_quantity, d.get_quantity,
	d.min_purchase_amount, d.max_discount_amount, d.usage_limit, d.used_count,
	d.is_active, d.starts_at, d.ends_at, d.created_at, d.updated_at`

const flashSaleColumns = `
	fs.id, fs.name, fs.discount_percentage, fs.max_discount_amount,
	fs.max_quantity, fs.sold_quantity, fs.is_active, fs.starts_at, fs.ends_at,
	fs.created_at, fs.updated_at`

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) PromotionRepository {
	return &postgresRepository{db: db}
}

// ListDiscountsForProduct skips rows with an unknown type instead of failing the quote.
func (r *postgresRepository) ListDiscountsForProduct(ctx context.Context, productID uuid.UUID) ([]*model.Discount, error) {
	query := `
		SELECT ` + discountColumns + `
		FROM discounts d
		JOIN discount_products dp ON dp.discount_id = d.id
		WHERE dp.product_id = $1 AND d.is_active = TRUE
		ORDER BY d.created_at
	`

	rows, err := r.db.Query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("list discounts for product: %w", err)
	}
	defer rows.Close()

	var discounts []*model.Discount
	for rows.Next() {
		d, err := scanDiscount(rows)
		if err != nil {
			if errors.Is(err, model.ErrInvalidDiscountType) {
				logger.Warn("skipping discount with unknown type", map[string]interface{}{
					"product_id": productID.String(),
					"error":      err.Error(),
				})
				continue
			}
			return nil, err
		}
		discounts = append(discounts, d)
	}

	return discounts, rows.Err()
}

func (r *postgresRepository) ListFlashSalesForProduct(ctx context.Context, productID uuid.UUID, now time.Time) ([]*model.FlashSale, error) {
	query := `
		SELECT ` + flashSaleColumns + `
		FROM flash_sales fs
		JOIN flash_sale_products fsp ON fsp.flash_sale_id = fs.id
		WHERE fsp.product_id = $1
		  AND fs.is_active = TRUE
		  AND fs.ends_at >= $2
		ORDER BY fs.starts_at
	`

	rows, err := r.db.Query(ctx, query, productID, now)
	if err != nil {
		return nil, fmt.Errorf("list flash sales for product: %w", err)
	}
	defer rows.Close()

	var sales []*model.FlashSale
	for rows.Next() {
		fs, err := scanFlashSale(rows)
		if err != nil {
			return nil, err
		}
		sales = append(sales, fs)
	}

	return sales, rows.Err()
}

func scanDiscount(row pgx.Row) (*model.Discount, error) {
	var (
		d       model.Discount
		rawType string
	)

	err := row.Scan(
		&d.ID,
		&d.Name,
		&rawType,
		&d.Value,
		&d.MinQuantity,
		&d.GetQuantity,
		&d.MinPurchaseAmount,
		&d.MaxDiscountAmount,
		&d.UsageLimit,
		&d.UsedCount,
		&d.IsActive,
		&d.StartsAt,
		&d.EndsAt,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrDiscountNotFound
		}
		return nil, fmt.Errorf("scan discount: %w", err)
	}

	if d.Type, err = model.ParseDiscountType(rawType); err != nil {
		return nil, err
	}

	return &d, nil
}

func scanFlashSale(row pgx.Row) (*model.FlashSale, error) {
	var fs model.FlashSale

	err := row.Scan(
		&fs.ID,
		&fs.Name,
		&fs.DiscountPercentage,
		&fs.MaxDiscountAmount,
		&fs.MaxQuantity,
		&fs.SoldQuantity,
		&fs.IsActive,
		&fs.StartsAt,
		&fs.EndsAt,
		&fs.CreatedAt,
		&fs.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrFlashSaleNotFound
		}
		return nil, fmt.Errorf("scan flash sale: %w", err)
	}

	return &fs, nil
}
