package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"nutrifarm-backend/internal/domains/product/model"
)

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) ProductRepository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	query := `
		SELECT id, name, slug, is_active, created_at, updated_at
		FROM products
		WHERE id = $1
	`

	var p model.Product
	err := r.db.QueryRow(ctx, query, id).Scan(
		&p.ID,
		&p.Name,
		&p.Slug,
		&p.IsActive,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrProductNotFound
		}
		return nil, fmt.Errorf("find product by id: %w", err)
	}

	variants, err := r.findVariants(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Variants = variants

	return &p, nil
}

func (r *postgresRepository) findVariants(ctx context.Context, productID uuid.UUID) ([]model.Variant, error) {
	query := `
		SELECT id, product_id, name, sku, base_price, discount_amount, stock_quantity, is_primary
		FROM product_variants
		WHERE product_id = $1
		ORDER BY is_primary DESC, base_price ASC
	`

	rows, err := r.db.Query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("query variants: %w", err)
	}
	defer rows.Close()

	var variants []model.Variant
	for rows.Next() {
		var v model.Variant
		if err := rows.Scan(
			&v.ID,
			&v.ProductID,
			&v.Name,
			&v.SKU,
			&v.BasePrice,
			&v.DiscountAmount,
			&v.StockQuantity,
			&v.IsPrimary,
		); err != nil {
			return nil, fmt.Errorf("scan variant: %w", err)
		}
		variants = append(variants, v)
	}

	return variants, rows.Err()
}
