package repository

import (
	"context"

	"github.com/google/uuid"

	"nutrifarm-backend/internal/domains/product/model"
)

type ProductRepository interface {
	// FindByID loads the product with all its variants.
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
}
