package model

import "errors"

var (
	ErrProductNotFound     = errors.New("product not found")
	ErrProductHasNoVariant = errors.New("product has no variants")
	ErrVariantNotFound     = errors.New("variant not found")
)
