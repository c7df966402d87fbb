package model

import (
	"errors"
	"net/http"
)

var (
	ErrInvalidDiscountType   = errors.New("invalid discount type")
	ErrDiscountNotFound      = errors.New("discount not found")
	ErrFlashSaleNotFound     = errors.New("flash sale not found")
	ErrProductNotInFlashSale = errors.New("product is not part of the flash sale")
)

type ErrorCode string

const (
	ErrCodeProductNotFound     ErrorCode = "PRODUCT_NOT_FOUND"
	ErrCodeProductNotPriceable ErrorCode = "PRODUCT_NOT_PRICEABLE"
	ErrCodeFlashSaleNotFound   ErrorCode = "FLASH_SALE_NOT_FOUND"
	ErrCodeProductNotInSale    ErrorCode = "FLASH_SALE_PRODUCT_NOT_FOUND"
	ErrCodeValidationFailed    ErrorCode = "VAL_INVALID_INPUT"
	ErrCodeInternalError       ErrorCode = "SYS_INTERNAL_ERROR"
)

type AppError struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	HTTPStatus int       `json:"-"`
	Err        error     `json:"-"`
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(code ErrorCode, message string, status int, err error) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status, Err: err}
}

func ErrNotFound(code ErrorCode, message string, err error) *AppError {
	return NewAppError(code, message, http.StatusNotFound, err)
}
