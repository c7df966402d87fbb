package model

import (
	"errors"
	"net/http"
)

const (
	ErrCodeOrderNotFound      = "ORD001"
	ErrCodeInvalidOrder       = "ORD002"
	ErrCodeInvalidStatus      = "ORD003"
	ErrCodeProductUnavailable = "ORD004"
	ErrCodeUnauthorized       = "ORD005"
	ErrCodeReconcileBusy      = "ORD006"
	ErrCodeEnqueueFailed      = "ORD007"
)

var (
	ErrOrderNotFound        = errors.New("order not found")
	ErrInvalidInvoiceNumber = errors.New("invalid invoice number")
	ErrEmptyOrder           = errors.New("order has no items")
	ErrSequenceMissing      = errors.New("invoice sequence is not initialised")
	ErrInvalidStatus        = errors.New("invalid order status")
)

// OrderError carries an error code and HTTP status for handlers.
type OrderError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
}

func (e *OrderError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *OrderError) Unwrap() error {
	return e.Err
}

func NewOrderError(code, message string, status int, err error) *OrderError {
	if status == 0 {
		status = http.StatusInternalServerError
	}
	return &OrderError{
		Code:       code,
		Message:    message,
		HTTPStatus: status,
		Err:        err,
	}
}
