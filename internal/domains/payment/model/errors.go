package model

import (
	"errors"
	"fmt"
)

var (
	ErrInvoiceIDRequired = errors.New("invoice id is required")
	ErrMalformedResponse = errors.New("malformed gateway response")
)

// GatewayError wraps a non-2xx answer or transport failure from the gateway.
type GatewayError struct {
	Code       string
	Message    string
	StatusCode int
	Err        error
}

func (e *GatewayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// Retryable is true for transport failures, throttling and 5xx answers.
func (e *GatewayError) Retryable() bool {
	return e.StatusCode == 0 || e.StatusCode == 429 || e.StatusCode >= 500
}
