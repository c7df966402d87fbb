package utils

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
)

// UnmarshalTask decodes an asynq task payload. An empty payload leaves v untouched.
func UnmarshalTask(t *asynq.Task, v interface{}) error {
	if len(t.Payload()) == 0 {
		return nil
	}
	if err := json.Unmarshal(t.Payload(), v); err != nil {
		return fmt.Errorf("invalid %s payload: %w", t.Type(), err)
	}
	return nil
}

// MaxDecimal returns the larger of a and b.
func MaxDecimal(a, b decimal.Decimal) decimal.Decimal {
	if a.GreaterThan(b) {
		return a
	}
	return b
}

// MinDecimal returns the smaller of a and b.
func MinDecimal(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}
