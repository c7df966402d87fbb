package job

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"nutrifarm-backend/internal/domains/order/model"
	"nutrifarm-backend/internal/domains/order/service"
	"nutrifarm-backend/internal/shared"
	"nutrifarm-backend/internal/shared/utils"
	"nutrifarm-backend/pkg/logger"
)

// ================================================
// RECONCILE PAYMENTS JOB HANDLER
// ================================================

type ReconcilePaymentsHandler struct {
	reconcileService service.ReconcileService
	defaults         shared.ReconcilePaymentsPayload
}

// NewReconcilePaymentsHandler builds the handler; defaults fill fields the
// task payload leaves at zero.
func NewReconcilePaymentsHandler(
	reconcileService service.ReconcileService,
	defaults shared.ReconcilePaymentsPayload,
) *ReconcilePaymentsHandler {
	return &ReconcilePaymentsHandler{
		reconcileService: reconcileService,
		defaults:         defaults,
	}
}

func (h *ReconcilePaymentsHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload shared.ReconcilePaymentsPayload
	if err := utils.UnmarshalTask(t, &payload); err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	if payload.LookbackDays == 0 {
		payload.LookbackDays = h.defaults.LookbackDays
	}
	if payload.BatchSize == 0 {
		payload.BatchSize = h.defaults.BatchSize
	}
	if payload.Trigger == "" {
		payload.Trigger = shared.TriggerSchedule
	}

	logger.Info("Starting ReconcilePayments job", map[string]interface{}{
		"lookback_days": payload.LookbackDays,
		"batch_size":    payload.BatchSize,
		"trigger":       string(payload.Trigger),
	})

	result, err := h.reconcileService.ReconcilePendingOrders(ctx, model.ReconcileOptions{
		LookbackDays: payload.LookbackDays,
		BatchSize:    payload.BatchSize,
		Trigger:      string(payload.Trigger),
	})
	if err != nil {
		return fmt.Errorf("reconcile payments: %w", err)
	}

	if result.Skipped {
		logger.Info("ReconcilePayments skipped, previous run still active", nil)
		return nil
	}

	logger.Info("Completed ReconcilePayments job", map[string]interface{}{
		"candidates": result.Candidates,
		"paid":       result.Paid,
		"expired":    result.Expired,
		"failed":     result.Failed,
		"errors":     result.Errors,
	})
	return nil
}

// NewReconcilePaymentsTask builds the task enqueued by the scheduler and the admin endpoint.
func NewReconcilePaymentsTask(payload shared.ReconcilePaymentsPayload, timeout time.Duration) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal reconcile payload: %w", err)
	}

	if timeout <= 0 {
		timeout = 9 * time.Minute
	}

	return asynq.NewTask(
		shared.TypeReconcilePayments,
		data,
		asynq.Queue(shared.QueuePayment),
		asynq.MaxRetry(1),
		asynq.Timeout(timeout),
		// identical payloads collapse into one pending task
		asynq.Unique(timeout),
	), nil
}
