package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"nutrifarm-backend/internal/domains/order/job"
	"nutrifarm-backend/internal/domains/order/model"
	"nutrifarm-backend/internal/domains/order/service"
	promoModel "nutrifarm-backend/internal/domains/promotion/model"
	"nutrifarm-backend/internal/shared"
	"nutrifarm-backend/internal/shared/response"
	"nutrifarm-backend/pkg/logger"
)

// TaskEnqueuer is satisfied by *asynq.Client.
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// =====================================================
// ORDER HANDLER
// =====================================================
type OrderHandler struct {
	orderService     service.OrderService
	reconcileService service.ReconcileService
	queue            TaskEnqueuer
	taskTimeout      time.Duration
}

func NewOrderHandler(
	orderService service.OrderService,
	reconcileService service.ReconcileService,
	queue TaskEnqueuer,
	taskTimeout time.Duration,
) *OrderHandler {
	return &OrderHandler{
		orderService:     orderService,
		reconcileService: reconcileService,
		queue:            queue,
		taskTimeout:      taskTimeout,
	}
}

// CreateOrder godoc
// @Summary  Place an order at current prices
// @Tags     orders
// @Param    request body model.CreateOrderRequest true "Order items"
// @Router   /v1/orders [post]
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	userID, ok := c.Get("userID")
	if !ok {
		response.ErrorResponse(c, http.StatusUnauthorized, model.ErrCodeUnauthorized, "unauthorized")
		return
	}

	var req model.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	result, err := h.orderService.PlaceOrder(c.Request.Context(), userID.(uuid.UUID), req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, result)
}

// GetOrderHistory godoc
// @Summary  Audit trail of an order
// @Tags     admin
// @Param    id path string true "Order ID"
// @Router   /v1/admin/orders/{id}/history [get]
func (h *OrderHandler) GetOrderHistory(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid order id")
		return
	}

	result, err := h.orderService.GetOrderHistory(c.Request.Context(), orderID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// ReconcilePayments godoc
// @Summary  Re-sync pending orders with the payment gateway
// @Tags     admin
// @Param    request body model.ReconcileRequest false "Lookback window"
// @Router   /v1/admin/orders/reconcile [post]
func (h *OrderHandler) ReconcilePayments(c *gin.Context) {
	var req model.ReconcileRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "invalid request body")
			return
		}
	}
	if err := req.Validate(); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, model.ErrCodeInvalidOrder, "validation failed", err)
		return
	}

	payload := shared.ReconcilePaymentsPayload{
		LookbackDays: req.LookbackDays(),
		BatchSize:    req.BatchSize,
		Trigger:      shared.TriggerAdmin,
	}

	if req.Wait {
		result, err := h.reconcileService.ReconcilePendingOrders(c.Request.Context(), model.ReconcileOptions{
			LookbackDays: payload.LookbackDays,
			BatchSize:    payload.BatchSize,
			Trigger:      string(payload.Trigger),
		})
		if err != nil {
			h.handleServiceError(c, err)
			return
		}
		if result.Skipped {
			response.ErrorResponse(c, http.StatusConflict, model.ErrCodeReconcileBusy, "reconciliation already running")
			return
		}
		response.Success(c, http.StatusOK, result)
		return
	}

	task, err := job.NewReconcilePaymentsTask(payload, h.taskTimeout)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	info, err := h.queue.EnqueueContext(c.Request.Context(), task)
	if err != nil {
		if errors.Is(err, asynq.ErrDuplicateTask) || errors.Is(err, asynq.ErrTaskIDConflict) {
			response.ErrorResponse(c, http.StatusConflict, model.ErrCodeReconcileBusy, "reconciliation already queued")
			return
		}
		logger.Error("failed to enqueue reconciliation", err)
		response.ErrorResponse(c, http.StatusServiceUnavailable, model.ErrCodeEnqueueFailed, "could not enqueue reconciliation")
		return
	}

	logger.Info("reconciliation enqueued by admin", map[string]interface{}{
		"task_id":       info.ID,
		"lookback_days": payload.LookbackDays,
		"request_id":    c.GetString("request_id"),
	})

	response.Success(c, http.StatusAccepted, model.ReconcileEnqueued{
		TaskID: info.ID,
		Queue:  info.Queue,
		Days:   payload.LookbackDays,
	})
}

func (h *OrderHandler) handleServiceError(c *gin.Context, err error) {
	var orderErr *model.OrderError
	if errors.As(err, &orderErr) {
		response.ErrorResponse(c, orderErr.HTTPStatus, orderErr.Code, orderErr.Message)
		return
	}

	var promoErr *promoModel.AppError
	if errors.As(err, &promoErr) {
		response.ErrorResponse(c, promoErr.HTTPStatus, string(promoErr.Code), promoErr.Message)
		return
	}

	logger.ErrorWithFields("order request failed", err, map[string]interface{}{
		"request_id": c.GetString("request_id"),
		"path":       c.FullPath(),
	})
	response.InternalServerError(c, "internal server error")
}
