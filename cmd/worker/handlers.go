package main

import (
	"github.com/hibiken/asynq"

	orderJob "nutrifarm-backend/internal/domains/order/job"
	"nutrifarm-backend/internal/shared"
	"nutrifarm-backend/pkg/container"
)

// HandlerRegistry holds all job handlers
type HandlerRegistry struct {
	reconcilePayments *orderJob.ReconcilePaymentsHandler
}

func initializeHandlers(c *container.Container) *HandlerRegistry {
	return &HandlerRegistry{
		reconcilePayments: c.ReconcileJobHandler(),
	}
}

// RegisterHandlers registers all handlers with the mux
func (h *HandlerRegistry) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(shared.TypeReconcilePayments, h.reconcilePayments.ProcessTask)
}
