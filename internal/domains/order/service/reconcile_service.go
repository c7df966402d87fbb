package service

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"nutrifarm-backend/internal/domains/order/model"
	"nutrifarm-backend/internal/domains/order/repository"
	"nutrifarm-backend/internal/domains/payment/gateway"
	"nutrifarm-backend/pkg/clock"
	"nutrifarm-backend/pkg/logger"
	"nutrifarm-backend/pkg/metrics"
)

const ReconcileLockKey = "lock:order:reconcile_payments"

// RunLocker prevents two reconciliation runs from overlapping across processes.
type RunLocker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, acquired bool, err error)
}

type reconcileService struct {
	orders  repository.OrderRepository
	gateway gateway.InvoiceGateway
	clock   clock.Clock
	metrics *metrics.Metrics
	locker  RunLocker
	lockTTL time.Duration
}

// NewReconcileService wires the reconciliation batch. locker may be nil, in
// which case overlap protection is left to the caller.
func NewReconcileService(
	orders repository.OrderRepository,
	gw gateway.InvoiceGateway,
	clk clock.Clock,
	m *metrics.Metrics,
	locker RunLocker,
	lockTTL time.Duration,
) ReconcileService {
	if clk == nil {
		clk = clock.New()
	}
	if lockTTL <= 0 {
		lockTTL = 10 * time.Minute
	}
	return &reconcileService{
		orders:  orders,
		gateway: gw,
		clock:   clk,
		metrics: m,
		locker:  locker,
		lockTTL: lockTTL,
	}
}

// ReconcilePendingOrders re-reads the gateway status of every pending order in
// the lookback window. Per-order failures are logged and counted; only a failed
// lock or candidate query is returned as an error.
func (s *reconcileService) ReconcilePendingOrders(ctx context.Context, opts model.ReconcileOptions) (*model.ReconcileResult, error) {
	opts = opts.Normalize()
	started := s.clock.Now()
	result := &model.ReconcileResult{Trigger: opts.Trigger, StartedAt: started}

	if s.locker != nil {
		release, acquired, err := s.locker.TryLock(ctx, ReconcileLockKey, s.lockTTL)
		if err != nil {
			return nil, fmt.Errorf("acquire reconcile lock: %w", err)
		}
		if !acquired {
			logger.Info("reconciliation already running, skipping", map[string]interface{}{
				"trigger": opts.Trigger,
			})
			result.Skipped = true
			result.FinishedAt = s.clock.Now()
			return result, nil
		}
		defer func() {
			// the run context may already be cancelled
			if err := release(context.Background()); err != nil {
				logger.Error("failed to release reconcile lock", err)
			}
		}()
	}

	candidates, err := s.orders.FindReconcileCandidates(ctx, opts.Since(started), opts.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("load reconcile candidates: %w", err)
	}
	result.Candidates = len(candidates)

	checked := make([]uuid.UUID, 0, len(candidates))
	for i, order := range candidates {
		if ctx.Err() != nil {
			logger.Warn("reconciliation interrupted", map[string]interface{}{
				"trigger":   opts.Trigger,
				"processed": i,
				"remaining": len(candidates) - i,
			})
			break
		}

		outcome, err := s.reconcileOrder(ctx, order)
		if err != nil {
			outcome = metrics.OutcomeError
			logger.ErrorWithFields("failed to reconcile order", err, map[string]interface{}{
				"order_id":   order.ID.String(),
				"invoice_no": order.InvoiceNo,
			})
		}
		s.metrics.ObserveReconcileOutcome(outcome)
		tally(result, outcome)
		checked = append(checked, order.ID)
	}

	// detached: an interrupted run still records what it got through
	if err := s.orders.MarkReconcileChecked(context.Background(), checked, s.clock.Now()); err != nil {
		logger.Error("failed to mark orders as reconcile-checked", err)
	}

	result.FinishedAt = s.clock.Now()
	s.metrics.ObserveReconcileRun(opts.Trigger, result.FinishedAt.Sub(started))

	logger.Info("reconciliation finished", map[string]interface{}{
		"trigger":       opts.Trigger,
		"lookback_days": opts.LookbackDays,
		"candidates":    result.Candidates,
		"paid":          result.Paid,
		"expired":       result.Expired,
		"failed":        result.Failed,
		"unchanged":     result.Unchanged,
		"not_found":     result.NotFound,
		"errors":        result.Errors,
	})

	return result, nil
}

// reconcileOrder never lets a panic escape; a malformed gateway payload must
// not stop the batch.
func (s *reconcileService) reconcileOrder(ctx context.Context, order *model.Order) (outcome string, err error) {
	defer func() {
		if r := recover(); r != nil {
			outcome = metrics.OutcomeError
			err = fmt.Errorf("panic while reconciling: %v\n%s", r, debug.Stack())
		}
	}()

	if !order.HasGatewayInvoice() {
		return metrics.OutcomeNotFound, nil
	}
	invoiceID := *order.GatewayInvoiceID

	invoice, err := s.gateway.GetInvoice(ctx, invoiceID)
	if err != nil {
		return metrics.OutcomeError, fmt.Errorf("get invoice %s: %w", invoiceID, err)
	}
	if invoice == nil {
		logger.Debug("invoice not found at gateway: " + invoiceID)
		return metrics.OutcomeNotFound, nil
	}

	transition, ok := model.ResolveTransition(order.PaymentStatus, invoice)
	if !ok {
		return metrics.OutcomeUnchanged, nil
	}

	applied, err := s.orders.ApplyPaymentTransition(ctx, order.ID, transition, s.clock.Now(), transition.History(order, invoiceID))
	if err != nil {
		return metrics.OutcomeError, err
	}
	if !applied {
		return metrics.OutcomeUnchanged, nil
	}

	logger.Info("order payment status reconciled", map[string]interface{}{
		"order_id":       order.ID.String(),
		"invoice_no":     order.InvoiceNo,
		"payment_status": string(transition.PaymentStatus),
		"gateway_status": transition.GatewayStatus,
	})

	switch transition.PaymentStatus {
	case model.PaymentPaid:
		return metrics.OutcomePaid, nil
	case model.PaymentExpired:
		return metrics.OutcomeExpired, nil
	default:
		return metrics.OutcomeFailed, nil
	}
}

func tally(r *model.ReconcileResult, outcome string) {
	switch outcome {
	case metrics.OutcomePaid:
		r.Paid++
	case metrics.OutcomeExpired:
		r.Expired++
	case metrics.OutcomeFailed:
		r.Failed++
	case metrics.OutcomeUnchanged:
		r.Unchanged++
	case metrics.OutcomeNotFound:
		r.NotFound++
	default:
		r.Errors++
	}
}
