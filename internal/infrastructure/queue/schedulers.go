package queue

import (
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"nutrifarm-backend/internal/config"
	"nutrifarm-backend/internal/domains/order/job"
	"nutrifarm-backend/internal/shared"
	"nutrifarm-backend/pkg/logger"
)

// RedisOpt converts the redis section into asynq connection options.
func RedisOpt(cfg config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Host,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

type Scheduler struct {
	scheduler *asynq.Scheduler
	jobConfig config.JobConfig
}

func NewScheduler(redisOpt asynq.RedisConnOpt, jobConfig config.JobConfig) *Scheduler {
	scheduler := asynq.NewScheduler(
		redisOpt,
		&asynq.SchedulerOpts{
			Location: time.UTC,
			LogLevel: asynq.InfoLevel,
			PostEnqueueFunc: func(info *asynq.TaskInfo, err error) {
				if err != nil {
					logger.Warn("scheduled task not enqueued", map[string]interface{}{
						"error": err.Error(),
					})
				}
			},
		},
	)

	return &Scheduler{
		scheduler: scheduler,
		jobConfig: jobConfig,
	}
}

func (s *Scheduler) RegisterJobs() error {
	return s.registerReconcilePaymentsJob()
}

// ================================================
// Reconcile Payments (every 10 minutes by default)
// ================================================
func (s *Scheduler) registerReconcilePaymentsJob() error {
	task, err := job.NewReconcilePaymentsTask(shared.ReconcilePaymentsPayload{
		LookbackDays: s.jobConfig.ReconcileLookbackDays,
		BatchSize:    s.jobConfig.ReconcileBatchSize,
		Trigger:      shared.TriggerSchedule,
	}, s.jobConfig.ReconcileTimeout)
	if err != nil {
		return err
	}

	entryID, err := s.scheduler.Register(s.jobConfig.ReconcileCron, task)
	if err != nil {
		logger.Error("Failed to register ReconcilePayments job", err)
		return fmt.Errorf("register reconcile payments: %w", err)
	}

	logger.Info("Registered ReconcilePayments job", map[string]interface{}{
		"entry_id":      entryID,
		"cron":          s.jobConfig.ReconcileCron,
		"lookback_days": s.jobConfig.ReconcileLookbackDays,
		"batch_size":    s.jobConfig.ReconcileBatchSize,
	})
	return nil
}

func (s *Scheduler) Start() error {
	return s.scheduler.Start()
}

func (s *Scheduler) Shutdown() {
	s.scheduler.Shutdown()
}
