package shared

// Asynq task types
const (
	TypeReconcilePayments = "order:reconcile_payments"
)

// Asynq queues
const (
	QueueCritical = "critical"
	QueuePayment  = "payment"
	QueueDefault  = "default"
)

// Queues maps queue names to their asynq priority weight.
var Queues = map[string]int{
	QueueCritical: 6,
	QueuePayment:  3,
	QueueDefault:  1,
}

// ReconcileTrigger says who started a reconciliation run.
type ReconcileTrigger string

const (
	TriggerSchedule ReconcileTrigger = "schedule"
	TriggerAdmin    ReconcileTrigger = "admin"
	TriggerCLI      ReconcileTrigger = "cli"
)

// ReconcilePaymentsPayload is the asynq payload for TypeReconcilePayments.
type ReconcilePaymentsPayload struct {
	LookbackDays int              `json:"lookback_days"`
	BatchSize    int              `json:"batch_size"`
	Trigger      ReconcileTrigger `json:"trigger"`
}
