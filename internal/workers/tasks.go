// internal/workers/tasks.go
package workers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ammerola/bloodbank-be/internal/core/domain"
	"github.com/ammerola/bloodbank-be/internal/core/ports"
)

const (
	TypeCheckExpiry      = "inventory:check_expiry"
	TypeDonationRecorded = "inventory:donation_recorded"
	TypeStockAlert       = "inventory:stock_alert"
	TypeArchiveHistory   = "inventory:archive_history"
)

// Queue names
const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)

// DonationRecordedPayload is published by the donation recorder after a
// donation has been stored
type DonationRecordedPayload struct {
	DonationID    string    `json:"donation_id"`
	BloodGroup    string    `json:"blood_group"`
	Units         int       `json:"units"`
	CollectedDate time.Time `json:"collected_date"`
	Actor         string    `json:"actor,omitempty"`
}

// ExpiryCheckPayload configures an expiry sweep
type ExpiryCheckPayload struct {
	Actor string `json:"actor,omitempty"`
}

// ArchiveHistoryPayload selects the ledgers whose history is archived.
// An empty list archives every group.
type ArchiveHistoryPayload struct {
	BloodGroups []string `json:"blood_groups,omitempty"`
	Limit       int      `json:"limit,omitempty"`
}

// NewDonationRecordedTask builds a donation ingestion task
func NewDonationRecordedTask(payload DonationRecordedPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal donation payload: %w", err)
	}
	return asynq.NewTask(TypeDonationRecorded, data), nil
}

// NewStockAlertTask builds an alert delivery task
func NewStockAlertTask(alert domain.StockAlert) (*asynq.Task, error) {
	data, err := json.Marshal(alert)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal stock alert: %w", err)
	}
	return asynq.NewTask(TypeStockAlert, data), nil
}

// NewCheckExpiryTask builds an expiry sweep task
func NewCheckExpiryTask(actor string) *asynq.Task {
	data, _ := json.Marshal(ExpiryCheckPayload{Actor: actor})
	return asynq.NewTask(TypeCheckExpiry, data)
}

// NewArchiveHistoryTask builds a history archive task
func NewArchiveHistoryTask(payload ArchiveHistoryPayload) *asynq.Task {
	data, _ := json.Marshal(payload)
	return asynq.NewTask(TypeArchiveHistory, data)
}

// Enqueuer is satisfied by *asynq.Client
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// TaskClient submits inventory tasks to the queue
type TaskClient struct {
	client     Enqueuer
	alertDedup time.Duration
	logger     *slog.Logger
}

// Statically assert that *TaskClient implements the queue-backed ports.
var (
	_ ports.AlertNotifier    = (*TaskClient)(nil)
	_ ports.DonationIngestor = (*TaskClient)(nil)
)

// NewTaskClient creates a task client. Alerts of the same kind for the same
// group are collapsed within alertDedup.
func NewTaskClient(client Enqueuer, alertDedup time.Duration, logger *slog.Logger) *TaskClient {
	if alertDedup <= 0 {
		alertDedup = 30 * time.Minute
	}
	return &TaskClient{
		client:     client,
		alertDedup: alertDedup,
		logger:     logger.With(slog.String("component", "task_client")),
	}
}

// NotifyStockAlert enqueues an alert for delivery
func (c *TaskClient) NotifyStockAlert(ctx context.Context, alert domain.StockAlert) error {
	task, err := NewStockAlertTask(alert)
	if err != nil {
		return err
	}

	info, err := c.client.EnqueueContext(ctx, task,
		asynq.Queue(QueueCritical),
		asynq.MaxRetry(5),
		asynq.TaskID(fmt.Sprintf("alert:%s:%s", alert.Kind, alert.BloodGroup)),
		asynq.Retention(c.alertDedup),
	)
	if err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) || errors.Is(err, asynq.ErrDuplicateTask) {
			c.logger.DebugContext(ctx, "stock alert already pending",
				slog.String("blood_group", alert.BloodGroup.String()),
				slog.String("kind", string(alert.Kind)))
			return nil
		}
		return fmt.Errorf("failed to enqueue stock alert: %w", err)
	}

	c.logger.InfoContext(ctx, "stock alert enqueued",
		slog.String("task_id", info.ID),
		slog.String("blood_group", alert.BloodGroup.String()),
		slog.String("kind", string(alert.Kind)))
	return nil
}

// IngestDonation queues a donation for ingestion by the worker. Enqueue
// failures are logged and never reach the donation recorder.
func (c *TaskClient) IngestDonation(ctx context.Context, cmd ports.DonationCommand) {
	task, err := NewDonationRecordedTask(DonationRecordedPayload{
		DonationID:    cmd.DonationID,
		BloodGroup:    cmd.BloodGroup.String(),
		Units:         cmd.Units,
		CollectedDate: cmd.CollectedDate,
		Actor:         cmd.Actor,
	})
	if err != nil {
		c.logger.ErrorContext(ctx, "failed to build donation task",
			slog.String("donation_id", cmd.DonationID),
			slog.String("error", err.Error()))
		return
	}

	info, err := c.client.EnqueueContext(ctx, task,
		asynq.Queue(QueueDefault),
		asynq.MaxRetry(10),
		asynq.TaskID("donation:"+cmd.DonationID),
	)
	if err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			c.logger.InfoContext(ctx, "donation already queued",
				slog.String("donation_id", cmd.DonationID))
			return
		}
		c.logger.ErrorContext(ctx, "failed to enqueue donation",
			slog.String("donation_id", cmd.DonationID),
			slog.String("blood_group", cmd.BloodGroup.String()),
			slog.String("error", err.Error()))
		return
	}

	c.logger.InfoContext(ctx, "donation queued for ingestion",
		slog.String("task_id", info.ID),
		slog.String("donation_id", cmd.DonationID))
}
