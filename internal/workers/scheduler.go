// internal/workers/scheduler.go
package workers

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// CronRegistration wires a cron expression to a prepared task
type CronRegistration struct {
	Spec    string
	Task    *asynq.Task
	Options []asynq.Option
}

// Processors groups the task handlers served by the worker
type Processors struct {
	Expiry   *ExpiryProcessor
	Donation *DonationProcessor
	Alert    *AlertProcessor
	Archive  *ArchiveProcessor
}

// NewServeMux registers every configured processor. Nil processors are skipped.
func NewServeMux(p Processors) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	if p.Expiry != nil {
		mux.HandleFunc(TypeCheckExpiry, p.Expiry.CheckExpiry)
	}
	if p.Donation != nil {
		mux.HandleFunc(TypeDonationRecorded, p.Donation.ProcessDonation)
	}
	if p.Alert != nil {
		mux.HandleFunc(TypeStockAlert, p.Alert.DeliverAlert)
	}
	if p.Archive != nil {
		mux.HandleFunc(TypeArchiveHistory, p.Archive.ArchiveHistory)
	}
	return mux
}

// DefaultSchedules returns the periodic inventory tasks. An empty spec
// disables the corresponding task.
func DefaultSchedules(expirySpec, archiveSpec string, archiveLimit int) []CronRegistration {
	var regs []CronRegistration
	if expirySpec != "" {
		regs = append(regs, CronRegistration{
			Spec:    expirySpec,
			Task:    NewCheckExpiryTask(""),
			Options: []asynq.Option{asynq.Queue(QueueCritical), asynq.Timeout(5 * time.Minute)},
		})
	}
	if archiveSpec != "" {
		regs = append(regs, CronRegistration{
			Spec:    archiveSpec,
			Task:    NewArchiveHistoryTask(ArchiveHistoryPayload{Limit: archiveLimit}),
			Options: []asynq.Option{asynq.Queue(QueueLow), asynq.Timeout(30 * time.Minute)},
		})
	}
	return regs
}

// NewScheduler builds an asynq scheduler with the given registrations
func NewScheduler(redisOpt asynq.RedisConnOpt, regs []CronRegistration, location *time.Location, logger *slog.Logger) (*asynq.Scheduler, error) {
	if location == nil {
		location = time.UTC
	}
	scheduler := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{Location: location})

	for _, entry := range regs {
		if entry.Spec == "" || entry.Task == nil {
			continue
		}
		id, err := scheduler.Register(entry.Spec, entry.Task, entry.Options...)
		if err != nil {
			return nil, fmt.Errorf("failed to register %s (%s): %w", entry.Task.Type(), entry.Spec, err)
		}
		logger.Info("scheduled task registered",
			slog.String("type", entry.Task.Type()),
			slog.String("spec", entry.Spec),
			slog.String("entry_id", id))
	}
	return scheduler, nil
}
