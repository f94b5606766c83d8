// internal/workers/alert_processor.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/ammerola/bloodbank-be/internal/core/domain"
)

// AlertProcessor delivers stock alerts to staff. Delivery is a structured
// log record per recipient; channel integrations consume the log stream.
type AlertProcessor struct {
	recipients []string
	logger     *slog.Logger
}

// NewAlertProcessor creates a new alert processor
func NewAlertProcessor(recipients []string, logger *slog.Logger) *AlertProcessor {
	return &AlertProcessor{
		recipients: recipients,
		logger:     logger.With(slog.String("processor", "alert")),
	}
}

// DeliverAlert handles a queued stock alert
func (p *AlertProcessor) DeliverAlert(ctx context.Context, t *asynq.Task) error {
	var alert domain.StockAlert
	if err := json.Unmarshal(t.Payload(), &alert); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}
	if !alert.BloodGroup.Valid() {
		return fmt.Errorf("alert for unknown blood group %q: %w", alert.BloodGroup, asynq.SkipRetry)
	}

	message := alertMessage(alert)
	if len(p.recipients) == 0 {
		p.logger.WarnContext(ctx, "stock alert without recipients",
			slog.String("blood_group", alert.BloodGroup.String()),
			slog.String("kind", string(alert.Kind)),
			slog.String("message", message))
		return nil
	}

	for _, to := range p.recipients {
		p.logger.WarnContext(ctx, "stock alert",
			slog.String("to", to),
			slog.String("blood_group", alert.BloodGroup.String()),
			slog.String("kind", string(alert.Kind)),
			slog.Int("units_available", alert.UnitsAvailable),
			slog.String("message", message))
	}
	return nil
}

func alertMessage(alert domain.StockAlert) string {
	switch alert.Kind {
	case domain.AlertLowStock:
		return fmt.Sprintf("Low stock: %s has %d units available (threshold %d)",
			alert.BloodGroup, alert.UnitsAvailable, alert.Threshold)
	case domain.AlertExpired:
		return fmt.Sprintf("%d units of %s expired; %d units available",
			alert.Count, alert.BloodGroup, alert.UnitsAvailable)
	default:
		return fmt.Sprintf("Inventory alert for %s", alert.BloodGroup)
	}
}
