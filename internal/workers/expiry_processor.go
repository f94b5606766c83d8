// internal/workers/expiry_processor.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/ammerola/bloodbank-be/internal/core/domain"
	"github.com/ammerola/bloodbank-be/internal/core/ports"
)

// ExpiryProcessor runs the periodic expiry sweep
type ExpiryProcessor struct {
	service ports.InventoryService
	logger  *slog.Logger
}

// NewExpiryProcessor creates a new expiry processor
func NewExpiryProcessor(service ports.InventoryService, logger *slog.Logger) *ExpiryProcessor {
	return &ExpiryProcessor{
		service: service,
		logger:  logger.With(slog.String("processor", "expiry")),
	}
}

// CheckExpiry marks every due unit expired across all ledgers
func (p *ExpiryProcessor) CheckExpiry(ctx context.Context, t *asynq.Task) error {
	var payload ExpiryCheckPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("failed to unmarshal payload: %v: %w", err, asynq.SkipRetry)
		}
	}
	if payload.Actor == "" {
		payload.Actor = domain.SystemActor
	}

	report, err := p.service.CheckAllExpiry(ctx, payload.Actor)
	if err != nil {
		return fmt.Errorf("expiry check failed: %w", err)
	}

	p.logger.InfoContext(ctx, "expiry sweep finished",
		slog.Int("total_expired", report.TotalExpired),
		slog.Any("results", report.Results))

	return nil
}
