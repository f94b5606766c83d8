// internal/workers/donation_processor.go
package workers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/ammerola/bloodbank-be/internal/core/domain"
	"github.com/ammerola/bloodbank-be/internal/core/ports"
)

// DonationProcessor turns recorded donations into inventory units
type DonationProcessor struct {
	service ports.InventoryService
	logger  *slog.Logger
}

// NewDonationProcessor creates a new donation processor
func NewDonationProcessor(service ports.InventoryService, logger *slog.Logger) *DonationProcessor {
	return &DonationProcessor{
		service: service,
		logger:  logger.With(slog.String("processor", "donation")),
	}
}

// ProcessDonation ingests one donation. Bad payloads are logged and dropped
// without retry; infrastructure failures are retried by the queue.
func (p *DonationProcessor) ProcessDonation(ctx context.Context, t *asynq.Task) error {
	var payload DonationRecordedPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}

	group, err := domain.ParseBloodGroup(payload.BloodGroup)
	if err != nil {
		p.logger.ErrorContext(ctx, "rejected donation with unknown blood group",
			slog.String("donation_id", payload.DonationID),
			slog.String("blood_group", payload.BloodGroup))
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	actor := payload.Actor
	if actor == "" {
		actor = domain.SystemActor
	}

	change, err := p.service.AddFromDonation(ctx, ports.DonationCommand{
		BloodGroup:    group,
		Units:         payload.Units,
		DonationID:    payload.DonationID,
		CollectedDate: payload.CollectedDate,
		Actor:         actor,
	})
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			p.logger.ErrorContext(ctx, "rejected invalid donation",
				slog.String("donation_id", payload.DonationID),
				slog.String("error", err.Error()))
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		return fmt.Errorf("failed to add donation %s: %w", payload.DonationID, err)
	}

	p.logger.InfoContext(ctx, "donation ingested",
		slog.String("donation_id", payload.DonationID),
		slog.String("blood_group", group.String()),
		slog.Int("units_added", change.Count))

	return nil
}
