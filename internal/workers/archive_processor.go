// internal/workers/archive_processor.go
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

const defaultArchiveLimit = 5000

// ArchiveProcessor copies ledger history to long-term storage. History is
// never removed from the ledger.
type ArchiveProcessor struct {
	repo     ports.LedgerRepository
	archiver ports.HistoryArchiver
	logger   *slog.Logger
}

// NewArchiveProcessor creates a new archive processor
func NewArchiveProcessor(repo ports.LedgerRepository, archiver ports.HistoryArchiver, logger *slog.Logger) *ArchiveProcessor {
	return &ArchiveProcessor{
		repo:     repo,
		archiver: archiver,
		logger:   logger.With(slog.String("processor", "archive")),
	}
}

// ArchiveHistory snapshots the history of the selected ledgers
func (p *ArchiveProcessor) ArchiveHistory(ctx context.Context, t *asynq.Task) error {
	var payload ArchiveHistoryPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("failed to unmarshal payload: %v: %w", err, asynq.SkipRetry)
		}
	}
	if payload.Limit <= 0 {
		payload.Limit = defaultArchiveLimit
	}

	groups := domain.AllBloodGroups
	if len(payload.BloodGroups) > 0 {
		groups = make([]domain.BloodGroup, 0, len(payload.BloodGroups))
		for _, raw := range payload.BloodGroups {
			g, err := domain.ParseBloodGroup(raw)
			if err != nil {
				return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
			}
			groups = append(groups, g)
		}
	}

	var errs []error
	archived := 0
	for _, group := range groups {
		events, err := p.repo.History(ctx, group, payload.Limit, 0)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to load history for %s: %w", group, err))
			continue
		}
		if len(events) == 0 {
			continue
		}

		key, err := p.archiver.ArchiveHistory(ctx, group, events)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to archive history for %s: %w", group, err))
			continue
		}
		archived++

		p.logger.InfoContext(ctx, "history archived",
			slog.String("blood_group", group.String()),
			slog.Int("events", len(events)),
			slog.String("key", key))
	}

	p.logger.InfoContext(ctx, "history archive finished",
		slog.Int("ledgers_archived", archived),
		slog.Int("failures", len(errs)))

	return errors.Join(errs...)
}
