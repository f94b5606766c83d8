// internal/core/services/inventory.go
package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ammerola/bloodbank-be/internal/core/domain"
	"github.com/ammerola/bloodbank-be/internal/core/ports"
)

var (
	cacheKeySummary = ports.BuildCacheKey(ports.CachePrefixInventory, "summary")
	cacheKeyStats   = ports.BuildCacheKey(ports.CachePrefixInventory, "stats")
	cachePattern    = ports.BuildCacheKey(ports.CachePrefixInventory, "*")
)

// InventoryService handles blood inventory business logic. Mutations on one
// blood group are serialized; different groups proceed in parallel.
type InventoryService struct {
	repo   ports.LedgerRepository
	opts   Options
	locks  map[domain.BloodGroup]*sync.Mutex
	logger *slog.Logger
}

// Statically assert that *InventoryService implements the service ports.
var (
	_ ports.InventoryService = (*InventoryService)(nil)
	_ ports.DonationIngestor = (*InventoryService)(nil)
)

// NewInventoryService creates a new inventory service
func NewInventoryService(repo ports.LedgerRepository, opts Options, logger *slog.Logger) *InventoryService {
	opts.applyDefaults()

	locks := make(map[domain.BloodGroup]*sync.Mutex, len(domain.AllBloodGroups))
	for _, g := range domain.AllBloodGroups {
		locks[g] = &sync.Mutex{}
	}

	return &InventoryService{
		repo:   repo,
		opts:   opts,
		locks:  locks,
		logger: logger.With(slog.String("component", "inventory_service")),
	}
}

// ListInventory returns every ledger's summary with system totals
func (s *InventoryService) ListInventory(ctx context.Context) (*domain.SystemSummary, error) {
	fetch := func() (interface{}, error) {
		ledgers, err := s.repo.List(ctx)
		if err != nil {
			return nil, err
		}
		return domain.Summarize(ledgers, s.opts.Clock(), s.opts.LowStockThreshold), nil
	}

	var summary domain.SystemSummary
	if err := s.readThrough(ctx, cacheKeySummary, &summary, fetch); err != nil {
		return nil, fmt.Errorf("failed to list inventory: %w", err)
	}
	return &summary, nil
}

// GetStats returns unit counts by status across all ledgers
func (s *InventoryService) GetStats(ctx context.Context) (*domain.Stats, error) {
	fetch := func() (interface{}, error) {
		ledgers, err := s.repo.List(ctx)
		if err != nil {
			return nil, err
		}
		return domain.ComputeStats(ledgers, s.opts.Clock()), nil
	}

	var stats domain.Stats
	if err := s.readThrough(ctx, cacheKeyStats, &stats, fetch); err != nil {
		return nil, fmt.Errorf("failed to get inventory stats: %w", err)
	}
	return &stats, nil
}

// GetLedger returns the full detail of one ledger. A group that has never
// received units yields an empty ledger.
func (s *InventoryService) GetLedger(ctx context.Context, group domain.BloodGroup) (*domain.LedgerDetail, error) {
	if err := validateGroup(group); err != nil {
		return nil, err
	}

	now := s.opts.Clock()
	ledger, err := s.repo.Get(ctx, group)
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger %s: %w", group, err)
	}
	if ledger == nil {
		ledger = domain.NewInventoryLedger(group, s.opts.Location, now)
	}

	return ledger.Detail(now), nil
}

// GetHistory returns the ledger's events newest first
func (s *InventoryService) GetHistory(ctx context.Context, group domain.BloodGroup, limit int) ([]domain.LedgerEvent, error) {
	if err := validateGroup(group); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	events, err := s.repo.History(ctx, group, limit, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to get history for %s: %w", group, err)
	}
	if events == nil {
		events = []domain.LedgerEvent{}
	}
	return events, nil
}

// AddUnits adds manually collected units, creating the ledger if needed
func (s *InventoryService) AddUnits(ctx context.Context, cmd ports.AddUnitsCommand) (*ports.LedgerChange, error) {
	var added []domain.BloodUnit
	ledger, err := s.mutate(ctx, cmd.BloodGroup, true, func(l *domain.InventoryLedger, now time.Time) error {
		var err error
		added, err = l.AddUnits(cmd.Units, cmd.CollectedDate, cmd.Actor, cmd.Reason, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "added blood units",
		slog.String("blood_group", cmd.BloodGroup.String()),
		slog.Int("units", len(added)),
		slog.String("performed_by", cmd.Actor))

	return s.change(ledger, added, len(added)), nil
}

// AddFromDonation adds the units of a recorded donation. Re-delivery of the
// same donation id adds nothing.
func (s *InventoryService) AddFromDonation(ctx context.Context, cmd ports.DonationCommand) (*ports.LedgerChange, error) {
	var added []domain.BloodUnit
	ledger, err := s.mutate(ctx, cmd.BloodGroup, true, func(l *domain.InventoryLedger, now time.Time) error {
		var err error
		added, err = l.AddFromDonation(cmd.Units, cmd.DonationID, cmd.CollectedDate, cmd.Actor, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	if len(added) == 0 {
		s.logger.InfoContext(ctx, "donation already ingested",
			slog.String("donation_id", cmd.DonationID),
			slog.String("blood_group", cmd.BloodGroup.String()))
	} else {
		s.logger.InfoContext(ctx, "added units from donation",
			slog.String("donation_id", cmd.DonationID),
			slog.String("blood_group", cmd.BloodGroup.String()),
			slog.Int("units", len(added)))
	}

	return s.change(ledger, added, len(added)), nil
}

// IngestDonation records a donation's units and only logs failures, so the
// donation itself is never affected by inventory bookkeeping.
func (s *InventoryService) IngestDonation(ctx context.Context, cmd ports.DonationCommand) {
	if _, err := s.AddFromDonation(ctx, cmd); err != nil {
		s.logger.ErrorContext(ctx, "failed to add donation to inventory",
			slog.String("donation_id", cmd.DonationID),
			slog.String("blood_group", cmd.BloodGroup.String()),
			slog.Int("units", cmd.Units),
			slog.String("error", err.Error()))
	}
}

// Reserve holds units for a request, oldest expiry first, all or nothing
func (s *InventoryService) Reserve(ctx context.Context, cmd ports.ReservationCommand) (*ports.LedgerChange, error) {
	var reserved []domain.BloodUnit
	ledger, err := s.mutate(ctx, cmd.BloodGroup, false, func(l *domain.InventoryLedger, now time.Time) error {
		var err error
		reserved, err = l.Reserve(cmd.Units, cmd.RequestID, cmd.Actor, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "reserved blood units",
		slog.String("blood_group", cmd.BloodGroup.String()),
		slog.String("blood_request_id", cmd.RequestID),
		slog.Int("units", len(reserved)))

	return s.change(ledger, reserved, len(reserved)), nil
}

// Issue hands out units previously reserved for a request
func (s *InventoryService) Issue(ctx context.Context, cmd ports.ReservationCommand) (*ports.LedgerChange, error) {
	var issued []domain.BloodUnit
	ledger, err := s.mutate(ctx, cmd.BloodGroup, false, func(l *domain.InventoryLedger, now time.Time) error {
		var err error
		issued, err = l.Issue(cmd.Units, cmd.RequestID, cmd.Actor, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "issued blood units",
		slog.String("blood_group", cmd.BloodGroup.String()),
		slog.String("blood_request_id", cmd.RequestID),
		slog.Int("units", len(issued)))

	return s.change(ledger, issued, len(issued)), nil
}

// Unreserve releases every unit held for a request
func (s *InventoryService) Unreserve(ctx context.Context, cmd ports.UnreserveCommand) (*ports.LedgerChange, error) {
	var released int
	ledger, err := s.mutate(ctx, cmd.BloodGroup, false, func(l *domain.InventoryLedger, now time.Time) error {
		var err error
		released, err = l.Unreserve(cmd.RequestID, cmd.Actor, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "unreserved blood units",
		slog.String("blood_group", cmd.BloodGroup.String()),
		slog.String("blood_request_id", cmd.RequestID),
		slog.Int("units", released))

	return s.change(ledger, nil, released), nil
}

// Discard writes off specific units, skipping ones that cannot be discarded
func (s *InventoryService) Discard(ctx context.Context, cmd ports.DiscardCommand) (*ports.LedgerChange, error) {
	if len(cmd.UnitIDs) == 0 {
		return nil, &domain.ValidationError{Field: "unit_ids", Message: "must not be empty"}
	}

	var discarded int
	ledger, err := s.mutate(ctx, cmd.BloodGroup, false, func(l *domain.InventoryLedger, now time.Time) error {
		discarded = l.Discard(cmd.UnitIDs, cmd.Reason, cmd.Actor, now)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "discarded blood units",
		slog.String("blood_group", cmd.BloodGroup.String()),
		slog.Int("requested", len(cmd.UnitIDs)),
		slog.Int("discarded", discarded))

	return s.change(ledger, nil, discarded), nil
}

// MarkExpired expires the due units of one group
func (s *InventoryService) MarkExpired(ctx context.Context, group domain.BloodGroup, actor string) (*ports.LedgerChange, error) {
	var expired int
	ledger, err := s.mutate(ctx, group, false, func(l *domain.InventoryLedger, now time.Time) error {
		expired = l.MarkExpired(actor, now)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if expired > 0 {
		s.logger.InfoContext(ctx, "marked units expired",
			slog.String("blood_group", group.String()),
			slog.Int("units", expired))
	}

	return s.change(ledger, nil, expired), nil
}

// CheckAllExpiry sweeps every stored ledger in parallel. Groups without a
// ledger are skipped.
func (s *InventoryService) CheckAllExpiry(ctx context.Context, actor string) (*domain.ExpiryReport, error) {
	counts := make([]int, len(domain.AllBloodGroups))

	g, gctx := errgroup.WithContext(ctx)
	for i, group := range domain.AllBloodGroups {
		g.Go(func() error {
			change, err := s.MarkExpired(gctx, group, actor)
			if err != nil {
				if domain.IsDomainError(err) {
					return nil
				}
				return err
			}
			counts[i] = change.Count
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to check expiry: %w", err)
	}

	report := &domain.ExpiryReport{
		Results:   []domain.ExpiryResult{},
		CheckedAt: s.opts.Clock(),
	}
	for i, group := range domain.AllBloodGroups {
		if counts[i] > 0 {
			report.Results = append(report.Results, domain.ExpiryResult{BloodGroup: group, ExpiredCount: counts[i]})
			report.TotalExpired += counts[i]
		}
	}

	s.logger.InfoContext(ctx, "expiry check completed",
		slog.Int("total_expired", report.TotalExpired),
		slog.Int("groups_affected", len(report.Results)))

	return report, nil
}

// mutate applies fn to the group's ledger under the group lock and runs the
// post-commit side effects.
func (s *InventoryService) mutate(ctx context.Context, group domain.BloodGroup, create bool,
	fn func(*domain.InventoryLedger, time.Time) error) (*domain.InventoryLedger, error) {

	if err := validateGroup(group); err != nil {
		return nil, err
	}

	mu := s.locks[group]
	mu.Lock()
	defer mu.Unlock()

	now := s.opts.Clock()
	ledger, err := s.repo.Update(ctx, group, create, func(l *domain.InventoryLedger) error {
		if l.Version == 0 && s.opts.Location != "" {
			l.Location = s.opts.Location
		}
		return fn(l, now)
	})
	if err != nil {
		if domain.IsDomainError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update ledger %s: %w", group, err)
	}

	if ledger.HasChanges() {
		s.afterCommit(ctx, ledger, now)
	}
	return ledger, nil
}

// afterCommit invalidates cached views, publishes new events and raises
// alerts. Failures here are logged and never undo the committed change.
func (s *InventoryService) afterCommit(ctx context.Context, ledger *domain.InventoryLedger, now time.Time) {
	if s.opts.Cache != nil {
		if err := s.opts.Cache.DeletePattern(ctx, cachePattern); err != nil {
			s.logger.WarnContext(ctx, "failed to invalidate inventory cache",
				slog.String("error", err.Error()))
		}
	}

	events := ledger.NewEvents()

	if s.opts.Publisher != nil && len(events) > 0 {
		msgs := make([]domain.LedgerEventMessage, 0, len(events))
		for _, e := range events {
			msgs = append(msgs, domain.LedgerEventMessage{
				BloodGroup:     ledger.BloodGroup,
				Event:          e,
				UnitsAvailable: ledger.UnitsAvailable,
				UnitsReserved:  ledger.UnitsReserved,
				Version:        ledger.Version,
			})
		}
		if err := s.opts.Publisher.PublishLedgerEvents(ctx, msgs); err != nil {
			s.logger.WarnContext(ctx, "failed to publish ledger events",
				slog.String("blood_group", ledger.BloodGroup.String()),
				slog.Int("events", len(msgs)),
				slog.String("error", err.Error()))
		}
	}

	if s.opts.Alerts != nil {
		for _, alert := range s.alertsFor(ledger, events, now) {
			if err := s.opts.Alerts.NotifyStockAlert(ctx, alert); err != nil {
				s.logger.WarnContext(ctx, "failed to raise stock alert",
					slog.String("blood_group", ledger.BloodGroup.String()),
					slog.String("kind", string(alert.Kind)),
					slog.String("error", err.Error()))
			}
		}
	}
}

// alertsFor decides which alerts a committed change raises. Low stock is
// only reported when the change reduced availability.
func (s *InventoryService) alertsFor(ledger *domain.InventoryLedger, events []domain.LedgerEvent, now time.Time) []domain.StockAlert {
	var alerts []domain.StockAlert
	reduced := false
	for _, e := range events {
		switch e.Action {
		case domain.ActionReserved, domain.ActionDiscarded:
			reduced = true
		case domain.ActionExpired:
			reduced = true
			alerts = append(alerts, domain.StockAlert{
				BloodGroup:     ledger.BloodGroup,
				Kind:           domain.AlertExpired,
				UnitsAvailable: ledger.UnitsAvailable,
				Count:          e.Units,
				RaisedAt:       now,
			})
		}
	}

	if reduced && ledger.UnitsAvailable < s.opts.LowStockThreshold {
		alerts = append(alerts, domain.StockAlert{
			BloodGroup:     ledger.BloodGroup,
			Kind:           domain.AlertLowStock,
			UnitsAvailable: ledger.UnitsAvailable,
			Threshold:      s.opts.LowStockThreshold,
			RaisedAt:       now,
		})
	}
	return alerts
}

func (s *InventoryService) readThrough(ctx context.Context, key string, dest interface{}, fetch func() (interface{}, error)) error {
	if s.opts.Cache == nil {
		value, err := fetch()
		if err != nil {
			return err
		}
		return assign(dest, value)
	}
	return s.opts.Cache.GetOrSet(ctx, key, dest, fetch, s.opts.CacheTTL)
}

func (s *InventoryService) change(ledger *domain.InventoryLedger, units []domain.BloodUnit, count int) *ports.LedgerChange {
	return &ports.LedgerChange{
		Summary: ledger.Summary(s.opts.Clock(), s.opts.LowStockThreshold),
		Units:   units,
		Count:   count,
	}
}

func assign(dest, value interface{}) error {
	switch d := dest.(type) {
	case *domain.SystemSummary:
		*d = value.(domain.SystemSummary)
	case *domain.Stats:
		*d = value.(domain.Stats)
	default:
		return fmt.Errorf("unsupported destination %T", dest)
	}
	return nil
}

func validateGroup(group domain.BloodGroup) error {
	if !group.Valid() {
		return &domain.ValidationError{Field: "blood_group", Message: fmt.Sprintf("unknown blood group %q", group)}
	}
	return nil
}
