// Package memory provides an in-process LedgerRepository used for local
// development and tests.
package memory

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ammerola/bloodbank-be/internal/core/domain"
	"github.com/ammerola/bloodbank-be/internal/core/ports"
)

// LedgerRepository keeps ledgers in memory. Update works on a clone and swaps
// it in only when fn succeeds, so a failed operation leaves nothing behind.
type LedgerRepository struct {
	mu      sync.RWMutex
	ledgers map[domain.BloodGroup]*domain.InventoryLedger
	nowFn   func() time.Time
	logger  *slog.Logger
}

// Statically assert that *LedgerRepository implements the LedgerRepository interface.
var _ ports.LedgerRepository = (*LedgerRepository)(nil)

// NewLedgerRepository creates an empty repository
func NewLedgerRepository(logger *slog.Logger) *LedgerRepository {
	return &LedgerRepository{
		ledgers: make(map[domain.BloodGroup]*domain.InventoryLedger),
		nowFn:   func() time.Time { return time.Now().UTC() },
		logger:  logger.With(slog.String("repository", "memory_ledger")),
	}
}

// Get returns a copy of the ledger with its most recent history
func (r *LedgerRepository) Get(ctx context.Context, group domain.BloodGroup) (*domain.InventoryLedger, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.ledgers[group]
	if !ok {
		return nil, nil
	}

	c := stored.Clone()
	if n := len(c.History); n > domain.DetailHistoryLimit {
		c.History = c.History[n-domain.DetailHistoryLimit:]
	}
	return c, nil
}

// List returns copies of every ledger without history
func (r *LedgerRepository) List(ctx context.Context) ([]*domain.InventoryLedger, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.InventoryLedger, 0, len(r.ledgers))
	for _, stored := range r.ledgers {
		c := stored.Clone()
		c.History = nil
		out = append(out, c)
	}
	return domain.SortLedgers(out), nil
}

// History returns events newest first
func (r *LedgerRepository) History(ctx context.Context, group domain.BloodGroup, limit, offset int) ([]domain.LedgerEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.ledgers[group]
	if !ok {
		return []domain.LedgerEvent{}, nil
	}

	newest := stored.RecentHistory(0)
	if offset >= len(newest) {
		return []domain.LedgerEvent{}, nil
	}
	newest = newest[offset:]
	if limit > 0 && limit < len(newest) {
		newest = newest[:limit]
	}
	return newest, nil
}

// Update applies fn to a working copy of the ledger and stores it on success
func (r *LedgerRepository) Update(ctx context.Context, group domain.BloodGroup, create bool,
	fn func(*domain.InventoryLedger) error) (*domain.InventoryLedger, error) {

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var working *domain.InventoryLedger
	if stored, ok := r.ledgers[group]; ok {
		working = stored.Clone()
	} else if create {
		working = domain.NewInventoryLedger(group, "", r.nowFn())
	} else {
		return nil, &domain.NotFoundError{Resource: "inventory ledger", ID: string(group)}
	}

	if err := fn(working); err != nil {
		return nil, err
	}
	if !working.HasChanges() {
		return working, nil
	}

	working.Version++
	r.ledgers[group] = working.Clone()

	r.logger.DebugContext(ctx, "ledger updated",
		slog.String("blood_group", string(group)),
		slog.Int64("version", working.Version),
		slog.Int("changed_units", len(working.ChangedUnits())),
		slog.Int("new_events", len(working.NewEvents())))

	return working, nil
}
