// internal/core/ports/ledger_repository.go
package ports

import (
	"context"

	"github.com/ammerola/bloodbank-be/internal/core/domain"
)

// LedgerRepository defines the persistence port for inventory ledgers.
// Implementations serialize Update calls per blood group.
type LedgerRepository interface {
	// Get returns the ledger with its units and most recent history, or nil if absent.
	Get(ctx context.Context, group domain.BloodGroup) (*domain.InventoryLedger, error)
	// List returns every stored ledger with units but without history.
	List(ctx context.Context) ([]*domain.InventoryLedger, error)
	// History returns events newest first.
	History(ctx context.Context, group domain.BloodGroup, limit, offset int) ([]domain.LedgerEvent, error)
	// Update loads the ledger under lock, applies fn and persists its changes
	// atomically. A missing ledger is created when create is true and yields a
	// NotFoundError otherwise. The returned ledger keeps its change tracking so
	// callers can inspect NewEvents.
	Update(ctx context.Context, group domain.BloodGroup, create bool, fn func(*domain.InventoryLedger) error) (*domain.InventoryLedger, error)
}
