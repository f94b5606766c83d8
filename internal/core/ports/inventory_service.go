// internal/core/ports/inventory_service.go
package ports

import (
	"context"
	"time"

	"github.com/ammerola/bloodbank-be/internal/core/domain"
)

// InventoryService defines the application service port for the blood inventory.
// This interface is implemented by the application service.
type InventoryService interface {
	ListInventory(ctx context.Context) (*domain.SystemSummary, error)
	GetStats(ctx context.Context) (*domain.Stats, error)
	GetLedger(ctx context.Context, group domain.BloodGroup) (*domain.LedgerDetail, error)
	GetHistory(ctx context.Context, group domain.BloodGroup, limit int) ([]domain.LedgerEvent, error)

	AddUnits(ctx context.Context, cmd AddUnitsCommand) (*LedgerChange, error)
	AddFromDonation(ctx context.Context, cmd DonationCommand) (*LedgerChange, error)
	Reserve(ctx context.Context, cmd ReservationCommand) (*LedgerChange, error)
	Issue(ctx context.Context, cmd ReservationCommand) (*LedgerChange, error)
	Unreserve(ctx context.Context, cmd UnreserveCommand) (*LedgerChange, error)
	Discard(ctx context.Context, cmd DiscardCommand) (*LedgerChange, error)
	MarkExpired(ctx context.Context, group domain.BloodGroup, actor string) (*LedgerChange, error)
	CheckAllExpiry(ctx context.Context, actor string) (*domain.ExpiryReport, error)
}

// DonationIngestor accepts donation events from the donation recorder.
// Failures are logged and never returned to the caller.
type DonationIngestor interface {
	IngestDonation(ctx context.Context, cmd DonationCommand)
}

// AddUnitsCommand adds manually collected units
type AddUnitsCommand struct {
	BloodGroup    domain.BloodGroup
	Units         int
	CollectedDate time.Time
	Reason        string
	Actor         string
}

// DonationCommand adds the units of a recorded donation
type DonationCommand struct {
	BloodGroup    domain.BloodGroup `json:"blood_group"`
	Units         int               `json:"units"`
	DonationID    string            `json:"donation_id"`
	CollectedDate time.Time         `json:"collected_date"`
	Actor         string            `json:"actor"`
}

// ReservationCommand reserves or issues units for a request
type ReservationCommand struct {
	BloodGroup domain.BloodGroup
	Units      int
	RequestID  string
	Actor      string
}

// UnreserveCommand releases every unit held for a request
type UnreserveCommand struct {
	BloodGroup domain.BloodGroup
	RequestID  string
	Actor      string
}

// DiscardCommand writes off specific units
type DiscardCommand struct {
	BloodGroup domain.BloodGroup
	UnitIDs    []string
	Reason     string
	Actor      string
}

// LedgerChange describes the result of a ledger mutation
type LedgerChange struct {
	Summary domain.LedgerSummary `json:"inventory"`
	Units   []domain.BloodUnit   `json:"units,omitempty"`
	Count   int                  `json:"count"`
}
