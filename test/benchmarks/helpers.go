// test/benchmarks/helpers.go
package benchmarks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ammerola/bloodbank-be/internal/adapters/memory"
	"github.com/ammerola/bloodbank-be/internal/core/domain"
	"github.com/ammerola/bloodbank-be/internal/core/ports"
	"github.com/ammerola/bloodbank-be/internal/core/services"
)

// quietLogger discards all output
func quietLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// createBenchmarkService builds a service over the in-memory store
func createBenchmarkService() *services.InventoryService {
	logger := quietLogger()
	return services.NewInventoryService(memory.NewLedgerRepository(logger), services.Options{}, logger)
}

// stockAllGroups adds units to every blood group
func stockAllGroups(svc *services.InventoryService, units int) error {
	ctx := context.Background()
	for _, group := range domain.AllBloodGroups {
		if _, err := svc.AddUnits(ctx, ports.AddUnitsCommand{
			BloodGroup: group,
			Units:      units,
			Actor:      "bench",
		}); err != nil {
			return fmt.Errorf("failed to stock %s: %w", group, err)
		}
	}
	return nil
}

// createLargeLedger builds a ledger with units spread over the shelf life
// and a mix of statuses
func createLargeLedger(group domain.BloodGroup, units int, now time.Time) *domain.InventoryLedger {
	l := domain.NewInventoryLedger(group, domain.DefaultLocation, now.AddDate(0, 0, -domain.ShelfLifeDays))
	for i := 0; i < units; i++ {
		collected := now.AddDate(0, 0, -(i % (domain.ShelfLifeDays + 5)))
		_, _ = l.AddUnits(1, collected, "bench", "", now)
	}
	_, _ = l.Reserve(units/4, "bench-request", "bench", now)
	l.CommitChanges()
	return l
}
