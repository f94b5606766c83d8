package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/ammerola/bloodbank-be/internal/adapters/db"
	"github.com/ammerola/bloodbank-be/internal/adapters/memory"
	"github.com/ammerola/bloodbank-be/internal/core/domain"
	"github.com/ammerola/bloodbank-be/internal/core/ports"
	"github.com/ammerola/bloodbank-be/internal/core/services"
	"github.com/ammerola/bloodbank-be/internal/pkg/logger"
)

// seedStock is the starting number of units per group
var seedStock = map[domain.BloodGroup]int{
	domain.GroupOPos:  15,
	domain.GroupONeg:  8,
	domain.GroupAPos:  12,
	domain.GroupANeg:  6,
	domain.GroupBPos:  10,
	domain.GroupBNeg:  5,
	domain.GroupABPos: 7,
	domain.GroupABNeg: 4,
}

const seedActor = "seeder"

// donations splits units into seed donations of at most MaxUnitsPerDonation,
// spreading collection dates over the past spreadDays so that some units are
// close to expiry
func donations(group domain.BloodGroup, units, spreadDays int, now time.Time) []ports.DonationCommand {
	var cmds []ports.DonationCommand
	for i := 0; units > 0; i++ {
		n := min(units, domain.MaxUnitsPerDonation)
		units -= n

		daysAgo := 0
		if spreadDays > 0 {
			daysAgo = (i * 3) % spreadDays
		}
		cmds = append(cmds, ports.DonationCommand{
			BloodGroup:    group,
			Units:         n,
			DonationID:    fmt.Sprintf("SEED-%s-%03d", strings.NewReplacer("+", "POS", "-", "NEG").Replace(string(group)), i+1),
			CollectedDate: now.AddDate(0, 0, -daysAgo),
			Actor:         seedActor,
		})
	}
	return cmds
}

func main() {
	var (
		logLevel = flag.String("log-level", "info", "Log level (debug, info, warn, error)")
		spread   = flag.Int("spread-days", 30, "Spread collection dates over this many past days")
		dryRun   = flag.Bool("dry-run", false, "Seed an in-memory store and print the result")
	)
	flag.Parse()

	slogger := logger.SetupLogger(*logLevel, "json")
	ctx := context.Background()

	var repo ports.LedgerRepository
	if *dryRun {
		repo = memory.NewLedgerRepository(slogger)
	} else {
		dbConfig := db.DefaultConfig()
		dbConfig.Host = getEnv("DB_HOST", dbConfig.Host)
		dbConfig.Port = getEnv("DB_PORT", dbConfig.Port)
		dbConfig.User = getEnv("DB_USER", "bloodbank")
		dbConfig.Password = getEnv("DB_PASSWORD", "bloodbank_dev")
		dbConfig.Database = getEnv("DB_NAME", "bloodbank")
		dbConfig.SSLMode = getEnv("DB_SSL_MODE", "disable")

		database, err := db.NewDatabase(ctx, dbConfig, slogger)
		if err != nil {
			slogger.Error("Failed to connect to database", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer database.Close()

		if err := db.RunMigrationsWithRetry(ctx, &db.MigrationConfig{
			DatabaseURL: dbConfig.URL(),
			TableName:   "schema_migrations",
			SchemaName:  "public",
		}, slogger, 3); err != nil {
			slogger.Error("Failed to run migrations", slog.String("error", err.Error()))
			os.Exit(1)
		}
		repo = db.NewLedgerRepository(database, slogger)
	}

	svc := services.NewInventoryService(repo, services.Options{}, slogger)
	now := time.Now().UTC()

	totalUnits := 0
	failed := 0
	for _, group := range domain.AllBloodGroups {
		for _, cmd := range donations(group, seedStock[group], *spread, now) {
			change, err := svc.AddFromDonation(ctx, cmd)
			if err != nil {
				slogger.Error("Failed to seed donation",
					slog.String("donation_id", cmd.DonationID),
					slog.String("error", err.Error()))
				failed++
				continue
			}
			totalUnits += change.Count
		}
	}

	summary, err := svc.ListInventory(ctx)
	if err != nil {
		slogger.Error("Failed to read inventory", slog.String("error", err.Error()))
		os.Exit(1)
	}

	fmt.Println("\n" + strings.Repeat("=", 60))
	fmt.Println("SEEDING SUMMARY")
	fmt.Println(strings.Repeat("=", 60))
	for _, s := range summary.Ledgers {
		fmt.Printf("  %-4s available=%-3d reserved=%-3d expiring_soon=%d\n",
			s.BloodGroup, s.UnitsAvailable, s.UnitsReserved, s.ExpiringSoon)
	}
	fmt.Printf("Units added this run: %d\n", totalUnits)
	fmt.Printf("Total available: %d\n", summary.TotalAvailable)

	slogger.Info("Seed operation completed",
		slog.Int("units_added", totalUnits),
		slog.Int("failed_donations", failed))

	if *dryRun {
		fmt.Println("\n[DRY RUN] No changes were made to the database")
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
