// internal/core/services/inventory_service_test.go
package services_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/bloodbank-be/internal/adapters/memory"
	"github.com/ammerola/bloodbank-be/internal/core/domain"
	"github.com/ammerola/bloodbank-be/internal/core/ports"
	"github.com/ammerola/bloodbank-be/internal/core/services"
	"github.com/ammerola/bloodbank-be/internal/pkg/logger"
	"github.com/ammerola/bloodbank-be/test/helpers"
	"github.com/ammerola/bloodbank-be/test/mocks"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newMemoryService(t *testing.T, opts services.Options) (*services.InventoryService, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	if opts.Clock == nil {
		opts.Clock = clock.Now
	}
	repo := memory.NewLedgerRepository(helpers.TestLogger())
	return services.NewInventoryService(repo, opts, helpers.TestLogger()), clock
}

func addUnits(t *testing.T, svc *services.InventoryService, group domain.BloodGroup, n int) *ports.LedgerChange {
	t.Helper()
	change, err := svc.AddUnits(context.Background(), ports.AddUnitsCommand{
		BloodGroup: group,
		Units:      n,
		Actor:      "staff-1",
	})
	require.NoError(t, err)
	return change
}

func TestInventoryService_AddUnits(t *testing.T) {
	tests := []struct {
		name        string
		cmd         ports.AddUnitsCommand
		wantErr     error
		wantAdded   int
	}{
		{
			name:      "creates_ledger_on_first_addition",
			cmd:       ports.AddUnitsCommand{BloodGroup: domain.GroupOPos, Units: 3, Actor: "staff-1"},
			wantAdded: 3,
		},
		{
			name:    "rejects_zero_units",
			cmd:     ports.AddUnitsCommand{BloodGroup: domain.GroupOPos, Units: 0, Actor: "staff-1"},
			wantErr: domain.ErrValidation,
		},
		{
			name:    "rejects_unknown_group",
			cmd:     ports.AddUnitsCommand{BloodGroup: domain.BloodGroup("C+"), Units: 1, Actor: "staff-1"},
			wantErr: domain.ErrValidation,
		},
		{
			name: "rejects_future_collection_date",
			cmd: ports.AddUnitsCommand{
				BloodGroup:    domain.GroupANeg,
				Units:         1,
				CollectedDate: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
				Actor:         "staff-1",
			},
			wantErr: domain.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newMemoryService(t, services.Options{})

			change, err := svc.AddUnits(context.Background(), tt.cmd)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, change)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantAdded, change.Count)
			assert.Len(t, change.Units, tt.wantAdded)
			assert.Equal(t, tt.wantAdded, change.Summary.UnitsAvailable)
			assert.Equal(t, domain.DefaultLocation, change.Summary.Location)
			for _, u := range change.Units {
				assert.Equal(t, domain.UnitAvailable, u.Status)
			}
		})
	}
}

func TestInventoryService_ReserveIssueUnreserve(t *testing.T) {
	ctx := context.Background()
	svc, _ := newMemoryService(t, services.Options{})
	addUnits(t, svc, domain.GroupBPos, 6)

	reserved, err := svc.Reserve(ctx, ports.ReservationCommand{
		BloodGroup: domain.GroupBPos, Units: 4, RequestID: "req-1", Actor: "nurse",
	})
	require.NoError(t, err)
	assert.Equal(t, 4, reserved.Count)
	assert.Equal(t, 2, reserved.Summary.UnitsAvailable)
	assert.Equal(t, 4, reserved.Summary.UnitsReserved)

	_, err = svc.Reserve(ctx, ports.ReservationCommand{
		BloodGroup: domain.GroupBPos, Units: 3, RequestID: "req-2", Actor: "nurse",
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	issued, err := svc.Issue(ctx, ports.ReservationCommand{
		BloodGroup: domain.GroupBPos, Units: 2, RequestID: "req-1", Actor: "nurse",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, issued.Count)
	assert.Equal(t, 2, issued.Summary.UnitsReserved)
	for _, u := range issued.Units {
		assert.Equal(t, domain.UnitIssued, u.Status)
	}

	_, err = svc.Issue(ctx, ports.ReservationCommand{
		BloodGroup: domain.GroupBPos, Units: 1, RequestID: "req-other", Actor: "nurse",
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	released, err := svc.Unreserve(ctx, ports.UnreserveCommand{
		BloodGroup: domain.GroupBPos, RequestID: "req-1", Actor: "nurse",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, released.Count)
	assert.Equal(t, 4, released.Summary.UnitsAvailable)
	assert.Equal(t, 0, released.Summary.UnitsReserved)
}

func TestInventoryService_MutationsOnMissingLedger(t *testing.T) {
	ctx := context.Background()
	svc, _ := newMemoryService(t, services.Options{})

	_, err := svc.Reserve(ctx, ports.ReservationCommand{
		BloodGroup: domain.GroupABNeg, Units: 1, RequestID: "req-1", Actor: "nurse",
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.MarkExpired(ctx, domain.GroupABNeg, "system")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestInventoryService_ConcurrentReservesNeverOversell(t *testing.T) {
	ctx := context.Background()
	svc, _ := newMemoryService(t, services.Options{})
	addUnits(t, svc, domain.GroupONeg, 5)

	const workers = 10
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		short     int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.Reserve(ctx, ports.ReservationCommand{
				BloodGroup: domain.GroupONeg,
				Units:      1,
				RequestID:  "req-" + string(rune('a'+i)),
				Actor:      "nurse",
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, domain.ErrInsufficientStock):
				short++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 5, succeeded)
	assert.Equal(t, 5, short)

	detail, err := svc.GetLedger(ctx, domain.GroupONeg)
	require.NoError(t, err)
	assert.Equal(t, 0, detail.Ledger.UnitsAvailable)
	assert.Equal(t, 5, detail.Ledger.UnitsReserved)
}

func TestInventoryService_DonationIngestion(t *testing.T) {
	ctx := context.Background()
	svc, clock := newMemoryService(t, services.Options{})
	collected := clock.Now().Add(-2 * time.Hour)

	cmd := ports.DonationCommand{
		BloodGroup:    domain.GroupAPos,
		Units:         2,
		DonationID:    "don-1",
		CollectedDate: collected,
		Actor:         "recorder",
	}

	first, err := svc.AddFromDonation(ctx, cmd)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Count)
	for _, u := range first.Units {
		assert.Equal(t, "don-1", u.DonationID)
		assert.Equal(t, domain.ExpiryFor(collected), u.ExpiryDate)
	}

	again, err := svc.AddFromDonation(ctx, cmd)
	require.NoError(t, err)
	assert.Equal(t, 0, again.Count)
	assert.Equal(t, 2, again.Summary.UnitsAvailable)

	// failures are swallowed
	svc.IngestDonation(ctx, ports.DonationCommand{BloodGroup: domain.GroupAPos, Units: 0, DonationID: "don-2"})
	svc.IngestDonation(ctx, ports.DonationCommand{BloodGroup: domain.GroupAPos, Units: 1, DonationID: "don-3"})

	detail, err := svc.GetLedger(ctx, domain.GroupAPos)
	require.NoError(t, err)
	assert.Equal(t, 3, detail.Ledger.UnitsAvailable)
}

func TestInventoryService_IngestDonationToleratesClockSkew(t *testing.T) {
	ctx := context.Background()
	svc, clock := newMemoryService(t, services.Options{})

	svc.IngestDonation(ctx, ports.DonationCommand{
		BloodGroup:    domain.GroupONeg,
		Units:         1,
		DonationID:    "don-skew",
		CollectedDate: clock.Now().Add(2 * time.Second),
		Actor:         "recorder",
	})
	svc.IngestDonation(ctx, ports.DonationCommand{
		BloodGroup:    domain.GroupONeg,
		Units:         3,
		DonationID:    "don-camp",
		CollectedDate: clock.Now(),
		Actor:         "recorder",
	})

	detail, err := svc.GetLedger(ctx, domain.GroupONeg)
	require.NoError(t, err)
	assert.Equal(t, 4, detail.Ledger.UnitsAvailable)
	for _, u := range detail.Ledger.Units {
		assert.False(t, u.CollectedDate.After(clock.Now()))
	}
}

func TestInventoryService_Discard(t *testing.T) {
	ctx := context.Background()
	svc, _ := newMemoryService(t, services.Options{})
	added := addUnits(t, svc, domain.GroupBNeg, 3)

	_, err := svc.Discard(ctx, ports.DiscardCommand{BloodGroup: domain.GroupBNeg, Actor: "staff-1"})
	require.ErrorIs(t, err, domain.ErrValidation)

	change, err := svc.Discard(ctx, ports.DiscardCommand{
		BloodGroup: domain.GroupBNeg,
		UnitIDs:    []string{added.Units[0].UnitID, "BB-UNKNOWN"},
		Reason:     "Damaged bag",
		Actor:      "staff-1",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, change.Count)
	assert.Equal(t, 2, change.Summary.UnitsAvailable)
}

func TestInventoryService_CheckAllExpiry(t *testing.T) {
	ctx := context.Background()
	svc, clock := newMemoryService(t, services.Options{})
	addUnits(t, svc, domain.GroupOPos, 3)
	addUnits(t, svc, domain.GroupAPos, 2)

	_, err := svc.Reserve(ctx, ports.ReservationCommand{
		BloodGroup: domain.GroupOPos, Units: 1, RequestID: "req-1", Actor: "nurse",
	})
	require.NoError(t, err)

	report, err := svc.CheckAllExpiry(ctx, "system")
	require.NoError(t, err)
	assert.Equal(t, 0, report.TotalExpired)
	assert.Empty(t, report.Results)

	clock.Advance((domain.ShelfLifeDays + 1) * 24 * time.Hour)

	report, err = svc.CheckAllExpiry(ctx, "system")
	require.NoError(t, err)
	assert.Equal(t, 5, report.TotalExpired)
	assert.Equal(t, clock.Now(), report.CheckedAt)
	assert.ElementsMatch(t, []domain.ExpiryResult{
		{BloodGroup: domain.GroupOPos, ExpiredCount: 3},
		{BloodGroup: domain.GroupAPos, ExpiredCount: 2},
	}, report.Results)

	detail, err := svc.GetLedger(ctx, domain.GroupOPos)
	require.NoError(t, err)
	assert.Equal(t, 0, detail.Ledger.UnitsAvailable)
	assert.Equal(t, 0, detail.Ledger.UnitsReserved)

	report, err = svc.CheckAllExpiry(ctx, "system")
	require.NoError(t, err)
	assert.Equal(t, 0, report.TotalExpired)
}

func TestInventoryService_ReadViews(t *testing.T) {
	ctx := context.Background()
	svc, _ := newMemoryService(t, services.Options{LowStockThreshold: 3})
	addUnits(t, svc, domain.GroupOPos, 4)
	addUnits(t, svc, domain.GroupABPos, 1)

	summary, err := svc.ListInventory(ctx)
	require.NoError(t, err)
	require.Len(t, summary.Ledgers, 2)
	assert.Equal(t, 5, summary.TotalAvailable)
	for _, l := range summary.Ledgers {
		assert.Equal(t, l.BloodGroup == domain.GroupABPos, l.LowStock, l.BloodGroup)
	}

	stats, err := svc.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, stats.TotalAvailable)
	assert.Equal(t, 4, stats.ByBloodGroup[domain.GroupOPos].Available)

	empty, err := svc.GetLedger(ctx, domain.GroupBNeg)
	require.NoError(t, err)
	assert.Equal(t, domain.GroupBNeg, empty.Ledger.BloodGroup)
	assert.Equal(t, 0, empty.Ledger.UnitsAvailable)
	assert.Empty(t, empty.RecentHistory)

	history, err := svc.GetHistory(ctx, domain.GroupOPos, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, domain.ActionAdded, history[0].Action)

	none, err := svc.GetHistory(ctx, domain.GroupBNeg, 10)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	_, err = svc.GetLedger(ctx, domain.BloodGroup("Z"))
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestInventoryService_GetHistoryClampsLimit(t *testing.T) {
	tests := []struct {
		name      string
		limit     int
		wantLimit int
	}{
		{name: "zero_uses_default", limit: 0, wantLimit: 50},
		{name: "negative_uses_default", limit: -4, wantLimit: 50},
		{name: "within_bounds_kept", limit: 120, wantLimit: 120},
		{name: "above_max_clamped", limit: 10000, wantLimit: 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			repo := mocks.NewMockLedgerRepository(ctrl)
			repo.EXPECT().
				History(gomock.Any(), domain.GroupOPos, tt.wantLimit, 0).
				Return(nil, nil)

			svc := services.NewInventoryService(repo, services.Options{}, helpers.TestLogger())
			events, err := svc.GetHistory(context.Background(), domain.GroupOPos, tt.limit)
			require.NoError(t, err)
			assert.Empty(t, events)
		})
	}
}

func TestInventoryService_RepositoryErrors(t *testing.T) {
	dbErr := errors.New("connection reset")

	tests := []struct {
		name       string
		repoErr    error
		wantIs     error
		wantPrefix bool
	}{
		{name: "infrastructure_error_is_wrapped", repoErr: dbErr, wantIs: dbErr, wantPrefix: true},
		{
			name:    "conflict_passes_through",
			repoErr: &domain.ConflictError{Reason: "ledger O+ was modified concurrently"},
			wantIs:  domain.ErrConflict,
		},
		{
			name:    "not_found_passes_through",
			repoErr: &domain.NotFoundError{Resource: "ledger", ID: "O+"},
			wantIs:  domain.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			repo := mocks.NewMockLedgerRepository(ctrl)
			repo.EXPECT().
				Update(gomock.Any(), domain.GroupOPos, false, gomock.Any()).
				Return(nil, tt.repoErr)

			svc := services.NewInventoryService(repo, services.Options{}, helpers.TestLogger())
			_, err := svc.Reserve(context.Background(), ports.ReservationCommand{
				BloodGroup: domain.GroupOPos, Units: 1, RequestID: "req-1", Actor: "nurse",
			})

			require.ErrorIs(t, err, tt.wantIs)
			if tt.wantPrefix {
				assert.Contains(t, err.Error(), "failed to update ledger O+")
			} else {
				assert.Equal(t, tt.repoErr, err)
			}
		})
	}

	t.Run("list_error_is_wrapped", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockLedgerRepository(ctrl)
		repo.EXPECT().List(gomock.Any()).Return(nil, dbErr)

		svc := services.NewInventoryService(repo, services.Options{}, helpers.TestLogger())
		_, err := svc.ListInventory(context.Background())
		require.ErrorIs(t, err, dbErr)
		assert.Contains(t, err.Error(), "failed to list inventory")
	})

	t.Run("expiry_sweep_aborts_on_infrastructure_error", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockLedgerRepository(ctrl)
		repo.EXPECT().
			Update(gomock.Any(), domain.GroupBPos, false, gomock.Any()).
			Return(nil, dbErr).
			AnyTimes()
		repo.EXPECT().
			Update(gomock.Any(), gomock.Any(), false, gomock.Any()).
			Return(nil, &domain.NotFoundError{Resource: "ledger"}).
			AnyTimes()

		svc := services.NewInventoryService(repo, services.Options{}, helpers.TestLogger())
		_, err := svc.CheckAllExpiry(context.Background(), "system")
		require.ErrorIs(t, err, dbErr)
	})
}

func TestInventoryService_CacheInvalidation(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	cache := mocks.NewMockCacheRepository(ctrl)

	svc, _ := newMemoryService(t, services.Options{Cache: cache})

	cache.EXPECT().DeletePattern(gomock.Any(), "inventory:*").Return(nil).Times(1)
	addUnits(t, svc, domain.GroupOPos, 2)

	// nothing is due, so the ledger is untouched and the cache is kept
	_, err := svc.MarkExpired(ctx, domain.GroupOPos, "system")
	require.NoError(t, err)

	cache.EXPECT().DeletePattern(gomock.Any(), "inventory:*").Return(errors.New("redis down")).Times(1)
	change, err := svc.Reserve(ctx, ports.ReservationCommand{
		BloodGroup: domain.GroupOPos, Units: 1, RequestID: "req-1", Actor: "nurse",
	})
	require.NoError(t, err, "cache failures never fail a committed change")
	assert.Equal(t, 1, change.Summary.UnitsReserved)
}

func TestInventoryService_ListInventoryReadsThroughCache(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	cache := mocks.NewMockCacheRepository(ctrl)
	cached := domain.SystemSummary{TotalAvailable: 42}

	svc, _ := newMemoryService(t, services.Options{Cache: cache, CacheTTL: time.Minute})

	cache.EXPECT().
		GetOrSet(gomock.Any(), "inventory:summary", gomock.Any(), gomock.Any(), time.Minute).
		DoAndReturn(func(_ context.Context, _ string, dest any, _ func() (any, error), _ time.Duration) error {
			*dest.(*domain.SystemSummary) = cached
			return nil
		})

	summary, err := svc.ListInventory(ctx)
	require.NoError(t, err)
	assert.Equal(t, 42, summary.TotalAvailable)

	cache.EXPECT().
		GetOrSet(gomock.Any(), "inventory:stats", gomock.Any(), gomock.Any(), time.Minute).
		DoAndReturn(func(_ context.Context, _ string, dest any, fetch func() (any, error), _ time.Duration) error {
			value, err := fetch()
			if err != nil {
				return err
			}
			*dest.(*domain.Stats) = value.(domain.Stats)
			return nil
		})

	stats, err := svc.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalAvailable)
}

func TestInventoryService_PublishesCommittedEvents(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	publisher := mocks.NewMockEventPublisher(ctrl)

	svc, _ := newMemoryService(t, services.Options{Publisher: publisher})

	var got []domain.LedgerEventMessage
	publisher.EXPECT().
		PublishLedgerEvents(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, msgs []domain.LedgerEventMessage) error {
			got = append(got, msgs...)
			return nil
		}).
		Times(2)

	addUnits(t, svc, domain.GroupAPos, 3)
	_, err := svc.Reserve(ctx, ports.ReservationCommand{
		BloodGroup: domain.GroupAPos, Units: 2, RequestID: "req-9", Actor: "nurse",
	})
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, domain.ActionAdded, got[0].Event.Action)
	assert.Equal(t, int64(1), got[0].Version)
	assert.Equal(t, 3, got[0].UnitsAvailable)

	assert.Equal(t, domain.ActionReserved, got[1].Event.Action)
	assert.Equal(t, "req-9", got[1].Event.RelatedID)
	assert.Equal(t, domain.GroupAPos, got[1].BloodGroup)
	assert.Equal(t, int64(2), got[1].Version)
	assert.Equal(t, 1, got[1].UnitsAvailable)
	assert.Equal(t, 2, got[1].UnitsReserved)

	// rejected mutations publish nothing
	_, err = svc.Reserve(ctx, ports.ReservationCommand{
		BloodGroup: domain.GroupAPos, Units: 5, RequestID: "req-10", Actor: "nurse",
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
}

func TestInventoryService_StockAlerts(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	alerts := mocks.NewMockAlertNotifier(ctrl)

	svc, clock := newMemoryService(t, services.Options{Alerts: alerts, LowStockThreshold: 3})

	// additions never alert, even while below threshold
	addUnits(t, svc, domain.GroupONeg, 2)
	addUnits(t, svc, domain.GroupONeg, 2)

	var raised []domain.StockAlert
	alerts.EXPECT().
		NotifyStockAlert(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, a domain.StockAlert) error {
			raised = append(raised, a)
			return nil
		}).
		AnyTimes()

	_, err := svc.Reserve(ctx, ports.ReservationCommand{
		BloodGroup: domain.GroupONeg, Units: 1, RequestID: "req-1", Actor: "nurse",
	})
	require.NoError(t, err)
	assert.Empty(t, raised, "3 available is not below a threshold of 3")

	_, err = svc.Reserve(ctx, ports.ReservationCommand{
		BloodGroup: domain.GroupONeg, Units: 1, RequestID: "req-2", Actor: "nurse",
	})
	require.NoError(t, err)
	require.Len(t, raised, 1)
	assert.Equal(t, domain.AlertLowStock, raised[0].Kind)
	assert.Equal(t, 2, raised[0].UnitsAvailable)
	assert.Equal(t, 3, raised[0].Threshold)

	raised = nil
	clock.Advance((domain.ShelfLifeDays + 1) * 24 * time.Hour)
	_, err = svc.MarkExpired(ctx, domain.GroupONeg, "system")
	require.NoError(t, err)

	require.Len(t, raised, 2)
	assert.Equal(t, domain.AlertExpired, raised[0].Kind)
	assert.Equal(t, 4, raised[0].Count)
	assert.Equal(t, domain.AlertLowStock, raised[1].Kind)
	assert.Equal(t, 0, raised[1].UnitsAvailable)
}

func TestInventoryService_CustomLocation(t *testing.T) {
	svc, _ := newMemoryService(t, services.Options{Location: "North Wing"})
	change := addUnits(t, svc, domain.GroupBPos, 1)
	assert.Equal(t, "North Wing", change.Summary.Location)
}

func TestInventoryService_LogAttributesDoNotRepeat(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Options{Level: "info", Format: "json", Output: &buf, Service: "bloodbank-api"})
	svc := services.NewInventoryService(memory.NewLedgerRepository(log), services.Options{}, log)

	ctx := logger.WithActor(logger.WithRequestID(context.Background(), "http-req-1"), "staff-1")
	_, err := svc.AddUnits(ctx, ports.AddUnitsCommand{BloodGroup: domain.GroupOPos, Units: 1, Actor: "staff-1"})
	require.NoError(t, err)

	var found bool
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		if entry["msg"] != "added blood units" {
			continue
		}
		found = true
		assert.Equal(t, 1, strings.Count(line, `"service":`))
		assert.Equal(t, "bloodbank-api", entry["service"])
		assert.Equal(t, "inventory_service", entry["component"])
		assert.Equal(t, 1, strings.Count(line, `"actor":`))
		assert.Equal(t, 1, strings.Count(line, `"request_id":`))
		assert.Equal(t, "http-req-1", entry["request_id"])
	}
	assert.True(t, found)
}
