package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/bloodbank-be/internal/adapters/memory"
	redis_a "github.com/ammerola/bloodbank-be/internal/adapters/redis_adapter"
	"github.com/ammerola/bloodbank-be/internal/core/domain"
	"github.com/ammerola/bloodbank-be/internal/core/ports"
	"github.com/ammerola/bloodbank-be/internal/handlers"
	"github.com/ammerola/bloodbank-be/test/helpers"
	"github.com/ammerola/bloodbank-be/test/mocks"
)

func newHealthCache(t *testing.T) (*redis_a.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return redis_a.NewCache(rdb, time.Minute, helpers.TestLogger()), mr
}

func stockedStore(t *testing.T) *memory.LedgerRepository {
	t.Helper()
	repo := memory.NewLedgerRepository(helpers.TestLogger())
	now := time.Now().UTC()
	for group, n := range map[domain.BloodGroup]int{domain.GroupOPos: 8, domain.GroupABNeg: 2} {
		_, err := repo.Update(context.Background(), group, true, func(l *domain.InventoryLedger) error {
			_, err := l.AddUnits(n, now, "staff", "", now)
			return err
		})
		require.NoError(t, err)
	}
	return repo
}

func TestHealthHandler_Health(t *testing.T) {
	tests := []struct {
		name           string
		withDB         bool
		dbErr          error
		storeErr       error
		expectedStatus int
		expectedState  string
	}{
		{name: "memory_store_without_database", expectedStatus: http.StatusOK, expectedState: "healthy"},
		{name: "healthy_database", withDB: true, expectedStatus: http.StatusOK, expectedState: "healthy"},
		{
			name:           "database_down_degrades",
			withDB:         true,
			dbErr:          errors.New("connection refused"),
			expectedStatus: http.StatusServiceUnavailable,
			expectedState:  "degraded",
		},
		{
			name:           "store_unreadable_degrades",
			storeErr:       errors.New("ledger table missing"),
			expectedStatus: http.StatusServiceUnavailable,
			expectedState:  "degraded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			cache, _ := newHealthCache(t)

			var store ports.LedgerRepository = stockedStore(t)
			if tt.storeErr != nil {
				mockStore := mocks.NewMockLedgerRepository(ctrl)
				mockStore.EXPECT().List(gomock.Any()).Return(nil, tt.storeErr)
				store = mockStore
			}

			var database ports.Database
			if tt.withDB {
				mockDB := mocks.NewMockDatabase(ctrl)
				mockDB.EXPECT().Ping(gomock.Any()).Return(tt.dbErr)
				if tt.dbErr == nil {
					mockDB.EXPECT().Health(gomock.Any()).Return(map[string]any{"total_conns": 4})
				}
				database = mockDB
			}

			handler := handlers.NewHealthHandler(store, database, cache, nil, helpers.LoadTestConfig(), helpers.TestLogger())
			w := httptest.NewRecorder()
			handler.Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.expectedStatus, w.Code)

			var status handlers.HealthStatus
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
			assert.Equal(t, tt.expectedState, status.Status)
			assert.Equal(t, "healthy", status.Services["cache"].Status)
			_, hasDB := status.Services["database"]
			assert.Equal(t, tt.withDB, hasDB)
			_, hasQueue := status.Services["queue"]
			assert.False(t, hasQueue)

			inventory := status.Services["inventory"]
			if tt.storeErr != nil {
				assert.Equal(t, "unhealthy", inventory.Status)
				assert.Equal(t, tt.storeErr.Error(), inventory.Message)
				return
			}
			assert.Equal(t, "healthy", inventory.Status)
		})
	}
}

func TestHealthHandler_HealthReportsStock(t *testing.T) {
	cache, _ := newHealthCache(t)
	cfg := helpers.LoadTestConfig()

	handler := handlers.NewHealthHandler(stockedStore(t), nil, cache, nil, cfg, helpers.TestLogger())
	w := httptest.NewRecorder()
	handler.Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var status handlers.HealthStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))

	details := status.Services["inventory"].Details
	assert.Equal(t, cfg.Inventory.Store, details["store"])
	assert.EqualValues(t, 2, details["ledgers"])
	assert.EqualValues(t, 10, details["units_available"])
	assert.EqualValues(t, 0, details["units_reserved"])
	assert.Equal(t, []interface{}{"AB-"}, details["low_stock"])
}

func TestHealthHandler_Readiness(t *testing.T) {
	cache, mr := newHealthCache(t)
	handler := handlers.NewHealthHandler(stockedStore(t), nil, cache, nil, helpers.LoadTestConfig(), helpers.TestLogger())

	w := httptest.NewRecorder()
	handler.Readiness(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"inventory":"ready"`)

	mr.Close()
	w = httptest.NewRecorder()
	handler.Readiness(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"cache":"not ready"`)
}

func TestHealthHandler_ReadinessWithoutCache(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockLedgerRepository(ctrl)
	store.EXPECT().List(gomock.Any()).Return(nil, errors.New("connection reset"))

	handler := handlers.NewHealthHandler(store, nil, nil, nil, helpers.LoadTestConfig(), helpers.TestLogger())
	w := httptest.NewRecorder()
	handler.Readiness(w, httptest.NewRequest(http.MethodGet, "/ready", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"inventory":"not ready"`)
	assert.NotContains(t, w.Body.String(), `"cache"`)
}
