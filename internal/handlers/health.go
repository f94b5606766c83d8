// internal/handlers/health.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"runtime"
	"sort"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ammerola/bloodbank-be/internal/core/domain"
	"github.com/ammerola/bloodbank-be/internal/core/ports"
	"github.com/ammerola/bloodbank-be/internal/pkg/config"
)

// HealthHandler handles health check endpoints. The ledger store is always
// checked; a nil database (memory store), cache or inspector is skipped.
type HealthHandler struct {
	store     ports.LedgerRepository
	db        ports.Database
	cache     ports.CacheRepository
	queues    *asynq.Inspector
	config    *config.Config
	logger    *slog.Logger
	startTime time.Time
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(
	store ports.LedgerRepository,
	database ports.Database,
	cache ports.CacheRepository,
	inspector *asynq.Inspector,
	cfg *config.Config,
	logger *slog.Logger,
) *HealthHandler {
	return &HealthHandler{
		store:     store,
		db:        database,
		cache:     cache,
		queues:    inspector,
		config:    cfg,
		logger:    logger.With(slog.String("handler", "health")),
		startTime: time.Now(),
	}
}

// HealthStatus represents the health status of the application
type HealthStatus struct {
	Status      string                 `json:"status"`
	Version     string                 `json:"version"`
	Environment string                 `json:"environment"`
	Uptime      string                 `json:"uptime"`
	Timestamp   time.Time              `json:"timestamp"`
	Services    map[string]ServiceInfo `json:"services"`
	System      SystemInfo             `json:"system"`
}

// ServiceInfo represents the status of a dependency
type ServiceInfo struct {
	Status       string                 `json:"status"`
	Message      string                 `json:"message,omitempty"`
	ResponseTime string                 `json:"response_time,omitempty"`
	Details      map[string]interface{} `json:"details,omitempty"`
}

// SystemInfo represents process-level information
type SystemInfo struct {
	GoVersion     string `json:"go_version"`
	NumGoroutines int    `json:"num_goroutines"`
	MemoryAllocMB uint64 `json:"memory_alloc_mb"`
}

// Health handles the /health endpoint
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	health := HealthStatus{
		Status:      "healthy",
		Version:     h.config.App.Version,
		Environment: h.config.App.Environment,
		Uptime:      time.Since(h.startTime).Round(time.Second).String(),
		Timestamp:   time.Now(),
		Services:    map[string]ServiceInfo{"inventory": h.checkStore(ctx)},
		System:      systemInfo(),
	}

	if h.db != nil {
		health.Services["database"] = timed(func(info *ServiceInfo) error {
			if err := h.db.Ping(ctx); err != nil {
				return err
			}
			info.Details = h.db.Health(ctx)
			return nil
		})
	}
	if h.cache != nil {
		health.Services["cache"] = timed(func(*ServiceInfo) error { return h.cache.Ping(ctx) })
	}
	if h.queues != nil {
		health.Services["queue"] = timed(h.checkQueues)
	}

	statusCode := http.StatusOK
	for name, svc := range health.Services {
		if svc.Status != "healthy" {
			health.Status = "degraded"
			statusCode = http.StatusServiceUnavailable
			h.logger.ErrorContext(ctx, "health check failed",
				slog.String("dependency", name),
				slog.String("error", svc.Message))
		}
	}

	h.writeJSON(ctx, w, statusCode, health)
}

// Readiness handles the /ready endpoint: the ledger store must answer and
// the cache, when configured, must respond to a ping
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	ready := true
	details := make(map[string]string)

	if _, err := h.store.List(ctx); err != nil {
		ready = false
		details["inventory"] = "not ready"
	} else {
		details["inventory"] = "ready"
	}

	if h.cache != nil {
		if err := h.cache.Ping(ctx); err != nil {
			ready = false
			details["cache"] = "not ready"
		} else {
			details["cache"] = "ready"
		}
	}

	statusCode := http.StatusOK
	if !ready {
		statusCode = http.StatusServiceUnavailable
	}
	h.writeJSON(ctx, w, statusCode, map[string]interface{}{
		"ready":   ready,
		"details": details,
	})
}

// checkStore reads every ledger and reports stock totals and low groups
func (h *HealthHandler) checkStore(ctx context.Context) ServiceInfo {
	return timed(func(info *ServiceInfo) error {
		ledgers, err := h.store.List(ctx)
		if err != nil {
			return err
		}

		summary := domain.Summarize(ledgers, time.Now().UTC(), h.config.Inventory.LowStockThreshold)
		lowStock := make([]string, 0)
		for _, s := range summary.Ledgers {
			if s.LowStock {
				lowStock = append(lowStock, s.BloodGroup.String())
			}
		}

		info.Details = map[string]interface{}{
			"store":           h.config.Inventory.Store,
			"ledgers":         len(summary.Ledgers),
			"units_available": summary.TotalAvailable,
			"units_reserved":  summary.TotalReserved,
			"low_stock":       lowStock,
		}
		return nil
	})
}

// checkQueues reports backlog per configured worker queue
func (h *HealthHandler) checkQueues(info *ServiceInfo) error {
	names := make([]string, 0, len(h.config.Worker.Queues))
	for name := range h.config.Worker.Queues {
		names = append(names, name)
	}
	sort.Strings(names)

	backlog := make(map[string]interface{}, len(names))
	for _, name := range names {
		q, err := h.queues.GetQueueInfo(name)
		if errors.Is(err, asynq.ErrQueueNotFound) {
			backlog[name] = map[string]int{"pending": 0, "active": 0, "retry": 0}
			continue
		}
		if err != nil {
			return err
		}
		backlog[name] = map[string]int{"pending": q.Pending, "active": q.Active, "retry": q.Retry}
	}
	info.Details = map[string]interface{}{"queues": backlog}
	return nil
}

// timed runs check and wraps its outcome with the elapsed time
func timed(check func(info *ServiceInfo) error) ServiceInfo {
	start := time.Now()
	info := ServiceInfo{Status: "healthy"}
	if err := check(&info); err != nil {
		return ServiceInfo{Status: "unhealthy", Message: err.Error()}
	}
	info.ResponseTime = time.Since(start).String()
	return info
}

func systemInfo() SystemInfo {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return SystemInfo{
		GoVersion:     runtime.Version(),
		NumGoroutines: runtime.NumGoroutine(),
		MemoryAllocMB: memStats.Alloc / 1024 / 1024,
	}
}

func (h *HealthHandler) writeJSON(ctx context.Context, w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.ErrorContext(ctx, "failed to encode health response",
			slog.String("error", err.Error()))
	}
}
