//go:build e2e
// +build e2e

package e2e_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/ammerola/bloodbank-be/internal/adapters/memory"
	redis_a "github.com/ammerola/bloodbank-be/internal/adapters/redis_adapter"
	"github.com/ammerola/bloodbank-be/internal/core/domain"
	"github.com/ammerola/bloodbank-be/internal/core/services"
	"github.com/ammerola/bloodbank-be/internal/handlers"
	"github.com/ammerola/bloodbank-be/internal/handlers/middleware"
	"github.com/ammerola/bloodbank-be/test/helpers"
)

type InventoryE2ESuite struct {
	suite.Suite
	server    *httptest.Server
	client    *http.Client
	baseURL   string
	testRedis *helpers.TestRedis
}

func (s *InventoryE2ESuite) SetupTest() {
	s.testRedis = helpers.SetupTestRedis(s.T())
	s.server = s.startTestServer()
	s.client = &http.Client{Timeout: 10 * time.Second}
	s.baseURL = s.server.URL + "/api/v1"
}

func (s *InventoryE2ESuite) TearDownTest() {
	s.server.Close()
}

func (s *InventoryE2ESuite) TestReservationWorkflow() {
	// 1. Stock the ledger
	resp := s.makeRequest("POST", "/inventory/add", map[string]interface{}{
		"blood_group": "O-",
		"units":       4,
	})
	s.Equal(http.StatusCreated, resp.StatusCode)
	var added map[string]interface{}
	s.decodeResponse(resp, &added)
	s.Equal(float64(4), added["count"])

	// 2. Reserve for a request
	resp = s.makeRequest("POST", "/inventory/reserve", map[string]interface{}{
		"blood_group": "O-",
		"units":       3,
		"request_id":  "REQ-100",
	})
	s.Equal(http.StatusOK, resp.StatusCode)
	var reserved map[string]interface{}
	s.decodeResponse(resp, &reserved)
	ledger := reserved["inventory"].(map[string]interface{})
	s.Equal(float64(1), ledger["units_available"])
	s.Equal(float64(3), ledger["units_reserved"])

	// 3. Over-reserving fails without changing stock
	resp = s.makeRequest("POST", "/inventory/reserve", map[string]interface{}{
		"blood_group": "O-",
		"units":       2,
		"request_id":  "REQ-101",
	})
	s.Equal(http.StatusUnprocessableEntity, resp.StatusCode)
	resp.Body.Close()

	// 4. Issue part of the reservation
	resp = s.makeRequest("POST", "/inventory/issue", map[string]interface{}{
		"blood_group": "O-",
		"units":       2,
		"request_id":  "REQ-100",
	})
	s.Equal(http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// 5. Release what is left
	resp = s.makeRequest("POST", "/inventory/unreserve", map[string]interface{}{
		"blood_group": "O-",
		"request_id":  "REQ-100",
	})
	s.Equal(http.StatusOK, resp.StatusCode)
	var released map[string]interface{}
	s.decodeResponse(resp, &released)
	s.Equal(float64(1), released["count"])

	// 6. Ledger detail reflects every step
	resp = s.makeRequest("GET", "/inventory/O-", nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	var detail domain.LedgerDetail
	s.decodeResponse(resp, &detail)
	s.Equal(2, detail.Ledger.UnitsAvailable)
	s.Equal(0, detail.Ledger.UnitsReserved)
	s.Len(detail.RecentHistory, 4)
	s.Equal(domain.ActionUnreserved, detail.RecentHistory[0].Action)
	s.Equal("nurse-7", detail.RecentHistory[0].PerformedBy)

	resp = s.makeRequest("GET", "/inventory/O-", nil)
	var raw map[string]map[string]interface{}
	s.decodeResponse(resp, &raw)
	s.NotContains(raw["inventory"], "history")

	// 7. Stats count the issued units
	resp = s.makeRequest("GET", "/inventory/stats", nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	var stats domain.Stats
	s.decodeResponse(resp, &stats)
	s.Equal(2, stats.TotalIssued)
	s.Equal(2, stats.TotalAvailable)
}

func (s *InventoryE2ESuite) TestDonationWorkflow() {
	collected := time.Now().UTC().Add(-time.Hour)
	donation := map[string]interface{}{
		"blood_group":    "ab+",
		"donation_id":    "DON-1",
		"units":          2,
		"collected_date": collected,
	}

	resp := s.makeRequest("POST", "/inventory/donations", donation)
	s.Equal(http.StatusAccepted, resp.StatusCode)
	resp.Body.Close()

	// Re-delivery is accepted and adds nothing
	resp = s.makeRequest("POST", "/inventory/donations", donation)
	s.Equal(http.StatusAccepted, resp.StatusCode)
	resp.Body.Close()

	resp = s.makeRequest("POST", "/inventory/donations", map[string]interface{}{
		"blood_group":    "AB+",
		"donation_id":    "DON-2",
		"units":          3,
		"collected_date": collected,
	})
	s.Equal(http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = s.makeRequest("GET", "/inventory/history/AB+?limit=10", nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	var history struct {
		BloodGroup string               `json:"blood_group"`
		History    []domain.LedgerEvent `json:"history"`
		Count      int                  `json:"count"`
	}
	s.decodeResponse(resp, &history)
	s.Equal("AB+", history.BloodGroup)
	s.Equal(1, history.Count)
	s.Equal("DON-1", history.History[0].RelatedID)
}

func (s *InventoryE2ESuite) TestDiscardAndExpiry() {
	resp := s.makeRequest("POST", "/inventory/add", map[string]interface{}{
		"blood_group":    "B+",
		"units":          2,
		"collected_date": time.Now().UTC().AddDate(0, 0, -domain.ShelfLifeDays-1),
	})
	s.Equal(http.StatusCreated, resp.StatusCode)
	var added map[string]interface{}
	s.decodeResponse(resp, &added)
	units := added["units"].([]interface{})
	s.Require().Len(units, 2)
	unitID := units[0].(map[string]interface{})["unit_id"].(string)

	resp = s.makeRequest("POST", "/inventory/discard", map[string]interface{}{
		"blood_group": "B+",
		"unit_ids":    []string{unitID, "B+-unknown"},
		"reason":      "Damaged bag",
	})
	s.Equal(http.StatusOK, resp.StatusCode)
	var discarded map[string]interface{}
	s.decodeResponse(resp, &discarded)
	s.Equal(float64(1), discarded["count"])

	resp = s.makeRequest("POST", "/inventory/check-expiry", nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	var report domain.ExpiryReport
	s.decodeResponse(resp, &report)
	s.Equal(1, report.TotalExpired)

	// Expired units are no longer pending in the summary
	resp = s.makeRequest("GET", "/inventory", nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	var summary domain.SystemSummary
	s.decodeResponse(resp, &summary)
	s.Require().Len(summary.Ledgers, 1)
	s.Equal(0, summary.TotalAvailable)
	s.Equal(0, summary.TotalExpired)
	s.True(summary.Ledgers[0].LowStock)

	resp = s.makeRequest("GET", "/inventory/stats", nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	var stats domain.Stats
	s.decodeResponse(resp, &stats)
	s.Equal(1, stats.TotalExpired)
}

func (s *InventoryE2ESuite) TestConcurrentReservations() {
	resp := s.makeRequest("POST", "/inventory/add", map[string]interface{}{
		"blood_group": "A+",
		"units":       5,
	})
	s.Equal(http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		statuses = map[int]int{}
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp := s.makeRequest("POST", "/inventory/reserve", map[string]interface{}{
				"blood_group": "A+",
				"units":       1,
				"request_id":  "REQ-" + string(rune('A'+i)),
			})
			resp.Body.Close()
			mu.Lock()
			statuses[resp.StatusCode]++
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	s.Equal(5, statuses[http.StatusOK])
	s.Equal(5, statuses[http.StatusUnprocessableEntity])
}

func (s *InventoryE2ESuite) TestValidationAndErrors() {
	resp := s.makeRequest("POST", "/inventory/reserve", map[string]interface{}{
		"blood_group": "C+",
		"units":       1,
		"request_id":  "REQ-1",
	})
	s.Equal(http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = s.makeRequest("POST", "/inventory/issue", map[string]interface{}{
		"blood_group": "B-",
		"units":       1,
		"request_id":  "REQ-1",
	})
	s.Equal(http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	resp = s.makeRequest("GET", "/inventory/history/A+?limit=abc", nil)
	s.Equal(http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestInventoryE2E(t *testing.T) {
	suite.Run(t, new(InventoryE2ESuite))
}

func (s *InventoryE2ESuite) startTestServer() *httptest.Server {
	log := helpers.TestLogger()
	cfg := helpers.LoadTestConfig()

	repo := memory.NewLedgerRepository(log)
	svc := services.NewInventoryService(repo, services.Options{
		Cache:             redis_a.NewCache(s.testRedis.Client, cfg.Inventory.CacheTTL, log),
		LowStockThreshold: cfg.Inventory.LowStockThreshold,
		CacheTTL:          cfg.Inventory.CacheTTL,
	}, log)

	mux := http.NewServeMux()
	handlers.NewInventoryHandler(svc, svc, cfg.Security.ActorHeader, log).RegisterRoutes(mux, "/api/v1")

	handler := middleware.Chain(mux,
		middleware.Recovery(log),
		middleware.RequestID(cfg.Security.RequestIDHeader),
		middleware.Actor(cfg.Security.ActorHeader),
		middleware.Logger(log),
	)
	return httptest.NewServer(handler)
}

func (s *InventoryE2ESuite) makeRequest(method, path string, body interface{}) *http.Response {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		s.NoError(err)
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequest(method, s.baseURL+path, reqBody)
	s.NoError(err)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Actor-ID", "nurse-7")

	resp, err := s.client.Do(req)
	s.NoError(err)

	return resp
}

func (s *InventoryE2ESuite) decodeResponse(resp *http.Response, v interface{}) {
	defer resp.Body.Close()
	err := json.NewDecoder(resp.Body).Decode(v)
	s.NoError(err)
}
