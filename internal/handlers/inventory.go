// internal/handlers/inventory.go
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/ammerola/bloodbank-be/internal/core/domain"
	"github.com/ammerola/bloodbank-be/internal/core/ports"
	"github.com/ammerola/bloodbank-be/internal/pkg/logger"
)

// DefaultActorHeader carries the caller identity recorded in ledger history
const DefaultActorHeader = "X-Actor-ID"

const maxBodyBytes = 1 << 20

// InventoryHandler handles inventory-related HTTP requests
type InventoryHandler struct {
	service     ports.InventoryService
	ingestor    ports.DonationIngestor
	validate    *validator.Validate
	actorHeader string
	logger      *slog.Logger
}

// NewInventoryHandler creates a new inventory handler. Donations posted to the
// API are handed to ingestor, which either applies them directly or queues them.
func NewInventoryHandler(service ports.InventoryService, ingestor ports.DonationIngestor, actorHeader string, logger *slog.Logger) *InventoryHandler {
	if actorHeader == "" {
		actorHeader = DefaultActorHeader
	}
	return &InventoryHandler{
		service:     service,
		ingestor:    ingestor,
		validate:    newValidator(),
		actorHeader: actorHeader,
		logger:      logger.With(slog.String("handler", "inventory")),
	}
}

// RegisterRoutes mounts the inventory endpoints under prefix
func (h *InventoryHandler) RegisterRoutes(mux *http.ServeMux, prefix string) {
	base := prefix + "/inventory"

	mux.HandleFunc("GET "+base, h.ListInventory)
	mux.HandleFunc("GET "+base+"/stats", h.GetStats)
	mux.HandleFunc("GET "+base+"/history/{bloodGroup}", h.GetHistory)
	mux.HandleFunc("GET "+base+"/{bloodGroup}", h.GetLedger)

	mux.HandleFunc("POST "+base+"/check-expiry", h.CheckExpiry)
	mux.HandleFunc("POST "+base+"/add", h.AddUnits)
	mux.HandleFunc("POST "+base+"/donations", h.RecordDonation)
	mux.HandleFunc("POST "+base+"/reserve", h.Reserve)
	mux.HandleFunc("POST "+base+"/issue", h.Issue)
	mux.HandleFunc("POST "+base+"/unreserve", h.Unreserve)
	mux.HandleFunc("POST "+base+"/mark-expired/{bloodGroup}", h.MarkExpired)
	mux.HandleFunc("POST "+base+"/discard", h.Discard)
}

// ListInventory handles GET /api/v1/inventory
func (h *InventoryHandler) ListInventory(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.ListInventory(r.Context())
	if err != nil {
		h.handleError(w, r, "failed to list inventory", err)
		return
	}
	h.respondJSON(w, http.StatusOK, summary)
}

// GetStats handles GET /api/v1/inventory/stats
func (h *InventoryHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.GetStats(r.Context())
	if err != nil {
		h.handleError(w, r, "failed to get inventory stats", err)
		return
	}
	h.respondJSON(w, http.StatusOK, stats)
}

// GetLedger handles GET /api/v1/inventory/{bloodGroup}
func (h *InventoryHandler) GetLedger(w http.ResponseWriter, r *http.Request) {
	group, err := domain.ParseBloodGroup(r.PathValue("bloodGroup"))
	if err != nil {
		h.handleError(w, r, "invalid blood group", err)
		return
	}

	detail, err := h.service.GetLedger(r.Context(), group)
	if err != nil {
		h.handleError(w, r, "failed to get ledger", err)
		return
	}
	h.respondJSON(w, http.StatusOK, detail)
}

// GetHistory handles GET /api/v1/inventory/history/{bloodGroup}?limit=
func (h *InventoryHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	group, err := domain.ParseBloodGroup(r.PathValue("bloodGroup"))
	if err != nil {
		h.handleError(w, r, "invalid blood group", err)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			h.respondError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
	}

	events, err := h.service.GetHistory(r.Context(), group, limit)
	if err != nil {
		h.handleError(w, r, "failed to get history", err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"blood_group": group,
		"history":     events,
		"count":       len(events),
	})
}

// AddUnits handles POST /api/v1/inventory/add
func (h *InventoryHandler) AddUnits(w http.ResponseWriter, r *http.Request) {
	var req AddUnitsRequest
	if !h.decode(w, r, &req) {
		return
	}

	cmd := ports.AddUnitsCommand{
		BloodGroup: req.group,
		Units:      req.Units,
		Reason:     req.Reason,
		Actor:      h.actor(r),
	}
	if req.CollectedDate != nil {
		cmd.CollectedDate = req.CollectedDate.UTC()
	}

	change, err := h.service.AddUnits(r.Context(), cmd)
	if err != nil {
		h.handleError(w, r, "failed to add units", err)
		return
	}
	h.respondJSON(w, http.StatusCreated, change)
}

// RecordDonation handles POST /api/v1/inventory/donations. The donation is
// always accepted; inventory failures are logged by the ingestor.
func (h *InventoryHandler) RecordDonation(w http.ResponseWriter, r *http.Request) {
	var req DonationRequest
	if !h.decode(w, r, &req) {
		return
	}

	units := req.Units
	if units == 0 {
		units = 1
	}

	h.ingestor.IngestDonation(r.Context(), ports.DonationCommand{
		BloodGroup:    req.group,
		Units:         units,
		DonationID:    req.DonationID,
		CollectedDate: req.CollectedDate.UTC(),
		Actor:         h.actor(r),
	})

	h.respondJSON(w, http.StatusAccepted, map[string]string{
		"message":     "Donation accepted",
		"donation_id": req.DonationID,
	})
}

// Reserve handles POST /api/v1/inventory/reserve
func (h *InventoryHandler) Reserve(w http.ResponseWriter, r *http.Request) {
	var req ReservationRequest
	if !h.decode(w, r, &req) {
		return
	}

	change, err := h.service.Reserve(r.Context(), ports.ReservationCommand{
		BloodGroup: req.group,
		Units:      req.Units,
		RequestID:  req.RequestID,
		Actor:      h.actor(r),
	})
	if err != nil {
		h.handleError(w, r, "failed to reserve units", err)
		return
	}
	h.respondJSON(w, http.StatusOK, change)
}

// Issue handles POST /api/v1/inventory/issue
func (h *InventoryHandler) Issue(w http.ResponseWriter, r *http.Request) {
	var req ReservationRequest
	if !h.decode(w, r, &req) {
		return
	}

	change, err := h.service.Issue(r.Context(), ports.ReservationCommand{
		BloodGroup: req.group,
		Units:      req.Units,
		RequestID:  req.RequestID,
		Actor:      h.actor(r),
	})
	if err != nil {
		h.handleError(w, r, "failed to issue units", err)
		return
	}
	h.respondJSON(w, http.StatusOK, change)
}

// Unreserve handles POST /api/v1/inventory/unreserve
func (h *InventoryHandler) Unreserve(w http.ResponseWriter, r *http.Request) {
	var req UnreserveRequest
	if !h.decode(w, r, &req) {
		return
	}

	change, err := h.service.Unreserve(r.Context(), ports.UnreserveCommand{
		BloodGroup: req.group,
		RequestID:  req.RequestID,
		Actor:      h.actor(r),
	})
	if err != nil {
		h.handleError(w, r, "failed to unreserve units", err)
		return
	}
	h.respondJSON(w, http.StatusOK, change)
}

// Discard handles POST /api/v1/inventory/discard
func (h *InventoryHandler) Discard(w http.ResponseWriter, r *http.Request) {
	var req DiscardRequest
	if !h.decode(w, r, &req) {
		return
	}

	change, err := h.service.Discard(r.Context(), ports.DiscardCommand{
		BloodGroup: req.group,
		UnitIDs:    req.UnitIDs,
		Reason:     req.Reason,
		Actor:      h.actor(r),
	})
	if err != nil {
		h.handleError(w, r, "failed to discard units", err)
		return
	}
	h.respondJSON(w, http.StatusOK, change)
}

// MarkExpired handles POST /api/v1/inventory/mark-expired/{bloodGroup}
func (h *InventoryHandler) MarkExpired(w http.ResponseWriter, r *http.Request) {
	group, err := domain.ParseBloodGroup(r.PathValue("bloodGroup"))
	if err != nil {
		h.handleError(w, r, "invalid blood group", err)
		return
	}

	change, err := h.service.MarkExpired(r.Context(), group, h.actor(r))
	if err != nil {
		h.handleError(w, r, "failed to mark units expired", err)
		return
	}
	h.respondJSON(w, http.StatusOK, change)
}

// CheckExpiry handles POST /api/v1/inventory/check-expiry
func (h *InventoryHandler) CheckExpiry(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.CheckAllExpiry(r.Context(), h.actor(r))
	if err != nil {
		h.handleError(w, r, "failed to check expiry", err)
		return
	}
	h.respondJSON(w, http.StatusOK, report)
}

// decode reads and validates a JSON body, writing a 400 on failure
func (h *InventoryHandler) decode(w http.ResponseWriter, r *http.Request, req groupRequest) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}

	if err := h.validate.Struct(req); err != nil {
		h.respondError(w, http.StatusBadRequest, validationMessage(err))
		return false
	}

	if err := req.resolve(); err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

func (h *InventoryHandler) actor(r *http.Request) string {
	if actor := logger.Actor(r.Context()); actor != "" {
		return actor
	}
	if actor := strings.TrimSpace(r.Header.Get(h.actorHeader)); actor != "" {
		return actor
	}
	return domain.SystemActor
}

// handleError maps domain failures onto HTTP status codes
func (h *InventoryHandler) handleError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), msg, slog.String("error", err.Error()))
		h.respondError(w, status, "Internal server error")
		return
	}

	h.logger.InfoContext(r.Context(), msg,
		slog.Int("status", status),
		slog.String("error", err.Error()))
	h.respondError(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInsufficientStock):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// Helper methods

func (h *InventoryHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode JSON response",
			slog.String("error", err.Error()))
	}
}

func (h *InventoryHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}

// Request DTOs

type groupRequest interface {
	resolve() error
}

// groupField is embedded by every request that names a blood group
type groupField struct {
	BloodGroup string `json:"blood_group" validate:"required,bloodgroup"`
	group      domain.BloodGroup
}

func (g *groupField) resolve() error {
	parsed, err := domain.ParseBloodGroup(g.BloodGroup)
	if err != nil {
		return err
	}
	g.group = parsed
	return nil
}

// AddUnitsRequest represents the request body for a manual addition
type AddUnitsRequest struct {
	groupField
	Units         int        `json:"units" validate:"required,gt=0,lte=1000"`
	CollectedDate *time.Time `json:"collected_date,omitempty"`
	Reason        string     `json:"reason,omitempty" validate:"max=255"`
}

// DonationRequest represents a donation recorded by the donation module.
// A donation yields at most two units; zero means one.
type DonationRequest struct {
	groupField
	Units         int       `json:"units,omitempty" validate:"gte=0,lte=2"`
	DonationID    string    `json:"donation_id" validate:"required,max=64"`
	CollectedDate time.Time `json:"collected_date" validate:"required"`
}

// ReservationRequest represents the body of reserve and issue calls
type ReservationRequest struct {
	groupField
	Units     int    `json:"units" validate:"required,gt=0"`
	RequestID string `json:"request_id" validate:"required,max=64"`
}

// UnreserveRequest represents the body of an unreserve call
type UnreserveRequest struct {
	groupField
	RequestID string `json:"request_id" validate:"required,max=64"`
}

// DiscardRequest represents the body of a discard call
type DiscardRequest struct {
	groupField
	UnitIDs []string `json:"unit_ids" validate:"required,min=1,dive,required"`
	Reason  string   `json:"reason,omitempty" validate:"max=255"`
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("bloodgroup", func(fl validator.FieldLevel) bool {
		_, err := domain.ParseBloodGroup(fl.Field().String())
		return err == nil
	})
	return v
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Invalid request body"
	}

	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			parts = append(parts, fmt.Sprintf("%s is required", fe.Field()))
		case "bloodgroup":
			parts = append(parts, fmt.Sprintf("%s must be one of A+, A-, B+, B-, AB+, AB-, O+, O-", fe.Field()))
		case "gt":
			parts = append(parts, fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param()))
		case "min":
			parts = append(parts, fmt.Sprintf("%s must have at least %s entries", fe.Field(), fe.Param()))
		case "lte", "max":
			parts = append(parts, fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param()))
		default:
			parts = append(parts, fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}
