package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/felixgeelhaar/upkeep/internal/identity"
	"github.com/felixgeelhaar/upkeep/internal/maintenance/application"
	"github.com/felixgeelhaar/upkeep/internal/maintenance/application/queries"
	"github.com/google/uuid"
)

const maxBodyBytes = 64 << 10

// MaintenanceHandler handles maintenance request API calls.
type MaintenanceHandler struct {
	coordinator *application.Coordinator
	location    *time.Location
	logger      *slog.Logger
}

// NewMaintenanceHandler creates a new maintenance handler.
func NewMaintenanceHandler(coordinator *application.Coordinator, loc *time.Location, logger *slog.Logger) *MaintenanceHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &MaintenanceHandler{coordinator: coordinator, location: loc, logger: logger}
}

type createRequestBody struct {
	DeviceRef   string    `json:"device_ref"`
	Slot        time.Time `json:"slot"`
	ServiceType string    `json:"service_type"`
}

type reviewRequestBody struct {
	Status            *string    `json:"status"`
	FactoryProposedAt *time.Time `json:"factory_proposed_at"`
	FactoryApproved   *bool      `json:"factory_approved"`
}

type rescheduleRequestBody struct {
	Slot time.Time `json:"slot"`
}

// Create handles POST /api/v1/maintenance-requests
func (h *MaintenanceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body createRequestBody
	if !h.decode(w, r, &body) {
		return
	}
	result, err := h.coordinator.Create(r.Context(), principal(r), application.CreateInput{
		DeviceRef:   body.DeviceRef,
		Slot:        body.Slot,
		ServiceType: body.ServiceType,
	})
	h.respond(w, r, http.StatusCreated, result, err)
}

// ListMine handles GET /api/v1/maintenance-requests/mine
func (h *MaintenanceHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	result, err := h.coordinator.ListMine(r.Context(), principal(r), r.URL.Query().Get("device"))
	h.respond(w, r, http.StatusOK, result, err)
}

// ListAll handles GET /api/v1/maintenance-requests
func (h *MaintenanceHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := queries.ListAllQuery{Status: q.Get("status"), Text: q.Get("q")}
	var err error
	if query.Limit, err = parseIntParam(r, "limit"); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	if query.Offset, err = parseIntParam(r, "offset"); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	result, err := h.coordinator.ListAll(r.Context(), principal(r), query)
	h.respond(w, r, http.StatusOK, result, err)
}

// Get handles GET /api/v1/maintenance-requests/{id}
func (h *MaintenanceHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.requestID(w, r)
	if !ok {
		return
	}
	result, err := h.coordinator.Get(r.Context(), principal(r), id)
	h.respond(w, r, http.StatusOK, result, err)
}

// ChangeLog handles GET /api/v1/maintenance-requests/{id}/changes
func (h *MaintenanceHandler) ChangeLog(w http.ResponseWriter, r *http.Request) {
	id, ok := h.requestID(w, r)
	if !ok {
		return
	}
	result, err := h.coordinator.ChangeLog(r.Context(), principal(r), id)
	h.respond(w, r, http.StatusOK, result, err)
}

// FactoryReview handles PATCH /api/v1/maintenance-requests/{id}/review
func (h *MaintenanceHandler) FactoryReview(w http.ResponseWriter, r *http.Request) {
	id, ok := h.requestID(w, r)
	if !ok {
		return
	}
	var body reviewRequestBody
	if !h.decode(w, r, &body) {
		return
	}
	result, err := h.coordinator.FactoryReview(r.Context(), principal(r), id, application.ReviewInput{
		Status:            body.Status,
		FactoryProposedAt: body.FactoryProposedAt,
		FactoryApproved:   body.FactoryApproved,
	})
	h.respond(w, r, http.StatusOK, result, err)
}

// UserApprove handles POST /api/v1/maintenance-requests/{id}/approve
func (h *MaintenanceHandler) UserApprove(w http.ResponseWriter, r *http.Request) {
	id, ok := h.requestID(w, r)
	if !ok {
		return
	}
	result, err := h.coordinator.UserApprove(r.Context(), principal(r), id)
	h.respond(w, r, http.StatusOK, result, err)
}

// Reschedule handles POST /api/v1/maintenance-requests/{id}/reschedule
func (h *MaintenanceHandler) Reschedule(w http.ResponseWriter, r *http.Request) {
	id, ok := h.requestID(w, r)
	if !ok {
		return
	}
	var body rescheduleRequestBody
	if !h.decode(w, r, &body) {
		return
	}
	result, err := h.coordinator.Reschedule(r.Context(), principal(r), id, body.Slot)
	h.respond(w, r, http.StatusOK, result, err)
}

// Cancel handles DELETE /api/v1/maintenance-requests/{id}
func (h *MaintenanceHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := h.requestID(w, r)
	if !ok {
		return
	}
	if err := h.coordinator.Cancel(r.Context(), principal(r), id); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Availability handles GET /api/v1/availability?from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *MaintenanceHandler) Availability(w http.ResponseWriter, r *http.Request) {
	from, err := h.parseDate(r, "from")
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	to, err := h.parseDate(r, "to")
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	result, err := h.coordinator.Availability(r.Context(), principal(r), from, to)
	h.respond(w, r, http.StatusOK, result, err)
}

func (h *MaintenanceHandler) respond(w http.ResponseWriter, r *http.Request, status int, result any, err error) {
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, status, result)
}

func (h *MaintenanceHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, h.logger, r, badRequest("", "Malformed JSON body: "+err.Error()))
		return false
	}
	return true
}

func (h *MaintenanceHandler) requestID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, r, badRequest("id", "Request id must be a UUID"))
		return uuid.Nil, false
	}
	return id, true
}

func (h *MaintenanceHandler) parseDate(r *http.Request, name string) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, badRequest(name, "Query parameter '"+name+"' is required")
	}
	t, err := time.ParseInLocation(queries.DateLayout, raw, h.location)
	if err != nil {
		return time.Time{}, badRequest(name, "Expected a date formatted as YYYY-MM-DD")
	}
	return t, nil
}

func parseIntParam(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, badRequest(name, "Query parameter '"+name+"' must be an integer")
	}
	return n, nil
}

// principal is always present behind the authenticate middleware.
func principal(r *http.Request) identity.Principal {
	p, _ := identity.FromContext(r.Context())
	return p
}
