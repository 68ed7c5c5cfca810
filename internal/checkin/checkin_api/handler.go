package checkin_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	checkin "ms-checkin/internal/checkin/service"
	"ms-checkin/internal/logger"
	"ms-checkin/internal/models"
	"ms-checkin/internal/stats"
	"ms-checkin/internal/utils"
)

// Handler is the gate interface boundary: it maps HTTP requests onto
// the admission engine and the stats aggregator, and maps the error
// taxonomy back to status codes.
type Handler struct {
	Admission *checkin.AdmissionService
	Stats     *stats.Service
	Logger    *logger.Logger
	// ActivityLimit is the feed size when no ?limit= is given.
	ActivityLimit int
}

type scanRequest struct {
	Number string `json:"number"`
	Action string `json:"action"`
}

type sellRequest struct {
	Number string `json:"number"`
}

// Scan handles an ENTER or EXIT attempt from a gate device.
// Expected POST body: {"number": "T-0001", "action": "ENTER"}
func (h *Handler) Scan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Number == "" {
		http.Error(w, "number is required", http.StatusBadRequest)
		return
	}
	if req.Action != models.ActionEnter && req.Action != models.ActionExit {
		http.Error(w, "action must be ENTER or EXIT", http.StatusBadRequest)
		return
	}

	ticket, err := h.Admission.RecordGateScan(r.Context(), req.Number, req.Action)
	if err != nil {
		h.writeAdmissionError(w, req.Number, err)
		return
	}

	writeJSON(w, http.StatusOK, utils.GateOK(ticket))
}

// Sell handles an on-site sale.
// Expected POST body: {"number": "T-0001"}
func (h *Handler) Sell(w http.ResponseWriter, r *http.Request) {
	var req sellRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Number == "" {
		http.Error(w, "number is required", http.StatusBadRequest)
		return
	}

	ticket, err := h.Admission.RecordSale(r.Context(), req.Number)
	if err != nil {
		h.writeAdmissionError(w, req.Number, err)
		return
	}

	writeJSON(w, http.StatusOK, utils.GateOK(ticket))
}

// GetStats returns the aggregated counts.
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	derived, err := h.Stats.ComputeStats(r.Context())
	if err != nil {
		h.logError("STATS", err)
		writeJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Failed to compute stats", err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, utils.SuccessResponse("Stats computed", derived))
}

// GetActivity returns the recent-activity feed. ?limit= bounds the
// number of entries, default 10.
func (h *Handler) GetActivity(w http.ResponseWriter, r *http.Request) {
	limit := h.ActivityLimit
	if limit <= 0 {
		limit = 10
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	entries, err := h.Stats.ComputeRecentActivity(r.Context(), limit)
	if err != nil {
		h.logError("ACTIVITY", err)
		writeJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Failed to load activity", err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, utils.SuccessResponse("Recent activity", entries))
}

// GetPresence returns registered-user presence for an event, delegated
// to the membership service.
func (h *Handler) GetPresence(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")
	if eventID == "" {
		http.Error(w, "event ID is required", http.StatusBadRequest)
		return
	}

	presence, err := h.Stats.ComputeOnlinePresence(r.Context(), eventID)
	if err != nil {
		h.logError("PRESENCE", err)
		writeJSON(w, http.StatusBadGateway, utils.ErrorResponse("Failed to fetch presence", err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, utils.SuccessResponse("Online presence", presence))
}

// CreateTicket provisions a PENDING ticket, the entry point used by the
// import collaborator.
// Expected POST body: {"number": "T-0001"}
func (h *Handler) CreateTicket(w http.ResponseWriter, r *http.Request) {
	var req sellRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Number == "" {
		http.Error(w, "number is required", http.StatusBadRequest)
		return
	}

	ticket, err := h.Admission.ProvisionTicket(r.Context(), req.Number)
	if err != nil {
		if errors.Is(err, checkin.ErrDuplicateNumber) {
			writeJSON(w, http.StatusConflict, utils.ErrorResponse("Ticket already exists", err.Error()))
			return
		}
		h.logError("PROVISION", err)
		writeJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Failed to create ticket", err.Error()))
		return
	}

	writeJSON(w, http.StatusCreated, utils.SuccessResponse("Ticket created", ticket))
}

// ViewTicket returns the current snapshot for a ticket number.
func (h *Handler) ViewTicket(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "number")
	ticket, err := h.Admission.Store.GetTicketByNumber(r.Context(), number)
	if err != nil {
		writeJSON(w, http.StatusNotFound, utils.ErrorResponse("Ticket not found", err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, utils.SuccessResponse("Ticket", ticket))
}

// writeAdmissionError maps the admission taxonomy to HTTP codes:
// NotFound 404, InvalidTransition and Conflict 409, StorageError 500.
func (h *Handler) writeAdmissionError(w http.ResponseWriter, number string, err error) {
	var aerr *checkin.AdmissionError
	if errors.As(err, &aerr) {
		writeJSON(w, http.StatusConflict, utils.GateRejected(aerr.Reason, aerr.Message()))
		return
	}

	if errors.Is(err, checkin.ErrTicketNotFound) {
		writeJSON(w, http.StatusNotFound, utils.GateRejected("NOT_FOUND", "no ticket with number "+number))
		return
	}

	if errors.Is(err, checkin.ErrConflict) {
		writeJSON(w, http.StatusConflict, utils.GateRejected("CONFLICT", "concurrent scans, please retry"))
		return
	}

	var serr *checkin.StorageError
	if errors.As(err, &serr) {
		h.logError("STORAGE", serr)
		writeJSON(w, http.StatusInternalServerError, utils.GateRejected("STORAGE_ERROR", "storage unavailable"))
		return
	}

	http.Error(w, err.Error(), http.StatusBadRequest)
}

func (h *Handler) logError(category string, err error) {
	if h.Logger != nil {
		h.Logger.Error(category, fmt.Sprintf("%v", err))
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
