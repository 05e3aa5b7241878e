package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/availability-scheduler/internal/application"
	"github.com/example/availability-scheduler/internal/availability"
	"github.com/example/availability-scheduler/internal/timerange"
)

type availabilityService interface {
	Get(ctx context.Context, userID string) (availability.Record, bool, error)
	Put(ctx context.Context, principal application.Principal, record availability.Record) (availability.Record, error)
	AddUnavailableSlot(ctx context.Context, principal application.Principal, userID string, input application.SlotInput) (availability.Record, bool, error)
	RemoveUnavailableSlot(ctx context.Context, principal application.Principal, userID, slotID string) (availability.Record, error)
	Evaluate(ctx context.Context, userID string, date timerange.Date, window timerange.Range) (availability.Decision, error)
}

type AvailabilityHandler struct {
	service   availabilityService
	responder responder
	logger    *slog.Logger
}

func NewAvailabilityHandler(service availabilityService, logger *slog.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{service: service, responder: newResponder(logger), logger: defaultLogger(logger)}
}

type availabilityResponse struct {
	availabilityRecordDTO
	Truncated bool `json:"truncated,omitempty"`
}

// Get returns a user's availability record. Users without one get an empty
// record shaped response with found=false semantics via 404.
func (h *AvailabilityHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	userID, ok := UserIDFromContext(r.Context())
	if !ok || strings.TrimSpace(userID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidUserID)
		return
	}

	record, found, err := h.service.Get(r.Context(), userID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	if !found {
		h.responder.writeJSON(r.Context(), w, http.StatusNotFound, errorResponse{Message: "no availability record for this user"})
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, availabilityResponse{availabilityRecordDTO: recordToDTO(record)})
}

// Put replaces a user's availability record.
func (h *AvailabilityHandler) Put(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	userID, ok := UserIDFromContext(r.Context())
	if !ok || strings.TrimSpace(userID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidUserID)
		return
	}

	var req availabilityRecordDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	record, err := req.toRecord(userID)
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	saved, err := h.service.Put(r.Context(), principal, record)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, availabilityResponse{availabilityRecordDTO: recordToDTO(saved)})
}

type addSlotRequest struct {
	Date       string         `json:"date"`
	StartTime  string         `json:"start_time"`
	EndTime    string         `json:"end_time"`
	Title      string         `json:"title"`
	Recurrence *recurrenceDTO `json:"recurrence"`
}

// AddSlot records a new unavailable slot, expanding recurring ones.
func (h *AvailabilityHandler) AddSlot(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	userID, ok := UserIDFromContext(r.Context())
	if !ok || strings.TrimSpace(userID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidUserID)
		return
	}

	var req addSlotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	input, err := req.toInput()
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	record, truncated, err := h.service.AddUnavailableSlot(r.Context(), principal, userID, input)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	handlerLogger(r.Context(), h.logger, "availability", "add_slot", "user_id", userID).
		InfoContext(r.Context(), "slot created", "truncated", truncated)

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, availabilityResponse{
		availabilityRecordDTO: recordToDTO(record),
		Truncated:             truncated,
	})
}

// RemoveSlot deletes an unavailable slot, instances included for parents.
func (h *AvailabilityHandler) RemoveSlot(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	userID, ok := UserIDFromContext(r.Context())
	if !ok || strings.TrimSpace(userID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidUserID)
		return
	}
	slotID, ok := SlotIDFromContext(r.Context())
	if !ok || strings.TrimSpace(slotID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidSlotID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	if _, err := h.service.RemoveUnavailableSlot(r.Context(), principal, userID, slotID); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type checkResponse struct {
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
}

// Check evaluates whether the user is free for a window on a date. Query
// parameters: date=YYYY-MM-DD, start=HH:MM, end=HH:MM.
func (h *AvailabilityHandler) Check(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	userID, ok := UserIDFromContext(r.Context())
	if !ok || strings.TrimSpace(userID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidUserID)
		return
	}

	query := r.URL.Query()
	date, err := timerange.ParseDate(query.Get("date"))
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidDateParam)
		return
	}
	window, err := timerange.ParseRange(query.Get("start"), query.Get("end"))
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidTimeParam)
		return
	}

	decision, err := h.service.Evaluate(r.Context(), userID, date, window)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, checkResponse{
		Available: decision.Available,
		Reason:    decision.Reason,
	})
}

func (req addSlotRequest) toInput() (application.SlotInput, error) {
	input := application.SlotInput{Title: req.Title}

	var err error
	if input.Date, err = timerange.ParseDate(req.Date); err != nil {
		return application.SlotInput{}, err
	}
	if input.StartTime, err = timerange.ParseTimeOfDay(req.StartTime); err != nil {
		return application.SlotInput{}, err
	}
	if input.EndTime, err = timerange.ParseTimeOfDay(req.EndTime); err != nil {
		return application.SlotInput{}, err
	}
	if input.Recurrence, err = req.Recurrence.toRule(); err != nil {
		return application.SlotInput{}, err
	}
	return input, nil
}
