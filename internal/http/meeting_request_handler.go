package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/availability-scheduler/internal/application"
	"github.com/example/availability-scheduler/internal/meeting"
)

type meetingRequestService interface {
	Create(ctx context.Context, principal application.Principal, input application.MeetingRequestInput) (meeting.Request, error)
	Get(ctx context.Context, principal application.Principal, requestID string) (meeting.Request, error)
	List(ctx context.Context, principal application.Principal, params application.ListMeetingRequestsParams) ([]meeting.Request, error)
	Update(ctx context.Context, principal application.Principal, requestID string, input application.MeetingRequestInput) (meeting.Request, error)
	Approve(ctx context.Context, principal application.Principal, requestID string) (meeting.Request, error)
	Deny(ctx context.Context, principal application.Principal, requestID string) (meeting.Request, error)
	Schedule(ctx context.Context, principal application.Principal, requestID string, scheduledDate time.Time) (meeting.Request, error)
	Delete(ctx context.Context, principal application.Principal, requestID string) error
}

type MeetingRequestHandler struct {
	service   meetingRequestService
	responder responder
}

func NewMeetingRequestHandler(service meetingRequestService, logger *slog.Logger) *MeetingRequestHandler {
	return &MeetingRequestHandler{service: service, responder: newResponder(logger)}
}

type meetingRequestRequest struct {
	RequesterID     string      `json:"requester_id"`
	OwnerID         string      `json:"owner_id"`
	Subject         string      `json:"subject"`
	Message         string      `json:"message"`
	PreferredDates  []time.Time `json:"preferred_dates"`
	DurationMinutes int         `json:"duration_minutes"`
}

func (req meetingRequestRequest) toInput() application.MeetingRequestInput {
	return application.MeetingRequestInput{
		RequesterID:     req.RequesterID,
		OwnerID:         req.OwnerID,
		Subject:         req.Subject,
		Message:         req.Message,
		PreferredDates:  req.PreferredDates,
		DurationMinutes: req.DurationMinutes,
	}
}

func (h *MeetingRequestHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req meetingRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	if req.RequesterID == "" {
		req.RequesterID = principal.UserID
	}

	request, err := h.service.Create(r.Context(), principal, req.toInput())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, meetingRequestToDTO(request))
}

func (h *MeetingRequestHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	requestID, ok := RequestIDFromContext(r.Context())
	if !ok || strings.TrimSpace(requestID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidRequestID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	request, err := h.service.Get(r.Context(), principal, requestID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, meetingRequestToDTO(request))
}

// List returns requests visible to the caller. Parameters: user, requester,
// owner, status.
func (h *MeetingRequestHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	query := r.URL.Query()
	params := application.ListMeetingRequestsParams{
		InvolvedUserID: query.Get("user"),
		RequesterID:    query.Get("requester"),
		OwnerID:        query.Get("owner"),
		Status:         query.Get("status"),
	}

	principal, _ := PrincipalFromContext(r.Context())
	requests, err := h.service.List(r.Context(), principal, params)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, meetingRequestsToDTO(requests))
}

func (h *MeetingRequestHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	requestID, ok := RequestIDFromContext(r.Context())
	if !ok || strings.TrimSpace(requestID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidRequestID)
		return
	}

	var req meetingRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	request, err := h.service.Update(r.Context(), principal, requestID, req.toInput())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, meetingRequestToDTO(request))
}

// Approve moves a pending request to approved.
func (h *MeetingRequestHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, "approve")
}

// Deny moves a pending request to denied.
func (h *MeetingRequestHandler) Deny(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, "deny")
}

func (h *MeetingRequestHandler) decide(w http.ResponseWriter, r *http.Request, action string) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	requestID, ok := RequestIDFromContext(r.Context())
	if !ok || strings.TrimSpace(requestID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidRequestID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var (
		request meeting.Request
		err     error
	)
	if action == "approve" {
		request, err = h.service.Approve(r.Context(), principal, requestID)
	} else {
		request, err = h.service.Deny(r.Context(), principal, requestID)
	}
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, meetingRequestToDTO(request))
}

type scheduleRequest struct {
	ScheduledDate time.Time `json:"scheduled_date"`
}

// Schedule confirms a concrete time for an approved request.
func (h *MeetingRequestHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	requestID, ok := RequestIDFromContext(r.Context())
	if !ok || strings.TrimSpace(requestID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidRequestID)
		return
	}

	var req scheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	if req.ScheduledDate.IsZero() {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errors.New("scheduled_date is required"))
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	request, err := h.service.Schedule(r.Context(), principal, requestID, req.ScheduledDate)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, meetingRequestToDTO(request))
}

func (h *MeetingRequestHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	requestID, ok := RequestIDFromContext(r.Context())
	if !ok || strings.TrimSpace(requestID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidRequestID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	if err := h.service.Delete(r.Context(), principal, requestID); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}
