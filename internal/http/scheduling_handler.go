package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/example/availability-scheduler/internal/scheduler"
	"github.com/example/availability-scheduler/internal/timerange"
)

type schedulingService interface {
	CheckConflicts(ctx context.Context, userIDs []string, start, end time.Time) (scheduler.ConflictReport, error)
	FindCommonSlots(ctx context.Context, userIDs []string, date timerange.Date, durationMinutes int) ([]scheduler.Slot, error)
}

type SchedulingHandler struct {
	service   schedulingService
	responder responder
}

func NewSchedulingHandler(service schedulingService, logger *slog.Logger) *SchedulingHandler {
	return &SchedulingHandler{service: service, responder: newResponder(logger)}
}

type conflictCheckRequest struct {
	UserIDs []string  `json:"user_ids"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
}

// CheckConflicts evaluates a proposed meeting time for every named user.
func (h *SchedulingHandler) CheckConflicts(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req conflictCheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	if req.Start.IsZero() || req.End.IsZero() {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errors.New("start and end are required"))
		return
	}

	report, err := h.service.CheckConflicts(r.Context(), req.UserIDs, req.Start, req.End)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, conflictReportToDTO(report))
}

type slotsResponse struct {
	Date            string    `json:"date"`
	DurationMinutes int       `json:"duration_minutes"`
	Slots           []slotDTO `json:"slots"`
}

// FindSlots scans a day for start times where the named users are free.
// Query parameters: users=a,b,c date=YYYY-MM-DD duration=minutes.
func (h *SchedulingHandler) FindSlots(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	query := r.URL.Query()

	userIDs := splitList(query.Get("users"))
	if len(userIDs) == 0 {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidUsersParam)
		return
	}

	date, err := timerange.ParseDate(query.Get("date"))
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidDateParam)
		return
	}

	duration := 60
	if raw := query.Get("duration"); raw != "" {
		duration, err = strconv.Atoi(raw)
		if err != nil {
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, errors.New("invalid duration parameter"))
			return
		}
	}

	slots, err := h.service.FindCommonSlots(r.Context(), userIDs, date, duration)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, slotsResponse{
		Date:            date.String(),
		DurationMinutes: duration,
		Slots:           slotsToDTO(slots),
	})
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	cleaned := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	return cleaned
}
