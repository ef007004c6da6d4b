package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gatherspace/server/internal/api/middleware"
	"github.com/gatherspace/server/internal/api/problem"
	"github.com/gatherspace/server/internal/domain/ids"
	"github.com/gatherspace/server/internal/domain/participants"
	"github.com/gatherspace/server/internal/domain/validate"
	"github.com/gatherspace/server/internal/metrics"
)

type ParticipantsHandler struct {
	Service *participants.Service
	Env     string
}

func NewParticipantsHandler(service *participants.Service, env string) *ParticipantsHandler {
	return &ParticipantsHandler{Service: service, Env: env}
}

type registerRequest struct {
	EventID string `json:"eventId"`
}

// Register handles POST /participants/register.
func (h *ParticipantsHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		problem.Validation(w, r, err, h.Env)
		return
	}
	if err := ids.ValidateULID(req.EventID); err != nil {
		problem.Validation(w, r, validate.FieldErrors{"eventId": "must be a valid ULID"}, h.Env)
		return
	}

	reg, err := h.Service.Register(r.Context(), middleware.UserID(r), req.EventID)
	if err != nil {
		switch {
		case errors.Is(err, participants.ErrEventNotFound):
			metrics.RegistrationAttempts.WithLabelValues("event_not_found").Inc()
			problem.NotFound(w, r, err, h.Env)
		case errors.Is(err, participants.ErrEventFull):
			metrics.RegistrationAttempts.WithLabelValues("event_full").Inc()
			problem.CapacityExceeded(w, r, err, h.Env)
		case errors.Is(err, participants.ErrAlreadyRegistered):
			metrics.RegistrationAttempts.WithLabelValues("already_registered").Inc()
			problem.Conflict(w, r, err, h.Env)
		default:
			metrics.RegistrationAttempts.WithLabelValues("error").Inc()
			writeStoreError(w, r, err, h.Env)
		}
		return
	}

	metrics.RegistrationAttempts.WithLabelValues("registered").Inc()
	writeJSON(w, http.StatusCreated, reg)
}

// Unregister handles DELETE /participants/unregister/{eventId}.
func (h *ParticipantsHandler) Unregister(w http.ResponseWriter, r *http.Request) {
	eventID, ok := eventIDFromPath(w, r, h.Env)
	if !ok {
		return
	}

	reg, err := h.Service.Unregister(r.Context(), middleware.UserID(r), eventID)
	if err != nil {
		if errors.Is(err, participants.ErrNotRegistered) {
			problem.NotFound(w, r, err, h.Env)
			return
		}
		writeStoreError(w, r, err, h.Env)
		return
	}

	writeJSON(w, http.StatusOK, reg)
}

// ListByEvent handles GET /participants/event/{eventId}.
func (h *ParticipantsHandler) ListByEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := eventIDFromPath(w, r, h.Env)
	if !ok {
		return
	}

	items, err := h.Service.ListByEvent(r.Context(), eventID)
	if err != nil {
		if errors.Is(err, participants.ErrEventNotFound) {
			problem.NotFound(w, r, err, h.Env)
			return
		}
		writeStoreError(w, r, err, h.Env)
		return
	}

	writeJSON(w, http.StatusOK, items)
}

func eventIDFromPath(w http.ResponseWriter, r *http.Request, env string) (string, bool) {
	eventID := strings.TrimSpace(pathParam(r, "eventId"))
	if err := ids.ValidateULID(eventID); err != nil {
		problem.Validation(w, r, validate.FieldErrors{"eventId": "must be a valid ULID"}, env)
		return "", false
	}
	return eventID, true
}
