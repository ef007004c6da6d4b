package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gatherspace/server/internal/api/middleware"
	"github.com/gatherspace/server/internal/api/problem"
	"github.com/gatherspace/server/internal/domain/events"
	"github.com/gatherspace/server/internal/domain/ids"
	"github.com/gatherspace/server/internal/domain/validate"
)

type EventsHandler struct {
	Service *events.Service
	Env     string
}

func NewEventsHandler(service *events.Service, env string) *EventsHandler {
	return &EventsHandler{Service: service, Env: env}
}

// Create handles POST /events.
func (h *EventsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input events.EventInput
	if err := decodeJSON(r, &input); err != nil {
		problem.Validation(w, r, err, h.Env)
		return
	}

	event, err := h.Service.Create(r.Context(), input)
	if err != nil {
		if isValidationErr(err) {
			writeValidation(w, r, err, h.Env)
			return
		}
		writeStoreError(w, r, err, h.Env)
		return
	}

	writeJSON(w, http.StatusCreated, event)
}

// List handles GET /events. Public; every event carries its participant count.
func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.Service.List(r.Context())
	if err != nil {
		writeStoreError(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// Get handles GET /events/{id}.
func (h *EventsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := eventIDParam(w, r, h.Env)
	if !ok {
		return
	}

	event, err := h.Service.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, events.ErrNotFound) {
			problem.NotFound(w, r, err, h.Env)
			return
		}
		writeStoreError(w, r, err, h.Env)
		return
	}

	writeJSON(w, http.StatusOK, event)
}

// Update handles PATCH /events/{id}.
func (h *EventsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := eventIDParam(w, r, h.Env)
	if !ok {
		return
	}

	var input events.EventUpdateInput
	if err := decodeJSON(r, &input); err != nil {
		problem.Validation(w, r, err, h.Env)
		return
	}

	event, err := h.Service.Update(r.Context(), id, input)
	if err != nil {
		switch {
		case errors.Is(err, events.ErrNotFound):
			problem.NotFound(w, r, err, h.Env)
		case isValidationErr(err):
			writeValidation(w, r, err, h.Env)
		default:
			writeStoreError(w, r, err, h.Env)
		}
		return
	}

	writeJSON(w, http.StatusOK, event)
}

// Delete handles DELETE /events/{id}.
func (h *EventsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := eventIDParam(w, r, h.Env)
	if !ok {
		return
	}

	event, err := h.Service.Delete(r.Context(), id)
	if err != nil {
		if errors.Is(err, events.ErrNotFound) {
			problem.NotFound(w, r, err, h.Env)
			return
		}
		writeStoreError(w, r, err, h.Env)
		return
	}

	writeJSON(w, http.StatusOK, event)
}

// ListMine handles GET /events/user/my: events the caller has joined.
func (h *EventsHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	items, err := h.Service.ListJoined(r.Context(), middleware.UserID(r))
	if err != nil {
		writeStoreError(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func eventIDParam(w http.ResponseWriter, r *http.Request, env string) (string, bool) {
	id := strings.TrimSpace(pathParam(r, "id"))
	if err := ids.ValidateULID(id); err != nil {
		problem.Validation(w, r, validate.FieldErrors{"id": "must be a valid ULID"}, env)
		return "", false
	}
	return id, true
}
