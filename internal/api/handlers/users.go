package handlers

import (
	"errors"
	"net/http"

	"github.com/gatherspace/server/internal/api/middleware"
	"github.com/gatherspace/server/internal/api/problem"
	"github.com/gatherspace/server/internal/domain/users"
)

type UsersHandler struct {
	Service *users.Service
	Env     string
}

func NewUsersHandler(service *users.Service, env string) *UsersHandler {
	return &UsersHandler{Service: service, Env: env}
}

// Create handles POST /users. The response never carries the password hash.
func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input users.RegisterInput
	if err := decodeJSON(r, &input); err != nil {
		problem.Validation(w, r, err, h.Env)
		return
	}

	user, err := h.Service.Create(r.Context(), input)
	if err != nil {
		switch {
		case errors.Is(err, users.ErrEmailTaken), errors.Is(err, users.ErrUsernameTaken):
			problem.Conflict(w, r, err, h.Env)
		case isValidationErr(err):
			writeValidation(w, r, err, h.Env)
		default:
			writeStoreError(w, r, err, h.Env)
		}
		return
	}

	writeJSON(w, http.StatusCreated, user.Summary())
}

// Profile handles GET /users/profile for the authenticated caller.
func (h *UsersHandler) Profile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r)
	user, err := h.Service.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			// Token subject no longer resolves to an account.
			problem.Unauthorized(w, r, err, h.Env)
			return
		}
		writeStoreError(w, r, err, h.Env)
		return
	}

	writeJSON(w, http.StatusOK, user.Summary())
}
