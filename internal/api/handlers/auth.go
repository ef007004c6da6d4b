package handlers

import (
	"errors"
	"net/http"

	"github.com/gatherspace/server/internal/api/problem"
	"github.com/gatherspace/server/internal/auth"
	"github.com/gatherspace/server/internal/domain/users"
	"github.com/gatherspace/server/internal/domain/validate"
)

type AuthHandler struct {
	Users *users.Service
	JWT   *auth.JWTManager
	Env   string
}

func NewAuthHandler(usersService *users.Service, jwtManager *auth.JWTManager, env string) *AuthHandler {
	return &AuthHandler{Users: usersService, JWT: jwtManager, Env: env}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
}

// Login handles POST /auth/login. A missing account and a wrong password
// produce the same 401.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		problem.Validation(w, r, err, h.Env)
		return
	}
	missing := validate.FieldErrors{}
	if req.Email == "" {
		missing["email"] = "is required"
	}
	if req.Password == "" {
		missing["password"] = "is required"
	}
	if len(missing) > 0 {
		problem.Validation(w, r, missing, h.Env, problem.WithErrors(missing.Details()))
		return
	}

	user, err := h.Users.ValidateCredentials(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, users.ErrInvalidCredentials) {
			problem.Unauthorized(w, r, err, h.Env)
			return
		}
		writeStoreError(w, r, err, h.Env)
		return
	}

	token, err := h.JWT.Generate(user.ID, user.Email)
	if err != nil {
		problem.ServerError(w, r, err, h.Env)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{AccessToken: token})
}
