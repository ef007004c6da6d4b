// Package problem writes RFC 7807 problem+json responses. Server errors are
// logged through the request-scoped zerolog logger; internal detail only
// reaches the response body outside production.
package problem

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
)

const contentType = "application/problem+json"

const (
	TypeValidation   = "https://gatherspace.dev/problems/validation-error"
	TypeNotFound     = "https://gatherspace.dev/problems/not-found"
	TypeConflict     = "https://gatherspace.dev/problems/conflict"
	TypeUnauthorized = "https://gatherspace.dev/problems/unauthorized"
	TypeCapacity     = "https://gatherspace.dev/problems/event-full"
	TypeUnavailable  = "https://gatherspace.dev/problems/store-unavailable"
	TypeServerError  = "https://gatherspace.dev/problems/server-error"
)

type Details struct {
	Type     string                 `json:"type"`
	Title    string                 `json:"title"`
	Status   int                    `json:"status"`
	Detail   string                 `json:"detail,omitempty"`
	Instance string                 `json:"instance,omitempty"`
	Errors   map[string]interface{} `json:"errors,omitempty"`
}

type Option func(*Details)

func WithDetail(detail string) Option {
	return func(p *Details) {
		p.Detail = detail
	}
}

func WithErrors(errs map[string]interface{}) Option {
	return func(p *Details) {
		p.Errors = errs
	}
}

func Write(w http.ResponseWriter, r *http.Request, status int, typ, title string, err error, env string, opts ...Option) {
	p := Details{
		Type:   typ,
		Title:  title,
		Status: status,
	}

	for _, opt := range opts {
		opt(&p)
	}

	if p.Detail == "" && err != nil {
		if env == "development" || env == "test" {
			p.Detail = err.Error()
		} else {
			p.Detail = http.StatusText(status)
		}
	}

	if p.Instance == "" && r != nil {
		p.Instance = r.URL.Path
	}

	if err != nil && r != nil {
		logger := zerolog.Ctx(r.Context())
		event := logger.Warn()
		if status >= 500 {
			event = logger.Error()
		}
		event.
			Err(err).
			Int("status", status).
			Str("type", typ).
			Str("path", r.URL.Path).
			Str("method", r.Method).
			Msg(title)
	}

	writeDetails(w, p)
}

// Convenience writers for the error taxonomy.

func Validation(w http.ResponseWriter, r *http.Request, err error, env string, opts ...Option) {
	Write(w, r, http.StatusBadRequest, TypeValidation, "Invalid request", err, env, opts...)
}

func NotFound(w http.ResponseWriter, r *http.Request, err error, env string) {
	Write(w, r, http.StatusNotFound, TypeNotFound, "Not found", err, env)
}

func Conflict(w http.ResponseWriter, r *http.Request, err error, env string) {
	Write(w, r, http.StatusConflict, TypeConflict, "Conflict", err, env)
}

func Unauthorized(w http.ResponseWriter, r *http.Request, err error, env string) {
	Write(w, r, http.StatusUnauthorized, TypeUnauthorized, "Unauthorized", err, env)
}

func CapacityExceeded(w http.ResponseWriter, r *http.Request, err error, env string) {
	Write(w, r, http.StatusBadRequest, TypeCapacity, "Event full", err, env)
}

func StoreUnavailable(w http.ResponseWriter, r *http.Request, err error, env string) {
	Write(w, r, http.StatusServiceUnavailable, TypeUnavailable, "Service unavailable", err, env)
}

func ServerError(w http.ResponseWriter, r *http.Request, err error, env string) {
	Write(w, r, http.StatusInternalServerError, TypeServerError, "Server error", err, env)
}

func writeDetails(w http.ResponseWriter, p Details) {
	payload, err := json.Marshal(p)
	if err != nil {
		fallback := fmt.Sprintf("{\"type\":\"about:blank\",\"title\":\"%s\",\"status\":500}", http.StatusText(http.StatusInternalServerError))
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(fallback))
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(p.Status)
	_, _ = w.Write(payload)
}
