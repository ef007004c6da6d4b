package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gatherspace/server/internal/api/problem"
	"github.com/gatherspace/server/internal/domain/validate"
	"github.com/gatherspace/server/internal/storage"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// decodeJSON parses the request body into dst, rejecting unknown fields and
// trailing garbage.
func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return err
	}
	var extra json.RawMessage
	if err := decoder.Decode(&extra); err == nil {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}

// writeValidation renders a field-errors failure with per-field detail when
// available.
func writeValidation(w http.ResponseWriter, r *http.Request, err error, env string) {
	var fields validate.FieldErrors
	if errors.As(err, &fields) {
		problem.Validation(w, r, err, env, problem.WithErrors(fields.Details()))
		return
	}
	problem.Validation(w, r, err, env)
}

// writeStoreError maps storage failures: timeouts and connection errors are
// 503 and retryable, everything else is an opaque 500.
func writeStoreError(w http.ResponseWriter, r *http.Request, err error, env string) {
	if errors.Is(err, storage.ErrUnavailable) {
		problem.StoreUnavailable(w, r, err, env)
		return
	}
	problem.ServerError(w, r, err, env)
}

func isValidationErr(err error) bool {
	var fields validate.FieldErrors
	return errors.As(err, &fields)
}

func pathParam(r *http.Request, key string) string {
	if r == nil {
		return ""
	}
	return r.PathValue(key)
}
