package middleware

import "net/http"

// DefaultMaxBodyBytes caps request bodies at 1 MB; no endpoint accepts
// anything close to that.
const DefaultMaxBodyBytes = 1 << 20

// RequestSizeLimit rejects oversized request bodies. Reads beyond the cap
// fail inside the handler's JSON decode with http.MaxBytesError.
func RequestSizeLimit(maxBytes int64) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodyBytes
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}
