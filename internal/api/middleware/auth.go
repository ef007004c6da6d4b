package middleware

import (
	"context"
	"net/http"

	"github.com/gatherspace/server/internal/api/problem"
	"github.com/gatherspace/server/internal/auth"
)

type contextKey string

const claimsKey contextKey = "authClaims"

// BearerAuth rejects requests without a valid bearer token before any
// handler logic runs. Valid claims are stored on the request context.
func BearerAuth(jwtManager *auth.JWTManager, env string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := auth.TokenFromHeader(r.Header.Get("Authorization"))
			if err != nil {
				problem.Unauthorized(w, r, err, env)
				return
			}

			claims, err := jwtManager.Validate(token)
			if err != nil {
				problem.Unauthorized(w, r, err, env)
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ContextWithClaims attaches claims to a context; exported for handler tests.
func ContextWithClaims(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// ClaimsFromContext returns the validated claims, or nil outside guarded routes.
func ClaimsFromContext(ctx context.Context) *auth.Claims {
	if ctx == nil {
		return nil
	}
	if claims, ok := ctx.Value(claimsKey).(*auth.Claims); ok {
		return claims
	}
	return nil
}

// UserID returns the authenticated caller's user ID, or "".
func UserID(r *http.Request) string {
	claims := ClaimsFromContext(r.Context())
	if claims == nil {
		return ""
	}
	return claims.Subject
}
