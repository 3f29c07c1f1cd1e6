package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"homeward/pkg/domain"
	"homeward/pkg/requestcontext"
)

// TokenValidator defines the interface for validating bearer tokens.
type TokenValidator interface {
	ValidateToken(tokenString string) (*ActorClaims, error)
}

// ActorClaims represents the claims we expect from the token validator.
type ActorClaims struct {
	ActorID string
	Role    domain.Role
}

// GetActor retrieves the authenticated actor from the context.
func GetActor(ctx context.Context) domain.Actor {
	return requestcontext.Actor(ctx)
}

func writeJSONError(w http.ResponseWriter, status int, errCode, errDesc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + errCode + `","error_description":"` + errDesc + `"}`))
}

// RequireAuth validates the bearer token and stores the resulting actor in
// the request context. The engine trusts the identity and role supplied here;
// ownership and role gates are enforced by the services.
func RequireAuth(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			const bearerPrefix = "Bearer "
			token, ok := strings.CutPrefix(authHeader, bearerPrefix)
			if !ok {
				ctx := r.Context()
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", GetRequestID(ctx),
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing or invalid Authorization header")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				ctx := r.Context()
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", GetRequestID(ctx),
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
				return
			}

			ctx := requestcontext.WithActor(r.Context(), domain.Actor{
				ID:   claims.ActorID,
				Role: claims.Role,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects requests whose authenticated actor does not hold one of
// the given roles. Services still re-check roles on every transition; this
// gate exists to fail fast and keep admin surfaces off-limits at the router.
func RequireRole(logger *slog.Logger, roles ...domain.Role) func(http.Handler) http.Handler {
	allowed := make(map[domain.Role]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := requestcontext.Actor(r.Context())
			if actor.IsZero() || !allowed[actor.Role] {
				logger.WarnContext(r.Context(), "forbidden - role not allowed",
					"role", actor.Role,
					"path", r.URL.Path,
					"request_id", GetRequestID(r.Context()),
				)
				writeJSONError(w, http.StatusForbidden, "not_authorized", "Insufficient role for this operation")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
