package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"pkdconsole/internal/platform/secrets"
	id "pkdconsole/pkg/domain"
	"pkdconsole/pkg/requestcontext"
)

// JWTValidator defines the interface for validating JWT tokens
type JWTValidator interface {
	ValidateToken(tokenString string) (*JWTClaims, error)
}

// JWTClaims represents the claims we expect from the JWT validator
type JWTClaims struct {
	OperatorID id.OperatorID
	Role       string
}

type contextKeyRole struct{}

// ContextKeyRole is exported for use in handlers
var ContextKeyRole = contextKeyRole{}

// GetOperatorID retrieves the authenticated operator ID from the context
func GetOperatorID(ctx context.Context) id.OperatorID {
	return requestcontext.OperatorID(ctx)
}

// GetRole retrieves the operator role from the context
func GetRole(ctx context.Context) string {
	role, ok := ctx.Value(ContextKeyRole).(string)
	if !ok {
		return ""
	}
	return role
}

func RequireAuth(validator JWTValidator, logger *slog.Logger) func(http.Handler) http.Handler {
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
				writeUnauthorized(w, "Missing or invalid Authorization header")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				ctx := r.Context()
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", GetRequestID(ctx),
				)
				writeUnauthorized(w, "Invalid or expired token")
				return
			}

			ctx := requestcontext.WithOperatorID(r.Context(), claims.OperatorID)
			ctx = context.WithValue(ctx, ContextKeyRole, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdminToken guards operational endpoints with a static token sent
// in X-Admin-Token. The configured value is a bcrypt hash, never the token
// itself.
func RequireAdminToken(tokenHash string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tokenHash == "" {
				writeUnauthorized(w, "Admin access is not configured")
				return
			}
			token := r.Header.Get("X-Admin-Token")
			if token == "" {
				writeUnauthorized(w, "Missing X-Admin-Token header")
				return
			}
			if err := secrets.Verify(token, tokenHash); err != nil {
				logger.WarnContext(r.Context(), "unauthorized admin access",
					"request_id", GetRequestID(r.Context()),
				)
				writeUnauthorized(w, "Invalid admin token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"` + description + `"}`))
}
