package middlewares

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/safevault/safevault/internal/jwt"
	"github.com/safevault/safevault/internal/logger"
)

// Tokener defines the minimal token interface needed by the gates.
type Tokener interface {
	GetTokenFromRequest(ctx context.Context, r *http.Request) (string, error)
	GetClaims(ctx context.Context, tokenString string) (*jwt.Claims, error)
}

// ErrorResponse is the body of every gate rejection.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

const (
	msgNoToken      = "No token provided."
	msgInvalidToken = "Invalid token."
)

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   "Unauthorized",
		Message: message,
	})
}

// AuthMiddleware returns a middleware that verifies the bearer token on
// every request and attaches its claims to the context. Absence and
// invalidity are reported with distinct messages but the same status; the
// reason a token failed verification is never revealed.
func AuthMiddleware(tokener Tokener) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			tokenString, err := tokener.GetTokenFromRequest(ctx, r)
			if err != nil {
				logger.Log.Warnw("authorization failed", "err", err)
				writeUnauthorized(w, msgNoToken)
				return
			}

			claims, err := tokener.GetClaims(ctx, tokenString)
			if err != nil {
				logger.Log.Warnw("authorization failed", "err", err)
				writeUnauthorized(w, msgInvalidToken)
				return
			}

			next.ServeHTTP(w, r.WithContext(SetClaims(ctx, claims)))
		})
	}
}

// OptionalAuthMiddleware attaches claims when a valid token is present but
// never rejects. Public endpoints use it where an authenticated principal
// changes policy, such as admin-set roles on registration.
func OptionalAuthMiddleware(tokener Tokener) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			tokenString, err := tokener.GetTokenFromRequest(ctx, r)
			if err == nil {
				if claims, err := tokener.GetClaims(ctx, tokenString); err == nil {
					r = r.WithContext(SetClaims(ctx, claims))
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}
