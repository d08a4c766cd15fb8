package middlewares

import (
	"encoding/json"
	"net/http"

	"github.com/safevault/safevault/internal/logger"
	"github.com/safevault/safevault/internal/models"
)

// RequireRoles returns a middleware that forwards only requests whose
// verified claims carry one of the allowed roles. It must run after
// AuthMiddleware; a request without claims is rejected as unauthorized.
func RequireRoles(allowed ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := ClaimsFromContext(r.Context())
			if claims == nil {
				writeUnauthorized(w, msgInvalidToken)
				return
			}

			for _, role := range allowed {
				if claims.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			logger.Log.Warnw("role rejected", "subject", claims.Subject, "role", claims.Role)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			json.NewEncoder(w).Encode(ErrorResponse{
				Error:   "Forbidden",
				Message: "Insufficient role.",
			})
		})
	}
}
