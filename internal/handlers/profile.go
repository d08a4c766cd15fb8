package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/safevault/safevault/internal/middlewares"
)

// ProfileResponse represents the profile greeting for an authenticated user
// swagger:model ProfileResponse
type ProfileResponse struct {
	// Greeting message
	// default: Welcome to your profile!
	Message string `json:"message"`

	// Authenticated username
	Username string `json:"username"`

	// Role carried by the presented token
	Role string `json:"role"`
}

// NewProfileHandler returns the profile endpoint, open to any authenticated
// role. Identity comes from the verified token claims, not from the request.
// @Summary User profile
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} handlers.ProfileResponse
// @Failure 401 {object} middlewares.ErrorResponse "Missing or invalid token"
// @Router /users/profile [get]
func NewProfileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := middlewares.ClaimsFromContext(r.Context())

		resp := ProfileResponse{Message: "Welcome to your profile!"}
		if claims != nil {
			resp.Username = claims.Subject
			resp.Role = claims.Role.String()
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(resp)
	}
}
