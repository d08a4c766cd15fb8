package handlers

import (
	"encoding/json"
	"net/http"
)

// DashboardResponse represents the admin dashboard greeting
// swagger:model DashboardResponse
type DashboardResponse struct {
	// Greeting message
	// default: Welcome to the admin dashboard!
	Message string `json:"message"`
}

// NewAdminDashboardHandler returns the dashboard endpoint, admin only.
// @Summary Admin dashboard
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} handlers.DashboardResponse
// @Failure 401 {object} middlewares.ErrorResponse "Missing or invalid token"
// @Failure 403 {object} middlewares.ErrorResponse "Insufficient role"
// @Router /admin/dashboard [get]
func NewAdminDashboardHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(DashboardResponse{
			Message: "Welcome to the admin dashboard!",
		})
	}
}
