package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/google/uuid"

	"github.com/safevault/safevault/internal/logger"
	"github.com/safevault/safevault/internal/models"
	"github.com/safevault/safevault/internal/services"
)

// UserManager defines the interface the user-management service must implement.
type UserManager interface {
	List(ctx context.Context) ([]models.UserDB, error)
	Get(ctx context.Context, id uuid.UUID) (*models.UserDB, error)
	Update(ctx context.Context, id uuid.UUID, email string, role models.Role) (*models.UserDB, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// UpdateUserRequest represents the JSON body for a user update
// swagger:model UpdateUserRequest
type UpdateUserRequest struct {
	// New email
	// required: true
	// default: john@example.com
	Email string `json:"email"`

	// New role
	// required: true
	// default: user
	Role string `json:"role"`
}

// Validate checks the request shape before it reaches the service.
func (r UpdateUserRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required),
		validation.Field(&r.Role, validation.Required),
	)
}

// UserErrorResponse represents an error response for user management
// swagger:model UserErrorResponse
type UserErrorResponse struct {
	// Error message
	// default: User not found.
	Error string `json:"error"`
}

// DeleteUserResponse represents a successful deletion
// swagger:model DeleteUserResponse
type DeleteUserResponse struct {
	// Success message
	// default: User deleted successfully.
	Message string `json:"message"`
}

// NewListUsersHandler returns an HTTP handler listing all users.
// @Summary List users
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.UserDB
// @Failure 401 {object} middlewares.ErrorResponse "Missing or invalid token"
// @Router /users [get]
func NewListUsersHandler(svc UserManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, err := svc.List(r.Context())
		if err != nil {
			logger.Log.Errorw("internal server error", "err", err)
			writeUserError(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(users)
	}
}

// NewGetUserHandler returns an HTTP handler fetching one user by id.
// @Summary Get user by id
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} models.UserDB
// @Failure 404 {object} handlers.UserErrorResponse "User not found"
// @Router /users/{id} [get]
func NewGetUserHandler(svc UserManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := userIDFromRequest(w, r)
		if !ok {
			return
		}

		user, err := svc.Get(r.Context(), id)
		if err != nil {
			writeUserServiceError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(user)
	}
}

// NewUpdateUserHandler returns an HTTP handler rewriting a user's email and role.
// @Summary Update user
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param updateUserRequest body handlers.UpdateUserRequest true "User update request"
// @Success 200 {object} models.UserDB
// @Failure 400 {object} handlers.UserErrorResponse "Invalid input"
// @Failure 404 {object} handlers.UserErrorResponse "User not found"
// @Router /users/{id} [put]
func NewUpdateUserHandler(svc UserManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := userIDFromRequest(w, r)
		if !ok {
			return
		}

		var req UpdateUserRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeUserError(w, http.StatusBadRequest, "Invalid input detected.")
			return
		}
		if err := req.Validate(); err != nil {
			writeUserError(w, http.StatusBadRequest, "Invalid input detected.")
			return
		}

		role, err := models.ParseRole(req.Role)
		if err != nil {
			writeUserError(w, http.StatusBadRequest, "Invalid input detected.")
			return
		}

		user, err := svc.Update(r.Context(), id, req.Email, role)
		if err != nil {
			writeUserServiceError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(user)
	}
}

// NewDeleteUserHandler returns an HTTP handler removing a user by id.
// @Summary Delete user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} handlers.DeleteUserResponse
// @Failure 404 {object} handlers.UserErrorResponse "User not found"
// @Router /users/{id} [delete]
func NewDeleteUserHandler(svc UserManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := userIDFromRequest(w, r)
		if !ok {
			return
		}

		if err := svc.Delete(r.Context(), id); err != nil {
			writeUserServiceError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(DeleteUserResponse{
			Message: "User deleted successfully.",
		})
	}
}

func userIDFromRequest(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeUserError(w, http.StatusBadRequest, "Invalid user id.")
		return uuid.Nil, false
	}
	return id, true
}

func writeUserServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		writeUserError(w, http.StatusNotFound, "User not found.")
	case errors.Is(err, services.ErrInvalidInput):
		writeUserError(w, http.StatusBadRequest, "Invalid input detected.")
	case errors.Is(err, services.ErrUserAlreadyExists):
		writeUserError(w, http.StatusBadRequest, "Username or email already exists.")
	default:
		logger.Log.Errorw("internal server error", "err", err)
		writeUserError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func writeUserError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(UserErrorResponse{Error: message})
}
