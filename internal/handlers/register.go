package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/safevault/safevault/internal/logger"
	"github.com/safevault/safevault/internal/middlewares"
	"github.com/safevault/safevault/internal/models"
	"github.com/safevault/safevault/internal/services"
)

// Registerer defines the interface that the registration service must implement.
type Registerer interface {
	Register(ctx context.Context, username, email, password string, role, actorRole models.Role) error
}

// RegisterRequest represents the JSON body for user registration
// swagger:model RegisterRequest
type RegisterRequest struct {
	// Username
	// required: true
	// default: john_doe
	Username string `json:"username"`

	// Email
	// required: true
	// default: john@example.com
	Email string `json:"email"`

	// Password
	// required: true
	// default: secret123
	Password string `json:"password"`

	// Role, defaults to "user"; only an authenticated admin may set another
	// default: user
	Role string `json:"role"`
}

// Validate checks the request shape before it reaches the service.
func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required),
		validation.Field(&r.Email, validation.Required),
		validation.Field(&r.Password, validation.Required, validation.Length(1, 72)),
	)
}

// RegisterResponse represents a successful registration response
// swagger:model RegisterResponse
type RegisterResponse struct {
	// Success message
	// default: User registered successfully.
	Message string `json:"message"`
}

// RegisterErrorResponse represents an error response for registration
// swagger:model RegisterErrorResponse
type RegisterErrorResponse struct {
	// Error message
	// default: Invalid input detected.
	Error string `json:"error"`
}

// NewRegisterHandler returns an HTTP handler for user registration.
// @Summary Register a new user
// @Description Creates a new user account. Input is sanitized and validated; username and email must be unique. Password is hashed before storing.
// @Tags auth
// @Accept json
// @Produce json
// @Param registerRequest body handlers.RegisterRequest true "User registration request"
// @Success 201 {object} handlers.RegisterResponse "User successfully registered"
// @Failure 400 {object} handlers.RegisterErrorResponse "Invalid input / username or email already exists"
// @Failure 403 {object} handlers.RegisterErrorResponse "Role not allowed"
// @Router /register [post]
func NewRegisterHandler(svc Registerer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterRequest

		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeRegisterError(w, http.StatusBadRequest, "Invalid input detected.")
			return
		}
		if err := req.Validate(); err != nil {
			writeRegisterError(w, http.StatusBadRequest, "Invalid input detected.")
			return
		}

		role, err := models.ParseRole(req.Role)
		if err != nil {
			writeRegisterError(w, http.StatusBadRequest, "Invalid input detected.")
			return
		}

		// Anonymous callers carry no role; the service treats that as
		// non-admin when deciding whether the requested role is allowed.
		var actorRole models.Role
		if claims := middlewares.ClaimsFromContext(r.Context()); claims != nil {
			actorRole = claims.Role
		}

		err = svc.Register(r.Context(), req.Username, req.Email, req.Password, role, actorRole)
		if err != nil {
			switch {
			case errors.Is(err, services.ErrInvalidInput):
				writeRegisterError(w, http.StatusBadRequest, "Invalid input detected.")
			case errors.Is(err, services.ErrUserAlreadyExists):
				writeRegisterError(w, http.StatusBadRequest, "Username or email already exists.")
			case errors.Is(err, services.ErrRoleNotAllowed):
				writeRegisterError(w, http.StatusForbidden, "Role not allowed.")
			default:
				logger.Log.Errorw("internal server error", "err", err)
				writeRegisterError(w, http.StatusInternalServerError, "Internal server error")
			}
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(RegisterResponse{
			Message: "User registered successfully.",
		})
	}
}

func writeRegisterError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(RegisterErrorResponse{Error: message})
}
