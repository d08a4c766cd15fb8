package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/safevault/safevault/internal/logger"
	"github.com/safevault/safevault/internal/models"
	"github.com/safevault/safevault/internal/repositories"
	"github.com/safevault/safevault/internal/validate"
)

// Error variables
var (
	ErrInvalidInput       = errors.New("invalid input detected")
	ErrUserAlreadyExists  = errors.New("username or email already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrRoleNotAllowed     = errors.New("role not allowed")
)

// dummyHash is a valid bcrypt hash of a throwaway value. Login runs a
// comparison against it when the user does not exist, so the unknown-user
// and wrong-password paths take the same time.
var dummyHash = []byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy")

// ProfileRedirectURL is returned with every successful login.
const ProfileRedirectURL = "/api/v1/users/profile"

// UserReader defines read-only operations for users.
type UserReader interface {
	GetByUsername(ctx context.Context, username string) (*models.UserDB, error)
}

// UserWriter defines write operations for users.
type UserWriter interface {
	Save(ctx context.Context, user models.UserDB) error
}

// TokenIssuer defines an interface for issuing signed claims tokens.
type TokenIssuer interface {
	Generate(ctx context.Context, username string, role models.Role) (string, error)
}

// EventPublisher publishes audit events. Publishing is best effort and
// never fails the calling flow.
type EventPublisher interface {
	Publish(ctx context.Context, event models.AuditEvent) error
}

// AuthService handles registration and login.
type AuthService struct {
	reader UserReader
	writer UserWriter
	issuer TokenIssuer
	events EventPublisher
}

// NewAuthService creates a new AuthService instance.
func NewAuthService(reader UserReader, writer UserWriter, issuer TokenIssuer, events EventPublisher) *AuthService {
	return &AuthService{
		reader: reader,
		writer: writer,
		issuer: issuer,
		events: events,
	}
}

// Register creates a new user after sanitizing and validating its input.
// The caller-supplied role is a policy decision: only an acting admin
// principal may set a role other than the default.
func (svc *AuthService) Register(ctx context.Context, username, email, password string, role, actorRole models.Role) error {
	sanitizedUsername, sanitizedEmail, valid := validate.UsernameAndEmail(username, email)
	if !valid {
		logger.Log.Warnw("registration input rejected", "username", sanitizedUsername)
		return ErrInvalidInput
	}
	if !role.Valid() || password == "" {
		return ErrInvalidInput
	}

	if role != models.DefaultRole && actorRole != models.RoleAdmin {
		logger.Log.Warnw("role elevation rejected", "username", sanitizedUsername, "role", role)
		return ErrRoleNotAllowed
	}

	user, err := svc.reader.GetByUsername(ctx, sanitizedUsername)
	if err != nil {
		logger.Log.Errorw("failed to check user exists", "err", err)
		return err
	}
	if user != nil {
		return ErrUserAlreadyExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		logger.Log.Errorw("failed to hash password", "err", err)
		return err
	}

	err = svc.writer.Save(ctx, models.UserDB{
		UserID:       uuid.New(),
		Username:     sanitizedUsername,
		Email:        sanitizedEmail,
		PasswordHash: string(hashedPassword),
		Role:         role,
	})
	if errors.Is(err, repositories.ErrAlreadyExists) {
		// Lost the race, the store constraint decided.
		return ErrUserAlreadyExists
	}
	if err != nil {
		logger.Log.Errorw("failed to save user", "err", err)
		return err
	}

	svc.publish(ctx, models.EventUserRegistered, sanitizedUsername)
	return nil
}

// Login authenticates a user and returns a signed token plus the redirect
// URL for the caller. Unknown users and wrong passwords are deliberately
// indistinguishable in both error and timing.
func (svc *AuthService) Login(ctx context.Context, username, password string) (string, string, error) {
	user, err := svc.reader.GetByUsername(ctx, username)
	if err != nil {
		logger.Log.Errorw("failed to get user", "err", err)
		return "", "", err
	}
	if user == nil {
		bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		svc.publish(ctx, models.EventLoginFailed, username)
		return "", "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		svc.publish(ctx, models.EventLoginFailed, username)
		return "", "", ErrInvalidCredentials
	}

	token, err := svc.issuer.Generate(ctx, user.Username, user.Role)
	if err != nil {
		logger.Log.Errorw("failed to generate token", "err", err)
		return "", "", err
	}

	svc.publish(ctx, models.EventUserLoggedIn, user.Username)
	return token, ProfileRedirectURL, nil
}

func (svc *AuthService) publish(ctx context.Context, event, username string) {
	if svc.events == nil {
		return
	}
	err := svc.events.Publish(ctx, models.AuditEvent{
		Event:      event,
		Username:   username,
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		logger.Log.Warnw("audit publish failed", "event", event, "err", err)
	}
}
