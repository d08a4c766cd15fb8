package services

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/safevault/safevault/internal/logger"
	"github.com/safevault/safevault/internal/models"
	"github.com/safevault/safevault/internal/repositories"
	"github.com/safevault/safevault/internal/sanitize"
	"github.com/safevault/safevault/internal/validate"
)

// ErrUserNotFound reports a lookup by id that matched nothing.
var ErrUserNotFound = errors.New("user not found")

// UserLister defines bulk and by-id read operations for users.
type UserLister interface {
	List(ctx context.Context) ([]models.UserDB, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.UserDB, error)
}

// UserModifier defines update and delete operations for users.
type UserModifier interface {
	Update(ctx context.Context, id uuid.UUID, email string, role models.Role) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

// CacheInvalidator drops cached user entries after a write.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, username string)
}

// UserService handles the user-management CRUD surface.
type UserService struct {
	lister   UserLister
	modifier UserModifier
	cache    CacheInvalidator
}

// NewUserService creates a new UserService instance.
func NewUserService(lister UserLister, modifier UserModifier, cache CacheInvalidator) *UserService {
	return &UserService{
		lister:   lister,
		modifier: modifier,
		cache:    cache,
	}
}

// List returns all user records.
func (svc *UserService) List(ctx context.Context) ([]models.UserDB, error) {
	return svc.lister.List(ctx)
}

// Get returns the user with the given id or ErrUserNotFound.
func (svc *UserService) Get(ctx context.Context, id uuid.UUID) (*models.UserDB, error) {
	user, err := svc.lister.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// Update rewrites a user's email and role. The email passes through the
// same sanitization pipeline as registration input.
func (svc *UserService) Update(ctx context.Context, id uuid.UUID, email string, role models.Role) (*models.UserDB, error) {
	sanitizedEmail := sanitize.Sanitize(email)
	if !validate.IsValidEmail(sanitizedEmail) || !role.Valid() {
		return nil, ErrInvalidInput
	}

	user, err := svc.lister.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	ok, err := svc.modifier.Update(ctx, id, sanitizedEmail, role)
	if errors.Is(err, repositories.ErrAlreadyExists) {
		return nil, ErrUserAlreadyExists
	}
	if err != nil {
		logger.Log.Errorw("failed to update user", "err", err)
		return nil, err
	}
	if !ok {
		return nil, ErrUserNotFound
	}

	svc.invalidate(ctx, user.Username)

	user.Email = sanitizedEmail
	user.Role = role
	return user, nil
}

// Delete removes a user by id.
func (svc *UserService) Delete(ctx context.Context, id uuid.UUID) error {
	user, err := svc.lister.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	ok, err := svc.modifier.Delete(ctx, id)
	if err != nil {
		logger.Log.Errorw("failed to delete user", "err", err)
		return err
	}
	if !ok {
		return ErrUserNotFound
	}

	svc.invalidate(ctx, user.Username)
	return nil
}

func (svc *UserService) invalidate(ctx context.Context, username string) {
	if svc.cache != nil {
		svc.cache.Invalidate(ctx, username)
	}
}
