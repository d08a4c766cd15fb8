package repositories

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/safevault/safevault/internal/logger"
	"github.com/safevault/safevault/internal/models"
)

// usernameReader is the slice of UserReadRepository the cache decorates.
type usernameReader interface {
	GetByUsername(ctx context.Context, username string) (*models.UserDB, error)
}

// CachedUserReadRepository is a read-through cache over user lookups by
// username. Redis failures degrade silently to the database: a cache
// problem must never surface as a store error to callers.
type CachedUserReadRepository struct {
	reader usernameReader
	rdb    *redis.Client
	ttl    time.Duration
}

func NewCachedUserReadRepository(reader usernameReader, rdb *redis.Client, ttl time.Duration) *CachedUserReadRepository {
	return &CachedUserReadRepository{
		reader: reader,
		rdb:    rdb,
		ttl:    ttl,
	}
}

func cacheKey(username string) string {
	return "user:" + username
}

// cachedUser is the cache wire form. The model hides the password hash from
// JSON serialization; the cache is internal and must round-trip the full
// record, so it gets its own shape.
type cachedUser struct {
	UserID       uuid.UUID   `json:"user_id"`
	Username     string      `json:"username"`
	Email        string      `json:"email"`
	PasswordHash string      `json:"password_hash"`
	Role         models.Role `json:"role"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

func toCachedUser(u models.UserDB) cachedUser {
	return cachedUser{
		UserID:       u.UserID,
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Role:         u.Role,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func (c cachedUser) toModel() *models.UserDB {
	return &models.UserDB{
		UserID:       c.UserID,
		Username:     c.Username,
		Email:        c.Email,
		PasswordHash: c.PasswordHash,
		Role:         c.Role,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

// GetByUsername serves from cache when possible, otherwise falls through to
// the underlying reader and back-fills the cache. Absence is not cached.
func (r *CachedUserReadRepository) GetByUsername(ctx context.Context, username string) (*models.UserDB, error) {
	data, err := r.rdb.Get(ctx, cacheKey(username)).Bytes()
	if err == nil {
		var entry cachedUser
		if jsonErr := json.Unmarshal(data, &entry); jsonErr == nil {
			return entry.toModel(), nil
		}
		// Unreadable entry, drop it and fall through.
		r.rdb.Del(ctx, cacheKey(username))
	} else if err != redis.Nil {
		logger.Log.Warnw("user cache read failed", "username", username, "error", err)
	}

	user, err := r.reader.GetByUsername(ctx, username)
	if err != nil || user == nil {
		return user, err
	}

	if data, jsonErr := json.Marshal(toCachedUser(*user)); jsonErr == nil {
		if setErr := r.rdb.Set(ctx, cacheKey(username), data, r.ttl).Err(); setErr != nil {
			logger.Log.Warnw("user cache write failed", "username", username, "error", setErr)
		}
	}

	return user, nil
}

// Invalidate drops the cached entry for username after a write.
func (r *CachedUserReadRepository) Invalidate(ctx context.Context, username string) {
	if err := r.rdb.Del(ctx, cacheKey(username)).Err(); err != nil {
		logger.Log.Warnw("user cache invalidation failed", "username", username, "error", err)
	}
}
