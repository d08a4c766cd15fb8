package middlewares

import (
	"context"

	"github.com/safevault/safevault/internal/jwt"
)

// contextKey is an unexported type for keys in context
type contextKey struct{ name string }

var (
	claimsKey    = contextKey{"claims"}
	requestIDKey = contextKey{"requestID"}
)

// SetClaims stores verified token claims in the context.
func SetClaims(ctx context.Context, claims *jwt.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// ClaimsFromContext retrieves verified token claims. Returns nil when the
// request carried no valid token.
func ClaimsFromContext(ctx context.Context) *jwt.Claims {
	claims, _ := ctx.Value(claimsKey).(*jwt.Claims)
	return claims
}

func setRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext retrieves the request ID assigned by the logging
// middleware. Returns "" if none was assigned.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
