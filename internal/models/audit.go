package models

import "time"

// Audit event names published on the auth topic.
const (
	EventUserRegistered = "user.registered"
	EventUserLoggedIn   = "user.logged_in"
	EventLoginFailed    = "user.login_failed"
)

// AuditEvent is the payload published for every auth-relevant action.
type AuditEvent struct {
	Event      string    `json:"event"`
	Username   string    `json:"username"`
	OccurredAt time.Time `json:"occurred_at"`
}
