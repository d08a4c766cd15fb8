package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidEmail(t *testing.T) {
	tests := []struct {
		name  string
		email string
		valid bool
	}{
		{name: "simple address", email: "user@example.com", valid: true},
		{name: "address with plus tag", email: "user+tag@example.com", valid: true},
		{name: "empty", email: "", valid: false},
		{name: "missing domain", email: "user@", valid: false},
		{name: "missing at sign", email: "userexample.com", valid: false},
		{name: "display name rejected", email: "User <user@example.com>", valid: false},
		{name: "surrounding whitespace rejected", email: " user@example.com", valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, IsValidEmail(tt.email))
		})
	}
}

func TestUsernameAndEmail(t *testing.T) {
	tests := []struct {
		name         string
		username     string
		email        string
		wantUsername string
		wantEmail    string
		wantValid    bool
	}{
		{
			name:         "clean values pass unchanged",
			username:     "Valid_User123",
			email:        "user@example.com",
			wantUsername: "Valid_User123",
			wantEmail:    "user@example.com",
			wantValid:    true,
		},
		{
			name:         "hyphen and underscore allowed",
			username:     "first-last_1",
			email:        "first.last@example.com",
			wantUsername: "first-last_1",
			wantEmail:    "first.last@example.com",
			wantValid:    true,
		},
		{
			name:         "username with space rejected",
			username:     "bad user",
			email:        "user@example.com",
			wantUsername: "bad user",
			wantEmail:    "user@example.com",
			wantValid:    false,
		},
		{
			name:         "injection payload rejected after sanitizing",
			username:     "Robert'); DROP TABLE Users;--",
			email:        "user@example.com",
			wantUsername: "Robert)   Users",
			wantEmail:    "user@example.com",
			wantValid:    false,
		},
		{
			name:         "username destroyed by sanitizer rejected",
			username:     "<script>alert(1)</script>",
			email:        "user@example.com",
			wantUsername: "",
			wantEmail:    "user@example.com",
			wantValid:    false,
		},
		{
			name:         "email wrapped in angle brackets rejected",
			username:     "Valid_User123",
			email:        "<user@example.com>",
			wantUsername: "Valid_User123",
			wantEmail:    "",
			wantValid:    false,
		},
		{
			name:         "malformed email rejected",
			username:     "Valid_User123",
			email:        "not-an-email",
			wantUsername: "Valid_User123",
			wantEmail:    "not-an-email",
			wantValid:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotUsername, gotEmail, gotValid := UsernameAndEmail(tt.username, tt.email)

			assert.Equal(t, tt.wantUsername, gotUsername)
			assert.Equal(t, tt.wantEmail, gotEmail)
			assert.Equal(t, tt.wantValid, gotValid)
		})
	}
}
