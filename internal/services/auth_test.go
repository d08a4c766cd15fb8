package services

import (
	"context"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/safevault/safevault/internal/models"
	"github.com/safevault/safevault/internal/repositories"
)

func TestAuthService_Register_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	reader := NewMockUserReader(ctrl)
	writer := NewMockUserWriter(ctrl)
	events := NewMockEventPublisher(ctrl)

	reader.EXPECT().
		GetByUsername(gomock.Any(), "Valid_User123").
		Return(nil, nil)

	writer.EXPECT().
		Save(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, user models.UserDB) error {
			assert.Equal(t, "Valid_User123", user.Username)
			assert.Equal(t, "user@example.com", user.Email)
			assert.Equal(t, models.RoleUser, user.Role)
			assert.NotEqual(t, uuid0, user.UserID.String())
			assert.NoError(t, bcrypt.CompareHashAndPassword(
				[]byte(user.PasswordHash), []byte("Secure@123")))
			return nil
		})

	events.EXPECT().
		Publish(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, event models.AuditEvent) error {
			assert.Equal(t, models.EventUserRegistered, event.Event)
			assert.Equal(t, "Valid_User123", event.Username)
			return nil
		})

	svc := NewAuthService(reader, writer, nil, events)

	err := svc.Register(context.Background(),
		"Valid_User123", "user@example.com", "Secure@123",
		models.RoleUser, models.DefaultRole)

	assert.NoError(t, err)
}

const uuid0 = "00000000-0000-0000-0000-000000000000"

func TestAuthService_Register_SanitizesBeforeLookup(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	reader := NewMockUserReader(ctrl)
	writer := NewMockUserWriter(ctrl)

	// The sanitizer strips the script block, so the lookup and the saved
	// record see the clean remainder.
	reader.EXPECT().
		GetByUsername(gomock.Any(), "alice").
		Return(nil, nil)
	writer.EXPECT().
		Save(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, user models.UserDB) error {
			assert.Equal(t, "alice", user.Username)
			return nil
		})

	svc := NewAuthService(reader, writer, nil, nil)

	err := svc.Register(context.Background(),
		"<script>alert(1)</script>alice", "user@example.com", "Secure@123",
		models.RoleUser, models.DefaultRole)

	assert.NoError(t, err)
}

func TestAuthService_Register_InvalidInput(t *testing.T) {
	tests := []struct {
		name     string
		username string
		email    string
		password string
		role     models.Role
	}{
		{
			name:     "username with forbidden characters",
			username: "bad user!",
			email:    "user@example.com",
			password: "Secure@123",
			role:     models.RoleUser,
		},
		{
			name:     "username destroyed by sanitizing",
			username: "');--;",
			email:    "user@example.com",
			password: "Secure@123",
			role:     models.RoleUser,
		},
		{
			name:     "malformed email",
			username: "Valid_User123",
			email:    "not-an-email",
			password: "Secure@123",
			role:     models.RoleUser,
		},
		{
			name:     "empty password",
			username: "Valid_User123",
			email:    "user@example.com",
			password: "",
			role:     models.RoleUser,
		},
		{
			name:     "unknown role",
			username: "Valid_User123",
			email:    "user@example.com",
			password: "Secure@123",
			role:     models.Role("superuser"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			// No repository calls expected, validation fails first.
			svc := NewAuthService(NewMockUserReader(ctrl), NewMockUserWriter(ctrl), nil, nil)

			err := svc.Register(context.Background(),
				tt.username, tt.email, tt.password, tt.role, models.DefaultRole)

			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestAuthService_Register_RolePolicy(t *testing.T) {
	t.Run("non admin cannot request admin role", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		svc := NewAuthService(NewMockUserReader(ctrl), NewMockUserWriter(ctrl), nil, nil)

		err := svc.Register(context.Background(),
			"Valid_User123", "user@example.com", "Secure@123",
			models.RoleAdmin, models.RoleUser)

		assert.ErrorIs(t, err, ErrRoleNotAllowed)
	})

	t.Run("admin can grant admin role", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		reader := NewMockUserReader(ctrl)
		writer := NewMockUserWriter(ctrl)

		reader.EXPECT().GetByUsername(gomock.Any(), "Valid_User123").Return(nil, nil)
		writer.EXPECT().
			Save(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, user models.UserDB) error {
				assert.Equal(t, models.RoleAdmin, user.Role)
				return nil
			})

		svc := NewAuthService(reader, writer, nil, nil)

		err := svc.Register(context.Background(),
			"Valid_User123", "user@example.com", "Secure@123",
			models.RoleAdmin, models.RoleAdmin)

		assert.NoError(t, err)
	})
}

func TestAuthService_Register_UserAlreadyExists(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	reader := NewMockUserReader(ctrl)

	reader.EXPECT().
		GetByUsername(gomock.Any(), "Valid_User123").
		Return(&models.UserDB{Username: "Valid_User123"}, nil)

	svc := NewAuthService(reader, NewMockUserWriter(ctrl), nil, nil)

	err := svc.Register(context.Background(),
		"Valid_User123", "user@example.com", "Secure@123",
		models.RoleUser, models.DefaultRole)

	assert.ErrorIs(t, err, ErrUserAlreadyExists)
}

func TestAuthService_Register_SaveRaceMapsToAlreadyExists(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	reader := NewMockUserReader(ctrl)
	writer := NewMockUserWriter(ctrl)

	reader.EXPECT().GetByUsername(gomock.Any(), "Valid_User123").Return(nil, nil)
	writer.EXPECT().Save(gomock.Any(), gomock.Any()).Return(repositories.ErrAlreadyExists)

	svc := NewAuthService(reader, writer, nil, nil)

	err := svc.Register(context.Background(),
		"Valid_User123", "user@example.com", "Secure@123",
		models.RoleUser, models.DefaultRole)

	assert.ErrorIs(t, err, ErrUserAlreadyExists)
}

func TestAuthService_Register_ReaderError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	reader := NewMockUserReader(ctrl)
	storeErr := errors.New("connection refused")

	reader.EXPECT().GetByUsername(gomock.Any(), "Valid_User123").Return(nil, storeErr)

	svc := NewAuthService(reader, NewMockUserWriter(ctrl), nil, nil)

	err := svc.Register(context.Background(),
		"Valid_User123", "user@example.com", "Secure@123",
		models.RoleUser, models.DefaultRole)

	assert.ErrorIs(t, err, storeErr)
}

func TestAuthService_Register_PublishFailureIgnored(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	reader := NewMockUserReader(ctrl)
	writer := NewMockUserWriter(ctrl)
	events := NewMockEventPublisher(ctrl)

	reader.EXPECT().GetByUsername(gomock.Any(), "Valid_User123").Return(nil, nil)
	writer.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil)
	events.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(errors.New("broker down"))

	svc := NewAuthService(reader, writer, nil, events)

	err := svc.Register(context.Background(),
		"Valid_User123", "user@example.com", "Secure@123",
		models.RoleUser, models.DefaultRole)

	assert.NoError(t, err)
}

func TestAuthService_Register_HashesNeverRepeat(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	reader := NewMockUserReader(ctrl)
	writer := NewMockUserWriter(ctrl)

	var hashes []string
	reader.EXPECT().GetByUsername(gomock.Any(), gomock.Any()).Return(nil, nil).Times(2)
	writer.EXPECT().
		Save(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, user models.UserDB) error {
			hashes = append(hashes, user.PasswordHash)
			return nil
		}).
		Times(2)

	svc := NewAuthService(reader, writer, nil, nil)

	for _, username := range []string{"alice", "bob"} {
		err := svc.Register(context.Background(),
			username, username+"@example.com", "Secure@123",
			models.RoleUser, models.DefaultRole)
		require.NoError(t, err)
	}

	// Same password, fresh salt every time.
	require.Len(t, hashes, 2)
	assert.NotEqual(t, hashes[0], hashes[1])
	for _, hash := range hashes {
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("Secure@123")))
	}
}

func TestAuthService_Login_MalformedStoredHash(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	reader := NewMockUserReader(ctrl)

	reader.EXPECT().
		GetByUsername(gomock.Any(), "alice").
		Return(&models.UserDB{Username: "alice", PasswordHash: "not-a-bcrypt-hash"}, nil)

	svc := NewAuthService(reader, nil, nil, nil)

	_, _, err := svc.Login(context.Background(), "alice", "Secure@123")

	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_Login_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	hash, err := bcrypt.GenerateFromPassword([]byte("Secure@123"), bcrypt.MinCost)
	require.NoError(t, err)

	reader := NewMockUserReader(ctrl)
	issuer := NewMockTokenIssuer(ctrl)
	events := NewMockEventPublisher(ctrl)

	reader.EXPECT().
		GetByUsername(gomock.Any(), "alice").
		Return(&models.UserDB{
			Username:     "alice",
			PasswordHash: string(hash),
			Role:         models.RoleUser,
		}, nil)
	issuer.EXPECT().
		Generate(gomock.Any(), "alice", models.RoleUser).
		Return("signed-token", nil)
	events.EXPECT().
		Publish(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, event models.AuditEvent) error {
			assert.Equal(t, models.EventUserLoggedIn, event.Event)
			return nil
		})

	svc := NewAuthService(reader, nil, issuer, events)

	token, redirectURL, err := svc.Login(context.Background(), "alice", "Secure@123")

	assert.NoError(t, err)
	assert.Equal(t, "signed-token", token)
	assert.Equal(t, ProfileRedirectURL, redirectURL)
}

func TestAuthService_Login_UnknownUser(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	reader := NewMockUserReader(ctrl)
	events := NewMockEventPublisher(ctrl)

	reader.EXPECT().GetByUsername(gomock.Any(), "ghost").Return(nil, nil)
	events.EXPECT().
		Publish(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, event models.AuditEvent) error {
			assert.Equal(t, models.EventLoginFailed, event.Event)
			return nil
		})

	svc := NewAuthService(reader, nil, nil, events)

	token, redirectURL, err := svc.Login(context.Background(), "ghost", "whatever")

	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Empty(t, token)
	assert.Empty(t, redirectURL)
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	hash, err := bcrypt.GenerateFromPassword([]byte("Secure@123"), bcrypt.MinCost)
	require.NoError(t, err)

	reader := NewMockUserReader(ctrl)
	events := NewMockEventPublisher(ctrl)

	reader.EXPECT().
		GetByUsername(gomock.Any(), "alice").
		Return(&models.UserDB{Username: "alice", PasswordHash: string(hash)}, nil)
	events.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)

	svc := NewAuthService(reader, nil, nil, events)

	_, _, err = svc.Login(context.Background(), "alice", "wrong-password")

	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_Login_ReaderError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	reader := NewMockUserReader(ctrl)
	storeErr := errors.New("connection refused")

	reader.EXPECT().GetByUsername(gomock.Any(), "alice").Return(nil, storeErr)

	svc := NewAuthService(reader, nil, nil, nil)

	_, _, err := svc.Login(context.Background(), "alice", "Secure@123")

	assert.ErrorIs(t, err, storeErr)
}

func TestAuthService_Login_TokenError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	hash, err := bcrypt.GenerateFromPassword([]byte("Secure@123"), bcrypt.MinCost)
	require.NoError(t, err)

	reader := NewMockUserReader(ctrl)
	issuer := NewMockTokenIssuer(ctrl)
	signErr := errors.New("sign failed")

	reader.EXPECT().
		GetByUsername(gomock.Any(), "alice").
		Return(&models.UserDB{Username: "alice", PasswordHash: string(hash)}, nil)
	issuer.EXPECT().Generate(gomock.Any(), "alice", gomock.Any()).Return("", signErr)

	svc := NewAuthService(reader, nil, issuer, nil)

	_, _, err = svc.Login(context.Background(), "alice", "Secure@123")

	assert.ErrorIs(t, err, signErr)
}
