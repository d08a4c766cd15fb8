package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safevault/safevault/internal/models"
	"github.com/safevault/safevault/internal/services"
)

func newUsersRouter(svc UserManager) *chi.Mux {
	r := chi.NewRouter()
	r.Get("/users", NewListUsersHandler(svc))
	r.Get("/users/{id}", NewGetUserHandler(svc))
	r.Put("/users/{id}", NewUpdateUserHandler(svc))
	r.Delete("/users/{id}", NewDeleteUserHandler(svc))
	return r
}

func TestListUsersHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc := NewMockUserManager(ctrl)
	users := []models.UserDB{
		{UserID: uuid.New(), Username: "alice", Email: "alice@example.com", Role: models.RoleAdmin},
		{UserID: uuid.New(), Username: "bob", Email: "bob@example.com", Role: models.RoleUser},
	}
	svc.EXPECT().List(gomock.Any()).Return(users, nil)

	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	rr := httptest.NewRecorder()
	newUsersRouter(svc).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var got []models.UserDB
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "alice", got[0].Username)
	// The password hash never serializes.
	assert.NotContains(t, rr.Body.String(), "password_hash")
}

func TestListUsersHandler_InternalError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc := NewMockUserManager(ctrl)
	svc.EXPECT().List(gomock.Any()).Return(nil, errors.New("connection refused"))

	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	rr := httptest.NewRecorder()
	newUsersRouter(svc).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, rr.Body.String())
}

func TestGetUserHandler(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		id := uuid.New()
		svc := NewMockUserManager(ctrl)
		svc.EXPECT().
			Get(gomock.Any(), id).
			Return(&models.UserDB{UserID: id, Username: "alice"}, nil)

		req := httptest.NewRequest(http.MethodGet, "/users/"+id.String(), nil)
		rr := httptest.NewRecorder()
		newUsersRouter(svc).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var got models.UserDB
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
		assert.Equal(t, "alice", got.Username)
	})

	t.Run("not found", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		id := uuid.New()
		svc := NewMockUserManager(ctrl)
		svc.EXPECT().Get(gomock.Any(), id).Return(nil, services.ErrUserNotFound)

		req := httptest.NewRequest(http.MethodGet, "/users/"+id.String(), nil)
		rr := httptest.NewRecorder()
		newUsersRouter(svc).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.JSONEq(t, `{"error":"User not found."}`, rr.Body.String())
	})

	t.Run("malformed id", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		req := httptest.NewRequest(http.MethodGet, "/users/not-a-uuid", nil)
		rr := httptest.NewRecorder()
		newUsersRouter(NewMockUserManager(ctrl)).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.JSONEq(t, `{"error":"Invalid user id."}`, rr.Body.String())
	})
}

func TestUpdateUserHandler(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		id := uuid.New()
		svc := NewMockUserManager(ctrl)
		svc.EXPECT().
			Update(gomock.Any(), id, "new@example.com", models.RoleAdmin).
			Return(&models.UserDB{UserID: id, Username: "alice", Email: "new@example.com", Role: models.RoleAdmin}, nil)

		body := `{"email":"new@example.com","role":"admin"}`
		req := httptest.NewRequest(http.MethodPut, "/users/"+id.String(), bytes.NewBufferString(body))
		rr := httptest.NewRecorder()
		newUsersRouter(svc).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var got models.UserDB
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
		assert.Equal(t, "new@example.com", got.Email)
		assert.Equal(t, models.RoleAdmin, got.Role)
	})

	t.Run("missing fields", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		req := httptest.NewRequest(http.MethodPut, "/users/"+uuid.NewString(),
			bytes.NewBufferString(`{"email":"new@example.com"}`))
		rr := httptest.NewRecorder()
		newUsersRouter(NewMockUserManager(ctrl)).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.JSONEq(t, `{"error":"Invalid input detected."}`, rr.Body.String())
	})

	t.Run("unknown role", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		req := httptest.NewRequest(http.MethodPut, "/users/"+uuid.NewString(),
			bytes.NewBufferString(`{"email":"new@example.com","role":"superuser"}`))
		rr := httptest.NewRecorder()
		newUsersRouter(NewMockUserManager(ctrl)).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("email taken", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		id := uuid.New()
		svc := NewMockUserManager(ctrl)
		svc.EXPECT().
			Update(gomock.Any(), id, "taken@example.com", models.RoleUser).
			Return(nil, services.ErrUserAlreadyExists)

		body := `{"email":"taken@example.com","role":"user"}`
		req := httptest.NewRequest(http.MethodPut, "/users/"+id.String(), bytes.NewBufferString(body))
		rr := httptest.NewRecorder()
		newUsersRouter(svc).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.JSONEq(t, `{"error":"Username or email already exists."}`, rr.Body.String())
	})
}

func TestDeleteUserHandler(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		id := uuid.New()
		svc := NewMockUserManager(ctrl)
		svc.EXPECT().Delete(gomock.Any(), id).Return(nil)

		req := httptest.NewRequest(http.MethodDelete, "/users/"+id.String(), nil)
		rr := httptest.NewRecorder()
		newUsersRouter(svc).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"message":"User deleted successfully."}`, rr.Body.String())
	})

	t.Run("not found", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		id := uuid.New()
		svc := NewMockUserManager(ctrl)
		svc.EXPECT().Delete(gomock.Any(), id).Return(services.ErrUserNotFound)

		req := httptest.NewRequest(http.MethodDelete, "/users/"+id.String(), nil)
		rr := httptest.NewRecorder()
		newUsersRouter(svc).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.JSONEq(t, `{"error":"User not found."}`, rr.Body.String())
	})
}
