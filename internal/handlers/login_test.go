package handlers

import (
	"errors"
	"net/http"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"

	"github.com/safevault/safevault/internal/services"
)

func TestLoginHandler_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc := NewMockLoginer(ctrl)
	svc.EXPECT().
		Login(gomock.Any(), "alice", "Secure@123").
		Return("signed-token", "/api/v1/users/profile", nil)

	rr := postJSON(NewLoginHandler(svc), `{"username":"alice","password":"Secure@123"}`)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t,
		`{"token":"signed-token","redirect_url":"/api/v1/users/profile"}`,
		rr.Body.String())
}

func TestLoginHandler_MalformedBody(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	rr := postJSON(NewLoginHandler(NewMockLoginer(ctrl)), `{not json`)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.JSONEq(t, `{"error":"invalid request body"}`, rr.Body.String())
}

func TestLoginHandler_InvalidCredentials(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc := NewMockLoginer(ctrl)
	svc.EXPECT().
		Login(gomock.Any(), "alice", "wrong").
		Return("", "", services.ErrInvalidCredentials)

	rr := postJSON(NewLoginHandler(svc), `{"username":"alice","password":"wrong"}`)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.JSONEq(t, `{"error":"Invalid username or password."}`, rr.Body.String())
}

func TestLoginHandler_InternalError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc := NewMockLoginer(ctrl)
	svc.EXPECT().
		Login(gomock.Any(), "alice", "Secure@123").
		Return("", "", errors.New("connection refused"))

	rr := postJSON(NewLoginHandler(svc), `{"username":"alice","password":"Secure@123"}`)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, rr.Body.String())
}
