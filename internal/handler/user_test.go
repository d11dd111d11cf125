package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/templui/secondbrain/internal/service"
)

func TestProfile(t *testing.T) {
	env := newTestEnv(t, false)
	userID := env.register(t, "ada@example.com")
	env.register(t, "grace@example.com")

	rec := serve(env.userHandler.Profile, newRequest(t, http.MethodGet, "/api/users/profile", nil, userID))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ada@example.com", decode[userResponse](t, rec).User.Email)

	rec = serve(env.userHandler.UpdateProfile, newRequest(t, http.MethodPut, "/api/users/profile", map[string]string{"name": "Ada"}, userID))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	user := decode[userResponse](t, rec).User
	require.NotNil(t, user.Name)
	assert.Equal(t, "Ada", *user.Name)

	rec = serve(env.userHandler.UpdateProfile, newRequest(t, http.MethodPut, "/api/users/profile", map[string]string{"email": "grace@example.com"}, userID))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = serve(env.userHandler.UpdateProfile, newRequest(t, http.MethodPut, "/api/users/profile", map[string]string{}, userID))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", decode[errorResponse](t, rec).Code)
}

func TestChangePasswordHandler(t *testing.T) {
	env := newTestEnv(t, false)
	userID := env.register(t, "ada@example.com")

	rec := serve(env.userHandler.ChangePassword, newRequest(t, http.MethodPut, "/api/users/password", map[string]string{
		"currentPassword": "WrongHorse9",
		"newPassword":     "BatteryStaple7",
	}, userID))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "INVALID_CREDENTIALS", decode[errorResponse](t, rec).Code)

	rec = serve(env.userHandler.ChangePassword, newRequest(t, http.MethodPut, "/api/users/password", map[string]string{
		"currentPassword": testPassword,
		"newPassword":     "BatteryStaple7",
	}, userID))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	_, err := env.auth.SignIn(context.Background(), "ada@example.com", "BatteryStaple7")
	assert.NoError(t, err)
}

func TestDeleteAccountHandler(t *testing.T) {
	env := newTestEnv(t, false)
	userID := env.register(t, "ada@example.com")
	env.createContent(t, userID, linkPayload("post"))

	rec := serve(env.userHandler.DeleteAccount, newRequest(t, http.MethodDelete, "/api/users/profile", nil, userID))
	require.Equal(t, http.StatusOK, rec.Code)
	access := cookieByName(rec, service.AccessCookieName)
	require.NotNil(t, access)
	assert.Empty(t, access.Value)

	rec = serve(env.userHandler.Profile, newRequest(t, http.MethodGet, "/api/users/profile", nil, userID))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// A still-valid access token now points at nothing
	rec = serve(env.contentHandler.List, newRequest(t, http.MethodGet, "/api/contents?scope=mine", nil, userID))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total":0`)
}
