package handler

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"chatapp/backend/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func register(t *testing.T, env *testEnv, username, password string) {
	t.Helper()
	w := env.do(t, http.MethodPost, "/api/register", "", gin.H{
		"username": username,
		"email":    username + "@example.com",
		"password": password,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestRegisterVerifyLogin(t *testing.T) {
	env := newTestEnv(t)
	register(t, env, "alice", "password123")

	var user models.User
	require.NoError(t, env.db.Preload("Profile").Where("username = ?", "alice").First(&user).Error)
	assert.False(t, user.IsVerified)
	assert.NotEqual(t, "password123", user.PasswordHash)
	assert.Equal(t, user.ID, user.Profile.UserID)

	require.Len(t, env.mailer.sent, 1)
	assert.Equal(t, "alice@example.com", env.mailer.sent[0].to)
	token := env.mailer.lastLinkToken(t, "http://localhost:3000/verify/")

	w := env.do(t, http.MethodGet, "/api/verify/"+token, "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(t, http.MethodGet, "/api/verify/"+token, "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/api/login", "", gin.H{"email": "alice@example.com", "password": "password123"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	login := decodeBody[LoginResponse](t, w)
	assert.Equal(t, user.ID, login.UserID)
	assert.Equal(t, "alice", login.Username)

	claims, err := env.tokens.ParseAccessToken(login.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)
}

func TestRegister_Rejections(t *testing.T) {
	env := newTestEnv(t)
	register(t, env, "alice", "password123")

	w := env.do(t, http.MethodPost, "/api/register", "", gin.H{"username": "alice", "email": "other@example.com", "password": "password123"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/api/register", "", gin.H{"username": "other", "email": "alice@example.com", "password": "password123"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/api/register", "", gin.H{"username": "bob", "email": "not-an-email", "password": "password123"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegister_MailFailureStillCreatesAccount(t *testing.T) {
	env := newTestEnv(t)
	env.mailer.err = errors.New("smtp down")

	register(t, env, "alice", "password123")

	var count int64
	require.NoError(t, env.db.Model(&models.User{}).Where("username = ?", "alice").Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestVerifyEmail_RejectsAccessToken(t *testing.T) {
	env := newTestEnv(t)
	_, accessToken := env.createUser(t, "alice")

	w := env.do(t, http.MethodGet, "/api/verify/"+accessToken, "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogin_Rejections(t *testing.T) {
	env := newTestEnv(t)
	register(t, env, "alice", "password123")

	w := env.do(t, http.MethodPost, "/api/login", "", gin.H{"email": "alice@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/api/login", "", gin.H{"email": "nobody@example.com", "password": "password123"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	env.cfg.RequireVerifiedEmail = true
	w = env.do(t, http.MethodPost, "/api/login", "", gin.H{"email": "alice@example.com", "password": "password123"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestForgotAndResetPassword(t *testing.T) {
	env := newTestEnv(t)
	register(t, env, "alice", "password123")

	w := env.do(t, http.MethodPost, "/api/forgot-password", "", gin.H{"email": "nobody@example.com"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodPost, "/api/forgot-password", "", gin.H{"email": "alice@example.com"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	token := env.mailer.lastLinkToken(t, "http://localhost:3000/reset-password/")
	assert.Len(t, token, 64)

	w = env.do(t, http.MethodPost, "/api/reset-password/"+token, "", gin.H{"newPassword": "newpassword"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(t, http.MethodPost, "/api/reset-password/"+token, "", gin.H{"newPassword": "another1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/api/login", "", gin.H{"email": "alice@example.com", "password": "password123"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = env.do(t, http.MethodPost, "/api/login", "", gin.H{"email": "alice@example.com", "password": "newpassword"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestResetPassword_Expired(t *testing.T) {
	env := newTestEnv(t)
	register(t, env, "alice", "password123")

	w := env.do(t, http.MethodPost, "/api/forgot-password", "", gin.H{"email": "alice@example.com"})
	require.Equal(t, http.StatusOK, w.Code)
	token := env.mailer.lastLinkToken(t, "http://localhost:3000/reset-password/")

	require.NoError(t, env.db.Model(&models.User{}).
		Where("reset_token = ?", token).
		Update("reset_token_expires", time.Now().Add(-time.Minute)).Error)

	w = env.do(t, http.MethodPost, "/api/reset-password/"+token, "", gin.H{"newPassword": "newpassword"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
