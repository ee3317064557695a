package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"chatapp/backend/internal/config"
	"chatapp/backend/internal/database"
	"chatapp/backend/internal/friendship"
	"chatapp/backend/internal/hub"
	"chatapp/backend/internal/models"
	"chatapp/backend/pkg/jwt"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	logrus.SetOutput(io.Discard)
	os.Exit(m.Run())
}

type sentMail struct {
	to, subject, body string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *fakeMailer) Send(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

// lastLinkToken returns the path segment following prefix in the most recent mail.
func (m *fakeMailer) lastLinkToken(t *testing.T, prefix string) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.sent)
	body := m.sent[len(m.sent)-1].body
	i := strings.Index(body, prefix)
	require.GreaterOrEqual(t, i, 0, "link %q not found in %q", prefix, body)
	rest := body[i+len(prefix):]
	end := strings.IndexAny(rest, `"<`)
	require.Greater(t, end, 0)
	return rest[:end]
}

type testEnv struct {
	router *gin.Engine
	db     *gorm.DB
	hub    *hub.Hub
	mailer *fakeMailer
	tokens *jwt.Manager
	cfg    *config.Config
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cfg := &config.Config{
		DBDriver:           config.DriverSQLite,
		DatabaseURL:        "file::memory:",
		JWTSecret:          "test-secret",
		JWTTTL:             time.Hour,
		VerifyTokenTTL:     time.Hour,
		ResetTokenTTL:      5 * time.Minute,
		FrontendURL:        "http://localhost:3000",
		CORSAllowedOrigins: "http://localhost:3000",
	}
	db, err := database.Connect(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close(db) })

	notifications := hub.NewHub()
	tokens := jwt.NewManager(cfg.JWTSecret, cfg.JWTTTL, cfg.VerifyTokenTTL)
	mailer := &fakeMailer{}
	friends := friendship.NewService(friendship.NewGormStore(db), notifications)
	h := New(db, friends, notifications, mailer, tokens, cfg)

	router := gin.New()
	router.Use(CORSMiddleware(cfg.AllowedOrigins()))
	h.RegisterRoutes(router)

	return &testEnv{router: router, db: db, hub: notifications, mailer: mailer, tokens: tokens, cfg: cfg}
}

// createUser inserts a verified user with an empty profile and returns its ID and an access token.
func (e *testEnv) createUser(t *testing.T, username string) (uint, string) {
	t.Helper()
	user := models.User{Username: username, Email: username + "@example.com", PasswordHash: "unused", IsVerified: true}
	require.NoError(t, e.db.Create(&user).Error)
	require.NoError(t, e.db.Create(&models.Profile{UserID: user.ID}).Error)

	token, err := e.tokens.GenerateAccessToken(user.ID, user.Username, user.Email)
	require.NoError(t, err)
	return user.ID, token
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

type wireEvent struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func nextEvent(t *testing.T, client hub.Client) wireEvent {
	t.Helper()
	select {
	case data := <-client:
		var e wireEvent
		require.NoError(t, json.Unmarshal(data, &e))
		return e
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
		return wireEvent{}
	}
}

func TestFriendshipScenario(t *testing.T) {
	env := newTestEnv(t)
	alice, aliceToken := env.createUser(t, "alice")
	bob, bobToken := env.createUser(t, "bob")

	w := env.do(t, http.MethodPost, "/api/friends/request", aliceToken, gin.H{"receiverId": bob})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decodeBody[FriendRequestResponse](t, w)
	assert.Equal(t, alice, created.Friendship.RequesterID)
	assert.Equal(t, models.StatusPending, created.Friendship.Status)

	w = env.do(t, http.MethodGet, "/api/friends/requests", bobToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []friendship.Account{{ID: alice, Username: "alice"}}, decodeBody[[]friendship.Account](t, w))

	w = env.do(t, http.MethodGet, "/api/friends/outgoing-requests", aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []friendship.Account{{ID: bob, Username: "bob"}}, decodeBody[[]friendship.Account](t, w))

	w = env.do(t, http.MethodPost, "/api/friends/accept", bobToken, gin.H{"requesterId": alice})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(t, http.MethodGet, "/api/friends", aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []friendship.Account{{ID: bob, Username: "bob"}}, decodeBody[[]friendship.Account](t, w))

	w = env.do(t, http.MethodDelete, "/api/friends/unfriend", aliceToken, gin.H{"friendId": bob})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	for _, token := range []string{aliceToken, bobToken} {
		w = env.do(t, http.MethodGet, "/api/friends", token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[]`, w.Body.String())
	}
}

func TestFriendshipErrors(t *testing.T) {
	env := newTestEnv(t)
	alice, aliceToken := env.createUser(t, "alice")
	bob, bobToken := env.createUser(t, "bob")

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   interface{}
		status int
		code   string
	}{
		{"self request", http.MethodPost, "/api/friends/request", aliceToken, gin.H{"receiverId": alice}, http.StatusBadRequest, "InvalidTarget"},
		{"unknown receiver", http.MethodPost, "/api/friends/request", aliceToken, gin.H{"receiverId": 999}, http.StatusNotFound, "UnknownAccount"},
		{"accept without request", http.MethodPost, "/api/friends/accept", bobToken, gin.H{"requesterId": alice}, http.StatusNotFound, "NoSuchPendingRequest"},
		{"cancel without request", http.MethodDelete, "/api/friends/request/cancel", aliceToken, gin.H{"receiverId": bob}, http.StatusNotFound, "NoSuchPendingRequest"},
		{"unfriend stranger", http.MethodDelete, "/api/friends/unfriend", aliceToken, gin.H{"friendId": bob}, http.StatusNotFound, "NotFriends"},
		{"missing body field", http.MethodPost, "/api/friends/request", aliceToken, gin.H{}, http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, tt.method, tt.path, tt.token, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Equal(t, tt.code, decodeBody[ErrorResponse](t, w).Code)
		})
	}

	t.Run("duplicate in either direction", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/friends/request", aliceToken, gin.H{"receiverId": bob})
		require.Equal(t, http.StatusCreated, w.Code)

		w = env.do(t, http.MethodPost, "/api/friends/request", aliceToken, gin.H{"receiverId": bob})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "AlreadyRelated", decodeBody[ErrorResponse](t, w).Code)

		w = env.do(t, http.MethodPost, "/api/friends/request", bobToken, gin.H{"receiverId": alice})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "AlreadyRelated", decodeBody[ErrorResponse](t, w).Code)
	})

	t.Run("cancel then accept", func(t *testing.T) {
		w := env.do(t, http.MethodDelete, "/api/friends/request/cancel", aliceToken, gin.H{"receiverId": bob})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		w = env.do(t, http.MethodPost, "/api/friends/accept", bobToken, gin.H{"requesterId": alice})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestFriendRoutesRequireAuth(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/friends", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodGet, "/api/friends", "not-a-token", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestFriendshipNotifications(t *testing.T) {
	env := newTestEnv(t)
	alice, aliceToken := env.createUser(t, "alice")
	bob, bobToken := env.createUser(t, "bob")

	aliceClient, bobClient := hub.NewClient(), hub.NewClient()
	env.hub.Subscribe(alice, aliceClient)
	env.hub.Subscribe(bob, bobClient)

	w := env.do(t, http.MethodPost, "/api/friends/request", aliceToken, gin.H{"receiverId": bob})
	require.Equal(t, http.StatusCreated, w.Code)

	event := nextEvent(t, bobClient)
	assert.Equal(t, friendship.EventRequestReceived, event.Type)
	var n friendship.Notification
	require.NoError(t, json.Unmarshal(event.Payload, &n))
	assert.Equal(t, friendship.Notification{RequesterID: alice, ReceiverID: bob, ActorID: alice, DisplayName: "alice"}, n)
	assert.Len(t, aliceClient, 0)

	w = env.do(t, http.MethodPost, "/api/friends/accept", bobToken, gin.H{"requesterId": alice})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, friendship.EventRequestAccepted, nextEvent(t, aliceClient).Type)
	assert.Equal(t, friendship.EventRequestAccepted, nextEvent(t, bobClient).Type)

	w = env.do(t, http.MethodDelete, "/api/friends/unfriend", bobToken, gin.H{"friendId": alice})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, friendship.EventUnfriended, nextEvent(t, aliceClient).Type)
	assert.Equal(t, friendship.EventUnfriended, nextEvent(t, bobClient).Type)
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/friends", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/api/friends", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
