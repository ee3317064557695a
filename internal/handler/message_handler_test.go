package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"testing"

	"chatapp/backend/internal/hub"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendMessageAndHistory(t *testing.T) {
	env := newTestEnv(t)
	alice, aliceToken := env.createUser(t, "alice")
	bob, bobToken := env.createUser(t, "bob")
	_, carolToken := env.createUser(t, "carol")

	aliceClient, bobClient := hub.NewClient(), hub.NewClient()
	env.hub.Subscribe(alice, aliceClient)
	env.hub.Subscribe(bob, bobClient)

	w := env.do(t, http.MethodPost, "/api/messages/send", aliceToken, gin.H{"receiverId": bob, "content": "hi bob"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	sent := decodeBody[SendMessageResponse](t, w).Data
	assert.Equal(t, "alice", sent.SenderUsername)
	assert.Equal(t, bob, sent.ReceiverID)

	for _, client := range []hub.Client{bobClient, aliceClient} {
		event := nextEvent(t, client)
		assert.Equal(t, EventReceiveMessage, event.Type)
		var payload ChatMessage
		require.NoError(t, json.Unmarshal(event.Payload, &payload))
		assert.Equal(t, sent.ID, payload.ID)
	}

	w = env.do(t, http.MethodPost, "/api/messages/send", bobToken, gin.H{"receiverId": alice, "content": "hi alice"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(t, http.MethodGet, "/api/messages/history/"+strconv.Itoa(int(bob)), aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	history := decodeBody[[]ChatMessage](t, w)
	require.Len(t, history, 2)
	assert.Equal(t, "hi bob", history[0].Content)
	assert.Equal(t, "alice", history[0].SenderUsername)
	assert.Equal(t, "hi alice", history[1].Content)
	assert.Equal(t, "bob", history[1].SenderUsername)

	w = env.do(t, http.MethodGet, "/api/messages/history/"+strconv.Itoa(int(bob)), carolToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestSendMessage_Rejections(t *testing.T) {
	env := newTestEnv(t)
	_, aliceToken := env.createUser(t, "alice")
	bob, _ := env.createUser(t, "bob")

	w := env.do(t, http.MethodPost, "/api/messages/send", aliceToken, gin.H{"receiverId": bob, "content": "  "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/api/messages/send", aliceToken, gin.H{"content": "hello"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/api/messages/send", aliceToken, gin.H{"receiverId": 999, "content": "hello"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodGet, "/api/messages/history/abc", aliceToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
