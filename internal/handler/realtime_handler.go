package handler

import (
	"io"
	"net/http"
	"time"

	"chatapp/backend/internal/auth"
	"chatapp/backend/internal/hub"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const sseKeepAlive = 25 * time.Second

func (h *Handler) upgrader() *websocket.Upgrader {
	allowed := make(map[string]bool)
	for _, origin := range h.cfg.AllowedOrigins() {
		allowed[origin] = true
	}

	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || allowed["*"] || allowed[origin]
		},
	}
}

// ServeWebsocket godoc
// @Summary      Real-time channel
// @Description  Upgrades to a WebSocket subscribed to the caller's notifications. The token may be passed as ?token=.
// @Tags         realtime
// @Security     BearerAuth
// @Param        token query     string  false  "Access token"
// @Success      101
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Router       /ws [get]
func (h *Handler) ServeWebsocket(c *gin.Context) {
	ws, err := h.upgrader().Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Warn("websocket upgrade failed")
		return
	}
	h.hub.ServeWebsocket(ws, auth.UserID(c))
}

// StreamEvents godoc
// @Summary      Real-time event stream
// @Description  Server-sent events carrying the same notifications as the WebSocket channel.
// @Tags         realtime
// @Produce      text/event-stream
// @Security     BearerAuth
// @Param        token query     string  false  "Access token"
// @Success      200
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Router       /events [get]
func (h *Handler) StreamEvents(c *gin.Context) {
	accountID := auth.UserID(c)
	client := hub.NewClient()
	h.hub.Subscribe(accountID, client)
	defer h.hub.Unsubscribe(accountID, client)

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	ticker := time.NewTicker(sseKeepAlive)
	defer ticker.Stop()

	c.SSEvent("ready", gin.H{"userId": accountID})
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case message, ok := <-client:
			if !ok {
				return false
			}
			c.SSEvent("message", string(message))
			return true
		case <-ticker.C:
			c.SSEvent("ping", "")
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
