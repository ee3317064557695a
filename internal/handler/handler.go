package handler

import (
	"errors"
	"net/http"

	"chatapp/backend/internal/config"
	"chatapp/backend/internal/friendship"
	"chatapp/backend/internal/hub"
	"chatapp/backend/internal/mail"
	"chatapp/backend/pkg/jwt"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Handler serves the HTTP API.
type Handler struct {
	db      *gorm.DB
	friends *friendship.Service
	hub     *hub.Hub
	mailer  mail.Sender
	tokens  *jwt.Manager
	cfg     *config.Config
}

// New creates a Handler.
func New(db *gorm.DB, friends *friendship.Service, h *hub.Hub, mailer mail.Sender, tokens *jwt.Manager, cfg *config.Config) *Handler {
	return &Handler{
		db:      db,
		friends: friends,
		hub:     h,
		mailer:  mailer,
		tokens:  tokens,
		cfg:     cfg,
	}
}

// region --- Shared DTOs ---

// ErrorResponse represents a generic error response.
type ErrorResponse struct {
	Error string `json:"error" example:"An error message"`
	Code  string `json:"code,omitempty" example:"NotFriends"`
}

// MessageResponse is returned by operations that have no other payload.
type MessageResponse struct {
	Message string `json:"message" example:"OK"`
}

// endregion

// friendshipStatus maps friendship errors to HTTP status codes.
func friendshipStatus(err error) int {
	switch {
	case errors.Is(err, friendship.ErrInvalidTarget), errors.Is(err, friendship.ErrAlreadyRelated):
		return http.StatusBadRequest
	case errors.Is(err, friendship.ErrUnknownAccount),
		errors.Is(err, friendship.ErrNoSuchPendingRequest),
		errors.Is(err, friendship.ErrNotFriends):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func respondFriendshipError(c *gin.Context, err error) {
	status := friendshipStatus(err)
	if status == http.StatusInternalServerError {
		c.JSON(status, ErrorResponse{Error: "Server error", Code: friendship.Code(err)})
		return
	}
	c.JSON(status, ErrorResponse{Error: err.Error(), Code: friendship.Code(err)})
}

func serverError(c *gin.Context, msg string, err error) {
	logrus.WithError(err).WithField("path", c.FullPath()).Error(msg)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: msg})
}
