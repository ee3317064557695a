package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"chatapp/backend/internal/auth"
	"chatapp/backend/internal/hub"
	"chatapp/backend/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EventReceiveMessage is published to both participants of a new direct message.
const EventReceiveMessage = "receive_message"

// region --- DTOs ---

// SendMessageInput is a new direct message.
type SendMessageInput struct {
	ReceiverID uint   `json:"receiverId" example:"2"`
	Content    string `json:"content" example:"hello"`
}

// ChatMessage is a stored direct message as seen by clients.
type ChatMessage struct {
	ID             uint      `json:"id" example:"10"`
	SenderID       uint      `json:"sender_id" example:"1"`
	SenderUsername string    `json:"sender_username" example:"alice"`
	ReceiverID     uint      `json:"receiver_id" example:"2"`
	Content        string    `json:"content" example:"hello"`
	Timestamp      time.Time `json:"timestamp"`
}

// SendMessageResponse is returned once a message is stored.
type SendMessageResponse struct {
	Message string      `json:"message" example:"Message sent"`
	Data    ChatMessage `json:"data"`
}

// endregion

// SendMessage godoc
// @Summary      Send a direct message
// @Description  Stores the message and pushes it to the receiver and the sender in real time.
// @Tags         messages
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body SendMessageInput true "Message"
// @Success      201  {object}  SendMessageResponse
// @Failure      400  {object}  ErrorResponse "Missing receiver or content"
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse "Receiver not found"
// @Failure      500  {object}  ErrorResponse
// @Router       /messages/send [post]
func (h *Handler) SendMessage(c *gin.Context) {
	var input SendMessageInput
	if err := c.ShouldBindJSON(&input); err != nil || input.ReceiverID == 0 || strings.TrimSpace(input.Content) == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Receiver ID and message content are required"})
		return
	}
	senderID := auth.UserID(c)

	var users []models.User
	if err := h.db.Select("id", "username").Where("id IN ?", []uint{senderID, input.ReceiverID}).Find(&users).Error; err != nil {
		serverError(c, "Failed to load users", err)
		return
	}
	var sender *models.User
	receiverFound := false
	for i := range users {
		if users[i].ID == senderID {
			sender = &users[i]
		}
		if users[i].ID == input.ReceiverID {
			receiverFound = true
		}
	}
	if !receiverFound || sender == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Receiver not found"})
		return
	}

	message := models.Message{
		SenderID:   senderID,
		ReceiverID: input.ReceiverID,
		Content:    input.Content,
	}
	if err := h.db.Omit(clause.Associations).Create(&message).Error; err != nil {
		serverError(c, "Failed to send message", err)
		return
	}

	out := ChatMessage{
		ID:             message.ID,
		SenderID:       message.SenderID,
		SenderUsername: sender.Username,
		ReceiverID:     message.ReceiverID,
		Content:        message.Content,
		Timestamp:      message.CreatedAt,
	}

	event := hub.Event{Type: EventReceiveMessage, Payload: out}
	h.hub.Publish(input.ReceiverID, event)
	if senderID != input.ReceiverID {
		h.hub.Publish(senderID, event)
	}

	c.JSON(http.StatusCreated, SendMessageResponse{Message: "Message sent", Data: out})
}

// GetChatHistory godoc
// @Summary      Get chat history
// @Description  Returns every message exchanged with another user, oldest first.
// @Tags         messages
// @Produce      json
// @Security     BearerAuth
// @Param        friendId path      int  true  "Other user's ID"
// @Success      200  {array}   ChatMessage
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /messages/history/{friendId} [get]
func (h *Handler) GetChatHistory(c *gin.Context) {
	otherID, err := strconv.ParseUint(c.Param("friendId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid user ID"})
		return
	}
	me := auth.UserID(c)

	messages := []ChatMessage{}
	err = h.db.Model(&models.Message{}).
		Select("messages.id, messages.sender_id, users.username AS sender_username, messages.receiver_id, messages.content, messages.created_at AS timestamp").
		Joins("JOIN users ON users.id = messages.sender_id").
		Where("(messages.sender_id = ? AND messages.receiver_id = ?) OR (messages.sender_id = ? AND messages.receiver_id = ?)",
			me, otherID, otherID, me).
		Order("messages.created_at ASC, messages.id ASC").
		Scan(&messages).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		serverError(c, "Failed to load chat history", err)
		return
	}

	c.JSON(http.StatusOK, messages)
}
