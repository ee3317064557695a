package handler

import (
	"context"
	"net/http"

	"chatapp/backend/internal/auth"
	"chatapp/backend/internal/friendship"

	"github.com/gin-gonic/gin"
)

// region --- DTOs ---

// FriendRequestInput names the receiver of a friend request.
type FriendRequestInput struct {
	ReceiverID uint `json:"receiverId" binding:"required" example:"2"`
}

// AcceptRequestInput names the requester whose request is accepted.
type AcceptRequestInput struct {
	RequesterID uint `json:"requesterId" binding:"required" example:"1"`
}

// UnfriendInput names the friend to remove.
type UnfriendInput struct {
	FriendID uint `json:"friendId" binding:"required" example:"2"`
}

// FriendRequestResponse is returned when a request is created.
type FriendRequestResponse struct {
	Message    string          `json:"message" example:"Friend request sent"`
	Friendship friendship.Edge `json:"friendship"`
}

// endregion

// SendRequest godoc
// @Summary      Send friend request
// @Description  Creates a pending friend request from the caller to the receiver.
// @Tags         friends
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body FriendRequestInput true "Receiver"
// @Success      201  {object}  FriendRequestResponse
// @Failure      400  {object}  ErrorResponse "Self request or relation already exists"
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse "Receiver not found"
// @Failure      500  {object}  ErrorResponse
// @Router       /friends/request [post]
func (h *Handler) SendRequest(c *gin.Context) {
	var input FriendRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "receiverId is required"})
		return
	}

	edge, err := h.friends.RequestFriendship(c.Request.Context(), auth.UserID(c), input.ReceiverID)
	if err != nil {
		respondFriendshipError(c, err)
		return
	}

	c.JSON(http.StatusCreated, FriendRequestResponse{Message: "Friend request sent", Friendship: edge})
}

// AcceptRequest godoc
// @Summary      Accept friend request
// @Description  Accepts a pending friend request sent to the caller.
// @Tags         friends
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body AcceptRequestInput true "Requester"
// @Success      200  {object}  MessageResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse "No pending request"
// @Failure      500  {object}  ErrorResponse
// @Router       /friends/accept [post]
func (h *Handler) AcceptRequest(c *gin.Context) {
	var input AcceptRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "requesterId is required"})
		return
	}

	if err := h.friends.AcceptFriendship(c.Request.Context(), auth.UserID(c), input.RequesterID); err != nil {
		respondFriendshipError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Friend request accepted"})
}

// CancelRequest godoc
// @Summary      Cancel friend request
// @Description  Withdraws a pending friend request the caller sent.
// @Tags         friends
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body FriendRequestInput true "Receiver of the original request"
// @Success      200  {object}  MessageResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse "No pending request"
// @Failure      500  {object}  ErrorResponse
// @Router       /friends/request/cancel [delete]
func (h *Handler) CancelRequest(c *gin.Context) {
	var input FriendRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "receiverId is required"})
		return
	}

	if err := h.friends.CancelRequest(c.Request.Context(), auth.UserID(c), input.ReceiverID); err != nil {
		respondFriendshipError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Friend request cancelled"})
}

// Unfriend godoc
// @Summary      Remove friend
// @Description  Removes an accepted friendship in either direction.
// @Tags         friends
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body UnfriendInput true "Friend"
// @Success      200  {object}  MessageResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse "Not friends"
// @Failure      500  {object}  ErrorResponse
// @Router       /friends/unfriend [delete]
func (h *Handler) Unfriend(c *gin.Context) {
	var input UnfriendInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "friendId is required"})
		return
	}

	if err := h.friends.Unfriend(c.Request.Context(), auth.UserID(c), input.FriendID); err != nil {
		respondFriendshipError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Friend removed"})
}

// GetFriends godoc
// @Summary      List friends
// @Tags         friends
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   friendship.Account
// @Failure      401  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /friends [get]
func (h *Handler) GetFriends(c *gin.Context) {
	h.listAccounts(c, h.friends.ListFriends)
}

// GetIncomingRequests godoc
// @Summary      List incoming friend requests
// @Tags         friends
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   friendship.Account
// @Failure      401  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /friends/requests [get]
func (h *Handler) GetIncomingRequests(c *gin.Context) {
	h.listAccounts(c, h.friends.ListIncoming)
}

// GetOutgoingRequests godoc
// @Summary      List outgoing friend requests
// @Tags         friends
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   friendship.Account
// @Failure      401  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /friends/outgoing-requests [get]
func (h *Handler) GetOutgoingRequests(c *gin.Context) {
	h.listAccounts(c, h.friends.ListOutgoing)
}

func (h *Handler) listAccounts(c *gin.Context, list func(ctx context.Context, id uint) ([]friendship.Account, error)) {
	accounts, err := list(c.Request.Context(), auth.UserID(c))
	if err != nil {
		respondFriendshipError(c, err)
		return
	}
	c.JSON(http.StatusOK, accounts)
}
