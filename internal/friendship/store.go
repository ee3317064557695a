package friendship

import (
	"context"

	"chatapp/backend/internal/models"
)

// Account is the public identity of a user as seen by the friendship service.
type Account struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

// Edge is a friendship row.
type Edge struct {
	ID          uint                    `json:"id"`
	RequesterID uint                    `json:"requesterId"`
	ReceiverID  uint                    `json:"receiverId"`
	Status      models.FriendshipStatus `json:"status"`
}

// Store is the friendship store. Every mutating method is a single atomic
// statement whose condition is part of the write; the returned count is the
// number of rows it changed.
type Store interface {
	// Account returns ErrUnknownAccount when id does not exist.
	Account(ctx context.Context, id uint) (Account, error)

	// InsertPending creates a pending edge unless any edge already exists
	// for the unordered pair. created is false in that case.
	InsertPending(ctx context.Context, requesterID, receiverID uint) (edge Edge, created bool, err error)

	// AcceptPending flips requester→receiver from pending to accepted.
	AcceptPending(ctx context.Context, requesterID, receiverID uint) (int64, error)

	// DeletePending removes requester→receiver while it is still pending.
	DeletePending(ctx context.Context, requesterID, receiverID uint) (int64, error)

	// DeleteAccepted removes an accepted edge between a and b in either direction.
	DeleteAccepted(ctx context.Context, a, b uint) (int64, error)

	// Find returns the edge between a and b in either direction, or nil.
	Find(ctx context.Context, a, b uint) (*Edge, error)

	ListFriends(ctx context.Context, id uint) ([]Account, error)
	ListIncoming(ctx context.Context, id uint) ([]Account, error)
	ListOutgoing(ctx context.Context, id uint) ([]Account, error)
}
