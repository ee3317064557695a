package models

import "time"

// FriendshipStatus defines the state of an edge between two users.
type FriendshipStatus string

const (
	// StatusPending means a friend request has been sent but not yet accepted.
	StatusPending FriendshipStatus = "pending"

	// StatusAccepted means the receiver accepted the request and the users are friends.
	StatusAccepted FriendshipStatus = "accepted"
)

// Friendship is one directed edge from the requester to the receiver.
//
// UserLowID/UserHighID hold the pair in ascending order. Their unique index
// allows at most one edge per unordered pair, whichever side requested it.
type Friendship struct {
	ID          uint             `gorm:"primaryKey"`
	RequesterID uint             `gorm:"not null;index"`
	ReceiverID  uint             `gorm:"not null;index"`
	UserLowID   uint             `gorm:"not null;uniqueIndex:idx_friendship_pair"`
	UserHighID  uint             `gorm:"not null;uniqueIndex:idx_friendship_pair"`
	Status      FriendshipStatus `gorm:"type:varchar(20);not null;index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Requester User `gorm:"foreignKey:RequesterID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Receiver  User `gorm:"foreignKey:ReceiverID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

// OrderedPair returns a and b in ascending order.
func OrderedPair(a, b uint) (low, high uint) {
	if a > b {
		return b, a
	}
	return a, b
}
