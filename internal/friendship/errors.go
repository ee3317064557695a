package friendship

import (
	"errors"
	"fmt"
)

// Domain errors. Each one declines the operation and leaves the store unchanged.
var (
	ErrInvalidTarget        = errors.New("cannot target your own account")
	ErrUnknownAccount       = errors.New("account not found")
	ErrAlreadyRelated       = errors.New("a friend request or friendship already exists")
	ErrNoSuchPendingRequest = errors.New("no pending friend request found")
	ErrNotFriends           = errors.New("not friends")
)

// ErrStoreUnavailable wraps every failure of the backing store.
var ErrStoreUnavailable = errors.New("friendship store unavailable")

func storeError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, op, err)
}

// Code is a stable reason code for a domain error, suitable for API clients.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrInvalidTarget):
		return "InvalidTarget"
	case errors.Is(err, ErrUnknownAccount):
		return "UnknownAccount"
	case errors.Is(err, ErrAlreadyRelated):
		return "AlreadyRelated"
	case errors.Is(err, ErrNoSuchPendingRequest):
		return "NoSuchPendingRequest"
	case errors.Is(err, ErrNotFriends):
		return "NotFriends"
	default:
		return "StoreUnavailable"
	}
}
