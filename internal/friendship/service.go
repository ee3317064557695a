// Package friendship implements the friend-request state machine.
//
// An edge between two accounts starts pending when one of them requests
// friendship. The receiver may accept it, the requester may cancel it while it
// is still pending, and either side may remove it once accepted. Each
// transition is a single conditional write against the Store, so concurrent
// callers racing on the same edge see exactly one winner.
package friendship

import (
	"context"
	"errors"

	"chatapp/backend/internal/hub"
	"chatapp/backend/internal/models"

	"github.com/sirupsen/logrus"
)

// Service applies friendship transitions and notifies the affected accounts.
type Service struct {
	store     Store
	publisher hub.Publisher
}

// NewService creates a Service.
func NewService(store Store, publisher hub.Publisher) *Service {
	return &Service{store: store, publisher: publisher}
}

// RequestFriendship creates a pending edge from actor to target.
func (s *Service) RequestFriendship(ctx context.Context, actorID, targetID uint) (Edge, error) {
	if actorID == targetID {
		return Edge{}, ErrInvalidTarget
	}

	actor, err := s.account(ctx, "request", actorID)
	if err != nil {
		return Edge{}, err
	}
	if _, err := s.account(ctx, "request", targetID); err != nil {
		return Edge{}, err
	}

	edge, created, err := s.store.InsertPending(ctx, actorID, targetID)
	if err != nil {
		return Edge{}, s.fail("request", actorID, targetID, err)
	}
	if !created {
		return Edge{}, ErrAlreadyRelated
	}

	s.logTransition("request", actorID, targetID, models.StatusPending)
	s.publisher.Publish(targetID, newEvent(EventRequestReceived, actorID, targetID, actor))
	return edge, nil
}

// AcceptFriendship accepts the pending request requesterID sent to actor.
func (s *Service) AcceptFriendship(ctx context.Context, actorID, requesterID uint) error {
	if actorID == requesterID {
		return ErrNoSuchPendingRequest
	}

	actor, err := s.account(ctx, "accept", actorID)
	if err != nil {
		return err
	}

	n, err := s.store.AcceptPending(ctx, requesterID, actorID)
	if err != nil {
		return s.fail("accept", actorID, requesterID, err)
	}
	if n == 0 {
		return ErrNoSuchPendingRequest
	}

	s.logTransition("accept", actorID, requesterID, models.StatusAccepted)
	event := newEvent(EventRequestAccepted, requesterID, actorID, actor)
	s.publisher.Publish(actorID, event)
	s.publisher.Publish(requesterID, event)
	return nil
}

// CancelRequest withdraws the pending request actor sent to target.
func (s *Service) CancelRequest(ctx context.Context, actorID, targetID uint) error {
	if actorID == targetID {
		return ErrNoSuchPendingRequest
	}

	actor, err := s.account(ctx, "cancel", actorID)
	if err != nil {
		return err
	}

	n, err := s.store.DeletePending(ctx, actorID, targetID)
	if err != nil {
		return s.fail("cancel", actorID, targetID, err)
	}
	if n == 0 {
		return ErrNoSuchPendingRequest
	}

	s.logTransition("cancel", actorID, targetID, "")
	event := newEvent(EventRequestCancelled, actorID, targetID, actor)
	s.publisher.Publish(targetID, event)
	s.publisher.Publish(actorID, event)
	return nil
}

// Unfriend removes the accepted edge between actor and target.
func (s *Service) Unfriend(ctx context.Context, actorID, targetID uint) error {
	if actorID == targetID {
		return ErrNotFriends
	}

	actor, err := s.account(ctx, "unfriend", actorID)
	if err != nil {
		return err
	}

	n, err := s.store.DeleteAccepted(ctx, actorID, targetID)
	if err != nil {
		return s.fail("unfriend", actorID, targetID, err)
	}
	if n == 0 {
		return ErrNotFriends
	}

	s.logTransition("unfriend", actorID, targetID, "")
	event := newEvent(EventUnfriended, actorID, targetID, actor)
	s.publisher.Publish(actorID, event)
	s.publisher.Publish(targetID, event)
	return nil
}

// ListFriends returns every account with an accepted edge to actor.
func (s *Service) ListFriends(ctx context.Context, actorID uint) ([]Account, error) {
	accounts, err := s.store.ListFriends(ctx, actorID)
	if err != nil {
		return nil, s.fail("list_friends", actorID, 0, err)
	}
	return accounts, nil
}

// ListIncoming returns the requesters of pending edges received by actor.
func (s *Service) ListIncoming(ctx context.Context, actorID uint) ([]Account, error) {
	accounts, err := s.store.ListIncoming(ctx, actorID)
	if err != nil {
		return nil, s.fail("list_incoming", actorID, 0, err)
	}
	return accounts, nil
}

// ListOutgoing returns the receivers of pending edges sent by actor.
func (s *Service) ListOutgoing(ctx context.Context, actorID uint) ([]Account, error) {
	accounts, err := s.store.ListOutgoing(ctx, actorID)
	if err != nil {
		return nil, s.fail("list_outgoing", actorID, 0, err)
	}
	return accounts, nil
}

// Relation describes the edge between two accounts from actor's point of view.
type Relation string

const (
	RelationNone     Relation = "none"
	RelationOutgoing Relation = "pending_outgoing"
	RelationIncoming Relation = "pending_incoming"
	RelationFriends  Relation = "friends"
	RelationSelf     Relation = "self"
)

// RelationTo reports how actor relates to other.
func (s *Service) RelationTo(ctx context.Context, actorID, otherID uint) (Relation, error) {
	if actorID == otherID {
		return RelationSelf, nil
	}

	edge, err := s.store.Find(ctx, actorID, otherID)
	if err != nil {
		return "", s.fail("relation", actorID, otherID, err)
	}

	switch {
	case edge == nil:
		return RelationNone, nil
	case edge.Status == models.StatusAccepted:
		return RelationFriends, nil
	case edge.RequesterID == actorID:
		return RelationOutgoing, nil
	default:
		return RelationIncoming, nil
	}
}

func (s *Service) account(ctx context.Context, op string, id uint) (Account, error) {
	account, err := s.store.Account(ctx, id)
	if errors.Is(err, ErrUnknownAccount) {
		return Account{}, err
	}
	if err != nil {
		return Account{}, s.fail(op, id, 0, err)
	}
	return account, nil
}

func (s *Service) fail(op string, actorID, otherID uint, err error) error {
	logrus.WithFields(logrus.Fields{
		"op":       op,
		"actor_id": actorID,
		"other_id": otherID,
	}).WithError(err).Error("friendship store failure")
	return storeError(op, err)
}

func (s *Service) logTransition(op string, actorID, otherID uint, status models.FriendshipStatus) {
	fields := logrus.Fields{
		"op":       op,
		"actor_id": actorID,
		"other_id": otherID,
	}
	if status == "" {
		fields["status"] = "deleted"
	} else {
		fields["status"] = status
	}
	logrus.WithFields(fields).Info("friendship transition")
}
