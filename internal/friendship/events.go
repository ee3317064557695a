package friendship

import "chatapp/backend/internal/hub"

// Event types published to the notification hub.
const (
	EventRequestReceived  = "friend_request_received"
	EventRequestAccepted  = "friend_request_accepted"
	EventRequestCancelled = "friend_request_cancelled"
	EventUnfriended       = "unfriend_successful"
)

// Notification is the payload of every friendship event. DisplayName is the
// username of the account that caused the transition.
type Notification struct {
	RequesterID uint   `json:"requesterId"`
	ReceiverID  uint   `json:"receiverId"`
	ActorID     uint   `json:"actorId"`
	DisplayName string `json:"displayName"`
}

func newEvent(kind string, requesterID, receiverID uint, actor Account) hub.Event {
	return hub.Event{
		Type: kind,
		Payload: Notification{
			RequesterID: requesterID,
			ReceiverID:  receiverID,
			ActorID:     actor.ID,
			DisplayName: actor.Username,
		},
	}
}
