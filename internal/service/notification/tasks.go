package notification

import (
	"time"

	"github.com/google/uuid"

	"github.com/marketbid/auction-marketplace-backend/internal/domain/notification"
)

// Task type names routed through the asynq mux
const (
	TaskDeliver   = "notification:deliver"
	TaskBroadcast = "notification:broadcast"
)

// Queue names; deliver runs ahead of broadcast so settlement notices are not
// starved by a large admin fan-out
const (
	QueueDeliver   = "notifications"
	QueueBroadcast = "broadcasts"
)

// DeliverPayload carries a single notification row through the queue. The ID
// travels with the payload so a retried task re-inserts under the same row
// and the repository's conflict handling keeps delivery exactly-once.
type DeliverPayload struct {
	ID            uuid.UUID             `json:"id"`
	UserID        uuid.UUID             `json:"user_id"`
	Type          notification.Type     `json:"type"`
	Title         string                `json:"title"`
	Message       string                `json:"message"`
	ListingID     *uuid.UUID            `json:"listing_id,omitempty"`
	RelatedUserID *uuid.UUID            `json:"related_user_id,omitempty"`
	CreatedAt     time.Time             `json:"created_at"`
}

// BroadcastPayload fans a notification out to every user
type BroadcastPayload struct {
	Type    notification.Type `json:"type"`
	Title   string            `json:"title"`
	Message string            `json:"message"`
}

func payloadFrom(n *notification.Notification) DeliverPayload {
	return DeliverPayload{
		ID:            n.ID,
		UserID:        n.UserID,
		Type:          n.Type,
		Title:         n.Title,
		Message:       n.Message,
		ListingID:     n.ListingID,
		RelatedUserID: n.RelatedUserID,
		CreatedAt:     n.CreatedAt,
	}
}

func (p DeliverPayload) toNotification() *notification.Notification {
	n := notification.New(p.UserID, p.Type, p.Title, p.Message)
	if p.ID != uuid.Nil {
		n.ID = p.ID
	}
	n.ListingID = p.ListingID
	n.RelatedUserID = p.RelatedUserID
	if !p.CreatedAt.IsZero() {
		n.CreatedAt = p.CreatedAt
	}
	return n
}
