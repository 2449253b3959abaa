package fixtures

import (
	"time"

	"github.com/google/uuid"

	"github.com/marketbid/auction-marketplace-backend/internal/domain/notification"
)

// Notification returns a system notification for the given user
func Notification(userID uuid.UUID) *notification.Notification {
	return &notification.Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Type:      notification.TypeSystem,
		Title:     "Scheduled maintenance",
		Message:   "The marketplace will be briefly unavailable tonight.",
		CreatedAt: time.Now().UTC(),
	}
}

// ReadNotification returns an already-read notification for the given user
func ReadNotification(userID uuid.UUID) *notification.Notification {
	n := Notification(userID)
	n.IsRead = true
	return n
}

// NotificationList returns count unread notifications for the given user
func NotificationList(userID uuid.UUID, count int) []*notification.Notification {
	ns := make([]*notification.Notification, 0, count)
	for i := 0; i < count; i++ {
		ns = append(ns, Notification(userID))
	}
	return ns
}
