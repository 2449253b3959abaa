package notification

import (
	"context"

	"github.com/google/uuid"

	"github.com/marketbid/auction-marketplace-backend/internal/domain/errors"
	"github.com/marketbid/auction-marketplace-backend/internal/domain/notification"
)

// Repository defines notification storage. Rows are append-only except for
// the read flag and deletion.
type Repository interface {
	Create(ctx context.Context, n *notification.Notification) error
	CreateBatch(ctx context.Context, ns []*notification.Notification) error
	GetByID(ctx context.Context, id uuid.UUID) (*notification.Notification, error)
	ListByUser(ctx context.Context, userID uuid.UUID, onlyUnread bool, limit, offset int) ([]*notification.Notification, error)
	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)
	SetRead(ctx context.Context, id uuid.UUID, read bool) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Service is the read/manage side of notifications consumed by the API.
// Creation flows exclusively through the Dispatcher and Worker.
type Service struct {
	repo Repository
}

// NewService creates a notification service
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns a page of a user's notifications, newest first
func (s *Service) List(ctx context.Context, userID uuid.UUID, onlyUnread bool, limit, offset int) ([]*notification.Notification, error) {
	if userID == uuid.Nil {
		return nil, errors.NewValidationError("INVALID_USER_ID", "user ID is required")
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListByUser(ctx, userID, onlyUnread, limit, offset)
}

// UnreadCount returns the number of unread notifications for a user
func (s *Service) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	if userID == uuid.Nil {
		return 0, errors.NewValidationError("INVALID_USER_ID", "user ID is required")
	}
	return s.repo.CountUnread(ctx, userID)
}

// SetRead toggles the read flag. Only the owning user may touch the row.
func (s *Service) SetRead(ctx context.Context, userID, id uuid.UUID, read bool) error {
	n, err := s.authorize(ctx, userID, id)
	if err != nil {
		return err
	}
	if n.IsRead == read {
		return nil
	}
	return s.repo.SetRead(ctx, id, read)
}

// MarkAllRead marks every unread notification of a user as read and returns
// the number of rows touched
func (s *Service) MarkAllRead(ctx context.Context, userID uuid.UUID) (int, error) {
	if userID == uuid.Nil {
		return 0, errors.NewValidationError("INVALID_USER_ID", "user ID is required")
	}
	return s.repo.MarkAllRead(ctx, userID)
}

// Delete removes a notification owned by the user
func (s *Service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if _, err := s.authorize(ctx, userID, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) authorize(ctx context.Context, userID, id uuid.UUID) (*notification.Notification, error) {
	if userID == uuid.Nil || id == uuid.Nil {
		return nil, errors.ErrInvalidInput
	}

	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.UserID != userID {
		return nil, errors.NewForbiddenError("notification belongs to another user")
	}
	return n, nil
}
