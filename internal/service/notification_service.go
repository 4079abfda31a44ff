package service

import (
	"context"
	"encoding/json"
	"fmt"

	"facilityops/internal/model"
	"facilityops/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// NotificationMessage is what a workflow action wants a user to be told.
type NotificationMessage struct {
	UserID     uuid.UUID
	Type       string
	Message    string
	ActionLink string
}

// Notifier delivers messages on a best-effort basis. Failures are logged and
// never reach the caller.
type Notifier interface {
	Notify(ctx context.Context, msg NotificationMessage)
}

// Publisher pushes a payload to a connected user, if any.
type Publisher interface {
	SendToUser(userID string, payload []byte)
}

type NotificationService interface {
	Notifier
	List(ctx context.Context, userID uuid.UUID, unreadOnly bool, page, limit int) ([]model.Notification, int64, error)
	MarkRead(ctx context.Context, userID, id uuid.UUID) error
}

type notificationService struct {
	repo      repository.NotificationRepository
	publisher Publisher
	logger    *zap.Logger
}

func NewNotificationService(repo repository.NotificationRepository, publisher Publisher, logger *zap.Logger) NotificationService {
	return &notificationService{repo: repo, publisher: publisher, logger: logger}
}

type notificationEvent struct {
	Event string              `json:"event"`
	Data  *model.Notification `json:"data"`
}

func (s *notificationService) Notify(ctx context.Context, msg NotificationMessage) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("notification delivery panicked", zap.Any("panic", r))
		}
	}()

	n := &model.Notification{
		UserID:     msg.UserID,
		Message:    msg.Message,
		Type:       msg.Type,
		ActionLink: msg.ActionLink,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		s.logger.Warn("failed to persist notification",
			zap.String("user_id", msg.UserID.String()),
			zap.String("type", msg.Type),
			zap.Error(err))
		return
	}

	if s.publisher == nil {
		return
	}
	payload, err := json.Marshal(notificationEvent{Event: "NOTIFICATION", Data: n})
	if err != nil {
		s.logger.Warn("failed to encode notification", zap.Error(err))
		return
	}
	s.publisher.SendToUser(msg.UserID.String(), payload)
}

func (s *notificationService) List(ctx context.Context, userID uuid.UUID, unreadOnly bool, page, limit int) ([]model.Notification, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	list, total, err := s.repo.ListByUser(ctx, userID, unreadOnly, (page-1)*limit, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}
	return list, total, nil
}

func (s *notificationService) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.repo.MarkRead(ctx, id, userID); err != nil {
		return notFound(err, "notification %s", id)
	}
	return nil
}
