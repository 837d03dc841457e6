package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"backend/internal/model"
	"backend/internal/websocket"
	"backend/internal/workflow"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationResponse struct {
	ID        string  `json:"id"`
	RequestID *string `json:"request_id"`
	Type      string  `json:"type"`
	Message   string  `json:"message"`
	Read      bool    `json:"read"`
	CreatedAt string  `json:"created_at"`
}

// NotificationFeed is the snapshot returned to polling clients. Re-applying
// the same feed on the client side is idempotent by construction.
type NotificationFeed struct {
	Notifications []NotificationResponse `json:"notifications"`
	UnreadCount   int64                  `json:"unread_count"`
}

type NotificationService interface {
	List(ctx context.Context, userID string, limit int) (NotificationFeed, error)
	MarkAllRead(ctx context.Context, userID string) error
	// Notify records an in-app notification and pushes it over the hub.
	// Failures are logged, never propagated: a lost notification must not
	// roll back the transition that produced it.
	Notify(ctx context.Context, userID uuid.UUID, requestID *uuid.UUID, ntype, message string)
	// NotifyRole fans the notification out to every user holding the role.
	NotifyRole(ctx context.Context, role workflow.Role, requestID *uuid.UUID, ntype, message string)
}

type notificationService struct {
	db  *gorm.DB
	hub *websocket.Hub
}

func NewNotificationService(db *gorm.DB, hub *websocket.Hub) NotificationService {
	return &notificationService{db: db, hub: hub}
}

func (s *notificationService) List(ctx context.Context, userID string, limit int) (NotificationFeed, error) {
	if limit <= 0 {
		limit = 50
	}

	var rows []model.Notification
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return NotificationFeed{}, fmt.Errorf("failed to fetch notifications: %w", err)
	}

	var unread int64
	if err := s.db.WithContext(ctx).Model(&model.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Count(&unread).Error; err != nil {
		return NotificationFeed{}, fmt.Errorf("failed to count unread notifications: %w", err)
	}

	feed := NotificationFeed{UnreadCount: unread, Notifications: make([]NotificationResponse, 0, len(rows))}
	for _, n := range rows {
		resp := NotificationResponse{
			ID:        n.ID.String(),
			Type:      n.Type,
			Message:   n.Message,
			Read:      n.Read,
			CreatedAt: n.CreatedAt.Format(time.RFC3339),
		}
		if n.RequestID != nil {
			id := n.RequestID.String()
			resp.RequestID = &id
		}
		feed.Notifications = append(feed.Notifications, resp)
	}
	return feed, nil
}

// MarkAllRead flips every unread notification of the user. Running it twice
// is a no-op the second time.
func (s *notificationService) MarkAllRead(ctx context.Context, userID string) error {
	return s.db.WithContext(ctx).Model(&model.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Update("read", true).Error
}

func (s *notificationService) Notify(ctx context.Context, userID uuid.UUID, requestID *uuid.UUID, ntype, message string) {
	n := model.Notification{
		UserID:    userID,
		RequestID: requestID,
		Type:      ntype,
		Message:   message,
	}
	if err := s.db.WithContext(ctx).Create(&n).Error; err != nil {
		log.Printf("notification: failed to store for user %s: %v", userID, err)
		return
	}

	if s.hub != nil {
		event := websocket.Event{Type: ntype, UserID: userID.String(), Message: message}
		if requestID != nil {
			event.RequestID = requestID.String()
		}
		s.hub.Publish(event)
	}
}

func (s *notificationService) NotifyRole(ctx context.Context, role workflow.Role, requestID *uuid.UUID, ntype, message string) {
	var users []model.User
	if err := s.db.WithContext(ctx).Where("role = ?", role).Find(&users).Error; err != nil {
		log.Printf("notification: failed to list %s users: %v", role, err)
		return
	}
	for _, u := range users {
		s.Notify(ctx, u.ID, requestID, ntype, message)
	}
}
