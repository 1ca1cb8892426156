package services

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/SufailSLX/budget-tracker/internal/models"
	"github.com/SufailSLX/budget-tracker/internal/repository"
)

// CreateNotificationInput carries a validated create request.
type CreateNotificationInput struct {
	Title     string
	Message   string
	Type      string
	Priority  string
	ActionURL string
}

// NotificationStats tallies a user's notifications.
type NotificationStats struct {
	Total      int64            `json:"total"`
	Unread     int64            `json:"unread"`
	Read       int64            `json:"read"`
	ByType     map[string]int64 `json:"byType"`
	ByPriority map[string]int64 `json:"byPriority"`
}

// NotificationService manages per-user notifications.
type NotificationService interface {
	Create(ctx context.Context, userID primitive.ObjectID, in CreateNotificationInput) (*models.Notification, error)
	List(ctx context.Context, userID primitive.ObjectID, unreadOnly bool, page, limit int) ([]models.Notification, int64, Pagination, error)
	MarkRead(ctx context.Context, userID primitive.ObjectID, id string) (*models.Notification, error)
	MarkAllRead(ctx context.Context, userID primitive.ObjectID) (int64, error)
	Delete(ctx context.Context, userID primitive.ObjectID, id string) (*models.Notification, error)
	Stats(ctx context.Context, userID primitive.ObjectID) (*NotificationStats, error)
}

type notificationService struct {
	notifs repository.NotificationRepository
}

// NewNotificationService creates a new notification service.
func NewNotificationService(notifs repository.NotificationRepository) NotificationService {
	return &notificationService{notifs: notifs}
}

func (s *notificationService) Create(ctx context.Context, userID primitive.ObjectID, in CreateNotificationInput) (*models.Notification, error) {
	if in.Type == "" {
		in.Type = models.NotificationSystem
	}
	if in.Priority == "" {
		in.Priority = models.PriorityMedium
	}
	n := &models.Notification{
		UserID:    userID,
		Title:     in.Title,
		Message:   in.Message,
		Type:      in.Type,
		Priority:  in.Priority,
		ActionURL: in.ActionURL,
	}
	if err := s.notifs.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("creating notification: %w", err)
	}
	return n, nil
}

func (s *notificationService) List(ctx context.Context, userID primitive.ObjectID, unreadOnly bool, page, limit int) ([]models.Notification, int64, Pagination, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 50 {
		limit = 50
	}
	notifs, total, err := s.notifs.List(ctx, userID, unreadOnly, page, limit)
	if err != nil {
		return nil, 0, Pagination{}, fmt.Errorf("listing notifications: %w", err)
	}
	unread, err := s.notifs.CountUnread(ctx, userID)
	if err != nil {
		return nil, 0, Pagination{}, fmt.Errorf("counting unread: %w", err)
	}
	return notifs, unread, Paginate(page, limit, total), nil
}

func (s *notificationService) MarkRead(ctx context.Context, userID primitive.ObjectID, id string) (*models.Notification, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	n, err := s.notifs.MarkRead(ctx, oid, userID)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	return n, nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	count, err := s.notifs.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("marking all read: %w", err)
	}
	return count, nil
}

func (s *notificationService) Delete(ctx context.Context, userID primitive.ObjectID, id string) (*models.Notification, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	n, err := s.notifs.Delete(ctx, oid, userID)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	return n, nil
}

func (s *notificationService) Stats(ctx context.Context, userID primitive.ObjectID) (*NotificationStats, error) {
	notifs, err := s.notifs.ListAll(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading notifications: %w", err)
	}

	stats := &NotificationStats{
		Total:      int64(len(notifs)),
		ByType:     map[string]int64{},
		ByPriority: map[string]int64{},
	}
	for _, n := range notifs {
		if !n.IsRead {
			stats.Unread++
		}
		stats.ByType[n.Type]++
		stats.ByPriority[n.Priority]++
	}
	stats.Read = stats.Total - stats.Unread
	return stats, nil
}
