// Package notify appends notifications to user inboxes.
package notify

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/datptitudu2/backendthuvienptit/internal/database/notifications"
	"github.com/datptitudu2/backendthuvienptit/internal/database/users"
	"github.com/datptitudu2/backendthuvienptit/internal/entities"
)

// Service writes notifications.
type Service struct {
	repo  *notifications.Repository
	users *users.Repository
}

func NewService(repo *notifications.Repository, users *users.Repository) *Service {
	return &Service{repo: repo, users: users}
}

// Notify appends a single notification for userID.
func (s *Service) Notify(ctx context.Context, userID uint, kind entities.NotificationType, title, message string) error {
	n := &entities.Notification{
		UserID:  userID,
		Type:    kind,
		Title:   title,
		Message: message,
	}
	if err := s.repo.CreateNotification(ctx, n); err != nil {
		return fmt.Errorf("create %s notification for user %d: %w", kind, userID, err)
	}
	return nil
}

// NotifyOnce appends a notification unless one with dedupeKey already
// exists. It reports whether a notification was written.
func (s *Service) NotifyOnce(ctx context.Context, dedupeKey string, userID uint, kind entities.NotificationType, title, message string) (bool, error) {
	n := &entities.Notification{
		UserID:    userID,
		Type:      kind,
		Title:     title,
		Message:   message,
		DedupeKey: &dedupeKey,
	}
	inserted, err := s.repo.CreateNotificationOnce(ctx, n)
	if err != nil {
		return false, fmt.Errorf("create %s notification for user %d: %w", kind, userID, err)
	}
	return inserted, nil
}

// NotifyUsers appends the same notification for each user and returns the count written.
func (s *Service) NotifyUsers(ctx context.Context, userIDs []uint, kind entities.NotificationType, title, message string) (int, error) {
	n, err := s.repo.CreateNotifications(ctx, userIDs, kind, title, message)
	if err != nil {
		return 0, fmt.Errorf("create %s notifications: %w", kind, err)
	}
	return n, nil
}

// NotifyAll appends the notification for every registered user.
func (s *Service) NotifyAll(ctx context.Context, kind entities.NotificationType, title, message string) (int, error) {
	ids, err := s.users.ListAllIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list users: %w", err)
	}
	n, err := s.NotifyUsers(ctx, ids, kind, title, message)
	if err != nil {
		return 0, err
	}
	log.Debug().Str("type", string(kind)).Int("recipients", n).Msg("Broadcast notification")
	return n, nil
}

// Admins returns the ids of every admin user.
func (s *Service) Admins(ctx context.Context) ([]uint, error) {
	return s.users.ListIDsByRole(ctx, entities.UserRoleAdmin)
}
