// Package activity records the user activity trail.
package activity

import (
	"context"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	activityRepo "github.com/datptitudu2/backendthuvienptit/internal/database/activity"
	"github.com/datptitudu2/backendthuvienptit/internal/entities"
)

// Service provides high-level activity logging.
type Service struct {
	repo *activityRepo.Repository
	wg   sync.WaitGroup
}

// NewService creates a new activity service.
func NewService(repo *activityRepo.Repository) *Service {
	return &Service{repo: repo}
}

// Log records an activity for userID, stamped with the request meta in ctx.
func (s *Service) Log(ctx context.Context, userID uint, action, description string) error {
	return s.repo.LogActivity(ctx, s.build(ctx, userID, action, description))
}

// LogEntity records an activity that refers to a specific entity.
func (s *Service) LogEntity(ctx context.Context, userID uint, action, description, entityType string, entityID uint) error {
	a := s.build(ctx, userID, action, description)
	a.EntityType = entityType
	a.EntityID = &entityID
	return s.repo.LogActivity(ctx, a)
}

// LogAsync records an activity in the background. Cancellation of ctx does
// not abort the write.
func (s *Service) LogAsync(ctx context.Context, userID uint, action, description string) {
	a := s.build(ctx, userID, action, description)
	bg := context.WithoutCancel(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.repo.LogActivity(bg, a); err != nil {
			log.Error().Err(err).Str("action", action).Uint("user_id", userID).Msg("Failed to log activity")
		}
	}()
}

// Wait blocks until every pending LogAsync write has finished.
func (s *Service) Wait() {
	s.wg.Wait()
}

// GetActivities retrieves paginated activities.
func (s *Service) GetActivities(ctx context.Context, userID uint, action string, limit, offset int) ([]entities.Activity, int64, error) {
	return s.repo.GetActivities(ctx, userID, action, limit, offset)
}

// DeleteOldActivities removes activities older than retention.
func (s *Service) DeleteOldActivities(ctx context.Context, retention time.Duration) (int64, error) {
	return s.repo.DeleteOlderThan(ctx, time.Now().Add(-retention))
}

func (s *Service) build(ctx context.Context, userID uint, action, description string) *entities.Activity {
	meta := MetaFromContext(ctx)
	return &entities.Activity{
		UserID:      userID,
		Action:      action,
		Description: truncate(description, 500),
		IPAddress:   meta.IPAddress,
		UserAgent:   truncate(meta.UserAgent, 500),
		RequestID:   meta.RequestID,
	}
}

// truncate shortens s to at most maxLen characters, cutting on a rune
// boundary. Column sizes count characters, not bytes.
func truncate(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxLen-3]) + "..."
}
