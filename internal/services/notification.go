package services

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/linkgrove/searchsync/internal/model"
	"github.com/linkgrove/searchsync/internal/store"
)

// NotificationService owns the per-user visibility side-channel. No move
// semantics: notifications are created and deleted, never relocated.
type NotificationService struct {
	store store.Store
	log   zerolog.Logger
}

func NewNotificationService(s store.Store, log zerolog.Logger) *NotificationService {
	return &NotificationService{store: s, log: log}
}

// Create records a notification. Duplicate creates are replays and count as
// success.
func (s *NotificationService) Create(ctx context.Context, n *model.Notification) error {
	err := s.store.Notifications().Create(ctx, n)
	if errors.Is(err, model.ErrConflict) {
		s.log.Debug().Str("notificationId", n.UUID).Msg("notification already recorded")
		return nil
	}
	return err
}

// Delete removes a notification; a missing key is success.
func (s *NotificationService) Delete(ctx context.Context, organisationID, userID, uuid string) error {
	return s.store.Notifications().Delete(ctx, organisationID, userID, uuid)
}
