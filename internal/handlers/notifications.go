package handlers

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/linkgrove/searchsync/internal/events"
	"github.com/linkgrove/searchsync/internal/services"
)

// NotificationHandler processes the bookmark-notification visibility events.
type NotificationHandler struct {
	notifications *services.NotificationService
	log           zerolog.Logger
}

func NewNotificationHandler(notifications *services.NotificationService, log zerolog.Logger) *NotificationHandler {
	return &NotificationHandler{notifications: notifications, log: log}
}

func (h *NotificationHandler) Created(ctx context.Context, data json.RawMessage) bool {
	var p events.NotificationPayload
	if err := json.Unmarshal(data, &p); err != nil {
		h.log.Error().Err(err).Msg("malformed notification payload")
		return false
	}
	if err := h.notifications.Create(ctx, &p.Notification); err != nil {
		h.log.Error().Err(err).Str("notificationId", p.Notification.UUID).Msg("recording notification failed")
		return false
	}
	return true
}

func (h *NotificationHandler) Deleted(ctx context.Context, data json.RawMessage) bool {
	var p events.NotificationPayload
	if err := json.Unmarshal(data, &p); err != nil {
		h.log.Error().Err(err).Msg("malformed notification payload")
		return false
	}
	n := p.Notification
	if err := h.notifications.Delete(ctx, n.OrganisationID, n.UserID, n.UUID); err != nil {
		h.log.Error().Err(err).Str("notificationId", n.UUID).Msg("removing notification failed")
		return false
	}
	return true
}
