package handlers

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/linkgrove/searchsync/internal/events"
	"github.com/linkgrove/searchsync/internal/services"
)

// BookmarkHandler processes the bookmark lifecycle events. Several upstream
// tags collapse onto one handler: a restore is a create, an increment is an
// edit, an archive is a delete.
type BookmarkHandler struct {
	projection *services.ProjectionService
	log        zerolog.Logger
}

func NewBookmarkHandler(projection *services.ProjectionService, log zerolog.Logger) *BookmarkHandler {
	return &BookmarkHandler{projection: projection, log: log}
}

func (h *BookmarkHandler) Created(ctx context.Context, data json.RawMessage) bool {
	var p events.BookmarkPayload
	if err := json.Unmarshal(data, &p); err != nil {
		h.log.Error().Err(err).Msg("malformed bookmark payload")
		return false
	}
	if err := h.projection.CreateBookmark(ctx, &p.Bookmark); err != nil {
		h.log.Error().Err(err).Str("bookmarkId", p.Bookmark.UUID).Msg("indexing bookmark failed")
		return false
	}
	return true
}

func (h *BookmarkHandler) Edited(ctx context.Context, data json.RawMessage) bool {
	var p events.BookmarkPayload
	if err := json.Unmarshal(data, &p); err != nil {
		h.log.Error().Err(err).Msg("malformed bookmark payload")
		return false
	}
	if err := h.projection.EditBookmark(ctx, &p.Bookmark, p.Previous); err != nil {
		h.log.Error().Err(err).Str("bookmarkId", p.Bookmark.UUID).Msg("updating bookmark failed")
		return false
	}
	return true
}

func (h *BookmarkHandler) Deleted(ctx context.Context, data json.RawMessage) bool {
	var p events.BookmarkPayload
	if err := json.Unmarshal(data, &p); err != nil {
		h.log.Error().Err(err).Msg("malformed bookmark payload")
		return false
	}
	if err := h.projection.DeleteBookmark(ctx, &p.Bookmark, p.Previous); err != nil {
		h.log.Error().Err(err).Str("bookmarkId", p.Bookmark.UUID).Msg("removing bookmark failed")
		return false
	}
	return true
}
