package services

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/linkgrove/searchsync/internal/model"
	"github.com/linkgrove/searchsync/internal/pagetext"
	"github.com/linkgrove/searchsync/internal/searchindex"
	"github.com/linkgrove/searchsync/internal/store"
)

// ProjectionService keeps the search index and the bookmark projection
// records consistent through bookmark lifecycle events. Operations are
// written to be replay-safe: the upstream bus delivers at least once, in any
// order.
type ProjectionService struct {
	store store.Store
	index searchindex.Index
	pages pagetext.Fetcher
	log   zerolog.Logger
}

func NewProjectionService(s store.Store, idx searchindex.Index, pages pagetext.Fetcher, log zerolog.Logger) *ProjectionService {
	return &ProjectionService{store: s, index: idx, pages: pages, log: log}
}

// CreateBookmark indexes a new bookmark and records its projection entry.
// The index is written first: if the projection write is lost, re-processing
// the same event upserts the same search object and completes the pair.
func (s *ProjectionService) CreateBookmark(ctx context.Context, b *model.Bookmark) error {
	fullPage := ""
	if org, err := s.store.Owners().Get(ctx, model.KindOrganisation, b.OrganisationID); err == nil {
		if org.Membership.IsActive && org.Membership.Tier > 0 {
			fullPage = s.pages.FetchPageText(ctx, b.URL).Body
		}
	}

	objectID, err := s.index.CreateBookmark(ctx, b.OrganisationID, b, fullPage)
	if err != nil {
		return err
	}

	err = s.store.Bookmarks().Create(ctx, objectID, b)
	if errors.Is(err, model.ErrConflict) {
		// replayed create; the pair already exists
		s.log.Debug().Str("bookmarkId", b.UUID).Msg("bookmark projection already exists")
		return nil
	}
	return err
}

// EditBookmark applies an ordinary edit, running the move protocol first
// when the scope changed. The search object keeps its id across moves; only
// its addressing metadata relocates.
func (s *ProjectionService) EditBookmark(ctx context.Context, b *model.Bookmark, previous *model.Scope) error {
	moved := previous != nil &&
		(previous.OrganisationID != b.OrganisationID || previous.CollectionID != b.CollectionID)

	var ref *model.BookmarkRef
	var err error
	if moved {
		ref, err = s.store.Bookmarks().Resolve(ctx, b, previous)
		if errors.Is(err, model.ErrNotFound) {
			// a retried edit may already have moved the record
			ref, err = s.store.Bookmarks().Resolve(ctx, b, nil)
			moved = false
		}
	} else {
		ref, err = s.store.Bookmarks().Resolve(ctx, b, nil)
	}
	if err != nil {
		// the upstream system is the source of truth; a missing projection
		// record means an earlier create was lost and is repaired out of
		// band, not here
		s.log.Error().Err(err).Str("bookmarkId", b.UUID).Msg("bookmark projection record missing on edit")
		return err
	}

	if moved {
		if err := s.store.Bookmarks().Move(ctx, ref.ObjectID, b, *previous); err != nil {
			return err
		}
	}

	// partial-update under the current organisation's scope; the index is
	// chosen by current organisation id at write time, so scope membership
	// follows the new owner automatically
	return s.index.UpdateBookmark(ctx, b.OrganisationID, ref.ObjectID, b)
}

// DeleteBookmark removes the search object first and the projection record
// second: a crash between the two leaves an orphaned projection record, not
// an unreachable search object.
func (s *ProjectionService) DeleteBookmark(ctx context.Context, b *model.Bookmark, previous *model.Scope) error {
	ref, err := s.store.Bookmarks().Resolve(ctx, b, previous)
	if errors.Is(err, model.ErrNotFound) && previous != nil {
		ref, err = s.store.Bookmarks().Resolve(ctx, b, nil)
		previous = nil
	}
	if err != nil {
		s.log.Error().Err(err).Str("bookmarkId", b.UUID).Msg("bookmark projection record missing on delete")
		return err
	}

	orgID := b.OrganisationID
	if previous != nil {
		orgID = previous.OrganisationID
	}
	if err := s.index.DeleteBookmark(ctx, orgID, ref.ObjectID); err != nil {
		return err
	}
	return s.store.Bookmarks().Delete(ctx, b, previous)
}
