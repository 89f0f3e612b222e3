package services

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/linkgrove/searchsync/internal/model"
	"github.com/linkgrove/searchsync/internal/pagetext"
	"github.com/linkgrove/searchsync/internal/searchindex"
	"github.com/linkgrove/searchsync/internal/store"
)

// RegistryService owns user and organisation records and the bulk search
// index side effects of organisation tier changes.
type RegistryService struct {
	store  store.Store
	index  searchindex.Index
	pages  pagetext.Fetcher
	fanout int
	log    zerolog.Logger
}

func NewRegistryService(s store.Store, idx searchindex.Index, pages pagetext.Fetcher, fanout int, log zerolog.Logger) *RegistryService {
	if fanout <= 0 {
		fanout = 8
	}
	return &RegistryService{store: s, index: idx, pages: pages, fanout: fanout, log: log}
}

// CreateUser registers a user owner. A duplicate create is a replay and
// counts as success.
func (s *RegistryService) CreateUser(ctx context.Context, userID string, m model.Membership) error {
	err := s.store.Owners().Create(ctx, &model.Owner{UUID: userID, Kind: model.KindUser, Membership: m})
	if errors.Is(err, model.ErrConflict) {
		s.log.Debug().Str("userId", userID).Msg("user already registered")
		return nil
	}
	return err
}

// DeleteUser removes the user's projection record. Users own no dedicated
// search scope; their bookmarks live inside organisation scopes.
func (s *RegistryService) DeleteUser(ctx context.Context, userID string) error {
	return s.store.Owners().Delete(ctx, model.KindUser, userID)
}

// CreateOrganisation registers the owner record and initialises the
// organisation's search scope.
func (s *RegistryService) CreateOrganisation(ctx context.Context, organisationID string, m model.Membership) error {
	if err := s.index.EnsureScope(ctx, organisationID); err != nil {
		return err
	}
	err := s.store.Owners().Create(ctx, &model.Owner{UUID: organisationID, Kind: model.KindOrganisation, Membership: m})
	if errors.Is(err, model.ErrConflict) {
		s.log.Debug().Str("organisationId", organisationID).Msg("organisation already registered")
		return nil
	}
	return err
}

// DeleteOrganisation removes the owner record and drops the organisation's
// dedicated search scope.
func (s *RegistryService) DeleteOrganisation(ctx context.Context, organisationID string) error {
	if err := s.store.Owners().Delete(ctx, model.KindOrganisation, organisationID); err != nil {
		return err
	}
	return s.index.DeleteScope(ctx, organisationID)
}

// ChangeOrganisationMembership updates the membership descriptor and runs
// the tier-transition side effects: crossing down to tier 0 scrubs extracted
// page text from every indexed bookmark; crossing up from tier 0 populates
// it. Side effects are best-effort per bookmark.
func (s *RegistryService) ChangeOrganisationMembership(ctx context.Context, organisationID string, m, old model.Membership) error {
	if _, err := s.store.Owners().ChangeMembership(ctx, model.KindOrganisation, organisationID, m); err != nil {
		return err
	}

	switch {
	case m.Tier == 0 && old.Tier > 0:
		s.clearFullPages(ctx, organisationID)
	case old.Tier == 0 && m.Tier > 0:
		s.populateFullPages(ctx, organisationID)
	}
	return nil
}

// clearFullPages blanks the fullPage attribute of every bookmark document in
// the organisation's scope. Documents are not deleted.
func (s *RegistryService) clearFullPages(ctx context.Context, organisationID string) {
	refs, err := s.store.Bookmarks().ListByOrganisation(ctx, organisationID)
	if err != nil {
		s.log.Error().Err(err).Str("organisationId", organisationID).Msg("listing bookmarks for full page scrub failed")
		return
	}

	var failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.fanout)
	for _, ref := range refs {
		ref := ref
		g.Go(func() error {
			// one object's failure must not abort the others
			if err := s.index.ClearFullPage(gctx, organisationID, ref.ObjectID); err != nil {
				failed.Add(1)
				s.log.Error().Err(err).Str("objectId", ref.ObjectID).Msg("clearing full page failed")
			}
			return nil
		})
	}
	_ = g.Wait()
	s.log.Info().
		Str("organisationId", organisationID).
		Int("bookmarks", len(refs)).
		Int64("failed", failed.Load()).
		Msg("full page text scrubbed")
}

// populateFullPages fetches and stores page text for every bookmark in the
// organisation. The url and object id of each document are untouched.
func (s *RegistryService) populateFullPages(ctx context.Context, organisationID string) {
	refs, err := s.store.Bookmarks().ListByOrganisation(ctx, organisationID)
	if err != nil {
		s.log.Error().Err(err).Str("organisationId", organisationID).Msg("listing bookmarks for full page population failed")
		return
	}

	var failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.fanout)
	for _, ref := range refs {
		ref := ref
		g.Go(func() error {
			page := s.pages.FetchPageText(gctx, ref.URL)
			if err := s.index.SetFullPage(gctx, organisationID, ref.ObjectID, page.Body); err != nil {
				failed.Add(1)
				s.log.Error().Err(err).Str("objectId", ref.ObjectID).Str("url", ref.URL).Msg("storing full page failed")
			}
			return nil
		})
	}
	_ = g.Wait()
	s.log.Info().
		Str("organisationId", organisationID).
		Int("bookmarks", len(refs)).
		Int64("failed", failed.Load()).
		Msg("full page text populated")
}

// JoinOrganisation appends the organisation to the user's membership list.
func (s *RegistryService) JoinOrganisation(ctx context.Context, userID, organisationID string) error {
	_, err := s.store.Owners().AppendOrganisation(ctx, userID, organisationID)
	return err
}

// LeaveOrganisation removes the organisation from the user's membership
// list; an absent entry is success.
func (s *RegistryService) LeaveOrganisation(ctx context.Context, userID, organisationID string) error {
	_, err := s.store.Owners().RemoveOrganisation(ctx, userID, organisationID)
	return err
}

// JoinCollection appends a collection membership entry to the user.
func (s *RegistryService) JoinCollection(ctx context.Context, userID string, cm model.CollectionMembership) error {
	_, err := s.store.Owners().AppendCollection(ctx, userID, cm)
	return err
}

// LeaveCollection removes the user's membership of one collection; an
// absent entry is success.
func (s *RegistryService) LeaveCollection(ctx context.Context, userID, collectionID string) error {
	_, err := s.store.Owners().RemoveCollection(ctx, userID, collectionID)
	return err
}

// RemoveCollectionFromUsers strips a deleted collection from every member in
// the given list. Members whose state already lacks the entry, or whose
// record is gone, are skipped because a reordered event may have updated
// them first. An empty member list falls back to scanning all users.
func (s *RegistryService) RemoveCollectionFromUsers(ctx context.Context, collectionID string, userIDs []string) error {
	if len(userIDs) == 0 {
		users, err := s.store.Owners().ListByKind(ctx, model.KindUser)
		if err != nil {
			return err
		}
		for _, u := range users {
			userIDs = append(userIDs, u.UUID)
		}
	}
	for _, userID := range userIDs {
		_, err := s.store.Owners().RemoveCollection(ctx, userID, collectionID)
		if err != nil && !errors.Is(err, model.ErrNotFound) {
			return err
		}
		if errors.Is(err, model.ErrNotFound) {
			s.log.Debug().Str("userId", userID).Str("collectionId", collectionID).Msg("member not found during collection removal, skipping")
		}
	}
	return nil
}
