package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/linkgrove/searchsync/internal/model"
	"github.com/linkgrove/searchsync/internal/searchindex"
	"github.com/linkgrove/searchsync/internal/store"
)

// SearchService executes scoped search queries and enforces the caller's
// visibility. The index itself is not access-controlled per document; every
// read must pass through the filter here.
type SearchService struct {
	store  store.Store
	index  searchindex.Index
	limit  int
	fanout int
	log    zerolog.Logger
}

func NewSearchService(s store.Store, idx searchindex.Index, limit, fanout int, log zerolog.Logger) *SearchService {
	if limit <= 0 {
		limit = 20
	}
	if fanout <= 0 {
		fanout = 8
	}
	return &SearchService{store: s, index: idx, limit: limit, fanout: fanout, log: log}
}

// SearchRequest is the query surface: a caller, a query string, and an
// optional single-organisation scope.
type SearchRequest struct {
	CallerID       string `json:"callerId"`
	Query          string `json:"query"`
	OrganisationID string `json:"organisationId,omitempty"`
}

// Search resolves the caller, runs the query in the requested scope (or
// across every organisation the caller belongs to), and post-filters hits
// down to what the caller may see.
func (s *SearchService) Search(ctx context.Context, req SearchRequest) ([]model.SearchHit, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, fmt.Errorf("%w: query is required", model.ErrValidation)
	}

	caller, err := s.store.Owners().Get(ctx, model.KindUser, req.CallerID)
	if errors.Is(err, model.ErrNotFound) {
		return nil, model.ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}

	var hits []model.SearchHit
	var searched []string

	if req.OrganisationID != "" {
		hits, err = s.searchScoped(ctx, caller, req.OrganisationID, req.Query)
		if err != nil {
			return nil, err
		}
		searched = []string{req.OrganisationID}
	} else {
		hits, searched = s.searchAll(ctx, caller, req.Query)
	}

	return s.filterHits(ctx, caller, searched, hits), nil
}

func (s *SearchService) searchScoped(ctx context.Context, caller *model.Owner, organisationID, query string) ([]model.SearchHit, error) {
	if !caller.InOrganisation(organisationID) {
		return nil, model.ErrForbidden
	}

	org, err := s.store.Owners().Get(ctx, model.KindOrganisation, organisationID)
	if errors.Is(err, model.ErrNotFound) {
		return nil, model.ErrForbidden
	}
	if err != nil {
		return nil, err
	}
	if !org.Membership.IsActive {
		return nil, model.ErrMembershipInactive
	}

	// tier 0 still searches, restricted to extracted page text
	return s.index.Search(ctx, organisationID, query, org.Membership.Tier == 0, s.limit)
}

// searchAll fans the query out across every organisation the caller belongs
// to, each gated by that organisation's own membership state. A failing
// branch contributes zero hits without failing the request.
func (s *SearchService) searchAll(ctx context.Context, caller *model.Owner, query string) ([]model.SearchHit, []string) {
	orgIDs := dedupe(caller.Organisations)

	var mu sync.Mutex
	var hits []model.SearchHit

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.fanout)
	for _, orgID := range orgIDs {
		orgID := orgID
		g.Go(func() error {
			org, err := s.store.Owners().Get(gctx, model.KindOrganisation, orgID)
			if err != nil {
				s.log.Warn().Err(err).Str("organisationId", orgID).Msg("skipping unresolvable organisation in search fan-out")
				return nil
			}
			if !org.Membership.IsActive {
				return nil
			}
			res, err := s.index.Search(gctx, orgID, query, org.Membership.Tier == 0, s.limit)
			if err != nil {
				s.log.Error().Err(err).Str("organisationId", orgID).Msg("organisation search branch failed")
				return nil
			}
			mu.Lock()
			hits = append(hits, res...)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return hits, orgIDs
}

// filterHits keeps a hit only if the caller's collection memberships cover
// the hit's scope, or a notification grants visibility into that exact
// bookmark. This is the authorization boundary.
func (s *SearchService) filterHits(ctx context.Context, caller *model.Owner, searched []string, hits []model.SearchHit) []model.SearchHit {
	if len(hits) == 0 {
		return []model.SearchHit{}
	}

	memberScopes := make(map[string]struct{}, len(caller.Collections))
	memberCollections := make(map[string]struct{}, len(caller.Collections))
	for _, cm := range caller.Collections {
		if cm.IsOrganisation {
			memberScopes[cm.OwnerID+"/"+cm.UUID] = struct{}{}
		} else {
			// user-owned collections are not pinned to one organisation
			// scope; the collection uuid alone identifies them
			memberCollections[cm.UUID] = struct{}{}
		}
	}

	notified := make(map[string]struct{})
	for _, orgID := range searched {
		ns, err := s.store.Notifications().ListForUser(ctx, orgID, caller.UUID)
		if err != nil {
			s.log.Warn().Err(err).Str("organisationId", orgID).Msg("listing notifications failed; hits gated on membership only")
			continue
		}
		for _, n := range ns {
			notified[n.CollectionID+"/"+n.BookmarkID] = struct{}{}
		}
	}

	out := make([]model.SearchHit, 0, len(hits))
	for _, h := range hits {
		if _, ok := memberScopes[h.OrganisationID+"/"+h.CollectionID]; ok {
			out = append(out, h)
			continue
		}
		if _, ok := memberCollections[h.CollectionID]; ok {
			out = append(out, h)
			continue
		}
		if _, ok := notified[h.CollectionID+"/"+h.BookmarkID]; ok {
			out = append(out, h)
		}
	}
	return out
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
