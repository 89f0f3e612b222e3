package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/linkgrove/searchsync/internal/api/respond"
	"github.com/linkgrove/searchsync/internal/model"
	"github.com/linkgrove/searchsync/internal/services"
)

// Searcher is the query capability the handler needs.
type Searcher interface {
	Search(ctx context.Context, req services.SearchRequest) ([]model.SearchHit, error)
}

// SearchHandler handles POST /api/search.
type SearchHandler struct {
	search Searcher
	log    zerolog.Logger
}

func NewSearchHandler(search Searcher, log zerolog.Logger) *SearchHandler {
	return &SearchHandler{search: search, log: log}
}

func (h *SearchHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	var req services.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "invalid request body")
		return
	}
	if req.CallerID == "" {
		respond.WriteBadRequest(w, "callerId is required")
		return
	}

	hits, err := h.search.Search(r.Context(), req)
	if err != nil {
		h.writeSearchError(w, req, err)
		return
	}

	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"hits":  hits,
		"count": len(hits),
	})
}

func (h *SearchHandler) writeSearchError(w http.ResponseWriter, req services.SearchRequest, err error) {
	switch {
	case errors.Is(err, model.ErrValidation):
		respond.WriteBadRequest(w, err.Error())
	case errors.Is(err, model.ErrUnauthorized):
		respond.WriteUnauthorized(w, "unknown caller")
	case errors.Is(err, model.ErrMembershipInactive):
		respond.WritePaymentRequired(w, "organisation membership is inactive")
	case errors.Is(err, model.ErrForbidden):
		respond.WriteForbidden(w, "caller is not a member of the organisation")
	default:
		h.log.Error().Err(err).Str("callerId", req.CallerID).Msg("search failed")
		respond.WriteInternalError(w, "search unavailable")
	}
}
