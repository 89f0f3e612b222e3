package handlers

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/linkgrove/searchsync/internal/events"
	"github.com/linkgrove/searchsync/internal/services"
)

// OrganisationHandler processes organisation lifecycle and membership
// descriptor events.
type OrganisationHandler struct {
	registry *services.RegistryService
	log      zerolog.Logger
}

func NewOrganisationHandler(registry *services.RegistryService, log zerolog.Logger) *OrganisationHandler {
	return &OrganisationHandler{registry: registry, log: log}
}

func (h *OrganisationHandler) Created(ctx context.Context, data json.RawMessage) bool {
	var p events.OrganisationPayload
	if err := json.Unmarshal(data, &p); err != nil {
		h.log.Error().Err(err).Msg("malformed organisation payload")
		return false
	}
	if err := h.registry.CreateOrganisation(ctx, p.Organisation.UUID, p.Membership); err != nil {
		h.log.Error().Err(err).Str("organisationId", p.Organisation.UUID).Msg("creating organisation failed")
		return false
	}
	return true
}

func (h *OrganisationHandler) Deleted(ctx context.Context, data json.RawMessage) bool {
	var p events.OrganisationPayload
	if err := json.Unmarshal(data, &p); err != nil {
		h.log.Error().Err(err).Msg("malformed organisation payload")
		return false
	}
	if err := h.registry.DeleteOrganisation(ctx, p.Organisation.UUID); err != nil {
		h.log.Error().Err(err).Str("organisationId", p.Organisation.UUID).Msg("deleting organisation failed")
		return false
	}
	return true
}

func (h *OrganisationHandler) MembershipChanged(ctx context.Context, data json.RawMessage) bool {
	var p events.MembershipChangedPayload
	if err := json.Unmarshal(data, &p); err != nil {
		h.log.Error().Err(err).Msg("malformed membership change payload")
		return false
	}
	if err := h.registry.ChangeOrganisationMembership(ctx, p.Organisation.UUID, p.Membership, p.OldMembership); err != nil {
		h.log.Error().Err(err).Str("organisationId", p.Organisation.UUID).Msg("changing organisation membership failed")
		return false
	}
	return true
}
