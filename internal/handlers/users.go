// Package handlers decodes event payloads and drives the services. Each
// handler reports success with a bool: a false triggers redelivery upstream,
// so handlers return false only for errors a retry can fix.
package handlers

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/linkgrove/searchsync/internal/events"
	"github.com/linkgrove/searchsync/internal/model"
	"github.com/linkgrove/searchsync/internal/services"
)

// UserHandler processes user lifecycle and membership-list events.
type UserHandler struct {
	registry *services.RegistryService
	log      zerolog.Logger
}

func NewUserHandler(registry *services.RegistryService, log zerolog.Logger) *UserHandler {
	return &UserHandler{registry: registry, log: log}
}

func (h *UserHandler) Created(ctx context.Context, data json.RawMessage) bool {
	var p events.UserPayload
	if err := json.Unmarshal(data, &p); err != nil {
		h.log.Error().Err(err).Msg("malformed user payload")
		return false
	}
	if err := h.registry.CreateUser(ctx, p.User.UUID, p.Membership); err != nil {
		h.log.Error().Err(err).Str("userId", p.User.UUID).Msg("creating user failed")
		return false
	}
	return true
}

func (h *UserHandler) Deleted(ctx context.Context, data json.RawMessage) bool {
	var p events.UserPayload
	if err := json.Unmarshal(data, &p); err != nil {
		h.log.Error().Err(err).Msg("malformed user payload")
		return false
	}
	if err := h.registry.DeleteUser(ctx, p.User.UUID); err != nil {
		h.log.Error().Err(err).Str("userId", p.User.UUID).Msg("deleting user failed")
		return false
	}
	return true
}

func (h *UserHandler) JoinedOrganisation(ctx context.Context, data json.RawMessage) bool {
	var p events.OrganisationMembershipPayload
	if err := json.Unmarshal(data, &p); err != nil {
		h.log.Error().Err(err).Msg("malformed organisation membership payload")
		return false
	}
	if err := h.registry.JoinOrganisation(ctx, p.User.UUID, p.Organisation.UUID); err != nil {
		h.log.Error().Err(err).Str("userId", p.User.UUID).Str("organisationId", p.Organisation.UUID).Msg("joining organisation failed")
		return false
	}
	return true
}

func (h *UserHandler) LeftOrganisation(ctx context.Context, data json.RawMessage) bool {
	var p events.OrganisationMembershipPayload
	if err := json.Unmarshal(data, &p); err != nil {
		h.log.Error().Err(err).Msg("malformed organisation membership payload")
		return false
	}
	if err := h.registry.LeaveOrganisation(ctx, p.User.UUID, p.Organisation.UUID); err != nil {
		h.log.Error().Err(err).Str("userId", p.User.UUID).Str("organisationId", p.Organisation.UUID).Msg("leaving organisation failed")
		return false
	}
	return true
}

// JoinedCollection also serves COLLECTION_CREATED: creating a collection
// makes its creator the first member.
func (h *UserHandler) JoinedCollection(ctx context.Context, data json.RawMessage) bool {
	var p events.CollectionMembershipPayload
	if err := json.Unmarshal(data, &p); err != nil {
		h.log.Error().Err(err).Msg("malformed collection membership payload")
		return false
	}
	ownerID, isOrganisation := p.OwnerScope()
	cm := model.CollectionMembership{
		UUID:           p.Collection.UUID,
		OwnerID:        ownerID,
		IsOrganisation: isOrganisation,
	}
	if err := h.registry.JoinCollection(ctx, p.MemberUserID(), cm); err != nil {
		h.log.Error().Err(err).Str("userId", p.MemberUserID()).Str("collectionId", p.Collection.UUID).Msg("joining collection failed")
		return false
	}
	return true
}

func (h *UserHandler) LeftCollection(ctx context.Context, data json.RawMessage) bool {
	var p events.CollectionMembershipPayload
	if err := json.Unmarshal(data, &p); err != nil {
		h.log.Error().Err(err).Msg("malformed collection membership payload")
		return false
	}
	if err := h.registry.LeaveCollection(ctx, p.MemberUserID(), p.Collection.UUID); err != nil {
		h.log.Error().Err(err).Str("userId", p.MemberUserID()).Str("collectionId", p.Collection.UUID).Msg("leaving collection failed")
		return false
	}
	return true
}

// CollectionDeleted strips the deleted collection from every listed member.
func (h *UserHandler) CollectionDeleted(ctx context.Context, data json.RawMessage) bool {
	var p events.CollectionMembershipPayload
	if err := json.Unmarshal(data, &p); err != nil {
		h.log.Error().Err(err).Msg("malformed collection payload")
		return false
	}
	if err := h.registry.RemoveCollectionFromUsers(ctx, p.Collection.UUID, p.Collection.Users); err != nil {
		h.log.Error().Err(err).Str("collectionId", p.Collection.UUID).Msg("removing collection from members failed")
		return false
	}
	return true
}
