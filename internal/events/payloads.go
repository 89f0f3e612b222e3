package events

import (
	"encoding/json"

	"github.com/linkgrove/searchsync/internal/model"
)

// Payload shapes for each event family. Ref carries the one field every
// nested entity reference has in common.
type Ref struct {
	UUID string `json:"uuid"`
}

// UserPayload accompanies USER_CREATED / USER_DELETED.
type UserPayload struct {
	User       Ref              `json:"user"`
	Membership model.Membership `json:"membership"`
}

// OrganisationPayload accompanies ORGANISATION_CREATED / ORGANISATION_DELETED.
type OrganisationPayload struct {
	Organisation Ref              `json:"organisation"`
	Membership   model.Membership `json:"membership"`
}

// MembershipChangedPayload accompanies ORGANISATION_MEMBERSHIP_CHANGED. The
// old membership travels with the event so tier transitions can be detected
// without a read.
type MembershipChangedPayload struct {
	Organisation  Ref              `json:"organisation"`
	Membership    model.Membership `json:"membership"`
	OldMembership model.Membership `json:"oldMembership"`
}

// OrganisationMembershipPayload accompanies the user/organisation join and
// leave events.
type OrganisationMembershipPayload struct {
	User         Ref `json:"user"`
	Organisation Ref `json:"organisation"`
}

// CollectionRef identifies a collection and the scope that owns it. Users
// holds the member list on COLLECTION_DELETED.
type CollectionRef struct {
	UUID           string   `json:"uuid"`
	OrganisationID string   `json:"organisationId,omitempty"`
	UserID         string   `json:"userId,omitempty"`
	Users          []string `json:"users,omitempty"`
}

// CollectionMembershipPayload accompanies the collection join/leave events
// and COLLECTION_CREATED / COLLECTION_DELETED. User may be absent on
// COLLECTION_CREATED; the collection's own userId identifies the member then.
type CollectionMembershipPayload struct {
	User       *Ref          `json:"user,omitempty"`
	Collection CollectionRef `json:"collection"`
}

// MemberUserID resolves which user the membership change applies to.
func (p *CollectionMembershipPayload) MemberUserID() string {
	if p.User != nil && p.User.UUID != "" {
		return p.User.UUID
	}
	return p.Collection.UserID
}

// OwnerScope resolves the collection's owning scope: the organisation when
// set, otherwise the creating user.
func (p *CollectionMembershipPayload) OwnerScope() (ownerID string, isOrganisation bool) {
	if p.Collection.OrganisationID != "" {
		return p.Collection.OrganisationID, true
	}
	return p.Collection.UserID, false
}

// bookmarkWire tolerates both upstream shapes for the collection reference:
// nested {"collection":{"uuid":...}} on create, flat "collectionId" on
// delete/edit.
type bookmarkWire struct {
	model.Bookmark
	Collection *Ref `json:"collection,omitempty"`
}

// BookmarkPayload accompanies the bookmark lifecycle events. Previous is a
// snapshot of the scope the bookmark had before this edit, present only when
// the scope changed.
type BookmarkPayload struct {
	Bookmark model.Bookmark
	Previous *model.Scope
}

// UnmarshalJSON normalizes the two collection-reference shapes into
// Bookmark.CollectionID.
func (p *BookmarkPayload) UnmarshalJSON(data []byte) error {
	var wire struct {
		Bookmark bookmarkWire `json:"bookmark"`
		Previous *model.Scope `json:"previous,omitempty"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	p.Bookmark = wire.Bookmark.Bookmark
	if p.Bookmark.CollectionID == "" && wire.Bookmark.Collection != nil {
		p.Bookmark.CollectionID = wire.Bookmark.Collection.UUID
	}
	p.Previous = wire.Previous
	return nil
}

// NotificationPayload accompanies the bookmark-notification events.
type NotificationPayload struct {
	Notification model.Notification `json:"notification"`
}
