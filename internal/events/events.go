// Package events defines the inbound event contract: the envelope shared by
// every upstream message and the closed, versioned set of event type tags.
package events

import "encoding/json"

// Type tags the entity-specific payload carried by a message. The set is
// closed; anything else is unroutable and belongs on the dead letter queue.
type Type string

const (
	UserCreated Type = "USER_CREATED"
	UserDeleted Type = "USER_DELETED"

	BookmarkCreated     Type = "BOOKMARK_CREATED"
	BookmarkArchived    Type = "BOOKMARK_ARCHIVED"
	BookmarkUpdated     Type = "BOOKMARK_UPDATED"
	BookmarkDeleted     Type = "BOOKMARK_DELETED"
	BookmarkRestored    Type = "BOOKMARK_RESTORED"
	BookmarkIncremented Type = "BOOKMARK_INCREMENTED"

	OrganisationCreated           Type = "ORGANISATION_CREATED"
	OrganisationMembershipChanged Type = "ORGANISATION_MEMBERSHIP_CHANGED"
	OrganisationDeleted           Type = "ORGANISATION_DELETED"

	UserOrganisationJoined Type = "USER_INTERNAL_ORGANISATION_JOINED"
	UserCollectionJoined   Type = "USER_INTERNAL_COLLECTION_JOINED"
	UserOrganisationLeft   Type = "USER_INTERNAL_ORGANISATION_LEFT"
	UserCollectionLeft     Type = "USER_INTERNAL_COLLECTION_LEFT"

	CollectionCreated Type = "COLLECTION_CREATED"
	CollectionDeleted Type = "COLLECTION_DELETED"

	BookmarkNotificationCreated Type = "BOOKMARK_NOTIFICATION_CREATED"
	BookmarkNotificationDeleted Type = "BOOKMARK_NOTIFICATION_DELETED"
)

// Message is the envelope delivered by the upstream message bus. Only Type
// is interpreted here; Data is forwarded verbatim to the routed handler.
type Message struct {
	UUID     string          `json:"uuid"`
	Sequence *int64          `json:"sequence,omitempty"`
	Data     json.RawMessage `json:"data"`
	Version  int             `json:"version"`
	Source   string          `json:"source"`
	Type     Type            `json:"type"`
}
