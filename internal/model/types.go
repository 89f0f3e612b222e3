package model

import "time"

// OwnerKind discriminates the two owner variants. It is fixed at creation
// and encoded in the projection store key; it never changes.
type OwnerKind string

const (
	KindUser         OwnerKind = "user"
	KindOrganisation OwnerKind = "organisation"
)

// Membership is the billing descriptor attached to every owner.
// Tier 0 permits restricted (page-text-only) search; tier >= 1 permits
// full-text search including extracted page content.
type Membership struct {
	Tier     int  `json:"tier"`
	IsActive bool `json:"isActive"`
}

// CollectionMembership identifies one collection a user can see, together
// with the scope that owns it.
type CollectionMembership struct {
	UUID           string `json:"uuid"`
	OwnerID        string `json:"ownerId"`
	IsOrganisation bool   `json:"isOrganisation"`
}

// Owner is a user or an organisation. Organisations never carry the
// membership lists; those fields are populated for users only.
type Owner struct {
	UUID          string                 `json:"uuid"`
	Kind          OwnerKind              `json:"-"`
	Membership    Membership             `json:"membership"`
	Organisations []string               `json:"organisations,omitempty"`
	Collections   []CollectionMembership `json:"collections,omitempty"`
	Created       time.Time              `json:"created"`
	Updated       time.Time              `json:"updated"`
}

// InOrganisation reports whether the owner (a user) belongs to the
// given organisation.
func (o *Owner) InOrganisation(organisationID string) bool {
	for _, id := range o.Organisations {
		if id == organisationID {
			return true
		}
	}
	return false
}

// Scope is the (organisation, collection) pair identifying where a bookmark
// logically lives for indexing and authorization purposes.
type Scope struct {
	OrganisationID string `json:"organisationId"`
	CollectionID   string `json:"collectionId"`
}

// Bookmark is the upstream representation of a bookmark as carried by
// events. CollectionID holds the collection uuid regardless of whether the
// upstream payload nested it under "collection" or sent it flat.
type Bookmark struct {
	UUID           string   `json:"uuid"`
	UserID         string   `json:"userId"`
	OrganisationID string   `json:"organisationId"`
	CollectionID   string   `json:"collectionId"`
	URL            string   `json:"url"`
	Title          string   `json:"title,omitempty"`
	Description    string   `json:"description,omitempty"`
	Notes          string   `json:"notes,omitempty"`
	Tags           []string `json:"tags,omitempty"`
}

// CurrentScope returns the bookmark's scope as of this event.
func (b *Bookmark) CurrentScope() Scope {
	return Scope{OrganisationID: b.OrganisationID, CollectionID: b.CollectionID}
}

// BookmarkRef is the projection record mapping a bookmark's logical identity
// to its search-index object. It is the only source of truth for "which
// search object represents this bookmark".
type BookmarkRef struct {
	ObjectID       string `json:"objectId"`
	OrganisationID string `json:"organisationId"`
	CollectionID   string `json:"collectionId"`
	UUID           string `json:"uuid"`
	URL            string `json:"url"`
}

// Notification grants one user visibility into one bookmark independent of
// collection membership.
type Notification struct {
	UUID           string `json:"uuid"`
	UserID         string `json:"userId"`
	OrganisationID string `json:"organisationId"`
	CollectionID   string `json:"collectionId"`
	BookmarkID     string `json:"bookmarkId"`
	NotifierID     string `json:"notifierId,omitempty"`
	Seen           bool   `json:"seen"`
}

// SearchHit is one search result with internal-only fields (extracted page
// text, highlight metadata) already stripped.
type SearchHit struct {
	ObjectID       string   `json:"objectId"`
	BookmarkID     string   `json:"bookmarkId"`
	OrganisationID string   `json:"organisationId"`
	CollectionID   string   `json:"collectionId"`
	URL            string   `json:"url"`
	Title          string   `json:"title,omitempty"`
	Description    string   `json:"description,omitempty"`
	Notes          string   `json:"notes,omitempty"`
	Tags           []string `json:"tags,omitempty"`
	Score          float64  `json:"score"`
}
