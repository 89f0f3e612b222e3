package store

import (
	"fmt"

	"github.com/linkgrove/searchsync/internal/model"
)

// Item types stored in the projection table's type column (secondary index).
const (
	TypeUser         = "user"
	TypeOrganisation = "organisation"
	TypeBookmark     = "bookmark"
	TypeNotification = "bookmark-notification"
)

// OwnerKey returns the (partition, sort) key pair for an owner record.
// Both components carry the kind so a user and an organisation with the same
// uuid can never collide.
func OwnerKey(kind model.OwnerKind, id string) (pk, sk string) {
	return fmt.Sprintf("%s#%s", kind, id), string(kind)
}

// BookmarkKey returns the key pair for a bookmark projection record. The
// partition key groups an organisation's bookmarks; the sort key prefix
// "collection#" enables the list-all-under-organisation scan.
func BookmarkKey(organisationID, collectionID, bookmarkID string) (pk, sk string) {
	return fmt.Sprintf("organisation#%s", organisationID),
		fmt.Sprintf("collection#%s#bookmark#%s", collectionID, bookmarkID)
}

// BookmarkPrefix is the sort-key prefix shared by every bookmark record.
const BookmarkPrefix = "collection#"

// NotificationKey returns the key pair for a notification record.
func NotificationKey(organisationID, userID, uuid string) (pk, sk string) {
	return fmt.Sprintf("organisation#%s#user#%s", organisationID, userID),
		fmt.Sprintf("notification#%s", uuid)
}
