package store

import (
	"context"

	"github.com/linkgrove/searchsync/internal/model"
)

// Store exposes the projection-store operations required by handlers and
// services. Implementations live under internal/store/<driver>/.
//
// All records share one item table keyed by (partition key, sort key); the
// key schemes are produced by the helpers in keys.go. Writes that must be
// create-once use conditional inserts and report model.ErrConflict; reads of
// absent records report model.ErrNotFound.
type Store interface {
	Owners() Owners
	Bookmarks() Bookmarks
	Notifications() Notifications
}

// Owners manages user and organisation records. Every operation takes the
// owner kind explicitly; kind is encoded in the storage key and never changes.
type Owners interface {
	// Create conditionally creates the owner; model.ErrConflict when the id
	// already exists for that kind. Stamps created/updated timestamps.
	Create(ctx context.Context, o *model.Owner) error
	Get(ctx context.Context, kind model.OwnerKind, id string) (*model.Owner, error)
	Delete(ctx context.Context, kind model.OwnerKind, id string) error

	// ChangeMembership replaces the membership sub-field and returns the new
	// owner state.
	ChangeMembership(ctx context.Context, kind model.OwnerKind, id string, m model.Membership) (*model.Owner, error)

	AppendOrganisation(ctx context.Context, userID, organisationID string) (*model.Owner, error)
	// RemoveOrganisation removes by organisation id; a missing entry is
	// success, because membership state may already have been updated by a
	// reordered event.
	RemoveOrganisation(ctx context.Context, userID, organisationID string) (*model.Owner, error)

	AppendCollection(ctx context.Context, userID string, cm model.CollectionMembership) (*model.Owner, error)
	// RemoveCollection removes by collection id; a missing entry is success.
	RemoveCollection(ctx context.Context, userID, collectionID string) (*model.Owner, error)

	// ListByKind scans all owners of one kind via the secondary type index.
	ListByKind(ctx context.Context, kind model.OwnerKind) ([]*model.Owner, error)
}

// Bookmarks manages the projection records addressing search-index objects.
type Bookmarks interface {
	// Create conditionally creates the record for the bookmark's current
	// scope, carrying the search object id; model.ErrConflict on replay.
	Create(ctx context.Context, objectID string, b *model.Bookmark) error

	// Resolve looks the record up by the bookmark's current scope, or by
	// previous when the caller holds a pre-edit scope snapshot.
	// model.ErrNotFound when no record exists.
	Resolve(ctx context.Context, b *model.Bookmark, previous *model.Scope) (*model.BookmarkRef, error)

	// Move creates the record under the bookmark's new scope key (carrying
	// objectID forward) and deletes the record under previous. Only valid
	// when previous differs from the bookmark's current scope. A replayed
	// move tolerates the already-moved state.
	Move(ctx context.Context, objectID string, b *model.Bookmark, previous model.Scope) error

	// Delete removes the record at previous when given, otherwise at the
	// bookmark's current scope. Missing records are success.
	Delete(ctx context.Context, b *model.Bookmark, previous *model.Scope) error

	// ListByOrganisation pages through every bookmark record under one
	// organisation (sort-key prefix scan).
	ListByOrganisation(ctx context.Context, organisationID string) ([]*model.BookmarkRef, error)
}

// Notifications manages the per-user visibility side-channel.
type Notifications interface {
	// Create is conditional; model.ErrConflict on duplicate uuid.
	Create(ctx context.Context, n *model.Notification) error
	// Delete is unconditional; a missing key is success.
	Delete(ctx context.Context, organisationID, userID, uuid string) error
	ListForUser(ctx context.Context, organisationID, userID string) ([]*model.Notification, error)
}
