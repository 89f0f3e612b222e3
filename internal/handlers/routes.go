package handlers

import (
	"github.com/rs/zerolog"

	"github.com/linkgrove/searchsync/internal/dispatch"
	"github.com/linkgrove/searchsync/internal/events"
	"github.com/linkgrove/searchsync/internal/services"
)

// Routes builds the full routing table over the three services. The table
// is total for the closed event type set; aliased tags share handlers.
func Routes(registry *services.RegistryService, projection *services.ProjectionService, notifications *services.NotificationService, log zerolog.Logger) map[events.Type]dispatch.HandlerFunc {
	users := NewUserHandler(registry, log)
	orgs := NewOrganisationHandler(registry, log)
	bookmarks := NewBookmarkHandler(projection, log)
	notifs := NewNotificationHandler(notifications, log)

	return map[events.Type]dispatch.HandlerFunc{
		events.UserCreated: users.Created,
		events.UserDeleted: users.Deleted,

		events.UserOrganisationJoined: users.JoinedOrganisation,
		events.UserOrganisationLeft:   users.LeftOrganisation,
		events.UserCollectionJoined:   users.JoinedCollection,
		events.UserCollectionLeft:     users.LeftCollection,

		// creating a collection enrolls its creator as the first member
		events.CollectionCreated: users.JoinedCollection,
		events.CollectionDeleted: users.CollectionDeleted,

		events.OrganisationCreated:           orgs.Created,
		events.OrganisationDeleted:           orgs.Deleted,
		events.OrganisationMembershipChanged: orgs.MembershipChanged,

		events.BookmarkCreated:  bookmarks.Created,
		events.BookmarkRestored: bookmarks.Created,

		events.BookmarkUpdated:     bookmarks.Edited,
		events.BookmarkIncremented: bookmarks.Edited,

		events.BookmarkArchived: bookmarks.Deleted,
		events.BookmarkDeleted:  bookmarks.Deleted,

		events.BookmarkNotificationCreated: notifs.Created,
		events.BookmarkNotificationDeleted: notifs.Deleted,
	}
}
