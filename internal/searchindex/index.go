package searchindex

import (
	"context"

	"github.com/linkgrove/searchsync/internal/model"
)

// Index is the per-organisation search capability. Each organisation owns a
// dedicated scope (a tenant of the Bookmark class); object identity is the
// index's own object id, never the bookmark's upstream id; the projection
// store is the only place that mapping lives.
type Index interface {
	// EnsureScope creates the organisation's scope if absent. Idempotent.
	EnsureScope(ctx context.Context, organisationID string) error
	// DeleteScope drops the organisation's scope and everything in it.
	DeleteScope(ctx context.Context, organisationID string) error

	// CreateBookmark upserts the bookmark's document and returns its object
	// id. Replaying the same create yields the same object id and a single
	// document.
	CreateBookmark(ctx context.Context, organisationID string, b *model.Bookmark, fullPage string) (string, error)

	// UpdateBookmark partially updates the document's fields in the scope
	// chosen by the bookmark's current organisation, creating the document
	// there when it does not exist yet (cross-scope move).
	UpdateBookmark(ctx context.Context, organisationID, objectID string, b *model.Bookmark) error

	DeleteBookmark(ctx context.Context, organisationID, objectID string) error

	// SetFullPage replaces only the extracted page text of one document.
	SetFullPage(ctx context.Context, organisationID, objectID, body string) error
	// ClearFullPage blanks the extracted page text of one document without
	// deleting it.
	ClearFullPage(ctx context.Context, organisationID, objectID string) error

	// Search runs a ranked query in one organisation's scope. When
	// restricted is set, matching is limited to the extracted page text
	// attribute (tier-0 search); otherwise all searchable attributes apply.
	// Hits never include internal-only fields.
	Search(ctx context.Context, organisationID, query string, restricted bool, limit int) ([]model.SearchHit, error)
}

// HealthPinger is optionally implemented by an Index to expose specialized
// health check logic. Returns nil when healthy.
type HealthPinger interface {
	HealthPing(ctx context.Context) error
}
