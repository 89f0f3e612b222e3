package searchindex

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	weaviate "github.com/weaviate/weaviate-go-client/v5/weaviate"
	gql "github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/linkgrove/searchsync/internal/model"
)

const bookmarkClass = "Bookmark"

// Searchable attributes, by tier. Tier 0 searches only the extracted page
// text; tier >= 1 searches everything.
var (
	fullProperties       = []string{"notes", "title", "description", "tags", "fullPage"}
	restrictedProperties = []string{"fullPage"}
)

// objectNamespace seeds deterministic object ids so that replaying a create
// event upserts the same document instead of minting a duplicate.
var objectNamespace = uuid.MustParse("8a4b9c62-1f53-4f9e-b6a7-05c6d04f7d11")

// weavIndex implements Index using the Weaviate Go client. One tenant per
// organisation stands in for the per-organisation index of the search
// provider.
type weavIndex struct {
	client *weaviate.Client
}

// NewWeaviateIndex constructs an Index backed by Weaviate at baseURL.
// baseURL should be host:port without scheme, e.g. "localhost:8081".
func NewWeaviateIndex(baseURL string) (Index, error) {
	cfg := weaviate.Config{Scheme: "http", Host: baseURL}
	cl, err := weaviate.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return &weavIndex{client: cl}, nil
}

// tenantName maps an organisation id onto a tenant identifier. Weaviate
// tenant names cannot contain '#', so the external "organisation#{id}" scope
// name becomes "organisation-{id}" here.
func tenantName(organisationID string) string {
	return "organisation-" + organisationID
}

func (w *weavIndex) EnsureScope(ctx context.Context, organisationID string) error {
	t := models.Tenant{Name: tenantName(organisationID)}
	err := w.client.Schema().TenantsCreator().
		WithClassName(bookmarkClass).
		WithTenants(t).
		Do(ctx)
	if err != nil {
		// creation is idempotent upstream; an exists error is fine
		exists, eerr := w.client.Schema().TenantsExists().
			WithClassName(bookmarkClass).
			WithTenant(t.Name).
			Do(ctx)
		if eerr == nil && exists {
			return nil
		}
		return err
	}
	return nil
}

func (w *weavIndex) DeleteScope(ctx context.Context, organisationID string) error {
	return w.client.Schema().TenantsDeleter().
		WithClassName(bookmarkClass).
		WithTenants(tenantName(organisationID)).
		Do(ctx)
}

// objectID derives the document id for a bookmark. Scope is deliberately not
// part of the derivation: a moved bookmark keeps its object id.
func objectID(b *model.Bookmark) string {
	return uuid.NewSHA1(objectNamespace, []byte(b.UUID)).String()
}

func bookmarkProperties(b *model.Bookmark) map[string]interface{} {
	tags := b.Tags
	if tags == nil {
		tags = []string{}
	}
	return map[string]interface{}{
		"uuid":           b.UUID,
		"organisationId": b.OrganisationID,
		"collectionId":   b.CollectionID,
		"url":            b.URL,
		"title":          b.Title,
		"description":    b.Description,
		"notes":          b.Notes,
		"tags":           tags,
	}
}

func (w *weavIndex) CreateBookmark(ctx context.Context, organisationID string, b *model.Bookmark, fullPage string) (string, error) {
	if err := w.EnsureScope(ctx, organisationID); err != nil {
		return "", err
	}

	id := objectID(b)
	props := bookmarkProperties(b)
	props["fullPage"] = fullPage
	props["created"] = time.Now().UTC().Format(time.RFC3339)

	_, err := w.client.Data().Creator().
		WithClassName(bookmarkClass).
		WithTenant(tenantName(organisationID)).
		WithID(id).
		WithProperties(props).
		Do(ctx)
	if err != nil {
		// a replayed create collides with the existing document; merge the
		// current fields into it instead
		if merr := w.merge(ctx, organisationID, id, props); merr != nil {
			return "", err
		}
	}
	return id, nil
}

func (w *weavIndex) UpdateBookmark(ctx context.Context, organisationID, objID string, b *model.Bookmark) error {
	props := bookmarkProperties(b)
	if err := w.merge(ctx, organisationID, objID, props); err == nil {
		return nil
	}

	// The document does not exist in this scope yet: the bookmark moved in
	// from another organisation. Create it here under the same object id.
	if err := w.EnsureScope(ctx, organisationID); err != nil {
		return err
	}
	_, err := w.client.Data().Creator().
		WithClassName(bookmarkClass).
		WithTenant(tenantName(organisationID)).
		WithID(objID).
		WithProperties(props).
		Do(ctx)
	return err
}

func (w *weavIndex) merge(ctx context.Context, organisationID, objID string, props map[string]interface{}) error {
	return w.client.Data().Updater().
		WithClassName(bookmarkClass).
		WithTenant(tenantName(organisationID)).
		WithID(objID).
		WithProperties(props).
		WithMerge().
		Do(ctx)
}

func (w *weavIndex) DeleteBookmark(ctx context.Context, organisationID, objID string) error {
	if organisationID == "" || objID == "" {
		return nil
	}
	return w.client.Data().Deleter().
		WithClassName(bookmarkClass).
		WithTenant(tenantName(organisationID)).
		WithID(objID).
		Do(ctx)
}

func (w *weavIndex) SetFullPage(ctx context.Context, organisationID, objID, body string) error {
	return w.merge(ctx, organisationID, objID, map[string]interface{}{"fullPage": body})
}

func (w *weavIndex) ClearFullPage(ctx context.Context, organisationID, objID string) error {
	return w.SetFullPage(ctx, organisationID, objID, "")
}

func (w *weavIndex) Search(ctx context.Context, organisationID, query string, restricted bool, limit int) ([]model.SearchHit, error) {
	props := fullProperties
	if restricted {
		props = restrictedProperties
	}

	bm25 := (&gql.BM25ArgumentBuilder{}).
		WithQuery(query).
		WithProperties(props...)

	// fullPage and highlight metadata stay out of the field list; callers
	// never see internal-only attributes
	req := w.client.GraphQL().Get().
		WithClassName(bookmarkClass).
		WithTenant(tenantName(organisationID)).
		WithBM25(bm25).
		WithLimit(limit).
		WithFields(
			gql.Field{Name: "uuid"},
			gql.Field{Name: "organisationId"},
			gql.Field{Name: "collectionId"},
			gql.Field{Name: "url"},
			gql.Field{Name: "title"},
			gql.Field{Name: "description"},
			gql.Field{Name: "notes"},
			gql.Field{Name: "tags"},
			gql.Field{Name: "_additional", Fields: []gql.Field{{Name: "id"}, {Name: "score"}}},
		)

	resp, err := req.Do(ctx)
	if err != nil {
		log.Error().Err(err).Str("organisationId", organisationID).Msg("weaviate query failed")
		return nil, err
	}
	if len(resp.Errors) > 0 {
		return nil, fmt.Errorf("weaviate graphql: %s", formatGraphQLErrors(resp.Errors))
	}

	getData, ok := resp.Data["Get"].(map[string]interface{})
	if !ok {
		return nil, nil
	}
	val := getData[bookmarkClass]
	if val == nil {
		return []model.SearchHit{}, nil
	}
	raw, ok := val.([]interface{})
	if !ok {
		return nil, nil
	}

	out := make([]model.SearchHit, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		hit := model.SearchHit{
			BookmarkID:     safeString(m["uuid"]),
			OrganisationID: safeString(m["organisationId"]),
			CollectionID:   safeString(m["collectionId"]),
			URL:            safeString(m["url"]),
			Title:          safeString(m["title"]),
			Description:    safeString(m["description"]),
			Notes:          safeString(m["notes"]),
			Tags:           stringSlice(m["tags"]),
		}
		if add, ok := m["_additional"].(map[string]interface{}); ok {
			hit.ObjectID = safeString(add["id"])
			switch v := add["score"].(type) {
			case float64:
				hit.Score = v
			case string:
				if f, err := strconv.ParseFloat(v, 64); err == nil {
					hit.Score = f
				}
			}
		}
		out = append(out, hit)
	}
	return out, nil
}

// HealthPing reports whether the Weaviate endpoint is live.
func (w *weavIndex) HealthPing(ctx context.Context) error {
	live, err := w.client.Misc().LiveChecker().Do(ctx)
	if err != nil {
		return err
	}
	if !live {
		return fmt.Errorf("weaviate not live")
	}
	return nil
}

func safeString(v interface{}) string {
	s, _ := v.(string)
	return s
}

func stringSlice(v interface{}) []string {
	arr, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(arr))
	for _, it := range arr {
		if s, ok := it.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// formatGraphQLErrors returns a compact string for logging.
func formatGraphQLErrors(errs interface{}) string {
	if b, err := json.Marshal(errs); err == nil {
		return string(b)
	}
	return fmt.Sprintf("%v", errs)
}
