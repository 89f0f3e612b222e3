package services

import (
	"context"
	"sync"
	"time"

	"github.com/linkgrove/searchsync/internal/model"
	"github.com/linkgrove/searchsync/internal/pagetext"
	"github.com/linkgrove/searchsync/internal/store"
)

// recorder collects operation names across fakes so tests can assert
// write ordering between the index and the projection store.
type recorder struct {
	mu  sync.Mutex
	ops []string
}

func (r *recorder) add(op string) {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.ops = append(r.ops, op)
	r.mu.Unlock()
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.ops...)
}

// fakeStore is an in-memory store.Store.
type fakeStore struct {
	owners        *fakeOwners
	bookmarks     *fakeBookmarks
	notifications *fakeNotifications
}

func newFakeStore(rec *recorder) *fakeStore {
	return &fakeStore{
		owners:        &fakeOwners{owners: map[string]*model.Owner{}},
		bookmarks:     &fakeBookmarks{rec: rec, refs: map[string]*model.BookmarkRef{}},
		notifications: &fakeNotifications{items: map[string]*model.Notification{}},
	}
}

func (s *fakeStore) Owners() store.Owners               { return s.owners }
func (s *fakeStore) Bookmarks() store.Bookmarks         { return s.bookmarks }
func (s *fakeStore) Notifications() store.Notifications { return s.notifications }

type fakeOwners struct {
	mu     sync.Mutex
	owners map[string]*model.Owner
	getErr error
}

func ownerKey(kind model.OwnerKind, id string) string { return string(kind) + "#" + id }

func (f *fakeOwners) put(o *model.Owner) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.owners[ownerKey(o.Kind, o.UUID)] = o
}

func (f *fakeOwners) Create(ctx context.Context, o *model.Owner) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := ownerKey(o.Kind, o.UUID)
	if _, ok := f.owners[key]; ok {
		return model.ErrConflict
	}
	o.Created = time.Now().UTC()
	o.Updated = o.Created
	f.owners[key] = o
	return nil
}

func (f *fakeOwners) Get(ctx context.Context, kind model.OwnerKind, id string) (*model.Owner, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	o, ok := f.owners[ownerKey(kind, id)]
	if !ok {
		return nil, model.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (f *fakeOwners) Delete(ctx context.Context, kind model.OwnerKind, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.owners, ownerKey(kind, id))
	return nil
}

func (f *fakeOwners) ChangeMembership(ctx context.Context, kind model.OwnerKind, id string, m model.Membership) (*model.Owner, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.owners[ownerKey(kind, id)]
	if !ok {
		return nil, model.ErrNotFound
	}
	o.Membership = m
	cp := *o
	return &cp, nil
}

func (f *fakeOwners) AppendOrganisation(ctx context.Context, userID, organisationID string) (*model.Owner, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.owners[ownerKey(model.KindUser, userID)]
	if !ok {
		return nil, model.ErrNotFound
	}
	o.Organisations = append(o.Organisations, organisationID)
	cp := *o
	return &cp, nil
}

func (f *fakeOwners) RemoveOrganisation(ctx context.Context, userID, organisationID string) (*model.Owner, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.owners[ownerKey(model.KindUser, userID)]
	if !ok {
		return nil, model.ErrNotFound
	}
	kept := o.Organisations[:0]
	for _, id := range o.Organisations {
		if id != organisationID {
			kept = append(kept, id)
		}
	}
	o.Organisations = kept
	cp := *o
	return &cp, nil
}

func (f *fakeOwners) AppendCollection(ctx context.Context, userID string, cm model.CollectionMembership) (*model.Owner, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.owners[ownerKey(model.KindUser, userID)]
	if !ok {
		return nil, model.ErrNotFound
	}
	o.Collections = append(o.Collections, cm)
	cp := *o
	return &cp, nil
}

func (f *fakeOwners) RemoveCollection(ctx context.Context, userID, collectionID string) (*model.Owner, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.owners[ownerKey(model.KindUser, userID)]
	if !ok {
		return nil, model.ErrNotFound
	}
	kept := o.Collections[:0]
	for _, cm := range o.Collections {
		if cm.UUID != collectionID {
			kept = append(kept, cm)
		}
	}
	o.Collections = kept
	cp := *o
	return &cp, nil
}

func (f *fakeOwners) ListByKind(ctx context.Context, kind model.OwnerKind) ([]*model.Owner, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Owner
	for _, o := range f.owners {
		if o.Kind == kind {
			cp := *o
			out = append(out, &cp)
		}
	}
	return out, nil
}

type fakeBookmarks struct {
	rec  *recorder
	mu   sync.Mutex
	refs map[string]*model.BookmarkRef
}

func refKey(org, coll, id string) string { return org + "/" + coll + "/" + id }

func (f *fakeBookmarks) Create(ctx context.Context, objectID string, b *model.Bookmark) error {
	f.rec.add("store.create")
	f.mu.Lock()
	defer f.mu.Unlock()
	key := refKey(b.OrganisationID, b.CollectionID, b.UUID)
	if _, ok := f.refs[key]; ok {
		return model.ErrConflict
	}
	f.refs[key] = &model.BookmarkRef{
		ObjectID:       objectID,
		OrganisationID: b.OrganisationID,
		CollectionID:   b.CollectionID,
		UUID:           b.UUID,
		URL:            b.URL,
	}
	return nil
}

func (f *fakeBookmarks) Resolve(ctx context.Context, b *model.Bookmark, previous *model.Scope) (*model.BookmarkRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	scope := b.CurrentScope()
	if previous != nil {
		scope = *previous
	}
	ref, ok := f.refs[refKey(scope.OrganisationID, scope.CollectionID, b.UUID)]
	if !ok {
		return nil, model.ErrNotFound
	}
	cp := *ref
	return &cp, nil
}

func (f *fakeBookmarks) Move(ctx context.Context, objectID string, b *model.Bookmark, previous model.Scope) error {
	f.rec.add("store.move")
	f.mu.Lock()
	defer f.mu.Unlock()
	newKey := refKey(b.OrganisationID, b.CollectionID, b.UUID)
	if _, ok := f.refs[newKey]; !ok {
		f.refs[newKey] = &model.BookmarkRef{
			ObjectID:       objectID,
			OrganisationID: b.OrganisationID,
			CollectionID:   b.CollectionID,
			UUID:           b.UUID,
			URL:            b.URL,
		}
	}
	delete(f.refs, refKey(previous.OrganisationID, previous.CollectionID, b.UUID))
	return nil
}

func (f *fakeBookmarks) Delete(ctx context.Context, b *model.Bookmark, previous *model.Scope) error {
	f.rec.add("store.delete")
	f.mu.Lock()
	defer f.mu.Unlock()
	scope := b.CurrentScope()
	if previous != nil {
		scope = *previous
	}
	delete(f.refs, refKey(scope.OrganisationID, scope.CollectionID, b.UUID))
	return nil
}

func (f *fakeBookmarks) ListByOrganisation(ctx context.Context, organisationID string) ([]*model.BookmarkRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.BookmarkRef
	for _, ref := range f.refs {
		if ref.OrganisationID == organisationID {
			cp := *ref
			out = append(out, &cp)
		}
	}
	return out, nil
}

type fakeNotifications struct {
	mu    sync.Mutex
	items map[string]*model.Notification
}

func notifKey(org, user, uuid string) string { return org + "/" + user + "/" + uuid }

func (f *fakeNotifications) Create(ctx context.Context, n *model.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := notifKey(n.OrganisationID, n.UserID, n.UUID)
	if _, ok := f.items[key]; ok {
		return model.ErrConflict
	}
	f.items[key] = n
	return nil
}

func (f *fakeNotifications) Delete(ctx context.Context, organisationID, userID, uuid string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.items, notifKey(organisationID, userID, uuid))
	return nil
}

func (f *fakeNotifications) ListForUser(ctx context.Context, organisationID, userID string) ([]*model.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Notification
	for _, n := range f.items {
		if n.OrganisationID == organisationID && n.UserID == userID {
			cp := *n
			out = append(out, &cp)
		}
	}
	return out, nil
}

// fakeIndex is an in-memory searchindex.Index with deterministic object ids
// and per-organisation canned search results.
type fakeIndex struct {
	rec *recorder
	mu  sync.Mutex

	scopes    map[string]bool
	docs      map[string]map[string]*model.Bookmark
	fullPages map[string]string

	hits      map[string][]model.SearchHit
	searchErr map[string]error
	clearErr  map[string]error

	searches []fakeSearchCall
}

type fakeSearchCall struct {
	organisationID string
	query          string
	restricted     bool
}

func newFakeIndex(rec *recorder) *fakeIndex {
	return &fakeIndex{
		rec:       rec,
		scopes:    map[string]bool{},
		docs:      map[string]map[string]*model.Bookmark{},
		fullPages: map[string]string{},
		hits:      map[string][]model.SearchHit{},
		searchErr: map[string]error{},
		clearErr:  map[string]error{},
	}
}

func (f *fakeIndex) EnsureScope(ctx context.Context, organisationID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scopes[organisationID] = true
	return nil
}

func (f *fakeIndex) DeleteScope(ctx context.Context, organisationID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.scopes, organisationID)
	delete(f.docs, organisationID)
	return nil
}

func (f *fakeIndex) CreateBookmark(ctx context.Context, organisationID string, b *model.Bookmark, fullPage string) (string, error) {
	f.rec.add("index.create")
	f.mu.Lock()
	defer f.mu.Unlock()
	objectID := "obj-" + b.UUID
	if f.docs[organisationID] == nil {
		f.docs[organisationID] = map[string]*model.Bookmark{}
	}
	f.docs[organisationID][objectID] = b
	f.fullPages[organisationID+"/"+objectID] = fullPage
	return objectID, nil
}

func (f *fakeIndex) UpdateBookmark(ctx context.Context, organisationID, objectID string, b *model.Bookmark) error {
	f.rec.add("index.update")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.docs[organisationID] == nil {
		f.docs[organisationID] = map[string]*model.Bookmark{}
	}
	f.docs[organisationID][objectID] = b
	return nil
}

func (f *fakeIndex) DeleteBookmark(ctx context.Context, organisationID, objectID string) error {
	f.rec.add("index.delete")
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.docs[organisationID], objectID)
	return nil
}

func (f *fakeIndex) SetFullPage(ctx context.Context, organisationID, objectID, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fullPages[organisationID+"/"+objectID] = body
	return nil
}

func (f *fakeIndex) ClearFullPage(ctx context.Context, organisationID, objectID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.clearErr[objectID]; err != nil {
		return err
	}
	f.fullPages[organisationID+"/"+objectID] = ""
	return nil
}

func (f *fakeIndex) Search(ctx context.Context, organisationID, query string, restricted bool, limit int) ([]model.SearchHit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searches = append(f.searches, fakeSearchCall{organisationID: organisationID, query: query, restricted: restricted})
	if err := f.searchErr[organisationID]; err != nil {
		return nil, err
	}
	return f.hits[organisationID], nil
}

func (f *fakeIndex) searchCalls() []fakeSearchCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]fakeSearchCall(nil), f.searches...)
}

func (f *fakeIndex) fullPage(organisationID, objectID string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fullPages[organisationID+"/"+objectID]
}

// fakeFetcher returns a fixed body and counts calls.
type fakeFetcher struct {
	mu    sync.Mutex
	body  string
	calls []string
}

func (f *fakeFetcher) FetchPageText(ctx context.Context, url string) pagetext.Page {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, url)
	return pagetext.Page{Body: f.body}
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}
