// Package sqlstore implements store.Store over a single projection item
// table keyed by (partition_key, sort_key). Both SQL drivers (postgres,
// sqlite) share this implementation; the dialect only controls placeholder
// style and row locking.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/linkgrove/searchsync/internal/model"
	"github.com/linkgrove/searchsync/internal/store"
)

// Dialect selects driver-specific SQL details.
type Dialect int

const (
	DialectPostgres Dialect = iota
	DialectSQLite
)

// New constructs a store.Store over an open database handle.
func New(db *sql.DB, d Dialect) store.Store {
	return &sqlStore{db: db, d: d}
}

type sqlStore struct {
	db *sql.DB
	d  Dialect
}

func (s *sqlStore) Owners() store.Owners               { return &owners{s} }
func (s *sqlStore) Bookmarks() store.Bookmarks         { return &bookmarks{s} }
func (s *sqlStore) Notifications() store.Notifications { return &notifications{s} }

// HealthPing implements health.HealthPinger.
func (s *sqlStore) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// rebind converts ?-style placeholders to the dialect's native style.
func (s *sqlStore) rebind(q string) string {
	if s.d != DialectPostgres {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// forUpdate appends a row lock clause where the dialect supports one.
// SQLite serializes writers, so the plain read inside the transaction
// is already safe there.
func (s *sqlStore) forUpdate(q string) string {
	if s.d == DialectPostgres {
		return q + " FOR UPDATE"
	}
	return q
}

const (
	insertItemSQL = `
INSERT INTO projection (partition_key, sort_key, item_type, data, created, updated)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (partition_key, sort_key) DO NOTHING`

	getItemSQL    = `SELECT data FROM projection WHERE partition_key = ? AND sort_key = ?`
	deleteItemSQL = `DELETE FROM projection WHERE partition_key = ? AND sort_key = ?`
	updateItemSQL = `UPDATE projection SET data = ?, updated = ? WHERE partition_key = ? AND sort_key = ?`

	listByPrefixSQL = `
SELECT data FROM projection
WHERE partition_key = ? AND sort_key LIKE ? ESCAPE '\'
ORDER BY sort_key`

	listByTypeSQL = `SELECT data FROM projection WHERE item_type = ? ORDER BY partition_key`
)

// conditionalPut inserts an item and reports model.ErrConflict when the key
// already exists. This is the only mutual-exclusion primitive the store
// offers (single-key optimistic create).
func (s *sqlStore) conditionalPut(ctx context.Context, pk, sk, itemType string, data interface{}) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(ctx, s.rebind(insertItemSQL), pk, sk, itemType, string(raw), now, now)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return model.ErrConflict
	}
	return nil
}

func (s *sqlStore) getItem(ctx context.Context, pk, sk string, out interface{}) error {
	var raw string
	err := s.db.QueryRowContext(ctx, s.rebind(getItemSQL), pk, sk).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ErrNotFound
	}
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(raw), out)
}

func (s *sqlStore) deleteItem(ctx context.Context, pk, sk string) error {
	_, err := s.db.ExecContext(ctx, s.rebind(deleteItemSQL), pk, sk)
	return err
}

// escapeLike escapes LIKE metacharacters in a literal prefix.
func escapeLike(prefix string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(prefix)
}

// --- Owners ---

type owners struct{ s *sqlStore }

func (o *owners) Create(ctx context.Context, m *model.Owner) error {
	now := time.Now().UTC()
	m.Created = now
	m.Updated = now
	pk, sk := store.OwnerKey(m.Kind, m.UUID)
	return o.s.conditionalPut(ctx, pk, sk, string(m.Kind), m)
}

func (o *owners) Get(ctx context.Context, kind model.OwnerKind, id string) (*model.Owner, error) {
	pk, sk := store.OwnerKey(kind, id)
	var out model.Owner
	if err := o.s.getItem(ctx, pk, sk, &out); err != nil {
		return nil, err
	}
	out.Kind = kind
	return &out, nil
}

func (o *owners) Delete(ctx context.Context, kind model.OwnerKind, id string) error {
	pk, sk := store.OwnerKey(kind, id)
	return o.s.deleteItem(ctx, pk, sk)
}

func (o *owners) ChangeMembership(ctx context.Context, kind model.OwnerKind, id string, m model.Membership) (*model.Owner, error) {
	return o.mutate(ctx, kind, id, func(ow *model.Owner) error {
		ow.Membership = m
		return nil
	})
}

func (o *owners) AppendOrganisation(ctx context.Context, userID, organisationID string) (*model.Owner, error) {
	return o.mutate(ctx, model.KindUser, userID, func(ow *model.Owner) error {
		// list-append: upstream duplicate "joined" events produce duplicate
		// entries, matching the source-of-truth behavior
		ow.Organisations = append(ow.Organisations, organisationID)
		return nil
	})
}

func (o *owners) RemoveOrganisation(ctx context.Context, userID, organisationID string) (*model.Owner, error) {
	return o.mutate(ctx, model.KindUser, userID, func(ow *model.Owner) error {
		for i, id := range ow.Organisations {
			if id == organisationID {
				ow.Organisations = append(ow.Organisations[:i], ow.Organisations[i+1:]...)
				return nil
			}
		}
		// missing entry is success: a reordered event may have removed it first
		return nil
	})
}

func (o *owners) AppendCollection(ctx context.Context, userID string, cm model.CollectionMembership) (*model.Owner, error) {
	return o.mutate(ctx, model.KindUser, userID, func(ow *model.Owner) error {
		ow.Collections = append(ow.Collections, cm)
		return nil
	})
}

func (o *owners) RemoveCollection(ctx context.Context, userID, collectionID string) (*model.Owner, error) {
	return o.mutate(ctx, model.KindUser, userID, func(ow *model.Owner) error {
		for i, cm := range ow.Collections {
			if cm.UUID == collectionID {
				ow.Collections = append(ow.Collections[:i], ow.Collections[i+1:]...)
				return nil
			}
		}
		return nil
	})
}

func (o *owners) ListByKind(ctx context.Context, kind model.OwnerKind) ([]*model.Owner, error) {
	rows, err := o.s.db.QueryContext(ctx, o.s.rebind(listByTypeSQL), string(kind))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []*model.Owner
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var ow model.Owner
		if err := json.Unmarshal([]byte(raw), &ow); err != nil {
			return nil, err
		}
		ow.Kind = kind
		out = append(out, &ow)
	}
	return out, rows.Err()
}

// mutate runs a read-modify-write of one owner record inside a transaction.
// Removal is lookup-by-key inside the loaded record, not lookup-by-position,
// so concurrent append/remove pairs cannot delete the wrong entry.
func (o *owners) mutate(ctx context.Context, kind model.OwnerKind, id string, fn func(*model.Owner) error) (*model.Owner, error) {
	pk, sk := store.OwnerKey(kind, id)

	tx, err := o.s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var raw string
	err = tx.QueryRowContext(ctx, o.s.rebind(o.s.forUpdate(getItemSQL)), pk, sk).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var ow model.Owner
	if err := json.Unmarshal([]byte(raw), &ow); err != nil {
		return nil, err
	}
	ow.Kind = kind
	if err := fn(&ow); err != nil {
		return nil, err
	}
	ow.Updated = time.Now().UTC()

	data, err := json.Marshal(&ow)
	if err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, o.s.rebind(updateItemSQL), string(data), ow.Updated.Format(time.RFC3339Nano), pk, sk); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &ow, nil
}

// --- Bookmarks ---

type bookmarks struct{ s *sqlStore }

func refFromBookmark(objectID string, b *model.Bookmark) *model.BookmarkRef {
	return &model.BookmarkRef{
		ObjectID:       objectID,
		OrganisationID: b.OrganisationID,
		CollectionID:   b.CollectionID,
		UUID:           b.UUID,
		URL:            b.URL,
	}
}

func (bm *bookmarks) Create(ctx context.Context, objectID string, b *model.Bookmark) error {
	pk, sk := store.BookmarkKey(b.OrganisationID, b.CollectionID, b.UUID)
	return bm.s.conditionalPut(ctx, pk, sk, store.TypeBookmark, refFromBookmark(objectID, b))
}

func (bm *bookmarks) Resolve(ctx context.Context, b *model.Bookmark, previous *model.Scope) (*model.BookmarkRef, error) {
	scope := b.CurrentScope()
	if previous != nil {
		scope = *previous
	}
	pk, sk := store.BookmarkKey(scope.OrganisationID, scope.CollectionID, b.UUID)
	var ref model.BookmarkRef
	if err := bm.s.getItem(ctx, pk, sk, &ref); err != nil {
		return nil, err
	}
	return &ref, nil
}

func (bm *bookmarks) Move(ctx context.Context, objectID string, b *model.Bookmark, previous model.Scope) error {
	newPK, newSK := store.BookmarkKey(b.OrganisationID, b.CollectionID, b.UUID)
	oldPK, oldSK := store.BookmarkKey(previous.OrganisationID, previous.CollectionID, b.UUID)

	// Create-then-delete so a crash between the two steps leaves the
	// bookmark resolvable under at least one scope.
	err := bm.s.conditionalPut(ctx, newPK, newSK, store.TypeBookmark, refFromBookmark(objectID, b))
	if err != nil && !errors.Is(err, model.ErrConflict) {
		return err
	}
	// conflict means a replayed move already created the new record
	return bm.s.deleteItem(ctx, oldPK, oldSK)
}

func (bm *bookmarks) Delete(ctx context.Context, b *model.Bookmark, previous *model.Scope) error {
	scope := b.CurrentScope()
	if previous != nil {
		scope = *previous
	}
	pk, sk := store.BookmarkKey(scope.OrganisationID, scope.CollectionID, b.UUID)
	return bm.s.deleteItem(ctx, pk, sk)
}

func (bm *bookmarks) ListByOrganisation(ctx context.Context, organisationID string) ([]*model.BookmarkRef, error) {
	pk, _ := store.BookmarkKey(organisationID, "", "")
	pattern := escapeLike(store.BookmarkPrefix) + "%"
	rows, err := bm.s.db.QueryContext(ctx, bm.s.rebind(listByPrefixSQL), pk, pattern)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []*model.BookmarkRef
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var ref model.BookmarkRef
		if err := json.Unmarshal([]byte(raw), &ref); err != nil {
			return nil, err
		}
		out = append(out, &ref)
	}
	return out, rows.Err()
}

// --- Notifications ---

type notifications struct{ s *sqlStore }

func (n *notifications) Create(ctx context.Context, m *model.Notification) error {
	pk, sk := store.NotificationKey(m.OrganisationID, m.UserID, m.UUID)
	return n.s.conditionalPut(ctx, pk, sk, store.TypeNotification, m)
}

func (n *notifications) Delete(ctx context.Context, organisationID, userID, uuid string) error {
	pk, sk := store.NotificationKey(organisationID, userID, uuid)
	return n.s.deleteItem(ctx, pk, sk)
}

func (n *notifications) ListForUser(ctx context.Context, organisationID, userID string) ([]*model.Notification, error) {
	pk, _ := store.NotificationKey(organisationID, userID, "")
	pattern := escapeLike("notification#") + "%"
	rows, err := n.s.db.QueryContext(ctx, n.s.rebind(listByPrefixSQL), pk, pattern)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []*model.Notification
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var m model.Notification
		if err := json.Unmarshal([]byte(raw), &m); err != nil {
			return nil, err
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}
