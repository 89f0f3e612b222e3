package services

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linkgrove/searchsync/internal/model"
)

func newRegistryFixture() (*RegistryService, *fakeStore, *fakeIndex, *fakeFetcher) {
	rec := &recorder{}
	st := newFakeStore(rec)
	idx := newFakeIndex(rec)
	fetch := &fakeFetcher{body: "fetched body"}
	svc := NewRegistryService(st, idx, fetch, 4, zerolog.Nop())
	return svc, st, idx, fetch
}

func seedOrgBookmarks(st *fakeStore, idx *fakeIndex, orgID string, n int) {
	ctx := context.Background()
	for i := 0; i < n; i++ {
		b := &model.Bookmark{
			UUID:           orgID + "-bm-" + string(rune('a'+i)),
			OrganisationID: orgID,
			CollectionID:   "coll-1",
			URL:            "https://example.com/" + string(rune('a'+i)),
		}
		objectID, _ := idx.CreateBookmark(ctx, orgID, b, "old text")
		_ = st.bookmarks.Create(ctx, objectID, b)
	}
}

func TestCreateOrganisationInitialisesScope(t *testing.T) {
	svc, st, idx, _ := newRegistryFixture()
	ctx := context.Background()

	require.NoError(t, svc.CreateOrganisation(ctx, "org-1", model.Membership{Tier: 1, IsActive: true}))

	assert.True(t, idx.scopes["org-1"])
	org, err := st.owners.Get(ctx, model.KindOrganisation, "org-1")
	require.NoError(t, err)
	assert.Equal(t, 1, org.Membership.Tier)

	// replayed create does not fail
	require.NoError(t, svc.CreateOrganisation(ctx, "org-1", model.Membership{Tier: 1, IsActive: true}))
}

func TestDeleteOrganisationDropsScope(t *testing.T) {
	svc, st, idx, _ := newRegistryFixture()
	ctx := context.Background()

	require.NoError(t, svc.CreateOrganisation(ctx, "org-1", model.Membership{Tier: 0, IsActive: true}))
	require.NoError(t, svc.DeleteOrganisation(ctx, "org-1"))

	assert.False(t, idx.scopes["org-1"])
	_, err := st.owners.Get(ctx, model.KindOrganisation, "org-1")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestTierDowngradeScrubsFullPages(t *testing.T) {
	svc, st, idx, _ := newRegistryFixture()
	ctx := context.Background()

	st.owners.put(&model.Owner{UUID: "org-1", Kind: model.KindOrganisation, Membership: model.Membership{Tier: 2, IsActive: true}})
	seedOrgBookmarks(st, idx, "org-1", 3)

	err := svc.ChangeOrganisationMembership(ctx, "org-1",
		model.Membership{Tier: 0, IsActive: true},
		model.Membership{Tier: 2, IsActive: true})
	require.NoError(t, err)

	for _, suffix := range []string{"a", "b", "c"} {
		assert.Empty(t, idx.fullPage("org-1", "obj-org-1-bm-"+suffix))
	}
}

func TestTierDowngradeSurvivesPerObjectFailures(t *testing.T) {
	svc, st, idx, _ := newRegistryFixture()
	ctx := context.Background()

	st.owners.put(&model.Owner{UUID: "org-1", Kind: model.KindOrganisation, Membership: model.Membership{Tier: 1, IsActive: true}})
	seedOrgBookmarks(st, idx, "org-1", 3)
	idx.clearErr["obj-org-1-bm-b"] = errors.New("object gone")

	err := svc.ChangeOrganisationMembership(ctx, "org-1",
		model.Membership{Tier: 0, IsActive: true},
		model.Membership{Tier: 1, IsActive: true})
	require.NoError(t, err)

	// the other two objects were still scrubbed
	assert.Empty(t, idx.fullPage("org-1", "obj-org-1-bm-a"))
	assert.Empty(t, idx.fullPage("org-1", "obj-org-1-bm-c"))
	assert.Equal(t, "old text", idx.fullPage("org-1", "obj-org-1-bm-b"))
}

func TestTierUpgradePopulatesFullPages(t *testing.T) {
	svc, st, idx, fetch := newRegistryFixture()
	ctx := context.Background()

	st.owners.put(&model.Owner{UUID: "org-1", Kind: model.KindOrganisation, Membership: model.Membership{Tier: 0, IsActive: true}})
	seedOrgBookmarks(st, idx, "org-1", 2)

	err := svc.ChangeOrganisationMembership(ctx, "org-1",
		model.Membership{Tier: 1, IsActive: true},
		model.Membership{Tier: 0, IsActive: true})
	require.NoError(t, err)

	assert.Equal(t, 2, fetch.callCount())
	assert.Equal(t, "fetched body", idx.fullPage("org-1", "obj-org-1-bm-a"))
	assert.Equal(t, "fetched body", idx.fullPage("org-1", "obj-org-1-bm-b"))
}

func TestTierChangeWithinPaidTiersHasNoIndexSideEffects(t *testing.T) {
	svc, st, idx, fetch := newRegistryFixture()
	ctx := context.Background()

	st.owners.put(&model.Owner{UUID: "org-1", Kind: model.KindOrganisation, Membership: model.Membership{Tier: 1, IsActive: true}})
	seedOrgBookmarks(st, idx, "org-1", 2)

	err := svc.ChangeOrganisationMembership(ctx, "org-1",
		model.Membership{Tier: 3, IsActive: true},
		model.Membership{Tier: 1, IsActive: true})
	require.NoError(t, err)

	assert.Equal(t, 0, fetch.callCount())
	assert.Equal(t, "old text", idx.fullPage("org-1", "obj-org-1-bm-a"))
}

func TestJoinAndLeaveOrganisation(t *testing.T) {
	svc, st, _, _ := newRegistryFixture()
	ctx := context.Background()

	st.owners.put(&model.Owner{UUID: "user-1", Kind: model.KindUser})

	require.NoError(t, svc.JoinOrganisation(ctx, "user-1", "org-1"))
	u, err := st.owners.Get(ctx, model.KindUser, "user-1")
	require.NoError(t, err)
	assert.True(t, u.InOrganisation("org-1"))

	require.NoError(t, svc.LeaveOrganisation(ctx, "user-1", "org-1"))
	u, err = st.owners.Get(ctx, model.KindUser, "user-1")
	require.NoError(t, err)
	assert.False(t, u.InOrganisation("org-1"))

	// leaving again is still success
	require.NoError(t, svc.LeaveOrganisation(ctx, "user-1", "org-1"))
}

func TestRemoveCollectionFromUsersSkipsMissingMembers(t *testing.T) {
	svc, st, _, _ := newRegistryFixture()
	ctx := context.Background()

	cm := model.CollectionMembership{UUID: "coll-1", OwnerID: "org-1", IsOrganisation: true}
	st.owners.put(&model.Owner{UUID: "user-1", Kind: model.KindUser, Collections: []model.CollectionMembership{cm}})
	st.owners.put(&model.Owner{UUID: "user-3", Kind: model.KindUser, Collections: []model.CollectionMembership{cm}})

	// user-2 does not exist
	err := svc.RemoveCollectionFromUsers(ctx, "coll-1", []string{"user-1", "user-2", "user-3"})
	require.NoError(t, err)

	for _, id := range []string{"user-1", "user-3"} {
		u, err := st.owners.Get(ctx, model.KindUser, id)
		require.NoError(t, err)
		assert.Empty(t, u.Collections)
	}
}

func TestRemoveCollectionFromUsersScansWhenListEmpty(t *testing.T) {
	svc, st, _, _ := newRegistryFixture()
	ctx := context.Background()

	cm := model.CollectionMembership{UUID: "coll-1", OwnerID: "org-1", IsOrganisation: true}
	st.owners.put(&model.Owner{UUID: "user-1", Kind: model.KindUser, Collections: []model.CollectionMembership{cm}})
	st.owners.put(&model.Owner{UUID: "user-2", Kind: model.KindUser, Collections: []model.CollectionMembership{cm}})

	require.NoError(t, svc.RemoveCollectionFromUsers(ctx, "coll-1", nil))

	for _, id := range []string{"user-1", "user-2"} {
		u, err := st.owners.Get(ctx, model.KindUser, id)
		require.NoError(t, err)
		assert.Empty(t, u.Collections)
	}
}
