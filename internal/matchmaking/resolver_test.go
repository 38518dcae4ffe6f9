package matchmaking_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"campusmatch/backend/internal/database"
	"campusmatch/backend/internal/matchmaking"
	"campusmatch/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setup in-memory DB
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	// Pin the pool to one connection so every session, transactions
	// included, sees the same in-memory database.
	sqlDB.SetMaxOpenConns(1)
	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func createProfile(t *testing.T, db *gorm.DB, name string) *models.Profile {
	t.Helper()
	p := &models.Profile{
		Email:        fmt.Sprintf("%s@example.com", name),
		Firstname:    name,
		PasswordHash: "x",
		HasAccount:   true,
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

// createGroup puts the given profiles into a new group, join order following
// the argument order.
func createGroup(t *testing.T, db *gorm.DB, members ...*models.Profile) *models.Group {
	t.Helper()
	require.NotEmpty(t, members)
	g := &models.Group{
		OwnerID:      members[0].ID,
		ShareLink:    fmt.Sprintf("link-%d", members[0].ID),
		TotalMembers: len(members),
	}
	require.NoError(t, db.Create(g).Error)
	base := time.Now().UTC().Add(-time.Hour)
	for i, m := range members {
		joined := base.Add(time.Duration(i) * time.Minute)
		m.CurrentGroupID = &g.ID
		m.GroupJoinedAt = &joined
		require.NoError(t, db.Save(m).Error)
	}
	return g
}

func recordLike(t *testing.T, graph *matchmaking.IdentityGraph, likerID, likedID uint) {
	t.Helper()
	_, err := graph.RecordProfileLike(context.Background(), likerID, likedID)
	require.NoError(t, err)
}

func recordGroupLike(t *testing.T, graph *matchmaking.IdentityGraph, profileID, groupID uint) {
	t.Helper()
	_, err := graph.RecordGroupLike(context.Background(), profileID, groupID)
	require.NoError(t, err)
}

func likeEdgeCount(t *testing.T, db *gorm.DB, likerID, likedID uint) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(&models.ProfileLike{}).
		Where("liker_id = ? AND liked_id = ?", likerID, likedID).
		Count(&count).Error)
	return count
}

func matchCount(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(&models.Match{}).Count(&count).Error)
	return count
}

func TestEnsureReadyForFeed(t *testing.T) {
	p := &models.Profile{}
	assert.ErrorIs(t, matchmaking.EnsureReadyForFeed(p), matchmaking.ErrPreconditionNotMet)

	birthdate := time.Now().AddDate(-25, 0, 0)
	p.Birthdate = &birthdate
	assert.ErrorIs(t, matchmaking.EnsureReadyForFeed(p), matchmaking.ErrPreconditionNotMet)

	lat, lon := 48.85, 2.35
	p.Latitude, p.Longitude = &lat, &lon
	assert.NoError(t, matchmaking.EnsureReadyForFeed(p))
}

func TestResolveIndividualToIndividual(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	resolver := matchmaking.NewResolver(db)

	alice := createProfile(t, db, "alice")
	bob := createProfile(t, db, "bob")

	// one-sided like stays a like
	res, err := resolver.Resolve(ctx, alice.ID, matchmaking.Target{Kind: matchmaking.TargetProfile, ID: bob.ID})
	require.NoError(t, err)
	assert.Equal(t, matchmaking.OutcomeLike, res.Outcome)
	assert.Nil(t, res.Match)

	// reciprocation creates the match
	res, err = resolver.Resolve(ctx, bob.ID, matchmaking.Target{Kind: matchmaking.TargetProfile, ID: alice.ID})
	require.NoError(t, err)
	assert.Equal(t, matchmaking.OutcomeNewMatch, res.Outcome)
	assert.Equal(t, matchmaking.OriginNeither, res.Origin)
	require.NotNil(t, res.Match)
	assert.True(t, res.Match.Involves(alice.ID))
	assert.True(t, res.Match.Involves(bob.ID))

	// repeating the like never duplicates the match
	res, err = resolver.Resolve(ctx, bob.ID, matchmaking.Target{Kind: matchmaking.TargetProfile, ID: alice.ID})
	require.NoError(t, err)
	assert.Equal(t, matchmaking.OutcomeAlreadyMatched, res.Outcome)
	assert.Equal(t, int64(1), matchCount(t, db))
}

func TestResolveIndividualToGroupPicksFirstCandidateInJoinOrder(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	resolver := matchmaking.NewResolver(db)

	viewer := createProfile(t, db, "viewer")
	first := createProfile(t, db, "first")
	second := createProfile(t, db, "second")
	group := createGroup(t, db, first, second)

	// both members liked the viewer before joining forces
	graph := matchmaking.NewIdentityGraph(db)
	recordLike(t, graph, first.ID, viewer.ID)
	recordLike(t, graph, second.ID, viewer.ID)

	res, err := resolver.Resolve(ctx, viewer.ID, matchmaking.Target{Kind: matchmaking.TargetGroup, ID: group.ID})
	require.NoError(t, err)
	assert.Equal(t, matchmaking.OutcomeNewMatch, res.Outcome)
	assert.Equal(t, matchmaking.OriginLiked, res.Origin)
	require.NotNil(t, res.Match)
	assert.True(t, res.Match.Involves(first.ID), "the earliest-joined candidate gets the match")
	assert.False(t, res.Match.Involves(second.ID))

	// provenance links back to the liked group
	var produced int64
	require.NoError(t, db.Table("group_matches").
		Where("group_id = ? AND match_id = ?", group.ID, res.Match.ID).
		Count(&produced).Error)
	assert.Equal(t, int64(1), produced)
}

func TestResolveIndividualToGroupNoMutualInterest(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	resolver := matchmaking.NewResolver(db)

	viewer := createProfile(t, db, "viewer")
	a := createProfile(t, db, "a")
	b := createProfile(t, db, "b")
	group := createGroup(t, db, a, b)

	res, err := resolver.Resolve(ctx, viewer.ID, matchmaking.Target{Kind: matchmaking.TargetGroup, ID: group.ID})
	require.NoError(t, err)
	assert.Equal(t, matchmaking.OutcomeLike, res.Outcome)
	assert.Equal(t, int64(0), matchCount(t, db))

	// a second like toward a group the viewer already matched into short-circuits
	graph := matchmaking.NewIdentityGraph(db)
	recordLike(t, graph, a.ID, viewer.ID)
	res, err = resolver.Resolve(ctx, viewer.ID, matchmaking.Target{Kind: matchmaking.TargetGroup, ID: group.ID})
	require.NoError(t, err)
	assert.Equal(t, matchmaking.OutcomeNewMatch, res.Outcome)

	res, err = resolver.Resolve(ctx, viewer.ID, matchmaking.Target{Kind: matchmaking.TargetGroup, ID: group.ID})
	require.NoError(t, err)
	assert.Equal(t, matchmaking.OutcomeAlreadyMatched, res.Outcome)
	assert.Equal(t, int64(1), matchCount(t, db))
}

func TestResolveGroupToIndividual(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	resolver := matchmaking.NewResolver(db)

	acting := createProfile(t, db, "acting")
	mate := createProfile(t, db, "mate")
	group := createGroup(t, db, acting, mate)
	target := createProfile(t, db, "target")

	// target has not liked the group yet
	res, err := resolver.Resolve(ctx, acting.ID, matchmaking.Target{Kind: matchmaking.TargetProfile, ID: target.ID})
	require.NoError(t, err)
	assert.Equal(t, matchmaking.OutcomeLike, res.Outcome)

	// once the target likes the group, the next group-side like matches
	graph := matchmaking.NewIdentityGraph(db)
	recordGroupLike(t, graph, target.ID, group.ID)

	res, err = resolver.Resolve(ctx, acting.ID, matchmaking.Target{Kind: matchmaking.TargetProfile, ID: target.ID})
	require.NoError(t, err)
	assert.Equal(t, matchmaking.OutcomeNewMatch, res.Outcome)
	assert.Equal(t, matchmaking.OriginCurrent, res.Origin)
	require.NotNil(t, res.Match)
	assert.True(t, res.Match.Involves(acting.ID))
	assert.True(t, res.Match.Involves(target.ID))

	// the other member liking the same target re-uses the member match
	res, err = resolver.Resolve(ctx, mate.ID, matchmaking.Target{Kind: matchmaking.TargetProfile, ID: target.ID})
	require.NoError(t, err)
	assert.Equal(t, matchmaking.OutcomeAlreadyMatched, res.Outcome)
	assert.Equal(t, int64(1), matchCount(t, db))
}

func TestResolveGroupToGroup(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	resolver := matchmaking.NewResolver(db)

	a1 := createProfile(t, db, "a1")
	a2 := createProfile(t, db, "a2")
	groupA := createGroup(t, db, a1, a2)

	b1 := createProfile(t, db, "b1")
	b2 := createProfile(t, db, "b2")
	groupB := createGroup(t, db, b1, b2)

	// the second-joined member of B liked group A; they are the only candidate
	graph := matchmaking.NewIdentityGraph(db)
	recordGroupLike(t, graph, b2.ID, groupA.ID)

	res, err := resolver.Resolve(ctx, a1.ID, matchmaking.Target{Kind: matchmaking.TargetGroup, ID: groupB.ID})
	require.NoError(t, err)
	assert.Equal(t, matchmaking.OutcomeNewMatch, res.Outcome)
	assert.Equal(t, matchmaking.OriginBoth, res.Origin)
	require.NotNil(t, res.Match)
	assert.True(t, res.Match.Involves(a1.ID))
	assert.True(t, res.Match.Involves(b2.ID))

	// provenance carries both groups
	var produced int64
	require.NoError(t, db.Table("group_matches").
		Where("match_id = ?", res.Match.ID).
		Count(&produced).Error)
	assert.Equal(t, int64(2), produced)

	// the groups now share a match, so further cross-likes short-circuit
	res, err = resolver.Resolve(ctx, a2.ID, matchmaking.Target{Kind: matchmaking.TargetGroup, ID: groupB.ID})
	require.NoError(t, err)
	assert.Equal(t, matchmaking.OutcomeAlreadyMatched, res.Outcome)
	assert.Equal(t, int64(1), matchCount(t, db))
}

func TestResolveIndividualToGroupShortCircuitsOnMemberMatch(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	resolver := matchmaking.NewResolver(db)

	viewer := createProfile(t, db, "viewer")
	member := createProfile(t, db, "member")
	other := createProfile(t, db, "other")

	// viewer matched with member while both were standalone
	ledger := matchmaking.NewMatchLedger(db)
	_, created, err := ledger.CreateMatch(ctx, viewer.ID, member.ID, nil)
	require.NoError(t, err)
	require.True(t, created)

	group := createGroup(t, db, member, other)
	graph := matchmaking.NewIdentityGraph(db)
	recordLike(t, graph, member.ID, viewer.ID)

	// the already-matched pair short-circuits before candidate scanning
	res, err := resolver.Resolve(ctx, viewer.ID, matchmaking.Target{Kind: matchmaking.TargetGroup, ID: group.ID})
	require.NoError(t, err)
	assert.Equal(t, matchmaking.OutcomeAlreadyMatched, res.Outcome)
	assert.Equal(t, int64(1), matchCount(t, db))
}

func TestResolveGroupToGroupRecyclesStandaloneMatch(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	resolver := matchmaking.NewResolver(db)

	a1 := createProfile(t, db, "a1")
	b1 := createProfile(t, db, "b1")

	// a1 and b1 matched before either joined a group, so the match carries
	// no group association
	ledger := matchmaking.NewMatchLedger(db)
	existing, created, err := ledger.CreateMatch(ctx, a1.ID, b1.ID, nil)
	require.NoError(t, err)
	require.True(t, created)

	a2 := createProfile(t, db, "a2")
	groupA := createGroup(t, db, a1, a2)
	b2 := createProfile(t, db, "b2")
	groupB := createGroup(t, db, b1, b2)

	graph := matchmaking.NewIdentityGraph(db)
	recordGroupLike(t, graph, b1.ID, groupA.ID)

	// the old pair is the only candidate; its match is re-surfaced, not duplicated
	res, err := resolver.Resolve(ctx, a1.ID, matchmaking.Target{Kind: matchmaking.TargetGroup, ID: groupB.ID})
	require.NoError(t, err)
	assert.Equal(t, matchmaking.OutcomeSameMatch, res.Outcome)
	assert.Equal(t, matchmaking.OriginBoth, res.Origin)
	require.NotNil(t, res.Match)
	assert.Equal(t, existing.ID, res.Match.ID)
	assert.Equal(t, int64(1), matchCount(t, db))
}

func TestResolveOwnGroupIsRejected(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	resolver := matchmaking.NewResolver(db)

	owner := createProfile(t, db, "owner")
	mate := createProfile(t, db, "mate")
	group := createGroup(t, db, owner, mate)

	res, err := resolver.Resolve(ctx, owner.ID, matchmaking.Target{Kind: matchmaking.TargetGroup, ID: group.ID})
	assert.ErrorIs(t, err, matchmaking.ErrPreconditionNotMet)
	assert.Nil(t, res)

	// nothing written, and in particular no profile matched with itself
	assert.Equal(t, int64(0), matchCount(t, db))
	var selfPairs int64
	require.NoError(t, db.Model(&models.Match{}).
		Where("profile1_id = profile2_id").
		Count(&selfPairs).Error)
	assert.Equal(t, int64(0), selfPairs)
	var groupLikes int64
	require.NoError(t, db.Model(&models.GroupLike{}).Count(&groupLikes).Error)
	assert.Equal(t, int64(0), groupLikes)
}

func TestBlockedPairNeverMatches(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	resolver := matchmaking.NewResolver(db)

	alice := createProfile(t, db, "alice")
	bob := createProfile(t, db, "bob")
	require.NoError(t, db.Create(&models.ProfileBlock{BlockerID: bob.ID, BlockedID: alice.ID}).Error)

	_, err := resolver.Resolve(ctx, alice.ID, matchmaking.Target{Kind: matchmaking.TargetProfile, ID: bob.ID})
	require.NoError(t, err)

	// mutual likes exist, but the block wins
	res, err := resolver.Resolve(ctx, bob.ID, matchmaking.Target{Kind: matchmaking.TargetProfile, ID: alice.ID})
	require.NoError(t, err)
	assert.Equal(t, matchmaking.OutcomeLike, res.Outcome)
	assert.Equal(t, int64(0), matchCount(t, db))
}

func TestResolveGroupCandidatesSkipBlockedMember(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	resolver := matchmaking.NewResolver(db)

	viewer := createProfile(t, db, "viewer")
	first := createProfile(t, db, "first")
	second := createProfile(t, db, "second")
	group := createGroup(t, db, first, second)

	graph := matchmaking.NewIdentityGraph(db)
	recordLike(t, graph, first.ID, viewer.ID)
	recordLike(t, graph, second.ID, viewer.ID)
	require.NoError(t, db.Create(&models.ProfileBlock{BlockerID: first.ID, BlockedID: viewer.ID}).Error)

	// the earliest-joined member is blocked, so the match falls to the next one
	res, err := resolver.Resolve(ctx, viewer.ID, matchmaking.Target{Kind: matchmaking.TargetGroup, ID: group.ID})
	require.NoError(t, err)
	assert.Equal(t, matchmaking.OutcomeNewMatch, res.Outcome)
	require.NotNil(t, res.Match)
	assert.True(t, res.Match.Involves(second.ID))
	assert.False(t, res.Match.Involves(first.ID))
}

func TestResolveReportsLikeRecordedOnce(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	resolver := matchmaking.NewResolver(db)

	alice := createProfile(t, db, "alice")
	bob := createProfile(t, db, "bob")

	res, err := resolver.Resolve(ctx, alice.ID, matchmaking.Target{Kind: matchmaking.TargetProfile, ID: bob.ID})
	require.NoError(t, err)
	assert.True(t, res.LikeRecorded)

	// repeating the like leaves the edge, and the flag, alone
	res, err = resolver.Resolve(ctx, alice.ID, matchmaking.Target{Kind: matchmaking.TargetProfile, ID: bob.ID})
	require.NoError(t, err)
	assert.False(t, res.LikeRecorded)
	assert.Equal(t, int64(1), likeEdgeCount(t, db, alice.ID, bob.ID))
}

func TestResolveMissingTargetWritesNothing(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	resolver := matchmaking.NewResolver(db)

	alice := createProfile(t, db, "alice")

	res, err := resolver.Resolve(ctx, alice.ID, matchmaking.Target{Kind: matchmaking.TargetProfile, ID: 9999})
	assert.ErrorIs(t, err, matchmaking.ErrNotFound)
	assert.Nil(t, res)

	// the rollback must also discard the like edge
	var likes int64
	require.NoError(t, db.Model(&models.ProfileLike{}).Count(&likes).Error)
	assert.Equal(t, int64(0), likes)
}

func TestResolveMissingGroupWritesNothing(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	resolver := matchmaking.NewResolver(db)

	alice := createProfile(t, db, "alice")

	_, err := resolver.Resolve(ctx, alice.ID, matchmaking.Target{Kind: matchmaking.TargetGroup, ID: 9999})
	assert.ErrorIs(t, err, matchmaking.ErrNotFound)

	var likes int64
	require.NoError(t, db.Model(&models.GroupLike{}).Count(&likes).Error)
	assert.Equal(t, int64(0), likes)
}

func TestUnmatchRemovesMatchAndLikeEdges(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	resolver := matchmaking.NewResolver(db)

	alice := createProfile(t, db, "alice")
	bob := createProfile(t, db, "bob")
	stranger := createProfile(t, db, "stranger")

	_, err := resolver.Resolve(ctx, alice.ID, matchmaking.Target{Kind: matchmaking.TargetProfile, ID: bob.ID})
	require.NoError(t, err)
	res, err := resolver.Resolve(ctx, bob.ID, matchmaking.Target{Kind: matchmaking.TargetProfile, ID: alice.ID})
	require.NoError(t, err)
	require.NotNil(t, res.Match)

	// only a party may dissolve the match
	err = resolver.Unmatch(ctx, res.Match.ID, stranger.ID)
	assert.ErrorIs(t, err, matchmaking.ErrUnauthorized)

	require.NoError(t, resolver.Unmatch(ctx, res.Match.ID, alice.ID))
	assert.Equal(t, int64(0), matchCount(t, db))
	assert.Equal(t, int64(0), likeEdgeCount(t, db, alice.ID, bob.ID))
	assert.Equal(t, int64(0), likeEdgeCount(t, db, bob.ID, alice.ID))

	// dissolving a gone match reports not found
	err = resolver.Unmatch(ctx, res.Match.ID, alice.ID)
	assert.ErrorIs(t, err, matchmaking.ErrNotFound)
}
