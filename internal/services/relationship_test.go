package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/Kimsuncheol/AI-powered-forum-sub000/internal/models"
	"github.com/Kimsuncheol/AI-powered-forum-sub000/internal/repository"
	"github.com/Kimsuncheol/AI-powered-forum-sub000/pkg/queue"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestFollowCreatesEdgeAndCounters(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")

	require.NoError(t, env.relationships.Follow(ctx, alice.ID.String(), bob.ID.String()))

	following, err := env.relationships.IsFollowing(ctx, alice.ID.String(), bob.ID.String())
	require.NoError(t, err)
	require.True(t, following)

	bobFollowers, _ := env.counters(t, bob.ID)
	_, aliceFollowing := env.counters(t, alice.ID)
	require.Equal(t, int64(1), bobFollowers)
	require.Equal(t, int64(1), aliceFollowing)

	require.Contains(t, env.notifier.kinds(), queue.EventFollowCreated)
}

func TestFollowIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")

	require.NoError(t, env.relationships.Follow(ctx, alice.ID.String(), bob.ID.String()))
	require.NoError(t, env.relationships.Follow(ctx, alice.ID.String(), bob.ID.String()))

	bobFollowers, _ := env.counters(t, bob.ID)
	_, aliceFollowing := env.counters(t, alice.ID)
	require.Equal(t, int64(1), bobFollowers)
	require.Equal(t, int64(1), aliceFollowing)

	var edgeCount int64
	require.NoError(t, env.db.Model(&models.FollowEdge{}).Count(&edgeCount).Error)
	require.Equal(t, int64(1), edgeCount)
}

func TestFollowSelfRejected(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice")

	err := env.relationships.Follow(context.Background(), alice.ID.String(), alice.ID.String())
	require.Error(t, err)
	require.Equal(t, repository.CodeCannotFollowSelf, repository.CodeOf(err))
}

func TestUnfollowRemovesEdgeAndCounters(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")

	require.NoError(t, env.relationships.Follow(ctx, alice.ID.String(), bob.ID.String()))
	require.NoError(t, env.relationships.Unfollow(ctx, alice.ID.String(), bob.ID.String()))

	following, err := env.relationships.IsFollowing(ctx, alice.ID.String(), bob.ID.String())
	require.NoError(t, err)
	require.False(t, following)

	bobFollowers, _ := env.counters(t, bob.ID)
	_, aliceFollowing := env.counters(t, alice.ID)
	require.Equal(t, int64(0), bobFollowers)
	require.Equal(t, int64(0), aliceFollowing)
}

func TestUnfollowWithoutEdgeIsNoOp(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")

	require.NoError(t, env.relationships.Unfollow(ctx, alice.ID.String(), bob.ID.String()))

	// Counters must never go negative.
	bobFollowers, _ := env.counters(t, bob.ID)
	_, aliceFollowing := env.counters(t, alice.ID)
	require.Equal(t, int64(0), bobFollowers)
	require.Equal(t, int64(0), aliceFollowing)

	require.Empty(t, env.notifier.kinds())
}

func TestGetFollowersFiltersDeletedUsers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	carol := env.createUser(t, "carol")

	require.NoError(t, env.relationships.Follow(ctx, bob.ID.String(), alice.ID.String()))
	require.NoError(t, env.relationships.Follow(ctx, carol.ID.String(), alice.ID.String()))

	require.NoError(t, env.db.Delete(&models.User{}, "id = ?", carol.ID).Error)

	followers, err := env.relationships.GetFollowers(ctx, alice.ID.String(), 50)
	require.NoError(t, err)
	require.Len(t, followers, 1)
	require.Equal(t, bob.ID, followers[0].ID)
}

func TestGetFollowingRespectsLimit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.createUser(t, "alice")

	for i := 0; i < 5; i++ {
		target := env.createUser(t, "target"+string(rune('a'+i)))
		require.NoError(t, env.relationships.Follow(ctx, alice.ID.String(), target.ID.String()))
	}

	following, err := env.relationships.GetFollowing(ctx, alice.ID.String(), 3)
	require.NoError(t, err)
	require.Len(t, following, 3)
}

func TestFanoutFollowerIDs(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	carol := env.createUser(t, "carol")

	require.NoError(t, env.relationships.Follow(ctx, bob.ID.String(), alice.ID.String()))
	require.NoError(t, env.relationships.Follow(ctx, carol.ID.String(), alice.ID.String()))

	ids, err := env.relationships.GetFanoutFollowerIDs(ctx, alice.ID.String())
	require.NoError(t, err)
	require.ElementsMatch(t, []uuid.UUID{bob.ID, carol.ID}, ids)
}

func TestListFollowingPageService(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.createUser(t, "alice")

	for i := 0; i < 3; i++ {
		target := env.createUser(t, fmt.Sprintf("paged%d", i))
		require.NoError(t, env.relationships.Follow(ctx, alice.ID.String(), target.ID.String()))
	}

	page, err := env.relationships.ListFollowingPage(ctx, alice.ID.String(), 2, "")
	require.NoError(t, err)
	require.Len(t, page.Edges, 2)
	require.NotEmpty(t, page.NextCursor)

	rest, err := env.relationships.ListFollowingPage(ctx, alice.ID.String(), 2, page.NextCursor)
	require.NoError(t, err)
	require.Len(t, rest.Edges, 1)
	require.Empty(t, rest.NextCursor)
}
