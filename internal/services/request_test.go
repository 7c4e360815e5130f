package services

import (
	"context"
	"testing"

	"github.com/Kimsuncheol/AI-powered-forum-sub000/internal/models"
	"github.com/Kimsuncheol/AI-powered-forum-sub000/internal/repository"
	"github.com/Kimsuncheol/AI-powered-forum-sub000/pkg/queue"
	"github.com/stretchr/testify/require"
)

func TestSendFollowRequestCreatesPendingAndInboxItem(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")

	requestID, err := env.requests.Send(ctx, alice.ID.String(), bob.ID.String())
	require.NoError(t, err)
	require.Equal(t, models.PairKey(alice.ID, bob.ID), requestID)

	status, err := env.requests.GetRequestStatus(ctx, alice.ID.String(), bob.ID.String())
	require.NoError(t, err)
	require.NotNil(t, status)
	require.Equal(t, models.RequestPending, *status)

	items, err := env.inbox.GetUnreadItems(ctx, bob.ID.String())
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, models.InboxTypeFollowRequest, items[0].Type)
	require.Equal(t, requestID, items[0].ReferenceID)
	require.Equal(t, alice.ID, items[0].FromUID)

	require.Contains(t, env.notifier.kinds(), queue.EventFollowRequestSent)
}

func TestSendFollowRequestToSelfRejected(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice")

	_, err := env.requests.Send(context.Background(), alice.ID.String(), alice.ID.String())
	require.Equal(t, repository.CodeCannotFollowSelf, repository.CodeOf(err))
}

func TestSendDuplicatePendingRequestRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")

	_, err := env.requests.Send(ctx, alice.ID.String(), bob.ID.String())
	require.NoError(t, err)

	_, err = env.requests.Send(ctx, alice.ID.String(), bob.ID.String())
	require.Equal(t, repository.CodeDuplicateRequest, repository.CodeOf(err))

	// Only one request document per ordered pair, ever.
	var count int64
	require.NoError(t, env.db.Model(&models.FollowRequest{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestSendRequestWhenAlreadyFollowingRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")

	require.NoError(t, env.relationships.Follow(ctx, alice.ID.String(), bob.ID.String()))

	_, err := env.requests.Send(ctx, alice.ID.String(), bob.ID.String())
	require.Equal(t, repository.CodeAlreadyFollowing, repository.CodeOf(err))
}

func TestAcceptFollowRequest(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")

	requestID, err := env.requests.Send(ctx, alice.ID.String(), bob.ID.String())
	require.NoError(t, err)

	require.NoError(t, env.requests.Accept(ctx, requestID, bob.ID.String()))

	status, err := env.requests.GetRequestStatus(ctx, alice.ID.String(), bob.ID.String())
	require.NoError(t, err)
	require.Equal(t, models.RequestAccepted, *status)

	following, err := env.relationships.IsFollowing(ctx, alice.ID.String(), bob.ID.String())
	require.NoError(t, err)
	require.True(t, following)

	var edgeCount int64
	require.NoError(t, env.db.Model(&models.FollowEdge{}).Count(&edgeCount).Error)
	require.Equal(t, int64(1), edgeCount)

	bobFollowers, _ := env.counters(t, bob.ID)
	_, aliceFollowing := env.counters(t, alice.ID)
	require.Equal(t, int64(1), bobFollowers)
	require.Equal(t, int64(1), aliceFollowing)

	// No unread items may reference a resolved request.
	items, err := env.inbox.GetUnreadItems(ctx, bob.ID.String())
	require.NoError(t, err)
	require.Empty(t, items)
}

func TestAcceptIsNotIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")

	requestID, err := env.requests.Send(ctx, alice.ID.String(), bob.ID.String())
	require.NoError(t, err)
	require.NoError(t, env.requests.Accept(ctx, requestID, bob.ID.String()))

	// A retried accept must fail, not bump the counters again.
	err = env.requests.Accept(ctx, requestID, bob.ID.String())
	require.Equal(t, repository.CodeInvalidStatus, repository.CodeOf(err))

	bobFollowers, _ := env.counters(t, bob.ID)
	require.Equal(t, int64(1), bobFollowers)
}

func TestAcceptRequiresRecipient(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")

	requestID, err := env.requests.Send(ctx, alice.ID.String(), bob.ID.String())
	require.NoError(t, err)

	err = env.requests.Accept(ctx, requestID, alice.ID.String())
	require.Equal(t, repository.CodePermissionDenied, repository.CodeOf(err))
}

func TestAcceptMissingRequest(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")

	err := env.requests.Accept(context.Background(), models.PairKey(alice.ID, bob.ID), bob.ID.String())
	require.Equal(t, repository.CodeRequestNotFound, repository.CodeOf(err))
}

func TestDeclineFollowRequest(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")

	requestID, err := env.requests.Send(ctx, alice.ID.String(), bob.ID.String())
	require.NoError(t, err)
	require.NoError(t, env.requests.Decline(ctx, requestID, bob.ID.String()))

	status, err := env.requests.GetRequestStatus(ctx, alice.ID.String(), bob.ID.String())
	require.NoError(t, err)
	require.Equal(t, models.RequestDeclined, *status)

	// Decline never touches edges or counters.
	following, err := env.relationships.IsFollowing(ctx, alice.ID.String(), bob.ID.String())
	require.NoError(t, err)
	require.False(t, following)

	bobFollowers, _ := env.counters(t, bob.ID)
	require.Equal(t, int64(0), bobFollowers)

	items, err := env.inbox.GetUnreadItems(ctx, bob.ID.String())
	require.NoError(t, err)
	require.Empty(t, items)
}

func TestResendAfterDecline(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")

	requestID, err := env.requests.Send(ctx, alice.ID.String(), bob.ID.String())
	require.NoError(t, err)
	require.NoError(t, env.requests.Decline(ctx, requestID, bob.ID.String()))

	// Re-request overwrites the same document back to pending.
	again, err := env.requests.Send(ctx, alice.ID.String(), bob.ID.String())
	require.NoError(t, err)
	require.Equal(t, requestID, again)

	status, err := env.requests.GetRequestStatus(ctx, alice.ID.String(), bob.ID.String())
	require.NoError(t, err)
	require.Equal(t, models.RequestPending, *status)

	var count int64
	require.NoError(t, env.db.Model(&models.FollowRequest{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestCancelRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")

	_, err := env.requests.Send(ctx, alice.ID.String(), bob.ID.String())
	require.NoError(t, err)

	require.NoError(t, env.requests.Cancel(ctx, alice.ID.String(), bob.ID.String(), alice.ID.String()))

	// Cancel deletes the document and the inbox item.
	status, err := env.requests.GetRequestStatus(ctx, alice.ID.String(), bob.ID.String())
	require.NoError(t, err)
	require.Nil(t, status)

	items, err := env.inbox.GetUnreadItems(ctx, bob.ID.String())
	require.NoError(t, err)
	require.Empty(t, items)

	// The pair is immediately re-sendable.
	_, err = env.requests.Send(ctx, alice.ID.String(), bob.ID.String())
	require.NoError(t, err)
}

func TestCancelRequiresSender(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")

	_, err := env.requests.Send(ctx, alice.ID.String(), bob.ID.String())
	require.NoError(t, err)

	err = env.requests.Cancel(ctx, alice.ID.String(), bob.ID.String(), bob.ID.String())
	require.Equal(t, repository.CodePermissionDenied, repository.CodeOf(err))
}

func TestCancelMissingRequest(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")

	err := env.requests.Cancel(context.Background(), alice.ID.String(), bob.ID.String(), alice.ID.String())
	require.Equal(t, repository.CodeRequestNotFound, repository.CodeOf(err))
}

func TestAcceptDeclineRaceHasOneWinner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")

	requestID, err := env.requests.Send(ctx, alice.ID.String(), bob.ID.String())
	require.NoError(t, err)

	// The status-guarded update serializes the pair: after one resolution
	// lands, the competing transition must lose with INVALID_STATUS.
	require.NoError(t, env.requests.Accept(ctx, requestID, bob.ID.String()))
	err = env.requests.Decline(ctx, requestID, bob.ID.String())
	require.Equal(t, repository.CodeInvalidStatus, repository.CodeOf(err))

	status, err := env.requests.GetRequestStatus(ctx, alice.ID.String(), bob.ID.String())
	require.NoError(t, err)
	require.Equal(t, models.RequestAccepted, *status)

	// Counters reflect only the winner's effect.
	bobFollowers, _ := env.counters(t, bob.ID)
	require.Equal(t, int64(1), bobFollowers)
}

func TestAcceptAfterDirectFollowDoesNotDoubleCount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")

	requestID, err := env.requests.Send(ctx, alice.ID.String(), bob.ID.String())
	require.NoError(t, err)

	// The direct follow path can create the edge while the request is
	// still pending; both paths exist independently.
	require.NoError(t, env.relationships.Follow(ctx, alice.ID.String(), bob.ID.String()))
	require.NoError(t, env.requests.Accept(ctx, requestID, bob.ID.String()))

	bobFollowers, _ := env.counters(t, bob.ID)
	_, aliceFollowing := env.counters(t, alice.ID)
	require.Equal(t, int64(1), bobFollowers)
	require.Equal(t, int64(1), aliceFollowing)

	var edgeCount int64
	require.NoError(t, env.db.Model(&models.FollowEdge{}).Count(&edgeCount).Error)
	require.Equal(t, int64(1), edgeCount)
}
