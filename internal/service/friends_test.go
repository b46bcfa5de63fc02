package service

import (
	"context"
	"testing"
	"time"

	"abbey/backend/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestSendRequest_CreatesCanonicalPendingRow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, b := f.user(t), f.user(t)

	res, err := f.friends.SendRequest(ctx, b.ID, a.ID)
	require.NoError(t, err)
	assert.False(t, res.Revived)
	assert.Equal(t, models.StatusPending, res.Friendship.Status)
	assert.Equal(t, b.ID, res.Friendship.RequesterID)

	low, high := models.OrderedPair(a.ID, b.ID)
	var stored models.Friendship
	require.NoError(t, f.db.First(&stored, "id = ?", res.Friendship.ID).Error)
	assert.Equal(t, low, stored.UserID)
	assert.Equal(t, high, stored.FriendID)
}

func TestSendRequest_Guards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, b := f.user(t), f.user(t)

	_, err := f.friends.SendRequest(ctx, a.ID, a.ID)
	requireKind(t, err, KindInvalid, "Cannot send friend request to yourself")

	_, err = f.friends.SendRequest(ctx, a.ID, uuid.New())
	requireKind(t, err, KindNotFound, "User not found")

	_, err = f.friends.SendRequest(ctx, a.ID, b.ID)
	require.NoError(t, err)

	_, err = f.friends.SendRequest(ctx, a.ID, b.ID)
	requireKind(t, err, KindInvalid, "Friend request already sent")

	// A pending request in the other direction blocks a counter-request.
	_, err = f.friends.SendRequest(ctx, b.ID, a.ID)
	requireKind(t, err, KindInvalid, "Friend request already sent")

	var count int64
	f.db.Model(&models.Friendship{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestSendRequest_LosesInsertRace(t *testing.T) {
	f := newFixture(t)
	a, b := f.user(t), f.user(t)
	low, high := models.OrderedPair(a.ID, b.ID)

	// Another request for the same pair commits after SendRequest looked the
	// pair up but before its insert.
	var competing error
	fired := false
	err := f.db.Callback().Create().Before("gorm:create").Register("test:competing_request", func(tx *gorm.DB) {
		if fired || tx.Statement.Schema == nil || tx.Statement.Schema.Table != "friendships" {
			return
		}
		fired = true
		now := time.Now()
		competing = tx.Session(&gorm.Session{NewDB: true}).Exec(
			"INSERT INTO friendships (id, user_id, friend_id, requester_id, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
			uuid.New(), low, high, b.ID, models.StatusPending, now, now,
		).Error
	})
	require.NoError(t, err)

	_, err = f.friends.SendRequest(context.Background(), a.ID, b.ID)
	require.True(t, fired)
	require.NoError(t, competing)
	requireKind(t, err, KindInvalid, "Friend request already sent")
}

func TestSendRequest_AlreadyFriends(t *testing.T) {
	f := newFixture(t)
	a, b := f.user(t), f.user(t)
	f.befriend(t, a, b)

	_, err := f.friends.SendRequest(context.Background(), b.ID, a.ID)
	requireKind(t, err, KindInvalid, "You are already friends")
}

func TestSendRequest_RevivesRejectedRow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, b := f.user(t), f.user(t)

	first, err := f.friends.SendRequest(ctx, a.ID, b.ID)
	require.NoError(t, err)
	_, err = f.friends.Reject(ctx, b.ID, first.Friendship.ID)
	require.NoError(t, err)

	// The recipient of the rejected request may now ask in turn.
	again, err := f.friends.SendRequest(ctx, b.ID, a.ID)
	require.NoError(t, err)
	assert.True(t, again.Revived)
	assert.Equal(t, first.Friendship.ID, again.Friendship.ID)
	assert.Equal(t, b.ID, again.Friendship.RequesterID)
	assert.Equal(t, models.StatusPending, again.Friendship.Status)

	var stored models.Friendship
	require.NoError(t, f.db.First(&stored, "id = ?", first.Friendship.ID).Error)
	assert.Equal(t, models.StatusPending, stored.Status)
	assert.Equal(t, b.ID, stored.RequesterID)

	var count int64
	f.db.Model(&models.Friendship{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestAccept(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, b, c := f.user(t), f.user(t), f.user(t)

	req, err := f.friends.SendRequest(ctx, a.ID, b.ID)
	require.NoError(t, err)
	id := req.Friendship.ID

	_, err = f.friends.Accept(ctx, a.ID, uuid.New())
	requireKind(t, err, KindNotFound, "Friend request not found")

	_, err = f.friends.Accept(ctx, a.ID, id)
	requireKind(t, err, KindForbidden, "Cannot accept your own friend request")

	_, err = f.friends.Accept(ctx, c.ID, id)
	requireKind(t, err, KindForbidden, "Unauthorized to accept this request")

	accepted, err := f.friends.Accept(ctx, b.ID, id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAccepted, accepted.Status)

	_, err = f.friends.Accept(ctx, b.ID, id)
	requireKind(t, err, KindInvalid, "Friend request already accepted")

	_, err = f.friends.Reject(ctx, b.ID, id)
	requireKind(t, err, KindInvalid, "Friend request is not pending")
}

func TestAccept_InvalidatesCachedStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, b := f.user(t), f.user(t)

	req, err := f.friends.SendRequest(ctx, a.ID, b.ID)
	require.NoError(t, err)

	before, err := f.relations.Stats(ctx, []uuid.UUID{a.ID, b.ID})
	require.NoError(t, err)
	assert.Zero(t, before[a.ID].Friends)
	require.True(t, f.cache.cached(a.ID))

	_, err = f.friends.Accept(ctx, b.ID, req.Friendship.ID)
	require.NoError(t, err)
	assert.False(t, f.cache.cached(a.ID))
	assert.False(t, f.cache.cached(b.ID))

	after, err := f.relations.Stats(ctx, []uuid.UUID{a.ID, b.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), after[a.ID].Friends)
	assert.Equal(t, int64(1), after[b.ID].Friends)
}

func TestReject(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, b, c := f.user(t), f.user(t), f.user(t)

	req, err := f.friends.SendRequest(ctx, a.ID, b.ID)
	require.NoError(t, err)
	id := req.Friendship.ID

	_, err = f.friends.Reject(ctx, a.ID, id)
	requireKind(t, err, KindForbidden, "Cannot reject your own friend request")

	_, err = f.friends.Reject(ctx, c.ID, id)
	requireKind(t, err, KindForbidden, "Unauthorized to reject this request")

	rejected, err := f.friends.Reject(ctx, b.ID, id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, rejected.Status)

	_, err = f.friends.Reject(ctx, b.ID, id)
	requireKind(t, err, KindInvalid, "Friend request is not pending")

	_, err = f.friends.Accept(ctx, b.ID, id)
	requireKind(t, err, KindInvalid, "Friend request is not pending")
}

func TestCancel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, b := f.user(t), f.user(t)

	req, err := f.friends.SendRequest(ctx, a.ID, b.ID)
	require.NoError(t, err)
	id := req.Friendship.ID

	err = f.friends.Cancel(ctx, b.ID, id)
	requireKind(t, err, KindForbidden, "Cannot cancel request you did not send")

	require.NoError(t, f.friends.Cancel(ctx, a.ID, id))

	err = f.friends.Cancel(ctx, a.ID, id)
	requireKind(t, err, KindNotFound, "Friend request not found")

	// After a cancel the pair is back to no relationship.
	_, err = f.friends.SendRequest(ctx, b.ID, a.ID)
	require.NoError(t, err)
}

func TestCancel_OnlyPending(t *testing.T) {
	f := newFixture(t)
	a, b := f.user(t), f.user(t)
	friendship := f.befriend(t, a, b)

	err := f.friends.Cancel(context.Background(), a.ID, friendship.ID)
	requireKind(t, err, KindInvalid, "Can only cancel pending requests")
}

func TestUnfriend(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, b, c := f.user(t), f.user(t), f.user(t)
	f.befriend(t, a, b)

	_, err := f.friends.SendRequest(ctx, a.ID, c.ID)
	require.NoError(t, err)

	requireKind(t, f.friends.Unfriend(ctx, a.ID, a.ID), KindInvalid, "Cannot unfriend yourself")
	requireKind(t, f.friends.Unfriend(ctx, a.ID, c.ID), KindNotFound, "Friendship not found or not accepted")

	// Either side may unfriend.
	require.NoError(t, f.friends.Unfriend(ctx, b.ID, a.ID))
	requireKind(t, f.friends.Unfriend(ctx, a.ID, b.ID), KindNotFound, "Friendship not found or not accepted")

	var count int64
	f.db.Model(&models.Friendship{}).Where("status = ?", models.StatusAccepted).Count(&count)
	assert.Zero(t, count)
	assert.Contains(t, f.cache.invalidated, a.ID)
	assert.Contains(t, f.cache.invalidated, b.ID)
}

func TestFriendListings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	me, friend, asker, asked := f.user(t), f.user(t), f.user(t), f.user(t)

	friendship := f.befriend(t, me, friend)
	f.follow(t, asker, friend)

	incoming, err := f.friends.SendRequest(ctx, asker.ID, me.ID)
	require.NoError(t, err)
	outgoing, err := f.friends.SendRequest(ctx, me.ID, asked.ID)
	require.NoError(t, err)

	friends, err := f.friends.Friends(ctx, me.ID)
	require.NoError(t, err)
	require.Len(t, friends, 1)
	assert.Equal(t, friend.ID, friends[0].ID)
	assert.Equal(t, friendship.ID, friends[0].FriendshipID)
	assert.Equal(t, int64(1), friends[0].FriendsCount)
	assert.Equal(t, int64(1), friends[0].FollowersCount)

	// The friend sees the same row from the other side.
	theirs, err := f.friends.Friends(ctx, friend.ID)
	require.NoError(t, err)
	require.Len(t, theirs, 1)
	assert.Equal(t, me.ID, theirs[0].ID)

	received, err := f.friends.ReceivedRequests(ctx, me.ID)
	require.NoError(t, err)
	require.Len(t, received, 1)
	assert.Equal(t, asker.ID, received[0].ID)
	assert.Equal(t, incoming.Friendship.ID, received[0].FriendshipID)

	sent, err := f.friends.SentRequests(ctx, me.ID)
	require.NoError(t, err)
	require.Len(t, sent, 1)
	assert.Equal(t, asked.ID, sent[0].ID)
	assert.Equal(t, outgoing.Friendship.ID, sent[0].FriendshipID)

	theirRequests, err := f.friends.ReceivedRequests(ctx, asked.ID)
	require.NoError(t, err)
	require.Len(t, theirRequests, 1)
	assert.Equal(t, me.ID, theirRequests[0].ID)
}
