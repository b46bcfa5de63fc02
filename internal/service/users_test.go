package service

import (
	"context"
	"math"
	"strings"
	"testing"

	"abbey/backend/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(s string) *string { return &s }

func TestProfilePatch_Validate(t *testing.T) {
	tests := []struct {
		name  string
		patch ProfilePatch
		want  string
	}{
		{"empty patch", ProfilePatch{}, "No fields to update"},
		{"blank name", ProfilePatch{Name: ptr("   ")}, "Name cannot be empty"},
		{"long bio", ProfilePatch{Bio: ptr(strings.Repeat("a", 501))}, "Bio must be 500 characters or less"},
		{"long address", ProfilePatch{Address: ptr(strings.Repeat("a", 201))}, "Address must be 200 characters or less"},
		{"bio at limit", ProfilePatch{Bio: ptr(strings.Repeat("é", 500))}, ""},
		{"clearing bio", ProfilePatch{Bio: ptr("")}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.patch.Normalize().Validate()
			if tt.want == "" {
				assert.NoError(t, err)
				return
			}
			requireKind(t, err, KindInvalid, tt.want)
		})
	}
}

func TestProfilePatch_Columns(t *testing.T) {
	cols := ProfilePatch{Name: ptr("  Ada "), Bio: ptr(" "), AvatarURL: ptr("https://x/y.png")}.Normalize().Columns()
	assert.Equal(t, map[string]any{
		"name":       "Ada",
		"bio":        nil,
		"avatar_url": "https://x/y.png",
	}, cols)
}

func TestUpdateProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t)

	_, err := f.users.UpdateProfile(ctx, u.ID, ProfilePatch{Bio: ptr("hello"), Address: ptr("Lisbon")})
	require.NoError(t, err)

	updated, err := f.users.UpdateProfile(ctx, u.ID, ProfilePatch{Name: ptr(" New Name "), Bio: ptr("")})
	require.NoError(t, err)
	assert.Equal(t, "New Name", updated.Name)
	assert.Nil(t, updated.Bio)
	require.NotNil(t, updated.Address)
	assert.Equal(t, "Lisbon", *updated.Address)

	_, err = f.users.UpdateProfile(ctx, u.ID, ProfilePatch{})
	requireKind(t, err, KindInvalid, "No fields to update")

	_, err = f.users.UpdateProfile(ctx, uuid.New(), ProfilePatch{Name: ptr("Ghost")})
	requireKind(t, err, KindNotFound, "User not found")
}

func TestProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, b := f.user(t), f.user(t)
	f.befriend(t, a, b)
	f.follow(t, b, a)

	profile, err := f.users.Profile(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.Email, profile.Email)
	assert.Equal(t, int64(1), profile.Stats.Friends)
	assert.Equal(t, int64(1), profile.Stats.Followers)
	assert.Zero(t, profile.Stats.Following)

	_, err = f.users.Profile(ctx, uuid.New())
	requireKind(t, err, KindNotFound, "User not found")
}

func TestList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	me := f.user(t)
	for i := 0; i < 4; i++ {
		f.user(t)
	}
	target := f.user(t)
	require.NoError(t, f.db.Model(&target).Update("name", "Zelda Quuxington").Error)
	f.follow(t, me, target)

	page, err := f.users.List(ctx, me.ID, ListParams{})
	require.NoError(t, err)
	assert.Equal(t, int64(5), page.Total)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, DefaultPageLimit, page.Limit)
	assert.Len(t, page.Users, 5)
	for _, u := range page.Users {
		assert.NotEqual(t, me.ID, u.ID)
	}

	page, err = f.users.List(ctx, me.ID, ListParams{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(5), page.Total)
	assert.Len(t, page.Users, 2)

	page, err = f.users.List(ctx, me.ID, ListParams{Page: 3, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page.Users, 1)

	page, err = f.users.List(ctx, me.ID, ListParams{Search: "  qUUXINGTON ", Limit: 500})
	require.NoError(t, err)
	assert.Equal(t, MaxPageLimit, page.Limit)
	require.Len(t, page.Users, 1)
	assert.Equal(t, target.ID, page.Users[0].ID)
	assert.True(t, page.Users[0].IsFollowing)
	assert.Equal(t, int64(1), page.Users[0].FollowersCount)
	assert.Nil(t, page.Users[0].FriendshipStatus)

	page, err = f.users.List(ctx, me.ID, ListParams{Search: strings.ToUpper(me.Email)})
	require.NoError(t, err)
	assert.Zero(t, page.Total)
	assert.Empty(t, page.Users)
}

func TestList_HugePageIsClamped(t *testing.T) {
	f := newFixture(t)
	me := f.user(t)
	f.user(t)

	page, err := f.users.List(context.Background(), me.ID, ListParams{Page: math.MaxInt, Limit: MaxPageLimit})
	require.NoError(t, err)
	assert.Equal(t, math.MaxInt/MaxPageLimit, page.Page)
	assert.Equal(t, int64(1), page.Total)
	assert.Empty(t, page.Users)

	offset := (page.Page - 1) * page.Limit
	assert.Greater(t, offset, 0)
}

func TestPublicProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	me, other := f.user(t), f.user(t)

	req, err := f.friends.SendRequest(ctx, me.ID, other.ID)
	require.NoError(t, err)
	f.follow(t, other, me)

	view, err := f.users.PublicProfile(ctx, me.ID, other.ID)
	require.NoError(t, err)
	assert.Equal(t, other.ID, view.ID)
	assert.Equal(t, int64(1), view.Stats.Following)
	require.NotNil(t, view.Relationship.FriendshipStatus)
	assert.Equal(t, models.StatusPending, *view.Relationship.FriendshipStatus)
	assert.Equal(t, req.Friendship.ID, *view.Relationship.FriendshipID)
	assert.True(t, view.Relationship.IsRequester)
	assert.False(t, view.Relationship.IsFollowing)
	assert.True(t, view.Relationship.FollowsYou)

	_, err = f.users.PublicProfile(ctx, me.ID, uuid.New())
	requireKind(t, err, KindNotFound, "User not found")
}
