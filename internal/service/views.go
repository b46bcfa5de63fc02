package service

import (
	"time"

	"abbey/backend/internal/cache"
	"abbey/backend/internal/models"

	"github.com/google/uuid"
)

// UserSummary is the public part of a user shown in every listing.
type UserSummary struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Bio       *string   `json:"bio"`
	AvatarURL *string   `json:"avatar_url"`
	CreatedAt time.Time `json:"created_at"`
}

func summarize(u models.User) UserSummary {
	return UserSummary{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Bio:       u.Bio,
		AvatarURL: u.AvatarURL,
		CreatedAt: u.CreatedAt,
	}
}

// UserDetails adds the fields only shown on a full profile.
type UserDetails struct {
	UserSummary
	Address   *string   `json:"address"`
	UpdatedAt time.Time `json:"updated_at"`
}

func detail(u models.User) UserDetails {
	return UserDetails{UserSummary: summarize(u), Address: u.Address, UpdatedAt: u.UpdatedAt}
}

type ProfileView struct {
	UserDetails
	Stats cache.Stats `json:"stats"`
}

// RelationshipView describes how the viewer relates to a profile.
type RelationshipView struct {
	FriendshipStatus *models.FriendshipStatus `json:"friendship_status"`
	FriendshipID     *uuid.UUID               `json:"friendship_id"`
	IsRequester      bool                     `json:"is_requester"`
	IsFollowing      bool                     `json:"is_following"`
	FollowsYou       bool                     `json:"follows_you"`
}

type PublicProfileView struct {
	UserSummary
	Address      *string          `json:"address"`
	Stats        cache.Stats      `json:"stats"`
	Relationship RelationshipView `json:"relationship"`
}

// ListedUser is a row of the explore listing.
type ListedUser struct {
	UserSummary
	FriendsCount     int64                    `json:"friends_count"`
	FollowersCount   int64                    `json:"followers_count"`
	FriendshipStatus *models.FriendshipStatus `json:"friendship_status"`
	FriendshipID     *uuid.UUID               `json:"friendship_id"`
	IsRequester      bool                     `json:"is_requester"`
	IsFollowing      bool                     `json:"is_following"`
}

type FriendView struct {
	UserSummary
	FriendsCount   int64     `json:"friends_count"`
	FollowersCount int64     `json:"followers_count"`
	FriendshipID   uuid.UUID `json:"friendship_id"`
	FriendshipDate time.Time `json:"friendship_date"`
}

type RequestView struct {
	UserSummary
	FriendsCount   int64     `json:"friends_count"`
	FollowersCount int64     `json:"followers_count"`
	FriendshipID   uuid.UUID `json:"friendship_id"`
	RequestDate    time.Time `json:"request_date"`
}

// FollowerView is a user following the viewer.
type FollowerView struct {
	UserSummary
	FollowedDate     time.Time                `json:"followed_date"`
	FriendsCount     int64                    `json:"friends_count"`
	FollowersCount   int64                    `json:"followers_count"`
	IsFollowingBack  bool                     `json:"is_following_back"`
	FriendshipStatus *models.FriendshipStatus `json:"friendship_status"`
}

// FollowingView is a user the viewer follows.
type FollowingView struct {
	UserSummary
	FollowedDate     time.Time                `json:"followed_date"`
	FriendsCount     int64                    `json:"friends_count"`
	FollowersCount   int64                    `json:"followers_count"`
	FollowsYouBack   bool                     `json:"follows_you_back"`
	FriendshipStatus *models.FriendshipStatus `json:"friendship_status"`
}

type FollowStats struct {
	Followers     int64 `json:"followers"`
	Following     int64 `json:"following"`
	MutualFollows int64 `json:"mutualFollows"`
}
