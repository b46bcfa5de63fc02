package models

import (
	"bytes"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FriendshipStatus defines the state of a friendship between two users.
type FriendshipStatus string

const (
	// StatusPending means a request has been sent and awaits the other side.
	StatusPending FriendshipStatus = "pending"

	// StatusAccepted means both users are friends.
	StatusAccepted FriendshipStatus = "accepted"

	// StatusRejected means the recipient declined. The row is kept so that
	// either side can send a new request without creating a second row.
	StatusRejected FriendshipStatus = "rejected"
)

var ErrSelfFriendship = errors.New("a user cannot befriend themselves")

// Friendship is the single row describing the relationship of an unordered
// pair of users. UserID always holds the smaller of the two ids, so the
// unique pair index covers both orderings.
type Friendship struct {
	ID          uuid.UUID        `gorm:"type:uuid;primaryKey"`
	UserID      uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_friendships_pair"`
	FriendID    uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_friendships_pair;index"`
	RequesterID uuid.UUID        `gorm:"type:uuid;not null"`
	Status      FriendshipStatus `gorm:"type:varchar(20);not null;index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	User   User `gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Friend User `gorm:"foreignKey:FriendID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

// OrderedPair returns a and b with the smaller id first.
func OrderedPair(a, b uuid.UUID) (uuid.UUID, uuid.UUID) {
	if bytes.Compare(a[:], b[:]) > 0 {
		return b, a
	}
	return a, b
}

// NewFriendship builds a pending request from requester to recipient.
func NewFriendship(requester, recipient uuid.UUID) Friendship {
	low, high := OrderedPair(requester, recipient)
	return Friendship{
		UserID:      low,
		FriendID:    high,
		RequesterID: requester,
		Status:      StatusPending,
	}
}

func (f *Friendship) BeforeCreate(_ *gorm.DB) error {
	if f.UserID == f.FriendID {
		return ErrSelfFriendship
	}
	f.UserID, f.FriendID = OrderedPair(f.UserID, f.FriendID)
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

// Involves reports whether the user is one of the two participants.
func (f Friendship) Involves(userID uuid.UUID) bool {
	return f.UserID == userID || f.FriendID == userID
}

// Counterpart returns the participant that is not userID.
func (f Friendship) Counterpart(userID uuid.UUID) uuid.UUID {
	if f.UserID == userID {
		return f.FriendID
	}
	return f.UserID
}
