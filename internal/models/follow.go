package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrSelfFollow = errors.New("a user cannot follow themselves")

// Follow is a directed edge: FollowerID follows FollowingID.
type Follow struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	FollowerID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_follows_edge"`
	FollowingID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_follows_edge;index"`
	CreatedAt   time.Time

	Follower  User `gorm:"foreignKey:FollowerID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Following User `gorm:"foreignKey:FollowingID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

func (f *Follow) BeforeCreate(_ *gorm.DB) error {
	if f.FollowerID == f.FollowingID {
		return ErrSelfFollow
	}
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}
