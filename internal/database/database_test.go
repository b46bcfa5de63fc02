package database_test

import (
	"testing"

	"abbey/backend/internal/dbtest"
	"abbey/backend/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func createUser(t *testing.T, db *gorm.DB, email string) models.User {
	t.Helper()
	u := models.User{Email: email, Name: email, PasswordHash: "x"}
	require.NoError(t, db.Create(&u).Error)
	return u
}

func TestMigrate_FriendshipPairIsUnique(t *testing.T) {
	db := dbtest.Open(t)
	a := createUser(t, db, "a@example.com")
	b := createUser(t, db, "b@example.com")

	first := models.NewFriendship(a.ID, b.ID)
	require.NoError(t, db.Create(&first).Error)

	// The reverse direction lands on the same canonical pair.
	second := models.NewFriendship(b.ID, a.ID)
	err := db.Create(&second).Error
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	var count int64
	db.Model(&models.Friendship{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestMigrate_FollowEdgeIsUniquePerDirection(t *testing.T) {
	db := dbtest.Open(t)
	a := createUser(t, db, "a@example.com")
	b := createUser(t, db, "b@example.com")

	require.NoError(t, db.Create(&models.Follow{FollowerID: a.ID, FollowingID: b.ID}).Error)
	require.NoError(t, db.Create(&models.Follow{FollowerID: b.ID, FollowingID: a.ID}).Error)

	err := db.Create(&models.Follow{FollowerID: a.ID, FollowingID: b.ID}).Error
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestMigrate_RejectsSelfRows(t *testing.T) {
	db := dbtest.Open(t)
	a := createUser(t, db, "a@example.com")

	f := models.Friendship{UserID: a.ID, FriendID: a.ID, RequesterID: a.ID, Status: models.StatusPending}
	assert.ErrorIs(t, db.Create(&f).Error, models.ErrSelfFriendship)

	assert.ErrorIs(t, db.Create(&models.Follow{FollowerID: a.ID, FollowingID: a.ID}).Error, models.ErrSelfFollow)
}

func TestUser_GetsGeneratedID(t *testing.T) {
	db := dbtest.Open(t)
	u := createUser(t, db, "a@example.com")
	assert.NotEqual(t, uuid.Nil, u.ID)

	var loaded models.User
	require.NoError(t, db.First(&loaded, "id = ?", u.ID).Error)
	assert.Equal(t, u.Email, loaded.Email)
}
