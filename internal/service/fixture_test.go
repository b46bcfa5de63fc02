package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"abbey/backend/internal/cache"
	"abbey/backend/internal/dbtest"
	"abbey/backend/internal/models"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type memCache struct {
	mu          sync.Mutex
	entries     map[uuid.UUID]cache.Stats
	gens        map[uuid.UUID]int64
	invalidated []uuid.UUID
	getErr      error

	// beforeSet runs once, outside the lock, at the start of the next SetMany.
	beforeSet func()
}

func newMemCache() *memCache {
	return &memCache{entries: map[uuid.UUID]cache.Stats{}, gens: map[uuid.UUID]int64{}}
}

func (m *memCache) GetMany(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]cache.Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	out := map[uuid.UUID]cache.Stats{}
	for _, id := range ids {
		if s, ok := m.entries[id]; ok {
			out[id] = s
		}
	}
	return out, nil
}

func (m *memCache) Generations(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[uuid.UUID]int64, len(ids))
	for _, id := range ids {
		out[id] = m.gens[id]
	}
	return out, nil
}

func (m *memCache) SetMany(_ context.Context, stats map[uuid.UUID]cache.Stats, gens map[uuid.UUID]int64) error {
	m.mu.Lock()
	hook := m.beforeSet
	m.beforeSet = nil
	m.mu.Unlock()
	if hook != nil {
		hook()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range stats {
		if gen, ok := gens[id]; ok && gen == m.gens[id] {
			m.entries[id] = s
		}
	}
	return nil
}

func (m *memCache) Invalidate(_ context.Context, ids ...uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		m.gens[id]++
		delete(m.entries, id)
	}
	m.invalidated = append(m.invalidated, ids...)
	return nil
}

func (m *memCache) cached(id uuid.UUID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.entries[id]
	return ok
}

type fixture struct {
	db        *gorm.DB
	cache     *memCache
	relations *RelationQuery
	friends   *FriendService
	follows   *FollowService
	users     *UserService
	auth      *AuthService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.Open(t)
	mc := newMemCache()
	relations := NewRelationQuery(db, mc, zap.NewNop())
	return &fixture{
		db:        db,
		cache:     mc,
		relations: relations,
		friends:   NewFriendService(db, relations),
		follows:   NewFollowService(db, relations),
		users:     NewUserService(db, relations),
		auth:      NewAuthService(db, "test-secret", time.Hour),
	}
}

func (f *fixture) user(t *testing.T) models.User {
	t.Helper()
	u := models.User{
		Email:        strings.ToLower(gofakeit.Username()) + "." + uuid.NewString()[:8] + "@example.com",
		Name:         gofakeit.Name(),
		PasswordHash: "x",
	}
	require.NoError(t, f.db.Create(&u).Error)
	return u
}

func (f *fixture) befriend(t *testing.T, a, b models.User) models.Friendship {
	t.Helper()
	res, err := f.friends.SendRequest(context.Background(), a.ID, b.ID)
	require.NoError(t, err)
	accepted, err := f.friends.Accept(context.Background(), b.ID, res.Friendship.ID)
	require.NoError(t, err)
	return *accepted
}

func (f *fixture) follow(t *testing.T, follower, following models.User) {
	t.Helper()
	_, err := f.follows.Follow(context.Background(), follower.ID, following.ID)
	require.NoError(t, err)
}

// requireKind asserts err is a service Error of the given kind and message.
func requireKind(t *testing.T, err error, kind Kind, msg string) {
	t.Helper()
	require.Error(t, err)
	e, ok := AsError(err)
	require.True(t, ok, "expected service error, got %v", err)
	require.Equal(t, kind, e.Kind)
	require.Equal(t, msg, e.Message)
}
