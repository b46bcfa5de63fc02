package service

import (
	"context"
	"fmt"

	"abbey/backend/internal/cache"
	"abbey/backend/internal/database"
	"abbey/backend/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ViewerRelation is how one user relates to the viewer, derived from both
// graphs at query time.
type ViewerRelation struct {
	FriendshipID     *uuid.UUID
	FriendshipStatus *models.FriendshipStatus
	IsRequester      bool // the viewer sent the current friendship row
	IsFollowing      bool // viewer -> user
	FollowsYou       bool // user -> viewer
}

// batchSize bounds the ids bound into a single IN list so large lookups stay
// under the driver's parameter limit.
var batchSize = 1000

// RelationQuery computes aggregate counters and viewer context over the
// friendship and follow graphs.
type RelationQuery struct {
	db    *gorm.DB
	cache cache.StatsCache
	log   *zap.Logger

	// Counts that end up in a shared cache are taken from the primary, a
	// replica may not have seen the write whose Invalidate already ran.
	countOnPrimary bool
}

func NewRelationQuery(db *gorm.DB, statsCache cache.StatsCache, log *zap.Logger) *RelationQuery {
	if statsCache == nil {
		statsCache = cache.Nop{}
	}
	_, nop := statsCache.(cache.Nop)
	return &RelationQuery{db: db, cache: statsCache, log: log, countOnPrimary: !nop}
}

type idCount struct {
	ID uuid.UUID
	N  int64
}

// Stats returns counters for every id. Cached entries are used when present;
// the rest are counted and written back unless a mutation invalidated them
// while they were being counted.
func (q *RelationQuery) Stats(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]cache.Stats, error) {
	ids = distinct(ids)
	result := make(map[uuid.UUID]cache.Stats, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	cached, err := q.cache.GetMany(ctx, ids)
	if err != nil {
		q.log.Warn("stats cache read failed", zap.Error(err))
		cached = nil
	}

	var missing []uuid.UUID
	for _, id := range ids {
		if s, ok := cached[id]; ok {
			result[id] = s
			continue
		}
		missing = append(missing, id)
	}
	if len(missing) == 0 {
		return result, nil
	}

	// Generations must be read before counting.
	gens, err := q.cache.Generations(ctx, missing)
	if err != nil {
		q.log.Warn("stats cache generation read failed", zap.Error(err))
		gens = nil
	}

	counted, err := q.count(ctx, missing)
	if err != nil {
		return nil, err
	}
	for id, s := range counted {
		result[id] = s
	}
	if len(gens) == 0 {
		return result, nil
	}
	if err := q.cache.SetMany(ctx, counted, gens); err != nil {
		q.log.Warn("stats cache write failed", zap.Error(err))
	}
	return result, nil
}

func (q *RelationQuery) countSession(ctx context.Context) *gorm.DB {
	if q.countOnPrimary {
		return database.Write(ctx, q.db)
	}
	return database.Read(ctx, q.db)
}

func (q *RelationQuery) count(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]cache.Stats, error) {
	stats := make(map[uuid.UUID]cache.Stats, len(ids))
	for _, id := range ids {
		stats[id] = cache.Stats{}
	}

	for _, batch := range batches(ids) {
		// Each accepted row counts once for each of its two participants.
		for _, column := range []string{"user_id", "friend_id"} {
			var rows []idCount
			err := q.countSession(ctx).Model(&models.Friendship{}).
				Select(column+" AS id, COUNT(*) AS n").
				Where("status = ? AND "+column+" IN ?", models.StatusAccepted, batch).
				Group(column).
				Scan(&rows).Error
			if err != nil {
				return nil, fmt.Errorf("count friends: %w", err)
			}
			for _, r := range rows {
				s := stats[r.ID]
				s.Friends += r.N
				stats[r.ID] = s
			}
		}

		var followers []idCount
		err := q.countSession(ctx).Model(&models.Follow{}).
			Select("following_id AS id, COUNT(*) AS n").
			Where("following_id IN ?", batch).
			Group("following_id").
			Scan(&followers).Error
		if err != nil {
			return nil, fmt.Errorf("count followers: %w", err)
		}
		for _, r := range followers {
			s := stats[r.ID]
			s.Followers = r.N
			stats[r.ID] = s
		}

		var following []idCount
		err = q.countSession(ctx).Model(&models.Follow{}).
			Select("follower_id AS id, COUNT(*) AS n").
			Where("follower_id IN ?", batch).
			Group("follower_id").
			Scan(&following).Error
		if err != nil {
			return nil, fmt.Errorf("count following: %w", err)
		}
		for _, r := range following {
			s := stats[r.ID]
			s.Following = r.N
			stats[r.ID] = s
		}
	}

	return stats, nil
}

// ViewerContext returns, for every id, the friendship and follow state
// between the viewer and that user.
func (q *RelationQuery) ViewerContext(ctx context.Context, viewer uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]ViewerRelation, error) {
	ids = distinct(ids)
	result := make(map[uuid.UUID]ViewerRelation, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	for _, id := range ids {
		result[id] = ViewerRelation{}
	}

	var friendships []models.Friendship
	var edges []models.Follow
	for _, batch := range batches(ids) {
		var fs []models.Friendship
		err := database.Read(ctx, q.db).
			Where("(user_id = ? AND friend_id IN ?) OR (friend_id = ? AND user_id IN ?)", viewer, batch, viewer, batch).
			Find(&fs).Error
		if err != nil {
			return nil, fmt.Errorf("load viewer friendships: %w", err)
		}
		friendships = append(friendships, fs...)

		var es []models.Follow
		err = database.Read(ctx, q.db).
			Where("(follower_id = ? AND following_id IN ?) OR (following_id = ? AND follower_id IN ?)", viewer, batch, viewer, batch).
			Find(&es).Error
		if err != nil {
			return nil, fmt.Errorf("load viewer follows: %w", err)
		}
		edges = append(edges, es...)
	}

	for _, f := range friendships {
		other := f.Counterpart(viewer)
		id, status := f.ID, f.Status
		r := result[other]
		r.FriendshipID = &id
		r.FriendshipStatus = &status
		r.IsRequester = f.RequesterID == viewer
		result[other] = r
	}

	for _, e := range edges {
		if e.FollowerID == viewer {
			r := result[e.FollowingID]
			r.IsFollowing = true
			result[e.FollowingID] = r
		} else {
			r := result[e.FollowerID]
			r.FollowsYou = true
			result[e.FollowerID] = r
		}
	}
	return result, nil
}

// Users loads users by id.
func (q *RelationQuery) Users(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.User, error) {
	ids = distinct(ids)
	result := make(map[uuid.UUID]models.User, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	for _, batch := range batches(ids) {
		var users []models.User
		if err := database.Read(ctx, q.db).Where("id IN ?", batch).Find(&users).Error; err != nil {
			return nil, fmt.Errorf("load users: %w", err)
		}
		for _, u := range users {
			result[u.ID] = u
		}
	}
	return result, nil
}

// Invalidate drops cached counters after a change that affects them.
func (q *RelationQuery) Invalidate(ctx context.Context, ids ...uuid.UUID) {
	if err := q.cache.Invalidate(ctx, ids...); err != nil {
		q.log.Warn("stats cache invalidation failed", zap.Error(err), zap.Int("users", len(ids)))
	}
}

func (q *RelationQuery) userExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	if err := database.Write(ctx, q.db).Model(&models.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("check user: %w", err)
	}
	return count > 0, nil
}

func distinct(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func batches(ids []uuid.UUID) [][]uuid.UUID {
	var out [][]uuid.UUID
	for len(ids) > batchSize {
		out = append(out, ids[:batchSize:batchSize])
		ids = ids[batchSize:]
	}
	if len(ids) > 0 {
		out = append(out, ids)
	}
	return out
}
