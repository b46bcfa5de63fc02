package service

import (
	"context"
	"errors"
	"fmt"

	"abbey/backend/internal/cache"
	"abbey/backend/internal/database"
	"abbey/backend/internal/metrics"
	"abbey/backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FollowService maintains the directed follow graph. Following needs no
// approval from the target.
type FollowService struct {
	db        *gorm.DB
	relations *RelationQuery
}

func NewFollowService(db *gorm.DB, relations *RelationQuery) *FollowService {
	return &FollowService{db: db, relations: relations}
}

// Follow adds the edge viewer -> target.
func (s *FollowService) Follow(ctx context.Context, viewer, target uuid.UUID) (*models.Follow, error) {
	if viewer == target {
		return nil, invalid("Cannot follow yourself")
	}

	exists, err := s.relations.userExists(ctx, target)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, notFound("User not found")
	}

	edge := models.Follow{FollowerID: viewer, FollowingID: target}
	if err := database.Write(ctx, s.db).Create(&edge).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, invalid("You are already following this user")
		}
		return nil, fmt.Errorf("create follow: %w", err)
	}

	s.relations.Invalidate(ctx, viewer, target)
	metrics.RecordTransition(metrics.GraphFollow, "follow")
	return &edge, nil
}

// Unfollow removes the edge viewer -> target.
func (s *FollowService) Unfollow(ctx context.Context, viewer, target uuid.UUID) error {
	if viewer == target {
		return invalid("Cannot unfollow yourself")
	}
	if err := s.deleteEdge(ctx, viewer, target, "You are not following this user"); err != nil {
		return err
	}
	metrics.RecordTransition(metrics.GraphFollow, "unfollow")
	return nil
}

// RemoveFollower removes the edge follower -> viewer, the reverse direction
// of Unfollow.
func (s *FollowService) RemoveFollower(ctx context.Context, viewer, follower uuid.UUID) error {
	if viewer == follower {
		return invalid("Cannot remove yourself")
	}
	if err := s.deleteEdge(ctx, follower, viewer, "This user is not following you"); err != nil {
		return err
	}
	metrics.RecordTransition(metrics.GraphFollow, "remove")
	return nil
}

func (s *FollowService) deleteEdge(ctx context.Context, follower, following uuid.UUID, missing string) error {
	res := database.Write(ctx, s.db).
		Where("follower_id = ? AND following_id = ?", follower, following).
		Delete(&models.Follow{})
	if res.Error != nil {
		return fmt.Errorf("delete follow: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound(missing)
	}
	s.relations.Invalidate(ctx, follower, following)
	return nil
}

// Followers lists users following viewer, most recent first.
func (s *FollowService) Followers(ctx context.Context, viewer uuid.UUID) ([]FollowerView, error) {
	edges, err := s.edges(ctx, "following_id = ?", viewer)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, len(edges))
	for i, e := range edges {
		ids[i] = e.FollowerID
	}
	users, stats, rel, err := s.enrich(ctx, viewer, ids)
	if err != nil {
		return nil, err
	}

	followers := make([]FollowerView, 0, len(edges))
	for i, e := range edges {
		u, ok := users[ids[i]]
		if !ok {
			continue
		}
		followers = append(followers, FollowerView{
			UserSummary:      summarize(u),
			FollowedDate:     e.CreatedAt,
			FriendsCount:     stats[u.ID].Friends,
			FollowersCount:   stats[u.ID].Followers,
			IsFollowingBack:  rel[u.ID].IsFollowing,
			FriendshipStatus: rel[u.ID].FriendshipStatus,
		})
	}
	return followers, nil
}

// Following lists users viewer follows, most recent first.
func (s *FollowService) Following(ctx context.Context, viewer uuid.UUID) ([]FollowingView, error) {
	edges, err := s.edges(ctx, "follower_id = ?", viewer)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, len(edges))
	for i, e := range edges {
		ids[i] = e.FollowingID
	}
	users, stats, rel, err := s.enrich(ctx, viewer, ids)
	if err != nil {
		return nil, err
	}

	following := make([]FollowingView, 0, len(edges))
	for i, e := range edges {
		u, ok := users[ids[i]]
		if !ok {
			continue
		}
		following = append(following, FollowingView{
			UserSummary:      summarize(u),
			FollowedDate:     e.CreatedAt,
			FriendsCount:     stats[u.ID].Friends,
			FollowersCount:   stats[u.ID].Followers,
			FollowsYouBack:   rel[u.ID].FollowsYou,
			FriendshipStatus: rel[u.ID].FriendshipStatus,
		})
	}
	return following, nil
}

// Stats counts viewer's followers, followees and the users that are both.
func (s *FollowService) Stats(ctx context.Context, viewer uuid.UUID) (*FollowStats, error) {
	var stats FollowStats

	err := database.Read(ctx, s.db).Model(&models.Follow{}).
		Where("following_id = ?", viewer).Count(&stats.Followers).Error
	if err != nil {
		return nil, fmt.Errorf("count followers: %w", err)
	}

	err = database.Read(ctx, s.db).Model(&models.Follow{}).
		Where("follower_id = ?", viewer).Count(&stats.Following).Error
	if err != nil {
		return nil, fmt.Errorf("count following: %w", err)
	}

	err = database.Read(ctx, s.db).Table("follows AS f1").
		Where("f1.following_id = ?", viewer).
		Where("EXISTS (SELECT 1 FROM follows f2 WHERE f2.follower_id = ? AND f2.following_id = f1.follower_id)", viewer).
		Count(&stats.MutualFollows).Error
	if err != nil {
		return nil, fmt.Errorf("count mutual follows: %w", err)
	}

	return &stats, nil
}

func (s *FollowService) edges(ctx context.Context, where string, viewer uuid.UUID) ([]models.Follow, error) {
	var edges []models.Follow
	if err := database.Read(ctx, s.db).Where(where, viewer).Order("created_at DESC").Find(&edges).Error; err != nil {
		return nil, fmt.Errorf("list follows: %w", err)
	}
	return edges, nil
}

func (s *FollowService) enrich(ctx context.Context, viewer uuid.UUID, ids []uuid.UUID) (
	map[uuid.UUID]models.User, map[uuid.UUID]cache.Stats, map[uuid.UUID]ViewerRelation, error,
) {
	users, err := s.relations.Users(ctx, ids)
	if err != nil {
		return nil, nil, nil, err
	}
	stats, err := s.relations.Stats(ctx, ids)
	if err != nil {
		return nil, nil, nil, err
	}
	rel, err := s.relations.ViewerContext(ctx, viewer, ids)
	if err != nil {
		return nil, nil, nil, err
	}
	return users, stats, rel, nil
}
