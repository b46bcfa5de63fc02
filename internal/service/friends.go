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

// FriendService applies friendship transitions:
//
//	none -> pending -> accepted -> none (unfriend)
//	pending -> none (cancel by requester)
//	pending -> rejected -> pending (new request from either side)
type FriendService struct {
	db        *gorm.DB
	relations *RelationQuery
}

func NewFriendService(db *gorm.DB, relations *RelationQuery) *FriendService {
	return &FriendService{db: db, relations: relations}
}

// SendResult is the row a request created or revived.
type SendResult struct {
	Friendship models.Friendship
	Revived    bool
}

// SendRequest asks target to become friends with viewer. A rejected row is
// reused with viewer as the new requester.
func (s *FriendService) SendRequest(ctx context.Context, viewer, target uuid.UUID) (*SendResult, error) {
	if viewer == target {
		return nil, invalid("Cannot send friend request to yourself")
	}

	exists, err := s.relations.userExists(ctx, target)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, notFound("User not found")
	}

	var result SendResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		low, high := models.OrderedPair(viewer, target)

		var existing models.Friendship
		err := tx.Where("user_id = ? AND friend_id = ?", low, high).First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			f := models.NewFriendship(viewer, target)
			if err := tx.Create(&f).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return invalid("Friend request already sent")
				}
				return fmt.Errorf("create friendship: %w", err)
			}
			result.Friendship = f
			return nil
		case err != nil:
			return fmt.Errorf("find friendship: %w", err)
		}

		switch existing.Status {
		case models.StatusAccepted:
			return invalid("You are already friends")
		case models.StatusPending:
			return invalid("Friend request already sent")
		}

		res := tx.Model(&models.Friendship{}).
			Where("id = ? AND status = ?", existing.ID, models.StatusRejected).
			Updates(map[string]any{"status": models.StatusPending, "requester_id": viewer})
		if res.Error != nil {
			return fmt.Errorf("revive friendship: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return invalid("Friend request already sent")
		}
		existing.Status = models.StatusPending
		existing.RequesterID = viewer
		result.Friendship = existing
		result.Revived = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordTransition(metrics.GraphFriendship, "request")
	return &result, nil
}

// Accept moves a pending request addressed to viewer to accepted.
func (s *FriendService) Accept(ctx context.Context, viewer, friendshipID uuid.UUID) (*models.Friendship, error) {
	return s.respond(ctx, viewer, friendshipID, models.StatusAccepted, "accept")
}

// Reject moves a pending request addressed to viewer to rejected. The row
// stays so a later request can revive it.
func (s *FriendService) Reject(ctx context.Context, viewer, friendshipID uuid.UUID) (*models.Friendship, error) {
	return s.respond(ctx, viewer, friendshipID, models.StatusRejected, "reject")
}

func (s *FriendService) respond(ctx context.Context, viewer, friendshipID uuid.UUID, to models.FriendshipStatus, verb string) (*models.Friendship, error) {
	f, err := s.find(ctx, friendshipID)
	if err != nil {
		return nil, err
	}

	if f.RequesterID == viewer {
		return nil, forbidden("Cannot " + verb + " your own friend request")
	}
	if !f.Involves(viewer) {
		return nil, forbidden("Unauthorized to " + verb + " this request")
	}
	if to == models.StatusAccepted && f.Status == models.StatusAccepted {
		return nil, invalid("Friend request already accepted")
	}
	if f.Status != models.StatusPending {
		return nil, invalid("Friend request is not pending")
	}

	res := database.Write(ctx, s.db).Model(&models.Friendship{}).
		Where("id = ? AND status = ?", f.ID, models.StatusPending).
		Update("status", to)
	if res.Error != nil {
		return nil, fmt.Errorf("%s friendship: %w", verb, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, invalid("Friend request is not pending")
	}
	f.Status = to

	if to == models.StatusAccepted {
		s.relations.Invalidate(ctx, f.UserID, f.FriendID)
	}
	metrics.RecordTransition(metrics.GraphFriendship, verb)
	return f, nil
}

// Cancel deletes a pending request that viewer sent.
func (s *FriendService) Cancel(ctx context.Context, viewer, friendshipID uuid.UUID) error {
	f, err := s.find(ctx, friendshipID)
	if err != nil {
		return err
	}

	if f.RequesterID != viewer {
		return forbidden("Cannot cancel request you did not send")
	}
	if f.Status != models.StatusPending {
		return invalid("Can only cancel pending requests")
	}

	res := database.Write(ctx, s.db).
		Where("id = ? AND status = ?", f.ID, models.StatusPending).
		Delete(&models.Friendship{})
	if res.Error != nil {
		return fmt.Errorf("cancel friendship: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return invalid("Can only cancel pending requests")
	}

	metrics.RecordTransition(metrics.GraphFriendship, "cancel")
	return nil
}

// Unfriend deletes the accepted friendship between viewer and target.
func (s *FriendService) Unfriend(ctx context.Context, viewer, target uuid.UUID) error {
	if viewer == target {
		return invalid("Cannot unfriend yourself")
	}

	low, high := models.OrderedPair(viewer, target)
	res := database.Write(ctx, s.db).
		Where("user_id = ? AND friend_id = ? AND status = ?", low, high, models.StatusAccepted).
		Delete(&models.Friendship{})
	if res.Error != nil {
		return fmt.Errorf("remove friendship: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound("Friendship not found or not accepted")
	}

	s.relations.Invalidate(ctx, viewer, target)
	metrics.RecordTransition(metrics.GraphFriendship, "unfriend")
	return nil
}

func (s *FriendService) find(ctx context.Context, friendshipID uuid.UUID) (*models.Friendship, error) {
	var f models.Friendship
	err := database.Write(ctx, s.db).First(&f, "id = ?", friendshipID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("Friend request not found")
	}
	if err != nil {
		return nil, fmt.Errorf("find friendship: %w", err)
	}
	return &f, nil
}

// Friends lists viewer's accepted friendships, newest first.
func (s *FriendService) Friends(ctx context.Context, viewer uuid.UUID) ([]FriendView, error) {
	rows, err := s.list(ctx, "(user_id = ? OR friend_id = ?) AND status = ?", "created_at DESC",
		viewer, viewer, models.StatusAccepted)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, len(rows))
	for i, f := range rows {
		ids[i] = f.Counterpart(viewer)
	}
	users, stats, err := s.usersWithStats(ctx, ids)
	if err != nil {
		return nil, err
	}

	friends := make([]FriendView, 0, len(rows))
	for i, f := range rows {
		u, ok := users[ids[i]]
		if !ok {
			continue
		}
		friends = append(friends, FriendView{
			UserSummary:    summarize(u),
			FriendsCount:   stats[u.ID].Friends,
			FollowersCount: stats[u.ID].Followers,
			FriendshipID:   f.ID,
			FriendshipDate: f.CreatedAt,
		})
	}
	return friends, nil
}

// ReceivedRequests lists pending requests other users sent to viewer.
func (s *FriendService) ReceivedRequests(ctx context.Context, viewer uuid.UUID) ([]RequestView, error) {
	rows, err := s.list(ctx, "(user_id = ? OR friend_id = ?) AND requester_id <> ? AND status = ?", "updated_at DESC",
		viewer, viewer, viewer, models.StatusPending)
	if err != nil {
		return nil, err
	}
	return s.requests(ctx, viewer, rows)
}

// SentRequests lists pending requests viewer sent.
func (s *FriendService) SentRequests(ctx context.Context, viewer uuid.UUID) ([]RequestView, error) {
	rows, err := s.list(ctx, "requester_id = ? AND status = ?", "updated_at DESC",
		viewer, models.StatusPending)
	if err != nil {
		return nil, err
	}
	return s.requests(ctx, viewer, rows)
}

func (s *FriendService) requests(ctx context.Context, viewer uuid.UUID, rows []models.Friendship) ([]RequestView, error) {
	ids := make([]uuid.UUID, len(rows))
	for i, f := range rows {
		ids[i] = f.Counterpart(viewer)
	}
	users, stats, err := s.usersWithStats(ctx, ids)
	if err != nil {
		return nil, err
	}

	requests := make([]RequestView, 0, len(rows))
	for i, f := range rows {
		u, ok := users[ids[i]]
		if !ok {
			continue
		}
		requests = append(requests, RequestView{
			UserSummary:    summarize(u),
			FriendsCount:   stats[u.ID].Friends,
			FollowersCount: stats[u.ID].Followers,
			FriendshipID:   f.ID,
			RequestDate:    f.UpdatedAt,
		})
	}
	return requests, nil
}

func (s *FriendService) list(ctx context.Context, where, order string, args ...any) ([]models.Friendship, error) {
	var rows []models.Friendship
	if err := database.Read(ctx, s.db).Where(where, args...).Order(order).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list friendships: %w", err)
	}
	return rows, nil
}

func (s *FriendService) usersWithStats(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.User, map[uuid.UUID]cache.Stats, error) {
	users, err := s.relations.Users(ctx, ids)
	if err != nil {
		return nil, nil, err
	}
	stats, err := s.relations.Stats(ctx, ids)
	if err != nil {
		return nil, nil, err
	}
	return users, stats, nil
}
