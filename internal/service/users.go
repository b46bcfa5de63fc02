package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"abbey/backend/internal/database"
	"abbey/backend/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

var validate = validator.New()

// ProfilePatch holds the profile columns a user may change. A nil field is
// left untouched.
type ProfilePatch struct {
	Name      *string `json:"name" validate:"omitnil,min=1"`
	Bio       *string `json:"bio" validate:"omitnil,max=500"`
	Address   *string `json:"address" validate:"omitnil,max=200"`
	AvatarURL *string `json:"avatar_url" validate:"omitnil,max=1024"`
}

var patchMessages = map[string]string{
	"Name":      "Name cannot be empty",
	"Bio":       "Bio must be 500 characters or less",
	"Address":   "Address must be 200 characters or less",
	"AvatarURL": "Avatar URL must be 1024 characters or less",
}

// Normalize trims every set field.
func (p ProfilePatch) Normalize() ProfilePatch {
	trim := func(s *string) *string {
		if s == nil {
			return nil
		}
		v := strings.TrimSpace(*s)
		return &v
	}
	return ProfilePatch{
		Name:      trim(p.Name),
		Bio:       trim(p.Bio),
		Address:   trim(p.Address),
		AvatarURL: trim(p.AvatarURL),
	}
}

// Validate checks a normalized patch.
func (p ProfilePatch) Validate() error {
	if err := validate.Struct(p); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			if msg, ok := patchMessages[fieldErrs[0].StructField()]; ok {
				return invalid(msg)
			}
		}
		return fmt.Errorf("validate profile patch: %w", err)
	}
	if p.Name == nil && p.Bio == nil && p.Address == nil && p.AvatarURL == nil {
		return invalid("No fields to update")
	}
	return nil
}

// Columns maps the set fields onto user columns. Empty optional values
// become NULL.
func (p ProfilePatch) Columns() map[string]any {
	nullable := func(s *string) any {
		if *s == "" {
			return nil
		}
		return *s
	}

	cols := make(map[string]any, 4)
	if p.Name != nil {
		cols["name"] = *p.Name
	}
	if p.Bio != nil {
		cols["bio"] = nullable(p.Bio)
	}
	if p.Address != nil {
		cols["address"] = nullable(p.Address)
	}
	if p.AvatarURL != nil {
		cols["avatar_url"] = nullable(p.AvatarURL)
	}
	return cols
}

const maxPage = math.MaxInt / MaxPageLimit

// ListParams selects a page of the user directory.
type ListParams struct {
	Search string
	Page   int
	Limit  int
}

func (p ListParams) normalize() ListParams {
	p.Search = strings.TrimSpace(p.Search)
	if p.Page < 1 {
		p.Page = 1
	}
	// Keeps (Page-1)*Limit inside an int.
	if p.Page > maxPage {
		p.Page = maxPage
	}
	if p.Limit < 1 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	return p
}

// UserPage is one page of the user directory.
type UserPage struct {
	Users []ListedUser
	Total int64
	Page  int
	Limit int
}

type UserService struct {
	db        *gorm.DB
	relations *RelationQuery
}

func NewUserService(db *gorm.DB, relations *RelationQuery) *UserService {
	return &UserService{db: db, relations: relations}
}

// Profile returns the viewer's own profile with counters.
func (s *UserService) Profile(ctx context.Context, viewer uuid.UUID) (*ProfileView, error) {
	u, err := s.find(ctx, viewer)
	if err != nil {
		return nil, err
	}
	stats, err := s.relations.Stats(ctx, []uuid.UUID{u.ID})
	if err != nil {
		return nil, err
	}
	return &ProfileView{UserDetails: detail(*u), Stats: stats[u.ID]}, nil
}

// UpdateProfile applies patch to the viewer's row and returns the result.
func (s *UserService) UpdateProfile(ctx context.Context, viewer uuid.UUID, patch ProfilePatch) (*UserDetails, error) {
	patch = patch.Normalize()
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	res := database.Write(ctx, s.db).Model(&models.User{ID: viewer}).Updates(patch.Columns())
	if res.Error != nil {
		return nil, fmt.Errorf("update profile: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, notFound("User not found")
	}

	var u models.User
	if err := database.Write(ctx, s.db).First(&u, "id = ?", viewer).Error; err != nil {
		return nil, fmt.Errorf("reload profile: %w", err)
	}
	d := detail(u)
	return &d, nil
}

// List returns every user except the viewer, newest first, with counters
// and the viewer's relationship to each.
func (s *UserService) List(ctx context.Context, viewer uuid.UUID, params ListParams) (*UserPage, error) {
	params = params.normalize()

	filter := func(db *gorm.DB) *gorm.DB {
		db = db.Where("id <> ?", viewer)
		if params.Search != "" {
			pattern := "%" + strings.ToLower(params.Search) + "%"
			db = db.Where("(LOWER(name) LIKE ? OR LOWER(email) LIKE ?)", pattern, pattern)
		}
		return db
	}

	page := &UserPage{Users: []ListedUser{}, Page: params.Page, Limit: params.Limit}
	if err := database.Read(ctx, s.db).Model(&models.User{}).Scopes(filter).Count(&page.Total).Error; err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}

	var users []models.User
	err := database.Read(ctx, s.db).Scopes(filter).
		Order("created_at DESC").
		Offset((params.Page - 1) * params.Limit).
		Limit(params.Limit).
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	if len(users) == 0 {
		return page, nil
	}

	ids := make([]uuid.UUID, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	stats, err := s.relations.Stats(ctx, ids)
	if err != nil {
		return nil, err
	}
	rel, err := s.relations.ViewerContext(ctx, viewer, ids)
	if err != nil {
		return nil, err
	}

	for _, u := range users {
		r := rel[u.ID]
		page.Users = append(page.Users, ListedUser{
			UserSummary:      summarize(u),
			FriendsCount:     stats[u.ID].Friends,
			FollowersCount:   stats[u.ID].Followers,
			FriendshipStatus: r.FriendshipStatus,
			FriendshipID:     r.FriendshipID,
			IsRequester:      r.IsRequester,
			IsFollowing:      r.IsFollowing,
		})
	}
	return page, nil
}

// PublicProfile returns another user's profile as seen by the viewer.
func (s *UserService) PublicProfile(ctx context.Context, viewer, id uuid.UUID) (*PublicProfileView, error) {
	u, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	stats, err := s.relations.Stats(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}

	view := &PublicProfileView{UserSummary: summarize(*u), Address: u.Address, Stats: stats[id]}
	if id == viewer {
		return view, nil
	}

	rel, err := s.relations.ViewerContext(ctx, viewer, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	r := rel[id]
	view.Relationship = RelationshipView{
		FriendshipStatus: r.FriendshipStatus,
		FriendshipID:     r.FriendshipID,
		IsRequester:      r.IsRequester,
		IsFollowing:      r.IsFollowing,
		FollowsYou:       r.FollowsYou,
	}
	return view, nil
}

func (s *UserService) find(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	err := database.Read(ctx, s.db).First(&u, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("User not found")
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &u, nil
}
