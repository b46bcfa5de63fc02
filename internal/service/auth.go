package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"abbey/backend/internal/database"
	"abbey/backend/internal/models"
	"abbey/backend/pkg/jwt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SignUpInput is a new account.
type SignUpInput struct {
	Name     string
	Email    string
	Password string
	Bio      *string
	Address  *string
}

// Session is a signed-in user and the token that identifies them.
type Session struct {
	Token string
	User  UserDetails
}

type AuthService struct {
	db     *gorm.DB
	secret string
	ttl    time.Duration
}

func NewAuthService(db *gorm.DB, secret string, ttl time.Duration) *AuthService {
	return &AuthService{db: db, secret: secret, ttl: ttl}
}

// SignUp creates an account and signs it in.
func (s *AuthService) SignUp(ctx context.Context, in SignUpInput) (*Session, error) {
	email := normalizeEmail(in.Email)
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, invalid("Name cannot be empty")
	}

	var count int64
	if err := database.Write(ctx, s.db).Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if count > 0 {
		return nil, conflict("User with this email already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		Bio:          optional(in.Bio),
		Address:      optional(in.Address),
	}
	if err := database.Write(ctx, s.db).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, conflict("User with this email already exists")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return s.session(user)
}

// SignIn checks credentials. Unknown email and wrong password fail the same
// way.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*Session, error) {
	var user models.User
	err := database.Write(ctx, s.db).First(&user, "email = ?", normalizeEmail(email)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, unauthorized("Invalid email or password")
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, unauthorized("Invalid email or password")
	}

	return s.session(user)
}

// Me returns the account behind a token.
func (s *AuthService) Me(ctx context.Context, viewer uuid.UUID) (*UserDetails, error) {
	var user models.User
	err := database.Read(ctx, s.db).First(&user, "id = ?", viewer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("User not found")
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	d := detail(user)
	return &d, nil
}

func (s *AuthService) session(user models.User) (*Session, error) {
	token, err := jwt.GenerateToken(user.ID, s.secret, s.ttl)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	return &Session{Token: token, User: detail(user)}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func optional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
