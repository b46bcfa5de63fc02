package main

import (
	"context"
	"flag"
	"log"

	"abbey/backend/internal/config"
	"abbey/backend/internal/database"
	"abbey/backend/internal/logger"
	"abbey/backend/internal/service"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const seedPassword = "password123"

func main() {
	var (
		configDir string
		users     int
		requests  int
		follows   int
		seed      uint64
	)
	flag.StringVar(&configDir, "config", ".", "Directory holding the .env file")
	flag.IntVar(&users, "users", 50, "Number of users to create")
	flag.IntVar(&requests, "requests", 150, "Number of friend requests to attempt")
	flag.IntVar(&follows, "follows", 300, "Number of follows to attempt")
	flag.Uint64Var(&seed, "seed", 0, "Random seed, 0 picks one")
	flag.Parse()

	cfg, err := config.LoadConfig(configDir)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	zl, err := logger.New(cfg.LogLevel, true)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zl.Sync()

	db, err := database.Connect(cfg.DatabaseURL, nil, zl)
	if err != nil {
		zl.Fatal("Failed to connect to the database", zap.Error(err))
	}

	relations := service.NewRelationQuery(db, nil, zl)
	s := seeder{
		faker:   gofakeit.New(seed),
		auth:    service.NewAuthService(db, cfg.JWTSecret, cfg.JWTTTL),
		friends: service.NewFriendService(db, relations),
		follows: service.NewFollowService(db, relations),
		log:     zl,
	}

	ctx := context.Background()
	ids := s.users(ctx, users)
	if len(ids) < 2 {
		zl.Fatal("Not enough users to relate", zap.Int("created", len(ids)))
	}
	s.friendships(ctx, ids, requests)
	s.followGraph(ctx, ids, follows)

	zl.Info("Seeding finished", zap.Int("users", len(ids)), zap.String("password", seedPassword))
}

type seeder struct {
	faker   *gofakeit.Faker
	auth    *service.AuthService
	friends *service.FriendService
	follows *service.FollowService
	log     *zap.Logger
}

func (s seeder) users(ctx context.Context, n int) []uuid.UUID {
	ids := make([]uuid.UUID, 0, n)
	for i := 0; i < n; i++ {
		bio := s.faker.JobTitle() + " who likes " + s.faker.Hobby()
		address := s.faker.City() + ", " + s.faker.Country()
		session, err := s.auth.SignUp(ctx, service.SignUpInput{
			Name:     s.faker.Name(),
			Email:    s.faker.Email(),
			Password: seedPassword,
			Bio:      &bio,
			Address:  &address,
		})
		if !s.ok(err, "create user") {
			continue
		}
		ids = append(ids, session.User.ID)
	}
	return ids
}

// friendships sends random requests and settles each one as accepted,
// rejected or left pending.
func (s seeder) friendships(ctx context.Context, ids []uuid.UUID, n int) {
	for i := 0; i < n; i++ {
		from, to := s.pair(ids)
		res, err := s.friends.SendRequest(ctx, from, to)
		if !s.ok(err, "send friend request") {
			continue
		}

		switch s.faker.Number(0, 2) {
		case 0:
			_, err = s.friends.Accept(ctx, to, res.Friendship.ID)
			s.ok(err, "accept friend request")
		case 1:
			_, err = s.friends.Reject(ctx, to, res.Friendship.ID)
			s.ok(err, "reject friend request")
		}
	}
}

func (s seeder) followGraph(ctx context.Context, ids []uuid.UUID, n int) {
	for i := 0; i < n; i++ {
		from, to := s.pair(ids)
		_, err := s.follows.Follow(ctx, from, to)
		s.ok(err, "follow")
	}
}

func (s seeder) pair(ids []uuid.UUID) (uuid.UUID, uuid.UUID) {
	a := s.faker.Number(0, len(ids)-1)
	b := s.faker.Number(0, len(ids)-2)
	if b >= a {
		b++
	}
	return ids[a], ids[b]
}

// ok reports whether err is nil. Rule violations such as duplicate requests
// are expected with random input and only logged at debug level.
func (s seeder) ok(err error, what string) bool {
	if err == nil {
		return true
	}
	if _, isRule := service.AsError(err); isRule {
		s.log.Debug("skipped", zap.String("op", what), zap.Error(err))
		return false
	}
	s.log.Fatal("seeding failed", zap.String("op", what), zap.Error(err))
	return false
}
