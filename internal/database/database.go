package database

import (
	"context"
	"fmt"
	"time"

	"abbey/backend/internal/models"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/dbresolver"
)

// NewLogger adapts the application logger for GORM.
func NewLogger(log *zap.Logger) logger.Interface {
	return logger.New(
		zap.NewStdLog(log.Named("gorm")),
		logger.Config{
			SlowThreshold:             200 * time.Millisecond, // Slow SQL threshold
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}

// Connect opens the primary database, registers any read replicas and runs
// migrations.
func Connect(dsn string, replicas []string, log *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         NewLogger(log),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if len(replicas) > 0 {
		dialectors := make([]gorm.Dialector, 0, len(replicas))
		for _, r := range replicas {
			dialectors = append(dialectors, postgres.Open(r))
		}
		err = db.Use(dbresolver.Register(dbresolver.Config{
			Replicas: dialectors,
			Policy:   dbresolver.RandomPolicy{},
		}))
		if err != nil {
			return nil, fmt.Errorf("register read replicas: %w", err)
		}
		log.Info("Read replicas registered", zap.Int("count", len(replicas)))
	}

	log.Info("Database connection established.")

	if err := Migrate(db); err != nil {
		return nil, err
	}
	log.Info("Database migrated successfully.")

	return db, nil
}

// Migrate creates or updates the schema.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.User{}, &models.Friendship{}, &models.Follow{}); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	return nil
}

// Read returns a session routed to a replica when replicas are registered.
func Read(ctx context.Context, db *gorm.DB) *gorm.DB {
	return db.WithContext(ctx).Clauses(dbresolver.Read)
}

// Write returns a session routed to the primary.
func Write(ctx context.Context, db *gorm.DB) *gorm.DB {
	return db.WithContext(ctx).Clauses(dbresolver.Write)
}
