package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"abbey/backend/internal/auth"
	"abbey/backend/internal/cache"
	"abbey/backend/internal/config"
	"abbey/backend/internal/database"
	"abbey/backend/internal/handler"
	"abbey/backend/internal/logger"
	"abbey/backend/internal/metrics"
	"abbey/backend/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	// Swagger imports
	_ "abbey/backend/docs" // registers the generated swagger docs

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Abbey API
// @version         1.0
// @description     Users, friendships and follows for the Abbey social network.
// @host            localhost:5000
// @BasePath        /api
// @securityDefinitions.apiKey BearerAuth
// @in header
// @name Authorization
func main() {
	var configDir string
	flag.StringVar(&configDir, "config", ".", "Directory holding the .env file")
	flag.Parse()

	cfg, err := config.LoadConfig(configDir)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	gin.SetMode(cfg.GinMode)
	zl, err := logger.New(cfg.LogLevel, cfg.GinMode == gin.DebugMode)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zl.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(cfg.DatabaseURL, cfg.ReplicaURLs(), zl)
	if err != nil {
		zl.Fatal("Failed to connect to the database", zap.Error(err))
	}

	var statsCache cache.StatsCache = cache.Nop{}
	if cfg.RedisAddr != "" {
		client, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			zl.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer client.Close()
		statsCache = cache.NewRedisStatsCache(client, cfg.StatsCacheTTL)
		zl.Info("Stats cache enabled", zap.String("addr", cfg.RedisAddr), zap.Duration("ttl", cfg.StatsCacheTTL))
	}

	relations := service.NewRelationQuery(db, statsCache, zl.Named("relations"))
	h := handler.New(
		service.NewAuthService(db, cfg.JWTSecret, cfg.JWTTTL),
		service.NewUserService(db, relations),
		service.NewFriendService(db, relations),
		service.NewFollowService(db, relations),
		zl.Named("http"),
	)

	router := gin.Default()
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.FrontendURL},
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	router.Use(metrics.PrometheusMiddleware("abbey"))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	handler.RegisterRoutes(router.Group("/api"), h, auth.AuthMiddleware(cfg.JWTSecret))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zl.Info("Server is running", zap.String("addr", srv.Addr))
		zl.Info("Swagger UI is available", zap.String("url", "http://localhost:"+cfg.Port+"/swagger/index.html"))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zl.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zl.Error("Graceful shutdown failed", zap.Error(err))
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}
