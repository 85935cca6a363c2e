package router

import (
	"context"
	"fmt"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"

	"github.com/anonto42/friendcircle/backend/internal/handlers"
	"github.com/anonto42/friendcircle/backend/internal/middleware"
	"github.com/anonto42/friendcircle/backend/internal/models"
	"github.com/anonto42/friendcircle/backend/internal/observability"
	"github.com/anonto42/friendcircle/backend/internal/realtime"
	"github.com/anonto42/friendcircle/backend/internal/repositories"
	"github.com/anonto42/friendcircle/backend/internal/services"
	"github.com/anonto42/friendcircle/backend/pkg/config"
	"github.com/anonto42/friendcircle/backend/pkg/logger"
)

// Dependencies are the process-level resources the routes are built from.
type Dependencies struct {
	Config    *config.Config
	Postgres  *gorm.DB
	Mongo     *mongo.Database
	Firebase  handlers.IDTokenVerifier // nil when Firebase login is disabled
	Hub       *realtime.Hub
	Deliverer services.Deliverer
	Metrics   *observability.Metrics
}

// Migrate prepares the PostgreSQL tables and the MongoDB indexes.
func Migrate(ctx context.Context, pgdb *gorm.DB, mdb *mongo.Database) error {
	if err := pgdb.AutoMigrate(
		&models.Comment{},
		&models.CommentLike{},
		&models.Notification{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	if err := repositories.NewMongoUserRepository(mdb).EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("ensure user indexes: %w", err)
	}
	logger.Info("database migrations completed")
	return nil
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, deps Dependencies) {
	cfg := deps.Config

	e.GET("/health", handlers.HealthCheck)

	// --- Repositories ---
	userRepo := repositories.NewMongoUserRepository(deps.Mongo).WithTransactions(cfg.MongoTransactions)
	postRepo := repositories.NewMongoPostRepository(deps.Mongo)
	commentRepo := repositories.NewPostgresCommentRepository(deps.Postgres)
	commentLikeRepo := repositories.NewPostgresCommentLikeRepository(deps.Postgres)
	notificationRepo := repositories.NewPostgresNotificationRepository(deps.Postgres)

	// --- Services ---
	notifier := services.NewNotifier(notificationRepo, deps.Deliverer, deps.Metrics)
	friendships := services.NewFriendshipService(userRepo, notifier, deps.Metrics, cfg.FriendshipMaxAttempts)
	engagement := services.NewEngagementService(userRepo, postRepo, commentRepo, commentLikeRepo, notifier, deps.Metrics)
	content := services.NewContentService(userRepo, postRepo, commentRepo, deps.Metrics)

	// --- Unprotected routes for authentication ---
	authGroup := e.Group("/api/v1/auth")
	handlers.NewAuthHandler(userRepo, deps.Firebase, cfg.JWTSecret).RegisterAuthRoutes(authGroup)

	// --- Protected routes (require JWT authentication) ---
	api := e.Group("/api/v1")
	api.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))

	handlers.NewUserHandler(userRepo).RegisterUserRoutes(api)
	handlers.NewFriendshipHandler(friendships).RegisterFriendshipRoutes(api)
	handlers.NewPostHandler(content, engagement, userRepo).RegisterPostRoutes(api)
	handlers.NewCommentHandler(content, engagement, userRepo, commentLikeRepo).RegisterCommentRoutes(api)
	handlers.NewNotificationHandler(notificationRepo, userRepo).RegisterNotificationRoutes(api)
	handlers.NewWebSocketHandler(deps.Hub).RegisterWebSocketRoutes(api)

	logger.Info("all routes configured")
}
