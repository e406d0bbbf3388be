package router

import (
	"fmt"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"

	"github.com/anonto42/circle/backend/internal/cache"
	"github.com/anonto42/circle/backend/internal/feed"
	"github.com/anonto42/circle/backend/internal/handlers"
	"github.com/anonto42/circle/backend/internal/middleware"
	"github.com/anonto42/circle/backend/internal/models"
	"github.com/anonto42/circle/backend/internal/repositories"
	"github.com/anonto42/circle/backend/internal/suggestions"
	"github.com/anonto42/circle/backend/internal/trending"
	"github.com/anonto42/circle/backend/pkg/config"
	"github.com/anonto42/circle/backend/pkg/logger"
)

// Dependencies carries the connections and optional integrations the
// routes are built from. FirebaseAuth and Presigner may be nil.
type Dependencies struct {
	Config       *config.Config
	Postgres     *gorm.DB
	Mongo        *mongo.Database
	Cache        cache.Cache
	FirebaseAuth *auth.Client
	Presigner    handlers.Presigner
}

// Migrate creates or updates the relational schema.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Friendship{},
		&models.Follow{},
		&models.Comment{},
		&models.Like{},
		&models.Reaction{},
		&models.SavedPost{},
		&models.Repost{},
		&models.Notification{},
		&models.Conversation{},
		&models.Message{},
	)
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, deps Dependencies) error {
	log := logger.L()
	cfg := deps.Config

	if err := Migrate(deps.Postgres); err != nil {
		return fmt.Errorf("failed to auto migrate models: %w", err)
	}
	log.Info().Msg("relational auto-migrations completed")

	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)

	// --- Initialize Repositories ---
	userRepo := repositories.NewPostgresUserRepository(deps.Postgres)
	postRepo := repositories.NewMongoPostRepository(deps.Mongo)
	commentRepo := repositories.NewPostgresCommentRepository(deps.Postgres)
	likeRepo := repositories.NewPostgresLikeRepository(deps.Postgres)
	reactionRepo := repositories.NewPostgresReactionRepository(deps.Postgres)
	friendshipRepo := repositories.NewPostgresFriendshipRepository(deps.Postgres)
	followRepo := repositories.NewPostgresFollowRepository(deps.Postgres)
	savedPostRepo := repositories.NewPostgresSavedPostRepository(deps.Postgres)
	repostRepo := repositories.NewPostgresRepostRepository(deps.Postgres)
	notificationRepo := repositories.NewPostgresNotificationRepository(deps.Postgres)
	conversationRepo := repositories.NewPostgresConversationRepository(deps.Postgres)

	// --- Services ---
	enricher := feed.NewEnricher(userRepo, reactionRepo, likeRepo, savedPostRepo, repostRepo)
	assembler := feed.NewAssembler(postRepo, friendshipRepo, followRepo, enricher, deps.Cache, cfg.FeedCacheTTL)
	engine := trending.NewEngine(postRepo, enricher,
		trending.WithCache(deps.Cache, cfg.TrendingCacheTTL),
		trending.WithCandidates(cfg.TrendingCandidates),
	)
	suggester := suggestions.NewService(friendshipRepo, userRepo)

	// --- Unprotected routes for authentication ---
	authGroup := e.Group("/api/v1/auth")
	authGroup.Use(middleware.NewIPRateLimiter(cfg.AuthRateLimit, cfg.AuthRateWindow, 10*time.Minute).Middleware())
	handlers.NewAuthHandler(userRepo, deps.FirebaseAuth, cfg.JWTSecret).RegisterAuthRoutes(authGroup)

	// --- Protected routes (require JWT authentication) ---
	api := e.Group("/api/v1")
	api.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))

	handlers.NewUserHandler(userRepo, suggester).RegisterProfileRoutes(api)
	handlers.NewPostHandler(postRepo, friendshipRepo, notificationRepo, enricher, assembler).RegisterPostRoutes(api)
	handlers.NewFeedHandler(assembler, engine).RegisterFeedRoutes(api)
	handlers.NewFollowHandler(followRepo, userRepo, notificationRepo, assembler).RegisterFollowRoutes(api)
	handlers.NewFriendshipHandler(friendshipRepo, userRepo, notificationRepo, assembler).RegisterFriendshipRoutes(api)
	handlers.NewCommentHandler(commentRepo, postRepo, userRepo, friendshipRepo, notificationRepo, assembler).RegisterCommentRoutes(api)
	handlers.NewLikeHandler(likeRepo, postRepo, friendshipRepo, notificationRepo, assembler).RegisterLikeRoutes(api)
	handlers.NewReactionHandler(reactionRepo, postRepo, friendshipRepo, assembler).RegisterReactionRoutes(api)
	handlers.NewSavedPostHandler(savedPostRepo, postRepo, friendshipRepo, enricher, assembler).RegisterSavedPostRoutes(api)
	handlers.NewRepostHandler(repostRepo, postRepo, friendshipRepo, assembler).RegisterRepostRoutes(api)
	handlers.NewNotificationHandler(notificationRepo, userRepo).RegisterNotificationRoutes(api)
	handlers.NewConversationHandler(conversationRepo, userRepo, notificationRepo).RegisterConversationRoutes(api)
	handlers.NewUploadHandler(deps.Presigner).RegisterUploadRoutes(api)

	log.Info().Int("routes", len(e.Routes())).Msg("all routes configured")
	return nil
}
