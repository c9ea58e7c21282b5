package router

import (
	"context"
	"fmt"

	"github.com/anonto42/socialgraph/backend/internal/auth"
	"github.com/anonto42/socialgraph/backend/internal/handlers"
	"github.com/anonto42/socialgraph/backend/internal/middleware"
	"github.com/anonto42/socialgraph/backend/internal/repositories"
	"github.com/anonto42/socialgraph/backend/internal/services"
	"github.com/anonto42/socialgraph/backend/internal/validators"
	"github.com/anonto42/socialgraph/backend/pkg/config"
	"github.com/anonto42/socialgraph/backend/pkg/firebase"
	"github.com/anonto42/socialgraph/backend/pkg/metrics"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Stores are the persistence collaborators the services run on
type Stores struct {
	Accounts      repositories.AccountRepository
	Posts         repositories.PostRepository
	Notifications repositories.NotificationRepository
	Tx            repositories.Transactor
}

// Services bundles every service the routes dispatch to
type Services struct {
	Accounts      *services.AccountService
	Graph         *services.GraphService
	Engagement    *services.EngagementService
	Notifications *services.NotificationService
	Suggestions   *services.SuggestionService
	Posts         *services.PostService
}

// NewServices wires the services onto st. images and identity may be nil.
func NewServices(st Stores, cfg *config.Config, images services.ImageStore, identity services.IdentityVerifier, log *zap.Logger) Services {
	notifications := services.NewNotificationService(st.Notifications, st.Accounts, log)
	return Services{
		Accounts:      services.NewAccountService(st.Accounts, auth.NewPasswordHasher(cfg.BcryptCost), images, identity, log),
		Graph:         services.NewGraphService(st.Accounts, notifications, st.Tx, log),
		Engagement:    services.NewEngagementService(st.Accounts, st.Posts, notifications, st.Tx, log),
		Notifications: notifications,
		Suggestions:   services.NewSuggestionService(st.Accounts, cfg.SuggestionSampleSize, cfg.SuggestionLimit),
		Posts:         services.NewPostService(st.Accounts, st.Posts, images, st.Tx, log),
	}
}

// Routes is everything RegisterRoutes needs
type Routes struct {
	Services
	Tokens       *auth.TokenManager
	CookieSecure bool
	Ping         handlers.Pinger
	// Resolvers accept bearer tokens other than session tokens
	Resolvers []middleware.TokenResolver
	// Metrics is optional; when set requests are counted and /metrics is served
	Metrics *metrics.Metrics
	Log     *zap.Logger
}

// RegisterRoutes installs the validator, the error renderer and every route
func RegisterRoutes(e *echo.Echo, r Routes) {
	e.Validator = validators.NewValidator()
	e.HTTPErrorHandler = handlers.ErrorHandler(r.Log)

	// Health check - always accessible
	e.GET("/health", handlers.NewHealthHandler(r.Ping).HealthCheck)

	if r.Metrics != nil {
		e.Use(r.Metrics.Middleware())
		e.GET("/metrics", r.Metrics.Handler())
		r.Notifications.SetRecorder(r.Metrics)
	}

	protect := middleware.JWTAuthMiddleware(r.Tokens, r.Resolvers...)
	api := e.Group("/api")

	// --- Authentication: public except /me ---
	authHandler := handlers.NewAuthHandler(r.Accounts, r.Tokens, r.CookieSecure)
	authHandler.RegisterAuthRoutes(api.Group("/auth"), protect)
	r.Log.Debug("Auth routes configured.")

	// --- Protected routes (require JWT authentication) ---
	users := api.Group("/users", protect)
	handlers.NewUserHandler(r.Accounts, r.Suggestions).RegisterProfileRoutes(users)
	handlers.NewFollowHandler(r.Graph).RegisterFollowRoutes(users)
	r.Log.Debug("User routes configured.")

	posts := api.Group("/post", protect)
	handlers.NewPostHandler(r.Posts).RegisterPostRoutes(posts)
	handlers.NewLikeHandler(r.Engagement).RegisterLikeRoutes(posts)
	handlers.NewCommentHandler(r.Engagement).RegisterCommentRoutes(posts)
	r.Log.Debug("Post routes configured.")

	notifications := api.Group("/notification", protect)
	handlers.NewNotificationHandler(r.Notifications).RegisterNotificationRoutes(notifications)
	r.Log.Debug("Notification routes configured.")

	r.Log.Info("All routes configured.", zap.Int("routes", len(e.Routes())))
}

// SetupRoutes builds the repositories on the open connections, then the
// services, then the routes. fb may be nil when Firebase is not configured.
func SetupRoutes(e *echo.Echo, cfg *config.Config, db *config.DB, fb *firebase.App, log *zap.Logger) error {
	mongoDB := db.Mongo.Database(cfg.MongoDatabase)
	accounts := repositories.NewMongoAccountRepository(mongoDB)

	var notifications repositories.NotificationRepository
	switch cfg.NotificationBackend {
	case "postgres":
		if err := repositories.MigratePostgresNotifications(db.Postgres); err != nil {
			return fmt.Errorf("failed to migrate notifications table: %w", err)
		}
		log.Info("PostgreSQL auto-migration completed for notifications.")
		notifications = repositories.NewPostgresNotificationRepository(db.Postgres)
	default:
		notifications = repositories.NewMongoNotificationRepository(mongoDB)
	}

	stores := Stores{
		Accounts:      accounts,
		Posts:         repositories.NewMongoPostRepository(mongoDB),
		Notifications: notifications,
		Tx:            repositories.NewMongoTransactor(db.Mongo, cfg.MongoTransactions),
	}

	// interfaces stay nil when the collaborator is absent
	var (
		images    services.ImageStore
		identity  services.IdentityVerifier
		resolvers []middleware.TokenResolver
	)
	if fb != nil {
		identity = fb.AuthClient
		resolvers = append(resolvers, middleware.NewFirebaseResolver(fb.AuthClient, accounts))
		if fb.Images != nil {
			images = fb.Images
		}
	}

	RegisterRoutes(e, Routes{
		Services:     NewServices(stores, cfg, images, identity, log),
		Tokens:       auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL),
		CookieSecure: cfg.CookieSecure,
		Ping: func(ctx context.Context) error {
			return db.Mongo.Ping(ctx, readpref.Primary())
		},
		Resolvers: resolvers,
		Metrics:   metrics.New(),
		Log:       log,
	})
	return nil
}
