// Package server wires the HTTP routes, middleware and page handlers of the blog.
package server

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"microblog/internal/avatar"
	"microblog/internal/cache"
	"microblog/internal/config"
	"microblog/internal/database"
	"microblog/internal/middleware"
	"microblog/internal/repository"
	"microblog/internal/service"
	"microblog/internal/session"
	"microblog/internal/views"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/encryptcookie"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	views          *views.Engine
	sessions       *session.Manager
	clock          service.Clock
	userService    *service.UserService
	postService    *service.PostService
	avatarService  *service.AvatarService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	redisClient := cache.Connect(ctx, cfg.RedisURL)

	return NewServerWithDeps(cfg, db, redisClient)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient may be nil; caching and shared session storage are then disabled.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	engine := views.New()
	if err := engine.Load(); err != nil {
		return nil, err
	}

	generator, err := avatar.NewGenerator(avatar.Options{
		Size:       cfg.AvatarSize,
		Background: cfg.AvatarBackground,
	})
	if err != nil {
		return nil, fmt.Errorf("avatar generator: %w", err)
	}

	var storage fiber.Storage
	if redisClient != nil {
		storage = session.NewRedisStorage(redisClient, "session:")
	}

	store := cache.NewStore(redisClient)

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("microblog"),
		views:          engine,
		clock:          service.SystemClock,
		sessions: session.NewManager(session.Config{
			Storage:      storage,
			CookieName:   cfg.SessionCookieName,
			CookieSecure: cfg.CookieSecure,
			TTL:          time.Duration(cfg.SessionTTLHours) * time.Hour,
		}),
	}
	s.userService = service.NewUserService(repository.NewUserRepository(db), s.clock)
	s.postService = service.NewPostService(repository.NewPostRepository(db), store, s.clock)
	s.avatarService = service.NewAvatarService(generator, store,
		time.Duration(cfg.AvatarCacheTTLMinutes)*time.Minute)

	return s, nil
}

// NewApp builds the Fiber application that serves the HTML views.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:           s.config.AppName,
		Views:             s.views,
		ViewsLayout:       "main",
		PassLocalsToViews: true,
		ErrorHandler:      s.handleError,
	})
	s.app = app
	return app
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))

	// Trace ID must be in locals before the context middleware copies it
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers. The like button redirects back via Referer, so keep it same-origin.
	app.Use(helmet.New(helmet.Config{
		ReferrerPolicy: "same-origin",
	}))

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	if s.config.CookieEncryptionKey != "" {
		app.Use(encryptcookie.New(encryptcookie.Config{
			Key: s.config.CookieEncryptionKey,
		}))
	}

	// Global rate limiting per IP. Avatars are excluded: one page embeds one per author.
	limiterCfg := limiter.Config{
		Max:        s.config.RateLimitMax,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return s.config.RateLimitMax <= 0 || isStatelessPath(c.Path())
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return s.renderErrorPage(c, fiber.StatusTooManyRequests, "Too many requests, please try again later.")
		},
	}
	if s.redis != nil {
		limiterCfg.Storage = session.NewRedisStorage(s.redis, "limiter:")
	}
	app.Use(limiter.New(limiterCfg))

	app.Use(s.ViewLocals())
	app.Use(s.LoadIdentity())
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	// Health checks
	health := app.Group("/health")
	health.Get("/live", s.LivenessCheck)
	health.Get("/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	app.Use("/static", filesystem.New(filesystem.Config{
		Root:   views.Static(),
		MaxAge: 3600,
	}))

	app.Get("/", s.Home)
	app.Get("/error", s.ErrorPage)
	app.Get("/avatar/:username", s.Avatar)

	authLimit := func(resource, form string) fiber.Handler {
		return middleware.RateLimit(middleware.RateLimitConfig{
			Redis:    s.redis,
			Env:      s.config.Env,
			Resource: resource,
			Limit:    10,
			Window:   time.Minute,
			Exceeded: func(c *fiber.Ctx) error {
				return redirectWithError(c, form, "Too many attempts, please try again later")
			},
		})
	}

	app.Get("/register", s.RegisterPage)
	app.Post("/register", authLimit("register", "/register"), s.Register)
	app.Get("/login", s.LoginPage)
	app.Post("/login", authLimit("login", "/login"), s.Login)
	app.Get("/logout", s.Logout)

	// Per-route so unknown paths still reach the 404 handler
	auth := s.AuthRequired()
	app.Get("/profile", auth, s.Profile)
	app.Post("/posts", auth, s.CreatePost)
	app.Post("/like/:id", auth, s.LikePost)
	app.Post("/delete/:id", auth, s.DeletePost)
}

// isInfraPath reports paths that carry no page state: probes, metrics and assets.
func isInfraPath(path string) bool {
	return strings.HasPrefix(path, "/health") ||
		path == "/metrics" ||
		strings.HasPrefix(path, "/static")
}

// isStatelessPath adds the avatar images to the infra paths.
func isStatelessPath(path string) bool {
	return isInfraPath(path) || strings.HasPrefix(path, "/avatar/")
}

// Start starts the server
func (s *Server) Start() error {
	app := s.NewApp()
	s.SetupMiddleware(app)
	s.SetupRoutes(app)

	log.Printf("Server starting on port %s...", s.config.Port)
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			log.Printf("error shutting down HTTP server: %v", err)
		}
	}

	if err := database.Close(s.db); err != nil {
		log.Printf("error closing sql DB: %v", err)
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			log.Printf("error closing redis: %v", rerr)
		}
	}

	log.Println("Server shutdown complete")
	return nil
}
