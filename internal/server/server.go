// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"fmt"
	"time"

	"pulse/internal/auth"
	"pulse/internal/cache"
	"pulse/internal/config"
	"pulse/internal/database"
	"pulse/internal/middleware"
	"pulse/internal/notifications"
	"pulse/internal/repository"
	"pulse/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/websocket/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server is the composition root: it wires repositories, services, the
// fan-out hub, and the HTTP surface together once at startup.
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	promMiddleware *fiberprometheus.FiberPrometheus

	userRepo       repository.UserRepository
	roomRepo       repository.RoomRepository
	channelRepo    repository.ChannelRepository
	messageRepo    repository.MessageRepository
	friendshipRepo repository.FriendshipRepository
	inviteRepo     repository.InviteRepository
	noteRepo       repository.NoteRepository
	settingsRepo   repository.SettingsRepository

	hub      *notifications.Hub
	notifier *notifications.Notifier
	router   *notifications.Router

	cascade           *service.CascadeManager
	sessionService    *service.SessionService
	userService       *service.UserService
	friendshipService *service.FriendshipService
	roomService       *service.RoomService
	channelService    *service.ChannelService
	messageService    *service.MessageService
	inviteService     *service.InviteService
	noteService       *service.NoteService
	settingsService   *service.SettingsService
}

// NewServer creates a server instance, establishing the database and Redis
// connections itself.
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	return NewServerWithDeps(cfg, db, cache.GetClient())
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Tests use this with an in-memory database and no Redis.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("pulse-api"),

		userRepo:       repository.NewUserRepository(db),
		roomRepo:       repository.NewRoomRepository(db),
		channelRepo:    repository.NewChannelRepository(db),
		messageRepo:    repository.NewMessageRepository(db),
		friendshipRepo: repository.NewFriendshipRepository(db),
		inviteRepo:     repository.NewInviteRepository(db),
		noteRepo:       repository.NewNoteRepository(db),
		settingsRepo:   repository.NewSettingsRepository(db),
	}

	s.hub = notifications.NewHub(redisClient)
	if redisClient != nil {
		s.notifier = notifications.NewNotifier(redisClient)
	}
	s.router = notifications.NewRouter(s.hub, s.notifier)

	signer := auth.NewTokenSigner(cfg.JWTSecret)

	s.cascade = service.NewCascadeManager(
		s.userRepo, s.roomRepo, s.channelRepo, s.messageRepo,
		s.friendshipRepo, s.inviteRepo, s.noteRepo, s.settingsRepo,
	)
	s.sessionService = service.NewSessionService(s.userRepo, signer, s.router)
	s.userService = service.NewUserService(
		s.userRepo, s.settingsRepo, s.roomRepo, s.cascade, signer, s.router, cfg.DefaultProfilePic,
	)
	s.friendshipService = service.NewFriendshipService(s.friendshipRepo, s.userRepo, s.cascade, s.router)
	s.roomService = service.NewRoomService(
		s.roomRepo, s.channelRepo, s.friendshipRepo, s.userRepo, s.inviteRepo, s.cascade, s.router,
	)
	s.channelService = service.NewChannelService(s.channelRepo, s.roomRepo, s.cascade, s.router)
	s.messageService = service.NewMessageService(
		s.messageRepo, s.channelRepo, s.roomRepo, s.friendshipRepo, s.router,
	)
	s.inviteService = service.NewInviteService(s.inviteRepo, s.roomRepo)
	s.noteService = service.NewNoteService(s.noteRepo, s.userRepo, s.router)
	s.settingsService = service.NewSettingsService(s.settingsRepo, s.router)

	return s, nil
}

// Start wires background work: the Redis event subscription and the
// unverified-account reaper. Call once before serving traffic.
func (s *Server) Start(ctx context.Context) error {
	if s.notifier != nil {
		if err := s.hub.StartWiring(ctx, s.notifier); err != nil {
			return fmt.Errorf("event subscription failed: %w", err)
		}
	}
	s.userService.StartUnverifiedReaper(ctx, time.Hour)
	return nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Context middleware to propagate request ID and identity
	app.Use(middleware.ContextMiddleware())

	// Prometheus metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New())

	// Structured logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	if s.config.TracingEnabled {
		app.Use(middleware.TracingMiddleware())
	}

	// CORS must run before middlewares that can short-circuit (e.g. limiter)
	// so browser clients still receive CORS headers on error responses.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		// Never rate-limit preflight requests
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Pulse Backend Metrics Dashboard",
	}))

	// Auth routes
	authGroup := api.Group("/auth")
	authGroup.Post("/register", middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "register"), s.Register)
	authGroup.Post("/login", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "login"), s.Login)
	authGroup.Post("/verify", s.VerifyEmail)

	// Protected routes
	protected := api.Group("", middleware.AuthRequired(s.sessionService))

	// Session routes
	sessions := protected.Group("/sessions")
	sessions.Get("/", s.GetSessions)
	sessions.Delete("/current", s.Logout)
	sessions.Delete("/all", s.LogoutEverywhere)
	sessions.Delete("/:id", s.DeleteSession)

	// User routes
	users := protected.Group("/users")
	users.Get("/me", s.GetMyAccount)
	users.Put("/me", s.UpdateMyAccount)
	users.Delete("/me", s.DeleteMyAccount)
	users.Put("/me/rooms", s.ReorderRooms)
	users.Get("/:id", s.GetUser)

	// Friendship routes
	friendships := protected.Group("/friendships")
	friendships.Get("/", s.GetFriendships)
	friendships.Post("/", middleware.RateLimit(
		s.redis, 5, 5*time.Minute, "friend_request"), s.CreateFriendship)
	friendships.Post("/:id/accept", s.AcceptFriendship)
	friendships.Post("/:id/reject", s.RejectFriendship)
	friendships.Delete("/:id", s.RemoveFriendship)

	// Room routes
	rooms := protected.Group("/rooms")
	rooms.Get("/", s.GetRooms)
	rooms.Post("/", s.CreateRoom)
	rooms.Put("/order", s.ReorderRooms)
	rooms.Post("/join/:code", s.JoinRoom)
	rooms.Get("/:id/members", s.GetRoomMembers)
	rooms.Get("/:id/channels", s.GetRoomChannels)
	rooms.Post("/:id/channels", s.CreateChannel)
	rooms.Post("/:id/invites", s.CreateInvite)
	rooms.Post("/:id/leave", s.LeaveRoom)
	rooms.Get("/:id", s.GetRoom)
	rooms.Put("/:id", s.UpdateRoom)
	rooms.Delete("/:id", s.RemoveRoom)

	// DM routes
	dms := protected.Group("/dms")
	dms.Get("/", s.GetDMs)
	dms.Post("/", s.CreateDM)

	// Channel routes
	channels := protected.Group("/channels")
	channels.Get("/:id/messages", s.GetChannelMessages)
	channels.Post("/:id/messages", middleware.RateLimit(
		s.redis, 15, time.Minute, "send_message"), s.PublishMessage)
	channels.Get("/:id", s.GetChannel)
	channels.Put("/:id", s.UpdateChannel)
	channels.Delete("/:id", s.RemoveChannel)

	// Message routes
	messages := protected.Group("/messages")
	messages.Get("/:id", s.GetMessage)
	messages.Put("/:id", s.EditMessage)
	messages.Delete("/:id", s.RemoveMessage)

	// Invite routes
	invites := protected.Group("/invites")
	invites.Delete("/:id", s.RemoveInvite)

	// Note routes
	notes := protected.Group("/notes")
	notes.Get("/", s.GetNotes)
	notes.Put("/:userId", s.UpsertNote)

	// Settings routes
	settings := protected.Group("/settings")
	settings.Get("/", s.GetSettings)
	settings.Put("/", s.UpdateSettings)

	// Websocket endpoint - protected by AuthRequired
	ws := api.Group("/ws", middleware.AuthRequired(s.sessionService), func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	ws.Get("/", s.WebsocketHandler())
}

// HealthCheck is a legacy/simple alias for ReadinessCheck
func (s *Server) HealthCheck(c *fiber.Ctx) error {
	return s.ReadinessCheck(c)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		// Everything Redis backs degrades to in-process, so a missing
		// Redis is reported but not unhealthy.
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// Shutdown gracefully stops background work and the hub's connections.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.hub.Shutdown(ctx)
}
