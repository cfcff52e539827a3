package api

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/hugh/boardstack/internal/api/handlers"
	"github.com/hugh/boardstack/internal/api/middleware"
	"github.com/hugh/boardstack/internal/auth"
	"github.com/hugh/boardstack/internal/boards"
	"github.com/hugh/boardstack/internal/orgs"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Router struct {
	chi.Router
}

type RouterConfig struct {
	DB             *gorm.DB
	Redis          *redis.Client
	Logger         *slog.Logger
	JWTService     *auth.JWTService
	AuthService    *auth.Service
	OrgService     *orgs.Service
	BoardService   *boards.Service
	AllowedOrigins []string // CORS allowed origins
	RateLimitReqs  int      // Rate limit requests per window
	RateLimitSecs  int      // Rate limit window in seconds
}

func NewRouter(cfg RouterConfig) *Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))

	// Rate limiting - applied globally to prevent abuse
	if cfg.RateLimitReqs > 0 {
		r.Use(middleware.RateLimit(cfg.RateLimitReqs, cfg.RateLimitSecs))
	}

	// CORS - restrict to configured origins, or allow all in development
	allowedOrigins := cfg.AllowedOrigins
	if len(allowedOrigins) == 0 {
		// Default to localhost for development - configure in production
		allowedOrigins = []string{"http://localhost:3000", "http://localhost:8080"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// CSRF protection for cookie-authenticated mutations. Bearer token
	// requests pass through unchecked.
	csrfStore := middleware.NewCSRFStore()

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(cfg.DB, cfg.Redis)
	authHandler := handlers.NewAuthHandler(cfg.AuthService)
	orgHandler := handlers.NewOrgHandler(cfg.OrgService)
	invitationHandler := handlers.NewInvitationHandler(cfg.OrgService)
	boardHandler := handlers.NewBoardHandler(cfg.BoardService)

	// Health endpoints (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public auth endpoints
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/logout", authHandler.Logout)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWTService))
			r.Use(middleware.CSRF(csrfStore))

			// User endpoints
			r.Get("/me", authHandler.Me)
			r.Put("/me", authHandler.UpdateProfile)

			// Organization endpoints
			r.Route("/orgs", func(r chi.Router) {
				r.Get("/", orgHandler.List)
				r.Post("/", orgHandler.Create)
				r.Get("/check-slug", orgHandler.CheckSlug)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", orgHandler.Get)
					r.Put("/", orgHandler.Update)
					r.Delete("/", orgHandler.Delete)
					r.Get("/members", orgHandler.ListMembers)

					r.Get("/invitations", invitationHandler.List)
					r.Post("/invitations", invitationHandler.Create)

					r.Get("/boards", boardHandler.List)
					r.Post("/boards", boardHandler.Create)
				})
			})

			// Invitation endpoints addressed by invitation id or token
			r.Route("/invitations", func(r chi.Router) {
				r.Post("/accept", invitationHandler.Accept)
				r.Post("/{id}/resend", invitationHandler.Resend)
				r.Post("/{id}/revoke", invitationHandler.Revoke)
			})

			// Board endpoints
			r.Route("/boards", func(r chi.Router) {
				r.Get("/{id}", boardHandler.Get)
				r.Delete("/{id}", boardHandler.Delete)
			})
		})
	})

	return &Router{r}
}
