package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/pingup/backend/internal/middleware"
)

// Router holds all handlers and creates the chi router
type Router struct {
	followHandler     *FollowHandler
	connectionHandler *ConnectionHandler
	messageHandler    *MessageHandler
	healthHandler     *HealthHandler
	tokens            middleware.TokenValidator
	users             middleware.UserRegistrar
	corsOrigins       []string
	logger            *zap.Logger
}

// RouterDeps lists what NewRouter wires together
type RouterDeps struct {
	Follows     *FollowHandler
	Connections *ConnectionHandler
	Messages    *MessageHandler
	Health      *HealthHandler
	Tokens      middleware.TokenValidator
	Users       middleware.UserRegistrar
	CORSOrigins []string
	Logger      *zap.Logger
}

// NewRouter creates a new router
func NewRouter(deps RouterDeps) *Router {
	return &Router{
		followHandler:     deps.Follows,
		connectionHandler: deps.Connections,
		messageHandler:    deps.Messages,
		healthHandler:     deps.Health,
		tokens:            deps.Tokens,
		users:             deps.Users,
		corsOrigins:       deps.CORSOrigins,
		logger:            deps.Logger,
	}
}

// Setup configures and returns the chi router
func (rt *Router) Setup() *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RecoveryMiddleware(rt.logger))
	r.Use(middleware.LoggingMiddleware(rt.logger))
	r.Use(middleware.CORSMiddleware(rt.corsOrigins))

	// Health endpoints (no auth required)
	r.Route("/health", func(r chi.Router) {
		r.Get("/", rt.healthHandler.Health)
		r.Get("/ready", rt.healthHandler.Ready)
		r.Get("/live", rt.healthHandler.Live)
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(rt.tokens))
		r.Use(middleware.EnsureUser(rt.users, rt.logger))

		r.Route("/users", func(r chi.Router) {
			r.Post("/follow", rt.followHandler.Follow)
			r.Post("/unfollow", rt.followHandler.Unfollow)
			r.Get("/{userId}/relationships", rt.connectionHandler.GetUserRelationships)
		})

		r.Route("/connections", func(r chi.Router) {
			r.Get("/", rt.connectionHandler.GetRelationships)
			r.Get("/requests", rt.connectionHandler.GetRequests)
			r.Post("/request", rt.connectionHandler.SendRequest)
			r.Post("/accept", rt.connectionHandler.AcceptRequest)
		})

		r.Get("/messages/recent", rt.messageHandler.RecentMessages)
		r.Get("/ws", rt.messageHandler.HandleWebSocket)
	})

	return r
}
