package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/maumercado/anticaptcha-go/internal/api/handlers"
	apiMiddleware "github.com/maumercado/anticaptcha-go/internal/api/middleware"
	"github.com/maumercado/anticaptcha-go/internal/api/websocket"
	"github.com/maumercado/anticaptcha-go/internal/config"
	"github.com/maumercado/anticaptcha-go/internal/events"
)

// Server represents the HTTP gateway
type Server struct {
	router       *chi.Mux
	config       *config.Config
	solveHandler *handlers.SolveHandler
	wsHub        *websocket.Hub
	wsHandler    *websocket.Handler
	stopCh       chan struct{}
}

// NewServer creates a new HTTP gateway in front of the solver
func NewServer(cfg *config.Config, solver handlers.Solver, publisher events.Publisher) *Server {
	wsHub := websocket.NewHub(publisher)

	s := &Server{
		router:       chi.NewRouter(),
		config:       cfg,
		solveHandler: handlers.NewSolveHandler(solver),
		wsHub:        wsHub,
		wsHandler:    websocket.NewHandler(wsHub, cfg.Server.AllowedOrigins...),
		stopCh:       make(chan struct{}),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(apiMiddleware.RequestLogger())
	s.router.Use(middleware.Recoverer)

	// Heartbeat endpoint for load balancers
	s.router.Use(middleware.Heartbeat("/health"))
}

func (s *Server) setupRoutes() {
	auth := apiMiddleware.Auth(apiMiddleware.NewAuthConfig(s.config.Auth))

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(auth)
		if s.config.RateLimit.RPS > 0 {
			r.Use(apiMiddleware.ClientRateLimit(s.config.RateLimit.RPS, s.config.RateLimit.Burst, s.stopCh))
		}

		r.With(middleware.AllowContentType("application/json")).Post("/solve", s.solveHandler.Solve)
		r.Get("/balance", s.solveHandler.Balance)
		r.Get("/tasks/{taskID}", s.solveHandler.TaskResult)
	})

	// WebSocket event stream
	s.router.With(auth).Get("/ws", s.wsHandler.ServeWS)

	if s.config.Metrics.Enabled {
		s.router.Handle(s.config.Metrics.Path, promhttp.Handler())
	}
}

// Start starts the WebSocket hub
func (s *Server) Start(ctx context.Context) {
	s.wsHub.Run(ctx)
}

// Stop stops the WebSocket hub and background middleware work
func (s *Server) Stop() {
	s.wsHub.Stop()
	close(s.stopCh)
}

// Router returns the chi router
func (s *Server) Router() *chi.Mux {
	return s.router
}

// ServeHTTP implements the http.Handler interface
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
