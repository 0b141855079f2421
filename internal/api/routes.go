package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/brightfield/tboard/internal/api/handlers"
	apiMiddleware "github.com/brightfield/tboard/internal/api/middleware"
	"github.com/brightfield/tboard/internal/api/websocket"
	"github.com/brightfield/tboard/internal/board"
	"github.com/brightfield/tboard/internal/config"
	"github.com/brightfield/tboard/internal/events"
)

// Server is the admin HTTP+WebSocket surface in front of a running Board.
type Server struct {
	router       *chi.Mux
	board        *board.Board
	config       *config.Config
	boardHandler *handlers.BoardHandler
	wsHub        *websocket.Hub
	wsHandler    *websocket.Handler
	publisher    *events.RedisPubSub
}

// NewServer wires the admin router around a running Board.
func NewServer(cfg *config.Config, b *board.Board, publisher *events.RedisPubSub) *Server {
	wsHub := websocket.NewHub(publisher)

	s := &Server{
		router:       chi.NewRouter(),
		board:        b,
		config:       cfg,
		boardHandler: handlers.NewBoardHandler(b),
		wsHub:        wsHub,
		wsHandler:    websocket.NewHandler(wsHub),
		publisher:    publisher,
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
}

func (s *Server) setupRoutes() {
	s.router.Route("/admin", func(r chi.Router) {
		r.Use(middleware.AllowContentType("application/json"))

		if s.config.Auth.Enabled {
			apiKeys := make(map[string]bool, len(s.config.Auth.APIKeys))
			for _, k := range s.config.Auth.APIKeys {
				apiKeys[k] = true
			}
			r.Use(apiMiddleware.Auth(&apiMiddleware.AuthConfig{
				Enabled:   true,
				JWTSecret: s.config.Auth.JWTSecret,
				APIKeys:   apiKeys,
			}))
		}

		r.Get("/health", s.boardHandler.Health)
		r.Get("/board", s.boardHandler.Status)
		r.Get("/registry", s.boardHandler.Registry)
		r.Get("/history", s.boardHandler.History)
		r.Post("/tasks", s.boardHandler.Submit)
		r.Get("/calls", s.boardHandler.PendingCalls)
		r.Get("/calls/{callID}", s.boardHandler.GetCall)
	})

	s.router.Get("/ws", s.wsHandler.ServeWS)

	if s.config.Metrics.Enabled {
		s.router.Handle(s.config.Metrics.Path, promhttp.Handler())
	}
}

// Start starts the WebSocket hub's background loop.
func (s *Server) Start(ctx context.Context) {
	go s.wsHub.Run(ctx)
}

// Stop stops the WebSocket hub.
func (s *Server) Stop() {
	s.wsHub.Stop()
}

// Router returns the chi router.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Publisher returns the event publisher backing the WebSocket hub.
func (s *Server) Publisher() *events.RedisPubSub {
	return s.publisher
}
