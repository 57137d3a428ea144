// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/scramble/internal/domain/catalog"
	"github.com/okian/scramble/internal/domain/model"
	"github.com/okian/scramble/internal/domain/session"
	"github.com/okian/scramble/pkg/logger"
	"github.com/okian/scramble/pkg/metrics"
)

// IdempotencyHeader carries a client-chosen key that makes an action safe to retry.
const IdempotencyHeader = "Idempotency-Key"

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	StatsProvider

	// CreateSession starts a session in the menu.
	CreateSession(ctx context.Context, player string) (session.Snapshot, error)
	// Snapshot reads the current state of a session.
	Snapshot(ctx context.Context, id string) (session.Snapshot, error)
	// Do runs one command on a session actor and waits for its reply.
	Do(ctx context.Context, id string, cmd model.Command) (model.Reply, error)
	// Subscribe streams session events until cancel is called.
	Subscribe(ctx context.Context, id string) (<-chan model.Event, func(), error)
	// CloseSession ends a session.
	CloseSession(ctx context.Context, id string) error
	// Categories lists the playable categories.
	Categories() []catalog.Category
}

// Server wires HTTP routes for the game API.
type Server struct {
	deps           Dependencies
	router         *chi.Mux
	logger         logger.Logger
	allowedOrigins []string
	requestTimeout time.Duration
	extra          []func(chi.Router)

	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	sessionsHandler *SessionsHandler
	wsHandler       *WSHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		deps:           deps,
		allowedOrigins: []string{"*"},
		requestTimeout: defaultRequestTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("http")
	}

	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(deps)
	s.sessionsHandler = NewSessionsHandler(deps)
	s.wsHandler = NewWSHandler(deps, s.allowedOrigins, s.logger)
	s.setupRouter()
	return s
}

// Router returns the configured router.
func (s *Server) Router() http.Handler {
	return s.router
}

// setupRouter configures all routes and middleware.
func (s *Server) setupRouter() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID", IdempotencyHeader},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", s.healthHandler.HandleHealth)
	r.Get("/stats", s.statsHandler.HandleStats)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))

	r.Route("/v1", func(r chi.Router) {
		// the event stream is long-lived and stays outside the request timeout
		r.Get("/sessions/{id}/events", s.wsHandler.HandleEvents)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(s.requestTimeout))

			r.Get("/categories", s.sessionsHandler.HandleCategories)

			r.Route("/sessions", func(r chi.Router) {
				r.Post("/", s.sessionsHandler.HandleCreate)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.sessionsHandler.HandleGet)
					r.Delete("/", s.sessionsHandler.HandleDelete)
					r.Post("/play", s.sessionsHandler.action(model.KindPlay))
					r.Post("/category", s.sessionsHandler.action(model.KindChooseCategory))
					r.Put("/guess", s.sessionsHandler.action(model.KindUpdateGuess))
					r.Post("/submit", s.sessionsHandler.action(model.KindSubmitGuess))
					r.Post("/hint", s.sessionsHandler.action(model.KindRequestHint))
					r.Post("/play-again", s.sessionsHandler.action(model.KindPlayAgain))
					r.Post("/restart", s.sessionsHandler.action(model.KindRestart))
					r.Post("/menu", s.sessionsHandler.action(model.KindReturnToMenu))
				})
			})
		})
	})

	for _, mount := range s.extra {
		mount(r)
	}

	s.router = r
}

// actionResponse is the body of every successful session action.
type actionResponse struct {
	Snapshot  session.Snapshot `json:"snapshot"`
	Notice    *session.Notice  `json:"notice,omitempty"`
	Duplicate bool             `json:"duplicate"`
}

type errorResponse struct {
	Code     string            `json:"code"`
	Message  string            `json:"message"`
	Snapshot *session.Snapshot `json:"snapshot,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
