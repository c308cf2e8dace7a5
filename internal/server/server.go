// Package server assembles the ccf-web HTTP server: middleware, health,
// metrics and the role dashboards.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/me/ccfeedback/internal/api"
	"github.com/me/ccfeedback/internal/config"
	"github.com/me/ccfeedback/internal/logging"
	"github.com/me/ccfeedback/internal/meetings"
	"github.com/me/ccfeedback/internal/metrics"
	"github.com/me/ccfeedback/internal/retry"
	"github.com/me/ccfeedback/internal/store"
	"github.com/me/ccfeedback/internal/ui"
)

// DefaultSweepInterval is how often abandoned browser sessions are purged.
const DefaultSweepInterval = 10 * time.Minute

// Server is the ccf-web HTTP server.
type Server struct {
	router    chi.Router
	logger    *slog.Logger
	config    config.ServerConfig
	startTime time.Time
	store     *store.SQLiteStore
	client    *api.Client
	metrics   *metrics.Metrics
	policy    retry.Policy
	meetings  *meetings.Schedule
	ui        *ui.UI
}

// Option configures optional Server dependencies.
type Option func(*Server)

// WithMetrics enables the Prometheus counters and the /metrics endpoint.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithRetryPolicy overrides the login retry policy derived from the config.
func WithRetryPolicy(p retry.Policy) Option {
	return func(s *Server) {
		s.policy = p
	}
}

// WithMeetings publishes a committee meeting schedule on the student
// dashboard.
func WithMeetings(m *meetings.Schedule) Option {
	return func(s *Server) {
		s.meetings = m
	}
}

// New creates a new Server with all routes registered.
func New(cfg config.ServerConfig, st *store.SQLiteStore, client *api.Client, logger *slog.Logger, opts ...Option) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		logger:    logging.Component(logger, "server"),
		config:    cfg,
		startTime: time.Now(),
		store:     st,
		client:    client,
		policy:    cfg.Client.RetryPolicy(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.ui = ui.New(st, client, logger, ui.Config{
		Secure:      cfg.SecureCookies,
		RetryPolicy: s.policy,
		Metrics:     s.metrics,
		Meetings:    s.meetings,
	})

	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Handler returns the http.Handler for this server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	r := s.router

	r.Use(middleware.RealIP)
	r.Use(tagRequests)
	r.Use(accessLog(s.logger, s.metrics))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}

	// UI routes (HTML)
	s.ui.RegisterRoutes(r)
}

// StartSessionSweeper purges idle browser sessions every interval until
// ctx is done. A non-positive SessionTTL disables it.
func (s *Server) StartSessionSweeper(ctx context.Context, interval time.Duration) {
	if s.config.SessionTTL <= 0 {
		return
	}
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.sweepSessions(ctx)
			}
		}
	}()
}

// sweepSessions runs one purge pass and returns the number of sessions
// removed.
func (s *Server) sweepSessions(ctx context.Context) int64 {
	n, err := s.store.DeleteStale(ctx, s.config.SessionTTL)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Error("session sweep failed", "error", err)
		}
		return 0
	}
	if n > 0 {
		s.logger.Info("stale sessions purged", "count", n, "ttl", s.config.SessionTTL.String())
	}
	return n
}
