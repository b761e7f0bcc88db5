// internal/api/server.go
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	handler "github.com/newthinker/thrust/internal/api/handler/api"
	"github.com/newthinker/thrust/internal/api/job"
	"github.com/newthinker/thrust/internal/api/middleware"
	"github.com/newthinker/thrust/internal/metrics"
	"github.com/newthinker/thrust/internal/watch"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const healthPath = "/api/health"

// Market supplies candles and tickers to the handlers
type Market interface {
	handler.RecentFetcher
	handler.TickerFetcher
}

// Dependencies holds the collaborators the routes are served by
type Dependencies struct {
	Backtester handler.BacktestRunner
	Market     Market
	Jobs       *job.Store
	Metrics    *metrics.Registry // nil disables /metrics and request metrics
	Defaults   handler.StrategyDefaults
	Quote      string
	MinVolume  decimal.Decimal
}

// Config holds server configuration
type Config struct {
	Host        string
	Port        int
	APIKey      string
	MetricsPath string
	// PruneInterval is how often expired jobs are dropped; 0 means every minute
	PruneInterval time.Duration
}

// Server represents the HTTP server for thrust
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
	mux        *http.ServeMux
	handler    http.Handler
	backtests  *handler.BacktestHandler
	jobs       *job.Store
	prune      time.Duration
}

// NewServer creates a new HTTP server
func NewServer(cfg Config, deps Dependencies, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.Jobs == nil {
		return nil, fmt.Errorf("job store required")
	}
	if deps.Backtester == nil || deps.Market == nil {
		return nil, fmt.Errorf("backtester and market data required")
	}

	mux := http.NewServeMux()

	s := &Server{
		logger: logger,
		mux:    mux,
		jobs:   deps.Jobs,
		prune:  cfg.PruneInterval,
	}
	if s.prune <= 0 {
		s.prune = time.Minute
	}

	metricsPath := cfg.MetricsPath
	if metricsPath == "" {
		metricsPath = "/metrics"
	}
	s.setupRoutes(deps, metricsPath)

	public := []string{healthPath}
	if deps.Metrics != nil {
		public = append(public, metricsPath)
	}

	var h http.Handler = mux
	h = middleware.APIKeyAuth(cfg.APIKey, public...)(h)
	h = metrics.LoggingMiddleware(logger)(h)
	if deps.Metrics != nil {
		h = metrics.HTTPMiddleware(deps.Metrics)(h)
	}
	s.handler = h

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes(deps Dependencies, metricsPath string) {
	var jobRecorder handler.JobRecorder
	if deps.Metrics != nil {
		jobRecorder = deps.Metrics
	}

	s.backtests = handler.NewBacktestHandler(deps.Jobs, deps.Backtester, deps.Defaults, deps.Quote, s.logger, jobRecorder)
	signal := handler.NewSignalHandler(deps.Market, deps.Defaults)
	symbols := handler.NewSymbolsHandler(deps.Market, deps.Quote, deps.MinVolume)

	s.mux.HandleFunc("POST /api/v1/backtests", s.backtests.Create)
	s.mux.HandleFunc("GET /api/v1/backtests/{id}", s.backtests.GetStatus)
	s.mux.HandleFunc("GET /api/v1/signal", signal.Get)
	s.mux.HandleFunc("GET /api/v1/symbols", symbols.List)
	s.mux.HandleFunc("GET "+healthPath, s.handleHealth)

	if deps.Metrics != nil {
		s.mux.Handle("GET "+metricsPath, promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{}))
	}
}

// Handler returns the routes wrapped in middleware
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start serves until Shutdown is called. Expired jobs are pruned while the
// server runs.
func (s *Server) Start(ctx context.Context) error {
	pruneCtx, stop := context.WithCancel(ctx)
	defer stop()
	go watch.Poller{Interval: s.prune, Name: "job_prune", Logger: s.logger}.Run(pruneCtx, func(context.Context) error {
		if n := s.jobs.Prune(); n > 0 {
			s.logger.Debug("pruned expired jobs", zap.Int("count", n))
		}
		return nil
	})

	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server and waits for running backtests
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return err
	}

	done := make(chan struct{})
	go func() {
		s.backtests.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
