// Package server exposes the district performance service over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/mkoziy/mgnrega/dashboard/internal/models"
	"github.com/mkoziy/mgnrega/dashboard/internal/performance"
)

// Service is the part of performance.Service the handlers use.
type Service interface {
	District(ctx context.Context, districtID string) (*models.District, error)
	Districts(ctx context.Context, stateCode string) ([]*models.District, error)
	Resolve(ctx context.Context, districtID string) (*performance.Result, error)
	Refresh(ctx context.Context, districtID string) (*performance.Result, error)
	RecentHealth(ctx context.Context, limit int) ([]*models.HealthLogEntry, error)
}

var _ Service = (*performance.Service)(nil)

// Pinger reports whether the database is reachable.
type Pinger func(ctx context.Context) error

// allowedHeaders are the request headers the browser client sends.
var allowedHeaders = []string{"authorization", "x-client-info", "apikey", "content-type"}

type Config struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	// DefaultState is used when a district listing names no state.
	DefaultState string
}

func DefaultConfig() Config {
	return Config{
		Host:            "0.0.0.0",
		Port:            8080,
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    30 * time.Second,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		DefaultState:    "27",
	}
}

// Server is the HTTP front of the service.
type Server struct {
	cfg        Config
	svc        Service
	ping       Pinger
	logger     *zap.Logger
	validate   *validator.Validate
	handler    http.Handler
	httpServer *http.Server
}

// New builds the router. A nil ping always reports healthy and a nil logger
// discards output.
func New(cfg Config, svc Service, ping Pinger, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ping == nil {
		ping = func(context.Context) error { return nil }
	}
	if cfg.DefaultState == "" {
		cfg.DefaultState = DefaultConfig().DefaultState
	}

	s := &Server{
		cfg:      cfg,
		svc:      svc,
		ping:     ping,
		logger:   logger,
		validate: validator.New(),
	}

	r := mux.NewRouter()
	s.registerRoutes(r)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:       []string{"*"},
		AllowedMethods:       []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:       allowedHeaders,
		OptionsSuccessStatus: http.StatusOK,
		// Preflights reach edgeHeaders, which answers every OPTIONS request.
		OptionsPassthrough: true,
	})

	s.handler = recoverPanics(logger, accessLog(logger, corsHandler.Handler(edgeHeaders(r))))

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s
}

// Handler returns the fully wrapped router.
func (s *Server) Handler() http.Handler { return s.handler }

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down server")
		timeout := s.cfg.ShutdownTimeout
		if timeout <= 0 {
			timeout = DefaultConfig().ShutdownTimeout
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		s.logger.Info("server shut down gracefully")
		return nil
	case err := <-errChan:
		return err
	}
}

func (s *Server) registerRoutes(r *mux.Router) {
	r.HandleFunc("/functions/v1/fetch-mgnrega-data", s.handleInvoke).Methods(http.MethodPost)

	// Routes stay on the root router so MethodNotAllowedHandler covers them;
	// a subrouter reports a method mismatch as not found.
	r.HandleFunc("/api/v1/districts", s.handleDistricts).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/districts/{id}/performance", s.handlePerformance).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/districts/{id}/refresh", s.handleRefresh).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/health/upstream", s.handleUpstreamHealth).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})
}
