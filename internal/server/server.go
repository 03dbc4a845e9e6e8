package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/darklock/relay/internal/auth"
	"github.com/darklock/relay/internal/config"
	relayhandlers "github.com/darklock/relay/internal/relay/handlers"
	"github.com/darklock/relay/internal/server/handlers"
	"github.com/darklock/relay/internal/server/middleware"
	"github.com/darklock/relay/internal/store"
)

// maxFanout bounds the number of recipients one push may target. Large enough
// for every device of a busy group chat, small enough to keep a push one
// bounded batch.
const maxFanout = 100

type Server struct {
	pool      *pgxpool.Pool
	store     *store.Store
	config    *config.ServerEnvironment
	logger    *slog.Logger
	router    *chi.Mux
	verifier  *auth.Verifier
	startedAt time.Time
}

func NewServer(
	pool *pgxpool.Pool,
	envelopeStore *store.Store,
	cfg *config.ServerEnvironment,
	logger *slog.Logger,
) *Server {
	server := &Server{
		pool:      pool,
		store:     envelopeStore,
		config:    cfg,
		logger:    logger,
		router:    chi.NewRouter(),
		verifier:  auth.NewVerifier(cfg.RelaySigningSecret),
		startedAt: time.Now(),
	}

	server.setupMiddleware()
	server.registerRoutes()

	return server
}

func (s *Server) setupMiddleware() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.RequestLogger(s.logger))
	s.router.Use(middleware.SecurityHeaders(s.config.Environment))
	s.router.Use(middleware.CORS(s.config.AllowedOrigins))
	s.router.Use(middleware.RateLimit(s.config.RateLimitRPS, s.config.RateLimitBurst))
	s.router.Use(chimiddleware.Timeout(s.config.RequestTimeout))
	s.router.Use(middleware.RequestSizeLimit(s.config.MaxRequestBody))
}

func (s *Server) registerRoutes() {
	s.router.Get("/health/live", handlers.HandleLive)
	s.router.Get("/health", handlers.HandleHealth(s.store, s.startedAt))
	s.router.Get("/version", handlers.HandleVersion())

	pushHandler := relayhandlers.NewPushHandler(s.store, s.config.MaxRequestBody, maxFanout)
	pollHandler := relayhandlers.NewPollHandler(s.store, s.config.DefaultPollLimit, s.config.MaxPollLimit)
	ackHandler := relayhandlers.NewAckHandler(s.store, int(s.config.MaxPollLimit))

	// every envelope-touching route sits behind the bearer-token check
	s.router.Group(func(r chi.Router) {
		r.Use(s.verifier.RequireAuth)

		r.Post("/envelopes", pushHandler.HandlePush)
		r.Get("/envelopes", pollHandler.HandlePoll)
		r.Post("/envelopes/ack", ackHandler.HandleAckBatch)
		r.Post("/envelopes/{envelopeID}/ack", ackHandler.HandleAck)
	})
}

// Router exposes the configured handler, used by the integration tests to
// drive the server in-process.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) Start(ctx context.Context) error {
	serverAddr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	httpServer := &http.Server{
		Addr:         serverAddr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("service listening",
			slog.String("environment", s.config.Environment),
			slog.String("address", serverAddr))

		err := httpServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			serverErrors <- fmt.Errorf("server failed to start: %w", err)
		}
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), s.config.ServerShutdownTimeout)
	defer shutdownCancel()

	s.logger.Info("shutting down HTTP server")

	err := httpServer.Shutdown(shutdownCtx)
	if err != nil {
		s.logger.Warn("HTTP server shutdown error",
			slog.String("error", err.Error()))
		return fmt.Errorf("HTTP server shutdown failed: %w", err)
	}

	s.logger.Info("HTTP server shutdown complete")
	return nil
}

func (s *Server) DatabaseShutdown() {
	if s.pool != nil {
		s.pool.Close()
		s.logger.Info("database connection closed")
	}
}
