package server

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"ideabox/internal/config"
	"ideabox/internal/handlers"
	"ideabox/internal/middlewares"
	"ideabox/internal/services"
)

type Server struct {
	port           int
	httpServer     *http.Server
	db             handlers.HealthChecker
	ideaService    services.IdeaService
	limiter        *middlewares.RateLimiter
	allowedOrigins []string
	mailConfigured bool
}

func NewServer(cfg config.Config, db handlers.HealthChecker, ideaService services.IdeaService) *Server {
	s := &Server{
		port:           cfg.Port,
		db:             db,
		ideaService:    ideaService,
		limiter:        middlewares.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
		allowedOrigins: cfg.AllowedOrigins,
		mailConfigured: cfg.MailConfigured(),
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return s
}

// Start serves until the server is shut down. Idle rate-limit buckets are
// evicted in the background for as long as ctx lives.
func (s *Server) Start(ctx context.Context) error {
	go s.limiter.Cleanup(ctx, time.Minute, 3*time.Minute)

	log.Info().Int("port", s.port).Msg("Starting server")
	return s.httpServer.ListenAndServe()
}

// GracefulShutdown blocks until SIGINT or SIGTERM, then drains in-flight
// requests and signals done.
func (s *Server) GracefulShutdown(done chan<- bool) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	log.Info().Msg("Shutting down gracefully, press Ctrl+C again to force")
	stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown with error")
	}

	log.Info().Msg("Server exiting")
	done <- true
}
