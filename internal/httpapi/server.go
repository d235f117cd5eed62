// Package httpapi exposes the knowledge service over HTTP.
package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/ragd/internal/knowledge"
	"github.com/fyrsmithlabs/ragd/internal/loader"
	"github.com/fyrsmithlabs/ragd/internal/synthesis"
)

// KnowledgeService is the service surface the handlers need.
type KnowledgeService interface {
	CreateOrAppend(ctx context.Context, scope knowledge.Scope, file loader.File) (*knowledge.IngestResult, error)
	Query(ctx context.Context, scope knowledge.Scope, question string, topK int) (*synthesis.Answer, error)
}

// Config configures the HTTP server.
type Config struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration
}

// Server is the HTTP server.
type Server struct {
	cfg     Config
	echo    *echo.Echo
	service KnowledgeService
	logger  *zap.Logger
}

// NewServer creates the server and registers all routes.
func NewServer(cfg Config, service KnowledgeService, logger *zap.Logger) (*Server, error) {
	if service == nil {
		return nil, fmt.Errorf("knowledge service is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(requestLogger(logger))

	s := &Server{cfg: cfg, echo: e, service: service, logger: logger}
	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := s.echo.Group("/api/v1")
	v1.POST("/knowledge/create", s.handleCreate)
	v1.POST("/knowledge/query/:chat_id", s.handleQuery)
}

// Start runs the server until ctx is cancelled, then shuts down
// gracefully. Returns http.ErrServerClosed on a clean shutdown.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	errCh := make(chan error, 1)
	go func() {
		if err := s.echo.Start(addr); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("server start: %w", err)
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()

		if err := s.echo.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return http.ErrServerClosed
	}
}

// Echo returns the underlying router, for tests.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// requestLogger logs one line per request through the process logger.
func requestLogger(logger *zap.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
				logger.Warn("request", fields...)
				return nil
			}
			logger.Info("request", fields...)
			return nil
		},
	})
}
