// Package api exposes the pharmacogenomic engine and profile store over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/pharmaguard-pgx-server/internal/domain"
	"github.com/pharmaguard-pgx-server/internal/middleware"
	"github.com/pharmaguard-pgx-server/internal/profile"
	"github.com/pharmaguard-pgx-server/internal/service"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

// Server represents the HTTP server
type Server struct {
	configManager domain.ConfigManager
	analysis      *service.AnalysisService
	profiles      profile.Store
	logger        *logrus.Logger
	router        *gin.Engine
	server        *http.Server
}

// NewServer creates a new HTTP server instance
func NewServer(
	configManager domain.ConfigManager,
	analysis *service.AnalysisService,
	profiles profile.Store,
	logger *logrus.Logger,
) *Server {
	cfg := configManager.GetConfig()

	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	limiter := middleware.NewRateLimiter(cfg.Server.RateLimit, cfg.Server.RateBurst)

	router.Use(gin.Recovery())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.AuditLogger(logger))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CORS(cfg.Server.AllowedOrigin))
	router.Use(middleware.RequestTimeout(cfg.Server.RequestTimeout))
	router.Use(limiter.Middleware())

	s := &Server{
		configManager: configManager,
		analysis:      analysis,
		profiles:      profiles,
		logger:        logger,
		router:        router,
	}

	s.setupRoutes()
	return s
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server and blocks until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	cfg := s.configManager.GetServerConfig()
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", addr).Info("HTTP server listening")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return s.server.Shutdown(shutdownCtx)
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/analyze", s.handleAnalyze)
		v1.POST("/classify", s.handleClassify)
		v1.POST("/report", s.handleReport)
		v1.GET("/reports/:patientId", s.handleLatestReport)

		v1.GET("/drugs", s.handleListDrugs)
		v1.GET("/drugs/:name", s.handleGetDrug)

		v1.GET("/profiles", s.handleListProfiles)
		v1.POST("/profiles", s.handleCreateProfile)
		v1.GET("/profiles/export", s.handleExportProfiles)
		v1.GET("/profiles/:id", s.handleGetProfile)
		v1.PUT("/profiles/:id", s.handleUpdateProfile)
	}
}

// handleHealth handles health check requests
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"version":   Version,
		"genes":     s.analysis.Table().Genes(),
		"drugs":     len(s.analysis.Drugs()),
	})
}

// respondError writes a domain.APIError tagged with the correlation ID.
func (s *Server) respondError(c *gin.Context, status int, code, message, details string) {
	c.AbortWithStatusJSON(status, domain.NewAPIError(code, message, details, c.GetString(middleware.CorrelationIDKey)))
}

// respondStoreError maps profile store errors to HTTP responses.
func (s *Server) respondStoreError(c *gin.Context, err error, notFound string) {
	var verr *domain.ValidationError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		s.respondError(c, http.StatusNotFound, domain.ErrNotFoundCode, notFound, "")
	case errors.As(err, &verr):
		s.respondError(c, http.StatusBadRequest, domain.ErrValidation, verr.Message, verr.Field)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		s.respondError(c, http.StatusRequestTimeout, domain.ErrInternalServer, "Request timeout", "")
	default:
		s.logger.WithError(err).WithField(middleware.CorrelationIDKey, c.GetString(middleware.CorrelationIDKey)).Error("Store operation failed")
		s.respondError(c, http.StatusInternalServerError, domain.ErrDatabaseError, "Database error", "")
	}
}
