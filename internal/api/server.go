// Package api exposes the risk assessment pipeline over HTTP. The contract
// is the structured verdict payload; rendering it as markup is the
// caller's job.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/sepsis-risk-server/internal/audit"
	"github.com/sepsis-risk-server/internal/domain"
	"github.com/sepsis-risk-server/internal/middleware"
	"github.com/sepsis-risk-server/internal/service"
)

// Server represents the HTTP server
type Server struct {
	configManager domain.ConfigManager
	logger        *logrus.Logger
	handler       *AssessmentHandler
	router        *gin.Engine
	server        *http.Server
}

// NewServer creates a new HTTP server instance. The audit store may be nil
// when persistence is disabled.
func NewServer(configManager domain.ConfigManager, logger *logrus.Logger, assessor *service.RiskAssessor, store audit.Store) (*Server, error) {
	cfg := configManager.GetConfig()

	// Set Gin mode based on environment
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	handler, err := NewAssessmentHandler(logger, assessor, store)
	if err != nil {
		return nil, err
	}

	router := gin.New()

	// Add middleware
	router.Use(middleware.AuditLogger())
	router.Use(gin.Recovery())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.RateLimit(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst))

	server := &Server{
		configManager: configManager,
		logger:        logger,
		handler:       handler,
		router:        router,
	}

	// Setup routes
	server.setupRoutes()

	return server, nil
}

// Router exposes the configured engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Start starts the HTTP server
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

	errChan := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return s.server.Shutdown(shutdownCtx)
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	// Health check endpoint
	s.router.GET("/health", s.handleHealth)

	// API v1 routes
	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/assess", s.handler.HandleAssess)
		v1.GET("/assessments", s.handler.HandleListAssessments)
		v1.GET("/assessments/export", s.handler.HandleExportAssessments)
		v1.GET("/assessments/:id", s.handler.HandleGetAssessment)
	}
}

// handleHealth handles health check requests
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":        "healthy",
		"timestamp":     time.Now(),
		"model_version": s.handler.assessor.ModelVersion(),
	})
}
