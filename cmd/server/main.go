package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/sepsis-risk-server/internal/api"
	"github.com/sepsis-risk-server/internal/audit"
	"github.com/sepsis-risk-server/internal/config"
	"github.com/sepsis-risk-server/internal/domain"
	"github.com/sepsis-risk-server/internal/model"
	"github.com/sepsis-risk-server/internal/service"
)

func main() {
	// Load configuration
	configManager, err := config.NewManager()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Validate configuration
	if err := configManager.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	cfg := configManager.GetConfig()
	logger := newLogger(&cfg.Logging)

	// Load trained model capabilities; serving without a classifier is fatal.
	artifacts, err := model.Load(logger, &cfg.Model)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load model artifacts")
	}

	// Operator-supplied calibration bounds override artifact bounds.
	calibration := artifacts.Scaling
	if cfg.Calibration.Enabled {
		calibration = &cfg.Calibration
	}
	calibrator, err := service.NewProbabilityCalibrator(calibration)
	if err != nil {
		logger.WithError(err).Fatal("Invalid probability calibration parameters")
	}

	assessor, err := service.NewRiskAssessor(logger, artifacts.Classifier, artifacts.Scaler, calibrator, &cfg.Adjudication, artifacts.Version)
	if err != nil {
		logger.WithError(err).Fatal("Failed to construct risk assessor")
	}

	// Optional assessment audit store
	var store audit.Store
	if cfg.Audit.Enabled {
		sqliteStore, err := audit.NewSQLiteStore(cfg.Audit.DBPath)
		if err != nil {
			logger.WithError(err).Fatal("Failed to open assessment audit store")
		}
		defer sqliteStore.Close()
		store = sqliteStore
	}

	// Create server
	server, err := api.NewServer(configManager, logger, assessor, store)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create server")
	}

	logger.WithFields(logrus.Fields{
		"host":          cfg.Server.Host,
		"port":          cfg.Server.Port,
		"model_version": artifacts.Version,
		"audit_enabled": cfg.Audit.Enabled,
	}).Info("Starting sepsis risk server")

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, gracefully shutting down...")
		cancel()
	}()

	// Start server
	if err := server.Start(ctx); err != nil {
		logger.WithError(err).Fatal("Server failed")
	}

	logger.Info("Server stopped")
}

// newLogger builds the process logger from configuration.
func newLogger(cfg *domain.LoggingConfig) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if strings.ToLower(cfg.Format) == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	if cfg.Output == "stderr" {
		logger.SetOutput(os.Stderr)
	} else {
		logger.SetOutput(os.Stdout)
	}

	return logger
}
