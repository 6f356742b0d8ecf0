package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/sepsis-risk-server/internal/domain"
)

// Manager implements the ConfigManager interface using Viper
type Manager struct {
	config *domain.Config
}

// NewManager creates a new configuration manager
func NewManager() (*Manager, error) {
	m := &Manager{}
	if err := m.loadConfig(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return m, nil
}

// loadConfig loads configuration from various sources
func (m *Manager) loadConfig() error {
	// Set configuration file name and paths
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/sepsis-risk-server/")

	// Set environment variable prefix and enable automatic env binding
	viper.SetEnvPrefix("SEPSIS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Set default values
	m.setDefaults()

	// Read configuration file (optional - will use defaults and env vars if not found)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; using defaults and environment variables
	}

	// Unmarshal configuration into struct
	config := &domain.Config{}
	if err := viper.Unmarshal(config); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}

	m.config = config
	return nil
}

// setDefaults sets default configuration values
func (m *Manager) setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.idle_timeout", "120s")

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.output", "stdout")

	// Model artifact defaults, newest generation first
	viper.SetDefault("model.artifact_dir", "./artifacts")
	viper.SetDefault("model.calibrated_model", "model_calibrated.json")
	viper.SetDefault("model.calibrated_scaler", "scaler_calibrated.json")
	viper.SetDefault("model.scaling_params", "scaling_params.json")
	viper.SetDefault("model.phase2_model", "model_phase2.json")
	viper.SetDefault("model.phase1_model", "model.json")
	viper.SetDefault("model.phase1_scaler", "scaler.json")

	// Calibration defaults: disabled unless the artifact or operator
	// supplies scaling bounds
	viper.SetDefault("calibration.enabled", false)
	viper.SetDefault("calibration.prob_min", 0.0)
	viper.SetDefault("calibration.prob_max", 1.0)

	// Adjudication defaults: strict escalation policy
	viper.SetDefault("adjudication.decision_threshold", 0.5)
	viper.SetDefault("adjudication.escalation_threshold", 5)

	// Rate limit defaults
	viper.SetDefault("rate_limit.requests_per_second", 25.0)
	viper.SetDefault("rate_limit.burst", 50)

	// Audit store defaults
	viper.SetDefault("audit.enabled", true)
	viper.SetDefault("audit.db_path", "./data/assessments.db")
}

// GetConfig returns the complete configuration
func (m *Manager) GetConfig() *domain.Config {
	return m.config
}

// GetServerConfig returns server configuration
func (m *Manager) GetServerConfig() *domain.ServerConfig {
	return &m.config.Server
}

// GetModelConfig returns model artifact configuration
func (m *Manager) GetModelConfig() *domain.ModelConfig {
	return &m.config.Model
}

// GetCalibrationConfig returns probability calibration configuration
func (m *Manager) GetCalibrationConfig() *domain.CalibrationConfig {
	return &m.config.Calibration
}

// GetAdjudicationConfig returns verdict policy configuration
func (m *Manager) GetAdjudicationConfig() *domain.AdjudicationConfig {
	return &m.config.Adjudication
}

// Validate validates the configuration. Calibration bounds are checked
// here so a degenerate rescale (prob_max == prob_min) is rejected at
// startup rather than reaching the divider at request time.
func (m *Manager) Validate() error {
	config := m.config

	// Validate server configuration
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return domain.NewConfigError("server.port", "invalid port: %d", config.Server.Port)
	}

	// Validate logging configuration
	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(config.Logging.Level)] {
		return domain.NewConfigError("logging.level", "invalid log level: %s", config.Logging.Level)
	}

	// Validate model configuration
	if config.Model.ArtifactDir == "" {
		return domain.NewConfigError("model.artifact_dir", "artifact directory is required")
	}

	// Validate calibration configuration
	if config.Calibration.Enabled && config.Calibration.ProbMax <= config.Calibration.ProbMin {
		return domain.NewConfigError("calibration",
			"prob_max (%g) must be greater than prob_min (%g)",
			config.Calibration.ProbMax, config.Calibration.ProbMin)
	}

	// Validate adjudication configuration
	if config.Adjudication.DecisionThreshold <= 0 || config.Adjudication.DecisionThreshold >= 1 {
		return domain.NewConfigError("adjudication.decision_threshold",
			"decision threshold must be in (0,1), got %g", config.Adjudication.DecisionThreshold)
	}
	if config.Adjudication.EscalationThreshold < 1 {
		return domain.NewConfigError("adjudication.escalation_threshold",
			"escalation threshold must be at least 1, got %d", config.Adjudication.EscalationThreshold)
	}

	// Validate rate limit configuration
	if config.RateLimit.RequestsPerSecond <= 0 {
		return domain.NewConfigError("rate_limit.requests_per_second",
			"requests per second must be positive, got %g", config.RateLimit.RequestsPerSecond)
	}

	// Validate audit configuration
	if config.Audit.Enabled && config.Audit.DBPath == "" {
		return domain.NewConfigError("audit.db_path", "db path is required when the audit store is enabled")
	}

	return nil
}

// IsProduction returns true if running in production mode
func (m *Manager) IsProduction() bool {
	return strings.ToLower(viper.GetString("environment")) == "production"
}
