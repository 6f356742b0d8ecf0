package domain

import (
	"time"
)

// Config represents the main application configuration
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Logging      LoggingConfig      `mapstructure:"logging"`
	Model        ModelConfig        `mapstructure:"model"`
	Calibration  CalibrationConfig  `mapstructure:"calibration"`
	Adjudication AdjudicationConfig `mapstructure:"adjudication"`
	RateLimit    RateLimitConfig    `mapstructure:"rate_limit"`
	Audit        AuditConfig        `mapstructure:"audit"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// ModelConfig locates the trained model artifacts. The loader tries the
// calibrated generation first, then phase 2, then phase 1; serving without
// any usable classifier is fatal.
type ModelConfig struct {
	ArtifactDir      string `mapstructure:"artifact_dir"`
	CalibratedModel  string `mapstructure:"calibrated_model"`
	CalibratedScaler string `mapstructure:"calibrated_scaler"`
	ScalingParams    string `mapstructure:"scaling_params"`
	Phase2Model      string `mapstructure:"phase2_model"`
	Phase1Model      string `mapstructure:"phase1_model"`
	Phase1Scaler     string `mapstructure:"phase1_scaler"`
}

// CalibrationConfig holds the optional linear probability rescaling
// parameters. When Enabled, ProbMax must be strictly greater than ProbMin;
// equality is a fatal configuration error, never a silent division.
type CalibrationConfig struct {
	Enabled bool    `mapstructure:"enabled"`
	ProbMin float64 `mapstructure:"prob_min"`
	ProbMax float64 `mapstructure:"prob_max"`
}

// AdjudicationConfig tunes the final-verdict policy. The escalation
// threshold is deliberately a named setting: historical policy snapshots
// disagreed (escalate at 3, at 2 with a low prediction, at 5), and the
// strict high-threshold variant is the canonical default.
type AdjudicationConfig struct {
	DecisionThreshold   float64 `mapstructure:"decision_threshold"`
	EscalationThreshold int     `mapstructure:"escalation_threshold"`
}

// RateLimitConfig represents request rate limiting configuration
type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// AuditConfig controls the optional assessment audit store. The assessment
// pipeline itself is stateless; disabling the store removes all persistence.
type AuditConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	DBPath  string `mapstructure:"db_path"`
}
