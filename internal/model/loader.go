package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/sepsis-risk-server/internal/domain"
)

// Model generation labels reported in the verdict payload.
const (
	VersionCalibrated = "Calibrated Logistic Regression"
	VersionPhase2     = "Phase 2 Model"
	VersionPhase1     = "Phase 1 Model"
)

// trendFeatureCount is the input width of models trained with hourly trend
// features. Those models cannot serve single-snapshot requests and are
// skipped by the loader.
const trendFeatureCount = 43

// Artifacts is the resolved set of trained capabilities for one model
// generation.
type Artifacts struct {
	Classifier domain.Classifier
	Scaler     domain.FeatureScaler
	Scaling    *domain.CalibrationConfig
	Version    string
}

// classifierArtifact is the on-disk JSON shape of a trained classifier.
type classifierArtifact struct {
	ModelType    string    `json:"model_type"`
	NFeatures    int       `json:"n_features"`
	Coefficients []float64 `json:"coefficients"`
	Intercept    float64   `json:"intercept"`
}

// scalerArtifact is the on-disk JSON shape of a fitted scaler.
type scalerArtifact struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// scalingArtifact is the on-disk JSON shape of probability scaling bounds.
type scalingArtifact struct {
	ProbMin float64 `json:"prob_min"`
	ProbMax float64 `json:"prob_max"`
}

// Load resolves the best available model generation: calibrated model with
// its scaler and optional probability-scaling bounds, then the phase-2
// model, then the phase-1 model with its scaler. Exhausting the chain
// without a usable classifier is a fatal capability error; the server
// never starts serving without one.
func Load(logger *logrus.Logger, cfg *domain.ModelConfig) (*Artifacts, error) {
	if cfg == nil {
		return nil, domain.NewCapabilityError("classifier", fmt.Errorf("no model configuration supplied"))
	}

	if artifacts, err := loadCalibrated(logger, cfg); err == nil {
		return artifacts, nil
	} else {
		// Degenerate scaling bounds are a misconfiguration, not a missing
		// artifact; never fall through to an older generation silently.
		var configErr *domain.ConfigError
		if errors.As(err, &configErr) {
			return nil, err
		}
		logger.WithError(err).Debug("Calibrated model unavailable, trying phase 2")
	}

	if artifacts, err := loadPhase2(logger, cfg); err == nil {
		return artifacts, nil
	} else {
		logger.WithError(err).Debug("Phase 2 model unavailable, trying phase 1")
	}

	artifacts, err := loadPhase1(logger, cfg)
	if err != nil {
		return nil, domain.NewCapabilityError("classifier",
			fmt.Errorf("no usable model artifacts in %s: %w", cfg.ArtifactDir, err))
	}
	return artifacts, nil
}

func loadCalibrated(logger *logrus.Logger, cfg *domain.ModelConfig) (*Artifacts, error) {
	classifier, err := loadClassifier(filepath.Join(cfg.ArtifactDir, cfg.CalibratedModel))
	if err != nil {
		return nil, err
	}
	scaler, err := loadScaler(filepath.Join(cfg.ArtifactDir, cfg.CalibratedScaler))
	if err != nil {
		return nil, err
	}

	artifacts := &Artifacts{
		Classifier: classifier,
		Scaler:     scaler,
		Version:    VersionCalibrated,
	}

	// Scaling bounds are optional for this generation, but a present,
	// degenerate artifact is fatal.
	scaling, err := loadScaling(filepath.Join(cfg.ArtifactDir, cfg.ScalingParams))
	if err != nil {
		return nil, err
	}
	if scaling != nil {
		artifacts.Scaling = scaling
		logger.WithFields(logrus.Fields{
			"prob_min": scaling.ProbMin,
			"prob_max": scaling.ProbMax,
		}).Info("Using calibrated model with linear probability scaling")
	} else {
		logger.Info("Using calibrated model without probability scaling")
	}

	return artifacts, nil
}

func loadPhase2(logger *logrus.Logger, cfg *domain.ModelConfig) (*Artifacts, error) {
	classifier, err := loadClassifier(filepath.Join(cfg.ArtifactDir, cfg.Phase2Model))
	if err != nil {
		return nil, err
	}
	if classifier.NumFeatures() == trendFeatureCount {
		return nil, fmt.Errorf("phase 2 model requires trend features (%d inputs)", trendFeatureCount)
	}
	logger.Info("Using phase 2 model")
	return &Artifacts{Classifier: classifier, Version: VersionPhase2}, nil
}

func loadPhase1(logger *logrus.Logger, cfg *domain.ModelConfig) (*Artifacts, error) {
	classifier, err := loadClassifier(filepath.Join(cfg.ArtifactDir, cfg.Phase1Model))
	if err != nil {
		return nil, err
	}
	scaler, err := loadScaler(filepath.Join(cfg.ArtifactDir, cfg.Phase1Scaler))
	if err != nil {
		return nil, err
	}
	logger.Info("Using phase 1 model")
	return &Artifacts{Classifier: classifier, Scaler: scaler, Version: VersionPhase1}, nil
}

func loadClassifier(path string) (*LogisticModel, error) {
	var artifact classifierArtifact
	if err := readJSON(path, &artifact); err != nil {
		return nil, err
	}
	if artifact.NFeatures != 0 && artifact.NFeatures != len(artifact.Coefficients) {
		return nil, fmt.Errorf("classifier artifact %s declares %d features but carries %d coefficients",
			path, artifact.NFeatures, len(artifact.Coefficients))
	}
	return NewLogisticModel(artifact.Coefficients, artifact.Intercept)
}

func loadScaler(path string) (*StandardScaler, error) {
	var artifact scalerArtifact
	if err := readJSON(path, &artifact); err != nil {
		return nil, err
	}
	return NewStandardScaler(artifact.Mean, artifact.Scale)
}

func loadScaling(path string) (*domain.CalibrationConfig, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, nil
	}
	var artifact scalingArtifact
	if err := readJSON(path, &artifact); err != nil {
		return nil, err
	}
	if artifact.ProbMax <= artifact.ProbMin {
		return nil, domain.NewConfigError("scaling_params",
			"prob_max (%g) must be greater than prob_min (%g)", artifact.ProbMax, artifact.ProbMin)
	}
	return &domain.CalibrationConfig{
		Enabled: true,
		ProbMin: artifact.ProbMin,
		ProbMax: artifact.ProbMax,
	}, nil
}

func readJSON(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read artifact %s: %w", path, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode artifact %s: %w", path, err)
	}
	return nil
}
