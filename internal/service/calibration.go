package service

import (
	"github.com/sepsis-risk-server/internal/domain"
)

// ProbabilityCalibrator maps a classifier's raw high-risk probability to a
// calibrated [0,1] value for display. A classifier that rarely outputs near
// 0 or 1 compresses all confidences into a narrow band; the optional linear
// rescale stretches that band back to the full range.
type ProbabilityCalibrator struct {
	enabled bool
	probMin float64
	probMax float64
}

// NewProbabilityCalibrator builds a calibrator from configuration. Degenerate
// bounds (prob_max <= prob_min) are a fatal configuration error: the divider
// must never be reached with a zero or negative span.
func NewProbabilityCalibrator(cfg *domain.CalibrationConfig) (*ProbabilityCalibrator, error) {
	if cfg == nil || !cfg.Enabled {
		return &ProbabilityCalibrator{}, nil
	}
	if cfg.ProbMax <= cfg.ProbMin {
		return nil, domain.NewConfigError("calibration",
			"prob_max (%g) must be greater than prob_min (%g)", cfg.ProbMax, cfg.ProbMin)
	}
	return &ProbabilityCalibrator{
		enabled: true,
		probMin: cfg.ProbMin,
		probMax: cfg.ProbMax,
	}, nil
}

// Calibrate rescales a raw probability and clamps it to [0,1]. Without
// scaling parameters the raw value is returned clamped unchanged.
func (c *ProbabilityCalibrator) Calibrate(raw float64) float64 {
	if !c.enabled {
		return clamp01(raw)
	}
	return clamp01((raw - c.probMin) / (c.probMax - c.probMin))
}

// Enabled reports whether linear rescaling parameters are in effect.
func (c *ProbabilityCalibrator) Enabled() bool {
	return c.enabled
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
