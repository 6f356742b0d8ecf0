package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sepsis-risk-server/internal/domain"
)

func TestNewProbabilityCalibrator(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *domain.CalibrationConfig
		wantErr bool
		enabled bool
	}{
		{"Nil config disables rescaling", nil, false, false},
		{"Disabled config", &domain.CalibrationConfig{Enabled: false, ProbMin: 0.1, ProbMax: 0.9}, false, false},
		{"Valid bounds", &domain.CalibrationConfig{Enabled: true, ProbMin: 0.1, ProbMax: 0.9}, false, true},
		{"Equal bounds rejected", &domain.CalibrationConfig{Enabled: true, ProbMin: 0.5, ProbMax: 0.5}, true, false},
		{"Inverted bounds rejected", &domain.CalibrationConfig{Enabled: true, ProbMin: 0.9, ProbMax: 0.1}, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calibrator, err := NewProbabilityCalibrator(tt.cfg)
			if tt.wantErr {
				require.Error(t, err)
				var configErr *domain.ConfigError
				assert.True(t, errors.As(err, &configErr), "degenerate bounds must be a configuration error")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.enabled, calibrator.Enabled())
		})
	}
}

func TestProbabilityCalibrator_Disabled(t *testing.T) {
	calibrator, err := NewProbabilityCalibrator(nil)
	require.NoError(t, err)

	assert.Equal(t, 0.42, calibrator.Calibrate(0.42))
	assert.Equal(t, 0.0, calibrator.Calibrate(-0.3), "still clamped without rescaling")
	assert.Equal(t, 1.0, calibrator.Calibrate(1.7))
}

func TestProbabilityCalibrator_LinearRescale(t *testing.T) {
	calibrator, err := NewProbabilityCalibrator(&domain.CalibrationConfig{
		Enabled: true,
		ProbMin: 0.1,
		ProbMax: 0.9,
	})
	require.NoError(t, err)

	tests := []struct {
		name string
		raw  float64
		want float64
	}{
		{"Lower bound maps to 0", 0.1, 0.0},
		{"Upper bound maps to 1", 0.9, 1.0},
		{"Center maps to center", 0.5, 0.5},
		{"Below lower bound clamps", 0.05, 0.0},
		{"Above upper bound clamps", 0.95, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, calibrator.Calibrate(tt.raw), 1e-12)
		})
	}
}

func TestProbabilityCalibrator_Monotonic(t *testing.T) {
	calibrator, err := NewProbabilityCalibrator(&domain.CalibrationConfig{
		Enabled: true,
		ProbMin: 0.2,
		ProbMax: 0.8,
	})
	require.NoError(t, err)

	inputs := []float64{0.0, 0.2, 0.35, 0.5, 0.65, 0.8, 1.0}
	previous := -1.0
	for _, raw := range inputs {
		calibrated := calibrator.Calibrate(raw)
		assert.GreaterOrEqual(t, calibrated, previous, "calibration must never reverse ordering")
		assert.GreaterOrEqual(t, calibrated, 0.0)
		assert.LessOrEqual(t, calibrated, 1.0)
		previous = calibrated
	}
}
