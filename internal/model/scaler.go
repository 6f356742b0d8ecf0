package model

import (
	"fmt"
)

// StandardScaler re-applies the feature normalization fitted at training
// time: (x - mean) / scale per feature. It must run before classification,
// never after.
type StandardScaler struct {
	mean  []float64
	scale []float64
}

// NewStandardScaler builds a scaler from fitted parameters. Zero scale
// entries (constant training features) pass values through unscaled rather
// than dividing by zero, matching the fitting library's convention.
func NewStandardScaler(mean, scale []float64) (*StandardScaler, error) {
	if len(mean) == 0 {
		return nil, fmt.Errorf("scaler requires at least one feature")
	}
	if len(mean) != len(scale) {
		return nil, fmt.Errorf("scaler mean length %d does not match scale length %d", len(mean), len(scale))
	}
	return &StandardScaler{mean: mean, scale: scale}, nil
}

// Transform normalizes a feature vector. The input is not mutated.
func (s *StandardScaler) Transform(features []float64) ([]float64, error) {
	if len(features) != len(s.mean) {
		return nil, fmt.Errorf("feature vector length %d does not match scaler's %d features",
			len(features), len(s.mean))
	}

	scaled := make([]float64, len(features))
	for i, v := range features {
		divisor := s.scale[i]
		if divisor == 0 {
			divisor = 1
		}
		scaled[i] = (v - s.mean[i]) / divisor
	}
	return scaled, nil
}
