// Package model provides the trained-model capabilities the assessment
// pipeline consumes: a logistic-regression classifier, a standard scaler,
// and a loader that resolves the best available artifact generation.
package model

import (
	"fmt"
	"math"
)

// LogisticModel is a trained binary logistic-regression classifier restored
// from a JSON artifact. Inference is a dot product; the model is immutable
// after loading and safe for concurrent calls.
type LogisticModel struct {
	coefficients []float64
	intercept    float64
}

// NewLogisticModel builds a classifier from trained parameters.
func NewLogisticModel(coefficients []float64, intercept float64) (*LogisticModel, error) {
	if len(coefficients) == 0 {
		return nil, fmt.Errorf("logistic model requires at least one coefficient")
	}
	return &LogisticModel{
		coefficients: coefficients,
		intercept:    intercept,
	}, nil
}

// NumFeatures returns the input vector length the model was trained on.
func (m *LogisticModel) NumFeatures() int {
	return len(m.coefficients)
}

// Predict returns the binary class at the 0.5 decision boundary.
func (m *LogisticModel) Predict(features []float64) (int, error) {
	proba, err := m.PredictProba(features)
	if err != nil {
		return 0, err
	}
	if proba[1] >= 0.5 {
		return 1, nil
	}
	return 0, nil
}

// PredictProba returns [p_low, p_high]. The two always sum to 1.
func (m *LogisticModel) PredictProba(features []float64) ([2]float64, error) {
	if len(features) != len(m.coefficients) {
		return [2]float64{}, fmt.Errorf("feature vector length %d does not match model's %d features",
			len(features), len(m.coefficients))
	}

	z := m.intercept
	for i, c := range m.coefficients {
		z += c * features[i]
	}

	pHigh := 1.0 / (1.0 + math.Exp(-z))
	return [2]float64{1 - pHigh, pHigh}, nil
}
