package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStandardScaler(t *testing.T) {
	_, err := NewStandardScaler(nil, nil)
	assert.Error(t, err)

	_, err = NewStandardScaler([]float64{1, 2}, []float64{1})
	assert.Error(t, err, "mean and scale lengths must agree")

	s, err := NewStandardScaler([]float64{1, 2}, []float64{1, 2})
	require.NoError(t, err)
	assert.NotNil(t, s)
}

func TestStandardScaler_Transform(t *testing.T) {
	s, err := NewStandardScaler([]float64{10, 20}, []float64{2, 5})
	require.NoError(t, err)

	scaled, err := s.Transform([]float64{14, 10})
	require.NoError(t, err)

	assert.Equal(t, []float64{2, -2}, scaled)
}

func TestStandardScaler_ZeroScalePassesThrough(t *testing.T) {
	// A constant training feature is stored with scale 0; it must not
	// produce a division by zero.
	s, err := NewStandardScaler([]float64{5}, []float64{0})
	require.NoError(t, err)

	scaled, err := s.Transform([]float64{8})
	require.NoError(t, err)
	assert.Equal(t, []float64{3}, scaled)
}

func TestStandardScaler_DoesNotMutateInput(t *testing.T) {
	s, err := NewStandardScaler([]float64{1, 1}, []float64{2, 2})
	require.NoError(t, err)

	input := []float64{3, 5}
	_, err = s.Transform(input)
	require.NoError(t, err)

	assert.Equal(t, []float64{3, 5}, input)
}

func TestStandardScaler_RejectsWrongVectorLength(t *testing.T) {
	s, err := NewStandardScaler([]float64{1, 2, 3}, []float64{1, 1, 1})
	require.NoError(t, err)

	_, err = s.Transform([]float64{1})
	assert.Error(t, err)
}
