package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sepsis-risk-server/internal/domain"
)

func TestInstabilityDetector_AllNormal(t *testing.T) {
	detector := NewInstabilityDetector(newTestLogger())

	features := domain.FeatureSet{
		"HR":    "75",
		"O2Sat": "98",
		"Temp":  "37.0",
		"SBP":   "110",
		"Resp":  "16",
	}

	assessment := detector.Evaluate(features)

	assert.Empty(t, assessment.Indicators)
	assert.Equal(t, 0, assessment.SeverityScore)
	assert.False(t, assessment.HasInstability)
}

func TestInstabilityDetector_SeverityTiers(t *testing.T) {
	detector := NewInstabilityDetector(newTestLogger())

	tests := []struct {
		name           string
		features       domain.FeatureSet
		wantScore      int
		wantSeverities []domain.Severity
	}{
		{
			// 35 is on the critical-low bound but its deviation (2.0) does
			// not exceed half-range + fluctuation (2.0), so only CRITICAL.
			name:           "Critical low temperature",
			features:       domain.FeatureSet{"Temp": "35"},
			wantScore:      3,
			wantSeverities: []domain.Severity{domain.SeverityCritical},
		},
		{
			name:           "High deviation without critical threshold",
			features:       domain.FeatureSet{"HR": "125"},
			wantScore:      2,
			wantSeverities: []domain.Severity{domain.SeverityHigh},
		},
		{
			name:           "Moderate elevation",
			features:       domain.FeatureSet{"HR": "110"},
			wantScore:      1,
			wantSeverities: []domain.Severity{domain.SeverityModerate},
		},
		{
			name:           "Moderate low blood pressure",
			features:       domain.FeatureSet{"SBP": "80"},
			wantScore:      1,
			wantSeverities: []domain.Severity{domain.SeverityModerate},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assessment := detector.Evaluate(tt.features)

			assert.Equal(t, tt.wantScore, assessment.SeverityScore)
			require.Len(t, assessment.Indicators, len(tt.wantSeverities))
			for i, severity := range tt.wantSeverities {
				assert.Equal(t, severity, assessment.Indicators[i].Severity)
			}
		})
	}
}

// A heart rate of 135 exceeds both the critical threshold (130) and the
// fluctuation band (80 ± 40), so one vital yields two indicators worth 5
// points. Double-counting is under clinical review; until it concludes this
// test pins the current scoring.
func TestInstabilityDetector_CriticalAndHighCoFire(t *testing.T) {
	detector := NewInstabilityDetector(newTestLogger())

	assessment := detector.Evaluate(domain.FeatureSet{"HR": "135"})

	require.Len(t, assessment.Indicators, 2)
	assert.Equal(t, domain.SeverityCritical, assessment.Indicators[0].Severity)
	assert.Equal(t, "HR is critically abnormal (135.0)", assessment.Indicators[0].Description)
	assert.Equal(t, domain.SeverityHigh, assessment.Indicators[1].Severity)
	assert.Equal(t, "HR shows significant instability (135.0)", assessment.Indicators[1].Description)
	assert.Equal(t, 5, assessment.SeverityScore)
	assert.True(t, assessment.HasInstability)
}

func TestInstabilityDetector_ModerateExcludedWhenHighFires(t *testing.T) {
	detector := NewInstabilityDetector(newTestLogger())

	// HR 125 is above normal and below critical, but the deviation check
	// already graded it HIGH; MODERATE must not also fire.
	assessment := detector.Evaluate(domain.FeatureSet{"HR": "125"})

	require.Len(t, assessment.Indicators, 1)
	assert.Equal(t, domain.SeverityHigh, assessment.Indicators[0].Severity)
	assert.Equal(t, 2, assessment.SeverityScore)
}

func TestInstabilityDetector_MultipleCriticalVitals(t *testing.T) {
	detector := NewInstabilityDetector(newTestLogger())

	features := domain.FeatureSet{
		"HR":   "135",
		"SBP":  "185",
		"Resp": "32",
	}

	assessment := detector.Evaluate(features)

	// Each vital trips both the critical and the deviation checks.
	assert.Equal(t, 15, assessment.SeverityScore)
	require.Len(t, assessment.Indicators, 6)

	// Indicators stay in vital order, not severity order.
	vitals := make([]string, 0, len(assessment.Indicators))
	for _, indicator := range assessment.Indicators {
		vitals = append(vitals, indicator.Vital)
	}
	assert.Equal(t, []string{"HR", "HR", "SBP", "SBP", "Resp", "Resp"}, vitals)
}

func TestInstabilityDetector_ZeroMeansNotMeasured(t *testing.T) {
	detector := NewInstabilityDetector(newTestLogger())

	// 0 would otherwise trip every critical-low threshold.
	features := domain.FeatureSet{
		"HR":    "0",
		"O2Sat": "0",
		"Temp":  "0",
		"SBP":   "0",
		"Resp":  "0",
	}

	assessment := detector.Evaluate(features)

	assert.Empty(t, assessment.Indicators)
	assert.Equal(t, 0, assessment.SeverityScore)
	assert.False(t, assessment.HasInstability)
}

func TestInstabilityDetector_SkipsMissingAndUnparseable(t *testing.T) {
	detector := NewInstabilityDetector(newTestLogger())

	features := domain.FeatureSet{
		"HR":   "",
		"Temp": "n/a",
		"SBP":  "185",
	}

	assessment := detector.Evaluate(features)

	require.Len(t, assessment.Indicators, 2)
	assert.Equal(t, "SBP", assessment.Indicators[0].Vital)
	assert.Equal(t, 5, assessment.SeverityScore)
}

func TestInstabilityDetector_PerfectSaturationIsCritical(t *testing.T) {
	detector := NewInstabilityDetector(newTestLogger())

	// The O2Sat table sets critical-high to 100, so a reading of exactly
	// 100 is graded CRITICAL. Pinned pending threshold review.
	assessment := detector.Evaluate(domain.FeatureSet{"O2Sat": "100"})

	require.Len(t, assessment.Indicators, 1)
	assert.Equal(t, domain.SeverityCritical, assessment.Indicators[0].Severity)
	assert.Equal(t, 3, assessment.SeverityScore)
}

func TestInstabilityDetector_IgnoresUnmonitoredFeatures(t *testing.T) {
	detector := NewInstabilityDetector(newTestLogger())

	// Lactate is range-checked elsewhere but not an instability vital.
	assessment := detector.Evaluate(domain.FeatureSet{"Lactate": "9.0", "WBC": "25"})

	assert.Empty(t, assessment.Indicators)
	assert.Equal(t, 0, assessment.SeverityScore)
}
