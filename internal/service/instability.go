package service

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/sepsis-risk-server/internal/domain"
)

// InstabilityDetector applies per-vital critical and fluctuation thresholds
// to a snapshot, producing graded indicators and an aggregate severity score.
// The score feeds the adjudicator's escalation policy; the indicators feed
// the explanation. Independent of the trained classifier by design: it is
// the deterministic second opinion.
type InstabilityDetector struct {
	logger *logrus.Logger
	rules  map[string]domain.InstabilityRule
	order  []string
}

// instabilityVitals fixes the evaluation and output order of the monitored
// vitals. Indicators are reported in this order, not severity order.
var instabilityVitals = []string{"HR", "O2Sat", "Temp", "SBP", "Resp"}

var instabilityRules = map[string]domain.InstabilityRule{
	"HR":    {MinNormal: 60, MaxNormal: 100, FluctuationThreshold: 20, CriticalHigh: 130, CriticalLow: 40},
	"O2Sat": {MinNormal: 95, MaxNormal: 100, FluctuationThreshold: 5, CriticalHigh: 100, CriticalLow: 85},
	"Temp":  {MinNormal: 36.5, MaxNormal: 37.5, FluctuationThreshold: 1.5, CriticalHigh: 40, CriticalLow: 35},
	"SBP":   {MinNormal: 90, MaxNormal: 120, FluctuationThreshold: 25, CriticalHigh: 180, CriticalLow: 70},
	"Resp":  {MinNormal: 12, MaxNormal: 20, FluctuationThreshold: 8, CriticalHigh: 30, CriticalLow: 8},
}

// NewInstabilityDetector creates a detector over the standard vital-sign
// threshold table.
func NewInstabilityDetector(logger *logrus.Logger) *InstabilityDetector {
	return &InstabilityDetector{
		logger: logger,
		rules:  instabilityRules,
		order:  instabilityVitals,
	}
}

// Evaluate grades each monitored vital and sums the severity points.
// A vital whose value is missing, unparseable, or exactly 0 is skipped
// entirely: 0 means "not measured" on bedside monitors, and must never
// trip the critical-low thresholds.
//
// The HIGH deviation check runs independently of the CRITICAL check, so a
// single vital can contribute both (up to 5 points). MODERATE is mutually
// exclusive with HIGH. Whether CRITICAL+HIGH double-counting is intended
// is unresolved with the clinical owners; the behavior is pinned by tests
// until that review happens.
func (d *InstabilityDetector) Evaluate(features domain.FeatureSet) domain.InstabilityAssessment {
	indicators := make([]domain.InstabilityIndicator, 0)
	severityScore := 0

	for _, vital := range d.order {
		rule := d.rules[vital]
		value, ok := features.Value(vital)
		if !ok || value == 0 {
			continue
		}

		if value >= rule.CriticalHigh || value <= rule.CriticalLow {
			indicators = append(indicators, domain.InstabilityIndicator{
				Vital:       vital,
				Value:       value,
				Severity:    domain.SeverityCritical,
				Description: fmt.Sprintf("%s is critically abnormal (%.1f)", vital, value),
				Concern:     "Critical vital sign deviation - immediate attention required",
			})
			severityScore += domain.SeverityCritical.Points()
		}

		center := (rule.MinNormal + rule.MaxNormal) / 2
		halfRange := (rule.MaxNormal - rule.MinNormal) / 2

		if math.Abs(value-center) > halfRange+rule.FluctuationThreshold {
			indicators = append(indicators, domain.InstabilityIndicator{
				Vital:       vital,
				Value:       value,
				Severity:    domain.SeverityHigh,
				Description: fmt.Sprintf("%s shows significant instability (%.1f)", vital, value),
				Concern:     "Notable deviation from normal range",
			})
			severityScore += domain.SeverityHigh.Points()
		} else if (value > rule.MaxNormal && value < rule.CriticalHigh) ||
			(value < rule.MinNormal && value > rule.CriticalLow) {
			indicators = append(indicators, domain.InstabilityIndicator{
				Vital:       vital,
				Value:       value,
				Severity:    domain.SeverityModerate,
				Description: fmt.Sprintf("%s is outside normal range (%.1f)", vital, value),
				Concern:     "Minor deviation - continued monitoring advised",
			})
			severityScore += domain.SeverityModerate.Points()
		}
	}

	if severityScore > 0 {
		d.logger.WithFields(logrus.Fields{
			"severity_score":  severityScore,
			"indicator_count": len(indicators),
		}).Debug("Vital sign instability detected")
	}

	return domain.InstabilityAssessment{
		Indicators:     indicators,
		SeverityScore:  severityScore,
		HasInstability: severityScore > 0,
	}
}
