package service

import (
	"github.com/sirupsen/logrus"

	"github.com/sepsis-risk-server/internal/domain"
)

// Default adjudication policy. The escalation threshold is the strict
// variant: only extreme instability (e.g. cardiac shock plus severe
// respiratory distress) overrides the classifier, never mild abnormalities.
const (
	DefaultDecisionThreshold   = 0.5
	DefaultEscalationThreshold = 5
)

const escalationReason = "CRITICAL vital sign abnormalities detected - risk escalated to HIGH"

// RiskAdjudicator combines the calibrated probability and the instability
// severity score into the final binary verdict. Purely functional: no state
// persists between calls.
type RiskAdjudicator struct {
	logger              *logrus.Logger
	decisionThreshold   float64
	escalationThreshold int
}

// NewRiskAdjudicator creates an adjudicator with the configured policy.
// Non-positive settings fall back to the canonical defaults.
func NewRiskAdjudicator(logger *logrus.Logger, cfg *domain.AdjudicationConfig) *RiskAdjudicator {
	a := &RiskAdjudicator{
		logger:              logger,
		decisionThreshold:   DefaultDecisionThreshold,
		escalationThreshold: DefaultEscalationThreshold,
	}
	if cfg != nil {
		if cfg.DecisionThreshold > 0 {
			a.decisionThreshold = cfg.DecisionThreshold
		}
		if cfg.EscalationThreshold > 0 {
			a.escalationThreshold = cfg.EscalationThreshold
		}
	}
	return a
}

// Decide produces the final verdict. Escalation only ever raises the
// decision to high risk; it never demotes a high classifier prediction.
// Confidence is derived from the calibrated probability and the FINAL
// post-escalation label, never computed early and inflated afterwards.
func (a *RiskAdjudicator) Decide(rawProbability, calibratedProbability float64, instability domain.InstabilityAssessment) domain.RiskVerdict {
	decision := 0
	if calibratedProbability >= a.decisionThreshold {
		decision = 1
	}

	escalated := false
	reason := ""
	if instability.SeverityScore >= a.escalationThreshold {
		decision = 1
		escalated = true
		reason = escalationReason
	}

	confidence := (1 - calibratedProbability) * 100
	if decision == 1 {
		confidence = calibratedProbability * 100
	}

	verdict := domain.RiskVerdict{
		RawProbability:        rawProbability,
		CalibratedProbability: calibratedProbability,
		Decision:              decision,
		ConfidencePercent:     confidence,
		Escalated:             escalated,
		EscalationReason:      reason,
	}

	a.logger.WithFields(logrus.Fields{
		"calibrated_probability": calibratedProbability,
		"severity_score":         instability.SeverityScore,
		"decision":               decision,
		"escalated":              escalated,
	}).Debug("Risk adjudication completed")

	return verdict
}
