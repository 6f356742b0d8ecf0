// Package domain contains core business entities and types for sepsis risk
// assessment from single-timepoint vital-sign and laboratory measurements.
//
// The assessment combines two independent signals: a trained classifier's
// calibrated probability and a deterministic clinical-rule evaluation of the
// raw measurements. All derived entities are created fresh per assessment and
// discarded after the response is produced.
package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// FeatureNames is the fixed input vocabulary, in classifier vector order.
// The order must match the order the model artifacts were trained with.
var FeatureNames = []string{
	"HR", "O2Sat", "Temp", "SBP", "MAP", "DBP", "Resp",
	"BaseExcess", "HCO3", "FiO2", "PaCO2", "SaO2", "Creatinine",
	"Bilirubin_direct", "Glucose", "Lactate", "Magnesium", "Phosphate",
	"Bilirubin_total", "Hgb", "WBC", "Fibrinogen", "Platelets",
	"Age", "Gender", "HospAdmTime", "ICULOS",
}

// FeatureSet is a single patient snapshot: feature name to raw value as
// entered. Values may be empty (not measured) or non-numeric; both are
// tolerated. Immutable for the duration of one assessment.
type FeatureSet map[string]string

// Value parses the named feature. The second return is false when the value
// is missing, empty, or not a number. Callers decide what absence means:
// the range evaluator skips the feature, the vector builder substitutes 0.
func (fs FeatureSet) Value(name string) (float64, bool) {
	raw, exists := fs[name]
	if !exists {
		return 0, false
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Vector builds the classifier input vector in FeatureNames order.
// Missing or unparseable values become 0.0: a missing measurement and a
// true zero are indistinguishable to the model, which is why callers are
// warned about all-zero-looking inputs.
func (fs FeatureSet) Vector() []float64 {
	vector := make([]float64, len(FeatureNames))
	for i, name := range FeatureNames {
		if v, ok := fs.Value(name); ok {
			vector[i] = v
		}
	}
	return vector
}

// ClinicalRange is the configured normal range for one feature.
type ClinicalRange struct {
	Min  float64
	Max  float64
	Unit string
}

// Midpoint returns the center of the normal range, used to rank abnormal
// findings by deviation severity.
func (r ClinicalRange) Midpoint() float64 {
	return (r.Min + r.Max) / 2
}

// Text renders the range for display, e.g. "60-100".
func (r ClinicalRange) Text() string {
	return fmt.Sprintf("%g-%g", r.Min, r.Max)
}

// InstabilityRule holds the per-vital thresholds for the instability
// heuristics. CriticalHigh/CriticalLow bound the CRITICAL tier,
// FluctuationThreshold widens the acceptable deviation band for the
// HIGH tier, and the normal range bounds the MODERATE tier.
type InstabilityRule struct {
	MinNormal            float64
	MaxNormal            float64
	FluctuationThreshold float64
	CriticalHigh         float64
	CriticalLow          float64
}

// Direction indicates which side of the normal range a value falls on.
type Direction string

const (
	DirectionHigh Direction = "HIGH"
	DirectionLow  Direction = "LOW"
)

// Severity grades an instability indicator.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityModerate Severity = "MODERATE"
)

// Points returns the severity-score contribution of an indicator of this
// severity. The escalation policy operates on the summed points.
func (s Severity) Points() int {
	switch s {
	case SeverityCritical:
		return 3
	case SeverityHigh:
		return 2
	case SeverityModerate:
		return 1
	default:
		return 0
	}
}

// IsValid validates the severity grade.
func (s Severity) IsValid() bool {
	switch s {
	case SeverityCritical, SeverityHigh, SeverityModerate:
		return true
	default:
		return false
	}
}

// AbnormalFinding is one feature outside its configured normal range.
// Produced fresh per assessment by the range evaluator.
type AbnormalFinding struct {
	Feature     string    `json:"feature"`
	Value       float64   `json:"value"`
	NormalRange string    `json:"normal_range"`
	Unit        string    `json:"unit"`
	Direction   Direction `json:"direction"`
}

// InstabilityIndicator is one graded vital-sign deviation. A single vital
// may emit both a CRITICAL and a HIGH indicator in the same assessment.
type InstabilityIndicator struct {
	Vital       string   `json:"vital"`
	Value       float64  `json:"value"`
	Severity    Severity `json:"severity"`
	Description string   `json:"description"`
	Concern     string   `json:"concern"`
}

// InstabilityAssessment aggregates the indicators for one snapshot.
type InstabilityAssessment struct {
	Indicators     []InstabilityIndicator `json:"indicators"`
	SeverityScore  int                    `json:"severity_score"`
	HasInstability bool                   `json:"has_instability"`
}

// RiskLevel is the user-facing binary label.
type RiskLevel string

const (
	HighRisk RiskLevel = "High Risk"
	LowRisk  RiskLevel = "Low Risk"
)

// RiskVerdict is the adjudicated outcome for one assessment. Decision is the
// final post-escalation binary label; ConfidencePercent always reflects the
// probability of the class that Decision names.
type RiskVerdict struct {
	RawProbability        float64 `json:"raw_probability"`
	CalibratedProbability float64 `json:"calibrated_probability"`
	Decision              int     `json:"decision"`
	ConfidencePercent     float64 `json:"confidence_percent"`
	Escalated             bool    `json:"escalated"`
	EscalationReason      string  `json:"escalation_reason,omitempty"`
}

// RiskLevel maps the binary decision to its display label.
func (v RiskVerdict) RiskLevel() RiskLevel {
	if v.Decision == 1 {
		return HighRisk
	}
	return LowRisk
}

// FormattedConfidence renders the confidence for display, e.g. "87.50%".
func (v RiskVerdict) FormattedConfidence() string {
	return fmt.Sprintf("%.2f%%", v.ConfidencePercent)
}

// ExplanationRecord is the structured, ordered explanation for one verdict:
// instability alert, escalation notice, abnormal values, final assessment.
// Rendering it as markup is the caller's job.
type ExplanationRecord struct {
	InstabilityAlert *InstabilitySection `json:"instability_alert,omitempty"`
	EscalationNotice string              `json:"escalation_notice,omitempty"`
	AbnormalValues   []AbnormalFinding   `json:"abnormal_values,omitempty"`
	AllNormal        bool                `json:"all_normal"`
	FinalAssessment  FinalAssessment     `json:"final_assessment"`
}

// InstabilitySection is the leading alert block of an explanation.
type InstabilitySection struct {
	Message    string                 `json:"message"`
	Indicators []InstabilityIndicator `json:"indicators"`
}

// FinalAssessment closes an explanation with the verdict and a
// clinical recommendation matching the risk level.
type FinalAssessment struct {
	RiskLevel         RiskLevel `json:"risk_level"`
	ConfidencePercent float64   `json:"confidence_percent"`
	Summary           string    `json:"summary"`
	Recommendation    string    `json:"recommendation"`
}
