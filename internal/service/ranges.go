package service

import (
	"math"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/sepsis-risk-server/internal/domain"
)

// ClinicalRangeEvaluator flags measurements outside their configured normal
// ranges and ranks them by deviation severity. It is a pure function of its
// input and the static range table; truncation for display is the
// explanation composer's concern, not this evaluator's.
type ClinicalRangeEvaluator struct {
	logger *logrus.Logger
	ranges map[string]domain.ClinicalRange
}

// clinicalRanges covers the subset of the feature vocabulary with an
// established reference range. Features absent here (e.g. BaseExcess,
// Platelets) are never flagged by the range evaluator.
var clinicalRanges = map[string]domain.ClinicalRange{
	"HR":         {Min: 60, Max: 100, Unit: "beats/min"},
	"O2Sat":      {Min: 95, Max: 100, Unit: "%"},
	"Temp":       {Min: 36.5, Max: 37.5, Unit: "°C"},
	"SBP":        {Min: 90, Max: 120, Unit: "mm Hg"},
	"MAP":        {Min: 70, Max: 100, Unit: "mm Hg"},
	"DBP":        {Min: 60, Max: 80, Unit: "mm Hg"},
	"Resp":       {Min: 12, Max: 20, Unit: "breaths/min"},
	"Lactate":    {Min: 0.5, Max: 2.0, Unit: "mmol/L"},
	"Glucose":    {Min: 70, Max: 100, Unit: "mg/dL"},
	"Creatinine": {Min: 0.7, Max: 1.3, Unit: "mg/dL"},
	"WBC":        {Min: 4.5, Max: 11, Unit: "K/µL"},
	"Hgb":        {Min: 13.5, Max: 17.5, Unit: "g/dL"},
}

// NewClinicalRangeEvaluator creates a range evaluator over the standard
// clinical reference table.
func NewClinicalRangeEvaluator(logger *logrus.Logger) *ClinicalRangeEvaluator {
	return &ClinicalRangeEvaluator{
		logger: logger,
		ranges: clinicalRanges,
	}
}

// Evaluate returns the abnormal findings for a snapshot, ordered descending
// by absolute distance from the midpoint of the feature's normal range.
// Ties keep vocabulary order. Missing or unparseable values are skipped:
// a measurement that was never taken is not an abnormal measurement.
func (e *ClinicalRangeEvaluator) Evaluate(features domain.FeatureSet) []domain.AbnormalFinding {
	findings := make([]domain.AbnormalFinding, 0)

	for _, name := range domain.FeatureNames {
		r, configured := e.ranges[name]
		if !configured {
			continue
		}
		value, ok := features.Value(name)
		if !ok {
			continue
		}
		if value >= r.Min && value <= r.Max {
			continue
		}

		direction := domain.DirectionHigh
		if value < r.Min {
			direction = domain.DirectionLow
		}
		findings = append(findings, domain.AbnormalFinding{
			Feature:     name,
			Value:       value,
			NormalRange: r.Text(),
			Unit:        r.Unit,
			Direction:   direction,
		})
	}

	// Severity by distance from the range midpoint, not raw magnitude.
	sort.SliceStable(findings, func(i, j int) bool {
		di := math.Abs(findings[i].Value - e.ranges[findings[i].Feature].Midpoint())
		dj := math.Abs(findings[j].Value - e.ranges[findings[j].Feature].Midpoint())
		return di > dj
	})

	if len(findings) > 0 {
		e.logger.WithField("abnormal_count", len(findings)).Debug("Clinical range evaluation found abnormal values")
	}

	return findings
}
