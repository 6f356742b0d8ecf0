package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/sepsis-risk-server/internal/domain"
)

// RiskAssessor runs the complete assessment workflow: feature vector
// construction, scaling, classification, probability calibration, the two
// independent rule evaluations, adjudication, and explanation composition.
// Each call is request-scoped and stateless; the static tables and the
// model capabilities are read-only, so concurrent assessments need no
// locking.
type RiskAssessor struct {
	logger       *logrus.Logger
	classifier   domain.Classifier
	scaler       domain.FeatureScaler
	calibrator   *ProbabilityCalibrator
	ranges       *ClinicalRangeEvaluator
	instability  *InstabilityDetector
	adjudicator  *RiskAdjudicator
	composer     *ExplanationComposer
	modelVersion string
}

// NewRiskAssessor wires the assessment pipeline. The classifier capability
// is mandatory: the assessor must not be constructed, and the server must
// not start serving, without a ready classifier. The scaler is optional and,
// when present, is always applied before classification.
func NewRiskAssessor(
	logger *logrus.Logger,
	classifier domain.Classifier,
	scaler domain.FeatureScaler,
	calibrator *ProbabilityCalibrator,
	adjudication *domain.AdjudicationConfig,
	modelVersion string,
) (*RiskAssessor, error) {
	if classifier == nil {
		return nil, domain.NewCapabilityError("classifier", fmt.Errorf("no trained classifier available"))
	}
	if calibrator == nil {
		calibrator = &ProbabilityCalibrator{}
	}
	return &RiskAssessor{
		logger:       logger,
		classifier:   classifier,
		scaler:       scaler,
		calibrator:   calibrator,
		ranges:       NewClinicalRangeEvaluator(logger),
		instability:  NewInstabilityDetector(logger),
		adjudicator:  NewRiskAdjudicator(logger, adjudication),
		composer:     NewExplanationComposer(),
		modelVersion: modelVersion,
	}, nil
}

// Assess evaluates one patient snapshot and returns the verdict payload.
// Unparseable feature values are not errors: they enter the classifier
// vector as 0.0 and are skipped by the rule evaluators. Callers must treat
// all-zero-looking inputs with suspicion.
func (a *RiskAssessor) Assess(ctx context.Context, features domain.FeatureSet) (*AssessmentResult, error) {
	startTime := time.Now()
	assessmentID := uuid.New().String()

	a.logger.WithFields(logrus.Fields{
		"assessment_id": assessmentID,
		"feature_count": len(features),
	}).Info("Starting risk assessment")

	// Step 1: Build the classifier input vector, scaling if trained with one.
	vector := features.Vector()
	if a.scaler != nil {
		scaled, err := a.scaler.Transform(vector)
		if err != nil {
			return nil, fmt.Errorf("failed to scale feature vector: %w", err)
		}
		vector = scaled
	}

	// Step 2: Classifier inference.
	proba, err := a.classifier.PredictProba(vector)
	if err != nil {
		return nil, fmt.Errorf("failed to compute class probabilities: %w", err)
	}
	modelLabel, err := a.classifier.Predict(vector)
	if err != nil {
		return nil, fmt.Errorf("failed to compute model label: %w", err)
	}
	rawProbability := proba[1]

	// Step 3: Calibrate the raw high-risk probability.
	calibrated := a.calibrator.Calibrate(rawProbability)

	// Step 4: Independent clinical-rule evaluations.
	abnormal := a.ranges.Evaluate(features)
	instability := a.instability.Evaluate(features)

	// Step 5: Final verdict.
	verdict := a.adjudicator.Decide(rawProbability, calibrated, instability)

	// Step 6: Explanation.
	explanation := a.composer.Compose(abnormal, instability, verdict)

	result := &AssessmentResult{
		AssessmentID:      assessmentID,
		PredictionLabel:   string(verdict.RiskLevel()),
		RiskLevel:         string(verdict.RiskLevel()),
		ConfidencePercent: verdict.FormattedConfidence(),
		Verdict:           verdict,
		SeverityScore:     instability.SeverityScore,
		Explanation:       explanation,
		ModelVersion:      a.modelVersion,
		ProcessingTime:    time.Since(startTime),
	}

	a.logger.WithFields(logrus.Fields{
		"assessment_id":          assessmentID,
		"risk_level":             result.RiskLevel,
		"raw_probability":        rawProbability,
		"calibrated_probability": calibrated,
		"model_label":            modelLabel,
		"severity_score":         instability.SeverityScore,
		"escalated":              verdict.Escalated,
		"processing_time":        result.ProcessingTime,
	}).Info("Risk assessment completed")

	return result, nil
}

// ModelVersion reports which model generation is serving assessments.
func (a *RiskAssessor) ModelVersion() string {
	return a.modelVersion
}

// AssessmentResult is the structured verdict payload for one assessment.
type AssessmentResult struct {
	AssessmentID      string                   `json:"assessment_id"`
	PredictionLabel   string                   `json:"prediction_label"`
	RiskLevel         string                   `json:"risk_level"`
	ConfidencePercent string                   `json:"confidence_percent"`
	Verdict           domain.RiskVerdict       `json:"verdict"`
	SeverityScore     int                      `json:"severity_score"`
	Explanation       domain.ExplanationRecord `json:"explanation"`
	ModelVersion      string                   `json:"model_version"`
	ProcessingTime    time.Duration            `json:"processing_time"`
}
