package service

import (
	"fmt"

	"github.com/sepsis-risk-server/internal/domain"
)

// maxAbnormalFindings caps the abnormal-values section for display.
const maxAbnormalFindings = 10

// ExplanationComposer assembles the evaluator outputs and the verdict into
// the ordered explanation record: instability alert, escalation notice,
// abnormal values, final assessment. Pure assembly, no new decision logic.
type ExplanationComposer struct{}

// NewExplanationComposer creates an explanation composer.
func NewExplanationComposer() *ExplanationComposer {
	return &ExplanationComposer{}
}

// Compose builds the explanation for one assessment. When neither abnormal
// findings nor instability indicators exist, a single all-normal affirmation
// replaces the two empty sections.
func (c *ExplanationComposer) Compose(abnormal []domain.AbnormalFinding, instability domain.InstabilityAssessment, verdict domain.RiskVerdict) domain.ExplanationRecord {
	record := domain.ExplanationRecord{
		AllNormal:       len(abnormal) == 0 && !instability.HasInstability,
		FinalAssessment: c.finalAssessment(verdict),
	}

	if instability.HasInstability {
		record.InstabilityAlert = &domain.InstabilitySection{
			Message:    "Significant fluctuations detected in vital signs - this is concerning even if some individual values appear acceptable",
			Indicators: instability.Indicators,
		}
	}

	if verdict.Escalated {
		record.EscalationNotice = verdict.EscalationReason
	}

	if len(abnormal) > 0 {
		top := abnormal
		if len(top) > maxAbnormalFindings {
			top = top[:maxAbnormalFindings]
		}
		record.AbnormalValues = top
	}

	return record
}

func (c *ExplanationComposer) finalAssessment(verdict domain.RiskVerdict) domain.FinalAssessment {
	assessment := domain.FinalAssessment{
		RiskLevel:         verdict.RiskLevel(),
		ConfidencePercent: verdict.ConfidencePercent,
	}

	if verdict.Decision == 1 {
		assessment.Summary = fmt.Sprintf("The model predicts a %.1f%% probability of sepsis risk based on clinical data.", verdict.ConfidencePercent)
		assessment.Recommendation = "Consider immediate clinical evaluation, monitoring, and possible sepsis protocols."
	} else {
		assessment.Summary = fmt.Sprintf("The model predicts a %.1f%% probability of low sepsis risk based on clinical data.", verdict.ConfidencePercent)
		assessment.Recommendation = "Continue routine monitoring and clinical assessment."
	}

	return assessment
}
