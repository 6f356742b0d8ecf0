// Package audit provides optional persistence of produced risk assessments
// for clinical review. The assessment pipeline itself is stateless; records
// are written after the verdict payload has been produced, and disabling
// the store removes all persistence.
package audit

import (
	"context"
	"io"
	"time"
)

// Record is one persisted assessment: the input snapshot, the verdict, and
// the explanation, all as produced at assessment time.
type Record struct {
	ID                    int64     `json:"id,omitempty"`
	AssessmentID          string    `json:"assessment_id"`
	FeaturesJSON          string    `json:"features_json"`
	RawProbability        float64   `json:"raw_probability"`
	CalibratedProbability float64   `json:"calibrated_probability"`
	RiskLevel             string    `json:"risk_level"`
	ConfidencePercent     string    `json:"confidence_percent"`
	SeverityScore         int       `json:"severity_score"`
	Escalated             bool      `json:"escalated"`
	EscalationReason      string    `json:"escalation_reason,omitempty"`
	ExplanationJSON       string    `json:"explanation_json"`
	ModelVersion          string    `json:"model_version"`
	CreatedAt             time.Time `json:"created_at"`
}

// Store defines the interface for assessment audit storage.
type Store interface {
	// Save persists one assessment record.
	Save(ctx context.Context, record *Record) error

	// Get retrieves a record by its assessment ID.
	// Returns domain.ErrNotFound when no such assessment exists.
	Get(ctx context.Context, assessmentID string) (*Record, error)

	// List returns records newest first with pagination.
	List(ctx context.Context, limit, offset int) ([]*Record, error)

	// Count returns the total number of stored assessments.
	Count(ctx context.Context) (int64, error)

	// ExportJSON exports all records to a JSON writer.
	ExportJSON(ctx context.Context, writer io.Writer) error

	// Close closes the store and releases resources.
	Close() error
}

// Export represents the JSON export format.
type Export struct {
	Version    string    `json:"version"`
	ExportedAt time.Time `json:"exported_at"`
	Count      int       `json:"count"`
	Records    []*Record `json:"records"`
}
