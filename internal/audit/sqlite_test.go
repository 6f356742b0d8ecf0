package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sepsis-risk-server/internal/domain"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "assessments.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testRecord(createdAt time.Time) *Record {
	return &Record{
		AssessmentID:          uuid.New().String(),
		FeaturesJSON:          `{"HR":"135"}`,
		RawProbability:        0.42,
		CalibratedProbability: 0.55,
		RiskLevel:             "High Risk",
		ConfidencePercent:     "55.00%",
		SeverityScore:         5,
		Escalated:             true,
		EscalationReason:      "CRITICAL vital sign abnormalities detected - risk escalated to HIGH",
		ExplanationJSON:       `{"all_normal":false}`,
		ModelVersion:          "Calibrated Logistic Regression",
		CreatedAt:             createdAt,
	}
}

func TestSQLiteStore_SaveAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	record := testRecord(time.Now().UTC())
	require.NoError(t, store.Save(ctx, record))
	assert.NotZero(t, record.ID, "save assigns the row ID")

	loaded, err := store.Get(ctx, record.AssessmentID)
	require.NoError(t, err)

	assert.Equal(t, record.AssessmentID, loaded.AssessmentID)
	assert.Equal(t, record.FeaturesJSON, loaded.FeaturesJSON)
	assert.Equal(t, record.RawProbability, loaded.RawProbability)
	assert.Equal(t, record.CalibratedProbability, loaded.CalibratedProbability)
	assert.Equal(t, record.RiskLevel, loaded.RiskLevel)
	assert.Equal(t, record.ConfidencePercent, loaded.ConfidencePercent)
	assert.Equal(t, record.SeverityScore, loaded.SeverityScore)
	assert.Equal(t, record.Escalated, loaded.Escalated)
	assert.Equal(t, record.EscalationReason, loaded.EscalationReason)
	assert.Equal(t, record.ModelVersion, loaded.ModelVersion)
}

func TestSQLiteStore_GetMissing(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Get(context.Background(), "no-such-assessment")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSQLiteStore_ListNewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	older := testRecord(base.Add(-time.Hour))
	newer := testRecord(base)
	require.NoError(t, store.Save(ctx, older))
	require.NoError(t, store.Save(ctx, newer))

	records, err := store.List(ctx, 10, 0)
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, newer.AssessmentID, records[0].AssessmentID)
	assert.Equal(t, older.AssessmentID, records[1].AssessmentID)
}

func TestSQLiteStore_ListPagination(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < 5; i++ {
		require.NoError(t, store.Save(ctx, testRecord(base.Add(time.Duration(i)*time.Minute))))
	}

	page, err := store.List(ctx, 2, 0)
	require.NoError(t, err)
	assert.Len(t, page, 2)

	page, err = store.List(ctx, 2, 4)
	require.NoError(t, err)
	assert.Len(t, page, 1)
}

func TestSQLiteStore_Count(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	require.NoError(t, store.Save(ctx, testRecord(time.Now().UTC())))
	require.NoError(t, store.Save(ctx, testRecord(time.Now().UTC())))

	count, err = store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestSQLiteStore_ExportJSON(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	record := testRecord(time.Now().UTC())
	require.NoError(t, store.Save(ctx, record))

	var buf bytes.Buffer
	require.NoError(t, store.ExportJSON(ctx, &buf))

	var export Export
	require.NoError(t, json.Unmarshal(buf.Bytes(), &export))

	assert.Equal(t, "1.0", export.Version)
	assert.Equal(t, 1, export.Count)
	require.Len(t, export.Records, 1)
	assert.Equal(t, record.AssessmentID, export.Records[0].AssessmentID)
	assert.False(t, export.ExportedAt.IsZero())
}

func TestSQLiteStore_DuplicateAssessmentIDRejected(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	record := testRecord(time.Now().UTC())
	require.NoError(t, store.Save(ctx, record))

	duplicate := testRecord(time.Now().UTC())
	duplicate.AssessmentID = record.AssessmentID
	assert.Error(t, store.Save(ctx, duplicate))
}
