package api

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"

	"github.com/sepsis-risk-server/internal/audit"
	"github.com/sepsis-risk-server/internal/domain"
	"github.com/sepsis-risk-server/internal/service"
)

// verdictCacheSize bounds the in-memory cache of recent verdicts. The
// pipeline is deterministic, so identical snapshots always produce the
// same payload and resubmitted forms can be answered without re-running it.
const verdictCacheSize = 512

// defaultListLimit caps unpaginated assessment listings.
const defaultListLimit = 50

// AssessmentHandler serves the assessment endpoints.
type AssessmentHandler struct {
	logger   *logrus.Logger
	assessor *service.RiskAssessor
	store    audit.Store
	cache    *lru.Cache[string, *service.AssessmentResult]
}

// NewAssessmentHandler creates the handler. The store may be nil when the
// audit log is disabled; assessment still works, retrieval endpoints 404.
func NewAssessmentHandler(logger *logrus.Logger, assessor *service.RiskAssessor, store audit.Store) (*AssessmentHandler, error) {
	cache, err := lru.New[string, *service.AssessmentResult](verdictCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create verdict cache: %w", err)
	}
	return &AssessmentHandler{
		logger:   logger,
		assessor: assessor,
		store:    store,
		cache:    cache,
	}, nil
}

// HandleAssess evaluates one patient snapshot. Accepts a JSON object of
// feature name to value, or an HTML form post with the same field names.
// Unknown fields are ignored; missing or non-numeric values are tolerated
// per the leniency policy.
func (h *AssessmentHandler) HandleAssess(c *gin.Context) {
	features, err := parseFeatures(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, domain.NewAPIError(
			domain.ErrCodeInvalidInput,
			"Failed to parse assessment request",
			err.Error(),
			c.GetString("correlation_id"),
		))
		return
	}

	key := cacheKey(features)
	if cached, ok := h.cache.Get(key); ok {
		h.logger.WithField("assessment_id", cached.AssessmentID).Debug("Serving cached verdict")
		c.JSON(http.StatusOK, cached)
		return
	}

	result, err := h.assessor.Assess(c.Request.Context(), features)
	if err != nil {
		h.logger.WithError(err).Error("Risk assessment failed")
		c.JSON(http.StatusInternalServerError, domain.NewAPIError(
			domain.ErrCodeInternalServer,
			"Risk assessment failed",
			"",
			c.GetString("correlation_id"),
		))
		return
	}

	h.cache.Add(key, result)
	h.recordAssessment(c, features, result)

	c.JSON(http.StatusOK, result)
}

// recordAssessment persists the produced verdict when the audit store is
// enabled. Persistence failures are logged, never surfaced: the verdict has
// already been produced and belongs to the caller.
func (h *AssessmentHandler) recordAssessment(c *gin.Context, features domain.FeatureSet, result *service.AssessmentResult) {
	if h.store == nil {
		return
	}

	featuresJSON, err := json.Marshal(features)
	if err != nil {
		h.logger.WithError(err).Warn("Failed to encode features for audit record")
		return
	}
	explanationJSON, err := json.Marshal(result.Explanation)
	if err != nil {
		h.logger.WithError(err).Warn("Failed to encode explanation for audit record")
		return
	}

	record := &audit.Record{
		AssessmentID:          result.AssessmentID,
		FeaturesJSON:          string(featuresJSON),
		RawProbability:        result.Verdict.RawProbability,
		CalibratedProbability: result.Verdict.CalibratedProbability,
		RiskLevel:             result.RiskLevel,
		ConfidencePercent:     result.ConfidencePercent,
		SeverityScore:         result.SeverityScore,
		Escalated:             result.Verdict.Escalated,
		EscalationReason:      result.Verdict.EscalationReason,
		ExplanationJSON:       string(explanationJSON),
		ModelVersion:          result.ModelVersion,
	}

	if err := h.store.Save(c.Request.Context(), record); err != nil {
		h.logger.WithError(err).WithField("assessment_id", result.AssessmentID).Warn("Failed to persist assessment record")
	}
}

// HandleGetAssessment returns one stored assessment by ID.
func (h *AssessmentHandler) HandleGetAssessment(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusNotFound, domain.NewAPIError(
			domain.ErrCodeStorage, "Assessment audit store is disabled", "",
			c.GetString("correlation_id")))
		return
	}

	record, err := h.store.Get(c.Request.Context(), c.Param("id"))
	if err == domain.ErrNotFound {
		c.JSON(http.StatusNotFound, domain.NewAPIError(
			domain.ErrCodeStorage, "Assessment not found", "",
			c.GetString("correlation_id")))
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to load assessment record")
		c.JSON(http.StatusInternalServerError, domain.NewAPIError(
			domain.ErrCodeStorage, "Failed to load assessment", "",
			c.GetString("correlation_id")))
		return
	}

	c.JSON(http.StatusOK, record)
}

// HandleListAssessments returns stored assessments newest first.
func (h *AssessmentHandler) HandleListAssessments(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusOK, gin.H{"total": 0, "assessments": []*audit.Record{}})
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultListLimit)))
	if err != nil || limit <= 0 {
		limit = defaultListLimit
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	records, err := h.store.List(c.Request.Context(), limit, offset)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list assessment records")
		c.JSON(http.StatusInternalServerError, domain.NewAPIError(
			domain.ErrCodeStorage, "Failed to list assessments", "",
			c.GetString("correlation_id")))
		return
	}
	total, err := h.store.Count(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to count assessment records")
		c.JSON(http.StatusInternalServerError, domain.NewAPIError(
			domain.ErrCodeStorage, "Failed to count assessments", "",
			c.GetString("correlation_id")))
		return
	}

	if records == nil {
		records = []*audit.Record{}
	}
	c.JSON(http.StatusOK, gin.H{"total": total, "assessments": records})
}

// HandleExportAssessments streams the full audit log as JSON.
func (h *AssessmentHandler) HandleExportAssessments(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusNotFound, domain.NewAPIError(
			domain.ErrCodeStorage, "Assessment audit store is disabled", "",
			c.GetString("correlation_id")))
		return
	}

	c.Header("Content-Type", "application/json")
	c.Header("Content-Disposition", "attachment; filename=assessments.json")
	if err := h.store.ExportJSON(c.Request.Context(), c.Writer); err != nil {
		h.logger.WithError(err).Error("Failed to export assessment records")
	}
}

// parseFeatures reads the snapshot from either a JSON body or form fields.
// JSON values may be numbers or strings; both are carried as raw strings
// so the pipeline applies one parse policy.
func parseFeatures(c *gin.Context) (domain.FeatureSet, error) {
	contentType := c.ContentType()
	if strings.Contains(contentType, "application/json") {
		var body map[string]any
		if err := c.ShouldBindJSON(&body); err != nil {
			return nil, err
		}
		features := make(domain.FeatureSet, len(body))
		for name, value := range body {
			switch v := value.(type) {
			case string:
				features[name] = v
			case float64:
				features[name] = strconv.FormatFloat(v, 'f', -1, 64)
			case nil:
				features[name] = ""
			default:
				features[name] = fmt.Sprintf("%v", v)
			}
		}
		return features, nil
	}

	// HTML form submission, the original entry path for bedside data.
	if err := c.Request.ParseForm(); err != nil {
		return nil, err
	}
	features := make(domain.FeatureSet, len(c.Request.PostForm))
	for name, values := range c.Request.PostForm {
		if len(values) > 0 {
			features[name] = values[0]
		}
	}
	return features, nil
}

// cacheKey derives a canonical digest of a snapshot: sorted name=value
// pairs, so field order never splits the cache.
func cacheKey(features domain.FeatureSet) string {
	names := make([]string, 0, len(features))
	for name := range features {
		names = append(names, name)
	}
	sort.Strings(names)

	hash := sha256.New()
	for _, name := range names {
		fmt.Fprintf(hash, "%s=%s;", name, features[name])
	}
	return hex.EncodeToString(hash.Sum(nil))
}
