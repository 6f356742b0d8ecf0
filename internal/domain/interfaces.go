package domain

// Classifier is the trained-model capability the assessment pipeline
// consumes. Any conforming implementation (a different trained model format,
// a stub for testing) is substitutable. Implementations must be safe for
// concurrent inference calls; the pipeline itself holds no mutable state.
type Classifier interface {
	// Predict returns the binary class (0 low risk, 1 high risk) for a
	// feature vector in FeatureNames order.
	Predict(features []float64) (int, error)

	// PredictProba returns [p_low, p_high] with p_low + p_high = 1.
	PredictProba(features []float64) ([2]float64, error)
}

// FeatureScaler normalizes a raw feature vector the way the classifier was
// trained. When present it must be applied before classification, never after.
type FeatureScaler interface {
	Transform(features []float64) ([]float64, error)
}

// ConfigManager defines the interface for configuration management
type ConfigManager interface {
	GetConfig() *Config
	GetServerConfig() *ServerConfig
	GetModelConfig() *ModelConfig
	GetCalibrationConfig() *CalibrationConfig
	GetAdjudicationConfig() *AdjudicationConfig
	Validate() error
	IsProduction() bool
}
