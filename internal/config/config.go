// Package config defines service configuration and the layered loader that
// fills it from defaults, a .env file, an optional YAML file and environment
// variables.
package config

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":1010".
	Addr string `koanf:"addr"`

	// APIKey is required in the x-api-key header of protected routes.
	// An empty key rejects every protected request.
	APIKey string `koanf:"api_key"`

	// PreprocessorPath and ModelPath locate the fitted artifacts.
	PreprocessorPath string `koanf:"preprocessor_path"`
	ModelPath        string `koanf:"model_path"`

	// NarrationLocale selects the insight sentence catalog (id, en).
	NarrationLocale string `koanf:"narration_locale"`

	// MaxBatchSize caps the number of records accepted by /predict.
	MaxBatchSize int `koanf:"max_batch_size"`

	// PermutationSamples and AttributionSeed drive the model-agnostic explainer.
	PermutationSamples int   `koanf:"permutation_samples"`
	AttributionSeed    int64 `koanf:"attribution_seed"`

	// InsightCacheSize bounds the opt-in LRU cache of explained records. Zero,
	// the default, disables it.
	InsightCacheSize int `koanf:"insight_cache_size"`

	// RateLimitRPS and RateLimitBurst bound per-client request rates. Zero disables limiting.
	RateLimitRPS   float64 `koanf:"rate_limit_rps"`
	RateLimitBurst int     `koanf:"rate_limit_burst"`

	TracingEnabled    bool    `koanf:"tracing_enabled"`
	TracingEndpoint   string  `koanf:"tracing_endpoint"`
	TracingSampleRate float64 `koanf:"tracing_sample_rate"`
	ServiceName       string  `koanf:"service_name"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		LogFormat:          "text",
		Addr:               ":1010",
		PreprocessorPath:   "artifacts/preprocessor.json",
		ModelPath:          "artifacts/model.json",
		NarrationLocale:    "id",
		MaxBatchSize:       1000,
		PermutationSamples: 64,
		AttributionSeed:    42,
		RateLimitRPS:       50,
		RateLimitBurst:     100,
		TracingEndpoint:    "localhost:4317",
		TracingSampleRate:  1,
		ServiceName:        "salary-insight",
	}
}
