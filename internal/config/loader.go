package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/okian/salary-insight/internal/domain/insight"
)

const (
	envPrefix  = "SALARY_"
	envConfig  = envPrefix + "CONFIG"
	envDotFile = envPrefix + "ENV_FILE"
)

// legacyEnv maps variables of the previous deployment onto config keys.
var legacyEnv = map[string]string{
	"ML_API_KEY":              "api_key",
	"MODEL_PREPROCESSOR_URL":  "preprocessor_path",
	"MODEL_RANDOM_FOREST_URL": "model_path",
}

// Load builds a Config by layering defaults, .env, optional file and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. .env in the working directory, or the file named by SALARY_ENV_FILE
//  3. file (YAML) if SALARY_CONFIG is set
//  4. legacy variables (ML_API_KEY, MODEL_PREPROCESSOR_URL, MODEL_RANDOM_FOREST_URL)
//  5. env (prefix SALARY_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	k := koanf.New(".")

	if path := os.Getenv(envConfig); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	legacy := env.ProviderWithValue("", ".", func(key, value string) (string, interface{}) {
		name, ok := legacyEnv[key]
		if !ok {
			return "", nil
		}
		return name, value
	})
	if err := k.Load(legacy, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// SALARY_MAX_BATCH_SIZE -> max_batch_size; underscores match the koanf tags.
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadDotEnv exports .env entries that are not already set. A missing file
// is not an error.
func loadDotEnv() error {
	path := os.Getenv(envDotFile)
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
	}
	return nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.LogFormat != "text" && c.LogFormat != "json":
		return fmt.Errorf("%w: log_format must be text or json, got %q", ErrInvalidConfig, c.LogFormat)
	case !insight.Supported(insight.Locale(c.NarrationLocale)):
		return fmt.Errorf("%w: unsupported narration_locale %q", ErrInvalidConfig, c.NarrationLocale)
	case c.MaxBatchSize <= 0:
		return fmt.Errorf("%w: max_batch_size must be positive", ErrInvalidConfig)
	case c.PermutationSamples <= 0:
		return fmt.Errorf("%w: permutation_samples must be positive", ErrInvalidConfig)
	case c.InsightCacheSize < 0:
		return fmt.Errorf("%w: insight_cache_size must not be negative", ErrInvalidConfig)
	case c.RateLimitRPS < 0 || c.RateLimitBurst < 0:
		return fmt.Errorf("%w: rate limits must not be negative", ErrInvalidConfig)
	case c.TracingSampleRate < 0 || c.TracingSampleRate > 1:
		return fmt.Errorf("%w: tracing_sample_rate must be within [0, 1]", ErrInvalidConfig)
	case c.TracingEnabled && c.TracingEndpoint == "":
		return fmt.Errorf("%w: tracing_endpoint is required when tracing is enabled", ErrInvalidConfig)
	}
	return nil
}
