// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/okian/salary-insight/internal/adapters/artifact"
	"github.com/okian/salary-insight/internal/domain/insight"
	"github.com/okian/salary-insight/internal/domain/model"
	"github.com/okian/salary-insight/internal/domain/pipeline"
	"github.com/okian/salary-insight/internal/domain/regression"
	"github.com/okian/salary-insight/internal/domain/types"
	"github.com/okian/salary-insight/pkg/logger"
	"github.com/okian/salary-insight/pkg/metrics"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Service implements the API dependencies for salary prediction and insight.
type Service struct {
	mu sync.RWMutex

	// Artifact sources. Injected capabilities take precedence over paths.
	preprocessorPath string
	modelPath        string
	transformer      pipeline.Transformer
	model            regression.Model
	background       []float64

	// Pipeline configuration
	locale       insight.Locale
	maxBatchSize int
	samples      int
	seed         int64
	extra        []pipeline.Option
	cacheSize    int

	// State
	pipeline  *pipeline.Pipeline
	cache     *lru.Cache[string, types.InsightResult]
	explainer string
	started   bool

	predictions atomic.Int64
	insights    atomic.Int64

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithPreprocessorPath sets the preprocessor artifact location.
func WithPreprocessorPath(path string) Option {
	return func(s *Service) {
		s.preprocessorPath = path
	}
}

// WithModelPath sets the model artifact location.
func WithModelPath(path string) Option {
	return func(s *Service) {
		s.modelPath = path
	}
}

// WithTransformer injects a fitted transformer instead of loading one.
func WithTransformer(t pipeline.Transformer) Option {
	return func(s *Service) {
		s.transformer = t
	}
}

// WithModel injects a model and its attribution background instead of
// loading one. bg may be nil.
func WithModel(m regression.Model, bg []float64) Option {
	return func(s *Service) {
		s.model = m
		s.background = bg
	}
}

// WithLocale selects the narration language.
func WithLocale(l insight.Locale) Option {
	return func(s *Service) {
		if l != "" {
			s.locale = l
		}
	}
}

// WithMaxBatchSize caps records per prediction request.
func WithMaxBatchSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxBatchSize = n
		}
	}
}

// WithPermutationSamples sets the sample count of the model-agnostic explainer.
func WithPermutationSamples(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.samples = n
		}
	}
}

// WithAttributionSeed seeds the model-agnostic explainer.
func WithAttributionSeed(seed int64) Option {
	return func(s *Service) {
		s.seed = seed
	}
}

// WithInsightCache keeps up to size explained records, keyed by their
// request body. Zero disables caching.
func WithInsightCache(size int) Option {
	return func(s *Service) {
		if size >= 0 {
			s.cacheSize = size
		}
	}
}

// WithPipelineOptions appends raw pipeline options, applied last.
func WithPipelineOptions(opts ...pipeline.Option) Option {
	return func(s *Service) {
		s.extra = append(s.extra, opts...)
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		locale:       insight.LocaleID,
		maxBatchSize: 1000,
		samples:      64,
		seed:         42,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start loads the artifacts and builds the pipeline. Load failures are
// returned to the caller, which treats them as fatal.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting salary insight service...")

	t := s.transformer
	if t == nil {
		ct, err := artifact.LoadPreprocessor(s.preprocessorPath)
		if err != nil {
			return fmt.Errorf("load preprocessor: %w", err)
		}
		t = ct
		s.logger.Info(ctx, "preprocessor loaded", logger.String("path", s.preprocessorPath))
	}

	m, bg := s.model, s.background
	if m == nil {
		loaded, err := artifact.LoadModel(s.modelPath)
		if err != nil {
			return fmt.Errorf("load model: %w", err)
		}
		m, bg = loaded.Regressor, loaded.Background
		s.logger.Info(ctx, "model loaded",
			logger.String("path", s.modelPath),
			logger.String("kind", m.Kind()),
		)
	}

	opts := []pipeline.Option{
		pipeline.WithLocale(s.locale),
		pipeline.WithMaxBatchSize(s.maxBatchSize),
		pipeline.WithPermutationSamples(s.samples),
		pipeline.WithSeed(s.seed),
		pipeline.WithLogger(s.logger.Named("pipeline")),
	}
	if bg != nil {
		opts = append(opts, pipeline.WithBackground(bg))
	}
	opts = append(opts, s.extra...)

	p, err := pipeline.New(t, m, opts...)
	if err != nil {
		return fmt.Errorf("build pipeline: %w", err)
	}
	method, err := p.Explainer()
	if err != nil {
		return fmt.Errorf("build explainer: %w", err)
	}

	if s.cacheSize > 0 {
		cache, err := lru.New[string, types.InsightResult](s.cacheSize)
		if err != nil {
			return fmt.Errorf("build insight cache: %w", err)
		}
		s.cache = cache
	}

	s.pipeline = p
	s.explainer = string(method)
	s.started = true
	metrics.SetModelInfo(m.Kind(), s.explainer, len(p.FeatureNames()))

	s.logger.Info(ctx, "salary insight service started",
		logger.String("model", m.Kind()),
		logger.String("explainer", s.explainer),
		logger.Int("features", len(p.FeatureNames())),
		logger.String("locale", string(p.Locale())),
	)
	return nil
}

// Stop releases the pipeline. Requests after Stop fail with types.ErrNotReady.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.pipeline = nil
	s.cache = nil
	s.started = false
	s.logger.Info(context.Background(), "salary insight service stopped")
}

func (s *Service) current() (*pipeline.Pipeline, *lru.Cache[string, types.InsightResult], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.pipeline == nil {
		return nil, nil, types.ErrNotReady
	}
	return s.pipeline, s.cache, nil
}

// Predict returns one rounded salary per record, in input order.
func (s *Service) Predict(ctx context.Context, raws []model.RawRecord) ([]float64, error) {
	p, _, err := s.current()
	if err != nil {
		return nil, err
	}
	preds, err := p.Predict(ctx, raws)
	if err != nil {
		return nil, err
	}
	s.predictions.Add(int64(len(preds)))
	return preds, nil
}

// Insight predicts and explains a single record. Identical records are
// served from the insight cache when one is configured.
func (s *Service) Insight(ctx context.Context, raw model.RawRecord) (types.InsightResult, error) {
	p, cache, err := s.current()
	if err != nil {
		return types.InsightResult{}, err
	}

	var key string
	if cache != nil {
		key = cacheKey(raw)
	}
	if key != "" {
		res, ok := cache.Get(key)
		metrics.RecordInsightCacheLookup(ok)
		if ok {
			s.insights.Add(1)
			res.FeatureInfluence = slices.Clone(res.FeatureInfluence)
			return res, nil
		}
	}

	res, err := p.Insight(ctx, raw)
	if err != nil {
		return types.InsightResult{}, err
	}
	if key != "" {
		cached := res
		cached.FeatureInfluence = slices.Clone(res.FeatureInfluence)
		cache.Add(key, cached)
	}
	s.insights.Add(1)
	return res, nil
}

// cacheKey returns the canonical JSON of raw. Map keys are encoded in sorted
// order, so equal records share a key. Unencodable records are not cached.
func cacheKey(raw model.RawRecord) string {
	b, err := json.Marshal(raw)
	if err != nil {
		return ""
	}
	return string(b)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":            s.started,
		"max_batch_size":     s.maxBatchSize,
		"records_predicted":  s.predictions.Load(),
		"insights_served":    s.insights.Load(),
		"insight_cache_size": s.cacheSize,
	}
	if s.pipeline != nil {
		stats["model_kind"] = s.pipeline.Model().Kind()
		stats["n_features"] = len(s.pipeline.FeatureNames())
		stats["explainer"] = s.explainer
		stats["locale"] = string(s.pipeline.Locale())
	}
	if s.cache != nil {
		stats["insight_cache_entries"] = s.cache.Len()
	}
	return stats
}
