package pipeline

import (
	"github.com/okian/salary-insight/internal/domain/attribution"
	"github.com/okian/salary-insight/internal/domain/insight"
	"github.com/okian/salary-insight/pkg/logger"
)

// Option applies a configuration option to the Pipeline.
type Option func(*Pipeline)

// WithLocale selects the narration language.
func WithLocale(l insight.Locale) Option {
	return func(p *Pipeline) {
		p.narrator = insight.NewNarrator(insight.WithLocale(l))
	}
}

// WithMaxBatchSize limits the number of records per prediction. Zero means unlimited.
func WithMaxBatchSize(n int) Option {
	return func(p *Pipeline) {
		if n >= 0 {
			p.maxBatch = n
		}
	}
}

// WithAlgorithm forces an attribution algorithm instead of auto selection.
func WithAlgorithm(a attribution.Algorithm) Option {
	return func(p *Pipeline) {
		p.explain = append(p.explain, attribution.WithAlgorithm(a))
	}
}

// WithPermutationSamples sets the permutation explainer sample count.
func WithPermutationSamples(n int) Option {
	return func(p *Pipeline) {
		p.explain = append(p.explain, attribution.WithSamples(n))
	}
}

// WithSeed seeds the permutation explainer.
func WithSeed(seed int64) Option {
	return func(p *Pipeline) {
		p.explain = append(p.explain, attribution.WithSeed(seed))
	}
}

// WithBackground sets the reference row for linear and permutation attribution.
func WithBackground(bg []float64) Option {
	return func(p *Pipeline) {
		p.explain = append(p.explain, attribution.WithBackground(bg))
	}
}

// WithLogger sets a custom logger for the pipeline.
func WithLogger(l logger.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}
