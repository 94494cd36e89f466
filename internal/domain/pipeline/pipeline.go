// Package pipeline runs the prediction and insight flows: name mapping,
// preprocessing, inference, attribution, aggregation and narration. A
// Pipeline holds only read-only capabilities and is safe for concurrent use.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/salary-insight/internal/domain/attribution"
	"github.com/okian/salary-insight/internal/domain/features"
	"github.com/okian/salary-insight/internal/domain/insight"
	"github.com/okian/salary-insight/internal/domain/model"
	"github.com/okian/salary-insight/internal/domain/preprocess"
	"github.com/okian/salary-insight/internal/domain/regression"
	"github.com/okian/salary-insight/internal/domain/types"
	"github.com/okian/salary-insight/pkg/logger"
	"github.com/okian/salary-insight/pkg/metrics"
	"github.com/okian/salary-insight/pkg/tracing"
	"go.opentelemetry.io/otel/trace"
	"gonum.org/v1/gonum/mat"
)

// Transformer is the fitted preprocessing step.
type Transformer interface {
	Transform(rows []model.CanonicalRecord) (*mat.Dense, error)
	FeatureNamesOut() []string
	InputColumns() []string
	StepNames() []string
}

// Pipeline couples a transformer with a model.
type Pipeline struct {
	transformer Transformer
	model       regression.Model
	names       []string
	resolver    *features.Resolver
	narrator    *insight.Narrator
	maxBatch    int
	explain     []attribution.Option
	logger      logger.Logger
}

// New validates that transformer output and model input line up and builds
// a Pipeline.
func New(t Transformer, m regression.Model, opts ...Option) (*Pipeline, error) {
	if t == nil || m == nil {
		return nil, fmt.Errorf("%w: transformer and model are required", ErrInvalidPipeline)
	}
	names := t.FeatureNamesOut()
	if len(names) != m.NumFeatures() {
		return nil, fmt.Errorf("%w: transformer emits %d features, model expects %d",
			ErrInvalidPipeline, len(names), m.NumFeatures())
	}

	p := &Pipeline{
		transformer: t,
		model:       m,
		names:       names,
		narrator:    insight.NewNarrator(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.resolver = features.NewResolver(
		features.WithColumns(t.InputColumns()...),
		features.WithPrefixes(t.StepNames()...),
	)
	return p, nil
}

// Model returns the underlying model.
func (p *Pipeline) Model() regression.Model { return p.model }

// FeatureNames returns the encoded feature names.
func (p *Pipeline) FeatureNames() []string { return append([]string(nil), p.names...) }

// Locale returns the narration language.
func (p *Pipeline) Locale() insight.Locale { return p.narrator.Locale() }

// Explainer returns the attribution method the pipeline would use, or an
// error when no explainer can be built for the model.
func (p *Pipeline) Explainer() (attribution.Algorithm, error) {
	exp, err := attribution.New(p.model, p.explain...)
	if err != nil {
		return "", err
	}
	return exp.Method(), nil
}

// Predict maps, transforms and scores raws, returning one prediction per
// record rounded to two decimals, in input order.
func (p *Pipeline) Predict(ctx context.Context, raws []model.RawRecord) (_ []float64, err error) {
	ctx, span := tracing.StartSpan(ctx, "pipeline.Predict", tracing.AttrRecords.Int(len(raws)))
	defer func() {
		p.fail(ctx, span, "predict", err)
		span.End()
	}()

	switch {
	case len(raws) == 0:
		return nil, wrap("predict", ErrTransformation, preprocess.ErrEmptyBatch)
	case p.maxBatch > 0 && len(raws) > p.maxBatch:
		return nil, wrapf("predict", ErrTransformation, "%w: %d records, limit %d", ErrBatchTooLarge, len(raws), p.maxBatch)
	}

	rows, err := p.mapRecords(ctx, raws)
	if err != nil {
		return nil, err
	}
	X, err := p.transform(ctx, rows)
	if err != nil {
		return nil, err
	}
	preds, err := p.predict(ctx, X)
	if err != nil {
		return nil, err
	}

	for i := range preds {
		preds[i] = insight.Round2(preds[i])
	}
	metrics.RecordPrediction(len(preds))
	return preds, nil
}

// Insight predicts a single record and explains it with ranked, narrated
// feature groups.
func (p *Pipeline) Insight(ctx context.Context, raw model.RawRecord) (_ types.InsightResult, err error) {
	ctx, span := tracing.StartSpan(ctx, "pipeline.Insight")
	defer func() {
		p.fail(ctx, span, "insight", err)
		span.End()
	}()

	rows, err := p.mapRecords(ctx, []model.RawRecord{raw})
	if err != nil {
		return types.InsightResult{}, err
	}
	X, err := p.transform(ctx, rows)
	if err != nil {
		return types.InsightResult{}, err
	}
	preds, err := p.predict(ctx, X)
	if err != nil {
		return types.InsightResult{}, err
	}

	values, err := p.attribute(ctx, X.RawRowView(0))
	if err != nil {
		return types.InsightResult{}, err
	}

	done := stage(ctx, metrics.StageAggregate)
	groups, err := insight.Aggregate(p.names, values, raw, p.resolver)
	done(err)
	if err != nil {
		return types.InsightResult{}, wrap(metrics.StageAggregate, ErrAttribution, err)
	}

	done = stage(ctx, metrics.StageNarrate)
	records := p.narrator.Records(groups)
	done(nil)

	if len(groups) > 0 {
		metrics.RecordInsight(groups[0].Feature)
	}
	return types.InsightResult{
		Status:           types.StatusSuccess,
		PredictedSalary:  insight.Round2(preds[0]),
		FeatureInfluence: records,
	}, nil
}

func (p *Pipeline) mapRecords(ctx context.Context, raws []model.RawRecord) ([]model.CanonicalRecord, error) {
	done := stage(ctx, metrics.StageMap)
	for i, raw := range raws {
		if raw == nil {
			err := wrapf(metrics.StageMap, ErrMapping, "record %d is not an object", i)
			done(err)
			return nil, err
		}
	}
	rows := features.MapAll(raws)
	done(nil)
	return rows, nil
}

func (p *Pipeline) transform(ctx context.Context, rows []model.CanonicalRecord) (*mat.Dense, error) {
	done := stage(ctx, metrics.StageTransform)
	X, err := p.transformer.Transform(rows)
	if err != nil {
		err = wrap(metrics.StageTransform, ErrTransformation, err)
	}
	done(err)
	return X, err
}

func (p *Pipeline) predict(ctx context.Context, X mat.Matrix) ([]float64, error) {
	done := stage(ctx, metrics.StagePredict)
	preds, err := p.model.Predict(X)
	if err != nil {
		err = wrap(metrics.StagePredict, ErrTransformation, err)
	}
	done(err)
	return preds, err
}

func (p *Pipeline) attribute(ctx context.Context, row []float64) ([]float64, error) {
	done := stage(ctx, metrics.StageAttribute)
	exp, err := attribution.New(p.model, p.explain...)
	if err != nil {
		err = wrap(metrics.StageAttribute, ErrAttribution, err)
		done(err)
		return nil, err
	}
	a, err := exp.Explain(row)
	if err == nil && len(a.Values) != len(p.names) {
		err = fmt.Errorf("%w: %d values for %d encoded features", attribution.ErrShapeMismatch, len(a.Values), len(p.names))
	}
	if err != nil {
		err = wrap(metrics.StageAttribute, ErrAttribution, err)
	}
	done(err)
	return a.Values, err
}

// fail records a failed flow in metrics, the flow span and the log.
func (p *Pipeline) fail(ctx context.Context, span trace.Span, flow string, err error) {
	if err == nil {
		return
	}
	kind := KindOf(err)
	metrics.RecordPipelineError(kind)
	tracing.RecordError(span, err, kind)
	if p.logger != nil {
		p.logger.Warn(ctx, "pipeline failed",
			logger.String("flow", flow),
			logger.String("kind", kind),
			logger.Error(err),
		)
	}
}

// stage times one pipeline stage and traces it as a child span.
func stage(ctx context.Context, name string) func(error) {
	start := time.Now()
	_, span := tracing.StartSpan(ctx, "pipeline."+name, tracing.AttrStage.String(name))
	return func(err error) {
		metrics.RecordStageLatency(name, float64(time.Since(start).Microseconds())/1000)
		if err != nil {
			tracing.RecordError(span, err, KindOf(err))
		}
		span.End()
	}
}
