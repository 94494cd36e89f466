// Package artifact loads the fitted preprocessor and regression model from
// their JSON artifact files.
package artifact

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/okian/salary-insight/internal/domain/preprocess"
	"github.com/okian/salary-insight/internal/domain/regression"
)

// preprocessorFile is the on-disk form of a fitted column transformer.
type preprocessorFile struct {
	VerboseFeatureNamesOut *bool             `json:"verbose_feature_names_out"`
	Steps                  []preprocess.Step `json:"steps"`
}

// modelFile is the on-disk form of a fitted regressor. Fields not used by
// the declared kind are ignored.
type modelFile struct {
	Kind         string             `json:"kind"`
	NFeatures    int                `json:"n_features"`
	Trees        []*regression.Tree `json:"trees"`
	LearningRate float64            `json:"learning_rate"`
	Init         float64            `json:"init"`
	Coef         []float64          `json:"coef"`
	Intercept    float64            `json:"intercept"`
	Background   []float64          `json:"background"`
}

// Model is a loaded regressor together with its optional attribution
// background row.
type Model struct {
	Regressor  regression.Model
	Background []float64
}

// LoadPreprocessor reads a preprocessor artifact from path.
func LoadPreprocessor(path string) (*preprocess.ColumnTransformer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}
	defer f.Close()
	ct, err := DecodePreprocessor(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ct, nil
}

// DecodePreprocessor decodes a preprocessor artifact.
func DecodePreprocessor(r io.Reader) (*preprocess.ColumnTransformer, error) {
	var pf preprocessorFile
	if err := decode(r, &pf); err != nil {
		return nil, err
	}
	verbose := true
	if pf.VerboseFeatureNamesOut != nil {
		verbose = *pf.VerboseFeatureNamesOut
	}
	return preprocess.New(pf.Steps, preprocess.WithVerboseNames(verbose))
}

// LoadModel reads a model artifact from path.
func LoadModel(path string) (Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return Model{}, fmt.Errorf("%w: %w", ErrRead, err)
	}
	defer f.Close()
	m, err := DecodeModel(f)
	if err != nil {
		return Model{}, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// DecodeModel decodes a model artifact.
func DecodeModel(r io.Reader) (Model, error) {
	var mf modelFile
	if err := decode(r, &mf); err != nil {
		return Model{}, err
	}

	var (
		m   regression.Model
		err error
	)
	switch mf.Kind {
	case regression.KindRandomForest:
		m, err = regression.NewForest(mf.Trees, mf.NFeatures)
	case regression.KindGradientBoosting:
		m, err = regression.NewBoosted(mf.Trees, mf.NFeatures, mf.LearningRate, mf.Init)
	case regression.KindLinear:
		m, err = regression.NewLinear(mf.Coef, mf.Intercept)
	default:
		return Model{}, fmt.Errorf("%w: %q", ErrUnsupportedKind, mf.Kind)
	}
	if err != nil {
		return Model{}, err
	}
	if mf.Background != nil && len(mf.Background) != m.NumFeatures() {
		return Model{}, fmt.Errorf("%w: background has %d values for %d features",
			regression.ErrInvalidModel, len(mf.Background), m.NumFeatures())
	}
	return Model{Regressor: m, Background: mf.Background}, nil
}

func decode(r io.Reader, v any) error {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return nil
}
