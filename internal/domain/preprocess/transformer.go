// Package preprocess implements a fitted column transformer: the
// preprocessing step that turns canonical records into the encoded numeric
// matrix the regression model was trained on.
package preprocess

import (
	"fmt"
	"sort"
	"strings"

	"github.com/okian/salary-insight/internal/domain/model"
	"gonum.org/v1/gonum/mat"
)

// Kind names a fitted transformation applied to a group of columns.
type Kind string

// Supported step kinds.
const (
	KindOneHot         Kind = "onehot"
	KindStandardScaler Kind = "standard_scaler"
	KindPassthrough    Kind = "passthrough"
)

// Unknown-category policies for one-hot steps.
const (
	HandleUnknownError  = "error"
	HandleUnknownIgnore = "ignore"
)

// Step is one fitted transformer applied to a list of input columns.
type Step struct {
	Name          string     `json:"name"`
	Kind          Kind       `json:"kind"`
	Columns       []string   `json:"columns"`
	Categories    [][]string `json:"categories,omitempty"`
	HandleUnknown string     `json:"handle_unknown,omitempty"`
	Mean          []float64  `json:"mean,omitempty"`
	Scale         []float64  `json:"scale,omitempty"`
}

// Option applies a configuration option to the ColumnTransformer.
type Option func(*ColumnTransformer)

// WithVerboseNames controls whether output names carry the "<step>__" prefix.
func WithVerboseNames(verbose bool) Option {
	return func(ct *ColumnTransformer) {
		ct.verbose = verbose
	}
}

// ColumnTransformer applies its steps side by side and concatenates their
// outputs in step order. It is read-only after construction and safe for
// concurrent use.
type ColumnTransformer struct {
	steps   []Step
	verbose bool

	names      []string
	inputs     []string
	categories []map[string]int // per one-hot column: category -> offset, indexed like flattened columns
	width      int
}

// New validates steps and builds a ColumnTransformer.
func New(steps []Step, opts ...Option) (*ColumnTransformer, error) {
	ct := &ColumnTransformer{verbose: true}
	for _, opt := range opts {
		opt(ct)
	}
	if len(steps) == 0 {
		return nil, fmt.Errorf("%w: no steps", ErrInvalidStep)
	}

	seen := make(map[string]struct{})
	for i := range steps {
		s := steps[i]
		if err := validateStep(s); err != nil {
			return nil, err
		}
		if s.Kind == KindOneHot && s.HandleUnknown == "" {
			s.HandleUnknown = HandleUnknownError
		}
		if s.Kind == KindStandardScaler {
			s.Scale = append([]float64(nil), s.Scale...)
			for j, sc := range s.Scale {
				if sc == 0 {
					s.Scale[j] = 1
				}
			}
		}
		for j, col := range s.Columns {
			if _, dup := seen[col]; !dup {
				seen[col] = struct{}{}
				ct.inputs = append(ct.inputs, col)
			}
			switch s.Kind {
			case KindOneHot:
				index := make(map[string]int, len(s.Categories[j]))
				for k, cat := range s.Categories[j] {
					index[cat] = k
					ct.names = append(ct.names, ct.outputName(s.Name, col+"_"+cat))
				}
				ct.categories = append(ct.categories, index)
			default:
				ct.names = append(ct.names, ct.outputName(s.Name, col))
			}
		}
		ct.steps = append(ct.steps, s)
	}
	ct.width = len(ct.names)
	if ct.width == 0 {
		return nil, fmt.Errorf("%w: transformer produces no columns", ErrInvalidStep)
	}
	return ct, nil
}

func validateStep(s Step) error {
	if len(s.Columns) == 0 {
		return fmt.Errorf("%w: step %q has no columns", ErrInvalidStep, s.Name)
	}
	switch s.Kind {
	case KindOneHot:
		if len(s.Categories) != len(s.Columns) {
			return fmt.Errorf("%w: step %q has %d category lists for %d columns", ErrInvalidStep, s.Name, len(s.Categories), len(s.Columns))
		}
		switch s.HandleUnknown {
		case "", HandleUnknownError, HandleUnknownIgnore:
		default:
			return fmt.Errorf("%w: step %q has unknown handle_unknown %q", ErrInvalidStep, s.Name, s.HandleUnknown)
		}
	case KindStandardScaler:
		if len(s.Mean) != len(s.Columns) || len(s.Scale) != len(s.Columns) {
			return fmt.Errorf("%w: step %q mean/scale length does not match columns", ErrInvalidStep, s.Name)
		}
	case KindPassthrough:
	default:
		return fmt.Errorf("%w: step %q has unsupported kind %q", ErrInvalidStep, s.Name, s.Kind)
	}
	return nil
}

func (ct *ColumnTransformer) outputName(step, col string) string {
	if !ct.verbose || step == "" {
		return col
	}
	return step + "__" + col
}

// FeatureNamesOut returns the encoded feature names, aligned with the
// columns of the matrix returned by Transform.
func (ct *ColumnTransformer) FeatureNamesOut() []string {
	return append([]string(nil), ct.names...)
}

// InputColumns returns the canonical columns the transformer reads.
func (ct *ColumnTransformer) InputColumns() []string {
	return append([]string(nil), ct.inputs...)
}

// StepNames returns the distinct step names, used as encoded-name prefixes.
func (ct *ColumnTransformer) StepNames() []string {
	var names []string
	seen := make(map[string]struct{})
	for _, s := range ct.steps {
		if _, ok := seen[s.Name]; ok || s.Name == "" {
			continue
		}
		seen[s.Name] = struct{}{}
		names = append(names, s.Name)
	}
	return names
}

// Width returns the number of encoded columns.
func (ct *ColumnTransformer) Width() int { return ct.width }

// Transform encodes rows into a len(rows) x Width() matrix.
func (ct *ColumnTransformer) Transform(rows []model.CanonicalRecord) (*mat.Dense, error) {
	if len(rows) == 0 {
		return nil, ErrEmptyBatch
	}
	if err := ct.checkColumns(rows); err != nil {
		return nil, err
	}

	out := mat.NewDense(len(rows), ct.width, nil)
	for i, row := range rows {
		if err := ct.encodeRow(row, out.RawRowView(i)); err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
	}
	return out, nil
}

// checkColumns fails when an input column is absent from every row, the way a
// dataframe built from the batch would lack it entirely.
func (ct *ColumnTransformer) checkColumns(rows []model.CanonicalRecord) error {
	var missing []string
	for _, col := range ct.inputs {
		found := false
		for _, row := range rows {
			if _, ok := row[col]; ok {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, col)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return fmt.Errorf("%w: {%s}", ErrMissingColumn, quoteJoin(missing))
}

func (ct *ColumnTransformer) encodeRow(row model.CanonicalRecord, dst []float64) error {
	pos := 0
	oneHot := 0
	for _, s := range ct.steps {
		for j, col := range s.Columns {
			v := row[col]
			switch s.Kind {
			case KindOneHot:
				index := ct.categories[oneHot]
				oneHot++
				cat, err := category(v)
				if err != nil {
					return fmt.Errorf("column %q: %w", col, err)
				}
				k, ok := index[cat]
				switch {
				case ok:
					dst[pos+k] = 1
				case s.HandleUnknown == HandleUnknownError:
					return fmt.Errorf("%w ['%s'] in column %q during transform", ErrUnknownCategory, cat, col)
				}
				pos += len(index)
			case KindStandardScaler:
				f, err := numeric(v)
				if err != nil {
					return fmt.Errorf("column %q: %w", col, err)
				}
				dst[pos] = (f - s.Mean[j]) / s.Scale[j]
				pos++
			case KindPassthrough:
				f, err := numeric(v)
				if err != nil {
					return fmt.Errorf("column %q: %w", col, err)
				}
				dst[pos] = f
				pos++
			}
		}
	}
	return nil
}

func quoteJoin(items []string) string {
	quoted := make([]string, len(items))
	for i, it := range items {
		quoted[i] = "'" + it + "'"
	}
	return strings.Join(quoted, ", ")
}
