// Package insight turns a raw attribution vector into ranked base-feature
// groups and renders a sentence for each of them.
package insight

import (
	"fmt"
	"math"
	"sort"

	"github.com/okian/salary-insight/internal/domain/features"
	"github.com/okian/salary-insight/internal/domain/model"
)

// Aggregate folds encoded-feature attributions into base feature groups.
// Groups keep first-occurrence order before a stable sort by descending
// percentage. A zero total yields 0% for every group.
func Aggregate(names []string, values []float64, raw model.RawRecord, resolver *features.Resolver) ([]model.FeatureGroup, error) {
	if len(names) != len(values) {
		return nil, fmt.Errorf("%w: %d names, %d values", ErrLengthMismatch, len(names), len(values))
	}
	if resolver == nil {
		resolver = features.NewResolver()
	}

	index := make(map[string]int, len(names))
	groups := make([]model.FeatureGroup, 0, len(names))
	total := 0.0
	for i, name := range names {
		base := resolver.Base(name)
		abs := math.Abs(values[i])
		total += abs

		g, ok := index[base]
		if !ok {
			g = len(groups)
			index[base] = g
			groups = append(groups, model.FeatureGroup{Feature: base, RawValue: rawValue(raw, base)})
		}
		groups[g].AbsAttribution += abs
		groups[g].Columns++
	}

	if total > 0 {
		for i := range groups {
			groups[i].Percentage = 100 * groups[i].AbsAttribution / total
		}
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Percentage > groups[j].Percentage
	})
	return groups, nil
}

// rawValue looks the group's value up in the raw request through the
// reverse name mapping.
func rawValue(raw model.RawRecord, base string) any {
	ext, ok := features.External(base)
	if !ok {
		return nil
	}
	v, _ := raw.Lookup(ext)
	return v
}

// Round2 rounds x to two decimal places.
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}
