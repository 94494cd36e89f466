package probe

import (
	"fmt"
	"math"
)

// Tolerances for rounded percentages. Each entry is rounded to two decimals.
const (
	percentTolerance = 0.05
	expectedFeatures = 6
)

// VerifyPrediction checks that a batch response is aligned with its request.
func VerifyPrediction(sent int, resp PredictResponse) error {
	switch {
	case resp.Status != "success":
		return fmt.Errorf("%w: status %q", ErrInvariant, resp.Status)
	case resp.Count != sent || len(resp.PredictedSalary) != sent:
		return fmt.Errorf("%w: sent %d records, got count %d with %d predictions",
			ErrInvariant, sent, resp.Count, len(resp.PredictedSalary))
	}
	for i, p := range resp.PredictedSalary {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return fmt.Errorf("%w: prediction %d is not finite", ErrInvariant, i)
		}
	}
	return nil
}

// VerifyInsight checks ranking, percentage total, feature coverage and narration.
func VerifyInsight(resp InsightResponse) error {
	if resp.Status != "success" {
		return fmt.Errorf("%w: status %q", ErrInvariant, resp.Status)
	}
	if len(resp.FeatureInfluence) != expectedFeatures {
		return fmt.Errorf("%w: %d feature groups, want %d", ErrInvariant, len(resp.FeatureInfluence), expectedFeatures)
	}

	seen := make(map[string]struct{}, len(resp.FeatureInfluence))
	sum := 0.0
	for i, inf := range resp.FeatureInfluence {
		if _, dup := seen[inf.Feature]; dup {
			return fmt.Errorf("%w: feature %q reported twice", ErrInvariant, inf.Feature)
		}
		seen[inf.Feature] = struct{}{}

		if inf.InfluencePercent < 0 {
			return fmt.Errorf("%w: negative influence for %q", ErrInvariant, inf.Feature)
		}
		if i > 0 && inf.InfluencePercent > resp.FeatureInfluence[i-1].InfluencePercent {
			return fmt.Errorf("%w: entry %d outranks entry %d", ErrInvariant, i, i-1)
		}
		if inf.Description == "" {
			return fmt.Errorf("%w: empty description for %q", ErrInvariant, inf.Feature)
		}
		sum += inf.InfluencePercent
	}

	if sum != 0 && math.Abs(sum-100) > percentTolerance*float64(len(resp.FeatureInfluence)) {
		return fmt.Errorf("%w: influences sum to %.2f", ErrInvariant, sum)
	}
	return nil
}
