// Package types contains common types used across the application
package types

import "github.com/okian/salary-insight/internal/domain/model"

// Response status values shared by every JSON body.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// PredictionResult is the read shape returned by POST /predict.
type PredictionResult struct {
	Status          string    `json:"status"`
	Count           int       `json:"count"`
	PredictedSalary []float64 `json:"predicted_salary"`
}

// InsightResult is the read shape returned by POST /insight. FeatureInfluence
// is ordered by descending InfluencePercent.
type InsightResult struct {
	Status           string                `json:"status"`
	PredictedSalary  float64               `json:"predicted_salary"`
	FeatureInfluence []model.InsightRecord `json:"feature_influence"`
}
