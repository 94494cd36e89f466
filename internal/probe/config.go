// Package probe drives a running salary insight service with generated
// employee records and checks the responses for consistency.
package probe

import "time"

// Config holds configuration for a probe run.
type Config struct {
	BaseURL    string        // Base URL of the service
	APIKey     string        // Value for the x-api-key header
	Records    int           // Number of employee records to generate
	BatchSize  int           // Records per /predict call
	Insights   int           // Number of records to explain via /insight
	Workers    int           // Number of concurrent workers
	Timeout    time.Duration // HTTP request timeout
	Seed       uint64        // Generator seed; runs with the same seed send the same records
	OutputFile string        // Optional file receiving the generated records
	Verbose    bool          // Enable per-request logging
}

// Employee is one generated request record using the public field names.
type Employee struct {
	EmployeeID       string `json:"employee_id"`
	JobPosition      string `json:"job_position"`
	WorkMode         string `json:"work_mode"`
	PerformanceScore int    `json:"performance_score"`
	AttendanceCount  int    `json:"attendance_count"`
	ProjectCompleted int    `json:"project_completed"`
	YearsOfService   int    `json:"years_of_service"`
}

// Influence mirrors one feature_influence entry of an insight response.
type Influence struct {
	Feature          string  `json:"feature"`
	Value            any     `json:"value"`
	InfluencePercent float64 `json:"influence_percent"`
	Description      string  `json:"description"`
}

// InsightResponse is the body of a successful /insight call.
type InsightResponse struct {
	Status           string      `json:"status"`
	PredictedSalary  float64     `json:"predicted_salary"`
	FeatureInfluence []Influence `json:"feature_influence"`
}

// PredictResponse is the body of a successful /predict call.
type PredictResponse struct {
	Status          string    `json:"status"`
	Count           int       `json:"count"`
	PredictedSalary []float64 `json:"predicted_salary"`
}

// Stats holds probe statistics.
type Stats struct {
	RecordsGenerated  int
	PredictCalls      int
	PredictFailed     int
	RecordsPredicted  int
	InsightCalls      int
	InsightFailed     int
	InvariantFailures int
	StartTime         time.Time
	EndTime           time.Time
	Duration          time.Duration
}
