// Package model contains domain models passed between layers.
package model

// RawRecord is a single request record keyed by the externally-facing field
// names (job_position, work_mode, ...). Values are whatever the decoder
// produced: strings, json.Number, float64, bool or nil.
type RawRecord map[string]any

// CanonicalRecord is a RawRecord whose keys have been translated to the
// names the preprocessing transform expects ("Jabatan/Posisi", ...).
type CanonicalRecord map[string]any

// Lookup returns the value stored under key and whether the key was present.
func (r RawRecord) Lookup(key string) (any, bool) {
	v, ok := r[key]
	return v, ok
}

// Columns returns the canonical column names present in the record.
func (c CanonicalRecord) Columns() []string {
	cols := make([]string, 0, len(c))
	for k := range c {
		cols = append(cols, k)
	}
	return cols
}

// FeatureGroup aggregates the encoded columns that belong to one base feature.
type FeatureGroup struct {
	Feature        string  // base feature name, e.g. "Jabatan/Posisi"
	AbsAttribution float64 // sum of |attribution| over the group's columns
	Percentage     float64 // share of total absolute attribution, 0-100
	RawValue       any     // value from the raw request, nil when unknown
	Columns        int     // number of encoded columns folded into the group
}

// InsightRecord is one entry of the insight response.
type InsightRecord struct {
	Feature          string  `json:"feature"`
	Value            any     `json:"value"`
	InfluencePercent float64 `json:"influence_percent"`
	Description      string  `json:"description"`
}
