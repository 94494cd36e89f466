// Package features translates between the externally-facing request field
// names and the canonical feature names the model pipeline was fitted on.
package features

import "github.com/okian/salary-insight/internal/domain/model"

// BaseFeature is one of the canonical features the service knows how to
// describe. Any other canonical name is treated as an unknown feature.
type BaseFeature string

// Known canonical features.
const (
	WorkMode          BaseFeature = "Lokasi Kerja"
	JobPosition       BaseFeature = "Jabatan/Posisi"
	PerformanceScore  BaseFeature = "Skor Kinerja"
	AttendanceCount   BaseFeature = "Kehadiran Digital"
	ProjectsCompleted BaseFeature = "Jumlah Proyek Selesai"
	YearsOfService    BaseFeature = "Masa Kerja"
)

// externalNames maps request field names to canonical features.
var externalNames = map[string]BaseFeature{ //nolint:gochecknoglobals // fixed translation table
	"work_mode":         WorkMode,
	"job_position":      JobPosition,
	"performance_score": PerformanceScore,
	"attendance_count":  AttendanceCount,
	"project_completed": ProjectsCompleted,
	"years_of_service":  YearsOfService,
}

// canonicalNames is the reverse of externalNames.
var canonicalNames = func() map[BaseFeature]string { //nolint:gochecknoglobals // derived from externalNames
	m := make(map[BaseFeature]string, len(externalNames))
	for ext, base := range externalNames {
		m[base] = ext
	}
	return m
}()

// All returns the known canonical features in a fixed order.
func All() []BaseFeature {
	return []BaseFeature{JobPosition, WorkMode, PerformanceScore, AttendanceCount, ProjectsCompleted, YearsOfService}
}

// Known reports whether b is one of the known canonical features.
func (b BaseFeature) Known() bool {
	_, ok := canonicalNames[b]
	return ok
}

// Canonical returns the canonical name for an external field name. Unknown
// names are returned unchanged.
func Canonical(field string) string {
	if base, ok := externalNames[field]; ok {
		return string(base)
	}
	return field
}

// External returns the request field name for a canonical feature name.
func External(base string) (string, bool) {
	ext, ok := canonicalNames[BaseFeature(base)]
	return ext, ok
}

// Map renames the keys of raw to canonical names. Values are never touched
// and unknown keys pass through. When a record carries both an external name
// and its canonical counterpart, the external field wins.
func Map(raw model.RawRecord) model.CanonicalRecord {
	out := make(model.CanonicalRecord, len(raw))
	for k, v := range raw {
		if _, mapped := externalNames[k]; mapped {
			continue
		}
		out[k] = v
	}
	for k, v := range raw {
		if base, mapped := externalNames[k]; mapped {
			out[string(base)] = v
		}
	}
	return out
}

// MapAll applies Map to every record, preserving order.
func MapAll(raws []model.RawRecord) []model.CanonicalRecord {
	out := make([]model.CanonicalRecord, len(raws))
	for i, raw := range raws {
		out[i] = Map(raw)
	}
	return out
}
