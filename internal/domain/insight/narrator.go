package insight

import (
	"fmt"

	"github.com/okian/salary-insight/internal/domain/features"
	"github.com/okian/salary-insight/internal/domain/model"
)

// Locale selects the narration language.
type Locale string

// Supported locales.
const (
	LocaleID Locale = "id"
	LocaleEN Locale = "en"
)

// missingValue is printed when the request carried no value for a feature.
const missingValue = "-"

// templates hold one format per known feature; %[1]s is the value and
// %[2]s the percentage.
type templates struct {
	known    map[features.BaseFeature]string
	fallback string // %[1]s is the feature name
}

var catalog = map[Locale]templates{ //nolint:gochecknoglobals // fixed sentence catalog
	LocaleID: {
		known: map[features.BaseFeature]string{
			features.JobPosition:       "Jabatan %[1]s memengaruhi gaji sebesar %[2]s%%.",
			features.WorkMode:          "Mode kerja %[1]s memberikan pengaruh sekitar %[2]s%%.",
			features.PerformanceScore:  "Skor kinerja %[1]s berkontribusi %[2]s%% terhadap gaji.",
			features.YearsOfService:    "Masa kerja %[1]s tahun berpengaruh sekitar %[2]s%%.",
			features.ProjectsCompleted: "Jumlah proyek %[1]s memberikan kontribusi %[2]s%%.",
			features.AttendanceCount:   "Kehadiran digital %[1]s memberikan dampak %[2]s%% terhadap gaji.",
		},
		fallback: "Faktor %[1]s berpengaruh %[2]s%% terhadap gaji.",
	},
	LocaleEN: {
		known: map[features.BaseFeature]string{
			features.JobPosition:       "Position %[1]s influences salary by %[2]s%%.",
			features.WorkMode:          "Work mode %[1]s contributes about %[2]s%%.",
			features.PerformanceScore:  "Performance score %[1]s contributes %[2]s%% to salary.",
			features.YearsOfService:    "%[1]s years of service account for about %[2]s%%.",
			features.ProjectsCompleted: "%[1]s completed projects contribute %[2]s%%.",
			features.AttendanceCount:   "Digital attendance %[1]s has a %[2]s%% impact on salary.",
		},
		fallback: "Factor %[1]s influences salary by %[2]s%%.",
	},
}

// NarratorOption applies a configuration option to the Narrator.
type NarratorOption func(*Narrator)

// WithLocale selects the narration language. Unsupported locales keep the default.
func WithLocale(l Locale) NarratorOption {
	return func(n *Narrator) {
		if t, ok := catalog[l]; ok {
			n.locale = l
			n.tpl = t
		}
	}
}

// Narrator renders feature groups as sentences. It is stateless and safe
// for concurrent use.
type Narrator struct {
	locale Locale
	tpl    templates
}

// NewNarrator creates a narrator, defaulting to Indonesian.
func NewNarrator(opts ...NarratorOption) *Narrator {
	n := &Narrator{locale: LocaleID, tpl: catalog[LocaleID]}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Locale returns the narrator's language.
func (n *Narrator) Locale() Locale { return n.locale }

// Supported reports whether l has a sentence catalog.
func Supported(l Locale) bool {
	_, ok := catalog[l]
	return ok
}

// Describe renders one sentence for a feature group.
func (n *Narrator) Describe(feature string, value any, percentage float64) string {
	p := fmt.Sprintf("%.1f", percentage)
	if format, ok := n.tpl.known[features.BaseFeature(feature)]; ok {
		return fmt.Sprintf(format, formatValue(value), p)
	}
	return fmt.Sprintf(n.tpl.fallback, feature, p)
}

// Records converts ranked groups into response entries.
func (n *Narrator) Records(groups []model.FeatureGroup) []model.InsightRecord {
	out := make([]model.InsightRecord, len(groups))
	for i, g := range groups {
		out[i] = model.InsightRecord{
			Feature:          g.Feature,
			Value:            g.RawValue,
			InfluencePercent: Round2(g.Percentage),
			Description:      n.Describe(g.Feature, g.RawValue, g.Percentage),
		}
	}
	return out
}

func formatValue(v any) string {
	if v == nil {
		return missingValue
	}
	return fmt.Sprint(v)
}
