package features

import (
	"sort"
	"strings"
)

// prefixSeparator separates a transformer name from the column name in
// verbose encoded feature names ("cat__Jabatan/Posisi_Manager").
const prefixSeparator = "__"

// categorySeparator separates a column name from a one-hot category.
const categorySeparator = "_"

// defaultPrefixes are the transformer names always stripped.
var defaultPrefixes = []string{"cat", "num", "remainder"} //nolint:gochecknoglobals // fixed default

// Option applies a configuration option to the Resolver.
type Option func(*Resolver)

// WithColumns adds canonical column names the resolver can recover, in
// addition to the known base features.
func WithColumns(cols ...string) Option {
	return func(r *Resolver) {
		for _, c := range cols {
			if c != "" {
				r.names[c] = struct{}{}
			}
		}
	}
}

// WithPrefixes adds transformer names whose "<name>__" prefix is stripped.
func WithPrefixes(prefixes ...string) Option {
	return func(r *Resolver) {
		for _, p := range prefixes {
			if p != "" {
				r.prefixes[p] = struct{}{}
			}
		}
	}
}

// Resolver recovers the base feature name from an encoded feature name by
// exact matching against a known set of canonical names. It never splits on
// separators blindly, so canonical names containing "_" or "/" survive.
type Resolver struct {
	names    map[string]struct{}
	prefixes map[string]struct{}
	ordered  []string // names sorted longest first
}

// NewResolver creates a resolver that knows the base features plus any
// columns and prefixes supplied through options.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		names:    make(map[string]struct{}),
		prefixes: make(map[string]struct{}),
	}
	for _, b := range All() {
		r.names[string(b)] = struct{}{}
	}
	for _, p := range defaultPrefixes {
		r.prefixes[p] = struct{}{}
	}

	for _, opt := range opts {
		opt(r)
	}

	r.ordered = make([]string, 0, len(r.names))
	for n := range r.names {
		r.ordered = append(r.ordered, n)
	}
	sort.Slice(r.ordered, func(i, j int) bool {
		if len(r.ordered[i]) != len(r.ordered[j]) {
			return len(r.ordered[i]) > len(r.ordered[j])
		}
		return r.ordered[i] < r.ordered[j]
	})
	return r
}

// Base returns the base feature name for an encoded feature name. Names that
// match no known column resolve to themselves with the prefix removed.
func (r *Resolver) Base(encoded string) string {
	name := r.stripPrefix(encoded)
	for _, candidate := range r.ordered {
		if name == candidate || strings.HasPrefix(name, candidate+categorySeparator) {
			return candidate
		}
	}
	return name
}

// stripPrefix removes a single leading "<transformer>__" marker.
func (r *Resolver) stripPrefix(encoded string) string {
	idx := strings.Index(encoded, prefixSeparator)
	if idx <= 0 {
		return encoded
	}
	if _, ok := r.prefixes[encoded[:idx]]; !ok {
		return encoded
	}
	return encoded[idx+len(prefixSeparator):]
}
