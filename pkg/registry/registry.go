package registry

import (
	"fmt"
	"strings"

	"github.com/hepascope/platform/pkg/common/models"
)

// Resolution is the outcome of normalizing one raw (name, value, unit)
// triple. Metric is empty when the name did not match the vocabulary; the
// value then passes through verbatim as an uncategorized analyte.
type Resolution struct {
	Metric           models.CanonicalMetric
	Value            *float64
	Unit             string
	Converted        bool
	Factor           *float64
	Rule             string
	ValidationStatus string
}

type unitConversion struct {
	factor float64
	rule   string
}

// Registry resolves raw metric names against the canonical vocabulary and
// converts reported units to each metric's canonical scale. Immutable after
// construction.
type Registry struct {
	catalog  Catalog
	synonyms map[string]models.CanonicalMetric
	units    map[models.CanonicalMetric]map[string]unitConversion
}

func New(cat Catalog) *Registry {
	r := &Registry{
		catalog:  cat,
		synonyms: make(map[string]models.CanonicalMetric),
		units:    make(map[models.CanonicalMetric]map[string]unitConversion),
	}

	for metric, spec := range cat.Metrics {
		r.synonyms[normalizeName(string(metric))] = metric
		for _, syn := range spec.Synonyms {
			if key := normalizeName(syn); key != "" {
				r.synonyms[key] = metric
			}
		}

		table := make(map[string]unitConversion)
		canonical := normalizeUnit(spec.CanonicalUnit)
		table[canonical] = unitConversion{factor: 1}
		for _, alias := range spec.UnitAliases {
			if key := normalizeUnit(alias); key != "" {
				table[key] = unitConversion{factor: 1}
			}
		}
		for unit, factor := range spec.Conversions {
			key := normalizeUnit(unit)
			if key == "" || factor == 0 {
				continue
			}
			table[key] = unitConversion{
				factor: factor,
				rule:   fmt.Sprintf("%s -> %s", strings.TrimSpace(unit), spec.CanonicalUnit),
			}
		}
		r.units[metric] = table
	}

	return r
}

// ResolveName maps a raw metric name to its canonical metric.
// Case-insensitive, synonym-aware.
func (r *Registry) ResolveName(name string) (models.CanonicalMetric, bool) {
	metric, ok := r.synonyms[normalizeName(name)]
	return metric, ok
}

// CanonicalUnit returns the unit a metric is stored in.
func (r *Registry) CanonicalUnit(metric models.CanonicalMetric) (string, bool) {
	spec, ok := r.catalog.Metrics[metric]
	if !ok {
		return "", false
	}
	return spec.CanonicalUnit, true
}

// Metrics lists the canonical vocabulary.
func (r *Registry) Metrics() []models.CanonicalMetric {
	out := make([]models.CanonicalMetric, 0, len(r.catalog.Metrics))
	for metric := range r.catalog.Metrics {
		out = append(out, metric)
	}
	return out
}

// Normalize resolves a raw name and converts the reported value to the
// metric's canonical unit. It never fails: unmatched names and unrecognized
// units pass through, the latter flagged unverified_unit.
func (r *Registry) Normalize(name string, value *float64, unit string) Resolution {
	metric, ok := r.ResolveName(name)
	if !ok {
		return Resolution{Value: value, Unit: unit}
	}

	spec := r.catalog.Metrics[metric]
	res := Resolution{Metric: metric, Value: value, Unit: unit}

	if value == nil {
		// Nothing to convert; keep whatever unit was reported.
		return res
	}
	if strings.TrimSpace(unit) == "" {
		// Unit absent, not ambiguous. Keep the value on faith in the
		// metric's canonical scale.
		res.Unit = spec.CanonicalUnit
		one := 1.0
		res.Factor = &one
		return res
	}

	conv, known := r.units[metric][normalizeUnit(unit)]
	if !known {
		res.ValidationStatus = models.ValidationUnverifiedUnit
		return res
	}

	res.Unit = spec.CanonicalUnit
	factor := conv.factor
	res.Factor = &factor
	if conv.factor == 1 {
		return res
	}

	converted := *value * conv.factor
	res.Value = &converted
	res.Converted = true
	res.Rule = conv.rule
	return res
}

func normalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(name))), " ")
}

var unitReplacer = strings.NewReplacer(
	"µ", "u",
	"μ", "u",
	"×", "x",
	"³", "^3",
	"⁹", "^9",
	" ", "",
)

func normalizeUnit(unit string) string {
	return unitReplacer.Replace(strings.ToLower(strings.TrimSpace(unit)))
}
