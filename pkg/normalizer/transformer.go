package normalizer

import (
	"sort"

	"github.com/hepascope/platform/pkg/common/models"
	"github.com/hepascope/platform/pkg/registry"
)

// Transformer turns one parsed extraction into canonical metric records,
// recording the provenance of every unit conversion it applies.
type Transformer struct {
	registry *registry.Registry
}

func NewTransformer(reg *registry.Registry) *Transformer {
	return &Transformer{registry: reg}
}

// Transform builds one record per named panel metric and one per metricsAll
// entry. Duplicates between the two sections are both retained; priority is
// a read-time concern. The output order is deterministic so repeated
// normalization of the same payload yields the same panel.
func (t *Transformer) Transform(reportID string, ext Extraction) []models.ExtractedMetricRecord {
	var records []models.ExtractedMetricRecord

	names := make([]string, 0, len(ext.Metrics))
	for name := range ext.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		mv := ext.Metrics[name]
		if mv == nil {
			mv = &MetricValue{}
		}
		rec := t.buildRecord(reportID, name, mv.Value, mv.Unit, models.SourcePanel)
		rec.TextValue = mv.TextValue
		records = append(records, rec)
	}

	for _, entry := range ext.MetricsAll {
		rec := t.buildRecord(reportID, entry.Name, entry.Value, entry.Unit, models.SourceCatalog)
		rec.Category = entry.Category
		rec.TextValue = entry.TextValue
		records = append(records, rec)
	}

	return records
}

func (t *Transformer) buildRecord(reportID, name string, value *float64, unit, source string) models.ExtractedMetricRecord {
	res := t.registry.Normalize(name, value, unit)
	return models.ExtractedMetricRecord{
		ReportID:         reportID,
		Name:             name,
		Metric:           res.Metric,
		Source:           source,
		Value:            res.Value,
		Unit:             res.Unit,
		OriginalValue:    value,
		OriginalUnit:     unit,
		WasConverted:     res.Converted,
		ConversionFactor: res.Factor,
		ConversionRule:   res.Rule,
		ValidationStatus: res.ValidationStatus,
	}
}
