package normalizer

import (
	"encoding/json"
	"math"
	"reflect"
	"testing"

	"github.com/hepascope/platform/pkg/common/models"
	"github.com/hepascope/platform/pkg/registry"
)

func testPayload() json.RawMessage {
	return json.RawMessage(`{
		"reportType": "Liver Function Test",
		"reportDate": "2024-01-05",
		"metrics": {
			"ALT": {"value": 85, "unit": "U/L"},
			"Albumin": {"value": 38, "unit": "g/L"},
			"Bilirubin": null
		},
		"metricsAll": [
			{"name": "Albumin", "value": 38, "unit": "g/L", "category": "protein"},
			{"name": "CA 19-9", "value": 12, "unit": "U/mL", "category": "tumor-marker"}
		]
	}`)
}

func TestTransformBuildsCanonicalRecords(t *testing.T) {
	tr := NewTransformer(registry.Default())
	records := tr.Transform("report-1", ParseExtraction(testPayload()))

	// 3 panel entries + 2 catalog entries, duplicates retained.
	if len(records) != 5 {
		t.Fatalf("expected 5 records, got %d", len(records))
	}

	byName := map[string]models.ExtractedMetricRecord{}
	for _, rec := range records {
		if rec.Source == models.SourcePanel {
			byName[rec.Name] = rec
		}
	}

	alb := byName["Albumin"]
	if !alb.WasConverted {
		t.Fatal("expected albumin g/L to convert")
	}
	if alb.Value == nil || math.Abs(*alb.Value-3.8) > 1e-9 {
		t.Fatalf("expected 3.8 g/dL, got %v", alb.Value)
	}
	if alb.ConversionFactor == nil || *alb.ConversionFactor != 0.1 {
		t.Fatalf("expected factor 0.1, got %v", alb.ConversionFactor)
	}
	if alb.OriginalValue == nil || *alb.OriginalValue != 38 || alb.OriginalUnit != "g/L" {
		t.Fatal("expected provenance to preserve the reported measurement")
	}
	if alb.ConversionRule == "" {
		t.Fatal("expected a conversion rule on a converted record")
	}

	bili := byName["Bilirubin"]
	if bili.Value != nil {
		t.Fatal("null extractor value must persist as null")
	}
	if bili.Metric != models.MetricBilirubin {
		t.Fatalf("null value must still resolve the name, got %q", bili.Metric)
	}

	var uncategorized *models.ExtractedMetricRecord
	for i := range records {
		if records[i].Name == "CA 19-9" {
			uncategorized = &records[i]
		}
	}
	if uncategorized == nil {
		t.Fatal("uncategorized analyte must not be dropped")
	}
	if uncategorized.Metric != "" || uncategorized.Category != "tumor-marker" {
		t.Fatalf("unexpected uncategorized record %+v", uncategorized)
	}
}

func TestTransformIdempotent(t *testing.T) {
	tr := NewTransformer(registry.Default())
	ext := ParseExtraction(testPayload())

	first := tr.Transform("report-1", ext)
	second := tr.Transform("report-1", ext)

	if len(first) != len(second) {
		t.Fatalf("record counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if !reflect.DeepEqual(first[i], second[i]) {
			t.Fatalf("record %d differs between passes:\n%+v\n%+v", i, first[i], second[i])
		}
	}
}

func TestTransformConversionInvariant(t *testing.T) {
	tr := NewTransformer(registry.Default())
	records := tr.Transform("report-1", ParseExtraction(testPayload()))

	for _, rec := range records {
		if !rec.WasConverted {
			continue
		}
		if rec.ConversionFactor == nil || rec.ConversionRule == "" {
			t.Fatalf("converted record %s missing provenance", rec.Name)
		}
		if rec.Value == nil || rec.OriginalValue == nil {
			t.Fatalf("converted record %s missing values", rec.Name)
		}
		if math.Abs(*rec.Value-*rec.OriginalValue**rec.ConversionFactor) > 1e-9 {
			t.Fatalf("conversion invariant violated for %s", rec.Name)
		}
	}
}

func TestTransformUnverifiedUnit(t *testing.T) {
	tr := NewTransformer(registry.Default())
	ext := ParseExtraction(json.RawMessage(`{
		"metrics": {"Creatinine": {"value": 1.1, "unit": "stone/fortnight"}}
	}`))

	records := tr.Transform("report-1", ext)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	rec := records[0]
	if rec.ValidationStatus != models.ValidationUnverifiedUnit {
		t.Fatalf("expected unverified_unit, got %q", rec.ValidationStatus)
	}
	if rec.Value == nil || *rec.Value != 1.1 || rec.Unit != "stone/fortnight" {
		t.Fatal("unverified values must pass through unconverted")
	}
}

func TestTransformEmptyExtraction(t *testing.T) {
	tr := NewTransformer(registry.Default())
	records := tr.Transform("report-1", ParseExtraction(nil))
	if len(records) != 0 {
		t.Fatalf("expected no records for an empty payload, got %d", len(records))
	}
}
