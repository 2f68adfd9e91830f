package normalizer

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseExtractionFullPayload(t *testing.T) {
	raw := json.RawMessage(`{
		"reportType": "Liver Function Test",
		"reportDate": "2024-01-05",
		"metrics": {
			"ALT": {"value": 85, "unit": "U/L"},
			"Albumin": {"value": "38", "unit": "g/L"},
			"INR": null
		},
		"metricsAll": [
			{"name": "Ferritin", "value": 210, "unit": "ng/mL", "category": "iron"},
			{"name": "HBsAg", "value": "non-reactive", "unit": null}
		]
	}`)

	ext := ParseExtraction(raw)
	if ext.ReportType != "Liver Function Test" {
		t.Fatalf("unexpected report type %q", ext.ReportType)
	}
	if len(ext.Metrics) != 3 {
		t.Fatalf("expected 3 panel metrics, got %d", len(ext.Metrics))
	}
	if ext.Metrics["INR"] != nil {
		t.Fatal("null panel entry should stay nil")
	}

	alb := ext.Metrics["Albumin"]
	if alb == nil || alb.Value == nil || *alb.Value != 38 {
		t.Fatalf("expected numeric string to parse, got %+v", alb)
	}

	if len(ext.MetricsAll) != 2 {
		t.Fatalf("expected 2 catalog metrics, got %d", len(ext.MetricsAll))
	}
	if ext.MetricsAll[1].Value != nil || ext.MetricsAll[1].TextValue != "non-reactive" {
		t.Fatalf("expected textual result preserved, got %+v", ext.MetricsAll[1])
	}
}

func TestParseExtractionToleratesMalformedSections(t *testing.T) {
	raw := json.RawMessage(`{
		"reportDate": "2024-02-01",
		"metrics": {"AST": {"value": 31, "unit": "U/L"}},
		"metricsAll": "not-an-array",
		"imaging": 42
	}`)

	ext := ParseExtraction(raw)
	if len(ext.Metrics) != 1 {
		t.Fatal("a malformed metricsAll must not take the panel down")
	}
	if ext.MetricsAll != nil {
		t.Fatal("malformed metricsAll should be absent")
	}
}

func TestParseExtractionGarbage(t *testing.T) {
	ext := ParseExtraction(json.RawMessage(`]]]`))
	if ext.Metrics != nil || ext.MetricsAll != nil || ext.ReportType != "" {
		t.Fatal("garbage payload should parse to an empty extraction")
	}

	ext = ParseExtraction(nil)
	if ext.Metrics != nil {
		t.Fatal("nil payload should parse to an empty extraction")
	}
}

func TestParseReportDate(t *testing.T) {
	parsed := ParseReportDate("2024-01-10")
	if parsed == nil {
		t.Fatal("expected ISO date to parse")
	}
	want := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	if !parsed.Equal(want) {
		t.Fatalf("expected %v, got %v", want, parsed)
	}

	if ParseReportDate("next tuesday") != nil {
		t.Fatal("expected unparseable date to be nil")
	}
	if ParseReportDate("") != nil {
		t.Fatal("expected empty date to be nil")
	}
}
