package normalizer

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Extraction is the typed view of one report's AI extraction payload. Every
// section is optional; a missing or malformed section is absent, never an
// error. The imaging section is left raw here and derived read-side by the
// imaging package.
type Extraction struct {
	ReportType string
	ReportDate string
	Metrics    map[string]*MetricValue
	MetricsAll []NamedMetric
}

// MetricValue is one entry of the fixed metrics panel. Value is nil when the
// extractor reported null or a non-numeric string; the latter is preserved
// in TextValue.
type MetricValue struct {
	Value     *float64
	Unit      string
	TextValue string
}

func (m *MetricValue) UnmarshalJSON(data []byte) error {
	var raw struct {
		Value json.RawMessage `json:"value"`
		Unit  *string         `json:"unit"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Unit != nil {
		m.Unit = strings.TrimSpace(*raw.Unit)
	}
	m.Value, m.TextValue = flexNumber(raw.Value)
	return nil
}

// NamedMetric is one entry of the open-ended metricsAll list.
type NamedMetric struct {
	Name      string
	Value     *float64
	Unit      string
	Category  string
	TextValue string
}

func (n *NamedMetric) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name     string          `json:"name"`
		Value    json.RawMessage `json:"value"`
		Unit     *string         `json:"unit"`
		Category *string         `json:"category"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	n.Name = strings.TrimSpace(raw.Name)
	if raw.Unit != nil {
		n.Unit = strings.TrimSpace(*raw.Unit)
	}
	if raw.Category != nil {
		n.Category = strings.TrimSpace(*raw.Category)
	}
	n.Value, n.TextValue = flexNumber(raw.Value)
	return nil
}

// flexNumber accepts a JSON number, a numeric string, or null. Anything else
// stringy survives as free text.
func flexNumber(raw json.RawMessage) (*float64, string) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return nil, ""
	}
	var num float64
	if err := json.Unmarshal(raw, &num); err == nil {
		return &num, ""
	}
	var str string
	if err := json.Unmarshal(raw, &str); err != nil {
		return nil, ""
	}
	str = strings.TrimSpace(str)
	if parsed, err := strconv.ParseFloat(strings.TrimSuffix(str, "%"), 64); err == nil {
		return &parsed, ""
	}
	return nil, str
}

// ParseExtraction decodes a raw extraction payload section by section, so a
// malformed metricsAll cannot take the metrics panel down with it.
func ParseExtraction(raw json.RawMessage) Extraction {
	var ext Extraction
	if len(raw) == 0 {
		return ext
	}

	var sections map[string]json.RawMessage
	if err := json.Unmarshal(raw, &sections); err != nil {
		return ext
	}

	if section, ok := sections["reportType"]; ok {
		var s string
		if err := json.Unmarshal(section, &s); err == nil {
			ext.ReportType = strings.TrimSpace(s)
		}
	}
	if section, ok := sections["reportDate"]; ok {
		var s string
		if err := json.Unmarshal(section, &s); err == nil {
			ext.ReportDate = strings.TrimSpace(s)
		}
	}
	if section, ok := sections["metrics"]; ok {
		var metrics map[string]*MetricValue
		if err := json.Unmarshal(section, &metrics); err == nil {
			ext.Metrics = metrics
		}
	}
	if section, ok := sections["metricsAll"]; ok {
		var entries []json.RawMessage
		if err := json.Unmarshal(section, &entries); err == nil {
			for _, entry := range entries {
				var nm NamedMetric
				if err := json.Unmarshal(entry, &nm); err != nil || nm.Name == "" {
					continue
				}
				ext.MetricsAll = append(ext.MetricsAll, nm)
			}
		}
	}

	return ext
}

var reportDateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"2006-01-02 15:04:05",
	"02/01/2006",
}

// ParseReportDate parses the clinically relevant report date in the formats
// the extractor emits. Unparseable dates are nil; callers fall back to
// upload time.
func ParseReportDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range reportDateLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			parsed = parsed.UTC()
			return &parsed
		}
	}
	return nil
}
