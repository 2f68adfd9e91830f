package models

import (
	"encoding/json"
	"time"
)

// CanonicalMetric identifies a lab analyte normalized to one unit system.
// The zero value means the analyte did not match the fixed vocabulary and
// flows through the pipeline uncategorized.
type CanonicalMetric string

const (
	MetricALT          CanonicalMetric = "ALT"
	MetricAST          CanonicalMetric = "AST"
	MetricALP          CanonicalMetric = "ALP"
	MetricGGT          CanonicalMetric = "GGT"
	MetricBilirubin    CanonicalMetric = "Bilirubin"
	MetricAlbumin      CanonicalMetric = "Albumin"
	MetricTotalProtein CanonicalMetric = "TotalProtein"
	MetricCreatinine   CanonicalMetric = "Creatinine"
	MetricINR          CanonicalMetric = "INR"
	MetricSodium       CanonicalMetric = "Sodium"
	MetricPotassium    CanonicalMetric = "Potassium"
	MetricPlatelets    CanonicalMetric = "Platelets"
)

// ReferenceRange is the clinically defined normal interval for a metric in
// its canonical unit.
type ReferenceRange struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
	Unit string  `json:"unit"`
}

// Metric record sources. Panel rows come from the extractor's fixed metrics
// object, catalog rows from the open-ended metricsAll list. Both are retained
// at ingestion time; priority between duplicates is a read-time concern.
const (
	SourcePanel   = "panel"
	SourceCatalog = "catalog"
)

// ValidationUnverifiedUnit flags a value whose reported unit was not
// recognized for its metric and was passed through unconverted.
const ValidationUnverifiedUnit = "unverified_unit"

// ExtractedMetricRecord is one measurement belonging to one report. Value and
// Unit hold the canonical, already-converted measurement; the Original*
// fields preserve provenance.
type ExtractedMetricRecord struct {
	ID               string          `json:"id"`
	ReportID         string          `json:"report_id"`
	Name             string          `json:"name"`
	Metric           CanonicalMetric `json:"metric,omitempty"`
	Source           string          `json:"source"`
	Value            *float64        `json:"value"`
	Unit             string          `json:"unit,omitempty"`
	OriginalValue    *float64        `json:"original_value"`
	OriginalUnit     string          `json:"original_unit,omitempty"`
	WasConverted     bool            `json:"was_converted"`
	ConversionFactor *float64        `json:"conversion_factor,omitempty"`
	ConversionRule   string          `json:"conversion_rule,omitempty"`
	Category         string          `json:"category,omitempty"`
	TextValue        string          `json:"text_value,omitempty"`
	ValidationStatus string          `json:"validation_status,omitempty"`
}

// ReportRecord is one uploaded report. ReportDate is the clinically relevant
// date; CreatedAt is upload time. RawExtraction carries the extractor output
// verbatim.
type ReportRecord struct {
	ID            string          `json:"id"`
	UserID        string          `json:"user_id"`
	ReportType    string          `json:"report_type,omitempty"`
	ReportDate    *time.Time      `json:"report_date,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	RawExtraction json.RawMessage `json:"raw_extraction,omitempty"`
}

// SeriesPoint is one value of a per-metric time series. CreatedAt carries the
// owning report's upload time for same-date tie-breaks and is not part of the
// chart contract.
type SeriesPoint struct {
	Date      time.Time `json:"date"`
	Value     float64   `json:"value"`
	CreatedAt time.Time `json:"-"`
}

// Measurement is a sized quantity reported by the extractor.
type Measurement struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

// ImagingOrgan is derived from a report's raw extraction at read time.
type ImagingOrgan struct {
	Name  string       `json:"name"`
	Size  *Measurement `json:"size,omitempty"`
	Notes string       `json:"notes,omitempty"`
}

// Correlation labels.
const (
	EnzymesElevated   = "elevated"
	EnzymesNormal     = "normal"
	SyntheticImpaired = "impaired"
	SyntheticNormal   = "normal"
	TrendConcerning   = "concerning"
	TrendStable       = "stable"
)

// LabValue is one classified lab measurement joined to an imaging event.
type LabValue struct {
	Metric CanonicalMetric `json:"metric"`
	Value  float64         `json:"value"`
	Unit   string          `json:"unit"`
	Status string          `json:"status"`
}

type CorrelationSummary struct {
	LiverEnzymes      string `json:"liverEnzymes"`
	SyntheticFunction string `json:"syntheticFunction"`
	OverallTrend      string `json:"overallTrend"`
}

// CorrelationRecord joins one imaging event to its temporally nearby lab
// values. Computed on demand, never persisted.
type CorrelationRecord struct {
	ImagingDate time.Time          `json:"imagingDate"`
	Modality    string             `json:"modality,omitempty"`
	OrganSize   float64            `json:"organSize"`
	OrganUnit   string             `json:"organUnit"`
	LabValues   []LabValue         `json:"labValues"`
	Correlation CorrelationSummary `json:"correlation"`
}

// API response shapes consumed by UI collaborators.

type ChartPoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

type ChartSeries struct {
	Metric CanonicalMetric `json:"metric"`
	Data   []ChartPoint    `json:"data"`
}

type LatestValue struct {
	Value          float64 `json:"value"`
	Unit           string  `json:"unit,omitempty"`
	Classification string  `json:"classification,omitempty"`
	Date           string  `json:"date"`
}

type CorrelationResponse struct {
	Correlations []CorrelationRecord `json:"correlations"`
	Count        int                 `json:"count"`
}

// Event Bus models
type Event struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"` // extracted, normalized
	Source    string                 `json:"source"`
	Data      map[string]interface{} `json:"data"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]string      `json:"metadata,omitempty"`
}

// NormalizeRequest is the ingest-path input: one report's AI extraction
// output plus its owning user.
type NormalizeRequest struct {
	ReportID   string          `json:"report_id,omitempty"`
	UserID     string          `json:"user_id"`
	Extraction json.RawMessage `json:"extraction"`
	UploadedAt *time.Time      `json:"uploaded_at,omitempty"`
}

// NormalizeResult reports what one ingestion pass persisted.
type NormalizeResult struct {
	ReportID     string    `json:"report_id"`
	UserID       string    `json:"user_id"`
	MetricsSaved int       `json:"metrics_saved"`
	Timestamp    time.Time `json:"timestamp"`
}
