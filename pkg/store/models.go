package store

import (
	"time"

	"github.com/hepascope/platform/pkg/common/models"
	"gorm.io/datatypes"
)

type ReportModel struct {
	ID            string         `gorm:"primaryKey;column:id"`
	UserID        string         `gorm:"column:user_id;index"`
	ReportType    string         `gorm:"column:report_type"`
	ReportDate    *time.Time     `gorm:"column:report_date"`
	CreatedAt     time.Time      `gorm:"column:created_at"`
	RawExtraction datatypes.JSON `gorm:"column:raw_extraction"`
}

func (ReportModel) TableName() string {
	return "reports"
}

type MetricModel struct {
	ID               string     `gorm:"primaryKey;column:id"`
	ReportID         string     `gorm:"column:report_id;index"`
	Name             string     `gorm:"column:name"`
	Metric           string     `gorm:"column:metric;index"`
	Source           string     `gorm:"column:source"`
	Value            *float64   `gorm:"column:value"`
	Unit             string     `gorm:"column:unit"`
	OriginalValue    *float64   `gorm:"column:original_value"`
	OriginalUnit     string     `gorm:"column:original_unit"`
	WasConverted     bool       `gorm:"column:was_converted"`
	ConversionFactor *float64   `gorm:"column:conversion_factor"`
	ConversionRule   string     `gorm:"column:conversion_rule"`
	Category         string     `gorm:"column:category"`
	TextValue        string     `gorm:"column:text_value"`
	ValidationStatus string     `gorm:"column:validation_status"`
	CreatedAt        time.Time  `gorm:"column:created_at"`
}

func (MetricModel) TableName() string {
	return "extracted_metrics"
}

func toReportModel(r models.ReportRecord) ReportModel {
	return ReportModel{
		ID:            r.ID,
		UserID:        r.UserID,
		ReportType:    r.ReportType,
		ReportDate:    r.ReportDate,
		CreatedAt:     r.CreatedAt,
		RawExtraction: datatypes.JSON(r.RawExtraction),
	}
}

func toReportRecord(m ReportModel) models.ReportRecord {
	return models.ReportRecord{
		ID:            m.ID,
		UserID:        m.UserID,
		ReportType:    m.ReportType,
		ReportDate:    m.ReportDate,
		CreatedAt:     m.CreatedAt,
		RawExtraction: []byte(m.RawExtraction),
	}
}

func toMetricModel(rec models.ExtractedMetricRecord) MetricModel {
	return MetricModel{
		ID:               rec.ID,
		ReportID:         rec.ReportID,
		Name:             rec.Name,
		Metric:           string(rec.Metric),
		Source:           rec.Source,
		Value:            rec.Value,
		Unit:             rec.Unit,
		OriginalValue:    rec.OriginalValue,
		OriginalUnit:     rec.OriginalUnit,
		WasConverted:     rec.WasConverted,
		ConversionFactor: rec.ConversionFactor,
		ConversionRule:   rec.ConversionRule,
		Category:         rec.Category,
		TextValue:        rec.TextValue,
		ValidationStatus: rec.ValidationStatus,
	}
}

func toMetricRecord(m MetricModel) models.ExtractedMetricRecord {
	return models.ExtractedMetricRecord{
		ID:               m.ID,
		ReportID:         m.ReportID,
		Name:             m.Name,
		Metric:           models.CanonicalMetric(m.Metric),
		Source:           m.Source,
		Value:            m.Value,
		Unit:             m.Unit,
		OriginalValue:    m.OriginalValue,
		OriginalUnit:     m.OriginalUnit,
		WasConverted:     m.WasConverted,
		ConversionFactor: m.ConversionFactor,
		ConversionRule:   m.ConversionRule,
		Category:         m.Category,
		TextValue:        m.TextValue,
		ValidationStatus: m.ValidationStatus,
	}
}
