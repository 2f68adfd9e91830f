package store

import (
	"context"
	"errors"

	"github.com/hepascope/platform/pkg/common/models"
)

var ErrNotFound = errors.New("report not found")

// ReportStore is the persistence boundary of the analytics core. Metric
// records are write-once per report: SaveMetrics replaces a report's full
// panel atomically, so a later re-normalization pass is the only mutation
// path and readers never observe a half-written panel.
type ReportStore interface {
	SaveReport(ctx context.Context, report models.ReportRecord) error
	FindReportsByUser(ctx context.Context, userID string) ([]models.ReportRecord, error)
	FindMetricsByReport(ctx context.Context, reportID string) ([]models.ExtractedMetricRecord, error)
	SaveMetrics(ctx context.Context, reportID string, records []models.ExtractedMetricRecord) error
	DeleteReport(ctx context.Context, reportID string) error
}
