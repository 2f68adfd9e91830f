package series

import (
	"context"
	"fmt"
	"sort"

	"github.com/hepascope/platform/pkg/common/models"
	"github.com/hepascope/platform/pkg/store"
)

// Resolver builds per-metric time series from a user's persisted reports.
// Stateless; every call reads fresh.
type Resolver struct {
	store store.ReportStore
}

func NewResolver(st store.ReportStore) *Resolver {
	return &Resolver{store: st}
}

// GetSeries returns the user's series for one canonical metric, ascending by
// date. Each report contributes at most one point, dated by reportDate when
// present and upload time otherwise. Same-dated points from different
// reports are all kept, ordered by upload time, so the latest-value
// tie-break stays with the caller-visible contract: most recent upload wins.
func (r *Resolver) GetSeries(ctx context.Context, userID string, metric models.CanonicalMetric) ([]models.SeriesPoint, error) {
	reports, err := r.store.FindReportsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading reports for user %s: %w", userID, err)
	}

	var points []models.SeriesPoint
	for _, report := range reports {
		records, err := r.store.FindMetricsByReport(ctx, report.ID)
		if err != nil {
			return nil, fmt.Errorf("loading metrics for report %s: %w", report.ID, err)
		}

		rec, ok := pickRecord(records, metric)
		if !ok {
			continue
		}

		date := report.CreatedAt
		if report.ReportDate != nil {
			date = *report.ReportDate
		}
		points = append(points, models.SeriesPoint{
			Date:      date,
			Value:     *rec.Value,
			CreatedAt: report.CreatedAt,
		})
	}

	sort.Slice(points, func(i, j int) bool {
		if !points[i].Date.Equal(points[j].Date) {
			return points[i].Date.Before(points[j].Date)
		}
		return points[i].CreatedAt.Before(points[j].CreatedAt)
	})
	return points, nil
}

// GetLatest resolves the metric's most recent value: maximum date, ties
// broken by most recent upload time. Nil when the metric was never recorded.
func (r *Resolver) GetLatest(ctx context.Context, userID string, metric models.CanonicalMetric) (*models.SeriesPoint, error) {
	points, err := r.GetSeries(ctx, userID, metric)
	if err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, nil
	}
	latest := points[len(points)-1]
	return &latest, nil
}

// pickRecord selects the report's single contributing record for a metric.
// Panel rows win over catalog rows when the extractor reported the analyte
// in both sections; rows without a numeric value never contribute.
func pickRecord(records []models.ExtractedMetricRecord, metric models.CanonicalMetric) (models.ExtractedMetricRecord, bool) {
	var fallback models.ExtractedMetricRecord
	var haveFallback bool
	for _, rec := range records {
		if rec.Metric != metric || rec.Value == nil {
			continue
		}
		if rec.Source == models.SourcePanel {
			return rec, true
		}
		if !haveFallback {
			fallback = rec
			haveFallback = true
		}
	}
	return fallback, haveFallback
}
