package correlation

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/hepascope/platform/pkg/common/logger"
	"github.com/hepascope/platform/pkg/common/models"
	"github.com/hepascope/platform/pkg/imaging"
	"github.com/hepascope/platform/pkg/observability/metrics"
	"github.com/hepascope/platform/pkg/reference"
	"github.com/hepascope/platform/pkg/store"
)

// The fixed lab panel joined to every imaging event. ALT/AST proxy liver
// enzyme activity, Albumin/Platelets synthetic function, Bilirubin excretory
// function.
var correlationMetrics = []models.CanonicalMetric{
	models.MetricALT,
	models.MetricAST,
	models.MetricBilirubin,
	models.MetricAlbumin,
	models.MetricPlatelets,
}

const defaultWindowDays = 30

// SeriesResolver is the read dependency for per-metric series.
type SeriesResolver interface {
	GetSeries(ctx context.Context, userID string, metric models.CanonicalMetric) ([]models.SeriesPoint, error)
}

// Engine joins imaging organ measurements to temporally nearby lab values
// and derives qualitative trend labels. Every pass recomputes from the
// store; the optional cache only short-circuits identical requests between
// ingests.
type Engine struct {
	store      store.ReportStore
	series     SeriesResolver
	windowDays int
	cache      *Cache
	now        func() time.Time
}

type Option func(*Engine)

func WithWindowDays(days int) Option {
	return func(e *Engine) {
		if days > 0 {
			e.windowDays = days
		}
	}
}

func WithCache(cache *Cache) Option {
	return func(e *Engine) { e.cache = cache }
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func NewEngine(st store.ReportStore, resolver SeriesResolver, opts ...Option) *Engine {
	e := &Engine{
		store:      st,
		series:     resolver,
		windowDays: defaultWindowDays,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Correlate runs one imaging-lab correlation pass for a user, filtered to
// the requested timeframe (3m, 6m, 1y; anything else is unbounded) and
// ordered descending by imaging date.
func (e *Engine) Correlate(ctx context.Context, userID, timeframe string) ([]models.CorrelationRecord, error) {
	timeframe = canonicalTimeframe(timeframe)

	if e.cache != nil {
		if cached, ok := e.cache.Get(ctx, userID, timeframe); ok {
			metrics.IncCorrelationCacheHits()
			return cached, nil
		}
	}

	reports, err := e.store.FindReportsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading reports for user %s: %w", userID, err)
	}

	type candidate struct {
		report models.ReportRecord
		study  *imaging.Study
	}
	var candidates []candidate
	for _, report := range reports {
		study, ok := imaging.Parse(report.RawExtraction)
		if !ok {
			if imaging.MatchesModality(report.ReportType) {
				// Type says imaging but the payload yields nothing usable.
				logger.Log.WithField("report_id", report.ID).Debug("imaging report without usable imaging payload")
			}
			continue
		}
		candidates = append(candidates, candidate{report: report, study: study})
	}

	if len(candidates) == 0 {
		e.cacheSet(ctx, userID, timeframe, []models.CorrelationRecord{})
		return []models.CorrelationRecord{}, nil
	}

	seriesByMetric := e.fetchSeries(ctx, userID)

	var records []models.CorrelationRecord
	for _, cand := range candidates {
		organ, ok := cand.study.FindOrgan("liver")
		if !ok {
			continue
		}

		imagingDate := cand.report.CreatedAt
		if cand.report.ReportDate != nil {
			imagingDate = *cand.report.ReportDate
		}

		var labValues []models.LabValue
		for _, metric := range correlationMetrics {
			point, ok := nearestWithin(seriesByMetric[metric], imagingDate, e.windowDays)
			if !ok {
				continue
			}
			status, _ := reference.Classify(metric, point.Value)
			unit := ""
			if r, ok := reference.RangeFor(metric); ok {
				unit = r.Unit
			}
			labValues = append(labValues, models.LabValue{
				Metric: metric,
				Value:  point.Value,
				Unit:   unit,
				Status: status,
			})
		}

		// An imaging event with no lab evidence in the window produces
		// nothing, rather than an empty record.
		if len(labValues) == 0 {
			continue
		}

		records = append(records, models.CorrelationRecord{
			ImagingDate: imagingDate,
			Modality:    cand.study.Modality,
			OrganSize:   organ.Size.Value,
			OrganUnit:   organ.Size.Unit,
			LabValues:   labValues,
			Correlation: deriveSummary(labValues),
		})
	}

	records = e.filterTimeframe(records, timeframe)
	sort.Slice(records, func(i, j int) bool {
		return records[i].ImagingDate.After(records[j].ImagingDate)
	})
	if records == nil {
		records = []models.CorrelationRecord{}
	}

	metrics.IncCorrelationPasses()
	e.cacheSet(ctx, userID, timeframe, records)
	return records, nil
}

// fetchSeries resolves the five panel series concurrently. The lookups are
// independent side-effect-free reads; a failed fetch degrades to an empty
// series with a logged warning instead of aborting the pass.
func (e *Engine) fetchSeries(ctx context.Context, userID string) map[models.CanonicalMetric][]models.SeriesPoint {
	out := make(map[models.CanonicalMetric][]models.SeriesPoint, len(correlationMetrics))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, metric := range correlationMetrics {
		wg.Add(1)
		go func(metric models.CanonicalMetric) {
			defer wg.Done()
			points, err := e.series.GetSeries(ctx, userID, metric)
			if err != nil {
				logger.Log.WithError(err).WithFields(map[string]interface{}{
					"user_id": userID,
					"metric":  metric,
				}).Warn("series fetch failed, degrading to empty series")
				metrics.IncSeriesLookupFailures()
				points = nil
			}
			mu.Lock()
			out[metric] = points
			mu.Unlock()
		}(metric)
	}

	wg.Wait()
	return out
}

// nearestWithin picks the series point with the smallest absolute
// day-difference from the imaging date, included only when that difference
// is at most windowDays. Ties go to the earlier point.
func nearestWithin(points []models.SeriesPoint, imagingDate time.Time, windowDays int) (models.SeriesPoint, bool) {
	var best models.SeriesPoint
	bestDiff := math.Inf(1)
	for _, point := range points {
		diff := math.Abs(point.Date.Sub(imagingDate).Hours() / 24)
		if diff > float64(windowDays) {
			continue
		}
		if diff < bestDiff {
			bestDiff = diff
			best = point
		}
	}
	return best, !math.IsInf(bestDiff, 1)
}

func deriveSummary(labValues []models.LabValue) models.CorrelationSummary {
	summary := models.CorrelationSummary{
		LiverEnzymes:      models.EnzymesNormal,
		SyntheticFunction: models.SyntheticNormal,
		OverallTrend:      models.TrendStable,
	}
	for _, lab := range labValues {
		// Borderline never counts; only materially out-of-range values
		// move a label.
		if lab.Status != reference.StatusAbnormal {
			continue
		}
		switch lab.Metric {
		case models.MetricALT, models.MetricAST:
			summary.LiverEnzymes = models.EnzymesElevated
		case models.MetricAlbumin, models.MetricPlatelets:
			summary.SyntheticFunction = models.SyntheticImpaired
		}
	}
	if summary.LiverEnzymes == models.EnzymesElevated || summary.SyntheticFunction == models.SyntheticImpaired {
		summary.OverallTrend = models.TrendConcerning
	}
	return summary
}

func canonicalTimeframe(timeframe string) string {
	switch timeframe {
	case "3m", "6m", "1y":
		return timeframe
	default:
		return "all"
	}
}

func (e *Engine) filterTimeframe(records []models.CorrelationRecord, timeframe string) []models.CorrelationRecord {
	var cutoff time.Time
	now := e.now().UTC()
	switch timeframe {
	case "3m":
		cutoff = now.AddDate(0, -3, 0)
	case "6m":
		cutoff = now.AddDate(0, -6, 0)
	case "1y":
		cutoff = now.AddDate(-1, 0, 0)
	default:
		return records
	}

	var out []models.CorrelationRecord
	for _, rec := range records {
		if !rec.ImagingDate.Before(cutoff) {
			out = append(out, rec)
		}
	}
	return out
}

func (e *Engine) cacheSet(ctx context.Context, userID, timeframe string, records []models.CorrelationRecord) {
	if e.cache != nil {
		e.cache.Set(ctx, userID, timeframe, records)
	}
}
