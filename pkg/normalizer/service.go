package normalizer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hepascope/platform/pkg/common/kafka"
	"github.com/hepascope/platform/pkg/common/logger"
	"github.com/hepascope/platform/pkg/common/models"
	"github.com/hepascope/platform/pkg/observability/metrics"
	"github.com/hepascope/platform/pkg/store"
)

// CacheInvalidator drops derived read-side caches for a user after new data
// lands. A nil invalidator is valid; caching is an optimization layer.
type CacheInvalidator interface {
	InvalidateUser(ctx context.Context, userID string) error
}

type Service struct {
	transformer *Transformer
	store       store.ReportStore
	producer    *kafka.Producer
	dlq         *kafka.Producer
	cache       CacheInvalidator
}

func NewService(transformer *Transformer, st store.ReportStore, producer, dlq *kafka.Producer, cache CacheInvalidator) *Service {
	return &Service{
		transformer: transformer,
		store:       st,
		producer:    producer,
		dlq:         dlq,
		cache:       cache,
	}
}

// Process ingests one report's extraction: persist the report, persist its
// canonical metric panel atomically, then fan the result out to the event
// bus. The metric write is all-or-nothing; its failure is the one error that
// surfaces to the caller as ingestion-failed.
func (s *Service) Process(ctx context.Context, req models.NormalizeRequest) (*models.NormalizeResult, error) {
	if req.UserID == "" {
		return nil, fmt.Errorf("user id missing")
	}

	ext := ParseExtraction(req.Extraction)

	reportID := req.ReportID
	if reportID == "" {
		reportID = uuid.New().String()
	}
	createdAt := time.Now().UTC()
	if req.UploadedAt != nil {
		createdAt = req.UploadedAt.UTC()
	}

	report := models.ReportRecord{
		ID:            reportID,
		UserID:        req.UserID,
		ReportType:    ext.ReportType,
		ReportDate:    ParseReportDate(ext.ReportDate),
		CreatedAt:     createdAt,
		RawExtraction: req.Extraction,
	}
	if err := s.store.SaveReport(ctx, report); err != nil {
		metrics.IncNormalizationFailed()
		return nil, fmt.Errorf("saving report %s: %w", reportID, err)
	}

	records := s.transformer.Transform(reportID, ext)
	if err := s.store.SaveMetrics(ctx, reportID, records); err != nil {
		metrics.IncNormalizationFailed()
		return nil, fmt.Errorf("ingestion failed for report %s: %w", reportID, err)
	}

	metrics.IncReportsNormalized()
	metrics.AddMetricRecordsWritten(len(records))

	if s.cache != nil {
		if err := s.cache.InvalidateUser(ctx, req.UserID); err != nil {
			logger.Log.WithError(err).WithField("user_id", req.UserID).Warn("failed to invalidate correlation cache")
		}
	}

	result := &models.NormalizeResult{
		ReportID:     reportID,
		UserID:       req.UserID,
		MetricsSaved: len(records),
		Timestamp:    time.Now().UTC(),
	}

	if s.producer != nil {
		payload := map[string]interface{}{
			"report_id":     reportID,
			"user_id":       req.UserID,
			"metrics_saved": len(records),
		}
		if err := s.producer.PublishEvent(ctx, "normalized", "normalizer-service", payload); err != nil {
			logger.Log.WithError(err).Error("failed to publish normalized event")
			if s.dlq != nil {
				_ = s.dlq.PublishEvent(ctx, "normalized", "normalizer-service", payload)
			}
		}
	}

	return result, nil
}

// HandleEvent adapts an extracted-reports bus event into a Process call.
func (s *Service) HandleEvent(ctx context.Context, event models.Event) error {
	req, err := requestFromEvent(event)
	if err != nil {
		// Malformed events are logged and committed, not retried forever.
		logger.Log.WithError(err).WithField("event_id", event.ID).Warn("discarding malformed extraction event")
		return nil
	}

	_, err = s.Process(ctx, req)
	return err
}

func requestFromEvent(event models.Event) (models.NormalizeRequest, error) {
	if event.Data == nil {
		return models.NormalizeRequest{}, fmt.Errorf("event data missing")
	}

	userID, _ := event.Data["user_id"].(string)
	if userID == "" {
		return models.NormalizeRequest{}, fmt.Errorf("user_id missing from event")
	}
	reportID, _ := event.Data["report_id"].(string)

	var extraction json.RawMessage
	switch v := event.Data["extraction"].(type) {
	case string:
		extraction = json.RawMessage(v)
	case map[string]interface{}:
		encoded, err := json.Marshal(v)
		if err != nil {
			return models.NormalizeRequest{}, fmt.Errorf("re-encoding extraction: %w", err)
		}
		extraction = encoded
	case nil:
		return models.NormalizeRequest{}, fmt.Errorf("extraction missing from event")
	default:
		return models.NormalizeRequest{}, fmt.Errorf("extraction has unexpected type %T", v)
	}

	return models.NormalizeRequest{
		ReportID:   reportID,
		UserID:     userID,
		Extraction: extraction,
	}, nil
}
