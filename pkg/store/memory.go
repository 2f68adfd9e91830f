package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hepascope/platform/pkg/common/models"
)

// MemoryStore is an in-memory ReportStore for tests and local runs. It keeps
// the same atomic-replace semantics as the postgres implementation.
type MemoryStore struct {
	mu      sync.RWMutex
	reports map[string]models.ReportRecord
	metrics map[string][]models.ExtractedMetricRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		reports: make(map[string]models.ReportRecord),
		metrics: make(map[string][]models.ExtractedMetricRecord),
	}
}

func (s *MemoryStore) SaveReport(_ context.Context, report models.ReportRecord) error {
	if report.ID == "" {
		report.ID = uuid.New().String()
	}
	if report.CreatedAt.IsZero() {
		report.CreatedAt = time.Now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[report.ID] = report
	return nil
}

func (s *MemoryStore) FindReportsByUser(_ context.Context, userID string) ([]models.ReportRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.ReportRecord
	for _, r := range s.reports {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) FindMetricsByReport(_ context.Context, reportID string) ([]models.ExtractedMetricRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := s.metrics[reportID]
	out := make([]models.ExtractedMetricRecord, len(records))
	copy(out, records)
	return out, nil
}

func (s *MemoryStore) SaveMetrics(_ context.Context, reportID string, records []models.ExtractedMetricRecord) error {
	stored := make([]models.ExtractedMetricRecord, 0, len(records))
	for _, rec := range records {
		rec.ReportID = reportID
		if rec.ID == "" {
			rec.ID = uuid.New().String()
		}
		stored = append(stored, rec)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics[reportID] = stored
	return nil
}

func (s *MemoryStore) DeleteReport(_ context.Context, reportID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.reports, reportID)
	delete(s.metrics, reportID)
	return nil
}
