package store

import (
	"context"
	"testing"
	"time"

	"github.com/hepascope/platform/pkg/common/models"
)

func TestSaveMetricsReplacesPanel(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	if err := st.SaveReport(ctx, models.ReportRecord{ID: "r1", UserID: "u1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	first := []models.ExtractedMetricRecord{
		{Name: "ALT", Metric: models.MetricALT, Source: models.SourcePanel},
		{Name: "AST", Metric: models.MetricAST, Source: models.SourcePanel},
	}
	if err := st.SaveMetrics(ctx, "r1", first); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second := []models.ExtractedMetricRecord{
		{Name: "ALT", Metric: models.MetricALT, Source: models.SourcePanel},
	}
	if err := st.SaveMetrics(ctx, "r1", second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	records, err := st.FindMetricsByReport(ctx, "r1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected replace semantics, got %d records", len(records))
	}
	if records[0].ReportID != "r1" || records[0].ID == "" {
		t.Fatalf("expected populated ids, got %+v", records[0])
	}
}

func TestDeleteReportCascades(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	if err := st.SaveReport(ctx, models.ReportRecord{ID: "r1", UserID: "u1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := st.SaveMetrics(ctx, "r1", []models.ExtractedMetricRecord{
		{Name: "ALT", Metric: models.MetricALT, Source: models.SourcePanel},
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := st.DeleteReport(ctx, "r1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reports, err := st.FindReportsByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(reports) != 0 {
		t.Fatalf("expected no reports after delete, got %d", len(reports))
	}
	records, err := st.FindMetricsByReport(ctx, "r1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected metrics deleted with report, got %d", len(records))
	}
}

func TestFindReportsByUserNewestFirst(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"r1", "r2", "r3"} {
		err := st.SaveReport(ctx, models.ReportRecord{
			ID: id, UserID: "u1",
			CreatedAt: base.AddDate(0, 0, i),
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if err := st.SaveReport(ctx, models.ReportRecord{ID: "other", UserID: "u2", CreatedAt: base}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reports, err := st.FindReportsByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(reports) != 3 {
		t.Fatalf("expected 3 reports for the user, got %d", len(reports))
	}
	if reports[0].ID != "r3" || reports[2].ID != "r1" {
		t.Fatalf("expected newest-first order, got %s..%s", reports[0].ID, reports[2].ID)
	}
}
