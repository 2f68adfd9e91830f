package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hepascope/platform/pkg/common/models"
	"gorm.io/gorm"
)

// PostgresStore is the gorm-backed ReportStore used by the services.
type PostgresStore struct {
	db *gorm.DB
}

func NewPostgresStore(db *gorm.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) AutoMigrate() error {
	return s.db.AutoMigrate(&ReportModel{}, &MetricModel{})
}

func (s *PostgresStore) SaveReport(ctx context.Context, report models.ReportRecord) error {
	if report.ID == "" {
		report.ID = uuid.New().String()
	}
	if report.CreatedAt.IsZero() {
		report.CreatedAt = time.Now().UTC()
	}
	model := toReportModel(report)
	return s.db.WithContext(ctx).Save(&model).Error
}

func (s *PostgresStore) FindReportsByUser(ctx context.Context, userID string) ([]models.ReportRecord, error) {
	var rows []ReportModel
	result := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&rows)
	if result.Error != nil {
		return nil, result.Error
	}
	reports := make([]models.ReportRecord, 0, len(rows))
	for _, row := range rows {
		reports = append(reports, toReportRecord(row))
	}
	return reports, nil
}

func (s *PostgresStore) FindMetricsByReport(ctx context.Context, reportID string) ([]models.ExtractedMetricRecord, error) {
	var rows []MetricModel
	result := s.db.WithContext(ctx).
		Where("report_id = ?", reportID).
		Order("name").
		Find(&rows)
	if result.Error != nil {
		return nil, result.Error
	}
	records := make([]models.ExtractedMetricRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, toMetricRecord(row))
	}
	return records, nil
}

// SaveMetrics replaces a report's metric panel in one transaction. Either
// every record lands or none do; a prior panel for the same report is
// superseded wholesale so re-normalization cannot leave stale rows behind.
func (s *PostgresStore) SaveMetrics(ctx context.Context, reportID string, records []models.ExtractedMetricRecord) error {
	now := time.Now().UTC()
	rows := make([]MetricModel, 0, len(records))
	for _, rec := range records {
		rec.ReportID = reportID
		if rec.ID == "" {
			rec.ID = uuid.New().String()
		}
		row := toMetricModel(rec)
		row.CreatedAt = now
		rows = append(rows, row)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("report_id = ?", reportID).Delete(&MetricModel{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
	if err != nil {
		return fmt.Errorf("persisting metrics for report %s: %w", reportID, err)
	}
	return nil
}

func (s *PostgresStore) DeleteReport(ctx context.Context, reportID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("report_id = ?", reportID).Delete(&MetricModel{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", reportID).Delete(&ReportModel{}).Error
	})
}
