package repository

import (
	"context"
	"fmt"
	"time"

	"facilityops/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StatisticsFilter bounds the rows counted. Zero values mean "any".
type StatisticsFilter struct {
	PropertyID *uuid.UUID
	Since      time.Time
}

type StatisticsRepository interface {
	CountByStatus(ctx context.Context, filter StatisticsFilter) ([]model.StatusCount, error)
}

type statisticsRepository struct {
	db *gorm.DB
}

func NewStatisticsRepository(db *gorm.DB) StatisticsRepository {
	return &statisticsRepository{db: db}
}

func (r *statisticsRepository) CountByStatus(ctx context.Context, filter StatisticsFilter) ([]model.StatusCount, error) {
	var counts []model.StatusCount
	query := GetDB(ctx, r.db).Model(&model.RequisitionList{}).
		Select("status, COUNT(*) AS count")
	if filter.PropertyID != nil {
		query = query.Where("property_id = ?", *filter.PropertyID)
	}
	if !filter.Since.IsZero() {
		query = query.Where("created_at >= ?", filter.Since)
	}
	if err := query.Group("status").Scan(&counts).Error; err != nil {
		return nil, fmt.Errorf("failed to count requisitions by status: %w", err)
	}
	return counts, nil
}
