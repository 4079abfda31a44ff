package service

import (
	"context"
	"time"

	"facilityops/internal/model"
	"facilityops/internal/repository"

	"github.com/google/uuid"
)

type StatisticsService interface {
	RequisitionStatistics(ctx context.Context, propertyID *uuid.UUID, since time.Time) (model.RequisitionStatistics, error)
}

type statisticsService struct {
	repo repository.StatisticsRepository
}

func NewStatisticsService(repo repository.StatisticsRepository) StatisticsService {
	return &statisticsService{repo: repo}
}

// RequisitionStatistics counts requisitions per status, optionally for one
// property and only those created at or after since. A zero since counts everything.
func (s *statisticsService) RequisitionStatistics(ctx context.Context, propertyID *uuid.UUID, since time.Time) (model.RequisitionStatistics, error) {
	counts, err := s.repo.CountByStatus(ctx, repository.StatisticsFilter{PropertyID: propertyID, Since: since})
	if err != nil {
		return model.RequisitionStatistics{}, err
	}

	stats := model.RequisitionStatistics{
		PropertyID: propertyID,
		ByStatus:   make(map[model.RequisitionStatus]int64, len(model.AllStatuses)),
	}
	for _, status := range model.AllStatuses {
		stats.ByStatus[status] = 0
	}
	for _, c := range counts {
		stats.ByStatus[c.Status] = c.Count
		stats.Total += c.Count
		switch c.Status {
		case model.StatusPendingManagerApproval, model.StatusManagerApproved, model.StatusInProgress:
			stats.Open += c.Count
		}
	}
	stats.AwaitingManager = stats.ByStatus[model.StatusPendingManagerApproval]
	return stats, nil
}
