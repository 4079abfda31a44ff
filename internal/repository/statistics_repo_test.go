package repository_test

import (
	"context"
	"testing"

	"facilityops/internal/model"
	"facilityops/internal/repository"
	"facilityops/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatisticsRepository_CountByStatus(t *testing.T) {
	db := testutil.NewDB(t)
	requisitions := repository.NewRequisitionRepository(db)
	stats := repository.NewStatisticsRepository(db)
	ctx := context.Background()

	property := uuid.New()
	statuses := []model.RequisitionStatus{model.StatusDraft, model.StatusDraft, model.StatusCompleted}
	for _, status := range statuses {
		req := newRequisition(property, uuid.New(), "REQ-1", uuid.NewString())
		req.Status = status
		require.NoError(t, requisitions.Create(ctx, req))
	}
	require.NoError(t, requisitions.Create(ctx, newRequisition(uuid.New(), uuid.New(), "REQ-2", uuid.NewString())))

	counts, err := stats.CountByStatus(ctx, repository.StatisticsFilter{PropertyID: &property})
	require.NoError(t, err)

	byStatus := map[model.RequisitionStatus]int64{}
	for _, c := range counts {
		byStatus[c.Status] = c.Count
	}
	assert.Equal(t, int64(2), byStatus[model.StatusDraft])
	assert.Equal(t, int64(1), byStatus[model.StatusCompleted])
}

func TestNotificationRepository_ListAndMarkRead(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewNotificationRepository(db)
	ctx := context.Background()

	owner := uuid.New()
	first := &model.Notification{UserID: owner, Message: "approved", Type: model.NotificationApproved}
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, &model.Notification{UserID: owner, Message: "rejected", Type: model.NotificationRejected}))
	require.NoError(t, repo.Create(ctx, &model.Notification{UserID: uuid.New(), Message: "other", Type: model.NotificationApproved}))

	list, total, err := repo.ListByUser(ctx, owner, false, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, list, 2)

	require.NoError(t, repo.MarkRead(ctx, first.ID, owner))
	assert.ErrorIs(t, repo.MarkRead(ctx, first.ID, uuid.New()), repository.ErrNotFound)

	_, unread, err := repo.ListByUser(ctx, owner, true, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), unread)
}
