package service

import (
	"context"
	"errors"
	"testing"

	"facilityops/internal/model"
	"facilityops/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestApprove(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.submitted(t)

	_, err := f.approvals.Approve(ctx, f.requester.ID, id, "")
	assert.ErrorIs(t, err, ErrForbidden)

	req, err := f.approvals.Approve(ctx, f.manager.ID, id, "ok")
	require.NoError(t, err)
	assert.Equal(t, model.StatusManagerApproved, req.Status)
	require.NotNil(t, req.ApprovedBy)
	assert.Equal(t, f.manager.ID, *req.ApprovedBy)
	assert.NotNil(t, req.ApprovedAt)

	sent := f.notifier.sentTo(f.requester.ID)
	require.Len(t, sent, 1)
	assert.Equal(t, model.NotificationApproved, sent[0].Type)
	assert.Equal(t, "/requisitions/"+id.String(), sent[0].ActionLink)

	_, err = f.approvals.Approve(ctx, f.manager.ID, id, "again")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestApprove_DraftIsInvalidTransition(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	draft, err := f.engine.SaveDraft(ctx, f.actor(f.requester), f.form(), []ItemInput{line(f.mop, 1)}, nil)
	require.NoError(t, err)

	_, err = f.approvals.Approve(ctx, f.manager.ID, draft.ID, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestReject_RequiresReason(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.submitted(t)

	_, err := f.approvals.Reject(ctx, f.manager.ID, id, "   ")
	assert.ErrorIs(t, err, ErrValidation)

	req, err := f.engine.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPendingManagerApproval, req.Status)
	assert.Empty(t, f.notifier.sentTo(f.requester.ID))
}

func TestReject(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.submitted(t)

	req, err := f.approvals.Reject(ctx, f.manager.ID, id, "over budget")
	require.NoError(t, err)
	assert.Equal(t, model.StatusRejected, req.Status)
	assert.Equal(t, "over budget", req.RejectionReason)

	sent := f.notifier.sentTo(f.requester.ID)
	require.Len(t, sent, 1)
	assert.Equal(t, model.NotificationRejected, sent[0].Type)
	assert.Contains(t, sent[0].Message, "over budget")

	// rejected is terminal
	_, err = f.approvals.Approve(ctx, f.manager.ID, id, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestRequestClarification(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.submitted(t)

	_, err := f.approvals.RequestClarification(ctx, f.manager.ID, id, "")
	assert.ErrorIs(t, err, ErrValidation)

	req, err := f.approvals.RequestClarification(ctx, f.supervisor.ID, id, "which floor?")
	require.NoError(t, err)
	assert.Equal(t, model.StatusPendingManagerApproval, req.Status)

	sent := f.notifier.sentTo(f.requester.ID)
	require.Len(t, sent, 1)
	assert.Equal(t, model.NotificationClarification, sent[0].Type)
	assert.Contains(t, sent[0].Message, "which floor?")
}

func TestReroute_BeforeManagerApprovalIsForbiddenForEveryRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.submitted(t)

	for _, u := range []*model.User{f.requester, f.manager, f.supervisor, f.admin, f.executive} {
		_, err := f.approvals.Reroute(ctx, u.ID, id, RerouteRequest{AssigneeID: &f.executive.ID})
		assert.ErrorIs(t, err, ErrForbidden, string(u.Role))
	}

	// The gate runs before the body is inspected.
	_, err := f.approvals.Reroute(ctx, f.supervisor.ID, id, RerouteRequest{})
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.approvals.Reroute(ctx, f.admin.ID, id, RerouteRequest{Status: "archived"})
	assert.ErrorIs(t, err, ErrForbidden)

	req, err := f.engine.Get(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, req.AssignedTo)
}

func TestReroute_RequiresSupervisorRole(t *testing.T) {
	f := newFixture(t)
	id := f.approved(t)

	_, err := f.approvals.Reroute(context.Background(), f.manager.ID, id, RerouteRequest{Status: model.StatusInProgress})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestReroute_NoChangeIsValidationError(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.approved(t)

	_, err := f.approvals.Reroute(ctx, f.supervisor.ID, id, RerouteRequest{})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.approvals.Reroute(ctx, f.supervisor.ID, id, RerouteRequest{Status: model.StatusManagerApproved})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.approvals.Reroute(ctx, f.supervisor.ID, id, RerouteRequest{Status: "archived"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestReroute_AssigneeMustBePurchaseExecutive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.approved(t)

	_, err := f.approvals.Reroute(ctx, f.supervisor.ID, id, RerouteRequest{AssigneeID: &f.manager.ID})
	assert.ErrorIs(t, err, ErrValidation)

	ghost := uuid.New()
	_, err = f.approvals.Reroute(ctx, f.supervisor.ID, id, RerouteRequest{AssigneeID: &ghost})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReroute_ToRejectedIsInvalidTransition(t *testing.T) {
	f := newFixture(t)
	id := f.approved(t)

	_, err := f.approvals.Reroute(context.Background(), f.admin.ID, id, RerouteRequest{Status: model.StatusRejected})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestReroute_AssignAndComplete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.approved(t)

	req, err := f.approvals.Reroute(ctx, f.supervisor.ID, id, RerouteRequest{
		AssigneeID: &f.executive.ID,
		Status:     model.StatusInProgress,
		Remarks:    "vendor A",
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusInProgress, req.Status)
	require.NotNil(t, req.AssignedTo)
	assert.Equal(t, f.executive.ID, *req.AssignedTo)

	assigned := f.notifier.sentTo(f.executive.ID)
	require.Len(t, assigned, 1)
	assert.Equal(t, model.NotificationAssigned, assigned[0].Type)

	_, err = f.approvals.Complete(ctx, f.other.ID, id, "")
	assert.ErrorIs(t, err, ErrForbidden)

	req, err = f.approvals.Complete(ctx, f.executive.ID, id, "delivered")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, req.Status)

	_, err = f.approvals.Reroute(ctx, f.admin.ID, id, RerouteRequest{Status: model.StatusInProgress})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestAuthorizeView(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.submitted(t)
	req, err := f.engine.Get(ctx, id)
	require.NoError(t, err)

	assert.NoError(t, f.approvals.AuthorizeView(ctx, f.requester.ID, req))
	assert.NoError(t, f.approvals.AuthorizeView(ctx, f.manager.ID, req))
	assert.ErrorIs(t, f.approvals.AuthorizeView(ctx, f.other.ID, req), ErrForbidden)
	assert.ErrorIs(t, f.approvals.AuthorizeView(ctx, f.executive.ID, req), ErrForbidden)
}

type brokenNotificationRepo struct {
	repository.NotificationRepository
}

func (brokenNotificationRepo) Create(context.Context, *model.Notification) error {
	return errors.New("notifications table is gone")
}

type panickingPublisher struct{}

func (panickingPublisher) SendToUser(string, []byte) { panic("socket closed") }

func TestNotificationFailureDoesNotBlockTransition(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.submitted(t)

	users := repository.NewUserRepository(f.db)
	notifier := NewNotificationService(brokenNotificationRepo{}, nil, zap.NewNop())
	approvals := NewApprovalService(f.engine, NewIdentityResolver(users), notifier, zap.NewNop())

	req, err := approvals.Approve(ctx, f.manager.ID, id, "")
	require.NoError(t, err)
	assert.Equal(t, model.StatusManagerApproved, req.Status)

	// a publisher that panics is contained as well
	notifier = NewNotificationService(repository.NewNotificationRepository(f.db), panickingPublisher{}, zap.NewNop())
	approvals = NewApprovalService(f.engine, NewIdentityResolver(users), notifier, zap.NewNop())
	_, err = approvals.Reroute(ctx, f.supervisor.ID, id, RerouteRequest{AssigneeID: &f.executive.ID})
	require.NoError(t, err)
}

// The lifecycle from draft to a rerouted, in-progress requisition.
func TestRequisitionLifecycle_EndToEnd(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	items := []ItemInput{{ItemMasterID: f.mop.ID.String(), Quantity: 2, UnitLimit: 5}}
	draft, err := f.engine.SaveDraft(ctx, f.actor(f.requester), f.form(), items, nil)
	require.NoError(t, err)
	assert.Equal(t, model.StatusDraft, draft.Status)

	submitted, err := f.engine.SubmitForApproval(ctx, f.actor(f.requester), f.form(), items, &draft.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPendingManagerApproval, submitted.Status)

	req, err := f.engine.Get(ctx, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, req.TotalItems)

	req, err = f.approvals.Approve(ctx, f.manager.ID, draft.ID, "ok")
	require.NoError(t, err)
	assert.Equal(t, model.StatusManagerApproved, req.Status)

	req, err = f.approvals.Reroute(ctx, f.supervisor.ID, draft.ID, RerouteRequest{
		AssigneeID: &f.executive.ID,
		Status:     model.StatusInProgress,
	})
	require.NoError(t, err)

	final, err := f.engine.Get(ctx, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusInProgress, final.Status)
	require.NotNil(t, final.AssignedTo)
	assert.Equal(t, f.executive.ID, *final.AssignedTo)
	assert.Equal(t, req.ID, final.ID)

	var auditRows int64
	require.NoError(t, f.db.Model(&model.AuditLog{}).Where("entity_id = ?", draft.ID.String()).Count(&auditRows).Error)
	assert.Equal(t, int64(4), auditRows)
}
