package service

import (
	"context"
	"fmt"
	"strings"

	"facilityops/internal/model"
	"facilityops/internal/workflow"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// --- DTOs ---

// RerouteRequest changes the assignee, the status, or both.
type RerouteRequest struct {
	AssigneeID *uuid.UUID
	Status     model.RequisitionStatus
	Remarks    string
}

// --- Interface ---

// ApprovalService authorizes and performs every post-submission action on a requisition.
type ApprovalService interface {
	Approve(ctx context.Context, actorID, id uuid.UUID, remarks string) (*model.RequisitionList, error)
	Reject(ctx context.Context, actorID, id uuid.UUID, reason string) (*model.RequisitionList, error)
	RequestClarification(ctx context.Context, actorID, id uuid.UUID, message string) (*model.RequisitionList, error)
	Reroute(ctx context.Context, actorID, id uuid.UUID, req RerouteRequest) (*model.RequisitionList, error)
	Complete(ctx context.Context, actorID, id uuid.UUID, remarks string) (*model.RequisitionList, error)
	AuthorizeView(ctx context.Context, actorID uuid.UUID, req *model.RequisitionList) error
}

type approvalService struct {
	engine   RequisitionService
	identity IdentityResolver
	notifier Notifier
	logger   *zap.Logger
}

func NewApprovalService(engine RequisitionService, identity IdentityResolver, notifier Notifier, logger *zap.Logger) ApprovalService {
	return &approvalService{engine: engine, identity: identity, notifier: notifier, logger: logger}
}

// --- Implementation ---

func (s *approvalService) Approve(ctx context.Context, actorID, id uuid.UUID, remarks string) (*model.RequisitionList, error) {
	if _, err := s.authorize(ctx, workflow.ActionApprove, actorID, id); err != nil {
		return nil, err
	}

	updated, err := s.engine.ApplyTransition(ctx, id, Transition{
		Action:  workflow.ActionApprove,
		ActorID: actorID,
		To:      model.StatusManagerApproved,
		Remarks: remarks,
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, updated.CreatedBy, model.NotificationApproved, updated,
		fmt.Sprintf("Requisition %s has been approved", updated.OrderNumber))
	return updated, nil
}

func (s *approvalService) Reject(ctx context.Context, actorID, id uuid.UUID, reason string) (*model.RequisitionList, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, newValidationError("a rejection reason is required")
	}
	if _, err := s.authorize(ctx, workflow.ActionReject, actorID, id); err != nil {
		return nil, err
	}

	updated, err := s.engine.ApplyTransition(ctx, id, Transition{
		Action:  workflow.ActionReject,
		ActorID: actorID,
		To:      model.StatusRejected,
		Reason:  reason,
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, updated.CreatedBy, model.NotificationRejected, updated,
		fmt.Sprintf("Requisition %s was rejected: %s", updated.OrderNumber, reason))
	return updated, nil
}

func (s *approvalService) RequestClarification(ctx context.Context, actorID, id uuid.UUID, message string) (*model.RequisitionList, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, newValidationError("a clarification message is required")
	}
	if _, err := s.authorize(ctx, workflow.ActionClarify, actorID, id); err != nil {
		return nil, err
	}

	updated, err := s.engine.ApplyTransition(ctx, id, Transition{
		Action:  workflow.ActionClarify,
		ActorID: actorID,
		Remarks: message,
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, updated.CreatedBy, model.NotificationClarification, updated,
		fmt.Sprintf("Clarification requested on requisition %s: %s", updated.OrderNumber, message))
	return updated, nil
}

func (s *approvalService) Reroute(ctx context.Context, actorID, id uuid.UUID, req RerouteRequest) (*model.RequisitionList, error) {
	current, err := s.authorize(ctx, workflow.ActionReroute, actorID, id)
	if err != nil {
		return nil, err
	}

	if req.AssigneeID == nil && req.Status == "" {
		return nil, newValidationError("a reroute needs a new assignee or a new status")
	}
	if req.Status != "" && !req.Status.IsValid() {
		return nil, newValidationError(fmt.Sprintf("unknown status %q", req.Status))
	}

	assigneeChanged := req.AssigneeID != nil && (current.AssignedTo == nil || *current.AssignedTo != *req.AssigneeID)
	statusChanged := req.Status != "" && req.Status != current.Status
	if !assigneeChanged && !statusChanged {
		return nil, newValidationError("reroute does not change the assignee or the status")
	}

	t := Transition{
		Action:  workflow.ActionReroute,
		ActorID: actorID,
		To:      current.Status,
		Remarks: req.Remarks,
	}
	if statusChanged {
		t.To = req.Status
	}
	if assigneeChanged {
		role, err := s.identity.RoleOf(ctx, *req.AssigneeID)
		if err != nil {
			return nil, err
		}
		if role != model.RolePurchaseExecutive {
			return nil, newValidationError("requisitions can only be assigned to a purchase executive")
		}
		t.AssignTo = req.AssigneeID
	}

	updated, err := s.engine.ApplyTransition(ctx, id, t)
	if err != nil {
		return nil, err
	}

	if assigneeChanged {
		s.notify(ctx, *req.AssigneeID, model.NotificationAssigned, updated,
			fmt.Sprintf("Requisition %s has been assigned to you", updated.OrderNumber))
	}
	if statusChanged {
		s.notify(ctx, updated.CreatedBy, model.NotificationRerouted, updated,
			fmt.Sprintf("Requisition %s was moved to %s", updated.OrderNumber, updated.Status))
	}
	return updated, nil
}

func (s *approvalService) Complete(ctx context.Context, actorID, id uuid.UUID, remarks string) (*model.RequisitionList, error) {
	if _, err := s.authorize(ctx, workflow.ActionComplete, actorID, id); err != nil {
		return nil, err
	}

	updated, err := s.engine.ApplyTransition(ctx, id, Transition{
		Action:  workflow.ActionComplete,
		ActorID: actorID,
		To:      model.StatusCompleted,
		Remarks: remarks,
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, updated.CreatedBy, model.NotificationCompleted, updated,
		fmt.Sprintf("Requisition %s has been completed", updated.OrderNumber))
	return updated, nil
}

func (s *approvalService) AuthorizeView(ctx context.Context, actorID uuid.UUID, req *model.RequisitionList) error {
	role, err := s.identity.RoleOf(ctx, actorID)
	if err != nil {
		return err
	}
	return Authorize(workflow.ActionView, Subject{UserID: actorID, Role: role}, req)
}

// authorize loads the caller's role and the requisition and applies the policy.
func (s *approvalService) authorize(ctx context.Context, action workflow.Action, actorID, id uuid.UUID) (*model.RequisitionList, error) {
	role, err := s.identity.RoleOf(ctx, actorID)
	if err != nil {
		return nil, err
	}
	current, err := s.engine.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := Authorize(action, Subject{UserID: actorID, Role: role}, current); err != nil {
		s.logger.Warn("requisition action refused",
			zap.String("action", string(action)),
			zap.String("actor_id", actorID.String()),
			zap.String("requisition_id", id.String()),
			zap.Error(err))
		return nil, err
	}
	return current, nil
}

func (s *approvalService) notify(ctx context.Context, userID uuid.UUID, kind string, req *model.RequisitionList, message string) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(ctx, NotificationMessage{
		UserID:     userID,
		Type:       kind,
		Message:    message,
		ActionLink: fmt.Sprintf("/requisitions/%s", req.ID),
	})
}
