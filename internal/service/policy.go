package service

import (
	"facilityops/internal/model"
	"facilityops/internal/workflow"

	"github.com/google/uuid"
)

// Subject is the caller an authorization decision is made for.
type Subject struct {
	UserID uuid.UUID
	Role   model.Role
}

func (s Subject) hasRole(roles ...model.Role) bool {
	for _, r := range roles {
		if s.Role == r {
			return true
		}
	}
	return false
}

// Authorize decides whether subject may perform action on req. It checks
// roles and ownership only; the transition table is enforced by the engine.
func Authorize(action workflow.Action, subject Subject, req *model.RequisitionList) error {
	switch action {
	case workflow.ActionView:
		switch subject.Role {
		case model.RoleRequester:
			if req.CreatedBy != subject.UserID {
				return forbidden("requesters can only view their own requisitions")
			}
		case model.RolePurchaseExecutive:
			if req.CreatedBy != subject.UserID && !isAssignee(subject.UserID, req) {
				return forbidden("requisition %s is not assigned to you", req.OrderNumber)
			}
		}
		return nil

	case workflow.ActionEdit, workflow.ActionSubmit:
		if req.CreatedBy != subject.UserID {
			return forbidden("only the creator can edit requisition %s", req.OrderNumber)
		}
		if req.Status != model.StatusDraft {
			return forbidden("requisition %s is %s and can no longer be edited", req.OrderNumber, req.Status)
		}
		return nil

	case workflow.ActionApprove, workflow.ActionReject, workflow.ActionClarify:
		if !subject.hasRole(model.RoleManager, model.RoleOpsSupervisor, model.RoleAdmin) {
			return forbidden("role %q cannot %s requisitions", subject.Role, action)
		}
		return nil

	case workflow.ActionReroute:
		if !workflow.AtOrPast(req.Status, model.StatusManagerApproved) {
			return forbidden("requisition %s cannot be rerouted before manager approval", req.OrderNumber)
		}
		if !subject.hasRole(model.RoleOpsSupervisor, model.RoleAdmin) {
			return forbidden("role %q cannot reroute requisitions", subject.Role)
		}
		return nil

	case workflow.ActionComplete:
		if subject.hasRole(model.RoleOpsSupervisor, model.RoleAdmin) {
			return nil
		}
		if subject.Role == model.RolePurchaseExecutive && isAssignee(subject.UserID, req) {
			return nil
		}
		return forbidden("only the assigned purchase executive or a supervisor can complete requisition %s", req.OrderNumber)
	}

	return forbidden("unknown action %q", action)
}

func isAssignee(userID uuid.UUID, req *model.RequisitionList) bool {
	return req.AssignedTo != nil && *req.AssignedTo == userID
}
