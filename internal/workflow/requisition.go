package workflow

import "facilityops/internal/model"

// RerouteTargets are the statuses a supervisor may force a requisition into.
var RerouteTargets = []model.RequisitionStatus{
	model.StatusPendingManagerApproval,
	model.StatusManagerApproved,
	model.StatusInProgress,
	model.StatusCompleted,
}

var requisitionMachine = buildRequisitionMachine()

func buildRequisitionMachine() *Machine {
	b := NewBuilder()

	b.Configure(model.StatusDraft).
		Permit(ActionSubmit, model.StatusPendingManagerApproval)

	b.Configure(model.StatusPendingManagerApproval).
		Permit(ActionApprove, model.StatusManagerApproved).
		Permit(ActionReject, model.StatusRejected).
		Permit(ActionClarify, model.StatusPendingManagerApproval)

	b.Configure(model.StatusManagerApproved).
		Permit(ActionReroute, RerouteTargets...)

	b.Configure(model.StatusInProgress).
		Permit(ActionReroute, RerouteTargets...).
		Permit(ActionComplete, model.StatusCompleted)

	b.Terminal(model.StatusCompleted, model.StatusRejected)

	return b.Build()
}

// Requisition returns the requisition lifecycle machine.
func Requisition() *Machine {
	return requisitionMachine
}

// CanTransition reports whether action may move a requisition from -> to.
func CanTransition(from model.RequisitionStatus, action Action, to model.RequisitionStatus) bool {
	return requisitionMachine.CanTransition(from, action, to)
}

// IsTerminal reports whether a requisition in status is closed.
func IsTerminal(status model.RequisitionStatus) bool {
	return requisitionMachine.IsTerminal(status)
}

// rank orders the main approval path. Rejected sits off the path.
var rank = map[model.RequisitionStatus]int{
	model.StatusDraft:                  0,
	model.StatusPendingManagerApproval: 1,
	model.StatusManagerApproved:        2,
	model.StatusInProgress:             3,
	model.StatusCompleted:              4,
	model.StatusRejected:               -1,
}

// AtOrPast reports whether status has reached milestone on the approval path.
func AtOrPast(status, milestone model.RequisitionStatus) bool {
	r, ok := rank[status]
	if !ok || r < 0 {
		return false
	}
	return r >= rank[milestone]
}
