// Package workflow holds the requisition lifecycle: which action may move a
// requisition from one status to another.
package workflow

// Action is a user-initiated operation on a requisition
type Action string

const (
	ActionEdit     Action = "edit"
	ActionView     Action = "view"
	ActionSubmit   Action = "submit"
	ActionApprove  Action = "approve"
	ActionReject   Action = "reject"
	ActionClarify  Action = "clarify"
	ActionReroute  Action = "reroute"
	ActionComplete Action = "complete"
)
