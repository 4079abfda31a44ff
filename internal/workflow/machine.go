package workflow

import (
	"fmt"

	"facilityops/internal/model"
)

// Machine is an immutable transition table keyed by status and action.
type Machine struct {
	transitions map[model.RequisitionStatus]map[Action][]model.RequisitionStatus
	terminal    map[model.RequisitionStatus]bool
}

// Builder accumulates permitted transitions before freezing them into a Machine.
type Builder struct {
	transitions map[model.RequisitionStatus]map[Action][]model.RequisitionStatus
	terminal    map[model.RequisitionStatus]bool
}

// StateConfiguration configures transitions out of one status
type StateConfiguration struct {
	builder *Builder
	from    model.RequisitionStatus
}

func NewBuilder() *Builder {
	return &Builder{
		transitions: make(map[model.RequisitionStatus]map[Action][]model.RequisitionStatus),
		terminal:    make(map[model.RequisitionStatus]bool),
	}
}

// Configure returns the configuration for transitions leaving status.
func (b *Builder) Configure(status model.RequisitionStatus) StateConfiguration {
	if !status.IsValid() {
		panic(fmt.Sprintf("invalid status: %s", status))
	}
	if _, ok := b.transitions[status]; !ok {
		b.transitions[status] = make(map[Action][]model.RequisitionStatus)
	}
	return StateConfiguration{builder: b, from: status}
}

// Terminal marks statuses that accept no further action.
func (b *Builder) Terminal(statuses ...model.RequisitionStatus) *Builder {
	for _, s := range statuses {
		b.terminal[s] = true
	}
	return b
}

// Permit allows action to move the status to any of targets.
func (c StateConfiguration) Permit(action Action, targets ...model.RequisitionStatus) StateConfiguration {
	for _, to := range targets {
		if !to.IsValid() {
			panic(fmt.Sprintf("invalid target status: %s", to))
		}
	}
	c.builder.transitions[c.from][action] = append(c.builder.transitions[c.from][action], targets...)
	return c
}

// Build freezes the configuration.
func (b *Builder) Build() *Machine {
	m := &Machine{
		transitions: make(map[model.RequisitionStatus]map[Action][]model.RequisitionStatus, len(b.transitions)),
		terminal:    make(map[model.RequisitionStatus]bool, len(b.terminal)),
	}
	for from, actions := range b.transitions {
		copied := make(map[Action][]model.RequisitionStatus, len(actions))
		for action, targets := range actions {
			copied[action] = append([]model.RequisitionStatus(nil), targets...)
		}
		m.transitions[from] = copied
	}
	for s := range b.terminal {
		m.terminal[s] = true
	}
	return m
}

// IsTerminal reports whether status accepts no further action.
func (m *Machine) IsTerminal(status model.RequisitionStatus) bool {
	return m.terminal[status]
}

// Targets lists the statuses action may lead to from status.
func (m *Machine) Targets(from model.RequisitionStatus, action Action) []model.RequisitionStatus {
	return append([]model.RequisitionStatus(nil), m.transitions[from][action]...)
}

// CanTransition reports whether action may move a requisition from -> to.
func (m *Machine) CanTransition(from model.RequisitionStatus, action Action, to model.RequisitionStatus) bool {
	return m.Check(from, action, to) == nil
}

// Check explains why from -> to via action is not allowed, or returns nil.
func (m *Machine) Check(from model.RequisitionStatus, action Action, to model.RequisitionStatus) error {
	if m.terminal[from] {
		return fmt.Errorf("%w: cannot %s a %s requisition", ErrTerminalStatus, action, from)
	}
	// A reroute that keeps the status only changes the assignee.
	if action == ActionReroute && from == to {
		return nil
	}
	for _, target := range m.transitions[from][action] {
		if target == to {
			return nil
		}
	}
	return fmt.Errorf("%w: %s from %s to %s", ErrInvalidTransition, action, from, to)
}
