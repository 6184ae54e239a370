package engine

import "fmt"

// ShiftThreshold decides whether a date has enough snapshots to aggregate.
type ShiftThreshold interface {
	Satisfied(count int) bool
	Name() string
}

// AutoTriggerPolicy fires only when an insert brings the count to exactly Required.
// Later inserts for the same date do not re-aggregate.
type AutoTriggerPolicy struct {
	Required int
}

// Satisfied reports count == Required.
func (p AutoTriggerPolicy) Satisfied(count int) bool { return count == p.Required }

// Name identifies the policy in diagnostics.
func (p AutoTriggerPolicy) Name() string { return fmt.Sprintf("auto-trigger(==%d)", p.Required) }

// OnDemandPolicy allows recomputation whenever at least Minimum snapshots exist.
type OnDemandPolicy struct {
	Minimum int
}

// Satisfied reports count >= Minimum.
func (p OnDemandPolicy) Satisfied(count int) bool { return count >= p.Minimum }

// Name identifies the policy in diagnostics.
func (p OnDemandPolicy) Name() string { return fmt.Sprintf("on-demand(>=%d)", p.Minimum) }
