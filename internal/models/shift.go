package models

// ShiftSnapshot is one per-shift resource usage report for a calendar day.
type ShiftSnapshot struct {
	Date                    string   `json:"date"`
	Shift                   int      `json:"shift"`
	CPUUsage                UsageMap `json:"cpu_usage"`
	MemoryUsage             UsageMap `json:"memory_usage"`
	ApplicationAvailability UsageMap `json:"application_availability"`
}

// ShiftPatch replaces whole usage categories of an existing snapshot. Nil fields are left untouched.
type ShiftPatch struct {
	CPUUsage                *UsageMap `json:"cpu_usage,omitempty"`
	MemoryUsage             *UsageMap `json:"memory_usage,omitempty"`
	ApplicationAvailability *UsageMap `json:"application_availability,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p ShiftPatch) IsEmpty() bool {
	return p.CPUUsage == nil && p.MemoryUsage == nil && p.ApplicationAvailability == nil
}

// Apply returns a copy of the snapshot with the patch applied.
func (p ShiftPatch) Apply(s ShiftSnapshot) ShiftSnapshot {
	if p.CPUUsage != nil {
		s.CPUUsage = *p.CPUUsage
	}
	if p.MemoryUsage != nil {
		s.MemoryUsage = *p.MemoryUsage
	}
	if p.ApplicationAvailability != nil {
		s.ApplicationAvailability = *p.ApplicationAvailability
	}
	return s
}

// IngestResult describes what happened when a snapshot was stored.
type IngestResult struct {
	Date       string `json:"date"`
	Shift      int    `json:"shift"`
	ShiftCount int    `json:"shift_count"`
	Aggregated bool   `json:"aggregated"`
}
