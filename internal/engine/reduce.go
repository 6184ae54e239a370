package engine

import (
	"github.com/miradorstack/mirador-shiftreport/internal/models"
)

// Reduction policy names, used in diagnostics.
const (
	// PolicyLastTypedWriteWins resolves cpu and memory readings: numbers keep a running
	// maximum, the critical component's "down" marker overwrites whatever is stored, and a
	// number read after the marker overwrites the marker. The result depends on read order.
	PolicyLastTypedWriteWins = "last-typed-write-wins"
	// PolicyFirstSeenWins resolves availability: the first snapshot that names a component decides it.
	PolicyFirstSeenWins = "first-seen-wins"
)

// ReduceShifts folds a date's snapshots, in the order given, into one daily aggregate.
// Non-numeric readings other than the critical component's "down" marker are dropped.
func ReduceShifts(date string, snapshots []models.ShiftSnapshot, critical string) models.DailyAggregate {
	agg := models.DailyAggregate{Date: date}
	for _, snap := range snapshots {
		lastTypedWriteWins(&agg.CPUUsage, snap.CPUUsage, critical)
		lastTypedWriteWins(&agg.MemoryUsage, snap.MemoryUsage, critical)
		firstSeenWins(&agg.ApplicationAvailability, snap.ApplicationAvailability)
	}
	return agg
}

func lastTypedWriteWins(acc *models.UsageMap, readings models.UsageMap, critical string) {
	for _, name := range readings.Keys() {
		reading := readings.Get(name)
		if value, ok := reading.Float(); ok {
			current, seen := acc.Lookup(name)
			stored, numeric := current.Float()
			if !seen || !numeric || value > stored {
				acc.Set(name, reading)
			}
			continue
		}
		if name == critical && reading.Is(models.SentinelDownRaw) {
			acc.Set(name, models.Text(models.SentinelDown))
		}
	}
}

func firstSeenWins(acc *models.UsageMap, readings models.UsageMap) {
	for _, name := range readings.Keys() {
		if !acc.Has(name) {
			acc.Set(name, readings.Get(name))
		}
	}
}
