package repo

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/miradorstack/mirador-shiftreport/internal/models"
	"github.com/miradorstack/mirador-shiftreport/internal/utils"
)

// MemoryStore is an in-process Store for tests and throwaway local runs.
type MemoryStore struct {
	mu         sync.RWMutex
	shifts     []models.ShiftSnapshot
	aggregates []models.DailyAggregate
	index      map[string]int
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{index: make(map[string]int)}
}

// InsertShift appends a snapshot.
func (s *MemoryStore) InsertShift(_ context.Context, snapshot models.ShiftSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shifts = append(s.shifts, snapshot)
	return nil
}

// CountShifts counts snapshots for a date.
func (s *MemoryStore) CountShifts(_ context.Context, date string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, snap := range s.shifts {
		if snap.Date == date {
			n++
		}
	}
	return n, nil
}

// FindShifts returns a date's snapshots in insertion order.
func (s *MemoryStore) FindShifts(_ context.Context, date string) ([]models.ShiftSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.ShiftSnapshot
	for _, snap := range s.shifts {
		if snap.Date == date {
			out = append(out, snap)
		}
	}
	return out, nil
}

// FindShift returns the first snapshot matching date and shift.
func (s *MemoryStore) FindShift(_ context.Context, date string, shift int) (models.ShiftSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.firstShift(date, shift); i >= 0 {
		return s.shifts[i], nil
	}
	return models.ShiftSnapshot{}, shiftNotFound("find shift", date, shift)
}

// ListShifts returns every snapshot in insertion order.
func (s *MemoryStore) ListShifts(_ context.Context) ([]models.ShiftSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.ShiftSnapshot(nil), s.shifts...), nil
}

// UpdateShift patches the first matching snapshot.
func (s *MemoryStore) UpdateShift(_ context.Context, date string, shift int, patch models.ShiftPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.firstShift(date, shift)
	if i < 0 {
		return shiftNotFound("update shift", date, shift)
	}
	s.shifts[i] = patch.Apply(s.shifts[i])
	return nil
}

// DeleteShift removes the first matching snapshot.
func (s *MemoryStore) DeleteShift(_ context.Context, date string, shift int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.firstShift(date, shift)
	if i < 0 {
		return shiftNotFound("delete shift", date, shift)
	}
	s.shifts = append(s.shifts[:i], s.shifts[i+1:]...)
	return nil
}

// UpsertAggregate replaces the aggregate for its date, keeping the date's original position.
func (s *MemoryStore) UpsertAggregate(_ context.Context, aggregate models.DailyAggregate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i, ok := s.index[aggregate.Date]; ok {
		s.aggregates[i] = aggregate
		return nil
	}
	s.index[aggregate.Date] = len(s.aggregates)
	s.aggregates = append(s.aggregates, aggregate)
	return nil
}

// FindAggregate returns the aggregate for a date.
func (s *MemoryStore) FindAggregate(_ context.Context, date string) (models.DailyAggregate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i, ok := s.index[date]; ok {
		return s.aggregates[i], nil
	}
	return models.DailyAggregate{}, aggregateNotFound("find aggregate", date)
}

// ListAggregates returns all aggregates in the requested order.
func (s *MemoryStore) ListAggregates(_ context.Context, order AggregateOrder) ([]models.DailyAggregate, error) {
	s.mu.RLock()
	out := append([]models.DailyAggregate(nil), s.aggregates...)
	s.mu.RUnlock()
	if order == OrderByDate {
		sort.SliceStable(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	}
	return out, nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) firstShift(date string, shift int) int {
	for i, snap := range s.shifts {
		if snap.Date == date && snap.Shift == shift {
			return i
		}
	}
	return -1
}

func shiftNotFound(op, date string, shift int) error {
	return utils.NotFound(op, fmt.Sprintf("no data found for date %s and shift %d", date, shift))
}

func aggregateNotFound(op, date string) error {
	return utils.NotFound(op, fmt.Sprintf("no daily aggregate found for date %s", date))
}
