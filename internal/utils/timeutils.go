package utils

import (
	"fmt"
	"time"
)

// DayLayout is the canonical dd-mm-yyyy date key format.
const DayLayout = "02-01-2006"

// DayKey is a parsed calendar-day key.
type DayKey struct {
	Day   int
	Month int
	Year  int
}

// ParseDayKey parses a dd-mm-yyyy date key.
func ParseDayKey(value string) (DayKey, error) {
	if value == "" {
		return DayKey{}, InvalidFormat("parse date", "empty date value", nil)
	}
	t, err := time.Parse(DayLayout, value)
	if err != nil {
		return DayKey{}, InvalidFormat("parse date", fmt.Sprintf("expected dd-mm-yyyy, got %q", value), err)
	}
	return DayKey{Day: t.Day(), Month: int(t.Month()), Year: t.Year()}, nil
}

// Ordinal collapses the key into a yyyymmdd integer for chronological comparison.
func (k DayKey) Ordinal() int {
	return k.Year*10000 + k.Month*100 + k.Day
}

// String renders the key back in dd-mm-yyyy form.
func (k DayKey) String() string {
	return fmt.Sprintf("%02d-%02d-%04d", k.Day, k.Month, k.Year)
}
