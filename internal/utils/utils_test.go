package utils

import (
	"errors"
	"fmt"
	"testing"
)

func TestParseDayKey(t *testing.T) {
	key, err := ParseDayKey("05-03-2025")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key.Day != 5 || key.Month != 3 || key.Year != 2025 {
		t.Fatalf("unexpected key: %+v", key)
	}
	if key.String() != "05-03-2025" || key.Ordinal() != 20250305 {
		t.Fatalf("unexpected rendering: %s / %d", key, key.Ordinal())
	}

	for _, bad := range []string{"", "2025-03-05", "5-3-2025", "32-01-2025", "05/03/2025"} {
		if _, err := ParseDayKey(bad); !errors.Is(err, ErrInvalidFormat) {
			t.Fatalf("expected format error for %q, got %v", bad, err)
		}
	}
}

func TestAppErrorKinds(t *testing.T) {
	cause := errors.New("connection reset")
	err := fmt.Errorf("wrapped: %w", OperationFailed("list aggregates", "query failed", cause))
	if !errors.Is(err, ErrOperationFailed) || !errors.Is(err, cause) {
		t.Fatalf("expected kind and cause to be reachable: %v", err)
	}
	if errors.Is(err, ErrNotFound) {
		t.Fatalf("unexpected not-found kind")
	}
	if !IsKind(NotFound("get shift", "missing")) {
		t.Fatalf("expected not-found to be recognised")
	}
	if IsKind(cause) {
		t.Fatalf("bare errors carry no kind")
	}
}
