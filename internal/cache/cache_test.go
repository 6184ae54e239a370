package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func TestValkeyProviderRoundTrip(t *testing.T) {
	srv := miniredis.RunT(t)
	provider, err := NewValkeyProvider(ValkeyConfig{Addr: srv.Addr()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer provider.Close()

	ctx := context.Background()
	if _, err := provider.Get(ctx, "aggregates:date"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected cache miss, got %v", err)
	}
	if err := provider.Set(ctx, "aggregates:date", []byte(`[]`), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := provider.Get(ctx, "aggregates:date")
	if err != nil || string(got) != "[]" {
		t.Fatalf("unexpected get result %q, %v", got, err)
	}

	ok, err := provider.SetNX(ctx, "aggregates:date", []byte(`x`), time.Minute)
	if err != nil || ok {
		t.Fatalf("expected SetNX to refuse existing key, ok=%v err=%v", ok, err)
	}

	srv.FastForward(2 * time.Minute)
	if _, err := provider.Get(ctx, "aggregates:date"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected expiry, got %v", err)
	}

	_ = provider.Set(ctx, "a", []byte("1"), 0)
	_ = provider.Set(ctx, "b", []byte("2"), 0)
	if err := provider.Del(ctx, "a", "b"); err != nil {
		t.Fatalf("del: %v", err)
	}
	if srv.Exists("a") || srv.Exists("b") {
		t.Fatalf("expected keys removed")
	}
}

func TestValkeyProviderRequiresAddr(t *testing.T) {
	if _, err := NewValkeyProvider(ValkeyConfig{}); err == nil {
		t.Fatalf("expected error without addr")
	}
}

func TestMemoryProviderExpiry(t *testing.T) {
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	c := NewMemoryProvider()
	c.now = func() time.Time { return now }

	ctx := context.Background()
	if err := c.Set(ctx, "k", []byte("v"), time.Second); err != nil {
		t.Fatalf("set: %v", err)
	}
	if ok, _ := c.SetNX(ctx, "k", []byte("w"), 0); ok {
		t.Fatalf("expected SetNX to refuse live key")
	}
	now = now.Add(2 * time.Second)
	if _, err := c.Get(ctx, "k"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected expired key to miss, got %v", err)
	}
	if ok, _ := c.SetNX(ctx, "k", []byte("w"), 0); !ok {
		t.Fatalf("expected SetNX to replace expired key")
	}
	got, _ := c.Get(ctx, "k")
	got[0] = 'x'
	again, _ := c.Get(ctx, "k")
	if string(again) != "w" {
		t.Fatalf("cached bytes must be copied, got %q", again)
	}
}
