package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAggregateReportsMissingShifts(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	content := "store:\n  driver: memory\nlogging:\n  level: error\naggregation:\n  requiredShifts: 3\n"
	if err := os.WriteFile(cfgPath, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"--config", cfgPath, "aggregate", "--date", "05-03-2025"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if got := out.String(); !strings.Contains(got, "fewer than 3 shifts stored for 05-03-2025") {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestAggregateRejectsBadDate(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("store:\n  driver: memory\nlogging:\n  level: error\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	rootCmd.SetArgs([]string{"--config", cfgPath, "aggregate", "--date", "2025-03-05"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	if err := rootCmd.Execute(); err == nil {
		t.Fatalf("expected error for malformed date")
	}
}
