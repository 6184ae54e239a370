package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegisterToleratesDuplicates(t *testing.T) {
	reg := prometheus.NewRegistry()
	if err := Register(reg); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := Register(reg); err != nil {
		t.Fatalf("second register should be tolerated: %v", err)
	}
}

func TestObserveAggregationLabels(t *testing.T) {
	before := testutil.ToFloat64(aggregationsTotal.WithLabelValues(TriggerAuto, OutcomeSkipped))
	ObserveAggregation(TriggerAuto, OutcomeSkipped)
	after := testutil.ToFloat64(aggregationsTotal.WithLabelValues(TriggerAuto, OutcomeSkipped))
	if after-before != 1 {
		t.Fatalf("expected skipped counter to advance by 1, got %v", after-before)
	}

	beforeOK := testutil.ToFloat64(aggregationsTotal.WithLabelValues(TriggerOnDemand, OutcomeSuccess))
	ObserveAggregation(TriggerOnDemand, "anything")
	if got := testutil.ToFloat64(aggregationsTotal.WithLabelValues(TriggerOnDemand, OutcomeSuccess)) - beforeOK; got != 1 {
		t.Fatalf("unknown outcomes should count as success, got %v", got)
	}
}

func TestObserveReportCountsAndTimes(t *testing.T) {
	before := testutil.ToFloat64(reportsTotal.WithLabelValues("daily", OutcomeError))
	ObserveReport("daily", -time.Second, OutcomeError)
	if got := testutil.ToFloat64(reportsTotal.WithLabelValues("daily", OutcomeError)) - before; got != 1 {
		t.Fatalf("expected error counter to advance, got %v", got)
	}
	if n := testutil.CollectAndCount(reportRenderSeconds); n == 0 {
		t.Fatalf("expected histogram series to be present")
	}
}
