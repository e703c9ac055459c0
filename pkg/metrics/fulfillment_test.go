package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestFulfillmentMetricsExportsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewFulfillmentMetrics(reg)

	m.ObservePlacement("simple", 120*time.Millisecond)
	m.IncPlaced("simple")
	m.IncPlacementFailure("aggregated", "INSUFFICIENT_STOCK")
	m.IncTransition("simple", "return", "accepted")
	m.AddCompensation("return_refunded", 4)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "orders_placed_total", "kind", "simple"); err != nil {
		t.Fatalf("fetch placed: %v", err)
	} else if got != 1 {
		t.Fatalf("expected placed=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "order_placement_failures_total", "code", "INSUFFICIENT_STOCK"); err != nil {
		t.Fatalf("fetch failures: %v", err)
	} else if got != 1 {
		t.Fatalf("expected failures=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "order_status_transitions_total", "machine", "return"); err != nil {
		t.Fatalf("fetch transitions: %v", err)
	} else if got != 1 {
		t.Fatalf("expected transitions=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "stock_units_restored_total", "reason", "return_refunded"); err != nil {
		t.Fatalf("fetch units: %v", err)
	} else if got != 4 {
		t.Fatalf("expected units=4, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "order_placement_duration_seconds", "kind", "simple"); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
}

func TestNilRecorderIsSafe(t *testing.T) {
	var m *FulfillmentMetrics
	m.IncPlaced("simple")
	m.AddCompensation("cancel_refunded", 1)

	NewFulfillmentMetrics(nil).IncTransition("simple", "processing", "accepted")
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("counter %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
