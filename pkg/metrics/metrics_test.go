package metrics

import (
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestScanMetricsExportsGrantedAndDenied(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewScanMetrics(reg)
	event := "evt-1"

	metrics.IncGranted(event)
	metrics.IncGranted(event)
	metrics.IncDenied(event, "ALREADY_CONSUMED")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "scan_granted_total", "event", event); err != nil {
		t.Fatalf("fetch granted: %v", err)
	} else if got != 2 {
		t.Fatalf("expected granted=2, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "scan_denied_total", "reason", "ALREADY_CONSUMED"); err != nil {
		t.Fatalf("fetch denied: %v", err)
	} else if got != 1 {
		t.Fatalf("expected denied=1, got %f", got)
	}
}

func TestScanMetricsNilSafe(t *testing.T) {
	var metrics *ScanMetrics
	metrics.IncGranted("evt")
	metrics.IncDenied("evt", "REVOKED")

	unregistered := NewScanMetrics(nil)
	unregistered.IncGranted("evt")
}

func TestLedgerMetricsExportsCountAndAmount(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewLedgerMetrics(reg)

	metrics.ObserveTransaction("CAPTURED", 5000)
	metrics.ObserveTransaction("CAPTURED", -2500)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "ledger_transactions_total", "state", "CAPTURED"); err != nil {
		t.Fatalf("fetch transactions: %v", err)
	} else if got != 2 {
		t.Fatalf("expected transactions=2, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "ledger_transaction_amount_cents", "state", "CAPTURED"); err != nil {
		t.Fatalf("fetch amounts: %v", err)
	} else if got != 7500 {
		t.Fatalf("expected amount sum 7500, got %f", got)
	}
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
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
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
