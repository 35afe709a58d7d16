package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// ScanMetrics records admission attempt outcomes at the gates.
type ScanMetrics struct {
	granted *prometheus.CounterVec
	denied  *prometheus.CounterVec
}

// NewScanMetrics registers the scan metrics on the provided registerer.
func NewScanMetrics(reg prometheus.Registerer) *ScanMetrics {
	if reg == nil {
		return &ScanMetrics{}
	}
	granted := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scan_granted_total",
		Help: "Admission attempts that were granted.",
	}, []string{"event"})
	denied := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scan_denied_total",
		Help: "Admission attempts that were denied, by reason.",
	}, []string{"event", "reason"})
	reg.MustRegister(granted, denied)
	return &ScanMetrics{
		granted: granted,
		denied:  denied,
	}
}

// IncGranted increments the granted counter for an event.
func (s *ScanMetrics) IncGranted(event string) {
	if s == nil || s.granted == nil {
		return
	}
	s.granted.WithLabelValues(normalizeLabel(event)).Inc()
}

// IncDenied increments the denied counter for an event and reason.
func (s *ScanMetrics) IncDenied(event, reason string) {
	if s == nil || s.denied == nil {
		return
	}
	s.denied.WithLabelValues(normalizeLabel(event), normalizeLabel(reason)).Inc()
}
