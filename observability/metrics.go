package observability

import (
	gu "github.com/xraph/go-utils/metrics"
)

// Metrics holds metric instruments for the inbox, backed by any go-utils
// MetricFactory (e.g. the forge-managed metrics system via fapp.Metrics()).
type Metrics struct {
	ReceiptsTotal   gu.Counter
	ReceiptLatency  gu.Histogram
	InjectionsTotal gu.Counter
	CleanupRemoved  gu.Counter
	PendingEvents   gu.Gauge
}

// NewMetrics creates inbox metric instruments using the supplied factory.
// Pass fapp.Metrics() from a forge extension, or metrics.NewMetricsCollector()
// for standalone usage.
func NewMetrics(factory gu.MetricFactory) *Metrics {
	return &Metrics{
		ReceiptsTotal:   factory.Counter("inbox_receipts_total"),
		ReceiptLatency:  factory.Histogram("inbox_receipt_latency_seconds"),
		InjectionsTotal: factory.Counter("inbox_injections_total"),
		CleanupRemoved:  factory.Counter("inbox_cleanup_removed_total"),
		PendingEvents:   factory.Gauge("inbox_pending_events"),
	}
}

// RecordReceipt records a receipt attempt with its outcome and latency.
func (m *Metrics) RecordReceipt(status string, latencySeconds float64) {
	m.ReceiptsTotal.WithLabels(map[string]string{"status": status}).Inc()
	m.ReceiptLatency.Observe(latencySeconds)
}

// RecordCleanup records events deleted by one retention sweep.
func (m *Metrics) RecordCleanup(deleted int) {
	for i := 0; i < deleted; i++ {
		m.CleanupRemoved.Inc()
	}
}
