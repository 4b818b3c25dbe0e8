// Package prometheus implements the metrics interfaces on the shared
// Prometheus registry.
package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/hubvault/hubvault/pkg/metrics"
)

// vaultMetrics is the Prometheus implementation of metrics.VaultMetrics.
type vaultMetrics struct {
	checkoutsTotal *prometheus.CounterVec
	checkinsTotal  prometheus.Counter
	uploadsTotal   prometheus.Counter
	downloadsTotal prometheus.Counter
	tokensIssued   prometheus.Counter
	bytesStored    prometheus.Counter
	bytesServed    prometheus.Counter
	contentSize    prometheus.Histogram
}

// NewVaultMetrics creates a new Prometheus-backed VaultMetrics instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewVaultMetrics() metrics.VaultMetrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &vaultMetrics{
		checkoutsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "hubvault_checkouts_total",
				Help: "Total checkout attempts by outcome (granted or conflict)",
			},
			[]string{"outcome"},
		),
		checkinsTotal: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "hubvault_checkins_total",
				Help: "Total successful check-ins",
			},
		),
		uploadsTotal: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "hubvault_uploads_total",
				Help: "Total successful initial uploads",
			},
		),
		downloadsTotal: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "hubvault_downloads_total",
				Help: "Total redeemed downloads",
			},
		),
		tokensIssued: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "hubvault_download_tokens_issued_total",
				Help: "Total single-use download tickets issued",
			},
		),
		bytesStored: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "hubvault_content_bytes_stored_total",
				Help: "Total bytes accepted into the content store",
			},
		),
		bytesServed: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "hubvault_content_bytes_served_total",
				Help: "Total bytes served through downloads",
			},
		),
		contentSize: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name: "hubvault_content_size_bytes",
				Help: "Distribution of stored version sizes",
				Buckets: []float64{
					4096,       // 4KB
					65536,      // 64KB
					1048576,    // 1MB
					10485760,   // 10MB
					104857600,  // 100MB
					1073741824, // 1GB
				},
			},
		),
	}
}

func (m *vaultMetrics) RecordCheckout(outcome string) {
	m.checkoutsTotal.WithLabelValues(outcome).Inc()
}

func (m *vaultMetrics) RecordCheckin(bytes uint64) {
	m.checkinsTotal.Inc()
	m.bytesStored.Add(float64(bytes))
	m.contentSize.Observe(float64(bytes))
}

func (m *vaultMetrics) RecordUpload(bytes uint64) {
	m.uploadsTotal.Inc()
	m.bytesStored.Add(float64(bytes))
	m.contentSize.Observe(float64(bytes))
}

func (m *vaultMetrics) RecordDownload(bytes uint64) {
	m.downloadsTotal.Inc()
	m.bytesServed.Add(float64(bytes))
}

func (m *vaultMetrics) RecordTokenIssued() {
	m.tokensIssued.Inc()
}
