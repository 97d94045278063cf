package internal

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sensiblebit/certcheck/internal/inventory"
)

// Metrics renders a classification result as node_exporter textfile metrics.
type Metrics struct {
	registry      *prometheus.Registry
	entries       *prometheus.GaugeVec
	warnings      prometheus.Gauge
	certNotAfter  *prometheus.GaugeVec
	lastCheckTime prometheus.Gauge
}

// NewMetrics creates the gauges on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		entries: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "certcheck",
			Name:      "entries",
			Help:      "Directory entries by report section.",
		}, []string{"section"}),
		warnings: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "certcheck",
			Name:      "warnings",
			Help:      "Warnings emitted during the last check.",
		}),
		certNotAfter: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "certcheck",
			Name:      "cert_not_after_timestamp_seconds",
			Help:      "Unix timestamp of the earliest certificate notAfter in a file.",
		}, []string{"name", "trusted", "expired"}),
		lastCheckTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "certcheck",
			Name:      "last_check_timestamp_seconds",
			Help:      "Unix timestamp of the last check.",
		}),
	}
	m.registry.MustRegister(m.entries, m.warnings, m.certNotAfter, m.lastCheckTime)
	return m
}

// Update replaces all metric values from res.
func (m *Metrics) Update(res *inventory.Result) {
	m.entries.Reset()
	m.certNotAfter.Reset()

	r := res.Report
	m.entries.WithLabelValues("non_certificates").Set(float64(len(r.NonCertificates)))
	m.entries.WithLabelValues("expired").Set(float64(len(r.Expired)))
	m.entries.WithLabelValues("trusted").Set(float64(len(r.Trusted)))
	m.entries.WithLabelValues("untrusted").Set(float64(len(r.Untrusted)))
	m.warnings.Set(float64(len(res.Warnings)))
	m.lastCheckTime.Set(float64(res.CheckedAt.Unix()))

	trusted := make(map[string]bool, len(r.Trusted))
	for _, name := range r.Trusted {
		trusted[name] = true
	}
	for _, e := range res.Entries {
		if !e.IsCertificate || e.NotAfter.IsZero() {
			continue
		}
		m.certNotAfter.With(prometheus.Labels{
			"name":    e.Name,
			"trusted": fmt.Sprint(trusted[e.Name]),
			"expired": fmt.Sprint(e.Expired),
		}).Set(float64(e.NotAfter.Unix()))
	}
}

// WriteTextfile atomically writes the current values to path in the text
// exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}
