// Package metrics exposes Prometheus instruments for scraping and email delivery.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "gigscout"

// Metrics is safe to use as a nil pointer; every recorder becomes a no-op.
type Metrics struct {
	ScrapeRunsTotal        prometheus.Counter
	ScrapeRunsSkippedTotal prometheus.Counter
	ScrapeDurationSeconds  prometheus.Histogram
	ListingsScannedTotal   *prometheus.CounterVec
	ListingsSavedTotal     prometheus.Counter
	SourceErrorsTotal      *prometheus.CounterVec
	EmailsSentTotal        *prometheus.CounterVec
	EmailChecksTotal       *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		ScrapeRunsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scraper",
			Name:      "runs_total",
			Help:      "Completed scrape runs",
		}),
		ScrapeRunsSkippedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scraper",
			Name:      "runs_skipped_total",
			Help:      "Scheduled scrape runs skipped because another run was in flight",
		}),
		ScrapeDurationSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scraper",
			Name:      "run_duration_seconds",
			Help:      "Duration of a scrape run across all sources",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
		ListingsScannedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scraper",
			Name:      "listings_scanned_total",
			Help:      "Relevant listings returned by each source",
		}, []string{"source"}),
		ListingsSavedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scraper",
			Name:      "listings_saved_total",
			Help:      "New listings written to the store",
		}),
		SourceErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scraper",
			Name:      "source_errors_total",
			Help:      "Failed source fetches",
		}, []string{"source"}),
		EmailsSentTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "email",
			Name:      "sent_total",
			Help:      "Email send attempts by type and outcome",
		}, []string{"type", "outcome"}),
		EmailChecksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "email",
			Name:      "checks_total",
			Help:      "Email check invocations by check",
		}, []string{"check"}),
	}
}

func (m *Metrics) ObserveSource(source string, scanned int, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.SourceErrorsTotal.WithLabelValues(source).Inc()
	}
	m.ListingsScannedTotal.WithLabelValues(source).Add(float64(scanned))
}

func (m *Metrics) ObserveRun(saved int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.ScrapeRunsTotal.Inc()
	m.ListingsSavedTotal.Add(float64(saved))
	m.ScrapeDurationSeconds.Observe(elapsed.Seconds())
}

func (m *Metrics) RunSkipped() {
	if m == nil {
		return
	}
	m.ScrapeRunsSkippedTotal.Inc()
}

func (m *Metrics) EmailSent(emailType string, success bool) {
	if m == nil {
		return
	}
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	m.EmailsSentTotal.WithLabelValues(emailType, outcome).Inc()
}

func (m *Metrics) EmailCheck(check string) {
	if m == nil {
		return
	}
	m.EmailChecksTotal.WithLabelValues(check).Inc()
}
