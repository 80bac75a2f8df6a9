package converter

import (
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "pxconverter"

// Metrics holds the converter counters. A nil *Metrics is valid and records nothing.
type Metrics struct {
	EventsProcessed prometheus.Counter
	EventsDiscarded prometheus.Counter
	Hits            prometheus.Counter
	HitsSkipped     prometheus.Counter
	Clusters        prometheus.Counter
	ZeroCharge      prometheus.Counter
	ClusterSize     prometheus.Histogram
	PixelFits       prometheus.Counter
	PixelFitErrors  prometheus.Counter
}

func NewMetrics(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		EventsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "events_processed_total",
			Help:      "Events converted and emitted to the sink.",
		}),
		EventsDiscarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "events_discarded_total",
			Help:      "Events rejected because of malformed input or missing calibration.",
		}),
		Hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "hits_total",
			Help:      "Hits with a resolved charge.",
		}),
		HitsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "hits_skipped_total",
			Help:      "Hits dropped because their pixel has no calibration.",
		}),
		Clusters: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "clusters_total",
			Help:      "Clusters found.",
		}),
		ZeroCharge: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "zero_charge_clusters_total",
			Help:      "Clusters whose centroid is undefined because of zero total charge.",
		}),
		ClusterSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "cluster_size",
			Help:      "Number of hits per cluster.",
			Buckets:   []float64{1, 2, 3, 4, 5, 6, 8, 10, 15, 20, 50},
		}),
		PixelFits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "pixel_fits_total",
			Help:      "Pixel response curves fitted.",
		}),
		PixelFitErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "pixel_fit_errors_total",
			Help:      "Pixel fits that fell back to the initial parameters.",
		}),
	}
	if registry != nil {
		registry.MustRegister(
			m.EventsProcessed, m.EventsDiscarded, m.Hits, m.HitsSkipped,
			m.Clusters, m.ZeroCharge, m.ClusterSize, m.PixelFits, m.PixelFitErrors,
		)
	}
	return m
}

func (m *Metrics) observeFit(err error) {
	if m == nil {
		return
	}
	m.PixelFits.Inc()
	if err != nil {
		m.PixelFitErrors.Inc()
	}
}

func (m *Metrics) observeEvent(record *EventRecord) {
	if m == nil {
		return
	}
	m.EventsProcessed.Inc()
	m.Hits.Add(float64(len(record.Charges)))
	m.Clusters.Add(float64(record.NCluster))
	for _, size := range record.ClusterSize {
		m.ClusterSize.Observe(float64(size))
	}
}

func (m *Metrics) observeDiscard() {
	if m == nil {
		return
	}
	m.EventsDiscarded.Inc()
}

func (m *Metrics) observeSkippedHit() {
	if m == nil {
		return
	}
	m.HitsSkipped.Inc()
}

func (m *Metrics) observeZeroCharge() {
	if m == nil {
		return
	}
	m.ZeroCharge.Inc()
}
