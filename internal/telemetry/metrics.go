package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for the scanning engine. Construct
// once and register against a registry owned by the caller; nothing here
// touches the default registry so tests can run isolated instances.
type Metrics struct {
	ScansTotal     prometheus.Counter
	ScanDuration   prometheus.Histogram
	ScansFiltered  *prometheus.CounterVec
	GatePasses     *prometheus.CounterVec
	SignalsEmitted *prometheus.CounterVec
	DedupRecords   prometheus.Gauge
}

// NewMetrics creates the collector set.
func NewMetrics() *Metrics {
	return &Metrics{
		ScansTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "oppscan_scans_total",
			Help: "Total number of symbol scans executed",
		}),
		ScanDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "oppscan_scan_duration_seconds",
			Help:    "Duration of a single symbol scan",
			Buckets: []float64{0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05},
		}),
		ScansFiltered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "oppscan_scans_filtered_total",
			Help: "Scans rejected before emission, by filter stage",
		}, []string{"stage"}),
		GatePasses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "oppscan_detector_gate_passes_total",
			Help: "Detector gates that returned true, by detector type",
		}, []string{"detector"}),
		SignalsEmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "oppscan_signals_emitted_total",
			Help: "Composite signals emitted, by detector type",
		}, []string{"detector"}),
		DedupRecords: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "oppscan_dedup_records",
			Help: "Records currently retained by the deduplication store",
		}),
	}
}

// Register attaches all collectors to the given registerer.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		m.ScansTotal, m.ScanDuration, m.ScansFiltered,
		m.GatePasses, m.SignalsEmitted, m.DedupRecords,
	} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Filter stage labels used by the scanner.
const (
	StageUniversal    = "universal_filters"
	StageThreshold    = "thresholds"
	StageCooldown     = "cooldown"
	StageRateCap      = "rate_cap"
	StageDuplicateBar = "duplicate_bar"
)
