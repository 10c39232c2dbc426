// Package metricsvc exposes the clock's sync health to prometheus.
package metricsvc

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "grellic"

const (
	ResultOK    = "ok"
	ResultError = "error"
)

// ClockMetrics is fed by the watcher hooks.
type ClockMetrics struct {
	syncs     *prometheus.CounterVec
	crossings prometheus.Counter
	offset    prometheus.Gauge
	lastSync  prometheus.Gauge
}

func NewClockMetrics(reg prometheus.Registerer) (*ClockMetrics, error) {
	m := &ClockMetrics{
		syncs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "clock",
			Name:      "syncs_total",
			Help:      "Clock sync attempts by result.",
		}, []string{"result"}),
		crossings: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "clock",
			Name:      "threshold_crossings_total",
			Help:      "Schedule boundaries reached.",
		}),
		offset: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "clock",
			Name:      "offset_seconds",
			Help:      "Server time minus local monotonic reading at the last sync.",
		}),
		lastSync: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "clock",
			Name:      "last_sync_unix",
			Help:      "Server time applied by the last successful sync.",
		}),
	}
	for _, c := range []prometheus.Collector{m.syncs, m.crossings, m.offset, m.lastSync} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *ClockMetrics) ObserveSync(serverNow time.Time, offset time.Duration) {
	m.syncs.WithLabelValues(ResultOK).Inc()
	m.offset.Set(offset.Seconds())
	m.lastSync.Set(float64(serverNow.Unix()))
}

func (m *ClockMetrics) ObserveSyncError() {
	m.syncs.WithLabelValues(ResultError).Inc()
}

func (m *ClockMetrics) ObserveCrossing() {
	m.crossings.Inc()
}

// RegisterCacheEntries exports the size of the schedule view cache, read on each scrape.
func RegisterCacheEntries(reg prometheus.Registerer, entries func() int) error {
	return reg.Register(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "schedule",
		Name:      "cache_entries",
		Help:      "Entries held by the schedule view cache.",
	}, func() float64 { return float64(entries()) }))
}
