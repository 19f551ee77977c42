package observability

import (
	"log"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ucn-triumf/epics2midas-modern/internal/ports"
)

type PromObs struct {
	counters map[string]prometheus.Counter
	gauges   map[string]prometheus.Gauge
	histos   map[string]prometheus.Observer
}

func NewPromObs() *PromObs {
	reads := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "e2m_reads_total",
		Help: "Total successful channel reads.",
	})
	readFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "e2m_read_failures_total",
		Help: "Channel reads that timed out or failed.",
	})
	records := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "e2m_records_emitted_total",
		Help: "Binary records handed to the record sink.",
	})
	alarms := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "e2m_alarms_total",
		Help: "Reports funneled through the alarm sink.",
	})
	connected := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "e2m_channels_connected",
		Help: "Channels with a live handle after initialization.",
	})
	sweep := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "e2m_sweep_duration_seconds",
		Help:    "Duration of one full pass over all channels.",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
	})

	prometheus.MustRegister(reads, readFailures, records, alarms, connected, sweep)

	return &PromObs{
		counters: map[string]prometheus.Counter{
			"e2m_reads_total":           reads,
			"e2m_read_failures_total":   readFailures,
			"e2m_records_emitted_total": records,
			"e2m_alarms_total":          alarms,
		},
		gauges: map[string]prometheus.Gauge{
			"e2m_channels_connected": connected,
		},
		histos: map[string]prometheus.Observer{
			"e2m_sweep_duration_seconds": sweep,
		},
	}
}

func (p *PromObs) LogInfo(msg string, fields ...ports.Field) {}

func (p *PromObs) LogError(msg string, err error, fields ...ports.Field) {
	if err != nil {
		log.Printf("ERROR: %s: %v", msg, err)
	}
}

func (p *PromObs) LogCritical(msg string, err error, fields ...ports.Field) {
	if err != nil {
		log.Printf("CRITICAL: %s: %v", msg, err)
	}
}

func (p *PromObs) IncCounter(name string, v float64) {
	if c, ok := p.counters[name]; ok {
		c.Add(v)
	}
}

func (p *PromObs) ObserveLatency(name string, seconds float64) {
	if h, ok := p.histos[name]; ok {
		h.Observe(seconds)
	}
}

func (p *PromObs) SetGauge(name string, v float64) {
	if g, ok := p.gauges[name]; ok {
		g.Set(v)
	}
}

var _ ports.Observability = (*PromObs)(nil)
