// Package metrics exposes parse and export counters in the Prometheus format.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"barbercal/internal/model"
	"barbercal/internal/parser"
)

// Parse outcome label values.
const (
	OutcomeOK      = "ok"
	OutcomeEmpty   = "empty_input"
	OutcomeNone    = "no_records"
	OutcomeFailure = "failure"
)

// Collector owns a private registry so several instances (tests, servers)
// never clash on registration.
type Collector struct {
	reg *prometheus.Registry

	parseTotal        *prometheus.CounterVec
	appointmentsTotal *prometheus.CounterVec
	exportsTotal      *prometheus.CounterVec
	parseDur          prometheus.Summary
	lastSuccessTS     prometheus.Gauge
}

// New creates a Collector with Go runtime and process collectors attached.
func New() *Collector {
	c := &Collector{reg: prometheus.NewRegistry()}

	c.parseTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "barbercal",
		Name:      "parse_total",
		Help:      "Number of parse passes by outcome",
	}, []string{"outcome"})
	c.appointmentsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "barbercal",
		Name:      "appointments_total",
		Help:      "Number of appointments extracted by layout",
	}, []string{"format"})
	c.exportsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "barbercal",
		Name:      "exports_total",
		Help:      "Number of calendar documents delivered by target",
	}, []string{"target"})
	c.parseDur = prometheus.NewSummary(prometheus.SummaryOpts{
		Namespace: "barbercal",
		Name:      "parse_duration_seconds",
		Help:      "Time spent in a parse pass",
	})
	c.lastSuccessTS = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "barbercal",
		Name:      "last_success_timestamp_seconds",
		Help:      "Unix timestamp of the last parse pass that produced appointments",
	})

	c.reg.MustRegister(
		c.parseTotal, c.appointmentsTotal, c.exportsTotal,
		c.parseDur, c.lastSuccessTS,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Outcome maps a parse error onto its outcome label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, parser.ErrEmptyInput):
		return OutcomeEmpty
	case errors.Is(err, parser.ErrNoRecords):
		return OutcomeNone
	default:
		return OutcomeFailure
	}
}

// ObserveParse records one parse pass.
func (c *Collector) ObserveParse(appts []model.Appointment, err error, took time.Duration) {
	c.parseTotal.WithLabelValues(Outcome(err)).Inc()
	c.parseDur.Observe(took.Seconds())
	if err != nil {
		return
	}
	for _, a := range appts {
		c.appointmentsTotal.WithLabelValues(a.Format.String()).Inc()
	}
	c.lastSuccessTS.SetToCurrentTime()
}

// ObserveExport records n documents delivered to target ("file", "download", "open").
func (c *Collector) ObserveExport(target string, n int) {
	c.exportsTotal.WithLabelValues(target).Add(float64(n))
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry { return c.reg }

// Handler serves the registry in the exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{Registry: c.reg})
}
