package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the bot's collectors on a private registry so tests and
// multiple runtimes never collide on the global one.
type Metrics struct {
	registry    *prometheus.Registry
	messages    prometheus.Counter
	invocations *prometheus.CounterVec
	errors      *prometheus.CounterVec
	upstream    *prometheus.HistogramVec
	dispatch    *prometheus.HistogramVec
	dropped     prometheus.Counter
	degraded    *prometheus.GaugeVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		messages: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "autobot_messages_total",
			Help: "Total number of inbound chat messages seen.",
		}),
		invocations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "autobot_command_invocations_total",
				Help: "Total number of recognized command invocations.",
			},
			[]string{"command"},
		),
		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "autobot_command_errors_total",
				Help: "Total number of commands that ended with a user-visible error.",
			},
			[]string{"command", "kind"},
		),
		upstream: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "autobot_upstream_duration_seconds",
				Help:    "Duration of calls to the execution and search services.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"service"},
		),
		dispatch: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "autobot_dispatch_duration_seconds",
				Help:    "Time a dispatch worker spent on one inbound message.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"outcome"},
		),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "autobot_dispatch_dropped_total",
			Help: "Inbound messages dropped because the dispatch queue was full.",
		}),
		degraded: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "autobot_component_degraded",
				Help: "1 when a runtime component is degraded or stale, 0 otherwise.",
			},
			[]string{"component"},
		),
	}
	m.registry.MustRegister(
		m.messages,
		m.invocations,
		m.errors,
		m.upstream,
		m.dispatch,
		m.dropped,
		m.degraded,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// The methods below accept a nil receiver so callers can run without metrics.

func (m *Metrics) MessageSeen() {
	if m == nil {
		return
	}
	m.messages.Inc()
}

func (m *Metrics) CommandInvoked(command string) {
	if m == nil {
		return
	}
	m.invocations.WithLabelValues(command).Inc()
}

func (m *Metrics) CommandFailed(command, kind string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(command, kind).Inc()
}

func (m *Metrics) ObserveUpstream(service string, started time.Time) {
	if m == nil {
		return
	}
	m.upstream.WithLabelValues(service).Observe(time.Since(started).Seconds())
}

func (m *Metrics) ObserveDispatch(elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.dispatch.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

func (m *Metrics) DispatchDropped() {
	if m == nil {
		return
	}
	m.dropped.Inc()
}

func (m *Metrics) SetComponentDegraded(component string, degraded bool) {
	if m == nil {
		return
	}
	value := 0.0
	if degraded {
		value = 1
	}
	m.degraded.WithLabelValues(component).Set(value)
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
