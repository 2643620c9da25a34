// Package prom exports cache events as Prometheus counters.
package prom

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/unkn0wn-root/menucache"
)

type Hooks struct {
	reg *prometheus.Registry

	reads         *prometheus.CounterVec
	selfHeals     *prometheus.CounterVec
	setRejected   prometheus.Counter
	genErrors     *prometheus.CounterVec
	retries       *prometheus.CounterVec
	failures      *prometheus.CounterVec
	outages       prometheus.Counter
	droppedInvals prometheus.Counter
	flushes       prometheus.Counter
}

var _ menucache.Hooks = (*Hooks)(nil)

// New registers the cache counters, plus Go and process collectors, on a
// private registry under namespace.
func New(namespace string) *Hooks {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	h := &Hooks{
		reg: reg,
		reads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "cache", Name: "reads_total",
			Help: "Typed cache reads by entity kind and result.",
		}, []string{"kind", "result"}),
		selfHeals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "cache", Name: "self_heals_total",
			Help: "Entries deleted on read because they were unusable.",
		}, []string{"reason"}),
		setRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "cache", Name: "set_rejected_total",
			Help: "Writes the provider refused.",
		}),
		genErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "cache", Name: "gen_errors_total",
			Help: "Generation store failures.",
		}, []string{"op"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "cache", Name: "retries_total",
			Help: "Provider calls retried after a transient failure.",
		}, []string{"op"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "cache", Name: "backend_failures_total",
			Help: "Provider calls that gave up.",
		}, []string{"op"}),
		outages: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "cache", Name: "invalidate_outages_total",
			Help: "Invalidations where both generation bump and delete failed.",
		}),
		droppedInvals: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "cache", Name: "invalidations_dropped_total",
			Help: "Deferred invalidations that were lost.",
		}),
		flushes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "cache", Name: "flushes_total",
			Help: "Whole keyspace flushes.",
		}),
	}
	reg.MustRegister(h.reads, h.selfHeals, h.setRejected, h.genErrors, h.retries,
		h.failures, h.outages, h.droppedInvals, h.flushes)
	return h
}

// Registry exposes the private registry so other collectors can join it.
func (h *Hooks) Registry() *prometheus.Registry { return h.reg }

// Handler serves the registry in the Prometheus exposition format.
func (h *Hooks) Handler() http.Handler {
	return promhttp.HandlerFor(h.reg, promhttp.HandlerOpts{Registry: h.reg})
}

func (h *Hooks) Hit(kind string)  { h.reads.WithLabelValues(kind, "hit").Inc() }
func (h *Hooks) Miss(kind string) { h.reads.WithLabelValues(kind, "miss").Inc() }

func (h *Hooks) SelfHeal(_, reason string) {
	h.selfHeals.WithLabelValues(reason).Inc()
}

func (h *Hooks) ProviderSetRejected(string) { h.setRejected.Inc() }

func (h *Hooks) GenSnapshotError(count int, _ error) {
	h.genErrors.WithLabelValues("snapshot").Add(float64(count))
}

func (h *Hooks) GenBumpError(string, error) { h.genErrors.WithLabelValues("bump").Inc() }

func (h *Hooks) Retry(op string, _ int, _ error) { h.retries.WithLabelValues(op).Inc() }

func (h *Hooks) BackendFailure(op, _ string, _ error) {
	h.failures.WithLabelValues(op).Inc()
}

func (h *Hooks) InvalidateOutage(string, error, error) { h.outages.Inc() }

func (h *Hooks) InvalidationDropped(string, error) { h.droppedInvals.Inc() }

func (h *Hooks) Flushed(string) { h.flushes.Inc() }
