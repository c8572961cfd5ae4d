// Package metrics exposes Prometheus counters for the order pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Registry struct {
	reg *prometheus.Registry

	MessagesParsed  prometheus.Counter
	ParseFailed     prometheus.Counter
	LLMFallbacks    prometheus.Counter
	OrdersPersisted prometheus.Counter
	OrdersCancelled prometheus.Counter
	CommitFailures  prometheus.Counter
	RowFallbacks    prometheus.Counter
	CommitLatency   prometheus.Histogram
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	parsed := prometheus.NewCounter(prometheus.CounterOpts{Name: "orderline_messages_parsed_total"})
	failed := prometheus.NewCounter(prometheus.CounterOpts{Name: "orderline_parse_failed_total"})
	fallbacks := prometheus.NewCounter(prometheus.CounterOpts{Name: "orderline_llm_fallbacks_total"})
	persisted := prometheus.NewCounter(prometheus.CounterOpts{Name: "orderline_orders_persisted_total"})
	cancelled := prometheus.NewCounter(prometheus.CounterOpts{Name: "orderline_orders_cancelled_total"})
	commitFail := prometheus.NewCounter(prometheus.CounterOpts{Name: "orderline_commit_failures_total"})
	rowFallbacks := prometheus.NewCounter(prometheus.CounterOpts{Name: "orderline_row_fallbacks_total"})
	commitLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "orderline_commit_latency_seconds",
		Buckets: prometheus.DefBuckets,
	})

	r.MustRegister(parsed, failed, fallbacks, persisted, cancelled, commitFail, rowFallbacks, commitLatency)
	return &Registry{
		reg:             r,
		MessagesParsed:  parsed,
		ParseFailed:     failed,
		LLMFallbacks:    fallbacks,
		OrdersPersisted: persisted,
		OrdersCancelled: cancelled,
		CommitFailures:  commitFail,
		RowFallbacks:    rowFallbacks,
		CommitLatency:   commitLatency,
	}
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }
