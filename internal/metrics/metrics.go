// Package metrics exposes Prometheus metrics for HTTP traffic, store
// mutations and the current inventory.
package metrics

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/erazemk/ewaste/internal/analytics"
	"github.com/erazemk/ewaste/internal/model"
	"github.com/erazemk/ewaste/internal/store"
)

const namespace = "ewaste"

// Metrics owns a private registry and the collectors registered on it.
type Metrics struct {
	registry  *prometheus.Registry
	requests  *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	mutations *prometheus.CounterVec
}

// New registers the HTTP, store and inventory collectors. items may be nil
// to skip the inventory collector.
func New(items analytics.Source) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests by method and status code.",
			},
			[]string{"method", "code"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		mutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "store_mutations_total",
				Help:      "Committed item store mutations by operation.",
			},
			[]string{"op"},
		),
	}

	m.registry.MustRegister(
		m.requests,
		m.duration,
		m.mutations,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if items != nil {
		m.registry.MustRegister(newInventoryCollector(items))
	}
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// OnChange counts a committed mutation. Pass it to Store.Subscribe.
func (m *Metrics) OnChange(c store.Change) {
	m.mutations.WithLabelValues(c.Op).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// Hijack passes through so websocket upgrades work behind the middleware.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("hijacking not supported")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

// Middleware counts and times every request.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		m.requests.WithLabelValues(r.Method, strconv.Itoa(rec.status)).Inc()
		m.duration.WithLabelValues(r.Method).Observe(time.Since(start).Seconds())
	})
}

// inventoryCollector reports item counts and impact at scrape time.
type inventoryCollector struct {
	src    analytics.Source
	items  *prometheus.Desc
	impact *prometheus.Desc
}

func newInventoryCollector(src analytics.Source) *inventoryCollector {
	return &inventoryCollector{
		src: src,
		items: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "items"),
			"Tracked items by lifecycle status.",
			[]string{"status"}, nil,
		),
		impact: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "impact_kg_co2"),
			"Estimated CO2e in kg: avoided so far and potential if fully recycled.",
			[]string{"kind"}, nil,
		),
	}
}

func (c *inventoryCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.items
	ch <- c.impact
}

func (c *inventoryCollector) Collect(ch chan<- prometheus.Metric) {
	items := c.src.Items()

	counts := make(map[model.Status]int)
	for _, it := range items {
		counts[it.Status]++
	}
	for _, s := range model.Statuses() {
		ch <- prometheus.MustNewConstMetric(c.items, prometheus.GaugeValue, float64(counts[s]), string(s))
	}

	r := analytics.Compute(items, time.Now())
	ch <- prometheus.MustNewConstMetric(c.impact, prometheus.GaugeValue, r.ImpactKgCO2, "avoided")
	ch <- prometheus.MustNewConstMetric(c.impact, prometheus.GaugeValue, r.PotentialKgCO2, "potential")
}
