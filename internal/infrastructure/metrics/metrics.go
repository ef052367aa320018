package metrics

import (
	"net/http"
	"time"

	"github.com/nerrad567/gray-logic-gateway/internal/data"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "gateway"

// Handler results.
const (
	ResultAccepted = "accepted"
	ResultRejected = "rejected"
)

// Utilization metric label values.
const (
	MetricCPU    = "cpu"
	MetricMemory = "memory"
	MetricDisk   = "disk"
)

// Metrics holds the gateway collectors and the registry they are registered on.
//
// Thread Safety: all methods are safe for concurrent use.
type Metrics struct {
	registry *prometheus.Registry

	messagesHandled   *prometheus.CounterVec
	dataErrors        *prometheus.CounterVec
	upstreamPublishes *prometheus.CounterVec
	publishDuration   prometheus.Histogram
	samplerTicks      prometheus.Counter
	utilization       *prometheus.GaugeVec
}

// New creates the collectors and registers them on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		messagesHandled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_handled_total",
			Help:      "Inbound messages handled by the gateway, by record kind and result.",
		}, []string{"kind", "result"}),
		dataErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "data_errors_total",
			Help:      "Inbound records carrying the error flag, by record kind.",
		}, []string{"kind"}),
		upstreamPublishes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_publishes_total",
			Help:      "Upstream transmissions, by result.",
		}, []string{"result"}),
		publishDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_publish_duration_seconds",
			Help:      "Time spent handing one payload to every upstream publisher.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
		samplerTicks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sampler_ticks_total",
			Help:      "Completed system performance sampling ticks.",
		}),
		utilization: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "system_utilization_percent",
			Help:      "Most recent host utilization sample, in percent.",
		}, []string{"metric"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.messagesHandled,
		m.dataErrors,
		m.upstreamPublishes,
		m.publishDuration,
		m.samplerTicks,
		m.utilization,
	)
	return m
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler returns an HTTP handler serving the registry in the Prometheus
// exposition format. A nil Metrics serves 404.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveMessage counts one handled inbound message.
func (m *Metrics) ObserveMessage(kind string, accepted bool) {
	if m == nil {
		return
	}
	m.messagesHandled.WithLabelValues(kind, result(accepted)).Inc()
}

// ObserveDataError counts one record arriving with its error flag set.
func (m *Metrics) ObserveDataError(kind string) {
	if m == nil {
		return
	}
	m.dataErrors.WithLabelValues(kind).Inc()
}

// ObservePublish records the outcome and duration of one upstream transmission.
func (m *Metrics) ObservePublish(accepted bool, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.upstreamPublishes.WithLabelValues(result(accepted)).Inc()
	m.publishDuration.Observe(elapsed.Seconds())
}

// ObserveSnapshot counts a sampler tick and updates the utilization gauges.
// Its signature matches the sampler's observer hook.
func (m *Metrics) ObserveSnapshot(snap *data.SystemPerformanceData) {
	if m == nil || snap == nil {
		return
	}
	m.samplerTicks.Inc()
	m.utilization.WithLabelValues(MetricCPU).Set(snap.CPUUtilization())
	m.utilization.WithLabelValues(MetricMemory).Set(snap.MemoryUtilization())
	m.utilization.WithLabelValues(MetricDisk).Set(snap.DiskUtilization())
}

func result(accepted bool) string {
	if accepted {
		return ResultAccepted
	}
	return ResultRejected
}
