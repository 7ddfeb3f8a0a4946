// Package metrics собирает Prometheus-метрики сервиса в отдельный реестр.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "chunkstage"

// Результаты сборки для метки result.
const (
	MergeOK       = "ok"
	MergeRejected = "rejected"
	MergeFailed   = "failed"
)

type Metrics struct {
	registry        *prometheus.Registry
	chunksReceived  prometheus.Counter
	chunkBytes      prometheus.Counter
	merges          *prometheus.CounterVec
	mergedBytes     prometheus.Counter
	requestDuration *prometheus.HistogramVec
}

// New регистрирует метрики в новом реестре.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		chunksReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_received_total",
			Help:      "Number of chunks staged.",
		}),
		chunkBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunk_bytes_total",
			Help:      "Bytes staged across all chunks.",
		}),
		merges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "merges_total",
			Help:      "Merge attempts by result.",
		}, []string{"result"}),
		mergedBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "merged_bytes_total",
			Help:      "Bytes written to committed artifacts.",
		}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method", "code"}),
	}

	m.registry.MustRegister(
		m.chunksReceived,
		m.chunkBytes,
		m.merges,
		m.mergedBytes,
		m.requestDuration,
	)

	return m
}

// ObserveChunk учитывает сохранённую часть. Безопасно для nil.
func (m *Metrics) ObserveChunk(size int64) {
	if m == nil {
		return
	}
	m.chunksReceived.Inc()
	m.chunkBytes.Add(float64(size))
}

// ObserveMerge учитывает попытку сборки.
func (m *Metrics) ObserveMerge(result string, written int64) {
	if m == nil {
		return
	}
	m.merges.WithLabelValues(result).Inc()
	if result == MergeOK {
		m.mergedBytes.Add(float64(written))
	}
}

// ObserveRequest учитывает длительность HTTP-запроса.
func (m *Metrics) ObserveRequest(route, method string, code int, d time.Duration) {
	if m == nil {
		return
	}
	m.requestDuration.WithLabelValues(route, method, strconv.Itoa(code)).Observe(d.Seconds())
}

// Registry возвращает реестр, например для проверок в тестах.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler отдаёт метрики в формате Prometheus.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
