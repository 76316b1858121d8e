package providers

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"anonchat/internal/structures"
)

// ChatStatsInterface is the slice of the chat service the gauge
// functions read. Declared here so the providers package stays free of
// domain imports.
type ChatStatsInterface interface {
	Pages() int
	Profiles() int
}

type MetricsProviderInterface interface {
	IncRequestsTotal(endpoint string, status int)
	ObserveRequestDuration(endpoint string, duration time.Duration)
	IncCacheHits()
	IncCacheMisses()
	IncMessagesSent()
	IncMessagesEdited()
	IncMessagesDeleted()
	IncThrottled()
	ObservePersistenceDuration(duration time.Duration)
}

type MetricsProvider struct {
	requestsTotal       *prometheus.CounterVec
	requestDuration     *prometheus.HistogramVec
	cacheHits           prometheus.Counter
	cacheMisses         prometheus.Counter
	messagesSent        prometheus.Counter
	messagesEdited      prometheus.Counter
	messagesDeleted     prometheus.Counter
	throttled           prometheus.Counter
	persistenceDuration prometheus.Histogram
}

func (m *MetricsProvider) IncRequestsTotal(endpoint string, status int) {
	m.requestsTotal.WithLabelValues(endpoint, httpStatusBucket(status)).Inc()
}

func (m *MetricsProvider) ObserveRequestDuration(endpoint string, duration time.Duration) {
	m.requestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func (m *MetricsProvider) IncCacheHits() {
	m.cacheHits.Inc()
}

func (m *MetricsProvider) IncCacheMisses() {
	m.cacheMisses.Inc()
}

func (m *MetricsProvider) IncMessagesSent() {
	m.messagesSent.Inc()
}

func (m *MetricsProvider) IncMessagesEdited() {
	m.messagesEdited.Inc()
}

func (m *MetricsProvider) IncMessagesDeleted() {
	m.messagesDeleted.Inc()
}

func (m *MetricsProvider) IncThrottled() {
	m.throttled.Inc()
}

func (m *MetricsProvider) ObservePersistenceDuration(duration time.Duration) {
	m.persistenceDuration.Observe(duration.Seconds())
}

func httpStatusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

func NewMetricsProvider(conf *structures.Config, service ChatStatsInterface) MetricsProviderInterface {
	if !conf.Metrics.Enabled {
		return &noopMetrics{}
	}

	m := &MetricsProvider{
		requestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "anonchat_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"endpoint", "status"}),

		requestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "anonchat_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),

		cacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "anonchat_cache_hits_total",
			Help: "Total number of listing cache hits",
		}),

		cacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "anonchat_cache_misses_total",
			Help: "Total number of listing cache misses",
		}),

		messagesSent: promauto.NewCounter(prometheus.CounterOpts{
			Name: "anonchat_messages_sent_total",
			Help: "Total number of accepted messages",
		}),

		messagesEdited: promauto.NewCounter(prometheus.CounterOpts{
			Name: "anonchat_messages_edited_total",
			Help: "Total number of successful message edits",
		}),

		messagesDeleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "anonchat_messages_deleted_total",
			Help: "Total number of deleted messages",
		}),

		throttled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "anonchat_throttled_total",
			Help: "Total number of sends rejected by the cooldown gate",
		}),

		persistenceDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "anonchat_persistence_duration_seconds",
			Help:    "Duration of backup persistence operations in seconds",
			Buckets: prometheus.DefBuckets,
		}),
	}

	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "anonchat_pages_total",
		Help: "Current number of message page files",
	}, func() float64 {
		return float64(service.Pages())
	})

	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "anonchat_profiles_total",
		Help: "Current number of stored profiles",
	}, func() float64 {
		return float64(service.Profiles())
	})

	return m
}

// noopMetrics is a no-op implementation for when metrics are disabled.
type noopMetrics struct{}

func (n *noopMetrics) IncRequestsTotal(_ string, _ int)                 {}
func (n *noopMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (n *noopMetrics) IncCacheHits()                                    {}
func (n *noopMetrics) IncCacheMisses()                                  {}
func (n *noopMetrics) IncMessagesSent()                                 {}
func (n *noopMetrics) IncMessagesEdited()                               {}
func (n *noopMetrics) IncMessagesDeleted()                              {}
func (n *noopMetrics) IncThrottled()                                    {}
func (n *noopMetrics) ObservePersistenceDuration(_ time.Duration)       {}
