package monitoring

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/porramano/linkmagico-v6-prod-final-v2/pkg/cache"
)

// MetricsCollector manages the HTTP-level Prometheus metrics for a service
type MetricsCollector struct {
	serviceName string

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	activeConnections   prometheus.Gauge
	serviceInfo         *prometheus.GaugeVec
	cacheEntries        *prometheus.GaugeVec
	cacheEvents         *prometheus.CounterVec
	cacheSizes          map[string]func() int
}

// NewMetricsCollector registers the standard metrics on the default registry.
// Call it once per process.
func NewMetricsCollector(serviceName, version, commit string) *MetricsCollector {
	sanitizedServiceName := strings.ReplaceAll(serviceName, "-", "_")

	mc := &MetricsCollector{
		serviceName: sanitizedServiceName,
		cacheSizes:  make(map[string]func() int),
	}

	mc.httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: mc.serviceName + "_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	mc.httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    mc.serviceName + "_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	mc.activeConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: mc.serviceName + "_active_connections",
			Help: "Number of active connections",
		},
	)

	mc.serviceInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: mc.serviceName + "_service_info",
			Help: "Service information",
		},
		[]string{"version", "commit"},
	)

	mc.cacheEntries = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: mc.serviceName + "_cache_entries",
			Help: "Entries held per in-process cache, sampled at scrape time",
		},
		[]string{"cache"},
	)

	mc.cacheEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: mc.serviceName + "_cache_events_total",
			Help: "Cache hits, misses, stores and expirations",
		},
		[]string{"cache", "event"},
	)

	prometheus.MustRegister(mc.httpRequestsTotal)
	prometheus.MustRegister(mc.httpRequestDuration)
	prometheus.MustRegister(mc.activeConnections)
	prometheus.MustRegister(mc.serviceInfo)
	prometheus.MustRegister(mc.cacheEntries)
	prometheus.MustRegister(mc.cacheEvents)

	mc.serviceInfo.WithLabelValues(version, commit).Set(1)

	return mc
}

// TrackCacheSize samples fn into the cache_entries gauge on every scrape.
func (mc *MetricsCollector) TrackCacheSize(name string, fn func() int) {
	mc.cacheSizes[name] = fn
}

// CacheHooks counts cache events by the cache's name. Keys are not used as
// labels.
func (mc *MetricsCollector) CacheHooks() cache.MetricsHooks {
	count := func(event string) func(map[string]string) {
		return func(labels map[string]string) {
			mc.cacheEvents.WithLabelValues(labels["cache"], event).Inc()
		}
	}
	return cache.MetricsHooks{
		OnHit:    count("hit"),
		OnMiss:   count("miss"),
		OnStore:  count("store"),
		OnExpire: count("expire"),
	}
}

// MetricsMiddleware returns middleware that collects HTTP metrics
func (mc *MetricsCollector) MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		mc.activeConnections.Inc()
		defer mc.activeConnections.Dec()

		c.Next()

		duration := time.Since(start).Seconds()
		method := c.Request.Method
		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unknown"
		}
		status := strconv.Itoa(c.Writer.Status())

		mc.httpRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
		mc.httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration)
	}
}

// Handler returns the Prometheus metrics HTTP handler
func (mc *MetricsCollector) Handler() gin.HandlerFunc {
	handler := promhttp.Handler()
	return func(c *gin.Context) {
		for name, fn := range mc.cacheSizes {
			mc.cacheEntries.WithLabelValues(name).Set(float64(fn()))
		}
		handler.ServeHTTP(c.Writer, c.Request)
	}
}
