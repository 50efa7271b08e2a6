package monitoring

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func TestMetricsCollectorExposesCacheSizes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mc := NewMetricsCollector("monitoring-test", "v1", "abc")
	mc.TrackCacheSize("conversations", func() int { return 3 })
	hooks := mc.CacheHooks()
	hooks.OnHit(map[string]string{"cache": "intents", "key": "intent_oi"})

	r := gin.New()
	r.Use(mc.MetricsMiddleware())
	r.GET("/metrics", mc.Handler())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	w := httptest.NewRecorder()
	req, _ := http.NewRequestWithContext(context.Background(), "GET", "/ping", nil)
	r.ServeHTTP(w, req)

	w = httptest.NewRecorder()
	req, _ = http.NewRequestWithContext(context.Background(), "GET", "/metrics", nil)
	r.ServeHTTP(w, req)

	body := w.Body.String()
	if !strings.Contains(body, `monitoring_test_cache_entries{cache="conversations"} 3`) {
		t.Fatalf("expected cache gauge in output")
	}
	if !strings.Contains(body, `monitoring_test_cache_events_total{cache="intents",event="hit"} 1`) {
		t.Fatalf("expected cache event counter in output")
	}
	if !strings.Contains(body, `monitoring_test_http_requests_total{endpoint="/ping",method="GET",status="200"} 1`) {
		t.Fatalf("expected request counter in output")
	}
}

func TestCacheHooksCountByCacheName(t *testing.T) {
	mc := NewMetricsCollector("monitoring-hooks-test", "v2", "def")
	hooks := mc.CacheHooks()
	hooks.OnMiss(map[string]string{"cache": "data", "key": "https://loja.example/a"})
	hooks.OnStore(map[string]string{"cache": "data", "key": "https://loja.example/a"})
	hooks.OnHit(map[string]string{"cache": "data", "key": "https://loja.example/a"})
	hooks.OnHit(map[string]string{"cache": "data", "key": "https://loja.example/b"})
	hooks.OnExpire(map[string]string{"cache": "conversations", "key": "c1_default"})

	if got := testutil.ToFloat64(mc.cacheEvents.WithLabelValues("data", "hit")); got != 2 {
		t.Fatalf("expected 2 hits on data, got %v", got)
	}
	if got := testutil.ToFloat64(mc.cacheEvents.WithLabelValues("conversations", "expire")); got != 1 {
		t.Fatalf("expected 1 expiry on conversations, got %v", got)
	}
	if n := testutil.CollectAndCount(mc.cacheEvents); n != 4 {
		t.Fatalf("expected 4 label sets, got %d", n)
	}

	var m dto.Metric
	if err := mc.serviceInfo.WithLabelValues("v2", "def").Write(&m); err != nil {
		t.Fatalf("write service info: %v", err)
	}
	if m.GetGauge().GetValue() != 1 {
		t.Fatalf("expected service info gauge at 1, got %v", m.GetGauge().GetValue())
	}
}
