package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	reqCnt = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cjms",
			Name:      "req_total",
			Help:      "How many HTTP requests processed, partitioned by status code, method and path.",
		},
		[]string{"code", "method", "path"},
	)
	reqDur = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cjms",
			Name:      "req_dur_ms",
			Help:      "The HTTP request latencies in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		},
		[]string{"code", "method", "path"},
	)
)

func init() {
	prometheus.MustRegister(reqCnt, reqDur)
}

const metricsPath = "/metrics"

// Use mounts the request middleware and the /metrics endpoint on the engine.
func Use(e *gin.Engine) {
	e.Use(handlerFunc())
	e.GET(metricsPath, gin.WrapH(promhttp.Handler()))
}

func handlerFunc() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == metricsPath {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		// Use the route template so path params do not explode cardinality.
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		elapsed := float64(time.Since(start).Milliseconds())
		reqCnt.WithLabelValues(status, c.Request.Method, path).Inc()
		reqDur.WithLabelValues(status, c.Request.Method, path).Observe(elapsed)
	}
}
