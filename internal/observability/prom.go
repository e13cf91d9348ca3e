package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "modelhub"

// Prom holds every collector the service exports.
type Prom struct {
	RequestsTotal    *prometheus.CounterVec   // method, route, model, status
	RequestsDuration *prometheus.HistogramVec // method, route, model
	InFlight         prometheus.Gauge

	DbQueryDuration *prometheus.HistogramVec // table, op, status
	DbErrorsTotal   *prometheus.CounterVec   // table, op, class

	AuthFailuresTotal *prometheus.CounterVec // scheme, reason
}

func NewProm(reg prometheus.Registerer) *Prom {
	p := &Prom{
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route, model and status.",
		}, []string{"method", "route", "model", "status"}),

		RequestsDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route and model.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}, []string{"method", "route", "model"}),

		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Requests currently being served.",
		}),

		DbQueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "query_duration_seconds",
			Help:      "Latency of logical store operations.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2.5, 10),
		}, []string{"table", "op", "status"}),

		DbErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "errors_total",
			Help:      "Failed store operations by error class.",
		}, []string{"table", "op", "class"}),

		AuthFailuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "failures_total",
			Help:      "Rejected requests by auth scheme and reason.",
		}, []string{"scheme", "reason"}),
	}

	reg.MustRegister(
		p.RequestsTotal,
		p.RequestsDuration,
		p.InFlight,
		p.DbQueryDuration,
		p.DbErrorsTotal,
		p.AuthFailuresTotal,
	)

	return p
}

// AuthFailure satisfies middlewares.FailureRecorder.
func (p *Prom) AuthFailure(scheme, reason string) {
	p.AuthFailuresTotal.WithLabelValues(scheme, reason).Inc()
}

// GinHandleMiddleware records one sample per request under the route
// template, so /api/v1/food/<id> and /api/v1/food/<other> share a series.
func (p *Prom) GinHandleMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		p.InFlight.Inc()
		defer p.InFlight.Dec()

		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		model := modelLabel(c.Param("model"), status)

		p.RequestsTotal.WithLabelValues(c.Request.Method, route, model, strconv.Itoa(status)).Inc()
		p.RequestsDuration.WithLabelValues(c.Request.Method, route, model).Observe(time.Since(start).Seconds())
	}
}

// Unregistered model names would make the label unbounded, and those
// requests end in 404.
func modelLabel(model string, status int) string {
	if status == http.StatusNotFound {
		return ""
	}
	return model
}
