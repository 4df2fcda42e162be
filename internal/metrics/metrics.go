package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/emilythestrangee/forum/backend/internal/models"
)

// Metrics holds the forum's Prometheus collectors.
type Metrics struct {
	gatherer prometheus.Gatherer

	votes    *prometheus.CounterVec
	comments prometheus.Counter
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		gatherer: reg,
		votes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "forum",
			Name:      "votes_cast_total",
			Help:      "Votes committed, by target kind and direction.",
		}, []string{"kind", "direction"}),
		comments: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "forum",
			Name:      "comments_created_total",
			Help:      "Comments created.",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "forum",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "forum",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	reg.MustRegister(m.votes, m.comments, m.requests, m.latency)
	return m
}

// VoteCast implements voting.Observer.
func (m *Metrics) VoteCast(kind models.TargetKind, voteType models.VoteType) {
	direction := "up"
	if voteType == models.Downvote {
		direction = "down"
	}
	m.votes.WithLabelValues(string(kind), direction).Inc()
}

func (m *Metrics) CommentCreated() {
	m.comments.Inc()
}

// Middleware records request counts and latency per matched route.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.latency.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
