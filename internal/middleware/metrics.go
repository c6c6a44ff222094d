package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/tutor-portal/internal/metrics"
)

// Metrics records request count, duration and in-flight requests, labelled
// by route template so ids do not explode cardinality.
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		m.RequestsInFlight.Inc()
		start := time.Now()
		defer func() {
			m.RequestsInFlight.Dec()
			m.RequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
			m.RequestCounter.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		}()

		c.Next()
	}
}
