package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

// RequestObserver is satisfied by metrics.Collector.
type RequestObserver interface {
	ObserveRequest(method, route string, status int, d time.Duration)
}

// Metrics records request latency labelled by the matched route pattern.
func Metrics(obs RequestObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		obs.ObserveRequest(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}
