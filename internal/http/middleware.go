package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/quantumauth-io/quantum-go-utils/log"
)

const requestIDHeader = "X-Request-ID"

// requestLog tags each request with an id and logs it once it finished.
func requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)

		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		took := time.Since(start).String()
		if status >= http.StatusInternalServerError {
			log.Error("request failed", "id", id, "method", c.Request.Method, "path", c.FullPath(), "status", status, "took", took)
			return
		}
		log.Info("request", "id", id, "method", c.Request.Method, "path", c.FullPath(), "status", status, "took", took)
	}
}

func limitBody(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		}
		c.Next()
	}
}
