package http

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/datptitudu2/backendthuvienptit/internal/activity"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
	maxRequestIDLen = 64
)

// RequestMetaMiddleware tags every request with an id, echoed in the
// X-Request-ID response header, and stores the caller's address, user agent
// and that id on the request context for the activity trail.
func RequestMetaMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" || len(id) > maxRequestIDLen {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)

		ctx := activity.WithRequestMeta(c.Request.Context(), activity.RequestMeta{
			IPAddress: c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
			RequestID: id,
		})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
