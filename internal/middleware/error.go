package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/clinic-api/pkg/httputil"
)

// ErrorHandler logs errors recorded by handlers. Handlers normally write the
// response themselves; an error left without a response becomes a 500.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		requestID := c.GetString(ContextRequestID)
		for _, e := range c.Errors {
			event := log.Warn()
			if c.Writer.Status() >= http.StatusInternalServerError {
				event = log.Error()
			}
			event.
				Err(e.Err).
				Str("request_id", requestID).
				Str("path", c.Request.URL.Path).
				Str("method", c.Request.Method).
				Int("status", c.Writer.Status()).
				Msg("Request error")
		}

		if c.Writer.Written() {
			return
		}
		c.JSON(http.StatusInternalServerError, httputil.ErrorResponse{
			Code:    http.StatusInternalServerError,
			Error:   "internal server error",
			TraceID: requestID,
		})
	}
}
