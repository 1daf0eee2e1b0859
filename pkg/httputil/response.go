package httputil

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/validator"
)

// Response wraps API responses that return a resource
type Response struct {
	OK   bool        `json:"ok"`
	Data interface{} `json:"data,omitempty"`
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	OK      bool                   `json:"ok"`
	Code    int                    `json:"code"`
	Error   string                 `json:"error"`
	Fields  []validator.FieldError `json:"fields,omitempty"`
	TraceID string                 `json:"trace_id,omitempty"`
}

// RespondWithSuccess sends a 200 with data
func RespondWithSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		OK:   true,
		Data: data,
	})
}

// RespondWithError sends an error response and records err on the context
// for the error logging middleware. Errors that are not an AppError are
// reported as 500 without their message.
func RespondWithError(c *gin.Context, err error) {
	body := ErrorResponse{
		Code:    http.StatusInternalServerError,
		Error:   "internal server error",
		TraceID: c.GetString("request_id"),
	}

	if appErr, ok := errors.As(err); ok {
		body.Code = appErr.StatusCode()
		body.Error = appErr.Error()
		if verrs, ok := appErr.Err.(validator.Errors); ok {
			body.Fields = verrs
		}
	}
	_ = c.Error(err)

	c.AbortWithStatusJSON(body.Code, body)
}
