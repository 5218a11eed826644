package response

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/SrFreiRe/oPortal/pkg/apperr"
)

// APIResponse is the uniform JSON envelope for every endpoint.
type APIResponse[T any] struct {
	Status    int         `json:"status"`
	Timestamp time.Time   `json:"timestamp"`
	RequestID string      `json:"request_id"`
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Data      T           `json:"data,omitempty"`
	Meta      interface{} `json:"meta,omitempty"`
	Error     interface{} `json:"error,omitempty"`
}

// Success writes a success envelope with the given status.
func Success[T any](ctx *gin.Context, status int, data T, message string, meta interface{}) {
	if status == 0 {
		status = http.StatusOK
	}
	ctx.JSON(status, APIResponse[T]{
		Status:    status,
		Timestamp: time.Now(),
		RequestID: ctx.GetString("request_id"),
		Success:   true,
		Message:   message,
		Data:      data,
		Meta:      meta,
	})
}

// Error writes an error envelope with the given status.
func Error[T any](ctx *gin.Context, status int, message string, err interface{}) {
	if status == 0 {
		status = http.StatusBadRequest
	}
	ctx.JSON(status, APIResponse[T]{
		Status:    status,
		Timestamp: time.Now(),
		RequestID: ctx.GetString("request_id"),
		Success:   false,
		Message:   message,
		Error:     err,
	})
}

// AbortError writes an error envelope and aborts the handler chain; used by
// middleware.
func AbortError(ctx *gin.Context, status int, message string, err interface{}) {
	Error[any](ctx, status, message, err)
	ctx.Abort()
}

// FromError maps a workflow error onto the envelope. Internal faults are
// logged in full; in production the caller only sees the generic message,
// in development the underlying cause is echoed for convenience.
func FromError(ctx *gin.Context, err error, production bool, logger *logrus.Logger) {
	ae := apperr.From(err)
	var detail interface{}
	if ae.Status == http.StatusInternalServerError {
		if logger != nil {
			logger.WithError(ae.Err).WithField("request_id", ctx.GetString("request_id")).Error("internal error")
		}
		if !production && ae.Err != nil {
			detail = ae.Err.Error()
		}
	}
	Error[any](ctx, ae.Status, ae.Message, detail)
}
