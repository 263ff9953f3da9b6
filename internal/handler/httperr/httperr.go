package httperr

import (
	"log/slog"
	"net/http"

	"fleetbook/internal/pkg/errs"

	"github.com/gin-gonic/gin"
)

// Response is the error body every endpoint returns. Message is safe to show
// customers; the underlying error stays on the gin error stack.
type Response struct {
	Status int `json:"-"`
	Error  struct {
		Message string `json:"message"`
	} `json:"error"`
	Detail any `json:"detail,omitempty"`
}

// AbortWithError writes the error response and records err on the context.
// Server-side failures get their stack logged here since nothing downstream
// sees the original error.
func AbortWithError(c *gin.Context, status int, err error, msg string, detail any) {
	if err == nil {
		panic("AbortWithError: err cannot be nil")
	}

	resp := Response{Status: status}
	resp.Error.Message = msg
	resp.Detail = detail

	if status >= http.StatusInternalServerError {
		slog.Error("request failed",
			"path", c.Request.URL.Path,
			"status", status,
			"error", err.Error(),
			"stack", errs.ExtractStackLines(err, 10))
	}

	_ = c.Error(gin.Error{
		Err:  err,
		Type: gin.ErrorTypePublic,
		Meta: resp,
	})
	c.AbortWithStatusJSON(status, resp)
}
