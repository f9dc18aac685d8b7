// Package httpx holds the response envelope and request parsing helpers
// shared by the API handlers.
package httpx

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"vineyard-api/internal/apperr"
)

type ErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// Error writes err with the status its kind maps to. Internal failures are
// reported without their cause.
func Error(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	status := apperr.HTTPStatus(kind)
	msg := err.Error()
	code := apperr.CodeOf(err)
	if kind == apperr.KindInternal || kind == apperr.KindDataIntegrity {
		_ = c.Error(err)
		msg = http.StatusText(status)
		if code == "" {
			code = string(apperr.KindInternal)
		}
	}
	c.AbortWithStatusJSON(status, ErrorBody{Error: msg, Code: code})
}

// BadRequest reports a request the handler could not parse.
func BadRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorBody{Error: msg, Code: apperr.CodeInvalidInput})
}

func Unauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorBody{Error: msg, Code: "unauthorized"})
}

func Forbidden(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusForbidden, ErrorBody{Error: msg, Code: "forbidden"})
}
