package httpx

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// ID parses the named path parameter as a positive id. On failure the
// response is already written.
func ID(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		BadRequest(c, "invalid "+name)
		return 0, false
	}
	return uint(v), true
}

// QueryID is ID for a query-string parameter.
func QueryID(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Query(name), 10, 64)
	if err != nil || v == 0 {
		BadRequest(c, "invalid "+name)
		return 0, false
	}
	return uint(v), true
}

// Window reads skip and limit from the query string. Missing or malformed
// values fall back to zero, which the repositories treat as defaults.
func Window(c *gin.Context) (skip, limit int) {
	skip, _ = strconv.Atoi(c.Query("skip"))
	limit, _ = strconv.Atoi(c.Query("limit"))
	return skip, limit
}

// ParseBool accepts the spellings HTML forms and query strings use.
func ParseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "t", "yes", "y", "on":
		return true, true
	case "0", "false", "f", "no", "n", "off":
		return false, true
	}
	return false, false
}
