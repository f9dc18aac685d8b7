package middleware

import (
	"bytes"
	"encoding/json"
	"html"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"

	"vineyard-api/internal/api/httpx"
)

// SanitizeAndCleanInputMiddleware strips markup from every string in a JSON
// body, nested objects and arrays included. Passwords and base64 payloads are
// left alone; non-JSON bodies such as multipart uploads pass through.
func SanitizeAndCleanInputMiddleware() gin.HandlerFunc {
	policy := bluemonday.StrictPolicy()
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost &&
			c.Request.Method != http.MethodPut &&
			c.Request.Method != http.MethodPatch {
			c.Next()
			return
		}
		if c.ContentType() != gin.MIMEJSON || c.Request.Body == nil {
			c.Next()
			return
		}

		buf, err := io.ReadAll(c.Request.Body)
		if err != nil {
			httpx.BadRequest(c, "Invalid body")
			return
		}
		if len(bytes.TrimSpace(buf)) == 0 {
			c.Request.Body = io.NopCloser(bytes.NewReader(buf))
			c.Next()
			return
		}

		dec := json.NewDecoder(bytes.NewReader(buf))
		dec.UseNumber()
		var body interface{}
		if err := dec.Decode(&body); err != nil {
			httpx.BadRequest(c, "Malformed JSON")
			return
		}

		newBody, err := json.Marshal(clean(policy, "", body))
		if err != nil {
			httpx.BadRequest(c, "Malformed JSON")
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(newBody))
		c.Request.ContentLength = int64(len(newBody))
		c.Next()
	}
}

func clean(policy *bluemonday.Policy, key string, v interface{}) interface{} {
	switch val := v.(type) {
	case string:
		if skipKey(key) {
			return val
		}
		return html.UnescapeString(policy.Sanitize(val))
	case map[string]interface{}:
		for k, inner := range val {
			val[k] = clean(policy, k, inner)
		}
		return val
	case []interface{}:
		for i, inner := range val {
			val[i] = clean(policy, key, inner)
		}
		return val
	default:
		return v
	}
}

func skipKey(key string) bool {
	k := strings.ToLower(key)
	return strings.Contains(k, "password") || strings.HasSuffix(k, "_base64")
}
