package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"
)

// SanitizeFields strips all markup from the named top-level string fields
// of a JSON body. Other fields pass through untouched: the editor form
// carries raw HTML that the renderer filters on output instead.
func SanitizeFields(names ...string) gin.HandlerFunc {
	policy := bluemonday.StrictPolicy()
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost &&
			c.Request.Method != http.MethodPut &&
			c.Request.Method != http.MethodPatch {
			c.Next()
			return
		}

		buf, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid body"})
			return
		}
		if len(bytes.TrimSpace(buf)) == 0 {
			c.Request.Body = io.NopCloser(bytes.NewReader(buf))
			c.Next()
			return
		}

		var body map[string]json.RawMessage
		if err := json.Unmarshal(buf, &body); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Malformed JSON"})
			return
		}

		changed := false
		for _, name := range names {
			raw, ok := body[name]
			if !ok {
				continue
			}
			var str string
			if json.Unmarshal(raw, &str) != nil {
				continue
			}
			clean, _ := json.Marshal(policy.Sanitize(str))
			body[name] = clean
			changed = true
		}

		if changed {
			buf, _ = json.Marshal(body)
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(buf))
		c.Request.ContentLength = int64(len(buf))

		c.Next()
	}
}
