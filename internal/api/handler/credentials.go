package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// credentials extracts the session id and auth token of a request. They come
// from a signed credential (Authorization: Bearer, or the "c" parameter) or
// from the raw "h" and "k" parameters. A credential that fails verification
// yields empty values.
func (h *Handler) credentials(c *gin.Context) (id, token string) {
	raw := ""
	if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
		raw = strings.TrimPrefix(header, "Bearer ")
	} else if v := param(c, "c"); v != "" {
		raw = v
	}

	if raw != "" {
		var err error
		if id, token, err = h.Signer.Parse(raw); err != nil {
			h.Log.Debug("credential rejected")
			return "", ""
		}
		return id, token
	}
	return param(c, "h"), param(c, "k")
}

// param reads a value from the query string or, failing that, the form body.
func param(c *gin.Context, key string) string {
	if v, ok := c.GetQuery(key); ok {
		return v
	}
	return c.PostForm(key)
}
