package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	corsMethods = "GET, POST, PUT, DELETE, OPTIONS"
	corsHeaders = "Authorization, Content-Type, X-Request-Id"
	// Content-Disposition must be readable for the export download
	corsExposed = "X-Request-Id, Content-Disposition"
	corsMaxAge  = "600"
)

// CORS grants cross-origin access to the origins in the allowlist; an
// empty allowlist means any origin. Disallowed origins get a plain
// response with no CORS headers, which the browser then rejects.
func CORS(allowlist []string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(allowlist))
	for _, origin := range allowlist {
		trimmed := strings.TrimSpace(strings.TrimSuffix(origin, "/"))
		if trimmed == "" {
			continue
		}
		allowed[trimmed] = struct{}{}
	}
	allowAll := len(allowed) == 0
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		header := c.Writer.Header()
		granted := false
		switch {
		case origin == "":
		case allowAll:
			header.Set("Access-Control-Allow-Origin", "*")
			granted = true
		default:
			header.Add("Vary", "Origin")
			if _, ok := allowed[strings.TrimSuffix(origin, "/")]; ok {
				header.Set("Access-Control-Allow-Origin", origin)
				granted = true
			}
		}
		if granted {
			header.Set("Access-Control-Allow-Methods", corsMethods)
			header.Set("Access-Control-Allow-Headers", corsHeaders)
			header.Set("Access-Control-Expose-Headers", corsExposed)
		}
		if c.Request.Method == http.MethodOptions {
			if granted {
				header.Set("Access-Control-Max-Age", corsMaxAge)
			}
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
