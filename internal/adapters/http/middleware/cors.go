package middleware

import (
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/qc-audit-service/internal/platform/telemetry"
)

// CORSConfig configures cross-origin access for the browser frontend.
type CORSConfig struct {
	AllowOrigins []string
	MaxAge       time.Duration
}

var (
	corsAllowMethods  = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	corsAllowHeaders  = []string{"Content-Type", "Accept", "Origin", HeaderRequestID, HeaderCorrelationID}
	corsExposeHeaders = []string{HeaderRequestID, HeaderCorrelationID, telemetry.HeaderTraceID}
)

// CORS returns middleware that admits the configured origins with
// credentials, so the session cookies travel with cross-origin requests.
// The matching origin is echoed back; "*" admits every origin but still
// echoes it, as browsers refuse a literal "*" with credentials. Preflight
// requests end here with 204 whether or not the origin is allowed.
func CORS(cfg CORSConfig) gin.HandlerFunc {
	allowAll := slices.Contains(cfg.AllowOrigins, "*")

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		allowed := origin != "" && (allowAll || slices.Contains(cfg.AllowOrigins, origin))

		if allowed {
			h := c.Writer.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Add("Vary", "Origin")
			h.Set("Access-Control-Expose-Headers", strings.Join(corsExposeHeaders, ", "))
		}

		if c.Request.Method != http.MethodOptions {
			c.Next()
			return
		}

		if allowed {
			h := c.Writer.Header()
			h.Set("Access-Control-Allow-Methods", strings.Join(corsAllowMethods, ", "))
			h.Set("Access-Control-Allow-Headers", strings.Join(corsAllowHeaders, ", "))

			if cfg.MaxAge > 0 {
				h.Set("Access-Control-Max-Age", strconv.Itoa(int(cfg.MaxAge.Seconds())))
			}
		}

		c.AbortWithStatus(http.StatusNoContent)
	}
}
