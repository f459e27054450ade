package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/qc-audit-service/internal/adapters/http/dto"
)

// MsgBodyTooLarge is returned for bodies over the limit.
const MsgBodyTooLarge = "Request body exceeds maximum allowed size"

// BodyLimit returns middleware that caps request bodies at maxBytes.
// Multipart uploads are capped at uploadBytes instead, with a little room
// for the form fields around the file. Declared oversize bodies are
// rejected with 413 before they are read.
func BodyLimit(maxBytes, uploadBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := maxBytes
		if strings.HasPrefix(c.ContentType(), "multipart/") && uploadBytes > maxBytes {
			limit = uploadBytes + maxBytes
		}

		if c.Request.ContentLength > limit {
			dto.AbortWithStatus(c, http.StatusRequestEntityTooLarge, MsgBodyTooLarge)
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}
