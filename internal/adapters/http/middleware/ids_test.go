package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

const uuidV4Pattern = `^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`

func init() {
	gin.SetMode(gin.TestMode)
}

func TestIDMiddleware(t *testing.T) {
	t.Parallel()

	kinds := []struct {
		name       string
		middleware gin.HandlerFunc
		header     string
		fromGin    func(*gin.Context) string
		fromCtx    func(context.Context) string
	}{
		{"request id", RequestID(), HeaderRequestID, GetRequestID, RequestIDFromContext},
		{"correlation id", CorrelationID(), HeaderCorrelationID, GetCorrelationID, CorrelationIDFromContext},
	}

	for _, kind := range kinds {
		t.Run(kind.name, func(t *testing.T) {
			t.Parallel()

			for _, incoming := range []string{"", "upstream-7f3a"} {
				var ginID, ctxID string

				router := gin.New()
				router.Use(kind.middleware)
				router.GET("/test", func(c *gin.Context) {
					ginID = kind.fromGin(c)
					ctxID = kind.fromCtx(c.Request.Context())
					c.Status(http.StatusOK)
				})

				req := httptest.NewRequest(http.MethodGet, "/test", nil)
				if incoming != "" {
					req.Header.Set(kind.header, incoming)
				}

				w := httptest.NewRecorder()
				router.ServeHTTP(w, req)

				assert.Equal(t, http.StatusOK, w.Code)
				assert.Equal(t, w.Header().Get(kind.header), ginID)
				assert.Equal(t, ginID, ctxID)

				if incoming == "" {
					assert.Regexp(t, uuidV4Pattern, ginID)
				} else {
					assert.Equal(t, incoming, ginID)
				}
			}
		})
	}
}

func TestIDMiddleware_ReplacesUnusableIDs(t *testing.T) {
	t.Parallel()

	for _, incoming := range []string{strings.Repeat("a", maxIDLength+1), "id with spaces", "line\nbreak"} {
		router := gin.New()
		router.Use(RequestID())
		router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header[HeaderRequestID] = []string{incoming}

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Regexp(t, uuidV4Pattern, w.Header().Get(HeaderRequestID), "incoming %q", incoming)
	}
}

func TestGetIDs_NotSet(t *testing.T) {
	t.Parallel()

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Set(ContextKeyCorrelationID, 42)

	assert.Empty(t, GetRequestID(c))
	assert.Empty(t, GetCorrelationID(c))
	assert.Empty(t, RequestIDFromContext(context.Background()))
	assert.Empty(t, CorrelationIDFromContext(context.Background()))
}

func TestContextIDs_Independent(t *testing.T) {
	t.Parallel()

	ctx := ContextWithRequestID(context.Background(), "req-1")
	ctx = ContextWithCorrelationID(ctx, "corr-1")

	assert.Equal(t, "req-1", RequestIDFromContext(ctx))
	assert.Equal(t, "corr-1", CorrelationIDFromContext(ctx))
}
