package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/smartstudy-backend/internal/platform/ctxutil"
)

func serveTraced(t *testing.T, headers map[string]string) (*httptest.ResponseRecorder, *ctxutil.TraceData) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	var seen *ctxutil.TraceData
	r := gin.New()
	r.Use(AttachTraceContext())
	r.GET("/ping", func(c *gin.Context) {
		seen = ctxutil.GetTraceData(c.Request.Context())
		c.Status(http.StatusNoContent)
	})
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w, seen
}

func TestAttachTraceContextKeepsClientIDs(t *testing.T) {
	w, td := serveTraced(t, map[string]string{headerRequestID: "req-42", headerTraceID: "trace.abc_1"})

	require.NotNil(t, td)
	assert.Equal(t, "req-42", td.RequestID)
	assert.Equal(t, "trace.abc_1", td.TraceID)
	assert.Equal(t, "req-42", w.Header().Get(headerRequestID))
	assert.Equal(t, "trace.abc_1", w.Header().Get(headerTraceID))
}

func TestAttachTraceContextReplacesUnsafeIDs(t *testing.T) {
	w, td := serveTraced(t, map[string]string{
		headerRequestID: "bad id\twith spaces",
		headerTraceID:   strings.Repeat("x", maxClientIDLen+1),
	})

	require.NotNil(t, td)
	assert.NotEqual(t, "bad id\twith spaces", td.RequestID)
	assert.Len(t, td.RequestID, 36)
	assert.Equal(t, td.RequestID, td.TraceID)
	assert.Equal(t, td.TraceID, w.Header().Get(headerTraceID))
}
