package httpapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/luminary-catalog/luminary/internal/common"
	"github.com/luminary-catalog/luminary/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestID(t *testing.T) {
	var seen string
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) {
		seen = logging.RequestIDFromContext(c.Request.Context())
		c.Status(http.StatusOK)
	})

	t.Run("generated", func(t *testing.T) {
		w := doJSON(t, r, http.MethodGet, "/", nil, nil)
		got := w.Header().Get(common.RequestIDHeaderName)
		_, err := uuid.Parse(got)
		require.NoError(t, err)
		assert.Equal(t, got, seen)
	})

	t.Run("propagated", func(t *testing.T) {
		w := doJSON(t, r, http.MethodGet, "/", nil, map[string]string{common.RequestIDHeaderName: "req-42"})
		assert.Equal(t, "req-42", w.Header().Get(common.RequestIDHeaderName))
		assert.Equal(t, "req-42", seen)
	})

	t.Run("uuid propagated", func(t *testing.T) {
		id := "6f1c2a9e-3b7d-4c1e-9a55-0d2b8e7f4a10"
		w := doJSON(t, r, http.MethodGet, "/", nil, map[string]string{common.RequestIDHeaderName: id})
		assert.Equal(t, id, w.Header().Get(common.RequestIDHeaderName))
	})

	for name, bad := range map[string]string{
		"too long":      strings.Repeat("a", 65),
		"spaces":        "req 42",
		"log injection": `req" level=ERROR msg="forged`,
		"control chars": "req\x01\x7f",
	} {
		t.Run("replaced when "+name, func(t *testing.T) {
			w := doJSON(t, r, http.MethodGet, "/", nil, map[string]string{common.RequestIDHeaderName: bad})
			got := w.Header().Get(common.RequestIDHeaderName)
			assert.NotEqual(t, bad, got)
			_, err := uuid.Parse(got)
			require.NoError(t, err)
			assert.Equal(t, got, seen)
		})
	}
}

func TestCORS(t *testing.T) {
	newEngine := func(origins ...string) *gin.Engine {
		r := gin.New()
		r.Use(CORS(origins))
		r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })
		return r
	}

	t.Run("allowed origin", func(t *testing.T) {
		w := doJSON(t, newEngine("http://localhost:5173"), http.MethodGet, "/", nil,
			map[string]string{"Origin": "http://localhost:5173"})
		assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
		assert.Equal(t, "Origin", w.Header().Get("Vary"))
	})

	t.Run("other origin", func(t *testing.T) {
		w := doJSON(t, newEngine("http://localhost:5173"), http.MethodGet, "/", nil,
			map[string]string{"Origin": "http://evil.example"})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("wildcard", func(t *testing.T) {
		w := doJSON(t, newEngine("*"), http.MethodGet, "/", nil,
			map[string]string{"Origin": "http://anything.example"})
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("preflight", func(t *testing.T) {
		w := doJSON(t, newEngine("http://localhost:5173"), http.MethodOptions, "/", nil,
			map[string]string{"Origin": "http://localhost:5173"})
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), common.AuthorizationHeaderName)
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), http.MethodPatch)
	})
}

func TestHTTPMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewHTTPMetrics(reg)
	require.NoError(t, err)

	r := gin.New()
	r.Use(m.Handler())
	r.GET("/genres/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 3; i++ {
		doJSON(t, r, http.MethodGet, "/genres/"+genreUUID, nil, nil)
	}
	doJSON(t, r, http.MethodGet, "/nowhere", nil, nil)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.Requests.WithLabelValues(http.MethodGet, "/genres/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues(http.MethodGet, "unmatched", "404")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.InFlight))

	// Route templates, not raw paths, keep cardinality bounded.
	assert.Equal(t, 2, testutil.CollectAndCount(m.Requests))
}

func TestHTTPMetrics_RegisterTwiceReusesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()

	first, err := NewHTTPMetrics(reg)
	require.NoError(t, err)
	second, err := NewHTTPMetrics(reg)
	require.NoError(t, err)

	assert.Same(t, first.Requests, second.Requests)
	assert.Same(t, first.Duration, second.Duration)
}

func TestHTTPMetrics_NilIsNoop(t *testing.T) {
	var m *HTTPMetrics
	r := gin.New()
	r.Use(m.Handler())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := doJSON(t, r, http.MethodGet, "/", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewHTTPMetrics(reg)
	require.NoError(t, err)

	r := testRouter(Dependencies{Metrics: m, Gatherer: reg})
	doJSON(t, r, http.MethodGet, "/health", nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "luminary_http_requests_total"))
}
