package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace/noop"
)

// setupTestTracer installs a recording tracer provider for the duration of
// the test and returns its span recorder.
func setupTestTracer(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	t.Cleanup(func() {
		_ = tp.Shutdown(t.Context())
	})

	return sr
}

func findSpan(sr *tracetest.SpanRecorder, name string) sdktrace.ReadOnlySpan {
	for _, span := range sr.Ended() {
		if span.Name() == name {
			return span
		}
	}
	return nil
}

func spanAttribute(span sdktrace.ReadOnlySpan, key string) (string, bool) {
	for _, attr := range span.Attributes() {
		if string(attr.Key) == key {
			return attr.Value.AsString(), true
		}
	}
	return "", false
}

func tracedRouter(cfg TracingConfig, extra ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(TracingWithConfig(cfg))
	router.Use(extra...)
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "ok"})
	})
	return router
}

func TestTracingWithConfig(t *testing.T) {
	t.Run("disabled is a pass-through", func(t *testing.T) {
		router := tracedRouter(TracingConfig{Enabled: false, ServiceName: "test-service"})

		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/test", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("enabled records a span per request", func(t *testing.T) {
		sr := setupTestTracer(t)
		router := tracedRouter(TracingConfig{Enabled: true, ServiceName: "test-service"})

		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/test", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		require.NotNil(t, findSpan(sr, "GET /test"))
	})
}

func TestDefaultTracingConfig(t *testing.T) {
	cfg := DefaultTracingConfig()
	assert.Equal(t, "ledger-backend", cfg.ServiceName)
	assert.True(t, cfg.Enabled)
}

func TestTracingAttributeInjector(t *testing.T) {
	cfg := TracingConfig{Enabled: true, ServiceName: "test-service"}

	t.Run("request id from header", func(t *testing.T) {
		sr := setupTestTracer(t)
		router := tracedRouter(cfg, RequestID(), TracingAttributeInjector())

		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("X-Request-ID", "test-request-id-123")
		router.ServeHTTP(w, req)

		span := findSpan(sr, "GET /test")
		require.NotNil(t, span)
		value, ok := spanAttribute(span, "request_id")
		require.True(t, ok)
		assert.Equal(t, "test-request-id-123", value)
	})

	t.Run("identity from jwt claims", func(t *testing.T) {
		sr := setupTestTracer(t)
		claims := func(c *gin.Context) {
			c.Set(JWTUserIDKey, "user-123")
			c.Set(JWTTenantIDKey, "tenant-456")
			c.Next()
		}
		router := tracedRouter(cfg, claims, TracingAttributeInjector())

		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/test", nil)
		router.ServeHTTP(w, req)

		span := findSpan(sr, "GET /test")
		require.NotNil(t, span)
		userID, ok := spanAttribute(span, "user_id")
		require.True(t, ok)
		assert.Equal(t, "user-123", userID)
		tenantID, ok := spanAttribute(span, "tenant_id")
		require.True(t, ok)
		assert.Equal(t, "tenant-456", tenantID)
	})

	t.Run("tenant id from header", func(t *testing.T) {
		sr := setupTestTracer(t)
		router := tracedRouter(cfg, TracingAttributeInjector())

		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("X-Tenant-ID", "12345678-1234-1234-1234-123456789abc")
		router.ServeHTTP(w, req)

		span := findSpan(sr, "GET /test")
		require.NotNil(t, span)
		tenantID, ok := spanAttribute(span, "tenant_id")
		require.True(t, ok)
		assert.Equal(t, "12345678-1234-1234-1234-123456789abc", tenantID)
	})

	t.Run("no recording span does not panic", func(t *testing.T) {
		gin.SetMode(gin.TestMode)
		router := gin.New()
		router.Use(TracingAttributeInjector())
		router.GET("/test", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"message": "ok"})
		})

		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/test", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestSpanErrorMarker(t *testing.T) {
	cfg := TracingConfig{Enabled: true, ServiceName: "test-service"}

	tests := []struct {
		name            string
		status          int
		wantError       bool
		wantDescription string
	}{
		{"bad request", http.StatusBadRequest, true, "Client Error"},
		{"unauthorized", http.StatusUnauthorized, true, "Unauthorized"},
		{"forbidden", http.StatusForbidden, true, "Forbidden"},
		{"not found", http.StatusNotFound, true, "Not Found"},
		// otelgin may set the 5xx description itself, only the code matters
		{"internal error", http.StatusInternalServerError, true, ""},
		{"success is left unset", http.StatusOK, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sr := setupTestTracer(t)
			gin.SetMode(gin.TestMode)
			router := gin.New()
			router.Use(TracingWithConfig(cfg))
			router.Use(SpanErrorMarker())
			router.GET("/test", func(c *gin.Context) {
				c.JSON(tt.status, gin.H{"message": "done"})
			})

			w := httptest.NewRecorder()
			req, _ := http.NewRequest(http.MethodGet, "/test", nil)
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)

			span := findSpan(sr, "GET /test")
			require.NotNil(t, span)
			if tt.wantError {
				assert.Equal(t, codes.Error, span.Status().Code)
				if tt.wantDescription != "" {
					assert.Equal(t, tt.wantDescription, span.Status().Description)
				}
			} else {
				assert.NotEqual(t, codes.Error, span.Status().Code)
			}
		})
	}

	t.Run("noop tracer does not panic", func(t *testing.T) {
		otel.SetTracerProvider(noop.NewTracerProvider())
		gin.SetMode(gin.TestMode)
		router := gin.New()
		router.Use(SpanErrorMarker())
		router.GET("/test", func(c *gin.Context) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "error"})
		})

		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/test", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestContextExtraction(t *testing.T) {
	gin.SetMode(gin.TestMode)

	run := func(prepare func(c *gin.Context), header http.Header, extract func(c *gin.Context) string) string {
		var got string
		router := gin.New()
		if prepare != nil {
			router.Use(func(c *gin.Context) { prepare(c); c.Next() })
		}
		router.GET("/test", func(c *gin.Context) {
			got = extract(c)
			c.Status(http.StatusOK)
		})
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/test", nil)
		for key, values := range header {
			req.Header[key] = values
		}
		router.ServeHTTP(w, req)
		return got
	}

	t.Run("request id prefers context over header", func(t *testing.T) {
		got := run(func(c *gin.Context) { c.Set("request_id", "from-context") }, nil, getRequestID)
		assert.Equal(t, "from-context", got)

		got = run(nil, http.Header{"X-Request-Id": {"from-header"}}, getRequestID)
		assert.Equal(t, "from-header", got)
	})

	t.Run("overlong request id header is truncated", func(t *testing.T) {
		got := run(nil, http.Header{"X-Request-Id": {strings.Repeat("b", 200)}}, getRequestID)
		assert.Len(t, got, MaxRequestIDLength)
	})

	t.Run("tenant id prefers jwt claim over header", func(t *testing.T) {
		got := run(func(c *gin.Context) { c.Set(JWTTenantIDKey, "jwt-tenant-id") }, nil, getTenantID)
		assert.Equal(t, "jwt-tenant-id", got)

		got = run(nil, http.Header{"X-Tenant-Id": {"12345678-1234-1234-1234-123456789abc"}}, getTenantID)
		assert.Equal(t, "12345678-1234-1234-1234-123456789abc", got)
	})

	t.Run("malformed tenant id header is ignored", func(t *testing.T) {
		got := run(nil, http.Header{"X-Tenant-Id": {"invalid-tenant-id"}}, getTenantID)
		assert.Empty(t, got)
	})

	t.Run("user id comes from jwt claim only", func(t *testing.T) {
		got := run(func(c *gin.Context) { c.Set(JWTUserIDKey, "jwt-user-id") }, nil, getUserID)
		assert.Equal(t, "jwt-user-id", got)

		got = run(nil, nil, getUserID)
		assert.Empty(t, got)
	})
}

func TestIsValidTenantID(t *testing.T) {
	tests := []struct {
		name     string
		tenantID string
		want     bool
	}{
		{"lowercase uuid", "12345678-1234-1234-1234-123456789abc", true},
		{"uppercase uuid", "12345678-1234-1234-1234-123456789ABC", true},
		{"mixed case uuid", "12345678-1234-1234-1234-123456789AbC", true},
		{"too short", "12345678-1234-1234", false},
		{"no dashes", "12345678123412341234123456789abc", false},
		{"special characters", "12345678-1234-1234-1234-123456789<>!", false},
		{"script injection", "<script>alert(1)</script>", false},
		{"empty", "", false},
		{"embedded space", "12345678-1234 -1234-1234-123456789abc", false},
		{"uuid with trailing junk", "12345678-1234-1234-1234-123456789abc" + strings.Repeat("extra", 100), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isValidTenantID(tt.tenantID))
		})
	}
}
