package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/shopscribe/internal/config"
	"github.com/davidbz/shopscribe/internal/http/middleware"
	"github.com/davidbz/shopscribe/internal/observability"
)

func TestChain(t *testing.T) {
	t.Run("should apply the first middleware outermost", func(t *testing.T) {
		var order []string
		mark := func(name string) middleware.Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}

		handler := middleware.Chain(mark("a"), mark("b"))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			order = append(order, "handler")
		}))
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

		require.Equal(t, []string{"a", "b", "handler"}, order)
	})
}

func TestTrace(t *testing.T) {
	t.Run("should inject IDs into context and headers", func(t *testing.T) {
		var gotRequestID, gotTraceID string
		handler := middleware.Trace()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotRequestID = observability.GetRequestID(r.Context())
			gotTraceID = observability.GetTraceID(r.Context())
			w.WriteHeader(http.StatusTeapot)
		}))

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

		require.Equal(t, http.StatusTeapot, w.Code)
		require.Len(t, gotTraceID, 32)
		require.Equal(t, gotTraceID, w.Header().Get("X-Trace-Id"))
		require.Equal(t, gotRequestID, w.Header().Get("X-Request-Id"))
	})

	t.Run("should keep an inbound request ID", func(t *testing.T) {
		var got string
		handler := middleware.Trace()(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			got = observability.GetRequestID(r.Context())
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-Id", "admin-42")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		require.Equal(t, "admin-42", got)
		require.Equal(t, "admin-42", w.Header().Get("X-Request-Id"))
	})
}

func TestCORS(t *testing.T) {
	t.Run("should answer preflight requests", func(t *testing.T) {
		handler := middleware.CORS(&config.CORSConfig{
			AllowedOrigins: []string{"https://shop.test"},
			AllowedMethods: []string{http.MethodPost},
			AllowedHeaders: []string{"Content-Type"},
		})(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

		req := httptest.NewRequest(http.MethodOptions, "/v1/generate", nil)
		req.Header.Set("Origin", "https://shop.test")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		require.Equal(t, "https://shop.test", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("should pass through with a nil config", func(t *testing.T) {
		called := false
		handler := middleware.CORS(nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			called = true
		}))
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		require.True(t, called)
	})
}
