package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/tokenmeter/internal/config"
	"github.com/davidbz/tokenmeter/internal/http/middleware"
	"github.com/davidbz/tokenmeter/internal/observability"
)

func TestChain_Order(t *testing.T) {
	var order []string
	tag := func(name string) middleware.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	handler := middleware.Chain(tag("outer"), tag("inner"))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		order = append(order, "handler")
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, []string{"outer", "inner", "handler"}, order)
}

func TestTrace(t *testing.T) {
	var requestID, traceID string
	handler := middleware.Trace()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID = observability.GetRequestID(r.Context())
		traceID = observability.GetTraceID(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	t.Run("generates ids", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		require.Equal(t, http.StatusTeapot, w.Code)
		require.NotEmpty(t, requestID)
		require.Len(t, traceID, 32)
		require.Equal(t, requestID, w.Header().Get("X-Request-Id"))
		require.Equal(t, traceID, w.Header().Get("X-Trace-Id"))
	})

	t.Run("keeps the caller's request id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-Id", "from-client")

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		require.Equal(t, "from-client", requestID)
		require.Equal(t, "from-client", w.Header().Get("X-Request-Id"))
	})
}

func TestCORS(t *testing.T) {
	handler := middleware.CORS(&config.CORSConfig{
		AllowedOrigins: []string{"https://chat.example.com"},
		AllowedMethods: []string{http.MethodPost},
	})(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/post_result", nil)
	req.Header.Set("Origin", "https://chat.example.com")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, "https://chat.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	require.NotPanics(t, func() {
		middleware.CORS(nil)(http.NotFoundHandler())
	})
}
