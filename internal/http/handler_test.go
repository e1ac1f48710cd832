package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/davidbz/tokenmeter/internal/config"
	"github.com/davidbz/tokenmeter/internal/domain"
	httpserver "github.com/davidbz/tokenmeter/internal/http"
	"github.com/davidbz/tokenmeter/internal/http/middleware"
	"github.com/davidbz/tokenmeter/internal/ledger/memory"
	"github.com/davidbz/tokenmeter/internal/mocks"
)

// byteEncoder counts bytes and reports a fixed name.
type byteEncoder struct {
	name string
}

func (e byteEncoder) Count(text string) (int, error) { return len(text), nil }
func (e byteEncoder) Name() string                   { return e.name }

type fixture struct {
	store  domain.Store
	router http.Handler
}

func newFixture(t *testing.T, store domain.Store) *fixture {
	t.Helper()

	ctx := context.Background()
	tracer := noop.NewTracerProvider().Tracer("test")

	catalog := domain.NewPriceCatalog(memory.NewStore())
	require.NoError(t, catalog.Seed(ctx, []domain.PriceEntry{{
		Model:       "test-model",
		InputPrice:  decimal.RequireFromString("2"),
		OutputPrice: decimal.RequireFromString("4"),
	}}))

	handler := httpserver.NewHandler(
		domain.NewUserRegistry(store, nil, tracer),
		domain.NewBillingEngine(domain.NewStandardCostCalculator(catalog), store, nil, tracer),
		domain.NewTokenCounter(byteEncoder{name: "wide"}, byteEncoder{name: "legacy"}, nil),
		catalog,
	)
	server := httpserver.NewServer(
		&config.ServerConfig{Port: 0},
		handler,
		middleware.BuildMiddlewareChain(&config.CORSConfig{AllowedOrigins: []string{"*"}}),
	)

	return &fixture{store: store, router: server.Routes()}
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(bytes.NewReader(w.Body.Bytes())).Decode(v))
}

func TestHandleUserInfo(t *testing.T) {
	t.Run("creates the user", func(t *testing.T) {
		f := newFixture(t, memory.NewStore())

		w := f.do(t, http.MethodPost, "/post_user_info", `{"user":{"id":"u1","name":"Ann","email":"ann@example.com"}}`)
		require.Equal(t, http.StatusOK, w.Code)
		require.JSONEq(t, `{"status":"success"}`, w.Body.String())
		require.NotEmpty(t, w.Header().Get("X-Request-Id"))

		account, err := f.store.GetUser(context.Background(), "u1")
		require.NoError(t, err)
		require.Equal(t, "Ann", account.Name)
		require.Equal(t, domain.DefaultRole, account.Role)
	})

	t.Run("missing user is a no-op", func(t *testing.T) {
		f := newFixture(t, mocks.NewMockStore(t))

		w := f.do(t, http.MethodPost, "/post_user_info", `{}`)
		require.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("storage failure", func(t *testing.T) {
		store := mocks.NewMockStore(t)
		store.EXPECT().GetUser(mock.Anything, "u1").Return(nil, errors.New("database is locked"))
		f := newFixture(t, store)

		w := f.do(t, http.MethodPost, "/post_user_info", `{"user":{"id":"u1"}}`)
		require.Equal(t, http.StatusInternalServerError, w.Code)
		require.JSONEq(t, `{"error":"internal server error"}`, w.Body.String())
	})

	t.Run("malformed body", func(t *testing.T) {
		f := newFixture(t, mocks.NewMockStore(t))

		w := f.do(t, http.MethodPost, "/post_user_info", `{"user":`)
		require.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandleResult(t *testing.T) {
	t.Run("bills the user", func(t *testing.T) {
		f := newFixture(t, memory.NewStore())

		w := f.do(t, http.MethodPost, "/post_result",
			`{"user":{"id":"u1"},"model":"test-model","input_tokens":1000,"output_tokens":500}`)
		require.Equal(t, http.StatusOK, w.Code)

		var body struct {
			StatsText string `json:"stats_text"`
		}
		decode(t, w, &body)
		require.Equal(t, "\n\n输入 1000 tokens，输出 500 tokens，总费用 ¥0.0040，账户余额 ¥9.9960", body.StatsText)
	})

	t.Run("anonymous usage", func(t *testing.T) {
		f := newFixture(t, mocks.NewMockStore(t))

		w := f.do(t, http.MethodPost, "/post_result",
			`{"user":null,"model":"test-model","input_tokens":100,"output_tokens":100}`)
		require.Equal(t, http.StatusOK, w.Code)
		require.Contains(t, w.Body.String(), "¥0.0006")
		require.Contains(t, w.Body.String(), "¥0.0000")
	})

	t.Run("debit failure still answers", func(t *testing.T) {
		store := mocks.NewMockStore(t)
		store.EXPECT().Debit(mock.Anything, "u1", mock.Anything).Return(decimal.Zero, domain.ErrStorage)
		f := newFixture(t, store)

		w := f.do(t, http.MethodPost, "/post_result",
			`{"user":{"id":"u1"},"model":"test-model","input_tokens":1000,"output_tokens":500}`)
		require.Equal(t, http.StatusOK, w.Code)
		require.Contains(t, w.Body.String(), "账户余额 ¥0.0000")
	})

	t.Run("negative tokens", func(t *testing.T) {
		f := newFixture(t, mocks.NewMockStore(t))

		w := f.do(t, http.MethodPost, "/post_result",
			`{"user":{"id":"u1"},"model":"test-model","input_tokens":-5,"output_tokens":0}`)
		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("fractional tokens", func(t *testing.T) {
		f := newFixture(t, mocks.NewMockStore(t))

		w := f.do(t, http.MethodPost, "/post_result",
			`{"model":"test-model","input_tokens":1.5,"output_tokens":0}`)
		require.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandleCalculateTokens(t *testing.T) {
	f := newFixture(t, mocks.NewMockStore(t))

	tests := []struct {
		name   string
		body   string
		status int
		tokens int
	}{
		{
			name:   "chat",
			body:   `{"messages":[{"role":"user","content":"ab"},{"role":"assistant","content":"cd"}],"type":"chat","model":"gpt-4o"}`,
			status: http.StatusOK,
			tokens: 4,
		},
		{
			name:   "text",
			body:   `{"messages":"hello","type":"text","model":"gpt-4"}`,
			status: http.StatusOK,
			tokens: 5,
		},
		{
			name:   "object as raw",
			body:   `{"messages":{"a":1},"type":"text","model":"gpt-4"}`,
			status: http.StatusOK,
			tokens: len(`{"a":1}`),
		},
		{
			name:   "chat without content",
			body:   `{"messages":[{"role":"user"}],"type":"chat","model":"gpt-4o"}`,
			status: http.StatusBadRequest,
		},
		{
			name:   "missing messages",
			body:   `{"type":"text","model":"gpt-4"}`,
			status: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(t, http.MethodPost, "/calculate_tokens", tt.body)
			require.Equal(t, tt.status, w.Code)

			if tt.status == http.StatusOK {
				var body struct {
					Tokens int `json:"tokens"`
				}
				decode(t, w, &body)
				require.Equal(t, tt.tokens, body.Tokens)
			}
		})
	}
}

func TestModelPrices(t *testing.T) {
	f := newFixture(t, memory.NewStore())

	w := f.do(t, http.MethodPut, "/model_prices", `{"model_name":"new-model","input_price":"1.5","output_price":3}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodGet, "/model_prices", "")
	require.Equal(t, http.StatusOK, w.Code)

	var entries []domain.PriceEntry
	decode(t, w, &entries)
	require.Len(t, entries, 2)
	require.Equal(t, "new-model", entries[0].Model)
	require.Equal(t, "1.5", entries[0].InputPrice.String())

	// The new price applies to the next bill without a restart.
	w = f.do(t, http.MethodPost, "/post_result", `{"model":"new-model","input_tokens":1000000,"output_tokens":0}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "总费用 ¥1.5000")

	w = f.do(t, http.MethodPut, "/model_prices", `{"model_name":"bad","input_price":-1,"output_price":1}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPut, "/model_prices", `{"model_name":"bad","input_price":"abc","output_price":1}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	f := newFixture(t, mocks.NewMockStore(t))

	w := f.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"status":"healthy"}`, w.Body.String())

	w = f.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "go_goroutines")
}

func TestMethodNotAllowed(t *testing.T) {
	f := newFixture(t, mocks.NewMockStore(t))

	w := f.do(t, http.MethodGet, "/post_result", "")
	require.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
