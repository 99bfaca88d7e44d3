package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"orderdesk/pkg/logger"
	"orderdesk/pkg/order"
	"orderdesk/pkg/order/memory"
	"orderdesk/pkg/otel"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	log := logger.New(io.Discard, logger.LevelError, "test", nil)
	return newRouter(order.NewService(memory.New()), log, noop.NewTracerProvider().Tracer("test"))
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v), rec.Body.String())
	return v
}

const aliceOrder = `{"customer_name":"Alice","items":[{"name":"Book","price":12.5},{"name":"Pen","price":2.5}]}`

func TestOrderLifecycle(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, http.MethodPost, "/orders", aliceOrder)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	created := decode[order.Order](t, rec)
	assert.Equal(t, 1, created.ID)
	assert.Equal(t, "Alice", created.CustomerName)
	assert.Equal(t, order.StatusPending, created.Status)
	assert.Equal(t, 15.0, created.Total)
	assert.Equal(t, []order.Item{{Name: "Book", Price: 12.5}, {Name: "Pen", Price: 2.5}}, created.Items)

	rec = do(t, h, http.MethodPatch, "/orders/1", `{"status":"completed"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decode[order.Order](t, rec)
	assert.Equal(t, order.StatusCompleted, updated.Status)
	assert.Equal(t, 15.0, updated.Total)
	assert.Equal(t, created.Items, updated.Items)
	assert.Equal(t, created.CustomerName, updated.CustomerName)

	rec = do(t, h, http.MethodGet, "/orders/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, updated, decode[order.Order](t, rec))

	rec = do(t, h, http.MethodGet, "/orders/summary", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, order.Summary{TotalOrders: 1, TotalValue: 15}, decode[order.Summary](t, rec))
}

func TestListOrders(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, http.MethodGet, "/orders", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	for range 3 {
		require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/orders", aliceOrder).Code)
	}

	rec = do(t, h, http.MethodGet, "/orders", "")
	require.Equal(t, http.StatusOK, rec.Code)
	orders := decode[[]order.Order](t, rec)
	require.Len(t, orders, 3)
	for i, o := range orders {
		assert.Equal(t, i+1, o.ID)
	}
}

func TestCreateOrder_Validation(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"empty customer name", `{"customer_name":"","items":[{"name":"Book","price":1}]}`, "customer_name"},
		{"blank customer name", `{"customer_name":"   ","items":[{"name":"Book","price":1}]}`, "customer_name"},
		{"no items", `{"customer_name":"Alice","items":[]}`, "items"},
		{"zero price", `{"customer_name":"Alice","items":[{"name":"Book","price":12.5},{"name":"Pen","price":0}]}`, "items[1].price"},
		{"negative price", `{"customer_name":"Alice","items":[{"name":"Pen","price":-3}]}`, "items[0].price"},
		{"missing customer name", `{"items":[{"name":"Book","price":1}]}`, "customer_name"},
		{"missing items", `{"customer_name":"Alice"}`, "items"},
		{"missing item price", `{"customer_name":"Alice","items":[{"name":"Book"}]}`, "items[0].price"},
		{"price of wrong type", `{"customer_name":"Alice","items":[{"name":"Book","price":"cheap"}]}`, "price"},
		{"malformed json", `{"customer_name":`, "body"},
		{"empty body", ``, "body"},
		{"trailing garbage", `{"customer_name":"A","items":[{"name":"x","price":1}]} trailing`, "body"},
		{"second json value", `{"customer_name":"A","items":[{"name":"x","price":1}]}{}`, "body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestRouter(t)

			rec := do(t, h, http.MethodPost, "/orders", tt.body)
			require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())

			resp := decode[validationResponse](t, rec)
			require.NotEmpty(t, resp.Detail)
			fields := make([]string, 0, len(resp.Detail))
			for _, fe := range resp.Detail {
				assert.NotEmpty(t, fe.Message)
				fields = append(fields, fe.Field)
			}
			assert.Contains(t, strings.Join(fields, ","), tt.field)

			rec = do(t, h, http.MethodGet, "/orders", "")
			assert.JSONEq(t, `[]`, rec.Body.String())
		})
	}
}

func TestGetOrder_NotFound(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, http.MethodGet, "/orders/9999", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "order not found", decode[errorResponse](t, rec).Detail)

	rec = do(t, h, http.MethodGet, "/orders/99999999999999999999999", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodGet, "/orders/abc", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateOrderStatus(t *testing.T) {
	h := newTestRouter(t)
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/orders", aliceOrder).Code)

	t.Run("invalid status on existing order", func(t *testing.T) {
		rec := do(t, h, http.MethodPatch, "/orders/1", `{"status":"archived"}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		resp := decode[invalidStatusResponse](t, rec)
		assert.Equal(t, order.Statuses(), resp.AllowedStatuses)
		assert.Contains(t, resp.Detail, "archived")
	})

	t.Run("invalid status on missing order", func(t *testing.T) {
		rec := do(t, h, http.MethodPatch, "/orders/9999", `{"status":"archived"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("invalid status on overflowing id", func(t *testing.T) {
		rec := do(t, h, http.MethodPatch, "/orders/99999999999999999999", `{"status":"archived"}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, order.Statuses(), decode[invalidStatusResponse](t, rec).AllowedStatuses)
	})

	t.Run("valid status on overflowing id", func(t *testing.T) {
		rec := do(t, h, http.MethodPatch, "/orders/99999999999999999999", `{"status":"completed"}`)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("trailing data after body", func(t *testing.T) {
		rec := do(t, h, http.MethodPatch, "/orders/1", `{"status":"completed"} {"status":"cancelled"}`)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, "body", decode[validationResponse](t, rec).Detail[0].Field)
	})

	t.Run("valid status on missing order", func(t *testing.T) {
		rec := do(t, h, http.MethodPatch, "/orders/9999", `{"status":"cancelled"}`)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("missing status", func(t *testing.T) {
		rec := do(t, h, http.MethodPatch, "/orders/1", `{}`)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		resp := decode[validationResponse](t, rec)
		assert.Equal(t, "status", resp.Detail[0].Field)
	})

	t.Run("every allowed status", func(t *testing.T) {
		for _, st := range order.Statuses() {
			rec := do(t, h, http.MethodPatch, "/orders/1", `{"status":"`+string(st)+`"}`)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, st, decode[order.Order](t, rec).Status)
		}
	})

	rec := do(t, h, http.MethodGet, "/orders/1", "")
	got := decode[order.Order](t, rec)
	assert.Equal(t, 15.0, got.Total)
	assert.Equal(t, "Alice", got.CustomerName)
}

func TestOrderSummary(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, http.MethodGet, "/orders/summary", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"total_orders":0,"total_value":0}`, rec.Body.String())

	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/orders", aliceOrder).Code)
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/orders",
		`{"customer_name":"Bob","items":[{"name":"Lamp","price":5}]}`).Code)

	rec = do(t, h, http.MethodGet, "/orders/summary", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, order.Summary{TotalOrders: 2, TotalValue: 20}, decode[order.Summary](t, rec))

	rec = do(t, h, http.MethodPatch, "/orders/summary", `{"status":"completed"}`)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRouting(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, http.MethodDelete, "/orders/1", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = do(t, h, http.MethodGet, "/nope", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not found", decode[errorResponse](t, rec).Detail)

	rec = do(t, h, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = do(t, h, http.MethodGet, "/swagger/doc.json", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/orders/summary")
}

func TestRequestID(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, http.MethodGet, "/orders", "")
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	req.Header.Set(requestIDHeader, "req-42")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "req-42", rec.Header().Get(requestIDHeader))
}

func TestLogRequests(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(&buf, logger.LevelInfo, "test", nil)
	h := newRouter(order.NewService(memory.New()), log, noop.NewTracerProvider().Tracer("test"))

	req := httptest.NewRequest(http.MethodGet, "/orders/7", nil)
	req.Header.Set(requestIDHeader, "req-7")
	h.ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	assert.Contains(t, out, `"path":"/orders/7"`)
	assert.Contains(t, out, `"status":404`)
	assert.Contains(t, out, `"request_id":"req-7"`)
}

func TestLogRequests_CarriesTraceID(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	var buf bytes.Buffer
	log := logger.New(&buf, logger.LevelInfo, "test", otel.GetTraceID)
	h := newRouter(order.NewService(memory.New()), log, tp.Tracer("test"))

	rec := do(t, h, http.MethodPost, "/orders", aliceOrder)
	require.Equal(t, http.StatusCreated, rec.Code)

	var traceIDs []string
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		id, _ := entry["trace_id"].(string)
		require.NotEmpty(t, id, "missing trace_id in %s", line)
		traceIDs = append(traceIDs, id)
	}
	require.Len(t, traceIDs, 2, "expected handler and request lines")
	assert.Equal(t, traceIDs[0], traceIDs[1])
}

type failingService struct{ orderService }

func (failingService) List(context.Context) ([]order.Order, error) {
	return nil, errors.New("boom")
}

func TestRespondErr_Internal(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(&buf, logger.LevelInfo, "test", nil)
	h := newRouter(failingService{}, log, noop.NewTracerProvider().Tracer("test"))

	rec := do(t, h, http.MethodGet, "/orders", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal error", decode[errorResponse](t, rec).Detail)
	assert.Contains(t, buf.String(), "boom")
}
