package order

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arnaud-devs/hangart-sub000/domain"
	apperrors "github.com/arnaud-devs/hangart-sub000/errors"
	"github.com/arnaud-devs/hangart-sub000/gateway"
)

type plainDoer struct{}

func (plainDoer) Do(_ context.Context, req *http.Request) (*http.Response, error) {
	return http.DefaultClient.Do(req)
}

type staticCreds struct{}

func (staticCreds) AccessToken(context.Context) string        { return "access-1" }
func (staticCreds) RefreshToken(context.Context) string       { return "refresh-1" }
func (staticCreds) StoreAccessToken(context.Context, string)  {}
func (staticCreds) StoreRefreshToken(context.Context, string) {}
func (staticCreds) Clear(context.Context)                     {}

func newTestClient(t *testing.T, handler http.Handler) (*Client, func()) {
	t.Helper()
	server := httptest.NewServer(handler)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	gw := gateway.New(server.URL, plainDoer{}, staticCreds{}, log)
	return NewClient(gw, log), server.Close
}

func TestGet_IncludesRefundRequests(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/orders/ord-1/", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": "ord-1", "order_number": "HA-2026-0001", "status": "paid",
			"total_amount": 85000, "currency": "XAF",
			"refund_requests": []map[string]any{
				{"id": "ref-1", "order": "ord-1", "status": "pending"},
			},
		})
	})
	client, stop := newTestClient(t, mux)
	defer stop()

	o, err := client.Get(context.Background(), "ord-1")
	require.NoError(t, err)

	assert.Equal(t, "ord-1", o.ID)
	assert.Equal(t, domain.OrderStatusPaid, o.Status)
	require.Len(t, o.RefundRequests, 1)
	assert.True(t, o.HasActiveRefundRequest())
}

func TestMyOrders_NormalizesShape(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/orders/my-orders/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "paid", r.URL.Query().Get("status"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"count":   12,
			"results": []map[string]any{{"id": "ord-1"}, {"id": "ord-2"}},
		})
	})
	client, stop := newTestClient(t, mux)
	defer stop()

	list, err := client.MyOrders(context.Background(), ListFilter{Status: "paid"})
	require.NoError(t, err)
	assert.Len(t, list.Items, 2)
	assert.Equal(t, 12, list.TotalCount)
}

func TestList_BareArray(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/orders/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id": "ord-1"}]`))
	})
	client, stop := newTestClient(t, mux)
	defer stop()

	list, err := client.List(context.Background(), ListFilter{})
	require.NoError(t, err)
	assert.Len(t, list.Items, 1)
	assert.Equal(t, 1, list.TotalCount)
}

func TestUpdateStatus(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/orders/ord-1/update-status/", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPatch, r.Method)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "shipped", body["status"])

		_ = json.NewEncoder(w).Encode(map[string]any{"id": "ord-1", "status": "shipped"})
	})
	client, stop := newTestClient(t, mux)
	defer stop()

	o, err := client.UpdateStatus(context.Background(), "ord-1", domain.OrderStatusShipped)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusShipped, o.Status)
}

func TestUpdateStatus_UnknownStatusRejectedLocally(t *testing.T) {
	calls := 0
	client, stop := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer stop()

	_, err := client.UpdateStatus(context.Background(), "ord-1", "teleported")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Equal(t, 0, calls)
}
