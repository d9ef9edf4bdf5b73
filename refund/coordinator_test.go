package refund

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

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestCoordinator(t *testing.T, handler http.Handler) (*Coordinator, func()) {
	t.Helper()
	server := httptest.NewServer(handler)
	gw := gateway.New(server.URL, plainDoer{}, staticCreds{}, testLogger())
	return NewCoordinator(gw, testLogger()), server.Close
}

func paidOrder() *domain.Order {
	return &domain.Order{
		ID:          "ord-1",
		OrderNumber: "HA-2026-0001",
		Status:      domain.OrderStatusPaid,
		TotalAmount: 85000,
		Currency:    "XAF",
	}
}

func TestCreate_EligibleOrder(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/refund-requests/", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ord-1", body["order"])
		assert.Equal(t, "damaged", body["reason"])
		assert.Equal(t, "the box was crushed in transit", body["description"])

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": "ref-1", "order": "ord-1", "reason": "damaged", "status": "pending",
		})
	})
	coord, stop := newTestCoordinator(t, mux)
	defer stop()

	request, err := coord.Create(context.Background(), CreateInput{
		Order:       paidOrder(),
		Reason:      domain.RefundReasonDamaged,
		Description: "the box was crushed in transit",
	})
	require.NoError(t, err)

	assert.Equal(t, "ref-1", request.ID)
	assert.Equal(t, domain.RefundStatusPending, request.Status)
}

func TestCreate_IneligibleStatusNeverHitsNetwork(t *testing.T) {
	calls := 0
	coord, stop := newTestCoordinator(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer stop()

	order := paidOrder()
	order.Status = domain.OrderStatusPendingPayment

	_, err := coord.Create(context.Background(), CreateInput{
		Order:       order,
		Reason:      domain.RefundReasonDamaged,
		Description: "the box was crushed in transit",
	})
	require.Error(t, err)

	assert.ErrorIs(t, err, apperrors.ErrEligibility)
	assert.Equal(t, 0, calls, "ineligible orders must be rejected without a network call")
}

func TestCreate_ActiveRequestBlocksNewOne(t *testing.T) {
	calls := 0
	coord, stop := newTestCoordinator(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer stop()

	order := paidOrder()
	order.RefundRequests = []domain.RefundRequest{
		{ID: "ref-0", OrderID: "ord-1", Status: domain.RefundStatusPending},
	}

	_, err := coord.Create(context.Background(), CreateInput{
		Order:       order,
		Reason:      domain.RefundReasonWrongItem,
		Description: "received a different artwork",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrEligibility)
	assert.Equal(t, 0, calls)
}

func TestCreate_ResolvedRequestDoesNotBlock(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/refund-requests/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "ref-2", "status": "pending"})
	})
	coord, stop := newTestCoordinator(t, mux)
	defer stop()

	order := paidOrder()
	order.RefundRequests = []domain.RefundRequest{
		{ID: "ref-0", OrderID: "ord-1", Status: domain.RefundStatusRejected},
	}

	request, err := coord.Create(context.Background(), CreateInput{
		Order:       order,
		Reason:      domain.RefundReasonOther,
		Description: "second attempt after rejection",
	})
	require.NoError(t, err)
	assert.Equal(t, "ref-2", request.ID)
}

func TestCreate_InvalidInput(t *testing.T) {
	coord, stop := newTestCoordinator(t, http.NewServeMux())
	defer stop()

	_, err := coord.Create(context.Background(), CreateInput{
		Order:       paidOrder(),
		Reason:      "because",
		Description: "too short",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = coord.Create(context.Background(), CreateInput{Reason: domain.RefundReasonOther})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestReview_ApprovesPendingRequest(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/refund-requests/ref-1/review/", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPatch, r.Method)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "approved", body["status"])
		assert.Equal(t, "verified with the shipping photos", body["admin_response"])

		_ = json.NewEncoder(w).Encode(map[string]any{"id": "ref-1", "status": "approved"})
	})
	coord, stop := newTestCoordinator(t, mux)
	defer stop()

	pending := &domain.RefundRequest{ID: "ref-1", Status: domain.RefundStatusPending}
	updated, err := coord.Review(context.Background(), pending, ReviewInput{
		Status:        domain.RefundStatusApproved,
		AdminResponse: "verified with the shipping photos",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RefundStatusApproved, updated.Status)
}

func TestReview_RequiresAdminResponse(t *testing.T) {
	calls := 0
	coord, stop := newTestCoordinator(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer stop()

	pending := &domain.RefundRequest{ID: "ref-1", Status: domain.RefundStatusPending}
	_, err := coord.Review(context.Background(), pending, ReviewInput{Status: domain.RefundStatusApproved})
	require.Error(t, err)

	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Equal(t, 0, calls, "a missing response must be caught before the network")
}

func TestReview_RejectsIllegalTransition(t *testing.T) {
	coord, stop := newTestCoordinator(t, http.NewServeMux())
	defer stop()

	cases := []struct {
		name   string
		from   string
		target string
	}{
		{"rejected is terminal", domain.RefundStatusRejected, domain.RefundStatusApproved},
		{"processed is terminal", domain.RefundStatusProcessed, domain.RefundStatusRejected},
		{"pending cannot skip to processed", domain.RefundStatusPending, domain.RefundStatusProcessed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			request := &domain.RefundRequest{ID: "ref-1", Status: tc.from}
			_, err := coord.Review(context.Background(), request, ReviewInput{
				Status:        tc.target,
				AdminResponse: "decision recorded",
			})
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrValidation)
		})
	}
}

func TestReview_ProcessesApprovedRequest(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/refund-requests/ref-1/review/", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "ref-1", "status": "processed"})
	})
	coord, stop := newTestCoordinator(t, mux)
	defer stop()

	approved := &domain.RefundRequest{ID: "ref-1", Status: domain.RefundStatusApproved}
	updated, err := coord.Review(context.Background(), approved, ReviewInput{
		Status:        domain.RefundStatusProcessed,
		AdminResponse: "refund issued via mobile money",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RefundStatusProcessed, updated.Status)
}

func TestGet(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/refund-requests/ref-9/", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "ref-9", "status": "pending"})
	})
	coord, stop := newTestCoordinator(t, mux)
	defer stop()

	request, err := coord.Get(context.Background(), "ref-9")
	require.NoError(t, err)
	assert.Equal(t, "ref-9", request.ID)
}

func TestList_NormalizesEnvelopes(t *testing.T) {
	cases := map[string]string{
		"bare array": `[{"id": "ref-1"}, {"id": "ref-2"}]`,
		"paginated":  `{"count": 2, "results": [{"id": "ref-1"}, {"id": "ref-2"}]}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("/refund-requests/", func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "ord-1", r.URL.Query().Get("order"))
				assert.Equal(t, "pending", r.URL.Query().Get("status"))
				_, _ = w.Write([]byte(body))
			})
			coord, stop := newTestCoordinator(t, mux)
			defer stop()

			list, err := coord.List(context.Background(), ListFilter{OrderID: "ord-1", Status: "pending"})
			require.NoError(t, err)
			assert.Len(t, list.Items, 2)
			assert.Equal(t, 2, list.TotalCount)
			assert.Equal(t, "ref-1", list.Items[0].ID)
		})
	}
}
