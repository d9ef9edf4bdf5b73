package integration

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
)

// fakeMarketplace is an in-process stand-in for the marketplace API. It
// implements just enough of the transaction endpoints to drive the client
// through a full purchase and refund, with token expiry under the test's
// control.
type fakeMarketplace struct {
	t   *testing.T
	srv *httptest.Server

	mu            sync.Mutex
	accessValid   map[string]bool
	refreshCalls  int
	statusChecks  int
	requests      int
	orderStatus   string
	refunds       []map[string]any
	tokenCounter  int
	paymentStatus string
}

func newFakeMarketplace(t *testing.T) *fakeMarketplace {
	t.Helper()
	f := &fakeMarketplace{
		t:             t,
		accessValid:   map[string]bool{},
		orderStatus:   "pending_payment",
		paymentStatus: "pending",
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login/", f.handleLogin)
	mux.HandleFunc("/auth/token/refresh/", f.handleRefresh)
	mux.HandleFunc("/orders/my-orders/", f.authenticated(f.handleMyOrders))
	mux.HandleFunc("/orders/ord-1/", f.authenticated(f.handleOrder))
	mux.HandleFunc("/payments/initiate/ord-1/", f.authenticated(f.handleInitiate))
	mux.HandleFunc("/payments/pay-1/status/", f.authenticated(f.handlePaymentStatus))
	// Subtree pattern: also receives /refund-requests/{id}/review/.
	mux.HandleFunc("/refund-requests/", f.authenticated(f.handleRefunds))

	f.srv = httptest.NewServer(countRequests(f, mux))
	return f
}

// countRequests tracks every request, so tests can assert zero-network paths.
func countRequests(f *fakeMarketplace, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.requests++
		f.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (f *fakeMarketplace) URL() string { return f.srv.URL }
func (f *fakeMarketplace) Close()      { f.srv.Close() }

func (f *fakeMarketplace) RefreshCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refreshCalls
}

func (f *fakeMarketplace) StatusChecks() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.statusChecks
}

func (f *fakeMarketplace) Requests() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests
}

// ExpireAccessTokens invalidates every issued access token; the next
// authenticated call gets a 401 until the client refreshes.
func (f *fakeMarketplace) ExpireAccessTokens() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for token := range f.accessValid {
		f.accessValid[token] = false
	}
}

func (f *fakeMarketplace) issueToken() string {
	f.tokenCounter++
	token := "acc-" + strconv.Itoa(f.tokenCounter)
	f.accessValid[token] = true
	return token
}

func (f *fakeMarketplace) authenticated(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		f.mu.Lock()
		ok := f.accessValid[token]
		f.mu.Unlock()
		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "token expired"})
			return
		}
		next(w, r)
	}
}

func (f *fakeMarketplace) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body map[string]string
	_ = json.NewDecoder(r.Body).Decode(&body)
	if body["username"] != "amina" || body["password"] != "s3cret-pass" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "invalid credentials"})
		return
	}

	f.mu.Lock()
	access := f.issueToken()
	f.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"access":  access,
		"refresh": "ref-1",
		"user":    map[string]string{"id": "usr-1", "username": "amina", "role": "buyer"},
	})
}

func (f *fakeMarketplace) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var body map[string]string
	_ = json.NewDecoder(r.Body).Decode(&body)

	f.mu.Lock()
	f.refreshCalls++
	valid := body["refresh"] == "ref-1"
	var access string
	if valid {
		access = f.issueToken()
	}
	f.mu.Unlock()

	if !valid {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "refresh token invalid"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"access": access})
}

func (f *fakeMarketplace) order() map[string]any {
	return map[string]any{
		"id":              "ord-1",
		"order_number":    "HA-2026-0001",
		"status":          f.orderStatus,
		"total_amount":    85000,
		"currency":        "XAF",
		"refund_requests": f.refunds,
	}
}

func (f *fakeMarketplace) handleMyOrders(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{
		"count":   1,
		"results": []map[string]any{f.order()},
	})
}

func (f *fakeMarketplace) handleOrder(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	writeJSON(w, http.StatusOK, f.order())
}

func (f *fakeMarketplace) handleInitiate(w http.ResponseWriter, r *http.Request) {
	var body map[string]string
	_ = json.NewDecoder(r.Body).Decode(&body)
	if body["method"] != "mobile_money" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "only mobile money in this fake"})
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"payment": map[string]any{
			"id": "pay-1", "order": "ord-1", "method": "mobile_money",
			"amount": 85000, "currency": "XAF", "status": "pending",
		},
	})
}

func (f *fakeMarketplace) handlePaymentStatus(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.statusChecks++
	if f.statusChecks >= 3 {
		f.paymentStatus = "successful"
		f.orderStatus = "paid"
	}
	status := f.paymentStatus
	f.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"payment": map[string]any{"id": "pay-1", "status": status},
	})
}

func (f *fakeMarketplace) handleRefunds(w http.ResponseWriter, r *http.Request) {
	if strings.HasSuffix(r.URL.Path, "/review/") {
		f.handleReview(w, r)
		return
	}

	switch r.Method {
	case http.MethodPost:
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)

		f.mu.Lock()
		request := map[string]any{
			"id":          "ref-" + strconv.Itoa(len(f.refunds)+1),
			"order":       body["order"],
			"reason":      body["reason"],
			"description": body["description"],
			"status":      "pending",
		}
		f.refunds = append(f.refunds, request)
		f.mu.Unlock()

		writeJSON(w, http.StatusCreated, request)
	case http.MethodGet:
		f.mu.Lock()
		defer f.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"count": len(f.refunds), "results": f.refunds})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (f *fakeMarketplace) handleReview(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/refund-requests/"), "/review/")
	var body map[string]string
	_ = json.NewDecoder(r.Body).Decode(&body)

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, request := range f.refunds {
		if request["id"] == id {
			request["status"] = body["status"]
			request["admin_response"] = body["admin_response"]
			writeJSON(w, http.StatusOK, request)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"detail": "refund request not found"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
