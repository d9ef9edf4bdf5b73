package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// CallbackResult is what the provider's return redirect reports.
type CallbackResult struct {
	PaymentID string
	Status    string
}

// CallbackListener is a loopback HTTP server that captures the provider's
// return redirect after an external approval flow. Hosts without a browser
// runtime use it to learn the approval outcome without polling.
type CallbackListener struct {
	addr   string
	logger *slog.Logger

	srv     *http.Server
	results chan CallbackResult
}

// NewCallbackListener creates a listener bound to the given loopback
// address, for example "127.0.0.1:8976".
func NewCallbackListener(addr string, log *slog.Logger) *CallbackListener {
	return &CallbackListener{
		addr:    addr,
		logger:  log,
		results: make(chan CallbackResult, 1),
	}
}

// Start binds the listener and begins serving. It returns the base URL the
// provider should redirect to.
func (l *CallbackListener) Start() (string, error) {
	ln, err := net.Listen("tcp", l.addr)
	if err != nil {
		return "", fmt.Errorf("bind callback listener: %w", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/payments/paypal/return", l.handleReturn)

	l.srv = &http.Server{
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := l.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.logger.Error("callback listener stopped", slog.String("error", err.Error()))
		}
	}()

	return "http://" + ln.Addr().String(), nil
}

func (l *CallbackListener) handleReturn(w http.ResponseWriter, r *http.Request) {
	result := CallbackResult{
		PaymentID: r.URL.Query().Get("paymentId"),
		Status:    r.URL.Query().Get("status"),
	}
	if result.Status == "" {
		result.Status = "approved"
	}

	select {
	case l.results <- result:
	default:
		// A duplicate redirect; the first result already won.
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = fmt.Fprint(w, "<html><body><p>Payment approval received. You can return to the app.</p></body></html>")
}

// Wait blocks until the return redirect arrives or the context ends.
func (l *CallbackListener) Wait(ctx context.Context) (CallbackResult, error) {
	select {
	case result := <-l.results:
		return result, nil
	case <-ctx.Done():
		return CallbackResult{}, ctx.Err()
	}
}

// Close shuts the listener down.
func (l *CallbackListener) Close() error {
	if l.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return l.srv.Shutdown(ctx)
}
