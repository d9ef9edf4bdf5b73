package gateway

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"

	"golang.org/x/time/rate"
)

// Option configures a Gateway at construction time.
type Option func(*Gateway)

// WithRateLimiter throttles outbound requests through the given limiter.
func WithRateLimiter(l *rate.Limiter) Option {
	return func(g *Gateway) { g.limiter = l }
}

// WithUserAgent overrides the User-Agent sent on every request.
func WithUserAgent(ua string) Option {
	return func(g *Gateway) { g.userAgent = ua }
}

// WithAuthExpiredHandler registers a hook invoked when a refresh attempt
// fails and the session has been cleared. The embedding application uses it
// to route the user back to the sign-in screen.
func WithAuthExpiredHandler(fn func()) Option {
	return func(g *Gateway) { g.onAuthExpired = fn }
}

// requestSpec captures everything needed to build, and rebuild, a request.
// The body is held as bytes so a replay after refresh sends identical data.
type requestSpec struct {
	method      string
	path        string
	query       url.Values
	header      map[string]string
	body        []byte
	contentType string
}

func newRequestSpec(method, path string) *requestSpec {
	return &requestSpec{
		method: method,
		path:   path,
		query:  url.Values{},
		header: map[string]string{},
	}
}

// RequestOption configures a single request.
type RequestOption func(*requestSpec) error

// WithQuery adds a query parameter.
func WithQuery(key, value string) RequestOption {
	return func(s *requestSpec) error {
		s.query.Add(key, value)
		return nil
	}
}

// WithBody attaches a JSON-encoded request body.
func WithBody(v any) RequestOption {
	return func(s *requestSpec) error {
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		s.body = data
		s.contentType = "application/json"
		return nil
	}
}

// WithRawBody attaches a request body verbatim with the given content type.
// The reader is drained up front so the body can be replayed after a
// credential refresh.
func WithRawBody(r io.Reader, contentType string) RequestOption {
	return func(s *requestSpec) error {
		data, err := io.ReadAll(r)
		if err != nil {
			return fmt.Errorf("read request body: %w", err)
		}
		s.body = data
		s.contentType = contentType
		return nil
	}
}

// WithHeader sets a header on the request.
func WithHeader(key, value string) RequestOption {
	return func(s *requestSpec) error {
		s.header[key] = value
		return nil
	}
}
