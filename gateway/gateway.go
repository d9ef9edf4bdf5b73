// Package gateway is the single chokepoint for all authenticated calls to
// the marketplace API. It builds outbound requests, attaches the current
// access credential, and transparently recovers from a single authorization
// failure per logical call by refreshing the credential and replaying the
// request exactly once.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	apperrors "github.com/arnaud-devs/hangart-sub000/errors"
	"github.com/arnaud-devs/hangart-sub000/logger"
)

const refreshPath = "/auth/token/refresh/"

// maxBodySize bounds how much of a response body is read into memory.
const maxBodySize = 10 << 20 // 10 MB

// Doer is the transport interface for executing HTTP requests. Both
// transport.Client and transport.BreakerClient satisfy it.
type Doer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// CredentialSource supplies and receives the session credentials the
// gateway works with. It is injected at construction so the gateway never
// reads ambient global state and is testable with fake sessions.
type CredentialSource interface {
	AccessToken(ctx context.Context) string
	RefreshToken(ctx context.Context) string
	StoreAccessToken(ctx context.Context, token string)
	StoreRefreshToken(ctx context.Context, token string)
	Clear(ctx context.Context)
}

// Response is the decoded outcome of a successful (2xx) gateway call.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Decode unmarshals the response body into v.
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decode response body: %w", err)
	}
	return nil
}

// Gateway issues authenticated requests against a single base URL.
type Gateway struct {
	baseURL       string
	doer          Doer
	creds         CredentialSource
	logger        *slog.Logger
	limiter       *rate.Limiter
	userAgent     string
	onAuthExpired func()

	// refreshGroup collapses concurrent refresh attempts into one
	// in-flight call; simultaneous 401s all await the same outcome.
	refreshGroup singleflight.Group
}

// New creates a gateway for the given base URL. The credential source is
// required; a nil source would fail every authenticated call.
func New(baseURL string, doer Doer, creds CredentialSource, log *slog.Logger, opts ...Option) *Gateway {
	g := &Gateway{
		baseURL:   strings.TrimRight(baseURL, "/"),
		doer:      doer,
		creds:     creds,
		logger:    log,
		userAgent: "hangart-client",
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Do executes a logical request against the API. On a 401 it runs the
// refresh procedure and replays the original request at most once; a 401 on
// the replay is surfaced without a second refresh.
func (g *Gateway) Do(ctx context.Context, method, path string, opts ...RequestOption) (*Response, error) {
	spec := newRequestSpec(method, path)
	for _, opt := range opts {
		if err := opt(spec); err != nil {
			return nil, err
		}
	}

	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	requestID := uuid.New().String()
	ctx = logger.WithRequestID(ctx, requestID)
	start := time.Now()

	resp, err := g.send(ctx, spec, requestID, false)

	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	observeRequest(method, status, time.Since(start))

	return resp, err
}

// send performs one attempt of the logical call, recursing exactly once
// when a 401 is recovered by a successful refresh.
func (g *Gateway) send(ctx context.Context, spec *requestSpec, requestID string, retried bool) (*Response, error) {
	req, err := g.buildRequest(ctx, spec, requestID)
	if err != nil {
		return nil, err
	}

	httpResp, err := g.doer.Do(ctx, req)
	if err != nil {
		return nil, apperrors.Network(err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, maxBodySize))
	if err != nil {
		return nil, apperrors.Network(fmt.Errorf("read response body: %w", err))
	}

	if httpResp.StatusCode == http.StatusUnauthorized && !retried {
		log := logger.WithContext(ctx, g.logger)
		log.InfoContext(ctx, "access credential rejected, refreshing",
			slog.String("method", spec.method),
			slog.String("path", spec.path),
		)

		if g.Refresh(ctx) {
			return g.send(ctx, spec, requestID, true)
		}

		g.creds.Clear(ctx)
		if g.onAuthExpired != nil {
			g.onAuthExpired()
		}
		return nil, apperrors.AuthExpired("session expired, please sign in again")
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, parseErrorBody(httpResp.StatusCode, body)
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       body,
	}, nil
}

func (g *Gateway) buildRequest(ctx context.Context, spec *requestSpec, requestID string) (*http.Request, error) {
	u := g.baseURL + spec.path
	if len(spec.query) > 0 {
		u += "?" + spec.query.Encode()
	}

	var body io.Reader = http.NoBody
	if spec.body != nil {
		body = bytes.NewReader(spec.body)
	}

	req, err := http.NewRequestWithContext(ctx, spec.method, u, body)
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", spec.method, err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", g.userAgent)
	req.Header.Set("X-Request-ID", requestID)
	if spec.contentType != "" {
		req.Header.Set("Content-Type", spec.contentType)
	}
	for k, v := range spec.header {
		req.Header.Set(k, v)
	}

	if token := g.creds.AccessToken(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return req, nil
}

// Refresh exchanges the stored refresh credential for a new access
// credential and reports whether it succeeded. Concurrent callers share a
// single in-flight refresh.
func (g *Gateway) Refresh(ctx context.Context) bool {
	ok, _, _ := g.refreshGroup.Do("refresh", func() (any, error) {
		return g.doRefresh(ctx), nil
	})
	return ok.(bool)
}

func (g *Gateway) doRefresh(ctx context.Context) bool {
	refreshToken := g.creds.RefreshToken(ctx)
	if refreshToken == "" {
		observeRefresh("no_token")
		return false
	}

	payload, err := json.Marshal(map[string]string{"refresh": refreshToken})
	if err != nil {
		observeRefresh("error")
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+refreshPath, bytes.NewReader(payload))
	if err != nil {
		observeRefresh("error")
		return false
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", g.userAgent)

	resp, err := g.doer.Do(ctx, req)
	if err != nil {
		g.logger.WarnContext(ctx, "token refresh transport failure", slog.String("error", err.Error()))
		observeRefresh("error")
		return false
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil || resp.StatusCode < 200 || resp.StatusCode >= 300 {
		g.logger.WarnContext(ctx, "token refresh rejected", slog.Int("status", resp.StatusCode))
		observeRefresh("rejected")
		return false
	}

	var tokens struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	}
	if err := json.Unmarshal(body, &tokens); err != nil || tokens.Access == "" {
		g.logger.WarnContext(ctx, "token refresh returned malformed body")
		observeRefresh("error")
		return false
	}

	g.creds.StoreAccessToken(ctx, tokens.Access)
	if tokens.Refresh != "" {
		// Some deployments rotate the refresh credential on every use.
		g.creds.StoreRefreshToken(ctx, tokens.Refresh)
	}

	observeRefresh("success")
	return true
}

// Get executes a GET request.
func (g *Gateway) Get(ctx context.Context, path string, opts ...RequestOption) (*Response, error) {
	return g.Do(ctx, http.MethodGet, path, opts...)
}

// Post executes a POST request.
func (g *Gateway) Post(ctx context.Context, path string, opts ...RequestOption) (*Response, error) {
	return g.Do(ctx, http.MethodPost, path, opts...)
}

// Put executes a PUT request.
func (g *Gateway) Put(ctx context.Context, path string, opts ...RequestOption) (*Response, error) {
	return g.Do(ctx, http.MethodPut, path, opts...)
}

// Patch executes a PATCH request.
func (g *Gateway) Patch(ctx context.Context, path string, opts ...RequestOption) (*Response, error) {
	return g.Do(ctx, http.MethodPatch, path, opts...)
}

// Delete executes a DELETE request.
func (g *Gateway) Delete(ctx context.Context, path string, opts ...RequestOption) (*Response, error) {
	return g.Do(ctx, http.MethodDelete, path, opts...)
}
