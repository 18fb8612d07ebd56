package gateway

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/yndnr/stockvoice-go/internal/cli/session"
	"github.com/yndnr/stockvoice-go/internal/telemetry/logger"
	"github.com/yndnr/stockvoice-go/internal/telemetry/metric"
)

const (
	// HeaderAuthToken carries the session token on every request.
	HeaderAuthToken = "x-auth-token"

	// HeaderRequestID correlates a request with the console's logs.
	HeaderRequestID = "X-Request-ID"

	// DefaultTimeout bounds every request unless Options says otherwise.
	DefaultTimeout = 10 * time.Second

	defaultUserAgent = "stockvoice-cli"
)

// Options configures a Client. Only BaseAddress is required.
type Options struct {
	BaseAddress    string
	DefaultTimeout time.Duration
	DefaultHeaders map[string]string
	UserAgent      string
	TLSConfig      *tls.Config
	Logger         logger.Logger
	Metrics        *metric.Registry

	// OnSessionExpired runs after a 401 cleared a session that had been
	// attached to the request.
	OnSessionExpired func()
}

// Request is one outbound call.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
}

// Response is a successful (< 400) answer. The body is passed through untouched.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Decode unmarshals the JSON body into target. An empty body is a no-op.
func (r *Response) Decode(target any) error {
	if target == nil || len(bytes.TrimSpace(r.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, target); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

// Client issues every backend request on behalf of the console.
// It is safe for concurrent use.
type Client struct {
	baseURL   string
	store     session.Store
	client    *http.Client
	timeout   time.Duration
	headers   http.Header
	userAgent string
	logger    logger.Logger
	metrics   *metric.Registry
	onExpired func()
}

// New creates a gateway client reading credentials from store.
func New(store session.Store, opts Options) (*Client, error) {
	if store == nil {
		return nil, errors.New("gateway: session store is required")
	}

	baseURL, err := normalizeBase(opts.BaseAddress)
	if err != nil {
		return nil, err
	}

	timeout := opts.DefaultTimeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	headers := http.Header{}
	headers.Set("Content-Type", "application/json")
	headers.Set("Accept", "application/json")
	for k, v := range opts.DefaultHeaders {
		headers.Set(k, v)
	}
	// The credential header only ever comes from the session store.
	headers.Del(HeaderAuthToken)

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	log := opts.Logger
	if log == nil {
		log = logger.Default()
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if opts.TLSConfig != nil {
		transport.TLSClientConfig = opts.TLSConfig
	}

	return &Client{
		baseURL:   baseURL,
		store:     store,
		client:    &http.Client{Transport: transport},
		timeout:   timeout,
		headers:   headers,
		userAgent: userAgent,
		logger:    log.With("component", "gateway"),
		metrics:   opts.Metrics,
		onExpired: opts.OnSessionExpired,
	}, nil
}

// normalizeBase adds a missing scheme and drops trailing slashes.
func normalizeBase(address string) (string, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return "", errors.New("gateway: base address is required")
	}
	if !strings.HasPrefix(address, "http://") && !strings.HasPrefix(address, "https://") {
		address = "http://" + address
	}

	u, err := url.Parse(address)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("gateway: invalid base address %q", address)
	}
	return strings.TrimRight(address, "/"), nil
}

// BaseURL returns the normalized base address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Timeout returns the per-request timeout.
func (c *Client) Timeout() time.Duration {
	return c.timeout
}

// Store returns the session store the client reads credentials from.
func (c *Client) Store() session.Store {
	return c.store
}

// Get performs a GET and decodes the answer into target.
func (c *Client) Get(ctx context.Context, path string, query url.Values, target any) error {
	return c.call(ctx, Request{Method: http.MethodGet, Path: path, Query: query}, target)
}

// Post performs a POST with a JSON body and decodes the answer into target.
func (c *Client) Post(ctx context.Context, path string, body, target any) error {
	return c.call(ctx, Request{Method: http.MethodPost, Path: path, Body: body}, target)
}

// Put performs a PUT with a JSON body and decodes the answer into target.
func (c *Client) Put(ctx context.Context, path string, body, target any) error {
	return c.call(ctx, Request{Method: http.MethodPut, Path: path, Body: body}, target)
}

func (c *Client) call(ctx context.Context, req Request, target any) error {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	return resp.Decode(target)
}

// Do dispatches req with the configured timeout.
//
// A status >= 400 returns an *Error; a 401 first clears the session.
// Failures that never produced a status return KindTransport or KindTimeout.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodGet
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	requestID := ulid.Make().String()
	ctx = logger.WithRequestID(ctx, requestID)
	log := logger.L(logger.WithLogger(ctx, c.logger))

	httpReq, err := c.newRequest(ctx, method, req)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set(HeaderRequestID, requestID)
	authenticated := c.decorate(httpReq)

	log.Debug("request", "method", method, "path", req.Path, "authenticated", authenticated)

	start := time.Now()
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, c.transportError(ctx, log, method, req.Path, start, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.transportError(ctx, log, method, req.Path, start, err)
	}
	elapsed := time.Since(start)

	log.Debug("response", "method", method, "path", req.Path, "status", resp.StatusCode, "duration", elapsed)

	if resp.StatusCode >= http.StatusBadRequest {
		gwErr := statusError(method, req.Path, resp.StatusCode, body)
		c.metrics.ObserveRequest(method, string(gwErr.Kind), elapsed)
		if gwErr.Kind == KindUnauthorized {
			c.expire(log, method, req.Path, authenticated)
		}
		return nil, gwErr
	}

	c.metrics.ObserveRequest(method, metric.OutcomeOK, elapsed)
	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}

func (c *Client) newRequest(ctx context.Context, method string, req Request) (*http.Request, error) {
	target := c.baseURL + "/" + strings.TrimLeft(req.Path, "/")
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var bodyReader io.Reader
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	return httpReq, nil
}

// decorate sets default headers and the session token. It reports whether
// a token was attached.
func (c *Client) decorate(req *http.Request) bool {
	for k, v := range c.headers {
		req.Header[k] = append([]string(nil), v...)
	}
	req.Header.Set("User-Agent", c.userAgent)

	s, ok := c.store.Read()
	if !ok {
		req.Header.Del(HeaderAuthToken)
		return false
	}
	req.Header.Set(HeaderAuthToken, s.Token)
	return true
}

// expire clears the session after a 401. The store is cleared on every
// 401; the metric and callback only fire when a session was attached.
func (c *Client) expire(log logger.Logger, method, path string, authenticated bool) {
	if err := c.store.Clear(); err != nil {
		log.Error("clear session after 401 failed", "method", method, "path", path, "error", err)
	}
	if !authenticated {
		return
	}

	log.Warn("session expired", "method", method, "path", path)
	c.metrics.SessionExpired()
	if c.onExpired != nil {
		c.onExpired()
	}
}

func (c *Client) transportError(ctx context.Context, log logger.Logger, method, path string, start time.Time, err error) *Error {
	kind := KindTransport
	if isTimeout(ctx, err) {
		kind = KindTimeout
	}
	c.metrics.ObserveRequest(method, string(kind), time.Since(start))
	log.Debug("request failed", "method", method, "path", path, "kind", kind, "error", err)

	return &Error{
		Kind:   kind,
		Method: method,
		Path:   path,
		Cause:  err,
	}
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
