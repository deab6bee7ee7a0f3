package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/devilmonastery/shopfeed/internal/api"
	"github.com/devilmonastery/shopfeed/internal/credstore"
	"github.com/devilmonastery/shopfeed/internal/pkg/idgen"
	"github.com/devilmonastery/shopfeed/internal/pkg/logger"
	"github.com/devilmonastery/shopfeed/internal/pkg/metrics"
	"github.com/devilmonastery/shopfeed/internal/pkg/urlutil"
)

const (
	defaultUserAgent   = "shopfeed-client/1.0"
	defaultHTTPTimeout = 30 * time.Second

	// responses larger than this are truncated
	maxBodyBytes = 10 << 20
)

// Options configures a Client
type Options struct {
	// BaseURL of the backend, e.g. https://api.example.com
	BaseURL string

	// Store holds the session credentials. Required.
	Store credstore.Store

	// HTTPClient is the network layer. Its transport is wrapped with metrics.
	// Defaults to a client with a 30s timeout.
	HTTPClient *http.Client

	// RefreshTimeout bounds the refresh call (default DefaultRefreshTimeout)
	RefreshTimeout time.Duration

	UserAgent string
	Logger    *slog.Logger
}

// Client is the single gateway for backend calls. It attaches credentials,
// classifies failures and recovers expired sessions once per request.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	logger    *slog.Logger

	creds       *Credentials
	interceptor *AuthInterceptor
	classifier  Classifier
	refresher   *RefreshCoordinator
	terminator  *SessionTerminator
}

// NewClient creates a new pipeline client
func NewClient(opts Options) (*Client, error) {
	if opts.Store == nil {
		return nil, errors.New("credential store is required")
	}

	base, err := urlutil.ParseBaseURL(opts.BaseURL)
	if err != nil {
		return nil, err
	}

	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	httpClient := &http.Client{Timeout: defaultHTTPTimeout}
	if opts.HTTPClient != nil {
		c := *opts.HTTPClient
		httpClient = &c
	}
	httpClient.Transport = metrics.NewAPITransport(httpClient.Transport)

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	creds := NewCredentials(opts.Store)
	terminator := NewSessionTerminator(creds, log)

	return &Client{
		baseURL:     base,
		http:        httpClient,
		userAgent:   userAgent,
		logger:      log.With(slog.String("component", "api_client")),
		creds:       creds,
		interceptor: NewAuthInterceptor(creds, log),
		refresher: NewRefreshCoordinator(creds, terminator, httpClient,
			urlutil.Resolve(base, api.PathRefreshToken), opts.RefreshTimeout, log),
		terminator: terminator,
	}, nil
}

// BaseURL returns the backend base URL
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Credentials returns the guarded credential store
func (c *Client) Credentials() *Credentials {
	return c.creds
}

// Terminator returns the session terminator
func (c *Client) Terminator() *SessionTerminator {
	return c.terminator
}

// Refresher returns the refresh coordinator
func (c *Client) Refresher() *RefreshCoordinator {
	return c.refresher
}

// OnLogout subscribes fn to the logout notification
func (c *Client) OnLogout(fn func()) (unsubscribe func()) {
	return c.terminator.Subscribe(fn)
}

// NewRequest builds a request for path relative to the base URL. body is
// sent as-is when it is []byte, otherwise JSON-encoded; nil sends no body.
func (c *Client) NewRequest(method, path string, body any) (*OutgoingRequest, error) {
	var payload []byte
	switch b := body.(type) {
	case nil:
	case []byte:
		payload = b
	default:
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		payload = data
	}

	req := NewOutgoingRequest(method, urlutil.Resolve(c.baseURL, path), payload)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// Send submits req. A SessionExpired failure is recovered once by refreshing
// and resubmitting; any other failure is returned as *Error. The Response is
// non-nil whenever the server answered.
func (c *Client) Send(ctx context.Context, req *OutgoingRequest) (*Response, error) {
	if req.Header == nil {
		req.Header = make(http.Header)
	}
	if req.Header.Get("X-Request-ID") == "" {
		req.Header.Set("X-Request-ID", idgen.RequestID())
	}
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.dispatch(ctx, req)

	var e *Error
	if errors.As(err, &e) && e.Category == CategorySessionExpired {
		c.logger.Info("session expired, refreshing credential",
			slog.String("method", req.Method),
			slog.String("url", req.URL),
			slog.String("request_id", req.Header.Get("X-Request-ID")))
		return c.refresher.Recover(ctx, req, c.dispatch)
	}
	return resp, err
}

// dispatch runs one attempt: interceptor, network, classifier
func (c *Client) dispatch(ctx context.Context, req *OutgoingRequest) (*Response, error) {
	c.interceptor.Attach(ctx, req)

	httpReq, err := req.build(ctx)
	if err != nil {
		return nil, &Error{Category: CategoryOther, Err: fmt.Errorf("build request: %w", err)}
	}

	log := logger.WithRequest(logger.WithHTTPRequest(c.logger, req.Method, httpReq.URL.Path), req.Header.Get("X-Request-ID"))

	start := time.Now()
	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		logger.WithDuration(log, time.Since(start)).Warn("request failed", slog.String("error", err.Error()))
		return nil, c.classifier.Classify(req, nil, err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, maxBodyBytes))
	if err != nil {
		return nil, c.classifier.Classify(req, nil, fmt.Errorf("read response body: %w", err))
	}

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       body,
	}

	logger.WithDuration(log, time.Since(start)).Debug("request completed",
		slog.Int("status", resp.StatusCode),
		slog.Bool("retried", req.Retried))

	if e := c.classifier.Classify(req, resp, nil); e != nil {
		resp.Err = e
		return resp, e
	}
	return resp, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*Response, error) {
	req, err := c.NewRequest(method, path, body)
	if err != nil {
		return nil, err
	}
	return c.Send(ctx, req)
}

// Get sends a GET for path
func (c *Client) Get(ctx context.Context, path string) (*Response, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

// Post sends body as JSON to path
func (c *Client) Post(ctx context.Context, path string, body any) (*Response, error) {
	return c.do(ctx, http.MethodPost, path, body)
}

// Put sends body as JSON to path
func (c *Client) Put(ctx context.Context, path string, body any) (*Response, error) {
	return c.do(ctx, http.MethodPut, path, body)
}

// Delete sends a DELETE for path
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.do(ctx, http.MethodDelete, path, nil)
}
