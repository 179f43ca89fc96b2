// Package client is a typed client for the GymDesk API. It plays the
// dashboard's part: it attaches credentials, retries transient failures,
// re-syncs a missing user profile once and caches reads until a related
// write succeeds.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"gymdesk/internal/api"
	"gymdesk/internal/auth"
	"gymdesk/internal/logger"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultTimeout     = 120 * time.Second
	DefaultMaxAttempts = 3
	DefaultCacheTTL    = 5 * time.Minute

	syncPath = "/users/sync"
)

// AuthContext supplies credentials for every call. Token is asked for a
// fresh bearer token per request; OrgID is sent when non-empty.
type AuthContext struct {
	Token func(ctx context.Context) (string, error)
	OrgID string
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithOnUnauthorized registers a hook run on every 401, typically a
// redirect to sign in.
func WithOnUnauthorized(fn func()) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

func WithMaxAttempts(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// WithBackoff replaces the attempt×1s wait between retries.
func WithBackoff(fn func(attempt int) time.Duration) Option {
	return func(c *Client) { c.backoff = fn }
}

// WithCacheTTL bounds how long a read may be served from cache. Zero
// disables caching.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Client) { c.cache.ttl = ttl }
}

type Client struct {
	baseURL        string
	auth           AuthContext
	http           *http.Client
	maxAttempts    int
	backoff        func(attempt int) time.Duration
	onUnauthorized func()
	newKey         func() string

	cache  *cache
	syncer singleflight.Group
}

func New(baseURL string, ac AuthContext, opts ...Option) (*Client, error) {
	if ac.Token == nil {
		return nil, errors.New("client: auth token supplier is required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("client: invalid base url: %w", err)
	}

	c := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		auth:        ac,
		http:        &http.Client{Timeout: DefaultTimeout},
		maxAttempts: DefaultMaxAttempts,
		backoff:     func(attempt int) time.Duration { return time.Duration(attempt) * time.Second },
		newKey:      uuid.NewString,
		cache:       newCache(DefaultCacheTTL),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type envelope struct {
	Success    bool            `json:"success"`
	Data       json.RawMessage `json:"data"`
	Message    string          `json:"message"`
	Pagination *api.Pagination `json:"pagination"`
	Errors     interface{}     `json:"errors"`
}

func (e *envelope) decode(out interface{}) error {
	if out == nil || len(e.Data) == 0 || string(e.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(e.Data, out); err != nil {
		return fmt.Errorf("decode response data: %w", err)
	}
	return nil
}

type call struct {
	method string
	path   string
	query  url.Values
	body   interface{}

	idempotencyKey string
	// resynced marks the one retry allowed after a profile sync.
	resynced bool
}

func (c *call) retryable() bool {
	switch c.method {
	case http.MethodGet, http.MethodPut, http.MethodDelete:
		return true
	}
	return c.idempotencyKey != ""
}

// do runs a call and returns its success envelope.
func (c *Client) do(ctx context.Context, cl *call) (*envelope, error) {
	var payload []byte
	if cl.body != nil {
		var err error
		if payload, err = json.Marshal(cl.body); err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
	}
	if cl.method == http.MethodPost && cl.idempotencyKey == "" {
		cl.idempotencyKey = c.newKey()
	}

	status, env, err := c.send(ctx, cl, payload)
	if err != nil {
		return nil, err
	}
	if status >= 200 && status < 300 {
		return env, nil
	}

	switch {
	case status == http.StatusUnauthorized:
		if c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		return nil, fmt.Errorf("%w: %s", ErrUnauthorized, env.Message)
	case status == http.StatusForbidden && env.Message == auth.MsgOrgRequired:
		return nil, ErrOrganizationRequired
	case status == http.StatusNotFound && env.Message == auth.MsgProfileNotFound && !cl.resynced && cl.path != syncPath:
		if err := c.resync(ctx); err != nil {
			return nil, err
		}
		cl.resynced = true
		return c.do(ctx, cl)
	}
	return nil, &APIError{Status: status, Message: env.Message, Errors: env.Errors}
}

// send performs the HTTP exchange, retrying transport failures and 5xx
// answers for calls that are safe to repeat.
func (c *Client) send(ctx context.Context, cl *call, payload []byte) (int, *envelope, error) {
	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return 0, nil, ctx.Err()
			case <-time.After(c.backoff(attempt - 1)):
			}
		}

		status, env, err := c.exchange(ctx, cl, payload)
		switch {
		case errors.Is(err, ErrUnauthorized):
			return 0, nil, err
		case err != nil:
			lastErr = err
		case status >= http.StatusInternalServerError:
			lastErr = &APIError{Status: status, Message: env.Message}
		default:
			return status, env, nil
		}

		if ctx.Err() != nil || !cl.retryable() {
			break
		}
		logger.Debug("retrying request", "method", cl.method, "path", cl.path, "attempt", attempt, "error", lastErr)
	}

	var apiErr *APIError
	if errors.As(lastErr, &apiErr) {
		return apiErr.Status, &envelope{Message: apiErr.Message}, nil
	}
	return 0, nil, lastErr
}

func (c *Client) exchange(ctx context.Context, cl *call, payload []byte) (int, *envelope, error) {
	target := c.baseURL + cl.path
	if len(cl.query) > 0 {
		target += "?" + cl.query.Encode()
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, cl.method, target, body)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}

	token, err := c.auth.Token(ctx)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if c.auth.OrgID != "" {
		req.Header.Set(auth.OrgHeader, c.auth.OrgID)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cl.idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", cl.idempotencyKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%s %s: %w", cl.method, cl.path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("read response: %w", err)
	}

	env := &envelope{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, env); err != nil {
			env.Message = strings.TrimSpace(string(raw))
		}
	}
	if env.Message == "" && resp.StatusCode >= 400 {
		env.Message = http.StatusText(resp.StatusCode)
	}
	return resp.StatusCode, env, nil
}

// resync creates the caller's profile. Concurrent calls for the same
// identity share one request.
func (c *Client) resync(ctx context.Context) error {
	token, err := c.auth.Token(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	_, err, _ = c.syncer.Do(subjectOf(token)+":sync", func() (interface{}, error) {
		logger.Info("user profile missing, syncing")
		return c.do(ctx, &call{method: http.MethodPost, path: syncPath, resynced: true})
	})
	if err != nil {
		return fmt.Errorf("sync user profile: %w", err)
	}
	c.cache.invalidate(entityMe)
	return nil
}

// subjectOf reads the token subject without verifying it; the server does
// the verification. The raw token stands in when it cannot be parsed.
func subjectOf(token string) string {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil || claims.Subject == "" {
		return token
	}
	return claims.Subject
}

// get serves a read from cache or fetches and caches it under entity.
func (c *Client) get(ctx context.Context, entity, path string, query url.Values, out interface{}) (*api.Pagination, error) {
	key := path
	if len(query) > 0 {
		key += "?" + query.Encode()
	}
	if env, ok := c.cache.get(key); ok {
		return env.Pagination, env.decode(out)
	}

	env, err := c.do(ctx, &call{method: http.MethodGet, path: path, query: query})
	if err != nil {
		return nil, err
	}
	if err := env.decode(out); err != nil {
		return nil, err
	}
	c.cache.put(entity, key, env)
	return env.Pagination, nil
}

// write runs a mutation and drops cached reads of the entities it touches.
func (c *Client) write(ctx context.Context, method, path string, body, out interface{}, touches ...string) error {
	env, err := c.do(ctx, &call{method: method, path: path, body: body})
	if err != nil {
		return err
	}
	c.cache.invalidate(touches...)
	return env.decode(out)
}
