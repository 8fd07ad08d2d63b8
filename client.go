package erpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	csrfCookieName = "csrftoken"
	csrfHeaderName = "X-CSRFToken"
)

// Client performs authenticated calls against the ERP admin API. It owns
// the single translation boundary for failures: anything HTTP-related
// surfaces as *APIError, and a 401 on an authenticated call triggers
// exactly one token refresh followed by one retry.
//
// The refresh protocol is per-request. Concurrent requests hitting an
// expired access token each refresh on their own; the races are harmless
// because the server accepts the refresh token repeatedly.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenStore
	log        zerolog.Logger
	userAgent  string
}

type Option func(*Client)

// WithHTTPClient provides the http.Client used for all calls. A cookie
// jar is installed on it when it has none, since the API expects cookies
// on every request.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTokenStore overrides the in-memory default, e.g. with a
// FileTokenStore for a durable session.
func WithTokenStore(store TokenStore) Option {
	return func(c *Client) {
		c.tokens = store
	}
}

// WithLogger attaches a request logger. Disabled by default.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// NewClient creates a client for the API at baseURL. An empty baseURL is
// reported immediately and makes every subsequent request fail fast with
// ErrNoBaseURL.
func NewClient(baseURL string, options ...Option) *Client {
	ret := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		tokens:     NewMemoryTokenStore(),
		log:        zerolog.Nop(),
	}
	for _, f := range options {
		f(ret)
	}
	if ret.httpClient.Jar == nil {
		if jar, err := cookiejar.New(nil); err == nil {
			ret.httpClient.Jar = jar
		}
	}
	if ret.baseURL == "" {
		ret.log.Error().Msg("API base URL is not configured, all requests will fail")
	}
	return ret
}

// Tokens exposes the client's token store.
func (c *Client) Tokens() TokenStore {
	return c.tokens
}

// RequestOptions carries the per-call extras of Do.
type RequestOptions struct {
	Query Query
	Body  any

	// NoAuth skips the Authorization header and the 401 refresh
	// protocol. Used by login, register and refresh.
	NoAuth bool
}

func drainAndClose(resp *http.Response) {
	// Needed for keepalive connection reusage.
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}

func isStateChanging(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

func (c *Client) buildURL(path string, query Query) (string, error) {
	if c.baseURL == "" {
		return "", ErrNoBaseURL
	}
	ret := c.baseURL + path
	if encoded := query.encode(); encoded != "" {
		ret += "?" + encoded
	}
	return ret, nil
}

// csrfToken reads the CSRF cookie the server set for the base URL. Empty
// when the jar has no such cookie.
func (c *Client) csrfToken() string {
	if c.httpClient.Jar == nil {
		return ""
	}
	u, err := url.Parse(c.baseURL + "/")
	if err != nil {
		return ""
	}
	for _, cookie := range c.httpClient.Jar.Cookies(u) {
		if cookie.Name == csrfCookieName {
			return cookie.Value
		}
	}
	return ""
}

func (c *Client) newRequest(ctx context.Context, method, path, fullURL string, opts RequestOptions) (*http.Request, error) {
	var body io.Reader
	if opts.Body != nil {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(opts.Body); err != nil {
			return nil, err
		}
		body = &buf
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	if !opts.NoAuth {
		if access := c.tokens.Get().Access; access != "" {
			req.Header.Set("Authorization", "Bearer "+access)
		}
	}

	// The refresh endpoint is CSRF-exempt; everywhere else the cookie is
	// echoed back when present and the header omitted when not.
	if isStateChanging(method) && !strings.Contains(path, refreshPath) {
		if token := c.csrfToken(); token != "" {
			req.Header.Set(csrfHeaderName, token)
		}
	}

	return req, nil
}

// Do performs one logical API call, decoding a JSON response body into
// out when out is non-nil. An empty success body leaves out untouched; a
// non-JSON success body is handed over raw when out is a *string.
func (c *Client) Do(ctx context.Context, method, path string, opts RequestOptions, out any) error {
	fullURL, err := c.buildURL(path, opts.Query)
	if err != nil {
		return err
	}

	if method == http.MethodPost && strings.Contains(path, loginPath) {
		c.ensureCSRFCookie(ctx)
	}

	attempt := func() (*http.Response, error) {
		req, err := c.newRequest(ctx, method, path, fullURL, opts)
		if err != nil {
			return nil, err
		}
		return c.httpClient.Do(req)
	}

	start := time.Now()

	resp, err := attempt()
	if err != nil {
		return transportError(err)
	}

	// Retry-once protocol: a successful refresh earns a single re-issue
	// with the new access token. A failed refresh falls through, so the
	// original 401 response is what gets normalized and propagated.
	if resp.StatusCode == http.StatusUnauthorized && !opts.NoAuth {
		if c.tryRefresh(ctx) {
			drainAndClose(resp)
			resp, err = attempt()
			if err != nil {
				return transportError(err)
			}
		}
	}

	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("request completed")

	return c.handleResponse(resp, out)
}

func (c *Client) handleResponse(resp *http.Response, out any) error {
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return transportError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var payload any
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &payload); err != nil {
				payload = string(raw)
			}
		}
		return newAPIError(payload, resp.StatusCode)
	}

	if out == nil || len(raw) == 0 {
		return nil
	}

	if err := json.Unmarshal(raw, out); err != nil {
		if s, ok := out.(*string); ok {
			*s = string(raw)
			return nil
		}
		return err
	}
	return nil
}

// ensureCSRFCookie primes the cookie jar before a login attempt by hitting
// a safe endpoint. The cookie lands in the jar even when the call itself
// is a 401; any failure here is swallowed since the cookie may not be
// required at all.
func (c *Client) ensureCSRFCookie(ctx context.Context) {
	if c.csrfToken() != "" {
		return
	}
	fullURL, err := c.buildURL(currentUserPath, nil)
	if err != nil {
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return
	}
	drainAndClose(resp)
}

// tryRefresh exchanges the stored refresh token for a new access token.
// Without a refresh token it returns false with no network call. Every
// failure collapses to false; the caller just skips its retry.
func (c *Client) tryRefresh(ctx context.Context) bool {
	refresh := c.tokens.Get().Refresh
	if refresh == "" {
		return false
	}

	fullURL, err := c.buildURL(refreshPath, nil)
	if err != nil {
		return false
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(RefreshRequest{Refresh: refresh}); err != nil {
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fullURL, &buf)
	if err != nil {
		return false
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token := c.csrfToken(); token != "" {
		req.Header.Set(csrfHeaderName, token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer drainAndClose(resp)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return false
	}

	var data RefreshResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return false
	}

	// A missing access token in the response clears the stored one; the
	// refresh token is only replaced when a new one is issued.
	update := TokenUpdate{Access: String(data.Access)}
	if data.Refresh != "" {
		update.Refresh = String(data.Refresh)
	}
	c.tokens.Set(update)

	return data.Access != ""
}
