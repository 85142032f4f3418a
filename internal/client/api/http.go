package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/medcareai/medcare-client/internal/client/models"
	"github.com/medcareai/medcare-client/internal/common"
	"github.com/medcareai/medcare-client/internal/logging"
	"github.com/medcareai/medcare-client/internal/netx"
)

// TokenSource yields the credential to attach to outbound requests. The
// credential store satisfies it; the gateway holds no token of its own.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
	Clear(ctx context.Context) error
}

// HTTPClient is the gateway wrapping all outbound calls to the MedCare
// backend. Before dispatch it attaches the stored credential as a bearer
// header; on a 401 response it runs the session-invalidation sequence at
// most once per credential, no matter how many in-flight requests fail
// concurrently.
type HTTPClient struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	log     logging.Logger

	nav           Navigator
	onInvalidated func(ctx context.Context)

	mu              sync.Mutex
	lastInvalidated string
}

// NewHTTPClient builds a gateway for the API rooted at baseURL (including
// any path prefix, e.g. "http://localhost:8000/api"). timeout applies to
// every request.
func NewHTTPClient(baseURL string, timeout time.Duration, tokens TokenSource, log logging.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		tokens:  tokens,
		log:     log.With("component", "api"),
	}
}

// SetNavigator wires the routing layer used for the expired-session
// redirect. Without it the gateway still clears credentials and notifies,
// but performs no navigation.
func (c *HTTPClient) SetNavigator(nav Navigator) {
	c.nav = nav
}

// SetInvalidationHook registers the callback run synchronously when the
// server rejects the stored credential. It is invoked at most once per
// credential.
func (c *HTTPClient) SetInvalidationHook(fn func(ctx context.Context)) {
	c.onInvalidated = fn
}

func (c *HTTPClient) do(ctx context.Context, method, path string, query url.Values, body []byte, contentType string, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("build request %s %s: %w", method, path, err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set(common.RequestIDHeader, uuid.NewString())
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	tok, err := c.tokens.Token(ctx)
	if err != nil {
		c.log.Warn(ctx, "could not read stored credential", "error", err)
		tok = ""
	}
	if tok != "" {
		req.Header.Set(common.AuthorizationHeader, "Bearer "+tok)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", common.ErrUnavailable, method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response %s %s: %w", method, path, err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		c.handleUnauthorized(ctx, tok)
		return normalizeError(resp.StatusCode, respBody)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return normalizeError(resp.StatusCode, respBody)
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decode response %s %s: %w", method, path, err)
		}
	}
	return nil
}

// handleUnauthorized runs the invalidation sequence: clear the store, notify
// the session layer, and redirect to the login view unless it is already the
// current view. The sequence runs at most once per offending credential, so
// N concurrent 401 responses cause exactly one clear-and-redirect — and a
// 401 on an unauthenticated request (e.g. the login endpoint rejecting bad
// credentials) causes none.
func (c *HTTPClient) handleUnauthorized(ctx context.Context, reqToken string) {
	if reqToken == "" {
		return
	}

	c.mu.Lock()
	if c.lastInvalidated == reqToken {
		c.mu.Unlock()
		return
	}
	c.lastInvalidated = reqToken
	c.mu.Unlock()

	c.log.Warn(ctx, "server rejected credential, invalidating session")

	if err := c.tokens.Clear(ctx); err != nil {
		c.log.Error(ctx, "failed to clear rejected credential", "error", err)
	}

	if c.onInvalidated != nil {
		c.onInvalidated(ctx)
	}

	if c.nav != nil && c.nav.CurrentPath() != "/login" {
		c.nav.RedirectToLogin(true)
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signupRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type googleAuthRequest struct {
	Credential string `json:"credential"`
}

func (c *HTTPClient) postJSON(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode request %s: %w", path, err)
	}
	return c.do(ctx, http.MethodPost, path, nil, body, "application/json", out)
}

func (c *HTTPClient) Login(ctx context.Context, email, password string) (*models.AuthResult, error) {
	var res models.AuthResult
	if err := c.postJSON(ctx, "/auth/login", loginRequest{Email: email, Password: password}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *HTTPClient) Signup(ctx context.Context, fullName, email, password string) (*models.AuthResult, error) {
	var res models.AuthResult
	req := signupRequest{FullName: fullName, Email: email, Password: password}
	if err := c.postJSON(ctx, "/auth/signup", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *HTTPClient) GoogleAuth(ctx context.Context, credential string) (*models.AuthResult, error) {
	var res models.AuthResult
	if err := c.postJSON(ctx, "/auth/google", googleAuthRequest{Credential: credential}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *HTTPClient) CurrentUser(ctx context.Context) (*models.User, error) {
	var u models.User
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, nil, "", &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *HTTPClient) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", nil, nil, "", nil)
}

func (c *HTTPClient) News(ctx context.Context, q models.NewsQuery) (*models.NewsPage, error) {
	query := url.Values{}
	if q.Category != "" {
		query.Set("category", q.Category)
	}
	if q.Lang != "" {
		query.Set("lang", q.Lang)
	}
	if q.Page > 0 {
		query.Set("page", strconv.Itoa(q.Page))
	}

	var page models.NewsPage
	if err := c.do(ctx, http.MethodGet, "/news", query, nil, "", &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *HTTPClient) About(ctx context.Context) (*models.Message, error) {
	return c.getMessage(ctx, "/about")
}

func (c *HTTPClient) Contact(ctx context.Context) (*models.Message, error) {
	return c.getMessage(ctx, "/contact")
}

func (c *HTTPClient) AskDoctor(ctx context.Context) (*models.Message, error) {
	return c.getMessage(ctx, "/askdoctor")
}

func (c *HTTPClient) Report(ctx context.Context) (*models.Message, error) {
	return c.getMessage(ctx, "/report")
}

func (c *HTTPClient) Rays(ctx context.Context) (*models.Message, error) {
	return c.getMessage(ctx, "/rays")
}

func (c *HTTPClient) Analysis(ctx context.Context) (*models.Message, error) {
	return c.getMessage(ctx, "/analysis")
}

func (c *HTTPClient) getMessage(ctx context.Context, path string) (*models.Message, error) {
	var m models.Message
	if err := c.do(ctx, http.MethodGet, path, nil, nil, "", &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (c *HTTPClient) UploadMRI(ctx context.Context, fileName string, file io.Reader) (*models.Message, error) {
	body, contentType, err := netx.MultipartFile("file", fileName, file)
	if err != nil {
		return nil, fmt.Errorf("prepare MRI upload: %w", err)
	}

	var m models.Message
	if err := c.do(ctx, http.MethodPost, "/rays/mri", nil, body, contentType, &m); err != nil {
		return nil, err
	}
	return &m, nil
}
