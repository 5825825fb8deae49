// Package authclient implements authflow.AuthService against a remote JSON
// authentication API.
package authclient

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

	"github.com/goliatone/go-authflow"
	"github.com/samber/oops"
)

const (
	codeUnavailable = "AUTH_SERVICE_UNAVAILABLE"
	codeBadResponse = "AUTH_SERVICE_BAD_RESPONSE"
	codeRejected    = "AUTH_SERVICE_REJECTED"
)

// Default endpoint paths, relative to the base URL.
const (
	PathLogin         = "/login"
	PathRegister      = "/register"
	PathPasswordReset = "/password-reset"
	PathAuthLink      = "/oauth/link"
)

// DefaultTimeout bounds each call to the auth API.
const DefaultTimeout = 10 * time.Second

// RejectionError is returned when the API answers with a non 2xx status.
// Its message is meant to be shown to the user.
type RejectionError struct {
	StatusCode int
	Message    string
}

func (e *RejectionError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return http.StatusText(e.StatusCode)
}

// IsRejection reports whether err is a RejectionError.
func IsRejection(err error) bool {
	var rej *RejectionError
	return errors.As(err, &rej)
}

// Logger is the logging interface used by the client.
type Logger = authflow.Logger

// Client talks to the auth API.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	headers http.Header
	logger  Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the per request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithHeader adds a header sent with every request, e.g. an API key.
func WithHeader(key, value string) Option {
	return func(c *Client) {
		c.headers.Add(key, value)
	}
}

// WithLogger sets the client logger.
func WithLogger(logger Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New returns a client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("authclient: parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("authclient: base url %q must be absolute", baseURL)
	}

	c := &Client{
		baseURL: u,
		http:    &http.Client{Timeout: DefaultTimeout},
		headers: http.Header{},
		logger:  authflow.NoopLogger(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Password  string `json:"password"`
	BirthDate string `json:"birth_date"`
}

type resetRequest struct {
	Email string `json:"email"`
}

type linkResponse struct {
	URL string `json:"url"`
}

type errorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// LogIn implements authflow.AuthService.
func (c *Client) LogIn(ctx context.Context, creds authflow.Credentials) (*authflow.User, error) {
	var user *authflow.User
	err := c.do(ctx, http.MethodPost, PathLogin, nil, loginRequest(creds), &user)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Register implements authflow.AuthService.
func (c *Client) Register(ctx context.Context, reg authflow.Registration) (*authflow.User, error) {
	body := registerRequest{
		Email:     reg.Email,
		FirstName: reg.FirstName,
		LastName:  reg.LastName,
		Password:  reg.Password,
	}
	if !reg.BirthDate.IsZero() {
		body.BirthDate = reg.BirthDate.Format(authflow.DateLayout)
	}

	var user *authflow.User
	if err := c.do(ctx, http.MethodPost, PathRegister, nil, body, &user); err != nil {
		return nil, err
	}
	return user, nil
}

// ResetPassword implements authflow.AuthService.
func (c *Client) ResetPassword(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, PathPasswordReset, nil, resetRequest{Email: email}, nil)
}

// AuthLink implements authflow.AuthLinker.
func (c *Client) AuthLink(ctx context.Context, purpose string) (string, error) {
	var resp linkResponse
	query := url.Values{"purpose": []string{purpose}}
	if err := c.do(ctx, http.MethodGet, PathAuthLink, query, nil, &resp); err != nil {
		return "", err
	}
	return resp.URL, nil
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return oops.Code(codeBadResponse).With("path", path).Wrapf(err, "encode request")
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), body)
	if err != nil {
		return oops.Code(codeUnavailable).With("path", path).Wrap(err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, vals := range c.headers {
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("auth api %s %s: %v", method, path, err)
		return oops.Code(codeUnavailable).
			With("path", path).
			Wrapf(err, "authentication service unavailable")
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return oops.Code(codeBadResponse).With("path", path).Wrapf(err, "read response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		rej := &RejectionError{StatusCode: resp.StatusCode, Message: rejectionMessage(payload)}
		c.logger.Info("auth api %s %s rejected: %d %s", method, path, resp.StatusCode, rej.Message)
		return oops.Code(codeRejected).
			With("path", path).
			With("status", resp.StatusCode).
			Wrap(rej)
	}

	if out == nil || len(bytes.TrimSpace(payload)) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return oops.Code(codeBadResponse).With("path", path).Wrapf(err, "decode response")
	}
	return nil
}

func rejectionMessage(payload []byte) string {
	var er errorResponse
	if err := json.Unmarshal(payload, &er); err == nil {
		if er.Message != "" {
			return er.Message
		}
		if er.Error != "" {
			return er.Error
		}
	}
	return strings.TrimSpace(string(payload))
}
