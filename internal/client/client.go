// Package client is the Go client of the seat booking API.  Calls that need
// a login take an explicit *Session; the client itself holds no identity.
// Error bodies map to typed errors and idempotent reads are retried on
// transient failures.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/iliyamo/seat-booking/internal/api"
)

const (
	defaultTimeout     = 10 * time.Second
	defaultMaxAttempts = 3
	defaultRetryBase   = 200 * time.Millisecond
	defaultRetryCap    = 1200 * time.Millisecond
	abandonTimeout     = 3 * time.Second
)

// ErrNoSession is returned by calls that need a session when given nil or
// a logged out one.  No request is sent in that case.
var ErrNoSession = errors.New("not logged in")

// APIError is returned when the API answers with a non-2xx status.  Code
// and Message come from the JSON error body when there is one.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e == nil {
		return "api error"
	}
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("api error: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

func hasCode(err error, code string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}

// IsUnauthorized reports whether the session was rejected.  The caller
// should drop the stored token and log in again.
func IsUnauthorized(err error) bool {
	if errors.Is(err, ErrNoSession) {
		return true
	}
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized && apiErr.Code != api.CodeInvalidCredentials
}

func IsInsufficientSeats(err error) bool { return hasCode(err, api.CodeInsufficientSeats) }
func IsInvalidCount(err error) bool      { return hasCode(err, api.CodeInvalidCount) }
func IsInvalidCredentials(err error) bool {
	return hasCode(err, api.CodeInvalidCredentials)
}

// IsNotFound reports whether the error represents a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithRetry sets how often and how fast GET requests are retried.
func WithRetry(maxAttempts int, base, cap time.Duration) Option {
	return func(c *Client) {
		c.maxAttempts = maxAttempts
		c.retryBase = base
		c.retryCap = cap
	}
}

// Client talks to one API server.  It is safe for concurrent use; the
// poller and interactive commands share a single instance.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	maxAttempts int
	retryBase   time.Duration
	retryCap    time.Duration
}

// New creates a client for baseURL, e.g. "http://localhost:8080".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		httpClient:  &http.Client{Timeout: defaultTimeout},
		baseURL:     strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		maxAttempts: defaultMaxAttempts,
		retryBase:   defaultRetryBase,
		retryCap:    defaultRetryCap,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ----- auth -----

// Signup creates an account.  It does not log in.
func (c *Client) Signup(ctx context.Context, req api.SignupRequest) error {
	if err := api.Validate(&req); err != nil {
		return err
	}
	var out api.MessageResponse
	return c.send(ctx, http.MethodPost, "/auth/signin", nil, req, &out)
}

// Login exchanges credentials for a token and returns the new session with
// the caller's profile cached on it.
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	req := api.LoginRequest{Email: strings.TrimSpace(email), Password: password}
	if err := api.Validate(&req); err != nil {
		return nil, err
	}
	var out api.TokenResponse
	if err := c.send(ctx, http.MethodPost, "/auth/login", nil, req, &out); err != nil {
		return nil, err
	}
	sess := &Session{Token: out.Token, ExpiresAt: out.ExpiresAt}
	u, err := c.Profile(ctx, sess)
	if err != nil {
		// the token is live server side; do not leave it behind
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), abandonTimeout)
		defer cancel()
		_ = c.Logout(lctx, sess)
		return nil, fmt.Errorf("load profile: %w", err)
	}
	sess.User = u
	return sess, nil
}

// Logout revokes sess server side and then clears it, so it cannot be
// used again even when the server call fails.
func (c *Client) Logout(ctx context.Context, sess *Session) error {
	var out api.MessageResponse
	err := c.send(ctx, http.MethodPost, "/auth/logout", sess, nil, &out)
	if sess != nil {
		*sess = Session{}
	}
	return err
}

// ----- seats -----

func (c *Client) Seats(ctx context.Context, sess *Session) ([]api.Seat, error) {
	var out api.SeatsResponse
	if err := c.send(ctx, http.MethodGet, "/seats", sess, nil, &out); err != nil {
		return nil, err
	}
	return out.Seats, nil
}

func (c *Client) Seat(ctx context.Context, sess *Session, id uint64) (api.Seat, error) {
	var out api.SeatResponse
	if err := c.send(ctx, http.MethodGet, "/seats/"+strconv.FormatUint(id, 10), sess, nil, &out); err != nil {
		return api.Seat{}, err
	}
	return out.Seat, nil
}

// ----- booking -----

// Book reserves n seats for the session's user.  Counts outside 1..7 are
// rejected locally with the same code the server would answer.
func (c *Client) Book(ctx context.Context, sess *Session, n int) (api.BookResponse, error) {
	req := api.BookRequest{NumOfSeats: api.PartySize(n)}
	if err := api.Validate(&req); err != nil {
		return api.BookResponse{}, &APIError{StatusCode: http.StatusBadRequest, Code: api.CodeInvalidCount, Message: err.Error()}
	}
	var out api.BookResponse
	err := c.send(ctx, http.MethodPost, "/booking/book", sess, req, &out)
	return out, err
}

// Cancel releases every seat held by the session's user.
func (c *Client) Cancel(ctx context.Context, sess *Session) (api.CancelResponse, error) {
	var out api.CancelResponse
	err := c.send(ctx, http.MethodDelete, "/booking/cancel", sess, nil, &out)
	return out, err
}

// MyBooking lists the seats held by the session's user.
func (c *Client) MyBooking(ctx context.Context, sess *Session) ([]api.Seat, error) {
	var out api.SeatsResponse
	if err := c.send(ctx, http.MethodGet, "/booking", sess, nil, &out); err != nil {
		return nil, err
	}
	return out.Seats, nil
}

// ----- profile -----

func (c *Client) Profile(ctx context.Context, sess *Session) (api.User, error) {
	var out api.UserResponse
	if err := c.send(ctx, http.MethodGet, "/user", sess, nil, &out); err != nil {
		return api.User{}, err
	}
	return out.User, nil
}

// UpdateProfile saves req and refreshes the profile cached on sess.
func (c *Client) UpdateProfile(ctx context.Context, sess *Session, req api.ProfileUpdate) (api.User, error) {
	if err := api.Validate(&req); err != nil {
		return api.User{}, err
	}
	var out api.ProfileResponse
	if err := c.send(ctx, http.MethodPut, "/user", sess, req, &out); err != nil {
		return api.User{}, err
	}
	sess.User = out.User
	return out.User, nil
}

func (c *Client) ResetPassword(ctx context.Context, sess *Session, req api.PasswordReset) error {
	if err := api.Validate(&req); err != nil {
		return err
	}
	var out api.MessageResponse
	return c.send(ctx, http.MethodPut, "/user/resetpassword", sess, req, &out)
}

// ----- transport -----

// send performs one API call.  Only GET is retried: a repeated POST could
// book twice.
func (c *Client) send(ctx context.Context, method, path string, sess *Session, body, out any) error {
	auth := requiresSession(path)
	if auth && !sess.Valid() {
		return ErrNoSession
	}

	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		payload = b
	}

	maxAttempts := 1
	if method == http.MethodGet && c.maxAttempts > 1 {
		maxAttempts = c.maxAttempts
	}
	endpoint := c.baseURL + path

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if auth {
			req.Header.Set("Authorization", "Bearer "+sess.Token)
		}

		res, err := c.httpClient.Do(req)
		if err != nil {
			if shouldRetryNetworkError(err) && attempt < maxAttempts {
				if waitErr := c.waitRetry(ctx, attempt); waitErr != nil {
					return waitErr
				}
				continue
			}
			return fmt.Errorf("request failed: %w", err)
		}

		if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
			apiErr := decodeError(res)
			if shouldRetryStatus(res.StatusCode) && attempt < maxAttempts {
				if waitErr := c.waitRetry(ctx, attempt); waitErr != nil {
					return waitErr
				}
				continue
			}
			return apiErr
		}

		err = json.NewDecoder(res.Body).Decode(out)
		_ = res.Body.Close()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("decode response from %s: %w", path, err)
		}
		return nil
	}

	return errors.New("request failed after retries")
}

// requiresSession reports whether path is behind JWTAuth, so a nil session
// fails locally instead of reaching the server.
func requiresSession(path string) bool {
	return path != "/auth/login" && path != "/auth/signin"
}

func decodeError(res *http.Response) *APIError {
	snippet, _ := io.ReadAll(io.LimitReader(res.Body, 8<<10))
	_ = res.Body.Close()

	apiErr := &APIError{StatusCode: res.StatusCode}
	var body api.ErrorResponse
	if json.Unmarshal(snippet, &body) == nil && body.Error != "" {
		apiErr.Code = body.Error
		apiErr.Message = body.Message
		return apiErr
	}
	apiErr.Message = strings.TrimSpace(string(snippet))
	return apiErr
}

func shouldRetryStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func shouldRetryNetworkError(err error) bool {
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

func (c *Client) waitRetry(ctx context.Context, attempt int) error {
	timer := time.NewTimer(c.retryDelay(attempt))
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *Client) retryDelay(attempt int) time.Duration {
	base := c.retryBase
	if base <= 0 {
		base = defaultRetryBase
	}
	cap := c.retryCap
	if cap <= 0 {
		cap = defaultRetryCap
	}
	delay := base
	for i := 1; i < attempt; i++ {
		if delay >= cap/2 {
			return cap
		}
		delay *= 2
	}
	if delay > cap {
		return cap
	}
	return delay
}
