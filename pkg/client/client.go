// Package client is a typed Go client for the collab-events HTTP API.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"collab-events/internal/domain"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const resultSuccess = 2000

// envelope mirrors the server's {code,type,message,result} wrapper.
type envelope[T any] struct {
	Code    int    `json:"code"`
	Type    string `json:"type"`
	Message string `json:"message"`
	Result  T      `json:"result"`
}

// APIError is a non-success answer from the server.
type APIError struct {
	Status  int
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("collab-events API error: %s (http %d)", e.Message, e.Status)
}

// StatusOf returns the HTTP status carried by an *APIError, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// Tokens is the register/login answer.
type Tokens struct {
	UserID       int64  `json:"user_id"`
	AccessToken  string `json:"token"`
	RefreshToken string `json:"refresh_token"`
}

// EventInput is the body of create, update and batch items.
type EventInput struct {
	Title          string     `json:"title"`
	Description    *string    `json:"description,omitempty"`
	StartTime      *time.Time `json:"start_time,omitempty"`
	EndTime        *time.Time `json:"end_time,omitempty"`
	RecurrenceRule *string    `json:"recurrence_rule,omitempty"`
	ChangeSummary  string     `json:"change_summary,omitempty"`
}

// Client talks to one collab-events server. After Login or Register it sends
// the access token on every request.
type Client struct {
	httpClient *resty.Client
	logger     *zap.Logger

	mu     sync.RWMutex
	tokens Tokens
}

func New(baseURL string, logger *zap.Logger) *Client {
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(3 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Client{httpClient: httpClient, logger: logger}
}

// SetTokens installs tokens obtained elsewhere.
func (c *Client) SetTokens(t Tokens) {
	c.mu.Lock()
	c.tokens = t
	c.mu.Unlock()
}

func (c *Client) Tokens() Tokens {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tokens
}

func (c *Client) request(ctx context.Context, token string) *resty.Request {
	req := c.httpClient.R().SetContext(ctx)
	if token != "" {
		req.SetAuthToken(token)
	}
	return req
}

func (c *Client) authed(ctx context.Context) *resty.Request {
	return c.request(ctx, c.Tokens().AccessToken)
}

// call executes req and unwraps the envelope into T.
func call[T any](c *Client, req *resty.Request, method, path string) (T, error) {
	var ok envelope[T]
	var failed envelope[any]
	req.SetResult(&ok).SetError(&failed)

	var zero T
	resp, err := req.Execute(method, path)
	if err != nil {
		c.logger.Error("collab-events API call failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return zero, fmt.Errorf("failed to call %s %s: %w", method, path, err)
	}
	if resp.IsError() {
		msg := failed.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode())
		}
		return zero, &APIError{Status: resp.StatusCode(), Code: failed.Code, Message: msg}
	}
	if ok.Code != resultSuccess {
		return zero, &APIError{Status: resp.StatusCode(), Code: ok.Code, Message: ok.Message}
	}
	return ok.Result, nil
}

func eventPath(eventID int64, rest ...string) string {
	p := "/api/events/" + strconv.FormatInt(eventID, 10)
	for _, r := range rest {
		p += "/" + r
	}
	return p
}

// Register creates an account and keeps its tokens.
func (c *Client) Register(ctx context.Context, username, email, password, role string) (*Tokens, error) {
	body := map[string]string{"username": username, "email": email, "password": password, "role": role}
	t, err := call[Tokens](c, c.request(ctx, "").SetBody(body), http.MethodPost, "/api/auth/register")
	if err != nil {
		return nil, err
	}
	c.SetTokens(t)
	return &t, nil
}

// Login accepts a username or an email and keeps the returned tokens.
func (c *Client) Login(ctx context.Context, login, password string) (*Tokens, error) {
	body := map[string]string{"username": login, "password": password}
	t, err := call[Tokens](c, c.request(ctx, "").SetBody(body), http.MethodPost, "/api/auth/login")
	if err != nil {
		return nil, err
	}
	c.SetTokens(t)
	return &t, nil
}

// Refresh swaps the refresh token for a new access token.
func (c *Client) Refresh(ctx context.Context) error {
	t := c.Tokens()
	res, err := call[map[string]string](c, c.request(ctx, t.RefreshToken), http.MethodPost, "/api/auth/refresh")
	if err != nil {
		return err
	}
	t.AccessToken = res["access_token"]
	c.SetTokens(t)
	return nil
}

// Logout revokes both tokens and forgets them.
func (c *Client) Logout(ctx context.Context) error {
	t := c.Tokens()
	req := c.request(ctx, t.AccessToken)
	if t.RefreshToken != "" {
		req.SetBody(map[string]string{"refresh_token": t.RefreshToken})
	}
	if _, err := call[any](c, req, http.MethodPost, "/api/auth/logout"); err != nil {
		return err
	}
	c.SetTokens(Tokens{})
	return nil
}

func (c *Client) CreateEvent(ctx context.Context, in EventInput) (int64, error) {
	res, err := call[struct {
		EventID int64 `json:"event_id"`
	}](c, c.authed(ctx).SetBody(in), http.MethodPost, "/api/events")
	return res.EventID, err
}

func (c *Client) CreateEventsBatch(ctx context.Context, items []EventInput) ([]int64, error) {
	body := map[string]any{"events": items}
	res, err := call[struct {
		IDs []int64 `json:"created_event_ids"`
	}](c, c.authed(ctx).SetBody(body), http.MethodPost, "/api/events/batch")
	return res.IDs, err
}

func (c *Client) ListEvents(ctx context.Context, limit, offset int) ([]domain.Event, error) {
	req := c.authed(ctx).SetQueryParams(map[string]string{
		"limit":  strconv.Itoa(limit),
		"offset": strconv.Itoa(offset),
	})
	return call[[]domain.Event](c, req, http.MethodGet, "/api/events")
}

func (c *Client) GetEvent(ctx context.Context, eventID int64) (*domain.Event, error) {
	ev, err := call[domain.Event](c, c.authed(ctx), http.MethodGet, eventPath(eventID))
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

// UpdateEvent replaces the event's fields and returns the new version number.
func (c *Client) UpdateEvent(ctx context.Context, eventID int64, in EventInput) (int, error) {
	res, err := call[struct {
		Version int `json:"version"`
	}](c, c.authed(ctx).SetBody(in), http.MethodPut, eventPath(eventID))
	return res.Version, err
}

func (c *Client) DeleteEvent(ctx context.Context, eventID int64) error {
	_, err := call[any](c, c.authed(ctx), http.MethodDelete, eventPath(eventID))
	return err
}

func (c *Client) ListVersions(ctx context.Context, eventID int64) ([]domain.EventVersion, error) {
	return call[[]domain.EventVersion](c, c.authed(ctx), http.MethodGet, eventPath(eventID, "history"))
}

func (c *Client) GetVersion(ctx context.Context, eventID int64, version int) (*domain.EventVersion, error) {
	v, err := call[domain.EventVersion](c, c.authed(ctx), http.MethodGet, eventPath(eventID, "history", strconv.Itoa(version)))
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Rollback restores a version's fields as a new version and returns its number.
func (c *Client) Rollback(ctx context.Context, eventID int64, version int) (int, error) {
	res, err := call[struct {
		Version int `json:"version"`
	}](c, c.authed(ctx), http.MethodPost, eventPath(eventID, "rollback", strconv.Itoa(version)))
	return res.Version, err
}

func (c *Client) Changelog(ctx context.Context, eventID int64) ([]domain.EventChangelogEntry, error) {
	return call[[]domain.EventChangelogEntry](c, c.authed(ctx), http.MethodGet, eventPath(eventID, "changelog"))
}

// ExportChangelog downloads the changelog workbook (.xlsx bytes).
func (c *Client) ExportChangelog(ctx context.Context, eventID int64) ([]byte, error) {
	path := eventPath(eventID, "changelog", "export")
	resp, err := c.authed(ctx).Get(path)
	if err != nil {
		return nil, fmt.Errorf("failed to call GET %s: %w", path, err)
	}
	if resp.IsError() {
		return nil, &APIError{Status: resp.StatusCode(), Message: http.StatusText(resp.StatusCode())}
	}
	return resp.Body(), nil
}

// Diff returns the stored diff between two versions. A pair with no stored
// diff is an *APIError with Status 200.
func (c *Client) Diff(ctx context.Context, eventID int64, v1, v2 int) (*domain.EventVersionDiff, error) {
	d, err := call[domain.EventVersionDiff](c, c.authed(ctx), http.MethodGet,
		eventPath(eventID, "diff", strconv.Itoa(v1), strconv.Itoa(v2)))
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (c *Client) Share(ctx context.Context, eventID, userID int64, role string) (*domain.EventPermission, error) {
	body := map[string]any{"user_id": userID, "role": role}
	p, err := call[domain.EventPermission](c, c.authed(ctx).SetBody(body), http.MethodPost, eventPath(eventID, "share"))
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) ListPermissions(ctx context.Context, eventID int64) ([]domain.EventPermission, error) {
	return call[[]domain.EventPermission](c, c.authed(ctx), http.MethodGet, eventPath(eventID, "permissions"))
}

func (c *Client) UpdatePermission(ctx context.Context, eventID, userID int64, role string) (*domain.EventPermission, error) {
	body := map[string]string{"role": role}
	p, err := call[domain.EventPermission](c, c.authed(ctx).SetBody(body), http.MethodPut,
		eventPath(eventID, "permissions", strconv.FormatInt(userID, 10)))
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) RemovePermission(ctx context.Context, eventID, userID int64) error {
	_, err := call[any](c, c.authed(ctx), http.MethodDelete,
		eventPath(eventID, "permissions", strconv.FormatInt(userID, 10)))
	return err
}
