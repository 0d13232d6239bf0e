// Package api is the request-response fallback for the push channel.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/saransh1220/careerpush/internal/modules/notification/domain"
)

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d: %s", e.Method, e.Path, e.Code, e.Body)
}

type Config struct {
	BaseURL  string
	Timeout  time.Duration
	PageSize int
}

// Client implements domain.NotificationAPI over HTTP/JSON.
type Client struct {
	base     *url.URL
	http     *http.Client
	auth     domain.AuthProvider
	pageSize int
}

var _ domain.NotificationAPI = (*Client)(nil)

func NewClient(cfg Config, auth domain.AuthProvider, httpClient *http.Client) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse api base url: %w", err)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	return &Client{base: base, http: httpClient, auth: auth, pageSize: pageSize}, nil
}

type listResponse struct {
	Data []domain.Notification `json:"data"`
}

type countResponse struct {
	Count int `json:"count"`
}

func (c *Client) FetchNotifications(ctx context.Context) ([]domain.Notification, error) {
	var resp listResponse
	q := url.Values{"limit": {strconv.Itoa(c.pageSize)}}
	if err := c.do(ctx, http.MethodGet, "/notifications", q, &resp); err != nil {
		return nil, err
	}
	if resp.Data == nil {
		return []domain.Notification{}, nil
	}
	return resp.Data, nil
}

func (c *Client) FetchUnreadCount(ctx context.Context) (int, error) {
	var resp countResponse
	if err := c.do(ctx, http.MethodGet, "/notifications/unread-count", nil, &resp); err != nil {
		return 0, err
	}
	return resp.Count, nil
}

func (c *Client) MarkAsRead(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPatch, "/notifications/read/"+url.PathEscape(id), nil, nil)
}

func (c *Client) MarkAllAsRead(ctx context.Context) error {
	return c.do(ctx, http.MethodPatch, "/notifications/read-all", nil, nil)
}

func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/notifications/"+url.PathEscape(id), nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, out any) error {
	token, ok := c.auth.Token()
	if !ok {
		return domain.ErrUnauthorized
	}

	target := c.base.String() + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		serr := &StatusError{Method: method, Path: path, Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
		if resp.StatusCode == http.StatusUnauthorized {
			return errors.Join(domain.ErrUnauthorized, serr)
		}
		if resp.StatusCode == http.StatusNotFound {
			return errors.Join(domain.ErrNotificationNotFound, serr)
		}
		return serr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
