// Package gateway talks to the users REST collection.
package gateway

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

	"example.com/userdesk/internal/core"
)

// Gateway is the set of operations the controllers need from the backend.
type Gateway interface {
	List(ctx context.Context) ([]core.User, error)
	Get(ctx context.Context, id string) (core.User, error)
	Create(ctx context.Context, u core.User) (core.User, error)
	Update(ctx context.Context, id string, u core.User) (core.User, error)
	Remove(ctx context.Context, id string) error
}

var _ Gateway = (*Client)(nil)

// maxErrorBody bounds how much of an error response is kept for messages.
const maxErrorBody = 512

// Client implements Gateway over HTTP/JSON. Every call is a single round
// trip; nothing is retried.
type Client struct {
	http *http.Client
	base string
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets a per-request timeout. Zero leaves the transport default.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// New returns a client for the collection at collectionURL, for example
// "http://localhost:8081/users".
func New(collectionURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(collectionURL)
	if err != nil {
		return nil, fmt.Errorf("gateway: bad collection url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("gateway: bad collection url %q: scheme must be http or https", collectionURL)
	}

	c := &Client{
		http: &http.Client{},
		base: strings.TrimSuffix(collectionURL, "/"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// build URL of a member of the collection
func (c *Client) member(id string) string {
	return c.base + "/" + url.PathEscape(id)
}

func (c *Client) List(ctx context.Context) ([]core.User, error) {
	var users []core.User
	if err := c.do(ctx, http.MethodGet, c.base, nil, &users); err != nil {
		return nil, err
	}
	if users == nil {
		users = []core.User{}
	}
	return users, nil
}

func (c *Client) Get(ctx context.Context, id string) (core.User, error) {
	var u core.User
	if err := c.do(ctx, http.MethodGet, c.member(id), nil, &u); err != nil {
		return core.User{}, err
	}
	return u, nil
}

// Create posts u without its id and returns the record the backend stored.
func (c *Client) Create(ctx context.Context, u core.User) (core.User, error) {
	u.ID = ""
	var created core.User
	if err := c.do(ctx, http.MethodPost, c.base, &u, &created); err != nil {
		return core.User{}, err
	}
	if created.ID == "" {
		return core.User{}, &core.RequestError{
			Method: http.MethodPost, URL: c.base,
			Err: errors.New("response has no id"),
		}
	}
	return created, nil
}

func (c *Client) Update(ctx context.Context, id string, u core.User) (core.User, error) {
	u.ID = id
	var updated core.User
	if err := c.do(ctx, http.MethodPut, c.member(id), &u, &updated); err != nil {
		return core.User{}, err
	}
	return updated, nil
}

func (c *Client) Remove(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, c.member(id), nil, nil)
}

// do performs one request. in is sent as JSON when non-nil; a 2xx response
// body is decoded into out when out is non-nil and the body is not empty.
func (c *Client) do(ctx context.Context, method, target string, in, out any) error {
	fail := func(status int, body string, err error) error {
		return &core.RequestError{Method: method, URL: target, Status: status, Body: body, Err: err}
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fail(0, "", fmt.Errorf("marshal request: %w", err))
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fail(0, "", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fail(0, "", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fail(resp.StatusCode, strings.TrimSpace(string(msg)), nil)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fail(resp.StatusCode, "", fmt.Errorf("read response: %w", err))
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fail(resp.StatusCode, "", fmt.Errorf("decode response: %w", err))
	}
	return nil
}
