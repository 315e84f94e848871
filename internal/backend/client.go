// Package backend is the typed client of the marketplace REST API.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	apperrors "github.com/Abdoul93230/kassarmou-mobile-client-sub000/pkg/errors"
	"github.com/Abdoul93230/kassarmou-mobile-client-sub000/pkg/httpclient"
)

const serviceName = "backend"

// Client calls the marketplace backend through a decorated Doer (retry,
// circuit breaker, bearer token).
type Client struct {
	http    httpclient.Doer
	baseURL string
	token   httpclient.TokenSource
}

// New creates a backend client. token reports whether a session exists;
// calls that need one fail fast without it.
func New(doer httpclient.Doer, baseURL string, token httpclient.TokenSource) *Client {
	if token == nil {
		token = func() string { return "" }
	}
	return &Client{
		http:    doer,
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
	}
}

// Ping checks that the backend answers at all. Any HTTP response counts.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL+"/", http.NoBody)
	if err != nil {
		return fmt.Errorf("create ping request: %w", err)
	}
	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.Body.Close()
}

func (c *Client) requireSession() error {
	if c.token() == "" {
		return apperrors.Unauthorized("sign in required")
	}
	return nil
}

// call sends body as JSON (when non-nil) and decodes a 2xx response into
// out (when non-nil). Any other status goes through ParseResponseError.
func (c *Client) call(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal %s %s request: %w", method, path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create %s %s request: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("call %s %s: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return httpclient.ParseResponseError(resp, serviceName)
	}
	defer resp.Body.Close()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

// callAuth is call for endpoints that need a signed-in user.
func (c *Client) callAuth(ctx context.Context, method, path string, body, out any) error {
	if err := c.requireSession(); err != nil {
		return err
	}
	return c.call(ctx, method, path, body, out)
}
