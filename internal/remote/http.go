package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Client is the shared HTTP plumbing for every remote resource.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	log     logrus.FieldLogger
}

// NewClient builds a Client. An invalid proxy URL is logged and ignored.
func NewClient(baseURL, proxy string, timeout time.Duration, tokens TokenSource, log logrus.FieldLogger) *Client {
	var transport http.RoundTripper = &http.Transport{}
	if proxy != "" {
		proxyURL, err := url.Parse(proxy)
		if err != nil {
			log.Warnf("Invalid proxy URL %q: %v. Remote calls will not use a proxy.", proxy, err)
		} else {
			transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
		}
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Transport: transport, Timeout: timeout},
		tokens:  tokens,
		log:     log,
	}
}

// do sends body as JSON and decodes a 2xx response into out (when non-nil).
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request payload: %w", err)
		}
		reader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if resp.StatusCode == http.StatusUnauthorized {
			c.log.WithField("path", path).Warn("Remote rejected the session token")
		}
		return &StatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}

// HTTP is a Transport backed by a JSON REST resource.
type HTTP[In, Out any] struct {
	client   *Client
	resource string
}

var _ Deleter = (*HTTP[struct{}, struct{}])(nil)

// NewHTTP returns a transport for /{resource}.
func NewHTTP[In, Out any](client *Client, resource string) *HTTP[In, Out] {
	return &HTTP[In, Out]{client: client, resource: "/" + strings.Trim(resource, "/")}
}

// Create implements Transport with POST /{resource}.
func (h *HTTP[In, Out]) Create(ctx context.Context, in In) (Out, error) {
	var out Out
	err := h.client.do(ctx, http.MethodPost, h.resource, in, &out)
	return out, err
}

// Update implements Transport with PUT /{resource}/{id}.
func (h *HTTP[In, Out]) Update(ctx context.Context, id string, in In) (Out, error) {
	var out Out
	err := h.client.do(ctx, http.MethodPut, h.resource+"/"+url.PathEscape(id), in, &out)
	return out, err
}

// Delete implements Deleter with DELETE /{resource}/{id}.
func (h *HTTP[In, Out]) Delete(ctx context.Context, id string) error {
	return h.client.do(ctx, http.MethodDelete, h.resource+"/"+url.PathEscape(id), nil, nil)
}
