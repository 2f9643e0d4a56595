// Package apiclient is the single point of contact with the portfolio API.
// All failures are normalized to FetchError (reads) or SubmitError (writes).
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// DefaultTimeout is the transport-level deadline for every request.
const DefaultTimeout = 10 * time.Second

// maxBodyBytes bounds how much of a response body is read.
const maxBodyBytes = 4 << 20

// Options configures a Client.
type Options struct {
	BaseURL    string        // backend origin, e.g. https://api.example.com; "/api" is appended
	Timeout    time.Duration // defaults to DefaultTimeout
	HTTPClient *http.Client  // optional; Timeout is applied when nil
	Logger     *log.Logger   // diagnostic sink; defaults to log.Default()
	AdminToken string        // bearer token for admin reads
}

// Client issues requests against the portfolio API.
type Client struct {
	apiURL     string
	httpClient *http.Client
	timeout    time.Duration
	logger     *log.Logger
	adminToken string

	tracking sync.WaitGroup
}

// New creates a Client. BaseURL is required.
func New(opts Options) (*Client, error) {
	base := strings.TrimSpace(opts.BaseURL)
	if base == "" {
		return nil, fmt.Errorf("api base URL is empty")
	}
	parsed, err := url.Parse(base)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid api base URL %q", base)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	apiURL := strings.TrimRight(base, "/")
	if !strings.HasSuffix(apiURL, "/api") {
		apiURL += "/api"
	}

	return &Client{
		apiURL:     apiURL,
		httpClient: httpClient,
		timeout:    timeout,
		logger:     logger,
		adminToken: opts.AdminToken,
	}, nil
}

// APIURL returns the resolved API root, including the /api prefix.
func (c *Client) APIURL() string {
	return c.apiURL
}

// response is a completed HTTP exchange.
type response struct {
	status int
	body   []byte
}

func (r *response) ok() bool {
	return r.status >= 200 && r.status < 300
}

// do performs a JSON request. A non-nil error means no response was obtained.
func (c *Client) do(ctx context.Context, method, path string, payload any, admin bool) (*response, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, c.apiURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if ip := ClientIPFrom(ctx); ip != "" {
		req.Header.Set(ForwardedForHeader, ip)
	}
	if admin && c.adminToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.adminToken)
	}

	c.logger.Printf("Making %s request to %s", method, path)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &response{status: resp.StatusCode, body: data}, nil
}

// get performs a read and decodes a 2xx body into out. Failures are FetchErrors.
func (c *Client) get(ctx context.Context, op, path string, admin bool, out any) (*response, error) {
	resp, err := c.do(ctx, http.MethodGet, path, nil, admin)
	if err != nil {
		c.logger.Printf("API Error: %v", err)
		return nil, &FetchError{Op: op, Message: failureMessage(nil, 0, err), Cause: err}
	}
	if !resp.ok() {
		msg := failureMessage(resp.body, resp.status, nil)
		c.logger.Printf("API Error: %s", msg)
		return resp, &FetchError{Op: op, Message: msg, StatusCode: resp.status}
	}
	if out != nil {
		if err := json.Unmarshal(resp.body, out); err != nil {
			return resp, &FetchError{
				Op:         op,
				Message:    "invalid response body: " + err.Error(),
				StatusCode: resp.status,
				Cause:      err,
			}
		}
	}
	return resp, nil
}
