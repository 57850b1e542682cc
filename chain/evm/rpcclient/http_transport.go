package rpcclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// maxResponseSize bounds the body read from an HTTP node.
const maxResponseSize = 16 * 1024 * 1024

// HTTPTransport posts request records to a JSON-RPC node over HTTP, exactly as they were logged.
type HTTPTransport struct {
	url    string
	host   string
	client *http.Client
}

var _ SyncTransport = (*HTTPTransport)(nil)

// HTTPTransportOption configures an HTTPTransport.
type HTTPTransportOption func(*HTTPTransport)

// WithHTTPClient sets the HTTP client used to reach the node. Defaults to http.DefaultClient.
func WithHTTPClient(client *http.Client) HTTPTransportOption {
	return func(t *HTTPTransport) {
		t.client = client
	}
}

// NewHTTPTransport creates a transport for an http(s) endpoint.
func NewHTTPTransport(rawURL string, opts ...HTTPTransportOption) (*HTTPTransport, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint %q: %w", rawURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid endpoint %q: unsupported scheme %q", rawURL, u.Scheme)
	}

	t := &HTTPTransport{
		url:    rawURL,
		host:   u.Host,
		client: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(t)
	}

	return t, nil
}

// Host returns the host (and port) of the endpoint.
func (t *HTTPTransport) Host() string {
	return t.host
}

// Send posts the request and decodes the JSON-RPC response. A response body carrying a JSON-RPC
// error object is returned as a response even when the HTTP status is not 2xx.
func (t *HTTPTransport) Send(ctx context.Context, req *Request) (*Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request %s: %w", req, err)
	}

	hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	hreq.Header.Set("Content-Type", "application/json")
	hreq.Header.Set("Accept", "application/json")

	hresp, err := t.client.Do(hreq)
	if err != nil {
		return nil, err
	}
	defer hresp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(hresp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var resp Response
	derr := json.Unmarshal(data, &resp)
	if derr == nil && (resp.Error != nil || resp.Result != nil) {
		return &resp, nil
	}

	if hresp.StatusCode < 200 || hresp.StatusCode > 299 {
		return nil, fmt.Errorf("%s: %s", hresp.Status, bytes.TrimSpace(data))
	}
	if derr != nil {
		return nil, errors.Join(derr, fmt.Errorf("failed to decode response to %s", req))
	}

	return &resp, nil
}
