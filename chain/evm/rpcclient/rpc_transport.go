package rpcclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/google/uuid"

	"github.com/smartcontractkit/chainlink-evm-testkit/pkg/logger"
)

const (
	// Default retry configuration for dialing RPC endpoints
	RPCDefaultDialRetryAttempts = 1
	RPCDefaultDialRetryDelay    = 1000 * time.Millisecond
	RPCDefaultDialTimeout       = 10 * time.Second
)

// DialConfig controls how DialRPCTransport connects to an endpoint.
type DialConfig struct {
	Attempts uint
	Delay    time.Duration
	// Timeout bounds each individual dial attempt.
	Timeout time.Duration
}

func defaultDialConfig() DialConfig {
	return DialConfig{
		Attempts: RPCDefaultDialRetryAttempts,
		Delay:    RPCDefaultDialRetryDelay,
		Timeout:  RPCDefaultDialTimeout,
	}
}

// RPCTransport forwards requests through a go-ethereum RPC client, which supports HTTP,
// WebSocket, IPC and in-process connections. Errors reported by the node are surfaced as JSON-RPC
// error responses; all other failures are transport errors.
//
// The go-ethereum client numbers requests on the wire itself, so the ids seen by the node differ
// from the ids in the Client's request log.
type RPCTransport struct {
	client *rpc.Client
	host   string
	path   string
	lggr   logger.Logger
	dial   DialConfig
}

var (
	_ AsyncTransport = (*RPCTransport)(nil)
	_ SyncTransport  = (*RPCTransport)(nil)
)

// RPCTransportOption configures an RPCTransport.
type RPCTransportOption func(*RPCTransport)

// WithDialConfig overrides the dial retry configuration.
func WithDialConfig(cfg DialConfig) RPCTransportOption {
	return func(t *RPCTransport) {
		t.dial = cfg
	}
}

// WithTransportLogger sets the logger used while dialing.
func WithTransportLogger(lggr logger.Logger) RPCTransportOption {
	return func(t *RPCTransport) {
		t.lggr = lggr
	}
}

// NewRPCTransport wraps an already connected go-ethereum RPC client, such as one returned by
// rpc.DialInProc.
func NewRPCTransport(client *rpc.Client, opts ...RPCTransportOption) *RPCTransport {
	t := &RPCTransport{
		client: client,
		lggr:   logger.Nop(),
		dial:   defaultDialConfig(),
	}
	for _, opt := range opts {
		opt(t)
	}

	return t
}

// DialRPCTransport connects to endpoint, retrying according to the dial configuration. URL
// endpoints (http, https, ws, wss) are reported through Host, anything else is treated as an IPC
// socket path and reported through Path.
func DialRPCTransport(ctx context.Context, endpoint string, opts ...RPCTransportOption) (*RPCTransport, error) {
	if endpoint == "" {
		return nil, errors.New("endpoint is required")
	}

	t := NewRPCTransport(nil, opts...)
	t.host, t.path = splitEndpoint(endpoint)

	traceID := uuid.New()
	retryCount := 0
	err := retry.Do(func() error {
		dialCtx, cancel := context.WithTimeout(ctx, t.dial.Timeout)
		defer cancel()

		t.lggr.Debugf("traceID %q: dialing endpoint '%s'", traceID.String(), endpoint)
		client, err := rpc.DialContext(dialCtx, endpoint)
		if err != nil {
			t.lggr.Warnf("traceID %q: dialing endpoint '%s' failed - retryable error: %v", traceID.String(), endpoint, err)
			return err
		}
		t.client = client

		return nil
	}, retry.Context(ctx), retry.Attempts(t.dial.Attempts), retry.Delay(t.dial.Delay),
		retry.OnRetry(func(n uint, err error) { retryCount++ }))
	if err != nil {
		return nil, errors.Join(err, fmt.Errorf("failed to dial endpoint '%s' after retries", endpoint))
	}
	if retryCount > 0 {
		t.lggr.Infof("traceID %q: successfully dialed endpoint '%s' after %d retries", traceID.String(), endpoint, retryCount)
	}

	return t, nil
}

// Host returns the host of a URL endpoint.
func (t *RPCTransport) Host() string {
	return t.host
}

// Path returns the socket path of an IPC endpoint.
func (t *RPCTransport) Path() string {
	return t.path
}

// SendAsync performs the call on its own goroutine and reports the outcome through callback.
func (t *RPCTransport) SendAsync(ctx context.Context, req *Request, callback ResponseCallback) {
	go func() {
		resp, err := t.Send(ctx, req)
		callback(err, resp)
	}()
}

// Send performs the call and waits for the outcome.
func (t *RPCTransport) Send(ctx context.Context, req *Request) (*Response, error) {
	var raw json.RawMessage
	if err := t.client.CallContext(ctx, &raw, req.Method, req.Params...); err != nil {
		if jerr, ok := toJSONError(err); ok {
			return &Response{JSONRPC: Version, Error: jerr}, nil
		}

		return nil, err
	}

	return &Response{JSONRPC: Version, Result: raw}, nil
}

// Close closes the underlying RPC client.
func (t *RPCTransport) Close() {
	if t.client != nil {
		t.client.Close()
	}
}

// splitEndpoint classifies an endpoint as a URL host or an IPC path.
func splitEndpoint(endpoint string) (host, path string) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", endpoint
	}

	switch u.Scheme {
	case "http", "https", "ws", "wss":
		return u.Host, ""
	default:
		return "", endpoint
	}
}
