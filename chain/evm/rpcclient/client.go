package rpcclient

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/smartcontractkit/chainlink-evm-testkit/pkg/logger"
)

// Client proxies JSON-RPC calls to a transport and records every issued request in an
// append-only log, so tests can assert on the exact calls made on their behalf.
type Client struct {
	send     sendFunc
	endpoint string
	lggr     logger.Logger

	network    Network
	hasNetwork bool

	mu     sync.Mutex
	nextID uint64
	log    []Request
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger used by the client. Defaults to a no-op logger.
func WithLogger(lggr logger.Logger) Option {
	return func(c *Client) {
		c.lggr = lggr
	}
}

// WithNetwork sets the network the client expects to talk to.
func WithNetwork(n Network) Option {
	return func(c *Client) {
		c.network = n
		c.hasNetwork = true
	}
}

// WithChainID sets the expected network by EVM chain id.
func WithChainID(chainID uint64) Option {
	return WithNetwork(NetworkFromChainID(chainID))
}

// NewClient wraps a transport. The transport must implement AsyncTransport or SyncTransport; when
// it implements both, SendAsync is used. Any other value, including nil, is rejected with an error
// wrapping ErrInvalidArgument.
func NewClient(transport any, opts ...Option) (*Client, error) {
	send, err := selectSender(transport)
	if err != nil {
		return nil, err
	}

	c := &Client{
		send:     send,
		endpoint: transportEndpoint(transport),
		lggr:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Endpoint returns the host or IPC path of the wrapped transport, or an empty string if the
// transport exposes neither.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Network returns the configured network, if any.
func (c *Client) Network() (Network, bool) {
	return c.network, c.hasNetwork
}

// SendAsync logs a new request and forwards it to the transport. The request is appended to the
// log before it is dispatched, so its record always exists by the time a result arrives.
func (c *Client) SendAsync(ctx context.Context, method string, params ...any) *PendingCall {
	req := c.record(method, params)
	call := newPendingCall(req)

	c.lggr.Debugw("Sending JSON-RPC request", "id", req.ID, "method", req.Method, "endpoint", c.endpoint)

	wire := req.clone()
	c.send(ctx, &wire, func(err error, resp *Response) {
		result, rerr := c.settleResponse(req, err, resp)
		if !call.settle(result, rerr) {
			c.lggr.Warnw("Ignoring repeated completion of JSON-RPC request", "id", req.ID, "method", req.Method)
		}
	})

	return call
}

// Send issues a request and waits for its result.
func (c *Client) Send(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	return c.SendAsync(ctx, method, params...).Wait(ctx)
}

// CallContext issues a request and decodes its result into result, which must be a pointer or
// nil. It has the same shape as go-ethereum's rpc.Client.CallContext.
func (c *Client) CallContext(ctx context.Context, result any, method string, params ...any) error {
	raw, err := c.Send(ctx, method, params...)
	if err != nil {
		return err
	}
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(raw, result); err != nil {
		return fmt.Errorf("failed to decode result of %s: %w", method, err)
	}

	return nil
}

// PastRequest returns a logged request counting back from the most recent one: 0 is the latest
// request, 1 the one before it, and so on. When nothing has been sent yet it returns the
// "no request yet" record (id 0, no method, no params) rather than an error.
func (c *Client) PastRequest(reverseIndex int) (Request, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.log) == 0 {
		return emptyRequest, nil
	}

	i := len(c.log) - reverseIndex - 1
	if reverseIndex < 0 || i < 0 {
		return Request{}, fmt.Errorf("%w: offset %d with %d logged requests", ErrRequestOutOfRange, reverseIndex, len(c.log))
	}

	return c.log[i].clone(), nil
}

// Requests returns a copy of the request log in issuance order.
func (c *Client) Requests() []Request {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Request, len(c.log))
	for i, req := range c.log {
		out[i] = req.clone()
	}

	return out
}

// RequestCount returns the number of requests issued so far.
func (c *Client) RequestCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.log)
}

// ChainID returns the chain id reported by eth_chainId.
func (c *Client) ChainID(ctx context.Context) (uint64, error) {
	var id hexutil.Uint64
	if err := c.CallContext(ctx, &id, "eth_chainId"); err != nil {
		return 0, err
	}

	return uint64(id), nil
}

// BlockNumber returns the latest block number reported by eth_blockNumber.
func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	var num hexutil.Uint64
	if err := c.CallContext(ctx, &num, "eth_blockNumber"); err != nil {
		return 0, err
	}

	return uint64(num), nil
}

// Accounts returns the accounts managed by the node, as reported by eth_accounts.
func (c *Client) Accounts(ctx context.Context) ([]common.Address, error) {
	var accounts []common.Address
	if err := c.CallContext(ctx, &accounts, "eth_accounts"); err != nil {
		return nil, err
	}

	return accounts, nil
}

// DetectNetwork queries the node's chain id and resolves it to a Network. If the client was
// configured with a network, a different chain id is reported as ErrNetworkMismatch.
func (c *Client) DetectNetwork(ctx context.Context) (Network, error) {
	chainID, err := c.ChainID(ctx)
	if err != nil {
		return Network{}, fmt.Errorf("failed to detect network: %w", err)
	}

	detected := NetworkFromChainID(chainID)
	if c.hasNetwork && c.network.ChainID != detected.ChainID {
		return detected, fmt.Errorf("%w: expected %s, node reports %s", ErrNetworkMismatch, c.network, detected)
	}

	return detected, nil
}

// record allocates the next id and appends the request to the log. The log keeps its own copy
// of params and hands out copies of the record.
func (c *Client) record(method string, params []any) Request {
	params = slices.Clone(params)
	if params == nil {
		params = []any{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	req := Request{
		JSONRPC: Version,
		ID:      c.nextID,
		Method:  method,
		Params:  params,
	}
	c.log = append(c.log, req)

	return req.clone()
}

// settleResponse maps a transport completion to the outcome of the call.
func (c *Client) settleResponse(req Request, err error, resp *Response) (json.RawMessage, error) {
	switch {
	case err != nil:
		c.lggr.Debugw("JSON-RPC transport failure", "id", req.ID, "method", req.Method, "err", err)
		return nil, err
	case resp == nil:
		return nil, ErrEmptyResponse
	case resp.Error != nil:
		c.lggr.Debugw("JSON-RPC error response", "id", req.ID, "method", req.Method,
			"code", resp.Error.Code, "message", resp.Error.Message,
		)
		return nil, resp.Error
	case resp.Result == nil:
		return nil, ErrNoResult
	default:
		return resp.Result, nil
	}
}
