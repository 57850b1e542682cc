package rpcclient

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"

	"github.com/smartcontractkit/chainlink-evm-testkit/pkg/logger"
)

const (
	// Default retry configuration for requests sent through a FailoverTransport
	RPCDefaultRetryAttempts = 1
	RPCDefaultRetryDelay    = 1000 * time.Millisecond
	RPCDefaultRetryTimeout  = 10 * time.Second
)

// RetryConfig controls how often a FailoverTransport retries a request on one transport before
// moving on to the next.
type RetryConfig struct {
	Attempts uint
	Delay    time.Duration
	// Timeout bounds each attempt unless the caller's context already carries a deadline.
	Timeout time.Duration
}

func defaultRetryConfig() RetryConfig {
	return RetryConfig{
		Attempts: RPCDefaultRetryAttempts,
		Delay:    RPCDefaultRetryDelay,
		Timeout:  RPCDefaultRetryTimeout,
	}
}

// failoverEndpoint is one transport of a FailoverTransport.
type failoverEndpoint struct {
	id   int
	name string
	send sendFunc
}

// FailoverTransport sends each request to a primary transport and falls back to the backups when
// the primary fails at the transport level. JSON-RPC error responses are returned as they are,
// since the node did answer.
//
// The transport which served the last request becomes the primary for the next one.
type FailoverTransport struct {
	lggr  logger.Logger
	retry RetryConfig

	mu      sync.RWMutex
	primary failoverEndpoint
	backups []failoverEndpoint
}

var _ SyncTransport = (*FailoverTransport)(nil)

// FailoverOption configures a FailoverTransport.
type FailoverOption func(*FailoverTransport)

// WithRetryConfig overrides the per transport retry configuration.
func WithRetryConfig(cfg RetryConfig) FailoverOption {
	return func(f *FailoverTransport) {
		f.retry = cfg
	}
}

// WithFailoverLogger sets the logger used to report failed attempts.
func WithFailoverLogger(lggr logger.Logger) FailoverOption {
	return func(f *FailoverTransport) {
		f.lggr = lggr
	}
}

// NewFailoverTransport combines transports in order of preference. Each transport must satisfy
// AsyncTransport or SyncTransport.
func NewFailoverTransport(transports []any, opts ...FailoverOption) (*FailoverTransport, error) {
	if len(transports) == 0 {
		return nil, fmt.Errorf("%w: no transports provided, need at least one", ErrInvalidArgument)
	}

	endpoints := make([]failoverEndpoint, 0, len(transports))
	for i, t := range transports {
		send, err := selectSender(t)
		if err != nil {
			return nil, fmt.Errorf("transport %d: %w", i, err)
		}

		name := transportEndpoint(t)
		if name == "" {
			name = fmt.Sprintf("transport-%d", i)
		}
		endpoints = append(endpoints, failoverEndpoint{id: i, name: name, send: send})
	}

	f := &FailoverTransport{
		lggr:    logger.Nop(),
		retry:   defaultRetryConfig(),
		primary: endpoints[0],
		backups: endpoints[1:],
	}
	for _, opt := range opts {
		opt(f)
	}

	return f, nil
}

// Host returns the name of the current primary transport: its host or path if it exposes one.
func (f *FailoverTransport) Host() string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return f.primary.name
}

// Send tries the primary transport, then each backup, until one of them yields a response.
func (f *FailoverTransport) Send(ctx context.Context, req *Request) (*Response, error) {
	var (
		lastErr error
		resp    *Response
	)
	traceID := uuid.New()
	endpoints := f.endpoints()

	for _, ep := range endpoints {
		retryCount := 0
		err := retry.Do(func() error {
			callCtx, cancel := ensureTimeout(ctx, f.retry.Timeout)
			defer cancel()

			r, err := callSync(callCtx, ep.send, req)
			if err != nil {
				lastErr = err
				f.lggr.Warnf("traceID %q: request %s: transport %q: failed - retryable error: %v", traceID.String(), req, ep.name, err)

				return err
			}
			resp = r
			f.promote(ep.id)

			return nil
		}, retry.Context(ctx), retry.Attempts(f.retry.Attempts), retry.Delay(f.retry.Delay),
			retry.OnRetry(func(n uint, err error) { retryCount++ }))
		if err == nil {
			if retryCount > 0 {
				f.lggr.Infof("traceID %q: request %s: transport %q: succeeded after %d retries", traceID.String(), req, ep.name, retryCount)
			}

			return resp, nil
		}
		if ctx.Err() != nil {
			return nil, errors.Join(lastErr, ctx.Err())
		}
		f.lggr.Infof("traceID %q: request %s: transport %q: failed, trying next transport", traceID.String(), req, ep.name)
	}

	return nil, errors.Join(lastErr, fmt.Errorf("all %d transports failed for request %s", len(endpoints), req))
}

// promote makes the endpoint with the given id the primary. The backups ahead of it move to the
// end of the backups, followed by the old primary. Other requests may have reordered the
// endpoints since the caller took its snapshot, so the endpoint is looked up by id.
func (f *FailoverTransport) promote(id int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.primary.id == id {
		return
	}
	pos := slices.IndexFunc(f.backups, func(ep failoverEndpoint) bool { return ep.id == id })
	if pos < 0 {
		return
	}

	newPrimary := f.backups[pos]
	reordered := make([]failoverEndpoint, 0, len(f.backups))
	reordered = append(reordered, f.backups[pos+1:]...)
	reordered = append(reordered, f.backups[:pos]...)
	reordered = append(reordered, f.primary)

	f.backups = reordered
	f.primary = newPrimary
}

func (f *FailoverTransport) endpoints() []failoverEndpoint {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return append([]failoverEndpoint{f.primary}, f.backups...)
}

// callSync waits for a single completion of send, or for ctx to end.
func callSync(ctx context.Context, send sendFunc, req *Request) (*Response, error) {
	type outcome struct {
		resp *Response
		err  error
	}

	done := make(chan outcome, 1)
	send(ctx, req, func(err error, resp *Response) {
		select {
		case done <- outcome{resp: resp, err: err}:
		default:
		}
	})

	select {
	case o := <-done:
		if o.err == nil && o.resp == nil {
			return nil, ErrEmptyResponse
		}

		return o.resp, o.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// ensureTimeout keeps the parent's deadline if it has one and applies timeout otherwise.
func ensureTimeout(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, hasDeadline := parent.Deadline(); hasDeadline || timeout <= 0 {
		return context.WithCancel(parent)
	}

	return context.WithTimeout(parent, timeout)
}
