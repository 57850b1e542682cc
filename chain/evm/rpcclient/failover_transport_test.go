package rpcclient

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/smartcontractkit/chainlink-evm-testkit/pkg/logger"
)

// countingTransport fails the first failures requests with err and answers the rest with result.
type countingTransport struct {
	host     string
	failures int32
	err      error
	result   string
	calls    atomic.Int32
}

func (c *countingTransport) Send(context.Context, *Request) (*Response, error) {
	if n := c.calls.Add(1); n <= c.failures {
		return nil, c.err
	}

	return &Response{JSONRPC: Version, Result: []byte(c.result)}, nil
}

func (c *countingTransport) Host() string { return c.host }

// silentTransport never completes a request.
type silentTransport struct{}

func (silentTransport) SendAsync(context.Context, *Request, ResponseCallback) {}

func endpointNames(f *FailoverTransport) []string {
	out := []string{}
	for _, ep := range f.endpoints() {
		out = append(out, ep.name)
	}

	return out
}

func fastRetry(attempts uint) FailoverOption {
	return WithRetryConfig(RetryConfig{Attempts: attempts, Delay: time.Millisecond, Timeout: time.Second})
}

func TestNewFailoverTransport(t *testing.T) {
	t.Parallel()

	_, err := NewFailoverTransport(nil)
	require.ErrorIs(t, err, ErrInvalidArgument)
	require.ErrorContains(t, err, "need at least one")

	_, err = NewFailoverTransport([]any{&countingTransport{}, struct{}{}})
	require.ErrorIs(t, err, ErrInvalidArgument)
	require.ErrorContains(t, err, "transport 1")

	f, err := NewFailoverTransport([]any{&fakeSyncTransport{respond: respondResult(`1`)}, &countingTransport{host: "backup:8545"}})
	require.NoError(t, err)
	assert.Equal(t, "transport-0", f.Host())
	assert.Equal(t, defaultRetryConfig(), f.retry)

	c := newTestClient(t, f)
	assert.Equal(t, "transport-0", c.Endpoint())
}

func TestFailoverTransport_failsOver(t *testing.T) {
	t.Parallel()

	primary := &countingTransport{host: "primary:8545", failures: 100, err: errors.New("connection refused")}
	backup := &countingTransport{host: "backup:8545", result: `"0x1"`}

	lggr, logs := logger.TestObserved(t, zapcore.InfoLevel)
	f, err := NewFailoverTransport([]any{primary, backup}, fastRetry(2), WithFailoverLogger(lggr))
	require.NoError(t, err)

	c := newTestClient(t, f)
	got, err := c.Send(testCtx(t), "eth_blockNumber")
	require.NoError(t, err)
	assert.JSONEq(t, `"0x1"`, string(got))

	assert.Equal(t, int32(2), primary.calls.Load())
	assert.Equal(t, int32(1), backup.calls.Load())
	assert.Equal(t, "backup:8545", f.Host())
	assert.Equal(t, 2, logs.FilterMessageSnippet("retryable error").Len())
	assert.Equal(t, 1, logs.FilterMessageSnippet("trying next transport").Len())

	// The backup is the primary now, so the failing transport is not tried again.
	_, err = c.Send(testCtx(t), "eth_blockNumber")
	require.NoError(t, err)
	assert.Equal(t, int32(2), primary.calls.Load())
	assert.Equal(t, int32(2), backup.calls.Load())
}

func TestFailoverTransport_retriesBeforeFailover(t *testing.T) {
	t.Parallel()

	primary := &countingTransport{host: "primary:8545", failures: 2, err: errors.New("EOF"), result: `1`}
	backup := &countingTransport{host: "backup:8545", result: `2`}

	lggr, logs := logger.TestObserved(t, zapcore.InfoLevel)
	f, err := NewFailoverTransport([]any{primary, backup}, fastRetry(3), WithFailoverLogger(lggr))
	require.NoError(t, err)

	got, err := newTestClient(t, f).Send(testCtx(t), "eth_call")
	require.NoError(t, err)
	assert.JSONEq(t, `1`, string(got))
	assert.Zero(t, backup.calls.Load())
	assert.Equal(t, "primary:8545", f.Host())
	assert.Equal(t, 1, logs.FilterMessageSnippet("succeeded after 2 retries").Len())
}

func TestFailoverTransport_protocolErrorIsFinal(t *testing.T) {
	t.Parallel()

	primary := &fakeSyncTransport{respond: func(*Request) (*Response, error) {
		return &Response{JSONRPC: Version, Error: &JSONError{Code: -32000, Message: "boom"}}, nil
	}}
	backup := &countingTransport{host: "backup:8545", result: `1`}

	f, err := NewFailoverTransport([]any{primary, backup}, fastRetry(3))
	require.NoError(t, err)

	_, err = newTestClient(t, f).Send(testCtx(t), "eth_boom")
	code, ok := ErrorCode(err)
	require.True(t, ok)
	assert.Equal(t, -32000, code)
	assert.Zero(t, backup.calls.Load())
}

func TestFailoverTransport_allFail(t *testing.T) {
	t.Parallel()

	errDown := errors.New("node down")
	f, err := NewFailoverTransport([]any{
		&countingTransport{host: "a:8545", failures: 100, err: errors.New("timeout")},
		&countingTransport{host: "b:8545", failures: 100, err: errDown},
	}, fastRetry(1))
	require.NoError(t, err)

	_, err = newTestClient(t, f).Send(testCtx(t), "eth_blockNumber")
	require.ErrorIs(t, err, errDown)
	require.ErrorContains(t, err, "all 2 transports failed for request 1:eth_blockNumber")
}

func TestFailoverTransport_attemptTimeout(t *testing.T) {
	t.Parallel()

	backup := &countingTransport{host: "backup:8545", result: `true`}
	f, err := NewFailoverTransport([]any{silentTransport{}, backup},
		WithRetryConfig(RetryConfig{Attempts: 1, Delay: time.Millisecond, Timeout: 20 * time.Millisecond}))
	require.NoError(t, err)

	// The caller's context has no deadline, so each attempt is bounded by the retry timeout.
	got, err := newTestClient(t, f).Send(context.Background(), "eth_syncing")
	require.NoError(t, err)
	assert.JSONEq(t, `true`, string(got))
}

func TestFailoverTransport_canceled(t *testing.T) {
	t.Parallel()

	backup := &countingTransport{host: "backup:8545", result: `true`}
	f, err := NewFailoverTransport([]any{silentTransport{}, backup}, fastRetry(1))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = f.Send(ctx, &Request{JSONRPC: Version, ID: 1, Method: "eth_syncing"})
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Zero(t, backup.calls.Load())
}

func TestFailoverTransport_promote(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		giveID int
		want   []string
	}{
		{
			name:   "move first backup to primary",
			giveID: 1,
			want:   []string{"b1", "b2", "b3", "p"},
		},
		{
			name:   "move middle backup to primary",
			giveID: 2,
			want:   []string{"b2", "b3", "b1", "p"},
		},
		{
			name:   "move last backup to primary",
			giveID: 3,
			want:   []string{"b3", "b1", "b2", "p"},
		},
		{
			name:   "keep primary unchanged",
			giveID: 0,
			want:   []string{"p", "b1", "b2", "b3"},
		},
		{
			name:   "unknown id is ignored",
			giveID: 4,
			want:   []string{"p", "b1", "b2", "b3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f, err := NewFailoverTransport([]any{
				&countingTransport{host: "p"},
				&countingTransport{host: "b1"},
				&countingTransport{host: "b2"},
				&countingTransport{host: "b3"},
			})
			require.NoError(t, err)

			f.promote(tt.giveID)
			assert.Equal(t, tt.want, endpointNames(f))
		})
	}
}

func TestFailoverTransport_promoteAfterReorder(t *testing.T) {
	t.Parallel()

	f, err := NewFailoverTransport([]any{
		&countingTransport{host: "p"},
		&countingTransport{host: "b1"},
		&countingTransport{host: "b2"},
		&countingTransport{host: "b3"},
	})
	require.NoError(t, err)

	// Two requests share the same snapshot: one is served by b1, the other by b3.
	snapshot := f.endpoints()
	f.promote(snapshot[1].id)
	f.promote(snapshot[3].id)
	assert.Equal(t, "b3", f.Host())

	// Promoting the current primary again leaves the order unchanged.
	before := endpointNames(f)
	f.promote(snapshot[3].id)
	assert.Equal(t, before, endpointNames(f))
}

func TestFailoverTransport_concurrentSends(t *testing.T) {
	t.Parallel()

	failing := errors.New("connection refused")
	f, err := NewFailoverTransport([]any{
		&countingTransport{host: "p", failures: 1 << 30, err: failing},
		&countingTransport{host: "b1", result: `1`},
		&countingTransport{host: "b2", failures: 1 << 30, err: failing},
		&countingTransport{host: "b3", result: `3`},
	}, fastRetry(1))
	require.NoError(t, err)

	c := newTestClient(t, f)
	ctx := testCtx(t)

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()

			_, sendErr := c.Send(ctx, "eth_blockNumber")
			assert.NoError(t, sendErr)
			assert.Contains(t, []string{"b1", "b3"}, f.Host())
		}()
	}
	wg.Wait()

	assert.Contains(t, []string{"b1", "b3"}, f.Host())
	assert.Equal(t, 50, c.RequestCount())
}

func TestEnsureTimeout(t *testing.T) {
	t.Parallel()

	parent, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	ctx, cancelFn := ensureTimeout(parent, time.Minute)
	defer cancelFn()
	parentDeadline, _ := parent.Deadline()
	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	assert.WithinDuration(t, parentDeadline, deadline, 0)

	ctx, cancelFn = ensureTimeout(context.Background(), time.Minute)
	defer cancelFn()
	deadline, ok = ctx.Deadline()
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Minute), deadline, 50*time.Millisecond)

	ctx, cancelFn = ensureTimeout(context.Background(), 0)
	defer cancelFn()
	_, ok = ctx.Deadline()
	assert.False(t, ok)
}
