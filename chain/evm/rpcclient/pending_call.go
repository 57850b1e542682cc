package rpcclient

import (
	"context"
	"encoding/json"
	"sync"
)

// PendingCall is the handle returned by Client.SendAsync. It is resolved or rejected exactly once,
// no matter how many times the transport invokes its completion callback.
type PendingCall struct {
	req  Request
	once sync.Once
	done chan struct{}

	result json.RawMessage
	err    error
}

func newPendingCall(req Request) *PendingCall {
	return &PendingCall{
		req:  req,
		done: make(chan struct{}),
	}
}

// Request returns the record that was logged for this call.
func (p *PendingCall) Request() Request {
	return p.req.clone()
}

// Done returns a channel which is closed once the call has been resolved or rejected.
func (p *PendingCall) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the call completes or ctx is done. A done context only stops the wait; the
// underlying request is not cancelled.
func (p *PendingCall) Wait(ctx context.Context) (json.RawMessage, error) {
	select {
	case <-p.done:
		return p.result, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Result returns the outcome of a completed call. It must only be called after Done is closed.
func (p *PendingCall) Result() (json.RawMessage, error) {
	return p.result, p.err
}

// settle records the outcome and reports whether this was the first completion.
func (p *PendingCall) settle(result json.RawMessage, err error) bool {
	settled := false
	p.once.Do(func() {
		p.result = result
		p.err = err
		settled = true
		close(p.done)
	})

	return settled
}
