package rpcclient

import (
	"context"
	"fmt"
)

// ResponseCallback receives the outcome of a request sent through a transport. Either err is set
// for a transport-level failure, or resp holds the decoded JSON-RPC response.
type ResponseCallback func(err error, resp *Response)

// AsyncTransport is a transport which completes requests through a callback. The callback may be
// invoked from any goroutine.
type AsyncTransport interface {
	SendAsync(ctx context.Context, req *Request, callback ResponseCallback)
}

// SyncTransport is a transport which completes requests by returning.
type SyncTransport interface {
	Send(ctx context.Context, req *Request) (*Response, error)
}

// hostTransport is implemented by network transports (HTTP, WebSocket).
type hostTransport interface {
	Host() string
}

// pathTransport is implemented by local socket transports (IPC).
type pathTransport interface {
	Path() string
}

// sendFunc is the single call site through which a Client reaches its transport.
type sendFunc func(ctx context.Context, req *Request, callback ResponseCallback)

// selectSender picks the send operation exposed by the transport, preferring the callback style
// when both are available.
func selectSender(transport any) (sendFunc, error) {
	if transport == nil {
		return nil, fmt.Errorf("%w: transport is nil", ErrInvalidArgument)
	}

	if t, ok := transport.(AsyncTransport); ok {
		return t.SendAsync, nil
	}

	if t, ok := transport.(SyncTransport); ok {
		return func(ctx context.Context, req *Request, callback ResponseCallback) {
			go func() {
				resp, err := t.Send(ctx, req)
				callback(err, resp)
			}()
		}, nil
	}

	return nil, fmt.Errorf("%w: transport %T exposes neither SendAsync nor Send", ErrInvalidArgument, transport)
}

// transportEndpoint returns the address the transport is connected to: the host for network
// transports, the path for IPC, and an empty string otherwise.
func transportEndpoint(transport any) string {
	if t, ok := transport.(hostTransport); ok {
		if host := t.Host(); host != "" {
			return host
		}
	}
	if t, ok := transport.(pathTransport); ok {
		return t.Path()
	}

	return ""
}
