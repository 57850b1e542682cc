package rpcclient

import (
	"errors"

	"github.com/ethereum/go-ethereum/rpc"
)

var (
	// ErrInvalidArgument is returned when a Client is constructed with a missing transport, or a
	// transport that exposes neither SendAsync nor Send.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrRequestOutOfRange is returned by PastRequest when the offset does not address a record
	// in a non-empty request log.
	ErrRequestOutOfRange = errors.New("request offset out of range")
	// ErrEmptyResponse is returned when a transport completes with neither an error nor a
	// response.
	ErrEmptyResponse = errors.New("transport returned no response")
	// ErrNoResult is returned when a response carries neither a result nor an error.
	ErrNoResult = errors.New("no result in JSON-RPC response")
	// ErrNetworkMismatch is returned by DetectNetwork when the node reports a chain id that
	// differs from the configured network.
	ErrNetworkMismatch = errors.New("network mismatch")
)

var (
	_ rpc.Error     = (*JSONError)(nil)
	_ rpc.DataError = (*JSONError)(nil)
)

// ErrorCode extracts the remote error code from an error chain. It returns false if no error in
// the chain was reported by the remote node.
func ErrorCode(err error) (int, bool) {
	var rerr rpc.Error
	if !errors.As(err, &rerr) {
		return 0, false
	}

	return rerr.ErrorCode(), true
}

// ErrorData extracts the auxiliary error data from an error chain, such as the revert payload of
// a failed eth_call. It returns false if no error in the chain carries data.
func ErrorData(err error) (any, bool) {
	var derr rpc.DataError
	if !errors.As(err, &derr) {
		return nil, false
	}

	data := derr.ErrorData()

	return data, data != nil
}

// toJSONError converts an error reported by the go-ethereum RPC client into a JSONError. Errors
// which were not reported by the remote node are left for the caller to treat as transport
// failures.
func toJSONError(err error) (*JSONError, bool) {
	var rerr rpc.Error
	if !errors.As(err, &rerr) {
		return nil, false
	}

	jerr := &JSONError{
		Code:    rerr.ErrorCode(),
		Message: rerr.Error(),
	}
	if data, ok := ErrorData(err); ok {
		jerr.Data = data
	}

	return jerr, true
}
