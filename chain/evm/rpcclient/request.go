package rpcclient

import (
	"encoding/json"
	"fmt"
	"slices"
)

// Version is the JSON-RPC protocol version tag carried by every request.
const Version = "2.0"

// Request is a JSON-RPC request record as issued by a Client. Records are never mutated after
// they are appended to the client's request log.
type Request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

// emptyRequest is returned by PastRequest when no request has been issued yet.
var emptyRequest = Request{JSONRPC: Version}

// IsZero reports whether r is the "no request yet" record, which carries the id 0.
func (r Request) IsZero() bool {
	return r.ID == 0
}

// clone returns a copy of r that does not share its params with r.
func (r Request) clone() Request {
	r.Params = slices.Clone(r.Params)

	return r
}

// MarshalJSON encodes the record. The "no request yet" record encodes a null method and null
// params.
func (r Request) MarshalJSON() ([]byte, error) {
	type wire struct {
		JSONRPC string  `json:"jsonrpc"`
		ID      uint64  `json:"id"`
		Method  *string `json:"method"`
		Params  []any   `json:"params"`
	}

	w := wire{JSONRPC: r.JSONRPC, ID: r.ID, Params: r.Params}
	if !r.IsZero() {
		method := r.Method
		w.Method = &method
		if w.Params == nil {
			w.Params = []any{}
		}
	}

	return json.Marshal(w)
}

// String returns a compact "<id>:<method>" form used in log lines.
func (r Request) String() string {
	if r.IsZero() {
		return "0:<none>"
	}

	return fmt.Sprintf("%d:%s", r.ID, r.Method)
}

// Response is a JSON-RPC response as handed back by a transport. Exactly one of Result or Error
// is expected to be set.
type Response struct {
	JSONRPC string          `json:"jsonrpc,omitempty"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *JSONError      `json:"error,omitempty"`
}

// JSONError is an error object reported by the remote node. It satisfies the go-ethereum
// rpc.Error and rpc.DataError interfaces.
type JSONError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Error returns the message reported by the node, unchanged. Use ErrorCode to tell errors with
// an empty message apart.
func (e *JSONError) Error() string {
	return e.Message
}

// ErrorCode returns the remote-reported error code.
func (e *JSONError) ErrorCode() int {
	return e.Code
}

// ErrorData returns the optional auxiliary data attached to the error.
func (e *JSONError) ErrorData() any {
	return e.Data
}
