package ethutil

import (
	"errors"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// ErrNoFunctions is returned when an interface id is requested for an ABI without functions.
var ErrNoFunctions = errors.New("abi has no functions")

// InterfaceIDOf returns the ERC-165 interface id of contractABI: the XOR of the selectors of
// all of its functions. Overloads count once per signature.
func InterfaceIDOf(contractABI abi.ABI) ([4]byte, error) {
	var id [4]byte
	if len(contractABI.Methods) == 0 {
		return id, ErrNoFunctions
	}

	for _, method := range contractABI.Methods {
		copy(id[:], XORBytes(id[:], method.ID))
	}

	return id, nil
}

// XORBytes returns a ^ b byte by byte. The result has the length of a; missing bytes of b
// are treated as zero.
func XORBytes(a, b []byte) []byte {
	out := make([]byte, len(a))
	for i := range a {
		out[i] = a[i]
		if i < len(b) {
			out[i] ^= b[i]
		}
	}

	return out
}
