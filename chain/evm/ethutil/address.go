package ethutil

import (
	"errors"
	"fmt"
	"math/big"
	"slices"

	"github.com/ethereum/go-ethereum/common"
)

// ZeroAddress is the all zero account address.
var ZeroAddress = common.Address{}

// ErrInvalidAddress is returned when a string is not a 20 byte hex address.
var ErrInvalidAddress = errors.New("invalid address")

// CompareAddr orders two addresses as unsigned big integers. It returns -1 if a < b, 0 if
// they are equal and 1 if a > b.
func CompareAddr(a, b common.Address) int {
	return new(big.Int).SetBytes(a.Bytes()).Cmp(new(big.Int).SetBytes(b.Bytes()))
}

// CompareAddrHex is CompareAddr for hex encoded addresses. Checksums are not enforced.
func CompareAddrHex(a, b string) (int, error) {
	for _, s := range []string{a, b} {
		if !common.IsHexAddress(s) {
			return 0, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
		}
	}

	return CompareAddr(common.HexToAddress(a), common.HexToAddress(b)), nil
}

// SortAddresses sorts addrs in ascending CompareAddr order, in place.
func SortAddresses(addrs []common.Address) {
	slices.SortFunc(addrs, CompareAddr)
}
