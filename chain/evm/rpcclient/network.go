package rpcclient

import (
	"fmt"

	chainsel "github.com/smartcontractkit/chain-selectors"
)

// unknownNetworkName is used for chain ids which are not registered in chain-selectors, such as
// ad-hoc development chains.
const unknownNetworkName = "unknown"

// Network identifies the EVM chain a Client talks to.
type Network struct {
	ChainID  uint64
	Name     string
	Selector uint64
}

// NetworkFromChainID resolves the network name and chain selector for an EVM chain id.
func NetworkFromChainID(chainID uint64) Network {
	n := Network{ChainID: chainID, Name: unknownNetworkName}

	selector, err := chainsel.SelectorFromChainId(chainID)
	if err != nil {
		return n
	}

	chain, ok := chainsel.ChainBySelector(selector)
	if !ok {
		return n
	}

	n.Selector = chain.Selector
	if chain.Name != "" {
		n.Name = chain.Name
	}

	return n
}

// IsKnown reports whether the network was resolved through chain-selectors.
func (n Network) IsKnown() bool {
	return n.Selector != 0
}

// String returns the network name and chain id "<name> (<chain id>)".
func (n Network) String() string {
	return fmt.Sprintf("%s (%d)", n.Name, n.ChainID)
}
