package wallet

import (
	"fmt"

	"github.com/smartcontractkit/chainlink-evm-testkit/chain/evm/rpcclient"
)

// TestWallet bundles a mnemonic derived wallet with an instrumented client over a transport and
// a signer for the node account at the same index.
type TestWallet struct {
	*Wallet

	Provider *rpcclient.Client
	Signer   *NodeSigner
}

// CreateTestWallet derives the wallet at DerivationPath(index) and connects it to transport.
// The transport must satisfy rpcclient.AsyncTransport or rpcclient.SyncTransport.
func CreateTestWallet(
	transport any, mnemonic string, index uint32, opts ...rpcclient.Option,
) (*TestWallet, error) {
	w, err := FromMnemonicIndex(mnemonic, index)
	if err != nil {
		return nil, err
	}

	provider, err := rpcclient.NewClient(transport, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create provider: %w", err)
	}

	return &TestWallet{
		Wallet:   w,
		Provider: provider,
		Signer:   NewNodeSigner(provider, index),
	}, nil
}
