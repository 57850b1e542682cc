package wallet

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/smartcontractkit/chainlink-evm-testkit/chain/evm/rpcclient"
)

// ErrAccountNotFound is returned when the node does not manage an account at the requested index.
var ErrAccountNotFound = errors.New("account not found")

// NodeSigner signs with an account unlocked on the node, selected by its index in eth_accounts.
type NodeSigner struct {
	client *rpcclient.Client
	index  uint32
}

// NewNodeSigner returns a signer for the node account at index.
func NewNodeSigner(client *rpcclient.Client, index uint32) *NodeSigner {
	return &NodeSigner{client: client, index: index}
}

// Index returns the position of the account in the node's eth_accounts list.
func (s *NodeSigner) Index() uint32 {
	return s.index
}

// Address resolves the account address through eth_accounts.
func (s *NodeSigner) Address(ctx context.Context) (common.Address, error) {
	accounts, err := s.client.Accounts(ctx)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to list node accounts: %w", err)
	}
	if int(s.index) >= len(accounts) {
		return common.Address{}, fmt.Errorf("%w: index %d, node has %d accounts",
			ErrAccountNotFound, s.index, len(accounts))
	}

	return accounts[s.index], nil
}

// SignMessage asks the node to sign msg with eth_sign.
func (s *NodeSigner) SignMessage(ctx context.Context, msg []byte) ([]byte, error) {
	addr, err := s.Address(ctx)
	if err != nil {
		return nil, err
	}

	var sig hexutil.Bytes
	if err := s.client.CallContext(ctx, &sig, "eth_sign", addr, hexutil.Bytes(msg)); err != nil {
		return nil, fmt.Errorf("eth_sign with %s: %w", addr.Hex(), err)
	}

	return sig, nil
}
