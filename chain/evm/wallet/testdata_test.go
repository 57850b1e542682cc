package wallet

import "math/big"

const (
	// testMnemonic is the well known development mnemonic shared by local EVM nodes.
	testMnemonic = "test test test test test test test test test test test junk"

	testAddr0    = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
	testPrivKey0 = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	testAddr1    = "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"
	testPrivKey1 = "59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d"

	testChainID = 1337
)

var testChainIDBig = new(big.Int).SetUint64(testChainID)
