package wallet

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/crypto"
)

// SignerGenerator is an interface for generating geth's *bind.TransactOpts instances and
// providing hash signing capabilities. These instances are used to sign transactions using geth
// bindings, and the SignHash method allows signing of arbitrary hashes.
type SignerGenerator interface {
	Generate(chainID *big.Int) (*bind.TransactOpts, error)
	SignHash(hash []byte) ([]byte, error)
}

var (
	_ SignerGenerator = (*transactorFromMnemonic)(nil)
	_ SignerGenerator = (*transactorFromRaw)(nil)
	_ SignerGenerator = (*transactorRandom)(nil)
)

// GeneratorOptions contains configuration options for the SignerGenerator.
type GeneratorOptions struct {
	gasLimit uint64
}

// GeneratorOption is a function that modifies GeneratorOptions.
type GeneratorOption func(*GeneratorOptions)

// WithGasLimit fixes the gas limit of generated transactors instead of estimating it.
func WithGasLimit(gasLimit uint64) GeneratorOption {
	return func(opts *GeneratorOptions) {
		opts.gasLimit = gasLimit
	}
}

func applyGeneratorOptions(opts []GeneratorOption) GeneratorOptions {
	o := GeneratorOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	return o
}

// TransactorFromMnemonic returns a generator for the account at DerivationPath(index) of the
// mnemonic. The key is derived on first use.
func TransactorFromMnemonic(mnemonic string, index uint32, opts ...GeneratorOption) SignerGenerator {
	return &transactorFromMnemonic{
		mnemonic: mnemonic,
		index:    index,
		gasLimit: applyGeneratorOptions(opts).gasLimit,
	}
}

// transactorFromMnemonic is a SignerGenerator backed by a wallet derived from a mnemonic.
type transactorFromMnemonic struct {
	mnemonic string
	index    uint32
	gasLimit uint64

	once   sync.Once
	wallet *Wallet
	err    error
}

func (g *transactorFromMnemonic) derive() (*Wallet, error) {
	g.once.Do(func() {
		g.wallet, g.err = FromMnemonicIndex(g.mnemonic, g.index)
	})

	return g.wallet, g.err
}

// Generate derives the account key and returns the bind transactor options.
func (g *transactorFromMnemonic) Generate(chainID *big.Int) (*bind.TransactOpts, error) {
	w, err := g.derive()
	if err != nil {
		return nil, err
	}

	return newTransactor(w.key, chainID, g.gasLimit)
}

// SignHash signs a hash with the derived account key.
func (g *transactorFromMnemonic) SignHash(hash []byte) ([]byte, error) {
	w, err := g.derive()
	if err != nil {
		return nil, err
	}

	return w.SignHash(hash)
}

// TransactorFromRaw returns a generator which creates a transactor from a hex encoded private
// key.
func TransactorFromRaw(privKey string, opts ...GeneratorOption) SignerGenerator {
	return &transactorFromRaw{
		privKey:  privKey,
		gasLimit: applyGeneratorOptions(opts).gasLimit,
	}
}

// transactorFromRaw is a SignerGenerator that creates a transactor from a private key.
type transactorFromRaw struct {
	privKey  string
	gasLimit uint64
}

// Generate parses the hex encoded private key and returns the bind transactor options.
func (g *transactorFromRaw) Generate(chainID *big.Int) (*bind.TransactOpts, error) {
	privKey, err := crypto.HexToECDSA(g.privKey)
	if err != nil {
		return nil, fmt.Errorf("failed to convert private key to ECDSA: %w", err)
	}

	return newTransactor(privKey, chainID, g.gasLimit)
}

// SignHash signs a hash using the private key stored in the generator.
func (g *transactorFromRaw) SignHash(hash []byte) ([]byte, error) {
	privKey, err := crypto.HexToECDSA(g.privKey)
	if err != nil {
		return nil, fmt.Errorf("failed to convert private key to ECDSA: %w", err)
	}

	return FromPrivateKey(privKey).SignHash(hash)
}

// TransactorRandom returns a generator backed by a random key. The key is generated on first
// use and reused for every later call.
func TransactorRandom() SignerGenerator {
	return &transactorRandom{}
}

// transactorRandom is a SignerGenerator that creates a transactor from a random keypair.
type transactorRandom struct {
	mu      sync.Mutex
	privKey *ecdsa.PrivateKey
}

func (g *transactorRandom) key() (*ecdsa.PrivateKey, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.privKey == nil {
		privKey, err := crypto.GenerateKey()
		if err != nil {
			return nil, fmt.Errorf("failed to generate random private key: %w", err)
		}
		g.privKey = privKey
	}

	return g.privKey, nil
}

// Generate returns the bind transactor options for the random key.
func (g *transactorRandom) Generate(chainID *big.Int) (*bind.TransactOpts, error) {
	privKey, err := g.key()
	if err != nil {
		return nil, err
	}

	return newTransactor(privKey, chainID, 0)
}

// SignHash signs a hash with the random key.
func (g *transactorRandom) SignHash(hash []byte) ([]byte, error) {
	privKey, err := g.key()
	if err != nil {
		return nil, err
	}

	return FromPrivateKey(privKey).SignHash(hash)
}

func newTransactor(key *ecdsa.PrivateKey, chainID *big.Int, gasLimit uint64) (*bind.TransactOpts, error) {
	transactor, err := bind.NewKeyedTransactorWithChainID(key, chainID)
	if err != nil {
		return nil, err
	}
	if gasLimit > 0 {
		transactor.GasLimit = gasLimit
	}

	return transactor, nil
}
