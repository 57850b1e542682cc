package wallet

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/cosmos/go-bip39"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// derivationPathFormat is the BIP-44 path for Ethereum accounts, indexed by address index.
const derivationPathFormat = "m/44'/60'/0'/0/%d"

// ErrInvalidMnemonic is returned when a mnemonic is empty or fails the BIP-39 checksum.
var ErrInvalidMnemonic = errors.New("invalid mnemonic")

// DerivationPath returns the BIP-44 Ethereum derivation path for the given address index.
func DerivationPath(index uint32) string {
	return fmt.Sprintf(derivationPathFormat, index)
}

// Wallet is a locally held secp256k1 key derived from a mnemonic.
type Wallet struct {
	key     *ecdsa.PrivateKey
	address common.Address
	path    string
}

var _ SignerGenerator = (*Wallet)(nil)

// FromMnemonic derives the wallet at the derivation path from a BIP-39 mnemonic, using an empty
// passphrase.
func FromMnemonic(mnemonic, path string) (*Wallet, error) {
	mnemonic = strings.Join(strings.Fields(mnemonic), " ")
	if mnemonic == "" {
		return nil, fmt.Errorf("%w: mnemonic is empty", ErrInvalidMnemonic)
	}

	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, "")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidMnemonic, err)
	}

	dpath, err := accounts.ParseDerivationPath(path)
	if err != nil {
		return nil, fmt.Errorf("invalid derivation path %q: %w", path, err)
	}

	key, err := deriveKey(seed, dpath)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key at %s: %w", path, err)
	}

	return newWallet(key, path), nil
}

// FromMnemonicIndex derives the wallet at DerivationPath(index).
func FromMnemonicIndex(mnemonic string, index uint32) (*Wallet, error) {
	return FromMnemonic(mnemonic, DerivationPath(index))
}

// FromPrivateKey wraps an existing key. The wallet has no derivation path.
func FromPrivateKey(key *ecdsa.PrivateKey) *Wallet {
	return newWallet(key, "")
}

func newWallet(key *ecdsa.PrivateKey, path string) *Wallet {
	return &Wallet{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
		path:    path,
	}
}

// deriveKey walks the BIP-32 derivation path from the master key of seed.
func deriveKey(seed []byte, path accounts.DerivationPath) (*ecdsa.PrivateKey, error) {
	ext, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, err
	}

	for _, n := range path {
		ext, err = ext.Derive(n)
		if err != nil {
			return nil, err
		}
	}

	priv, err := ext.ECPrivKey()
	if err != nil {
		return nil, err
	}

	return crypto.ToECDSA(priv.Serialize())
}

// Address returns the account address of the wallet.
func (w *Wallet) Address() common.Address {
	return w.address
}

// PrivateKey returns the wallet's private key.
func (w *Wallet) PrivateKey() *ecdsa.PrivateKey {
	return w.key
}

// Path returns the derivation path the wallet was derived at, or an empty string for wallets
// built from a raw key.
func (w *Wallet) Path() string {
	return w.path
}

// SignMessage signs msg as an EIP-191 personal message ("\x19Ethereum Signed Message:\n" +
// len + msg). The signature is 65 bytes with the recovery id encoded as 27 or 28.
func (w *Wallet) SignMessage(msg []byte) ([]byte, error) {
	sig, err := crypto.Sign(accounts.TextHash(msg), w.key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign message: %w", err)
	}
	sig[crypto.RecoveryIDOffset] += 27

	return sig, nil
}

// SignHash signs a 32 byte hash directly. The recovery id is encoded as 0 or 1.
func (w *Wallet) SignHash(hash []byte) ([]byte, error) {
	sig, err := crypto.Sign(hash, w.key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign hash: %w", err)
	}

	return sig, nil
}

// Generate returns bind transactor options signing with the wallet's key.
func (w *Wallet) Generate(chainID *big.Int) (*bind.TransactOpts, error) {
	return bind.NewKeyedTransactorWithChainID(w.key, chainID)
}
