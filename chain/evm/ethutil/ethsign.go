package ethutil

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Signature type suffixes understood by wallet contracts which validate signatures by type.
const (
	SignatureTypeEthSign       byte = 0x02
	SignatureTypeWalletBytes32 byte = 0x03
)

// ErrInvalidSignature is returned when a signature cannot be recovered.
var ErrInvalidSignature = errors.New("invalid signature")

// MessageSigner signs a message as an EIP-191 personal message. *wallet.Wallet implements it.
type MessageSigner interface {
	SignMessage(msg []byte) ([]byte, error)
}

// EthSign hashes message with keccak256 (or uses it as the hash when hashed is set), signs the
// hash as a personal message and appends SignatureTypeEthSign.
//
// A signature which already ends in a signature type byte is returned unchanged.
func EthSign(signer MessageSigner, message []byte, hashed bool) ([]byte, error) {
	hash, err := ethSignHash(message, hashed)
	if err != nil {
		return nil, err
	}

	sig, err := signer.SignMessage(hash)
	if err != nil {
		return nil, fmt.Errorf("failed to sign message hash: %w", err)
	}
	if len(sig) == 0 {
		return nil, fmt.Errorf("%w: signer returned an empty signature", ErrInvalidSignature)
	}

	if last := sig[len(sig)-1]; last == SignatureTypeEthSign || last == SignatureTypeWalletBytes32 {
		return sig, nil
	}

	return append(sig, SignatureTypeEthSign), nil
}

// RecoverEthSign returns the address which produced an EthSign signature over message.
func RecoverEthSign(message, sig []byte, hashed bool) (common.Address, error) {
	hash, err := ethSignHash(message, hashed)
	if err != nil {
		return common.Address{}, err
	}

	if len(sig) == crypto.SignatureLength+1 {
		if typ := sig[len(sig)-1]; typ != SignatureTypeEthSign {
			return common.Address{}, fmt.Errorf("%w: unsupported signature type %#x", ErrInvalidSignature, typ)
		}
		sig = sig[:crypto.SignatureLength]
	}
	if len(sig) != crypto.SignatureLength {
		return common.Address{}, fmt.Errorf("%w: length %d", ErrInvalidSignature, len(sig))
	}

	raw := make([]byte, crypto.SignatureLength)
	copy(raw, sig)
	if raw[crypto.RecoveryIDOffset] >= 27 {
		raw[crypto.RecoveryIDOffset] -= 27
	}

	pub, err := crypto.SigToPub(accounts.TextHash(hash), raw)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %w", ErrInvalidSignature, err)
	}

	return crypto.PubkeyToAddress(*pub), nil
}

func ethSignHash(message []byte, hashed bool) ([]byte, error) {
	if !hashed {
		return crypto.Keccak256(message), nil
	}
	if len(message) != common.HashLength {
		return nil, fmt.Errorf("hashed message must be %d bytes, got %d", common.HashLength, len(message))
	}

	return message, nil
}
