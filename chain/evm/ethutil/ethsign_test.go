package ethutil

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartcontractkit/chainlink-evm-testkit/chain/evm/wallet"
)

const testMnemonic = "test test test test test test test test test test test junk"

// fakeMessageSigner returns a fixed signature or error.
type fakeMessageSigner struct {
	sig []byte
	err error
}

func (s fakeMessageSigner) SignMessage([]byte) ([]byte, error) {
	return s.sig, s.err
}

func newTestWallet(t *testing.T) *wallet.Wallet {
	t.Helper()

	w, err := wallet.FromMnemonicIndex(testMnemonic, 0)
	require.NoError(t, err)

	return w
}

func TestEthSign(t *testing.T) {
	t.Parallel()

	w := newTestWallet(t)
	hash := crypto.Keccak256([]byte("prehashed"))

	tests := []struct {
		name        string
		giveMessage []byte
		giveHashed  bool
	}{
		{
			name:        "raw message is hashed first",
			giveMessage: []byte("hello world"),
		},
		{
			name:        "empty message",
			giveMessage: []byte{},
		},
		{
			name:        "prehashed message",
			giveMessage: hash,
			giveHashed:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			sig, err := EthSign(w, tt.giveMessage, tt.giveHashed)
			require.NoError(t, err)
			require.Len(t, sig, crypto.SignatureLength+1)
			assert.Equal(t, SignatureTypeEthSign, sig[crypto.SignatureLength])
			assert.Contains(t, []byte{27, 28}, sig[crypto.RecoveryIDOffset])

			got, err := RecoverEthSign(tt.giveMessage, sig, tt.giveHashed)
			require.NoError(t, err)
			assert.Equal(t, w.Address(), got)
		})
	}
}

func TestEthSign_hashedMatchesUnhashed(t *testing.T) {
	t.Parallel()

	w := newTestWallet(t)
	msg := []byte("payload")

	unhashed, err := EthSign(w, msg, false)
	require.NoError(t, err)

	hashed, err := EthSign(w, crypto.Keccak256(msg), true)
	require.NoError(t, err)

	// RFC 6979 signatures are deterministic.
	assert.Equal(t, unhashed, hashed)
}

func TestEthSign_signatureType(t *testing.T) {
	t.Parallel()

	base := make([]byte, crypto.SignatureLength)
	base[crypto.RecoveryIDOffset] = 27

	tests := []struct {
		name    string
		giveSig []byte
		wantSig []byte
	}{
		{
			name:    "appends eth_sign type",
			giveSig: base,
			wantSig: append(append([]byte(nil), base...), SignatureTypeEthSign),
		},
		{
			name:    "keeps existing eth_sign type",
			giveSig: append(append([]byte(nil), base...), SignatureTypeEthSign),
			wantSig: append(append([]byte(nil), base...), SignatureTypeEthSign),
		},
		{
			name:    "keeps existing wallet bytes32 type",
			giveSig: append(append([]byte(nil), base...), SignatureTypeWalletBytes32),
			wantSig: append(append([]byte(nil), base...), SignatureTypeWalletBytes32),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := EthSign(fakeMessageSigner{sig: tt.giveSig}, []byte("m"), false)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSig, got)
		})
	}
}

func TestEthSign_errors(t *testing.T) {
	t.Parallel()

	_, err := EthSign(newTestWallet(t), []byte("not 32 bytes"), true)
	require.ErrorContains(t, err, "hashed message must be 32 bytes, got 12")

	errSigner := errors.New("signer offline")
	_, err = EthSign(fakeMessageSigner{err: errSigner}, []byte("m"), false)
	require.ErrorIs(t, err, errSigner)
	require.ErrorContains(t, err, "failed to sign message hash")

	_, err = EthSign(fakeMessageSigner{}, []byte("m"), false)
	require.ErrorIs(t, err, ErrInvalidSignature)
}

func TestRecoverEthSign_errors(t *testing.T) {
	t.Parallel()

	sig, err := EthSign(newTestWallet(t), []byte("m"), false)
	require.NoError(t, err)

	wrongType := append([]byte(nil), sig...)
	wrongType[crypto.SignatureLength] = SignatureTypeWalletBytes32
	_, err = RecoverEthSign([]byte("m"), wrongType, false)
	require.ErrorIs(t, err, ErrInvalidSignature)
	require.ErrorContains(t, err, "unsupported signature type 0x3")

	_, err = RecoverEthSign([]byte("m"), sig[:10], false)
	require.ErrorIs(t, err, ErrInvalidSignature)

	_, err = RecoverEthSign([]byte("short"), sig, true)
	require.ErrorContains(t, err, "hashed message must be 32 bytes")
}
