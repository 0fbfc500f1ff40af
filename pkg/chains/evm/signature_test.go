package evm

import (
	"io"
	"log/slog"
	"testing"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeV(t *testing.T) {
	tests := []struct {
		v           byte
		expected    byte
		expectError bool
	}{
		{v: 0, expected: 0},
		{v: 1, expected: 1},
		{v: 27, expected: 0},
		{v: 28, expected: 1},
		{v: 2, expectError: true},
		{v: 29, expectError: true},
	}

	for _, tt := range tests {
		got, err := NormalizeV(tt.v)
		if tt.expectError {
			assert.Error(t, err, "v=%d", tt.v)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.expected, got, "v=%d", tt.v)
	}
}

func TestDecodeSignature(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	hash := accounts.TextHash([]byte("hello"))
	sig, err := crypto.Sign(hash, key)
	require.NoError(t, err)

	legacy := append([]byte(nil), sig...)
	legacy[crypto.RecoveryIDOffset] += 27

	decoded, err := DecodeSignature(hexutil.Encode(legacy))
	require.NoError(t, err)
	assert.Equal(t, sig, decoded)

	_, err = DecodeSignature(hexutil.Encode(sig[:64]))
	var invalid *InvalidSignatureError
	assert.ErrorAs(t, err, &invalid)

	_, err = DecodeSignature("not hex")
	assert.ErrorAs(t, err, &invalid)
}

func TestRecoverMessageSigner(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	sig, err := crypto.Sign(accounts.TextHash([]byte("login")), key)
	require.NoError(t, err)

	recovered, err := RecoverMessageSigner([]byte("login"), hexutil.Encode(sig))
	require.NoError(t, err)
	assert.Equal(t, crypto.PubkeyToAddress(key.PublicKey), recovered)

	other, err := RecoverMessageSigner([]byte("logout"), hexutil.Encode(sig))
	require.NoError(t, err)
	assert.NotEqual(t, crypto.PubkeyToAddress(key.PublicKey), other)
}

func TestAddressesEqual(t *testing.T) {
	assert.True(t, AddressesEqual(lowerAddress, checksumAddress))
	assert.False(t, AddressesEqual(lowerAddress, recipient))
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
