package services

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Throwaway key, never funded anywhere.
const testSignerKey = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

func TestNewClaimSignerAcceptsPrefixedKey(t *testing.T) {
	plain, err := NewClaimSigner(testSignerKey)
	require.NoError(t, err)
	prefixed, err := NewClaimSigner("0x" + testSignerKey)
	require.NoError(t, err)
	assert.Equal(t, plain.Address(), prefixed.Address())

	_, err = NewClaimSigner("not-a-key")
	assert.Error(t, err)
}

func TestClaimMessageHashIsOrderSensitive(t *testing.T) {
	recipient := common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	amount := big.NewInt(600)
	nonce := big.NewInt(1)
	deadline := big.NewInt(1900000000)

	h1 := ClaimMessageHash(recipient, amount, nonce, deadline)
	h2 := ClaimMessageHash(recipient, amount, nonce, deadline)
	assert.Equal(t, h1, h2, "hash must be deterministic")

	// Swapping tuple positions must change the hash; the contract verifies
	// the exact packing order
	swapped := ClaimMessageHash(recipient, nonce, amount, deadline)
	assert.NotEqual(t, h1, swapped)
}

func TestSignRecoversToAuthorityAddress(t *testing.T) {
	signer, err := NewClaimSigner(testSignerKey)
	require.NoError(t, err)

	recipient := common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	hash := ClaimMessageHash(recipient, big.NewInt(600), big.NewInt(1), big.NewInt(1900000000))

	sig, err := signer.Sign(hash)
	require.NoError(t, err)
	require.Len(t, sig, 65)
	assert.Contains(t, []byte{27, 28}, sig[64], "recovery id must be ecrecover-style")

	// Recover the same way the contract does: over the prefixed hash
	recoverable := make([]byte, 65)
	copy(recoverable, sig)
	recoverable[64] -= 27
	pub, err := crypto.SigToPub(prefixedHash(hash).Bytes(), recoverable)
	require.NoError(t, err)
	assert.Equal(t, signer.Address(), crypto.PubkeyToAddress(*pub))
}
