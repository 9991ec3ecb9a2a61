package services

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// ClaimSigner holds the claim-authorization signing key. The key lives only
// in memory and is never written to the database or to logs.
type ClaimSigner struct {
	key *ecdsa.PrivateKey
}

// NewClaimSigner parses a hex-encoded secp256k1 private key (with or without
// 0x prefix).
func NewClaimSigner(hexKey string) (*ClaimSigner, error) {
	hexKey = strings.TrimPrefix(strings.TrimSpace(hexKey), "0x")
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("failed to parse claim signer key: %w", err)
	}
	return &ClaimSigner{key: key}, nil
}

// Address is the public address claim signatures recover to. The verifying
// contract holds the same address.
func (s *ClaimSigner) Address() common.Address {
	return crypto.PubkeyToAddress(s.key.PublicKey)
}

// ClaimMessageHash packs (recipient, amount, nonce, deadline) exactly the way
// the contract packs them before ecrecover: 20-byte address followed by three
// left-padded 32-byte big-endian integers, keccak256 over the concatenation.
// The byte order is contract compatibility, not a free choice.
func ClaimMessageHash(recipient common.Address, amount, nonce, deadline *big.Int) common.Hash {
	packed := make([]byte, 0, 20+3*32)
	packed = append(packed, recipient.Bytes()...)
	packed = append(packed, common.LeftPadBytes(amount.Bytes(), 32)...)
	packed = append(packed, common.LeftPadBytes(nonce.Bytes(), 32)...)
	packed = append(packed, common.LeftPadBytes(deadline.Bytes(), 32)...)
	return crypto.Keccak256Hash(packed)
}

// Sign produces a 65-byte [R || S || V] signature over the EIP-191 prefixed
// message hash, with V normalized to 27/28 as Solidity's ecrecover expects.
func (s *ClaimSigner) Sign(messageHash common.Hash) ([]byte, error) {
	prefixed := prefixedHash(messageHash)
	sig, err := crypto.Sign(prefixed.Bytes(), s.key)
	if err != nil {
		return nil, fmt.Errorf("claim signing failed: %w", err)
	}
	sig[64] += 27
	return sig, nil
}

// prefixedHash wraps a raw message hash in the standard
// "\x19Ethereum Signed Message:\n32" envelope.
func prefixedHash(messageHash common.Hash) common.Hash {
	return crypto.Keccak256Hash(
		[]byte("\x19Ethereum Signed Message:\n32"),
		messageHash.Bytes(),
	)
}
