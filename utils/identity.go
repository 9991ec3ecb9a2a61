// utils/identity.go
package utils

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// NormalizeIdentity lowercases and trims an identity so the same email always
// hits the same profile row.
func NormalizeIdentity(identity string) string {
	return strings.ToLower(strings.TrimSpace(identity))
}

// ValidWallet reports whether s is a well-formed 0x address.
func ValidWallet(s string) bool {
	return common.IsHexAddress(s)
}

// NormalizeWallet returns the checksummed form of a wallet address.
func NormalizeWallet(s string) string {
	return common.HexToAddress(s).Hex()
}
