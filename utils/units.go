// utils/units.go
package utils

import "math/big"

// PointsToTokenUnits converts a point balance into the token's smallest unit
// (points * 10^decimals). Decimals belong to the external contract, not this
// service, so they arrive as a parameter.
func PointsToTokenUnits(points int64, decimals int) *big.Int {
	if points < 0 {
		points = 0
	}
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	return new(big.Int).Mul(big.NewInt(points), scale)
}
