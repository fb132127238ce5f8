// utils/ether.go
package utils

import (
	"errors"
	"math/big"
	"strings"
)

var weiPerEther = new(big.Rat).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))

// FormatEther renders wei as a decimal ether string at full precision, without trailing zeros.
func FormatEther(wei *big.Int) string {
	if wei == nil || wei.Sign() == 0 {
		return "0"
	}
	s := new(big.Rat).Quo(new(big.Rat).SetInt(wei), weiPerEther).FloatString(18)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

// FormatEtherFixed renders wei as ether rounded to the given number of decimals.
func FormatEtherFixed(wei *big.Int, decimals int) string {
	if wei == nil {
		wei = new(big.Int)
	}
	return new(big.Rat).Quo(new(big.Rat).SetInt(wei), weiPerEther).FloatString(decimals)
}

// ParseEther converts a decimal ether string ("0.05") into wei. Amounts with more than 18
// fractional digits or negative values are rejected.
func ParseEther(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errors.New("amount is required")
	}
	if strings.HasPrefix(s, "-") {
		return nil, errors.New("amount must not be negative")
	}
	if i := strings.IndexByte(s, '.'); i >= 0 && len(s)-i-1 > 18 {
		return nil, errors.New("amount has more than 18 decimals")
	}
	for _, r := range s {
		if (r < '0' || r > '9') && r != '.' {
			return nil, errors.New("amount must be a decimal number")
		}
	}
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return nil, errors.New("amount must be a decimal number")
	}
	r.Mul(r, weiPerEther)
	if !r.IsInt() {
		return nil, errors.New("amount has more than 18 decimals")
	}
	return new(big.Int).Set(r.Num()), nil
}
