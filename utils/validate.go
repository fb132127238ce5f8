// utils/validate.go
package utils

import (
	"errors"
	"math/big"
	"regexp"
	"strings"
)

var (
	hexAddressRe = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)
	imeiRe       = regexp.MustCompile(`^\d{15}$`)
	txHashRe     = regexp.MustCompile(`^0x[a-fA-F0-9]{64}$`)
)

var maxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// IsHexAddress reports whether s is a 0x-prefixed 20-byte hex address.
func IsHexAddress(s string) bool {
	return hexAddressRe.MatchString(s)
}

// ValidIMEI reports whether s is exactly 15 decimal digits.
func ValidIMEI(s string) bool {
	return imeiRe.MatchString(s)
}

func IsTxHash(s string) bool {
	return txHashRe.MatchString(s)
}

// ParseTokenID parses a decimal token/claim/listing id into a uint256-range integer.
func ParseTokenID(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errors.New("id is required")
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return nil, errors.New("id must be a non-negative decimal integer")
		}
	}
	n, ok := new(big.Int).SetString(s, 10)
	if !ok || n.Cmp(maxUint256) > 0 {
		return nil, errors.New("id is out of range")
	}
	return n, nil
}

// SplitIDs splits a comma-separated id list, dropping blanks.
func SplitIDs(csv string) []string {
	var out []string
	for _, p := range strings.Split(csv, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
