// Package contracts holds the FindChain contract ABI consumed by the chain reader,
// the transaction builder and the event indexer.
package contracts

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

//go:embed findchain.abi.json
var findChainABI string

// Event names emitted by the contract.
const (
	EventDeviceMinted        = "DeviceMinted"
	EventBountyCreated       = "BountyCreated"
	EventClaimSubmitted      = "ClaimSubmitted"
	EventOpenBountyCreated   = "OpenBountyCreated"
	EventFoundListingCreated = "FoundListingCreated"
)

// IndexedEvents lists the events the chain indexer follows.
var IndexedEvents = []string{
	EventDeviceMinted,
	EventBountyCreated,
	EventClaimSubmitted,
	EventOpenBountyCreated,
	EventFoundListingCreated,
}

// Load parses the ABI at path, or the embedded FindChain ABI when path is empty.
func Load(path string) (abi.ABI, error) {
	raw := findChainABI
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return abi.ABI{}, fmt.Errorf("failed to read contract ABI: %w", err)
		}
		raw = string(data)
	}

	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		return abi.ABI{}, fmt.Errorf("failed to parse contract ABI: %w", err)
	}
	for _, name := range IndexedEvents {
		if _, ok := parsed.Events[name]; !ok {
			return abi.ABI{}, fmt.Errorf("contract ABI is missing event %s", name)
		}
	}
	return parsed, nil
}

// MustDefault returns the embedded ABI and panics if it does not parse.
func MustDefault() abi.ABI {
	parsed, err := Load("")
	if err != nil {
		panic(err)
	}
	return parsed
}
