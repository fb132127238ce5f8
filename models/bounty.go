package models

import "math/big"

// BountyState is the observed lifecycle position of a bounty and its claims.
type BountyState string

const (
	BountyStateNone          BountyState = "no_bounty"
	BountyStateActive        BountyState = "active"
	BountyStateCancelled     BountyState = "cancelled"
	BountyStateClaimPending  BountyState = "claim_pending"
	BountyStateClaimApproved BountyState = "claim_confirmed"
)

// Bounty is the contract's bounty record for one token.
type Bounty struct {
	TokenID   string   `json:"tokenId"`
	AmountWei *big.Int `json:"-"`
	Amount    string   `json:"amount"` // ether, full precision
	Owner     string   `json:"owner"`
	CreatedAt int64    `json:"createdAt"`
	Active    bool     `json:"active"`
	// The contract's Bounty struct carries no location or details; both stay empty.
	Location string `json:"location"`
	Details  string `json:"details"`
}

// BountyStatus is the per-token summary used by device lists.
type BountyStatus struct {
	HasActiveBounty bool   `json:"hasActiveBounty"`
	Amount          string `json:"amount"` // ether, 4 decimal places, "0" when absent
	Location        string `json:"location"`
	Details         string `json:"details"`
}

// ActiveBounty is a live bounty enriched with the device it is posted for.
type ActiveBounty struct {
	Bounty
	IsNFTVerified bool        `json:"isNFTVerified"`
	DeviceInfo    *DeviceInfo `json:"deviceInfo,omitempty"`
}

// OpenBounty is a bounty for a device that has no NFT.
type OpenBounty struct {
	ID                string   `json:"id"`
	DeviceDescription string   `json:"deviceDescription"`
	AmountWei         *big.Int `json:"-"`
	Amount            string   `json:"amount"`
	Owner             string   `json:"owner"`
	CreatedAt         int64    `json:"createdAt"`
	Active            bool     `json:"active"`
}

// FoundListing is an item a finder posted without a matching bounty.
type FoundListing struct {
	ID                string   `json:"id"`
	DeviceDescription string   `json:"deviceDescription"`
	ProofHash         string   `json:"proofHash"`
	Finder            string   `json:"finder"`
	SubmittedAt       int64    `json:"submittedAt"`
	Claimed           bool     `json:"claimed"`
	ClaimedBy         string   `json:"claimedBy,omitempty"`
	RewardWei         *big.Int `json:"-"`
	RewardAmount      string   `json:"rewardAmount"`
}

// ObserveBountyState derives the lifecycle state from a bounty (nil when none exists) and its claims.
func ObserveBountyState(b *Bounty, claims []Claim) BountyState {
	if b == nil {
		return BountyStateNone
	}
	for _, c := range claims {
		if c.Confirmed {
			return BountyStateClaimApproved
		}
	}
	if !b.Active {
		return BountyStateCancelled
	}
	for _, c := range claims {
		if c.Pending() {
			return BountyStateClaimPending
		}
	}
	return BountyStateActive
}
