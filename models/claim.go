package models

// ClaimStatus is derived from the contract's confirmed/rejected flags.
type ClaimStatus string

const (
	ClaimStatusPending   ClaimStatus = "pending"
	ClaimStatusConfirmed ClaimStatus = "confirmed"
	ClaimStatusRejected  ClaimStatus = "rejected"
)

// Claim is a finder's proof submission. Exactly one of TokenID (NFT bounty) or
// OpenBountyID (open bounty) is set.
type Claim struct {
	ClaimID      string `json:"claimId"`
	TokenID      string `json:"bountyTokenId,omitempty"`
	OpenBountyID string `json:"openBountyId,omitempty"`
	Finder       string `json:"finder"`
	ProofHash    string `json:"proofHash"`
	SubmittedAt  int64  `json:"submittedAt"`
	Confirmed    bool   `json:"confirmed"`
	Rejected     bool   `json:"rejected"`
}

// Pending reports whether the owner has not acted on the claim yet.
func (c Claim) Pending() bool {
	return !c.Confirmed && !c.Rejected
}

func (c Claim) Status() ClaimStatus {
	switch {
	case c.Confirmed:
		return ClaimStatusConfirmed
	case c.Rejected:
		return ClaimStatusRejected
	default:
		return ClaimStatusPending
	}
}
