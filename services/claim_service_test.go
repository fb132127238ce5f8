package services

import (
	"context"
	"testing"

	"findchain-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBountyDetailObservesState(t *testing.T) {
	chain := newFakeChain()
	chain.bounties["5"] = &models.Bounty{TokenID: "5", Active: true}
	chain.claimIDs["5"] = []string{"10", "11"}
	chain.claims["10"] = &models.Claim{ClaimID: "10", TokenID: "5", Rejected: true}
	chain.claims["11"] = &models.Claim{ClaimID: "11", TokenID: "5"}
	svc := NewClaimService(chain, &fakeEvents{}, 4)

	detail, err := svc.BountyDetail(context.Background(), "5")
	require.NoError(t, err)
	require.Len(t, detail.Claims, 2)
	assert.Equal(t, "10", detail.Claims[0].ClaimID)
	assert.Equal(t, "11", detail.Claims[1].ClaimID)
	assert.Equal(t, models.BountyStateClaimPending, detail.State)
}

func TestBountyClaimsFailsAsWhole(t *testing.T) {
	chain := newFakeChain()
	chain.claimIDs["5"] = []string{"10", "missing"}
	chain.claims["10"] = &models.Claim{ClaimID: "10"}
	svc := NewClaimService(chain, &fakeEvents{}, 4)

	_, err := svc.BountyClaims(context.Background(), "5")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClaimsByTokenIsolatesFailures(t *testing.T) {
	chain := newFakeChain()
	chain.claimIDs["1"] = []string{"10"}
	chain.claims["10"] = &models.Claim{ClaimID: "10", TokenID: "1", Confirmed: true}
	svc := NewClaimService(chain, &fakeEvents{}, 4)

	byToken := svc.ClaimsByToken(context.Background(), []string{"1", "2"})
	require.Len(t, byToken, 2)
	require.Len(t, byToken["1"], 1)
	assert.Equal(t, models.ClaimStatusConfirmed, byToken["1"][0].Status())
	assert.NotNil(t, byToken["2"])
	assert.Empty(t, byToken["2"])
}

func TestOpenBountiesFiltersInactive(t *testing.T) {
	chain := newFakeChain()
	chain.openBounties["1"] = &models.OpenBounty{ID: "1", Active: true, CreatedAt: 10}
	chain.openBounties["2"] = &models.OpenBounty{ID: "2", Active: false, CreatedAt: 30}
	chain.openBounties["3"] = &models.OpenBounty{ID: "3", Active: true, CreatedAt: 20}
	events := &fakeEvents{ids: map[models.ChainEventKind][]string{
		models.ChainEventOpenBountyCreated: {"1", "2", "3", "4"},
	}}
	svc := NewClaimService(chain, events, 4)

	active, err := svc.OpenBounties(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "3", active[0].ID)
	assert.Equal(t, "1", active[1].ID)

	all, err := svc.OpenBounties(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "2", all[0].ID)
}

func TestFoundListingsFiltersClaimed(t *testing.T) {
	chain := newFakeChain()
	chain.listings["1"] = &models.FoundListing{ID: "1", SubmittedAt: 5}
	chain.listings["2"] = &models.FoundListing{ID: "2", SubmittedAt: 9, Claimed: true}
	events := &fakeEvents{ids: map[models.ChainEventKind][]string{
		models.ChainEventFoundListingCreated: {"1", "2"},
	}}
	svc := NewClaimService(chain, events, 4)

	open, err := svc.FoundListings(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "1", open[0].ID)

	all, err := svc.FoundListings(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "2", all[0].ID)
}
