// services/claim_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"findchain-api/models"
)

// ClaimService reads bounties, claims, open bounties and found listings live from the contract.
type ClaimService struct {
	Chain       ChainReader
	Events      EventIndex
	FanOutLimit int
}

func NewClaimService(chain ChainReader, events EventIndex, fanOutLimit int) *ClaimService {
	return &ClaimService{Chain: chain, Events: events, FanOutLimit: fanOutLimit}
}

// BountyDetail is one bounty with its claims and observed lifecycle state.
type BountyDetail struct {
	Bounty *models.Bounty     `json:"bounty"`
	Claims []models.Claim     `json:"claims"`
	State  models.BountyState `json:"state"`
}

func (s *ClaimService) BountyDetail(ctx context.Context, tokenID string) (*BountyDetail, error) {
	b, err := s.Chain.GetBounty(ctx, tokenID)
	if err != nil {
		return nil, err
	}
	claims, err := s.BountyClaims(ctx, tokenID)
	if err != nil {
		return nil, err
	}
	return &BountyDetail{Bounty: b, Claims: claims, State: models.ObserveBountyState(b, claims)}, nil
}

// BountyClaims reads the claim ids for a token and then every claim. Any failure fails the call.
func (s *ClaimService) BountyClaims(ctx context.Context, tokenID string) ([]models.Claim, error) {
	ids, err := s.Chain.GetBountyClaims(ctx, tokenID)
	if err != nil {
		return nil, fmt.Errorf("failed to list claims for token %s: %w", tokenID, err)
	}
	return s.readClaims(ctx, ids, s.Chain.GetClaim)
}

func (s *ClaimService) OpenBountyClaims(ctx context.Context, bountyID string) ([]models.Claim, error) {
	ids, err := s.Chain.GetOpenBountyClaims(ctx, bountyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list claims for open bounty %s: %w", bountyID, err)
	}
	return s.readClaims(ctx, ids, s.Chain.GetOpenClaim)
}

func (s *ClaimService) readClaims(ctx context.Context, ids []string, get func(context.Context, string) (*models.Claim, error)) ([]models.Claim, error) {
	claims := make([]models.Claim, len(ids))
	err := fanOut(ctx, len(ids), s.FanOutLimit, func(ctx context.Context, i int) error {
		c, err := get(ctx, ids[i])
		if err != nil {
			return fmt.Errorf("failed to read claim %s: %w", ids[i], err)
		}
		claims[i] = *c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// ClaimsByToken collects claims for several tokens. A token whose claims cannot be read maps
// to an empty list.
func (s *ClaimService) ClaimsByToken(ctx context.Context, tokenIDs []string) map[string][]models.Claim {
	lists := make([][]models.Claim, len(tokenIDs))
	_ = fanOut(ctx, len(tokenIDs), s.FanOutLimit, func(ctx context.Context, i int) error {
		claims, err := s.BountyClaims(ctx, tokenIDs[i])
		if err != nil {
			if !errors.Is(err, ErrNotFound) {
				log.Printf("[CLAIMS] ⚠️ %v", err)
			}
			claims = []models.Claim{}
		}
		lists[i] = claims
		return nil
	})

	out := make(map[string][]models.Claim, len(tokenIDs))
	for i, id := range tokenIDs {
		out[id] = lists[i]
	}
	return out
}

// OpenBounties lists open bounties known to the event index. Inactive ones are dropped unless
// includeInactive is set.
func (s *ClaimService) OpenBounties(ctx context.Context, includeInactive bool) ([]models.OpenBounty, error) {
	ids, err := s.Events.EntityIDs(ctx, models.ChainEventOpenBountyCreated)
	if err != nil {
		return nil, err
	}

	found := make([]*models.OpenBounty, len(ids))
	_ = fanOut(ctx, len(ids), s.FanOutLimit, func(ctx context.Context, i int) error {
		b, err := s.Chain.GetOpenBounty(ctx, ids[i])
		if err != nil {
			if !errors.Is(err, ErrNotFound) {
				log.Printf("[OPEN_BOUNTY] ⚠️ getOpenBounty(%s) failed: %v", ids[i], err)
			}
			return nil
		}
		if b.Active || includeInactive {
			found[i] = b
		}
		return nil
	})

	out := make([]models.OpenBounty, 0, len(found))
	for _, b := range found {
		if b != nil {
			out = append(out, *b)
		}
	}
	sortOpenBountiesNewestFirst(out)
	return out, nil
}

func (s *ClaimService) OpenBounty(ctx context.Context, id string) (*models.OpenBounty, error) {
	return s.Chain.GetOpenBounty(ctx, id)
}

// FoundListings lists found items known to the event index. Claimed ones are dropped unless
// includeClaimed is set.
func (s *ClaimService) FoundListings(ctx context.Context, includeClaimed bool) ([]models.FoundListing, error) {
	ids, err := s.Events.EntityIDs(ctx, models.ChainEventFoundListingCreated)
	if err != nil {
		return nil, err
	}

	found := make([]*models.FoundListing, len(ids))
	_ = fanOut(ctx, len(ids), s.FanOutLimit, func(ctx context.Context, i int) error {
		l, err := s.Chain.GetFoundListing(ctx, ids[i])
		if err != nil {
			if !errors.Is(err, ErrNotFound) {
				log.Printf("[FOUND] ⚠️ getFoundListing(%s) failed: %v", ids[i], err)
			}
			return nil
		}
		if !l.Claimed || includeClaimed {
			found[i] = l
		}
		return nil
	})

	out := make([]models.FoundListing, 0, len(found))
	for _, l := range found {
		if l != nil {
			out = append(out, *l)
		}
	}
	sortListingsNewestFirst(out)
	return out, nil
}

func (s *ClaimService) FoundListing(ctx context.Context, id string) (*models.FoundListing, error) {
	return s.Chain.GetFoundListing(ctx, id)
}
