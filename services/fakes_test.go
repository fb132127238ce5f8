package services

import (
	"context"
	"math/big"
	"sync"

	"findchain-api/models"
)

type fakeChain struct {
	mu           sync.Mutex
	imeis        map[string]string
	imeiErr      map[string]error
	bounties     map[string]*models.Bounty
	bountyErr    map[string]error
	claimIDs     map[string][]string
	claims       map[string]*models.Claim
	openBounties map[string]*models.OpenBounty
	listings     map[string]*models.FoundListing
	registered   map[string]bool
	calls        int
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		imeis:        map[string]string{},
		imeiErr:      map[string]error{},
		bounties:     map[string]*models.Bounty{},
		bountyErr:    map[string]error{},
		claimIDs:     map[string][]string{},
		claims:       map[string]*models.Claim{},
		openBounties: map[string]*models.OpenBounty{},
		listings:     map[string]*models.FoundListing{},
		registered:   map[string]bool{},
	}
}

func (f *fakeChain) count() {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
}

func (f *fakeChain) GetBounty(ctx context.Context, tokenID string) (*models.Bounty, error) {
	f.count()
	if err := f.bountyErr[tokenID]; err != nil {
		return nil, err
	}
	b, ok := f.bounties[tokenID]
	if !ok {
		return nil, ErrNotFound
	}
	return b, nil
}

func (f *fakeChain) GetTokenIMEI(ctx context.Context, tokenID string) (string, error) {
	f.count()
	if err := f.imeiErr[tokenID]; err != nil {
		return "", err
	}
	return f.imeis[tokenID], nil
}

func (f *fakeChain) GetClaim(ctx context.Context, claimID string) (*models.Claim, error) {
	f.count()
	c, ok := f.claims[claimID]
	if !ok {
		return nil, ErrNotFound
	}
	return c, nil
}

func (f *fakeChain) GetBountyClaims(ctx context.Context, tokenID string) ([]string, error) {
	f.count()
	ids, ok := f.claimIDs[tokenID]
	if !ok {
		return nil, &UpstreamError{Service: "rpc", Message: "boom"}
	}
	return ids, nil
}

func (f *fakeChain) OwnerOf(ctx context.Context, tokenID string) (string, error) {
	return "", ErrNotFound
}

func (f *fakeChain) BalanceOf(ctx context.Context, address string) (*big.Int, error) {
	return big.NewInt(0), nil
}

func (f *fakeChain) IsIMEIRegistered(ctx context.Context, imei string) (bool, error) {
	return f.registered[imei], nil
}

func (f *fakeChain) GetOpenBounty(ctx context.Context, id string) (*models.OpenBounty, error) {
	b, ok := f.openBounties[id]
	if !ok {
		return nil, ErrNotFound
	}
	return b, nil
}

func (f *fakeChain) GetOpenClaim(ctx context.Context, claimID string) (*models.Claim, error) {
	return f.GetClaim(ctx, claimID)
}

func (f *fakeChain) GetOpenBountyClaims(ctx context.Context, id string) ([]string, error) {
	return f.GetBountyClaims(ctx, "open:"+id)
}

func (f *fakeChain) GetFoundListing(ctx context.Context, id string) (*models.FoundListing, error) {
	l, ok := f.listings[id]
	if !ok {
		return nil, ErrNotFound
	}
	return l, nil
}

func (f *fakeChain) TotalOpenBounties(ctx context.Context) (*big.Int, error) {
	return big.NewInt(int64(len(f.openBounties))), nil
}

func (f *fakeChain) TotalFoundListings(ctx context.Context) (*big.Int, error) {
	return big.NewInt(int64(len(f.listings))), nil
}

func (f *fakeChain) TotalOpenClaims(ctx context.Context) (*big.Int, error) {
	return big.NewInt(0), nil
}

type fakeIndexer struct {
	tokens []models.OwnedToken
	err    error
}

func (f *fakeIndexer) OwnedTokens(ctx context.Context, owner, contract string) (*models.OwnedTokens, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.OwnedTokens{Tokens: f.tokens, TotalCount: len(f.tokens)}, nil
}

type fakeDevices struct {
	mu    sync.Mutex
	infos map[string]*models.DeviceInfo
	errs  map[string]error
	calls []string
}

func (f *fakeDevices) Lookup(ctx context.Context, imei string) (*models.DeviceInfo, error) {
	f.mu.Lock()
	f.calls = append(f.calls, imei)
	f.mu.Unlock()
	if err := f.errs[imei]; err != nil {
		return nil, err
	}
	return f.infos[imei], nil
}

type fakeEvents struct {
	ids map[models.ChainEventKind][]string
}

func (f *fakeEvents) EntityIDs(ctx context.Context, kind models.ChainEventKind) ([]string, error) {
	return f.ids[kind], nil
}
