// services/chain_reader.go
package services

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"findchain-api/models"
	"findchain-api/utils"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

// ChainReader is the read surface of the FindChain contract. Ids are decimal strings.
// Missing bounties, claims and listings come back as ErrNotFound.
type ChainReader interface {
	GetBounty(ctx context.Context, tokenID string) (*models.Bounty, error)
	GetTokenIMEI(ctx context.Context, tokenID string) (string, error)
	GetClaim(ctx context.Context, claimID string) (*models.Claim, error)
	GetBountyClaims(ctx context.Context, tokenID string) ([]string, error)
	OwnerOf(ctx context.Context, tokenID string) (string, error)
	BalanceOf(ctx context.Context, address string) (*big.Int, error)
	IsIMEIRegistered(ctx context.Context, imei string) (bool, error)

	GetOpenBounty(ctx context.Context, id string) (*models.OpenBounty, error)
	GetOpenClaim(ctx context.Context, claimID string) (*models.Claim, error)
	GetOpenBountyClaims(ctx context.Context, id string) ([]string, error)
	GetFoundListing(ctx context.Context, id string) (*models.FoundListing, error)
	TotalOpenBounties(ctx context.Context) (*big.Int, error)
	TotalFoundListings(ctx context.Context) (*big.Int, error)
	TotalOpenClaims(ctx context.Context) (*big.Int, error)
}

// Tuple layouts returned by the contract. Field names follow the ABI component names.
type bountyTuple struct {
	Amount    *big.Int
	Owner     common.Address
	CreatedAt *big.Int
	Active    bool
}

type claimTuple struct {
	BountyTokenId *big.Int
	Finder        common.Address
	ProofHash     string
	SubmittedAt   *big.Int
	Confirmed     bool
	Rejected      bool
}

type openBountyTuple struct {
	Id                *big.Int
	DeviceDescription string
	Amount            *big.Int
	Owner             common.Address
	CreatedAt         *big.Int
	Active            bool
}

type openClaimTuple struct {
	OpenBountyId *big.Int
	Finder       common.Address
	ProofHash    string
	SubmittedAt  *big.Int
	Confirmed    bool
	Rejected     bool
}

type foundListingTuple struct {
	Id                *big.Int
	DeviceDescription string
	ProofHash         string
	Finder            common.Address
	SubmittedAt       *big.Int
	Claimed           bool
	ClaimedBy         common.Address
	RewardAmount      *big.Int
}

// EthChainReader calls the contract through any JSON-RPC backend (ethclient.Client in production).
type EthChainReader struct {
	Address  common.Address
	contract *bind.BoundContract
}

func NewEthChainReader(caller bind.ContractCaller, contractAddress string, parsed abi.ABI) (*EthChainReader, error) {
	if !utils.IsHexAddress(contractAddress) {
		return nil, fmt.Errorf("invalid contract address %q", contractAddress)
	}
	addr := common.HexToAddress(contractAddress)
	return &EthChainReader{
		Address:  addr,
		contract: bind.NewBoundContract(addr, parsed, caller, nil, nil),
	}, nil
}

func (r *EthChainReader) call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	var out []interface{}
	err := r.contract.Call(&bind.CallOpts{Context: ctx}, &out, method, args...)
	if err != nil {
		if isRevert(err) {
			return nil, fmt.Errorf("%s: %w", method, ErrNotFound)
		}
		return nil, &UpstreamError{Service: "rpc", Message: method, Err: err}
	}
	if len(out) == 0 {
		return nil, &UpstreamError{Service: "rpc", Message: method + " returned no data"}
	}
	return out, nil
}

func isRevert(err error) bool {
	if errors.Is(err, bind.ErrNoCode) {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "revert")
}

func parseID(field, s string) (*big.Int, error) {
	n, err := utils.ParseTokenID(s)
	if err != nil {
		return nil, invalid(field, err.Error())
	}
	return n, nil
}

func (r *EthChainReader) GetBounty(ctx context.Context, tokenID string) (*models.Bounty, error) {
	id, err := parseID("tokenId", tokenID)
	if err != nil {
		return nil, err
	}
	out, err := r.call(ctx, "getBounty", id)
	if err != nil {
		return nil, err
	}
	t := *abi.ConvertType(out[0], new(bountyTuple)).(*bountyTuple)
	if t.Owner == (common.Address{}) {
		return nil, fmt.Errorf("bounty for token %s: %w", tokenID, ErrNotFound)
	}
	return &models.Bounty{
		TokenID:   id.String(),
		AmountWei: t.Amount,
		Amount:    utils.FormatEther(t.Amount),
		Owner:     t.Owner.Hex(),
		CreatedAt: t.CreatedAt.Int64(),
		Active:    t.Active,
	}, nil
}

func (r *EthChainReader) GetTokenIMEI(ctx context.Context, tokenID string) (string, error) {
	id, err := parseID("tokenId", tokenID)
	if err != nil {
		return "", err
	}
	out, err := r.call(ctx, "getTokenIMEI", id)
	if err != nil {
		return "", err
	}
	return *abi.ConvertType(out[0], new(string)).(*string), nil
}

func (r *EthChainReader) GetClaim(ctx context.Context, claimID string) (*models.Claim, error) {
	id, err := parseID("claimId", claimID)
	if err != nil {
		return nil, err
	}
	out, err := r.call(ctx, "getClaim", id)
	if err != nil {
		return nil, err
	}
	t := *abi.ConvertType(out[0], new(claimTuple)).(*claimTuple)
	if t.Finder == (common.Address{}) {
		return nil, fmt.Errorf("claim %s: %w", claimID, ErrNotFound)
	}
	return &models.Claim{
		ClaimID:     id.String(),
		TokenID:     t.BountyTokenId.String(),
		Finder:      t.Finder.Hex(),
		ProofHash:   t.ProofHash,
		SubmittedAt: t.SubmittedAt.Int64(),
		Confirmed:   t.Confirmed,
		Rejected:    t.Rejected,
	}, nil
}

func (r *EthChainReader) GetBountyClaims(ctx context.Context, tokenID string) ([]string, error) {
	id, err := parseID("tokenId", tokenID)
	if err != nil {
		return nil, err
	}
	return r.idList(ctx, "getBountyClaims", id)
}

func (r *EthChainReader) idList(ctx context.Context, method string, id *big.Int) ([]string, error) {
	out, err := r.call(ctx, method, id)
	if err != nil {
		return nil, err
	}
	ids := *abi.ConvertType(out[0], new([]*big.Int)).(*[]*big.Int)
	res := make([]string, 0, len(ids))
	for _, n := range ids {
		res = append(res, n.String())
	}
	return res, nil
}

func (r *EthChainReader) OwnerOf(ctx context.Context, tokenID string) (string, error) {
	id, err := parseID("tokenId", tokenID)
	if err != nil {
		return "", err
	}
	out, err := r.call(ctx, "ownerOf", id)
	if err != nil {
		return "", err
	}
	owner := *abi.ConvertType(out[0], new(common.Address)).(*common.Address)
	if owner == (common.Address{}) {
		return "", fmt.Errorf("token %s: %w", tokenID, ErrNotFound)
	}
	return owner.Hex(), nil
}

func (r *EthChainReader) BalanceOf(ctx context.Context, address string) (*big.Int, error) {
	if !utils.IsHexAddress(address) {
		return nil, invalid("address", "must be a 0x-prefixed 40 hex character address")
	}
	out, err := r.call(ctx, "balanceOf", common.HexToAddress(address))
	if err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

func (r *EthChainReader) IsIMEIRegistered(ctx context.Context, imei string) (bool, error) {
	if !utils.ValidIMEI(imei) {
		return false, invalid("imei", "must be exactly 15 digits")
	}
	out, err := r.call(ctx, "isIMEIRegistered", imei)
	if err != nil {
		return false, err
	}
	return *abi.ConvertType(out[0], new(bool)).(*bool), nil
}

func (r *EthChainReader) GetOpenBounty(ctx context.Context, bountyID string) (*models.OpenBounty, error) {
	id, err := parseID("bountyId", bountyID)
	if err != nil {
		return nil, err
	}
	out, err := r.call(ctx, "getOpenBounty", id)
	if err != nil {
		return nil, err
	}
	t := *abi.ConvertType(out[0], new(openBountyTuple)).(*openBountyTuple)
	if t.Owner == (common.Address{}) {
		return nil, fmt.Errorf("open bounty %s: %w", bountyID, ErrNotFound)
	}
	return &models.OpenBounty{
		ID:                id.String(),
		DeviceDescription: t.DeviceDescription,
		AmountWei:         t.Amount,
		Amount:            utils.FormatEther(t.Amount),
		Owner:             t.Owner.Hex(),
		CreatedAt:         t.CreatedAt.Int64(),
		Active:            t.Active,
	}, nil
}

func (r *EthChainReader) GetOpenClaim(ctx context.Context, claimID string) (*models.Claim, error) {
	id, err := parseID("claimId", claimID)
	if err != nil {
		return nil, err
	}
	out, err := r.call(ctx, "getOpenClaim", id)
	if err != nil {
		return nil, err
	}
	t := *abi.ConvertType(out[0], new(openClaimTuple)).(*openClaimTuple)
	if t.Finder == (common.Address{}) {
		return nil, fmt.Errorf("open claim %s: %w", claimID, ErrNotFound)
	}
	return &models.Claim{
		ClaimID:      id.String(),
		OpenBountyID: t.OpenBountyId.String(),
		Finder:       t.Finder.Hex(),
		ProofHash:    t.ProofHash,
		SubmittedAt:  t.SubmittedAt.Int64(),
		Confirmed:    t.Confirmed,
		Rejected:     t.Rejected,
	}, nil
}

func (r *EthChainReader) GetOpenBountyClaims(ctx context.Context, bountyID string) ([]string, error) {
	id, err := parseID("bountyId", bountyID)
	if err != nil {
		return nil, err
	}
	return r.idList(ctx, "getOpenBountyClaims", id)
}

func (r *EthChainReader) GetFoundListing(ctx context.Context, listingID string) (*models.FoundListing, error) {
	id, err := parseID("listingId", listingID)
	if err != nil {
		return nil, err
	}
	out, err := r.call(ctx, "getFoundListing", id)
	if err != nil {
		return nil, err
	}
	t := *abi.ConvertType(out[0], new(foundListingTuple)).(*foundListingTuple)
	if t.Finder == (common.Address{}) {
		return nil, fmt.Errorf("found listing %s: %w", listingID, ErrNotFound)
	}
	listing := &models.FoundListing{
		ID:                id.String(),
		DeviceDescription: t.DeviceDescription,
		ProofHash:         t.ProofHash,
		Finder:            t.Finder.Hex(),
		SubmittedAt:       t.SubmittedAt.Int64(),
		Claimed:           t.Claimed,
		RewardWei:         t.RewardAmount,
		RewardAmount:      utils.FormatEther(t.RewardAmount),
	}
	if t.ClaimedBy != (common.Address{}) {
		listing.ClaimedBy = t.ClaimedBy.Hex()
	}
	return listing, nil
}

func (r *EthChainReader) TotalOpenBounties(ctx context.Context) (*big.Int, error) {
	return r.total(ctx, "getTotalOpenBounties")
}

func (r *EthChainReader) TotalFoundListings(ctx context.Context) (*big.Int, error) {
	return r.total(ctx, "getTotalFoundListings")
}

func (r *EthChainReader) TotalOpenClaims(ctx context.Context) (*big.Int, error) {
	return r.total(ctx, "getTotalOpenClaims")
}

func (r *EthChainReader) total(ctx context.Context, method string) (*big.Int, error) {
	out, err := r.call(ctx, method)
	if err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}
