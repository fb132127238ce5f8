// services/tx_builder.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/big"
	"strings"
	"time"

	"findchain-api/config"
	"findchain-api/models"
	"findchain-api/utils"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"golang.org/x/text/unicode/norm"
)

// TxBackend relays signed transactions and reports receipts.
type TxBackend interface {
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// TxBuilder encodes contract writes as unsigned transaction requests for the user's wallet.
// Signing never happens here.
type TxBuilder struct {
	ABI          abi.ABI
	Contract     common.Address
	Network      config.Network
	Reader       ChainReader
	Backend      TxBackend
	PollInterval time.Duration
}

func NewTxBuilder(parsed abi.ABI, contractAddress string, network config.Network, reader ChainReader, backend TxBackend) *TxBuilder {
	return &TxBuilder{
		ABI:          parsed,
		Contract:     common.HexToAddress(contractAddress),
		Network:      network,
		Reader:       reader,
		Backend:      backend,
		PollInterval: 2 * time.Second,
	}
}

// normalizeText trims and NFC-normalises user supplied text before it goes on-chain.
func normalizeText(s string) string {
	return strings.TrimSpace(norm.NFC.String(s))
}

func (b *TxBuilder) build(method string, value *big.Int, args ...interface{}) (*models.TxRequest, error) {
	data, err := b.ABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", method, err)
	}
	if value == nil {
		value = new(big.Int)
	}
	return &models.TxRequest{
		ChainID:  b.Network.ChainID,
		To:       b.Contract.Hex(),
		Data:     hexutil.Encode(data),
		Value:    value.String(),
		Function: method,
	}, nil
}

func requiredAmount(amount string) (*big.Int, error) {
	wei, err := utils.ParseEther(amount)
	if err != nil {
		return nil, invalid("amount", err.Error())
	}
	if wei.Sign() <= 0 {
		return nil, invalid("amount", "must be greater than 0")
	}
	return wei, nil
}

func requiredProofHash(proofHash string) (string, error) {
	proofHash = strings.TrimSpace(proofHash)
	if proofHash == "" {
		return "", invalid("proofHash", "proof hash is required")
	}
	return proofHash, nil
}

func requiredDescription(description string) (string, error) {
	description = normalizeText(description)
	if description == "" {
		return "", invalid("description", "device description is required")
	}
	return description, nil
}

// MintDevice refuses an IMEI the contract already knows about.
func (b *TxBuilder) MintDevice(ctx context.Context, imei string) (*models.TxRequest, error) {
	imei = strings.TrimSpace(imei)
	if !utils.ValidIMEI(imei) {
		return nil, invalid("imei", "must be exactly 15 digits")
	}
	registered, err := b.Reader.IsIMEIRegistered(ctx, imei)
	if err != nil {
		return nil, fmt.Errorf("failed to check IMEI registration: %w", err)
	}
	if registered {
		return nil, fmt.Errorf("IMEI is already registered: %w", ErrConflict)
	}
	return b.build("mintDevice", nil, imei)
}

func (b *TxBuilder) TransferDevice(tokenID, to string) (*models.TxRequest, error) {
	id, err := parseID("tokenId", tokenID)
	if err != nil {
		return nil, err
	}
	if !utils.IsHexAddress(to) {
		return nil, invalid("to", "must be a 0x-prefixed 40 hex character address")
	}
	return b.build("transferDevice", nil, id, common.HexToAddress(to))
}

// CreateBounty escrows amount (ether) for tokenID. The contract takes no location or details.
func (b *TxBuilder) CreateBounty(tokenID, amount string) (*models.TxRequest, error) {
	id, err := parseID("tokenId", tokenID)
	if err != nil {
		return nil, err
	}
	wei, err := requiredAmount(amount)
	if err != nil {
		return nil, err
	}
	return b.build("createBounty", wei, id)
}

func (b *TxBuilder) SubmitClaim(tokenID, proofHash string) (*models.TxRequest, error) {
	id, err := parseID("tokenId", tokenID)
	if err != nil {
		return nil, err
	}
	hash, err := requiredProofHash(proofHash)
	if err != nil {
		return nil, err
	}
	return b.build("submitClaim", nil, id, hash)
}

func (b *TxBuilder) ConfirmClaim(claimID string) (*models.TxRequest, error) {
	return b.byID("confirmClaim", "claimId", claimID)
}

func (b *TxBuilder) RejectClaim(claimID string) (*models.TxRequest, error) {
	return b.byID("rejectClaim", "claimId", claimID)
}

func (b *TxBuilder) CancelBounty(tokenID string) (*models.TxRequest, error) {
	return b.byID("cancelBounty", "tokenId", tokenID)
}

func (b *TxBuilder) CreateOpenBounty(description, amount string) (*models.TxRequest, error) {
	desc, err := requiredDescription(description)
	if err != nil {
		return nil, err
	}
	wei, err := requiredAmount(amount)
	if err != nil {
		return nil, err
	}
	return b.build("createOpenBounty", wei, desc)
}

func (b *TxBuilder) CancelOpenBounty(bountyID string) (*models.TxRequest, error) {
	return b.byID("cancelOpenBounty", "bountyId", bountyID)
}

func (b *TxBuilder) SubmitOpenClaim(bountyID, proofHash string) (*models.TxRequest, error) {
	id, err := parseID("bountyId", bountyID)
	if err != nil {
		return nil, err
	}
	hash, err := requiredProofHash(proofHash)
	if err != nil {
		return nil, err
	}
	return b.build("submitOpenClaim", nil, id, hash)
}

func (b *TxBuilder) ConfirmOpenClaim(claimID string) (*models.TxRequest, error) {
	return b.byID("confirmOpenClaim", "claimId", claimID)
}

func (b *TxBuilder) RejectOpenClaim(claimID string) (*models.TxRequest, error) {
	return b.byID("rejectOpenClaim", "claimId", claimID)
}

func (b *TxBuilder) CreateFoundListing(description, proofHash string) (*models.TxRequest, error) {
	desc, err := requiredDescription(description)
	if err != nil {
		return nil, err
	}
	hash, err := requiredProofHash(proofHash)
	if err != nil {
		return nil, err
	}
	return b.build("createFoundListing", nil, desc, hash)
}

func (b *TxBuilder) RemoveFoundListing(listingID string) (*models.TxRequest, error) {
	return b.byID("removeFoundListing", "listingId", listingID)
}

// ClaimFoundListing takes an optional reward; an empty amount sends no value.
func (b *TxBuilder) ClaimFoundListing(listingID, reward string) (*models.TxRequest, error) {
	id, err := parseID("listingId", listingID)
	if err != nil {
		return nil, err
	}
	wei := new(big.Int)
	if strings.TrimSpace(reward) != "" {
		if wei, err = utils.ParseEther(reward); err != nil {
			return nil, invalid("amount", err.Error())
		}
	}
	return b.build("claimFoundListing", wei, id)
}

func (b *TxBuilder) byID(method, field, raw string) (*models.TxRequest, error) {
	id, err := parseID(field, raw)
	if err != nil {
		return nil, err
	}
	return b.build(method, nil, id)
}

// Broadcast relays a wallet-signed transaction addressed to the contract and returns its hash.
func (b *TxBuilder) Broadcast(ctx context.Context, rawTx string) (string, error) {
	raw, err := hexutil.Decode(strings.TrimSpace(rawTx))
	if err != nil {
		return "", invalid("rawTx", "must be 0x-prefixed hex")
	}
	tx := new(types.Transaction)
	if err := tx.UnmarshalBinary(raw); err != nil {
		return "", invalid("rawTx", "not a valid signed transaction")
	}
	if tx.To() == nil || *tx.To() != b.Contract {
		return "", invalid("rawTx", "transaction is not addressed to the FindChain contract")
	}
	if chainID := tx.ChainId(); chainID != nil && chainID.Sign() != 0 && chainID.Int64() != b.Network.ChainID {
		return "", invalid("rawTx", fmt.Sprintf("transaction is for chain %s, expected %d", chainID, b.Network.ChainID))
	}

	if err := b.Backend.SendTransaction(ctx, tx); err != nil {
		return "", &UpstreamError{Service: "rpc", Message: "sendRawTransaction", Err: err}
	}
	log.Printf("📤 [TX] Relayed %s", tx.Hash().Hex())
	return tx.Hash().Hex(), nil
}

// Receipt reports the confirmation state of a transaction. Unknown hashes are pending.
func (b *TxBuilder) Receipt(ctx context.Context, hash string) (*models.TxReceipt, error) {
	if !utils.IsTxHash(hash) {
		return nil, invalid("hash", "must be a 0x-prefixed 32 byte hash")
	}
	out := &models.TxReceipt{
		Hash:        hash,
		State:       models.TxPending,
		ExplorerURL: b.Network.TxURL(hash),
	}

	receipt, err := b.Backend.TransactionReceipt(ctx, common.HexToHash(hash))
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return out, nil
		}
		return nil, &UpstreamError{Service: "rpc", Message: "getTransactionReceipt", Err: err}
	}

	out.State = models.TxReverted
	if receipt.Status == types.ReceiptStatusSuccessful {
		out.State = models.TxSuccess
	}
	if receipt.BlockNumber != nil {
		out.BlockNumber = receipt.BlockNumber.Uint64()
	}
	out.GasUsed = receipt.GasUsed
	return out, nil
}

// WaitForConfirmation polls until the transaction is mined or timeout elapses. On timeout the
// last (pending) receipt is returned without error.
func (b *TxBuilder) WaitForConfirmation(ctx context.Context, hash string, timeout time.Duration) (*models.TxReceipt, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	interval := b.PollInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		receipt, err := b.Receipt(ctx, hash)
		if err != nil {
			if ctx.Err() != nil && !errors.Is(err, ErrValidation) {
				return &models.TxReceipt{Hash: hash, State: models.TxPending, ExplorerURL: b.Network.TxURL(hash)}, nil
			}
			return nil, err
		}
		if receipt.State != models.TxPending {
			return receipt, nil
		}

		select {
		case <-ctx.Done():
			return receipt, nil
		case <-ticker.C:
		}
	}
}
