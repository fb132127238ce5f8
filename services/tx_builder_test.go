package services

import (
	"context"
	"math/big"
	"strings"
	"testing"
	"time"

	"findchain-api/config"
	"findchain-api/contracts"
	"findchain-api/models"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNetwork = config.Network{Name: "base-sepolia", ChainID: 84532, ExplorerURL: "https://sepolia.basescan.org"}

type fakeBackend struct {
	sent     []*types.Transaction
	receipts map[common.Hash]*types.Receipt
}

func (f *fakeBackend) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	f.sent = append(f.sent, tx)
	return nil
}

func (f *fakeBackend) TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	r, ok := f.receipts[hash]
	if !ok {
		return nil, ethereum.NotFound
	}
	return r, nil
}

func newTestBuilder(chain ChainReader, backend TxBackend) *TxBuilder {
	b := NewTxBuilder(contracts.MustDefault(), contract, testNetwork, chain, backend)
	b.PollInterval = 10 * time.Millisecond
	return b
}

func decodeArgs(t *testing.T, b *TxBuilder, req *models.TxRequest) []interface{} {
	t.Helper()
	data, err := hexutil.Decode(req.Data)
	require.NoError(t, err)
	method, ok := b.ABI.Methods[req.Function]
	require.True(t, ok)
	assert.Equal(t, method.ID, data[:4])
	args, err := method.Inputs.Unpack(data[4:])
	require.NoError(t, err)
	return args
}

func TestCreateBountyEncodesCall(t *testing.T) {
	b := newTestBuilder(newFakeChain(), &fakeBackend{})

	req, err := b.CreateBounty("42", "0.05")
	require.NoError(t, err)
	assert.Equal(t, int64(84532), req.ChainID)
	assert.Equal(t, common.HexToAddress(contract).Hex(), req.To)
	assert.Equal(t, "50000000000000000", req.Value)
	assert.Equal(t, "createBounty", req.Function)

	data, err := hexutil.Decode(req.Data)
	require.NoError(t, err)
	assert.Equal(t, crypto.Keccak256([]byte("createBounty(uint256)"))[:4], data[:4])

	args := decodeArgs(t, b, req)
	require.Len(t, args, 1)
	assert.Equal(t, big.NewInt(42), args[0])
}

func TestBuildersValidateInput(t *testing.T) {
	b := newTestBuilder(newFakeChain(), &fakeBackend{})

	cases := []struct {
		name  string
		field string
		call  func() error
	}{
		{"bad token id", "tokenId", func() error { _, err := b.CancelBounty("abc"); return err }},
		{"zero amount", "amount", func() error { _, err := b.CreateBounty("1", "0"); return err }},
		{"negative amount", "amount", func() error { _, err := b.CreateOpenBounty("phone", "-1"); return err }},
		{"empty description", "description", func() error { _, err := b.CreateOpenBounty("  ", "1"); return err }},
		{"empty proof", "proofHash", func() error { _, err := b.SubmitClaim("1", ""); return err }},
		{"bad recipient", "to", func() error { _, err := b.TransferDevice("1", "0xnope"); return err }},
		{"bad reward", "amount", func() error { _, err := b.ClaimFoundListing("3", "abc"); return err }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.call()
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Field)
		})
	}
}

func TestClaimFoundListingOptionalReward(t *testing.T) {
	b := newTestBuilder(newFakeChain(), &fakeBackend{})

	req, err := b.ClaimFoundListing("3", "")
	require.NoError(t, err)
	assert.Equal(t, "0", req.Value)

	req, err = b.ClaimFoundListing("3", "0.01")
	require.NoError(t, err)
	assert.Equal(t, "10000000000000000", req.Value)
	assert.Equal(t, big.NewInt(3), decodeArgs(t, b, req)[0])
}

func TestMintDeviceRejectsRegisteredIMEI(t *testing.T) {
	chain := newFakeChain()
	chain.registered["356938035643809"] = true
	b := newTestBuilder(chain, &fakeBackend{})

	_, err := b.MintDevice(context.Background(), "356938035643809")
	assert.ErrorIs(t, err, ErrConflict)

	_, err = b.MintDevice(context.Background(), "1234")
	assert.ErrorIs(t, err, ErrValidation)

	req, err := b.MintDevice(context.Background(), "490154203237518")
	require.NoError(t, err)
	assert.Equal(t, "490154203237518", decodeArgs(t, b, req)[0])
}

func signedTx(t *testing.T, chainID int64, to common.Address) string {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   big.NewInt(chainID),
		Nonce:     1,
		GasTipCap: big.NewInt(1),
		GasFeeCap: big.NewInt(2),
		Gas:       100000,
		To:        &to,
		Value:     big.NewInt(0),
	})
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(big.NewInt(chainID)), key)
	require.NoError(t, err)
	raw, err := signed.MarshalBinary()
	require.NoError(t, err)
	return hexutil.Encode(raw)
}

func TestBroadcast(t *testing.T) {
	backend := &fakeBackend{}
	b := newTestBuilder(newFakeChain(), backend)

	hash, err := b.Broadcast(context.Background(), signedTx(t, 84532, common.HexToAddress(contract)))
	require.NoError(t, err)
	require.Len(t, backend.sent, 1)
	assert.Equal(t, backend.sent[0].Hash().Hex(), hash)

	_, err = b.Broadcast(context.Background(), signedTx(t, 84532, common.HexToAddress(owner)))
	assert.ErrorIs(t, err, ErrValidation)

	_, err = b.Broadcast(context.Background(), signedTx(t, 1, common.HexToAddress(contract)))
	assert.ErrorIs(t, err, ErrValidation)

	_, err = b.Broadcast(context.Background(), "0xzz")
	assert.ErrorIs(t, err, ErrValidation)
	assert.Len(t, backend.sent, 1)
}

func TestReceiptStates(t *testing.T) {
	mined := common.HexToHash("0x" + strings.Repeat("ab", 32))
	reverted := common.HexToHash("0x" + strings.Repeat("cd", 32))
	backend := &fakeBackend{receipts: map[common.Hash]*types.Receipt{
		mined:    {Status: types.ReceiptStatusSuccessful, BlockNumber: big.NewInt(900), GasUsed: 21000},
		reverted: {Status: types.ReceiptStatusFailed, BlockNumber: big.NewInt(901)},
	}}
	b := newTestBuilder(newFakeChain(), backend)

	r, err := b.Receipt(context.Background(), mined.Hex())
	require.NoError(t, err)
	assert.Equal(t, models.TxSuccess, r.State)
	assert.Equal(t, uint64(900), r.BlockNumber)
	assert.Equal(t, uint64(21000), r.GasUsed)
	assert.Equal(t, "https://sepolia.basescan.org/tx/"+mined.Hex(), r.ExplorerURL)

	r, err = b.Receipt(context.Background(), reverted.Hex())
	require.NoError(t, err)
	assert.Equal(t, models.TxReverted, r.State)

	pending := "0x" + strings.Repeat("ef", 32)
	r, err = b.Receipt(context.Background(), pending)
	require.NoError(t, err)
	assert.Equal(t, models.TxPending, r.State)

	_, err = b.Receipt(context.Background(), "0x1234")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestWaitForConfirmationTimesOutPending(t *testing.T) {
	b := newTestBuilder(newFakeChain(), &fakeBackend{})

	r, err := b.WaitForConfirmation(context.Background(), "0x"+strings.Repeat("ef", 32), 50*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, models.TxPending, r.State)
}
