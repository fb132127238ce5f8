package handlers

import (
	"context"
	"encoding/json"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"findchain-api/config"
	"findchain-api/contracts"
	"findchain-api/models"
	"findchain-api/services"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testContract = "0x2222222222222222222222222222222222222222"
	testOwner    = "0x1111111111111111111111111111111111111111"
)

type stubChain struct {
	services.ChainReader
	imeis    map[string]string
	bounties map[string]*models.Bounty
}

func (s *stubChain) GetTokenIMEI(ctx context.Context, tokenID string) (string, error) {
	return s.imeis[tokenID], nil
}

func (s *stubChain) GetBounty(ctx context.Context, tokenID string) (*models.Bounty, error) {
	b, ok := s.bounties[tokenID]
	if !ok {
		return nil, services.ErrNotFound
	}
	return b, nil
}

func (s *stubChain) IsIMEIRegistered(ctx context.Context, imei string) (bool, error) {
	return imei == "356938035643809", nil
}

func (s *stubChain) BalanceOf(ctx context.Context, address string) (*big.Int, error) {
	return big.NewInt(2), nil
}

type stubIndexer struct {
	tokens []models.OwnedToken
}

func (s *stubIndexer) OwnedTokens(ctx context.Context, owner, contract string) (*models.OwnedTokens, error) {
	return &models.OwnedTokens{Tokens: s.tokens, TotalCount: len(s.tokens)}, nil
}

type stubDevices struct {
	infos map[string]*models.DeviceInfo
}

func (s *stubDevices) Lookup(ctx context.Context, imei string) (*models.DeviceInfo, error) {
	return s.infos[imei], nil
}

type stubEvents struct{}

func (stubEvents) EntityIDs(ctx context.Context, kind models.ChainEventKind) ([]string, error) {
	return nil, nil
}

func newTestApp() *fiber.App {
	chain := &stubChain{
		imeis: map[string]string{"1": "356938035643809"},
		bounties: map[string]*models.Bounty{
			"1": {TokenID: "1", AmountWei: big.NewInt(5e16), Active: true},
		},
	}
	devices := &stubDevices{infos: map[string]*models.DeviceInfo{
		"356938035643809": {Brand: "Motorola", Model: "XT2345", ModelName: "Moto G Power", IMEI: "356938035643809"},
	}}
	indexer := &stubIndexer{tokens: []models.OwnedToken{{TokenID: "1"}}}

	deviceSvc := services.NewDeviceService(chain, indexer, devices, stubEvents{}, testContract, 4)
	claimSvc := services.NewClaimService(chain, stubEvents{}, 4)
	network := config.Network{Name: "base-sepolia", ChainID: 84532, ExplorerURL: "https://sepolia.basescan.org"}
	txBuilder := services.NewTxBuilder(contracts.MustDefault(), testContract, network, chain, nil)

	app := fiber.New()
	SetupDeviceRoutes(app, deviceSvc, chain)
	SetupBountyRoutes(app, deviceSvc, claimSvc, services.NewProofService(nil), txBuilder)
	SetupTxRoutes(app, txBuilder, 0)
	return app
}

func doJSON(t *testing.T, app *fiber.App, req *http.Request) (*http.Response, map[string]interface{}) {
	t.Helper()
	resp, err := app.Test(req)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]interface{}{}
	require.NoError(t, json.Unmarshal(body, &out), string(body))
	return resp, out
}

func TestDeviceInfoRoute(t *testing.T) {
	app := newTestApp()

	resp, body := doJSON(t, app, httptest.NewRequest(http.MethodGet, "/device-info", nil))
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "IMEI is required", body["error"])

	resp, body = doJSON(t, app, httptest.NewRequest(http.MethodGet, "/device-info?imei=123", nil))
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid IMEI format. Must be 15 digits.", body["error"])

	resp, body = doJSON(t, app, httptest.NewRequest(http.MethodGet, "/device-info?imei=490154203237518", nil))
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Device not found in IMEI database", body["error"])
	assert.Empty(t, resp.Header.Get(fiber.HeaderCacheControl))

	resp, body = doJSON(t, app, httptest.NewRequest(http.MethodGet, "/device-info?imei=356938035643809", nil))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "Motorola", body["brand"])
	assert.Equal(t, "Moto G Power", body["modelName"])
	assert.Equal(t, "public, s-maxage=86400, stale-while-revalidate=172800", resp.Header.Get(fiber.HeaderCacheControl))
}

func TestUserDevicesRoute(t *testing.T) {
	app := newTestApp()

	resp, body := doJSON(t, app, httptest.NewRequest(http.MethodGet, "/user-devices?address=nope", nil))
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "address", body["field"])

	resp, body = doJSON(t, app, httptest.NewRequest(http.MethodGet, "/user-devices?address="+testOwner, nil))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "public, s-maxage=300, stale-while-revalidate=600", resp.Header.Get(fiber.HeaderCacheControl))
	assert.Equal(t, float64(1), body["totalCount"])
	devices := body["devices"].([]interface{})
	require.Len(t, devices, 1)
	assert.Equal(t, "Motorola", devices[0].(map[string]interface{})["brand"])
}

func TestBountyStatusRoute(t *testing.T) {
	app := newTestApp()

	resp, _ := doJSON(t, app, httptest.NewRequest(http.MethodGet, "/bounties/status", nil))
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, body := doJSON(t, app, httptest.NewRequest(http.MethodGet, "/bounties/status?tokenIds=1,2", nil))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	statuses := body["statuses"].(map[string]interface{})
	one := statuses["1"].(map[string]interface{})
	assert.Equal(t, true, one["hasActiveBounty"])
	assert.Equal(t, "0.0500", one["amount"])
	two := statuses["2"].(map[string]interface{})
	assert.Equal(t, false, two["hasActiveBounty"])
	assert.Equal(t, "0", two["amount"])
}

func TestTxBuildRoutes(t *testing.T) {
	app := newTestApp()

	req := httptest.NewRequest(http.MethodPost, "/tx/mint", strings.NewReader(`{"imei":"356938035643809"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := doJSON(t, app, req)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	req = httptest.NewRequest(http.MethodPost, "/tx/bounties", strings.NewReader(`{"tokenId":"1","amount":"0.1"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, body := doJSON(t, app, req)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "createBounty", body["function"])
	assert.Equal(t, "100000000000000000", body["value"])
	assert.Equal(t, float64(84532), body["chainId"])

	req = httptest.NewRequest(http.MethodPost, "/tx/claims/abc/confirm", nil)
	resp, body = doJSON(t, app, req)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "claimId", body["field"])
}

func TestProofRouteRejectsBadHash(t *testing.T) {
	app := newTestApp()

	resp, _ := doJSON(t, app, httptest.NewRequest(http.MethodGet, "/proofs/short", nil))
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestClaimUploadValidatesBeforeUpload(t *testing.T) {
	app := newTestApp()

	req := httptest.NewRequest(http.MethodPost, "/claims", strings.NewReader("tokenId=1&description=found+it"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, body := doJSON(t, app, req)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "image", body["field"])

	req = httptest.NewRequest(http.MethodPost, "/claims", strings.NewReader("tokenId=x"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, _ = doJSON(t, app, req)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
