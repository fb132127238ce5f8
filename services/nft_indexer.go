// services/nft_indexer.go
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"findchain-api/models"
	"findchain-api/utils"
)

// NFTIndexer lists every token an owner holds under one contract.
type NFTIndexer interface {
	OwnedTokens(ctx context.Context, owner, contract string) (*models.OwnedTokens, error)
}

// AlchemyClient talks to the Alchemy NFT API v3.
type AlchemyClient struct {
	BaseURL    string
	APIKey     string
	PageSize   int
	HTTPClient *http.Client
}

func NewAlchemyClient(baseURL, apiKey string, pageSize int) *AlchemyClient {
	if pageSize <= 0 {
		pageSize = 100
	}
	return &AlchemyClient{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		APIKey:     apiKey,
		PageSize:   pageSize,
		HTTPClient: utils.HTTPClient,
	}
}

type alchemyNFT struct {
	TokenID   string `json:"tokenId"`
	TokenType string `json:"tokenType"`
	Mint      *struct {
		MintAddress     string `json:"mintAddress"`
		BlockNumber     *int64 `json:"blockNumber"`
		Timestamp       string `json:"timestamp"`
		TransactionHash string `json:"transactionHash"`
	} `json:"mint"`
}

type alchemyPage struct {
	OwnedNfts  []alchemyNFT `json:"ownedNfts"`
	TotalCount int          `json:"totalCount"`
	PageKey    *string      `json:"pageKey"`
}

// OwnedTokens follows pageKey until the last page. Any page failure fails the whole call and
// drops the pages already read.
func (c *AlchemyClient) OwnedTokens(ctx context.Context, owner, contract string) (*models.OwnedTokens, error) {
	if !utils.IsHexAddress(owner) {
		return nil, invalid("address", "Invalid wallet address format")
	}

	result := &models.OwnedTokens{Tokens: []models.OwnedToken{}}
	pageKey := ""
	for {
		page, err := c.fetchPage(ctx, owner, contract, pageKey)
		if err != nil {
			return nil, err
		}
		for _, nft := range page.OwnedNfts {
			result.Tokens = append(result.Tokens, toOwnedToken(nft))
		}
		result.TotalCount = page.TotalCount

		if page.PageKey == nil || *page.PageKey == "" {
			break
		}
		if *page.PageKey == pageKey {
			return nil, &UpstreamError{Service: "alchemy", Message: "pagination did not advance"}
		}
		pageKey = *page.PageKey
	}

	log.Printf("[INDEXER] %d token(s) for %s", len(result.Tokens), owner)
	return result, nil
}

func (c *AlchemyClient) fetchPage(ctx context.Context, owner, contract, pageKey string) (*alchemyPage, error) {
	u, err := url.Parse(fmt.Sprintf("%s/%s/getNFTsForOwner", c.BaseURL, c.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to parse indexer URL: %w", err)
	}
	q := u.Query()
	q.Set("owner", owner)
	q.Set("contractAddresses[]", contract)
	q.Set("withMetadata", "false")
	q.Set("pageSize", strconv.Itoa(c.PageSize))
	if pageKey != "" {
		q.Set("pageKey", pageKey)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, &UpstreamError{Service: "alchemy", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &UpstreamError{Service: "alchemy", StatusCode: resp.StatusCode, Message: string(body)}
	}

	var page alchemyPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, &UpstreamError{Service: "alchemy", Message: "invalid response body", Err: err}
	}
	return &page, nil
}

func toOwnedToken(nft alchemyNFT) models.OwnedToken {
	t := models.OwnedToken{TokenID: nft.TokenID, TokenType: nft.TokenType}
	if nft.Mint != nil {
		t.MintBlock = nft.Mint.BlockNumber
		t.MintedAt = nft.Mint.Timestamp
		t.MintTxHash = nft.Mint.TransactionHash
		t.MintAddress = nft.Mint.MintAddress
	}
	return t
}
