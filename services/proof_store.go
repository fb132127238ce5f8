// services/proof_store.go
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"findchain-api/models"
	"findchain-api/utils"
)

// ProofStore is a content-addressed store for claim images and proof documents.
type ProofStore interface {
	PinFile(ctx context.Context, file *utils.UploadedFile) (*models.PinResult, error)
	PinJSON(ctx context.Context, v interface{}) (*models.PinResult, error)
	Fetch(ctx context.Context, hash string) ([]byte, error)
}

// DefaultMaxProofDocumentBytes caps a proof document read back from the gateway.
const DefaultMaxProofDocumentBytes = 5 << 20

// PinataClient pins to IPFS through Pinata and reads back through a gateway.
type PinataClient struct {
	BaseURL          string
	GatewayURL       string
	JWT              string
	HTTPClient       *http.Client
	MaxDocumentBytes int64
}

func NewPinataClient(baseURL, gatewayURL, jwt string) *PinataClient {
	return &PinataClient{
		BaseURL:          strings.TrimRight(baseURL, "/"),
		GatewayURL:       strings.TrimRight(gatewayURL, "/"),
		JWT:              jwt,
		HTTPClient:       utils.HTTPClient,
		MaxDocumentBytes: DefaultMaxProofDocumentBytes,
	}
}

type pinResponse struct {
	IpfsHash string `json:"IpfsHash"`
}

func (c *PinataClient) PinFile(ctx context.Context, file *utils.UploadedFile) (*models.PinResult, error) {
	body := new(bytes.Buffer)
	w := multipart.NewWriter(body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, file.Name))
	h.Set("Content-Type", file.ContentType)
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("failed to build upload: %w", err)
	}
	if _, err := part.Write(file.Data); err != nil {
		return nil, fmt.Errorf("failed to build upload: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to build upload: %w", err)
	}

	return c.pin(ctx, "/pinning/pinFileToIPFS", w.FormDataContentType(), body)
}

func (c *PinataClient) PinJSON(ctx context.Context, v interface{}) (*models.PinResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode proof document: %w", err)
	}
	return c.pin(ctx, "/pinning/pinJSONToIPFS", "application/json", bytes.NewReader(data))
}

func (c *PinataClient) pin(ctx context.Context, path, contentType string, body io.Reader) (*models.PinResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+c.JWT)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, &UpstreamError{Service: "pinata", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &UpstreamError{Service: "pinata", StatusCode: resp.StatusCode, Message: string(msg)}
	}

	var out pinResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &UpstreamError{Service: "pinata", Message: "invalid response body", Err: err}
	}
	if out.IpfsHash == "" {
		return nil, &UpstreamError{Service: "pinata", Message: "response has no IpfsHash"}
	}
	return &models.PinResult{Hash: out.IpfsHash, URL: c.GatewayURL + "/" + out.IpfsHash}, nil
}

func (c *PinataClient) Fetch(ctx context.Context, hash string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.GatewayURL+"/"+hash, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, &UpstreamError{Service: "ipfs gateway", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("proof %s: %w", hash, ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &UpstreamError{Service: "ipfs gateway", StatusCode: resp.StatusCode, Message: string(msg)}
	}

	limit := c.MaxDocumentBytes
	if limit <= 0 {
		limit = DefaultMaxProofDocumentBytes
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, &UpstreamError{Service: "ipfs gateway", Message: "failed to read proof", Err: err}
	}
	if int64(len(data)) > limit {
		return nil, &UpstreamError{Service: "ipfs gateway", Message: fmt.Sprintf("proof %s exceeds %d bytes", hash, limit)}
	}
	return data, nil
}
