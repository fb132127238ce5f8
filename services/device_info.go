// services/device_info.go
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"findchain-api/models"
	"findchain-api/utils"
)

// DeviceInfoProvider resolves an IMEI to brand/model. A nil result with a nil error means the
// provider has no record for the IMEI.
type DeviceInfoProvider interface {
	Lookup(ctx context.Context, imei string) (*models.DeviceInfo, error)
}

// IMEIClient calls the imeicheck modelBrandName endpoint.
type IMEIClient struct {
	BaseURL         string
	APIKey          string
	SuccessSentinel string
	HTTPClient      *http.Client
}

func NewIMEIClient(baseURL, apiKey, sentinel string, timeout time.Duration) *IMEIClient {
	if sentinel == "" {
		sentinel = "succes"
	}
	return &IMEIClient{
		BaseURL:         baseURL,
		APIKey:          apiKey,
		SuccessSentinel: sentinel,
		HTTPClient:      utils.NewHTTPClient(timeout),
	}
}

type imeiCheckResponse struct {
	Status string `json:"status"`
	Result string `json:"result"`
	IMEI   string `json:"imei"`
	Object struct {
		Brand string `json:"brand"`
		Name  string `json:"name"`
		Model string `json:"model"`
	} `json:"object"`
}

func (c *IMEIClient) Lookup(ctx context.Context, imei string) (*models.DeviceInfo, error) {
	if !utils.ValidIMEI(imei) {
		return nil, invalid("imei", "Invalid IMEI format. Must be 15 digits.")
	}

	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse IMEI API URL: %w", err)
	}
	q := u.Query()
	q.Set("key", c.APIKey)
	q.Set("imei", imei)
	q.Set("format", "json")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, &UpstreamError{Service: "imei", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &UpstreamError{Service: "imei", StatusCode: resp.StatusCode, Message: string(body)}
	}

	var out imeiCheckResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &UpstreamError{Service: "imei", Message: "invalid response body", Err: err}
	}

	if out.Status != c.SuccessSentinel {
		log.Printf("[IMEI] lookup for %s failed: status=%q result=%q", maskIMEI(imei), out.Status, out.Result)
		return nil, nil
	}

	return &models.DeviceInfo{
		Brand:     out.Object.Brand,
		Model:     out.Object.Model,
		ModelName: out.Object.Name,
		IMEI:      imei,
	}, nil
}

// LookupMany resolves imeis concurrently. The result is aligned with imeis; an entry is nil
// when its lookup failed for any reason. It never fails as a whole.
func LookupMany(ctx context.Context, p DeviceInfoProvider, imeis []string, limit int) []*models.DeviceInfo {
	out := make([]*models.DeviceInfo, len(imeis))
	_ = fanOut(ctx, len(imeis), limit, func(ctx context.Context, i int) error {
		info, err := p.Lookup(ctx, imeis[i])
		if err != nil {
			log.Printf("[IMEI] ⚠️ lookup for %s failed: %v", maskIMEI(imeis[i]), err)
			return nil
		}
		out[i] = info
		return nil
	})
	return out
}

func maskIMEI(imei string) string {
	if len(imei) <= 4 {
		return imei
	}
	return strings.Repeat("*", len(imei)-4) + imei[len(imei)-4:]
}
