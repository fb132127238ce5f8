package models

// Placeholder values used when a device's IMEI is valid but the metadata lookup failed.
const (
	UnknownBrand     = "Unknown"
	UnknownModel     = "Unknown"
	UnknownModelName = "Unknown Device"
)

// DeviceInfo is the brand/model resolved for one IMEI.
type DeviceInfo struct {
	Brand     string `json:"brand"`
	Model     string `json:"model"`
	ModelName string `json:"modelName"`
	IMEI      string `json:"imei"`
}

// DeviceMetadata is the read projection of an owned device joined with its resolved metadata.
// It is built per request and never persisted.
type DeviceMetadata struct {
	TokenID   string `json:"tokenId"`
	IMEI      string `json:"imei"`
	Brand     string `json:"brand"`
	Model     string `json:"model"`
	ModelName string `json:"modelName"`
	MintedAt  string `json:"mintedAt,omitempty"`
	MintBlock *int64 `json:"mintBlock,omitempty"`
}

// UserDevicesResponse is returned by the owned-devices aggregation.
// TotalCount always equals len(Devices).
type UserDevicesResponse struct {
	Devices    []DeviceMetadata `json:"devices"`
	TotalCount int              `json:"totalCount"`
}

// OwnedToken is one NFT reported by the ownership indexer.
type OwnedToken struct {
	TokenID     string
	TokenType   string
	MintBlock   *int64
	MintedAt    string
	MintTxHash  string
	MintAddress string
}

// OwnedTokens is the fully paged indexer result for one owner.
type OwnedTokens struct {
	Tokens     []OwnedToken
	TotalCount int
}
