// Package config loads the service configuration from the environment.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Network describes one supported chain deployment.
type Network struct {
	Name          string
	ChainID       int64
	DefaultRPCURL string
	AlchemyHost   string
	ExplorerURL   string
}

var networks = map[string]Network{
	"base-sepolia": {
		Name:          "base-sepolia",
		ChainID:       84532,
		DefaultRPCURL: "https://sepolia.base.org",
		AlchemyHost:   "https://base-sepolia.g.alchemy.com",
		ExplorerURL:   "https://sepolia.basescan.org",
	},
	"base": {
		Name:          "base",
		ChainID:       8453,
		DefaultRPCURL: "https://mainnet.base.org",
		AlchemyHost:   "https://base-mainnet.g.alchemy.com",
		ExplorerURL:   "https://basescan.org",
	},
}

// Config is built once at start-up and handed to every client. It is never mutated afterwards.
type Config struct {
	Server   ServerConfig
	Chain    ChainConfig
	Indexer  IndexerConfig
	IMEI     IMEIConfig
	Proofs   ProofConfig
	Database DatabaseConfig
	Sync     SyncConfig

	// FanOutLimit caps concurrent upstream calls per batch.
	FanOutLimit int
}

type ServerConfig struct {
	Addr           string
	AllowedOrigins string
	GatewayToken   string
	BodyLimitBytes int
}

type ChainConfig struct {
	Network         Network
	RPCURL          string
	ContractAddress string
	ABIPath         string
	ReceiptTimeout  time.Duration
}

// IndexerConfig points at the NFT ownership index (Alchemy NFT API v3).
type IndexerConfig struct {
	BaseURL  string
	APIKey   string
	PageSize int
}

type IMEIConfig struct {
	BaseURL         string
	APIKey          string
	SuccessSentinel string
	Timeout         time.Duration
}

type ProofConfig struct {
	Backend      string // "pinata" or "r2"
	PinataJWT    string
	PinataAPIURL string
	GatewayURL   string

	R2AccountID    string
	R2AccessKey    string
	R2AccessSecret string
	R2Bucket       string
	CDNBaseURL     string
}

type DatabaseConfig struct {
	DSN string
}

// SyncConfig drives the chain event indexer.
type SyncConfig struct {
	Enabled       bool
	Interval      time.Duration
	BlockWindow   uint64
	Confirmations uint64
	StartBlock    uint64
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	networkName := get("CHAIN_NETWORK", "base-sepolia")
	network, ok := networks[networkName]
	if !ok {
		return nil, fmt.Errorf("unsupported CHAIN_NETWORK %q", networkName)
	}

	contract := os.Getenv("FINDCHAIN_CONTRACT_ADDRESS")
	if contract == "" {
		return nil, fmt.Errorf("FINDCHAIN_CONTRACT_ADDRESS environment variable not set")
	}

	alchemyKey := os.Getenv("ALCHEMY_API_KEY")
	if alchemyKey == "" {
		return nil, fmt.Errorf("ALCHEMY_API_KEY environment variable not set")
	}

	cfg := &Config{
		Server: ServerConfig{
			Addr:           get("LISTEN_ADDR", ":5200"),
			AllowedOrigins: get("ALLOWED_ORIGINS", "http://localhost:3000"),
			GatewayToken:   os.Getenv("GATEWAY_TOKEN"),
			BodyLimitBytes: getInt("BODY_LIMIT_BYTES", 10*1024*1024),
		},
		Chain: ChainConfig{
			Network:         network,
			RPCURL:          get("CHAIN_RPC_URL", network.DefaultRPCURL),
			ContractAddress: contract,
			ABIPath:         os.Getenv("CONTRACT_ABI_PATH"),
			ReceiptTimeout:  getDuration("RECEIPT_TIMEOUT", 90*time.Second),
		},
		Indexer: IndexerConfig{
			BaseURL:  get("ALCHEMY_NFT_URL", network.AlchemyHost+"/nft/v3"),
			APIKey:   alchemyKey,
			PageSize: getInt("ALCHEMY_PAGE_SIZE", 100),
		},
		IMEI: IMEIConfig{
			BaseURL:         get("IMEI_API_URL", "https://alpha.imeicheck.com/api/free_with_key/modelBrandName"),
			APIKey:          os.Getenv("IMEI_API_KEY"),
			SuccessSentinel: get("IMEI_SUCCESS_STATUS", "succes"),
			Timeout:         getDuration("IMEI_TIMEOUT", 15*time.Second),
		},
		Proofs: ProofConfig{
			Backend:        strings.ToLower(get("PROOF_STORE", "pinata")),
			PinataJWT:      os.Getenv("PINATA_JWT"),
			PinataAPIURL:   get("PINATA_API_URL", "https://api.pinata.cloud"),
			GatewayURL:     get("PINATA_GATEWAY_URL", "https://gateway.pinata.cloud/ipfs"),
			R2AccountID:    os.Getenv("CLOUDFLARE_ACCOUNT_ID"),
			R2AccessKey:    os.Getenv("R2_ACCESS_KEY_ID"),
			R2AccessSecret: os.Getenv("R2_ACCESS_KEY_SECRET"),
			R2Bucket:       os.Getenv("R2_BUCKET_NAME"),
			CDNBaseURL:     os.Getenv("CDN_BASE_URL"),
		},
		Database: DatabaseConfig{
			DSN: os.Getenv("DATABASE_URL"),
		},
		Sync: SyncConfig{
			Enabled:       getBool("INDEX_ENABLED", true),
			Interval:      getDuration("INDEX_INTERVAL", 15*time.Second),
			BlockWindow:   uint64(getInt("INDEX_BLOCK_WINDOW", 2000)),
			Confirmations: uint64(getInt("INDEX_CONFIRMATIONS", 2)),
			StartBlock:    uint64(getInt("INDEX_START_BLOCK", 0)),
		},
		FanOutLimit: getInt("FANOUT_LIMIT", 16),
	}

	if cfg.Database.DSN == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable not set")
	}

	switch cfg.Proofs.Backend {
	case "pinata":
		if cfg.Proofs.PinataJWT == "" {
			return nil, fmt.Errorf("PINATA_JWT environment variable not set")
		}
	case "r2":
		if cfg.Proofs.R2AccountID == "" || cfg.Proofs.R2Bucket == "" {
			return nil, fmt.Errorf("CLOUDFLARE_ACCOUNT_ID and R2_BUCKET_NAME are required for PROOF_STORE=r2")
		}
		if cfg.Proofs.CDNBaseURL == "" {
			cfg.Proofs.CDNBaseURL = fmt.Sprintf("https://%s.r2.cloudflarestorage.com/%s", cfg.Proofs.R2AccountID, cfg.Proofs.R2Bucket)
		}
	default:
		return nil, fmt.Errorf("unsupported PROOF_STORE %q", cfg.Proofs.Backend)
	}

	if cfg.FanOutLimit <= 0 {
		cfg.FanOutLimit = 16
	}

	return cfg, nil
}

// AllowedOriginsList splits and trims the comma-separated origin list.
func (s ServerConfig) AllowedOriginsList() []string {
	var out []string
	for _, origin := range strings.Split(s.AllowedOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			out = append(out, origin)
		}
	}
	return out
}

// TxURL returns the block explorer link for a transaction hash.
func (n Network) TxURL(hash string) string {
	return fmt.Sprintf("%s/tx/%s", n.ExplorerURL, hash)
}

// AddressURL returns the block explorer link for an address.
func (n Network) AddressURL(address string) string {
	return fmt.Sprintf("%s/address/%s", n.ExplorerURL, address)
}

func get(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getInt(k string, def int) int {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("⚠️  %s=%q is not a number, using %d", k, v, def)
		return def
	}
	return n
}

func getBool(k string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(k))) {
	case "1", "true", "yes", "y":
		return true
	case "0", "false", "no", "n":
		return false
	default:
		return def
	}
}

func getDuration(k string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("⚠️  %s=%q is not a duration, using %s", k, v, def)
		return def
	}
	return d
}
