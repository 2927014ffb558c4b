package configloader

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// ServerConfig holds server-specific configurations.
type ServerConfig struct {
	Port           string   `yaml:"port" env:"HF_SERVER_PORT"`
	AllowedOrigins []string `yaml:"allowedOrigins" env:"HF_SERVER_ALLOWED_ORIGINS" envSeparator:","`
}

// LoggingConfig holds logging-specific configurations.
type LoggingConfig struct {
	Level       string `yaml:"level" env:"HF_LOG_LEVEL"`
	Development bool   `yaml:"development" env:"HF_LOG_DEVELOPMENT"`
}

// NetworkOverride replaces parts of a built-in network profile. Empty fields keep the built-in value.
type NetworkOverride struct {
	PrimaryEndpoint   string   `yaml:"primaryEndpoint"`
	FallbackEndpoints []string `yaml:"fallbackEndpoints"`
	ContractAccount   string   `yaml:"contractAccount"`
	TokenContract     string   `yaml:"tokenContract"`
	AssetsContract    string   `yaml:"assetsContract"`
	CollectionName    string   `yaml:"collectionName"`
	NFTAPIBase        string   `yaml:"nftApiBase"`
	NFTAPIFallbacks   []string `yaml:"nftApiFallbacks"`
}

// NetworkConfig selects the startup network and holds per-network overrides.
type NetworkConfig struct {
	Default   string                     `yaml:"default" env:"HF_NETWORK"`
	Overrides map[string]NetworkOverride `yaml:"overrides"`
}

// FallbackConfig holds the per-attempt timeouts of the endpoint fallback executor.
type FallbackConfig struct {
	TimeoutMs           int64 `yaml:"timeoutMs" env:"HF_FALLBACK_TIMEOUT_MS"`
	SessionKitTimeoutMs int64 `yaml:"sessionKitTimeoutMs" env:"HF_FALLBACK_SESSION_KIT_TIMEOUT_MS"`
}

// MetadataConfig holds NFT indexing API specific configurations.
type MetadataConfig struct {
	PageSize         int     `yaml:"pageSize" env:"HF_METADATA_PAGE_SIZE"`
	MaxPages         int     `yaml:"maxPages" env:"HF_METADATA_MAX_PAGES"`
	RequestTimeoutMs int64   `yaml:"requestTimeoutMs" env:"HF_METADATA_REQUEST_TIMEOUT_MS"`
	RateLimit        float64 `yaml:"rateLimit" env:"HF_METADATA_RATE_LIMIT"`
	BurstLimit       int     `yaml:"burstLimit" env:"HF_METADATA_BURST_LIMIT"`
}

// ChainConfig holds Antelope RPC client configurations.
type ChainConfig struct {
	RequestTimeoutMs int64 `yaml:"requestTimeoutMs" env:"HF_CHAIN_REQUEST_TIMEOUT_MS"`
	TableRowLimit    int   `yaml:"tableRowLimit" env:"HF_CHAIN_TABLE_ROW_LIMIT"`
}

// PipelineConfig holds game-state pipeline configurations.
type PipelineConfig struct {
	EnrichmentConcurrency int `yaml:"enrichmentConcurrency" env:"HF_PIPELINE_ENRICHMENT_CONCURRENCY"`
}

// StorageConfig selects the key-value store backend.
type StorageConfig struct {
	Driver string `yaml:"driver" env:"HF_STORAGE_DRIVER"`
	Path   string `yaml:"path" env:"HF_STORAGE_PATH"`
}

// WalletConfig configures the in-process wallet session kit.
type WalletConfig struct {
	Actor           string `yaml:"actor" env:"HF_WALLET_ACTOR"`
	Permission      string `yaml:"permission" env:"HF_WALLET_PERMISSION"`
	SignerURL       string `yaml:"signerURL" env:"HF_WALLET_SIGNER_URL"`
	SignerTimeoutMs int64  `yaml:"signerTimeoutMs" env:"HF_WALLET_SIGNER_TIMEOUT_MS"`
}

// Config is the top-level configuration structure.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Logging  LoggingConfig  `yaml:"logging"`
	Network  NetworkConfig  `yaml:"network"`
	Fallback FallbackConfig `yaml:"fallback"`
	Chain    ChainConfig    `yaml:"chain"`
	Metadata MetadataConfig `yaml:"metadata"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Storage  StorageConfig  `yaml:"storage"`
	Wallet   WalletConfig   `yaml:"wallet"`
}

// FallbackTimeout returns the per-attempt timeout of reads.
func (c *Config) FallbackTimeout() time.Duration {
	return time.Duration(c.Fallback.TimeoutMs) * time.Millisecond
}

// SessionKitTimeout returns the per-attempt timeout of session kit construction.
func (c *Config) SessionKitTimeout() time.Duration {
	return time.Duration(c.Fallback.SessionKitTimeoutMs) * time.Millisecond
}

// Load reads the YAML configuration file from the given path, applies HF_* environment
// overrides and fills defaults. A missing file is not an error: the defaults and the
// environment are used alone.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			logrus.WithField("path", path).Warn("Config file not found, using defaults and environment")
		case err != nil:
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("failed to unmarshal config data from %s: %w", path, err)
			}
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment overrides: %w", err)
	}

	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"network": cfg.Network.Default,
		"storage": cfg.Storage.Driver,
		"port":    cfg.Server.Port,
	}).Info("Configuration loaded")
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Network.Default == "" {
		cfg.Network.Default = "mainnet"
	}

	if cfg.Fallback.TimeoutMs <= 0 {
		cfg.Fallback.TimeoutMs = 5000
	}
	if cfg.Fallback.SessionKitTimeoutMs <= 0 {
		cfg.Fallback.SessionKitTimeoutMs = 3000
	}

	if cfg.Chain.RequestTimeoutMs <= 0 {
		cfg.Chain.RequestTimeoutMs = cfg.Fallback.TimeoutMs
	}
	if cfg.Chain.TableRowLimit <= 0 {
		cfg.Chain.TableRowLimit = 100
	}

	if cfg.Metadata.PageSize <= 0 {
		cfg.Metadata.PageSize = 100
	}
	if cfg.Metadata.MaxPages <= 0 {
		cfg.Metadata.MaxPages = 10
	}
	if cfg.Metadata.RequestTimeoutMs <= 0 {
		cfg.Metadata.RequestTimeoutMs = cfg.Fallback.TimeoutMs
	}
	if cfg.Metadata.RateLimit <= 0 {
		cfg.Metadata.RateLimit = 10 // requests per second
	}
	if cfg.Metadata.BurstLimit <= 0 {
		cfg.Metadata.BurstLimit = 5
	}

	if cfg.Pipeline.EnrichmentConcurrency <= 0 {
		cfg.Pipeline.EnrichmentConcurrency = 4
	}

	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "memory"
	}
	if cfg.Storage.Driver == "sqlite" && cfg.Storage.Path == "" {
		cfg.Storage.Path = "data/honeyfarmers.db"
	}

	if cfg.Wallet.Permission == "" {
		cfg.Wallet.Permission = "active"
	}
	if cfg.Wallet.SignerTimeoutMs <= 0 {
		cfg.Wallet.SignerTimeoutMs = 10000
	}
}

func validate(cfg *Config) error {
	switch cfg.Network.Default {
	case "mainnet", "testnet":
	default:
		return fmt.Errorf("invalid network.default %q: expected mainnet or testnet", cfg.Network.Default)
	}
	for key := range cfg.Network.Overrides {
		if key != "mainnet" && key != "testnet" {
			logrus.WithField("network", key).Warn("Override for unknown network is ignored")
		}
	}

	cfg.Storage.Driver = strings.ToLower(cfg.Storage.Driver)
	switch cfg.Storage.Driver {
	case "memory", "sqlite":
	default:
		return fmt.Errorf("invalid storage.driver %q: expected memory or sqlite", cfg.Storage.Driver)
	}
	return nil
}
