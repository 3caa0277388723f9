// File: internal/config/config.go
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Network   NetworkProfile  `mapstructure:"network"`
	Node      NodeConfig      `mapstructure:"node"`
	Contracts ContractsConfig `mapstructure:"contracts"`
	Wallet    WalletConfig    `mapstructure:"wallet"`
	Journal   JournalConfig   `mapstructure:"journal"`
	Notify    NotifyConfig    `mapstructure:"notify"`
	Server    ServerConfig    `mapstructure:"server"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// AppConfig contains application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
}

// NetworkProfile describes the chain the client must be connected to.
// Immutable for the process lifetime.
type NetworkProfile struct {
	ChainID        uint64 `mapstructure:"chain_id"`
	DisplayName    string `mapstructure:"display_name"`
	RPCURL         string `mapstructure:"rpc_url"`
	ExplorerURL    string `mapstructure:"explorer_url"`
	CurrencySymbol string `mapstructure:"currency_symbol"`
}

// ChainIDHex returns the chain id in the 0x-prefixed hex form used by
// wallet-level switch/add chain requests.
func (p NetworkProfile) ChainIDHex() string {
	return fmt.Sprintf("0x%x", p.ChainID)
}

// NodeConfig contains node connection configuration
type NodeConfig struct {
	BackupURLs     []string      `mapstructure:"backup_urls"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	RetryAttempts  int           `mapstructure:"retry_attempts"`
	RetryDelay     time.Duration `mapstructure:"retry_delay"`
}

// ContractsConfig holds the resolved factory and token addresses.
// Resolved once at startup; immutable afterwards.
type ContractsConfig struct {
	FactoryAddress string `mapstructure:"factory_address"`
	TokenAddress   string `mapstructure:"token_address"`
	DeploymentFile string `mapstructure:"deployment_file"`
}

// Deployed reports whether both addresses are real deployed addresses
// rather than placeholders left by the deploy tooling.
func (c ContractsConfig) Deployed() bool {
	return isDeployedAddress(c.FactoryAddress) && isDeployedAddress(c.TokenAddress)
}

func isDeployedAddress(addr string) bool {
	return addr != "" && !strings.Contains(addr, "REPLACE")
}

// WalletConfig contains the headless wallet (keystore) configuration
type WalletConfig struct {
	KeystoreDir       string `mapstructure:"keystore_dir"`
	PassphraseFile    string `mapstructure:"passphrase_file"`
	AutoConnect       bool   `mapstructure:"auto_connect"`
	UnlockOnConnect   bool   `mapstructure:"unlock_on_connect"`
	UnlockTimeoutSecs int    `mapstructure:"unlock_timeout_secs"`
}

// JournalConfig contains the local operation journal configuration
type JournalConfig struct {
	Type             string        `mapstructure:"type"` // sqlite, postgres
	ConnectionString string        `mapstructure:"connection_string"`
	MaxConnections   int           `mapstructure:"max_connections"`
	MaxIdleTime      time.Duration `mapstructure:"max_idle_time"`
}

// NotifyConfig contains operation status notification configuration
type NotifyConfig struct {
	EnableWebhook  bool          `mapstructure:"enable_webhook"`
	WebhookURL     string        `mapstructure:"webhook_url"`
	WebhookTimeout time.Duration `mapstructure:"webhook_timeout"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port          int           `mapstructure:"port"`
	Host          string        `mapstructure:"host"`
	ReadTimeout   time.Duration `mapstructure:"read_timeout"`
	WriteTimeout  time.Duration `mapstructure:"write_timeout"`
	EnableMetrics bool          `mapstructure:"enable_metrics"`
	EnableHealth  bool          `mapstructure:"enable_health"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json, text
	Output string `mapstructure:"output"` // stdout, stderr, file
	File   string `mapstructure:"file"`
}

// DeploymentRecord is the artifact written by the contract deploy tooling,
// mapping logical contract names to deployed addresses.
type DeploymentRecord struct {
	MockUSDC     string `json:"MockUSDC"`
	VaultFactory string `json:"VaultFactory"`
	Network      string `json:"network"`
	ChainID      uint64 `json:"chainId"`
	Deployer     string `json:"deployer"`
	DeployedAt   string `json:"deployedAt"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	viper.SetConfigType("yaml")

	if configPath != "" {
		viper.SetConfigFile(configPath)
	} else {
		viper.SetConfigName("config")
		viper.AddConfigPath(".")
		viper.AddConfigPath("./internal/config")
	}

	viper.SetEnvPrefix("VAULT_CLIENT")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			fmt.Println("Config file not found, using defaults and environment variables")
		} else {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Contract addresses resolve from the deployment record first, then
	// config, then environment overrides win.
	if err := config.resolveContracts(); err != nil {
		return nil, err
	}

	if rpcURL := os.Getenv("VAULT_RPC_URL"); rpcURL != "" {
		config.Network.RPCURL = rpcURL
	}

	return &config, nil
}

// resolveContracts fills factory/token addresses from the deployment
// record when config leaves them empty, then applies env overrides.
func (c *Config) resolveContracts() error {
	if c.Contracts.DeploymentFile != "" {
		record, err := LoadDeploymentRecord(c.Contracts.DeploymentFile)
		if err == nil {
			if c.Contracts.FactoryAddress == "" {
				c.Contracts.FactoryAddress = record.VaultFactory
			}
			if c.Contracts.TokenAddress == "" {
				c.Contracts.TokenAddress = record.MockUSDC
			}
		}
	}

	if factory := os.Getenv("VAULT_FACTORY_ADDRESS"); factory != "" {
		c.Contracts.FactoryAddress = factory
	}
	if token := os.Getenv("VAULT_USDC_ADDRESS"); token != "" {
		c.Contracts.TokenAddress = token
	}

	return nil
}

// LoadDeploymentRecord reads a deployed-addresses.json artifact.
func LoadDeploymentRecord(path string) (*DeploymentRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading deployment record: %w", err)
	}

	var record DeploymentRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("error parsing deployment record: %w", err)
	}

	return &record, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// App defaults
	viper.SetDefault("app.name", "vault-client")
	viper.SetDefault("app.version", "1.0.0")
	viper.SetDefault("app.environment", "development")
	viper.SetDefault("app.debug", false)

	// Network defaults (Arc testnet)
	viper.SetDefault("network.chain_id", 5042002)
	viper.SetDefault("network.display_name", "Arc Network Testnet")
	viper.SetDefault("network.rpc_url", "https://rpc.testnet.arc.network")
	viper.SetDefault("network.explorer_url", "https://testnet.arcscan.io")
	viper.SetDefault("network.currency_symbol", "USDC")

	// Node defaults
	viper.SetDefault("node.request_timeout", "30s")
	viper.SetDefault("node.retry_attempts", 3)
	viper.SetDefault("node.retry_delay", "5s")

	// Contract defaults
	viper.SetDefault("contracts.deployment_file", "./deployments/deployed-addresses.json")

	// Wallet defaults
	viper.SetDefault("wallet.keystore_dir", "./data/keystore")
	viper.SetDefault("wallet.auto_connect", true)
	viper.SetDefault("wallet.unlock_on_connect", true)
	viper.SetDefault("wallet.unlock_timeout_secs", 300)

	// Journal defaults
	viper.SetDefault("journal.type", "sqlite")
	viper.SetDefault("journal.connection_string", "./data/journal.db")
	viper.SetDefault("journal.max_connections", 25)
	viper.SetDefault("journal.max_idle_time", "15m")

	// Notify defaults
	viper.SetDefault("notify.enable_webhook", false)
	viper.SetDefault("notify.webhook_timeout", "10s")

	// Server defaults
	viper.SetDefault("server.port", 8081)
	viper.SetDefault("server.host", "127.0.0.1")
	viper.SetDefault("server.read_timeout", "10s")
	viper.SetDefault("server.write_timeout", "10s")
	viper.SetDefault("server.enable_metrics", true)
	viper.SetDefault("server.enable_health", true)

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "text")
	viper.SetDefault("logging.output", "stdout")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Network.RPCURL == "" {
		return fmt.Errorf("network RPC URL is required")
	}
	if c.Network.ChainID == 0 {
		return fmt.Errorf("network chain id is required")
	}
	if c.Journal.Type != "" && c.Journal.ConnectionString == "" {
		return fmt.Errorf("journal connection string is required")
	}
	return nil
}
