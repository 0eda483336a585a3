// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Solana    SolanaConfig    `mapstructure:"solana"`
	Dexes     DexesConfig     `mapstructure:"dexes"`
	Arbitrage ArbitrageConfig `mapstructure:"arbitrage"`
	Store     StoreConfig     `mapstructure:"store"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
}

// SolanaConfig holds Solana RPC endpoints.
type SolanaConfig struct {
	RPCURL         string        `mapstructure:"rpc_url"`
	WebSocketURL   string        `mapstructure:"websocket_url"`
	WalletAddress  string        `mapstructure:"wallet_address"`
	CommitLevel    string        `mapstructure:"commitment"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxReconnects  int           `mapstructure:"max_reconnects"`
	InitialBackoff time.Duration `mapstructure:"initial_backoff"`
	MaxBackoff     time.Duration `mapstructure:"max_backoff"`
}

// DexConfig holds per-DEX API settings.
type DexConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	BaseURL           string        `mapstructure:"base_url"`
	WebSocketURL      string        `mapstructure:"websocket_url"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
}

// DexesConfig holds settings for every supported DEX.
type DexesConfig struct {
	Raydium   DexConfig `mapstructure:"raydium"`
	Meteora   DexConfig `mapstructure:"meteora"`
	Whirlpool DexConfig `mapstructure:"whirlpool"`
	Pump      DexConfig `mapstructure:"pump"`
}

// ArbitrageConfig holds pipeline tuning parameters.
type ArbitrageConfig struct {
	ScanInterval            time.Duration `mapstructure:"scan_interval"`
	MinProfitThreshold      float64       `mapstructure:"min_profit_threshold"`
	MaxSlippage             float64       `mapstructure:"max_slippage"`
	MaxConcurrentExecutions int           `mapstructure:"max_concurrent_executions"`
	ExecutionTimeout        time.Duration `mapstructure:"execution_timeout"`
	DryRun                  bool          `mapstructure:"dry_run"`
	TUIMode                 bool          `mapstructure:"-"` // Set at runtime, not from config file
}

// MinProfitThresholdDecimal returns the min profit threshold as decimal.Decimal.
func (c *ArbitrageConfig) MinProfitThresholdDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.MinProfitThreshold)
}

// MaxSlippageDecimal returns the max slippage as decimal.Decimal.
func (c *ArbitrageConfig) MaxSlippageDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.MaxSlippage)
}

// StoreConfig holds in-memory store capacity and retention settings.
type StoreConfig struct {
	MaxOpportunities int           `mapstructure:"max_opportunities"`
	MaxExecutions    int           `mapstructure:"max_executions"`
	CleanupInterval  time.Duration `mapstructure:"cleanup_interval"`
	RetentionDays    int           `mapstructure:"retention_days"`
}

// DatabaseConfig holds the optional Postgres backup settings.
type DatabaseConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	OTLPHeaders    string `mapstructure:"otlp_headers"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables
	v.SetEnvPrefix("SOLARB")
	v.AutomaticEnv()

	// Bind env vars to config keys
	bindEnvVars(v)

	// Set defaults
	setDefaults(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, use env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	// App
	v.BindEnv("app.name", "SOLARB_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "SOLARB_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "SOLARB_LOG_LEVEL", "LOG_LEVEL")

	// Solana
	v.BindEnv("solana.rpc_url", "SOLARB_RPC_URL", "SOLANA_RPC_URL")
	v.BindEnv("solana.websocket_url", "SOLARB_WS_URL", "SOLANA_WS_URL")
	v.BindEnv("solana.wallet_address", "SOLARB_WALLET_ADDRESS", "WALLET_ADDRESS")
	v.BindEnv("solana.commitment", "SOLARB_COMMITMENT")

	// DEX endpoints
	v.BindEnv("dexes.raydium.base_url", "SOLARB_RAYDIUM_URL")
	v.BindEnv("dexes.meteora.base_url", "SOLARB_METEORA_URL")
	v.BindEnv("dexes.whirlpool.base_url", "SOLARB_WHIRLPOOL_URL")
	v.BindEnv("dexes.pump.base_url", "SOLARB_PUMP_URL")

	// Arbitrage
	v.BindEnv("arbitrage.min_profit_threshold", "SOLARB_MIN_PROFIT_THRESHOLD")
	v.BindEnv("arbitrage.max_slippage", "SOLARB_MAX_SLIPPAGE")
	v.BindEnv("arbitrage.max_concurrent_executions", "SOLARB_MAX_CONCURRENT_EXECUTIONS")
	v.BindEnv("arbitrage.dry_run", "SOLARB_DRY_RUN")

	// Database
	v.BindEnv("database.enabled", "SOLARB_DATABASE_ENABLED")
	v.BindEnv("database.url", "SOLARB_DATABASE_URL", "DATABASE_URL")

	// Telemetry
	v.BindEnv("telemetry.enabled", "SOLARB_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "SOLARB_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.otlp_endpoint", "SOLARB_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "solarb")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	// Solana defaults
	v.SetDefault("solana.rpc_url", "https://api.mainnet-beta.solana.com")
	v.SetDefault("solana.websocket_url", "wss://api.mainnet-beta.solana.com")
	v.SetDefault("solana.commitment", "confirmed")
	v.SetDefault("solana.request_timeout", "10s")
	v.SetDefault("solana.max_reconnects", 0) // infinite
	v.SetDefault("solana.initial_backoff", "1s")
	v.SetDefault("solana.max_backoff", "30s")

	// DEX defaults
	for name, url := range map[string]string{
		"raydium":   "https://api.raydium.io",
		"meteora":   "https://api.meteora.ag",
		"whirlpool": "https://api.orca.so",
		"pump":      "https://api.pump.fun",
	} {
		v.SetDefault("dexes."+name+".enabled", true)
		v.SetDefault("dexes."+name+".base_url", url)
		v.SetDefault("dexes."+name+".request_timeout", "10s")
		v.SetDefault("dexes."+name+".requests_per_minute", 300)
	}

	// Arbitrage defaults
	v.SetDefault("arbitrage.scan_interval", "5s")
	v.SetDefault("arbitrage.min_profit_threshold", 0.005)
	v.SetDefault("arbitrage.max_slippage", 0.01)
	v.SetDefault("arbitrage.max_concurrent_executions", 5)
	v.SetDefault("arbitrage.execution_timeout", "30s")
	v.SetDefault("arbitrage.dry_run", true)

	// Store defaults
	v.SetDefault("store.max_opportunities", 1000)
	v.SetDefault("store.max_executions", 1000)
	v.SetDefault("store.cleanup_interval", "5m")
	v.SetDefault("store.retention_days", 7)

	// Database defaults
	v.SetDefault("database.enabled", false)

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "solarb")
	v.SetDefault("telemetry.prometheus_port", 9090)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Solana.RPCURL == "" {
		return fmt.Errorf("solana.rpc_url is required")
	}
	if !c.Arbitrage.DryRun && c.Solana.WalletAddress == "" {
		return fmt.Errorf("solana.wallet_address is required when dry_run is disabled")
	}
	if c.Arbitrage.MinProfitThreshold <= 0 {
		return fmt.Errorf("arbitrage.min_profit_threshold must be positive")
	}
	if c.Arbitrage.MaxConcurrentExecutions <= 0 {
		return fmt.Errorf("arbitrage.max_concurrent_executions must be positive")
	}
	if c.Store.MaxOpportunities <= 0 || c.Store.MaxExecutions <= 0 {
		return fmt.Errorf("store capacities must be positive")
	}
	if c.Database.Enabled && c.Database.URL == "" {
		return fmt.Errorf("database.url is required when database.enabled is true")
	}
	if len(c.EnabledDexes()) == 0 {
		return fmt.Errorf("at least one DEX must be enabled")
	}
	return nil
}

// EnabledDexes returns the names of DEXes enabled in the configuration.
func (c *Config) EnabledDexes() []string {
	var names []string
	for _, name := range []string{"raydium", "meteora", "whirlpool", "pump"} {
		if dex, ok := c.Dex(name); ok && dex.Enabled {
			names = append(names, name)
		}
	}
	return names
}

// Dex returns the settings for a DEX by name.
func (c *Config) Dex(name string) (DexConfig, bool) {
	switch name {
	case "raydium":
		return c.Dexes.Raydium, true
	case "meteora":
		return c.Dexes.Meteora, true
	case "whirlpool":
		return c.Dexes.Whirlpool, true
	case "pump":
		return c.Dexes.Pump, true
	}
	return DexConfig{}, false
}
