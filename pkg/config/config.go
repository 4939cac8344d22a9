package config

import (
	"fmt"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config represents the scratch-off API server configuration
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Chain       ChainConfig       `mapstructure:"chain"`
	Game        GameConfig        `mapstructure:"game"`
	FriendGraph FriendGraphConfig `mapstructure:"friend_graph"`
	Auth        AuthConfig        `mapstructure:"auth"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host            string        `mapstructure:"host" default:"0.0.0.0"`
	Port            int           `mapstructure:"port" default:"8080"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" default:"30s"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" default:"30s"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout" default:"60s"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" default:"30s"`
}

// DatabaseConfig contains database connection settings
type DatabaseConfig struct {
	Host     string `mapstructure:"host" validate:"required"`
	Port     int    `mapstructure:"port" default:"5432"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database" default:"scratch_off"`
	SSLMode  string `mapstructure:"ssl_mode" default:"disable"`
}

// ChainConfig contains settings for the payment chain collaborators:
// incoming-payment verification and prize payout broadcast.
type ChainConfig struct {
	RPCURL          string        `mapstructure:"rpc_url" validate:"required"`
	ChainID         int64         `mapstructure:"chain_id" default:"8453"`
	USDCContract    string        `mapstructure:"usdc_contract" validate:"required"`
	TokenDecimals   int           `mapstructure:"token_decimals" default:"6"`
	TreasuryAddress string        `mapstructure:"treasury_address" validate:"required"`
	PayoutKeyEnv    string        `mapstructure:"payout_key_env" default:"SCRATCH_PAYOUT_KEY"`
	MasterKeyEnv    string        `mapstructure:"master_key_env" default:"SCRATCH_MASTER_KEY"`
	PayoutAttempts  int           `mapstructure:"payout_attempts" default:"3"`
	PayoutRetryBase time.Duration `mapstructure:"payout_retry_base" default:"1s"`
}

// GameConfig contains the prize/card generation settings
type GameConfig struct {
	// UnitPrice is the USDC price of a single card
	UnitPrice string `mapstructure:"unit_price" default:"1"`
	// DecoyAmounts are the candidate amounts for non-winning cells
	DecoyAmounts []string `mapstructure:"decoy_amounts"`
	// DecoyAssets are the candidate asset contracts for non-winning cells
	DecoyAssets []string `mapstructure:"decoy_assets"`
	// LevelPolicy selects which reveals count toward leveling:
	// "all" or "wins_only"
	LevelPolicy string `mapstructure:"level_policy" default:"wins_only"`
	// FriendPoolSize is how many best friends to fetch for friend-win grids
	FriendPoolSize int `mapstructure:"friend_pool_size" default:"10"`
	// MaxCardsPerPurchase bounds a single buy request
	MaxCardsPerPurchase int `mapstructure:"max_cards_per_purchase" default:"50"`
}

// FriendGraphConfig contains the social-graph collaborator settings
type FriendGraphConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	APIKeyEnv      string        `mapstructure:"api_key_env" default:"FRIEND_GRAPH_API_KEY"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" default:"10s"`
}

// AuthConfig contains session token settings
type AuthConfig struct {
	JWTSecretEnv string        `mapstructure:"jwt_secret_env" default:"SCRATCH_JWT_SECRET"`
	SessionTTL   time.Duration `mapstructure:"session_ttl" default:"24h"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level      string `mapstructure:"level" default:"info"`
	Format     string `mapstructure:"format" default:"json"`
	OutputPath string `mapstructure:"output_path" default:"stdout"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := defaults.Set(&config); err != nil {
		return nil, fmt.Errorf("failed to apply config defaults: %w", err)
	}

	if len(config.Game.DecoyAmounts) == 0 {
		config.Game.DecoyAmounts = []string{"0.5", "1", "2"}
	}
	if len(config.Game.DecoyAssets) == 0 {
		config.Game.DecoyAssets = []string{config.Chain.USDCContract}
	}

	if err := validator.New().Struct(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// GetConnectionString returns a PostgreSQL connection string
func (c *DatabaseConfig) GetConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}
