package config

import (
	"context"
	"fmt"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string `env:"PORT,      default=8080"`
	Env       string `env:"ENV,       default=development"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`
	JWTSecret string `env:"JWT_SECRET"`

	Anthropic AnthropicConfig
	Shippo    ShippoConfig
	Payment   PaymentConfig
	Mongo     MongoConfig
	Redis     RedisConfig
}

type AnthropicConfig struct {
	APIKey string `env:"ANTHROPIC_API_KEY"`
	Model  string `env:"ANTHROPIC_MODEL, default=claude-3-5-haiku-20241022"`
}

type ShippoConfig struct {
	Token   string `env:"SHIPPO_API_TOKEN"`
	BaseURL string `env:"SHIPPO_BASE_URL, default=https://api.goshippo.com"`
	// Carrier limits quotes to a single provider. Test accounts only
	// support USPS.
	Carrier string `env:"SHIPPO_CARRIER, default=USPS"`
}

type PaymentConfig struct {
	// Recipient is the 0x address micropayments are sent to.
	Recipient string `env:"PAYMENT_ADDRESS"`
	Network   string `env:"PAYMENT_NETWORK, default=base-sepolia"`
	// Price is the dollar price per gated call, e.g. "$0.001".
	Price string `env:"PAYMENT_PRICE, default=$0.001"`
	// TokenContract is the USDC contract on the payment network.
	// Default is USDC on Base Sepolia.
	TokenContract  string `env:"PAYMENT_TOKEN_CONTRACT, default=0x036CbD53842c5426634e7929541eC2318f3dCF7e"`
	FacilitatorURL string `env:"X402_FACILITATOR_URL, default=https://x402.org/facilitator"`
}

// MongoConfig configures the optional label-history store. An empty URI
// disables persistence (an in-memory repository is used instead).
type MongoConfig struct {
	URI      string `env:"MONGO_URI"`
	Database string `env:"MONGO_DB, default=shipping_agent"`
}

// RedisConfig configures the optional payment replay marker. An empty Addr
// leaves the tx-hash gate fully stateless.
type RedisConfig struct {
	Addr string `env:"REDIS_ADDR"`
	DB   int    `env:"REDIS_DB, default=0"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}
