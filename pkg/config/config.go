// Package config loads application configuration from environment variables
// and an optional .env file.
package config

import (
	"encoding/base64"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL  string
	Port         string
	IsProduction bool

	JWTSecret         string
	JWTExpiryDuration time.Duration
	JWTIssuer         string

	// PANEncryptionKey is the 32-byte AES-256 key for card numbers at rest,
	// decoded from the base64 ENCRYPT_SECRET variable.
	PANEncryptionKey []byte
	// PANPepper keys the HMAC fingerprint used for duplicate lookups.
	PANPepper string

	AuthRateLimit int64
}

// LoadConfig loads configuration from environment variables and .env file if
// present. Secrets have no defaults: a missing or malformed ENCRYPT_SECRET or
// PAN_PEPPER is a startup error.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("JWT_SECRET", "")
	viper.SetDefault("JWT_EXPIRY_DURATION", "1h")
	viper.SetDefault("JWT_ISSUER", "bank-cards")
	viper.SetDefault("ENCRYPT_SECRET", "")
	viper.SetDefault("PAN_PEPPER", "")
	viper.SetDefault("AUTH_RATE_LIMIT", 10)

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.Port = viper.GetString("PORT")
	if cfg.Port == "" {
		cfg.Port = "8080"
	}

	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")

	cfg.JWTSecret = viper.GetString("JWT_SECRET")
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}

	jwtExpiryStr := viper.GetString("JWT_EXPIRY_DURATION")
	jwtExpiry, err := time.ParseDuration(jwtExpiryStr)
	if err != nil {
		jwtExpiry = time.Hour
		if jwtExpiryStr != "" {
			log.Printf("Warning: Invalid value for JWT_EXPIRY_DURATION ('%s'). Defaulting to %s.\n", jwtExpiryStr, jwtExpiry.String())
		}
	}
	cfg.JWTExpiryDuration = jwtExpiry
	cfg.JWTIssuer = viper.GetString("JWT_ISSUER")

	encryptSecret := viper.GetString("ENCRYPT_SECRET")
	if encryptSecret == "" {
		return nil, fmt.Errorf("ENCRYPT_SECRET environment variable is required")
	}
	key, err := base64.StdEncoding.DecodeString(encryptSecret)
	if err != nil {
		return nil, fmt.Errorf("ENCRYPT_SECRET must be valid base64: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("ENCRYPT_SECRET must decode to 32 bytes, got %d", len(key))
	}
	cfg.PANEncryptionKey = key

	cfg.PANPepper = viper.GetString("PAN_PEPPER")
	if cfg.PANPepper == "" {
		return nil, fmt.Errorf("PAN_PEPPER environment variable is required")
	}

	cfg.AuthRateLimit = viper.GetInt64("AUTH_RATE_LIMIT")

	return cfg, nil
}
