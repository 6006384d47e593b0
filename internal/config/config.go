package config

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// LoadConfig loads the configuration and sets default values for development/production
func LoadConfig() error {
	// Secrets (treasury key, JWT secret) come from the environment, never
	// from the config file. A local .env is honored if present.
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded environment from .env")
	}

	viper.SetConfigName("config")
	viper.SetConfigType("json")
	viper.AddConfigPath(".") // Path to look for the config file in

	viper.SetEnvPrefix("treasury")
	viper.BindEnv("mock_mode", "MOCK_MODE")
	viper.BindEnv("rpc_url", "BASE_RPC_URL")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; create a default one
			return createDefaultConfig()
		}
		return fmt.Errorf("error reading config file: %w", err)
	}

	// Ensure we have sensible defaults in case they are not in the config file
	setDefaults()

	return nil
}

// TreasuryPrivateKey returns the hex-encoded treasury signing key from the
// environment. Empty outside mock mode is a startup error for the sender.
func TreasuryPrivateKey() string {
	return os.Getenv("TREASURY_PRIVATE_KEY")
}

// JWTSecret returns the HMAC key used to protect the admin endpoints.
func JWTSecret() []byte {
	return []byte(os.Getenv("TREASURY_JWT_SECRET"))
}

// setDefaults sets default configuration values based on the environment
func setDefaults() {
	// Check the current environment (default is development)
	env := viper.GetString("ENV")
	if env == "" {
		env = "development"
		viper.Set("ENV", env)
	}

	// Set defaults for development and production environments
	if env == "development" {
		viper.SetDefault("allowed_origin", "http://localhost:3000")
		viper.SetDefault("invite_db_path", "./dev_invites.db")
		viper.SetDefault("log_file", "./treasury_dev.log")
		viper.SetDefault("mock_mode", true)
	} else if env == "production" {
		viper.SetDefault("allowed_origin", "https://my-production-site.com")
		viper.SetDefault("invite_db_path", "/var/lib/cl-treasury/invites.db")
		viper.SetDefault("log_file", "/var/log/cl-treasury/treasury.log")
		viper.SetDefault("mock_mode", false)
	}

	// Common defaults for both environments
	viper.SetDefault("rpc_url", "https://mainnet.base.org")
	viper.SetDefault("chain_id", 8453) // Base mainnet
	viper.SetDefault("usdc_contract", "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913")
	viper.SetDefault("usdc_decimals", 6)
	viper.SetDefault("payout_amount_usdc", 1.0)
	viper.SetDefault("payout_amount_eth", 0.001)
	viper.SetDefault("confirm_timeout", "60s")
	viper.SetDefault("api_port", 9003)
	viper.SetDefault("use_https", false)
	viper.SetDefault("cert_file", "server.crt")
	viper.SetDefault("key_file", "server.key")
	viper.SetDefault("seed_invites", true)
}

// createDefaultConfig creates a new configuration file if it doesn't exist
func createDefaultConfig() error {
	setDefaults()

	// Write the default configuration to a file
	err := viper.SafeWriteConfig()
	if err != nil {
		if os.IsExist(err) {
			// If the config already exists, attempt to overwrite it
			err = viper.WriteConfig()
			if err != nil {
				return fmt.Errorf("error writing config file: %w", err)
			}
		} else {
			return fmt.Errorf("error creating config file: %w", err)
		}
	}

	fmt.Println("Created default configuration file")
	return nil
}
