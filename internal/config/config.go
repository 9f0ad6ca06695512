/**
 * @description
 * This package handles the configuration management for the service. It uses the
 * Viper library to read configuration from environment variables, providing a
 * centralized and straightforward way to manage application settings.
 *
 * @dependencies
 * - github.com/spf13/viper: A popular library for Go application configuration.
 */

package config

import (
	"log"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all the configuration variables for the rewards-service.
// These values are loaded from environment variables.
type Config struct {
	ServerPort                 string  `mapstructure:"SERVER_PORT"`
	DatabaseURL                string  `mapstructure:"DATABASE_URL"`
	RedisURL                   string  `mapstructure:"REDIS_URL"`
	RedisRateLimitPrefix       string  `mapstructure:"REDIS_RATE_LIMIT_PREFIX"`
	RabbitMQURL                string  `mapstructure:"RABBITMQ_URL"`
	ExtractionAPIBaseURL       string  `mapstructure:"EXTRACTION_API_BASE_URL"`
	ExtractionAPIKey           string  `mapstructure:"EXTRACTION_API_KEY"`
	ClerkJWKSURL               string  `mapstructure:"CLERK_JWKS_URL"`
	InternalAPIKey             string  `mapstructure:"INTERNAL_API_KEY"`
	DailyBonusBasePoints       int64   `mapstructure:"DAILY_BONUS_BASE_POINTS"`
	FraudRejectThreshold       float64 `mapstructure:"FRAUD_REJECT_THRESHOLD"`
	DailyTotalCapCents         int64   `mapstructure:"DAILY_TOTAL_CAP_CENTS"`
	ReceiptRateLimitPerMinute  int     `mapstructure:"RECEIPT_RATE_LIMIT_PER_MINUTE"`
	LedgerDisplayLimit         int     `mapstructure:"LEDGER_DISPLAY_LIMIT"`
}

// LoadConfig reads configuration from environment variables from the given path.
// It uses Viper to automatically bind environment variables to the Config struct.
func LoadConfig(path string) (config Config, err error) {
	// Tell viper the path to look for the optional .env file.
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	// Enable automatic binding of environment variables.
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("REDIS_RATE_LIMIT_PREFIX", "toucanwin:rate_limit")
	viper.SetDefault("DAILY_BONUS_BASE_POINTS", 10)
	viper.SetDefault("FRAUD_REJECT_THRESHOLD", 0.5)
	viper.SetDefault("DAILY_TOTAL_CAP_CENTS", 100000)
	viper.SetDefault("RECEIPT_RATE_LIMIT_PER_MINUTE", 10)
	viper.SetDefault("LEDGER_DISPLAY_LIMIT", 50)

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("PORT")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("REDIS_URL", "REDIS_URL", "REWARDS_REDIS_URL")
	_ = viper.BindEnv("REDIS_RATE_LIMIT_PREFIX")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("EXTRACTION_API_BASE_URL")
	_ = viper.BindEnv("EXTRACTION_API_KEY")
	_ = viper.BindEnv("CLERK_JWKS_URL")
	_ = viper.BindEnv("INTERNAL_API_KEY", "INTERNAL_API_KEY", "REWARDS_SERVICE_INTERNAL_API_KEY")
	_ = viper.BindEnv("DAILY_BONUS_BASE_POINTS")
	_ = viper.BindEnv("FRAUD_REJECT_THRESHOLD")
	_ = viper.BindEnv("DAILY_TOTAL_CAP_CENTS")
	_ = viper.BindEnv("DAILY_TOTAL_CAP")
	_ = viper.BindEnv("RECEIPT_RATE_LIMIT_PER_MINUTE")
	_ = viper.BindEnv("LEDGER_DISPLAY_LIMIT")

	// Attempt to read the config file. It's okay if it doesn't exist.
	if err = viper.ReadInConfig(); err != nil {
		// If the config file is not found, we can ignore the error.
		// For other errors, we should return them.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("level=warn component=config msg=\"failed to read config file; using environment values\" err=%v", err)
		}
	}

	// Unmarshal the configuration into the Config struct.
	err = viper.Unmarshal(&config)
	if err != nil {
		return
	}

	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		config.ServerPort = port
	}
	if strings.TrimSpace(config.InternalAPIKey) == "" {
		config.InternalAPIKey = strings.TrimSpace(os.Getenv("REWARDS_SERVICE_INTERNAL_API_KEY"))
	}
	config.RedisURL = strings.TrimSpace(config.RedisURL)
	config.RedisRateLimitPrefix = strings.TrimSpace(config.RedisRateLimitPrefix)
	if config.RedisRateLimitPrefix == "" {
		config.RedisRateLimitPrefix = "toucanwin:rate_limit"
	}

	// Allow specifying the daily cap in whole dollars via DAILY_TOTAL_CAP.
	if viper.IsSet("DAILY_TOTAL_CAP") {
		capStr := strings.TrimSpace(viper.GetString("DAILY_TOTAL_CAP"))
		if capStr != "" {
			capValue, parseErr := strconv.ParseFloat(capStr, 64)
			if parseErr != nil {
				log.Printf("level=warn component=config msg=\"invalid DAILY_TOTAL_CAP\" value=%q err=%v", capStr, parseErr)
			} else {
				config.DailyTotalCapCents = int64(math.Round(capValue * 100))
			}
		}
	}

	if config.DailyBonusBasePoints <= 0 {
		log.Printf("level=warn component=config msg=\"non-positive daily bonus base configured; using default\" base_points=%d", config.DailyBonusBasePoints)
		config.DailyBonusBasePoints = 10
	}
	if config.FraudRejectThreshold <= 0 || config.FraudRejectThreshold > 1 {
		log.Printf("level=warn component=config msg=\"fraud threshold out of range; using default\" threshold=%f", config.FraudRejectThreshold)
		config.FraudRejectThreshold = 0.5
	}
	if config.DailyTotalCapCents <= 0 {
		config.DailyTotalCapCents = 100000
	}
	if config.ReceiptRateLimitPerMinute <= 0 {
		config.ReceiptRateLimitPerMinute = 10
	}
	if config.LedgerDisplayLimit <= 0 {
		config.LedgerDisplayLimit = 50
	}

	return
}
