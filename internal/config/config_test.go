package config

import (
	"os"
	"testing"

	"github.com/spf13/viper"
)

func TestLoadConfig_UsesRewardsServiceInternalAPIKeyAlias(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	unsetEnvWithCleanup(t, "INTERNAL_API_KEY")
	setEnvWithCleanup(t, "REWARDS_SERVICE_INTERNAL_API_KEY", "alias-only-key")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.InternalAPIKey != "alias-only-key" {
		t.Fatalf("expected InternalAPIKey from alias env var, got %q", cfg.InternalAPIKey)
	}
}

func TestLoadConfig_InternalAPIKeyTakesPrecedenceOverAlias(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	setEnvWithCleanup(t, "INTERNAL_API_KEY", "primary-key")
	setEnvWithCleanup(t, "REWARDS_SERVICE_INTERNAL_API_KEY", "alias-key")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.InternalAPIKey != "primary-key" {
		t.Fatalf("expected InternalAPIKey to prioritize INTERNAL_API_KEY, got %q", cfg.InternalAPIKey)
	}
}

func TestLoadConfig_EconomyDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	unsetEnvWithCleanup(t, "DAILY_BONUS_BASE_POINTS")
	unsetEnvWithCleanup(t, "FRAUD_REJECT_THRESHOLD")
	unsetEnvWithCleanup(t, "DAILY_TOTAL_CAP_CENTS")
	unsetEnvWithCleanup(t, "DAILY_TOTAL_CAP")
	unsetEnvWithCleanup(t, "RECEIPT_RATE_LIMIT_PER_MINUTE")
	unsetEnvWithCleanup(t, "LEDGER_DISPLAY_LIMIT")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.DailyBonusBasePoints != 10 {
		t.Fatalf("expected default DailyBonusBasePoints 10, got %d", cfg.DailyBonusBasePoints)
	}
	if cfg.FraudRejectThreshold != 0.5 {
		t.Fatalf("expected default FraudRejectThreshold 0.5, got %f", cfg.FraudRejectThreshold)
	}
	if cfg.DailyTotalCapCents != 100000 {
		t.Fatalf("expected default DailyTotalCapCents 100000, got %d", cfg.DailyTotalCapCents)
	}
	if cfg.ReceiptRateLimitPerMinute != 10 {
		t.Fatalf("expected default ReceiptRateLimitPerMinute 10, got %d", cfg.ReceiptRateLimitPerMinute)
	}
}

func TestLoadConfig_DailyCapInWholeDollars(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	unsetEnvWithCleanup(t, "DAILY_TOTAL_CAP_CENTS")
	setEnvWithCleanup(t, "DAILY_TOTAL_CAP", "750")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.DailyTotalCapCents != 75000 {
		t.Fatalf("expected DAILY_TOTAL_CAP=750 to read as 75000 cents, got %d", cfg.DailyTotalCapCents)
	}
}

func TestLoadConfig_OutOfRangeFraudThresholdFallsBack(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	setEnvWithCleanup(t, "FRAUD_REJECT_THRESHOLD", "1.5")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.FraudRejectThreshold != 0.5 {
		t.Fatalf("expected out-of-range threshold to fall back to 0.5, got %f", cfg.FraudRejectThreshold)
	}
}

func setEnvWithCleanup(t *testing.T, key string, value string) {
	t.Helper()
	prev, hadPrev := os.LookupEnv(key)
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("failed to set env %s: %v", key, err)
	}
	t.Cleanup(func() {
		if hadPrev {
			_ = os.Setenv(key, prev)
			return
		}
		_ = os.Unsetenv(key)
	})
}

func unsetEnvWithCleanup(t *testing.T, key string) {
	t.Helper()
	prev, hadPrev := os.LookupEnv(key)
	if err := os.Unsetenv(key); err != nil {
		t.Fatalf("failed to unset env %s: %v", key, err)
	}
	t.Cleanup(func() {
		if hadPrev {
			_ = os.Setenv(key, prev)
			return
		}
		_ = os.Unsetenv(key)
	})
}
