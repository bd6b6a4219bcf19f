package config

import (
	"testing"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/govalues/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseEnv() map[string]string {
	return map[string]string{
		"TELEGRAM_BOT_TOKEN":   "123:abc",
		"MYSQL_DSN":            "bot:secret@tcp(localhost:3306)/store?parseTime=true",
		"OPERATOR_IDS":         "1001,1002",
		"CARD_PAYMENT_DETAILS": "2200 0000 0000 0000",
		"ADMIN_PASSWORD":       "pw",
	}
}

func TestParseDefaults(t *testing.T) {
	cfg, err := parse(env.Options{Environment: baseEnv()})
	require.NoError(t, err)

	assert.Equal(t, []int64{1001, 1002}, cfg.OperatorIDs)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "memory", cfg.StateBackend)
	assert.Equal(t, "USDT", cfg.CryptoPayAsset)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, decimal.MustParse("1.5"), cfg.StarRate)
	assert.Equal(t, decimal.MustParse("85.0"), cfg.USDRate)
	assert.Equal(t, decimal.MustParse("2716.59"), cfg.PremiumPrice1Y)
	assert.False(t, cfg.CryptoEnabled())
	assert.False(t, cfg.ArchiveEnabled())
	assert.Empty(t, cfg.SubscriptionChannelLink())
}

func TestParseMissingRequired(t *testing.T) {
	vars := baseEnv()
	delete(vars, "OPERATOR_IDS")

	_, err := parse(env.Options{Environment: vars})
	assert.Error(t, err)
}

func TestParseRejectsBadValues(t *testing.T) {
	tests := map[string]map[string]string{
		"non-positive rate": {"STAR_RATE": "0"},
		"negative price":    {"PREMIUM_PRICE_3M": "-1"},
		"unknown backend":   {"STATE_BACKEND": "etcd"},
		"bad decimal":       {"USD_RATE": "eighty"},
		"partial s3":        {"S3_BUCKET": "proofs"},
	}

	for name, overrides := range tests {
		t.Run(name, func(t *testing.T) {
			vars := baseEnv()
			for k, v := range overrides {
				vars[k] = v
			}
			_, err := parse(env.Options{Environment: vars})
			assert.Error(t, err)
		})
	}
}

func TestParseOptionalFeatures(t *testing.T) {
	vars := baseEnv()
	vars["CRYPTO_PAY_TOKEN"] = "tok"
	vars["STATE_BACKEND"] = " Redis "
	vars["SUBSCRIPTION_CHANNEL_USERNAME"] = "https://t.me/digistore_news/"
	vars["S3_BUCKET"] = "proofs"
	vars["S3_REGION"] = "ru-central1"
	vars["S3_ACCESS_KEY"] = "ak"
	vars["S3_SECRET_KEY"] = "sk"
	vars["S3_PUBLIC_BASE_URL"] = "https://cdn.example.com"
	vars["HTTP_TIMEOUT_SECONDS"] = "5"

	cfg, err := parse(env.Options{Environment: vars})
	require.NoError(t, err)

	assert.True(t, cfg.CryptoEnabled())
	assert.True(t, cfg.ArchiveEnabled())
	assert.Equal(t, "redis", cfg.StateBackend)
	assert.Equal(t, "digistore_news", cfg.SubscriptionChannelUsername)
	assert.Equal(t, "https://t.me/digistore_news", cfg.SubscriptionChannelLink())
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
}

func TestNormalizeChannelUsername(t *testing.T) {
	for in, want := range map[string]string{
		"@news":                "news",
		"news":                 "news",
		"t.me/news":            "news",
		"https://t.me/news/":   "news",
		"  http://t.me/news  ": "news",
		"":                     "",
	} {
		assert.Equal(t, want, normalizeChannelUsername(in), in)
	}
}
