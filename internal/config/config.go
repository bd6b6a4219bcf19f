package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/govalues/decimal"
	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the bot and supporting services.
type Config struct {
	BotToken    string  `env:"TELEGRAM_BOT_TOKEN,required"`
	MySQLDSN    string  `env:"MYSQL_DSN,required"`
	OperatorIDs []int64 `env:"OPERATOR_IDS,required" envSeparator:","`
	LogLevel    string  `env:"LOG_LEVEL" envDefault:"info"`

	CryptoPayToken       string          `env:"CRYPTO_PAY_TOKEN"`
	CryptoPayBaseURL     string          `env:"CRYPTO_PAY_BASE_URL" envDefault:"https://pay.crypt.bot/api"`
	CryptoPayAsset       string          `env:"CRYPTO_PAY_ASSET" envDefault:"USDT"`
	CryptoSettlementRate decimal.Decimal `env:"CRYPTO_SETTLEMENT_RATE" envDefault:"85.0"`
	CryptoPaidButtonURL  string          `env:"CRYPTO_PAID_BUTTON_URL"`
	RequestTimeout       time.Duration
	HTTPTimeoutSeconds   int             `env:"HTTP_TIMEOUT_SECONDS" envDefault:"30"`

	StarRate        decimal.Decimal `env:"STAR_RATE" envDefault:"1.5"`
	USDRate         decimal.Decimal `env:"USD_RATE" envDefault:"85.0"`
	PremiumPrice3M  decimal.Decimal `env:"PREMIUM_PRICE_3M" envDefault:"1124.11"`
	PremiumPrice6M  decimal.Decimal `env:"PREMIUM_PRICE_6M" envDefault:"1498.81"`
	PremiumPrice1Y  decimal.Decimal `env:"PREMIUM_PRICE_1Y" envDefault:"2716.59"`
	CardPaymentText string          `env:"CARD_PAYMENT_DETAILS,required"`

	SubscriptionChannelID       int64  `env:"SUBSCRIPTION_CHANNEL_ID"`
	SubscriptionChannelUsername string `env:"SUBSCRIPTION_CHANNEL_USERNAME"`
	SupportUsername             string `env:"SUPPORT_USERNAME"`
	ReputationURL               string `env:"REPUTATION_URL"`
	NewsURL                     string `env:"NEWS_URL"`

	StateBackend  string `env:"STATE_BACKEND" envDefault:"memory"`
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	AdminListenAddr string `env:"ADMIN_LISTEN_ADDR" envDefault:":8080"`
	AdminUsername   string `env:"ADMIN_USERNAME" envDefault:"admin"`
	AdminPassword   string `env:"ADMIN_PASSWORD,required"`

	S3Endpoint      string `env:"S3_ENDPOINT"`
	S3Region        string `env:"S3_REGION"`
	S3AccessKey     string `env:"S3_ACCESS_KEY"`
	S3SecretKey     string `env:"S3_SECRET_KEY"`
	S3Bucket        string `env:"S3_BUCKET"`
	S3PublicBaseURL string `env:"S3_PUBLIC_BASE_URL"`
	S3UsePathStyle  bool   `env:"S3_USE_PATH_STYLE" envDefault:"false"`
	S3Prefix        string `env:"S3_PREFIX" envDefault:"payment-proofs"`
}

// CryptoEnabled reports whether the crypto invoice rail is configured.
func (c Config) CryptoEnabled() bool {
	return c.CryptoPayToken != ""
}

// ArchiveEnabled reports whether payment proofs are copied to S3.
func (c Config) ArchiveEnabled() bool {
	return c.S3Bucket != ""
}

// Load reads configuration from the environment, after an optional .env file.
func Load() (Config, error) {
	if err := loadEnvFile(); err != nil {
		return Config{}, err
	}
	return parse(env.Options{})
}

func parse(opts env.Options) (Config, error) {
	opts.FuncMap = map[reflect.Type]env.ParserFunc{
		reflect.TypeOf(decimal.Decimal{}): func(v string) (interface{}, error) {
			return decimal.Parse(strings.TrimSpace(v))
		},
	}

	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	cfg.RequestTimeout = time.Second * time.Duration(cfg.HTTPTimeoutSeconds)
	cfg.SubscriptionChannelUsername = normalizeChannelUsername(cfg.SubscriptionChannelUsername)
	cfg.StateBackend = strings.ToLower(strings.TrimSpace(cfg.StateBackend))

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	var problems []string
	if len(c.OperatorIDs) == 0 {
		problems = append(problems, "OPERATOR_IDS must list at least one id")
	}
	for name, rate := range map[string]decimal.Decimal{
		"STAR_RATE":              c.StarRate,
		"USD_RATE":               c.USDRate,
		"CRYPTO_SETTLEMENT_RATE": c.CryptoSettlementRate,
		"PREMIUM_PRICE_3M":       c.PremiumPrice3M,
		"PREMIUM_PRICE_6M":       c.PremiumPrice6M,
		"PREMIUM_PRICE_1Y":       c.PremiumPrice1Y,
	} {
		if !rate.IsPos() {
			problems = append(problems, name+" must be positive")
		}
	}
	switch c.StateBackend {
	case "memory", "redis":
	default:
		problems = append(problems, fmt.Sprintf("STATE_BACKEND %q is not one of memory, redis", c.StateBackend))
	}
	if c.ArchiveEnabled() {
		if c.S3Region == "" {
			problems = append(problems, "S3_REGION")
		}
		if c.S3AccessKey == "" || c.S3SecretKey == "" {
			problems = append(problems, "S3_ACCESS_KEY/S3_SECRET_KEY")
		}
		if c.S3PublicBaseURL == "" {
			problems = append(problems, "S3_PUBLIC_BASE_URL")
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %v", problems)
	}
	return nil
}

// SubscriptionChannelLink builds a public link to the gate channel, if any.
func (c Config) SubscriptionChannelLink() string {
	if c.SubscriptionChannelUsername == "" {
		return ""
	}
	return "https://t.me/" + c.SubscriptionChannelUsername
}

func loadEnvFile() error {
	candidates := []string{}
	if custom, ok := os.LookupEnv("CONFIG_ENV_PATH"); ok && custom != "" {
		candidates = append(candidates, custom)
	}
	candidates = append(candidates,
		filepath.Join("configs", ".env"),
		".env",
	)

	for _, path := range candidates {
		info, err := os.Stat(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("access env file %s: %w", path, err)
		}
		if info.IsDir() {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load env file %s: %w", path, err)
		}
		return nil
	}
	// Variables may come straight from the environment.
	return nil
}

func normalizeChannelUsername(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimSuffix(raw, "/")
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		if parsed, err := url.Parse(raw); err == nil {
			raw = strings.Trim(parsed.Path, "/")
		}
	}
	raw = strings.TrimPrefix(raw, "t.me/")
	return strings.TrimPrefix(raw, "@")
}
