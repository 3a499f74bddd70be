package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	"github.com/shopspring/decimal"
)

// Config holds application configuration loaded from the environment. Engine
// rate tables live in their packages' DefaultConfig; only deployment-tunable
// knobs surface here.
type Config struct {
	AppEnv             string
	Port               string
	CORSAllowedOrigins []string
	LogFormat          string
	LogLevel           string
	MetricsNamespace   string
	MetricsEnabled     bool
	CurrencyCode       string
	MinMarginRate      decimal.Decimal
	StackingCapBps     int
	VATRateBps         int
	PromotionsFile     string
	QuoteRatePerMinute int
}

// Load reads configuration from environment variables and optional .env
// files, applying defaults and validating the margin rate so a bad value is
// caught at startup rather than mid-calculation.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
		LogFormat:          valueOrDefault(k.String("LOG_FORMAT"), "json"),
		LogLevel:           valueOrDefault(k.String("LOG_LEVEL"), "info"),
		MetricsNamespace:   valueOrDefault(k.String("METRICS_NAMESPACE"), "pricing"),
		MetricsEnabled:     parseBool(valueOrDefault(k.String("METRICS_ENABLED"), "true")),
		CurrencyCode:       valueOrDefault(k.String("CURRENCY_CODE"), "IDR"),
		StackingCapBps:     parseInt(k.String("DISCOUNT_STACKING_CAP_BPS"), 2500),
		VATRateBps:         parseInt(k.String("TAX_VAT_RATE_BPS"), 1100),
		PromotionsFile:     strings.TrimSpace(k.String("PROMOTIONS_FILE")),
		QuoteRatePerMinute: parseInt(k.String("QUOTE_RATE_PER_MINUTE"), 120),
	}

	rate, err := decimal.NewFromString(valueOrDefault(k.String("MIN_MARGIN_RATE"), "0.30"))
	if err != nil {
		return nil, fmt.Errorf("MIN_MARGIN_RATE: %w", err)
	}
	if rate.IsNegative() || rate.Cmp(decimal.NewFromInt(1)) >= 0 {
		return nil, fmt.Errorf("MIN_MARGIN_RATE must be in [0,1), got %s", rate)
	}
	cfg.MinMarginRate = rate

	if cfg.StackingCapBps <= 0 || cfg.StackingCapBps > 10_000 {
		return nil, fmt.Errorf("DISCOUNT_STACKING_CAP_BPS must be in (0,10000], got %d", cfg.StackingCapBps)
	}
	if cfg.VATRateBps < 0 || cfg.VATRateBps > 10_000 {
		return nil, fmt.Errorf("TAX_VAT_RATE_BPS must be in [0,10000], got %d", cfg.VATRateBps)
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

// StackingCap converts the configured basis points into a decimal rate.
func (c *Config) StackingCap() decimal.Decimal {
	return decimal.New(int64(c.StackingCapBps), -4)
}

// VATRate converts the configured basis points into a decimal rate.
func (c *Config) VATRate() decimal.Decimal {
	return decimal.New(int64(c.VATRateBps), -4)
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

func parseInt(value string, fallback int) int {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(trimmed)
	if err != nil {
		return fallback
	}
	return parsed
}

// MustLoad behaves like Load but panics on error. Useful for tests and
// command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without
// touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
