package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

// Config aggregates application settings that may be sourced from files or environment variables.
type Config struct {
	API      APIConfig      `mapstructure:"api"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Session  SessionConfig  `mapstructure:"session"`
	Payment  PaymentConfig  `mapstructure:"payment"`

	// Offline keeps the service bootable without a database or payment
	// gateway. Account lookups miss, writes no-op, only demo flows work.
	Offline bool `mapstructure:"offline"`
}

// APIConfig contains HTTP server settings.
type APIConfig struct {
	Port int `mapstructure:"port"`
}

// DatabaseConfig contains connection options for PostgreSQL.
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"`
}

// RedisConfig contains Redis connection settings.
type RedisConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// LLMConfig contains credentials for the hosted text-generation service.
type LLMConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

// SessionConfig controls session tokens and their lifetime.
type SessionConfig struct {
	Secret       string `mapstructure:"secret"`
	TTLHours     int    `mapstructure:"ttl_hours"`
	CookieDomain string `mapstructure:"cookie_domain"`
}

// PaymentConfig contains the payment gateway credentials and the hosted
// checkout links surfaced to the client.
type PaymentConfig struct {
	BaseURL     string `mapstructure:"base_url"`
	SecretKey   string `mapstructure:"secret_key"`
	SingleLink  string `mapstructure:"single_link"`
	MonthlyLink string `mapstructure:"monthly_link"`
	PayPalLink  string `mapstructure:"paypal_link"`

	// AllowTestBypass enables the TEST-ADMIN tracking id shortcut. It is an
	// authentication bypass and must stay off outside operator testing.
	AllowTestBypass bool `mapstructure:"allow_test_bypass"`
}

// DSN builds a lib/pq compatible connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host,
		d.Port,
		d.User,
		d.Password,
		d.Name,
		d.SSLMode,
	)
}

// Load reads configuration solely from environment variables (with optional defaults).
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if err := bindEnv(v); err != nil {
		return nil, fmt.Errorf("bind env: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// MustLoad wraps Load and panics on failure.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.port", 8080)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "careerflow")
	v.SetDefault("database.user", "careerflow")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("llm.model", "gemini-2.5-flash")
	v.SetDefault("session.ttl_hours", 24)
	v.SetDefault("payment.base_url", "https://payment.intasend.com")
	v.SetDefault("payment.allow_test_bypass", false)
	v.SetDefault("offline", false)
}

func bindEnv(v *viper.Viper) error {
	mappings := map[string]string{
		"api.port":                  "API_PORT",
		"database.host":             "DATABASE_HOST",
		"database.port":             "DATABASE_PORT",
		"database.name":             "POSTGRES_DB",
		"database.user":             "POSTGRES_USER",
		"database.password":         "POSTGRES_PASSWORD",
		"database.sslmode":          "DATABASE_SSLMODE",
		"redis.host":                "REDIS_HOST",
		"redis.port":                "REDIS_PORT",
		"llm.api_key":               "LLM_API_KEY",
		"llm.model":                 "LLM_MODEL",
		"session.secret":            "SESSION_SECRET",
		"session.ttl_hours":         "SESSION_TTL_HOURS",
		"session.cookie_domain":     "SESSION_COOKIE_DOMAIN",
		"payment.base_url":          "PAYMENT_BASE_URL",
		"payment.secret_key":        "PAYMENT_SECRET_KEY",
		"payment.single_link":       "PAYMENT_LINK_SINGLE",
		"payment.monthly_link":      "PAYMENT_LINK_MONTHLY",
		"payment.paypal_link":       "PAYMENT_LINK_PAYPAL",
		"payment.allow_test_bypass": "PAYMENT_ALLOW_TEST_BYPASS",
		"offline":                   "OFFLINE_MODE",
	}

	for key, env := range mappings {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("bind %s to %s: %w", key, env, err)
		}
	}

	return nil
}

// validate applies one policy for missing secrets: fail fast at startup,
// unless offline mode is explicitly requested.
func validate(cfg Config) error {
	if cfg.API.Port <= 0 {
		return errors.New("api port must be positive")
	}
	if cfg.Session.Secret == "" {
		return errors.New("session secret is required")
	}
	if cfg.Session.TTLHours <= 0 {
		return errors.New("session ttl must be positive")
	}
	if cfg.Redis.Host == "" {
		return errors.New("redis host is required")
	}
	if cfg.Redis.Port <= 0 {
		return errors.New("redis port must be positive")
	}

	if cfg.Offline {
		return nil
	}

	if cfg.Database.Host == "" {
		return errors.New("database host is required")
	}
	if cfg.Database.Port <= 0 {
		return errors.New("database port must be positive")
	}
	if cfg.Database.Name == "" {
		return errors.New("database name is required")
	}
	if cfg.Database.User == "" {
		return errors.New("database user is required")
	}
	if cfg.Database.Password == "" {
		return errors.New("database password is required")
	}
	if cfg.Database.SSLMode == "" {
		return errors.New("database sslmode is required")
	}
	if cfg.LLM.APIKey == "" {
		return errors.New("llm api key is required")
	}
	if cfg.LLM.Model == "" {
		return errors.New("llm model is required")
	}
	if cfg.Payment.SecretKey == "" {
		return errors.New("payment secret key is required")
	}
	if cfg.Payment.BaseURL == "" {
		return errors.New("payment base url is required")
	}
	return nil
}
