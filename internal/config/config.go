package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	// Remote service base URLs
	UsersURL           string
	DishesURL          string
	OrdersURL          string
	OrdersFallbackURLs []string
	PaymentsURL        string
	BalanceURL         string

	RequestTimeout time.Duration
	ReadRetries    int
	RetryBackoff   time.Duration
	RateLimit      float64
	RateBurst      int

	// Session persistence: sqlite, postgres, redis or memory
	SessionStore string
	SessionDSN   string
	RedisAddr    string
	SessionTTL   time.Duration

	// Optional integrations, disabled when empty
	LedgerDatabaseURL string
	AMQPURL           string

	CompletionRequiresPayment bool

	LogLevel  string
	LogFormat string

	// Development backend
	DevAddr            string
	DevJWTSecret       string
	DevStartingBalance string
	DevMinimumCharge   string
	DevTokenTTL        time.Duration
}

var defaults = map[string]any{
	"USERS_URL":            "http://localhost:8081",
	"DISHES_URL":           "http://localhost:8082",
	"ORDERS_URL":           "http://localhost:8083",
	"ORDERS_FALLBACK_URLS": "http://localhost:8081,http://localhost:8084",
	"PAYMENTS_URL":         "http://localhost:8083",
	"BALANCE_URL":          "http://localhost:8084",

	"REQUEST_TIMEOUT": "5s",
	"READ_RETRIES":    2,
	"RETRY_BACKOFF":   "200ms",
	"RATE_LIMIT":      20.0,
	"RATE_BURST":      10,

	"SESSION_STORE": "sqlite",
	"SESSION_DSN":   "homemade-session.db",
	"REDIS_ADDR":    "localhost:6379",
	"SESSION_TTL":   "0s",

	"LEDGER_DATABASE_URL": "",
	"AMQP_URL":            "",

	"COMPLETION_REQUIRES_PAYMENT": false,

	"LOG_LEVEL":  "info",
	"LOG_FORMAT": "console",

	"DEV_ADDR":             ":8090",
	"DEV_JWT_SECRET":       "dev-secret-change-me",
	"DEV_STARTING_BALANCE": "1000.0",
	"DEV_MINIMUM_CHARGE":   "10.0",
	"DEV_TOKEN_TTL":        "12h",
}

// Load reads defaults, then the optional YAML/JSON file at path, then
// environment variables named like the keys above.
func Load(path string) (Config, error) {
	v := viper.New()
	for k, def := range defaults {
		v.SetDefault(k, def)
	}
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := Config{
		UsersURL:           v.GetString("USERS_URL"),
		DishesURL:          v.GetString("DISHES_URL"),
		OrdersURL:          v.GetString("ORDERS_URL"),
		OrdersFallbackURLs: splitCSV(v.GetString("ORDERS_FALLBACK_URLS")),
		PaymentsURL:        v.GetString("PAYMENTS_URL"),
		BalanceURL:         v.GetString("BALANCE_URL"),

		RequestTimeout: v.GetDuration("REQUEST_TIMEOUT"),
		ReadRetries:    v.GetInt("READ_RETRIES"),
		RetryBackoff:   v.GetDuration("RETRY_BACKOFF"),
		RateLimit:      v.GetFloat64("RATE_LIMIT"),
		RateBurst:      v.GetInt("RATE_BURST"),

		SessionStore: strings.ToLower(v.GetString("SESSION_STORE")),
		SessionDSN:   v.GetString("SESSION_DSN"),
		RedisAddr:    v.GetString("REDIS_ADDR"),
		SessionTTL:   v.GetDuration("SESSION_TTL"),

		LedgerDatabaseURL: v.GetString("LEDGER_DATABASE_URL"),
		AMQPURL:           v.GetString("AMQP_URL"),

		CompletionRequiresPayment: v.GetBool("COMPLETION_REQUIRES_PAYMENT"),

		LogLevel:  v.GetString("LOG_LEVEL"),
		LogFormat: v.GetString("LOG_FORMAT"),

		DevAddr:            v.GetString("DEV_ADDR"),
		DevJWTSecret:       v.GetString("DEV_JWT_SECRET"),
		DevStartingBalance: v.GetString("DEV_STARTING_BALANCE"),
		DevMinimumCharge:   v.GetString("DEV_MINIMUM_CHARGE"),
		DevTokenTTL:        v.GetDuration("DEV_TOKEN_TTL"),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	urls := map[string]string{
		"USERS_URL":    c.UsersURL,
		"DISHES_URL":   c.DishesURL,
		"ORDERS_URL":   c.OrdersURL,
		"PAYMENTS_URL": c.PaymentsURL,
		"BALANCE_URL":  c.BalanceURL,
	}
	for k, raw := range urls {
		if err := checkURL(raw); err != nil {
			return fmt.Errorf("%s: %w", k, err)
		}
	}
	for _, raw := range c.OrdersFallbackURLs {
		if err := checkURL(raw); err != nil {
			return fmt.Errorf("ORDERS_FALLBACK_URLS: %w", err)
		}
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive, got %s", c.RequestTimeout)
	}
	if c.ReadRetries < 0 {
		return fmt.Errorf("READ_RETRIES must not be negative, got %d", c.ReadRetries)
	}
	switch c.SessionStore {
	case "sqlite", "postgres", "redis", "memory":
	default:
		return fmt.Errorf("SESSION_STORE: unsupported store %q", c.SessionStore)
	}
	return nil
}

func checkURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid base url %q", raw)
	}
	return nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
