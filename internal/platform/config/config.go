package config

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL   string
	Port          string
	IsProduction  bool
	EnableDBCheck bool
	JWTSecret     string
	JWTIssuer     string

	// Period locks
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	PeriodLockTTL time.Duration

	// Audit relay
	KafkaBrokers       []string
	AuditTopic         string
	AuditRelayInterval time.Duration
	AuditMaxRetries    int

	// Bank provider
	BankProviderBaseURL   string
	BankProviderTimeout   time.Duration
	BankOAuthClientID     string `mapstructure:"BANK_OAUTH_CLIENT_ID"`
	BankOAuthClientSecret string `mapstructure:"BANK_OAUTH_CLIENT_SECRET"`
	BankOAuthAuthURL      string `mapstructure:"BANK_OAUTH_AUTH_URL"`
	BankOAuthTokenURL     string `mapstructure:"BANK_OAUTH_TOKEN_URL"`
	BankOAuthRedirectURL  string `mapstructure:"BANK_OAUTH_REDIRECT_URL"`
	BankSyncInterval      time.Duration
	BankSyncLookbackDays  int
	BankSyncConcurrency   int

	// Ledger rules
	AutoMatchWindowDays  int
	RetainedEarningsCode string

	// HTTP
	RateLimit          string
	CORSAllowedOrigins []string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("ENABLE_DB_CHECK", false)
	viper.SetDefault("JWT_SECRET", "a-very-secret-key-should-be-longer-and-random")
	viper.SetDefault("JWT_ISSUER", "boekhouding-saas")
	viper.SetDefault("REDIS_ADDR", "")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("PERIOD_LOCK_TTL", "30s")
	viper.SetDefault("KAFKA_BROKERS", "")
	viper.SetDefault("AUDIT_TOPIC", "ledger.audit")
	viper.SetDefault("AUDIT_RELAY_INTERVAL", "5s")
	viper.SetDefault("AUDIT_MAX_RETRIES", 5)
	viper.SetDefault("BANK_PROVIDER_BASE_URL", "")
	viper.SetDefault("BANK_PROVIDER_TIMEOUT", "30s")
	viper.SetDefault("BANK_OAUTH_CLIENT_ID", "")
	viper.SetDefault("BANK_OAUTH_CLIENT_SECRET", "")
	viper.SetDefault("BANK_OAUTH_AUTH_URL", "")
	viper.SetDefault("BANK_OAUTH_TOKEN_URL", "")
	viper.SetDefault("BANK_OAUTH_REDIRECT_URL", "")
	viper.SetDefault("BANK_SYNC_INTERVAL", "1h")
	viper.SetDefault("BANK_SYNC_LOOKBACK_DAYS", 14)
	viper.SetDefault("BANK_SYNC_CONCURRENCY", 4)
	viper.SetDefault("AUTOMATCH_WINDOW_DAYS", 30)
	viper.SetDefault("RETAINED_EARNINGS_CODE", "0500")
	viper.SetDefault("RATE_LIMIT", "100-M")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")

	// Defaults can be overridden by .env values, which can then be overridden by actual environment variables.
	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set. Using the in-memory store.")
	}

	cfg.Port = viper.GetString("PORT")
	if cfg.Port == "" {
		cfg.Port = "8080"
		log.Printf("Warning: PORT environment variable not set. Defaulting to %s\n", cfg.Port)
	}

	cfg.JWTSecret = viper.GetString("JWT_SECRET")
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "a-very-secret-key-should-be-longer-and-random" // !! CHANGE IN PRODUCTION !!
		log.Println("Warning: JWT_SECRET environment variable not set. Using default insecure key.")
	}
	cfg.JWTIssuer = viper.GetString("JWT_ISSUER")

	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")
	cfg.EnableDBCheck = viper.GetBool("ENABLE_DB_CHECK")

	cfg.RedisAddr = viper.GetString("REDIS_ADDR")
	if cfg.RedisAddr == "" {
		log.Println("Warning: REDIS_ADDR not set. Period locks are process-local.")
	}
	cfg.RedisPassword = viper.GetString("REDIS_PASSWORD")
	cfg.RedisDB = viper.GetInt("REDIS_DB")
	cfg.PeriodLockTTL = durationOrDefault("PERIOD_LOCK_TTL", 30*time.Second)

	cfg.KafkaBrokers = splitList(viper.GetString("KAFKA_BROKERS"))
	if len(cfg.KafkaBrokers) == 0 {
		log.Println("Warning: KAFKA_BROKERS not set. Audit records stay in the outbox.")
	}
	cfg.AuditTopic = viper.GetString("AUDIT_TOPIC")
	cfg.AuditRelayInterval = durationOrDefault("AUDIT_RELAY_INTERVAL", 5*time.Second)
	cfg.AuditMaxRetries = viper.GetInt("AUDIT_MAX_RETRIES")

	cfg.BankProviderBaseURL = viper.GetString("BANK_PROVIDER_BASE_URL")
	if cfg.BankProviderBaseURL == "" {
		log.Println("Warning: BANK_PROVIDER_BASE_URL not set. Bank sync will not function.")
	}
	cfg.BankProviderTimeout = durationOrDefault("BANK_PROVIDER_TIMEOUT", 30*time.Second)
	cfg.BankOAuthClientID = viper.GetString("BANK_OAUTH_CLIENT_ID")
	cfg.BankOAuthClientSecret = viper.GetString("BANK_OAUTH_CLIENT_SECRET")
	cfg.BankOAuthAuthURL = viper.GetString("BANK_OAUTH_AUTH_URL")
	cfg.BankOAuthTokenURL = viper.GetString("BANK_OAUTH_TOKEN_URL")
	cfg.BankOAuthRedirectURL = viper.GetString("BANK_OAUTH_REDIRECT_URL")
	cfg.BankSyncInterval = durationOrDefault("BANK_SYNC_INTERVAL", time.Hour)
	cfg.BankSyncLookbackDays = viper.GetInt("BANK_SYNC_LOOKBACK_DAYS")
	cfg.BankSyncConcurrency = viper.GetInt("BANK_SYNC_CONCURRENCY")
	if cfg.BankSyncConcurrency < 1 {
		cfg.BankSyncConcurrency = 1
	}

	cfg.AutoMatchWindowDays = viper.GetInt("AUTOMATCH_WINDOW_DAYS")
	cfg.RetainedEarningsCode = viper.GetString("RETAINED_EARNINGS_CODE")

	cfg.RateLimit = viper.GetString("RATE_LIMIT")
	cfg.CORSAllowedOrigins = splitList(viper.GetString("CORS_ALLOWED_ORIGINS"))

	// The in-memory store serializes all tenants and loses data on restart.
	if cfg.IsProduction && cfg.DatabaseURL == "" {
		return nil, errors.New("PGSQL_URL is required when IS_PRODUCTION is set")
	}

	return cfg, nil
}

func durationOrDefault(key string, def time.Duration) time.Duration {
	raw := viper.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		if raw != "" {
			log.Printf("Warning: Invalid value for %s ('%s'). Defaulting to %s.\n", key, raw, def.String())
		}
		return def
	}
	return d
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
